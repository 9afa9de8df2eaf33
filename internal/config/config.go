package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

var (
	// ErrMissingSetting is returned when a component is built without a
	// setting it cannot work without.
	ErrMissingSetting = errors.New("missing required setting")
	ErrInvalidSetting = errors.New("invalid setting")
)

// Missing builds an ErrMissingSetting error naming the environment variable.
func Missing(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingSetting, name)
}

// Invalid builds an ErrInvalidSetting error for a value that cannot be used.
func Invalid(name, value, hint string) error {
	return fmt.Errorf("%w: %s=%q: %s", ErrInvalidSetting, name, value, hint)
}

type Config struct {
	App struct {
		Name     string     `envconfig:"APP_NAME" default:"Ledgerly"`
		Port     int        `envconfig:"PORT" default:"8080"`
		LogLevel slog.Level `envconfig:"LOG_LEVEL" default:"INFO"`
	}

	Report struct {
		Title         string   `envconfig:"REPORT_TITLE" default:"Financial Report"`
		DefaultPeriod string   `envconfig:"REPORT_PERIOD" default:"current-month"`
		Recipients    []string `envconfig:"REPORT_RECIPIENTS"`
		StartDate     string   `envconfig:"REPORT_START_DATE"`
		EndDate       string   `envconfig:"REPORT_END_DATE"`
		OutputDir     string   `envconfig:"REPORT_OUTPUT_DIR" default:"./reports"`
		NetBasis      string   `envconfig:"REPORT_NET_BASIS" default:"auto"`
		// Kinds selects the record kinds included: expenses, invoices, payments.
		Kinds []string `envconfig:"REPORT_KINDS" default:"expenses,invoices,payments"`
	}

	Accounting struct {
		BaseURL  string        `envconfig:"ACCOUNTING_API_URL"`
		Token    string        `envconfig:"ACCOUNTING_API_TOKEN"`
		PageSize int           `envconfig:"ACCOUNTING_PAGE_SIZE" default:"100"`
		MaxPages int           `envconfig:"ACCOUNTING_MAX_PAGES" default:"500"`
		Timeout  time.Duration `envconfig:"ACCOUNTING_TIMEOUT" default:"30s"`
		// CSVDir switches the record source to exported CSV files.
		CSVDir string `envconfig:"ACCOUNTING_CSV_DIR"`
	}

	SMTP struct {
		Host     string        `envconfig:"SMTP_HOST"`
		Port     int           `envconfig:"SMTP_PORT" default:"587"`
		Username string        `envconfig:"SMTP_USERNAME"`
		Password string        `envconfig:"SMTP_PASSWORD"`
		From     string        `envconfig:"SMTP_FROM"`
		TLS      string        `envconfig:"SMTP_TLS" default:"opportunistic"`
		Timeout  time.Duration `envconfig:"SMTP_TIMEOUT" default:"30s"`
	}

	PDF struct {
		Timeout    time.Duration `envconfig:"PDF_TIMEOUT" default:"60s"`
		ChromePath string        `envconfig:"PDF_CHROME_PATH"`
	}

	Archive struct {
		Bucket string `envconfig:"ARCHIVE_GCS_BUCKET"`
		Prefix string `envconfig:"ARCHIVE_GCS_PREFIX" default:"reports"`
	}

	Events struct {
		AMQPURL    string `envconfig:"EVENTS_AMQP_URL"`
		Exchange   string `envconfig:"EVENTS_EXCHANGE" default:"ledgerly"`
		RoutingKey string `envconfig:"EVENTS_ROUTING_KEY" default:"report.generated"`
	}

	API struct {
		JWTSecret   string        `envconfig:"API_JWT_SECRET"`
		CORSOrigins []string      `envconfig:"API_CORS_ORIGINS" default:"*"`
		Timeout     time.Duration `envconfig:"API_TIMEOUT" default:"2m"`
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
