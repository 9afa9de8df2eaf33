package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrJamesThe3rd/ledgerly/internal/accounting"
	"github.com/MrJamesThe3rd/ledgerly/internal/accounting/csvsource"
	"github.com/MrJamesThe3rd/ledgerly/internal/archive"
	"github.com/MrJamesThe3rd/ledgerly/internal/config"
	"github.com/MrJamesThe3rd/ledgerly/internal/events"
	"github.com/MrJamesThe3rd/ledgerly/internal/mailer"
	"github.com/MrJamesThe3rd/ledgerly/internal/record"
	"github.com/MrJamesThe3rd/ledgerly/internal/render"
)

// NewFromConfig wires the production collaborators described by cfg. The
// returned cleanup releases archive and broker connections.
//
// The mail sender is only built when SMTP_HOST is set. A source or sender
// whose settings are unusable does not fail construction: every call to it
// returns the configuration error, so Check can report it. Archive and event
// connections that cannot be established are logged and left out.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, func(), error) {
	settings, err := SettingsFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	source, err := newSource(cfg)
	if err != nil {
		logger.Warn("Record source unavailable", "error", err)
		source = unavailable{err: err}
	}

	deps := Deps{
		Source: source,
		NewRenderer: func() Renderer {
			return render.New(render.Options{Timeout: cfg.PDF.Timeout, ChromePath: cfg.PDF.ChromePath})
		},
		Logger: logger,
	}

	if cfg.SMTP.Host != "" {
		sender, err := mailer.New(mailer.Options{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			TLS:      cfg.SMTP.TLS,
			Timeout:  cfg.SMTP.Timeout,
		})
		if err != nil {
			err = fmt.Errorf("configuring mailer: %w", err)
			logger.Warn("Mail sender unavailable", "error", err)
			deps.Sender = unavailable{err: err}
		} else {
			deps.Sender = sender
		}
	}

	var closers []func() error

	if cfg.Archive.Bucket != "" {
		gcs, err := archive.NewGCS(ctx, cfg.Archive.Bucket, cfg.Archive.Prefix)
		if err != nil {
			logger.Warn("Report archive disabled", "error", err)
		} else {
			deps.Archiver = gcs
			closers = append(closers, gcs.Close)
		}
	}

	if cfg.Events.AMQPURL != "" {
		pub, err := events.NewPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, cfg.Events.RoutingKey)
		if err != nil {
			logger.Warn("Report events disabled", "error", err)
		} else {
			deps.Publisher = pub
			closers = append(closers, pub.Close)
		}
	}

	cleanup := func() {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}

		if err := errors.Join(errs...); err != nil {
			logger.Warn("Releasing connections", "error", err)
		}
	}

	return NewService(settings, deps), cleanup, nil
}

func newSource(cfg *config.Config) (Source, error) {
	if cfg.Accounting.CSVDir != "" {
		return csvsource.New(cfg.Accounting.CSVDir)
	}

	client, err := accounting.NewClient(accounting.Options{
		BaseURL:  cfg.Accounting.BaseURL,
		Token:    cfg.Accounting.Token,
		PageSize: cfg.Accounting.PageSize,
		MaxPages: cfg.Accounting.MaxPages,
		Timeout:  cfg.Accounting.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring accounting client: %w", err)
	}

	return client, nil
}

// unavailable stands in for a source or sender that could not be built from
// the configuration.
type unavailable struct {
	err error
}

func (u unavailable) FetchExpenses(context.Context, accounting.Filter) ([]record.Record, error) {
	return nil, u.err
}

func (u unavailable) FetchInvoices(context.Context, accounting.Filter) ([]record.Record, error) {
	return nil, u.err
}

func (u unavailable) FetchPayments(context.Context, accounting.Filter) ([]record.Record, error) {
	return nil, u.err
}

func (u unavailable) Ping(context.Context) error {
	return u.err
}

func (u unavailable) Send(context.Context, mailer.Message) (string, error) {
	return "", u.err
}

func (u unavailable) Verify(context.Context) bool {
	return false
}
