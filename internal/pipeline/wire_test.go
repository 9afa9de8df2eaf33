package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerly/internal/config"
	"github.com/MrJamesThe3rd/ledgerly/internal/pipeline"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewFromConfig_UnconfiguredSource(t *testing.T) {
	cfg := baseConfig()
	cfg.Report.OutputDir = t.TempDir()

	svc, cleanup, err := pipeline.NewFromConfig(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	defer cleanup()

	checks := svc.Check(context.Background())
	require.Len(t, checks, 2)

	assert.Equal(t, "Accounting API", checks[0].Name)
	require.ErrorIs(t, checks[0].Err, config.ErrMissingSetting)
	assert.Contains(t, checks[0].Err.Error(), "ACCOUNTING_API_URL")

	assert.Equal(t, "SMTP", checks[1].Name)
	assert.EqualError(t, checks[1].Err, "not configured")

	_, err = svc.Run(context.Background(), pipeline.Request{Save: true})
	assert.ErrorIs(t, err, config.ErrMissingSetting)
}

func TestNewFromConfig_UnconfiguredMailer(t *testing.T) {
	cfg := baseConfig()
	cfg.Report.OutputDir = t.TempDir()
	cfg.Report.Recipients = []string{"owner@ledgerly.test"}
	cfg.Accounting.CSVDir = t.TempDir()
	cfg.SMTP.Host = "smtp.ledgerly.test"

	svc, cleanup, err := pipeline.NewFromConfig(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	defer cleanup()

	checks := svc.Check(context.Background())
	require.Len(t, checks, 2)

	assert.True(t, checks[0].OK(), "csv directory exists")
	require.ErrorIs(t, checks[1].Err, config.ErrMissingSetting)
	assert.Contains(t, checks[1].Err.Error(), "SMTP_FROM")

	_, err = svc.Run(context.Background(), pipeline.Request{Deliver: true, Save: true})
	assert.ErrorIs(t, err, config.ErrMissingSetting)
}

func TestNewFromConfig_InvalidSettings(t *testing.T) {
	cfg := baseConfig()
	cfg.Report.DefaultPeriod = "fortnight"

	_, _, err := pipeline.NewFromConfig(context.Background(), cfg, discardLogger())
	assert.ErrorIs(t, err, config.ErrInvalidSetting)
}
