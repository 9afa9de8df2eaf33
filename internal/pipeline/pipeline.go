// Package pipeline runs one report end to end: resolve the period, fetch and
// aggregate records, render the PDF, save it and deliver it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/accounting"
	"github.com/MrJamesThe3rd/ledgerly/internal/config"
	"github.com/MrJamesThe3rd/ledgerly/internal/events"
	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
	"github.com/MrJamesThe3rd/ledgerly/internal/mailer"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
	"github.com/MrJamesThe3rd/ledgerly/internal/record"
	"github.com/MrJamesThe3rd/ledgerly/internal/report"
)

// ErrNoRecipients is returned when delivery is requested without recipients.
var ErrNoRecipients = errors.New("no report recipients configured")

//go:generate mockgen -source=pipeline.go -destination=pipeline_mock.go -package=pipeline
type Source interface {
	FetchExpenses(ctx context.Context, filter accounting.Filter) ([]record.Record, error)
	FetchInvoices(ctx context.Context, filter accounting.Filter) ([]record.Record, error)
	FetchPayments(ctx context.Context, filter accounting.Filter) ([]record.Record, error)
	Ping(ctx context.Context) error
}

type Renderer interface {
	Init(ctx context.Context) error
	Render(ctx context.Context, html string) ([]byte, error)
	Close() error
}

type Sender interface {
	Send(ctx context.Context, msg mailer.Message) (string, error)
	Verify(ctx context.Context) bool
}

type Archiver interface {
	Upload(ctx context.Context, name string, pdf []byte) (string, error)
}

type Publisher interface {
	PublishGenerated(ctx context.Context, evt events.Generated) error
}

// Deps are the collaborators of a run. Sender, Archiver and Publisher are
// optional.
type Deps struct {
	Source      Source
	NewRenderer func() Renderer
	Sender      Sender
	Archiver    Archiver
	Publisher   Publisher
	Logger      *slog.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type Service struct {
	settings Settings
	deps     Deps
}

func NewService(settings Settings, deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	return &Service{settings: settings, deps: deps}
}

// Settings returns the settings the service was built with.
func (s *Service) Settings() Settings {
	return s.settings
}

// Request describes one run. A zero Token falls back to the configured
// default period.
type Request struct {
	Token  period.Token
	Custom *period.Range
	// Deliver mails the report to the configured recipients.
	Deliver bool
	// Save writes the PDF to the output directory.
	Save bool
}

type Result struct {
	Data       report.Data
	PDF        []byte
	FileName   string
	SavedPath  string
	MessageID  string
	ArchiveURI string
}

// Build resolves the period, fetches every selected kind sequentially and
// assembles the report data. Nothing is rendered or sent.
func (s *Service) Build(ctx context.Context, req Request) (report.Data, error) {
	token := req.Token
	if token == "" {
		token = s.settings.DefaultPeriod
	}

	custom := req.Custom
	if custom == nil {
		custom = s.settings.DefaultRange
	}

	now := s.deps.Clock()

	interval, err := period.ResolveAt(now, token, custom)
	if err != nil {
		return report.Data{}, fmt.Errorf("resolving period: %w", err)
	}

	runID := uuid.New()
	logger := s.deps.Logger.With("run_id", runID, "period", token)

	filter := accounting.Filter{StartDate: &interval.Start, EndDate: &interval.End}

	in := report.Input{
		RunID:    runID,
		Title:    s.settings.Title,
		Token:    token,
		Interval: interval,
		Now:      now,
		Basis:    s.settings.Basis,
	}

	expenses, err := s.deps.Source.FetchExpenses(ctx, filter)
	if err != nil {
		return report.Data{}, fmt.Errorf("fetching expenses: %w", err)
	}

	in.Quality = in.Quality.Add(ledger.Quality(expenses))
	in.Expenses = ledger.FilterByInterval(expenses, interval)

	if s.settings.Kinds.Invoices {
		// Unpaid balances span the whole history, so invoices are fetched
		// unbounded and narrowed to the period here.
		invoices, err := s.deps.Source.FetchInvoices(ctx, accounting.Filter{})
		if err != nil {
			return report.Data{}, fmt.Errorf("fetching invoices: %w", err)
		}

		in.Invoices = ledger.FilterByInterval(invoices, interval)
		in.Unpaid = ledger.UnpaidInvoices(invoices)
		in.Quality = in.Quality.Add(ledger.Quality(relevantInvoices(invoices, interval)))
	}

	if s.settings.Kinds.Payments {
		payments, err := s.deps.Source.FetchPayments(ctx, filter)
		if err != nil {
			return report.Data{}, fmt.Errorf("fetching payments: %w", err)
		}

		in.Quality = in.Quality.Add(ledger.Quality(payments))
		in.Payments = ledger.FilterByInterval(payments, interval)
	}

	data := report.Assemble(in)

	logger.Info("Report assembled",
		"expenses", data.Expenses.Stats.Count,
		"net", data.Net.StringFixed(2),
		"net_basis", data.NetBasis,
		"defaulted_amounts", data.Quality.DefaultedAmounts,
		"undated", data.Quality.Undated)

	return data, nil
}

// relevantInvoices narrows a whole-history fetch to the invoices this report
// can show: dated in the period, open, or undated.
func relevantInvoices(invoices []record.Record, interval period.Interval) []record.Record {
	return slices.DeleteFunc(slices.Clone(invoices), func(r record.Record) bool {
		return r.Dated() && !interval.Contains(r.Date) && !r.Outstanding().IsPositive()
	})
}

// Render builds the report and prints it to PDF. The renderer is created for
// this call only and always closed.
func (s *Service) Render(ctx context.Context, req Request) (report.Data, []byte, error) {
	data, err := s.Build(ctx, req)
	if err != nil {
		return report.Data{}, nil, err
	}

	html, err := report.RenderHTML(data)
	if err != nil {
		return report.Data{}, nil, fmt.Errorf("rendering html: %w", err)
	}

	pdf, err := s.renderPDF(ctx, html)
	if err != nil {
		return report.Data{}, nil, err
	}

	return data, pdf, nil
}

func (s *Service) renderPDF(ctx context.Context, html string) ([]byte, error) {
	r := s.deps.NewRenderer()
	defer func() {
		if err := r.Close(); err != nil {
			s.deps.Logger.Warn("Closing renderer", "error", err)
		}
	}()

	if err := r.Init(ctx); err != nil {
		return nil, fmt.Errorf("starting renderer: %w", err)
	}

	pdf, err := r.Render(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}

	return pdf, nil
}

// Run performs a full report run. The PDF is written before delivery is
// attempted, so it survives a mail failure. Archive and event failures are
// logged and do not fail the run.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Deliver {
		if len(s.settings.Recipients) == 0 {
			return nil, ErrNoRecipients
		}

		if s.deps.Sender == nil {
			return nil, config.Missing("SMTP_HOST")
		}

		if u, ok := s.deps.Sender.(unavailable); ok {
			return nil, u.err
		}
	}

	data, pdf, err := s.Render(ctx, req)
	if err != nil {
		return nil, err
	}

	logger := s.deps.Logger.With("run_id", data.RunID, "period", data.Token)

	res := &Result{Data: data, PDF: pdf, FileName: report.FileName(data)}

	if req.Save {
		path, err := s.save(res.FileName, pdf)
		if err != nil {
			return nil, err
		}

		res.SavedPath = path
		logger.Info("Report saved", "path", path)
	}

	if req.Deliver {
		html, err := report.EmailHTML(data)
		if err != nil {
			return nil, fmt.Errorf("rendering email: %w", err)
		}

		id, err := s.deps.Sender.Send(ctx, mailer.Message{
			To:         s.settings.Recipients,
			Subject:    report.Subject(data),
			Text:       report.Summary(data),
			HTML:       html,
			ID:         data.RunID.String(),
			Attachment: &mailer.Attachment{Name: res.FileName, Data: pdf},
		})
		if err != nil {
			return res, fmt.Errorf("sending report: %w", err)
		}

		res.MessageID = id
		logger.Info("Report sent", "recipients", len(s.settings.Recipients), "message_id", id)
	}

	s.archive(ctx, logger, res)
	s.publish(ctx, logger, res)

	return res, nil
}

func (s *Service) save(name string, pdf []byte) (string, error) {
	if err := os.MkdirAll(s.settings.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(s.settings.OutputDir, name)
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	return path, nil
}

func (s *Service) archive(ctx context.Context, logger *slog.Logger, res *Result) {
	if s.deps.Archiver == nil {
		return
	}

	uri, err := s.deps.Archiver.Upload(ctx, res.FileName, res.PDF)
	if err != nil {
		logger.Error("Archiving report", "error", err)
		return
	}

	res.ArchiveURI = uri
	logger.Info("Report archived", "uri", uri)
}

func (s *Service) publish(ctx context.Context, logger *slog.Logger, res *Result) {
	if s.deps.Publisher == nil {
		return
	}

	data := res.Data

	err := s.deps.Publisher.PublishGenerated(ctx, events.Generated{
		RunID:        data.RunID,
		Period:       data.PeriodLabel,
		Start:        data.Interval.Start.Format(time.DateOnly),
		End:          data.Interval.End.Format(time.DateOnly),
		ExpenseTotal: data.Expenses.Stats.Total,
		Net:          data.Net,
		NetBasis:     string(data.NetBasis),
		MessageID:    res.MessageID,
		File:         res.SavedPath,
		ArchiveURI:   res.ArchiveURI,
		GeneratedAt:  data.GeneratedAt,
	})
	if err != nil {
		logger.Error("Publishing report event", "error", err)
	}
}
