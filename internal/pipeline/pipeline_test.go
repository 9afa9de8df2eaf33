package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ledgerly/internal/accounting"
	"github.com/MrJamesThe3rd/ledgerly/internal/events"
	"github.com/MrJamesThe3rd/ledgerly/internal/mailer"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
	"github.com/MrJamesThe3rd/ledgerly/internal/pipeline"
	"github.com/MrJamesThe3rd/ledgerly/internal/record"
	"github.com/MrJamesThe3rd/ledgerly/internal/render"
	"github.com/MrJamesThe3rd/ledgerly/internal/report"
)

var fakePDF = []byte("%PDF-1.4 fake")

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func clock() time.Time {
	return time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC)
}

func expenses() []record.Record {
	return []record.Record{
		{ID: "e1", Kind: record.KindExpense, Amount: dec("100"), Date: date(2024, 3, 1), Category: "Utilities"},
		{ID: "e2", Kind: record.KindExpense, Amount: dec("40"), Date: date(2024, 3, 15), Category: "Landscaping"},
		{ID: "e3", Kind: record.KindExpense, Amount: dec("999"), Date: date(2024, 4, 2), Category: "Utilities"},
		{ID: "e4", Kind: record.KindExpense, Amount: dec("5")},
	}
}

func invoices() []record.Record {
	open := dec("75")
	paid := dec("0")

	return []record.Record{
		{ID: "i1", Kind: record.KindInvoice, Amount: dec("500"), Date: date(2024, 3, 10), Counterparty: "Unit 4", Balance: &paid},
		{ID: "i0", Kind: record.KindInvoice, Amount: dec("75"), Date: date(2023, 11, 2), Counterparty: "Unit 7", Balance: &open},
	}
}

func settings(t *testing.T) pipeline.Settings {
	t.Helper()

	return pipeline.Settings{
		Title:         "Monthly Report",
		DefaultPeriod: period.LastMonth,
		Recipients:    []string{"owner@ledgerly.test"},
		Kinds:         pipeline.Kinds{Invoices: true},
		Basis:         report.BasisAuto,
		OutputDir:     t.TempDir(),
	}
}

type mocks struct {
	source    *pipeline.MockSource
	renderer  *pipeline.MockRenderer
	sender    *pipeline.MockSender
	archiver  *pipeline.MockArchiver
	publisher *pipeline.MockPublisher
}

func newMocks(ctrl *gomock.Controller) mocks {
	return mocks{
		source:    pipeline.NewMockSource(ctrl),
		renderer:  pipeline.NewMockRenderer(ctrl),
		sender:    pipeline.NewMockSender(ctrl),
		archiver:  pipeline.NewMockArchiver(ctrl),
		publisher: pipeline.NewMockPublisher(ctrl),
	}
}

func (m mocks) deps() pipeline.Deps {
	return pipeline.Deps{
		Source:      m.source,
		NewRenderer: func() pipeline.Renderer { return m.renderer },
		Sender:      m.sender,
		Archiver:    m.archiver,
		Publisher:   m.publisher,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:       clock,
	}
}

func (m mocks) expectFetch() {
	m.source.EXPECT().
		FetchExpenses(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f accounting.Filter) ([]record.Record, error) {
			if f.StartDate == nil || f.EndDate == nil {
				return nil, errors.New("expenses must be fetched with the period bounds")
			}

			return expenses(), nil
		})
	m.source.EXPECT().
		FetchInvoices(gomock.Any(), accounting.Filter{}).
		Return(invoices(), nil)
}

func TestService_Run_EndToEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMocks(ctrl)
	cfg := settings(t)

	m.expectFetch()

	gomock.InOrder(
		m.renderer.EXPECT().Init(gomock.Any()).Return(nil),
		m.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(fakePDF, nil),
		m.renderer.EXPECT().Close().Return(nil),
	)

	m.sender.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg mailer.Message) (string, error) {
			// The PDF is already on disk when the mail goes out.
			_, err := os.Stat(filepath.Join(cfg.OutputDir, msg.Attachment.Name))
			require.NoError(t, err)

			assert.Equal(t, []string{"owner@ledgerly.test"}, msg.To)
			assert.Equal(t, "Monthly Report - March 2024", msg.Subject)
			assert.Contains(t, msg.Text, "Net (accrual): $360.00")
			assert.Equal(t, fakePDF, msg.Attachment.Data)

			return "<id@smtp>", nil
		})

	m.archiver.EXPECT().
		Upload(gomock.Any(), "Monthly_Report_20240301-20240331.pdf", fakePDF).
		Return("gs://bucket/reports/Monthly_Report_20240301-20240331.pdf", nil)

	m.publisher.EXPECT().
		PublishGenerated(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, evt events.Generated) error {
			assert.Equal(t, "2024-03-01", evt.Start)
			assert.Equal(t, "2024-03-31", evt.End)
			assert.True(t, dec("360").Equal(evt.Net))
			assert.Equal(t, "<id@smtp>", evt.MessageID)
			assert.Equal(t, "gs://bucket/reports/Monthly_Report_20240301-20240331.pdf", evt.ArchiveURI)

			return nil
		})

	svc := pipeline.NewService(cfg, m.deps())

	res, err := svc.Run(context.Background(), pipeline.Request{Deliver: true, Save: true})
	require.NoError(t, err)

	assert.Equal(t, "March 2024", res.Data.PeriodLabel)
	assert.True(t, dec("140").Equal(res.Data.Expenses.Stats.Total))
	assert.Equal(t, 2, res.Data.Expenses.Stats.Count)
	assert.Equal(t, report.BasisAccrual, res.Data.NetBasis)
	assert.True(t, dec("360").Equal(res.Data.Net))
	require.NotNil(t, res.Data.Unpaid)
	assert.Equal(t, "i0", res.Data.Unpaid.Invoices[0].ID)
	assert.Equal(t, 1, res.Data.Quality.Undated)
	assert.Equal(t, "<id@smtp>", res.MessageID)

	saved, err := os.ReadFile(res.SavedPath)
	require.NoError(t, err)
	assert.Equal(t, fakePDF, saved)
}

func TestService_Run_ClosesRendererOnRenderFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMocks(ctrl)
	m.expectFetch()

	m.renderer.EXPECT().Init(gomock.Any()).Return(nil)
	m.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(nil, render.ErrRender)
	m.renderer.EXPECT().Close().Return(nil).Times(1)

	svc := pipeline.NewService(settings(t), m.deps())

	_, err := svc.Run(context.Background(), pipeline.Request{Deliver: true, Save: true})
	assert.ErrorIs(t, err, render.ErrRender)
}

func TestService_Run_ClosesRendererOnInitFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMocks(ctrl)
	m.expectFetch()

	m.renderer.EXPECT().Init(gomock.Any()).Return(render.ErrRender)
	m.renderer.EXPECT().Close().Return(nil).Times(1)

	svc := pipeline.NewService(settings(t), m.deps())

	_, err := svc.Run(context.Background(), pipeline.Request{Save: true})
	assert.ErrorIs(t, err, render.ErrRender)
}

func TestService_Run_DeliveryFailureKeepsPDF(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMocks(ctrl)
	cfg := settings(t)
	m.expectFetch()

	m.renderer.EXPECT().Init(gomock.Any()).Return(nil)
	m.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(fakePDF, nil)
	m.renderer.EXPECT().Close().Return(nil)
	m.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return("", mailer.ErrDelivery)

	svc := pipeline.NewService(cfg, m.deps())

	res, err := svc.Run(context.Background(), pipeline.Request{Deliver: true, Save: true})
	require.ErrorIs(t, err, mailer.ErrDelivery)
	require.NotNil(t, res)

	_, statErr := os.Stat(res.SavedPath)
	assert.NoError(t, statErr)
}

func TestService_Run_ArchiveAndEventFailuresAreNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMocks(ctrl)
	m.expectFetch()

	m.renderer.EXPECT().Init(gomock.Any()).Return(nil)
	m.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(fakePDF, nil)
	m.renderer.EXPECT().Close().Return(nil)
	m.archiver.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("bucket gone"))
	m.publisher.EXPECT().PublishGenerated(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	svc := pipeline.NewService(settings(t), m.deps())

	res, err := svc.Run(context.Background(), pipeline.Request{Save: true})
	require.NoError(t, err)
	assert.Empty(t, res.ArchiveURI)
	assert.Empty(t, res.MessageID)
}

func TestService_Run_NoRecipients(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := settings(t)
	cfg.Recipients = nil

	svc := pipeline.NewService(cfg, newMocks(ctrl).deps())

	_, err := svc.Run(context.Background(), pipeline.Request{Deliver: true})
	assert.ErrorIs(t, err, pipeline.ErrNoRecipients)
}

func TestService_Build_Errors(t *testing.T) {
	tests := []struct {
		name    string
		req     pipeline.Request
		setup   func(m mocks)
		wantErr error
	}{
		{
			name:    "unknown period",
			req:     pipeline.Request{Token: "fortnight"},
			wantErr: period.ErrUnknownPeriod,
		},
		{
			name:    "custom without bounds",
			req:     pipeline.Request{Token: period.Custom},
			wantErr: period.ErrInvalidConfiguration,
		},
		{
			name: "upstream failure",
			req:  pipeline.Request{},
			setup: func(m mocks) {
				m.source.EXPECT().FetchExpenses(gomock.Any(), gomock.Any()).Return(nil, accounting.ErrUpstream)
			},
			wantErr: accounting.ErrUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			m := newMocks(ctrl)
			if tt.setup != nil {
				tt.setup(m)
			}

			svc := pipeline.NewService(settings(t), m.deps())

			_, err := svc.Build(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Build_CustomRangeAndPayments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMocks(ctrl)
	cfg := settings(t)
	cfg.Kinds = pipeline.Kinds{Payments: true}

	m.source.EXPECT().FetchExpenses(gomock.Any(), gomock.Any()).Return(expenses(), nil)
	m.source.EXPECT().FetchPayments(gomock.Any(), gomock.Any()).Return([]record.Record{
		{ID: "p1", Kind: record.KindPayment, Amount: dec("300"), Date: date(2024, 3, 20)},
	}, nil)

	svc := pipeline.NewService(cfg, m.deps())

	data, err := svc.Build(context.Background(), pipeline.Request{
		Token:  period.Custom,
		Custom: &period.Range{Start: "2024-03-01", End: "2024-03-31"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Mar 1, 2024 - Mar 31, 2024", data.PeriodLabel)
	assert.Nil(t, data.Invoices)
	assert.Equal(t, report.BasisCash, data.NetBasis)
	assert.True(t, dec("160").Equal(data.Net))
}

func TestService_Check(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMocks(ctrl)
	m.source.EXPECT().Ping(gomock.Any()).Return(nil)
	m.sender.EXPECT().Verify(gomock.Any()).Return(false)

	checks := pipeline.NewService(settings(t), m.deps()).Check(context.Background())
	require.Len(t, checks, 2)

	assert.True(t, checks[0].OK())
	assert.False(t, checks[1].OK())
}

func TestService_Build_InvoiceHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	paid := dec("0")

	m := newMocks(ctrl)
	m.source.EXPECT().FetchExpenses(gomock.Any(), gomock.Any()).Return(expenses(), nil)
	m.source.EXPECT().FetchInvoices(gomock.Any(), accounting.Filter{}).Return([]record.Record{
		{ID: "i1", Kind: record.KindInvoice, Amount: dec("500"), Date: date(2024, 3, 10), Balance: &paid},
		// Settled long ago with an unreadable amount; outside the report.
		{ID: "old", Kind: record.KindInvoice, Date: date(2021, 6, 1), Balance: &paid, AmountDefaulted: true},
		{ID: "undated", Kind: record.KindInvoice, Amount: dec("20"), Balance: &paid},
	}, nil)

	data, err := pipeline.NewService(settings(t), m.deps()).Build(context.Background(), pipeline.Request{})
	require.NoError(t, err)

	require.NotNil(t, data.Unpaid, "all invoices paid still reports an unpaid section")
	assert.Empty(t, data.Unpaid.Invoices)
	assert.True(t, data.Unpaid.Total.IsZero())
	assert.Contains(t, report.Summary(data), "Outstanding invoices: $0.00")

	assert.Equal(t, 0, data.Quality.DefaultedAmounts)
	// e4 and the undated invoice.
	assert.Equal(t, 2, data.Quality.Undated)
}
