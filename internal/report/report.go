package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
	"github.com/MrJamesThe3rd/ledgerly/internal/record"
)

// NetBasis selects how the net figure of a report is computed.
type NetBasis string

const (
	// BasisAuto picks cash when payments are present, accrual when only
	// invoices are, and none otherwise.
	BasisAuto NetBasis = "auto"
	// BasisCash is payments received minus expenses.
	BasisCash NetBasis = "cash"
	// BasisAccrual is invoiced minus expenses.
	BasisAccrual NetBasis = "accrual"
	// BasisNone means the report carries expenses only.
	BasisNone NetBasis = "none"
)

// Section holds one record kind with its statistics and groupings.
type Section struct {
	Records    []record.Record   `json:"records"`
	Stats      ledger.Statistics `json:"stats"`
	ByCategory ledger.Groups     `json:"by_category,omitempty"`
	ByVendor   ledger.Groups     `json:"by_vendor,omitempty"`
	ByClient   ledger.Groups     `json:"by_client,omitempty"`
	ByMonth    ledger.Groups     `json:"by_month,omitempty"`
}

// UnpaidSection lists invoices with an open balance regardless of period.
type UnpaidSection struct {
	Invoices []record.Record `json:"invoices"`
	Total    decimal.Decimal `json:"total"`
}

// Data is everything the renderer and the mailer need for one report run.
type Data struct {
	RunID       uuid.UUID          `json:"run_id"`
	Title       string             `json:"title"`
	Token       period.Token       `json:"period"`
	PeriodLabel string             `json:"period_label"`
	Interval    period.Interval    `json:"interval"`
	GeneratedAt time.Time          `json:"generated_at"`
	Expenses    Section            `json:"expenses"`
	Invoices    *Section           `json:"invoices,omitempty"`
	Payments    *Section           `json:"payments,omitempty"`
	Unpaid      *UnpaidSection     `json:"unpaid,omitempty"`
	Net         decimal.Decimal    `json:"net"`
	NetBasis    NetBasis           `json:"net_basis"`
	Quality     ledger.DataQuality `json:"quality"`
}

// Input is the raw material for Assemble. Record lists are expected to be
// period filtered already, except Unpaid which spans the whole history.
type Input struct {
	RunID    uuid.UUID
	Title    string
	Token    period.Token
	Interval period.Interval
	Now      time.Time
	Basis    NetBasis

	Expenses []record.Record
	// Invoices and Payments are nil when the kind is not part of the report.
	Invoices []record.Record
	Payments []record.Record
	Unpaid   []record.Record

	// Quality counts defaulted fields seen while fetching, before filtering.
	Quality ledger.DataQuality
}

// Assemble computes statistics, groupings and the net figure. It performs no
// I/O and is deterministic for a given input.
func Assemble(in Input) Data {
	data := Data{
		RunID:       in.RunID,
		Title:       in.Title,
		Token:       in.Token,
		PeriodLabel: period.FormatLabel(in.Token, in.Interval),
		Interval:    in.Interval,
		GeneratedAt: in.Now,
		Quality:     in.Quality,
		Expenses: Section{
			Records:    ledger.SortByDate(in.Expenses, ledger.Ascending),
			Stats:      ledger.Stats(in.Expenses),
			ByCategory: ledger.ByCategory(in.Expenses),
			ByVendor:   ledger.ByVendor(in.Expenses),
			ByMonth:    ledger.ByMonth(in.Expenses),
		},
	}

	if in.Invoices != nil {
		data.Invoices = clientSection(in.Invoices)
	}

	if in.Payments != nil {
		data.Payments = clientSection(in.Payments)
	}

	if in.Unpaid != nil {
		unpaid := ledger.SortByDate(in.Unpaid, ledger.Ascending)
		total := decimal.Zero

		for _, inv := range unpaid {
			total = total.Add(inv.Outstanding())
		}

		data.Unpaid = &UnpaidSection{Invoices: unpaid, Total: total}
	}

	data.NetBasis, data.Net = net(in.Basis, data)

	return data
}

func clientSection(records []record.Record) *Section {
	return &Section{
		Records:  ledger.SortByDate(records, ledger.Ascending),
		Stats:    ledger.Stats(records),
		ByClient: ledger.ByClient(records),
		ByMonth:  ledger.ByMonth(records),
	}
}

func net(basis NetBasis, data Data) (NetBasis, decimal.Decimal) {
	expenses := data.Expenses.Stats.Total

	if basis == "" || basis == BasisAuto {
		switch {
		case data.Payments != nil:
			basis = BasisCash
		case data.Invoices != nil:
			basis = BasisAccrual
		default:
			basis = BasisNone
		}
	}

	switch basis {
	case BasisCash:
		if data.Payments == nil {
			return basis, expenses.Neg()
		}

		return basis, data.Payments.Stats.Total.Sub(expenses)
	case BasisAccrual:
		if data.Invoices == nil {
			return basis, expenses.Neg()
		}

		return basis, data.Invoices.Stats.Total.Sub(expenses)
	}

	return BasisNone, decimal.Zero
}

// ParseBasis validates a configured net basis, defaulting to auto.
func ParseBasis(s string) (NetBasis, bool) {
	switch b := NetBasis(s); b {
	case "", BasisAuto:
		return BasisAuto, true
	case BasisCash, BasisAccrual, BasisNone:
		return b, true
	}

	return "", false
}
