package ledger

import (
	"cmp"
	"slices"

	"github.com/MrJamesThe3rd/ledgerly/internal/period"
	"github.com/MrJamesThe3rd/ledgerly/internal/record"
)

// Order is a sort direction.
type Order int

const (
	Ascending Order = iota
	Descending
)

// FilterByInterval keeps the records dated inside the interval. Undated records
// never match.
func FilterByInterval(records []record.Record, interval period.Interval) []record.Record {
	filtered := make([]record.Record, 0, len(records))

	for _, r := range records {
		if interval.Contains(r.Date) {
			filtered = append(filtered, r)
		}
	}

	return filtered
}

// SortByDate returns a chronologically ordered copy of records. Undated records
// sort before dated ones in ascending order. Equal dates keep their input order.
func SortByDate(records []record.Record, order Order) []record.Record {
	return sortBy(records, order, func(a, b record.Record) int {
		return a.Date.Compare(b.Date)
	})
}

// SortByAmount returns a copy of records ordered by amount.
func SortByAmount(records []record.Record, order Order) []record.Record {
	return sortBy(records, order, func(a, b record.Record) int {
		return a.Amount.Cmp(b.Amount)
	})
}

func sortBy(records []record.Record, order Order, compare func(a, b record.Record) int) []record.Record {
	sorted := slices.Clone(records)

	slices.SortStableFunc(sorted, func(a, b record.Record) int {
		if order == Descending {
			return cmp.Compare(0, compare(a, b))
		}

		return compare(a, b)
	})

	return sorted
}

// UnpaidInvoices returns the invoices with a strictly positive outstanding
// balance. It deliberately ignores the reporting period. The result is never
// nil, so "nothing outstanding" stays distinguishable from "not requested".
func UnpaidInvoices(invoices []record.Record) []record.Record {
	unpaid := make([]record.Record, 0)

	for _, inv := range invoices {
		if inv.Outstanding().IsPositive() {
			unpaid = append(unpaid, inv)
		}
	}

	return unpaid
}
