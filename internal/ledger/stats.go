package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/record"
)

// Statistics summarises the amounts of a record list.
type Statistics struct {
	Count   int             `json:"count"`
	Total   decimal.Decimal `json:"total"`
	Average decimal.Decimal `json:"average"`
	Min     decimal.Decimal `json:"min"`
	Max     decimal.Decimal `json:"max"`
}

// Sum adds up the amounts at face value.
func Sum(records []record.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}

	return total
}

// Stats computes count, total, average, min and max in a single pass. Every
// field is zero for an empty list.
func Stats(records []record.Record) Statistics {
	s := Statistics{
		Total:   decimal.Zero,
		Average: decimal.Zero,
		Min:     decimal.Zero,
		Max:     decimal.Zero,
	}

	for i, r := range records {
		if i == 0 || r.Amount.LessThan(s.Min) {
			s.Min = r.Amount
		}

		if i == 0 || r.Amount.GreaterThan(s.Max) {
			s.Max = r.Amount
		}

		s.Total = s.Total.Add(r.Amount)
		s.Count++
	}

	if s.Count > 0 {
		s.Average = s.Total.Div(decimal.NewFromInt(int64(s.Count)))
	}

	return s
}

// DataQuality counts records whose fields were defaulted during ingestion.
type DataQuality struct {
	DefaultedAmounts int `json:"defaulted_amounts"`
	Undated          int `json:"undated"`
}

// Add merges another count into q.
func (q DataQuality) Add(other DataQuality) DataQuality {
	return DataQuality{
		DefaultedAmounts: q.DefaultedAmounts + other.DefaultedAmounts,
		Undated:          q.Undated + other.Undated,
	}
}

// Quality reports how many records carried a defaulted amount or no date.
func Quality(records []record.Record) DataQuality {
	var q DataQuality

	for _, r := range records {
		if r.AmountDefaulted {
			q.DefaultedAmounts++
		}

		if !r.Dated() {
			q.Undated++
		}
	}

	return q
}
