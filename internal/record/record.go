package record

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies which accounting resource a record came from.
type Kind string

const (
	KindExpense Kind = "expense"
	KindInvoice Kind = "invoice"
	KindPayment Kind = "payment"
)

// Record is the canonical shape every upstream expense, invoice or payment is
// normalized into before aggregation.
type Record struct {
	ID           string          `json:"id,omitempty"`
	Kind         Kind            `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"` // zero when the source carried no usable date
	Counterparty string          `json:"counterparty,omitempty"`
	Category     string          `json:"category,omitempty"`
	Note         string          `json:"note,omitempty"`
	Reference    string          `json:"reference,omitempty"`
	// Balance is the outstanding balance, invoices only.
	Balance *decimal.Decimal `json:"balance,omitempty"`

	// AmountDefaulted is set when the source amount was missing or unparsable
	// and Amount was forced to zero.
	AmountDefaulted bool `json:"amount_defaulted,omitempty"`
}

// Dated reports whether the record carries a usable date.
func (r Record) Dated() bool {
	return !r.Date.IsZero()
}

// Outstanding returns the open balance of an invoice, zero when none is known.
func (r Record) Outstanding() decimal.Decimal {
	if r.Balance == nil {
		return decimal.Zero
	}

	return *r.Balance
}
