package accounting

import (
	"encoding/json"
	"strconv"

	"github.com/MrJamesThe3rd/ledgerly/internal/record"
)

// RawRecord is one item as the upstream sent it.
type RawRecord map[string]any

// String returns a top level field as a string, whatever its JSON type.
func (r RawRecord) String(key string) string {
	return stringify(r[key])
}

// Nested returns obj.field for a nested object such as {"vendor": {"name": ...}}.
func (r RawRecord) Nested(obj, field string) string {
	m, ok := r[obj].(map[string]any)
	if !ok {
		return ""
	}

	return stringify(m[field])
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}

	return ""
}

var kindDateField = map[record.Kind]string{
	record.KindExpense: "expense_date",
	record.KindInvoice: "invoice_date",
	record.KindPayment: "payment_date",
}

// Normalize maps an upstream item onto record.Record, chasing the alternative
// field names each resource is known to use. It never fails: unreadable
// amounts become zero and unreadable dates leave the record undated.
func Normalize(kind record.Kind, raw RawRecord) record.Record {
	r := record.Record{
		ID:   raw.String("id"),
		Kind: kind,
		Category: record.FirstNonEmpty(
			raw.String("category_name"),
			raw.Nested("category", "name"),
			raw.String("category"),
		),
		Note: record.FirstNonEmpty(
			raw.String("description"),
			raw.String("notes"),
			raw.String("memo"),
		),
		Reference: record.FirstNonEmpty(
			raw.String("reference"),
			raw.String("reference_number"),
			raw.String("invoice_number"),
			raw.String("number"),
		),
	}

	amount, ok := record.ParseAmount(record.FirstNonEmpty(raw.String("amount"), raw.String("total")))
	r.Amount = amount
	r.AmountDefaulted = !ok

	r.Date, _ = record.FirstDate(raw.String("date"), raw.String(kindDateField[kind]))

	if kind == record.KindExpense {
		r.Counterparty = record.FirstNonEmpty(
			raw.String("vendor_name"),
			raw.Nested("vendor", "name"),
			raw.String("vendor"),
			raw.String("payee"),
		)
	} else {
		r.Counterparty = record.FirstNonEmpty(
			raw.String("client_name"),
			raw.Nested("client", "name"),
			raw.String("customer_name"),
			raw.Nested("customer", "name"),
			raw.String("client"),
		)
	}

	if kind == record.KindInvoice {
		balance := record.FirstNonEmpty(raw.String("balance"), raw.String("balance_due"), raw.String("amount_due"))
		if b, ok := record.ParseAmount(balance); ok {
			r.Balance = &b
		}
	}

	return r
}

// NormalizeAll applies Normalize to a batch.
func NormalizeAll(kind record.Kind, raws []RawRecord) []record.Record {
	records := make([]record.Record, 0, len(raws))
	for _, raw := range raws {
		records = append(records, Normalize(kind, raw))
	}

	return records
}
