package csvsource

import (
	"strings"
)

// aliases maps the header spellings seen in spreadsheet exports onto the
// field names the API uses, so rows can go through accounting.Normalize.
// Headers not listed here are kept under their normalized name.
var aliases = map[string]string{
	"amount":           "amount",
	"value":            "amount",
	"total":            "total",
	"total_amount":     "total",
	"date":             "date",
	"transaction_date": "date",
	"expense_date":     "expense_date",
	"invoice_date":     "invoice_date",
	"issue_date":       "invoice_date",
	"payment_date":     "payment_date",
	"paid_on":          "payment_date",
	"vendor":           "vendor_name",
	"vendor_name":      "vendor_name",
	"supplier":         "vendor_name",
	"payee":            "payee",
	"client":           "client_name",
	"client_name":      "client_name",
	"customer":         "customer_name",
	"customer_name":    "customer_name",
	"category":         "category_name",
	"category_name":    "category_name",
	"description":      "description",
	"notes":            "notes",
	"memo":             "memo",
	"reference":        "reference",
	"ref":              "reference",
	"invoice_number":   "invoice_number",
	"invoice_no":       "invoice_number",
	"number":           "number",
	"balance":          "balance",
	"balance_due":      "balance_due",
	"amount_due":       "amount_due",
	"outstanding":      "balance_due",
	"status":           "status",
	"id":               "id",
}

// amountColumns are the columns of which at least one must be present for a
// row to be taken as the header.
var amountColumns = []string{"amount", "total"}

// headerKey turns "Transaction Date" or "vendor-name" into "transaction_date"
// and "vendor_name".
func headerKey(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '/':
			return '_'
		}

		return r
	}, h)

	return strings.Trim(h, "_")
}

// columnMap maps each column index to its canonical field name.
type columnMap []string

func mapHeader(header []string) columnMap {
	cols := make(columnMap, len(header))

	for i, h := range header {
		key := headerKey(h)
		if canonical, ok := aliases[key]; ok {
			key = canonical
		}

		cols[i] = key
	}

	return cols
}

func (c columnMap) has(names ...string) bool {
	for _, col := range c {
		for _, n := range names {
			if col == n {
				return true
			}
		}
	}

	return false
}
