package ledger

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/record"
)

// Fallback labels for records missing their grouping key.
const (
	Uncategorized = "Uncategorized"
	UnknownVendor = "Unknown Vendor"
	UnknownClient = "Unknown"
	Undated       = "Undated"
)

// Bucket is a named group of records with its subtotal.
type Bucket struct {
	Key      string          `json:"key"`
	Label    string          `json:"label"`
	Records  []record.Record `json:"-"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Count returns the number of records in the bucket.
func (b Bucket) Count() int {
	return len(b.Records)
}

func (b Bucket) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key      string          `json:"key"`
		Label    string          `json:"label"`
		Count    int             `json:"count"`
		Subtotal decimal.Decimal `json:"subtotal"`
	}{b.Key, b.Label, b.Count(), b.Subtotal})
}

// Groups is an insertion ordered set of buckets.
type Groups []Bucket

// Get returns the bucket for key.
func (g Groups) Get(key string) (Bucket, bool) {
	for _, b := range g {
		if b.Key == key {
			return b, true
		}
	}

	return Bucket{}, false
}

func (g Groups) Len() int {
	return len(g)
}

// Keys returns the bucket keys in order.
func (g Groups) Keys() []string {
	keys := make([]string, len(g))
	for i, b := range g {
		keys[i] = b.Key
	}

	return keys
}

// KeyFunc picks the grouping key and its display label for a record.
type KeyFunc func(r record.Record) (key, label string)

// GroupBy partitions records by key. Every record lands in exactly one bucket
// and buckets appear in the order their key was first seen.
func GroupBy(records []record.Record, keyFn KeyFunc) Groups {
	index := make(map[string]int)

	var groups Groups

	for _, r := range records {
		key, label := keyFn(r)

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Bucket{Key: key, Label: label, Subtotal: decimal.Zero})
		}

		groups[i].Records = append(groups[i].Records, r)
		groups[i].Subtotal = groups[i].Subtotal.Add(r.Amount)
	}

	return groups
}

func named(value, fallback string) (string, string) {
	if v := strings.TrimSpace(value); v != "" {
		return v, v
	}

	return fallback, fallback
}

// ByCategory groups records by category name.
func ByCategory(records []record.Record) Groups {
	return GroupBy(records, func(r record.Record) (string, string) {
		return named(r.Category, Uncategorized)
	})
}

// ByVendor groups expenses by vendor.
func ByVendor(records []record.Record) Groups {
	return GroupBy(records, func(r record.Record) (string, string) {
		return named(r.Counterparty, UnknownVendor)
	})
}

// ByClient groups invoices or payments by client.
func ByClient(records []record.Record) Groups {
	return GroupBy(records, func(r record.Record) (string, string) {
		return named(r.Counterparty, UnknownClient)
	})
}

// ByMonth groups records by calendar month, keyed "2006-01" and sorted
// chronologically. Undated records share a trailing bucket.
func ByMonth(records []record.Record) Groups {
	groups := GroupBy(records, func(r record.Record) (string, string) {
		if !r.Dated() {
			return "", Undated
		}

		return r.Date.Format("2006-01"), fmt.Sprintf("%s %d", r.Date.Month(), r.Date.Year())
	})

	slices.SortStableFunc(groups, func(a, b Bucket) int {
		switch {
		case a.Key == b.Key:
			return 0
		case a.Key == "":
			return 1
		case b.Key == "":
			return -1
		}

		return strings.Compare(a.Key, b.Key)
	})

	return groups
}
