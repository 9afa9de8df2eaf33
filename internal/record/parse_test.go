package record_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/ledgerly/internal/record"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "plain", input: "100", want: "100", wantOK: true},
		{name: "decimal", input: "12.34", want: "12.34", wantOK: true},
		{name: "currency and thousands", input: "$1,200.50", want: "1200.5", wantOK: true},
		{name: "negative", input: "-40.00", want: "-40", wantOK: true},
		{name: "negative currency", input: "-$40.00", want: "-40", wantOK: true},
		{name: "parenthesised", input: "(15.25)", want: "-15.25", wantOK: true},
		{name: "padded", input: "  7.5 ", want: "7.5", wantOK: true},
		{name: "not a number", input: "N/A", want: "0", wantOK: false},
		{name: "empty", input: "", want: "0", wantOK: false},
		{name: "blank", input: "   ", want: "0", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := record.ParseAmount(tt.input)

			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		input  string
		wantOK bool
	}{
		{name: "date only", input: "2024-03-10", wantOK: true},
		{name: "rfc3339", input: "2024-03-10T18:45:00Z", wantOK: true},
		{name: "rfc3339 with offset keeps local day", input: "2024-03-10T23:30:00-05:00", wantOK: true},
		{name: "date time", input: "2024-03-10 08:00:00", wantOK: true},
		{name: "us format", input: "03/10/2024", wantOK: true},
		{name: "empty", input: "", wantOK: false},
		{name: "garbage", input: "yesterday", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := record.ParseDate(tt.input)

			assert.Equal(t, tt.wantOK, ok)

			if tt.wantOK {
				assert.Equal(t, want, got)
			} else {
				assert.True(t, got.IsZero())
			}
		})
	}
}

func TestFirstDate(t *testing.T) {
	got, ok := record.FirstDate("", "not-a-date", "2024-01-05")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), got)

	_, ok = record.FirstDate("", "")
	assert.False(t, ok)
}

func TestRecord_Outstanding(t *testing.T) {
	balance := decimal.RequireFromString("0.01")

	assert.True(t, record.Record{}.Outstanding().IsZero())
	assert.True(t, record.Record{Balance: &balance}.Outstanding().Equal(balance))
}
