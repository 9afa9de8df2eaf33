package csvsource_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerly/internal/accounting"
	"github.com/MrJamesThe3rd/ledgerly/internal/accounting/csvsource"
	"github.com/MrJamesThe3rd/ledgerly/internal/config"
)

func TestParse_CommaUTF8(t *testing.T) {
	input := "Date,Vendor,Category,Amount,Notes\n" +
		"2024-03-01,City Power,Utilities,\"$1,200.50\",March bill\n" +
		"\n" +
		"2024-03-15,,Landscaping,40,\n"

	raws, err := csvsource.Parse(bytes.NewReader([]byte(input)), "")
	require.NoError(t, err)
	require.Len(t, raws, 2)

	assert.Equal(t, "City Power", raws[0].String("vendor_name"))
	assert.Equal(t, "Utilities", raws[0].String("category_name"))
	assert.Equal(t, "$1,200.50", raws[0].String("amount"))
	assert.Equal(t, "March bill", raws[0].String("notes"))
	assert.Equal(t, "2024-03-15", raws[1].String("date"))
}

func TestParse_SemicolonWindows1252WithPreamble(t *testing.T) {
	// "Fornecedor Café" in Windows-1252: é = 0xE9.
	input := []byte("Exported by Books;;\n")
	input = append(input, []byte("Expense Date;Supplier;Total\n2024-03-02;Caf")...)
	input = append(input, 0xE9)
	input = append(input, []byte(";12.50\n")...)

	raws, err := csvsource.Parse(bytes.NewReader(input), "")
	require.NoError(t, err)
	require.Len(t, raws, 1)

	assert.Equal(t, "Café", raws[0].String("vendor_name"))
	assert.Equal(t, "12.50", raws[0].String("total"))
	assert.Equal(t, "2024-03-02", raws[0].String("expense_date"))
}

func TestParse_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Amount,Date\n5,2024-01-01\n")...)

	raws, err := csvsource.Parse(bytes.NewReader(input), "")
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "5", raws[0].String("amount"))
}

func TestParse_StatusFilter(t *testing.T) {
	input := "Invoice No,Customer,Total,Balance Due,Status\n" +
		"INV-1,Unit 4,500,0,paid\n" +
		"INV-2,Unit 7,300,300,Unpaid\n"

	raws, err := csvsource.Parse(bytes.NewReader([]byte(input)), "unpaid")
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "INV-2", raws[0].String("invoice_number"))
	assert.Equal(t, "300", raws[0].String("balance_due"))
}

func TestParse_NoHeader(t *testing.T) {
	_, err := csvsource.Parse(bytes.NewReader([]byte("foo,bar\n1,2\n")), "")
	assert.ErrorIs(t, err, csvsource.ErrNoHeader)
}

func TestSource(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "expenses.csv"), []byte(
		"Date,Vendor,Amount\n"+
			"2024-02-28,Early,10\n"+
			"2024-03-01,City Power,100\n"+
			"2024-03-31,Late,n/a\n"+
			"2024-04-01,Next,7\n"+
			",Undated,3\n",
	), 0o600))

	src, err := csvsource.New(dir)
	require.NoError(t, err)
	require.NoError(t, src.Ping(context.Background()))

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	got, err := src.FetchExpenses(context.Background(), accounting.Filter{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "City Power", got[0].Counterparty)
	assert.True(t, decimal.NewFromInt(100).Equal(got[0].Amount))
	assert.True(t, got[1].AmountDefaulted)

	all, err := src.FetchExpenses(context.Background(), accounting.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	payments, err := src.FetchPayments(context.Background(), accounting.Filter{})
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestSource_MalformedFileIsUpstreamError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invoices.csv"), []byte("a,b\n1,2\n"), 0o600))

	src, err := csvsource.New(dir)
	require.NoError(t, err)

	_, err = src.FetchInvoices(context.Background(), accounting.Filter{})
	require.ErrorIs(t, err, accounting.ErrUpstream)
	assert.ErrorIs(t, err, csvsource.ErrNoHeader)
}

func TestNew_RequiresDir(t *testing.T) {
	_, err := csvsource.New("")
	assert.ErrorIs(t, err, config.ErrMissingSetting)
}
