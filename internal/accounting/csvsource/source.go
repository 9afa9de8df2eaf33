// Package csvsource reads records from CSV files exported by the accounting
// system, for running reports offline.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/MrJamesThe3rd/ledgerly/internal/accounting"
	"github.com/MrJamesThe3rd/ledgerly/internal/config"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
	"github.com/MrJamesThe3rd/ledgerly/internal/record"
)

// ErrNoHeader is returned when no header row carries an amount column.
var ErrNoHeader = errors.New("no recognizable header row")

// Source serves expenses.csv, invoices.csv and payments.csv from a directory.
type Source struct {
	dir string
}

func New(dir string) (*Source, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, config.Missing("ACCOUNTING_CSV_DIR")
	}

	return &Source{dir: dir}, nil
}

func (s *Source) FetchExpenses(ctx context.Context, filter accounting.Filter) ([]record.Record, error) {
	return s.load(ctx, "expenses", record.KindExpense, filter)
}

func (s *Source) FetchInvoices(ctx context.Context, filter accounting.Filter) ([]record.Record, error) {
	return s.load(ctx, "invoices", record.KindInvoice, filter)
}

func (s *Source) FetchPayments(ctx context.Context, filter accounting.Filter) ([]record.Record, error) {
	return s.load(ctx, "payments", record.KindPayment, filter)
}

// Ping checks that the directory is readable.
func (s *Source) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("%w: %w", accounting.ErrUpstream, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", accounting.ErrUpstream, s.dir)
	}

	return nil
}

func (s *Source) load(ctx context.Context, resource string, kind record.Kind, filter accounting.Filter) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, resource+".csv")

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", accounting.ErrUpstream, err)
	}
	defer f.Close()

	raws, err := Parse(f, filter.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", accounting.ErrUpstream, path, err)
	}

	records := accounting.NormalizeAll(kind, raws)

	if filter.StartDate == nil || filter.EndDate == nil {
		return records, nil
	}

	iv := period.Interval{Start: *filter.StartDate, End: *filter.EndDate}

	kept := records[:0]
	for _, r := range records {
		if iv.Contains(r.Date) {
			kept = append(kept, r)
		}
	}

	return kept, nil
}

// Parse reads one exported file into raw records keyed by canonical field
// name. Rows whose status column does not match status are dropped when
// status is set. Blank lines and preamble rows above the header are skipped.
func Parse(r io.Reader, status string) ([]accounting.RawRecord, error) {
	br, err := utf8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	cols, headerIdx, ok := findHeader(rows, amountColumns)
	if !ok {
		return nil, ErrNoHeader
	}

	var raws []accounting.RawRecord

	for _, row := range rows[headerIdx+1:] {
		if blank(row) {
			continue
		}

		raw := make(accounting.RawRecord, len(cols))
		for i, cell := range row {
			if i >= len(cols) || cols[i] == "" {
				continue
			}

			raw[cols[i]] = strings.TrimSpace(cell)
		}

		if status != "" && cols.has("status") && !strings.EqualFold(raw.String("status"), status) {
			continue
		}

		raws = append(raws, raw)
	}

	return raws, nil
}

func findHeader(rows [][]string, required []string) (columnMap, int, bool) {
	for i, row := range rows {
		cols := mapHeader(row)
		if cols.has(required...) {
			return cols, i, true
		}
	}

	return nil, 0, false
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}
