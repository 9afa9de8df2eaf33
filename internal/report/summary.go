package report

import (
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
)

// Subject is the mail subject line for a report.
func Subject(data Data) string {
	return fmt.Sprintf("%s - %s", data.Title, data.PeriodLabel)
}

// FileName is the name the PDF is saved and attached under.
func FileName(data Data) string {
	safeTitle := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, data.Title)

	// Format: Title_YYYYMMDD-YYYYMMDD.pdf
	return fmt.Sprintf("%s_%s-%s.pdf", safeTitle,
		data.Interval.Start.Format("20060102"), data.Interval.End.Format("20060102"))
}

// Summary creates the plain text mail body.
func Summary(data Data) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s\n%s (%s - %s)\n\n", data.Title, data.PeriodLabel,
		data.Interval.StartLabel, data.Interval.EndLabel)

	fmt.Fprintf(&sb, "Expenses: %s across %s records\n",
		FormatMoney(data.Expenses.Stats.Total), FormatCount(data.Expenses.Stats.Count))

	if data.Invoices != nil {
		fmt.Fprintf(&sb, "Invoiced: %s across %s invoices\n",
			FormatMoney(data.Invoices.Stats.Total), FormatCount(data.Invoices.Stats.Count))
	}

	if data.Payments != nil {
		fmt.Fprintf(&sb, "Payments received: %s across %s payments\n",
			FormatMoney(data.Payments.Stats.Total), FormatCount(data.Payments.Stats.Count))
	}

	if data.NetBasis != BasisNone {
		fmt.Fprintf(&sb, "Net (%s): %s\n", data.NetBasis, FormatMoney(data.Net))
	}

	if data.Unpaid != nil {
		fmt.Fprintf(&sb, "Outstanding invoices: %s (%s open)\n",
			FormatMoney(data.Unpaid.Total), FormatCount(len(data.Unpaid.Invoices)))
	}

	writeGroups(&sb, "Expenses by category", data.Expenses.ByCategory)

	if data.Invoices != nil {
		writeGroups(&sb, "Invoices by client", data.Invoices.ByClient)
	}

	if data.Payments != nil {
		writeGroups(&sb, "Payments by client", data.Payments.ByClient)
	}

	if q := data.Quality; q.DefaultedAmounts > 0 || q.Undated > 0 {
		fmt.Fprintf(&sb, "\nNote: %d record(s) had an unreadable amount, %d had no usable date.\n",
			q.DefaultedAmounts, q.Undated)
	}

	sb.WriteString("\nThe full report is attached as a PDF.\n")

	return sb.String()
}

func writeGroups(sb *strings.Builder, title string, groups ledger.Groups) {
	if len(groups) == 0 {
		return
	}

	fmt.Fprintf(sb, "\n%s:\n", title)

	for _, b := range groups {
		fmt.Fprintf(sb, "* %s | %d | %s\n", b.Label, b.Count(), FormatMoney(b.Subtotal))
	}
}
