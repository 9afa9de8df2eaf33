package pipeline

import (
	"slices"
	"strings"

	"github.com/MrJamesThe3rd/ledgerly/internal/config"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
	"github.com/MrJamesThe3rd/ledgerly/internal/report"
)

// Kinds selects the optional record kinds of a report. Expenses are always
// included.
type Kinds struct {
	Invoices bool
	Payments bool
}

// Settings is the validated, read-only configuration of report runs.
type Settings struct {
	Title         string
	DefaultPeriod period.Token
	// DefaultRange backs the custom period when a request carries none.
	DefaultRange *period.Range
	Recipients   []string
	Kinds        Kinds
	Basis        report.NetBasis
	OutputDir    string
}

// SettingsFromConfig validates the report section of cfg.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	rc := cfg.Report

	token, err := period.ParseToken(rc.DefaultPeriod)
	if err != nil {
		return Settings{}, config.Invalid("REPORT_PERIOD", rc.DefaultPeriod, err.Error())
	}

	basis, ok := report.ParseBasis(strings.ToLower(strings.TrimSpace(rc.NetBasis)))
	if !ok {
		return Settings{}, config.Invalid("REPORT_NET_BASIS", rc.NetBasis, "want auto, cash, accrual or none")
	}

	kinds, err := parseKinds(rc.Kinds)
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		Title:         rc.Title,
		DefaultPeriod: token,
		Recipients:    cleanList(rc.Recipients),
		Kinds:         kinds,
		Basis:         basis,
		OutputDir:     rc.OutputDir,
	}

	if rc.StartDate != "" || rc.EndDate != "" {
		s.DefaultRange = &period.Range{Start: rc.StartDate, End: rc.EndDate}
	}

	return s, nil
}

func parseKinds(values []string) (Kinds, error) {
	var k Kinds

	for _, v := range cleanList(values) {
		switch strings.ToLower(v) {
		case "expenses":
		case "invoices":
			k.Invoices = true
		case "payments":
			k.Payments = true
		default:
			return Kinds{}, config.Invalid("REPORT_KINDS", v, "want expenses, invoices or payments")
		}
	}

	return k, nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))

	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}

	return out
}
