package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ledgerly/internal/config"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
	"github.com/MrJamesThe3rd/ledgerly/internal/pipeline"
	"github.com/MrJamesThe3rd/ledgerly/internal/report"
)

const runTimeout = 10 * time.Minute

var (
	passStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "test", "test-inform", "report":
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	checkOnly := os.Args[1] == "test"

	cfg, err := config.Load()
	if err != nil {
		if checkOnly {
			printChecks(os.Stdout, []pipeline.Check{{Name: "Configuration", Err: err}})
			return
		}

		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	svc, cleanup, err := pipeline.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		if checkOnly {
			printChecks(os.Stdout, []pipeline.Check{{Name: "Configuration", Err: err}})
			return
		}

		slog.Error("failed to build report service", "error", err)
		cancel()
		os.Exit(1)
	}
	defer cleanup()

	switch os.Args[1] {
	case "test":
		printChecks(os.Stdout, svc.Check(ctx))
		return
	case "test-inform":
		err = runReport(ctx, svc, os.Args[2:], false)
	case "report":
		err = runReport(ctx, svc, os.Args[2:], true)
	}

	if err != nil {
		slog.Error("report failed", "error", err)
		cleanup()
		cancel()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Ledgerly")
	fmt.Println("\nUsage:")
	fmt.Println("  ledgerly <command> [period] [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  test          Check the accounting API and SMTP connections")
	fmt.Println("  test-inform   Generate the report and save the PDF without sending it")
	fmt.Println("  report        Generate the report, save the PDF and email it")
	fmt.Println("  help          Show this help message")
	fmt.Println("\nPeriods:")

	for _, t := range period.Tokens {
		fmt.Printf("  %-14s%s\n", t, t.String())
	}

	fmt.Println("\nOptions for custom:")
	fmt.Println("  -start YYYY-MM-DD   First day (defaults to REPORT_START_DATE)")
	fmt.Println("  -end YYYY-MM-DD     Last day (defaults to REPORT_END_DATE)")
}

// printChecks prints one line per check. Failures are reported, not returned,
// so `test` always exits 0.
func printChecks(w io.Writer, checks []pipeline.Check) {
	fmt.Fprintln(w, titleStyle.Render("Connection checks"))

	for _, c := range checks {
		if c.OK() {
			fmt.Fprintf(w, "  %s %s\n", passStyle.Render("PASS"), c.Name)
			continue
		}

		fmt.Fprintf(w, "  %s %s: %v\n", failStyle.Render("FAIL"), c.Name, c.Err)
	}
}

func runReport(ctx context.Context, svc *pipeline.Service, args []string, deliver bool) error {
	req, err := parseRequest(args, svc.Settings())
	if err != nil {
		return err
	}

	req.Deliver = deliver
	req.Save = true

	res, err := svc.Run(ctx, req)
	if res != nil && res.SavedPath != "" {
		fmt.Printf("Saved %s\n", res.SavedPath)
	}

	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(report.Summary(res.Data))

	if res.MessageID != "" {
		fmt.Printf("Sent to %s (%s)\n", strings.Join(svc.Settings().Recipients, ", "), res.MessageID)
	}

	if res.ArchiveURI != "" {
		fmt.Printf("Archived at %s\n", res.ArchiveURI)
	}

	return nil
}

// parseRequest accepts the period either before or after the flags.
func parseRequest(args []string, settings pipeline.Settings) (pipeline.Request, error) {
	var token string

	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		token, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	start := fs.String("start", "", "first day of a custom period (YYYY-MM-DD)")
	end := fs.String("end", "", "last day of a custom period (YYYY-MM-DD)")

	if err := fs.Parse(args); err != nil {
		return pipeline.Request{}, err
	}

	if token == "" && fs.NArg() > 0 {
		token = fs.Arg(0)
	}

	var req pipeline.Request

	if token != "" {
		t, err := period.ParseToken(token)
		if err != nil {
			return pipeline.Request{}, err
		}

		req.Token = t
	}

	if *start == "" && *end == "" {
		return req, nil
	}

	custom := period.Range{Start: *start, End: *end}
	if d := settings.DefaultRange; d != nil {
		if custom.Start == "" {
			custom.Start = d.Start
		}

		if custom.End == "" {
			custom.End = d.End
		}
	}

	if req.Token == "" {
		req.Token = period.Custom
	}

	if req.Token != period.Custom {
		return pipeline.Request{}, errors.New("-start and -end only apply to the custom period")
	}

	req.Custom = &custom

	return req, nil
}
