package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ledgerly/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/ledgerly/internal/config"
	"github.com/MrJamesThe3rd/ledgerly/internal/pipeline"
)

type model struct {
	svc     *pipeline.Service
	appName string

	currentView View

	reportView view.ReportModel
}

type View int

const (
	ViewMenu   View = 0
	ViewReport View = 1
)

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewReport
				m.reportView = view.NewReportModel(m.svc)

				return m, m.reportView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	if m.currentView == ViewReport {
		var newModel tea.Model
		newModel, cmd = m.reportView.Update(msg)
		m.reportView = newModel.(view.ReportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			m.appName + "\n\n" +
				"1. Generate Report\n\n" +
				"q. Quit",
		)
	case ViewReport:
		return m.reportView.View() + "\n\n" + lipgloss.NewStyle().Faint(true).Render(m.reportView.ShortHelp())
	}

	return "Unknown View"
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The terminal belongs to bubbletea, so pipeline logs go to stderr only
	// above info.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: max(cfg.App.LogLevel, slog.LevelWarn)}))

	svc, cleanup, err := pipeline.NewFromConfig(context.Background(), cfg, logger)
	if err != nil {
		slog.Error("failed to build report service", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	p := tea.NewProgram(model{svc: svc, appName: cfg.App.Name, currentView: ViewMenu})
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
