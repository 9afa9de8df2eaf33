package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerly/internal/period"
	"github.com/MrJamesThe3rd/ledgerly/internal/pipeline"
	"github.com/MrJamesThe3rd/ledgerly/internal/report"
)

type reportState int

const (
	reportStatePeriod reportState = iota
	reportStateConfirm
	reportStateRunning
	reportStateResult
)

const runTimeout = 5 * time.Minute

// ReportModel walks through picking a period, deciding whether to mail the
// report and running it.
type ReportModel struct {
	svc *pipeline.Service

	state  reportState
	picker PeriodPicker

	selection PeriodSelectedMsg
	form      *huh.Form
	// send is bound to the confirm field, so it must outlive value copies of
	// the model.
	send *bool

	spinner spinner.Model
	result  *pipeline.Result
	err     error
}

func NewReportModel(svc *pipeline.Service) ReportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ReportModel{
		svc:     svc,
		state:   reportStatePeriod,
		picker:  NewPeriodPicker(svc.Settings().DefaultPeriod),
		send:    new(bool),
		spinner: s,
	}
}

func (m ReportModel) Title() string { return "Generate Report" }

func (m ReportModel) ShortHelp() string {
	switch m.state {
	case reportStateResult:
		return "Esc: back to menu"
	case reportStateRunning:
		return "Generating..."
	}

	return "Esc: back | Enter: confirm"
}

func (m ReportModel) Init() tea.Cmd {
	return nil
}

func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if sel, ok := msg.(PeriodSelectedMsg); ok {
		m.selection = sel
		m.form = m.buildConfirmForm()
		m.state = reportStateConfirm

		return m, m.form.Init()
	}

	switch m.state {
	case reportStatePeriod:
		return m.updatePeriod(msg)
	case reportStateConfirm:
		return m.updateConfirm(msg)
	case reportStateRunning:
		return m.updateRunning(msg)
	case reportStateResult:
		return m.updateResult(msg)
	}

	return m, nil
}

func (m ReportModel) updatePeriod(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc && m.picker.IsSelecting() {
			return m, Back
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	return m, cmd
}

func (m ReportModel) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = reportStatePeriod
			m.picker = NewPeriodPicker(m.selection.Token)

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = reportStateRunning
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.runCmd(*m.send))
}

func (m ReportModel) updateRunning(msg tea.Msg) (tea.Model, tea.Cmd) {
	if res, ok := msg.(reportResultMsg); ok {
		m.state = reportStateResult
		m.result = res.result
		m.err = res.err

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ReportModel) updateResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m ReportModel) buildConfirmForm() *huh.Form {
	recipients := len(m.svc.Settings().Recipients)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("send").
				Title(fmt.Sprintf("Email the %s report?", period.FormatLabel(m.selection.Token, m.selection.Interval))).
				Description(fmt.Sprintf("%d recipient(s) configured. The PDF is saved either way.", recipients)).
				Affirmative("Send").
				Negative("Save only").
				Value(m.send),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m ReportModel) View() string {
	switch m.state {
	case reportStatePeriod:
		return lipgloss.NewStyle().Padding(1).Render(m.picker.View())

	case reportStateConfirm:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case reportStateRunning:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Fetching records and rendering the report...", m.spinner.View()),
		)

	case reportStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ReportModel) viewResult() string {
	if m.err != nil && m.result == nil {
		return lipgloss.NewStyle().Padding(1).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	lines := []string{
		successStyle.Render("Report Ready!"),
		"",
		report.Summary(m.result.Data),
		"",
		"Saved to: " + m.result.SavedPath,
	}

	if m.result.MessageID != "" {
		lines = append(lines, "Sent as: "+m.result.MessageID)
	}

	if m.result.ArchiveURI != "" {
		lines = append(lines, "Archived: "+m.result.ArchiveURI)
	}

	if m.err != nil {
		lines = append(lines, "", errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

type reportResultMsg struct {
	result *pipeline.Result
	err    error
}

func (m ReportModel) runCmd(send bool) tea.Cmd {
	req := pipeline.Request{
		Token:   m.selection.Token,
		Custom:  m.selection.Custom,
		Deliver: send,
		Save:    true,
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		res, err := m.svc.Run(ctx, req)

		return reportResultMsg{result: res, err: err}
	}
}
