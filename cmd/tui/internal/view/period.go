package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerly/internal/period"
)

// PeriodSelectedMsg is emitted once the user has picked a period. Custom is
// only set for the custom token.
type PeriodSelectedMsg struct {
	Token    period.Token
	Custom   *period.Range
	Interval period.Interval
}

type periodState int

const (
	periodStateSelect periodState = iota
	periodStateCustom
)

// PeriodPicker lists the reporting periods and collects the bounds of a
// custom range.
type PeriodPicker struct {
	state    periodState
	selected int

	startInput textinput.Model
	endInput   textinput.Model
	focusIndex int

	now func() time.Time
	err error
}

// NewPeriodPicker starts with the given token highlighted.
func NewPeriodPicker(initial period.Token) PeriodPicker {
	si := textinput.New()
	si.Placeholder = "YYYY-MM-DD"
	si.CharLimit = 10
	si.Width = 12
	si.Prompt = "Start Date: "

	ei := textinput.New()
	ei.Placeholder = "YYYY-MM-DD"
	ei.CharLimit = 10
	ei.Width = 12
	ei.Prompt = "End Date:   "

	selected := 0
	for i, t := range period.Tokens {
		if t == initial {
			selected = i
		}
	}

	return PeriodPicker{
		state:      periodStateSelect,
		selected:   selected,
		startInput: si,
		endInput:   ei,
		now:        time.Now,
	}
}

func (m PeriodPicker) Init() tea.Cmd {
	return nil
}

func (m PeriodPicker) Update(msg tea.Msg) (PeriodPicker, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case periodStateSelect:
			return m.updateSelect(msg)
		case periodStateCustom:
			return m.updateCustom(msg)
		}
	}

	if m.state == periodStateCustom {
		return m.updateInputs(msg)
	}

	return m, nil
}

func (m PeriodPicker) updateSelect(msg tea.KeyMsg) (PeriodPicker, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.selected > 0 {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < len(period.Tokens)-1 {
			m.selected++
		}
	case tea.KeyEnter:
		token := period.Tokens[m.selected]
		if token == period.Custom {
			m.state = periodStateCustom
			m.focusIndex = 0
			m.startInput.Focus()

			return m, textinput.Blink
		}

		return m.choose(token, nil)
	}

	return m, nil
}

func (m PeriodPicker) updateCustom(msg tea.KeyMsg) (PeriodPicker, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.focusIndex = (m.focusIndex + 1) % 2
		m.startInput.Blur()
		m.endInput.Blur()

		if m.focusIndex == 0 {
			m.startInput.Focus()
		} else {
			m.endInput.Focus()
		}

		return m, textinput.Blink

	case "enter":
		return m.choose(period.Custom, &period.Range{
			Start: strings.TrimSpace(m.startInput.Value()),
			End:   strings.TrimSpace(m.endInput.Value()),
		})

	case "esc":
		m.state = periodStateSelect
		m.err = nil

		return m, nil
	}

	return m.updateInputs(msg)
}

// choose resolves the token up front so a bad custom range is reported here
// rather than after the fetch has started.
func (m PeriodPicker) choose(token period.Token, custom *period.Range) (PeriodPicker, tea.Cmd) {
	interval, err := period.ResolveAt(m.now(), token, custom)
	if err != nil {
		m.err = err
		return m, nil
	}

	m.err = nil

	return m, func() tea.Msg {
		return PeriodSelectedMsg{Token: token, Custom: custom, Interval: interval}
	}
}

func (m PeriodPicker) updateInputs(msg tea.Msg) (PeriodPicker, tea.Cmd) {
	var cmds []tea.Cmd

	var c tea.Cmd

	m.startInput, c = m.startInput.Update(msg)
	cmds = append(cmds, c)
	m.endInput, c = m.endInput.Update(msg)
	cmds = append(cmds, c)

	return m, tea.Batch(cmds...)
}

func (m PeriodPicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = errorStyle.Render(fmt.Sprintf("\n\nError: %v", m.err))
	}

	if m.state == periodStateCustom {
		return fmt.Sprintf(
			"Enter Custom Range:\n\n%s\n%s\n\n(Enter to confirm, Tab to switch, Esc to back)%s",
			m.startInput.View(),
			m.endInput.View(),
			errStr,
		)
	}

	var sb strings.Builder

	sb.WriteString("Select Period:\n\n")

	for i, t := range period.Tokens {
		cursor := " "
		line := t.String()

		if m.selected == i {
			cursor = ">"
			line = selectedStyle.Render(line)
		}

		fmt.Fprintf(&sb, "%s %s\n", cursor, line)
	}

	sb.WriteString("\n(Enter to select, Esc to back)")

	return sb.String() + errStr
}

// IsSelecting reports whether the picker shows the period list rather than
// the custom range inputs.
func (m PeriodPicker) IsSelecting() bool {
	return m.state == periodStateSelect
}

var (
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	successStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
)
