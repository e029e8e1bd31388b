package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/reperto/reperto-cli/api"
	"github.com/reperto/reperto-cli/filter"
	"github.com/reperto/reperto-cli/format"
)

// homeModel is the authenticated landing screen: profile header, case
// search and the case list.
type homeModel struct {
	user     api.User
	cases    []api.CaseSummary
	patients int

	search    textinput.Model
	searching bool
	cursor    int

	loading bool
	errMsg  string
}

func newHomeModel() homeModel {
	search := textinput.New()
	search.Placeholder = "search cases"
	search.CharLimit = 64

	return homeModel{search: search, loading: true}
}

// homeLoadedMsg delivers the data the home screen aggregates.
type homeLoadedMsg struct {
	user     api.User
	cases    []api.CaseSummary
	patients []api.PatientSummary
	err      error
}

func loadHome(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx := background()

		user, err := client.Me(ctx)
		if err != nil {
			return homeLoadedMsg{err: err}
		}
		cases, err := client.Cases(ctx, 0)
		if err != nil {
			return homeLoadedMsg{err: err}
		}
		patients, err := client.Patients(ctx)
		if err != nil {
			return homeLoadedMsg{err: err}
		}
		return homeLoadedMsg{user: *user, cases: cases, patients: patients}
	}
}

// caseOpenedMsg delivers the full analysis payload for a selected case.
type caseOpenedMsg struct {
	analysis *api.CaseAnalysis
	err      error
}

func openCase(client *api.Client, id int) tea.Cmd {
	return func() tea.Msg {
		analysis, err := client.Case(background(), id)
		if err != nil {
			return caseOpenedMsg{err: err}
		}
		return caseOpenedMsg{analysis: analysis}
	}
}

// visible applies the current search to the case list.
func (m homeModel) visible() []api.CaseSummary {
	return filter.Cases(m.cases, m.search.Value())
}

func (m homeModel) update(msg tea.Msg, deps Deps) (homeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case homeLoadedMsg:
		m.loading = false
		if msg.err != nil {
			if api.IsAuthError(msg.err) {
				return m, func() tea.Msg { return loggedOutMsg{} }
			}
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.user = msg.user
		m.cases = msg.cases
		m.patients = len(msg.patients)
		m.errMsg = ""
		if m.cursor >= len(m.cases) {
			m.cursor = 0
		}
		return m, nil

	case caseOpenedMsg:
		if msg.err != nil {
			if api.IsAuthError(msg.err) {
				return m, func() tea.Msg { return loggedOutMsg{} }
			}
			m.errMsg = msg.err.Error()
			return m, nil
		}
		return m, func() tea.Msg { return openCaseMsg{analysis: msg.analysis} }

	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "enter", "esc":
				m.searching = false
				m.search.Blur()
				m.cursor = 0
				return m, nil
			}
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			m.cursor = 0
			return m, cmd
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "/":
			m.searching = true
			return m, m.search.Focus()
		case "r":
			m.loading = true
			return m, loadHome(deps.Client)
		case "L":
			return m, func() tea.Msg { return loggedOutMsg{} }
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.visible())-1 {
				m.cursor++
			}
		case "enter":
			visible := m.visible()
			if m.cursor < len(visible) {
				return m, openCase(deps.Client, visible[m.cursor].ID)
			}
		}
	}
	return m, nil
}

func (m homeModel) view() string {
	if m.loading {
		return panelStyle.Render(dimStyle.Render("Loading..."))
	}

	var b strings.Builder

	avatar := avatarStyle.Render(format.Initials(m.user.Name))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center,
		avatar, " ", headerStyle.Render(m.user.Name),
		dimStyle.Render(fmt.Sprintf("  %d cases • %d patients", len(m.cases), m.patients)),
	))
	b.WriteString("\n\n")

	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n\n")
	}

	visible := m.visible()
	if len(visible) == 0 {
		b.WriteString(dimStyle.Render("No cases match."))
	}

	now := time.Now()
	for i, c := range visible {
		line := fmt.Sprintf("%-28s %-16s %-9s %s  %s",
			truncate(c.Title, 28), truncate(c.PatientName, 16), c.Status,
			renderRisk(c.RiskLevel), dimStyle.Render(format.RelativeAge(c.CreatedAt, now)))
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.errMsg))
	}
	b.WriteString(helpStyle.Render("\nenter: open • /: search • r: refresh • L: logout • q: quit"))
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
