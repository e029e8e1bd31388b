package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/reperto/reperto-cli/api"
	"github.com/reperto/reperto-cli/workflow"
)

// casePhase is which part of the analysis workflow the screen shows.
type casePhase int

const (
	phaseComplaint casePhase = iota
	phaseSuggestions
	phaseRemedies
)

// caseModel drives one case through the analysis workflow: complaint entry,
// suggestion review and confirmation, then the ranked remedy view.
type caseModel struct {
	orch *workflow.Orchestrator
	info api.CaseSummary

	phase     casePhase
	complaint textarea.Model

	// Suggestion selection, in the order the user toggled entries on.
	picked  map[int]bool
	order   []int
	cursor  int
	wctx    workflow.Context
	showAll bool

	busy   bool
	errMsg string
}

func newCaseModel(orch *workflow.Orchestrator, analysis *api.CaseAnalysis) caseModel {
	complaint := textarea.New()
	complaint.Placeholder = "Describe the complaint..."
	complaint.SetValue(analysis.Case.Complaint)
	complaint.Focus()

	m := caseModel{
		orch:      orch,
		info:      analysis.Case,
		complaint: complaint,
		picked:    make(map[int]bool),
	}

	// Reopening an analyzed case lands directly on its persisted results.
	switch orch.State() {
	case workflow.Ranked:
		m.phase = phaseRemedies
	case workflow.Suggested:
		m.phase = phaseSuggestions
	default:
		m.phase = phaseComplaint
	}
	return m
}

func (m caseModel) Init() tea.Cmd {
	return textarea.Blink
}

// analyzeDoneMsg reports the analyze request's outcome; results live in the
// orchestrator.
type analyzeDoneMsg struct {
	err error
}

func doAnalyze(orch *workflow.Orchestrator, text string) tea.Cmd {
	return func() tea.Msg {
		return analyzeDoneMsg{err: orch.Analyze(background(), text)}
	}
}

// completionMsg carries an AI-completed complaint draft.
type completionMsg struct {
	text string
	err  error
}

func doSuggestComplaint(deps Deps, text string) tea.Cmd {
	return func() tea.Msg {
		suggestion, err := deps.Client.SuggestComplaint(background(), text)
		return completionMsg{text: suggestion, err: err}
	}
}

func (m caseModel) update(msg tea.Msg, deps Deps) (caseModel, tea.Cmd) {
	switch msg := msg.(type) {
	case analyzeDoneMsg:
		m.busy = false
		if msg.err != nil {
			if api.IsAuthError(msg.err) {
				return m, func() tea.Msg { return loggedOutMsg{} }
			}
			// The workflow is back in Idle with the complaint intact;
			// show the error and let the user retry.
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.phase = phaseSuggestions
		m.picked = make(map[int]bool)
		m.order = nil
		m.cursor = 0
		m.errMsg = ""
		return m, nil

	case completionMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = "suggestion unavailable: " + msg.err.Error()
			return m, nil
		}
		m.complaint.SetValue(msg.text)
		m.errMsg = ""
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch m.phase {
		case phaseComplaint:
			return m.updateComplaint(msg, deps)
		case phaseSuggestions:
			return m.updateSuggestions(msg)
		case phaseRemedies:
			return m.updateRemedies(msg)
		}
	}

	var cmd tea.Cmd
	m.complaint, cmd = m.complaint.Update(msg)
	return m, cmd
}

func (m caseModel) updateComplaint(msg tea.KeyMsg, deps Deps) (caseModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, func() tea.Msg { return backToHomeMsg{} }
	case "ctrl+a":
		m.busy = true
		m.errMsg = ""
		return m, doAnalyze(m.orch, m.complaint.Value())
	case "ctrl+s":
		m.busy = true
		m.errMsg = ""
		return m, doSuggestComplaint(deps, m.complaint.Value())
	}

	var cmd tea.Cmd
	m.complaint, cmd = m.complaint.Update(msg)
	return m, cmd
}

func (m caseModel) updateSuggestions(msg tea.KeyMsg) (caseModel, tea.Cmd) {
	suggestions := m.orch.Suggestions()

	switch msg.String() {
	case "esc":
		m.phase = phaseComplaint
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(suggestions)-1 {
			m.cursor++
		}
	case " ":
		if m.picked[m.cursor] {
			delete(m.picked, m.cursor)
			for i, idx := range m.order {
				if idx == m.cursor {
					m.order = append(m.order[:i], m.order[i+1:]...)
					break
				}
			}
		} else {
			m.picked[m.cursor] = true
			m.order = append(m.order, m.cursor)
		}
	case "enter":
		selection := m.order
		if len(selection) == 0 {
			// No explicit picks confirms everything, in list order.
			selection = make([]int, len(suggestions))
			for i := range selection {
				selection[i] = i
			}
		}
		wctx, err := m.orch.Confirm(selection)
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		if err := m.orch.Rank(); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.wctx = wctx.Fork()
		m.phase = phaseRemedies
		m.showAll = false
		m.errMsg = ""
	}
	return m, nil
}

func (m caseModel) updateRemedies(msg tea.KeyMsg) (caseModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, func() tea.Msg { return backToHomeMsg{} }
	case "a":
		m.showAll = !m.showAll
	case "R":
		m.busy = true
		m.errMsg = ""
		return m, func() tea.Msg {
			return analyzeDoneMsg{err: m.orch.Reanalyze(background())}
		}
	}
	return m, nil
}

func (m caseModel) view() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.info.CaseID))
	b.WriteString(" " + headerStyle.Render(m.info.Title))
	b.WriteString("  " + renderRisk(m.info.RiskLevel))
	b.WriteString("\n" + dimStyle.Render("Patient: "+m.info.PatientName))
	b.WriteString("\n\n")

	switch m.phase {
	case phaseComplaint:
		b.WriteString(m.complaint.View())
		b.WriteString("\n")
		if m.busy {
			b.WriteString(dimStyle.Render("Working..."))
		}
		b.WriteString(helpStyle.Render("\nctrl+a: analyze • ctrl+s: complete text • esc: back"))

	case phaseSuggestions:
		summary, risk := m.orch.Summary()
		if summary != "" {
			b.WriteString(summary + "\n")
		}
		if risk != "" {
			b.WriteString("Risk: " + renderRisk(risk) + "\n")
		}
		if m.orch.State() == workflow.SuggestionFailed {
			b.WriteString(errorStyle.Render("Suggestion service unreachable, offline fallback shown.") + "\n")
		}
		b.WriteString("\n")

		for i, s := range m.orch.Suggestions() {
			mark := "[ ]"
			if m.picked[i] {
				mark = "[x]"
			}
			line := fmt.Sprintf("%s %s  %.0f%%", mark, s.Path, s.Confidence*100)
			if s.Local {
				line += dimStyle.Render("  (offline)")
			}
			if i == m.cursor {
				line = selectedStyle.Render("> " + line)
			} else {
				line = "  " + line
			}
			b.WriteString(line + "\n")
			if s.Evidence != "" && i == m.cursor {
				b.WriteString(dimStyle.Render("      "+s.Evidence) + "\n")
			}
		}
		b.WriteString(helpStyle.Render("\nspace: select • enter: confirm • esc: edit complaint"))

	case phaseRemedies:
		b.WriteString(headerStyle.Render("Confirmed rubrics") + "\n")
		for _, r := range m.wctx.ConfirmedRubrics {
			b.WriteString("  - " + r.Path + "\n")
		}
		b.WriteString("\n" + headerStyle.Render("Remedies") + "\n")

		remedies := m.orch.Remedies()
		if m.showAll {
			for i, r := range remedies {
				b.WriteString(fmt.Sprintf("  %d. %s  %.1f%%\n", i+1, r.Name, r.Percentage))
			}
		} else {
			for i, r := range workflow.TopRemedies(remedies) {
				b.WriteString(fmt.Sprintf("  %d. %s  %d%%\n", i+1, r.Name, r.Percent))
				if r.Details != "" {
					b.WriteString(dimStyle.Render("     "+r.Details) + "\n")
				}
			}
			if rest := len(remedies) - 3; rest > 0 {
				b.WriteString(dimStyle.Render(fmt.Sprintf("  a: view all (%d more)", rest)) + "\n")
			}
		}
		if m.busy {
			b.WriteString(dimStyle.Render("\nRe-analyzing..."))
		}
		b.WriteString(helpStyle.Render("\na: toggle all • R: re-analyze • esc: back"))
	}

	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errMsg))
	}
	return b.String()
}
