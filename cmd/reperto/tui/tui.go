// Package tui implements the interactive terminal interface: login, the
// case list with search, and the analysis workflow from complaint entry to
// ranked remedies. Screens hand workflow state to each other through forked
// workflow contexts, never shared pointers.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/reperto/reperto-cli/api"
	"github.com/reperto/reperto-cli/session"
	"github.com/reperto/reperto-cli/workflow"
)

// Deps are the wired client services the interface runs on.
type Deps struct {
	Client *api.Client
	Store  *session.Store
	Gate   *session.Gate
}

type screen int

const (
	screenLogin screen = iota
	screenHome
	screenCase
)

// Model is the root bubbletea model routing between screens.
type Model struct {
	deps   Deps
	screen screen

	login loginModel
	home  homeModel
	cases caseModel

	width  int
	height int
}

// New builds the root model. The session gate decides the starting screen:
// a stored credential skips the login flow.
func New(deps Deps) Model {
	m := Model{
		deps:  deps,
		login: newLoginModel(),
		home:  newHomeModel(),
	}
	if deps.Gate.Check() == session.Authenticated {
		m.screen = screenHome
	} else {
		m.screen = screenLogin
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.screen == screenHome {
		return loadHome(m.deps.Client)
	}
	return m.login.Init()
}

// Navigation messages passed up from the screens.

// loggedInMsg switches to the home screen after a successful login.
type loggedInMsg struct {
	user api.User
}

// openCaseMsg opens the analysis workflow for one case.
type openCaseMsg struct {
	analysis *api.CaseAnalysis
}

// backToHomeMsg returns from the case screen, discarding its workflow.
type backToHomeMsg struct{}

// loggedOutMsg drops back to the login screen.
type loggedOutMsg struct{}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case loggedInMsg:
		m.screen = screenHome
		m.home = newHomeModel()
		return m, loadHome(m.deps.Client)

	case openCaseMsg:
		orch := workflow.New(m.deps.Client)
		orch.LoadAnalysis(msg.analysis)
		m.cases = newCaseModel(orch, msg.analysis)
		m.screen = screenCase
		return m, m.cases.Init()

	case backToHomeMsg:
		// The case screen's pending responses must not leak into a
		// later visit.
		m.cases.orch.Reset()
		m.screen = screenHome
		return m, loadHome(m.deps.Client)

	case loggedOutMsg:
		m.deps.Gate.Logout()
		m.screen = screenLogin
		m.login = newLoginModel()
		return m, m.login.Init()
	}

	var cmd tea.Cmd
	switch m.screen {
	case screenLogin:
		m.login, cmd = m.login.update(msg, m.deps)
	case screenHome:
		m.home, cmd = m.home.update(msg, m.deps)
	case screenCase:
		m.cases, cmd = m.cases.update(msg, m.deps)
	}
	return m, cmd
}

func (m Model) View() string {
	switch m.screen {
	case screenLogin:
		return m.login.view()
	case screenHome:
		return m.home.view()
	case screenCase:
		return m.cases.view()
	}
	return ""
}

// Run starts the interactive interface and blocks until it exits.
func Run(deps Deps) error {
	p := tea.NewProgram(New(deps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// background is the context used for the interface's API calls. Requests
// are bounded by the client's transport timeout; stale responses are
// discarded by the workflow's generation guard rather than cancellation.
func background() context.Context {
	return context.Background()
}
