package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/reperto/reperto-cli/api"
)

// loginModel is the credential entry screen.
type loginModel struct {
	email    textinput.Model
	password textinput.Model
	focus    int // 0 email, 1 password
	busy     bool
	errMsg   string
}

func newLoginModel() loginModel {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 128
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword

	return loginModel{email: email, password: password}
}

func (m loginModel) Init() tea.Cmd {
	return textinput.Blink
}

// loginResultMsg carries the outcome of the login request.
type loginResultMsg struct {
	token *api.Token
	err   error
}

func doLogin(deps Deps, email, password string) tea.Cmd {
	return func() tea.Msg {
		tok, err := deps.Client.Login(background(), email, password)
		if err != nil {
			return loginResultMsg{err: err}
		}
		if err := deps.Store.Save(tok.AccessToken); err != nil {
			return loginResultMsg{err: err}
		}
		return loginResultMsg{token: tok}
	}
}

func (m loginModel) update(msg tea.Msg, deps Deps) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		return m, func() tea.Msg { return loggedInMsg{user: msg.token.User} }

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab":
			m.focus = 1 - m.focus
			if m.focus == 0 {
				m.password.Blur()
				return m, m.email.Focus()
			}
			m.email.Blur()
			return m, m.password.Focus()
		case "enter":
			if m.email.Value() == "" || m.password.Value() == "" {
				m.errMsg = "email and password are required"
				return m, nil
			}
			m.busy = true
			m.errMsg = ""
			return m, doLogin(deps, m.email.Value(), m.password.Value())
		case "esc":
			return m, tea.Quit
		}
	}

	var cmds [2]tea.Cmd
	m.email, cmds[0] = m.email.Update(msg)
	m.password, cmds[1] = m.password.Update(msg)
	return m, tea.Batch(cmds[0], cmds[1])
}

func (m loginModel) view() string {
	status := helpStyle.Render("enter: log in • tab: switch field • esc: quit")
	if m.busy {
		status = dimStyle.Render("Logging in...")
	} else if m.errMsg != "" {
		status = errorStyle.Render(m.errMsg)
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("reperto"),
		"",
		m.email.View(),
		m.password.View(),
		"",
		status,
	)
	return panelStyle.Render(form)
}
