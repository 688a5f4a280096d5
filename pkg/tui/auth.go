package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/notekeep/pkg/core"
)

type authDoneMsg struct {
	notice *core.Notice
	err    error
}

// authScreen is the sign-in/sign-up form.
type authScreen struct {
	form     *core.AuthForm
	email    textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	notice   *core.Notice
}

func newAuthScreen(form *core.AuthForm) authScreen {
	email := textinput.New()
	email.Placeholder = "Email"
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return authScreen{form: form, email: email, password: password}
}

func (a *authScreen) setFocus(i int) tea.Cmd {
	a.focus = i
	if i == 0 {
		a.password.Blur()
		return a.email.Focus()
	}
	a.email.Blur()
	return a.password.Focus()
}

// submit runs the form off the update loop. Inputs are trimmed of surrounding
// whitespace in the email only; passwords are sent as typed.
func (a *authScreen) submit(ctx context.Context, signUp bool) tea.Cmd {
	if a.busy {
		return nil
	}
	a.busy = true
	form := a.form
	email, password := strings.TrimSpace(a.email.Value()), a.password.Value()
	return func() tea.Msg {
		var (
			notice *core.Notice
			err    error
		)
		if signUp {
			notice, err = form.SignUp(ctx, email, password)
		} else {
			notice, err = form.SignIn(ctx, email, password)
		}
		return authDoneMsg{notice: notice, err: err}
	}
}

func (a *authScreen) update(ctx context.Context, msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case authDoneMsg:
		a.busy = false
		a.notice = msg.notice
		if msg.err == nil && msg.notice != nil && msg.notice.Kind == core.NoticeSuccess {
			a.password.Reset()
		}
		return nil

	case tea.KeyMsg:
		if a.notice != nil {
			switch msg.String() {
			case "enter", "esc":
				a.notice = nil
			}
			return nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			return a.setFocus(1 - a.focus)
		case "enter":
			if a.focus == 0 {
				return a.setFocus(1)
			}
			return a.submit(ctx, false)
		case "ctrl+n":
			return a.submit(ctx, true)
		}
	}

	var cmd tea.Cmd
	if a.focus == 0 {
		a.email, cmd = a.email.Update(msg)
	} else {
		a.password, cmd = a.password.Update(msg)
	}
	return cmd
}

func (a *authScreen) view(spin string) string {
	if a.notice != nil {
		return renderNotice(a.notice)
	}

	signIn, signUp := buttonStyle.Render("Sign In"), buttonStyle.Render("Sign Up")
	status := ""
	if a.busy {
		signIn, signUp = disabledBtn.Render("Sign In"), disabledBtn.Render("Sign Up")
		status = spin + " Loading..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("Notes App"),
		"",
		labelStyle.Render("Email"),
		a.email.View(),
		labelStyle.Render("Password"),
		a.password.View(),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, signIn, "  ", signUp),
		status,
		helpStyle.Render("tab: switch field • enter: sign in • ctrl+n: sign up • ctrl+c: quit"),
	)
}
