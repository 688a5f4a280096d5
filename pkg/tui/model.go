// Package tui is the interactive terminal surface: an auth screen and a notes
// screen switched by the session controller.
package tui

import (
	"context"
	"log/slog"

	"github.com/aretw0/lifecycle"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	lcadapter "github.com/aretw0/notekeep/pkg/adapters/lifecycle"
	"github.com/aretw0/notekeep/pkg/core"
)

// Deps are the controllers the TUI drives.
type Deps struct {
	Session     *core.SessionController
	Auth        *core.AuthForm
	NewNoteList func() *core.NoteList
	Logger      *slog.Logger
}

type eventMsg struct{ event lifecycle.Event }

type eventsClosedMsg struct{}

type notesStartedMsg struct {
	screen *notesScreen
	err    error
}

// Model is the root bubbletea model. Controller calls run inside tea.Cmds;
// state changes arrive as events and are re-read from the controllers.
type Model struct {
	ctx    context.Context
	deps   Deps
	feed   *lcadapter.Feed
	events <-chan lifecycle.Event

	view     core.View
	auth     authScreen
	notes    *notesScreen
	spinner  spinner.Model
	width    int
	starting bool
	err      error
}

// New creates the root model. feed receives note list changes; events is the
// stream the model listens on.
func New(ctx context.Context, deps Deps, feed *lcadapter.Feed, events <-chan lifecycle.Event) *Model {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Model{
		ctx:     ctx,
		deps:    deps,
		feed:    feed,
		events:  events,
		view:    core.ViewAuth,
		auth:    newAuthScreen(deps.Auth),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent(), m.syncSession())
}

func (m *Model) waitForEvent() tea.Cmd {
	ch := m.events
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if ev, ok := <-ch; ok {
			return eventMsg{event: ev}
		}
		return eventsClosedMsg{}
	}
}

// syncSession follows the controller's view, opening or closing the notes
// screen on transitions.
func (m *Model) syncSession() tea.Cmd {
	view := m.deps.Session.View()
	if view == core.ViewAuth {
		if m.view == core.ViewAuth {
			return nil
		}
		m.view = view
		m.closeNotes()
		m.auth = newAuthScreen(m.deps.Auth)
		return nil
	}

	m.view = view
	if m.notes != nil && m.notes.email != m.sessionEmail() {
		m.closeNotes()
	}
	if m.notes != nil || m.starting {
		return nil
	}
	m.starting = true
	m.deps.Logger.Debug("opening notes screen")
	return m.startNotes()
}

func (m *Model) sessionEmail() string {
	if s := m.deps.Session.Current(); s != nil {
		return s.User.Email
	}
	return ""
}

func (m *Model) startNotes() tea.Cmd {
	ctx, feed := m.ctx, m.feed
	newList := m.deps.NewNoteList
	email := m.sessionEmail()
	return func() tea.Msg {
		vm := newList()
		screen := newNotesScreen(vm, email)
		if feed != nil {
			screen.sub = vm.OnChange(feed.NoteListObserver())
		}
		if err := vm.Start(ctx); err != nil {
			screen.close()
			return notesStartedMsg{err: err}
		}
		return notesStartedMsg{screen: screen}
	}
}

func (m *Model) closeNotes() {
	if m.notes != nil {
		m.notes.close()
		m.notes = nil
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.closeNotes()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if m.notes != nil {
			m.notes.setWidth(msg.Width)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		cmds := []tea.Cmd{m.waitForEvent()}
		if e, ok := msg.event.(core.Event); ok && e.Type == core.EventNotes && m.notes != nil {
			m.notes.sync(m.notes.vm.Snapshot())
		}
		cmds = append(cmds, m.syncSession())
		return m, tea.Batch(cmds...)

	case eventsClosedMsg:
		return m, nil

	case notesStartedMsg:
		m.starting = false
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		if m.view != core.ViewNotes || msg.screen.email != m.sessionEmail() {
			msg.screen.close()
			return m, m.syncSession()
		}
		m.closeNotes()
		m.notes = msg.screen
		// Events published while the list was starting found no screen to sync.
		m.notes.sync(m.notes.vm.Snapshot())
		if m.width > 0 {
			m.notes.setWidth(m.width)
		}
		return m, nil

	case opDoneMsg:
		if msg.err != nil {
			m.deps.Logger.Debug("note operation finished", "error", msg.err)
		}
		return m, nil
	}

	if m.view == core.ViewNotes {
		if m.notes == nil {
			return m, nil
		}
		return m, m.notes.update(m.ctx, msg)
	}
	return m, m.auth.update(m.ctx, msg)
}

func (m *Model) View() string {
	if m.view == core.ViewNotes {
		if m.notes == nil {
			return appStyle.Render(m.spinner.View() + " Loading...")
		}
		return appStyle.Render(m.notes.view(m.spinner.View()))
	}
	return appStyle.Render(m.auth.view(m.spinner.View()))
}

// Err is the failure that ended the program, if any.
func (m *Model) Err() error {
	return m.err
}
