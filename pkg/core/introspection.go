package core

import (
	"github.com/aretw0/introspection"
)

// NoteListIntrospection exposes the view model for observability.
type NoteListIntrospection struct {
	Screen     Screen `json:"screen"`
	NoteCount  int    `json:"note_count"`
	Connected  bool   `json:"connected"`
	Loading    bool   `json:"loading"`
	Refreshing bool   `json:"refreshing"`
	Busy       bool   `json:"busy"`
	Editing    string `json:"editing,omitempty"`
	Running    bool   `json:"running"`
}

// State implements introspection.Introspectable.
func (vm *NoteList) State() any {
	s := vm.Snapshot()
	running := vm.running.Load()
	if running {
		select {
		case <-vm.done:
			running = false
		default:
		}
	}
	return NoteListIntrospection{
		Screen:     s.Screen(),
		NoteCount:  len(s.Notes),
		Connected:  s.Connected,
		Loading:    s.Loading,
		Refreshing: s.Refreshing,
		Busy:       s.Busy,
		Editing:    s.Draft.EditingNoteID,
		Running:    running,
	}
}

// ComponentType implements introspection.Component.
func (vm *NoteList) ComponentType() string {
	return "note-list"
}

// SessionState exposes the session controller for observability.
type SessionState struct {
	View      View      `json:"view"`
	LastEvent AuthEvent `json:"last_event,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
}

// State implements introspection.Introspectable.
func (c *SessionController) State() any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := SessionState{View: viewFor(c.session), LastEvent: c.event}
	if c.session != nil {
		st.UserID = c.session.User.ID
		st.Email = c.session.User.Email
	}
	return st
}

// ComponentType implements introspection.Component.
func (c *SessionController) ComponentType() string {
	return "session-controller"
}

var _ introspection.Introspectable = (*NoteList)(nil)
var _ introspection.Component = (*NoteList)(nil)
var _ introspection.Introspectable = (*SessionController)(nil)
var _ introspection.Component = (*SessionController)(nil)
