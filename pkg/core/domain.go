// Package core holds the notekeep domain: notes, sessions, the gateway ports and the
// controllers that reconcile them into on-screen state.
package core

import (
	"fmt"
	"time"
)

// Note is a single remote row of the notes table.
// The client never mutates Owner or CreatedAt.
type Note struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"content"`
	Owner     string    `json:"user_id" yaml:"user_id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// DisplayTitle returns the title, or "Untitled" when it is blank.
func (n Note) DisplayTitle() string {
	if n.Title == "" {
		return "Untitled"
	}
	return n.Title
}

// NoteInput is the payload of an insert.
type NoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Owner   string `json:"user_id"`
}

// NotePatch is the payload of an update-by-id.
type NotePatch struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// User is the authenticated identity. ID is the owner of notes.
type User struct {
	ID    string `json:"id" yaml:"id"`
	Email string `json:"email" yaml:"email"`
}

// Session is the token bundle granted by a successful sign-in.
type Session struct {
	AccessToken  string    `json:"access_token" yaml:"access_token"`
	RefreshToken string    `json:"refresh_token" yaml:"refresh_token"`
	TokenType    string    `json:"token_type" yaml:"token_type"`
	ExpiresAt    time.Time `json:"expires_at" yaml:"expires_at"`
	User         User      `json:"user" yaml:"user"`
}

// Expired reports whether the access token is (or is about to be) unusable.
func (s *Session) Expired(now time.Time, leeway time.Duration) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(s.ExpiresAt)
}

// Credentials carries the email/password pair of the auth form.
type Credentials struct {
	Email    string `json:"email" validate:"required,emailshape"`
	Password string `json:"password" validate:"required"`
}

// AuthEvent names a session transition reported by the gateway.
type AuthEvent string

const (
	AuthInitialSession AuthEvent = "INITIAL_SESSION"
	AuthSignedIn       AuthEvent = "SIGNED_IN"
	AuthSignedOut      AuthEvent = "SIGNED_OUT"
	AuthTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// View is the active top-level screen.
type View string

const (
	ViewAuth  View = "auth"
	ViewNotes View = "notes"
)

// NoticeKind classifies a user-visible notification.
type NoticeKind string

const (
	NoticeValidation NoticeKind = "validation"
	NoticeError      NoticeKind = "error"
	NoticeSuccess    NoticeKind = "success"
)

// Notice is a blocking notification shown to the user.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

func (n Notice) String() string {
	return fmt.Sprintf("%s: %s", n.Title, n.Message)
}

// EventType represents the kind of state change published to surfaces.
type EventType string

const (
	EventSession EventType = "SESSION"
	EventNotes   EventType = "NOTES"
)

// Event is a state change of the session controller or a note list.
// Exactly one of Session/Notes payloads is meaningful, depending on Type.
type Event struct {
	Type      EventType
	View      View
	Session   *Session
	Notes     *NoteListState
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	switch e.Type {
	case EventSession:
		return fmt.Sprintf("%s view=%s", e.Type, e.View)
	case EventNotes:
		if e.Notes != nil {
			return fmt.Sprintf("%s screen=%s notes=%d", e.Type, e.Notes.Screen(), len(e.Notes.Notes))
		}
	}
	return string(e.Type)
}
