package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notekeep/pkg/core"
)

// signedIn is a gateway with a fixed session and no notes.
type signedIn struct {
	session *core.Session
}

func (g signedIn) GetSession(context.Context) (*core.Session, error) { return g.session, nil }

func (g signedIn) OnAuthChange(func(core.AuthEvent, *core.Session)) core.Subscription {
	return core.SubscriptionFunc(func() {})
}

func (g signedIn) SignInWithPassword(context.Context, core.Credentials) (*core.Session, error) {
	return g.session, nil
}

func (g signedIn) SignUp(context.Context, core.Credentials) (*core.Session, error) { return nil, nil }
func (g signedIn) SignOut(context.Context) error { return nil }
func (g signedIn) GetUser(context.Context) (core.User, error) { return g.session.User, nil }
func (g signedIn) ListNotes(context.Context) ([]core.Note, error) { return nil, nil }
func (g signedIn) InsertNote(context.Context, core.NoteInput) error { return nil }
func (g signedIn) UpdateNote(context.Context, string, core.NotePatch) error { return nil }
func (g signedIn) DeleteNote(context.Context, string) error { return nil }

func TestModel_NotesStartedAppliesEarlierChanges(t *testing.T) {
	ctx := context.Background()
	gw := signedIn{session: &core.Session{AccessToken: "t", User: core.User{ID: "u1", Email: "me@example.com"}}}

	session := core.NewSessionController(gw, nil)
	require.NoError(t, session.Start(ctx))
	t.Cleanup(session.Close)
	require.Equal(t, core.ViewNotes, session.View())

	// The screen snapshots the list before Start reports the network as down.
	vm := core.NewNoteList(gw, core.FixedConnectivity(false))
	screen := newNotesScreen(vm, "me@example.com")
	require.True(t, screen.state.Connected)
	require.NoError(t, vm.Start(ctx))
	t.Cleanup(screen.close)

	m := New(ctx, Deps{Session: session, Auth: core.NewAuthForm(gw, nil)}, nil, nil)
	m.view = core.ViewNotes
	m.starting = true

	// The offline change is published before the screen is installed.
	m.Update(eventMsg{event: core.Event{Type: core.EventNotes}})
	assert.Nil(t, m.notes)

	m.Update(notesStartedMsg{screen: screen})
	require.Same(t, screen, m.notes)
	assert.Contains(t, m.View(), "No Internet Connection")
}
