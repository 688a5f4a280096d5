package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/notekeep"
	"github.com/aretw0/notekeep/pkg/core"
)

var errOffline = errors.New("backend unreachable")

// notesSession is a started app plus a note list for one-shot commands.
type notesSession struct {
	app *notekeep.App
	vm  *core.NoteList
}

// openNotes requires a signed-in, reachable backend. The list is not fetched.
func openNotes(ctx context.Context) (*notesSession, error) {
	app, err := openApp(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireSession(app); err != nil {
		closeApp(app)
		return nil, err
	}
	if !app.CheckConnectivity(ctx) {
		closeApp(app)
		printNotice(os.Stderr, offlineNotice)
		return nil, errOffline
	}

	vm := app.NewNoteList(core.WithFetchOnConnect(false))
	if err := vm.Start(ctx); err != nil {
		closeApp(app)
		return nil, err
	}
	return &notesSession{app: app, vm: vm}, nil
}

func (s *notesSession) Close() {
	s.vm.Close()
	closeApp(s.app)
}

// fail prints the notice left by a failed operation and returns err.
func (s *notesSession) fail(err error) error {
	if n := s.vm.Snapshot().Notice; n != nil {
		printNotice(os.Stderr, n)
		return fmt.Errorf("%s", n.Title)
	}
	return err
}

// done reports a finished mutation on w. When only the follow-up fetch
// failed the change is already stored, so the command still succeeds.
func (s *notesSession) done(w io.Writer, msg string, err error) error {
	switch {
	case err == nil:
		fmt.Fprintln(w, successColor.Sprint(msg))
	case errors.Is(err, core.ErrRefreshFailed):
		fmt.Fprintf(w, "%s %s\n", successColor.Sprint(msg), warnColor.Sprintf("(refresh failed: %s)", core.ErrorMessage(err)))
	default:
		return s.fail(err)
	}
	return nil
}

func (s *notesSession) findNote(ctx context.Context, id string) (core.Note, error) {
	if err := s.vm.Fetch(ctx); err != nil {
		return core.Note{}, s.fail(err)
	}
	for _, n := range s.vm.Snapshot().Notes {
		if n.ID == id {
			return n, nil
		}
	}
	return core.Note{}, fmt.Errorf("note %s not found", id)
}
