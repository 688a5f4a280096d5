package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aretw0/lifecycle"
)

// NoteList is the view model of the notes screen. It owns the note collection,
// the draft and the connectivity gate.
//
// State is mutated only by the loop goroutine started in Start: every change is
// a closure sent through a single update queue and applied in order. Gateway
// calls run on the caller's goroutine under a context that is cancelled when the
// view goes offline or is closed.
type NoteList struct {
	gw             Gateway
	conn           Connectivity
	logger         *slog.Logger
	fetchOnConnect bool

	updates chan update
	done    chan struct{}
	started atomic.Bool
	running atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.RWMutex
	state NoteListState

	// Owned by the loop goroutine.
	epochCtx    context.Context
	epochCancel context.CancelFunc
	fetchSeq    uint64

	sub       Subscription
	observers listeners[func(NoteListState)]
	closeOnce sync.Once
}

type update struct {
	fn   func(*NoteListState)
	done chan struct{}
}

// NoteListOption configures a NoteList.
type NoteListOption func(*noteListOptions)

type noteListOptions struct {
	logger         *slog.Logger
	connected      bool
	fetchOnConnect bool
}

// WithListLogger sets the logger of the view model.
func WithListLogger(logger *slog.Logger) NoteListOption {
	return func(o *noteListOptions) {
		o.logger = logger
	}
}

// WithInitialConnectivity sets the assumed reachability before the first
// connectivity event. Defaults to true.
func WithInitialConnectivity(connected bool) NoteListOption {
	return func(o *noteListOptions) {
		o.connected = connected
	}
}

// WithFetchOnConnect controls the automatic fetch on start and on every
// transition to connected. Defaults to true.
func WithFetchOnConnect(enabled bool) NoteListOption {
	return func(o *noteListOptions) {
		o.fetchOnConnect = enabled
	}
}

// NewNoteList creates a view model. Call Start before any operation.
func NewNoteList(gw Gateway, conn Connectivity, opts ...NoteListOption) *NoteList {
	o := &noteListOptions{connected: true, fetchOnConnect: true}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if conn == nil {
		conn = FixedConnectivity(true)
	}
	return &NoteList{
		gw:             gw,
		conn:           conn,
		logger:         o.logger,
		fetchOnConnect: o.fetchOnConnect,
		updates:        make(chan update),
		done:           make(chan struct{}),
		state:          NoteListState{Notes: []Note{}, Connected: o.connected},
	}
}

// Start runs the update loop, subscribes to connectivity and, when connected,
// triggers the first fetch.
func (vm *NoteList) Start(ctx context.Context) error {
	if !vm.started.CompareAndSwap(false, true) {
		return errors.New("note list already started")
	}

	vm.ctx, vm.cancel = context.WithCancel(ctx)
	vm.epochCtx, vm.epochCancel = context.WithCancel(vm.ctx)

	lifecycle.Go(vm.ctx, vm.run, lifecycle.WithErrorHandler(func(err error) {
		vm.logger.Error("note list loop panic", "error", err)
	}))
	vm.running.Store(true)

	connected := vm.Snapshot().Connected
	vm.sub = vm.conn.Subscribe(vm.setConnected)

	if vm.fetchOnConnect && connected && vm.Snapshot().Connected {
		vm.spawnFetch()
	}
	return nil
}

// Close unsubscribes from connectivity, cancels in-flight calls and stops the
// loop. No state change is applied after Close returns.
func (vm *NoteList) Close() {
	vm.closeOnce.Do(func() {
		if vm.sub != nil {
			vm.sub.Unsubscribe()
		}
		if !vm.running.Load() {
			return
		}
		vm.cancel()
		<-vm.done
	})
}

func (vm *NoteList) run(ctx context.Context) error {
	defer close(vm.done)
	defer func() { vm.epochCancel() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case u := <-vm.updates:
			vm.step(u)
		}
	}
}

func (vm *NoteList) step(u update) {
	defer close(u.done)

	vm.mu.Lock()
	u.fn(&vm.state)
	snap := vm.state.clone()
	vm.mu.Unlock()

	for _, fn := range vm.observers.snapshot() {
		fn(snap)
	}
}

// apply runs fn on the loop goroutine and waits until observers have seen the result.
func (vm *NoteList) apply(fn func(*NoteListState)) error {
	if !vm.running.Load() {
		return ErrNotStarted
	}
	u := update{fn: fn, done: make(chan struct{})}
	select {
	case vm.updates <- u:
	case <-vm.done:
		return ErrClosed
	}
	select {
	case <-u.done:
		return nil
	case <-vm.done:
		return ErrClosed
	}
}

// release applies a cleanup update; a closed view drops it.
func (vm *NoteList) release(fn func(*NoteListState)) {
	_ = vm.apply(fn)
}

// Snapshot returns a copy of the current state.
func (vm *NoteList) Snapshot() NoteListState {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.state.clone()
}

// OnChange registers fn for every applied update. Observers run on the loop
// goroutine and must not call back into the view model synchronously.
func (vm *NoteList) OnChange(fn func(NoteListState)) Subscription {
	return vm.observers.add(fn)
}

func (vm *NoteList) setConnected(connected bool) {
	var entered bool
	err := vm.apply(func(s *NoteListState) {
		if s.Connected == connected {
			return
		}
		s.Connected = connected
		if connected {
			vm.epochCtx, vm.epochCancel = context.WithCancel(vm.ctx)
			entered = true
		} else {
			vm.epochCancel()
		}
	})
	if err != nil {
		return
	}

	vm.logger.Info("connectivity changed", "connected", connected)
	if entered && vm.fetchOnConnect {
		vm.spawnFetch()
	}
}

func (vm *NoteList) spawnFetch() {
	lifecycle.Go(vm.ctx, func(ctx context.Context) error {
		err := vm.Fetch(ctx)
		switch {
		case err == nil, errors.Is(err, ErrNotConnected), errors.Is(err, ErrClosed), isCancellation(err):
		default:
			vm.logger.Warn("background fetch failed", "error", err)
		}
		return nil
	})
}

// Fetch replaces the note list with the gateway rows, newest first.
// On failure the error is surfaced as a notice and the list is left unchanged.
// Loading flags are released on every exit path.
func (vm *NoteList) Fetch(ctx context.Context) error {
	return vm.fetch(ctx, false)
}

// Refresh is a user-initiated fetch (pull to refresh).
func (vm *NoteList) Refresh(ctx context.Context) error {
	return vm.fetch(ctx, true)
}

func (vm *NoteList) fetch(ctx context.Context, refresh bool) error {
	var (
		seq   uint64
		epoch context.Context
	)
	if err := vm.apply(func(s *NoteListState) {
		if !s.Connected {
			return
		}
		vm.fetchSeq++
		seq = vm.fetchSeq
		epoch = vm.epochCtx
		s.Loading = true
		if refresh {
			s.Refreshing = true
		}
	}); err != nil {
		return err
	}
	if seq == 0 {
		return ErrNotConnected
	}

	opCtx, cancel := joinContext(ctx, epoch)
	defer cancel()

	var (
		rows []Note
		err  error
	)
	defer func() {
		vm.release(func(s *NoteListState) {
			if seq != vm.fetchSeq {
				return
			}
			s.Loading = false
			s.Refreshing = false
			switch {
			case err == nil && rows != nil:
				s.Notes = rows
			case err != nil && !isCancellation(err):
				s.Notice = errorNotice("Error", err)
			}
		})
	}()

	rows, err = vm.gw.ListNotes(opCtx)
	if err != nil {
		vm.logger.Warn("fetch notes failed", "error", err)
		return fmt.Errorf("fetch notes: %w", err)
	}
	if rows == nil {
		rows = []Note{}
	}
	vm.logger.Debug("notes fetched", "count", len(rows), "seq", seq)
	return nil
}

// SaveDraft inserts or updates the draft, clears it and re-fetches the list.
// A draft whose title and content both trim to empty is rejected without any
// gateway call.
func (vm *NoteList) SaveDraft(ctx context.Context) error {
	var draft Draft
	err := vm.do(ctx, "Save failed",
		func(s *NoteListState) error {
			title := strings.TrimSpace(s.Draft.Title)
			content := strings.TrimSpace(s.Draft.Content)
			if title == "" && content == "" {
				s.Notice = &Notice{Kind: NoticeValidation, Title: "Empty Note", Message: "Please add a title or content."}
				return ErrEmptyNote
			}
			draft = Draft{Title: title, Content: content, EditingNoteID: s.Draft.EditingNoteID}
			return nil
		},
		func(ctx context.Context) error {
			return vm.persist(ctx, draft)
		},
		func(s *NoteListState) {
			s.Draft = Draft{}
		})
	if err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	return vm.refresh(ctx)
}

func (vm *NoteList) persist(ctx context.Context, d Draft) error {
	user, err := vm.gw.GetUser(ctx)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}

	if d.Editing() {
		vm.logger.Debug("updating note", "id", d.EditingNoteID)
		return vm.gw.UpdateNote(ctx, d.EditingNoteID, NotePatch{Title: d.Title, Content: d.Content})
	}

	vm.logger.Debug("inserting note", "owner", user.ID)
	return vm.gw.InsertNote(ctx, NoteInput{Title: d.Title, Content: d.Content, Owner: user.ID})
}

// DeleteNote deletes the row and re-fetches. The list only changes once the
// fetch completes.
func (vm *NoteList) DeleteNote(ctx context.Context, id string) error {
	err := vm.do(ctx, "Delete failed", nil,
		func(ctx context.Context) error {
			return vm.gw.DeleteNote(ctx, id)
		},
		func(s *NoteListState) {
			if s.Draft.EditingNoteID == id {
				s.Draft.EditingNoteID = ""
			}
		})
	if err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	return vm.refresh(ctx)
}

// refresh fetches after a successful mutation. Its failure is tagged with
// ErrRefreshFailed so callers can tell the mutation itself went through.
func (vm *NoteList) refresh(ctx context.Context) error {
	if err := vm.Fetch(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	return nil
}

// SignOut ends the session. The session controller switches views.
func (vm *NoteList) SignOut(ctx context.Context) error {
	return vm.do(ctx, "Sign out failed", nil, vm.gw.SignOut, nil)
}

// BeginEdit loads note into the draft; the next save updates it.
func (vm *NoteList) BeginEdit(note Note) error {
	return vm.apply(func(s *NoteListState) {
		s.Draft = Draft{Title: note.Title, Content: note.Content, EditingNoteID: note.ID}
	})
}

// CancelEdit clears the draft.
func (vm *NoteList) CancelEdit() error {
	return vm.apply(func(s *NoteListState) {
		s.Draft = Draft{}
	})
}

// SetDraft binds the editor fields, keeping the edit target.
func (vm *NoteList) SetDraft(title, content string) error {
	return vm.apply(func(s *NoteListState) {
		s.Draft.Title = title
		s.Draft.Content = content
	})
}

// DismissNotice clears the current notice.
func (vm *NoteList) DismissNotice() error {
	return vm.apply(func(s *NoteListState) {
		s.Notice = nil
	})
}

// do runs call while the view is busy. Offline or busy views reject it without
// a gateway call. The busy flag is released on every exit path; onSuccess runs in
// the same update when call succeeds, and a failure is surfaced under failTitle.
func (vm *NoteList) do(
	ctx context.Context,
	failTitle string,
	check func(*NoteListState) error,
	call func(context.Context) error,
	onSuccess func(*NoteListState),
) error {
	var (
		epoch    context.Context
		checkErr error
	)
	if err := vm.apply(func(s *NoteListState) {
		switch {
		case !s.Connected:
			checkErr = ErrNotConnected
		case s.Busy:
			checkErr = ErrBusy
		default:
			if check != nil {
				if checkErr = check(s); checkErr != nil {
					return
				}
			}
			s.Busy = true
			epoch = vm.epochCtx
		}
	}); err != nil {
		return err
	}
	if checkErr != nil {
		return checkErr
	}

	opCtx, cancel := joinContext(ctx, epoch)
	defer cancel()

	var (
		succeeded bool
		callErr   error
	)
	defer func() {
		vm.release(func(s *NoteListState) {
			s.Busy = false
			if succeeded && onSuccess != nil {
				onSuccess(s)
			}
			if callErr != nil && !isCancellation(callErr) {
				s.Notice = errorNotice(failTitle, callErr)
			}
		})
	}()

	if callErr = call(opCtx); callErr != nil {
		vm.logger.Warn("gateway call failed", "operation", failTitle, "error", callErr)
		return callErr
	}
	succeeded = true
	return nil
}

func errorNotice(title string, err error) *Notice {
	return &Notice{Kind: NoticeError, Title: title, Message: ErrorMessage(err)}
}

// joinContext derives a context from ctx that is also cancelled with scope.
func joinContext(ctx, scope context.Context) (context.Context, context.CancelFunc) {
	joined, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(scope, cancel)
	return joined, func() {
		stop()
		cancel()
	}
}
