package core_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/notekeep/pkg/core"
)

type call struct {
	Op    string
	ID    string
	Input core.NoteInput
	Patch core.NotePatch
	Creds core.Credentials
}

// fakeGateway implements core.Gateway in memory and records every call.
type fakeGateway struct {
	mu      sync.Mutex
	calls   []call
	rows    []core.Note
	nextID  int
	user    core.User
	session *core.Session

	listNil    bool
	listErr    error
	insertErr  error
	updateErr  error
	deleteErr  error
	userErr    error
	signInErr  error
	signUpErr  error
	signOutErr error

	// listHook, when set, replaces the list behavior. n is the 1-based call number.
	listHook func(ctx context.Context, n int) ([]core.Note, error)
	// insertGate, when set, blocks InsertNote until closed or ctx is done.
	insertGate chan struct{}
	// sessionGate, when set, blocks GetSession until closed.
	sessionGate chan struct{}

	authSubs map[int]func(core.AuthEvent, *core.Session)
	subSeq   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		user:     core.User{ID: "user-1", Email: "me@example.com"},
		authSubs: make(map[int]func(core.AuthEvent, *core.Session)),
	}
}

var baseTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func (g *fakeGateway) seed(titles ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, title := range titles {
		g.addRowLocked(core.NoteInput{Title: title, Content: title + " body", Owner: g.user.ID})
	}
}

func (g *fakeGateway) addRowLocked(in core.NoteInput) core.Note {
	g.nextID++
	n := core.Note{
		ID:        fmt.Sprintf("%d", g.nextID),
		Title:     in.Title,
		Content:   in.Content,
		Owner:     in.Owner,
		CreatedAt: baseTime.Add(time.Duration(g.nextID) * time.Minute),
	}
	g.rows = append(g.rows, n)
	return n
}

func (g *fakeGateway) record(c call) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, c)
	n := 0
	for _, existing := range g.calls {
		if existing.Op == c.Op {
			n++
		}
	}
	return n
}

func (g *fakeGateway) Calls() []call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]call(nil), g.calls...)
}

func (g *fakeGateway) Count(op string) int {
	n := 0
	for _, c := range g.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (g *fakeGateway) Ops() []string {
	var ops []string
	for _, c := range g.Calls() {
		ops = append(ops, c.Op)
	}
	return ops
}

func (g *fakeGateway) sortedRows() []core.Note {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := append([]core.Note(nil), g.rows...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (g *fakeGateway) ListNotes(ctx context.Context) ([]core.Note, error) {
	n := g.record(call{Op: "list"})
	if g.listHook != nil {
		return g.listHook(ctx, n)
	}
	g.mu.Lock()
	listErr, listNil := g.listErr, g.listNil
	g.mu.Unlock()
	if listErr != nil {
		return nil, listErr
	}
	if listNil {
		return nil, nil
	}
	return g.sortedRows(), nil
}

func (g *fakeGateway) InsertNote(ctx context.Context, in core.NoteInput) error {
	g.record(call{Op: "insert", Input: in})
	if g.insertGate != nil {
		select {
		case <-g.insertGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if g.insertErr != nil {
		return g.insertErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addRowLocked(in)
	return nil
}

func (g *fakeGateway) UpdateNote(ctx context.Context, id string, patch core.NotePatch) error {
	g.record(call{Op: "update", ID: id, Patch: patch})
	if g.updateErr != nil {
		return g.updateErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.rows {
		if g.rows[i].ID == id {
			g.rows[i].Title = patch.Title
			g.rows[i].Content = patch.Content
		}
	}
	return nil
}

func (g *fakeGateway) DeleteNote(ctx context.Context, id string) error {
	g.record(call{Op: "delete", ID: id})
	if g.deleteErr != nil {
		return g.deleteErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	kept := g.rows[:0]
	for _, n := range g.rows {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	g.rows = kept
	return nil
}

func (g *fakeGateway) GetUser(ctx context.Context) (core.User, error) {
	g.record(call{Op: "getUser"})
	if g.userErr != nil {
		return core.User{}, g.userErr
	}
	return g.user, nil
}

func (g *fakeGateway) GetSession(ctx context.Context) (*core.Session, error) {
	g.record(call{Op: "getSession"})
	if g.sessionGate != nil {
		<-g.sessionGate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session, nil
}

func (g *fakeGateway) OnAuthChange(fn func(core.AuthEvent, *core.Session)) core.Subscription {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.subSeq
	g.subSeq++
	g.authSubs[id] = fn
	return core.SubscriptionFunc(func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.authSubs, id)
	})
}

func (g *fakeGateway) emit(event core.AuthEvent, s *core.Session) {
	g.mu.Lock()
	g.session = s
	subs := make([]func(core.AuthEvent, *core.Session), 0, len(g.authSubs))
	for _, fn := range g.authSubs {
		subs = append(subs, fn)
	}
	g.mu.Unlock()
	for _, fn := range subs {
		fn(event, s)
	}
}

func (g *fakeGateway) authSubCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.authSubs)
}

func (g *fakeGateway) SignInWithPassword(ctx context.Context, creds core.Credentials) (*core.Session, error) {
	g.record(call{Op: "signIn", Creds: creds})
	if g.signInErr != nil {
		return nil, g.signInErr
	}
	s := &core.Session{AccessToken: "token", User: g.user}
	g.emit(core.AuthSignedIn, s)
	return s, nil
}

func (g *fakeGateway) SignUp(ctx context.Context, creds core.Credentials) (*core.Session, error) {
	g.record(call{Op: "signUp", Creds: creds})
	if g.signUpErr != nil {
		return nil, g.signUpErr
	}
	return nil, nil
}

func (g *fakeGateway) SignOut(ctx context.Context) error {
	g.record(call{Op: "signOut"})
	if g.signOutErr != nil {
		return g.signOutErr
	}
	g.emit(core.AuthSignedOut, nil)
	return nil
}

// fakeConnectivity lets tests flip reachability.
type fakeConnectivity struct {
	mu   sync.Mutex
	subs map[int]func(bool)
	next int
}

func newFakeConnectivity() *fakeConnectivity {
	return &fakeConnectivity{subs: make(map[int]func(bool))}
}

func (c *fakeConnectivity) Subscribe(fn func(bool)) core.Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	c.subs[id] = fn
	return core.SubscriptionFunc(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	})
}

func (c *fakeConnectivity) set(connected bool) {
	c.mu.Lock()
	subs := make([]func(bool), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()
	for _, fn := range subs {
		fn(connected)
	}
}

func (c *fakeConnectivity) subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}
