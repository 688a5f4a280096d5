package core

import (
	"context"
	"sync"
)

// AuthGateway is the authentication half of the remote backend.
type AuthGateway interface {
	// GetSession returns the current session, or nil when signed out.
	GetSession(ctx context.Context) (*Session, error)

	// OnAuthChange registers fn for every session transition.
	OnAuthChange(fn func(event AuthEvent, session *Session)) Subscription

	SignInWithPassword(ctx context.Context, creds Credentials) (*Session, error)

	// SignUp registers a new account. The returned session is nil when the
	// backend requires confirmation before the first sign-in.
	SignUp(ctx context.Context, creds Credentials) (*Session, error)

	SignOut(ctx context.Context) error

	// GetUser resolves the identity behind the current session.
	GetUser(ctx context.Context) (User, error)
}

// NoteGateway is the notes table of the remote backend.
// Rows are scoped to the signed-in user by the backend, not the client.
type NoteGateway interface {
	// ListNotes returns every row ordered by created_at, newest first.
	ListNotes(ctx context.Context) ([]Note, error)

	InsertNote(ctx context.Context, in NoteInput) error

	UpdateNote(ctx context.Context, id string, patch NotePatch) error

	DeleteNote(ctx context.Context, id string) error
}

// Gateway is the full remote backend.
type Gateway interface {
	AuthGateway
	NoteGateway
}

// Connectivity publishes network reachability changes.
type Connectivity interface {
	Subscribe(fn func(connected bool)) Subscription
}

// Subscription is a registered listener. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a function to Subscription; it runs at most once.
func SubscriptionFunc(fn func()) Subscription {
	return &funcSubscription{fn: fn}
}

type funcSubscription struct {
	once sync.Once
	fn   func()
}

func (s *funcSubscription) Unsubscribe() {
	s.once.Do(s.fn)
}

// FixedConnectivity never changes; it reports its value once on Subscribe.
// One-shot commands use it after a single reachability probe.
type FixedConnectivity bool

func (c FixedConnectivity) Subscribe(fn func(connected bool)) Subscription {
	fn(bool(c))
	return SubscriptionFunc(func() {})
}

// listeners is a registry of callbacks keyed by subscription.
type listeners[F any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]F
}

func (l *listeners[F]) add(fn F) Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]F)
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return SubscriptionFunc(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
	})
}

// snapshot returns the callbacks in registration order.
func (l *listeners[F]) snapshot() []F {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]F, 0, len(l.fns))
	for i := 0; i < l.next; i++ {
		if fn, ok := l.fns[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}
