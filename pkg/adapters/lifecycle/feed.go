package lifecycle

import (
	"sync"
	"time"

	"github.com/aretw0/notekeep/pkg/core"
)

// Feed turns controller and view-model callbacks into a bounded event stream.
// Observers run on the publisher's goroutine and must never block, so a full
// feed drops its oldest event; every event carries a full snapshot.
type Feed struct {
	mu     sync.Mutex
	ch     chan core.Event
	closed bool
	now    func() time.Time
}

// NewFeed creates a feed buffering up to size events.
func NewFeed(size int) *Feed {
	if size < 1 {
		size = 1
	}
	return &Feed{ch: make(chan core.Event, size), now: time.Now}
}

// Events is the receiving side, closed by Close.
func (f *Feed) Events() <-chan core.Event {
	return f.ch
}

// Publish enqueues e, evicting the oldest pending event when full.
func (f *Feed) Publish(e core.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if e.Timestamp == 0 {
		e.Timestamp = f.now().Unix()
	}
	for {
		select {
		case f.ch <- e:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

// SessionObserver adapts Publish to SessionController.OnChange.
func (f *Feed) SessionObserver() func(core.View, *core.Session) {
	return func(view core.View, session *core.Session) {
		f.Publish(core.Event{Type: core.EventSession, View: view, Session: session})
	}
}

// NoteListObserver adapts Publish to NoteList.OnChange.
func (f *Feed) NoteListObserver() func(core.NoteListState) {
	return func(state core.NoteListState) {
		f.Publish(core.Event{Type: core.EventNotes, View: core.ViewNotes, Notes: &state})
	}
}

// Close stops publishing and closes Events. Pending events stay readable.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.ch)
}
