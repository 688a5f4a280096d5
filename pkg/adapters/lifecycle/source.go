package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/notekeep/pkg/core"
)

// Source adapts a feed to lifecycle.Source. Every event carries a full
// snapshot, so while the consumer lags only the latest pending event of each
// type is kept; it takes the queue position of the first one it replaced.
type Source struct {
	events <-chan core.Event
	out    chan lifecycle.Event
	accept map[core.EventType]bool
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithEventTypes forwards only events of the given types.
func WithEventTypes(types ...core.EventType) SourceOption {
	return func(s *Source) {
		s.accept = make(map[core.EventType]bool, len(types))
		for _, t := range types {
			s.accept[t] = true
		}
	}
}

// NewSource creates a source reading events until it closes.
// core.Event satisfies lifecycle.Event through its String method.
func NewSource(events <-chan core.Event, opts ...SourceOption) *Source {
	s := &Source{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ lifecycle.Source = (*Source)(nil)

func (s *Source) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events until ctx is done, or until the input closes and
// every pending event was delivered. The output channel is then closed.
func (s *Source) Start(ctx context.Context) error {
	lifecycle.Go(ctx, s.run)
	return nil
}

func (s *Source) run(ctx context.Context) error {
	defer close(s.out)

	in := s.events
	var pending []core.Event
	for {
		if in == nil && len(pending) == 0 {
			return nil
		}

		var (
			out  chan lifecycle.Event
			next lifecycle.Event
		)
		if len(pending) > 0 {
			out, next = s.out, pending[0]
		}

		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			if s.accept != nil && !s.accept[e.Type] {
				continue
			}
			pending = coalesce(pending, e)
		case out <- next:
			pending = pending[1:]
		}
	}
}

// coalesce replaces the pending event of e's type, or queues e.
func coalesce(pending []core.Event, e core.Event) []core.Event {
	for i := range pending {
		if pending[i].Type == e.Type {
			pending[i] = e
			return pending
		}
	}
	return append(pending, e)
}
