package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	lcadapter "github.com/aretw0/notekeep/pkg/adapters/lifecycle"
)

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, deps Deps, opts ...tea.ProgramOption) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	feed := lcadapter.NewFeed(64)
	defer feed.Close()
	sub := deps.Session.OnChange(feed.SessionObserver())
	defer sub.Unsubscribe()

	source := lcadapter.NewSource(feed.Events())
	if err := source.Start(runCtx); err != nil {
		return err
	}

	model := New(runCtx, deps, feed, source.Events())
	opts = append([]tea.ProgramOption{tea.WithContext(runCtx), tea.WithAltScreen()}, opts...)
	final, err := tea.NewProgram(model, opts...).Run()
	if m, ok := final.(*Model); ok {
		m.closeNotes()
		if err == nil {
			err = m.Err()
		}
	}
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
