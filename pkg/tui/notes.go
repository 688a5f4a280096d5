package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/notekeep/pkg/core"
)

const (
	focusTitle = iota
	focusContent
	focusList
)

// opDoneMsg reports a finished view-model call. Failures are already
// surfaced as notices in the state, so only the error is carried.
type opDoneMsg struct{ err error }

// notesScreen renders a NoteList. The inputs are local until a save, when
// they are bound into the draft; a draft changed by the view model (edit,
// cancel, successful save) is copied back into them.
type notesScreen struct {
	vm    *core.NoteList
	sub   core.Subscription
	state core.NoteListState
	email string

	title     textinput.Model
	content   textarea.Model
	focus     int
	cursor    int
	lastDraft core.Draft
	confirm   *core.Note
}

func newNotesScreen(vm *core.NoteList, email string) *notesScreen {
	title := textinput.New()
	title.Placeholder = "Note title"
	title.CharLimit = 200
	title.Focus()

	content := textarea.New()
	content.Placeholder = "Note content"
	content.ShowLineNumbers = false
	content.SetHeight(4)

	n := &notesScreen{vm: vm, email: email, title: title, content: content}
	if vm != nil {
		n.state = vm.Snapshot()
	}
	return n
}

// sync takes a new snapshot from the view model.
func (n *notesScreen) sync(state core.NoteListState) {
	n.state = state
	if state.Draft != n.lastDraft {
		n.lastDraft = state.Draft
		n.title.SetValue(state.Draft.Title)
		n.content.SetValue(state.Draft.Content)
	}
	if n.cursor >= len(state.Notes) {
		n.cursor = max(len(state.Notes)-1, 0)
	}
	if n.confirm != nil && !containsNote(state.Notes, n.confirm.ID) {
		n.confirm = nil
	}
}

func containsNote(notes []core.Note, id string) bool {
	for _, note := range notes {
		if note.ID == id {
			return true
		}
	}
	return false
}

func (n *notesScreen) close() {
	if n.sub != nil {
		n.sub.Unsubscribe()
	}
	if n.vm != nil {
		n.vm.Close()
	}
}

func (n *notesScreen) setFocus(i int) tea.Cmd {
	n.focus = i
	n.title.Blur()
	n.content.Blur()
	switch i {
	case focusTitle:
		return n.title.Focus()
	case focusContent:
		return n.content.Focus()
	}
	return nil
}

func (n *notesScreen) run(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: fn()}
	}
}

func (n *notesScreen) save(ctx context.Context) tea.Cmd {
	vm := n.vm
	title, content := n.title.Value(), n.content.Value()
	return n.run(func() error {
		if err := vm.SetDraft(title, content); err != nil {
			return err
		}
		return vm.SaveDraft(ctx)
	})
}

func (n *notesScreen) selected() (core.Note, bool) {
	if n.cursor < 0 || n.cursor >= len(n.state.Notes) {
		return core.Note{}, false
	}
	return n.state.Notes[n.cursor], true
}

func (n *notesScreen) update(ctx context.Context, msg tea.Msg) tea.Cmd {
	key, isKey := msg.(tea.KeyMsg)
	if !isKey {
		return n.updateInputs(msg)
	}

	vm := n.vm
	if n.state.Notice != nil {
		switch key.String() {
		case "enter", "esc":
			return n.run(vm.DismissNotice)
		}
		return nil
	}

	if n.confirm != nil {
		note := *n.confirm
		n.confirm = nil
		if key.String() == "y" {
			return n.run(func() error { return vm.DeleteNote(ctx, note.ID) })
		}
		return nil
	}

	switch key.String() {
	case "ctrl+r":
		return n.run(func() error { return vm.Refresh(ctx) })
	case "ctrl+o":
		return n.run(func() error { return vm.SignOut(ctx) })
	}

	if n.state.Screen() != core.ScreenList {
		return nil
	}

	switch key.String() {
	case "tab":
		return n.setFocus((n.focus + 1) % 3)
	case "shift+tab":
		return n.setFocus((n.focus + 2) % 3)
	case "ctrl+s":
		if n.state.Busy {
			return nil
		}
		return n.save(ctx)
	case "esc":
		if n.state.Draft.Editing() {
			return n.run(vm.CancelEdit)
		}
		return nil
	}

	if n.focus == focusList {
		switch key.String() {
		case "up", "k":
			if n.cursor > 0 {
				n.cursor--
			}
		case "down", "j":
			if n.cursor < len(n.state.Notes)-1 {
				n.cursor++
			}
		case "enter", "e":
			if note, ok := n.selected(); ok {
				cmd := n.setFocus(focusTitle)
				return tea.Batch(cmd, n.run(func() error { return vm.BeginEdit(note) }))
			}
		case "d", "delete":
			if note, ok := n.selected(); ok && !n.state.Busy {
				n.confirm = &note
			}
		}
		return nil
	}

	if n.focus == focusTitle && key.String() == "enter" {
		return n.setFocus(focusContent)
	}
	return n.updateInputs(msg)
}

func (n *notesScreen) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch n.focus {
	case focusTitle:
		n.title, cmd = n.title.Update(msg)
	case focusContent:
		n.content, cmd = n.content.Update(msg)
	}
	return cmd
}

func (n *notesScreen) setWidth(width int) {
	w := max(width-6, 20)
	n.title.Width = w
	n.content.SetWidth(w)
}

func (n *notesScreen) view(spin string) string {
	switch n.state.Screen() {
	case core.ScreenOffline:
		return renderOffline()
	case core.ScreenLoading:
		if !n.state.Refreshing {
			return spin + " Loading notes..."
		}
	}
	if n.state.Notice != nil {
		return renderNotice(n.state.Notice)
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Render("My Notes"), "  ", labelStyle.Render(n.email))
	if n.state.Refreshing {
		header += "  " + spin
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		n.editorView(spin),
		"",
		renderNoteItems(n.state.Notes, n.cursor, n.focus == focusList),
		n.confirmView(),
		helpStyle.Render("tab: next • ctrl+s: save • enter/e: edit • d: delete • esc: cancel edit • ctrl+r: refresh • ctrl+o: sign out"),
	)
}

func (n *notesScreen) editorView(spin string) string {
	label := n.state.SaveLabel()
	btn := buttonStyle.Render(label)
	if n.state.Busy {
		btn = disabledBtn.Render(label) + " " + spin
	}
	if n.state.Draft.Editing() {
		btn += "  " + labelStyle.Render("esc: Cancel")
	}
	return lipgloss.JoinVertical(lipgloss.Left, n.title.View(), n.content.View(), btn)
}

func (n *notesScreen) confirmView() string {
	if n.confirm == nil {
		return ""
	}
	return lipgloss.NewStyle().Foreground(danger).Render(
		fmt.Sprintf("Delete %q? (y/N)", n.confirm.DisplayTitle()))
}

func renderOffline() string {
	return offlineStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.NewStyle().Bold(true).Foreground(danger).Render("No Internet Connection"),
		"Please check your network and try again.",
	))
}

// renderNoteItems draws the list newest first, as delivered by the view model.
func renderNoteItems(notes []core.Note, cursor int, focused bool) string {
	if len(notes) == 0 {
		return labelStyle.Render("No notes yet. Create your first note above!")
	}
	items := make([]string, 0, len(notes))
	for i, note := range notes {
		body := []string{titleStyle.Render(note.DisplayTitle())}
		if note.Content != "" {
			body = append(body, contentStyle.Render(note.Content))
		}
		if !note.CreatedAt.IsZero() {
			body = append(body, dateStyle.Render(note.CreatedAt.Local().Format("Jan 2, 2006 15:04")))
		}
		style := itemStyle
		marker := "  "
		if i == cursor && focused {
			style = selectedItem
			marker = cursorStyle.Render("> ")
		}
		items = append(items, lipgloss.JoinHorizontal(lipgloss.Top, marker, style.Render(strings.Join(body, "\n"))))
	}
	return strings.Join(items, "\n")
}
