package core

// Draft is the in-progress title/content pair of the note editor.
// An empty EditingNoteID means the next save inserts.
type Draft struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	EditingNoteID string `json:"editing_note_id,omitempty"`
}

// Editing reports whether the next save updates an existing note.
func (d Draft) Editing() bool {
	return d.EditingNoteID != ""
}

// Screen is what the note list view renders.
type Screen string

const (
	ScreenOffline Screen = "offline"
	ScreenLoading Screen = "loading"
	ScreenList    Screen = "list"
)

// NoteListState is an immutable snapshot of a NoteList.
type NoteListState struct {
	Notes      []Note  `json:"notes"`
	Draft      Draft   `json:"draft"`
	Connected  bool    `json:"connected"`
	Loading    bool    `json:"loading"`
	Refreshing bool    `json:"refreshing"`
	Busy       bool    `json:"busy"`
	Notice     *Notice `json:"notice,omitempty"`
}

// Screen derives the rendered screen. Disconnection gates off list and editor.
func (s NoteListState) Screen() Screen {
	switch {
	case !s.Connected:
		return ScreenOffline
	case s.Loading:
		return ScreenLoading
	default:
		return ScreenList
	}
}

// SaveLabel is the caption of the save control.
func (s NoteListState) SaveLabel() string {
	if s.Draft.Editing() {
		return "Update Note"
	}
	return "Add Note"
}

func (s NoteListState) clone() NoteListState {
	out := s
	out.Notes = make([]Note, len(s.Notes))
	copy(out.Notes, s.Notes)
	if s.Notice != nil {
		n := *s.Notice
		out.Notice = &n
	}
	return out
}
