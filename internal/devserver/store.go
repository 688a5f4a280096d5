package devserver

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aretw0/notekeep/pkg/core"
)

var (
	errUserExists         = errors.New("user already registered")
	errInvalidCredentials = errors.New("invalid login credentials")
)

type account struct {
	id       string
	email    string
	password []byte
	created  time.Time
}

// store is the in-memory state of the dev backend: accounts, live sessions
// and the notes table.
type store struct {
	mu       sync.RWMutex
	accounts map[string]*account // by lower-cased email
	sessions map[string]string   // session id -> user id
	refresh  map[string]string   // refresh token -> session id
	notes    map[string]core.Note
	now      func() time.Time
}

func newStore(now func() time.Time) *store {
	return &store{
		accounts: make(map[string]*account),
		sessions: make(map[string]string),
		refresh:  make(map[string]string),
		notes:    make(map[string]core.Note),
		now:      now,
	}
}

func (s *store) createAccount(email, password string) (*account, error) {
	key := strings.ToLower(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[key]; ok {
		return nil, errUserExists
	}
	a := &account{id: uuid.NewString(), email: email, password: hash, created: s.now()}
	s.accounts[key] = a
	return a, nil
}

func (s *store) authenticate(email, password string) (*account, error) {
	s.mu.RLock()
	a, ok := s.accounts[strings.ToLower(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, errInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(a.password, []byte(password)) != nil {
		return nil, errInvalidCredentials
	}
	return a, nil
}

func (s *store) accountByID(id string) (*account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.id == id {
			return a, true
		}
	}
	return nil, false
}

// openSession registers a session and returns its id and refresh token.
func (s *store) openSession(userID string) (sid, refreshToken string) {
	sid = uuid.NewString()
	refreshToken = strings.ReplaceAll(uuid.NewString(), "-", "")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sid] = userID
	s.refresh[refreshToken] = sid
	return sid, refreshToken
}

// rotate consumes a refresh token and issues its successor in the same session.
func (s *store) rotate(refreshToken string) (userID, sid, next string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sid, ok = s.refresh[refreshToken]
	if !ok {
		return "", "", "", false
	}
	delete(s.refresh, refreshToken)
	userID, ok = s.sessions[sid]
	if !ok {
		return "", "", "", false
	}
	next = strings.ReplaceAll(uuid.NewString(), "-", "")
	s.refresh[next] = sid
	return userID, sid, next, true
}

func (s *store) sessionActive(sid string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[sid]
	return ok
}

func (s *store) closeSession(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
	for token, owner := range s.refresh {
		if owner == sid {
			delete(s.refresh, token)
		}
	}
}

// listNotes returns the rows owned by userID, sorted by created_at.
func (s *store) listNotes(userID string, desc bool) []core.Note {
	s.mu.RLock()
	out := make([]core.Note, 0)
	for _, n := range s.notes {
		if n.Owner == userID {
			out = append(out, n)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *store) insertNote(in core.NoteInput) core.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := core.Note{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Content:   in.Content,
		Owner:     in.Owner,
		CreatedAt: s.now().UTC(),
	}
	s.notes[n.ID] = n
	return n
}

// updateNote patches a row owned by userID. Rows of other users are invisible.
func (s *store) updateNote(userID, id string, patch map[string]*string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.Owner != userID {
		return 0
	}
	if v := patch["title"]; v != nil {
		n.Title = *v
	}
	if v := patch["content"]; v != nil {
		n.Content = *v
	}
	s.notes[id] = n
	return 1
}

func (s *store) deleteNote(userID, id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.Owner != userID {
		return 0
	}
	delete(s.notes, id)
	return 1
}

func (s *store) stats() (accounts, sessions, notes int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), len(s.sessions), len(s.notes)
}
