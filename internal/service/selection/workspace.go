package selection

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/service/composer"
)

// Workspace is one admin session's selection and draft.
type Workspace struct {
	mu        sync.Mutex
	Selection *Selection
	Draft     composer.Draft
}

func NewWorkspace() *Workspace {
	return &Workspace{Selection: New(model.AudienceStudents)}
}

// Lock serializes handlers touching the same workspace.
func (w *Workspace) Lock()   { w.mu.Lock() }
func (w *Workspace) Unlock() { w.mu.Unlock() }

// SetAudience switches audience, dropping the selection and any linked
// news or date.
func (w *Workspace) SetAudience(a model.Audience) {
	w.Selection.Reset(a, nil)
	w.Draft.Unlink()
}

// SetFilter drops the selection; the audience and draft stay.
func (w *Workspace) SetFilter(f model.AudienceFilter) {
	w.Selection.Reset(w.Selection.Audience(), f)
}

// Snapshot is the JSON view of a workspace.
type Snapshot struct {
	Audience      model.Audience    `json:"audience"`
	Filters       model.JSONMap     `json:"filters"`
	Recipients    []model.Recipient `json:"recipients"`
	SelectedIDs   []uuid.UUID       `json:"selected_ids"`
	SelectedCount int               `json:"selected_count"`
	Draft         composer.Draft    `json:"draft"`
}

func (w *Workspace) Snapshot() Snapshot {
	filters := model.JSONMap{}
	if f := w.Selection.Filter(); f != nil {
		filters = f.Snapshot()
	}
	return Snapshot{
		Audience:      w.Selection.Audience(),
		Filters:       filters,
		Recipients:    w.Selection.Recipients(),
		SelectedIDs:   w.Selection.SelectedIDs(),
		SelectedCount: w.Selection.SelectedCount(),
		Draft:         w.Draft,
	}
}

// Store keeps one workspace per session, expiring idle ones.
type Store struct {
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Get returns the session's workspace, creating it on first use. Each access
// extends its lifetime.
func (s *Store) Get(sessionID string) *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.cache.Get(sessionID); ok {
		w := v.(*Workspace)
		s.cache.Set(sessionID, w, s.ttl)
		return w
	}
	w := NewWorkspace()
	s.cache.Set(sessionID, w, s.ttl)
	return w
}

// Discard forgets the session's workspace.
func (s *Store) Discard(sessionID string) {
	s.cache.Delete(sessionID)
}
