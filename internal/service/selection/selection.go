// Package selection keeps the admin's working recipient set and draft
// between requests.
package selection

import (
	"github.com/google/uuid"

	"github.com/jwalitptl/admissions-api/internal/model"
)

// Selection is an ordered recipient list plus the subset chosen for sending.
// Every selected id is always present in the list.
type Selection struct {
	audience   model.Audience
	filter     model.AudienceFilter
	recipients []model.Recipient
	index      map[uuid.UUID]int
	selected   map[uuid.UUID]bool
}

func New(audience model.Audience) *Selection {
	s := &Selection{}
	s.Reset(audience, nil)
	return s
}

// Reset empties the list and selection for a new audience or filter.
func (s *Selection) Reset(audience model.Audience, filter model.AudienceFilter) {
	s.audience = audience
	s.filter = filter
	s.recipients = nil
	s.index = make(map[uuid.UUID]int)
	s.selected = make(map[uuid.UUID]bool)
}

func (s *Selection) Audience() model.Audience     { return s.audience }
func (s *Selection) Filter() model.AudienceFilter { return s.filter }
func (s *Selection) Recipients() []model.Recipient {
	return append([]model.Recipient(nil), s.recipients...)
}
func (s *Selection) Len() int                     { return len(s.recipients) }
func (s *Selection) SelectedCount() int           { return len(s.selected) }
func (s *Selection) IsSelected(id uuid.UUID) bool { return s.selected[id] }

// Load replaces the list with recipients and selects all of them.
func (s *Selection) Load(recipients []model.Recipient) {
	s.recipients = nil
	s.index = make(map[uuid.UUID]int, len(recipients))
	s.selected = make(map[uuid.UUID]bool, len(recipients))
	for _, r := range recipients {
		s.Add(r)
	}
}

// Add appends r and selects it. Adding a listed id changes nothing.
func (s *Selection) Add(r model.Recipient) bool {
	if _, ok := s.index[r.ID]; ok {
		return false
	}
	s.index[r.ID] = len(s.recipients)
	s.recipients = append(s.recipients, r)
	s.selected[r.ID] = true
	return true
}

// Toggle flips the selection of a listed id and reports whether it was listed.
func (s *Selection) Toggle(id uuid.UUID) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	if s.selected[id] {
		delete(s.selected, id)
	} else {
		s.selected[id] = true
	}
	return true
}

func (s *Selection) SelectAll() {
	for _, r := range s.recipients {
		s.selected[r.ID] = true
	}
}

func (s *Selection) DeselectAll() {
	s.selected = make(map[uuid.UUID]bool)
}

// SelectedIDs returns the selected ids in list order.
func (s *Selection) SelectedIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s.selected))
	for _, r := range s.recipients {
		if s.selected[r.ID] {
			out = append(out, r.ID)
		}
	}
	return out
}

// IDs returns every listed id, used to exclude them from search results.
func (s *Selection) IDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s.recipients))
	for _, r := range s.recipients {
		out = append(out, r.ID)
	}
	return out
}
