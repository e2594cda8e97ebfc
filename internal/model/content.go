package model

import (
	"time"

	"github.com/google/uuid"
)

type News struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Slug      string    `db:"slug" json:"slug"`
	Excerpt   string    `db:"excerpt" json:"excerpt"`
	Published bool      `db:"published" json:"published"`
	PostedOn  time.Time `db:"posted_on" json:"posted_on"`
}

type ImportantDate struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Title  string    `db:"title" json:"title"`
	Date   time.Time `db:"date" json:"date"`
	Active bool      `db:"active" json:"active"`
}

type ContentKind string

const (
	ContentNews          ContentKind = "news"
	ContentImportantDate ContentKind = "important_date"
)

// ContentLink ties a message to one news item or one important date.
type ContentLink struct {
	Kind  ContentKind `json:"kind"`
	ID    uuid.UUID   `json:"id"`
	Title string      `json:"title"`
	Slug  string      `json:"slug,omitempty"`
}

func (l *ContentLink) NewsID() *uuid.UUID {
	if l == nil || l.Kind != ContentNews {
		return nil
	}
	id := l.ID
	return &id
}

func (l *ContentLink) DateID() *uuid.UUID {
	if l == nil || l.Kind != ContentImportantDate {
		return nil
	}
	id := l.ID
	return &id
}
