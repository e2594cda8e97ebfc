// Package composer holds the message draft, its optional link to a news item
// or important date, and the call to action derived from that link.
package composer

import (
	"strings"

	"github.com/jwalitptl/admissions-api/internal/email"
	"github.com/jwalitptl/admissions-api/internal/model"
)

const (
	NewsCTALabel = "Leer más"
	DateCTALabel = "Ver fechas importantes"
)

// Draft is the message being composed. Link is nil or exactly one item.
type Draft struct {
	Subject string             `json:"subject"`
	Body    string             `json:"body"`
	Link    *model.ContentLink `json:"link,omitempty"`
}

// LinkNews replaces any current link with n. The subject takes the title only
// when it is still blank.
func (d *Draft) LinkNews(n *model.News) {
	d.link(&model.ContentLink{Kind: model.ContentNews, ID: n.ID, Title: n.Title, Slug: n.Slug})
}

// LinkDate replaces any current link with date.
func (d *Draft) LinkDate(date *model.ImportantDate) {
	d.link(&model.ContentLink{Kind: model.ContentImportantDate, ID: date.ID, Title: date.Title})
}

func (d *Draft) link(l *model.ContentLink) {
	d.Link = l
	if strings.TrimSpace(d.Subject) == "" {
		d.Subject = l.Title
	}
}

func (d *Draft) Unlink() {
	d.Link = nil
}

// Clear drops subject, body and link.
func (d *Draft) Clear() {
	*d = Draft{}
}

// CTA derives the call to action for link, or nil when nothing is linked.
func CTA(siteURL string, link *model.ContentLink) *email.CTA {
	if link == nil {
		return nil
	}
	base := strings.TrimRight(siteURL, "/")
	switch link.Kind {
	case model.ContentNews:
		return &email.CTA{URL: base + "/noticias/" + link.Slug, Label: NewsCTALabel}
	case model.ContentImportantDate:
		return &email.CTA{URL: base + "/fechas-importantes", Label: DateCTALabel}
	}
	return nil
}
