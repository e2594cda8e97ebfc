package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository"
)

type documentRepo struct{ s *Store }

func (r documentRepo) ApplicantIDsWithPending(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	done, err := r.s.enter("documents.ApplicantIDsWithPending")
	defer done()
	if err != nil {
		return nil, err
	}
	want := idSet(ids)
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, d := range r.s.Documents {
		if d.State == model.DocumentPending && want[d.ApplicationID] && !seen[d.ApplicationID] {
			seen[d.ApplicationID] = true
			out = append(out, d.ApplicationID)
		}
	}
	return out, nil
}

func (r documentRepo) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*model.ApplicationDocument, error) {
	done, err := r.s.enter("documents.ListByApplication")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []*model.ApplicationDocument
	for _, d := range r.s.Documents {
		if d.ApplicationID != applicationID {
			continue
		}
		cp := *d
		if req, ok := r.s.Required[d.DocumentID]; ok {
			cp.DocumentName = req.Name
		}
		out = append(out, &cp)
	}
	sortByName(out, func(d *model.ApplicationDocument) string { return d.DocumentName }, func(d *model.ApplicationDocument) uuid.UUID { return d.ID })
	return out, nil
}

func (r documentRepo) UpdateState(ctx context.Context, id uuid.UUID, state model.DocumentState, notes *string) error {
	done, err := r.s.enter("documents.UpdateState")
	defer done()
	if err != nil {
		return err
	}
	d, ok := r.s.Documents[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.State = state
	if notes != nil {
		d.Notes = notes
	}
	return nil
}

func (r documentRepo) RequiredNames(ctx context.Context, ids []uuid.UUID) ([]string, error) {
	done, err := r.s.enter("documents.RequiredNames")
	defer done()
	if err != nil {
		return nil, err
	}
	var names []string
	for id := range idSet(ids) {
		if d, ok := r.s.Required[id]; ok {
			names = append(names, d.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

type sendRepo struct{ s *Store }

func (r sendRepo) Create(ctx context.Context, send *model.MessageSend) error {
	done, err := r.s.enter("sends.Create")
	defer done()
	if err != nil {
		return err
	}
	if r.s.SendErr != nil {
		return r.s.SendErr
	}
	// A cancelled context fails the insert the way the database driver does.
	if err := ctx.Err(); err != nil {
		return err
	}
	if send.ID == uuid.Nil {
		send.ID = uuid.New()
	}
	if send.CreatedAt.IsZero() {
		send.CreatedAt = time.Now()
	}
	cp := *send
	r.s.Sends = append(r.s.Sends, &cp)
	r.s.queue(model.EventMessageSendRecorded, map[string]interface{}{"send_id": send.ID})
	return nil
}

func (r sendRepo) ListByAudience(ctx context.Context, audience model.Audience, limit int) ([]*model.MessageSend, error) {
	done, err := r.s.enter("sends.ListByAudience")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []*model.MessageSend
	for i := len(r.s.Sends) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.Sends[i].Audience == audience {
			cp := *r.s.Sends[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r sendRepo) ListByNews(ctx context.Context, newsID uuid.UUID) ([]*model.MessageSend, error) {
	done, err := r.s.enter("sends.ListByNews")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []*model.MessageSend
	for i := len(r.s.Sends) - 1; i >= 0; i-- {
		if id := r.s.Sends[i].NewsID; id != nil && *id == newsID {
			cp := *r.s.Sends[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r sendRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	done, err := r.s.enter("sends.DeleteBefore")
	defer done()
	if err != nil {
		return 0, err
	}
	kept := r.s.Sends[:0]
	var n int64
	for _, send := range r.s.Sends {
		if send.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, send)
	}
	r.s.Sends = kept
	return n, nil
}

type contentRepo struct{ s *Store }

func (r contentRepo) GetNews(ctx context.Context, id uuid.UUID) (*model.News, error) {
	done, err := r.s.enter("content.GetNews")
	defer done()
	if err != nil {
		return nil, err
	}
	n, ok := r.s.News[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (r contentRepo) GetImportantDate(ctx context.Context, id uuid.UUID) (*model.ImportantDate, error) {
	done, err := r.s.enter("content.GetImportantDate")
	defer done()
	if err != nil {
		return nil, err
	}
	d, ok := r.s.Dates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

type communicationRepo struct{ s *Store }

func (r communicationRepo) Create(ctx context.Context, c *model.Communication) error {
	done, err := r.s.enter("communications.Create")
	defer done()
	if err != nil {
		return err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	cp := *c
	r.s.Communications = append(r.s.Communications, &cp)
	return nil
}

func (r communicationRepo) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*model.Communication, error) {
	done, err := r.s.enter("communications.ListByApplication")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []*model.Communication
	for i := len(r.s.Communications) - 1; i >= 0; i-- {
		if c := r.s.Communications[i]; c.ApplicationID == applicationID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

type sequenceRepo struct{ s *Store }

func (r sequenceRepo) NextValue(ctx context.Context, year int) (int, error) {
	done, err := r.s.enter("sequence.NextValue")
	defer done()
	if err != nil {
		return 0, err
	}
	r.s.Sequences[year]++
	return r.s.Sequences[year], nil
}

type adminRepo struct{ s *Store }

func (s *Store) AdminRepository() repository.AdminRepository { return adminRepo{s} }

func (r adminRepo) GetByEmail(ctx context.Context, email string) (*model.AdminUser, error) {
	done, err := r.s.enter("admins.GetByEmail")
	defer done()
	if err != nil {
		return nil, err
	}
	u, ok := r.s.Admins[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r adminRepo) Create(ctx context.Context, u *model.AdminUser) error {
	done, err := r.s.enter("admins.Create")
	defer done()
	if err != nil {
		return err
	}
	key := strings.ToLower(strings.TrimSpace(u.Email))
	if _, ok := r.s.Admins[key]; ok {
		return repository.ErrDuplicate
	}
	cp := *u
	r.s.Admins[key] = &cp
	return nil
}
