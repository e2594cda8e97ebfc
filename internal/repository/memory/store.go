// Package memory holds in-process repository implementations used by tests
// and local runs without Postgres.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository"
)

// Store backs every repository interface with maps. Set Err to make each
// call fail with it.
type Store struct {
	mu sync.Mutex

	Students       map[uuid.UUID]*model.Student
	Applicants     map[uuid.UUID]*model.Applicant
	Documents      map[uuid.UUID]*model.ApplicationDocument
	Required       map[uuid.UUID]*model.RequiredDocument
	News           map[uuid.UUID]*model.News
	Dates          map[uuid.UUID]*model.ImportantDate
	Sends          []*model.MessageSend
	Communications []*model.Communication
	Events         []*model.OutboxEvent
	Admins         map[string]*model.AdminUser
	Sequences      map[int]int

	Err error
	// SendErr, when set, fails only MessageSendRepository.Create.
	SendErr error
	// DocumentErr, when set, fails application inserts that carry documents.
	DocumentErr error
	// Calls counts repository calls by method name.
	Calls map[string]int
}

func NewStore() *Store {
	return &Store{
		Students:   make(map[uuid.UUID]*model.Student),
		Applicants: make(map[uuid.UUID]*model.Applicant),
		Documents:  make(map[uuid.UUID]*model.ApplicationDocument),
		Required:   make(map[uuid.UUID]*model.RequiredDocument),
		News:       make(map[uuid.UUID]*model.News),
		Dates:      make(map[uuid.UUID]*model.ImportantDate),
		Sequences:  make(map[int]int),
		Admins:     make(map[string]*model.AdminUser),
		Calls:      make(map[string]int),
	}
}

func (s *Store) enter(name string) (func(), error) {
	s.mu.Lock()
	s.Calls[name]++
	if s.Err != nil {
		s.mu.Unlock()
		return func() {}, s.Err
	}
	return s.mu.Unlock, nil
}

// CallCount reports how often a repository method ran.
func (s *Store) CallCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls[name]
}

func (s *Store) StudentRepository() repository.StudentRepository     { return studentRepo{s} }
func (s *Store) ApplicantRepository() repository.ApplicantRepository { return applicantRepo{s} }
func (s *Store) DocumentRepository() repository.DocumentRepository   { return documentRepo{s} }
func (s *Store) MessageSendRepository() repository.MessageSendRepository {
	return sendRepo{s}
}
func (s *Store) ContentRepository() repository.ContentRepository { return contentRepo{s} }
func (s *Store) CommunicationRepository() repository.CommunicationRepository {
	return communicationRepo{s}
}
func (s *Store) MatriculaSequence() repository.MatriculaSequence { return sequenceRepo{s} }

// queue appends an outbox event; callers hold s.mu.
func (s *Store) queue(eventType string, payload interface{}) {
	event, err := model.NewOutboxEvent(eventType, payload)
	if err != nil {
		return
	}
	event.ID = uuid.New()
	event.Status = model.OutboxStatusPending
	event.CreatedAt = time.Now()
	s.Events = append(s.Events, event)
}

// EventTypes lists queued outbox event types in order.
func (s *Store) EventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.Events))
	for _, e := range s.Events {
		out = append(out, e.EventType)
	}
	return out
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func sortByName[T any](items []T, name func(T) string, id func(T) uuid.UUID) {
	sort.SliceStable(items, func(i, j int) bool {
		ni, nj := name(items[i]), name(items[j])
		if ni != nj {
			return ni < nj
		}
		return id(items[i]).String() < id(items[j]).String()
	})
}

func sortNewest[T any](items []T, created func(T) time.Time, id func(T) uuid.UUID) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(items[i]).String() < id(items[j]).String()
	})
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

type studentRepo struct{ s *Store }

func studentMatches(st *model.Student, f model.StudentFilter) bool {
	if f.ProgramID != "" && st.ProgramID != f.ProgramID {
		return false
	}
	if f.Term != nil && st.Term != *f.Term {
		return false
	}
	if f.Status != "" && st.Status != f.Status {
		return false
	}
	return true
}

func (r studentRepo) Count(ctx context.Context, f model.StudentFilter) (int, error) {
	list, err := r.List(ctx, f)
	return len(list), err
}

func (r studentRepo) List(ctx context.Context, f model.StudentFilter) ([]*model.Student, error) {
	done, err := r.s.enter("students.List")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []*model.Student
	for _, st := range r.s.Students {
		if studentMatches(st, f) {
			cp := *st
			out = append(out, &cp)
		}
	}
	sortByName(out, func(s *model.Student) string { return s.Name }, func(s *model.Student) uuid.UUID { return s.ID })
	return out, nil
}

func (r studentRepo) Search(ctx context.Context, q string, limit int) ([]*model.Student, error) {
	done, err := r.s.enter("students.Search")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []*model.Student
	for _, st := range r.s.Students {
		if contains(st.Name, q) || contains(st.Matricula, q) || contains(st.Email, q) {
			cp := *st
			out = append(out, &cp)
		}
	}
	sortByName(out, func(s *model.Student) string { return s.Name }, func(s *model.Student) uuid.UUID { return s.ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r studentRepo) Browse(ctx context.Context, f model.StudentFilter, q string) ([]*model.Student, error) {
	done, err := r.s.enter("students.Browse")
	defer done()
	if err != nil {
		return nil, err
	}
	q = strings.TrimSpace(q)
	var out []*model.Student
	for _, st := range r.s.Students {
		if !studentMatches(st, f) {
			continue
		}
		curp := ""
		if st.CURP != nil {
			curp = *st.CURP
		}
		if q != "" && !contains(st.Name, q) && !contains(st.Matricula, q) && !contains(curp, q) && !contains(st.Email, q) {
			continue
		}
		cp := *st
		out = append(out, &cp)
	}
	sortNewest(out, func(s *model.Student) time.Time { return s.CreatedAt }, func(s *model.Student) uuid.UUID { return s.ID })
	return out, nil
}

func (r studentRepo) ContactsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Contact, error) {
	done, err := r.s.enter("students.ContactsByIDs")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []model.Contact
	for id := range idSet(ids) {
		if st, ok := r.s.Students[id]; ok {
			out = append(out, model.Contact{ID: st.ID, Name: st.Name, Email: st.Email, Phone: st.Phone})
		}
	}
	sortByName(out, func(c model.Contact) string { return c.Name }, func(c model.Contact) uuid.UUID { return c.ID })
	return out, nil
}

func (r studentRepo) Create(ctx context.Context, st *model.Student) error {
	done, err := r.s.enter("students.Create")
	defer done()
	if err != nil {
		return err
	}
	for _, other := range r.s.Students {
		if other.Matricula == st.Matricula {
			return repository.ErrDuplicate
		}
		if st.ApplicationID != nil && other.ApplicationID != nil && *other.ApplicationID == *st.ApplicationID {
			return repository.ErrDuplicate
		}
	}
	st.CreatedAt = time.Now()
	st.UpdatedAt = st.CreatedAt
	cp := *st
	r.s.Students[st.ID] = &cp
	r.s.queue(model.EventStudentCreated, map[string]interface{}{"student_id": st.ID})
	return nil
}

func (r studentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	done, err := r.s.enter("students.Get")
	defer done()
	if err != nil {
		return nil, err
	}
	st, ok := r.s.Students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (r studentRepo) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*model.Student, error) {
	done, err := r.s.enter("students.GetByApplicationID")
	defer done()
	if err != nil {
		return nil, err
	}
	for _, st := range r.s.Students {
		if st.ApplicationID != nil && *st.ApplicationID == applicationID {
			cp := *st
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r studentRepo) Update(ctx context.Context, st *model.Student) error {
	done, err := r.s.enter("students.Update")
	defer done()
	if err != nil {
		return err
	}
	if _, ok := r.s.Students[st.ID]; !ok {
		return repository.ErrNotFound
	}
	st.UpdatedAt = time.Now()
	cp := *st
	r.s.Students[st.ID] = &cp
	return nil
}

func (r studentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	done, err := r.s.enter("students.Delete")
	defer done()
	if err != nil {
		return err
	}
	if _, ok := r.s.Students[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.Students, id)
	return nil
}

type applicantRepo struct{ s *Store }

func applicantMatches(a *model.Applicant, f model.ApplicantFilter) bool {
	if f.ProgramID != "" && a.ProgramID != f.ProgramID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}

func (r applicantRepo) Count(ctx context.Context, f model.ApplicantFilter) (int, error) {
	list, err := r.List(ctx, f)
	return len(list), err
}

func (r applicantRepo) List(ctx context.Context, f model.ApplicantFilter) ([]*model.Applicant, error) {
	done, err := r.s.enter("applicants.List")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []*model.Applicant
	for _, a := range r.s.Applicants {
		if applicantMatches(a, f) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sortByName(out, func(a *model.Applicant) string { return a.Name }, func(a *model.Applicant) uuid.UUID { return a.ID })
	return out, nil
}

func (r applicantRepo) Search(ctx context.Context, q string, limit int) ([]*model.Applicant, error) {
	done, err := r.s.enter("applicants.Search")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []*model.Applicant
	for _, a := range r.s.Applicants {
		if contains(a.Name, q) || contains(a.CURP, q) || contains(a.Email, q) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sortByName(out, func(a *model.Applicant) string { return a.Name }, func(a *model.Applicant) uuid.UUID { return a.ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r applicantRepo) Browse(ctx context.Context, f model.ApplicantFilter, q string) ([]*model.Applicant, error) {
	done, err := r.s.enter("applicants.Browse")
	defer done()
	if err != nil {
		return nil, err
	}
	q = strings.TrimSpace(q)
	var out []*model.Applicant
	for _, a := range r.s.Applicants {
		if !applicantMatches(a, f) {
			continue
		}
		if q != "" && !contains(a.Name, q) && !contains(a.CURP, q) && !contains(a.Email, q) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sortNewest(out, func(a *model.Applicant) time.Time { return a.CreatedAt }, func(a *model.Applicant) uuid.UUID { return a.ID })
	return out, nil
}

func (r applicantRepo) ContactsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Contact, error) {
	done, err := r.s.enter("applicants.ContactsByIDs")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []model.Contact
	for id := range idSet(ids) {
		if a, ok := r.s.Applicants[id]; ok {
			out = append(out, model.Contact{ID: a.ID, Name: a.Name, Email: a.Email, Phone: a.Phone})
		}
	}
	sortByName(out, func(c model.Contact) string { return c.Name }, func(c model.Contact) uuid.UUID { return c.ID })
	return out, nil
}

func (r applicantRepo) Create(ctx context.Context, a *model.Applicant, docs []*model.ApplicationDocument) error {
	done, err := r.s.enter("applicants.Create")
	defer done()
	if err != nil {
		return err
	}
	if len(docs) > 0 && r.s.DocumentErr != nil {
		return r.s.DocumentErr
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	r.s.Applicants[a.ID] = &cp
	for _, doc := range docs {
		if doc.ID == uuid.Nil {
			doc.ID = uuid.New()
		}
		doc.ApplicationID = a.ID
		doc.UpdatedAt = a.CreatedAt
		dc := *doc
		r.s.Documents[doc.ID] = &dc
	}
	return nil
}

func (r applicantRepo) Get(ctx context.Context, id uuid.UUID) (*model.Applicant, error) {
	done, err := r.s.enter("applicants.Get")
	defer done()
	if err != nil {
		return nil, err
	}
	a, ok := r.s.Applicants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r applicantRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ApplicantStatus) error {
	done, err := r.s.enter("applicants.UpdateStatus")
	defer done()
	if err != nil {
		return err
	}
	a, ok := r.s.Applicants[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	if status == model.ApplicantStatusAccepted {
		r.s.queue(model.EventApplicantAccepted, map[string]interface{}{"application_id": id})
	}
	return nil
}

func (r applicantRepo) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	done, err := r.s.enter("applicants.UpdateNotes")
	defer done()
	if err != nil {
		return err
	}
	a, ok := r.s.Applicants[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.InternalNotes = &notes
	return nil
}

func (r applicantRepo) LinkStudent(ctx context.Context, id uuid.UUID, studentID uuid.UUID) error {
	done, err := r.s.enter("applicants.LinkStudent")
	defer done()
	if err != nil {
		return err
	}
	if a, ok := r.s.Applicants[id]; ok {
		sid := studentID
		a.StudentID = &sid
	}
	return nil
}

func (r applicantRepo) UnlinkStudent(ctx context.Context, studentID uuid.UUID) error {
	done, err := r.s.enter("applicants.UnlinkStudent")
	defer done()
	if err != nil {
		return err
	}
	for _, a := range r.s.Applicants {
		if a.StudentID != nil && *a.StudentID == studentID {
			a.StudentID = nil
		}
	}
	return nil
}
