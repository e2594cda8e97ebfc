// Package admission handles enrollment submissions and the review workflow
// of an application.
package admission

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/admissions-api/internal/email"
	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository"
	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
	"github.com/jwalitptl/admissions-api/pkg/logger"
	pkgvalidator "github.com/jwalitptl/admissions-api/pkg/validator"
)

// StudentCreator enrolls an accepted applicant.
type StudentCreator interface {
	CreateFromApplicant(ctx context.Context, a *model.Applicant) (*model.Student, error)
}

type Service struct {
	applicants     repository.ApplicantRepository
	documents      repository.DocumentRepository
	communications repository.CommunicationRepository
	students       StudentCreator
	sender         email.BatchSender
	validate       *validator.Validate
	logger         *logger.Logger
}

func NewService(
	applicants repository.ApplicantRepository,
	documents repository.DocumentRepository,
	communications repository.CommunicationRepository,
	students StudentCreator,
	sender email.BatchSender,
	logger *logger.Logger,
) *Service {
	return &Service{
		applicants:     applicants,
		documents:      documents,
		communications: communications,
		students:       students,
		sender:         sender,
		validate:       pkgvalidator.New(),
		logger:         logger,
	}
}

// Submit stores a new application together with its documents and
// acknowledges it by email. A failed acknowledgement does not undo the
// submission.
func (s *Service) Submit(ctx context.Context, req *model.EnrollmentRequest) (*model.Applicant, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.NewBadRequest("invalid enrollment data", err)
	}

	a := &model.Applicant{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		CURP:         strings.ToUpper(strings.TrimSpace(req.CURP)),
		HighSchool:   strings.TrimSpace(req.HighSchool),
		Address:      strings.TrimSpace(req.Address),
		ProgramID:    req.ProgramID,
		Status:       model.ApplicantStatusNew,
		HeardAboutUs: req.HeardAboutUs,
	}
	a.ID = uuid.New()

	docs := make([]*model.ApplicationDocument, 0, len(req.Documents))
	var pending []uuid.UUID
	for _, d := range req.Documents {
		doc := &model.ApplicationDocument{
			ID:         uuid.New(),
			DocumentID: d.DocumentID,
			State:      model.DocumentPending,
		}
		if ref := strings.TrimSpace(d.FileRef); ref != "" {
			doc.State = model.DocumentUploaded
			doc.FileRef = &ref
		} else {
			pending = append(pending, d.DocumentID)
		}
		docs = append(docs, doc)
	}
	if err := s.applicants.Create(ctx, a, docs); err != nil {
		return nil, apperrors.NewStore("failed to create application", err)
	}

	s.sendConfirmation(ctx, a, pending)
	return a, nil
}

func (s *Service) sendConfirmation(ctx context.Context, a *model.Applicant, pending []uuid.UUID) {
	var names []string
	if len(pending) > 0 {
		var err error
		names, err = s.documents.RequiredNames(ctx, pending)
		if err != nil {
			s.logger.Error(err, "failed to load pending document names", "application_id", a.ID.String())
		}
	}

	html, err := email.RenderConfirmation(a.Name, names)
	if err != nil {
		s.logger.Error(err, "failed to render confirmation email", "application_id", a.ID.String())
		return
	}
	msg := email.Message{To: []string{a.Email}, Subject: email.ConfirmationSubject, HTML: html}
	if err := email.Send(ctx, s.sender, msg); err != nil {
		s.logger.Error(err, "failed to send confirmation email", "application_id", a.ID.String())
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Applicant, error) {
	a, err := s.applicants.Get(ctx, id)
	if err != nil {
		return nil, notFoundOrStore("application", err)
	}
	return a, nil
}

// ListQuery narrows the review table.
type ListQuery struct {
	Filter model.ApplicantFilter
	Search string
}

// List returns applications newest first. MissingDocuments keeps only those
// with at least one pending document.
func (s *Service) List(ctx context.Context, q ListQuery) ([]*model.Applicant, error) {
	if q.Filter.Status != "" && !q.Filter.Status.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid application status %q", q.Filter.Status), nil)
	}
	list, err := s.applicants.Browse(ctx, q.Filter, q.Search)
	if err != nil {
		return nil, apperrors.NewStore("failed to list applications", err)
	}
	if !q.Filter.MissingDocuments || len(list) == 0 {
		return list, nil
	}

	ids := make([]uuid.UUID, len(list))
	for i, a := range list {
		ids[i] = a.ID
	}
	withPending, err := s.documents.ApplicantIDsWithPending(ctx, ids)
	if err != nil {
		return nil, apperrors.NewStore("failed to check pending documents", err)
	}
	keep := make(map[uuid.UUID]bool, len(withPending))
	for _, id := range withPending {
		keep[id] = true
	}
	out := list[:0]
	for _, a := range list {
		if keep[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

// Documents lists the application's documents with their catalog names.
func (s *Service) Documents(ctx context.Context, id uuid.UUID) ([]*model.ApplicationDocument, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByApplication(ctx, id)
	if err != nil {
		return nil, apperrors.NewStore("failed to list application documents", err)
	}
	return docs, nil
}

// Communications returns the emails sent to one applicant, newest first.
func (s *Service) Communications(ctx context.Context, id uuid.UUID) ([]*model.Communication, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	list, err := s.communications.ListByApplication(ctx, id)
	if err != nil {
		return nil, apperrors.NewStore("failed to list communications", err)
	}
	return list, nil
}

// UpdateStatus moves the application to status. Accepting an application
// also enrolls the applicant; an enrollment failure is logged only.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ApplicantStatus) (*model.Applicant, error) {
	if !status.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid application status %q", status), nil)
	}
	if err := s.applicants.UpdateStatus(ctx, id, status); err != nil {
		return nil, notFoundOrStore("application", err)
	}
	a, err := s.applicants.Get(ctx, id)
	if err != nil {
		return nil, notFoundOrStore("application", err)
	}

	if status == model.ApplicantStatusAccepted {
		st, err := s.students.CreateFromApplicant(ctx, a)
		if err != nil {
			s.logger.Error(err, "failed to enroll accepted applicant", "application_id", id.String())
		} else {
			a.StudentID = &st.ID
		}
	}
	return a, nil
}

func (s *Service) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	if err := s.applicants.UpdateNotes(ctx, id, notes); err != nil {
		return notFoundOrStore("application", err)
	}
	return nil
}

func (s *Service) UpdateDocumentState(ctx context.Context, docID uuid.UUID, req *model.UpdateDocumentStateRequest) error {
	if !req.State.Valid() {
		return apperrors.NewBadRequest(fmt.Sprintf("invalid document state %q", req.State), nil)
	}
	if err := s.documents.UpdateState(ctx, docID, req.State, req.Notes); err != nil {
		return notFoundOrStore("document", err)
	}
	return nil
}

// SendEmail writes to a single applicant and logs the communication.
func (s *Service) SendEmail(ctx context.Context, actor model.Identity, id uuid.UUID, req *model.ApplicantEmailRequest) (*model.Communication, error) {
	subject := strings.TrimSpace(req.Subject)
	body := strings.TrimSpace(req.Body)
	if subject == "" || body == "" {
		return nil, apperrors.NewBadRequest("subject and body are required", nil)
	}

	a, err := s.applicants.Get(ctx, id)
	if err != nil {
		return nil, notFoundOrStore("application", err)
	}
	html, err := email.RenderApplicant(a.Name, body)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	if err := email.Send(ctx, s.sender, email.Message{To: []string{a.Email}, Subject: subject, HTML: html}); err != nil {
		return nil, apperrors.NewSendFailed(err)
	}

	c := &model.Communication{
		ID:            uuid.New(),
		ApplicationID: a.ID,
		Subject:       subject,
		Body:          body,
		SentBy:        actor.Email,
	}
	if err := s.communications.Create(ctx, c); err != nil {
		s.logger.Error(err, "failed to log applicant communication", "application_id", id.String())
	}
	return c, nil
}

func notFoundOrStore(resource string, err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, err)
	}
	return apperrors.NewStore("failed to access "+resource, err)
}
