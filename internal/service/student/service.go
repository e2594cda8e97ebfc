package student

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository"
	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
	"github.com/jwalitptl/admissions-api/pkg/logger"
	pkgvalidator "github.com/jwalitptl/admissions-api/pkg/validator"
)

// createAttempts bounds retries when a concurrent insert took the same matricula.
const createAttempts = 3

type Service struct {
	students   repository.StudentRepository
	applicants repository.ApplicantRepository
	matriculas *MatriculaGenerator
	validate   *validator.Validate
	logger     *logger.Logger
	now        func() time.Time
}

func NewService(
	students repository.StudentRepository,
	applicants repository.ApplicantRepository,
	seq repository.MatriculaSequence,
	logger *logger.Logger,
) *Service {
	return &Service{
		students:   students,
		applicants: applicants,
		matriculas: NewMatriculaGenerator(seq),
		validate:   pkgvalidator.New(),
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateStudentRequest) (*model.Student, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.NewBadRequest("invalid student data", err)
	}
	enrolled, err := time.Parse("2006-01-02", req.EnrolledOn)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid enrollment date", err)
	}

	st := &model.Student{
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
		CURP:       req.CURP,
		ProgramID:  req.ProgramID,
		Term:       req.Term,
		Status:     model.StudentStatusActive,
		EnrolledOn: enrolled,
	}
	return s.insert(ctx, st)
}

// insert assigns a fresh matricula and retries when the insert collides. A
// collision on application_id means another request already enrolled the
// applicant; that student is returned instead.
func (s *Service) insert(ctx context.Context, st *model.Student) (*model.Student, error) {
	year := s.now().Year()
	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		matricula, err := s.matriculas.Next(ctx, year)
		if err != nil {
			return nil, apperrors.NewStore("failed to assign matricula", err)
		}
		st.ID = uuid.New()
		st.Matricula = matricula

		err = s.students.Create(ctx, st)
		if err == nil {
			return st, nil
		}
		if !stderrors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewStore("failed to create student", err)
		}
		if st.ApplicationID != nil {
			existing, lookupErr := s.students.GetByApplicationID(ctx, *st.ApplicationID)
			if lookupErr == nil {
				return existing, nil
			}
			if !stderrors.Is(lookupErr, repository.ErrNotFound) {
				return nil, apperrors.NewStore("failed to look up student", lookupErr)
			}
		}
		lastErr = err
		s.logger.Warn("matricula collision, retrying", "matricula", matricula, "attempt", attempt+1)
	}
	return nil, apperrors.NewStore(fmt.Sprintf("failed to create student after %d attempts", createAttempts), lastErr)
}

// ListQuery narrows the student records table.
type ListQuery struct {
	Filter model.StudentFilter
	Search string
}

// List returns students newest first.
func (s *Service) List(ctx context.Context, q ListQuery) ([]*model.Student, error) {
	if q.Filter.Status != "" && !q.Filter.Status.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid student status %q", q.Filter.Status), nil)
	}
	if t := q.Filter.Term; t != nil && (*t < model.MinTerm || *t > model.MaxTerm) {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("term must be between %d and %d", model.MinTerm, model.MaxTerm), nil)
	}
	list, err := s.students.Browse(ctx, q.Filter, q.Search)
	if err != nil {
		return nil, apperrors.NewStore("failed to list students", err)
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	st, err := s.students.Get(ctx, id)
	if err != nil {
		return nil, notFoundOrStore("student", err)
	}
	return st, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateStudentRequest) (*model.Student, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.NewBadRequest("invalid student data", err)
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid student status %q", *req.Status), nil)
	}

	st, err := s.students.Get(ctx, id)
	if err != nil {
		return nil, notFoundOrStore("student", err)
	}
	if req.Name != nil {
		st.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		st.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		st.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.CURP != nil {
		st.CURP = req.CURP
	}
	if req.ProgramID != nil {
		st.ProgramID = *req.ProgramID
	}
	if req.Term != nil {
		st.Term = *req.Term
	}
	if req.Status != nil {
		st.Status = *req.Status
	}

	if err := s.students.Update(ctx, st); err != nil {
		return nil, notFoundOrStore("student", err)
	}
	return st, nil
}

// Delete removes the student after clearing any applicant back-link.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.applicants.UnlinkStudent(ctx, id); err != nil {
		return apperrors.NewStore("failed to unlink applicant", err)
	}
	if err := s.students.Delete(ctx, id); err != nil {
		return notFoundOrStore("student", err)
	}
	return nil
}

// CreateFromApplicant enrolls an accepted applicant. Calling it again for the
// same applicant returns the existing student.
func (s *Service) CreateFromApplicant(ctx context.Context, a *model.Applicant) (*model.Student, error) {
	existing, err := s.students.GetByApplicationID(ctx, a.ID)
	if err == nil {
		return existing, nil
	}
	if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewStore("failed to look up student", err)
	}

	curp := a.CURP
	appID := a.ID
	st := &model.Student{
		Name:          a.Name,
		Email:         a.Email,
		Phone:         a.Phone,
		CURP:          &curp,
		ProgramID:     a.ProgramID,
		Term:          model.MinTerm,
		Status:        model.StudentStatusActive,
		EnrolledOn:    s.now().Truncate(24 * time.Hour),
		ApplicationID: &appID,
	}
	st, err = s.insert(ctx, st)
	if err != nil {
		return nil, err
	}
	if err := s.applicants.LinkStudent(ctx, a.ID, st.ID); err != nil {
		s.logger.Error(err, "failed to link applicant to student", "application_id", a.ID.String())
	}
	return st, nil
}

func notFoundOrStore(resource string, err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, err)
	}
	return apperrors.NewStore("failed to access "+resource, err)
}
