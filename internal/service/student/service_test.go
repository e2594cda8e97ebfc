package student

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository"
	"github.com/jwalitptl/admissions-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
	"github.com/jwalitptl/admissions-api/pkg/logger"
)

func newService(store *memory.Store) *Service {
	svc := NewService(store.StudentRepository(), store.ApplicantRepository(), store.MatriculaSequence(), logger.Nop())
	svc.now = func() time.Time { return time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC) }
	return svc
}

func validRequest() *model.CreateStudentRequest {
	return &model.CreateStudentRequest{
		Name:       "Ana López",
		Email:      "ana@ufn.edu.mx",
		Phone:      "899 123 4567",
		ProgramID:  "ing-sis",
		Term:       1,
		EnrolledOn: "2026-08-20",
	}
}

func TestCreate_AssignsSequentialMatriculas(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	ctx := context.Background()

	first, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)
	second, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	assert.Equal(t, "UFN-2026-001", first.Matricula)
	assert.Equal(t, "UFN-2026-002", second.Matricula)
	assert.Equal(t, model.StudentStatusActive, first.Status)
	assert.Contains(t, store.EventTypes(), model.EventStudentCreated)
}

func TestCreate_RetriesOnCollision(t *testing.T) {
	store := memory.NewStore()
	taken := &model.Student{Matricula: "UFN-2026-001"}
	taken.ID = uuid.New()
	store.Students[taken.ID] = taken

	st, err := newService(store).Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "UFN-2026-002", st.Matricula)
}

func TestCreate_GivesUpAfterRepeatedCollisions(t *testing.T) {
	store := memory.NewStore()
	for _, m := range []string{"UFN-2026-001", "UFN-2026-002", "UFN-2026-003"} {
		taken := &model.Student{Matricula: m}
		taken.ID = uuid.New()
		store.Students[taken.ID] = taken
	}

	_, err := newService(store).Create(context.Background(), validRequest())
	assert.ErrorIs(t, err, apperrors.StoreFailure)
}

func TestCreate_Validation(t *testing.T) {
	svc := newService(memory.NewStore())
	ctx := context.Background()

	for name, mutate := range map[string]func(r *model.CreateStudentRequest){
		"short name": func(r *model.CreateStudentRequest) { r.Name = "Al" },
		"bad phone":  func(r *model.CreateStudentRequest) { r.Phone = "12345" },
		"bad term":   func(r *model.CreateStudentRequest) { r.Term = 10 },
		"bad date":   func(r *model.CreateStudentRequest) { r.EnrolledOn = "20/08/2026" },
		"bad curp": func(r *model.CreateStudentRequest) {
			c := "NOPE"
			r.CURP = &c
		},
	} {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(req)
			_, err := svc.Create(ctx, req)
			assert.ErrorIs(t, err, apperrors.BadRequest)
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	ctx := context.Background()

	st, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	applicant := &model.Applicant{Name: "Ana", StudentID: &st.ID}
	applicant.ID = uuid.New()
	store.Applicants[applicant.ID] = applicant

	term := 4
	status := model.StudentStatusWithdrawn
	updated, err := svc.Update(ctx, st.ID, &model.UpdateStudentRequest{Term: &term, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Term)
	assert.Equal(t, model.StudentStatusWithdrawn, updated.Status)
	assert.Equal(t, "Ana López", updated.Name)

	bogus := model.StudentStatus("expelled")
	_, err = svc.Update(ctx, st.ID, &model.UpdateStudentRequest{Status: &bogus})
	assert.ErrorIs(t, err, apperrors.BadRequest)

	require.NoError(t, svc.Delete(ctx, st.ID))
	assert.Nil(t, store.Applicants[applicant.ID].StudentID)

	_, err = svc.Get(ctx, st.ID)
	assert.ErrorIs(t, err, apperrors.NotFound)
	assert.ErrorIs(t, svc.Delete(ctx, st.ID), apperrors.NotFound)
}

func TestCreateFromApplicant_Idempotent(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	ctx := context.Background()

	a := &model.Applicant{Name: "Luis", Email: "luis@gmail.com", Phone: "8991112233", CURP: "GODE561231HDFRRN09", ProgramID: "derecho"}
	a.ID = uuid.New()
	store.Applicants[a.ID] = a

	first, err := svc.CreateFromApplicant(ctx, a)
	require.NoError(t, err)
	second, err := svc.CreateFromApplicant(ctx, a)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.Students, 1)
	assert.Equal(t, model.MinTerm, first.Term)
	require.NotNil(t, store.Applicants[a.ID].StudentID)
	assert.Equal(t, first.ID, *store.Applicants[a.ID].StudentID)
}

// racingStudents lets a concurrent enrolment of the same applicant land
// between the service's lookup and its insert.
type racingStudents struct {
	repository.StudentRepository
	store  *memory.Store
	winner *model.Student
	raced  bool
}

func (r *racingStudents) Create(ctx context.Context, st *model.Student) error {
	if !r.raced {
		r.raced = true
		cp := *r.winner
		r.store.Students[cp.ID] = &cp
	}
	return r.StudentRepository.Create(ctx, st)
}

func TestCreateFromApplicant_ConcurrentEnrolmentReturnsWinner(t *testing.T) {
	store := memory.NewStore()
	a := &model.Applicant{Name: "Luis", Email: "luis@gmail.com", Phone: "8991112233", CURP: "GODE561231HDFRRN09", ProgramID: "derecho"}
	a.ID = uuid.New()
	store.Applicants[a.ID] = a

	appID := a.ID
	winner := &model.Student{Name: "Luis", Matricula: "UFN-2026-900", ApplicationID: &appID}
	winner.ID = uuid.New()
	students := &racingStudents{StudentRepository: store.StudentRepository(), store: store, winner: winner}

	svc := NewService(students, store.ApplicantRepository(), store.MatriculaSequence(), logger.Nop())
	svc.now = func() time.Time { return time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC) }

	st, err := svc.CreateFromApplicant(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, st.ID)
	assert.Equal(t, "UFN-2026-900", st.Matricula)
	assert.Len(t, store.Students, 1)
	assert.Equal(t, 1, store.CallCount("sequence.NextValue"), "no matricula retry after an application_id collision")
	require.NotNil(t, store.Applicants[a.ID].StudentID)
	assert.Equal(t, winner.ID, *store.Applicants[a.ID].StudentID)
}

func TestList_FiltersAndSearches(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	ctx := context.Background()

	ana, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)
	req := validRequest()
	req.Name = "Bruno Díaz"
	req.Email = "bruno@ufn.edu.mx"
	req.ProgramID = "derecho"
	_, err = svc.Create(ctx, req)
	require.NoError(t, err)

	all, err := svc.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byProgram, err := svc.List(ctx, ListQuery{Filter: model.StudentFilter{ProgramID: "ing-sis"}})
	require.NoError(t, err)
	require.Len(t, byProgram, 1)
	assert.Equal(t, ana.ID, byProgram[0].ID)

	bySearch, err := svc.List(ctx, ListQuery{Search: "bruno"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "Bruno Díaz", bySearch[0].Name)

	term := 12
	_, err = svc.List(ctx, ListQuery{Filter: model.StudentFilter{Term: &term}})
	assert.ErrorIs(t, err, apperrors.BadRequest)

	_, err = svc.List(ctx, ListQuery{Filter: model.StudentFilter{Status: "expelled"}})
	assert.ErrorIs(t, err, apperrors.BadRequest)
}

func TestGet_StoreFailure(t *testing.T) {
	store := memory.NewStore()
	store.Err = errors.New("down")
	_, err := newService(store).Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.StoreFailure)
}
