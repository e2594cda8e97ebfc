package audience

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
)

func newResolver(store *memory.Store) *Resolver {
	return NewResolver(store.StudentRepository(), store.ApplicantRepository(), store.DocumentRepository())
}

func addStudent(store *memory.Store, name, program string, term int, status model.StudentStatus) *model.Student {
	s := &model.Student{
		Matricula: fmt.Sprintf("UFN-2026-%03d", len(store.Students)+1),
		Name:      name,
		Email:     name + "@alumnos.ufn.edu.mx",
		Phone:     "8991234567",
		ProgramID: program,
		Term:      term,
		Status:    status,
	}
	s.ID = uuid.New()
	store.Students[s.ID] = s
	return s
}

func addApplicant(store *memory.Store, name, program string, status model.ApplicantStatus) *model.Applicant {
	a := &model.Applicant{
		Name:      name,
		Email:     name + "@gmail.com",
		Phone:     "8997654321",
		CURP:      "GODE561231HDFRRN09",
		ProgramID: program,
		Status:    status,
	}
	a.ID = uuid.New()
	store.Applicants[a.ID] = a
	return a
}

func addDocument(store *memory.Store, applicantID uuid.UUID, state model.DocumentState) {
	d := &model.ApplicationDocument{ID: uuid.New(), ApplicationID: applicantID, DocumentID: uuid.New(), State: state}
	store.Documents[d.ID] = d
}

func intPtr(i int) *int { return &i }

func TestCountMatchesList(t *testing.T) {
	store := memory.NewStore()
	addStudent(store, "ana", "ing-sis", 1, model.StudentStatusActive)
	addStudent(store, "beto", "ing-sis", 3, model.StudentStatusActive)
	addStudent(store, "carla", "derecho", 3, model.StudentStatusGraduated)
	a1 := addApplicant(store, "diego", "ing-sis", model.ApplicantStatusNew)
	a2 := addApplicant(store, "elena", "derecho", model.ApplicantStatusNew)
	addApplicant(store, "fer", "ing-sis", model.ApplicantStatusAccepted)
	addDocument(store, a1.ID, model.DocumentPending)
	addDocument(store, a2.ID, model.DocumentApproved)

	r := newResolver(store)
	ctx := context.Background()

	filters := []model.AudienceFilter{
		model.StudentFilter{},
		model.StudentFilter{ProgramID: "ing-sis"},
		model.StudentFilter{Term: intPtr(3)},
		model.StudentFilter{Status: model.StudentStatusGraduated},
		model.StudentFilter{ProgramID: "medicina"},
		model.ApplicantFilter{},
		model.ApplicantFilter{Status: model.ApplicantStatusNew},
		model.ApplicantFilter{MissingDocuments: true},
		model.ApplicantFilter{ProgramID: "derecho", MissingDocuments: true},
	}
	for _, f := range filters {
		t.Run(fmt.Sprintf("%+v", f), func(t *testing.T) {
			n, err := r.Count(ctx, f)
			require.NoError(t, err)
			list, err := r.List(ctx, f)
			require.NoError(t, err)
			assert.Equal(t, n, len(list))
		})
	}
}

func TestList_OrderedByNameWithExtra(t *testing.T) {
	store := memory.NewStore()
	addStudent(store, "zoe", "ing-sis", 2, model.StudentStatusActive)
	addStudent(store, "alan", "ing-sis", 5, model.StudentStatusActive)

	list, err := newResolver(store).List(context.Background(), model.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alan", list[0].Name)
	assert.Equal(t, "Cuatrimestre 5", list[0].Extra)
	assert.Equal(t, "zoe", list[1].Name)
}

func TestMissingDocumentsIsSubsetWithPending(t *testing.T) {
	store := memory.NewStore()
	withPending := addApplicant(store, "ana", "ing-sis", model.ApplicantStatusNew)
	allDone := addApplicant(store, "beto", "ing-sis", model.ApplicantStatusNew)
	mixed := addApplicant(store, "carla", "ing-sis", model.ApplicantStatusNew)
	otherProgram := addApplicant(store, "dani", "derecho", model.ApplicantStatusNew)
	addApplicant(store, "eva", "ing-sis", model.ApplicantStatusNew)

	addDocument(store, withPending.ID, model.DocumentPending)
	addDocument(store, allDone.ID, model.DocumentApproved)
	addDocument(store, mixed.ID, model.DocumentUploaded)
	addDocument(store, mixed.ID, model.DocumentPending)
	addDocument(store, otherProgram.ID, model.DocumentPending)

	r := newResolver(store)
	ctx := context.Background()

	all, err := r.List(ctx, model.ApplicantFilter{ProgramID: "ing-sis"})
	require.NoError(t, err)
	missing, err := r.List(ctx, model.ApplicantFilter{ProgramID: "ing-sis", MissingDocuments: true})
	require.NoError(t, err)

	allIDs := map[uuid.UUID]bool{}
	for _, rec := range all {
		allIDs[rec.ID] = true
	}
	var got []uuid.UUID
	for _, rec := range missing {
		assert.True(t, allIDs[rec.ID])
		got = append(got, rec.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{withPending.ID, mixed.ID}, got)

	n, err := r.Count(ctx, model.ApplicantFilter{ProgramID: "ing-sis", MissingDocuments: true})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCount_ZeroIsNotAnError(t *testing.T) {
	n, err := newResolver(memory.NewStore()).Count(context.Background(), model.StudentFilter{ProgramID: "nada"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStoreFailureIsTagged(t *testing.T) {
	store := memory.NewStore()
	store.Err = errors.New("connection refused")
	r := newResolver(store)

	_, err := r.Count(context.Background(), model.StudentFilter{})
	assert.ErrorIs(t, err, apperrors.StoreFailure)

	_, err = r.List(context.Background(), model.ApplicantFilter{MissingDocuments: true})
	assert.ErrorIs(t, err, apperrors.StoreFailure)

	_, err = r.Search(context.Background(), model.AudienceApplicants, "ana", nil)
	assert.ErrorIs(t, err, apperrors.StoreFailure)
}

func TestSearch(t *testing.T) {
	store := memory.NewStore()
	ana := addStudent(store, "ana lopez", "ing-sis", 1, model.StudentStatusActive)
	anabel := addStudent(store, "anabel ruiz", "ing-sis", 1, model.StudentStatusActive)
	addStudent(store, "bruno", "ing-sis", 1, model.StudentStatusActive)
	r := newResolver(store)
	ctx := context.Background()

	t.Run("blank query skips the store", func(t *testing.T) {
		got, err := r.Search(ctx, model.AudienceStudents, "   ", nil)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Zero(t, store.CallCount("students.Search"))
	})

	t.Run("case insensitive with exclusions", func(t *testing.T) {
		got, err := r.Search(ctx, model.AudienceStudents, "ANA", []uuid.UUID{ana.ID})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, anabel.ID, got[0].ID)
	})

	t.Run("matches matricula", func(t *testing.T) {
		got, err := r.Search(ctx, model.AudienceStudents, ana.Matricula, nil)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, ana.ID, got[0].ID)
	})
}

func TestSearch_CappedAtLimit(t *testing.T) {
	store := memory.NewStore()
	var first uuid.UUID
	for i := 0; i < 30; i++ {
		a := addApplicant(store, fmt.Sprintf("maria %02d", i), "ing-sis", model.ApplicantStatusNew)
		if i == 0 {
			first = a.ID
		}
	}
	got, err := newResolver(store).Search(context.Background(), model.AudienceApplicants, "maria", []uuid.UUID{first})
	require.NoError(t, err)
	assert.Len(t, got, SearchLimit)
	for _, rec := range got {
		assert.NotEqual(t, first, rec.ID)
	}
}
