package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository"
)

const studentColumns = `id, matricula, name, email, phone, curp, program_id, term, status,
	enrolled_on, application_id, created_at, updated_at`

type studentRepository struct {
	BaseRepository
}

func NewStudentRepository(db *sqlx.DB) repository.StudentRepository {
	return &studentRepository{NewBaseRepository(db)}
}

// studentWhere is shared by Count and List so both apply identical predicates.
func studentWhere(f model.StudentFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.ProgramID != "" {
		w.add("program_id = ?", f.ProgramID)
	}
	if f.Term != nil {
		w.add("term = ?", *f.Term)
	}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	return w
}

func (r *studentRepository) Count(ctx context.Context, filter model.StudentFilter) (int, error) {
	w := studentWhere(filter)
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM students`+w.clause(), w.args...); err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return n, nil
}

func (r *studentRepository) List(ctx context.Context, filter model.StudentFilter) ([]*model.Student, error) {
	w := studentWhere(filter)
	query := `SELECT ` + studentColumns + ` FROM students` + w.clause() + ` ORDER BY name, id`
	var students []*model.Student
	if err := r.db.SelectContext(ctx, &students, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

func (r *studentRepository) Search(ctx context.Context, q string, limit int) ([]*model.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE name ILIKE $1 OR matricula ILIKE $1 OR email ILIKE $1
		ORDER BY name, id
		LIMIT $2
	`
	var students []*model.Student
	if err := r.db.SelectContext(ctx, &students, query, likePattern(q), limit); err != nil {
		return nil, fmt.Errorf("failed to search students: %w", err)
	}
	return students, nil
}

func (r *studentRepository) Browse(ctx context.Context, filter model.StudentFilter, q string) ([]*model.Student, error) {
	w := studentWhere(filter)
	if strings.TrimSpace(q) != "" {
		w.add("(name ILIKE ? OR matricula ILIKE ? OR curp ILIKE ? OR email ILIKE ?)", likePattern(q))
	}
	query := `SELECT ` + studentColumns + ` FROM students` + w.clause() + ` ORDER BY created_at DESC, id`
	var students []*model.Student
	if err := r.db.SelectContext(ctx, &students, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to browse students: %w", err)
	}
	return students, nil
}

func (r *studentRepository) ContactsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Contact, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT id, name, email, phone FROM students WHERE id = ANY($1::uuid[]) ORDER BY name, id`
	var contacts []model.Contact
	if err := r.db.SelectContext(ctx, &contacts, query, uuidArray(ids)); err != nil {
		return nil, fmt.Errorf("failed to get student contacts: %w", err)
	}
	return contacts, nil
}

func (r *studentRepository) Create(ctx context.Context, s *model.Student) error {
	query := `
		INSERT INTO students (` + studentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	event, err := model.NewOutboxEvent(model.EventStudentCreated, map[string]interface{}{
		"student_id":     s.ID,
		"matricula":      s.Matricula,
		"application_id": s.ApplicationID,
	})
	if err != nil {
		return fmt.Errorf("failed to build student event: %w", err)
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query,
			s.ID,
			s.Matricula,
			s.Name,
			s.Email,
			s.Phone,
			s.CURP,
			s.ProgramID,
			s.Term,
			s.Status,
			s.EnrolledOn,
			s.ApplicationID,
			s.CreatedAt,
			s.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create student: %w", translate(err))
		}
		return insertOutboxEvent(ctx, tx, event)
	})
}

func (r *studentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	var s model.Student
	err := r.db.GetContext(ctx, &s, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", translate(err))
	}
	return &s, nil
}

func (r *studentRepository) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*model.Student, error) {
	var s model.Student
	err := r.db.GetContext(ctx, &s, `SELECT `+studentColumns+` FROM students WHERE application_id = $1`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get student by application: %w", translate(err))
	}
	return &s, nil
}

func (r *studentRepository) Update(ctx context.Context, s *model.Student) error {
	query := `
		UPDATE students
		SET name = $1, email = $2, phone = $3, curp = $4, program_id = $5,
			term = $6, status = $7, updated_at = $8
		WHERE id = $9
	`
	s.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		s.Name, s.Email, s.Phone, s.CURP, s.ProgramID, s.Term, s.Status, s.UpdatedAt, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", translate(err))
	}
	return requireRow(res)
}

func (r *studentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	return requireRow(res)
}
