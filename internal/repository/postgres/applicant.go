package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository"
)

const applicantColumns = `id, name, email, phone, curp, high_school, address, program_id, status,
	heard_about_us, internal_notes, student_id, created_at, updated_at`

type applicantRepository struct {
	BaseRepository
}

func NewApplicantRepository(db *sqlx.DB) repository.ApplicantRepository {
	return &applicantRepository{NewBaseRepository(db)}
}

// applicantWhere covers the column predicates only. MissingDocuments needs the
// document table and is resolved by the caller.
func applicantWhere(f model.ApplicantFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.ProgramID != "" {
		w.add("program_id = ?", f.ProgramID)
	}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	return w
}

func (r *applicantRepository) Count(ctx context.Context, filter model.ApplicantFilter) (int, error) {
	w := applicantWhere(filter)
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM applications`+w.clause(), w.args...); err != nil {
		return 0, fmt.Errorf("failed to count applicants: %w", err)
	}
	return n, nil
}

func (r *applicantRepository) List(ctx context.Context, filter model.ApplicantFilter) ([]*model.Applicant, error) {
	w := applicantWhere(filter)
	query := `SELECT ` + applicantColumns + ` FROM applications` + w.clause() + ` ORDER BY name, id`
	var applicants []*model.Applicant
	if err := r.db.SelectContext(ctx, &applicants, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to list applicants: %w", err)
	}
	return applicants, nil
}

func (r *applicantRepository) Search(ctx context.Context, q string, limit int) ([]*model.Applicant, error) {
	query := `
		SELECT ` + applicantColumns + `
		FROM applications
		WHERE name ILIKE $1 OR curp ILIKE $1 OR email ILIKE $1
		ORDER BY name, id
		LIMIT $2
	`
	var applicants []*model.Applicant
	if err := r.db.SelectContext(ctx, &applicants, query, likePattern(q), limit); err != nil {
		return nil, fmt.Errorf("failed to search applicants: %w", err)
	}
	return applicants, nil
}

func (r *applicantRepository) ContactsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Contact, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT id, name, email, phone FROM applications WHERE id = ANY($1::uuid[]) ORDER BY name, id`
	var contacts []model.Contact
	if err := r.db.SelectContext(ctx, &contacts, query, uuidArray(ids)); err != nil {
		return nil, fmt.Errorf("failed to get applicant contacts: %w", err)
	}
	return contacts, nil
}

// Browse backs the review table. It shares applicantWhere with List, so
// MissingDocuments is again left to the caller.
func (r *applicantRepository) Browse(ctx context.Context, filter model.ApplicantFilter, q string) ([]*model.Applicant, error) {
	w := applicantWhere(filter)
	if strings.TrimSpace(q) != "" {
		w.add("(name ILIKE ? OR curp ILIKE ? OR email ILIKE ?)", likePattern(q))
	}
	query := `SELECT ` + applicantColumns + ` FROM applications` + w.clause() + ` ORDER BY created_at DESC, id`
	var applicants []*model.Applicant
	if err := r.db.SelectContext(ctx, &applicants, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to browse applicants: %w", err)
	}
	return applicants, nil
}

func (r *applicantRepository) Create(ctx context.Context, a *model.Applicant, docs []*model.ApplicationDocument) error {
	query := `
		INSERT INTO applications (` + applicantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			a.ID,
			a.Name,
			a.Email,
			a.Phone,
			a.CURP,
			a.HighSchool,
			a.Address,
			a.ProgramID,
			a.Status,
			a.HeardAboutUs,
			a.InternalNotes,
			a.StudentID,
			a.CreatedAt,
			a.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create applicant: %w", translate(err))
		}
		for _, doc := range docs {
			doc.ApplicationID = a.ID
			if err := insertApplicationDocument(ctx, tx, doc); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *applicantRepository) Get(ctx context.Context, id uuid.UUID) (*model.Applicant, error) {
	var a model.Applicant
	err := r.db.GetContext(ctx, &a, `SELECT `+applicantColumns+` FROM applications WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get applicant: %w", translate(err))
	}
	return &a, nil
}

// UpdateStatus also queues applicant.accepted when the new status is accepted.
func (r *applicantRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ApplicantStatus) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE applications SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
		if err != nil {
			return fmt.Errorf("failed to update applicant status: %w", err)
		}
		if err := requireRow(res); err != nil {
			return err
		}
		if status != model.ApplicantStatusAccepted {
			return nil
		}
		event, err := model.NewOutboxEvent(model.EventApplicantAccepted, map[string]interface{}{
			"application_id": id,
		})
		if err != nil {
			return err
		}
		return insertOutboxEvent(ctx, tx, event)
	})
}

func (r *applicantRepository) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE applications SET internal_notes = $1, updated_at = $2 WHERE id = $3`, notes, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update internal notes: %w", err)
	}
	return requireRow(res)
}

func (r *applicantRepository) LinkStudent(ctx context.Context, id uuid.UUID, studentID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE applications SET student_id = $1, updated_at = $2 WHERE id = $3`, studentID, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to link student: %w", err)
	}
	return nil
}

func (r *applicantRepository) UnlinkStudent(ctx context.Context, studentID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE applications SET student_id = NULL, updated_at = $1 WHERE student_id = $2`, time.Now(), studentID)
	if err != nil {
		return fmt.Errorf("failed to unlink student: %w", err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
