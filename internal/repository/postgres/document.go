package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository"
)

type documentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) repository.DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) ApplicantIDsWithPending(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT DISTINCT application_id
		FROM application_documents
		WHERE state = 'pending' AND application_id = ANY($1::uuid[])
	`
	var out []uuid.UUID
	if err := r.db.SelectContext(ctx, &out, query, uuidArray(ids)); err != nil {
		return nil, fmt.Errorf("failed to query pending documents: %w", err)
	}
	return out, nil
}

// insertApplicationDocument runs inside the applicant's create transaction.
func insertApplicationDocument(ctx context.Context, ext sqlx.ExtContext, doc *model.ApplicationDocument) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	doc.UpdatedAt = time.Now()
	query := `
		INSERT INTO application_documents (id, application_id, document_id, state, file_ref, notes, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := ext.ExecContext(ctx, query,
		doc.ID, doc.ApplicationID, doc.DocumentID, doc.State, doc.FileRef, doc.Notes, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create application document: %w", translate(err))
	}
	return nil
}

func (r *documentRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*model.ApplicationDocument, error) {
	query := `
		SELECT ad.id, ad.application_id, ad.document_id, rd.name AS document_name,
			ad.state, ad.file_ref, ad.notes, ad.updated_at
		FROM application_documents ad
		JOIN required_documents rd ON rd.id = ad.document_id
		WHERE ad.application_id = $1
		ORDER BY rd.name, ad.id
	`
	var docs []*model.ApplicationDocument
	if err := r.db.SelectContext(ctx, &docs, query, applicationID); err != nil {
		return nil, fmt.Errorf("failed to list application documents: %w", err)
	}
	return docs, nil
}

func (r *documentRepository) UpdateState(ctx context.Context, id uuid.UUID, state model.DocumentState, notes *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE application_documents SET state = $1, notes = COALESCE($2, notes), updated_at = $3 WHERE id = $4`,
		state, notes, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update document state: %w", err)
	}
	return requireRow(res)
}

// RequiredNames resolves required-document ids to display names, preserving catalog order.
func (r *documentRepository) RequiredNames(ctx context.Context, ids []uuid.UUID) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var names []string
	err := r.db.SelectContext(ctx, &names,
		`SELECT name FROM required_documents WHERE id = ANY($1::uuid[]) ORDER BY name`, uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get required document names: %w", err)
	}
	return names, nil
}
