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

type communicationRepository struct {
	db *sqlx.DB
}

func NewCommunicationRepository(db *sqlx.DB) repository.CommunicationRepository {
	return &communicationRepository{db: db}
}

func (r *communicationRepository) Create(ctx context.Context, c *model.Communication) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO communications (id, application_id, subject, body, sent_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.ApplicationID, c.Subject, c.Body, c.SentBy, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to log communication: %w", err)
	}
	return nil
}

func (r *communicationRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*model.Communication, error) {
	query := `
		SELECT id, application_id, subject, body, sent_by, created_at
		FROM communications
		WHERE application_id = $1
		ORDER BY created_at DESC, id
	`
	var out []*model.Communication
	if err := r.db.SelectContext(ctx, &out, query, applicationID); err != nil {
		return nil, fmt.Errorf("failed to list communications: %w", err)
	}
	return out, nil
}
