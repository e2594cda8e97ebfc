package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/admissions-api/internal/repository"
)

type matriculaSequence struct {
	db *sqlx.DB
}

func NewMatriculaSequence(db *sqlx.DB) repository.MatriculaSequence {
	return &matriculaSequence{db: db}
}

// NextValue bumps the per-year counter in one statement; the row lock taken by
// the upsert serializes concurrent admissions for the same year.
func (s *matriculaSequence) NextValue(ctx context.Context, year int) (int, error) {
	query := `
		INSERT INTO student_id_sequences (year, last_value)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE
		SET last_value = student_id_sequences.last_value + 1
		RETURNING last_value
	`
	var next int
	if err := s.db.GetContext(ctx, &next, query, year); err != nil {
		return 0, fmt.Errorf("failed to advance matricula sequence: %w", err)
	}
	return next, nil
}
