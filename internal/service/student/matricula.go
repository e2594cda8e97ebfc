package student

import (
	"context"
	"fmt"

	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository"
)

// MatriculaGenerator hands out per-year sequential matriculas such as
// UFN-2026-001. Uniqueness comes from the database sequence row.
type MatriculaGenerator struct {
	seq repository.MatriculaSequence
}

func NewMatriculaGenerator(seq repository.MatriculaSequence) *MatriculaGenerator {
	return &MatriculaGenerator{seq: seq}
}

func (g *MatriculaGenerator) Next(ctx context.Context, year int) (string, error) {
	n, err := g.seq.NextValue(ctx, year)
	if err != nil {
		return "", fmt.Errorf("failed to generate matricula: %w", err)
	}
	return model.FormatMatricula(year, n), nil
}
