package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository"
)

type contentRepository struct {
	db *sqlx.DB
}

func NewContentRepository(db *sqlx.DB) repository.ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) GetNews(ctx context.Context, id uuid.UUID) (*model.News, error) {
	var n model.News
	err := r.db.GetContext(ctx, &n,
		`SELECT id, title, slug, excerpt, published, posted_on FROM news WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get news: %w", translate(err))
	}
	return &n, nil
}

func (r *contentRepository) GetImportantDate(ctx context.Context, id uuid.UUID) (*model.ImportantDate, error) {
	var d model.ImportantDate
	err := r.db.GetContext(ctx, &d,
		`SELECT id, title, date, active FROM important_dates WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get important date: %w", translate(err))
	}
	return &d, nil
}
