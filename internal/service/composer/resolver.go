package composer

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository"
	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
)

const (
	contentTTL     = 5 * time.Minute
	contentCleanup = 10 * time.Minute
)

// ContentResolver loads news and important dates for linking, caching lookups
// briefly since the admin UI resolves the same item on every keystroke.
type ContentResolver struct {
	repo  repository.ContentRepository
	cache *cache.Cache
}

func NewContentResolver(repo repository.ContentRepository) *ContentResolver {
	return &ContentResolver{
		repo:  repo,
		cache: cache.New(contentTTL, contentCleanup),
	}
}

func (r *ContentResolver) News(ctx context.Context, id uuid.UUID) (*model.News, error) {
	key := "news:" + id.String()
	if v, ok := r.cache.Get(key); ok {
		return v.(*model.News), nil
	}
	n, err := r.repo.GetNews(ctx, id)
	if err != nil {
		return nil, lookupError("news", err)
	}
	r.cache.SetDefault(key, n)
	return n, nil
}

func (r *ContentResolver) ImportantDate(ctx context.Context, id uuid.UUID) (*model.ImportantDate, error) {
	key := "date:" + id.String()
	if v, ok := r.cache.Get(key); ok {
		return v.(*model.ImportantDate), nil
	}
	d, err := r.repo.GetImportantDate(ctx, id)
	if err != nil {
		return nil, lookupError("important date", err)
	}
	r.cache.SetDefault(key, d)
	return d, nil
}

// Link resolves newsID or dateID (at most one) into a ContentLink.
func (r *ContentResolver) Link(ctx context.Context, newsID, dateID *uuid.UUID) (*model.ContentLink, error) {
	switch {
	case newsID != nil && dateID != nil:
		return nil, apperrors.NewBadRequest("a message links at most one news item or date", nil)
	case newsID != nil:
		n, err := r.News(ctx, *newsID)
		if err != nil {
			return nil, err
		}
		return &model.ContentLink{Kind: model.ContentNews, ID: n.ID, Title: n.Title, Slug: n.Slug}, nil
	case dateID != nil:
		d, err := r.ImportantDate(ctx, *dateID)
		if err != nil {
			return nil, err
		}
		return &model.ContentLink{Kind: model.ContentImportantDate, ID: d.ID, Title: d.Title}, nil
	}
	return nil, nil
}

// LoadNews reads the news item from the store, skipping and then refreshing
// the cached copy. Broadcasts gate on Published and must not see a stale one.
func (r *ContentResolver) LoadNews(ctx context.Context, id uuid.UUID) (*model.News, error) {
	r.cache.Delete("news:" + id.String())
	return r.News(ctx, id)
}

func lookupError(resource string, err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, err)
	}
	return apperrors.NewStore("failed to load "+resource, err)
}
