package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository"
	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
)

// MaxLimit bounds a single history page.
const MaxLimit = 50

type Service struct {
	repo repository.MessageSendRepository
}

func NewService(repo repository.MessageSendRepository) *Service {
	return &Service{repo: repo}
}

// List returns the most recent sends for audience, newest first. A limit
// outside 1..MaxLimit means MaxLimit.
func (s *Service) List(ctx context.Context, audience model.Audience, limit int) ([]*model.MessageSend, error) {
	if !audience.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid audience %q", audience), nil)
	}
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}
	sends, err := s.repo.ListByAudience(ctx, audience, limit)
	if err != nil {
		return nil, apperrors.NewStore("failed to list message sends", err)
	}
	if sends == nil {
		sends = []*model.MessageSend{}
	}
	return sends, nil
}

// ListByNews returns every broadcast of one news item, newest first.
func (s *Service) ListByNews(ctx context.Context, newsID uuid.UUID) ([]*model.MessageSend, error) {
	sends, err := s.repo.ListByNews(ctx, newsID)
	if err != nil {
		return nil, apperrors.NewStore("failed to list news broadcasts", err)
	}
	if sends == nil {
		sends = []*model.MessageSend{}
	}
	return sends, nil
}
