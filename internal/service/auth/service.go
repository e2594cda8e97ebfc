package auth

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository"
	"github.com/jwalitptl/admissions-api/pkg/auth"
	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
	"github.com/jwalitptl/admissions-api/pkg/security"
)

var ErrInvalidCredentials = stderrors.New("invalid credentials")

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

type Service struct {
	repo     repository.AdminRepository
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
	attempts *cache.Cache
}

func NewService(repo repository.AdminRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{
		repo:     repo,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
		attempts: cache.New(lockoutDuration, 2*lockoutDuration),
	}
}

// Login checks the admin's password and issues an access token. Repeated
// failures lock the address out for a while.
func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if n, ok := s.attempts.Get(key); ok && n.(int) >= maxLoginAttempts {
		return nil, apperrors.Unauthorized(stderrors.New("too many failed attempts, try again later"))
	}

	user, err := s.repo.GetByEmail(ctx, key)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			s.hasher.VerifyNone(password)
			s.recordFailure(key)
			return nil, apperrors.Unauthorized(ErrInvalidCredentials)
		}
		return nil, apperrors.NewStore("failed to load admin user", err)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		s.recordFailure(key)
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}
	s.attempts.Delete(key)

	token, ttl, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return &model.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int64(ttl.Seconds()),
		UserID:      user.ID,
	}, nil
}

func (s *Service) recordFailure(key string) {
	if _, err := s.attempts.IncrementInt(key, 1); err != nil {
		s.attempts.SetDefault(key, 1)
	}
}

// CreateAdmin provisions a back-office account.
func (s *Service) CreateAdmin(ctx context.Context, email, name, password string) (*model.AdminUser, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid password", err)
	}
	user := &model.AdminUser{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         name,
		PasswordHash: hash,
	}
	user.ID = uuid.New()
	if err := s.repo.Create(ctx, user); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewBadRequest("admin already exists", err)
		}
		return nil, apperrors.NewStore("failed to create admin user", err)
	}
	return user, nil
}

// Authenticate validates a bearer token.
func (s *Service) Authenticate(token string) (*model.Identity, error) {
	identity, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}
	return identity, nil
}
