package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/admissions-api/internal/model"
)

// ErrNotFound is returned by Get-style lookups that match no row.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

// All repository interfaces in one file
type (
	// StudentRepository is the student half of the recipient store.
	StudentRepository interface {
		Count(ctx context.Context, filter model.StudentFilter) (int, error)
		List(ctx context.Context, filter model.StudentFilter) ([]*model.Student, error)
		Search(ctx context.Context, query string, limit int) ([]*model.Student, error)
		// Browse lists students newest first for the records table. A
		// non-empty query matches name, matricula, CURP or email.
		Browse(ctx context.Context, filter model.StudentFilter, query string) ([]*model.Student, error)
		ContactsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Contact, error)

		Create(ctx context.Context, student *model.Student) error
		Get(ctx context.Context, id uuid.UUID) (*model.Student, error)
		GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*model.Student, error)
		Update(ctx context.Context, student *model.Student) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	// ApplicantRepository is the applicant half of the recipient store.
	ApplicantRepository interface {
		Count(ctx context.Context, filter model.ApplicantFilter) (int, error)
		List(ctx context.Context, filter model.ApplicantFilter) ([]*model.Applicant, error)
		Search(ctx context.Context, query string, limit int) ([]*model.Applicant, error)
		// Browse lists applications newest first for the review table. A
		// non-empty query matches name, CURP or email.
		Browse(ctx context.Context, filter model.ApplicantFilter, query string) ([]*model.Applicant, error)
		ContactsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Contact, error)

		// Create stores the application and its documents atomically.
		Create(ctx context.Context, applicant *model.Applicant, docs []*model.ApplicationDocument) error
		Get(ctx context.Context, id uuid.UUID) (*model.Applicant, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.ApplicantStatus) error
		UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error
		LinkStudent(ctx context.Context, id uuid.UUID, studentID uuid.UUID) error
		UnlinkStudent(ctx context.Context, studentID uuid.UUID) error
	}

	DocumentRepository interface {
		// ApplicantIDsWithPending returns the subset of ids owning at least one pending document.
		ApplicantIDsWithPending(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
		ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*model.ApplicationDocument, error)
		UpdateState(ctx context.Context, id uuid.UUID, state model.DocumentState, notes *string) error
		RequiredNames(ctx context.Context, ids []uuid.UUID) ([]string, error)
	}

	// MatriculaSequence hands out monotonic per-year sequence values.
	MatriculaSequence interface {
		NextValue(ctx context.Context, year int) (int, error)
	}

	MessageSendRepository interface {
		// Create appends the history row and, in the same transaction, its outbox event.
		Create(ctx context.Context, send *model.MessageSend) error
		ListByAudience(ctx context.Context, audience model.Audience, limit int) ([]*model.MessageSend, error)
		// ListByNews returns every send linked to newsID, newest first.
		ListByNews(ctx context.Context, newsID uuid.UUID) ([]*model.MessageSend, error)
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	ContentRepository interface {
		GetNews(ctx context.Context, id uuid.UUID) (*model.News, error)
		GetImportantDate(ctx context.Context, id uuid.UUID) (*model.ImportantDate, error)
	}

	CommunicationRepository interface {
		Create(ctx context.Context, c *model.Communication) error
		// ListByApplication returns an applicant's communications, newest first.
		ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*model.Communication, error)
	}

	AdminRepository interface {
		GetByEmail(ctx context.Context, email string) (*model.AdminUser, error)
		Create(ctx context.Context, user *model.AdminUser) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, tx *sql.Tx, limit int) ([]*model.OutboxEvent, error)
		BeginTx(ctx context.Context) (*sql.Tx, error)
		UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
