package model

import (
	"github.com/google/uuid"
)

type ApplicantStatus string

const (
	ApplicantStatusNew              ApplicantStatus = "new"
	ApplicantStatusInReview         ApplicantStatus = "in_review"
	ApplicantStatusDocumentsPending ApplicantStatus = "documents_pending"
	ApplicantStatusAccepted         ApplicantStatus = "accepted"
	ApplicantStatusRejected         ApplicantStatus = "rejected"
)

// Valid reports whether s is one of the known lifecycle values.
// Transitions between values are not constrained here.
func (s ApplicantStatus) Valid() bool {
	switch s {
	case ApplicantStatusNew, ApplicantStatusInReview, ApplicantStatusDocumentsPending,
		ApplicantStatusAccepted, ApplicantStatusRejected:
		return true
	}
	return false
}

type Applicant struct {
	Base
	Name          string          `db:"name" json:"name"`
	Email         string          `db:"email" json:"email"`
	Phone         string          `db:"phone" json:"phone"`
	CURP          string          `db:"curp" json:"curp"`
	HighSchool    string          `db:"high_school" json:"high_school"`
	Address       string          `db:"address" json:"address"`
	ProgramID     string          `db:"program_id" json:"program_id"`
	Status        ApplicantStatus `db:"status" json:"status"`
	HeardAboutUs  *string         `db:"heard_about_us" json:"heard_about_us,omitempty"`
	InternalNotes *string         `db:"internal_notes" json:"internal_notes,omitempty"`
	StudentID     *uuid.UUID      `db:"student_id" json:"student_id,omitempty"`
}

// Recipient projects the applicant for selection lists.
func (a *Applicant) Recipient() Recipient {
	return Recipient{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Phone:     a.Phone,
		ProgramID: a.ProgramID,
		Extra:     string(a.Status),
	}
}

type UpdateApplicantStatusRequest struct {
	Status ApplicantStatus `json:"status" binding:"required"`
}

type UpdateInternalNotesRequest struct {
	Notes string `json:"notes"`
}
