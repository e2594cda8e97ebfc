package model

import (
	"time"

	"github.com/google/uuid"
)

type DocumentState string

const (
	DocumentPending          DocumentState = "pending"
	DocumentUploaded         DocumentState = "uploaded"
	DocumentReceivedExternal DocumentState = "received_external"
	DocumentApproved         DocumentState = "approved"
	DocumentRejected         DocumentState = "rejected"
)

func (s DocumentState) Valid() bool {
	switch s {
	case DocumentPending, DocumentUploaded, DocumentReceivedExternal, DocumentApproved, DocumentRejected:
		return true
	}
	return false
}

type RequiredDocument struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Mandatory bool      `db:"mandatory" json:"mandatory"`
	Active    bool      `db:"active" json:"active"`
}

type ApplicationDocument struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	ApplicationID uuid.UUID     `db:"application_id" json:"application_id"`
	DocumentID    uuid.UUID     `db:"document_id" json:"document_id"`
	DocumentName  string        `db:"document_name" json:"document_name,omitempty"`
	State         DocumentState `db:"state" json:"state"`
	FileRef       *string       `db:"file_ref" json:"file_ref,omitempty"`
	Notes         *string       `db:"notes" json:"notes,omitempty"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

type UpdateDocumentStateRequest struct {
	State DocumentState `json:"state" binding:"required"`
	Notes *string       `json:"notes"`
}

// Communication logs one email sent to a single applicant.
type Communication struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ApplicationID uuid.UUID `db:"application_id" json:"application_id"`
	Subject       string    `db:"subject" json:"subject"`
	Body          string    `db:"body" json:"body"`
	SentBy        string    `db:"sent_by" json:"sent_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type ApplicantEmailRequest struct {
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}
