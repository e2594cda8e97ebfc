package model

import "github.com/google/uuid"

// EnrollmentRequest is the public enrollment form submission.
type EnrollmentRequest struct {
	Name         string  `json:"name" binding:"required,min=3"`
	Email        string  `json:"email" binding:"required,email"`
	Phone        string  `json:"phone" binding:"required,phone"`
	CURP         string  `json:"curp" binding:"required,curp"`
	HighSchool   string  `json:"high_school" binding:"required,min=3"`
	Address      string  `json:"address" binding:"required,min=5"`
	ProgramID    string  `json:"program_id" binding:"required"`
	HeardAboutUs *string `json:"heard_about_us"`
	// Documents lists the required documents the applicant is answering for.
	// A non-empty file reference marks the document as uploaded.
	Documents []EnrollmentDocument `json:"documents" binding:"dive"`
}

type EnrollmentDocument struct {
	DocumentID uuid.UUID `json:"document_id" binding:"required"`
	FileRef    string    `json:"file_ref"`
}
