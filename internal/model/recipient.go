package model

import (
	"fmt"

	"github.com/google/uuid"
)

type Audience string

const (
	AudienceStudents   Audience = "students"
	AudienceApplicants Audience = "applicants"
)

func (a Audience) Valid() bool {
	return a == AudienceStudents || a == AudienceApplicants
}

// Recipient is a non-persisted projection of a student or applicant used for
// selection and display.
type Recipient struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	ProgramID string    `json:"program_id" db:"program_id"`
	Extra     string    `json:"extra"`
}

// Contact holds the reachable points of one student or applicant.
type Contact struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	Email string    `db:"email" json:"email"`
	Phone string    `db:"phone" json:"phone"`
}

// AudienceFilter is implemented by StudentFilter and ApplicantFilter.
type AudienceFilter interface {
	Audience() Audience
	// Snapshot returns the set keys only, for the send history.
	Snapshot() JSONMap
}

type StudentFilter struct {
	ProgramID string        `json:"program_id,omitempty"`
	Term      *int          `json:"term,omitempty"`
	Status    StudentStatus `json:"status,omitempty"`
}

func (f StudentFilter) Audience() Audience { return AudienceStudents }

func (f StudentFilter) Snapshot() JSONMap {
	m := JSONMap{}
	if f.ProgramID != "" {
		m["program"] = f.ProgramID
	}
	if f.Term != nil {
		m["term"] = *f.Term
	}
	if f.Status != "" {
		m["status"] = string(f.Status)
	}
	return m
}

type ApplicantFilter struct {
	ProgramID        string          `json:"program_id,omitempty"`
	Status           ApplicantStatus `json:"status,omitempty"`
	MissingDocuments bool            `json:"missing_docs,omitempty"`
}

func (f ApplicantFilter) Audience() Audience { return AudienceApplicants }

func (f ApplicantFilter) Snapshot() JSONMap {
	m := JSONMap{}
	if f.ProgramID != "" {
		m["program"] = f.ProgramID
	}
	if f.Status != "" {
		m["status"] = string(f.Status)
	}
	if f.MissingDocuments {
		m["missing_docs"] = true
	}
	return m
}

// FilterRequest is the wire shape of an audience filter. Fields that do not
// apply to the chosen audience are ignored.
type FilterRequest struct {
	Audience         Audience `json:"audience" form:"audience" binding:"required"`
	ProgramID        string   `json:"program_id" form:"program_id"`
	Status           string   `json:"status" form:"status"`
	Term             *int     `json:"term" form:"term"`
	MissingDocuments bool     `json:"missing_docs" form:"missing_docs"`
}

func (r FilterRequest) ToFilter() (AudienceFilter, error) {
	switch r.Audience {
	case AudienceStudents:
		f := StudentFilter{ProgramID: r.ProgramID}
		if r.Status != "" {
			st := StudentStatus(r.Status)
			if !st.Valid() {
				return nil, fmt.Errorf("invalid student status %q", r.Status)
			}
			f.Status = st
		}
		if r.Term != nil {
			if *r.Term < MinTerm || *r.Term > MaxTerm {
				return nil, fmt.Errorf("term must be between %d and %d", MinTerm, MaxTerm)
			}
			term := *r.Term
			f.Term = &term
		}
		return f, nil
	case AudienceApplicants:
		f := ApplicantFilter{ProgramID: r.ProgramID, MissingDocuments: r.MissingDocuments}
		if r.Status != "" {
			st := ApplicantStatus(r.Status)
			if !st.Valid() {
				return nil, fmt.Errorf("invalid applicant status %q", r.Status)
			}
			f.Status = st
		}
		return f, nil
	default:
		return nil, fmt.Errorf("invalid audience %q", r.Audience)
	}
}
