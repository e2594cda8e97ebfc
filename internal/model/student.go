package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "active"
	StudentStatusGraduated StudentStatus = "graduated"
	StudentStatusWithdrawn StudentStatus = "withdrawn"
)

func (s StudentStatus) Valid() bool {
	switch s {
	case StudentStatusActive, StudentStatusGraduated, StudentStatusWithdrawn:
		return true
	}
	return false
}

const (
	MinTerm = 1
	MaxTerm = 9

	MatriculaPrefix = "UFN"
)

type Student struct {
	Base
	Matricula     string        `db:"matricula" json:"matricula"`
	Name          string        `db:"name" json:"name"`
	Email         string        `db:"email" json:"email"`
	Phone         string        `db:"phone" json:"phone"`
	CURP          *string       `db:"curp" json:"curp,omitempty"`
	ProgramID     string        `db:"program_id" json:"program_id"`
	Term          int           `db:"term" json:"term"`
	Status        StudentStatus `db:"status" json:"status"`
	EnrolledOn    time.Time     `db:"enrolled_on" json:"enrolled_on"`
	ApplicationID *uuid.UUID    `db:"application_id" json:"application_id,omitempty"`
}

// TermLabel is the human label used as the recipient extra for students.
func TermLabel(term int) string {
	return fmt.Sprintf("Cuatrimestre %d", term)
}

func (s *Student) Recipient() Recipient {
	return Recipient{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Phone:     s.Phone,
		ProgramID: s.ProgramID,
		Extra:     TermLabel(s.Term),
	}
}

// FormatMatricula renders the per-year sequential identifier, e.g. UFN-2026-007.
func FormatMatricula(year, seq int) string {
	return fmt.Sprintf("%s-%d-%03d", MatriculaPrefix, year, seq)
}

type CreateStudentRequest struct {
	Name       string  `json:"name" binding:"required,min=3"`
	Email      string  `json:"email" binding:"required,email"`
	Phone      string  `json:"phone" binding:"required,phone"`
	CURP       *string `json:"curp" binding:"omitempty,curp"`
	ProgramID  string  `json:"program_id" binding:"required"`
	Term       int     `json:"term" binding:"required,min=1,max=9"`
	EnrolledOn string  `json:"enrolled_on" binding:"required,datetime=2006-01-02"`
}

type UpdateStudentRequest struct {
	Name      *string        `json:"name" binding:"omitempty,min=3"`
	Email     *string        `json:"email" binding:"omitempty,email"`
	Phone     *string        `json:"phone" binding:"omitempty,phone"`
	CURP      *string        `json:"curp" binding:"omitempty,curp"`
	ProgramID *string        `json:"program_id"`
	Term      *int           `json:"term" binding:"omitempty,min=1,max=9"`
	Status    *StudentStatus `json:"status"`
}
