// Package audience turns typed filters into recipient counts, lists and
// search results for students and applicants.
package audience

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/admissions-api/internal/model"
	"github.com/jwalitptl/admissions-api/internal/repository"
	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
)

// SearchLimit caps the number of search results.
const SearchLimit = 20

type Resolver struct {
	students   repository.StudentRepository
	applicants repository.ApplicantRepository
	documents  repository.DocumentRepository
}

func NewResolver(
	students repository.StudentRepository,
	applicants repository.ApplicantRepository,
	documents repository.DocumentRepository,
) *Resolver {
	return &Resolver{
		students:   students,
		applicants: applicants,
		documents:  documents,
	}
}

// Count returns the number of recipients matching filter. It always agrees
// with len(List(filter)).
func (r *Resolver) Count(ctx context.Context, filter model.AudienceFilter) (int, error) {
	switch f := filter.(type) {
	case model.StudentFilter:
		n, err := r.students.Count(ctx, f)
		if err != nil {
			return 0, apperrors.NewStore("failed to count students", err)
		}
		return n, nil
	case model.ApplicantFilter:
		if !f.MissingDocuments {
			n, err := r.applicants.Count(ctx, f)
			if err != nil {
				return 0, apperrors.NewStore("failed to count applicants", err)
			}
			return n, nil
		}
		list, err := r.listApplicants(ctx, f)
		if err != nil {
			return 0, err
		}
		return len(list), nil
	default:
		return 0, apperrors.NewBadRequest(fmt.Sprintf("unsupported filter %T", filter), nil)
	}
}

// List returns the matching recipients ordered by name.
func (r *Resolver) List(ctx context.Context, filter model.AudienceFilter) ([]model.Recipient, error) {
	switch f := filter.(type) {
	case model.StudentFilter:
		students, err := r.students.List(ctx, f)
		if err != nil {
			return nil, apperrors.NewStore("failed to list students", err)
		}
		out := make([]model.Recipient, 0, len(students))
		for _, s := range students {
			out = append(out, s.Recipient())
		}
		return out, nil
	case model.ApplicantFilter:
		applicants, err := r.listApplicants(ctx, f)
		if err != nil {
			return nil, err
		}
		out := make([]model.Recipient, 0, len(applicants))
		for _, a := range applicants {
			out = append(out, a.Recipient())
		}
		return out, nil
	default:
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unsupported filter %T", filter), nil)
	}
}

// listApplicants applies the column predicates in the store and, when asked,
// narrows the result to applicants owning at least one pending document.
func (r *Resolver) listApplicants(ctx context.Context, f model.ApplicantFilter) ([]*model.Applicant, error) {
	base := f
	base.MissingDocuments = false
	applicants, err := r.applicants.List(ctx, base)
	if err != nil {
		return nil, apperrors.NewStore("failed to list applicants", err)
	}
	if !f.MissingDocuments || len(applicants) == 0 {
		return applicants, nil
	}

	ids := make([]uuid.UUID, 0, len(applicants))
	for _, a := range applicants {
		ids = append(ids, a.ID)
	}
	pending, err := r.documents.ApplicantIDsWithPending(ctx, ids)
	if err != nil {
		return nil, apperrors.NewStore("failed to query pending documents", err)
	}
	keep := make(map[uuid.UUID]bool, len(pending))
	for _, id := range pending {
		keep[id] = true
	}

	out := applicants[:0]
	for _, a := range applicants {
		if keep[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

// Search matches query against name, email and matricula (students) or CURP
// (applicants), skipping ids already in the working set. A blank query
// returns nothing without touching the store.
func (r *Resolver) Search(ctx context.Context, audience model.Audience, query string, exclude []uuid.UUID) ([]model.Recipient, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Recipient{}, nil
	}

	skip := make(map[uuid.UUID]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	// Over-fetch so exclusions do not starve the page.
	limit := SearchLimit + len(skip)

	var found []model.Recipient
	switch audience {
	case model.AudienceStudents:
		students, err := r.students.Search(ctx, query, limit)
		if err != nil {
			return nil, apperrors.NewStore("failed to search students", err)
		}
		for _, s := range students {
			found = append(found, s.Recipient())
		}
	case model.AudienceApplicants:
		applicants, err := r.applicants.Search(ctx, query, limit)
		if err != nil {
			return nil, apperrors.NewStore("failed to search applicants", err)
		}
		for _, a := range applicants {
			found = append(found, a.Recipient())
		}
	default:
		return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid audience %q", audience), nil)
	}

	out := make([]model.Recipient, 0, len(found))
	for _, rec := range found {
		if skip[rec.ID] {
			continue
		}
		out = append(out, rec)
		if len(out) == SearchLimit {
			break
		}
	}
	return out, nil
}

// Contacts resolves contact points for exactly ids within audience.
func (r *Resolver) Contacts(ctx context.Context, audience model.Audience, ids []uuid.UUID) ([]model.Contact, error) {
	var (
		contacts []model.Contact
		err      error
	)
	switch audience {
	case model.AudienceStudents:
		contacts, err = r.students.ContactsByIDs(ctx, ids)
	case model.AudienceApplicants:
		contacts, err = r.applicants.ContactsByIDs(ctx, ids)
	default:
		return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid audience %q", audience), nil)
	}
	if err != nil {
		return nil, apperrors.NewStore("failed to resolve contacts", err)
	}
	return contacts, nil
}
