// Package repository provides CRUD access to projects and their section lists.
package repository

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/mkarelin/docforge/internal/errs"
	"github.com/mkarelin/docforge/internal/model"
	"github.com/mkarelin/docforge/internal/transport"
)

// Projects is the repository client over /projects.
type Projects struct {
	tr  *transport.Client
	log *zap.Logger
}

// NewProjects constructs the repository client.
func NewProjects(tr *transport.Client, log *zap.Logger) *Projects {
	return &Projects{tr: tr, log: log}
}

// List returns the caller's project summaries.
func (r *Projects) List(ctx context.Context) ([]model.ProjectSummary, error) {
	var out []model.ProjectSummary
	if err := r.tr.GetJSON(ctx, "/projects/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one project with its full section list, ordered by index.
// The returned snapshot is the authoritative view; callers replace any locally
// patched state with it wholesale.
func (r *Projects) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var p model.Project
	if err := r.tr.GetJSON(ctx, "/projects/"+id.String(), &p); err != nil {
		return nil, err
	}
	p.SortSections()
	return &p, nil
}

type createRequest struct {
	Title    string               `json:"title"`
	Topic    string               `json:"topic"`
	DocType  model.DocType        `json:"doc_type"`
	Sections []model.SectionDraft `json:"sections"`
}

// Create submits a new project with a fully specified section list.
// Preconditions are checked client-side and fail before any network call:
// non-empty title, a valid doc type, a non-empty section list with non-empty
// titles, and order indexes forming a dense 0..n-1 range.
func (r *Projects) Create(ctx context.Context, title, topic string, docType model.DocType, sections []model.SectionDraft) (*model.Project, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: empty project title", errs.ErrValidation)
	}
	if !docType.Valid() {
		return nil, fmt.Errorf("%w: unknown doc type %q", errs.ErrValidation, docType)
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("%w: project needs at least one section", errs.ErrValidation)
	}
	seen := make([]bool, len(sections))
	for i, s := range sections {
		if s.Title == "" {
			return nil, fmt.Errorf("%w: section %d has empty title", errs.ErrValidation, i)
		}
		if s.OrderIndex < 0 || s.OrderIndex >= len(sections) || seen[s.OrderIndex] {
			return nil, fmt.Errorf("%w: order indexes must form a dense 0..%d range", errs.ErrValidation, len(sections)-1)
		}
		seen[s.OrderIndex] = true
	}

	req := createRequest{Title: title, Topic: topic, DocType: docType, Sections: sections}
	var p model.Project
	if err := r.tr.PostJSON(ctx, "/projects/", req, &p); err != nil {
		return nil, err
	}
	p.SortSections()
	r.log.Info("project created",
		zap.String("id", p.ID.String()),
		zap.String("doc_type", string(p.DocType)),
		zap.Int("sections", len(p.Sections)),
	)
	return &p, nil
}

// Delete removes a project and all its sections. Deleting an absent project
// reports ErrNotFound.
func (r *Projects) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.tr.Delete(ctx, "/projects/"+id.String()); err != nil {
		return err
	}
	r.log.Info("project deleted", zap.String("id", id.String()))
	return nil
}
