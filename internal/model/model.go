// Package model defines domain entities shared by the repository, orchestration
// and export layers.
package model

import (
	"sort"
	"time"

	"github.com/gofrs/uuid/v5"
)

// DocType selects the artifact kind a project renders to.
type DocType string

const (
	// DocTypeDocument is a word-processor style document.
	DocTypeDocument DocType = "document"
	// DocTypePresentation is a slide-deck style document.
	DocTypePresentation DocType = "presentation"
)

// Valid reports whether d is one of the known document types.
func (d DocType) Valid() bool {
	return d == DocTypeDocument || d == DocTypePresentation
}

// Ext is the file extension an exported artifact carries.
func (d DocType) Ext() string { return string(d) }

// Rating is a lightweight reaction to a section's content.
type Rating string

const (
	RatingLike    Rating = "like"
	RatingDislike Rating = "dislike"
	RatingNone    Rating = "none"
)

// Valid reports whether r is one of the known ratings.
func (r Rating) Valid() bool {
	return r == RatingLike || r == RatingDislike || r == RatingNone
}

// Section is one titled content unit (a document section or a slide).
// Content is nil until generation has run for its project.
type Section struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Content    *string   `json:"content"`
	OrderIndex int       `json:"order_index"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasContent reports whether the section has generated text.
func (s *Section) HasContent() bool {
	return s.Content != nil && *s.Content != ""
}

// SetContent replaces the section body.
func (s *Section) SetContent(text string) {
	s.Content = &text
}

// Project is a user-owned document or presentation composed of ordered sections.
type Project struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Topic     string    `json:"topic"`
	DocType   DocType   `json:"doc_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Sections  []Section `json:"sections"`
}

// SortSections orders the section list by OrderIndex ascending.
func (p *Project) SortSections() {
	sort.SliceStable(p.Sections, func(i, j int) bool {
		return p.Sections[i].OrderIndex < p.Sections[j].OrderIndex
	})
}

// Section returns the section with the given id, or nil.
func (p *Project) Section(id uuid.UUID) *Section {
	for i := range p.Sections {
		if p.Sections[i].ID == id {
			return &p.Sections[i]
		}
	}
	return nil
}

// Populated reports whether every section has content (the project has been
// fully generated at least once).
func (p *Project) Populated() bool {
	if len(p.Sections) == 0 {
		return false
	}
	for i := range p.Sections {
		if !p.Sections[i].HasContent() {
			return false
		}
	}
	return true
}

// AnyContent reports whether at least one section has content.
func (p *Project) AnyContent() bool {
	for i := range p.Sections {
		if p.Sections[i].HasContent() {
			return true
		}
	}
	return false
}

// ProjectSummary is the list-view shape returned by the project index.
type ProjectSummary struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	DocType      DocType   `json:"doc_type"`
	CreatedAt    time.Time `json:"created_at"`
	SectionCount int       `json:"section_count"`
}

// SectionDraft is a section heading submitted at project creation, before the
// server has assigned ids.
type SectionDraft struct {
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index"`
}

// Feedback is an ephemeral rating/comment attached to a section; it is sent
// once and never retained client-side.
type Feedback struct {
	SectionID uuid.UUID `json:"section_id"`
	Rating    Rating    `json:"feedback"`
	Comment   string    `json:"comment,omitempty"`
}
