// Package outline edits the section list of a project before creation,
// keeping order indexes dense and zero-based through every structural change.
package outline

import (
	"fmt"

	"github.com/mkarelin/docforge/internal/model"
)

// Builder accumulates section drafts for a new project. After any Add, Remove
// or Move the drafts' OrderIndex values are exactly 0..n-1 in slice order.
type Builder struct {
	drafts []model.SectionDraft
}

// New returns an empty builder.
func New() *Builder { return &Builder{} }

// FromHeadings seeds a builder from an ordered heading list, typically the
// result of an outline suggestion.
func FromHeadings(headings []string) *Builder {
	b := New()
	for _, h := range headings {
		b.Add(h)
	}
	return b
}

// Len reports the number of drafts.
func (b *Builder) Len() int { return len(b.drafts) }

// Add appends a section with the given title.
func (b *Builder) Add(title string) {
	b.drafts = append(b.drafts, model.SectionDraft{Title: title, OrderIndex: len(b.drafts)})
}

// Remove deletes the section at position i and renumbers the rest.
func (b *Builder) Remove(i int) error {
	if i < 0 || i >= len(b.drafts) {
		return fmt.Errorf("outline: remove index %d out of range [0,%d)", i, len(b.drafts))
	}
	b.drafts = append(b.drafts[:i], b.drafts[i+1:]...)
	b.renumber()
	return nil
}

// Move relocates the section at position from to position to,
// shifting the sections in between.
func (b *Builder) Move(from, to int) error {
	n := len(b.drafts)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("outline: move %d->%d out of range [0,%d)", from, to, n)
	}
	if from == to {
		return nil
	}
	d := b.drafts[from]
	rest := append(b.drafts[:from:from], b.drafts[from+1:]...)
	b.drafts = append(rest[:to:to], append([]model.SectionDraft{d}, rest[to:]...)...)
	b.renumber()
	return nil
}

// SetTitle renames the section at position i.
func (b *Builder) SetTitle(i int, title string) error {
	if i < 0 || i >= len(b.drafts) {
		return fmt.Errorf("outline: index %d out of range [0,%d)", i, len(b.drafts))
	}
	b.drafts[i].Title = title
	return nil
}

// Drafts returns a copy of the current section list, ready for submission.
func (b *Builder) Drafts() []model.SectionDraft {
	out := make([]model.SectionDraft, len(b.drafts))
	copy(out, b.drafts)
	return out
}

func (b *Builder) renumber() {
	for i := range b.drafts {
		b.drafts[i].OrderIndex = i
	}
}
