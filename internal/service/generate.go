package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/mkarelin/docforge/internal/errs"
	"github.com/mkarelin/docforge/internal/model"
	"github.com/mkarelin/docforge/internal/transport"
)

const defaultOutlineItems = 5

// Generator orchestrates outline suggestion, bulk content generation,
// per-section refinement and feedback for one project at a time. It holds the
// last fetched project snapshot and the staged per-section editor text
// (refinement prompts and feedback comments).
//
// Admission policy: one bulk generation per project and one refinement per
// section may be outstanding; a second trigger is rejected with ErrInFlight,
// never queued. Operations on distinct sections proceed independently.
type Generator struct {
	tr  *transport.Client
	log *zap.Logger

	mu       sync.Mutex
	project  *model.Project
	prompts  map[uuid.UUID]string
	comments map[uuid.UUID]string

	gen    *tracker // keyed by project id
	refine *tracker // keyed by section id
}

// NewGenerator constructs the orchestrator.
func NewGenerator(tr *transport.Client, log *zap.Logger) *Generator {
	return &Generator{
		tr:       tr,
		log:      log,
		prompts:  make(map[uuid.UUID]string),
		comments: make(map[uuid.UUID]string),
		gen:      newTracker(),
		refine:   newTracker(),
	}
}

// LoadProject adopts a freshly fetched snapshot. A full re-fetch always wins
// over locally patched section content.
func (g *Generator) LoadProject(p *model.Project) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.project = p
}

// Project returns the current snapshot, or nil before the first load.
func (g *Generator) Project() *model.Project {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.project
}

// State derives the lifecycle position of the loaded project.
func (g *Generator) State() ProjectState {
	g.mu.Lock()
	p := g.project
	g.mu.Unlock()
	if p == nil {
		return StateDraft
	}
	if g.gen.status(p.ID) == StatusInFlight {
		return StateGenerating
	}
	if p.Populated() {
		return StatePopulated
	}
	return StateDraft
}

// GenerationStatus reports the bulk-generation status for a project.
func (g *Generator) GenerationStatus(projectID uuid.UUID) Status {
	return g.gen.status(projectID)
}

// RefineStatus reports the refinement status for a section.
func (g *Generator) RefineStatus(sectionID uuid.UUID) Status {
	return g.refine.status(sectionID)
}

type outlineRequest struct {
	Topic    string        `json:"topic"`
	DocType  model.DocType `json:"doc_type"`
	NumItems int           `json:"num_items"`
}

type outlineResponse struct {
	Headings []string `json:"headings"`
}

// SuggestOutline asks the backend for an ordered list of section headings.
// Pure request/response; nothing stored server-side. The AI model is not
// deterministic: identical input may yield different headings, and the latest
// response is always the new truth.
func (g *Generator) SuggestOutline(ctx context.Context, topic string, docType model.DocType, count int) ([]string, error) {
	if topic == "" {
		return nil, fmt.Errorf("%w: empty topic", errs.ErrValidation)
	}
	if !docType.Valid() {
		return nil, fmt.Errorf("%w: unknown doc type %q", errs.ErrValidation, docType)
	}
	if count <= 0 {
		count = defaultOutlineItems
	}
	var out outlineResponse
	err := g.tr.PostJSON(ctx, "/generate/outline",
		outlineRequest{Topic: topic, DocType: docType, NumItems: count}, &out)
	if err != nil {
		return nil, err
	}
	return out.Headings, nil
}

type generateRequest struct {
	ProjectID uuid.UUID `json:"project_id"`
}

// GenerateAll triggers server-side content generation for every section of the
// project in one coarse-grained call. On success the caller must re-fetch the
// project to obtain the per-section content; on failure the project stays
// draft and the whole call is safe to retry.
func (g *Generator) GenerateAll(ctx context.Context, projectID uuid.UUID) error {
	if projectID == uuid.Nil {
		return fmt.Errorf("%w: empty project id", errs.ErrValidation)
	}
	if !g.gen.begin(projectID) {
		return fmt.Errorf("%w: generation already running for project %s", errs.ErrInFlight, projectID)
	}

	// The response is a per-section result list, but it only serves as a
	// success marker; the re-fetched project is the authoritative content.
	err := g.tr.PostJSON(ctx, "/generate/content", generateRequest{ProjectID: projectID}, nil)
	g.gen.finish(projectID, err == nil)
	if err != nil {
		return err
	}
	g.log.Info("content generated", zap.String("project", projectID.String()))
	return nil
}

// StagePrompt stores the pending refinement instruction for a section.
func (g *Generator) StagePrompt(sectionID uuid.UUID, text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts[sectionID] = text
}

// StagedPrompt returns the pending refinement instruction for a section.
func (g *Generator) StagedPrompt(sectionID uuid.UUID) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompts[sectionID]
}

type refineRequest struct {
	SectionID uuid.UUID `json:"section_id"`
	Prompt    string    `json:"prompt"`
}

type refineResponse struct {
	SectionID uuid.UUID `json:"section_id"`
	Content   string    `json:"content"`
}

// RefineSection rewrites one section's existing content per the instruction.
// Preconditions fail before any network call: the section must be part of the
// loaded snapshot with content already present, and the instruction must be
// non-empty. On success the snapshot's section is patched with the returned
// content and the staged prompt is cleared; on failure the previous content
// and the staged prompt are left untouched.
func (g *Generator) RefineSection(ctx context.Context, sectionID uuid.UUID, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: empty refinement instruction", errs.ErrValidation)
	}
	g.mu.Lock()
	var sec *model.Section
	if g.project != nil {
		sec = g.project.Section(sectionID)
	}
	if sec == nil {
		g.mu.Unlock()
		return "", fmt.Errorf("%w: section %s is not part of the loaded project", errs.ErrValidation, sectionID)
	}
	if !sec.HasContent() {
		g.mu.Unlock()
		return "", fmt.Errorf("%w: section %s has no content to refine", errs.ErrValidation, sectionID)
	}
	g.mu.Unlock()

	if !g.refine.begin(sectionID) {
		return "", fmt.Errorf("%w: refinement already running for section %s", errs.ErrInFlight, sectionID)
	}

	var out refineResponse
	err := g.tr.PostJSON(ctx, "/generate/refine", refineRequest{SectionID: sectionID, Prompt: prompt}, &out)
	g.refine.finish(sectionID, err == nil)
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	if g.project != nil {
		if s := g.project.Section(sectionID); s != nil {
			s.SetContent(out.Content)
		}
	}
	delete(g.prompts, sectionID)
	g.mu.Unlock()

	g.log.Info("section refined", zap.String("section", sectionID.String()))
	return out.Content, nil
}

// StageComment stores the pending feedback comment for a section.
func (g *Generator) StageComment(sectionID uuid.UUID, text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.comments[sectionID] = text
}

// StagedComment returns the pending feedback comment for a section.
func (g *Generator) StagedComment(sectionID uuid.UUID) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.comments[sectionID]
}

// SubmitFeedback sends a rating and optional comment for a section. It never
// touches section content. A submission with no rating and no comment is
// rejected client-side instead of forwarding an ambiguous no-op. On success
// the staged comment is cleared; a failed submission leaves it staged and is
// logged, with no retry.
func (g *Generator) SubmitFeedback(ctx context.Context, sectionID uuid.UUID, rating model.Rating, comment string) error {
	if !rating.Valid() {
		return fmt.Errorf("%w: unknown rating %q", errs.ErrValidation, rating)
	}
	if rating == model.RatingNone && comment == "" {
		return fmt.Errorf("%w: feedback needs a rating or a comment", errs.ErrValidation)
	}

	fb := model.Feedback{SectionID: sectionID, Rating: rating, Comment: comment}
	if err := g.tr.PostJSON(ctx, "/generate/feedback", fb, nil); err != nil {
		// Best-effort telemetry: report, never roll back or retry.
		g.log.Warn("feedback submission failed",
			zap.String("section", sectionID.String()), zap.Error(err))
		return err
	}

	g.mu.Lock()
	delete(g.comments, sectionID)
	g.mu.Unlock()
	return nil
}
