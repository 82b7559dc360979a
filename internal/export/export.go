// Package export obtains the rendered binary artifact for a project.
package export

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mkarelin/docforge/internal/errs"
	"github.com/mkarelin/docforge/internal/model"
	"github.com/mkarelin/docforge/internal/transport"
)

// Artifact is one exported document, named after the project and its doc type.
type Artifact struct {
	Filename string
	Data     []byte
}

// Client requests binary exports. Every call re-renders server-side; nothing
// is cached.
type Client struct {
	tr  *transport.Client
	log *zap.Logger
}

// New constructs the export client.
func New(tr *transport.Client, log *zap.Logger) *Client {
	return &Client{tr: tr, log: log}
}

// CanExport reports whether exporting is worth surfacing: at least one section
// has content. Advisory only; the backend does not forbid exporting an empty
// project.
func CanExport(p *model.Project) bool {
	return p != nil && p.AnyContent()
}

// Export fetches the rendered artifact for the project. The filename is
// "<title>.<docType>".
func (c *Client) Export(ctx context.Context, p *model.Project) (*Artifact, error) {
	if p == nil || p.ID.IsNil() {
		return nil, fmt.Errorf("%w: no project to export", errs.ErrValidation)
	}
	blob, err := c.tr.GetBinary(ctx, "/export/"+p.ID.String())
	if err != nil {
		return nil, err
	}
	a := &Artifact{
		Filename: fmt.Sprintf("%s.%s", p.Title, p.DocType.Ext()),
		Data:     blob,
	}
	c.log.Info("project exported",
		zap.String("project", p.ID.String()),
		zap.String("filename", a.Filename),
		zap.Int("bytes", len(a.Data)),
	)
	return a, nil
}
