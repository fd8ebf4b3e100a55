// Package assembly renders the onboarding document for a project from its
// enabled shared and project fragments. Output is recomputed on every call.
package assembly

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/TRIADBLUE/consoleblue/internal/fragment"
)

// Separator sits between adjacent sections
const Separator = "\n\n---\n\n"

// Marker is the first line of every published document
const Marker = "<!-- Auto-generated by ConsoleBlue. Do not edit this file by hand; changes are overwritten on the next push. -->"

const footerPrefix = "_Generated by ConsoleBlue at "

// Summary identifies a fragment included in an assembly
type Summary struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// Preview is the assembled document and the fragments it was built from
type Preview struct {
	AssembledContent string    `json:"assembledContent"`
	SharedDocs       []Summary `json:"sharedDocs"`
	ProjectDocs      []Summary `json:"projectDocs"`
}

// Empty reports whether no fragment contributed to the document
func (p *Preview) Empty() bool {
	return len(p.SharedDocs) == 0 && len(p.ProjectDocs) == 0
}

// Source lists fragments in assembly order
type Source interface {
	ListSharedDocs(ctx context.Context, enabledOnly bool) ([]fragment.Fragment, error)
	ListProjectDocs(ctx context.Context, projectID int64, enabledOnly bool) ([]fragment.Fragment, error)
}

// Assembler builds documents from a fragment source
type Assembler struct {
	src Source
	now func() time.Time
}

// Option configures an Assembler
type Option func(*Assembler)

// WithClock sets the time source used for the publish footer
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// New creates an assembler
func New(src Source, opts ...Option) *Assembler {
	a := &Assembler{src: src, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble renders the preview document: shared sections first, then
// project sections, each group in display order.
func (a *Assembler) Assemble(ctx context.Context, projectID int64) (*Preview, error) {
	shared, err := a.src.ListSharedDocs(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load shared docs: %w", err)
	}
	local, err := a.src.ListProjectDocs(ctx, projectID, true)
	if err != nil {
		return nil, fmt.Errorf("load project docs: %w", err)
	}

	sections := make([]string, 0, len(shared)+len(local))
	preview := &Preview{
		SharedDocs:  make([]Summary, 0, len(shared)),
		ProjectDocs: make([]Summary, 0, len(local)),
	}
	for _, f := range shared {
		if !f.Enabled {
			continue
		}
		sections = append(sections, Section(f.Title, f.Content))
		preview.SharedDocs = append(preview.SharedDocs, Summary{Title: f.Title, Slug: f.Slug})
	}
	for _, f := range local {
		if !f.Enabled {
			continue
		}
		sections = append(sections, Section(f.Title, f.Content))
		preview.ProjectDocs = append(preview.ProjectDocs, Summary{Title: f.Title, Slug: f.Slug})
	}
	preview.AssembledContent = strings.Join(sections, Separator)
	return preview, nil
}

// AssembleForPublish renders the document as it is committed, with the
// marker line and a timestamp footer around the preview body.
func (a *Assembler) AssembleForPublish(ctx context.Context, projectID int64) (*Preview, error) {
	p, err := a.Assemble(ctx, projectID)
	if err != nil {
		return nil, err
	}
	p.AssembledContent = Decorate(p.AssembledContent, a.now())
	return p, nil
}

// Section renders one fragment
func Section(title, content string) string {
	return "# " + title + "\n\n" + content
}

// Decorate wraps body with the marker and a footer stamped with at
func Decorate(body string, at time.Time) string {
	var b strings.Builder
	b.WriteString(Marker)
	b.WriteString("\n\n")
	if body != "" {
		b.WriteString(body)
		b.WriteString(Separator)
	}
	b.WriteString(footerPrefix)
	b.WriteString(at.UTC().Format(time.RFC3339))
	b.WriteString("_\n")
	return b.String()
}

// Body strips the marker and footer added by Decorate. Content without a
// marker is returned unchanged.
func Body(published string) string {
	if !strings.HasPrefix(published, Marker+"\n\n") {
		return published
	}
	rest := strings.TrimPrefix(published, Marker+"\n\n")
	i := strings.LastIndex(rest, footerPrefix)
	if i < 0 {
		return rest
	}
	return strings.TrimSuffix(rest[:i], Separator)
}
