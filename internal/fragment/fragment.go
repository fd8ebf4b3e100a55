// Package fragment is the document store for shared and project fragments.
//
// Shared fragments appear in every assembled document. Project fragments are
// scoped to one project and their slugs are unique per project. Both kinds
// are ordered by display order, with ties broken by id.
package fragment

import (
	"time"

	"github.com/TRIADBLUE/consoleblue/internal/errors"
	"github.com/TRIADBLUE/consoleblue/internal/project"
)

// Origin records who wrote a project fragment. It is informational;
// regeneration decides ownership by template slug.
type Origin string

const (
	OriginManual    Origin = "manual"
	OriginGenerated Origin = "generated"
)

// Fragment is one titled block of document content
type Fragment struct {
	ID           int64     `json:"id"`
	ProjectID    int64     `json:"projectId,omitempty"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	DisplayOrder int       `json:"displayOrder"`
	Enabled      bool      `json:"enabled"`
	Origin       Origin    `json:"origin,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Input is the payload for creating a fragment
type Input struct {
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	DisplayOrder *int   `json:"displayOrder,omitempty"`
	Enabled      *bool  `json:"enabled,omitempty"`
}

// Patch is a partial update. Nil fields are left as is.
type Patch struct {
	Slug         *string `json:"slug,omitempty"`
	Title        *string `json:"title,omitempty"`
	Content      *string `json:"content,omitempty"`
	DisplayOrder *int    `json:"displayOrder,omitempty"`
	Enabled      *bool   `json:"enabled,omitempty"`
}

// Validate checks a create payload
func (in Input) Validate() error {
	if err := project.ValidateSlug("slug", in.Slug); err != nil {
		return err
	}
	if err := project.ValidateTitle("title", in.Title); err != nil {
		return err
	}
	if in.DisplayOrder != nil && *in.DisplayOrder < 0 {
		return errors.Validation("displayOrder", "must be zero or greater")
	}
	return nil
}

// Validate checks the fields present in a patch
func (p Patch) Validate() error {
	if p.Slug != nil {
		if err := project.ValidateSlug("slug", *p.Slug); err != nil {
			return err
		}
	}
	if p.Title != nil {
		if err := project.ValidateTitle("title", *p.Title); err != nil {
			return err
		}
	}
	if p.DisplayOrder != nil && *p.DisplayOrder < 0 {
		return errors.Validation("displayOrder", "must be zero or greater")
	}
	return nil
}

func (p Patch) empty() bool {
	return p.Slug == nil && p.Title == nil && p.Content == nil && p.DisplayOrder == nil && p.Enabled == nil
}
