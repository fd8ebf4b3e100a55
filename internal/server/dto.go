package server

import (
	"github.com/TRIADBLUE/consoleblue/internal/generator"
	"github.com/TRIADBLUE/consoleblue/internal/project"
)

// pushRequest is the body of POST .../docs/push
type pushRequest struct {
	TargetPath    string `json:"targetPath,omitempty"`
	CommitMessage string `json:"commitMessage,omitempty"`
}

// pushResponse is a successful push
type pushResponse struct {
	Success   bool   `json:"success"`
	CommitSHA string `json:"commitSha"`
	CommitURL string `json:"commitUrl"`
}

// generateRequest is the body of POST .../docs/generate
type generateRequest struct {
	Force bool `json:"force,omitempty"`
}

// generateResponse reports a generate or regenerate call
type generateResponse struct {
	Success     bool   `json:"success"`
	ProjectSlug string `json:"projectSlug"`
	ProjectName string `json:"projectName,omitempty"`
	*generator.Result
}

type regenerateResponse struct {
	Success     bool   `json:"success"`
	ProjectSlug string `json:"projectSlug"`
	DocsUpdated int    `json:"docsUpdated"`
}

// reorderRequest lists fragment ids in their new order
type reorderRequest struct {
	IDs []int64 `json:"ids"`
}

// projectCreatedResponse is returned when a project is created. Generation
// is nil when starter docs could not be produced.
type projectCreatedResponse struct {
	Project    *project.Project  `json:"project"`
	Generation *generator.Result `json:"generation,omitempty"`
}
