package server

import (
	"net/http"

	"github.com/TRIADBLUE/consoleblue/internal/publish"
	"github.com/TRIADBLUE/consoleblue/internal/pushlog"
)

// RegisterPushRoutes registers preview, push, history and generation routes
func (s *Server) RegisterPushRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/projects/{idOrSlug}/docs/push/preview", s.previewDocs)
	mux.HandleFunc("POST /api/projects/{idOrSlug}/docs/push", s.pushDocs)
	mux.HandleFunc("GET /api/projects/{idOrSlug}/docs/push/history", s.pushHistory)
	mux.HandleFunc("POST /api/projects/{idOrSlug}/docs/generate", s.generateDocs)
	mux.HandleFunc("POST /api/projects/{idOrSlug}/docs/generate/regenerate", s.regenerateDocs)
}

func (s *Server) previewDocs(w http.ResponseWriter, r *http.Request) {
	p, err := s.resolveProject(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	preview, err := s.deps.Assembler.Assemble(r.Context(), p.ID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, preview)
}

func (s *Server) pushDocs(w http.ResponseWriter, r *http.Request) {
	p, err := s.resolveProject(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	var req pushRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	res, err := s.deps.Publisher.Publish(r.Context(), publish.Request{
		ProjectID:     p.ID,
		TargetPath:    req.TargetPath,
		CommitMessage: req.CommitMessage,
		Trigger:       pushlog.TriggerManual,
	})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, pushResponse{Success: true, CommitSHA: res.CommitSHA, CommitURL: res.CommitURL})
}

func (s *Server) pushHistory(w http.ResponseWriter, r *http.Request) {
	p, err := s.resolveProject(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	page, err := s.deps.Publisher.History(r.Context(), p.ID, limit, offset)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, page)
}

func (s *Server) generateDocs(w http.ResponseWriter, r *http.Request) {
	p, err := s.resolveProject(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	res, err := s.deps.Generator.GenerateStarterDocs(r.Context(), p.ID, req.Force)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, generateResponse{
		Success:     true,
		ProjectSlug: p.Slug,
		ProjectName: p.DisplayName,
		Result:      res,
	})
}

func (s *Server) regenerateDocs(w http.ResponseWriter, r *http.Request) {
	p, err := s.resolveProject(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	updated, err := s.deps.Generator.Regenerate(r.Context(), p.ID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, regenerateResponse{Success: true, ProjectSlug: p.Slug, DocsUpdated: updated})
}
