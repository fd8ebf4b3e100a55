package server

import (
	"net/http"

	"github.com/TRIADBLUE/consoleblue/internal/fragment"
	"github.com/TRIADBLUE/consoleblue/internal/template"
)

// RegisterDocRoutes registers shared and project fragment routes
func (s *Server) RegisterDocRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/docs/shared", s.listSharedDocs)
	mux.HandleFunc("POST /api/docs/shared", s.createSharedDoc)
	mux.HandleFunc("POST /api/docs/shared/reorder", s.reorderSharedDocs)
	mux.HandleFunc("GET /api/docs/shared/{id}", s.getSharedDoc)
	mux.HandleFunc("PUT /api/docs/shared/{id}", s.updateSharedDoc)
	mux.HandleFunc("DELETE /api/docs/shared/{id}", s.deleteSharedDoc)

	mux.HandleFunc("GET /api/projects/{idOrSlug}/docs", s.listProjectDocs)
	mux.HandleFunc("POST /api/projects/{idOrSlug}/docs", s.createProjectDoc)
	mux.HandleFunc("POST /api/projects/{idOrSlug}/docs/reorder", s.reorderProjectDocs)
	mux.HandleFunc("GET /api/projects/{idOrSlug}/docs/{docId}", s.getProjectDoc)
	mux.HandleFunc("PUT /api/projects/{idOrSlug}/docs/{docId}", s.updateProjectDoc)
	mux.HandleFunc("DELETE /api/projects/{idOrSlug}/docs/{docId}", s.deleteProjectDoc)

	mux.HandleFunc("GET /api/doc-generator/templates", s.listTemplates)
}

func docsResponse(docs []fragment.Fragment) map[string]any {
	if docs == nil {
		docs = []fragment.Fragment{}
	}
	return map[string]any{"docs": docs}
}

// Shared docs

func (s *Server) listSharedDocs(w http.ResponseWriter, r *http.Request) {
	docs, err := s.deps.Fragments.ListSharedDocs(r.Context(), false)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, docsResponse(docs))
}

func (s *Server) createSharedDoc(w http.ResponseWriter, r *http.Request) {
	var in fragment.Input
	if err := decodeJSON(r, &in); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	doc, err := s.deps.Fragments.CreateSharedDoc(r.Context(), in)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, doc)
}

func (s *Server) getSharedDoc(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	doc, err := s.deps.Fragments.GetSharedDoc(r.Context(), id)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, doc)
}

func (s *Server) updateSharedDoc(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	var p fragment.Patch
	if err := decodeJSON(r, &p); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	doc, err := s.deps.Fragments.UpdateSharedDoc(r.Context(), id, p)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, doc)
}

func (s *Server) deleteSharedDoc(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := s.deps.Fragments.DeleteSharedDoc(r.Context(), id); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reorderSharedDocs(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	docs, err := s.deps.Fragments.ReorderSharedDocs(r.Context(), req.IDs)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, docsResponse(docs))
}

// Project docs

func (s *Server) listProjectDocs(w http.ResponseWriter, r *http.Request) {
	p, err := s.resolveProject(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	docs, err := s.deps.Fragments.ListProjectDocs(r.Context(), p.ID, false)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, docsResponse(docs))
}

func (s *Server) createProjectDoc(w http.ResponseWriter, r *http.Request) {
	p, err := s.resolveProject(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	var in fragment.Input
	if err := decodeJSON(r, &in); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	doc, err := s.deps.Fragments.CreateProjectDoc(r.Context(), p.ID, in)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, doc)
}

func (s *Server) getProjectDoc(w http.ResponseWriter, r *http.Request) {
	p, err := s.resolveProject(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	id, err := pathID(r, "docId")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	doc, err := s.deps.Fragments.GetProjectDoc(r.Context(), p.ID, id)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, doc)
}

func (s *Server) updateProjectDoc(w http.ResponseWriter, r *http.Request) {
	p, err := s.resolveProject(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	id, err := pathID(r, "docId")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	var patch fragment.Patch
	if err := decodeJSON(r, &patch); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	doc, err := s.deps.Fragments.UpdateProjectDoc(r.Context(), p.ID, id, patch)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, doc)
}

func (s *Server) deleteProjectDoc(w http.ResponseWriter, r *http.Request) {
	p, err := s.resolveProject(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	id, err := pathID(r, "docId")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := s.deps.Fragments.DeleteProjectDoc(r.Context(), p.ID, id); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reorderProjectDocs(w http.ResponseWriter, r *http.Request) {
	p, err := s.resolveProject(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	docs, err := s.deps.Fragments.ReorderProjectDocs(r.Context(), p.ID, req.IDs)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, docsResponse(docs))
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{"templates": template.List()})
}
