package server

import (
	"net/http"

	"github.com/TRIADBLUE/consoleblue/internal/project"
)

// RegisterProjectRoutes registers project routes
func (s *Server) RegisterProjectRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/projects", s.listProjects)
	mux.HandleFunc("POST /api/projects", s.createProject)
	mux.HandleFunc("GET /api/projects/{idOrSlug}", s.getProject)
	mux.HandleFunc("PUT /api/projects/{idOrSlug}", s.updateProject)
}

func (s *Server) resolveProject(r *http.Request) (*project.Project, error) {
	return s.deps.Projects.Get(r.Context(), r.PathValue("idOrSlug"))
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.deps.Projects.List(r.Context())
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if projects == nil {
		projects = []*project.Project{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.resolveProject(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, p)
}

// createProject stores the project and then generates its starter docs.
// Generation problems are logged; the project is created either way.
func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var in project.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	p, err := s.deps.Projects.Create(r.Context(), in)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	resp := projectCreatedResponse{Project: p}
	res, err := s.deps.Generator.GenerateForNewProject(r.Context(), p.ID)
	if err != nil {
		s.log.Warn("starter doc generation failed", "project", p.Slug, "error", err)
	} else {
		resp.Generation = res
		s.log.Info("generated starter docs", "project", p.Slug, "created", res.DocsCreated, "auto_pushed", res.AutoPushed)
	}

	s.jsonResponse(w, http.StatusCreated, resp)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	var in project.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	p, err := s.deps.Projects.Update(r.Context(), r.PathValue("idOrSlug"), in)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, p)
}
