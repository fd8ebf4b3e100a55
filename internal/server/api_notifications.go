package server

import (
	"net/http"

	"github.com/TRIADBLUE/consoleblue/internal/audit"
	"github.com/TRIADBLUE/consoleblue/internal/errors"
)

// RegisterNotificationRoutes registers the current operator's notification routes
func (s *Server) RegisterNotificationRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/notifications", s.listNotifications)
	mux.HandleFunc("POST /api/notifications/{id}/read", s.markNotificationRead)
}

func operatorFrom(r *http.Request) (int64, error) {
	id := audit.UserFrom(r.Context())
	if id == 0 {
		return 0, errors.Validation(OperatorHeader, "header is required")
	}
	return id, nil
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := operatorFrom(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	list, unread, err := s.deps.Notifications.List(r.Context(), userID, limit)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"notifications": list,
		"unreadCount":   unread,
	})
}

func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, err := operatorFrom(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := s.deps.Notifications.MarkRead(r.Context(), userID, id); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}
