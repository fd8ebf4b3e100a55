package server

import (
	"net/http"
)

// RegisterSSERoutes registers the event stream. Without an SSE server the
// routes answer 503.
func (s *Server) RegisterSSERoutes(mux *http.ServeMux) {
	sse := s.deps.Events.SSEServer()
	if sse == nil {
		mux.HandleFunc("GET /api/events", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "event stream disabled", http.StatusServiceUnavailable)
		})
		return
	}

	mux.Handle("GET /api/events", sse)
	mux.HandleFunc("GET /api/events/status", func(w http.ResponseWriter, r *http.Request) {
		s.jsonResponse(w, http.StatusOK, map[string]any{
			"connectedClients": sse.ClientCount(),
			"status":           "running",
		})
	})
}
