package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SSEServer manages Server-Sent Events connections
type SSEServer struct {
	clients    map[string]*SSEClient
	register   chan *SSEClient
	unregister chan string
	broadcast  chan *Event
	done       chan struct{}
	mu         sync.RWMutex
	startOnce  sync.Once
	stopOnce   sync.Once

	// KeepAlive is the interval between keep-alive comments
	KeepAlive time.Duration
}

// SSEClient represents a connected client
type SSEClient struct {
	ID        string
	Events    chan *Event
	Filters   []EventType // Event types to receive (empty = all)
	ProjectID int64       // Only receive events for this project (0 = all)
}

// NewSSEServer creates a new SSE server
func NewSSEServer() *SSEServer {
	return &SSEServer{
		clients:    make(map[string]*SSEClient),
		register:   make(chan *SSEClient),
		unregister: make(chan string),
		broadcast:  make(chan *Event, 100),
		done:       make(chan struct{}),
		KeepAlive:  30 * time.Second,
	}
}

// Start starts the SSE server event loop
func (s *SSEServer) Start() {
	s.startOnce.Do(func() { go s.run() })
}

// Stop stops the event loop and disconnects every client
func (s *SSEServer) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *SSEServer) run() {
	for {
		select {
		case <-s.done:
			return

		case client := <-s.register:
			s.mu.Lock()
			s.clients[client.ID] = client
			s.mu.Unlock()

		case clientID := <-s.unregister:
			s.mu.Lock()
			delete(s.clients, clientID)
			s.mu.Unlock()

		case event := <-s.broadcast:
			s.mu.RLock()
			for _, client := range s.clients {
				if shouldSend(client, event) {
					select {
					case client.Events <- event:
					default:
						// Client buffer full, skip
					}
				}
			}
			s.mu.RUnlock()
		}
	}
}

func shouldSend(client *SSEClient, event *Event) bool {
	if client.ProjectID != 0 && event.ProjectID != 0 && client.ProjectID != event.ProjectID {
		return false
	}
	if len(client.Filters) > 0 {
		for _, f := range client.Filters {
			if f == event.Type {
				return true
			}
		}
		return false
	}
	return true
}

// Broadcast queues an event for every matching client. Events are dropped
// when the server is stopped or the queue is full.
func (s *SSEServer) Broadcast(event *Event) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.broadcast <- event:
	default:
	}
}

// ClientCount returns the number of connected clients
func (s *SSEServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ServeHTTP handles SSE connections.
// Query parameters: filter=<type,type>, project_id=<id>.
func (s *SSEServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Streams outlive the server's write timeout.
	http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var filters []EventType
	if f := r.URL.Query().Get("filter"); f != "" {
		for _, part := range strings.Split(f, ",") {
			filters = append(filters, EventType(strings.TrimSpace(part)))
		}
	}
	projectID, _ := strconv.ParseInt(r.URL.Query().Get("project_id"), 10, 64)

	client := &SSEClient{
		ID:        uuid.NewString(),
		Events:    make(chan *Event, 50),
		Filters:   filters,
		ProjectID: projectID,
	}

	select {
	case s.register <- client:
	case <-s.done:
		http.Error(w, "event stream closed", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}
	defer func() {
		select {
		case s.unregister <- client.ID:
		case <-s.done:
		}
	}()

	s.sendEvent(w, flusher, &Event{
		Type:      eventConnected,
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"clientId": client.ID,
			"filters":  filters,
		},
	})

	ticker := time.NewTicker(s.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		case event := <-client.Events:
			s.sendEvent(w, flusher, event)
		case <-ticker.C:
			fmt.Fprintf(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

func (s *SSEServer) sendEvent(w http.ResponseWriter, flusher http.Flusher, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\n", event.Type)
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
