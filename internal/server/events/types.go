package events

import (
	"time"
)

// EventType defines the type of event
type EventType string

const (
	// Document events
	EventDocsGenerated   EventType = "docs:generated"
	EventDocsRegenerated EventType = "docs:regenerated"
	EventDocsPushed      EventType = "docs:pushed"
	EventDocsPushFailed  EventType = "docs:push_failed"

	// Notification events
	EventNotificationCreated EventType = "notification:created"

	eventConnected EventType = "connection:established"
)

// Event represents a real-time event
type Event struct {
	Type        EventType   `json:"type"`
	Timestamp   time.Time   `json:"timestamp"`
	ProjectID   int64       `json:"projectId,omitempty"`
	ProjectSlug string      `json:"projectSlug,omitempty"`
	Data        interface{} `json:"data,omitempty"`
}

// NewEvent creates a new event
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// WithProject tags the event with a project
func (e *Event) WithProject(id int64, slug string) *Event {
	e.ProjectID = id
	e.ProjectSlug = slug
	return e
}

// DocsGeneratedData is sent after starter docs are generated
type DocsGeneratedData struct {
	DocsCreated int    `json:"docsCreated"`
	DocsUpdated int    `json:"docsUpdated,omitempty"`
	Forced      bool   `json:"forced,omitempty"`
	AutoPushed  bool   `json:"autoPushed"`
	CommitSHA   string `json:"commitSha,omitempty"`
}

// DocsRegeneratedData is sent after templated docs are refreshed
type DocsRegeneratedData struct {
	DocsUpdated int `json:"docsUpdated"`
}

// DocsPushedData is sent after a successful publish
type DocsPushedData struct {
	TargetRepo string `json:"targetRepo"`
	TargetPath string `json:"targetPath"`
	CommitSHA  string `json:"commitSha"`
	CommitURL  string `json:"commitUrl,omitempty"`
	Trigger    string `json:"trigger"`
}

// DocsPushFailedData is sent after a failed publish
type DocsPushFailedData struct {
	TargetRepo string `json:"targetRepo"`
	TargetPath string `json:"targetPath"`
	Error      string `json:"error"`
	Trigger    string `json:"trigger"`
}

// NotificationData is sent when operators are notified
type NotificationData struct {
	BatchID    string `json:"batchId"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Recipients int    `json:"recipients"`
}
