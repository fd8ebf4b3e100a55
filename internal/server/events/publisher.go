package events

// Publisher publishes typed events to SSE clients. A nil Publisher drops
// everything.
type Publisher struct {
	sse *SSEServer
}

// NewPublisher creates a publisher backed by sse
func NewPublisher(sse *SSEServer) *Publisher {
	return &Publisher{sse: sse}
}

// SSEServer returns the underlying SSE server
func (p *Publisher) SSEServer() *SSEServer {
	if p == nil {
		return nil
	}
	return p.sse
}

// Publish publishes an event
func (p *Publisher) Publish(event *Event) {
	if p != nil && p.sse != nil {
		p.sse.Broadcast(event)
	}
}

// PublishDocsGenerated publishes a docs:generated event
func (p *Publisher) PublishDocsGenerated(projectID int64, slug string, data DocsGeneratedData) {
	p.Publish(NewEvent(EventDocsGenerated, data).WithProject(projectID, slug))
}

// PublishDocsRegenerated publishes a docs:regenerated event
func (p *Publisher) PublishDocsRegenerated(projectID int64, slug string, updated int) {
	p.Publish(NewEvent(EventDocsRegenerated, DocsRegeneratedData{DocsUpdated: updated}).WithProject(projectID, slug))
}

// PublishDocsPushed publishes a docs:pushed event
func (p *Publisher) PublishDocsPushed(projectID int64, slug string, data DocsPushedData) {
	p.Publish(NewEvent(EventDocsPushed, data).WithProject(projectID, slug))
}

// PublishDocsPushFailed publishes a docs:push_failed event
func (p *Publisher) PublishDocsPushFailed(projectID int64, slug string, data DocsPushFailedData) {
	p.Publish(NewEvent(EventDocsPushFailed, data).WithProject(projectID, slug))
}

// PublishNotification publishes a notification:created event
func (p *Publisher) PublishNotification(projectID int64, slug string, data NotificationData) {
	p.Publish(NewEvent(EventNotificationCreated, data).WithProject(projectID, slug))
}
