// Package generator turns templates into stored project fragments and runs
// the follow-up publish and notification steps.
package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/TRIADBLUE/consoleblue/internal/errors"
	"github.com/TRIADBLUE/consoleblue/internal/fragment"
	"github.com/TRIADBLUE/consoleblue/internal/notification"
	"github.com/TRIADBLUE/consoleblue/internal/project"
	"github.com/TRIADBLUE/consoleblue/internal/publish"
	"github.com/TRIADBLUE/consoleblue/internal/pushlog"
	"github.com/TRIADBLUE/consoleblue/internal/server/events"
	"github.com/TRIADBLUE/consoleblue/internal/template"
)

// Projects resolves project snapshots
type Projects interface {
	GetByID(ctx context.Context, id int64) (*project.Project, error)
}

// Fragments is the part of the document store the orchestrator writes to
type Fragments interface {
	InsertIfAbsent(ctx context.Context, projectID int64, f fragment.Fragment) (bool, error)
	Overwrite(ctx context.Context, projectID int64, slug, title, content string, order int) (bool, error)
	UpdateContent(ctx context.Context, projectID int64, slug, content string) (bool, error)
	CountProjectDocs(ctx context.Context, projectID int64) (int, error)
}

// Publisher commits assembled documents
type Publisher interface {
	Configured() bool
	Publish(ctx context.Context, req publish.Request) (*publish.Result, error)
}

// Notifier fans a message out to operators
type Notifier interface {
	Broadcast(ctx context.Context, m notification.Message) int
}

// Result reports what a generate call did
type Result struct {
	DocsCreated       int    `json:"docsCreated"`
	DocsUpdated       int    `json:"docsUpdated,omitempty"`
	DocsSkipped       int    `json:"docsSkipped"`
	NotificationsSent int    `json:"notificationsSent"`
	AutoPushed        bool   `json:"autoPushed"`
	CommitSHA         string `json:"commitSha,omitempty"`
}

// Options configures the orchestrator
type Options struct {
	AutoPush   bool
	TargetPath string
	Events     *events.Publisher
	Logger     *slog.Logger
}

// Service is the generation orchestrator
type Service struct {
	projects  Projects
	fragments Fragments
	generator *template.Generator
	publisher Publisher
	notifier  Notifier
	opts      Options
	log       *slog.Logger
}

// NewService creates the orchestrator. publisher and notifier may be nil to
// skip auto-push and notifications.
func NewService(projects Projects, fragments Fragments, gen *template.Generator, publisher Publisher, notifier Notifier, opts Options) *Service {
	if opts.TargetPath == "" {
		opts.TargetPath = publish.DefaultTargetPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		projects:  projects,
		fragments: fragments,
		generator: gen,
		publisher: publisher,
		notifier:  notifier,
		opts:      opts,
		log:       logger,
	}
}

// GenerateForNewProject stores every template fragment the project does not
// have yet. When something was created it notifies operators and, if the
// project has a repository, publishes. A failed auto-push is recorded in the
// push history and logged; it never fails the call.
func (s *Service) GenerateForNewProject(ctx context.Context, projectID int64) (*Result, error) {
	p, docs, err := s.render(ctx, projectID)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, d := range docs {
		created, err := s.fragments.InsertIfAbsent(ctx, p.ID, fragment.Fragment{
			Slug:         d.Slug,
			Title:        d.Title,
			Content:      d.Content,
			DisplayOrder: d.DisplayOrder,
			Enabled:      true,
			Origin:       fragment.OriginGenerated,
		})
		if err != nil {
			return nil, err
		}
		if created {
			res.DocsCreated++
		} else {
			res.DocsSkipped++
			s.log.Debug("starter doc exists, skipped", "project", p.Slug, "slug", d.Slug)
		}
	}

	if res.DocsCreated == 0 {
		s.log.Info("starter docs already present", "project", p.Slug, "skipped", res.DocsSkipped)
		return res, nil
	}

	s.log.Info("starter docs generated", "project", p.Slug, "created", res.DocsCreated, "skipped", res.DocsSkipped)
	defer func() {
		s.opts.Events.PublishDocsGenerated(p.ID, p.Slug, events.DocsGeneratedData{
			DocsCreated: res.DocsCreated,
			AutoPushed:  res.AutoPushed,
			CommitSHA:   res.CommitSHA,
		})
	}()
	res.NotificationsSent += s.notify(ctx, notification.Message{
		Type:    notification.TypeDocsGenerated,
		Title:   fmt.Sprintf("Onboarding docs generated for %s", p.DisplayName),
		Message: fmt.Sprintf("%d starter documents were created for %s. Review them before the next push.", res.DocsCreated, p.DisplayName),
		Metadata: map[string]any{
			notification.MetaProjectID:   p.ID,
			notification.MetaProjectSlug: p.Slug,
			notification.MetaRequiresAck: true,
			"docsCreated":                res.DocsCreated,
		},
		ProjectID: p.ID,
	})

	if !s.canAutoPush(p) {
		return res, nil
	}
	out, err := s.publisher.Publish(ctx, publish.Request{
		ProjectID:  p.ID,
		TargetPath: s.opts.TargetPath,
		Trigger:    pushlog.TriggerAuto,
	})
	if err != nil {
		s.log.Warn("auto-push failed", "project", p.Slug, "error", err)
		return res, nil
	}

	res.AutoPushed = true
	res.CommitSHA = out.CommitSHA
	res.NotificationsSent += s.notify(ctx, notification.Message{
		Type:    notification.TypeDocsPushed,
		Title:   fmt.Sprintf("%s pushed for %s", s.opts.TargetPath, p.DisplayName),
		Message: fmt.Sprintf("Commit %s is live in %s.", shortSHA(out.CommitSHA), p.GithubRepo),
		Metadata: map[string]any{
			notification.MetaProjectID:   p.ID,
			notification.MetaProjectSlug: p.Slug,
			"commitSha":                  out.CommitSHA,
			"commitUrl":                  out.CommitURL,
		},
		ProjectID: p.ID,
	})
	return res, nil
}

// GenerateStarterDocs is the operator-facing generate action. Without force
// it refuses to touch a project that already has fragments. With force it
// rewrites title, content and order of templated fragments and creates the
// missing ones; other fragments are left alone.
func (s *Service) GenerateStarterDocs(ctx context.Context, projectID int64, force bool) (*Result, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	n, err := s.fragments.CountProjectDocs(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return s.GenerateForNewProject(ctx, projectID)
	}
	if !force {
		return nil, errors.Conflict("project already has %d docs; pass force to overwrite generated docs", n)
	}

	p, docs, err := s.render(ctx, projectID)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	for _, d := range docs {
		updated, err := s.fragments.Overwrite(ctx, p.ID, d.Slug, d.Title, d.Content, d.DisplayOrder)
		if err != nil {
			return nil, err
		}
		if updated {
			res.DocsUpdated++
			continue
		}
		created, err := s.fragments.InsertIfAbsent(ctx, p.ID, fragment.Fragment{
			Slug:         d.Slug,
			Title:        d.Title,
			Content:      d.Content,
			DisplayOrder: d.DisplayOrder,
			Enabled:      true,
			Origin:       fragment.OriginGenerated,
		})
		if err != nil {
			return nil, err
		}
		if created {
			res.DocsCreated++
		}
	}

	s.log.Info("starter docs regenerated with force", "project", p.Slug, "created", res.DocsCreated, "updated", res.DocsUpdated)
	s.opts.Events.PublishDocsGenerated(p.ID, p.Slug, events.DocsGeneratedData{
		DocsCreated: res.DocsCreated,
		DocsUpdated: res.DocsUpdated,
		Forced:      true,
	})
	return res, nil
}

// Regenerate refreshes the content of templated fragments that still
// exist. It never creates fragments and never publishes.
func (s *Service) Regenerate(ctx context.Context, projectID int64) (int, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return 0, err
	}
	docs, err := s.generator.GenerateAll(p)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, d := range docs {
		ok, err := s.fragments.UpdateContent(ctx, p.ID, d.Slug, d.Content)
		if err != nil {
			return updated, err
		}
		if ok {
			updated++
		}
	}

	s.log.Info("docs regenerated", "project", p.Slug, "updated", updated)
	s.opts.Events.PublishDocsRegenerated(p.ID, p.Slug, updated)
	return updated, nil
}

func (s *Service) render(ctx context.Context, projectID int64) (*project.Project, []template.Doc, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	docs, err := s.generator.Generate(p)
	if err != nil {
		return nil, nil, err
	}
	return p, docs, nil
}

func (s *Service) canAutoPush(p *project.Project) bool {
	if !s.opts.AutoPush || s.publisher == nil {
		return false
	}
	if !p.HasRepo() {
		s.log.Debug("auto-push skipped: no repository", "project", p.Slug)
		return false
	}
	if !s.publisher.Configured() {
		s.log.Debug("auto-push skipped: version control not configured", "project", p.Slug)
		return false
	}
	return true
}

func (s *Service) notify(ctx context.Context, m notification.Message) int {
	if s.notifier == nil {
		return 0
	}
	return s.notifier.Broadcast(ctx, m)
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
