// Package publish commits a project's assembled document to its repository
// and records every attempt in the push history.
package publish

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TRIADBLUE/consoleblue/internal/assembly"
	"github.com/TRIADBLUE/consoleblue/internal/audit"
	"github.com/TRIADBLUE/consoleblue/internal/errors"
	"github.com/TRIADBLUE/consoleblue/internal/project"
	"github.com/TRIADBLUE/consoleblue/internal/pushlog"
	"github.com/TRIADBLUE/consoleblue/internal/server/events"
	"github.com/TRIADBLUE/consoleblue/internal/vcs"
)

// DefaultTargetPath is the file written when no path is given
const DefaultTargetPath = "CLAUDE.md"

// DefaultMessage returns the commit message used when none is given
func DefaultMessage(targetPath string) string {
	return fmt.Sprintf("Update %s via ConsoleBlue", targetPath)
}

// Projects resolves project snapshots
type Projects interface {
	GetByID(ctx context.Context, id int64) (*project.Project, error)
}

// Request is one publish call
type Request struct {
	ProjectID     int64
	TargetPath    string
	CommitMessage string
	Trigger       pushlog.Trigger
}

// Result is a successful publish
type Result struct {
	CommitSHA string         `json:"commitSha"`
	CommitURL string         `json:"commitUrl"`
	Entry     *pushlog.Entry `json:"-"`
}

// Options configures a Publisher
type Options struct {
	// Owner is used for projects without their own repository owner
	Owner string
	// Branch is used for projects without a default branch; empty means
	// the repository's own default
	Branch     string
	TargetPath string
	Timeout    time.Duration
	Audit      audit.Recorder
	Events     *events.Publisher
	Logger     *slog.Logger
}

// Publisher commits assembled documents
type Publisher struct {
	projects  Projects
	assembler *assembly.Assembler
	client    vcs.Client
	history   *pushlog.Service
	opts      Options
	log       *slog.Logger
}

// New creates a publisher
func New(projects Projects, assembler *assembly.Assembler, client vcs.Client, history *pushlog.Service, opts Options) *Publisher {
	if opts.TargetPath == "" {
		opts.TargetPath = DefaultTargetPath
	}
	if opts.Audit == nil {
		opts.Audit = audit.Nop{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		projects:  projects,
		assembler: assembler,
		client:    client,
		history:   history,
		opts:      opts,
		log:       logger,
	}
}

// Configured reports whether the version control client has credentials
func (p *Publisher) Configured() bool {
	return p.client.IsConfigured()
}

// Publish assembles the project's document and commits it. Once the
// preconditions pass, exactly one history entry is written whatever the
// outcome. A failed commit returns an E_PUBLISH_FAILED error carrying the
// client's message unchanged.
func (p *Publisher) Publish(ctx context.Context, req Request) (*Result, error) {
	proj, err := p.projects.GetByID(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if !proj.HasRepo() {
		return nil, errors.Newf(errors.ENotConfigured, "project %q has no repository linked", proj.Slug)
	}
	if !p.client.IsConfigured() {
		return nil, errors.New(errors.EServiceUnavailable, "version control client is not configured")
	}

	target := req.TargetPath
	if target == "" {
		target = p.opts.TargetPath
	}
	if err := vcs.ValidatePath(target); err != nil {
		return nil, err
	}
	message := req.CommitMessage
	if message == "" {
		message = DefaultMessage(target)
	}
	trigger := req.Trigger
	if trigger == "" {
		trigger = pushlog.TriggerManual
	}

	doc, err := p.assembler.AssembleForPublish(ctx, proj.ID)
	if err != nil {
		return nil, errors.Wrap(errors.EInternal, "assemble document", err)
	}

	commit, commitErr := p.commit(ctx, vcs.CommitRequest{
		Owner:   proj.Owner(p.opts.Owner),
		Repo:    proj.GithubRepo,
		Path:    target,
		Content: doc.AssembledContent,
		Message: message,
		Branch:  proj.Branch(p.opts.Branch),
	})

	entry := pushlog.Entry{
		ProjectID:        proj.ID,
		TargetRepo:       proj.GithubRepo,
		TargetPath:       target,
		AssembledContent: doc.AssembledContent,
		Trigger:          trigger,
		PushedBy:         audit.UserFrom(ctx),
	}
	if commitErr != nil {
		entry.Status = pushlog.StatusError
		entry.ErrorMessage = pushlog.String(commitErr.Error())
	} else {
		entry.Status = pushlog.StatusSuccess
		entry.CommitSHA = pushlog.String(commit.SHA)
		entry.CommitURL = pushlog.String(commit.URL)
	}

	// The history row is written even when the caller has gone away.
	saved, err := p.history.Append(context.WithoutCancel(ctx), entry)
	if err != nil {
		p.log.Error("record push history failed", "project", proj.Slug, "status", entry.Status, "error", err)
		if commitErr == nil {
			return nil, errors.Wrap(errors.EInternal, "record push history", err)
		}
	}

	p.opts.Audit.Record(ctx, audit.Entry{
		Action:     audit.ActionPublish,
		EntityType: audit.EntityDocPush,
		EntityID:   proj.ID,
		EntitySlug: proj.Slug,
		Metadata: map[string]any{
			"targetRepo": proj.GithubRepo,
			"targetPath": target,
			"status":     string(entry.Status),
			"trigger":    string(trigger),
		},
	})

	if commitErr != nil {
		p.log.Warn("publish failed", "project", proj.Slug, "path", target, "trigger", trigger, "error", commitErr)
		p.opts.Events.PublishDocsPushFailed(proj.ID, proj.Slug, events.DocsPushFailedData{
			TargetRepo: proj.GithubRepo,
			TargetPath: target,
			Error:      commitErr.Error(),
			Trigger:    string(trigger),
		})
		return nil, errors.Wrap(errors.EPublishFailed, commitErr.Error(), commitErr)
	}

	p.log.Info("published document", "project", proj.Slug, "path", target, "sha", commit.SHA, "trigger", trigger)
	p.opts.Events.PublishDocsPushed(proj.ID, proj.Slug, events.DocsPushedData{
		TargetRepo: proj.GithubRepo,
		TargetPath: target,
		CommitSHA:  commit.SHA,
		CommitURL:  commit.URL,
		Trigger:    string(trigger),
	})
	return &Result{CommitSHA: commit.SHA, CommitURL: commit.URL, Entry: saved}, nil
}

func (p *Publisher) commit(ctx context.Context, req vcs.CommitRequest) (*vcs.CommitResult, error) {
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}
	res, err := p.client.CommitFile(ctx, req)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("commit timed out after %s", p.opts.Timeout)
		}
		return nil, err
	}
	return res, nil
}

// History returns a page of the project's push history, newest first
func (p *Publisher) History(ctx context.Context, projectID int64, limit, offset int) (*pushlog.Page, error) {
	if _, err := p.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return p.history.List(ctx, projectID, limit, offset)
}
