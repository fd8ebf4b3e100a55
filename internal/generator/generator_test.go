package generator

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/TRIADBLUE/consoleblue/internal/assembly"
	"github.com/TRIADBLUE/consoleblue/internal/audit"
	"github.com/TRIADBLUE/consoleblue/internal/db"
	"github.com/TRIADBLUE/consoleblue/internal/errors"
	"github.com/TRIADBLUE/consoleblue/internal/fragment"
	"github.com/TRIADBLUE/consoleblue/internal/notification"
	"github.com/TRIADBLUE/consoleblue/internal/operator"
	"github.com/TRIADBLUE/consoleblue/internal/project"
	"github.com/TRIADBLUE/consoleblue/internal/publish"
	"github.com/TRIADBLUE/consoleblue/internal/pushlog"
	"github.com/TRIADBLUE/consoleblue/internal/template"
	"github.com/TRIADBLUE/consoleblue/internal/vcs/vcstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	projects      *project.Service
	fragments     *fragment.Service
	history       *pushlog.Service
	notifications *notification.Service
	operator      *operator.Operator
	client        *vcstest.Fake
	gen           *template.Generator
	svc           *Service
}

func setup(t *testing.T, autoPush bool) *fixture {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	f := &fixture{
		projects:      project.NewService(database, audit.Nop{}),
		fragments:     fragment.NewService(database, audit.Nop{}),
		history:       pushlog.NewService(database, pushlog.Limits{}),
		notifications: notification.NewService(database),
		client:        vcstest.New(),
		gen:           template.NewGenerator(template.Options{}),
	}
	ops := operator.NewService(database)
	f.operator, err = ops.Create(context.Background(), "ops@triadblue.com", "Ops")
	require.NoError(t, err)

	pub := publish.New(f.projects, assembly.New(f.fragments), f.client, f.history, publish.Options{Owner: "triadblue"})
	bc := notification.NewBroadcaster(ops, f.notifications, nil, nil)
	f.svc = NewService(f.projects, f.fragments, f.gen, pub, bc, Options{AutoPush: autoPush})
	return f
}

func (f *fixture) project(t *testing.T, repo string) *project.Project {
	t.Helper()
	p, err := f.projects.Create(context.Background(), project.CreateInput{
		Slug:        "acme",
		DisplayName: "Acme",
		Description: "Widgets for everyone",
		GithubRepo:  repo,
		Tags:        []string{"go", "sqlite"},
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) templateCount(t *testing.T, p *project.Project) int {
	t.Helper()
	docs, err := f.gen.Generate(p)
	require.NoError(t, err)
	return len(docs)
}

func TestGenerateForNewProjectAutoPushes(t *testing.T) {
	f := setup(t, true)
	p := f.project(t, "acme-web")
	ctx := context.Background()

	res, err := f.svc.GenerateForNewProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, f.templateCount(t, p), res.DocsCreated)
	assert.True(t, res.AutoPushed)
	assert.NotEmpty(t, res.CommitSHA)
	assert.Equal(t, 2, res.NotificationsSent)

	page, err := f.history.List(ctx, p.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, pushlog.StatusSuccess, page.Entries[0].Status)
	assert.Equal(t, pushlog.TriggerAuto, page.Entries[0].Trigger)
	assert.Equal(t, res.CommitSHA, *page.Entries[0].CommitSHA)

	list, unread, err := f.notifications.List(ctx, f.operator.ID, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, unread)
}

func TestGenerateForNewProjectIsIdempotent(t *testing.T) {
	f := setup(t, true)
	p := f.project(t, "acme-web")
	ctx := context.Background()

	first, err := f.svc.GenerateForNewProject(ctx, p.ID)
	require.NoError(t, err)
	count, err := f.fragments.CountProjectDocs(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, first.DocsCreated, count)

	assert.Equal(t, 0, first.DocsSkipped)

	second, err := f.svc.GenerateForNewProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.DocsCreated)
	assert.Equal(t, count, second.DocsSkipped)
	assert.False(t, second.AutoPushed)
	assert.Equal(t, 0, second.NotificationsSent)

	after, err := f.fragments.CountProjectDocs(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, count, after)
	assert.Len(t, f.client.Calls(), 1)
}

func TestGenerateForNewProjectKeepsExistingContent(t *testing.T) {
	f := setup(t, false)
	p := f.project(t, "")
	ctx := context.Background()

	_, err := f.fragments.CreateProjectDoc(ctx, p.ID, fragment.Input{Slug: "overview", Title: "Mine", Content: "hand written"})
	require.NoError(t, err)

	res, err := f.svc.GenerateForNewProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, f.templateCount(t, p)-1, res.DocsCreated)
	assert.False(t, res.AutoPushed)

	doc, err := f.fragments.GetProjectDocBySlug(ctx, p.ID, "overview")
	require.NoError(t, err)
	assert.Equal(t, "hand written", doc.Content)
	assert.Equal(t, "Mine", doc.Title)
}

func TestAutoPushFailureIsSwallowed(t *testing.T) {
	f := setup(t, true)
	p := f.project(t, "acme-web")
	f.client.Err = fmt.Errorf("422 sha mismatch")
	ctx := context.Background()

	res, err := f.svc.GenerateForNewProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Greater(t, res.DocsCreated, 0)
	assert.False(t, res.AutoPushed)
	assert.Empty(t, res.CommitSHA)
	assert.Equal(t, 1, res.NotificationsSent)

	page, err := f.history.List(ctx, p.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, pushlog.StatusError, page.Entries[0].Status)
	assert.Equal(t, "422 sha mismatch", *page.Entries[0].ErrorMessage)
}

func TestNoAutoPushWithoutRepoOrClient(t *testing.T) {
	f := setup(t, true)
	p := f.project(t, "")

	res, err := f.svc.GenerateForNewProject(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, res.AutoPushed)
	assert.Empty(t, f.client.Calls())

	f2 := setup(t, true)
	f2.client.Configured = false
	p2 := f2.project(t, "acme-web")
	res, err = f2.svc.GenerateForNewProject(context.Background(), p2.ID)
	require.NoError(t, err)
	assert.False(t, res.AutoPushed)
	assert.Empty(t, f2.client.Calls())
}

func TestRegenerateOnlyTouchesTemplatedSlugs(t *testing.T) {
	f := setup(t, false)
	p := f.project(t, "")
	ctx := context.Background()

	_, err := f.svc.GenerateForNewProject(ctx, p.ID)
	require.NoError(t, err)

	custom, err := f.fragments.CreateProjectDoc(ctx, p.ID, fragment.Input{Slug: "deploy-notes", Title: "Deploy", Content: "ship it"})
	require.NoError(t, err)

	overview, err := f.fragments.GetProjectDocBySlug(ctx, p.ID, "overview")
	require.NoError(t, err)
	title, order, off := "Renamed", 40, false
	_, err = f.fragments.UpdateProjectDoc(ctx, p.ID, overview.ID, fragment.Patch{
		Title:        &title,
		DisplayOrder: &order,
		Enabled:      &off,
		Content:      strPtr("stale"),
	})
	require.NoError(t, err)

	desc := "Gadgets now"
	_, err = f.projects.Update(ctx, "acme", project.UpdateInput{Description: &desc})
	require.NoError(t, err)

	updated, err := f.svc.Regenerate(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, f.templateCount(t, p), updated)

	overview, err = f.fragments.GetProjectDocBySlug(ctx, p.ID, "overview")
	require.NoError(t, err)
	assert.NotEqual(t, "stale", overview.Content)
	assert.Contains(t, overview.Content, "Gadgets now")
	assert.Equal(t, "Renamed", overview.Title)
	assert.Equal(t, 40, overview.DisplayOrder)
	assert.False(t, overview.Enabled)

	kept, err := f.fragments.GetProjectDoc(ctx, p.ID, custom.ID)
	require.NoError(t, err)
	assert.Equal(t, "ship it", kept.Content)
}

func TestRegenerateRefreshesTechStackAfterTagsCleared(t *testing.T) {
	f := setup(t, false)
	p := f.project(t, "")
	ctx := context.Background()

	_, err := f.svc.GenerateForNewProject(ctx, p.ID)
	require.NoError(t, err)
	tech, err := f.fragments.GetProjectDocBySlug(ctx, p.ID, "tech-stack")
	require.NoError(t, err)
	require.Contains(t, tech.Content, "sqlite")

	none := []string{}
	_, err = f.projects.Update(ctx, "acme", project.UpdateInput{Tags: &none})
	require.NoError(t, err)

	updated, err := f.svc.Regenerate(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, len(template.List()), updated)

	tech, err = f.fragments.GetProjectDocBySlug(ctx, p.ID, "tech-stack")
	require.NoError(t, err)
	assert.NotContains(t, tech.Content, "sqlite")
	assert.Contains(t, tech.Content, "None recorded yet.")
}

func TestRegenerateNeverCreates(t *testing.T) {
	f := setup(t, false)
	p := f.project(t, "")

	updated, err := f.svc.Regenerate(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)

	n, err := f.fragments.CountProjectDocs(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestGenerateStarterDocsForce(t *testing.T) {
	f := setup(t, false)
	p := f.project(t, "")
	ctx := context.Background()

	_, err := f.fragments.CreateProjectDoc(ctx, p.ID, fragment.Input{Slug: "overview", Title: "Mine", Content: "hand written", DisplayOrder: intPtr(9)})
	require.NoError(t, err)
	custom, err := f.fragments.CreateProjectDoc(ctx, p.ID, fragment.Input{Slug: "deploy-notes", Title: "Deploy", Content: "ship it"})
	require.NoError(t, err)

	_, err = f.svc.GenerateStarterDocs(ctx, p.ID, false)
	assert.True(t, errors.HasCode(err, errors.EConflict))

	res, err := f.svc.GenerateStarterDocs(ctx, p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DocsUpdated)
	assert.Equal(t, f.templateCount(t, p)-1, res.DocsCreated)

	overview, err := f.fragments.GetProjectDocBySlug(ctx, p.ID, "overview")
	require.NoError(t, err)
	assert.Equal(t, "Project Overview", overview.Title)
	assert.Equal(t, 1, overview.DisplayOrder)
	assert.NotEqual(t, "hand written", overview.Content)

	kept, err := f.fragments.GetProjectDoc(ctx, p.ID, custom.ID)
	require.NoError(t, err)
	assert.Equal(t, "ship it", kept.Content)
}

func TestGenerateStarterDocsOnEmptyProject(t *testing.T) {
	f := setup(t, false)
	p := f.project(t, "")

	res, err := f.svc.GenerateStarterDocs(context.Background(), p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, f.templateCount(t, p), res.DocsCreated)
}

func TestUnknownProject(t *testing.T) {
	f := setup(t, false)

	_, err := f.svc.GenerateForNewProject(context.Background(), 99)
	assert.True(t, errors.HasCode(err, errors.ENotFound))
	_, err = f.svc.Regenerate(context.Background(), 99)
	assert.True(t, errors.HasCode(err, errors.ENotFound))
	_, err = f.svc.GenerateStarterDocs(context.Background(), 99, true)
	assert.True(t, errors.HasCode(err, errors.ENotFound))
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
