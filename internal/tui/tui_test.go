package tui

import (
	"context"
	"testing"
	"time"

	"github.com/TRIADBLUE/consoleblue/internal/assembly"
	"github.com/TRIADBLUE/consoleblue/internal/project"
	"github.com/TRIADBLUE/consoleblue/internal/pushlog"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDeps struct {
	projects []*project.Project
	preview  *assembly.Preview
	page     *pushlog.Page
}

func (s *stubDeps) List(ctx context.Context) ([]*project.Project, error) {
	return s.projects, nil
}

func (s *stubDeps) Assemble(ctx context.Context, projectID int64) (*assembly.Preview, error) {
	return s.preview, nil
}

type stubHistory struct{ page *pushlog.Page }

func (s stubHistory) List(ctx context.Context, projectID int64, limit, offset int) (*pushlog.Page, error) {
	return s.page, nil
}

func newTestModel(t *testing.T) (Model, *stubDeps) {
	t.Helper()
	sha := "abcdef1234567"
	stub := &stubDeps{
		projects: []*project.Project{
			{ID: 1, Slug: "alpha", DisplayName: "Alpha", Status: project.StatusActive, GithubRepo: "alpha", GithubOwner: "triad"},
			{ID: 2, Slug: "beta", DisplayName: "Beta", Status: project.StatusPlanned},
		},
		preview: &assembly.Preview{
			AssembledContent: "# Alpha onboarding",
			SharedDocs:       []assembly.Summary{{Title: "Rules", Slug: "rules"}},
		},
		page: &pushlog.Page{
			Total: 1,
			Entries: []pushlog.Entry{{
				ID: 1, ProjectID: 1, TargetPath: "CLAUDE.md", CommitSHA: &sha,
				Status: pushlog.StatusSuccess, Trigger: pushlog.TriggerManual, PushedAt: time.Now(),
			}},
		},
	}
	m := NewModel(Deps{Projects: stub, Assembler: stub, History: stubHistory{stub.page}})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model), stub
}

func TestModelLoadsProjects(t *testing.T) {
	m, _ := newTestModel(t)

	msg := m.loadProjects()
	updated, _ := m.Update(msg)
	m = updated.(Model)

	require.Len(t, m.projects, 2)
	assert.False(t, m.loading)
	view := m.View()
	assert.Contains(t, view, "alpha")
	assert.Contains(t, view, "triad/alpha")
}

func TestModelEnterOpensPreview(t *testing.T) {
	m, _ := newTestModel(t)
	updated, _ := m.Update(m.loadProjects())
	m = updated.(Model)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, TabPreview, m.currentTab)
	assert.Equal(t, int64(1), m.selected)

	updated, _ = m.Update(cmd())
	m = updated.(Model)
	assert.Contains(t, m.View(), "# Alpha onboarding")
	assert.Contains(t, m.View(), "1 shared, 0 project fragments")

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})
	m = updated.(Model)
	assert.Equal(t, TabHistory, m.currentTab)
	assert.Contains(t, m.View(), "abcdef1")
}

func TestModelIgnoresStaleDetail(t *testing.T) {
	m, _ := newTestModel(t)
	m.selected = 2

	updated, _ := m.Update(detailMsg{projectID: 1, preview: &assembly.Preview{AssembledContent: "stale"}})
	m = updated.(Model)
	assert.Nil(t, m.preview)
}

func TestTabCycling(t *testing.T) {
	m, _ := newTestModel(t)
	for _, want := range []Tab{TabPreview, TabHistory, TabProjects} {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m = updated.(Model)
		assert.Equal(t, want, m.currentTab)
	}
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, TabHistory, updated.(Model).currentTab)
}
