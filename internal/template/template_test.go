package template

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/TRIADBLUE/consoleblue/internal/errors"
	"github.com/TRIADBLUE/consoleblue/internal/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseProject() *project.Project {
	return &project.Project{
		ID:          1,
		Slug:        "acme",
		DisplayName: "Acme",
		Status:      project.StatusActive,
	}
}

func docSlugs(docs []Doc) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Slug
	}
	return out
}

func TestListIsDeclarationOrder(t *testing.T) {
	infos := List()
	require.Len(t, infos, 7)
	assert.Equal(t, "company-identity", infos[0].Slug)
	assert.Equal(t, CategoryPolicy, infos[0].Category)
	assert.Equal(t, "general-direction", infos[6].Slug)

	seen := map[string]bool{}
	for _, info := range infos {
		assert.False(t, seen[info.Slug], "duplicate slug %s", info.Slug)
		seen[info.Slug] = true
		assert.True(t, IsTemplateSlug(info.Slug))
	}
	assert.False(t, IsTemplateSlug("my-notes"))
}

func TestGenerateWithoutTagsSkipsTechStack(t *testing.T) {
	docs, err := NewGenerator(Options{}).Generate(baseProject())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"company-identity", "overview", "getting-started",
		"project-restrictions", "unique-features", "general-direction",
	}, docSlugs(docs))
	for i, d := range docs {
		assert.Equal(t, i, d.DisplayOrder)
		assert.NotEmpty(t, d.Content, d.Slug)
	}
}

func TestGenerateAllIncludesNonApplicableTemplates(t *testing.T) {
	docs, err := NewGenerator(Options{}).GenerateAll(baseProject())
	require.NoError(t, err)
	require.Len(t, docs, len(List()))

	tech := docs[2]
	assert.Equal(t, "tech-stack", tech.Slug)
	assert.Equal(t, "The following technologies and tools are used in this project:\n\n- None recorded yet.", tech.Content)
}

func TestGenerateWithTags(t *testing.T) {
	p := baseProject()
	p.Tags = []string{"go", "sqlite"}

	docs, err := NewGenerator(Options{}).Generate(p)
	require.NoError(t, err)
	require.Len(t, docs, 7)

	tech := docs[2]
	assert.Equal(t, "tech-stack", tech.Slug)
	assert.Equal(t, 2, tech.DisplayOrder)
	assert.Equal(t, "The following technologies and tools are used in this project:\n\n- go\n- sqlite", tech.Content)
}

func TestOverviewRendering(t *testing.T) {
	p := baseProject()
	p.Description = "Widgets for everyone."
	p.ProductionURL = "https://acme.example"
	p.GithubRepo = "acme-web"

	docs, err := NewGenerator(Options{}).Generate(p)
	require.NoError(t, err)

	want := "Acme is a project managed in ConsoleBlue.\n\n" +
		"Widgets for everyone.\n\n" +
		"**Production URL:** https://acme.example\n" +
		"**Repository:** https://github.com/triadblue/acme-web\n\n" +
		"**Status:** active"
	assert.Equal(t, want, docs[1].Content)
}

func TestOverviewMinimal(t *testing.T) {
	docs, err := NewGenerator(Options{}).Generate(baseProject())
	require.NoError(t, err)
	assert.Equal(t, "Acme is a project managed in ConsoleBlue.\n\n**Status:** active", docs[1].Content)
}

func TestGettingStarted(t *testing.T) {
	p := baseProject()
	docs, err := NewGenerator(Options{}).Generate(p)
	require.NoError(t, err)
	assert.Contains(t, docs[2].Content, "2. Link a GitHub repository to enable code access")

	p.GithubRepo = "acme-web"
	p.GithubOwner = "acme-org"
	p.DefaultBranch = "trunk"
	docs, err = NewGenerator(Options{}).Generate(p)
	require.NoError(t, err)
	assert.Contains(t, docs[2].Content, "`git clone https://github.com/acme-org/acme-web.git`")
	assert.Contains(t, docs[2].Content, "`git checkout trunk`")
}

func TestCompanyIdentityUsesOrganization(t *testing.T) {
	p := baseProject()
	p.ColorPrimary = "#0000FF"
	p.ColorAccent = "#FF44CC"

	docs, err := NewGenerator(Options{Organization: "Umbrella"}).Generate(p)
	require.NoError(t, err)
	assert.Contains(t, docs[0].Content, "built and operated by Umbrella")
	assert.Contains(t, docs[0].Content, "Primary brand colour: `#0000FF`, accent colour: `#FF44CC`.")
}

func TestStatusParagraphs(t *testing.T) {
	for _, s := range project.Statuses {
		t.Run(string(s), func(t *testing.T) {
			note, known := statusNote(s, "Acme")
			assert.True(t, known)
			assert.NotEmpty(t, note)
		})
	}

	p := baseProject()
	p.Status = project.StatusArchived
	docs, err := NewGenerator(Options{}).Generate(p)
	require.NoError(t, err)
	assert.Contains(t, docs[len(docs)-1].Content, "Acme is archived.")
}

func TestUnknownStatusRendersNoStatusParagraph(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(Options{Logger: slog.New(slog.NewTextHandler(&buf, nil))})

	p := baseProject()
	p.Status = "sunset"
	docs, err := g.Generate(p)
	require.NoError(t, err)

	direction := docs[len(docs)-1]
	assert.Equal(t, "general-direction", direction.Slug)
	for _, s := range project.Statuses {
		note, _ := statusNote(s, "Acme")
		assert.NotContains(t, direction.Content, note)
	}
	assert.Contains(t, buf.String(), "unknown project status")
}

func TestCustomSettingsLists(t *testing.T) {
	p := baseProject()
	p.CustomSettings = map[string]any{
		SettingRestrictions:   []any{"No new dependencies without review"},
		SettingUniqueFeatures: "Realtime dashboards",
	}

	docs, err := NewGenerator(Options{}).Generate(p)
	require.NoError(t, err)

	byslug := map[string]string{}
	for _, d := range docs {
		byslug[d.Slug] = d.Content
	}
	assert.Contains(t, byslug["project-restrictions"], "- No new dependencies without review")
	assert.Contains(t, byslug["unique-features"], "What sets Acme apart:\n\n- Realtime dashboards")
}

func TestMalformedSnapshotFailsFast(t *testing.T) {
	g := NewGenerator(Options{})

	p := baseProject()
	p.CustomSettings = map[string]any{SettingRestrictions: 42}
	_, err := g.Generate(p)
	assert.True(t, errors.HasCode(err, errors.EValidation))

	p = baseProject()
	p.CustomSettings = map[string]any{SettingUniqueFeatures: []any{"ok", 3}}
	_, err = g.Generate(p)
	assert.True(t, errors.HasCode(err, errors.EValidation))

	p = baseProject()
	p.DisplayName = ""
	_, err = g.Generate(p)
	assert.True(t, errors.HasCode(err, errors.EValidation))

	_, err = g.Generate(nil)
	assert.True(t, errors.HasCode(err, errors.EValidation))
}

func TestGenerateIsDeterministic(t *testing.T) {
	p := baseProject()
	p.Tags = []string{"go"}
	g := NewGenerator(Options{})

	a, err := g.Generate(p)
	require.NoError(t, err)
	b, err := g.Generate(p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
