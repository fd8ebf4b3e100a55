// Package tui is the terminal dashboard over projects, their assembled
// documents and push history.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/TRIADBLUE/consoleblue/internal/assembly"
	"github.com/TRIADBLUE/consoleblue/internal/project"
	"github.com/TRIADBLUE/consoleblue/internal/pushlog"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tab represents a dashboard tab
type Tab int

const (
	TabProjects Tab = iota
	TabPreview
	TabHistory
)

const tabCount = 3

func (t Tab) String() string {
	return []string{"Projects", "Preview", "History"}[t]
}

// Projects lists projects
type Projects interface {
	List(ctx context.Context) ([]*project.Project, error)
}

// Assembler builds a document preview
type Assembler interface {
	Assemble(ctx context.Context, projectID int64) (*assembly.Preview, error)
}

// History pages push history
type History interface {
	List(ctx context.Context, projectID int64, limit, offset int) (*pushlog.Page, error)
}

// Deps are the services the dashboard reads from
type Deps struct {
	Projects  Projects
	Assembler Assembler
	History   History
	// Refresh is the polling interval; zero means 10s
	Refresh time.Duration
}

// Model is the main TUI model
type Model struct {
	deps Deps

	currentTab  Tab
	width       int
	height      int
	ready       bool
	loading     bool
	lastRefresh time.Time
	err         error

	projects []*project.Project
	selected int64
	preview  *assembly.Preview
	history  *pushlog.Page

	projectTable table.Model
	historyTable table.Model
	viewport     viewport.Model
	spinner      spinner.Model
}

type tickMsg time.Time

type projectsMsg struct {
	projects []*project.Project
	err      error
}

type detailMsg struct {
	projectID int64
	preview   *assembly.Preview
	history   *pushlog.Page
	err       error
}

// NewModel creates a new TUI model
func NewModel(deps Deps) Model {
	if deps.Refresh <= 0 {
		deps.Refresh = 10 * time.Second
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	pt := table.New(
		table.WithColumns([]table.Column{
			{Title: "Slug", Width: 22},
			{Title: "Name", Width: 26},
			{Title: "Status", Width: 10},
			{Title: "Repository", Width: 30},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	pt.SetStyles(tableStyles())

	ht := table.New(
		table.WithColumns([]table.Column{
			{Title: "When", Width: 17},
			{Title: "Status", Width: 8},
			{Title: "Trigger", Width: 8},
			{Title: "Commit", Width: 9},
			{Title: "Detail", Width: 40},
		}),
		table.WithHeight(12),
	)
	ht.SetStyles(tableStyles())

	return Model{
		deps:         deps,
		currentTab:   TabProjects,
		loading:      true,
		projectTable: pt,
		historyTable: ht,
		viewport:     viewport.New(80, 20),
		spinner:      s,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadProjects,
		tickEvery(m.deps.Refresh),
	)
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) loadProjects() tea.Msg {
	projects, err := m.deps.Projects.List(context.Background())
	return projectsMsg{projects: projects, err: err}
}

func (m Model) loadDetail(projectID int64) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		msg := detailMsg{projectID: projectID}
		msg.preview, msg.err = m.deps.Assembler.Assemble(ctx, projectID)
		if msg.err != nil {
			return msg
		}
		msg.history, msg.err = m.deps.History.List(ctx, projectID, 0, 0)
		return msg
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "1":
			m.currentTab = TabProjects
		case "2":
			m.currentTab = TabPreview
		case "3":
			m.currentTab = TabHistory
		case "tab":
			m.currentTab = Tab((int(m.currentTab) + 1) % tabCount)
		case "shift+tab":
			m.currentTab = Tab((int(m.currentTab) + tabCount - 1) % tabCount)
		case "r":
			m.loading = true
			cmds := []tea.Cmd{m.loadProjects}
			if m.selected != 0 {
				cmds = append(cmds, m.loadDetail(m.selected))
			}
			return m, tea.Batch(cmds...)
		case "enter":
			if m.currentTab == TabProjects {
				if p := m.cursorProject(); p != nil {
					m.selected = p.ID
					m.loading = true
					m.currentTab = TabPreview
					return m, m.loadDetail(p.ID)
				}
			}
		default:
			return m.updateFocused(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.viewport.Width = max(msg.Width-4, 20)
		m.viewport.Height = max(msg.Height-8, 5)
		m.projectTable.SetHeight(max(msg.Height-10, 5))
		m.historyTable.SetHeight(max(msg.Height-12, 5))

	case tickMsg:
		cmds := []tea.Cmd{m.loadProjects, tickEvery(m.deps.Refresh)}
		if m.selected != 0 {
			cmds = append(cmds, m.loadDetail(m.selected))
		}
		return m, tea.Batch(cmds...)

	case projectsMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.projects = msg.projects
			m.projectTable.SetRows(projectRows(msg.projects))
		}
		m.lastRefresh = time.Now()

	case detailMsg:
		m.loading = false
		if msg.projectID != m.selected {
			return m, nil
		}
		m.err = msg.err
		if msg.err == nil {
			m.preview = msg.preview
			m.history = msg.history
			m.viewport.SetContent(previewContent(msg.preview))
			m.historyTable.SetRows(historyRows(msg.history))
		}
		m.lastRefresh = time.Now()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// updateFocused forwards navigation keys to the active tab's component
func (m Model) updateFocused(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentTab {
	case TabProjects:
		m.projectTable, cmd = m.projectTable.Update(msg)
	case TabPreview:
		m.viewport, cmd = m.viewport.Update(msg)
	case TabHistory:
		m.historyTable.Focus()
		m.historyTable, cmd = m.historyTable.Update(msg)
	}
	return m, cmd
}

func (m Model) cursorProject() *project.Project {
	i := m.projectTable.Cursor()
	if i < 0 || i >= len(m.projects) {
		return nil
	}
	return m.projects[i]
}

func (m Model) selectedProject() *project.Project {
	for _, p := range m.projects {
		if p.ID == m.selected {
			return p
		}
	}
	return nil
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "\n  Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(statusErrorStyle.Render("  " + m.err.Error()))
		b.WriteString("\n\n")
	}

	switch m.currentTab {
	case TabProjects:
		b.WriteString(m.renderProjectsTab())
	case TabPreview:
		b.WriteString(m.renderPreviewTab())
	case TabHistory:
		b.WriteString(m.renderHistoryTab())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := "ConsoleBlue"
	if p := m.selectedProject(); p != nil {
		title += " / " + p.Slug + " " + StatusIcon(string(p.Status))
	}
	right := fmt.Sprintf("Last refresh: %s", m.lastRefresh.Format("15:04:05"))
	if m.loading {
		right = m.spinner.View() + " " + right
	}

	headerWidth := max(m.width, 60)
	left := lipgloss.NewStyle().Bold(true).Render(title)
	right = lipgloss.NewStyle().Foreground(mutedColor).Render(right)

	gap := max(headerWidth-lipgloss.Width(left)-lipgloss.Width(right)-4, 0)
	return headerStyle.Width(headerWidth).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderTabs() string {
	var tabs []string
	for i := 0; i < tabCount; i++ {
		tab := Tab(i)
		style := tabStyle
		if tab == m.currentTab {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(fmt.Sprintf("[%d]%s", i+1, tab)))
	}
	return strings.Join(tabs, " ")
}

func (m Model) renderFooter() string {
	return helpStyle.Render("  [1-3] Switch tabs  [Tab] Next  [Enter] Open project  [r] Refresh  [q] Quit")
}

func (m Model) renderProjectsTab() string {
	if len(m.projects) == 0 {
		return statusMutedStyle.Render("  No projects") + "\n\n" +
			subtitleStyle.Render("  Run: consoleblue project create <slug> <name>")
	}
	return boxStyle.Render(m.projectTable.View())
}

func (m Model) renderPreviewTab() string {
	if m.selected == 0 || m.preview == nil {
		return statusMutedStyle.Render("  Select a project on the Projects tab")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d shared, %d project fragments",
		len(m.preview.SharedDocs), len(m.preview.ProjectDocs))))
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(statusMutedStyle.Render(fmt.Sprintf("  %3.f%%", m.viewport.ScrollPercent()*100)))
	return b.String()
}

func (m Model) renderHistoryTab() string {
	if m.selected == 0 || m.history == nil {
		return statusMutedStyle.Render("  Select a project on the Projects tab")
	}
	if m.history.Total == 0 {
		return statusMutedStyle.Render("  No pushes yet")
	}

	var ok, failed int
	for _, e := range m.history.Entries {
		if e.Status == pushlog.StatusSuccess {
			ok++
		} else {
			failed++
		}
	}
	summary := fmt.Sprintf("Showing %d of %d  %s  %s",
		len(m.history.Entries), m.history.Total,
		statusActiveStyle.Render(fmt.Sprintf("%d ok", ok)),
		statusErrorStyle.Render(fmt.Sprintf("%d failed", failed)))

	return titleStyle.Render("Push history") + "\n" + summary + "\n" +
		boxStyle.Render(m.historyTable.View())
}

func projectRows(projects []*project.Project) []table.Row {
	rows := make([]table.Row, 0, len(projects))
	for _, p := range projects {
		repo := "-"
		if p.HasRepo() {
			repo = p.Owner("") + "/" + p.GithubRepo
			repo = strings.TrimPrefix(repo, "/")
		}
		rows = append(rows, table.Row{p.Slug, p.DisplayName, string(p.Status), repo})
	}
	return rows
}

func historyRows(page *pushlog.Page) []table.Row {
	if page == nil {
		return nil
	}
	rows := make([]table.Row, 0, len(page.Entries))
	for _, e := range page.Entries {
		commit, detail := "-", e.TargetPath
		if e.CommitSHA != nil {
			commit = shortSHA(*e.CommitSHA)
		}
		if e.ErrorMessage != nil {
			detail = *e.ErrorMessage
		}
		rows = append(rows, table.Row{
			e.PushedAt.Local().Format("2006-01-02 15:04"),
			string(e.Status),
			string(e.Trigger),
			commit,
			detail,
		})
	}
	return rows
}

func previewContent(p *assembly.Preview) string {
	if p == nil || p.AssembledContent == "" {
		return statusMutedStyle.Render("(empty)")
	}
	return p.AssembledContent
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// Run starts the TUI
func Run(deps Deps) error {
	p := tea.NewProgram(
		NewModel(deps),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
