package cli

import (
	"fmt"
	"strings"

	"github.com/TRIADBLUE/consoleblue/internal/project"
	"github.com/spf13/cobra"
)

var (
	projectRepo        string
	projectOwner       string
	projectBranch      string
	projectDescription string
	projectStatus      string
	projectTags        []string
	projectSkipDocs    bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE:  runProjectList,
}

var projectShowCmd = &cobra.Command{
	Use:               "show <id|slug>",
	Short:             "Show a project",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE:              runProjectShow,
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <slug> <display name>",
	Short: "Create a project and generate its starter docs",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectCreate,
}

var projectUpdateCmd = &cobra.Command{
	Use:               "update <id|slug>",
	Short:             "Update project fields",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE:              runProjectUpdate,
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectListCmd, projectShowCmd, projectCreateCmd, projectUpdateCmd)

	for _, c := range []*cobra.Command{projectCreateCmd, projectUpdateCmd} {
		c.Flags().StringVar(&projectRepo, "repo", "", "repository name")
		c.Flags().StringVar(&projectOwner, "owner", "", "repository owner")
		c.Flags().StringVar(&projectBranch, "branch", "", "default branch")
		c.Flags().StringVar(&projectDescription, "description", "", "description")
		c.Flags().StringVar(&projectStatus, "status", "", "status: "+statusNames())
		c.Flags().StringSliceVar(&projectTags, "tags", nil, "comma separated tags")
	}
	projectCreateCmd.Flags().BoolVar(&projectSkipDocs, "no-docs", false, "do not generate starter docs")
}

func statusNames() string {
	names := make([]string, len(project.Statuses))
	for i, s := range project.Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func runProjectList(cmd *cobra.Command, args []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	projects, err := a.projects.List(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(projects)
	}
	if len(projects) == 0 {
		fmt.Println("No projects.")
		return nil
	}

	fmt.Println(titleStyle.Render("Projects"))
	for _, p := range projects {
		repo := dimStyle.Render("(no repo)")
		if p.HasRepo() {
			repo = p.Owner(a.cfg.VCS.Owner) + "/" + p.GithubRepo
		}
		fmt.Printf("  %-4d %-24s %-12s %s\n", p.ID, p.Slug, p.Status, repo)
	}
	return nil
}

func runProjectShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.projects.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(p)
	}

	fmt.Println(titleStyle.Render(p.DisplayName))
	fmt.Printf("  Slug:    %s (#%d)\n", p.Slug, p.ID)
	fmt.Printf("  Status:  %s\n", p.Status)
	if p.HasRepo() {
		fmt.Printf("  Repo:    %s/%s@%s\n", p.Owner(a.cfg.VCS.Owner), p.GithubRepo, p.Branch(a.cfg.VCS.DefaultBranch))
	}
	if len(p.Tags) > 0 {
		fmt.Printf("  Tags:    %s\n", strings.Join(p.Tags, ", "))
	}
	if p.Description != "" {
		fmt.Printf("\n  %s\n", p.Description)
	}
	return nil
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	p, err := a.projects.Create(ctx, project.CreateInput{
		Slug:          args[0],
		DisplayName:   args[1],
		Description:   projectDescription,
		GithubRepo:    projectRepo,
		GithubOwner:   projectOwner,
		DefaultBranch: projectBranch,
		Status:        project.Status(projectStatus),
		Tags:          projectTags,
	})
	if err != nil {
		return err
	}

	if projectSkipDocs {
		if jsonOut {
			return printJSON(map[string]any{"project": p})
		}
		printOK("Created project %s (#%d)", p.Slug, p.ID)
		return nil
	}

	res, err := a.generator.GenerateForNewProject(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("project created, starter docs failed: %w", err)
	}
	if jsonOut {
		return printJSON(map[string]any{"project": p, "generation": res})
	}

	printOK("Created project %s (#%d)", p.Slug, p.ID)
	fmt.Printf("  Starter docs: %d created, %d notifications\n", res.DocsCreated, res.NotificationsSent)
	if res.AutoPushed {
		fmt.Printf("  Auto-pushed:  %s\n", shortSHA(res.CommitSHA))
	}
	return nil
}

func runProjectUpdate(cmd *cobra.Command, args []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	var in project.UpdateInput
	flags := cmd.Flags()
	if flags.Changed("repo") {
		in.GithubRepo = &projectRepo
	}
	if flags.Changed("owner") {
		in.GithubOwner = &projectOwner
	}
	if flags.Changed("branch") {
		in.DefaultBranch = &projectBranch
	}
	if flags.Changed("description") {
		in.Description = &projectDescription
	}
	if flags.Changed("status") {
		s := project.Status(projectStatus)
		in.Status = &s
	}
	if flags.Changed("tags") {
		in.Tags = &projectTags
	}

	p, err := a.projects.Update(cmd.Context(), args[0], in)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(p)
	}
	printOK("Updated project %s", p.Slug)
	return nil
}
