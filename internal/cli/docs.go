package cli

import (
	"fmt"
	"time"

	"github.com/TRIADBLUE/consoleblue/internal/audit"
	"github.com/TRIADBLUE/consoleblue/internal/publish"
	"github.com/TRIADBLUE/consoleblue/internal/pushlog"
	"github.com/TRIADBLUE/consoleblue/internal/template"
	"github.com/spf13/cobra"
)

var (
	pushPath     string
	pushMessage  string
	pushOperator int64
	historyLimit int
	historyOff   int
	genForce     bool
	previewRaw   bool
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Assemble, publish and generate onboarding documents",
}

var docsPreviewCmd = &cobra.Command{
	Use:               "preview <project>",
	Short:             "Show the assembled document",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE:              runDocsPreview,
}

var docsPushCmd = &cobra.Command{
	Use:               "push <project>",
	Short:             "Commit the assembled document to the project repository",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE:              runDocsPush,
}

var docsHistoryCmd = &cobra.Command{
	Use:               "history <project>",
	Short:             "List publish attempts, newest first",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE:              runDocsHistory,
}

var docsGenerateCmd = &cobra.Command{
	Use:   "generate <project>",
	Short: "Generate starter docs from the project's metadata",
	Long: `Generates starter docs for a project.

A project that already has fragments is refused unless --force is given.
With --force, generated fragments get fresh title, content and order and
missing ones are created; hand-written fragments are not touched.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE:              runDocsGenerate,
}

var docsRegenerateCmd = &cobra.Command{
	Use:               "regenerate <project>",
	Short:             "Refresh the content of existing generated fragments",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjects,
	RunE:              runDocsRegenerate,
}

var docsTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List starter doc templates",
	RunE:  runDocsTemplates,
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsPreviewCmd, docsPushCmd, docsHistoryCmd, docsGenerateCmd, docsRegenerateCmd, docsTemplatesCmd)

	docsPreviewCmd.Flags().BoolVar(&previewRaw, "raw", false, "print plain markdown")
	docsPushCmd.Flags().StringVar(&pushPath, "path", "", "target path in the repository (default from config)")
	docsPushCmd.Flags().StringVarP(&pushMessage, "message", "m", "", "commit message")
	docsPushCmd.Flags().Int64Var(&pushOperator, "operator", 0, "operator id recorded as the pusher")
	docsHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "entries to show (default from config)")
	docsHistoryCmd.Flags().IntVar(&historyOff, "offset", 0, "entries to skip")
	docsGenerateCmd.Flags().BoolVar(&genForce, "force", false, "overwrite generated fragments")
}

func runDocsPreview(cmd *cobra.Command, args []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.projects.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	preview, err := a.assembler.Assemble(cmd.Context(), p.ID)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(preview)
	}

	body := preview.AssembledContent
	if preview.Empty() {
		body = "(empty)"
	}
	if previewRaw {
		fmt.Println(body)
		return nil
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("%s · %d shared, %d project fragments", p.DisplayName, len(preview.SharedDocs), len(preview.ProjectDocs))))
	fmt.Println(docStyle.Render(body))
	return nil
}

func runDocsPush(cmd *cobra.Command, args []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if pushOperator > 0 {
		ctx = audit.WithUser(ctx, pushOperator)
	}
	p, err := a.projects.Get(ctx, args[0])
	if err != nil {
		return err
	}

	res, err := a.publisher.Publish(ctx, publish.Request{
		ProjectID:     p.ID,
		TargetPath:    pushPath,
		CommitMessage: pushMessage,
		Trigger:       pushlog.TriggerManual,
	})
	if err != nil {
		if !jsonOut {
			printFail("Push failed: %v", err)
		}
		return err
	}
	if jsonOut {
		return printJSON(res)
	}
	printOK("Pushed %s (%s)", p.Slug, shortSHA(res.CommitSHA))
	fmt.Printf("  %s\n", res.CommitURL)
	return nil
}

func runDocsHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.projects.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	page, err := a.publisher.History(cmd.Context(), p.ID, historyLimit, historyOff)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(page)
	}
	if len(page.Entries) == 0 {
		fmt.Println("No pushes yet.")
		return nil
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Push history for %s (%d of %d)", p.Slug, len(page.Entries), page.Total)))
	for _, e := range page.Entries {
		when := e.PushedAt.Local().Format(time.DateTime)
		if e.Status == pushlog.StatusSuccess {
			fmt.Printf("  %s %s %-6s %s %s\n", when, successStyle.Render("✓"), e.Trigger, e.TargetPath, shortSHA(deref(e.CommitSHA)))
		} else {
			fmt.Printf("  %s %s %-6s %s %s\n", when, errorStyle.Render("✗"), e.Trigger, e.TargetPath, truncate(deref(e.ErrorMessage), 60))
		}
	}
	return nil
}

func runDocsGenerate(cmd *cobra.Command, args []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.projects.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	res, err := a.generator.GenerateStarterDocs(cmd.Context(), p.ID, genForce)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(res)
	}
	printOK("Generated docs for %s: %d created, %d updated", p.Slug, res.DocsCreated, res.DocsUpdated)
	if res.AutoPushed {
		fmt.Printf("  Auto-pushed: %s\n", shortSHA(res.CommitSHA))
	}
	return nil
}

func runDocsRegenerate(cmd *cobra.Command, args []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.projects.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	updated, err := a.generator.Regenerate(cmd.Context(), p.ID)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(map[string]any{"projectSlug": p.Slug, "docsUpdated": updated})
	}
	printOK("Regenerated %d docs for %s", updated, p.Slug)
	return nil
}

func runDocsTemplates(cmd *cobra.Command, args []string) error {
	list := template.List()
	if jsonOut {
		return printJSON(list)
	}
	for i, t := range list {
		fmt.Printf("  %d. %-22s %-10s %s\n", i+1, t.Slug, t.Category, t.Title)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
