package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/TRIADBLUE/consoleblue/internal/fragment"
	"github.com/spf13/cobra"
)

var (
	fragTitle    string
	fragContent  string
	fragFile     string
	fragOrder    int
	fragDisabled bool
	fragEnable   bool
)

// fragmentStore abstracts over the shared and project fragment scopes
type fragmentStore struct {
	list    func(ctx context.Context, enabledOnly bool) ([]fragment.Fragment, error)
	create  func(ctx context.Context, in fragment.Input) (*fragment.Fragment, error)
	update  func(ctx context.Context, id int64, p fragment.Patch) (*fragment.Fragment, error)
	delete  func(ctx context.Context, id int64) error
	reorder func(ctx context.Context, ids []int64) ([]fragment.Fragment, error)
}

func sharedStore(a *app, _ []string) (*fragmentStore, error) {
	f := a.fragments
	return &fragmentStore{
		list:    f.ListSharedDocs,
		create:  f.CreateSharedDoc,
		update:  f.UpdateSharedDoc,
		delete:  f.DeleteSharedDoc,
		reorder: f.ReorderSharedDocs,
	}, nil
}

func projectStore(a *app, args []string) (*fragmentStore, error) {
	p, err := a.projects.Get(context.Background(), args[0])
	if err != nil {
		return nil, err
	}
	f, pid := a.fragments, p.ID
	return &fragmentStore{
		list: func(ctx context.Context, enabledOnly bool) ([]fragment.Fragment, error) {
			return f.ListProjectDocs(ctx, pid, enabledOnly)
		},
		create: func(ctx context.Context, in fragment.Input) (*fragment.Fragment, error) {
			return f.CreateProjectDoc(ctx, pid, in)
		},
		update: func(ctx context.Context, id int64, patch fragment.Patch) (*fragment.Fragment, error) {
			return f.UpdateProjectDoc(ctx, pid, id, patch)
		},
		delete: func(ctx context.Context, id int64) error {
			return f.DeleteProjectDoc(ctx, pid, id)
		},
		reorder: func(ctx context.Context, ids []int64) ([]fragment.Fragment, error) {
			return f.ReorderProjectDocs(ctx, pid, ids)
		},
	}, nil
}

var sharedCmd = &cobra.Command{
	Use:   "shared",
	Short: "Manage shared fragments (included in every document)",
}

var fragmentCmd = &cobra.Command{
	Use:     "fragment",
	Aliases: []string{"frag"},
	Short:   "Manage a project's fragments",
}

func init() {
	rootCmd.AddCommand(sharedCmd, fragmentCmd)
	addFragmentCommands(sharedCmd, "", sharedStore)
	addFragmentCommands(fragmentCmd, "<project> ", projectStore)
}

// addFragmentCommands builds list/add/edit/rm/reorder under parent. prefix
// names the positional arguments that open selects the store with.
func addFragmentCommands(parent *cobra.Command, prefix string, open func(*app, []string) (*fragmentStore, error)) {
	nPrefix := 0
	if prefix != "" {
		nPrefix = 1
	}
	withStore := func(fn func(cmd *cobra.Command, s *fragmentStore, rest []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()
			s, err := open(a, args)
			if err != nil {
				return err
			}
			return fn(cmd, s, args[nPrefix:])
		}
	}

	listCmd := &cobra.Command{
		Use:   "list " + prefix,
		Short: "List fragments in display order",
		Args:  cobra.ExactArgs(nPrefix),
		RunE: withStore(func(cmd *cobra.Command, s *fragmentStore, _ []string) error {
			docs, err := s.list(cmd.Context(), false)
			if err != nil {
				return err
			}
			return printFragments(docs)
		}),
	}

	addCmd := &cobra.Command{
		Use:   "add " + prefix + "<slug>",
		Short: "Create a fragment",
		Args:  cobra.ExactArgs(nPrefix + 1),
		RunE: withStore(func(cmd *cobra.Command, s *fragmentStore, rest []string) error {
			content, err := readContent()
			if err != nil {
				return err
			}
			in := fragment.Input{Slug: rest[0], Title: fragTitle, Content: content}
			if cmd.Flags().Changed("order") {
				in.DisplayOrder = &fragOrder
			}
			if fragDisabled {
				off := false
				in.Enabled = &off
			}
			doc, err := s.create(cmd.Context(), in)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(doc)
			}
			printOK("Created fragment %s (#%d)", doc.Slug, doc.ID)
			return nil
		}),
	}
	addCmd.Flags().StringVarP(&fragTitle, "title", "t", "", "title (required)")
	addCmd.Flags().IntVar(&fragOrder, "order", 0, "display order")
	addCmd.Flags().BoolVar(&fragDisabled, "disabled", false, "create disabled")

	editCmd := &cobra.Command{
		Use:   "edit " + prefix + "<id>",
		Short: "Update a fragment",
		Args:  cobra.ExactArgs(nPrefix + 1),
		RunE: withStore(func(cmd *cobra.Command, s *fragmentStore, rest []string) error {
			id, err := parseID(rest[0])
			if err != nil {
				return err
			}
			var p fragment.Patch
			flags := cmd.Flags()
			if flags.Changed("title") {
				p.Title = &fragTitle
			}
			if flags.Changed("content") || flags.Changed("file") {
				content, err := readContent()
				if err != nil {
					return err
				}
				p.Content = &content
			}
			if flags.Changed("order") {
				p.DisplayOrder = &fragOrder
			}
			if flags.Changed("enabled") {
				p.Enabled = &fragEnable
			}
			doc, err := s.update(cmd.Context(), id, p)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(doc)
			}
			printOK("Updated fragment %s", doc.Slug)
			return nil
		}),
	}
	editCmd.Flags().StringVarP(&fragTitle, "title", "t", "", "new title")
	editCmd.Flags().IntVar(&fragOrder, "order", 0, "new display order")
	editCmd.Flags().BoolVar(&fragEnable, "enabled", true, "enable or disable")

	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().StringVarP(&fragContent, "content", "c", "", "content")
		c.Flags().StringVarP(&fragFile, "file", "f", "", "read content from file (- for stdin)")
	}

	rmCmd := &cobra.Command{
		Use:   "rm " + prefix + "<id>",
		Short: "Delete a fragment",
		Args:  cobra.ExactArgs(nPrefix + 1),
		RunE: withStore(func(cmd *cobra.Command, s *fragmentStore, rest []string) error {
			id, err := parseID(rest[0])
			if err != nil {
				return err
			}
			if err := s.delete(cmd.Context(), id); err != nil {
				return err
			}
			printOK("Deleted fragment #%d", id)
			return nil
		}),
	}

	reorderCmd := &cobra.Command{
		Use:   "reorder " + prefix + "<id>...",
		Short: "Set display order to the given id sequence",
		Args:  cobra.MinimumNArgs(nPrefix + 1),
		RunE: withStore(func(cmd *cobra.Command, s *fragmentStore, rest []string) error {
			ids := make([]int64, len(rest))
			for i, v := range rest {
				id, err := parseID(v)
				if err != nil {
					return err
				}
				ids[i] = id
			}
			docs, err := s.reorder(cmd.Context(), ids)
			if err != nil {
				return err
			}
			return printFragments(docs)
		}),
	}

	if prefix != "" {
		for _, c := range []*cobra.Command{listCmd, addCmd, editCmd, rmCmd, reorderCmd} {
			c.ValidArgsFunction = completeProjects
		}
	}
	parent.AddCommand(listCmd, addCmd, editCmd, rmCmd, reorderCmd)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func readContent() (string, error) {
	switch fragFile {
	case "":
		return fragContent, nil
	case "-":
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	default:
		b, err := os.ReadFile(fragFile)
		if err != nil {
			return "", fmt.Errorf("read content: %w", err)
		}
		return string(b), nil
	}
}

func printFragments(docs []fragment.Fragment) error {
	if jsonOut {
		if docs == nil {
			docs = []fragment.Fragment{}
		}
		return printJSON(docs)
	}
	if len(docs) == 0 {
		fmt.Println("No fragments.")
		return nil
	}
	for _, d := range docs {
		state := successStyle.Render("on ")
		if !d.Enabled {
			state = dimStyle.Render("off")
		}
		origin := ""
		if d.Origin == fragment.OriginGenerated {
			origin = dimStyle.Render(" (generated)")
		}
		fmt.Printf("  %-4d %3d %s %-24s %s%s\n", d.ID, d.DisplayOrder, state, d.Slug, truncate(d.Title, 40), origin)
	}
	return nil
}
