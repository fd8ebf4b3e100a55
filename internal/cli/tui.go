package cli

import (
	"github.com/TRIADBLUE/consoleblue/internal/tui"
	"github.com/spf13/cobra"
)

var tuiRefresh int

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal dashboard",
	Long:  `Browse projects, their assembled documents and push history in the terminal.`,
	RunE:  runTui,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().IntVar(&tuiRefresh, "refresh", 10, "refresh interval in seconds")
}

func runTui(cmd *cobra.Command, args []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(tui.Deps{
		Projects:  a.projects,
		Assembler: a.assembler,
		History:   a.history,
		Refresh:   secondsDuration(tuiRefresh),
	})
}
