package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var operatorName string

var operatorCmd = &cobra.Command{
	Use:   "operator",
	Short: "Manage operators who receive notifications",
}

var operatorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active operators",
	RunE:  runOperatorList,
}

var operatorAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Add an operator",
	Args:  cobra.ExactArgs(1),
	RunE:  runOperatorAdd,
}

var operatorDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Stop sending notifications to an operator",
	Args:  cobra.ExactArgs(1),
	RunE:  runOperatorDisable,
}

func init() {
	rootCmd.AddCommand(operatorCmd)
	operatorCmd.AddCommand(operatorListCmd, operatorAddCmd, operatorDisableCmd)
	operatorAddCmd.Flags().StringVar(&operatorName, "name", "", "display name")
}

func runOperatorList(cmd *cobra.Command, args []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ops, err := a.operators.ListActive(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(ops)
	}
	for _, op := range ops {
		fmt.Printf("  %-4d %-32s %s\n", op.ID, op.Email, op.DisplayName)
	}
	return nil
}

func runOperatorAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	op, err := a.operators.Create(cmd.Context(), args[0], operatorName)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(op)
	}
	printOK("Added operator %s (#%d)", op.Email, op.ID)
	return nil
}

func runOperatorDisable(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.operators.SetActive(cmd.Context(), id, false); err != nil {
		return err
	}
	printOK("Disabled operator #%d", id)
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
