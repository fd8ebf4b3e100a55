package cli

import (
	"fmt"

	"github.com/TRIADBLUE/consoleblue/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialise the configuration",
	Long: `Manages the ConsoleBlue configuration.

Config file: ~/.consoleblue/config.yaml (override with --config)
Environment overrides: CONSOLEBLUE_DB, PORT, GITHUB_TOKEN, GITHUB_OWNER,
GITHUB_API_URL, CONSOLEBLUE_VCS, CONSOLEBLUE_GIT_ROOT, CONSOLEBLUE_LOG_LEVEL,
CONSOLEBLUE_LOG_FORMAT`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE:  runConfigInit,
}

var configInitForce bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd)
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.VCS.Token != "" {
		cfg.VCS.Token = "********"
	}
	if jsonOut {
		return printJSON(cfg)
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if !configInitForce && fileExists(path) {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	printOK("Wrote %s", path)
	return nil
}
