package config

import (
	"os"
	"path/filepath"
)

const (
	// GlobalDirName is the name of the ConsoleBlue home directory
	GlobalDirName = ".consoleblue"
)

// GlobalDir returns the ConsoleBlue home directory (~/.consoleblue)
func GlobalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return GlobalDirName
	}
	return filepath.Join(home, GlobalDirName)
}

// DefaultDBPath returns the default SQLite database path (~/.consoleblue/consoleblue.db)
func DefaultDBPath() string {
	return filepath.Join(GlobalDir(), "consoleblue.db")
}

// DefaultConfigPath returns the default config file path (~/.consoleblue/config.yaml)
func DefaultConfigPath() string {
	return filepath.Join(GlobalDir(), "config.yaml")
}

// DefaultGitRoot returns the checkout root used by the local git VCS provider
func DefaultGitRoot() string {
	return filepath.Join(GlobalDir(), "repos")
}
