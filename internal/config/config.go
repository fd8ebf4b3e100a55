package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// VCSProvider selects the VCS client implementation
type VCSProvider string

const (
	ProviderGitHub VCSProvider = "github"
	ProviderGit    VCSProvider = "git"
)

// Config represents ~/.consoleblue/config.yaml
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	VCS      VCSConfig      `yaml:"vcs"`
	Docs     DocsConfig     `yaml:"docs"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig holds store locations
type DatabaseConfig struct {
	Path       string `yaml:"path"`
	DuckDBPath string `yaml:"duckdb_path,omitempty"` // analytics mirror; derived from Path when empty
}

// VCSConfig holds the external repository client settings
type VCSConfig struct {
	Provider      VCSProvider   `yaml:"provider"`
	Token         string        `yaml:"token,omitempty"`
	Owner         string        `yaml:"owner"`
	APIURL        string        `yaml:"api_url,omitempty"`
	GitRoot       string        `yaml:"git_root,omitempty"`
	DefaultBranch string        `yaml:"default_branch"`
	Timeout       time.Duration `yaml:"timeout"`
}

// DocsConfig holds document assembly and publish settings
type DocsConfig struct {
	TargetPath   string `yaml:"target_path"`
	Organization string `yaml:"organization"`
	AutoPush     bool   `yaml:"auto_push"`
	HistoryLimit int    `yaml:"history_limit"`
	HistoryMax   int    `yaml:"history_max"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         5000,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second, // SSE streams need headroom
		},
		Database: DatabaseConfig{
			Path: DefaultDBPath(),
		},
		VCS: VCSConfig{
			Provider:      ProviderGitHub,
			Owner:         "triadblue",
			DefaultBranch: "main",
			Timeout:       15 * time.Second,
		},
		Docs: DocsConfig{
			TargetPath:   "CLAUDE.md",
			Organization: "TriadBlue",
			AutoPush:     true,
			HistoryLimit: 20,
			HistoryMax:   100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the config file at path on top of Default() and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// the file may hold a VCS token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CONSOLEBLUE_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.VCS.Token = v
	}
	if v := os.Getenv("GITHUB_OWNER"); v != "" {
		c.VCS.Owner = v
	}
	if v := os.Getenv("GITHUB_API_URL"); v != "" {
		c.VCS.APIURL = v
	}
	if v := os.Getenv("CONSOLEBLUE_VCS"); v != "" {
		c.VCS.Provider = VCSProvider(v)
	}
	if v := os.Getenv("CONSOLEBLUE_GIT_ROOT"); v != "" {
		c.VCS.GitRoot = v
	}
	if v := os.Getenv("CONSOLEBLUE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CONSOLEBLUE_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.VCS.Provider {
	case ProviderGitHub, ProviderGit:
	default:
		return fmt.Errorf("vcs.provider must be %q or %q, got %q", ProviderGitHub, ProviderGit, c.VCS.Provider)
	}
	if c.VCS.Timeout <= 0 {
		return fmt.Errorf("vcs.timeout must be positive")
	}
	if strings.TrimSpace(c.Docs.TargetPath) == "" {
		return fmt.Errorf("docs.target_path is required")
	}
	if c.Docs.HistoryLimit <= 0 || c.Docs.HistoryMax < c.Docs.HistoryLimit {
		return fmt.Errorf("docs.history_limit must be positive and not exceed docs.history_max")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// DuckDBPath returns the analytics mirror path
func (c *Config) DuckDBPath() string {
	if c.Database.DuckDBPath != "" {
		return c.Database.DuckDBPath
	}
	return strings.TrimSuffix(c.Database.Path, ".db") + ".duckdb"
}

// GitRoot returns the checkout root for the local git provider
func (c *Config) GitRoot() string {
	if c.VCS.GitRoot != "" {
		return c.VCS.GitRoot
	}
	return DefaultGitRoot()
}

// NewLogger builds the process logger from the log section
func NewLogger(w io.Writer, lc LogConfig) *slog.Logger {
	level, err := parseLevel(lc.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(lc.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level %q is not one of debug, info, warn, error", s)
}
