package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/TRIADBLUE/consoleblue/internal/analytics"
	"github.com/TRIADBLUE/consoleblue/internal/assembly"
	"github.com/TRIADBLUE/consoleblue/internal/audit"
	"github.com/TRIADBLUE/consoleblue/internal/config"
	"github.com/TRIADBLUE/consoleblue/internal/db"
	"github.com/TRIADBLUE/consoleblue/internal/fragment"
	"github.com/TRIADBLUE/consoleblue/internal/generator"
	"github.com/TRIADBLUE/consoleblue/internal/notification"
	"github.com/TRIADBLUE/consoleblue/internal/operator"
	"github.com/TRIADBLUE/consoleblue/internal/project"
	"github.com/TRIADBLUE/consoleblue/internal/publish"
	"github.com/TRIADBLUE/consoleblue/internal/pushlog"
	"github.com/TRIADBLUE/consoleblue/internal/server/events"
	"github.com/TRIADBLUE/consoleblue/internal/template"
	"github.com/TRIADBLUE/consoleblue/internal/vcs"
)

// app holds every service built from one configuration
type app struct {
	cfg *config.Config
	log *slog.Logger
	db  *db.DB

	audit         *audit.Service
	projects      *project.Service
	fragments     *fragment.Service
	operators     *operator.Service
	history       *pushlog.Service
	notifications *notification.Service
	assembler     *assembly.Assembler
	publisher     *publish.Publisher
	generator     *generator.Service
	analytics     *analytics.Service
	events        *events.Publisher
}

// loadConfig reads the config file and applies the --db and --verbose flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openApp wires the services. sse may be nil when no event stream is served.
func openApp(sse *events.SSEServer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := config.NewLogger(os.Stderr, cfg.Log)

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	client, err := newVCSClient(cfg, logger)
	if err != nil {
		database.Close()
		return nil, err
	}

	a := &app{cfg: cfg, log: logger, db: database, events: events.NewPublisher(sse)}
	a.audit = audit.NewService(database, logger)
	a.projects = project.NewService(database, a.audit)
	a.fragments = fragment.NewService(database, a.audit)
	a.operators = operator.NewService(database)
	a.history = pushlog.NewService(database, pushlog.Limits{Default: cfg.Docs.HistoryLimit, Max: cfg.Docs.HistoryMax})
	a.notifications = notification.NewService(database)
	a.assembler = assembly.New(a.fragments)
	a.publisher = publish.New(a.projects, a.assembler, client, a.history, publish.Options{
		Owner:      cfg.VCS.Owner,
		Branch:     cfg.VCS.DefaultBranch,
		TargetPath: cfg.Docs.TargetPath,
		Timeout:    cfg.VCS.Timeout,
		Audit:      a.audit,
		Events:     a.events,
		Logger:     logger,
	})
	gen := template.NewGenerator(template.Options{
		Organization:  cfg.Docs.Organization,
		DefaultOwner:  cfg.VCS.Owner,
		DefaultBranch: cfg.VCS.DefaultBranch,
		TargetPath:    cfg.Docs.TargetPath,
		Logger:        logger,
	})
	broadcaster := notification.NewBroadcaster(a.operators, a.notifications, a.events, logger)
	a.generator = generator.NewService(a.projects, a.fragments, gen, a.publisher, broadcaster, generator.Options{
		AutoPush:   cfg.Docs.AutoPush,
		TargetPath: cfg.Docs.TargetPath,
		Events:     a.events,
		Logger:     logger,
	})
	a.analytics = analytics.New(database, cfg.DuckDBPath(), logger)
	return a, nil
}

// Close releases the database
func (a *app) Close() {
	a.db.Close()
}

func newVCSClient(cfg *config.Config, logger *slog.Logger) (vcs.Client, error) {
	switch cfg.VCS.Provider {
	case config.ProviderGit:
		return vcs.NewGit(cfg.GitRoot(), cfg.VCS.Owner, logger), nil
	default:
		return vcs.NewGitHub(vcs.GitHubOptions{
			Token:  cfg.VCS.Token,
			Owner:  cfg.VCS.Owner,
			APIURL: cfg.VCS.APIURL,
			Logger: logger,
		})
	}
}
