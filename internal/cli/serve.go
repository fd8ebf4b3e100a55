package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/TRIADBLUE/consoleblue/internal/server"
	"github.com/TRIADBLUE/consoleblue/internal/server/events"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  `Runs the JSON API and the /api/events stream.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "server port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(events.NewSSEServer())
	if err != nil {
		return err
	}
	defer a.Close()

	port := a.cfg.Server.Port
	if servePort > 0 {
		port = servePort
	}

	srv := server.NewServer(server.Config{
		Port:         port,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}, server.Deps{
		DB:            a.db,
		Projects:      a.projects,
		Fragments:     a.fragments,
		Assembler:     a.assembler,
		Publisher:     a.publisher,
		Generator:     a.generator,
		Notifications: a.notifications,
		Events:        a.events,
		Logger:        a.log,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.log.Info("shutting down")
		return srv.Stop(context.Background())
	}
}
