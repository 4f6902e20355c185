// Command backoffice runs imports, legacy migrations, background jobs and token issuing
// against the configured database without starting the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/advisory/backoffice/internal/bootstrap"
	"github.com/advisory/backoffice/internal/infrastructure/config"
	"github.com/advisory/backoffice/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root, a := newRootCmd(config.Load)
	err := root.ExecuteContext(ctx)
	a.close()
	if err != nil {
		os.Exit(1)
	}
}

// annotationNoDatabase marks commands that only need the configuration
const annotationNoDatabase = "no-database"

// app carries what every subcommand needs once the root command has run
type app struct {
	loadConfig func() (*config.Config, error)
	logLevel   string

	cfg       *config.Config
	log       *zap.Logger
	container *bootstrap.Container
}

// newRootCmd builds the command tree. Post-run hooks are skipped when a
// command fails, so callers close the returned app after Execute.
func newRootCmd(loadConfig func() (*config.Config, error)) (*cobra.Command, *app) {
	a := &app{loadConfig: loadConfig}

	root := &cobra.Command{
		Use:          "backoffice",
		Short:        "Offline administration for the advisory back-office",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return a.open(cmd.Context(), cmd.Annotations[annotationNoDatabase] != "true")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newMigrateCmd(a),
		newImportCmd(a),
		newTokenCmd(a),
		newJobsCmd(a),
	)
	return root, a
}

func (a *app) open(ctx context.Context, withDatabase bool) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg

	log, err := logger.New(&logger.Config{
		Level:      a.logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = log
	if !withDatabase {
		return nil
	}

	container, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	a.container = container
	return nil
}

func (a *app) close() {
	if a.container != nil {
		if err := a.container.Close(); err != nil {
			a.log.Warn("Error releasing resources", zap.Error(err))
		}
		a.container = nil
	}
	if a.log != nil {
		_ = logger.Sync(a.log)
	}
}

// printJSON writes a command result to the command's output
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
