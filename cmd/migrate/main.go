// Command migrate manages the versioned postgres schema
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/advisory/backoffice/internal/infrastructure/config"
	"github.com/advisory/backoffice/internal/infrastructure/logger"
	"github.com/advisory/backoffice/internal/infrastructure/migration"
	"github.com/advisory/backoffice/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(config.Load).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type cli struct {
	loadConfig func() (*config.Config, error)
	dir        string
	logLevel   string
	log        *zap.Logger
}

func newRootCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	c := &cli{loadConfig: loadConfig, log: zap.NewNop()}

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply and author postgres schema migrations",
		SilenceUsage: true,
		Example: `  migrate up
  migrate steps -- -1
  migrate create add_fund_index "Index snapshots by fund code"`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.New(&logger.Config{Level: c.logLevel, Format: "console", Output: "stdout"})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync(c.log)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&c.dir, "path", "",
		"Migrations directory (default: the embedded set; ./migrations for create)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(
		c.migratorCmd("up", "Apply all pending migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error { return m.Up() }),
		c.migratorCmd("down", "Roll back all migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error { return m.Down() }),
		c.migratorCmd("steps <n>", "Apply n migrations; negative n rolls back and needs a leading --", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		c.migratorCmd("goto <version>", "Migrate up or down to a version", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.GoTo(uint(v))
			}),
		c.migratorCmd("version", "Show the applied version", cobra.NoArgs, c.printVersion),
		c.migratorCmd("force <version>", "Record a version without running it, clearing the dirty flag", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(v)
			}),
		c.dropCmd(),
		c.createCmd(),
		c.listCmd(),
	)
	return root
}

// migratorCmd wraps run with a connected migrator
func (c *cli) migratorCmd(use, short string, args cobra.PositionalArgs, run func(*migration.Migrator, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withMigrator(cmd.Context(), func(m *migration.Migrator) error {
				return run(m, args)
			})
		},
	}
}

func (c *cli) withMigrator(ctx context.Context, fn func(*migration.Migrator) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("versioned migrations target postgres, got %q; sqlite builds its schema on startup",
			cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to reach database: %w", err)
	}

	m, err := migration.New(db, migration.Source{Dir: c.dir, FS: migrations.FS}, c.log)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

func (c *cli) printVersion(m *migration.Migrator, _ []string) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		c.log.Info("No migrations applied")
		return nil
	}
	c.log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func (c *cli) dropCmd() *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop every database object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to drop without --confirm")
			}
			return c.withMigrator(cmd.Context(), func(m *migration.Migrator) error { return m.Drop() })
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm dropping the schema")
	return cmd
}

func (c *cli) createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Write the next numbered up/down migration pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := c.dir
			if dir == "" {
				dir = "migrations"
			}
			var description string
			if len(args) == 2 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(dir, args[0], description, time.Now())
			if err != nil {
				return err
			}
			c.log.Info("Migration created",
				zap.String("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath))
			return nil
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var fsys fs.FS = migrations.FS
			if c.dir != "" {
				fsys = os.DirFS(c.dir)
			}
			names, err := migration.ListMigrations(fsys)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
