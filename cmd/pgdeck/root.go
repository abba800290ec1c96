package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"pgdeck/internal/browser"
	"pgdeck/internal/config"
	"pgdeck/internal/driver"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// DatabaseURLEnv is read when --database is not given.
const DatabaseURLEnv = "PGDECK_DATABASE_URL"

var errNoTarget = errors.New("no database given: pass --database or set " + DatabaseURLEnv)

// app is the state shared by every subcommand.
type app struct {
	newOpener func(*slog.Logger) driver.Opener

	target           string
	readOnly         bool
	qualifiedColumns bool
	verbose          bool

	logger *slog.Logger
	svc    *browser.Service
}

func newRootCmd(newOpener func(*slog.Logger) driver.Opener) *cobra.Command {
	a := &app{newOpener: newOpener}

	rootCmd := &cobra.Command{
		Use:   "pgdeck",
		Short: "pgdeck - PostgreSQL browser",
		Long: `pgdeck checks connectivity, runs ad-hoc queries and lists the schemas,
tables and columns of a PostgreSQL database.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.svc != nil {
				a.svc.Wait()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.PersistentFlags().StringVarP(&a.target, "database", "d", "", "Connection string (default: $"+DatabaseURLEnv+")")
	rootCmd.PersistentFlags().BoolVar(&a.readOnly, "read-only", false, "Reject statements that could modify the database")
	rootCmd.PersistentFlags().BoolVar(&a.qualifiedColumns, "qualified-columns", false, "Look up columns by schema and table name")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log driver activity to stderr")

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newProbeCommand(a))
	rootCmd.AddCommand(newQueryCommand(a))
	rootCmd.AddCommand(newTablesCommand(a))
	rootCmd.AddCommand(newExportCommand(a))

	return rootCmd
}

// setup merges config with flags and builds the browser service.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("read-only") {
		a.readOnly = cfg.ReadOnly
	}
	if !flags.Changed("qualified-columns") {
		a.qualifiedColumns = cfg.QualifiedColumnLookup
	}
	if a.target == "" {
		a.target = os.Getenv(DatabaseURLEnv)
	}

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	a.svc = browser.New(a.newOpener(a.logger), a.logger, browser.Options{
		ReadOnly:              a.readOnly,
		QualifiedColumnLookup: a.qualifiedColumns,
	})
	return nil
}

func (a *app) requireTarget() (string, error) {
	if a.target == "" {
		return "", errNoTarget
	}
	return a.target, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "pgdeck v%s (%s)\n", Version, GitCommit)
		},
	}
}
