package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pgdeck/internal/exporter"
)

var errUnreachable = errors.New("database unreachable")

func newProbeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check that the database accepts connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := a.requireTarget()
			if err != nil {
				return err
			}
			if !a.svc.Probe(cmd.Context(), target) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "unreachable")
				return errUnreachable
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newQueryCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run one statement and print the result",
		Example: `  pgdeck query -d postgres://localhost/app "SELECT * FROM users"
  pgdeck query -o json "SELECT now()"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := a.requireTarget()
			if err != nil {
				return err
			}

			switch output {
			case "json":
				out, err := a.svc.ExecuteQuery(cmd.Context(), target, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			case "table":
				result, err := a.svc.Query(cmd.Context(), target, args[0])
				if err != nil {
					return err
				}
				renderResult(cmd.OutOrStdout(), result)
				return nil
			default:
				return fmt.Errorf("unknown output %q (want table or json)", output)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table|json)")
	_ = cmd.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func newTablesCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List schemas, tables and columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := a.requireTarget()
			if err != nil {
				return err
			}
			schemas, err := a.svc.Schemas(cmd.Context(), target)
			if err != nil {
				return err
			}

			if output == "json" {
				return renderJSON(cmd.OutOrStdout(), schemas)
			}
			renderSchemas(cmd.OutOrStdout(), schemas)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table|json)")
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export <sql>",
		Short: "Run one statement and write the result to a file",
		Example: `  pgdeck export "SELECT * FROM users" --format xlsx --out users.xlsx
  pgdeck export "SELECT * FROM users" --format json > users.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}
			target, err := a.requireTarget()
			if err != nil {
				return err
			}

			result, err := a.svc.Query(cmd.Context(), target, args[0])
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer func() { _ = file.Close() }()
				w = file
			}

			enc, err := exporter.NewEncoder(f, w)
			if err != nil {
				return err
			}
			stats, err := exporter.Export(cmd.Context(), result, enc)
			if err != nil {
				return err
			}
			if out != "" && out != "-" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s in %v\n", stats.RowsProcessed, out, stats.Duration)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Export format (csv|json|xlsx|pdf)")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default: stdout)")
	return cmd
}
