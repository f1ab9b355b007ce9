package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Amerone/dabase-tool/internal/api"
	"github.com/Amerone/dabase-tool/internal/core"
	"github.com/Amerone/dabase-tool/internal/dialect"
	"github.com/Amerone/dabase-tool/internal/export"
	"github.com/Amerone/dabase-tool/internal/session"
)

type exportFlags struct {
	tables       []string
	targetSchema string
	outFile      string
}

func (f *exportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.tables, "tables", "t", nil, "Tables to export (comma separated); positional arguments are added")
	cmd.Flags().StringVar(&f.targetSchema, "target-schema", "", "Schema written into the script (default: profile export schema, then source schema)")
	cmd.Flags().StringVarP(&f.outFile, "output", "o", "", "Output file (default: <export.dir>/<src>_to_<tgt>_<kind>_<timestamp>.sql)")
}

func (f *exportFlags) tableList(args []string) ([]string, error) {
	if !session.ValidSchemaName(f.targetSchema) {
		return nil, fmt.Errorf("%w: --target-schema must not contain path separators or '..'", core.ErrConfig)
	}
	var tables []string
	for _, t := range append(append([]string{}, f.tables...), args...) {
		if t = strings.TrimSpace(t); t != "" {
			tables = append(tables, t)
		}
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables given; use --tables or positional arguments")
	}
	return tables, nil
}

func (a *app) outputPath(f *exportFlags, source, target, kind string) string {
	if f.outFile != "" {
		return f.outFile
	}
	return export.FileName(a.settings.Export.Dir, source, target, kind, time.Now())
}

func newExportCmd(a *app) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write DDL or data scripts for a set of tables",
	}
	exportCmd.AddCommand(newExportDDLCmd(a), newExportDataCmd(a))
	return exportCmd
}

func newExportDDLCmd(a *app) *cobra.Command {
	var flags exportFlags
	var dropExisting bool
	var terminator string

	cmd := &cobra.Command{
		Use:   "ddl [table...]",
		Short: "Export CREATE statements, constraints, indexes, sequences and triggers",
		Long: `Export DDL reads every requested table from the catalog, then writes one
script with tables, constraints, indexes, foreign keys, sequences and triggers.

Trigger terminators:
  datagrip  each trigger ends with ';' only
  script    each trigger is followed by a '/' line (DIsql and similar tools)
  separate  triggers go to a sibling .triggers.sql file in script form`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := flags.tableList(args)
			if err != nil {
				return err
			}
			if terminator == "" {
				terminator = a.settings.Export.TriggerTerminator
			}
			mode, err := dialect.ParseTriggerTerminator(terminator)
			if err != nil {
				return err
			}
			formatter, err := a.formatter()
			if err != nil {
				return err
			}

			return a.withSession(cmd, func(ctx context.Context, cfg session.ConnectionConfig, conn api.Conn) error {
				target := cfg.TargetSchema(flags.targetSchema)
				path := a.outputPath(&flags, cfg.Schema, target, export.KindDDL)
				a.printInfo(fmt.Sprintf("Exporting DDL for %d table(s) from %s to %s", len(tables), cfg.Schema, target))

				result, err := export.New(conn, export.WithLogger(a.log)).ExportDDL(ctx, export.DDLRequest{
					SourceSchema: cfg.Schema,
					TargetSchema: target,
					Tables:       tables,
					DropExisting: dropExisting,
					Terminator:   mode,
					OutputPath:   path,
				})
				if err != nil {
					return fmt.Errorf("failed to export DDL: %w", err)
				}
				formatted, err := formatter.FormatDDLResult(result)
				if err != nil {
					return fmt.Errorf("failed to format output: %w", err)
				}
				a.print(formatted)
				return nil
			})
		},
	}
	addConnFlags(cmd, &a.conn)
	flags.register(cmd)
	cmd.Flags().BoolVar(&dropExisting, "drop-existing", false, "Emit DROP TABLE IF EXISTS before each CREATE TABLE")
	cmd.Flags().StringVar(&terminator, "trigger-terminator", "", "Trigger terminator: datagrip, script or separate (default: export.trigger_terminator)")
	return cmd
}

func newExportDataCmd(a *app) *cobra.Command {
	var flags exportFlags
	var batchSize int
	var rowCounts bool

	cmd := &cobra.Command{
		Use:   "data [table...]",
		Short: "Export TRUNCATE and batched INSERT statements",
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := flags.tableList(args)
			if err != nil {
				return err
			}
			if batchSize <= 0 {
				batchSize = a.settings.Export.BatchSize
			}
			if batchSize > core.MaxBatchSize {
				return fmt.Errorf("%w: --batch-size must not exceed %d", core.ErrConfig, core.MaxBatchSize)
			}
			formatter, err := a.formatter()
			if err != nil {
				return err
			}

			return a.withSession(cmd, func(ctx context.Context, cfg session.ConnectionConfig, conn api.Conn) error {
				target := cfg.TargetSchema(flags.targetSchema)
				path := a.outputPath(&flags, cfg.Schema, target, export.KindData)
				a.printInfo(fmt.Sprintf("Exporting data for %d table(s) from %s to %s", len(tables), cfg.Schema, target))

				result, err := export.New(conn, export.WithLogger(a.log)).ExportData(ctx, export.DataRequest{
					SourceSchema:     cfg.Schema,
					TargetSchema:     target,
					Tables:           tables,
					BatchSize:        batchSize,
					IncludeRowCounts: rowCounts,
					OutputPath:       path,
				})
				if err != nil {
					return fmt.Errorf("failed to export data: %w", err)
				}
				formatted, err := formatter.FormatDataResult(result)
				if err != nil {
					return fmt.Errorf("failed to format output: %w", err)
				}
				a.print(formatted)
				return nil
			})
		},
	}
	addConnFlags(cmd, &a.conn)
	flags.register(cmd)
	cmd.Flags().IntVarP(&batchSize, "batch-size", "b", 0, "Rows per INSERT statement (default: export.batch_size)")
	cmd.Flags().BoolVar(&rowCounts, "row-counts", false, "Count rows before exporting and note them in the script header")
	return cmd
}
