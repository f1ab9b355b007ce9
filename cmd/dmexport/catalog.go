package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Amerone/dabase-tool/internal/api"
	"github.com/Amerone/dabase-tool/internal/introspect"
	"github.com/Amerone/dabase-tool/internal/session"
)

func newTablesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables of a schema with comments and row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := a.formatter()
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, cfg session.ConnectionConfig, conn api.Conn) error {
				tables, err := introspect.New(conn, introspect.WithLogger(a.log)).ListTables(ctx, cfg.Schema)
				if err != nil {
					return err
				}
				formatted, err := formatter.FormatTables(cfg.Schema, tables)
				if err != nil {
					return fmt.Errorf("failed to format output: %w", err)
				}
				a.print(formatted)
				return nil
			})
		},
	}
	addConnFlags(cmd, &a.conn)
	return cmd
}

func newDescribeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <table>",
		Short: "Show columns, constraints, indexes and triggers of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := a.formatter()
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, cfg session.ConnectionConfig, conn api.Conn) error {
				details, err := introspect.New(conn, introspect.WithLogger(a.log)).GetTableDetails(ctx, cfg.Schema, args[0])
				if err != nil {
					return err
				}
				formatted, err := formatter.FormatDetails(details)
				if err != nil {
					return fmt.Errorf("failed to format output: %w", err)
				}
				a.print(formatted)
				return nil
			})
		},
	}
	addConnFlags(cmd, &a.conn)
	return cmd
}

func newSchemasCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "List the schemas visible to the login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := a.formatter()
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, _ session.ConnectionConfig, conn api.Conn) error {
				schemas, err := introspect.New(conn, introspect.WithLogger(a.log)).ListSchemas(ctx)
				if err != nil {
					return err
				}
				formatted, err := formatter.FormatSchemas(schemas)
				if err != nil {
					return fmt.Errorf("failed to format output: %w", err)
				}
				a.print(formatted)
				return nil
			})
		},
	}
	addConnFlags(cmd, &a.conn)
	return cmd
}
