// Package main is the dmexport command line. It lists and describes DM8
// tables, writes DDL and data export scripts, verifies generated scripts,
// and serves the HTTP API.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Amerone/dabase-tool/internal/api"
	"github.com/Amerone/dabase-tool/internal/config"
	"github.com/Amerone/dabase-tool/internal/logging"
	"github.com/Amerone/dabase-tool/internal/output"
	"github.com/Amerone/dabase-tool/internal/session"
)

// app carries state shared by all subcommands. Fields left nil are filled
// in by the root command's pre-run hook.
type app struct {
	settings  *config.Config
	log       *zap.Logger
	connector api.Connector
	stdout    io.Writer
	stderr    io.Writer

	configFile string
	logLevel   string
	format     string
	conn       connFlags
}

func main() {
	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "dmexport",
		Short:        "DM8 schema and data export tool",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "Settings file (default: dmexport.yaml or dmexport.toml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&a.format, "format", "f", "", "Output format: human, json or yaml")

	rootCmd.AddCommand(
		newTablesCmd(a),
		newDescribeCmd(a),
		newSchemasCmd(a),
		newExportCmd(a),
		newServeCmd(a),
		newProfileCmd(a),
		newVerifyCmd(a),
	)
	return rootCmd
}

func (a *app) init() error {
	if a.settings == nil {
		settings, err := config.Load(config.Options{File: a.configFile, EnvFiles: []string{".env"}})
		if err != nil {
			return err
		}
		a.settings = settings
	}
	if a.log == nil {
		level := a.settings.Log.Level
		if a.logLevel != "" {
			level = a.logLevel
		}
		log, err := logging.New(level)
		if err != nil {
			return err
		}
		a.log = log
	}
	return nil
}

// dm8 returns the connector, resolving the ODBC driver on first use.
func (a *app) dm8() api.Connector {
	if a.connector == nil {
		d := session.ResolveDriver()
		if err := session.ApplyDriverEnv(d); err != nil {
			a.log.Warn("failed to export driver environment", zap.Error(err))
		}
		a.log.Debug("resolved DM8 driver", zap.String("driver", d.Driver), zap.String("source", string(d.Source)))
		a.connector = api.ODBCConnector{Driver: d}
	}
	return a.connector
}

func (a *app) formatter() (output.Formatter, error) {
	return output.NewFormatter(a.format)
}

// printInfo writes status lines to stderr when stdout carries JSON or YAML.
func (a *app) printInfo(msg string) {
	switch output.Format(strings.ToLower(strings.TrimSpace(a.format))) {
	case output.FormatJSON, output.FormatYAML, "yml":
		_, _ = fmt.Fprintln(a.stderr, msg)
	default:
		_, _ = fmt.Fprintln(a.stdout, msg)
	}
}

func (a *app) print(s string) {
	_, _ = io.WriteString(a.stdout, s)
}
