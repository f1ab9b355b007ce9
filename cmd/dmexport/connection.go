package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Amerone/dabase-tool/internal/api"
	"github.com/Amerone/dabase-tool/internal/configstore"
	"github.com/Amerone/dabase-tool/internal/session"
)

type connFlags struct {
	host     string
	port     int
	user     string
	password string
	schema   string
}

func addConnFlags(cmd *cobra.Command, f *connFlags) {
	cmd.Flags().StringVar(&f.host, "host", "", "DM8 host (default: saved profile)")
	cmd.Flags().IntVar(&f.port, "port", session.DefaultPort, "DM8 port")
	cmd.Flags().StringVarP(&f.user, "user", "u", "", "DM8 username")
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "DM8 password")
	cmd.Flags().StringVarP(&f.schema, "schema", "s", "", "Source schema")
}

func (a *app) store() (*configstore.Store, error) {
	return configstore.New(a.settings.Profile.Path)
}

// connectionConfig starts from the saved profile (or DATABASE_* env) and
// applies the flags the user set explicitly.
func (a *app) connectionConfig(cmd *cobra.Command) (session.ConnectionConfig, error) {
	var cfg session.ConnectionConfig
	if st, err := a.store(); err == nil {
		if stored, err := st.Resolve(); err == nil {
			cfg = stored.Config
		} else {
			a.log.Debug("no stored connection profile", zap.Error(err))
		}
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = a.conn.host
	}
	if flags.Changed("port") || cfg.Port == 0 {
		cfg.Port = a.conn.port
	}
	if flags.Changed("user") {
		cfg.Username = a.conn.user
	}
	if flags.Changed("password") {
		cfg.Password = a.conn.password
	}
	if flags.Changed("schema") {
		cfg.Schema = a.conn.schema
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// withSession opens a session from the command's connection flags and runs
// fn with it.
func (a *app) withSession(cmd *cobra.Command, fn func(ctx context.Context, cfg session.ConnectionConfig, conn api.Conn) error) error {
	cfg, err := a.connectionConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	conn, err := a.dm8().Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			a.log.Warn("failed to close DM8 session", zap.Error(cerr))
		}
	}()
	return fn(ctx, cfg, conn)
}
