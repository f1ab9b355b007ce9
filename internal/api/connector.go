package api

import (
	"context"

	"github.com/Amerone/dabase-tool/internal/session"
)

// Conn is an open session the handlers close when done.
type Conn interface {
	session.Session
	Close() error
}

// Connector opens DM8 sessions for request handlers.
type Connector interface {
	Open(ctx context.Context, cfg session.ConnectionConfig) (Conn, error)
	Test(ctx context.Context, cfg session.ConnectionConfig) error
}

// ODBCConnector connects through the DM8 ODBC driver.
type ODBCConnector struct {
	Driver session.ResolvedDriver
}

func (c ODBCConnector) Open(ctx context.Context, cfg session.ConnectionConfig) (Conn, error) {
	s, err := session.Open(ctx, cfg, session.WithDriver(c.Driver))
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (c ODBCConnector) Test(ctx context.Context, cfg session.ConnectionConfig) error {
	return session.Test(ctx, cfg, session.WithDriver(c.Driver))
}
