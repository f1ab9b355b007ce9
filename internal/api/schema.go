package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Amerone/dabase-tool/internal/introspect"
	"github.com/Amerone/dabase-tool/internal/session"
)

// connectionQuery carries a login in the query string.
type connectionQuery struct {
	Host     string `form:"host"`
	Port     int    `form:"port"`
	Username string `form:"username"`
	Password string `form:"password"`
	Schema   string `form:"schema"`
}

func (q connectionQuery) config() session.ConnectionConfig {
	return session.ConnectionConfig{
		Host:     q.Host,
		Port:     q.Port,
		Username: q.Username,
		Password: q.Password,
		Schema:   q.Schema,
	}
}

func (s *Server) testConnection(c *gin.Context) {
	var cfg session.ConnectionConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		fail(c, "Connection test failed", err)
		return
	}
	if err := s.connector.Test(c.Request.Context(), cfg); err != nil {
		s.log.Error("DM8 connection test failed", zap.String("dsn", cfg.DisplayDSN()), zap.Error(err))
		fail(c, "Connection test failed", err)
		return
	}
	success(c, TestConnectionResponse{Success: true, Message: "Connection successful"})
}

// listSchemas uses the query-string login when a host is given, otherwise
// the saved profile.
func (s *Server) listSchemas(c *gin.Context) {
	var q connectionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query", err)
		return
	}
	cfg := q.config()
	if q.Host == "" {
		resolved, err := s.resolveProfile()
		if err != nil {
			fail(c, "Failed to resolve connection", err)
			return
		}
		cfg = resolved.Config
	}

	conn, ok := s.open(c, cfg)
	if !ok {
		return
	}
	defer s.closeConn(conn)

	schemas, err := introspect.New(conn, s.introspectOptions()...).ListSchemas(c.Request.Context())
	if err != nil {
		fail(c, "Failed to get schemas", err)
		return
	}
	success(c, schemas)
}

func (s *Server) listTables(c *gin.Context) {
	var q connectionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query", err)
		return
	}
	conn, ok := s.open(c, q.config())
	if !ok {
		return
	}
	defer s.closeConn(conn)

	tables, err := introspect.New(conn, s.introspectOptions()...).ListTables(c.Request.Context(), q.Schema)
	if err != nil {
		fail(c, "Failed to get tables", err)
		return
	}
	success(c, tables)
}

func (s *Server) tableDetails(c *gin.Context) {
	var q connectionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query", err)
		return
	}
	conn, ok := s.open(c, q.config())
	if !ok {
		return
	}
	defer s.closeConn(conn)

	details, err := introspect.New(conn, s.introspectOptions()...).
		GetTableDetails(c.Request.Context(), q.Schema, c.Param("table"))
	if err != nil {
		fail(c, "Failed to get table details", err)
		return
	}
	success(c, details)
}

// open validates cfg and connects. On failure it writes the response and
// returns false.
func (s *Server) open(c *gin.Context, cfg session.ConnectionConfig) (Conn, bool) {
	if err := cfg.Validate(); err != nil {
		fail(c, "Failed to create connection", err)
		return nil, false
	}
	conn, err := s.connector.Open(c.Request.Context(), cfg)
	if err != nil {
		fail(c, "Failed to get connection", err)
		return nil, false
	}
	return conn, true
}

func (s *Server) closeConn(conn Conn) {
	if err := conn.Close(); err != nil {
		s.log.Warn("failed to close DM8 session", zap.Error(err))
	}
}

func (s *Server) introspectOptions() []introspect.Option {
	return []introspect.Option{
		introspect.WithLogger(s.log),
		introspect.WithMetrics(s.metrics),
		introspect.WithTriggerLevel(s.level),
	}
}
