// Package api serves the DM8 export HTTP API.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Amerone/dabase-tool/internal/configstore"
	"github.com/Amerone/dabase-tool/internal/dialect"
	"github.com/Amerone/dabase-tool/internal/export"
	"github.com/Amerone/dabase-tool/internal/introspect"
	"github.com/Amerone/dabase-tool/internal/metrics"
)

// Server holds the dependencies shared by all handlers.
type Server struct {
	connector  Connector
	store      *configstore.Store
	level      *introspect.TriggerLevel
	metrics    *metrics.Metrics
	log        *zap.Logger
	exportDir  string
	batchSize  int
	terminator dialect.TriggerTerminator
	now        func() time.Time
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func WithStore(st *configstore.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithExportDir sets the directory export files are written to.
func WithExportDir(dir string) Option {
	return func(s *Server) { s.exportDir = dir }
}

// WithBatchSize sets the data export batch size used when a request omits it.
func WithBatchSize(n int) Option {
	return func(s *Server) { s.batchSize = n }
}

// WithTriggerTerminator sets the mode used when a request omits it.
func WithTriggerTerminator(t dialect.TriggerTerminator) Option {
	return func(s *Server) { s.terminator = t }
}

// WithClock sets the time source used for export file names.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New builds a Server. The trigger query level is shared by every request
// the server handles.
func New(connector Connector, opts ...Option) *Server {
	s := &Server{
		connector:  connector,
		level:      introspect.NewTriggerLevel(),
		log:        zap.NewNop(),
		exportDir:  "exports",
		batchSize:  export.DefaultBatchSize,
		terminator: dialect.TerminatorStatement,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the gin engine with all routes registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), permissiveCORS(), accessLog(s.log, s.metrics))

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.POST("/connection/test", s.testConnection)
		api.GET("/schemas", s.listSchemas)
		api.GET("/tables", s.listTables)
		api.GET("/tables/:table/details", s.tableDetails)
		api.POST("/export/ddl", s.exportDDL)
		api.POST("/export/data", s.exportData)
		api.GET("/config/connection", s.getConnection)
		api.POST("/config/connection", s.saveConnection)
	}
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
