package api

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/Amerone/dabase-tool/internal/configstore"
	"github.com/Amerone/dabase-tool/internal/core"
	"github.com/Amerone/dabase-tool/internal/session"
)

func (s *Server) getConnection(c *gin.Context) {
	stored, err := s.resolveProfile()
	if err != nil {
		fail(c, "Failed to load connection", err)
		return
	}
	success(c, stored)
}

func (s *Server) saveConnection(c *gin.Context) {
	var cfg session.ConnectionConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	if s.store == nil {
		fail(c, "Failed to save connection", fmt.Errorf("%w: no profile store configured", core.ErrConfig))
		return
	}
	stored, err := s.store.Save(cfg)
	if err != nil {
		fail(c, "Failed to save connection", err)
		return
	}
	success(c, stored)
}

// resolveProfile reads the saved profile or, without a store, the
// DATABASE_* environment.
func (s *Server) resolveProfile() (*configstore.StoredConnection, error) {
	if s.store != nil {
		return s.store.Resolve()
	}
	cfg, err := configstore.FromEnv(lookupEnv)
	if err != nil {
		return nil, fmt.Errorf("no saved connection and failed to read env: %w", err)
	}
	return &configstore.StoredConnection{Config: cfg, Source: configstore.SourceEnv}, nil
}

var lookupEnv = os.LookupEnv
