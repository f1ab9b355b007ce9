package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Amerone/dabase-tool/internal/core"
	"github.com/Amerone/dabase-tool/internal/dialect"
	"github.com/Amerone/dabase-tool/internal/export"
	"github.com/Amerone/dabase-tool/internal/session"
)

// ExportRequest is the body of both export endpoints. BatchSize and
// IncludeRowCounts apply to data exports; DropExisting and
// TriggerTerminator to DDL exports.
type ExportRequest struct {
	Config            session.ConnectionConfig `json:"config"`
	ExportSchema      string                   `json:"export_schema"`
	Tables            []string                 `json:"tables"`
	BatchSize         int                      `json:"batch_size"`
	DropExisting      bool                     `json:"drop_existing"`
	IncludeRowCounts  bool                     `json:"include_row_counts"`
	TriggerTerminator string                   `json:"trigger_terminator"`
}

func (s *Server) exportDDL(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	terminator := s.terminator
	if req.TriggerTerminator != "" {
		t, err := dialect.ParseTriggerTerminator(req.TriggerTerminator)
		if err != nil {
			fail(c, "Failed to export DDL", err)
			return
		}
		terminator = t
	}

	target, err := exportTarget(req)
	if err != nil {
		fail(c, "Failed to export DDL", err)
		return
	}

	conn, ok := s.open(c, req.Config)
	if !ok {
		return
	}
	defer s.closeConn(conn)

	source := req.Config.Schema
	path := export.FileName(s.exportDir, source, target, export.KindDDL, s.now())

	result, err := s.exporter(conn).ExportDDL(c.Request.Context(), export.DDLRequest{
		SourceSchema: source,
		TargetSchema: target,
		Tables:       req.Tables,
		DropExisting: req.DropExisting,
		Terminator:   terminator,
		OutputPath:   path,
	})
	if err != nil {
		fail(c, "Failed to export DDL", err)
		return
	}
	s.log.Info("DDL exported", zap.String("path", result.Path), zap.Int("tables", result.Tables))
	success(c, ExportResponse{Success: true, Message: "DDL exported successfully", FilePath: result.Path})
}

func (s *Server) exportData(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	if req.BatchSize < 0 || req.BatchSize > core.MaxBatchSize {
		fail(c, "Failed to export data", fmt.Errorf("%w: batch_size must be between 0 and %d", core.ErrConfig, core.MaxBatchSize))
		return
	}
	batch := req.BatchSize
	if batch == 0 {
		batch = s.batchSize
	}
	target, err := exportTarget(req)
	if err != nil {
		fail(c, "Failed to export data", err)
		return
	}

	conn, ok := s.open(c, req.Config)
	if !ok {
		return
	}
	defer s.closeConn(conn)

	source := req.Config.Schema
	path := export.FileName(s.exportDir, source, target, export.KindData, s.now())

	result, err := s.exporter(conn).ExportData(c.Request.Context(), export.DataRequest{
		SourceSchema:     source,
		TargetSchema:     target,
		Tables:           req.Tables,
		BatchSize:        batch,
		IncludeRowCounts: req.IncludeRowCounts,
		OutputPath:       path,
	})
	if err != nil {
		fail(c, "Failed to export data", err)
		return
	}
	s.log.Info("data exported", zap.String("path", result.Path), zap.Int64("rows", result.Rows))
	success(c, ExportResponse{Success: true, Message: "Data exported successfully", FilePath: result.Path})
}

// exportTarget resolves the schema written into the script. The name also
// ends up in the export file name, so path elements are refused.
func exportTarget(req ExportRequest) (string, error) {
	if !session.ValidSchemaName(req.ExportSchema) {
		return "", fmt.Errorf("%w: export_schema must not contain path separators or '..'", core.ErrConfig)
	}
	return req.Config.TargetSchema(req.ExportSchema), nil
}

func (s *Server) exporter(conn Conn) *export.Exporter {
	return export.New(conn,
		export.WithLogger(s.log),
		export.WithMetrics(s.metrics),
		export.WithTriggerLevel(s.level),
		export.WithClock(s.now),
	)
}
