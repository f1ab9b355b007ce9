package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Amerone/dabase-tool/internal/core"
	"github.com/Amerone/dabase-tool/internal/dialect"
)

const banner = "-- ============================================"

// DDLRequest describes a schema DDL export.
type DDLRequest struct {
	SourceSchema string
	// TargetSchema names the schema in the generated statements. Blank
	// selects SourceSchema.
	TargetSchema string
	Tables       []string
	DropExisting bool
	Terminator   dialect.TriggerTerminator
	OutputPath   string
}

// DDLResult reports what an export wrote.
type DDLResult struct {
	Path        string `json:"path" yaml:"path"`
	TriggerPath string `json:"trigger_path,omitempty" yaml:"trigger_path,omitempty"`
	Tables      int    `json:"tables" yaml:"tables"`
	Sequences   int    `json:"sequences" yaml:"sequences"`
	Triggers    int    `json:"triggers" yaml:"triggers"`
}

// ExportDDL writes CREATE statements for req.Tables. All table metadata is
// read before the file is created, so a missing table leaves no output.
func (e *Exporter) ExportDDL(ctx context.Context, req DDLRequest) (result *DDLResult, err error) {
	start := time.Now()
	defer func() { e.metrics.ObserveExport(KindDDL, time.Since(start), err) }()

	source, target := schemaPair(req.SourceSchema, req.TargetSchema)
	mode := req.Terminator
	if mode == "" {
		mode = dialect.TerminatorStatement
	}

	tables := make([]*core.TableDetails, 0, len(req.Tables))
	for _, name := range req.Tables {
		details, err := e.introspector.GetTableDetails(ctx, source, name)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch table metadata for '%s': %w", name, err)
		}
		tables = append(tables, details)
	}

	sequences, seqErr := e.introspector.FetchSequences(ctx, source)
	if seqErr != nil {
		e.log.Debug("sequence listing unavailable", zap.String("schema", source), zap.Error(seqErr))
		sequences = nil
	}

	rendered := make([]*core.TableDetails, 0, len(tables))
	for _, t := range tables {
		rendered = append(rendered, retarget(t, source, target))
	}

	out, err := createScript(req.OutputPath)
	if err != nil {
		return nil, err
	}
	defer closeScript(out, &err)

	ts := e.timestamp()
	e.writeDDLHeader(out, ts, source, target, tables, req.DropExisting, mode)

	for i, t := range rendered {
		if i > 0 {
			out.blank()
		}
		out.linef("-- Table: %s", e.gen.QuoteIdentifier(t.Name))
		if req.DropExisting {
			out.linef("DROP TABLE IF EXISTS %s;", e.gen.QuoteIdentifier(t.Name))
		}
		out.line(e.gen.GenerateCreateTable(t))
		if pk, ok := e.gen.GeneratePrimaryKey(t); ok {
			out.section([]string{pk})
		}
		out.section(e.gen.GenerateUniqueConstraints(t))
		out.section(e.gen.GenerateCheckConstraints(t))
		out.section(e.gen.GenerateIndexes(t))
	}

	var fks []string
	for _, t := range rendered {
		fks = append(fks, e.gen.GenerateForeignKeys(t)...)
	}
	if len(fks) > 0 {
		out.blank()
		out.line("-- Foreign keys")
		out.lines(fks)
	}

	seqStmts := e.gen.GenerateSequences(target, sequences)
	var (
		trigStmts     []string
		triggerTables []string
	)
	for _, t := range tables {
		if len(t.Triggers) == 0 {
			continue
		}
		triggerTables = append(triggerTables, t.Name)
		trigStmts = append(trigStmts, e.gen.GenerateTriggers(target, t.Triggers, mode)...)
	}

	if len(seqStmts) > 0 || len(trigStmts) > 0 {
		out.blank()
		out.line(banner)
		out.line("-- SEQUENCES AND TRIGGERS")
		out.line(banner)
		out.line("-- Important: run the SEQUENCE statements before the triggers")
		out.line(banner)
	}
	if len(seqStmts) > 0 {
		out.blank()
		out.line("-- Sequences (step 1: run first)")
		out.lines(seqStmts)
	}

	result = &DDLResult{
		Path:      req.OutputPath,
		Tables:    len(tables),
		Sequences: len(seqStmts),
		Triggers:  len(trigStmts),
	}

	switch {
	case len(trigStmts) == 0:
	case mode == dialect.TerminatorSeparateFile:
		triggerPath := TriggerFileName(req.OutputPath)
		if err := e.writeTriggerFile(triggerPath, ts, target, triggerTables, trigStmts); err != nil {
			return nil, err
		}
		result.TriggerPath = triggerPath
		out.blank()
		out.line("-- Triggers (step 2: run after the sequences)")
		out.linef("-- Note: triggers were exported to a separate file: %s", filepath.Base(triggerPath))
		out.line("-- Run that file with DIsql or another DM8 native tool")
	default:
		out.blank()
		out.line("-- Triggers (step 2: run after the sequences)")
		out.lines(trigStmts)
	}

	e.log.Info("ddl export written",
		zap.String("path", req.OutputPath),
		zap.String("source", source),
		zap.String("target", target),
		zap.Int("tables", len(tables)))
	return result, nil
}

func (e *Exporter) writeDDLHeader(out *scriptFile, ts, source, target string, tables []*core.TableDetails, drop bool, mode dialect.TriggerTerminator) {
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.Name)
	}

	out.line(banner)
	out.line("-- DM8 DDL Export")
	out.line(banner)
	out.linef("-- Generated at: %s", ts)
	out.linef("-- Source schema: %s", source)
	out.linef("-- Target schema: %s", target)
	out.linef("-- Tables: %d", len(tables))
	out.linef("-- Table list: %s", strings.Join(names, ", "))
	out.line("--")
	switch mode {
	case dialect.TerminatorSeparateFile:
		out.line("-- Execution mode: DataGrip script mode")
		out.line("-- Note: triggers are exported to a separate file, run it with DIsql or another DM8 native tool")
	case dialect.TerminatorScript:
		out.line("-- Execution mode: script mode (DBeaver/SQLark/DIsql)")
		out.line("-- Note: triggers use / as the statement delimiter")
	default:
		out.line("-- Execution mode: DataGrip, one statement at a time")
		out.line("-- Note: run the statements one by one in DataGrip")
	}
	if drop {
		out.line("-- Warning: this script drops existing tables before recreating them")
	} else {
		out.line("-- Note: this script does not drop existing tables")
	}
	out.line("-- Important: triggers usually rely on SEQUENCE objects to generate keys")
	out.line("-- Important: run the SEQUENCE statements before the triggers")
	out.line(banner)
	out.blank()
}

func (e *Exporter) writeTriggerFile(path, ts, target string, tables, stmts []string) (err error) {
	out, err := createScript(path)
	if err != nil {
		return err
	}
	defer closeScript(out, &err)

	out.line(banner)
	out.line("-- DM8 Trigger DDL Export")
	out.line(banner)
	out.linef("-- Generated at: %s", ts)
	out.linef("-- Target schema: %s", target)
	out.linef("-- Triggers: %d", len(stmts))
	out.linef("-- Tables: %s", strings.Join(tables, ", "))
	out.line("--")
	out.line("-- How to run:")
	out.line("--   1. DIsql: disql USER/PASSWORD@HOST:PORT -f <this file>")
	out.line("--   2. Open this file in the DM management tool and execute it")
	out.line("--   3. In DataGrip, select and run one trigger at a time (do not use Run Script)")
	out.line("--")
	out.line("-- Important: run the SEQUENCE statements of the main DDL file first")
	out.line("-- Note: every trigger ends with / as the statement delimiter")
	out.line(banner)
	out.blank()
	for _, stmt := range stmts {
		out.line(stmt)
		out.blank()
	}
	return nil
}

// retarget returns a copy of t named in the target schema. Foreign keys that
// point into the source schema are moved along with it.
func retarget(t *core.TableDetails, source, target string) *core.TableDetails {
	clone := *t
	clone.Name = target + "." + t.Name
	clone.ForeignKeys = make([]core.ForeignKey, len(t.ForeignKeys))
	for i, fk := range t.ForeignKeys {
		if fk.ReferencedOwner == "" || strings.EqualFold(fk.ReferencedOwner, source) {
			fk.ReferencedOwner = target
		}
		clone.ForeignKeys[i] = fk
	}
	return &clone
}
