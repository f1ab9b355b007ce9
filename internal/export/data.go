package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Amerone/dabase-tool/internal/core"
)

// DataRequest describes a data export.
type DataRequest struct {
	SourceSchema     string
	TargetSchema     string
	Tables           []string
	BatchSize        int
	IncludeRowCounts bool
	OutputPath       string
}

// DataResult reports what a data export wrote.
type DataResult struct {
	Path   string `json:"path" yaml:"path"`
	Tables int    `json:"tables" yaml:"tables"`
	Rows   int64  `json:"rows" yaml:"rows"`
}

type tableCount struct {
	name  string
	count *int64
}

// ExportData writes a TRUNCATE plus batched INSERT script for req.Tables.
// Sequences of the source schema are reset to their captured values first.
func (e *Exporter) ExportData(ctx context.Context, req DataRequest) (result *DataResult, err error) {
	start := time.Now()
	defer func() { e.metrics.ObserveExport(KindData, time.Since(start), err) }()

	source, target := schemaPair(req.SourceSchema, req.TargetSchema)
	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize > core.MaxBatchSize {
		batchSize = core.MaxBatchSize
	}

	sequences, seqErr := e.introspector.FetchSequences(ctx, source)
	if seqErr != nil {
		e.log.Debug("sequence listing unavailable", zap.String("schema", source), zap.Error(seqErr))
		sequences = nil
	}

	counts := make([]tableCount, 0, len(req.Tables))
	var total int64
	for _, name := range req.Tables {
		tc := tableCount{name: strings.ToUpper(strings.TrimSpace(name))}
		if req.IncludeRowCounts {
			n, err := e.introspector.CountRows(ctx, source, tc.name)
			if err != nil {
				e.log.Debug("row count estimate failed", zap.String("table", tc.name), zap.Error(err))
			} else {
				tc.count = &n
				total += n
			}
		}
		counts = append(counts, tc)
	}

	out, err := createScript(req.OutputPath)
	if err != nil {
		return nil, err
	}
	defer closeScript(out, &err)

	out.line("-- DM8 Data Export")
	out.linef("-- Tables: %d", len(counts))
	if req.IncludeRowCounts {
		out.linef("-- Rows (estimated): %d", total)
	} else {
		out.line("-- Rows (estimated): skipped (per request)")
	}
	out.linef("-- Generated at: %s", e.timestamp())
	out.line("-- Warning: This script truncates tables before inserting data.")
	if len(sequences) > 0 {
		out.line("-- Sequences will be reset to their current values before inserts")
	}
	out.blank()

	if len(sequences) > 0 {
		out.line("-- Reset sequences")
		for _, seq := range sequences {
			out.linef("ALTER SEQUENCE %s RESTART WITH %d;",
				e.gen.QuoteIdentifier(target+"."+seq.Name), seq.RestartValue())
		}
		out.blank()
	}

	result = &DataResult{Path: req.OutputPath, Tables: len(counts)}
	for i, tc := range counts {
		details, err := e.introspector.GetTableDetails(ctx, source, tc.name)
		if err != nil {
			return nil, fmt.Errorf("failed to export data for table '%s': %w", tc.name, err)
		}

		if i > 0 {
			out.blank()
		}
		rows := " (rows unknown)"
		if tc.count != nil {
			rows = fmt.Sprintf(" (%d rows)", *tc.count)
		}
		out.linef("-- Data for table: %s.%s%s", target, tc.name, rows)

		qualified := e.gen.QuoteIdentifier(target + "." + tc.name)
		out.linef("TRUNCATE TABLE %s;", qualified)

		_, identity := details.IdentityColumn()
		if identity {
			out.linef("SET IDENTITY_INSERT %s ON;", qualified)
		}
		n, err := e.exportTableData(ctx, out, source, target, details, batchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to export data for table '%s': %w", tc.name, err)
		}
		if identity {
			out.linef("SET IDENTITY_INSERT %s OFF;", qualified)
		}

		result.Rows += n
		e.metrics.AddExportedRows(source, n)
		e.log.Info("table data exported",
			zap.String("table", source+"."+tc.name),
			zap.Int64("rows", n))
	}

	return result, nil
}

// exportTableData streams the rows of one table as multi-row INSERT
// statements of at most batchSize rows each. The SELECT names every column
// so values line up with the INSERT column list.
func (e *Exporter) exportTableData(ctx context.Context, out *scriptFile, source, target string, t *core.TableDetails, batchSize int) (int64, error) {
	names := t.ColumnNames()
	if len(names) == 0 {
		return 0, nil
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = e.gen.QuoteIdentifier(n)
	}
	columnList := strings.Join(quoted, ", ")

	query := fmt.Sprintf("SELECT %s FROM %s", columnList, e.gen.QuoteIdentifier(source+"."+t.Name))
	cursor, err := e.session.Execute(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to select rows: %w", err)
	}
	if cursor == nil {
		return 0, nil
	}
	defer cursor.Close()

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES", e.gen.QuoteIdentifier(target+"."+t.Name), columnList)
	var pending []string
	flush := func() {
		if len(pending) == 0 {
			return
		}
		out.line(insert)
		out.line(strings.Join(pending, ",\n") + ";")
		pending = pending[:0]
	}

	var (
		count  int64
		values = make([]string, len(t.Columns))
	)
	for {
		batch, err := cursor.Fetch(batchSize)
		if err != nil {
			return count, fmt.Errorf("failed to fetch rows: %w", err)
		}
		if batch.NumRows() == 0 {
			break
		}
		for row := 0; row < batch.NumRows(); row++ {
			for col, c := range t.Columns {
				raw, ok := batch.Text(col, row)
				if !ok {
					values[col] = "NULL"
					continue
				}
				values[col] = e.gen.FormatValue(c.DataType, raw)
			}
			pending = append(pending, "("+strings.Join(values, ", ")+")")
			count++
			if len(pending) >= batchSize {
				flush()
			}
		}
	}
	flush()
	return count, nil
}
