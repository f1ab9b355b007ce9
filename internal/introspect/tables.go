package introspect

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Amerone/dabase-tool/internal/core"
)

// ListTables lists the tables of schema with comments and row counts. The
// catalog's NUM_ROWS statistic is used when positive; otherwise a live
// COUNT(*) is attempted and a failure leaves the count unknown.
func (i *Introspector) ListTables(ctx context.Context, schema string) ([]core.Table, error) {
	owner := catalogName(schema)

	rows, err := i.query(ctx, fmt.Sprintf(
		"SELECT t.TABLE_NAME, c.COMMENTS, NVL(t.NUM_ROWS, 0) AS NUM_ROWS "+
			"FROM ALL_TABLES t "+
			"LEFT JOIN ALL_TAB_COMMENTS c ON t.OWNER = c.OWNER AND t.TABLE_NAME = c.TABLE_NAME "+
			"WHERE t.OWNER = %s "+
			"ORDER BY t.TABLE_NAME",
		lit(owner)))
	if err != nil {
		return nil, fmt.Errorf("failed to query DM8 tables: %w", err)
	}

	tables := make([]core.Table, 0, len(rows))
	for _, row := range rows {
		name, err := requireText(row, 0, "table")
		if err != nil {
			return nil, err
		}
		tables = append(tables, core.Table{
			Name:     name,
			Comment:  text(row, 1),
			RowCount: parseInt64(row, 2),
		})
	}

	for idx := range tables {
		t := &tables[idx]
		if t.RowCount != nil && *t.RowCount > 0 {
			continue
		}
		count, err := i.CountRows(ctx, owner, t.Name)
		if err != nil {
			i.log.Debug("row count fallback failed", zap.String("table", t.Name), zap.Error(err))
			t.RowCount = nil
			continue
		}
		t.RowCount = &count
	}

	return tables, nil
}

// CountRows runs a live COUNT(*) on schema.table.
func (i *Introspector) CountRows(ctx context.Context, schema, table string) (int64, error) {
	rows, err := i.query(ctx, fmt.Sprintf("SELECT COUNT(*) AS CNT FROM %s.%s", ident(schema), ident(table)))
	if err != nil {
		return 0, fmt.Errorf("failed to count rows for table %s: %w", table, err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("failed to read row count for %s", table)
	}
	n := parseInt64(rows[0], 0)
	if n == nil {
		return 0, fmt.Errorf("failed to read row count for %s", table)
	}
	return *n, nil
}

// ListSchemas lists the schemas visible to the session user.
func (i *Introspector) ListSchemas(ctx context.Context) ([]string, error) {
	rows, err := i.query(ctx, "SELECT USERNAME FROM ALL_USERS ORDER BY USERNAME")
	if err != nil {
		return nil, fmt.Errorf("failed to query DM8 schemas: %w", err)
	}
	schemas := make([]string, 0, len(rows))
	for _, row := range rows {
		if name := trimmed(row, 0); name != "" {
			schemas = append(schemas, name)
		}
	}
	return schemas, nil
}
