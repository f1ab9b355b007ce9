package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/Amerone/dabase-tool/internal/core"
)

// fetchIndexes reads index headers first and their columns second. Indexes
// whose columns cannot be resolved are dropped; catalog order is kept.
func (i *Introspector) fetchIndexes(ctx context.Context, owner, table string) ([]core.Index, error) {
	rows, err := i.query(ctx, fmt.Sprintf(
		"SELECT ai.INDEX_NAME, ai.UNIQUENESS "+
			"FROM ALL_INDEXES ai "+
			"WHERE ai.TABLE_OWNER = %s AND ai.TABLE_NAME = %s "+
			"ORDER BY ai.INDEX_NAME",
		lit(owner), lit(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}

	order := make([]string, 0, len(rows))
	byName := make(map[string]*core.Index, len(rows))
	for _, row := range rows {
		name, err := requireText(row, 0, "index")
		if err != nil {
			return nil, err
		}
		if _, dup := byName[name]; dup {
			continue
		}
		uniqueness := trimmed(row, 1)
		order = append(order, name)
		byName[name] = &core.Index{
			Name:   name,
			Unique: strings.EqualFold(uniqueness, "UNIQUE") || strings.EqualFold(uniqueness, "Y"),
		}
	}
	if len(order) == 0 {
		return []core.Index{}, nil
	}

	colRows, err := i.query(ctx, fmt.Sprintf(
		"SELECT ic.INDEX_NAME, ic.COLUMN_NAME "+
			"FROM ALL_IND_COLUMNS ic "+
			"WHERE ic.INDEX_OWNER = %s AND ic.TABLE_NAME = %s "+
			"ORDER BY ic.INDEX_NAME, ic.COLUMN_POSITION",
		lit(owner), lit(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to query index columns: %w", err)
	}
	for _, row := range colRows {
		indexName, ok := cell(row, 0)
		if !ok {
			continue
		}
		column, ok := cell(row, 1)
		if !ok {
			continue
		}
		if idx, found := byName[indexName]; found {
			idx.Columns = append(idx.Columns, column)
		}
	}

	indexes := make([]core.Index, 0, len(order))
	for _, name := range order {
		if idx := byName[name]; len(idx.Columns) > 0 {
			indexes = append(indexes, *idx)
		}
	}
	return indexes, nil
}
