package introspect

import (
	"context"
	"fmt"

	"github.com/Amerone/dabase-tool/internal/core"
)

// GetTableDetails assembles the full object model of schema.table. It fails
// with core.ErrNotFound when the table has no columns in that schema.
func (i *Introspector) GetTableDetails(ctx context.Context, schema, table string) (*core.TableDetails, error) {
	owner := catalogName(schema)
	name := catalogName(table)

	comment, err := i.fetchTableComment(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	columns, err := i.fetchColumns(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch columns for table %s: %w", name, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: table '%s' does not exist in schema '%s'", core.ErrNotFound, name, owner)
	}

	details := &core.TableDetails{
		Name:    name,
		Comment: comment,
		Columns: columns,
	}

	if details.PrimaryKeys, err = i.fetchPrimaryKeys(ctx, owner, name); err != nil {
		return nil, fmt.Errorf("failed to fetch primary key for table %s: %w", name, err)
	}
	if details.Indexes, err = i.fetchIndexes(ctx, owner, name); err != nil {
		return nil, fmt.Errorf("failed to fetch indexes for table %s: %w", name, err)
	}
	if details.UniqueConstraints, err = i.fetchUniqueConstraints(ctx, owner, name); err != nil {
		return nil, fmt.Errorf("failed to fetch unique constraints for table %s: %w", name, err)
	}
	if details.CheckConstraints, err = i.fetchCheckConstraints(ctx, owner, name); err != nil {
		return nil, fmt.Errorf("failed to fetch check constraints for table %s: %w", name, err)
	}
	if details.ForeignKeys, err = i.fetchForeignKeys(ctx, owner, name); err != nil {
		return nil, fmt.Errorf("failed to fetch foreign keys for table %s: %w", name, err)
	}
	if details.Triggers, err = i.fetchTriggers(ctx, owner, name); err != nil {
		return nil, fmt.Errorf("failed to fetch triggers for table %s: %w", name, err)
	}

	return details, nil
}

func (i *Introspector) fetchTableComment(ctx context.Context, owner, table string) (string, error) {
	rows, err := i.query(ctx, fmt.Sprintf(
		"SELECT COMMENTS FROM ALL_TAB_COMMENTS WHERE OWNER = %s AND TABLE_NAME = %s",
		lit(owner), lit(table)))
	if err != nil {
		return "", fmt.Errorf("failed to query table comment: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return text(rows[0], 0), nil
}
