package introspect

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Amerone/dabase-tool/internal/core"
)

// notNullCheck matches the system-generated checks DM8 records for NOT NULL
// columns. Those are already expressed by the column definition.
var notNullCheck = regexp.MustCompile(`(?i)^\s*"?[A-Za-z0-9_$#]+"?\s+IS\s+NOT\s+NULL\s*$`)

func (i *Introspector) fetchPrimaryKeys(ctx context.Context, owner, table string) ([]string, error) {
	rows, err := i.query(ctx, fmt.Sprintf(
		"SELECT acc.COLUMN_NAME "+
			"FROM ALL_CONSTRAINTS ac "+
			"JOIN ALL_CONS_COLUMNS acc ON ac.OWNER = acc.OWNER AND ac.CONSTRAINT_NAME = acc.CONSTRAINT_NAME "+
			"WHERE ac.CONSTRAINT_TYPE = 'P' AND ac.OWNER = %s AND ac.TABLE_NAME = %s "+
			"ORDER BY acc.POSITION",
		lit(owner), lit(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to query primary keys: %w", err)
	}

	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		name, err := requireText(row, 0, "primary key column")
		if err != nil {
			return nil, err
		}
		keys = append(keys, name)
	}
	return keys, nil
}

func (i *Introspector) fetchUniqueConstraints(ctx context.Context, owner, table string) ([]core.UniqueConstraint, error) {
	rows, err := i.query(ctx, fmt.Sprintf(
		"SELECT ac.CONSTRAINT_NAME, acc.COLUMN_NAME "+
			"FROM ALL_CONSTRAINTS ac "+
			"JOIN ALL_CONS_COLUMNS acc ON ac.OWNER = acc.OWNER AND ac.CONSTRAINT_NAME = acc.CONSTRAINT_NAME "+
			"WHERE ac.CONSTRAINT_TYPE = 'U' AND ac.OWNER = %s AND ac.TABLE_NAME = %s "+
			"ORDER BY ac.CONSTRAINT_NAME, acc.POSITION",
		lit(owner), lit(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to query unique constraints: %w", err)
	}

	var (
		result []core.UniqueConstraint
		index  = make(map[string]int)
	)
	for _, row := range rows {
		name, err := requireText(row, 0, "unique constraint")
		if err != nil {
			return nil, err
		}
		column, ok := cell(row, 1)
		if !ok {
			continue
		}
		pos, seen := index[name]
		if !seen {
			pos = len(result)
			index[name] = pos
			result = append(result, core.UniqueConstraint{Name: name})
		}
		result[pos].Columns = append(result[pos].Columns, column)
	}
	if result == nil {
		result = []core.UniqueConstraint{}
	}
	return result, nil
}

func (i *Introspector) fetchCheckConstraints(ctx context.Context, owner, table string) ([]core.CheckConstraint, error) {
	rows, err := i.query(ctx, fmt.Sprintf(
		"SELECT ac.CONSTRAINT_NAME, ac.SEARCH_CONDITION "+
			"FROM ALL_CONSTRAINTS ac "+
			"WHERE ac.CONSTRAINT_TYPE = 'C' AND ac.OWNER = %s AND ac.TABLE_NAME = %s "+
			"ORDER BY ac.CONSTRAINT_NAME",
		lit(owner), lit(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to query check constraints: %w", err)
	}

	checks := make([]core.CheckConstraint, 0, len(rows))
	for _, row := range rows {
		name, err := requireText(row, 0, "check constraint")
		if err != nil {
			return nil, err
		}
		condition := trimmed(row, 1)
		if condition == "" || notNullCheck.MatchString(condition) {
			continue
		}
		checks = append(checks, core.CheckConstraint{Name: name, Condition: condition})
	}
	return checks, nil
}

type foreignKeyHeader struct {
	name          string
	refOwner      string
	refConstraint string
	deleteRule    string
	updateRule    string
}

func (i *Introspector) fetchForeignKeys(ctx context.Context, owner, table string) ([]core.ForeignKey, error) {
	headers, err := i.foreignKeyHeaders(ctx, owner, table, true)
	if err != nil && strings.Contains(strings.ToUpper(err.Error()), "UPDATE_RULE") {
		i.log.Debug("catalog lacks UPDATE_RULE, retrying foreign key query without it")
		headers, err = i.foreignKeyHeaders(ctx, owner, table, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}

	fks := make([]core.ForeignKey, 0, len(headers))
	for _, h := range headers {
		_, columns, err := i.constraintColumns(ctx, owner, h.name)
		if err != nil {
			return nil, err
		}
		refOwner := h.refOwner
		if refOwner == "" {
			refOwner = owner
		}
		refTable, refColumns, err := i.constraintColumns(ctx, refOwner, h.refConstraint)
		if err != nil {
			return nil, err
		}
		if len(columns) == 0 || refTable == "" || len(refColumns) == 0 {
			i.log.Debug("skipping foreign key with unresolved columns")
			continue
		}

		fk := core.ForeignKey{
			Name:              h.name,
			Columns:           columns,
			ReferencedTable:   refTable,
			ReferencedColumns: refColumns,
			DeleteRule:        h.deleteRule,
			UpdateRule:        h.updateRule,
		}
		if !strings.EqualFold(refOwner, owner) {
			fk.ReferencedOwner = refOwner
		}
		fks = append(fks, fk)
	}
	return fks, nil
}

func (i *Introspector) foreignKeyHeaders(ctx context.Context, owner, table string, withUpdateRule bool) ([]foreignKeyHeader, error) {
	updateRule := ", ac.UPDATE_RULE"
	if !withUpdateRule {
		updateRule = ""
	}
	rows, err := i.query(ctx, fmt.Sprintf(
		"SELECT ac.CONSTRAINT_NAME, ac.R_OWNER, ac.R_CONSTRAINT_NAME, ac.DELETE_RULE%s "+
			"FROM ALL_CONSTRAINTS ac "+
			"WHERE ac.CONSTRAINT_TYPE = 'R' AND ac.OWNER = %s AND ac.TABLE_NAME = %s "+
			"ORDER BY ac.CONSTRAINT_NAME",
		updateRule, lit(owner), lit(table)))
	if err != nil {
		return nil, err
	}

	headers := make([]foreignKeyHeader, 0, len(rows))
	for _, row := range rows {
		name, err := requireText(row, 0, "foreign key")
		if err != nil {
			return nil, err
		}
		refConstraint, err := requireText(row, 2, "referenced constraint")
		if err != nil {
			return nil, err
		}
		h := foreignKeyHeader{
			name:          name,
			refOwner:      trimmed(row, 1),
			refConstraint: refConstraint,
			deleteRule:    trimmed(row, 3),
		}
		if withUpdateRule {
			h.updateRule = trimmed(row, 4)
		}
		headers = append(headers, h)
	}
	return headers, nil
}

// constraintColumns returns the owning table and ordered columns of a
// constraint.
func (i *Introspector) constraintColumns(ctx context.Context, owner, constraint string) (string, []string, error) {
	rows, err := i.query(ctx, fmt.Sprintf(
		"SELECT acc.TABLE_NAME, acc.COLUMN_NAME "+
			"FROM ALL_CONS_COLUMNS acc "+
			"WHERE acc.OWNER = %s AND acc.CONSTRAINT_NAME = %s "+
			"ORDER BY acc.POSITION",
		lit(owner), lit(constraint)))
	if err != nil {
		return "", nil, fmt.Errorf("failed to query columns of constraint %s: %w", constraint, err)
	}

	var (
		table   string
		columns = make([]string, 0, len(rows))
	)
	for _, row := range rows {
		if table == "" {
			table = trimmed(row, 0)
		}
		if column, ok := cell(row, 1); ok {
			columns = append(columns, column)
		}
	}
	return table, columns, nil
}
