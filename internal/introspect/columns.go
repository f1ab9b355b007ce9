package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/Amerone/dabase-tool/internal/core"
)

func (i *Introspector) fetchColumns(ctx context.Context, owner, table string) ([]core.Column, error) {
	rows, err := i.query(ctx, fmt.Sprintf(
		"SELECT c.COLUMN_NAME, c.DATA_TYPE, c.DATA_LENGTH, c.CHAR_LENGTH, c.DATA_PRECISION, c.DATA_SCALE, "+
			"c.NULLABLE, c.DATA_DEFAULT, c.CHAR_USED, cc.COMMENTS "+
			"FROM ALL_TAB_COLUMNS c "+
			"LEFT JOIN ALL_COL_COMMENTS cc ON cc.OWNER = c.OWNER AND cc.TABLE_NAME = c.TABLE_NAME AND cc.COLUMN_NAME = c.COLUMN_NAME "+
			"WHERE c.OWNER = %s AND c.TABLE_NAME = %s "+
			"ORDER BY c.COLUMN_ID",
		lit(owner), lit(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to query DM8 columns: %w", err)
	}

	columns := make([]core.Column, 0, len(rows))
	for _, row := range rows {
		name, err := requireText(row, 0, "column")
		if err != nil {
			return nil, err
		}
		dataType, err := requireText(row, 1, "column data type")
		if err != nil {
			return nil, err
		}

		col := core.Column{
			Name:          name,
			DataType:      dataType,
			Length:        parseInt(row, 2),
			Precision:     parseInt(row, 4),
			Scale:         parseInt(row, 5),
			Nullable:      isYes(row, 6),
			CharSemantics: trimmed(row, 8),
			Comment:       text(row, 9),
		}
		if strings.EqualFold(col.CharSemantics, "C") {
			if charLen := parseInt(row, 3); charLen != nil && *charLen > 0 {
				col.Length = charLen
			}
		}
		if def, ok := cell(row, 7); ok && strings.TrimSpace(def) != "" {
			col.DefaultValue = &def
		}
		columns = append(columns, col)
	}

	if len(columns) == 0 {
		return columns, nil
	}
	if err := i.applyIdentity(ctx, owner, table, columns); err != nil {
		return nil, err
	}
	return columns, nil
}

// applyIdentity marks the identity column and loads its seed and increment.
// DM8 keeps the identity flag in bit 0 of SYSCOLUMNS.INFO2.
func (i *Introspector) applyIdentity(ctx context.Context, owner, table string, columns []core.Column) error {
	rows, err := i.query(ctx, fmt.Sprintf(
		"SELECT col.NAME FROM SYSCOLUMNS col "+
			"JOIN SYSOBJECTS tab ON col.ID = tab.ID "+
			"JOIN SYSOBJECTS sch ON tab.SCHID = sch.ID "+
			"WHERE sch.NAME = %s AND tab.NAME = %s AND tab.SUBTYPE$ = 'UTAB' AND col.INFO2 & 0x01 = 0x01",
		lit(owner), lit(table)))
	if err != nil {
		return fmt.Errorf("failed to query identity columns: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	identity := trimmed(rows[0], 0)
	for idx := range columns {
		c := &columns[idx]
		if !strings.EqualFold(c.Name, identity) {
			continue
		}
		c.Identity = true
		c.DefaultValue = nil

		seed, err := i.query(ctx, fmt.Sprintf(
			"SELECT IDENT_SEED(%[1]s), IDENT_INCR(%[1]s) FROM DUAL", lit(owner+"."+table)))
		if err != nil {
			return fmt.Errorf("failed to query identity seed for %s.%s: %w", owner, table, err)
		}
		if len(seed) > 0 {
			c.IdentityStart = parseInt64(seed[0], 0)
			c.IdentityIncrement = parseInt64(seed[0], 1)
		}
		return nil
	}
	return nil
}
