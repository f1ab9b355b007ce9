package dm

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Amerone/dabase-tool/internal/core"
)

// GenerateCreateTable emits CREATE TABLE followed by any table and column
// comments. The table name may be schema-qualified.
func (g *Generator) GenerateCreateTable(t *core.TableDetails) string {
	tableIdent := QuoteIdentifier(t.Name)

	lines := make([]string, 0, len(t.Columns))
	for i := range t.Columns {
		lines = append(lines, "    "+g.columnDefinition(&t.Columns[i]))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n%s\n);\n", tableIdent, strings.Join(lines, ",\n"))

	if comment := strings.TrimSpace(t.Comment); comment != "" {
		fmt.Fprintf(&b, "COMMENT ON TABLE %s IS %s;\n", tableIdent, quoteString(comment))
	}
	for _, c := range t.Columns {
		if comment := strings.TrimSpace(c.Comment); comment != "" {
			fmt.Fprintf(&b, "COMMENT ON COLUMN %s.%s IS %s;\n", tableIdent, QuoteIdentifier(c.Name), quoteString(comment))
		}
	}

	return strings.TrimRight(b.String(), " \n")
}

// GeneratePrimaryKey emits the PK_<table> constraint, or false when the
// table has no primary key.
func (g *Generator) GeneratePrimaryKey(t *core.TableDetails) (string, bool) {
	if len(t.PrimaryKeys) == 0 {
		return "", false
	}
	name := "PK_" + core.BaseName(t.Name)
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s);",
		QuoteIdentifier(t.Name), QuoteIdentifier(name), g.formatColumns(t.PrimaryKeys)), true
}

// GenerateIndexes emits CREATE INDEX statements, skipping indexes that are
// implied by the primary key or a unique constraint and indexes whose ordered
// column list repeats an earlier one.
func (g *Generator) GenerateIndexes(t *core.TableDetails) []string {
	reserved := make(map[string]bool)
	if len(t.PrimaryKeys) > 0 {
		reserved[columnSetKey(t.PrimaryKeys)] = true
	}
	for _, uc := range t.UniqueConstraints {
		if len(uc.Columns) > 0 {
			reserved[columnSetKey(uc.Columns)] = true
		}
	}

	seen := make(map[string]bool)
	var stmts []string
	for _, idx := range t.Indexes {
		if len(idx.Columns) == 0 {
			continue
		}
		if reserved[columnSetKey(idx.Columns)] {
			continue
		}
		ordered := columnListKey(idx.Columns)
		if seen[ordered] {
			continue
		}
		seen[ordered] = true

		prefix := "CREATE INDEX"
		if idx.Unique {
			prefix = "CREATE UNIQUE INDEX"
		}
		stmts = append(stmts, fmt.Sprintf("%s %s ON %s (%s);",
			prefix,
			QuoteIdentifier(indexName(t.Name, idx)),
			QuoteIdentifier(t.Name),
			g.formatColumns(idx.Columns),
		))
	}
	return stmts
}

func upperColumns(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = strings.ToUpper(c)
	}
	return out
}

// columnListKey identifies an ordered, case-insensitive column list.
func columnListKey(cols []string) string {
	return strings.Join(upperColumns(cols), "|")
}

// columnSetKey identifies an order-insensitive, case-insensitive column set.
func columnSetKey(cols []string) string {
	upper := upperColumns(cols)
	sort.Strings(upper)
	return strings.Join(upper, "|")
}

// indexName replaces catalog-assigned INDEX<digits> names with a
// deterministic IDX_<table>_<columns> name. Explicit names are kept.
func indexName(tableName string, idx core.Index) string {
	upper := strings.ToUpper(idx.Name)
	if !strings.HasPrefix(upper, "INDEX") || !allDigits(upper[len("INDEX"):]) {
		return idx.Name
	}

	name := "IDX_" + strings.ToUpper(core.BaseName(tableName)) + "_" + strings.Join(upperColumns(idx.Columns), "_")
	if len(name) > maxIdentLen {
		cut := maxIdentLen
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	return name
}

// GenerateUniqueConstraints emits one ALTER TABLE ... UNIQUE per constraint.
func (g *Generator) GenerateUniqueConstraints(t *core.TableDetails) []string {
	stmts := make([]string, 0, len(t.UniqueConstraints))
	for _, uc := range t.UniqueConstraints {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s);",
			QuoteIdentifier(t.Name), QuoteIdentifier(uc.Name), g.formatColumns(uc.Columns)))
	}
	return stmts
}

// GenerateCheckConstraints emits one ALTER TABLE ... CHECK per constraint.
func (g *Generator) GenerateCheckConstraints(t *core.TableDetails) []string {
	stmts := make([]string, 0, len(t.CheckConstraints))
	for _, ck := range t.CheckConstraints {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);",
			QuoteIdentifier(t.Name), QuoteIdentifier(ck.Name), ck.Condition))
	}
	return stmts
}

// GenerateForeignKeys emits one ALTER TABLE ... FOREIGN KEY per constraint.
// NO ACTION is the DM8 default and is never written out.
func (g *Generator) GenerateForeignKeys(t *core.TableDetails) []string {
	stmts := make([]string, 0, len(t.ForeignKeys))
	for _, fk := range t.ForeignKeys {
		var b strings.Builder
		fmt.Fprintf(&b, "ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			QuoteIdentifier(t.Name),
			QuoteIdentifier(fk.Name),
			g.formatColumns(fk.Columns),
			QuoteIdentifier(fk.ReferencedName()),
			g.formatColumns(fk.ReferencedColumns),
		)
		if rule, ok := referentialAction(fk.DeleteRule); ok {
			b.WriteString(" ON DELETE " + rule)
		}
		if rule, ok := referentialAction(fk.UpdateRule); ok {
			b.WriteString(" ON UPDATE " + rule)
		}
		b.WriteByte(';')
		stmts = append(stmts, b.String())
	}
	return stmts
}

func referentialAction(rule string) (string, bool) {
	rule = strings.TrimSpace(rule)
	if rule == "" || strings.EqualFold(rule, "NO ACTION") {
		return "", false
	}
	return rule, true
}
