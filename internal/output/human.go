package output

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/Amerone/dabase-tool/internal/core"
	"github.com/Amerone/dabase-tool/internal/export"
	"github.com/Amerone/dabase-tool/internal/verify"
)

type humanFormatter struct{}

func (humanFormatter) FormatSchemas(schemas []string) (string, error) {
	if len(schemas) == 0 {
		return "No schemas found.\n", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Schemas (%d):\n", len(schemas))
	for _, s := range schemas {
		fmt.Fprintf(&sb, "  %s\n", s)
	}
	return sb.String(), nil
}

func (humanFormatter) FormatTables(schema string, tables []core.Table) (string, error) {
	if len(tables) == 0 {
		return fmt.Sprintf("No tables found in schema %s.\n", schema), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tables in %s (%d):\n", schema, len(tables))
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tROWS\tCOMMENT")
	for _, t := range tables {
		rows := "-"
		if t.RowCount != nil {
			rows = fmt.Sprintf("%d", *t.RowCount)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", t.Name, rows, t.Comment)
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// FormatDetails renders a table's columns followed by its constraints.
// Empty sections are omitted.
func (humanFormatter) FormatDetails(d *core.TableDetails) (string, error) {
	if d == nil {
		return "", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Table: %s\n", d.Name)
	if d.Comment != "" {
		fmt.Fprintf(&sb, "Comment: %s\n", d.Comment)
	}

	sb.WriteString("\nColumns:\n")
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tTYPE\tNULL\tDEFAULT\tCOMMENT")
	for _, c := range d.Columns {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", c.Name, columnType(c), yesNo(c.Nullable), columnDefault(c), c.Comment)
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}

	if len(d.PrimaryKeys) > 0 {
		fmt.Fprintf(&sb, "\nPrimary key: (%s)\n", strings.Join(d.PrimaryKeys, ", "))
	}
	if len(d.UniqueConstraints) > 0 {
		sb.WriteString("\nUnique constraints:\n")
		for _, u := range d.UniqueConstraints {
			fmt.Fprintf(&sb, "  %s (%s)\n", u.Name, strings.Join(u.Columns, ", "))
		}
	}
	if len(d.CheckConstraints) > 0 {
		sb.WriteString("\nCheck constraints:\n")
		for _, c := range d.CheckConstraints {
			fmt.Fprintf(&sb, "  %s: %s\n", c.Name, c.Condition)
		}
	}
	if len(d.Indexes) > 0 {
		sb.WriteString("\nIndexes:\n")
		for _, idx := range d.Indexes {
			kind := ""
			if idx.Unique {
				kind = " UNIQUE"
			}
			fmt.Fprintf(&sb, "  %s%s (%s)\n", idx.Name, kind, strings.Join(idx.Columns, ", "))
		}
	}
	if len(d.ForeignKeys) > 0 {
		sb.WriteString("\nForeign keys:\n")
		for _, fk := range d.ForeignKeys {
			fmt.Fprintf(&sb, "  %s (%s) -> %s (%s)", fk.Name, strings.Join(fk.Columns, ", "),
				fk.ReferencedName(), strings.Join(fk.ReferencedColumns, ", "))
			if fk.DeleteRule != "" && fk.DeleteRule != "NO ACTION" {
				fmt.Fprintf(&sb, " ON DELETE %s", fk.DeleteRule)
			}
			sb.WriteString("\n")
		}
	}
	if len(d.Triggers) > 0 {
		sb.WriteString("\nTriggers:\n")
		for _, t := range d.Triggers {
			fmt.Fprintf(&sb, "  %s %s %s", t.Name, t.Timing, strings.Join(t.Events, " OR "))
			if t.EachRow {
				sb.WriteString(" FOR EACH ROW")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func (humanFormatter) FormatDDLResult(r *export.DDLResult) (string, error) {
	if r == nil {
		return "", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "DDL exported to %s\n", r.Path)
	if r.TriggerPath != "" {
		fmt.Fprintf(&sb, "Triggers exported to %s\n", r.TriggerPath)
	}
	fmt.Fprintf(&sb, "Tables: %d, sequences: %d, triggers: %d\n", r.Tables, r.Sequences, r.Triggers)
	return sb.String(), nil
}

func (humanFormatter) FormatDataResult(r *export.DataResult) (string, error) {
	if r == nil {
		return "", nil
	}
	return fmt.Sprintf("Data exported to %s\nTables: %d, rows: %d\n", r.Path, r.Tables, r.Rows), nil
}

func (humanFormatter) FormatReport(r *verify.Report) (string, error) {
	if r == nil {
		return "", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Statements: %d\n", r.Statements)

	kinds := make([]string, 0, len(r.Kinds))
	for k := range r.Kinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(&sb, "  %s: %d\n", k, r.Kinds[k])
	}

	if len(r.Tables) > 0 {
		sb.WriteString("\nTables:\n")
		tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  NAME\tINSERTS\tROWS\tMAX BATCH\tIDENTITY")
		for _, t := range r.Tables {
			fmt.Fprintf(tw, "  %s\t%d\t%d\t%d\t%s\n", t.Name, t.Inserts, t.Rows, t.MaxBatchRows, yesNo(t.IdentityOn))
		}
		if err := tw.Flush(); err != nil {
			return "", err
		}
	}

	if len(r.Problems) == 0 {
		sb.WriteString("\nNo problems found.\n")
		return sb.String(), nil
	}
	fmt.Fprintf(&sb, "\nProblems (%d):\n", len(r.Problems))
	for _, p := range r.Problems {
		fmt.Fprintf(&sb, "  - %s\n", p)
	}
	return sb.String(), nil
}

func columnType(c core.Column) string {
	switch {
	case c.Precision != nil && c.Scale != nil && *c.Scale > 0:
		return fmt.Sprintf("%s(%d,%d)", c.DataType, *c.Precision, *c.Scale)
	case c.Precision != nil:
		return fmt.Sprintf("%s(%d)", c.DataType, *c.Precision)
	case c.Length != nil && *c.Length > 0:
		return fmt.Sprintf("%s(%d)", c.DataType, *c.Length)
	default:
		return c.DataType
	}
}

func columnDefault(c core.Column) string {
	if c.Identity {
		start, incr := int64(1), int64(1)
		if c.IdentityStart != nil {
			start = *c.IdentityStart
		}
		if c.IdentityIncrement != nil {
			incr = *c.IdentityIncrement
		}
		return fmt.Sprintf("IDENTITY(%d,%d)", start, incr)
	}
	if c.DefaultValue == nil {
		return ""
	}
	return *c.DefaultValue
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
