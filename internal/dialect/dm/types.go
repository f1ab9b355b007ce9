package dm

import (
	"fmt"
	"strings"

	"github.com/Amerone/dabase-tool/internal/core"
)

// defaultTimestampPrecision is DM8's implicit TIMESTAMP fractional precision.
const defaultTimestampPrecision = 6

// formatDataType attaches length, precision and scale to a bare catalog type.
// Types that already carry parameters are returned unchanged.
func formatDataType(c *core.Column) string {
	dt := core.NormalizeType(c.DataType)
	if strings.Contains(dt, "(") {
		return dt
	}

	switch dt {
	case "VARCHAR", "VARCHAR2", "CHAR", "NCHAR", "NVARCHAR", "NVARCHAR2", "RAW", "BINARY", "VARBINARY":
		if c.Length == nil || *c.Length <= 0 {
			return dt
		}
		cs := strings.ToUpper(c.CharSemantics)
		switch {
		case cs == "C" || strings.Contains(cs, "CHAR"):
			return fmt.Sprintf("%s(%d CHAR)", dt, *c.Length)
		case cs == "B" || strings.Contains(cs, "BYTE"):
			return fmt.Sprintf("%s(%d BYTE)", dt, *c.Length)
		default:
			return fmt.Sprintf("%s(%d)", dt, *c.Length)
		}
	case "NUMBER", "DECIMAL", "NUMERIC":
		// length is a byte size for numerics and is never used here
		if c.Precision == nil || *c.Precision <= 0 {
			return dt
		}
		switch {
		case c.Scale != nil && *c.Scale > 0:
			return fmt.Sprintf("%s(%d,%d)", dt, *c.Precision, *c.Scale)
		case c.Scale != nil && *c.Scale == 0:
			return fmt.Sprintf("%s(%d,0)", dt, *c.Precision)
		default:
			return fmt.Sprintf("%s(%d)", dt, *c.Precision)
		}
	case "FLOAT", "DOUBLE", "REAL":
		if c.Precision != nil && *c.Precision > 0 {
			return fmt.Sprintf("%s(%d)", dt, *c.Precision)
		}
	case "TIMESTAMP":
		// the catalog reports fractional-second precision in the scale column
		if c.Scale != nil && *c.Scale >= 0 && *c.Scale <= 9 && *c.Scale != defaultTimestampPrecision {
			return fmt.Sprintf("TIMESTAMP(%d)", *c.Scale)
		}
	}
	return dt
}

// columnDefinition renders one column line of CREATE TABLE. Identity columns
// never carry a DEFAULT clause.
func (g *Generator) columnDefinition(c *core.Column) string {
	parts := []string{QuoteIdentifier(c.Name), formatDataType(c)}

	switch {
	case c.Identity:
		if c.IdentityStart != nil && c.IdentityIncrement != nil {
			parts = append(parts, fmt.Sprintf("IDENTITY(%d, %d)", *c.IdentityStart, *c.IdentityIncrement))
		} else {
			parts = append(parts, "IDENTITY(1, 1)")
		}
	case c.DefaultValue != nil && strings.TrimSpace(*c.DefaultValue) != "":
		parts = append(parts, "DEFAULT "+g.FormatDefault(c.DataType, *c.DefaultValue))
	}

	if c.Nullable {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}

	return strings.Join(parts, " ")
}
