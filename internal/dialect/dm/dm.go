// Package dm provides DM8 (Dameng) SQL generation: identifier quoting,
// literal rendering, and the CREATE/ALTER text for tables, constraints,
// indexes, sequences, and triggers.
package dm

import (
	"strings"

	"github.com/Amerone/dabase-tool/internal/dialect"
)

// maxIdentLen is the longest identifier DM8 accepts.
const maxIdentLen = 128

// Generator is a stateless DM8 SQL generator.
type Generator struct{}

var _ dialect.Generator = (*Generator)(nil)

// NewGenerator initializes a new DM8 generator instance.
func NewGenerator() *Generator {
	return &Generator{}
}

// QuoteIdentifier splits a dotted name and wraps every segment in double
// quotes, doubling embedded quote characters.
func (g *Generator) QuoteIdentifier(name string) string {
	return QuoteIdentifier(name)
}

// QuoteString wraps value in single quotes, doubling embedded single quotes.
func (g *Generator) QuoteString(value string) string {
	return quoteString(value)
}

// QuoteIdentifier is the package-level form of Generator.QuoteIdentifier.
func QuoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// EscapeLiteral doubles embedded single quotes.
func EscapeLiteral(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

func quoteString(value string) string {
	return "'" + EscapeLiteral(value) + "'"
}

func (g *Generator) formatColumns(cols []string) string {
	quoted := make([]string, 0, len(cols))
	for _, c := range cols {
		quoted = append(quoted, QuoteIdentifier(c))
	}
	return strings.Join(quoted, ", ")
}

func qualify(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}
