// Package output renders catalog listings, table details, and export
// results for the CLI. Three formats are available: human, JSON, and YAML.
package output

import (
	"fmt"
	"strings"

	"github.com/Amerone/dabase-tool/internal/core"
	"github.com/Amerone/dabase-tool/internal/export"
	"github.com/Amerone/dabase-tool/internal/verify"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formatter renders command results.
type Formatter interface {
	FormatSchemas([]string) (string, error)
	FormatTables(schema string, tables []core.Table) (string, error)
	FormatDetails(*core.TableDetails) (string, error)
	FormatDDLResult(*export.DDLResult) (string, error)
	FormatDataResult(*export.DataResult) (string, error)
	FormatReport(*verify.Report) (string, error)
}

// NewFormatter creates a new Formatter instance based on the given name.
// If no format is specified, defaults to human format.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatHuman:
		return humanFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatYAML, "yml":
		return yamlFormatter{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported format: %s; use 'human', 'json', or 'yaml'", core.ErrConfig, name)
	}
}

type tablesPayload struct {
	Schema string       `json:"schema" yaml:"schema"`
	Count  int          `json:"count" yaml:"count"`
	Tables []core.Table `json:"tables" yaml:"tables"`
}

type schemasPayload struct {
	Count   int      `json:"count" yaml:"count"`
	Schemas []string `json:"schemas" yaml:"schemas"`
}

func newTablesPayload(schema string, tables []core.Table) tablesPayload {
	if tables == nil {
		tables = []core.Table{}
	}
	return tablesPayload{Schema: schema, Count: len(tables), Tables: tables}
}

func newSchemasPayload(schemas []string) schemasPayload {
	if schemas == nil {
		schemas = []string{}
	}
	return schemasPayload{Count: len(schemas), Schemas: schemas}
}
