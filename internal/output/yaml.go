package output

import (
	"gopkg.in/yaml.v3"

	"github.com/Amerone/dabase-tool/internal/core"
	"github.com/Amerone/dabase-tool/internal/export"
	"github.com/Amerone/dabase-tool/internal/verify"
)

type yamlFormatter struct{}

func (yamlFormatter) FormatSchemas(schemas []string) (string, error) {
	return marshalYAML(newSchemasPayload(schemas))
}

func (yamlFormatter) FormatTables(schema string, tables []core.Table) (string, error) {
	return marshalYAML(newTablesPayload(schema, tables))
}

func (yamlFormatter) FormatDetails(d *core.TableDetails) (string, error) {
	return marshalYAML(d)
}

func (yamlFormatter) FormatDDLResult(r *export.DDLResult) (string, error) {
	return marshalYAML(r)
}

func (yamlFormatter) FormatDataResult(r *export.DataResult) (string, error) {
	return marshalYAML(r)
}

func (yamlFormatter) FormatReport(r *verify.Report) (string, error) {
	return marshalYAML(r)
}

func marshalYAML(payload any) (string, error) {
	b, err := yaml.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
