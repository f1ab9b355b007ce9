package output

import (
	"encoding/json"

	"github.com/Amerone/dabase-tool/internal/core"
	"github.com/Amerone/dabase-tool/internal/export"
	"github.com/Amerone/dabase-tool/internal/verify"
)

type jsonFormatter struct{}

func (jsonFormatter) FormatSchemas(schemas []string) (string, error) {
	return marshalJSON(newSchemasPayload(schemas))
}

func (jsonFormatter) FormatTables(schema string, tables []core.Table) (string, error) {
	return marshalJSON(newTablesPayload(schema, tables))
}

func (jsonFormatter) FormatDetails(d *core.TableDetails) (string, error) {
	return marshalJSON(d)
}

func (jsonFormatter) FormatDDLResult(r *export.DDLResult) (string, error) {
	return marshalJSON(r)
}

func (jsonFormatter) FormatDataResult(r *export.DataResult) (string, error) {
	return marshalJSON(r)
}

func (jsonFormatter) FormatReport(r *verify.Report) (string, error) {
	return marshalJSON(r)
}

func marshalJSON(payload any) (string, error) {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
