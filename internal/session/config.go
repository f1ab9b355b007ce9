package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Amerone/dabase-tool/internal/core"
)

// DefaultPort is the DM8 server's default listener port.
const DefaultPort = 5236

// ConnectionConfig describes one DM8 login. ExportSchema optionally names the
// schema generated scripts should target.
type ConnectionConfig struct {
	Host         string `json:"host" toml:"host" validate:"required_trimmed"`
	Port         int    `json:"port" toml:"port" validate:"gt=0"`
	Username     string `json:"username" toml:"username" validate:"required_trimmed"`
	Password     string `json:"password" toml:"password" validate:"required"`
	Schema       string `json:"schema" toml:"schema" validate:"schema_name"`
	ExportSchema string `json:"export_schema,omitempty" toml:"export_schema,omitempty" validate:"schema_name"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("required_trimmed", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("schema_name", func(fl validator.FieldLevel) bool {
		return ValidSchemaName(fl.Field().String())
	})
	return v
}

var fieldMessages = map[string]string{
	"Host":         "DM8 host is required",
	"Port":         "DM8 port must be greater than zero",
	"Username":     "DM8 username is required",
	"Password":     "DM8 password is required",
	"Schema":       "schema name must not contain path separators or '..'",
	"ExportSchema": "export schema name must not contain path separators or '..'",
}

// Validate reports the first missing or invalid field. The error wraps
// core.ErrConfig.
func (c ConnectionConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := fieldMessages[verrs[0].StructField()]; ok {
			return fmt.Errorf("%w: %s", core.ErrConfig, msg)
		}
	}
	return fmt.Errorf("%w: %v", core.ErrConfig, err)
}

// ConnectionString builds the ODBC connection string for driver, which is
// either a registered driver name or a library path.
func (c ConnectionConfig) ConnectionString(driver string) string {
	return fmt.Sprintf("DRIVER={%s};SERVER=%s;PORT=%d;UID=%s;PWD=%s",
		driver, odbcValue(c.Host), c.Port, odbcValue(c.Username), odbcValue(c.Password))
}

// odbcValue brace-quotes v when it holds characters that would otherwise end
// or reshape the attribute. A closing brace inside the value is doubled.
func odbcValue(v string) string {
	if !strings.ContainsAny(v, ";{}=") && strings.TrimSpace(v) == v {
		return v
	}
	return "{" + strings.ReplaceAll(v, "}", "}}") + "}"
}

// ValidSchemaName reports whether name can be used both as a DM8 schema and
// as part of an export file name. Blank names are accepted.
func ValidSchemaName(name string) bool {
	if strings.ContainsAny(name, "/\\\x00") {
		return false
	}
	return !strings.Contains(name, "..")
}

// DisplayDSN identifies the connection in logs and errors without the password.
func (c ConnectionConfig) DisplayDSN() string {
	return fmt.Sprintf("%s:%d as %s", c.Host, c.Port, c.Username)
}

// TargetSchema resolves the schema generated scripts should write to:
// override, then ExportSchema, then the source schema, each trimmed.
func (c ConnectionConfig) TargetSchema(override string) string {
	for _, candidate := range []string{override, c.ExportSchema} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v
		}
	}
	return strings.TrimSpace(c.Schema)
}
