// Package dialect defines the generator abstraction that turns the catalog
// object model into SQL text, plus the statement terminator conventions the
// generated scripts can follow.
package dialect

import (
	"fmt"
	"strings"

	"github.com/Amerone/dabase-tool/internal/core"
)

// Generator serializes the object model into dialect-correct SQL text.
// Implementations must be deterministic: the same model yields byte-identical output.
type Generator interface {
	QuoteIdentifier(name string) string
	QuoteString(value string) string
	// FormatDefault renders a column default expression for DDL.
	FormatDefault(dataType, raw string) string
	// FormatValue renders a fetched row value for a data-load script.
	FormatValue(dataType, raw string) string

	GenerateCreateTable(table *core.TableDetails) string
	GeneratePrimaryKey(table *core.TableDetails) (string, bool)
	GenerateIndexes(table *core.TableDetails) []string
	GenerateUniqueConstraints(table *core.TableDetails) []string
	GenerateCheckConstraints(table *core.TableDetails) []string
	GenerateForeignKeys(table *core.TableDetails) []string
	GenerateSequences(schema string, sequences []core.Sequence) []string
	GenerateTriggers(schema string, triggers []core.TriggerDefinition, mode TriggerTerminator) []string
}

// TriggerTerminator selects how procedural trigger statements are delimited.
type TriggerTerminator string

const (
	// TerminatorStatement ends each trigger with ';' only, for tools that run
	// one selected statement at a time.
	TerminatorStatement TriggerTerminator = "datagrip"
	// TerminatorScript appends a '/' line after each trigger.
	TerminatorScript TriggerTerminator = "script"
	// TerminatorSeparateFile behaves like TerminatorScript and asks the caller
	// to write triggers to their own file.
	TerminatorSeparateFile TriggerTerminator = "separate"
)

// ParseTriggerTerminator accepts the terminator names used by the CLI and API.
// An empty string selects TerminatorStatement.
func ParseTriggerTerminator(s string) (TriggerTerminator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "datagrip", "statement":
		return TerminatorStatement, nil
	case "script", "disql":
		return TerminatorScript, nil
	case "separate", "datagrip_script", "datagripscript", "separate_file":
		return TerminatorSeparateFile, nil
	default:
		return "", fmt.Errorf("%w: unsupported trigger terminator %q; use 'datagrip', 'script', or 'separate'", core.ErrConfig, s)
	}
}

// Effective returns the terminator used when rendering statements.
// Separate-file output is rendered in script form.
func (t TriggerTerminator) Effective() TriggerTerminator {
	if t == TerminatorSeparateFile {
		return TerminatorScript
	}
	return t
}

// UnmarshalText lets TriggerTerminator be decoded from JSON and config files.
func (t *TriggerTerminator) UnmarshalText(text []byte) error {
	parsed, err := ParseTriggerTerminator(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
