package dm

import (
	"fmt"
	"strings"

	"github.com/Amerone/dabase-tool/internal/core"
)

// GenerateSequences emits CREATE SEQUENCE for each sequence. DM8 has no
// CREATE OR REPLACE SEQUENCE.
func (g *Generator) GenerateSequences(schema string, sequences []core.Sequence) []string {
	stmts := make([]string, 0, len(sequences))
	for _, seq := range sequences {
		parts := []string{"CREATE SEQUENCE " + QuoteIdentifier(schema) + "." + QuoteIdentifier(seq.Name)}
		if seq.StartWith != nil {
			parts = append(parts, fmt.Sprintf("START WITH %d", *seq.StartWith))
		}
		if seq.MinValue != nil {
			parts = append(parts, fmt.Sprintf("MINVALUE %d", *seq.MinValue))
		}
		if seq.MaxValue != nil {
			parts = append(parts, fmt.Sprintf("MAXVALUE %d", *seq.MaxValue))
		}

		increment := seq.IncrementBy
		if increment == 0 {
			increment = 1
		}
		parts = append(parts, fmt.Sprintf("INCREMENT BY %d", increment))

		if seq.CacheSize != nil && *seq.CacheSize > 0 {
			parts = append(parts, fmt.Sprintf("CACHE %d", *seq.CacheSize))
		} else {
			parts = append(parts, "NOCACHE")
		}
		parts = append(parts, choose(seq.Cycle, "CYCLE", "NOCYCLE"), choose(seq.Order, "ORDER", "NOORDER"))

		stmts = append(stmts, strings.Join(parts, " ")+";")
	}
	return stmts
}

func choose(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
