package introspect

import (
	"context"
	"fmt"

	"github.com/Amerone/dabase-tool/internal/core"
)

// FetchSequences lists the sequences owned by schema. LAST_NUMBER is read as
// both the start and the current value so a regenerated sequence resumes
// where the source left off.
func (i *Introspector) FetchSequences(ctx context.Context, schema string) ([]core.Sequence, error) {
	owner := catalogName(schema)
	rows, err := i.query(ctx, fmt.Sprintf(
		"SELECT SEQUENCE_NAME, MIN_VALUE, MAX_VALUE, INCREMENT_BY, CACHE_SIZE, CYCLE_FLAG, ORDER_FLAG, LAST_NUMBER "+
			"FROM ALL_SEQUENCES "+
			"WHERE SEQUENCE_OWNER = %s "+
			"ORDER BY SEQUENCE_NAME",
		lit(owner)))
	if err != nil {
		return nil, fmt.Errorf("failed to query sequences: %w", err)
	}

	sequences := make([]core.Sequence, 0, len(rows))
	for _, row := range rows {
		name, err := requireText(row, 0, "sequence")
		if err != nil {
			return nil, err
		}
		seq := core.Sequence{
			Name:         name,
			MinValue:     parseInt64(row, 1),
			MaxValue:     parseInt64(row, 2),
			IncrementBy:  1,
			CacheSize:    parseInt64(row, 4),
			Cycle:        isYes(row, 5),
			Order:        isYes(row, 6),
			StartWith:    parseInt64(row, 7),
			CurrentValue: parseInt64(row, 7),
		}
		if inc := parseInt64(row, 3); inc != nil && *inc != 0 {
			seq.IncrementBy = *inc
		}
		sequences = append(sequences, seq)
	}
	return sequences, nil
}
