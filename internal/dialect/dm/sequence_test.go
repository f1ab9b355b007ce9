package dm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Amerone/dabase-tool/internal/core"
)

func TestGenerateSequences(t *testing.T) {
	sequences := []core.Sequence{
		{
			Name:        "SEQ_ORDER",
			StartWith:   int64Ptr(100),
			MinValue:    int64Ptr(1),
			MaxValue:    int64Ptr(999999),
			IncrementBy: 2,
			CacheSize:   int64Ptr(20),
			Cycle:       true,
			Order:       true,
		},
		{Name: "SEQ_BARE", CacheSize: int64Ptr(0)},
	}

	stmts := NewGenerator().GenerateSequences("APP", sequences)
	assert.Equal(t, []string{
		`CREATE SEQUENCE "APP"."SEQ_ORDER" START WITH 100 MINVALUE 1 MAXVALUE 999999 INCREMENT BY 2 CACHE 20 CYCLE ORDER;`,
		`CREATE SEQUENCE "APP"."SEQ_BARE" INCREMENT BY 1 NOCACHE NOCYCLE NOORDER;`,
	}, stmts)
}

func TestGenerateSequencesEmpty(t *testing.T) {
	assert.Empty(t, NewGenerator().GenerateSequences("APP", nil))
}
