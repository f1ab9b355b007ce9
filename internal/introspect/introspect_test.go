package introspect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amerone/dabase-tool/internal/core"
	"github.com/Amerone/dabase-tool/internal/session/sessiontest"
)

func TestListTablesFallsBackToCount(t *testing.T) {
	fake := sessiontest.New()
	fake.When("FROM ALL_TABLES t", "t.OWNER = 'APP'").Return(
		[]any{"ORDERS", "order header", "42"},
		[]any{"EMPTY", nil, "0"},
		[]any{"BROKEN", nil, "0"},
	)
	fake.When(`FROM "APP"."EMPTY"`).Return([]any{"7"})
	fake.When(`FROM "APP"."BROKEN"`).Fail(errors.New("permission denied"))

	tables, err := New(fake).ListTables(context.Background(), " app ")
	require.NoError(t, err)
	require.Len(t, tables, 3)

	assert.Equal(t, "ORDERS", tables[0].Name)
	assert.Equal(t, "order header", tables[0].Comment)
	require.NotNil(t, tables[0].RowCount)
	assert.EqualValues(t, 42, *tables[0].RowCount)

	require.NotNil(t, tables[1].RowCount)
	assert.EqualValues(t, 7, *tables[1].RowCount)

	assert.Nil(t, tables[2].RowCount)
	assert.Zero(t, fake.Count(`FROM "APP"."ORDERS"`))
}

func TestListTablesQueryError(t *testing.T) {
	fake := sessiontest.New()
	fake.When("FROM ALL_TABLES").Fail(errors.New("boom"))

	_, err := New(fake).ListTables(context.Background(), "APP")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query DM8 tables")
}

func TestListSchemas(t *testing.T) {
	fake := sessiontest.New()
	fake.When("FROM ALL_USERS").Return([]any{"APP"}, []any{" "}, []any{"SYSDBA"})

	schemas, err := New(fake).ListSchemas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"APP", "SYSDBA"}, schemas)
}

func TestParseInt64(t *testing.T) {
	tests := []struct {
		in   any
		want *int64
	}{
		{in: "12", want: int64Ptr(12)},
		{in: " 12.000 ", want: int64Ptr(12)},
		{in: "-3", want: int64Ptr(-3)},
		{in: "12.5", want: nil},
		{in: "abc", want: nil},
		{in: nil, want: nil},
	}
	for _, tt := range tests {
		got := parseInt64(sessiontest.Row(tt.in), 0)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}
}

func TestTriggerLevelAdvance(t *testing.T) {
	l := NewTriggerLevel()
	assert.Equal(t, LevelFull, l.Load())

	assert.False(t, l.Advance(LevelFull, LevelFull))
	assert.True(t, l.Advance(LevelFull, LevelNoType))
	assert.False(t, l.Advance(LevelFull, LevelNoType), "stale transition must lose")
	assert.False(t, l.Advance(LevelNoType, LevelFull), "level never moves back")
	assert.False(t, l.Advance(LevelNoType, 3))
	assert.True(t, l.Advance(LevelNoType, LevelNoWhen))
	assert.Equal(t, LevelNoWhen, l.Load())
}

func TestTriggerLevelConcurrentAdvance(t *testing.T) {
	l := NewTriggerLevel()
	const workers = 16
	wins := make(chan bool, workers)
	for range workers {
		go func() { wins <- l.Advance(LevelFull, LevelNoType) }()
	}

	won := 0
	for range workers {
		if <-wins {
			won++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, LevelNoType, l.Load())
}

func int64Ptr(v int64) *int64 { return &v }

func TestCatalogNameUppercases(t *testing.T) {
	assert.Equal(t, "APP_DATA", catalogName("  app_data "))
	assert.Equal(t, "'O''NEIL'", lit("O'NEIL"))
	assert.Equal(t, `"A""B"`, ident(`A"B`))
}

func TestRequireText(t *testing.T) {
	_, err := requireText(sessiontest.Row(nil), 0, "table")
	assert.ErrorIs(t, err, core.ErrCatalogShape)

	v, err := requireText(sessiontest.Row("T1"), 0, "table")
	require.NoError(t, err)
	assert.Equal(t, "T1", v)
}
