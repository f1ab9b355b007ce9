package dm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amerone/dabase-tool/internal/core"
	"github.com/Amerone/dabase-tool/internal/dialect"
)

func rowTrigger(body string) core.TriggerDefinition {
	return core.TriggerDefinition{
		Name:      "TRG_TEST_ID",
		TableName: "TEST_TABLE",
		Timing:    core.TimingBefore,
		Events:    []string{"INSERT"},
		EachRow:   true,
		Body:      body,
	}
}

func generateOne(t *testing.T, tr core.TriggerDefinition, mode dialect.TriggerTerminator) string {
	t.Helper()
	stmts := NewGenerator().GenerateTriggers("PLATFORM", []core.TriggerDefinition{tr}, mode)
	require.Len(t, stmts, 1)
	return stmts[0]
}

func TestGenerateTriggersRowLevel(t *testing.T) {
	stmt := generateOne(t, rowTrigger("BEGIN\n:NEW.ID := 1;\nEND"), dialect.TerminatorStatement)

	expected := strings.Join([]string{
		`CREATE OR REPLACE TRIGGER "PLATFORM"."TRG_TEST_ID"`,
		`BEFORE INSERT ON "PLATFORM"."TEST_TABLE" REFERENCING OLD AS OLD NEW AS NEW`,
		`FOR EACH ROW`,
		`BEGIN`,
		`:NEW.ID := 1;`,
		`END;`,
	}, "\n")
	assert.Equal(t, expected, stmt)
}

func TestGenerateTriggersStatementLevelWrapsBody(t *testing.T) {
	tr := core.TriggerDefinition{
		Name:      "TRG_AUDIT",
		TableName: "ORDERS",
		Timing:    core.TimingAfter,
		Events:    []string{"DELETE", "UPDATE"},
		Body:      "NULL",
	}
	stmt := generateOne(t, tr, dialect.TerminatorStatement)

	expected := strings.Join([]string{
		`CREATE OR REPLACE TRIGGER "PLATFORM"."TRG_AUDIT"`,
		`AFTER DELETE OR UPDATE ON "PLATFORM"."ORDERS"`,
		`BEGIN`,
		`NULL;`,
		`END;`,
	}, "\n")
	assert.Equal(t, expected, stmt)
}

func TestGenerateTriggersUsesFullBodyWhenBodyContainsCreate(t *testing.T) {
	body := "CREATE OR REPLACE TRIGGER TRG_BPM_CATEGORY_ID\nBEFORE INSERT ON BPM_CATEGORY\nBEGIN\nNULL;\nEND;"
	stmt := generateOne(t, rowTrigger(body), dialect.TerminatorStatement)

	assert.Equal(t, 1, strings.Count(strings.ToUpper(stmt), "CREATE OR REPLACE TRIGGER"))
	assert.Equal(t, body, stmt)
}

func TestGenerateTriggersPlacesWhenAfterForEachRow(t *testing.T) {
	stmt := generateOne(t,
		rowTrigger("WHEN (NEW.ID IS NULL)\nBEGIN\nSELECT SEQ.NEXTVAL INTO :NEW.ID FROM DUAL;\nEND"),
		dialect.TerminatorStatement)

	forEachRow := strings.Index(stmt, "FOR EACH ROW")
	when := strings.Index(stmt, "WHEN (")
	require.NotEqual(t, -1, forEachRow)
	require.NotEqual(t, -1, when)
	assert.Less(t, forEachRow, when)
	assert.Contains(t, stmt, "\nWHEN (:NEW.ID IS NULL)\nBEGIN")
	assert.Contains(t, stmt, "REFERENCING OLD AS OLD NEW AS NEW")
	assert.True(t, strings.HasSuffix(stmt, "END;"))
}

func TestGenerateTriggersHandlesDeclareBlock(t *testing.T) {
	stmt := generateOne(t,
		rowTrigger("DECLARE\n  v_count NUMBER;\nBEGIN\n  SELECT COUNT(*) INTO v_count FROM DUAL;\nEND"),
		dialect.TerminatorStatement)

	assert.Equal(t, 1, strings.Count(stmt, "DECLARE"), stmt)
	assert.Equal(t, 1, strings.Count(stmt, "BEGIN"), stmt)
	assert.True(t, strings.HasSuffix(stmt, "END;"))
}

func TestGenerateTriggersSkipsWhenForStatementLevelTrigger(t *testing.T) {
	tr := rowTrigger("WHEN (1=1)\nBEGIN\nNULL;\nEND")
	tr.EachRow = false
	tr.Timing = core.TimingAfter

	stmt := generateOne(t, tr, dialect.TerminatorStatement)
	assert.NotContains(t, stmt, "FOR EACH ROW")
	assert.NotContains(t, stmt, "REFERENCING")
}

func TestGenerateTriggersNormalizesReferences(t *testing.T) {
	tr := rowTrigger("BEGIN\nNEW.UPDATE_TIME := OLD.UPDATE_TIME\nEND")
	tr.Events = []string{"UPDATE"}

	stmt := generateOne(t, tr, dialect.TerminatorStatement)
	assert.Contains(t, stmt, ":NEW.UPDATE_TIME := :OLD.UPDATE_TIME;")
}

func TestGenerateTriggersTerminators(t *testing.T) {
	tests := []struct {
		name      string
		mode      dialect.TriggerTerminator
		wantSlash bool
	}{
		{"statement", dialect.TerminatorStatement, false},
		{"script", dialect.TerminatorScript, true},
		{"separate file uses script format", dialect.TerminatorSeparateFile, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := generateOne(t, rowTrigger("BEGIN\n:NEW.ID := 1;\nEND"), tt.mode)
			if tt.wantSlash {
				assert.True(t, strings.HasSuffix(stmt, "END;\n/"), stmt)
				return
			}
			assert.True(t, strings.HasSuffix(stmt, ";"))
			assert.NotContains(t, stmt, "\n/")
		})
	}
}

func TestApplyTriggerTerminator(t *testing.T) {
	assert.Equal(t, "END;", applyTriggerTerminator("END", dialect.TerminatorStatement))
	assert.Equal(t, "END;\n/", applyTriggerTerminator("END;", dialect.TerminatorScript))
	assert.Equal(t, "END;\n/", applyTriggerTerminator("END;\n/", dialect.TerminatorScript))
	assert.Equal(t, "END;\n/", applyTriggerTerminator("END;\n", dialect.TerminatorScript))
}

func TestExtractWhenClause(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantClause string
		wantBody   string
	}{
		{
			name:       "single line",
			body:       "WHEN (NEW.ID IS NULL)\nBEGIN\nSELECT SEQ.NEXTVAL INTO :NEW.ID FROM DUAL;\nEND",
			wantClause: "NEW.ID IS NULL",
			wantBody:   "BEGIN\nSELECT SEQ.NEXTVAL INTO :NEW.ID FROM DUAL;\nEND",
		},
		{
			name:       "nested parentheses",
			body:       "WHEN (FUNC(NEW.ID, NEW.NAME) IS NULL)\nBEGIN\nNULL;\nEND",
			wantClause: "FUNC(NEW.ID, NEW.NAME) IS NULL",
			wantBody:   "BEGIN\nNULL;\nEND",
		},
		{
			name:       "multiline",
			body:       "WHEN (\n  NEW.ID IS NULL\n  AND NEW.STATUS = 'ACTIVE'\n)\nBEGIN\nNULL;\nEND",
			wantClause: "NEW.ID IS NULL AND NEW.STATUS = 'ACTIVE'",
			wantBody:   "BEGIN\nNULL;\nEND",
		},
		{
			name:       "no when",
			body:       "BEGIN\nNULL;\nEND",
			wantClause: "",
			wantBody:   "BEGIN\nNULL;\nEND",
		},
		{
			name:       "when without parenthesis stays in body",
			body:       "WHENEVER\nNULL;",
			wantClause: "",
			wantBody:   "WHENEVER\nNULL;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, body := extractWhenClause(tt.body)
			assert.Equal(t, tt.wantClause, clause)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestNormalizeTriggerReferences(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NEW.ID := 1", ":NEW.ID := 1"},
		{"new.id = old.id", ":NEW.id = :OLD.id"},
		{":NEW.ID", ":NEW.ID"},
		{"RENEW.ID", "RENEW.ID"},
		{"T_OLD.X", "T_OLD.X"},
		{"(NEW.A)", "(:NEW.A)"},
		{"NEWS", "NEWS"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeTriggerReferences(tt.input))
		})
	}
}

func TestNormalizeTriggerBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{
			name:     "adds missing semicolons",
			body:     "BEGIN\nSELECT SEQ.NEXTVAL INTO :NEW.ID FROM DUAL\n:NEW.UPDATE_TIME := SYSDATE\nEND",
			expected: "BEGIN\nSELECT SEQ.NEXTVAL INTO :NEW.ID FROM DUAL;\n:NEW.UPDATE_TIME := SYSDATE;\nEND;",
		},
		{
			name:     "multiline select into terminated once",
			body:     "BEGIN\nSELECT COUNT(*)\nINTO V_CNT\nFROM T\nWHERE ID = 1\nV_X := V_CNT\nEND",
			expected: "BEGIN\nSELECT COUNT(*)\nINTO V_CNT\nFROM T\nWHERE ID = 1;\nV_X := V_CNT;\nEND;",
		},
		{
			name:     "open parenthesis suppresses semicolon",
			body:     "BEGIN\nINSERT INTO LOG (A,\nB) VALUES (1, 2)\nEND",
			expected: "BEGIN\nINSERT INTO LOG (A,\nB) VALUES (1, 2)\nEND;",
		},
		{
			name:     "control flow untouched",
			body:     "BEGIN\nIF :NEW.A > 0 THEN\nRAISE_APPLICATION_ERROR(-20001, 'bad')\nEND IF;\nEND;",
			expected: "BEGIN\nIF :NEW.A > 0 THEN\nRAISE_APPLICATION_ERROR(-20001, 'bad');\nEND IF;\nEND;",
		},
		{
			name:     "blank lines kept",
			body:     "BEGIN\n\nNULL\nEND",
			expected: "BEGIN\n\nNULL;\nEND;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeTriggerBody(tt.body)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, got, normalizeTriggerBody(got), "normalization is idempotent")
		})
	}
}
