package dm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amerone/dabase-tool/internal/core"
)

func TestGenerateCreateTable(t *testing.T) {
	table := &core.TableDetails{
		Name:    "APP.USERS",
		Comment: " Users ",
		Columns: []core.Column{
			{Name: "ID", DataType: "NUMBER", Precision: intPtr(10), Scale: intPtr(0), Identity: true,
				IdentityStart: int64Ptr(1), IdentityIncrement: int64Ptr(1)},
			{Name: "NAME", DataType: "VARCHAR", Length: intPtr(50), CharSemantics: "C", Nullable: true,
				Comment: "User's name", DefaultValue: strPtr("'anon'")},
			{Name: "CREATED", DataType: "DATE", DefaultValue: strPtr("SYSDATE")},
		},
	}

	expected := strings.Join([]string{
		`CREATE TABLE "APP"."USERS" (`,
		`    "ID" NUMBER(10,0) IDENTITY(1, 1) NOT NULL,`,
		`    "NAME" VARCHAR(50 CHAR) DEFAULT 'anon' NULL,`,
		`    "CREATED" DATE DEFAULT SYSDATE NOT NULL`,
		`);`,
		`COMMENT ON TABLE "APP"."USERS" IS 'Users';`,
		`COMMENT ON COLUMN "APP"."USERS"."NAME" IS 'User''s name';`,
	}, "\n")

	assert.Equal(t, expected, NewGenerator().GenerateCreateTable(table))
}

func TestGenerateCreateTableWithoutComments(t *testing.T) {
	table := &core.TableDetails{
		Name:    "T",
		Columns: []core.Column{{Name: "A", DataType: "INT", Nullable: true, Comment: "   "}},
	}
	assert.Equal(t, "CREATE TABLE \"T\" (\n    \"A\" INT NULL\n);", NewGenerator().GenerateCreateTable(table))
}

func TestGeneratePrimaryKey(t *testing.T) {
	g := NewGenerator()

	_, ok := g.GeneratePrimaryKey(&core.TableDetails{Name: "APP.T"})
	assert.False(t, ok)

	stmt, ok := g.GeneratePrimaryKey(&core.TableDetails{Name: "APP.ORDERS", PrimaryKeys: []string{"ORDER_ID", "LINE"}})
	require.True(t, ok)
	assert.Equal(t, `ALTER TABLE "APP"."ORDERS" ADD CONSTRAINT "PK_ORDERS" PRIMARY KEY ("ORDER_ID", "LINE");`, stmt)
}

func TestGenerateIndexes(t *testing.T) {
	tests := []struct {
		name     string
		table    core.TableDetails
		expected []string
	}{
		{
			name: "system name rewritten and not schema qualified",
			table: core.TableDetails{
				Name: "PLATFORM_V3.QRTZ_BLOB_TRIGGERS",
				Indexes: []core.Index{{
					Name:    "INDEX33561145",
					Columns: []string{"SCHED_NAME", "TRIGGER_NAME", "TRIGGER_GROUP"},
				}},
			},
			expected: []string{
				`CREATE INDEX "IDX_QRTZ_BLOB_TRIGGERS_SCHED_NAME_TRIGGER_NAME_TRIGGER_GROUP" ON "PLATFORM_V3"."QRTZ_BLOB_TRIGGERS" ("SCHED_NAME", "TRIGGER_NAME", "TRIGGER_GROUP");`,
			},
		},
		{
			name: "index on primary key columns skipped",
			table: core.TableDetails{
				Name:        "PLATFORM.QRTZ_SIMPLE_TRIGGERS",
				PrimaryKeys: []string{"SCHED_NAME", "TRIGGER_NAME", "TRIGGER_GROUP"},
				Indexes: []core.Index{{
					Name:    "INDEX33561156",
					Columns: []string{"TRIGGER_GROUP", "sched_name", "TRIGGER_NAME"},
				}},
			},
			expected: nil,
		},
		{
			name: "duplicate column list skipped",
			table: core.TableDetails{
				Name: "PLATFORM_V3.DUP_INDEX",
				Indexes: []core.Index{
					{Name: "IDX_ONE", Columns: []string{"A", "B"}},
					{Name: "IDX_TWO", Columns: []string{"a", "b"}, Unique: true},
					{Name: "IDX_THREE", Columns: []string{"B", "A"}},
				},
			},
			expected: []string{
				`CREATE INDEX "IDX_ONE" ON "PLATFORM_V3"."DUP_INDEX" ("A", "B");`,
				`CREATE INDEX "IDX_THREE" ON "PLATFORM_V3"."DUP_INDEX" ("B", "A");`,
			},
		},
		{
			name: "index matching unique constraint skipped",
			table: core.TableDetails{
				Name:              "PLATFORM_V3.UNIQ_TEST",
				UniqueConstraints: []core.UniqueConstraint{{Name: "UK_UNIQ_TEST", Columns: []string{"CODE", "TYPE"}}},
				Indexes: []core.Index{
					{Name: "IDX_UNIQ", Columns: []string{"CODE", "TYPE"}},
					{Name: "IDX_CODE", Columns: []string{"CODE"}, Unique: true},
				},
			},
			expected: []string{
				`CREATE UNIQUE INDEX "IDX_CODE" ON "PLATFORM_V3"."UNIQ_TEST" ("CODE");`,
			},
		},
		{
			name: "index without columns skipped",
			table: core.TableDetails{
				Name:    "T",
				Indexes: []core.Index{{Name: "IDX_EMPTY"}},
			},
			expected: nil,
		},
	}

	g := NewGenerator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts := g.GenerateIndexes(&tt.table)
			if tt.expected == nil {
				assert.Empty(t, stmts)
				return
			}
			assert.Equal(t, tt.expected, stmts)
		})
	}
}

func TestIndexNameTruncated(t *testing.T) {
	cols := []string{strings.Repeat("A", 60), strings.Repeat("B", 60), strings.Repeat("C", 60)}
	name := indexName("S.T", core.Index{Name: "INDEX1", Columns: cols})
	assert.Len(t, name, maxIdentLen)
	assert.True(t, strings.HasPrefix(name, "IDX_T_"))

	assert.Equal(t, "INDEXED_BY_HAND", indexName("S.T", core.Index{Name: "INDEXED_BY_HAND", Columns: cols}))
}

func TestIndexNameTruncatedOnRuneBoundary(t *testing.T) {
	// "IDX_T_" plus 3-byte runes puts byte 128 in the middle of a rune.
	name := indexName("S.T", core.Index{Name: "INDEX7", Columns: []string{strings.Repeat("订", 60)}})
	assert.True(t, utf8.ValidString(name))
	assert.Len(t, name, maxIdentLen-2)
	assert.Equal(t, "IDX_T_"+strings.Repeat("订", 40), name)
}

func TestGenerateUniqueAndCheckConstraints(t *testing.T) {
	table := &core.TableDetails{
		Name:              "APP.T",
		UniqueConstraints: []core.UniqueConstraint{{Name: "UK_T_CODE", Columns: []string{"CODE", "KIND"}}},
		CheckConstraints:  []core.CheckConstraint{{Name: "CK_T_QTY", Condition: `"QTY" > 0`}},
	}
	g := NewGenerator()

	assert.Equal(t,
		[]string{`ALTER TABLE "APP"."T" ADD CONSTRAINT "UK_T_CODE" UNIQUE ("CODE", "KIND");`},
		g.GenerateUniqueConstraints(table))
	assert.Equal(t,
		[]string{`ALTER TABLE "APP"."T" ADD CONSTRAINT "CK_T_QTY" CHECK ("QTY" > 0);`},
		g.GenerateCheckConstraints(table))
}

func TestGenerateForeignKeys(t *testing.T) {
	tests := []struct {
		name     string
		fk       core.ForeignKey
		expected string
	}{
		{
			name: "no action omitted",
			fk: core.ForeignKey{
				Name: "FK_TEST", Columns: []string{"SCHED_NAME"},
				ReferencedOwner: "PLATFORM_V3", ReferencedTable: "QRTZ_JOB_DETAILS", ReferencedColumns: []string{"SCHED_NAME"},
				DeleteRule: "NO ACTION", UpdateRule: "no action",
			},
			expected: `ALTER TABLE "PLATFORM_V3"."QRTZ_TRIGGERS" ADD CONSTRAINT "FK_TEST" FOREIGN KEY ("SCHED_NAME") REFERENCES "PLATFORM_V3"."QRTZ_JOB_DETAILS" ("SCHED_NAME");`,
		},
		{
			name: "cascade rules kept",
			fk: core.ForeignKey{
				Name: "FK_CASCADE", Columns: []string{"A", "B"},
				ReferencedTable: "PARENT", ReferencedColumns: []string{"X", "Y"},
				DeleteRule: "CASCADE", UpdateRule: "SET NULL",
			},
			expected: `ALTER TABLE "PLATFORM_V3"."QRTZ_TRIGGERS" ADD CONSTRAINT "FK_CASCADE" FOREIGN KEY ("A", "B") REFERENCES "PARENT" ("X", "Y") ON DELETE CASCADE ON UPDATE SET NULL;`,
		},
	}

	g := NewGenerator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &core.TableDetails{Name: "PLATFORM_V3.QRTZ_TRIGGERS", ForeignKeys: []core.ForeignKey{tt.fk}}
			stmts := g.GenerateForeignKeys(table)
			require.Len(t, stmts, 1)
			assert.Equal(t, tt.expected, stmts[0])
		})
	}
}
