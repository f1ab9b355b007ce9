// Package core contains the object model reconstructed from the DM8 catalog.
// Every entity is a read-only snapshot built fresh for each export or
// introspection request; nothing here is persisted.
package core

// Table is one entry of a schema table listing.
type Table struct {
	Name     string `json:"name" yaml:"name"`
	Comment  string `json:"comment,omitempty" yaml:"comment,omitempty"`
	RowCount *int64 `json:"row_count,omitempty" yaml:"row_count,omitempty"`
}

// Column represents one table column as reported by ALL_TAB_COLUMNS.
type Column struct {
	Name     string `json:"name" yaml:"name"`
	DataType string `json:"data_type" yaml:"data_type"`
	Length   *int   `json:"length,omitempty" yaml:"length,omitempty"`
	// Precision and Scale are nil when the catalog leaves them empty.
	Precision *int `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale     *int `json:"scale,omitempty" yaml:"scale,omitempty"`
	// CharSemantics holds CHAR_USED: "C" for character length, "B" for bytes.
	CharSemantics string  `json:"char_semantics,omitempty" yaml:"char_semantics,omitempty"`
	Nullable      bool    `json:"nullable" yaml:"nullable"`
	Comment       string  `json:"comment,omitempty" yaml:"comment,omitempty"`
	DefaultValue  *string `json:"default_value,omitempty" yaml:"default_value,omitempty"`

	Identity          bool   `json:"identity,omitempty" yaml:"identity,omitempty"`
	IdentityStart     *int64 `json:"identity_start,omitempty" yaml:"identity_start,omitempty"`
	IdentityIncrement *int64 `json:"identity_increment,omitempty" yaml:"identity_increment,omitempty"`
}

// Index is a catalog index with its ordered column list.
type Index struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []string `json:"columns" yaml:"columns"`
	Unique  bool     `json:"unique" yaml:"unique"`
}

// UniqueConstraint is a named UNIQUE constraint.
type UniqueConstraint struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []string `json:"columns" yaml:"columns"`
}

// CheckConstraint is a named CHECK constraint with its raw condition text.
type CheckConstraint struct {
	Name      string `json:"name" yaml:"name"`
	Condition string `json:"condition" yaml:"condition"`
}

// ForeignKey references another table's columns. ReferencedOwner is empty
// when the referenced table lives in the same schema as the owning table.
type ForeignKey struct {
	Name              string   `json:"name" yaml:"name"`
	Columns           []string `json:"columns" yaml:"columns"`
	ReferencedOwner   string   `json:"referenced_owner,omitempty" yaml:"referenced_owner,omitempty"`
	ReferencedTable   string   `json:"referenced_table" yaml:"referenced_table"`
	ReferencedColumns []string `json:"referenced_columns" yaml:"referenced_columns"`
	DeleteRule        string   `json:"delete_rule,omitempty" yaml:"delete_rule,omitempty"`
	UpdateRule        string   `json:"update_rule,omitempty" yaml:"update_rule,omitempty"`
}

// ReferencedName returns the dotted name of the referenced table.
func (fk ForeignKey) ReferencedName() string {
	if fk.ReferencedOwner == "" {
		return fk.ReferencedTable
	}
	return fk.ReferencedOwner + "." + fk.ReferencedTable
}

// Sequence is a schema sequence object.
type Sequence struct {
	Name         string `json:"name" yaml:"name"`
	StartWith    *int64 `json:"start_with,omitempty" yaml:"start_with,omitempty"`
	MinValue     *int64 `json:"min_value,omitempty" yaml:"min_value,omitempty"`
	MaxValue     *int64 `json:"max_value,omitempty" yaml:"max_value,omitempty"`
	IncrementBy  int64  `json:"increment_by" yaml:"increment_by"`
	CacheSize    *int64 `json:"cache_size,omitempty" yaml:"cache_size,omitempty"`
	Cycle        bool   `json:"cycle" yaml:"cycle"`
	Order        bool   `json:"order" yaml:"order"`
	CurrentValue *int64 `json:"current_value,omitempty" yaml:"current_value,omitempty"`
}

// RestartValue is the value a data load resets the sequence to.
func (s Sequence) RestartValue() int64 {
	switch {
	case s.CurrentValue != nil:
		return *s.CurrentValue
	case s.StartWith != nil:
		return *s.StartWith
	default:
		return 1
	}
}

// MaxBatchSize caps the rows a single generated INSERT statement may carry.
const MaxBatchSize = 100000

// TriggerTiming is when a trigger fires relative to its event.
type TriggerTiming string

const (
	TimingBefore    TriggerTiming = "BEFORE"
	TimingAfter     TriggerTiming = "AFTER"
	TimingInsteadOf TriggerTiming = "INSTEAD OF"
)

// TriggerDefinition is one trigger. Body may already hold a complete
// CREATE TRIGGER statement, in which case it is emitted verbatim.
type TriggerDefinition struct {
	Name      string        `json:"name" yaml:"name"`
	TableName string        `json:"table_name" yaml:"table_name"`
	Timing    TriggerTiming `json:"timing" yaml:"timing"`
	Events    []string      `json:"events" yaml:"events"`
	EachRow   bool          `json:"each_row" yaml:"each_row"`
	Body      string        `json:"body" yaml:"body"`
}

// TableDetails is the aggregate root for one table.
type TableDetails struct {
	Name              string              `json:"name" yaml:"name"`
	Comment           string              `json:"comment,omitempty" yaml:"comment,omitempty"`
	Columns           []Column            `json:"columns" yaml:"columns"`
	PrimaryKeys       []string            `json:"primary_keys" yaml:"primary_keys"`
	Indexes           []Index             `json:"indexes" yaml:"indexes"`
	UniqueConstraints []UniqueConstraint  `json:"unique_constraints" yaml:"unique_constraints"`
	CheckConstraints  []CheckConstraint   `json:"check_constraints" yaml:"check_constraints"`
	ForeignKeys       []ForeignKey        `json:"foreign_keys" yaml:"foreign_keys"`
	Triggers          []TriggerDefinition `json:"triggers" yaml:"triggers"`
}

// IdentityColumn returns the table's identity column, if any.
func (t *TableDetails) IdentityColumn() (Column, bool) {
	for _, c := range t.Columns {
		if c.Identity {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns column names in catalog order.
func (t *TableDetails) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// BaseName returns the last dotted segment of a possibly qualified name.
func BaseName(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}
