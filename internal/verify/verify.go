// Package verify checks generated data-load scripts by parsing them back.
// INSERT and TRUNCATE statements go through the TiDB parser in ANSI_QUOTES
// mode; DM8-only statements are classified from their text.
package verify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/mysql"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // registers the value expression driver
)

// Statement kinds reported by Classify.
const (
	KindInsert         = "INSERT"
	KindTruncate       = "TRUNCATE TABLE"
	KindIdentityInsert = "SET IDENTITY_INSERT"
	KindAlterSequence  = "ALTER SEQUENCE"
	KindOther          = "OTHER"
)

var (
	identityInsertPattern = regexp.MustCompile(`(?is)^SET\s+IDENTITY_INSERT\s+(.+?)\s+(ON|OFF)\s*;?$`)
	alterSequencePattern  = regexp.MustCompile(`(?is)^ALTER\s+SEQUENCE\s+(.+?)\s+RESTART\s+WITH\s+(-?\d+)\s*;?$`)
)

// textualKinds are statement prefixes recognized without parsing.
var textualKinds = []string{
	"CREATE TABLE", "CREATE UNIQUE INDEX", "CREATE INDEX", "CREATE SEQUENCE",
	"CREATE OR REPLACE TRIGGER", "CREATE TRIGGER", "ALTER TABLE", "COMMENT ON", "DROP TABLE",
}

// TableReport summarizes the statements that target one table.
type TableReport struct {
	Name           string `json:"name" yaml:"name"`
	Truncated      bool   `json:"truncated" yaml:"truncated"`
	Inserts        int    `json:"inserts" yaml:"inserts"`
	Rows           int    `json:"rows" yaml:"rows"`
	IdentityOn     bool   `json:"identity_on" yaml:"identity_on"`
	IdentityOff    bool   `json:"identity_off" yaml:"identity_off"`
	MaxBatchRows   int    `json:"max_batch_rows" yaml:"max_batch_rows"`
	InsertColumns  int    `json:"insert_columns" yaml:"insert_columns"`
	ColumnMismatch bool   `json:"column_mismatch,omitempty" yaml:"column_mismatch,omitempty"`
}

// Report summarizes a whole script.
type Report struct {
	Statements     int              `json:"statements" yaml:"statements"`
	Kinds          map[string]int   `json:"kinds" yaml:"kinds"`
	Tables         []*TableReport   `json:"tables" yaml:"tables"`
	SequenceResets map[string]int64 `json:"sequence_resets,omitempty" yaml:"sequence_resets,omitempty"`
	Problems       []string         `json:"problems,omitempty" yaml:"problems,omitempty"`

	index map[string]*TableReport
}

// Table returns the report for a SCHEMA.TABLE name, or nil.
func (r *Report) Table(name string) *TableReport {
	return r.index[strings.ToUpper(name)]
}

// TotalRows is the number of VALUES rows across all tables.
func (r *Report) TotalRows() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Rows
	}
	return n
}

func (r *Report) table(name string) *TableReport {
	key := strings.ToUpper(name)
	if t, ok := r.index[key]; ok {
		return t
	}
	t := &TableReport{Name: key}
	r.index[key] = t
	r.Tables = append(r.Tables, t)
	return t
}

// Analyzer parses script statements.
type Analyzer struct {
	parser *parser.Parser
}

// NewAnalyzer creates an analyzer whose parser reads double quotes as
// identifier delimiters and backslashes as plain characters.
func NewAnalyzer() *Analyzer {
	p := parser.New()
	p.SetSQLMode(mysql.ModeANSIQuotes | mysql.ModeNoBackslashEscapes)
	return &Analyzer{parser: p}
}

// AnalyzeScript splits and analyzes a full script.
func AnalyzeScript(script string) (*Report, error) {
	return NewAnalyzer().Analyze(script)
}

// Analyze splits script into statements and summarizes them. It fails when a
// statement that should parse does not, or when an identity bracket is left
// open.
func (a *Analyzer) Analyze(script string) (*Report, error) {
	report := &Report{
		Kinds:          make(map[string]int),
		SequenceResets: make(map[string]int64),
		index:          make(map[string]*TableReport),
	}

	for _, stmt := range SplitStatements(script) {
		report.Statements++
		kind, err := a.analyzeStatement(report, stmt)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", report.Statements, err)
		}
		report.Kinds[kind]++
	}

	for _, t := range report.Tables {
		if t.IdentityOn != t.IdentityOff {
			report.Problems = append(report.Problems, fmt.Sprintf("identity insert for %s is not closed", t.Name))
		}
		if t.ColumnMismatch {
			report.Problems = append(report.Problems, fmt.Sprintf("row width differs from column list in %s", t.Name))
		}
	}
	if len(report.Problems) > 0 {
		return report, fmt.Errorf("script verification failed: %s", strings.Join(report.Problems, "; "))
	}
	return report, nil
}

func (a *Analyzer) analyzeStatement(report *Report, stmt string) (string, error) {
	upper := strings.ToUpper(stmt)

	if m := identityInsertPattern.FindStringSubmatch(stmt); m != nil {
		t := report.table(unquoteName(m[1]))
		if strings.EqualFold(m[2], "ON") {
			t.IdentityOn = true
		} else {
			t.IdentityOff = true
		}
		return KindIdentityInsert, nil
	}
	if m := alterSequencePattern.FindStringSubmatch(stmt); m != nil {
		var n int64
		if _, err := fmt.Sscan(m[2], &n); err != nil {
			return "", fmt.Errorf("bad RESTART value %q: %w", m[2], err)
		}
		report.SequenceResets[unquoteName(m[1])] = n
		return KindAlterSequence, nil
	}

	if strings.HasPrefix(upper, "INSERT") || strings.HasPrefix(upper, "TRUNCATE") {
		nodes, _, err := a.parser.Parse(stmt, "", "")
		if err != nil {
			return "", fmt.Errorf("parse %q: %w", truncateSQL(stmt), err)
		}
		if len(nodes) != 1 {
			return "", fmt.Errorf("expected one statement, got %d", len(nodes))
		}
		return a.analyzeNode(report, nodes[0])
	}

	for _, prefix := range textualKinds {
		if strings.HasPrefix(upper, prefix) {
			return prefix, nil
		}
	}
	return KindOther, nil
}

func (a *Analyzer) analyzeNode(report *Report, node ast.StmtNode) (string, error) {
	switch stmt := node.(type) {
	case *ast.InsertStmt:
		name, err := insertTarget(stmt)
		if err != nil {
			return "", err
		}
		t := report.table(name)
		t.Inserts++
		t.Rows += len(stmt.Lists)
		t.MaxBatchRows = max(t.MaxBatchRows, len(stmt.Lists))
		t.InsertColumns = len(stmt.Columns)
		for _, row := range stmt.Lists {
			if len(stmt.Columns) > 0 && len(row) != len(stmt.Columns) {
				t.ColumnMismatch = true
			}
		}
		return KindInsert, nil
	case *ast.TruncateTableStmt:
		report.table(tableName(stmt.Table)).Truncated = true
		return KindTruncate, nil
	default:
		return KindOther, nil
	}
}

func insertTarget(stmt *ast.InsertStmt) (string, error) {
	if stmt.Table == nil || stmt.Table.TableRefs == nil {
		return "", fmt.Errorf("INSERT without a target table")
	}
	source, ok := stmt.Table.TableRefs.Left.(*ast.TableSource)
	if !ok {
		return "", fmt.Errorf("INSERT target is not a table")
	}
	name, ok := source.Source.(*ast.TableName)
	if !ok {
		return "", fmt.Errorf("INSERT target is not a table name")
	}
	return tableName(name), nil
}

func tableName(n *ast.TableName) string {
	if n == nil {
		return ""
	}
	if n.Schema.O == "" {
		return n.Name.O
	}
	return n.Schema.O + "." + n.Name.O
}

// unquoteName turns "S"."T" into S.T.
func unquoteName(s string) string {
	parts := strings.Split(strings.TrimSpace(s), ".")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
			p = strings.ReplaceAll(p[1:len(p)-1], `""`, `"`)
		}
		parts[i] = p
	}
	return strings.Join(parts, ".")
}

func truncateSQL(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if len(stmt) > 80 {
		return stmt[:77] + "..."
	}
	return stmt
}
