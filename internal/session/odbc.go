package session

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/alexbrainman/odbc"
	"go.uber.org/multierr"

	"github.com/Amerone/dabase-tool/internal/core"
)

// ODBC is a Session over a single pinned ODBC connection, so session state
// such as SET SCHEMA applies to every query.
type ODBC struct {
	db      *sql.DB
	conn    *sql.Conn
	display string
}

var _ Session = (*ODBC)(nil)

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	driver *ResolvedDriver
}

// WithDriver skips discovery and uses d.
func WithDriver(d ResolvedDriver) Option {
	return func(o *openOptions) {
		o.driver = &d
	}
}

// Open validates cfg, connects, pings, and switches to cfg.Schema when it is
// not blank. Connection failures wrap core.ErrConnectivity.
func Open(ctx context.Context, cfg ConnectionConfig, opts ...Option) (*ODBC, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid DM8 connection configuration: %w", err)
	}

	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}
	driver := ResolveDriver()
	if o.driver != nil {
		driver = *o.driver
	}

	display := cfg.DisplayDSN()
	db, err := sql.Open("odbc", cfg.ConnectionString(driver.Driver))
	if err != nil {
		return nil, fmt.Errorf("%w: open DM8 connection to %s: %v", core.ErrConnectivity, display, err)
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err == nil {
		err = conn.PingContext(ctx)
	}
	if err != nil {
		err = fmt.Errorf("%w: connect to DM8 at %s: %v", core.ErrConnectivity, display, err)
		if conn != nil {
			err = multierr.Append(err, conn.Close())
		}
		return nil, multierr.Append(err, db.Close())
	}

	s := &ODBC{db: db, conn: conn, display: display}
	if schema := strings.TrimSpace(cfg.Schema); schema != "" {
		if _, err := conn.ExecContext(ctx, "SET SCHEMA "+schema); err != nil {
			err = fmt.Errorf("%w: connected to DM8 but failed to set schema to '%s': %v", core.ErrConnectivity, schema, err)
			return nil, multierr.Append(err, s.Close())
		}
	}
	return s, nil
}

// Test opens a session and runs a trivial query.
func Test(ctx context.Context, cfg ConnectionConfig, opts ...Option) error {
	s, err := Open(ctx, cfg, opts...)
	if err != nil {
		return fmt.Errorf("unable to open test connection to DM8: %w", err)
	}

	var one int
	if err := s.conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		err = fmt.Errorf("%w: connected to DM8 but failed to execute health query: %v", core.ErrConnectivity, err)
		return multierr.Append(err, s.Close())
	}
	return s.Close()
}

// String returns the display DSN.
func (s *ODBC) String() string { return s.display }

// Close releases the connection and its pool.
func (s *ODBC) Close() error {
	return multierr.Append(s.conn.Close(), s.db.Close())
}

// Execute implements Session.
func (s *ODBC) Execute(ctx context.Context, query string) (Cursor, error) {
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, multierr.Append(err, rows.Close())
	}
	if len(types) == 0 {
		return nil, rows.Close()
	}

	binary := make([]bool, len(types))
	for i, t := range types {
		binary[i] = isBinaryType(t.DatabaseTypeName())
	}
	return &rowsCursor{rows: rows, binary: binary}, nil
}

type rowsCursor struct {
	rows   *sql.Rows
	binary []bool
	done   bool
}

func (c *rowsCursor) Fetch(n int) (*Batch, error) {
	if c.done || n <= 0 {
		return nil, nil
	}

	values := make([]any, len(c.binary))
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}

	var out [][]*string
	for len(out) < n {
		if !c.rows.Next() {
			c.done = true
			if err := c.rows.Err(); err != nil {
				return nil, err
			}
			break
		}
		if err := c.rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make([]*string, len(values))
		for i, v := range values {
			row[i] = textValue(v, c.binary[i])
		}
		out = append(out, row)
	}

	if len(out) == 0 {
		return nil, nil
	}
	return NewBatch(out), nil
}

func (c *rowsCursor) Close() error {
	return c.rows.Close()
}

func isBinaryType(name string) bool {
	name = strings.ToUpper(name)
	for _, marker := range []string{"BINARY", "BLOB", "RAW", "IMAGE", "BFILE"} {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// textValue renders a scanned driver value as text. NULL becomes nil.
func textValue(v any, binary bool) *string {
	var s string
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		s = x
	case []byte:
		if binary {
			s = strings.ToUpper(hex.EncodeToString(x))
		} else {
			s = string(x)
		}
	case time.Time:
		s = formatTime(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	case int32:
		s = strconv.FormatInt(int64(x), 10)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		if x {
			s = "1"
		} else {
			s = "0"
		}
	default:
		s = fmt.Sprint(x)
	}
	return &s
}

// formatTime renders t the way DM8 prints DATETIME values. Fractional
// seconds are added only when present. The driver reports zoneless values in
// time.Local or UTC; any other location carries an explicit offset.
func formatTime(t time.Time) string {
	s := t.Format("2006-01-02 15:04:05")
	if us := t.Nanosecond() / 1000; us != 0 {
		s += "." + strings.TrimRight(fmt.Sprintf("%06d", us), "0")
	}
	if loc := t.Location(); loc != time.Local && loc != time.UTC {
		s += t.Format(" -07:00")
	}
	return s
}
