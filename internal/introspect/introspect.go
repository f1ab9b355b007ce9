// Package introspect reads the DM8 system catalog and reconstructs the
// core object model for a schema or a single table. Every query is a
// read-only catalog or COUNT(*) lookup issued through a session.Session.
package introspect

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Amerone/dabase-tool/internal/core"
	"github.com/Amerone/dabase-tool/internal/metrics"
	"github.com/Amerone/dabase-tool/internal/session"
)

// Introspector issues catalog queries over one session. It is not safe for
// concurrent use; the TriggerLevel it holds may be shared.
type Introspector struct {
	session session.Session
	level   *TriggerLevel
	log     *zap.Logger
	metrics *metrics.Metrics
}

// Option configures an Introspector.
type Option func(*Introspector)

// WithTriggerLevel shares a trigger query level across introspectors so a
// fallback discovered by one request is reused by the next.
func WithTriggerLevel(l *TriggerLevel) Option {
	return func(i *Introspector) { i.level = l }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(i *Introspector) { i.log = l }
}

// WithMetrics publishes trigger level changes to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Introspector) { i.metrics = m }
}

// New returns an Introspector reading through s.
func New(s session.Session, opts ...Option) *Introspector {
	i := &Introspector{session: s}
	for _, opt := range opts {
		opt(i)
	}
	if i.level == nil {
		i.level = NewTriggerLevel()
	}
	if i.log == nil {
		i.log = zap.NewNop()
	}
	return i
}

// TriggerLevel returns the level cache in use.
func (i *Introspector) TriggerLevel() *TriggerLevel {
	return i.level
}

func (i *Introspector) query(ctx context.Context, sql string) ([][]*string, error) {
	return session.QueryAll(ctx, i.session, sql)
}

// catalogName folds a schema or table name the way the catalog stores it.
func catalogName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// lit renders s as a SQL string literal.
func lit(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ident renders a double-quoted identifier.
func ident(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func cell(row []*string, col int) (string, bool) {
	return session.Cell(row, col)
}

func text(row []*string, col int) string {
	v, _ := session.Cell(row, col)
	return v
}

func trimmed(row []*string, col int) string {
	return strings.TrimSpace(text(row, col))
}

func parseInt64(row []*string, col int) *int64 {
	v, ok := session.Cell(row, col)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	if whole, frac, found := strings.Cut(v, "."); found && strings.Trim(frac, "0") == "" {
		v = whole
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func parseInt(row []*string, col int) *int {
	n := parseInt64(row, col)
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}

func isYes(row []*string, col int) bool {
	v := strings.ToUpper(trimmed(row, col))
	return v == "Y" || v == "YES"
}

func requireText(row []*string, col int, what string) (string, error) {
	v, ok := session.Cell(row, col)
	if !ok {
		return "", fmt.Errorf("%w: encountered %s without a value", core.ErrCatalogShape, what)
	}
	return v, nil
}
