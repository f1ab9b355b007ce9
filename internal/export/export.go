// Package export renders schema DDL and data-load scripts for a set of
// tables. Tables are processed sequentially over one session so the output
// order is deterministic.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Amerone/dabase-tool/internal/dialect"
	"github.com/Amerone/dabase-tool/internal/dialect/dm"
	"github.com/Amerone/dabase-tool/internal/introspect"
	"github.com/Amerone/dabase-tool/internal/metrics"
	"github.com/Amerone/dabase-tool/internal/session"
)

// DefaultBatchSize is the number of rows per INSERT statement.
const DefaultBatchSize = 1000

// Export kinds, used in file names and metrics.
const (
	KindDDL  = "ddl"
	KindData = "data"
)

// Exporter writes export scripts for tables read through one session.
type Exporter struct {
	session      session.Session
	introspector *introspect.Introspector
	gen          dialect.Generator
	log          *zap.Logger
	metrics      *metrics.Metrics
	level        *introspect.TriggerLevel
	now          func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger used by the exporter and its introspector.
func WithLogger(l *zap.Logger) Option {
	return func(e *Exporter) { e.log = l }
}

// WithMetrics records export durations and row counts in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Exporter) { e.metrics = m }
}

// WithTriggerLevel shares the trigger query level cache.
func WithTriggerLevel(l *introspect.TriggerLevel) Option {
	return func(e *Exporter) { e.level = l }
}

// WithGenerator replaces the DM8 generator.
func WithGenerator(g dialect.Generator) Option {
	return func(e *Exporter) { e.gen = g }
}

// WithClock sets the time source for headers.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// New returns an Exporter reading through s.
func New(s session.Session, opts ...Option) *Exporter {
	e := &Exporter{
		session: s,
		gen:     dm.NewGenerator(),
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	introspectOpts := []introspect.Option{
		introspect.WithLogger(e.log),
		introspect.WithMetrics(e.metrics),
	}
	if e.level != nil {
		introspectOpts = append(introspectOpts, introspect.WithTriggerLevel(e.level))
	}
	e.introspector = introspect.New(s, introspectOpts...)
	return e
}

// FileName builds the export file path
// <dir>/<source>_to_<target>_<kind>_<YYYYmmdd_HHMMSS_mmm>.sql.
// Schema names are reduced to a single path element, so the result always
// stays inside dir.
func FileName(dir, source, target, kind string, t time.Time) string {
	suffix := fmt.Sprintf("%s_%03d", t.Format("20060102_150405"), t.Nanosecond()/int(time.Millisecond))
	name := fmt.Sprintf("%s_to_%s_%s_%s.sql", fileSegment(source), fileSegment(target), kind, suffix)
	return filepath.Join(dir, name)
}

var unsafeSegment = strings.NewReplacer("/", "_", "\\", "_", "\x00", "_", "..", "_")

func fileSegment(name string) string {
	return unsafeSegment.Replace(strings.TrimSpace(name))
}

// TriggerFileName returns the sibling file triggers are written to when
// they are exported separately.
func TriggerFileName(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".triggers.sql"
}

func schemaPair(source, target string) (string, string) {
	src := strings.ToUpper(strings.TrimSpace(source))
	tgt := strings.ToUpper(strings.TrimSpace(target))
	if tgt == "" {
		tgt = src
	}
	return src, tgt
}

func (e *Exporter) timestamp() string {
	return e.now().Format("2006-01-02 15:04:05")
}
