// Package sessiontest provides an in-memory session.Session that answers
// queries from canned rows, for testing catalog and export code without a
// database.
package sessiontest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Amerone/dabase-tool/internal/session"
)

// Fake matches each executed query against its stubs in registration order.
// A stub matches when the query contains every one of its fragments.
type Fake struct {
	mu      sync.Mutex
	stubs   []*Stub
	queries []string
}

var _ session.Session = (*Fake)(nil)

// New returns a Fake with no stubs.
func New() *Fake {
	return &Fake{}
}

// Stub is a canned answer for matching queries.
type Stub struct {
	fragments []string
	rows      [][]*string
	err       error
	noResult  bool
	once      bool
	used      bool
}

// When registers a stub for queries containing all fragments.
func (f *Fake) When(fragments ...string) *Stub {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &Stub{fragments: fragments}
	f.stubs = append(f.stubs, s)
	return s
}

// Return sets the rows the stub yields. Cells may be nil for NULL, a string,
// or any value printed with fmt.
func (s *Stub) Return(rows ...[]any) *Stub {
	s.rows = make([][]*string, 0, len(rows))
	for _, r := range rows {
		s.rows = append(s.rows, Row(r...))
	}
	return s
}

// Fail makes the stub return err from Execute.
func (s *Stub) Fail(err error) *Stub {
	s.err = err
	return s
}

// NoResult makes the stub behave like a statement without a result set.
func (s *Stub) NoResult() *Stub {
	s.noResult = true
	return s
}

// Once limits the stub to a single match.
func (s *Stub) Once() *Stub {
	s.once = true
	return s
}

// Row converts cells to the nullable text form a session.Batch holds.
func Row(cells ...any) []*string {
	row := make([]*string, len(cells))
	for i, c := range cells {
		switch v := c.(type) {
		case nil:
		case string:
			row[i] = &v
		case *string:
			row[i] = v
		default:
			text := fmt.Sprint(v)
			row[i] = &text
		}
	}
	return row
}

// Execute implements session.Session.
func (f *Fake) Execute(ctx context.Context, query string) (session.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)

	for _, s := range f.stubs {
		if s.once && s.used {
			continue
		}
		if !matches(query, s.fragments) {
			continue
		}
		s.used = true
		switch {
		case s.err != nil:
			return nil, s.err
		case s.noResult:
			return nil, nil
		default:
			return &cursor{rows: s.rows}, nil
		}
	}
	return nil, fmt.Errorf("sessiontest: no stub for query: %s", query)
}

func matches(query string, fragments []string) bool {
	for _, frag := range fragments {
		if !strings.Contains(query, frag) {
			return false
		}
	}
	return true
}

// Queries returns every executed query in order.
func (f *Fake) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// Count returns how many executed queries contain fragment.
func (f *Fake) Count(fragment string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.queries {
		if strings.Contains(q, fragment) {
			n++
		}
	}
	return n
}

type cursor struct {
	rows   [][]*string
	pos    int
	closed bool
}

func (c *cursor) Fetch(n int) (*session.Batch, error) {
	if c.closed {
		return nil, fmt.Errorf("sessiontest: fetch on closed cursor")
	}
	if c.pos >= len(c.rows) || n <= 0 {
		return nil, nil
	}
	end := min(c.pos+n, len(c.rows))
	batch := session.NewBatch(c.rows[c.pos:end])
	c.pos = end
	return batch, nil
}

func (c *cursor) Close() error {
	c.closed = true
	return nil
}
