// Package session connects to a DM8 server and exposes the narrow read-only
// surface the catalog and export code needs: run a query and read its result
// as text in fixed-size batches.
package session

import (
	"context"
	"fmt"
)

// Session executes SQL against one DM8 connection. Implementations are not
// safe for concurrent use.
type Session interface {
	// Execute runs query and returns a cursor over its result set. The cursor
	// is nil when the statement produced no result set.
	Execute(ctx context.Context, query string) (Cursor, error)
}

// Cursor reads a result set in batches. Close must be called once the caller
// is done, even after Fetch reports the end of the result.
type Cursor interface {
	// Fetch returns up to n rows, or a nil batch when the result is exhausted.
	Fetch(n int) (*Batch, error)
	Close() error
}

// Batch holds rows already converted to text. A nil cell is SQL NULL.
type Batch struct {
	rows [][]*string
}

// NewBatch wraps rows of text cells.
func NewBatch(rows [][]*string) *Batch {
	return &Batch{rows: rows}
}

// NumRows returns the number of rows in the batch.
func (b *Batch) NumRows() int {
	if b == nil {
		return 0
	}
	return len(b.rows)
}

// Text returns the cell at (col, row) and false when it is NULL or out of range.
func (b *Batch) Text(col, row int) (string, bool) {
	if b == nil || row < 0 || row >= len(b.rows) {
		return "", false
	}
	cells := b.rows[row]
	if col < 0 || col >= len(cells) || cells[col] == nil {
		return "", false
	}
	return *cells[col], true
}

// DefaultFetchSize is the batch size used by QueryAll.
const DefaultFetchSize = 256

// QueryAll runs query and drains its cursor. A statement without a result
// set yields no rows.
func QueryAll(ctx context.Context, s Session, query string) ([][]*string, error) {
	cur, err := s.Execute(ctx, query)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, nil
	}
	defer cur.Close()

	var rows [][]*string
	for {
		batch, err := cur.Fetch(DefaultFetchSize)
		if err != nil {
			return nil, fmt.Errorf("fetch rows: %w", err)
		}
		if batch == nil {
			return rows, nil
		}
		rows = append(rows, batch.rows...)
	}
}

// Cell reads column col of a row returned by QueryAll.
func Cell(row []*string, col int) (string, bool) {
	if col < 0 || col >= len(row) || row[col] == nil {
		return "", false
	}
	return *row[col], true
}
