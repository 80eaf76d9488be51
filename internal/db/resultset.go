package db

import (
	"database/sql"
	"fmt"

	"github.com/hnreader/hnfav/internal/item"
)

// Logical column names understood by ResultSet extraction.
const (
	ColID      = "id"
	ColURL     = "url"
	ColTitle   = "title"
	ColSavedAt = "saved_at"
)

// ResultSet is a position-addressable view over a query result snapshot.
// Rows are materialized at construction time; later store mutations never
// affect an existing ResultSet. The position starts before the first row.
//
// ID and URL extraction fail loudly if the column is absent from the
// projection (data corruption signal); title and saved-time extraction
// tolerate an absent column.
type ResultSet struct {
	cols   map[string]int
	rows   [][]any
	pos    int
	closed bool
}

// newResultSet drains rows into a snapshot and releases them.
func newResultSet(rows *sql.Rows) (*ResultSet, error) {
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	cols := make(map[string]int, len(names))
	for i, name := range names {
		cols[name] = i
	}

	var snapshot [][]any
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		snapshot = append(snapshot, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to drain result rows: %w", err)
	}

	return &ResultSet{
		cols: cols,
		rows: snapshot,
		pos:  -1,
	}, nil
}

// Count returns the number of rows in the snapshot.
func (rs *ResultSet) Count() int {
	if rs == nil || rs.closed {
		return 0
	}
	return len(rs.rows)
}

// MoveToFirst positions the set at the first row.
func (rs *ResultSet) MoveToFirst() bool {
	return rs.MoveToPosition(0)
}

// MoveToNext advances the position by one row.
func (rs *ResultSet) MoveToNext() bool {
	return rs.MoveToPosition(rs.pos + 1)
}

// MoveToPosition moves to the given zero-based position.
// Returns false (without moving past bounds) if the position is invalid.
func (rs *ResultSet) MoveToPosition(n int) bool {
	if rs == nil || rs.closed || n < 0 || n >= len(rs.rows) {
		return false
	}
	rs.pos = n
	return true
}

// ID returns the id at the current position.
// An absent id column is a corruption signal and fails loudly.
func (rs *ResultSet) ID() (string, error) {
	return rs.requiredString(ColID)
}

// URL returns the url at the current position.
// An absent url column is a corruption signal and fails loudly.
func (rs *ResultSet) URL() (string, error) {
	return rs.requiredString(ColURL)
}

// Title returns the title at the current position, or "" if the column
// is absent or NULL.
func (rs *ResultSet) Title() string {
	idx, ok := rs.cols[ColTitle]
	if !ok {
		return ""
	}
	row, err := rs.currentRow()
	if err != nil {
		return ""
	}
	return asString(row[idx])
}

// SavedAt returns the saved-time at the current position, or 0 if the
// column is absent or NULL.
func (rs *ResultSet) SavedAt() int64 {
	idx, ok := rs.cols[ColSavedAt]
	if !ok {
		return 0
	}
	row, err := rs.currentRow()
	if err != nil {
		return 0
	}
	return asInt64(row[idx])
}

// Item builds a typed item record from the current position.
func (rs *ResultSet) Item() (item.Item, error) {
	id, err := rs.ID()
	if err != nil {
		return item.Item{}, err
	}
	url, err := rs.URL()
	if err != nil {
		return item.Item{}, err
	}
	return item.Item{
		ID:      id,
		URL:     url,
		Title:   rs.Title(),
		SavedAt: rs.SavedAt(),
	}, nil
}

// Items collects every row into a typed slice, preserving store order.
// The position is left at the last row.
func (rs *ResultSet) Items() ([]item.Item, error) {
	items := make([]item.Item, 0, rs.Count())
	for i := 0; i < rs.Count(); i++ {
		if !rs.MoveToPosition(i) {
			break
		}
		it, err := rs.Item()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// Close releases the snapshot. Further access returns zero counts and
// extraction errors. Closing twice is a no-op.
func (rs *ResultSet) Close() error {
	if rs == nil || rs.closed {
		return nil
	}
	rs.closed = true
	rs.rows = nil
	rs.pos = -1
	return nil
}

func (rs *ResultSet) requiredString(col string) (string, error) {
	idx, ok := rs.cols[col]
	if !ok {
		return "", fmt.Errorf("result set missing required column %q", col)
	}
	row, err := rs.currentRow()
	if err != nil {
		return "", err
	}
	return asString(row[idx]), nil
}

func (rs *ResultSet) currentRow() ([]any, error) {
	if rs == nil || rs.closed {
		return nil, fmt.Errorf("result set is closed")
	}
	if rs.pos < 0 || rs.pos >= len(rs.rows) {
		return nil, fmt.Errorf("result set position %d out of range", rs.pos)
	}
	return rs.rows[rs.pos], nil
}

// asString converts a driver value to a string ("" for NULL).
func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

// asInt64 converts a driver value to an int64 (0 for NULL).
func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case nil:
		return 0
	default:
		return 0
	}
}
