package db

import (
	"database/sql"
	"strings"

	"github.com/hnreader/hnfav/internal/errors"
	"github.com/hnreader/hnfav/internal/item"
)

// selectColumns is the projection shared by all favorite queries.
const selectColumns = "id, url, title, saved_at"

// Insert stores a saved item, replacing any existing record with the same id.
func Insert(db *sql.DB, it item.Item) error {
	if strings.TrimSpace(it.ID) == "" {
		return errors.NewInvalidRequest("item id must not be empty")
	}

	query := `
		INSERT INTO favorites (id, url, title, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			title = excluded.title,
			saved_at = excluded.saved_at
	`

	var title sql.NullString
	if it.Title != "" {
		title = sql.NullString{String: it.Title, Valid: true}
	}

	if _, err := db.Exec(query, it.ID, it.URL, title, it.SavedAt); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteByID removes the record with the given id.
// Returns the number of records deleted (0 or 1).
func DeleteByID(db *sql.DB, id string) (int, error) {
	result, err := db.Exec("DELETE FROM favorites WHERE id = ?", id)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return rowsAffected(result)
}

// DeleteByIDs removes all records matching the given ids in one statement.
// Returns the number of records deleted.
func DeleteByIDs(db *sql.DB, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	result, err := db.Exec("DELETE FROM favorites WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return rowsAffected(result)
}

// DeleteByTitle removes all records whose title contains substr.
// Returns the number of records deleted.
func DeleteByTitle(db *sql.DB, substr string) (int, error) {
	result, err := db.Exec("DELETE FROM favorites WHERE title LIKE '%' || ? || '%'", substr)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return rowsAffected(result)
}

// DeleteAll removes every record. Returns the number of records deleted.
func DeleteAll(db *sql.DB) (int, error) {
	result, err := db.Exec("DELETE FROM favorites")
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return rowsAffected(result)
}

// QueryAll returns a snapshot of all saved items, newest first.
func QueryAll(db *sql.DB) (*ResultSet, error) {
	rows, err := db.Query(
		"SELECT " + selectColumns + " FROM favorites ORDER BY saved_at DESC, id ASC")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return newResultSet(rows)
}

// QueryByTitle returns a snapshot of saved items whose title contains
// substr, newest first. An empty substr matches all items.
func QueryByTitle(db *sql.DB, substr string) (*ResultSet, error) {
	if substr == "" {
		return QueryAll(db)
	}
	rows, err := db.Query(
		"SELECT "+selectColumns+" FROM favorites WHERE title LIKE '%' || ? || '%' ORDER BY saved_at DESC, id ASC",
		substr)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return newResultSet(rows)
}

// Exists checks whether a record with the given id is persisted.
func Exists(db *sql.DB, id string) (bool, error) {
	var one int
	err := db.QueryRow("SELECT 1 FROM favorites WHERE id = ? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// AllIDs returns the ids of every saved item, for the fast membership cache.
func AllIDs(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT id FROM favorites")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewInternal(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return ids, nil
}

func rowsAffected(result sql.Result) (int, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}
