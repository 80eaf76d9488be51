package db

import (
	"database/sql"
	"testing"

	"github.com/hnreader/hnfav/internal/errors"
	"github.com/hnreader/hnfav/internal/item"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func mustInsert(t *testing.T, database *sql.DB, items ...item.Item) {
	t.Helper()
	for _, it := range items {
		if err := Insert(database, it); err != nil {
			t.Fatalf("Insert(%s) failed: %v", it.ID, err)
		}
	}
}

func TestInsert_EmptyID(t *testing.T) {
	database := newTestDB(t)

	err := Insert(database, item.Item{URL: "http://a"})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Insert with empty id: err = %v, want INVALID_REQUEST", err)
	}
}

func TestInsert_Upsert(t *testing.T) {
	database := newTestDB(t)

	mustInsert(t, database, item.Item{ID: "1", URL: "http://a", Title: "A", SavedAt: 100})
	mustInsert(t, database, item.Item{ID: "1", URL: "http://a2", Title: "A2", SavedAt: 200})

	rs, err := QueryAll(database)
	if err != nil {
		t.Fatalf("QueryAll failed: %v", err)
	}
	defer rs.Close()

	if rs.Count() != 1 {
		t.Fatalf("Count = %d, want 1 after upsert", rs.Count())
	}
	rs.MoveToFirst()
	it, err := rs.Item()
	if err != nil {
		t.Fatalf("Item failed: %v", err)
	}
	if it.URL != "http://a2" || it.Title != "A2" || it.SavedAt != 200 {
		t.Errorf("upsert did not replace fields: %+v", it)
	}
}

func TestQueryAll_Ordering(t *testing.T) {
	database := newTestDB(t)

	mustInsert(t, database,
		item.Item{ID: "old", URL: "http://o", Title: "Old", SavedAt: 100},
		item.Item{ID: "new", URL: "http://n", Title: "New", SavedAt: 300},
		item.Item{ID: "mid", URL: "http://m", Title: "Mid", SavedAt: 200},
	)

	rs, err := QueryAll(database)
	if err != nil {
		t.Fatalf("QueryAll failed: %v", err)
	}
	defer rs.Close()

	items, err := rs.Items()
	if err != nil {
		t.Fatalf("Items failed: %v", err)
	}
	wantOrder := []string{"new", "mid", "old"}
	for i, want := range wantOrder {
		if items[i].ID != want {
			t.Errorf("items[%d].ID = %q, want %q (newest first)", i, items[i].ID, want)
		}
	}
}

func TestQueryByTitle(t *testing.T) {
	database := newTestDB(t)

	mustInsert(t, database,
		item.Item{ID: "1", URL: "http://a", Title: "Go generics", SavedAt: 1},
		item.Item{ID: "2", URL: "http://b", Title: "Rust traits", SavedAt: 2},
		item.Item{ID: "3", URL: "http://c", Title: "Going faster", SavedAt: 3},
	)

	rs, err := QueryByTitle(database, "Go")
	if err != nil {
		t.Fatalf("QueryByTitle failed: %v", err)
	}
	defer rs.Close()

	if rs.Count() != 2 {
		t.Errorf("Count = %d, want 2 for substring match", rs.Count())
	}

	// Empty filter matches all
	all, err := QueryByTitle(database, "")
	if err != nil {
		t.Fatalf("QueryByTitle(\"\") failed: %v", err)
	}
	defer all.Close()
	if all.Count() != 3 {
		t.Errorf("Count = %d, want 3 for empty filter", all.Count())
	}
}

func TestDeleteByID(t *testing.T) {
	database := newTestDB(t)

	mustInsert(t, database, item.Item{ID: "1", URL: "http://a", SavedAt: 1})

	count, err := DeleteByID(database, "1")
	if err != nil {
		t.Fatalf("DeleteByID failed: %v", err)
	}
	if count != 1 {
		t.Errorf("deleted = %d, want 1", count)
	}

	count, err = DeleteByID(database, "1")
	if err != nil {
		t.Fatalf("DeleteByID failed: %v", err)
	}
	if count != 0 {
		t.Errorf("deleted = %d, want 0 for missing id", count)
	}
}

func TestDeleteByIDs(t *testing.T) {
	database := newTestDB(t)

	mustInsert(t, database,
		item.Item{ID: "1", URL: "http://a", SavedAt: 1},
		item.Item{ID: "2", URL: "http://b", SavedAt: 2},
		item.Item{ID: "3", URL: "http://c", SavedAt: 3},
	)

	count, err := DeleteByIDs(database, []string{"1", "3", "missing"})
	if err != nil {
		t.Fatalf("DeleteByIDs failed: %v", err)
	}
	if count != 2 {
		t.Errorf("deleted = %d, want 2", count)
	}

	count, err = DeleteByIDs(database, nil)
	if err != nil {
		t.Fatalf("DeleteByIDs(nil) failed: %v", err)
	}
	if count != 0 {
		t.Errorf("deleted = %d, want 0 for empty id list", count)
	}
}

func TestDeleteByTitle(t *testing.T) {
	database := newTestDB(t)

	mustInsert(t, database,
		item.Item{ID: "1", URL: "http://a", Title: "Go generics", SavedAt: 1},
		item.Item{ID: "2", URL: "http://b", Title: "Rust traits", SavedAt: 2},
	)

	count, err := DeleteByTitle(database, "Go")
	if err != nil {
		t.Fatalf("DeleteByTitle failed: %v", err)
	}
	if count != 1 {
		t.Errorf("deleted = %d, want 1", count)
	}
}

func TestDeleteAll(t *testing.T) {
	database := newTestDB(t)

	mustInsert(t, database,
		item.Item{ID: "1", URL: "http://a", SavedAt: 1},
		item.Item{ID: "2", URL: "http://b", SavedAt: 2},
	)

	count, err := DeleteAll(database)
	if err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if count != 2 {
		t.Errorf("deleted = %d, want 2", count)
	}

	ids, err := AllIDs(database)
	if err != nil {
		t.Fatalf("AllIDs failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("AllIDs = %v, want empty", ids)
	}
}

func TestExists(t *testing.T) {
	database := newTestDB(t)

	mustInsert(t, database, item.Item{ID: "present", URL: "http://a", SavedAt: 1})

	saved, err := Exists(database, "present")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !saved {
		t.Error("Exists = false for a persisted id")
	}

	saved, err = Exists(database, "absent")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if saved {
		t.Error("Exists = true for an unknown id")
	}
}

func TestAllIDs(t *testing.T) {
	database := newTestDB(t)

	mustInsert(t, database,
		item.Item{ID: "1", URL: "http://a", SavedAt: 1},
		item.Item{ID: "2", URL: "http://b", SavedAt: 2},
	)

	ids, err := AllIDs(database)
	if err != nil {
		t.Fatalf("AllIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("len(ids) = %d, want 2", len(ids))
	}
}
