package registry

import (
	"fmt"
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "haras-registry-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertAndListCollections(t *testing.T) {
	db := testDB(t)
	c := Collection{
		TokenID:   "0.0.5001",
		Name:      "Haras Central",
		Symbol:    "HRS",
		Memo:      "main stable",
		CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.UpsertCollection(c); err != nil {
		t.Fatalf("UpsertCollection: %v", err)
	}
	// Upsert with a new name must replace, not duplicate.
	c.Name = "Haras Central (renamed)"
	if err := db.UpsertCollection(c); err != nil {
		t.Fatalf("UpsertCollection again: %v", err)
	}

	got, err := db.ListCollections()
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Name != "Haras Central (renamed)" || got[0].Symbol != "HRS" {
		t.Errorf("got %+v", got[0])
	}
}

func TestUpsertAndListAssets(t *testing.T) {
	db := testDB(t)
	for serial := int64(1); serial <= 3; serial++ {
		err := db.UpsertAsset(Asset{
			Identity:  fmt.Sprintf("0.0.5001:%d", serial),
			TokenID:   "0.0.5001",
			Serial:    serial,
			Name:      "Horse",
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("UpsertAsset: %v", err)
		}
	}
	got, err := db.ListAssets("0.0.5001")
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, a := range got {
		if a.Serial != int64(i+1) {
			t.Errorf("order broken: got serial %d at index %d", a.Serial, i)
		}
	}

	other, err := db.ListAssets("0.0.9999")
	if err != nil {
		t.Fatalf("ListAssets other: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("unexpected rows for unknown collection: %d", len(other))
	}
}
