package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func connectTestDB(t *testing.T, path string) *SQLiteDB {
	t.Helper()

	database := NewSQLiteDB(&SQLiteConfig{Path: path})
	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return database
}

func TestRunMigrations(t *testing.T) {
	database := connectTestDB(t, filepath.Join(t.TempDir(), "test.db"))
	defer database.Close()

	conn := database.DB()

	for _, table := range []string{"schema_migrations", "samples"} {
		var count int
		err := conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to check %s table: %v", table, err)
		}
		if count != 1 {
			t.Errorf("%s table not created", table)
		}
	}

	var count int
	err := conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_samples_created_at'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to check index: %v", err)
	}
	if count != 1 {
		t.Errorf("idx_samples_created_at index not created")
	}

	version, dirty, err := database.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}
	if dirty {
		t.Error("schema should not be dirty")
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	first := connectTestDB(t, path)
	first.Close()

	second := connectTestDB(t, path)
	defer second.Close()

	var count int
	if err := second.DB().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("Failed to query schema_migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("schema_migrations rows = %d, want 1", count)
	}
}

func TestSamplesTableSchema(t *testing.T) {
	database := connectTestDB(t, filepath.Join(t.TempDir(), "test.db"))
	defer database.Close()

	conn := database.DB()

	result, err := conn.Exec(
		"INSERT INTO samples (base_name, image_path, label_path) VALUES (?, ?, ?)",
		"abc", "uploads/images/abc.png", "uploads/labels/abc.txt",
	)
	if err != nil {
		t.Fatalf("Failed to insert sample: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("LastInsertId() error = %v", err)
	}

	var imagePath string
	var createdAt sql.NullTime
	err = conn.QueryRow("SELECT image_path, created_at FROM samples WHERE id = ?", id).Scan(&imagePath, &createdAt)
	if err != nil {
		t.Fatalf("Failed to query sample: %v", err)
	}
	if imagePath != "uploads/images/abc.png" {
		t.Errorf("image_path = %q", imagePath)
	}
	if !createdAt.Valid || time.Since(createdAt.Time) > time.Hour {
		t.Errorf("created_at = %v, want default near now", createdAt)
	}

	// base names pair files, so they must stay unique
	_, err = conn.Exec(
		"INSERT INTO samples (base_name, image_path, label_path) VALUES (?, ?, ?)",
		"abc", "uploads/images/other.png", "uploads/labels/other.txt",
	)
	if err == nil {
		t.Error("expected unique constraint violation on base_name")
	}
}

func TestSamplesIDsAreNotReused(t *testing.T) {
	database := connectTestDB(t, filepath.Join(t.TempDir(), "test.db"))
	defer database.Close()

	conn := database.DB()
	insert := func(name string) int64 {
		res, err := conn.Exec("INSERT INTO samples (base_name, image_path, label_path) VALUES (?, 'i', 'l')", name)
		if err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
		id, _ := res.LastInsertId()
		return id
	}

	first := insert("a")
	if _, err := conn.Exec("DELETE FROM samples WHERE id = ?", first); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if second := insert("b"); second <= first {
		t.Errorf("id after delete = %d, want > %d", second, first)
	}
}
