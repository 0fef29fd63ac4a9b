package db

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/robalobadob/typing-game/assets"
)

func TestMigrateIdempotent(t *testing.T) {
	sqlDB, err := Open(MemoryDSN)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sqlDB.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := Migrate(ctx, sqlDB, assets.Migrations()); err != nil {
			t.Fatalf("Migrate pass %d: %v", i+1, err)
		}
	}

	var n int
	if err := sqlDB.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("recorded migrations = %d, want 2", n)
	}
	for _, table := range []string{"players", "matches"} {
		var name string
		err := sqlDB.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrateFailureRollsBack(t *testing.T) {
	sqlDB, err := Open(MemoryDSN)
	if err != nil {
		t.Fatal(err)
	}
	defer sqlDB.Close()

	fsys := fstest.MapFS{
		"001_ok.sql":  {Data: []byte(`CREATE TABLE a (id INTEGER);`)},
		"002_bad.sql": {Data: []byte(`CREATE TABLE b (id INTEGER); NOT SQL;`)},
	}
	if err := Migrate(context.Background(), sqlDB, fsys); err == nil {
		t.Fatal("expected error from bad migration")
	}
	var n int
	_ = sqlDB.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n)
	if n != 1 {
		t.Errorf("recorded migrations = %d, want 1", n)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.db")
	sqlDB, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sqlDB.Close()
	if err := sqlDB.Ping(); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
