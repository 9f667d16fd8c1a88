package dbopen

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestOpen_AppliesSchemaAndPragmas(t *testing.T) {
	// WHAT: Open creates parent dirs, applies pragmas, and runs queued schema.
	// WHY: the route store relies on WithMkdirAll + WithSchema at startup.
	path := filepath.Join(t.TempDir(), "sub", "test.db")
	db, err := Open(path, WithMkdirAll(), WithSchema(`CREATE TABLE t (x INTEGER)`))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`INSERT INTO t (x) VALUES (1)`); err != nil {
		t.Fatalf("insert into schema table: %v", err)
	}

	var fk int
	if err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("pragma query: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestOpenMemory(t *testing.T) {
	db := OpenMemory(t, WithSchema(`CREATE TABLE m (v TEXT)`))
	if _, err := db.Exec(`INSERT INTO m (v) VALUES ('a')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM m`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("count = %d, err = %v", n, err)
	}
}

func TestRunTx_RollbackOnError(t *testing.T) {
	// WHAT: an error from fn rolls the transaction back.
	// WHY: a failed slot update must not leave a partial write behind.
	db := OpenMemory(t, WithSchema(`CREATE TABLE r (v TEXT)`))
	sentinel := errors.New("boom")
	err := RunTx(context.Background(), db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO r (v) VALUES ('x')`); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM r`).Scan(&n); err != nil || n != 0 {
		t.Fatalf("count = %d after rollback, err = %v", n, err)
	}
}

func TestIsBusy(t *testing.T) {
	if IsBusy(nil) {
		t.Error("nil is not busy")
	}
	if !IsBusy(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Error("SQLITE_BUSY should be busy")
	}
	if IsBusy(errors.New("syntax error")) {
		t.Error("syntax error is not busy")
	}
}
