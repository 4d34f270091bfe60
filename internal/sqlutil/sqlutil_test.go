package sqlutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func TestInClauseArgs(t *testing.T) {
	ph, args := InClauseArgs([]string{"a", "b", "c"})
	if ph != "?, ?, ?" {
		t.Errorf("placeholders = %q, want %q", ph, "?, ?, ?")
	}
	if len(args) != 3 || args[0] != "a" || args[2] != "c" {
		t.Errorf("args = %v", args)
	}

	ph, args = InClauseArgs(nil)
	if ph != "NULL" || args != nil {
		t.Errorf("empty items: got %q %v, want NULL and no args", ph, args)
	}
}

func TestScanRows(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE words (n INTEGER, w TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i, w := range []string{"folio", "recto", "verso"} {
		if _, err := db.Exec(`INSERT INTO words VALUES (?, ?)`, i, w); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rows, err := db.Query(`SELECT w FROM words ORDER BY n`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	got, err := ScanRows(rows, func(rows *sql.Rows) (string, error) {
		var w string
		err := rows.Scan(&w)
		return w, err
	})
	if err != nil {
		t.Fatalf("ScanRows: %v", err)
	}
	want := []string{"folio", "recto", "verso"}
	if len(got) != len(want) {
		t.Fatalf("ScanRows = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ScanRows[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestScanRowsPropagatesScanError(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE t (v TEXT); INSERT INTO t VALUES ('x')`); err != nil {
		t.Fatalf("setup: %v", err)
	}
	rows, err := db.Query(`SELECT v FROM t`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	_, err = ScanRows(rows, func(rows *sql.Rows) (int, error) {
		var n int
		var extra int
		return n, rows.Scan(&n, &extra)
	})
	if err == nil {
		t.Fatal("expected a scan error for mismatched columns")
	}
}
