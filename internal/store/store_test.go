package store

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestConn(t *testing.T) *Conn {
	t.Helper()
	c, err := OpenMemory()
	if err != nil {
		t.Fatalf("open memory conn: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func userVersion(t *testing.T, c *Conn) int64 {
	t.Helper()
	v, err := RunSync(c, func(h *Handle) (int64, error) {
		rows, err := queryRows(h, "PRAGMA user_version")
		if err != nil {
			return 0, err
		}
		return rows[0].Int("user_version")
	})
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func countSessions(t *testing.T, c *Conn) int64 {
	t.Helper()
	n, err := RunSync(c, func(h *Handle) (int64, error) {
		rows, err := queryRows(h, "SELECT COUNT(*) AS n FROM focus_sessions")
		if err != nil {
			return 0, err
		}
		return rows[0].Int("n")
	})
	if err != nil {
		t.Fatal(err)
	}
	return n
}

// ============================================================
// Connection
// ============================================================

func TestOpenMemory(t *testing.T) {
	c := newTestConn(t)
	if v := userVersion(t, c); v != currentVersion {
		t.Fatalf("expected user_version %d, got %d", currentVersion, v)
	}
}

func TestOpenWithPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "tempo.db")
	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Path() != path {
		t.Fatalf("expected path %q, got %q", path, c.Path())
	}
	c.Close()

	// Reopen should succeed and not re-migrate.
	c2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c2.Close()
	if v := userVersion(t, c2); v != currentVersion {
		t.Fatalf("expected user_version %d after reopen, got %d", currentVersion, v)
	}
}

func TestOpenFailsOnDirectory(t *testing.T) {
	_, err := Open(t.TempDir())
	if err == nil {
		t.Fatal("expected error opening a directory as a database")
	}
	if !IsConnectionError(err) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "tempo.db" {
		t.Fatalf("unexpected default path %q", path)
	}
}

func TestPragmasConfigured(t *testing.T) {
	c := newTestConn(t)
	fk, err := RunSync(c, func(h *Handle) (int64, error) {
		rows, err := queryRows(h, "PRAGMA foreign_keys")
		if err != nil {
			return 0, err
		}
		return rows[0].Int("foreign_keys")
	})
	if err != nil {
		t.Fatal(err)
	}
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	c := newTestConn(t)
	if err := Do(c, migrate); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestRunSyncPropagatesError(t *testing.T) {
	c := newTestConn(t)
	want := errors.New("boom")
	_, err := RunSync(c, func(h *Handle) (int, error) { return 0, want })
	if !errors.Is(err, want) {
		t.Fatalf("expected closure error, got %v", err)
	}
}

func TestRunSyncRecoversPanic(t *testing.T) {
	c := newTestConn(t)
	err := Do(c, func(h *Handle) error { panic("bad row") })
	if err == nil {
		t.Fatal("expected error from panicking closure")
	}
	// Worker must still be alive.
	if v := userVersion(t, c); v != currentVersion {
		t.Fatalf("worker unusable after panic: version %d", v)
	}
}

func TestConcurrentInserts(t *testing.T) {
	c := newTestConn(t)
	repo := NewSessionRepository(c)
	base := time.Now().Add(-time.Hour)

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- repo.Create(&Session{
				StartedAt:       base.Add(time.Duration(i) * time.Second),
				DurationSeconds: 1500,
				Mode:            ModeFocus,
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent insert: %v", err)
		}
	}

	all, err := repo.GetSessions(PeriodAll)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 100 {
		t.Fatalf("expected 100 sessions, got %d", len(all))
	}
}

func TestCloseIdempotent(t *testing.T) {
	c, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestOperationAfterClose(t *testing.T) {
	c, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	c.Close()

	_, err = NewSessionRepository(c).GetSessions(PeriodAll)
	if !IsConnectionError(err) {
		t.Fatalf("expected connection error after close, got %v", err)
	}
	var se *Error
	if !errors.As(err, &se) || se.Message != "not connected" {
		t.Fatalf("expected 'not connected', got %v", err)
	}
}

// ============================================================
// Transactions
// ============================================================

func TestTxNoOps(t *testing.T) {
	c := newTestConn(t)
	// Commit and rollback outside a transaction do nothing.
	if err := c.Commit(); err != nil {
		t.Fatalf("commit outside tx: %v", err)
	}
	if err := c.Rollback(); err != nil {
		t.Fatalf("rollback outside tx: %v", err)
	}

	if err := c.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := c.Begin(); err != nil {
		t.Fatalf("nested begin: %v", err)
	}
	inTx, err := RunSync(c, func(h *Handle) (bool, error) { return h.InTx(), nil })
	if err != nil || !inTx {
		t.Fatalf("expected open tx, got %v %v", inTx, err)
	}
	if err := c.Rollback(); err != nil {
		t.Fatal(err)
	}
	inTx, _ = RunSync(c, func(h *Handle) (bool, error) { return h.InTx(), nil })
	if inTx {
		t.Fatal("expected tx closed after rollback")
	}
}

func TestBeginRollbackDiscardsWrites(t *testing.T) {
	c := newTestConn(t)
	repo := NewSessionRepository(c)

	if err := c.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(&Session{StartedAt: time.Now(), Mode: ModeFocus}); err != nil {
		t.Fatal(err)
	}
	if err := c.Rollback(); err != nil {
		t.Fatal(err)
	}
	if n := countSessions(t, c); n != 0 {
		t.Fatalf("expected rollback to discard insert, got %d rows", n)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	c := newTestConn(t)
	want := errors.New("abort")
	err := WithTx(c, func(h *Handle) error {
		if _, err := execUpdate(h,
			`INSERT INTO focus_sessions (id, started_at, duration, completed, mode) VALUES (?, ?, ?, ?, ?)`,
			"s1", time.Now(), 60, false, "focus"); err != nil {
			return err
		}
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected abort error, got %v", err)
	}
	if n := countSessions(t, c); n != 0 {
		t.Fatalf("expected 0 rows after rollback, got %d", n)
	}
}

func TestPrepareErrorCarriesSQL(t *testing.T) {
	c := newTestConn(t)
	const bad = "SELEC nope"
	err := Do(c, func(h *Handle) error {
		stmt, err := h.Prepare(bad)
		h.Finalize(stmt)
		return err
	})
	if !IsQueryError(err) {
		t.Fatalf("expected query error, got %v", err)
	}
	var se *Error
	if !errors.As(err, &se) || se.SQL != bad {
		t.Fatalf("expected SQL %q on error, got %+v", bad, se)
	}
}

// ============================================================
// Binding and decoding
// ============================================================

func TestInvalidParameter(t *testing.T) {
	c := newTestConn(t)
	repo := NewRepository(c, mapSession)
	_, err := repo.ExecuteQuery(`SELECT * FROM focus_sessions WHERE id = ?`, struct{}{})
	if !IsInvalidParameter(err) {
		t.Fatalf("expected invalid parameter, got %v", err)
	}
}

func TestBindKinds(t *testing.T) {
	c := newTestConn(t)
	repo := NewRepository(c, func(r Row) (Row, error) { return r, nil })
	ts := time.Unix(1700000000, 0)
	rows, err := repo.ExecuteQuery(
		`SELECT ? AS t, ? AS i, ? AS f, ? AS b, ? AS ts, ? AS n, ? AS blob`,
		"hello", 42, 1.5, true, ts, nil, []byte{1, 2},
	)
	if err != nil {
		t.Fatal(err)
	}
	r := rows[0]
	if s, _ := r.Text("t"); s != "hello" {
		t.Fatalf("text: got %q", s)
	}
	if i, _ := r.Int("i"); i != 42 {
		t.Fatalf("int: got %d", i)
	}
	if f, _ := r.Float("f"); f != 1.5 {
		t.Fatalf("float: got %v", f)
	}
	if b, _ := r.Bool("b"); !b {
		t.Fatal("bool: expected true")
	}
	if got, _ := r.Time("ts"); !got.Equal(ts) {
		t.Fatalf("time: got %v", got)
	}
	if n, _ := r.OptText("n"); n != nil {
		t.Fatalf("null: got %v", *n)
	}
	if b, _ := r.Bytes("blob"); len(b) != 2 {
		t.Fatalf("blob: got %v", b)
	}
}

func TestRowAccessorsNameField(t *testing.T) {
	row := Row{"mode": IntValue(3)}
	_, err := row.Text("mode")
	var se *Error
	if !errors.As(err, &se) || se.Code != CodeInvalidData || se.Field != "mode" {
		t.Fatalf("expected invalid data naming mode, got %v", err)
	}
	if !strings.Contains(err.Error(), "[field: mode]") {
		t.Fatalf("expected field in message, got %q", err.Error())
	}

	_, err = row.Int("missing")
	if !IsInvalidData(err) {
		t.Fatalf("expected invalid data for missing column, got %v", err)
	}

	if _, err := (Row{"b": IntValue(2)}).Bool("b"); !IsInvalidData(err) {
		t.Fatalf("expected invalid data for bool 2, got %v", err)
	}
}

func TestDecodeUnsupported(t *testing.T) {
	if _, err := decodeValue("x", struct{}{}); !IsInvalidData(err) {
		t.Fatalf("expected invalid data, got %v", err)
	}
}

func TestMapperInvalidData(t *testing.T) {
	c := newTestConn(t)
	err := Do(c, func(h *Handle) error {
		_, err := execUpdate(h,
			`INSERT INTO focus_sessions (id, started_at, duration, completed, mode) VALUES (?, ?, ?, ?, ?)`,
			"bad", time.Now(), 60, false, "nap")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewSessionRepository(c).Read("bad")
	if !IsInvalidData(err) {
		t.Fatalf("expected invalid data for unknown mode, got %v", err)
	}
}
