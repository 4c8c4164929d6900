package models

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The advisory lock is bound to the connection, not the transaction:
// once COMMIT runs, the *gorm.DB transaction handle is finished and can
// no longer issue RELEASE_LOCK, so the lock would leak on the pooled
// connection and block the next caller for the full GET_LOCK timeout.
// These tests pin the statement order seen by the connection itself.

// recordingDriver captures every statement that reaches the connection,
// including transaction control, in execution order.
type recordingDriver struct {
	mu    sync.Mutex
	stmts []string
}

func (d *recordingDriver) record(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stmts = append(d.stmts, s)
}

func (d *recordingDriver) index(substr string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, s := range d.stmts {
		if strings.Contains(s, substr) {
			return i
		}
	}
	return -1
}

func (d *recordingDriver) Open(name string) (driver.Conn, error) {
	return &recordingConn{d: d}, nil
}

type recordingConn struct{ d *recordingDriver }

func (c *recordingConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements not supported")
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *recordingConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	c.d.record("BEGIN")
	return &recordingTx{d: c.d}, nil
}

func (c *recordingConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.d.record(query)
	return driver.RowsAffected(1), nil
}

func (c *recordingConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.d.record(query)
	return &singleIntRows{}, nil
}

type recordingTx struct{ d *recordingDriver }

func (t *recordingTx) Commit() error {
	t.d.record("COMMIT")
	return nil
}

func (t *recordingTx) Rollback() error {
	t.d.record("ROLLBACK")
	return nil
}

// singleIntRows answers every query with one row holding 1, which is
// what GET_LOCK and RELEASE_LOCK return on success.
type singleIntRows struct{ done bool }

func (r *singleIntRows) Columns() []string { return []string{"result"} }

func (r *singleIntRows) Close() error { return nil }

func (r *singleIntRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	r.done = true
	dest[0] = int64(1)
	return nil
}

// driver names must be process-unique; sql.Register panics on reuse
var recorderSeq int64

func openRecordedDB(t *testing.T, rec *recordingDriver) *gorm.DB {
	t.Helper()
	driverName := fmt.Sprintf("reservation-lock-recorder-%d", atomic.AddInt64(&recorderSeq, 1))
	sql.Register(driverName, rec)
	sqlDB, err := sql.Open(driverName, "recorded")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return db
}

func TestReservationLockReleasedBeforeCommit(t *testing.T) {
	rec := &recordingDriver{}
	db := openRecordedDB(t, rec)

	err := withReservationLock(context.Background(), db, "biz-lock-1", func(tx *gorm.DB) error {
		return tx.Exec("UPDATE items SET quantity_on_hand = quantity_on_hand").Error
	})
	if err != nil {
		t.Fatalf("withReservationLock: %v", err)
	}

	acquire := rec.index("GET_LOCK")
	release := rec.index("RELEASE_LOCK")
	commit := rec.index("COMMIT")
	if acquire == -1 {
		t.Fatal("GET_LOCK never reached the connection")
	}
	if release == -1 {
		t.Fatal("RELEASE_LOCK never reached the connection; the lock would leak on the pooled connection")
	}
	if commit == -1 {
		t.Fatal("transaction never committed")
	}
	if release < acquire {
		t.Fatalf("RELEASE_LOCK at %d ran before GET_LOCK at %d", release, acquire)
	}
	if release > commit {
		t.Fatalf("RELEASE_LOCK at %d ran after COMMIT at %d; the release must execute on the live transaction", release, commit)
	}
}

func TestReservationLockReleasedBeforeRollback(t *testing.T) {
	rec := &recordingDriver{}
	db := openRecordedDB(t, rec)

	wantErr := errors.New("availability re-check failed")
	err := withReservationLock(context.Background(), db, "biz-lock-2", func(tx *gorm.DB) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("withReservationLock error = %v, want %v", err, wantErr)
	}

	release := rec.index("RELEASE_LOCK")
	rollback := rec.index("ROLLBACK")
	if release == -1 {
		t.Fatal("RELEASE_LOCK never reached the connection on the failure path")
	}
	if rollback == -1 {
		t.Fatal("failed transaction never rolled back")
	}
	if release > rollback {
		t.Fatalf("RELEASE_LOCK at %d ran after ROLLBACK at %d", release, rollback)
	}
	if idx := rec.index("COMMIT"); idx != -1 {
		t.Fatalf("failed transaction must not commit, saw COMMIT at %d", idx)
	}
}
