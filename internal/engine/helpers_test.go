package engine

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"db-move/internal/dbconn"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// sqliteDB creates a database file under t's temp dir and runs ddl on it.
func sqliteDB(t *testing.T, name string, ddl ...string) (dbconn.Config, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name+".db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range ddl {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return dbconn.Config{Driver: "sqlite", Database: path}, db
}

// seedPeople inserts n rows with ids from first into a (id, name, email) table.
func seedPeople(t *testing.T, db *sql.DB, table string, first, n int) {
	t.Helper()
	faker := gofakeit.New(int64(first + n))

	tx, err := db.Begin()
	require.NoError(t, err)
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %q (id, name, email) VALUES (?, ?, ?)`, table))
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		_, err := stmt.Exec(first+i, faker.Name(), faker.Email())
		require.NoError(t, err)
	}
	require.NoError(t, stmt.Close())
	require.NoError(t, tx.Commit())
}

func countRows(t *testing.T, db *sql.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %q`, table)).Scan(&n))
	return n
}

func sqliteJob(src, dst dbconn.Config, batchSize int) Job {
	return Job{
		Source:    src,
		Target:    dst,
		BatchSize: batchSize,
		Verify:    true,
	}
}

const peopleDDL = `CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT)`

// recordingSink keeps every event it receives.
type recordingSink struct {
	events []Event
}

func (s *recordingSink) Progress(e Event) { s.events = append(s.events, e) }

func (s *recordingSink) states() []State {
	var out []State
	for _, e := range s.events {
		if e.Kind == EventState {
			out = append(out, e.State)
		}
	}
	return out
}

func (s *recordingSink) kinds(table string) []EventKind {
	var out []EventKind
	for _, e := range s.events {
		if e.Table == table && e.Kind != EventState {
			out = append(out, e.Kind)
		}
	}
	return out
}

var background = context.Background()

// recordingQueryer keeps every statement it is asked to execute.
type recordingQueryer struct {
	execs []string
}

func (q *recordingQueryer) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	q.execs = append(q.execs, query)
	return driver.RowsAffected(0), nil
}

func (q *recordingQueryer) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, errors.New("recordingQueryer: queries are not supported")
}

func (q *recordingQueryer) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	panic("recordingQueryer: queries are not supported")
}
