package engine

import (
	"context"
	"testing"

	"db-move/internal/dialect"
	"db-move/internal/migerr"
	"db-move/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciler_Idempotent(t *testing.T) {
	_, db := sqliteDB(t, "dst", `CREATE TABLE tickets (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT)`)
	_, err := db.Exec(`INSERT INTO tickets (id, title) VALUES (5, 'a'), (42, 'b')`)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM sqlite_sequence`)
	require.NoError(t, err)

	d := &dialect.SQLiteDialect{}
	table := schema.Table{Schema: "main", Name: "tickets"}
	cols, err := schema.NewCatalog(db, d, "main").DescribeColumns(context.Background(), table)
	require.NoError(t, err)
	require.True(t, cols[0].AutoIncrement)

	r := NewReconciler(db, d)
	seq := func() int64 {
		var n int64
		require.NoError(t, db.QueryRow(`SELECT seq FROM sqlite_sequence WHERE name = 'tickets'`).Scan(&n))
		return n
	}

	require.NoError(t, r.Reconcile(context.Background(), table, cols))
	assert.Equal(t, int64(42), seq())
	require.NoError(t, r.Reconcile(context.Background(), table, cols))
	assert.Equal(t, int64(42), seq())

	var count int64
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_sequence WHERE name = 'tickets'`).Scan(&count))
	assert.Equal(t, int64(1), count)

	res, err := db.Exec(`INSERT INTO tickets (title) VALUES ('c')`)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	assert.Equal(t, int64(43), id)
}

func TestReconciler_SkipsPlainColumns(t *testing.T) {
	r := NewReconciler(nil, &dialect.SQLiteDialect{})
	err := r.Reconcile(context.Background(), schema.Table{Name: "t"}, []schema.Column{{Name: "id"}, {Name: "v"}})
	assert.NoError(t, err)
}

func TestReconciler_Error(t *testing.T) {
	_, db := sqliteDB(t, "dst")
	r := NewReconciler(db, &dialect.SQLiteDialect{})
	err := r.Reconcile(context.Background(), schema.Table{Schema: "main", Name: "ghost"}, []schema.Column{{Name: "id", AutoIncrement: true}})
	require.Error(t, err)
	assert.Equal(t, migerr.Reconcile, migerr.KindOf(err))
	assert.Equal(t, "ghost", migerr.TableOf(err))
}
