package dialect

import (
	"context"
	"database/sql"

	"db-move/internal/typemap"
)

// Queryer is the subset of *sql.DB, *sql.Conn and *sql.Tx the dialects use.
// Session-scoped statements must go through a pinned *sql.Conn.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect abstracts database-specific operations.
type Dialect interface {
	Name() string
	DriverName() string
	DefaultSchema(database, user string) string

	// Metadata Queries (Schema Introspection)
	//
	// TablesQuery yields table names ordered by name.
	// ColumnsQuery yields, in ordinal order: name, data type, nullable ('YES'/'NO'),
	// character length, numeric precision, numeric scale, default, identity ('YES'/'NO').
	// PrimaryKeyQuery yields key column names in key order.
	// UniqueKeysQuery yields (index name, column name) rows of every unique,
	// non-partial index, grouped by index and in key order.
	// ForeignKeysQuery yields (table, referenced table) pairs.
	TablesQuery(schema string) (string, []any)
	ColumnsQuery(schema, table string) (string, []any)
	PrimaryKeyQuery(schema, table string) (string, []any)
	UniqueKeysQuery(schema, table string) (string, []any)
	ForeignKeysQuery(schema string) (string, []any)
	RowIdentity() string

	// Query Generation
	QuoteIdent(name string) string
	QualifiedName(schema, table string) string
	Placeholder(index int) string // Returns ?, $1, @p1, :1
	CountQuery(schema, table string) string
	PageQuery(schema, table string, cols, orderBy []string, limit int, offset int64) string
	// InsertQuery skips rows that collide with an existing row, or with an
	// earlier row of the same statement, on any of keys.
	InsertQuery(schema, table string, cols []string, keys [][]string, rows int) string
	// TruncateQuery empties all tables together. Nothing outside tables is touched.
	TruncateQuery(schema string, tables []string) []string
	CreateTableQuery(schema, table string, cols []ColumnDef, pk []string) string
	Limits() Limits

	// Execution Hooks (Global Level)
	SuspendConstraints(ctx context.Context, q Queryer, schema string) error
	RestoreConstraints(ctx context.Context, q Queryer, schema string) error

	// Execution Hooks (Table Level) - For IDENTITY_INSERT etc.
	BeforeTable(ctx context.Context, q Queryer, schema, table string, hasIdentity bool) error
	AfterTable(ctx context.Context, q Queryer, schema, table string, hasIdentity bool) error

	// ResetSequence moves the generator behind column to the column's current maximum.
	ResetSequence(ctx context.Context, q Queryer, schema, table, column, defaultExpr string) error

	// Helpers
	NormalizeType(sqlType string) typemap.Tag
}

// UUIDDecoder is implemented by dialects whose drivers hand out 16-byte
// identifiers in a non-RFC byte order.
type UUIDDecoder interface {
	DecodeUUID(b []byte) (string, error)
}

// Limits caps a single INSERT statement. Zero means no cap.
type Limits struct {
	MaxParams int
	MaxRows   int
}

// ColumnDef describes one column of a CREATE TABLE statement.
type ColumnDef struct {
	Name     string
	Type     string
	Nullable bool
}
