package dialect

import (
	"context"
	"fmt"
	"strings"

	"db-move/internal/typemap"
)

// SQLiteDialect targets modernc.org/sqlite. The schema is an attached
// database name, "main" by default.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }

func (d *SQLiteDialect) DefaultSchema(database, user string) string {
	return "main"
}

func (d *SQLiteDialect) TablesQuery(schema string) (string, []any) {
	return fmt.Sprintf(`SELECT name FROM %s.sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%%' ORDER BY name`,
		d.QuoteIdent(schema)), nil
}

// ColumnsQuery reports a column as an identity only for INTEGER PRIMARY KEY
// columns of AUTOINCREMENT tables, the ones tracked in sqlite_sequence.
func (d *SQLiteDialect) ColumnsQuery(schema, table string) (string, []any) {
	return fmt.Sprintf(`SELECT
    p.name,
    p.type,
    CASE WHEN p."notnull" = 0 THEN 'YES' ELSE 'NO' END,
    NULL,
    NULL,
    NULL,
    p.dflt_value,
    CASE WHEN p.pk = 1 AND upper(p.type) = 'INTEGER'
        AND (SELECT m.sql FROM %s.sqlite_master m WHERE m.type = 'table' AND m.name = ?) LIKE '%%AUTOINCREMENT%%'
        THEN 'YES' ELSE 'NO' END
FROM pragma_table_info(?, ?) p
ORDER BY p.cid`, d.QuoteIdent(schema)), []any{table, table, schema}
}

func (d *SQLiteDialect) PrimaryKeyQuery(schema, table string) (string, []any) {
	return `SELECT name FROM pragma_table_info(?, ?) WHERE pk > 0 ORDER BY pk`, []any{table, schema}
}

// UniqueKeysQuery misses an INTEGER PRIMARY KEY, which is the rowid and has
// no index of its own; the catalog adds the primary key itself.
func (d *SQLiteDialect) UniqueKeysQuery(schema, table string) (string, []any) {
	return `SELECT il.name, ii.name
FROM pragma_index_list(?, ?) il
JOIN pragma_index_info(il.name, ?) ii
WHERE il."unique" = 1 AND il.partial = 0 AND ii.name IS NOT NULL
ORDER BY il.origin <> 'pk', il.name, ii.seqno`, []any{table, schema, schema}
}

func (d *SQLiteDialect) ForeignKeysQuery(schema string) (string, []any) {
	return fmt.Sprintf(`SELECT DISTINCT m.name, f."table"
FROM %s.sqlite_master m
JOIN pragma_foreign_key_list(m.name, ?) f
WHERE m.type = 'table'`, d.QuoteIdent(schema)), []any{schema}
}

func (d *SQLiteDialect) RowIdentity() string { return "rowid" }

func (d *SQLiteDialect) QuoteIdent(name string) string { return quoteWith(name, `"`, `"`) }

func (d *SQLiteDialect) QualifiedName(schema, table string) string {
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

func (d *SQLiteDialect) Placeholder(index int) string {
	return "?"
}

func (d *SQLiteDialect) CountQuery(schema, table string) string {
	return countQuery(d.QualifiedName(schema, table))
}

func (d *SQLiteDialect) PageQuery(schema, table string, cols, orderBy []string, limit int, offset int64) string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT %d OFFSET %d",
		quoteAll(cols, d.QuoteIdent), d.QualifiedName(schema, table), quoteOrder(orderBy, d), limit, offset)
}

func (d *SQLiteDialect) InsertQuery(schema, table string, cols []string, keys [][]string, rows int) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON CONFLICT DO NOTHING",
		d.QualifiedName(schema, table), quoteAll(cols, d.QuoteIdent), valueRows(rows, len(cols), d.Placeholder))
}

// TruncateQuery deletes; with foreign_keys off no ON DELETE action fires.
func (d *SQLiteDialect) TruncateQuery(schema string, tables []string) []string {
	return eachTable(tables, func(t string) string {
		return "DELETE FROM " + d.QualifiedName(schema, t)
	})
}

func (d *SQLiteDialect) CreateTableQuery(schema, table string, cols []ColumnDef, pk []string) string {
	return buildCreateTable(d.QualifiedName(schema, table), cols, pk, d.QuoteIdent)
}

func (d *SQLiteDialect) Limits() Limits { return Limits{MaxParams: 32766} }

// foreign_keys is per connection and a no-op inside a transaction.
func (d *SQLiteDialect) SuspendConstraints(ctx context.Context, q Queryer, schema string) error {
	_, err := q.ExecContext(ctx, "PRAGMA foreign_keys = OFF")
	return err
}

func (d *SQLiteDialect) RestoreConstraints(ctx context.Context, q Queryer, schema string) error {
	_, err := q.ExecContext(ctx, "PRAGMA foreign_keys = ON")
	return err
}

func (d *SQLiteDialect) BeforeTable(ctx context.Context, q Queryer, schema, table string, hasIdentity bool) error {
	return nil
}

func (d *SQLiteDialect) AfterTable(ctx context.Context, q Queryer, schema, table string, hasIdentity bool) error {
	return nil
}

func (d *SQLiteDialect) ResetSequence(ctx context.Context, q Queryer, schema, table, column, defaultExpr string) error {
	seqTable := d.QuoteIdent(schema) + ".sqlite_sequence"
	maxExpr := fmt.Sprintf("(SELECT COALESCE(MAX(%s), 1) FROM %s)", d.QuoteIdent(column), d.QualifiedName(schema, table))

	res, err := q.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET seq = %s WHERE name = ?", seqTable, maxExpr), table)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}
	_, err = q.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s (name, seq) VALUES (?, %s)", seqTable, maxExpr), table)
	return err
}

// NormalizeType follows SQLite's type affinity rules on the declared type.
func (d *SQLiteDialect) NormalizeType(sqlType string) typemap.Tag {
	t := baseTypeName(sqlType)
	_, args, _ := strings.Cut(strings.ToLower(sqlType), "(")
	switch {
	case t == "":
		return typemap.Unknown
	case strings.Contains(t, "bool"):
		return typemap.Bool
	case strings.Contains(t, "bigint"):
		return typemap.BigInt
	case strings.Contains(t, "smallint"), strings.Contains(t, "tinyint"):
		return typemap.SmallInt
	case strings.Contains(t, "int"):
		return typemap.BigInt
	case t == "uuid", t == "guid":
		return typemap.UUID
	case strings.Contains(t, "json"):
		return typemap.JSON
	case strings.Contains(t, "char") && args != "":
		if strings.Contains(t, "var") {
			return typemap.Varchar
		}
		return typemap.Char
	case strings.Contains(t, "char"), strings.Contains(t, "clob"), strings.Contains(t, "text"):
		return typemap.Text
	case strings.Contains(t, "blob"):
		return typemap.Binary
	case strings.Contains(t, "real"), strings.Contains(t, "floa"), strings.Contains(t, "doub"):
		return typemap.Double
	case strings.Contains(t, "datetime"), strings.Contains(t, "timestamp"):
		return typemap.DateTime
	case t == "date":
		return typemap.Date
	case t == "time":
		return typemap.Time
	case strings.Contains(t, "dec"), strings.Contains(t, "num"):
		return typemap.Decimal
	default:
		return typemap.Unknown
	}
}
