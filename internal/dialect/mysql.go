package dialect

import (
	"context"
	"fmt"

	"db-move/internal/typemap"
)

type MysqlDialect struct{}

func (d *MysqlDialect) Name() string       { return "mysql" }
func (d *MysqlDialect) DriverName() string { return "mysql" }

// DefaultSchema is the database itself: MySQL has no schema level below it.
func (d *MysqlDialect) DefaultSchema(database, user string) string {
	return database
}

func (d *MysqlDialect) TablesQuery(schema string) (string, []any) {
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`, []any{schema}
}

func (d *MysqlDialect) ColumnsQuery(schema, table string) (string, []any) {
	return `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION, NUMERIC_SCALE, COLUMN_DEFAULT, IF(EXTRA LIKE '%auto_increment%', 'YES', 'NO') FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION`, []any{schema, table}
}

func (d *MysqlDialect) PrimaryKeyQuery(schema, table string) (string, []any) {
	return `SELECT COLUMN_NAME FROM information_schema.KEY_COLUMN_USAGE WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND CONSTRAINT_NAME = 'PRIMARY' ORDER BY ORDINAL_POSITION`, []any{schema, table}
}

func (d *MysqlDialect) UniqueKeysQuery(schema, table string) (string, []any) {
	return `SELECT INDEX_NAME, COLUMN_NAME FROM information_schema.STATISTICS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND NON_UNIQUE = 0 AND COLUMN_NAME IS NOT NULL ORDER BY INDEX_NAME <> 'PRIMARY', INDEX_NAME, SEQ_IN_INDEX`, []any{schema, table}
}

func (d *MysqlDialect) ForeignKeysQuery(schema string) (string, []any) {
	return `SELECT DISTINCT TABLE_NAME, REFERENCED_TABLE_NAME FROM information_schema.KEY_COLUMN_USAGE WHERE TABLE_SCHEMA = ? AND REFERENCED_TABLE_NAME IS NOT NULL`, []any{schema}
}

func (d *MysqlDialect) RowIdentity() string { return "" }

func (d *MysqlDialect) QuoteIdent(name string) string { return quoteWith(name, "`", "`") }

func (d *MysqlDialect) QualifiedName(schema, table string) string {
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

func (d *MysqlDialect) Placeholder(index int) string {
	return "?"
}

func (d *MysqlDialect) CountQuery(schema, table string) string {
	return countQuery(d.QualifiedName(schema, table))
}

func (d *MysqlDialect) PageQuery(schema, table string, cols, orderBy []string, limit int, offset int64) string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT %d OFFSET %d",
		quoteAll(cols, d.QuoteIdent), d.QualifiedName(schema, table), quoteOrder(orderBy, d), limit, offset)
}

// InsertQuery turns a duplicate on any unique index into a no-op update,
// which reports zero affected rows. INSERT IGNORE would also swallow non-key
// errors.
func (d *MysqlDialect) InsertQuery(schema, table string, cols []string, keys [][]string, rows int) string {
	first := d.QuoteIdent(cols[0])
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON DUPLICATE KEY UPDATE %s = %s",
		d.QualifiedName(schema, table), quoteAll(cols, d.QuoteIdent), valueRows(rows, len(cols), d.Placeholder), first, first)
}

// TruncateQuery never cascades; FOREIGN_KEY_CHECKS must already be off.
func (d *MysqlDialect) TruncateQuery(schema string, tables []string) []string {
	return eachTable(tables, func(t string) string {
		return "TRUNCATE TABLE " + d.QualifiedName(schema, t)
	})
}

func (d *MysqlDialect) CreateTableQuery(schema, table string, cols []ColumnDef, pk []string) string {
	return buildCreateTable(d.QualifiedName(schema, table), cols, pk, d.QuoteIdent)
}

func (d *MysqlDialect) Limits() Limits { return Limits{MaxParams: 65535} }

// FOREIGN_KEY_CHECKS is per session; q must be the pinned connection.
func (d *MysqlDialect) SuspendConstraints(ctx context.Context, q Queryer, schema string) error {
	_, err := q.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0")
	return err
}

func (d *MysqlDialect) RestoreConstraints(ctx context.Context, q Queryer, schema string) error {
	_, err := q.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1")
	return err
}

func (d *MysqlDialect) BeforeTable(ctx context.Context, q Queryer, schema, table string, hasIdentity bool) error {
	return nil
}

func (d *MysqlDialect) AfterTable(ctx context.Context, q Queryer, schema, table string, hasIdentity bool) error {
	return nil
}

func (d *MysqlDialect) ResetSequence(ctx context.Context, q Queryer, schema, table, column, defaultExpr string) error {
	qualified := d.QualifiedName(schema, table)
	next, err := scanInt64(ctx, q, fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) + 1 FROM %s", d.QuoteIdent(column), qualified))
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s AUTO_INCREMENT = %d", qualified, next))
	return err
}

func (d *MysqlDialect) NormalizeType(sqlType string) typemap.Tag {
	switch baseTypeName(sqlType) {
	case "bit", "bool", "boolean":
		return typemap.Bool
	case "tinyint", "smallint":
		return typemap.SmallInt
	case "mediumint", "int", "integer", "year":
		return typemap.Int
	case "bigint":
		return typemap.BigInt
	case "decimal", "numeric":
		return typemap.Decimal
	case "float":
		return typemap.Float
	case "double", "real":
		return typemap.Double
	case "char":
		return typemap.Char
	case "varchar", "enum", "set":
		return typemap.Varchar
	case "tinytext", "text", "mediumtext", "longtext":
		return typemap.Text
	case "date":
		return typemap.Date
	case "time":
		return typemap.Time
	case "datetime", "timestamp":
		return typemap.DateTime
	case "binary", "varbinary", "tinyblob", "blob", "mediumblob", "longblob":
		return typemap.Binary
	case "json":
		return typemap.JSON
	default:
		return typemap.Unknown
	}
}
