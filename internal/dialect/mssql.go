package dialect

import (
	"context"
	"fmt"
	"strings"

	"db-move/internal/typemap"

	mssql "github.com/microsoft/go-mssqldb"
)

type MSSQLDialect struct{}

// Helper: MSSQL Driver (go-mssqldb) prefers @p1, @p2 named parameters over ?

func (d *MSSQLDialect) Name() string       { return "sqlserver" }
func (d *MSSQLDialect) DriverName() string { return "sqlserver" }

func (d *MSSQLDialect) DefaultSchema(database, user string) string {
	return "dbo"
}

func (d *MSSQLDialect) TablesQuery(schema string) (string, []any) {
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`, []any{schema}
}

func (d *MSSQLDialect) ColumnsQuery(schema, table string) (string, []any) {
	return `
		SELECT
			c.COLUMN_NAME,
			c.DATA_TYPE,
			c.IS_NULLABLE,
			c.CHARACTER_MAXIMUM_LENGTH,
			c.NUMERIC_PRECISION,
			c.NUMERIC_SCALE,
			c.COLUMN_DEFAULT,
			CASE WHEN COLUMNPROPERTY(OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + '.' + QUOTENAME(c.TABLE_NAME)), c.COLUMN_NAME, 'IsIdentity') = 1
				THEN 'YES' ELSE 'NO' END
		FROM INFORMATION_SCHEMA.COLUMNS c
		WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2
		ORDER BY c.ORDINAL_POSITION
	`, []any{schema, table}
}

func (d *MSSQLDialect) PrimaryKeyQuery(schema, table string) (string, []any) {
	return `SELECT kcu.COLUMN_NAME FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_SCHEMA = @p1 AND tc.TABLE_NAME = @p2 ORDER BY kcu.ORDINAL_POSITION`, []any{schema, table}
}

func (d *MSSQLDialect) UniqueKeysQuery(schema, table string) (string, []any) {
	return `SELECT i.name, c.name FROM sys.indexes i JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id WHERE i.object_id = OBJECT_ID(QUOTENAME(@p1) + '.' + QUOTENAME(@p2)) AND i.is_unique = 1 AND i.has_filter = 0 AND ic.is_included_column = 0 ORDER BY i.is_primary_key DESC, i.name, ic.key_ordinal`, []any{schema, table}
}

func (d *MSSQLDialect) ForeignKeysQuery(schema string) (string, []any) {
	return `SELECT DISTINCT KCU1.TABLE_NAME, KCU2.TABLE_NAME AS REF_TABLE FROM INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS RC JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE KCU1 ON RC.CONSTRAINT_NAME = KCU1.CONSTRAINT_NAME JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE KCU2 ON RC.UNIQUE_CONSTRAINT_NAME = KCU2.CONSTRAINT_NAME WHERE KCU1.TABLE_SCHEMA = @p1`, []any{schema}
}

// RowIdentity is the physical row locator. It is stable while nothing
// writes to the table.
func (d *MSSQLDialect) RowIdentity() string { return "%%physloc%%" }

func (d *MSSQLDialect) QuoteIdent(name string) string { return quoteWith(name, "[", "]") }

func (d *MSSQLDialect) QualifiedName(schema, table string) string {
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

func (d *MSSQLDialect) Placeholder(index int) string {
	return fmt.Sprintf("@p%d", index+1)
}

func (d *MSSQLDialect) CountQuery(schema, table string) string {
	return countQuery(d.QualifiedName(schema, table))
}

func (d *MSSQLDialect) PageQuery(schema, table string, cols, orderBy []string, limit int, offset int64) string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY",
		quoteAll(cols, d.QuoteIdent), d.QualifiedName(schema, table), quoteOrder(orderBy, d), offset, limit)
}

// InsertQuery keeps the first row of each key value within the statement
// and drops rows whose key already exists in the table. Without unique keys
// no row can conflict and it is a plain insert.
func (d *MSSQLDialect) InsertQuery(schema, table string, cols []string, keys [][]string, rows int) string {
	qualified := d.QualifiedName(schema, table)
	colList := quoteAll(cols, d.QuoteIdent)
	if len(keys) == 0 {
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", qualified, colList, valueRows(rows, len(cols), d.Placeholder))
	}

	n := len(cols)
	ord := d.QuoteIdent(rowOrdinal)
	tuples := make([]string, rows)
	for r := 0; r < rows; r++ {
		tuples[r] = fmt.Sprintf("(%d, %s)", r, GeneratePlaceholders(n, r*n, d.Placeholder))
	}

	ranks := make([]string, len(keys))
	var where []string
	for i, k := range keys {
		rank := d.QuoteIdent(fmt.Sprintf("%s%d", rowRank, i))
		ranks[i] = fmt.Sprintf("ROW_NUMBER() OVER (PARTITION BY %s ORDER BY s.%s) AS %s", prefixAll("s.", k, d.QuoteIdent), ord, rank)
		where = append(where, "v."+rank+" = 1")
	}
	for _, k := range keys {
		where = append(where, fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s t WHERE %s)", qualified, matchKey(k, "t.", "v.", d.QuoteIdent)))
	}

	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM (SELECT s.*, %s FROM (VALUES %s) AS s (%s, %s)) AS v WHERE %s",
		qualified, colList, prefixAll("v.", cols, d.QuoteIdent), strings.Join(ranks, ", "),
		strings.Join(tuples, ", "), ord, colList, strings.Join(where, " AND "))
}

// TruncateQuery uses DELETE: TRUNCATE is refused on FK-referenced tables even
// when their constraints are disabled. DELETE does not cascade under NOCHECK.
func (d *MSSQLDialect) TruncateQuery(schema string, tables []string) []string {
	return eachTable(tables, func(t string) string {
		return "DELETE FROM " + d.QualifiedName(schema, t)
	})
}

func (d *MSSQLDialect) CreateTableQuery(schema, table string, cols []ColumnDef, pk []string) string {
	return buildCreateTable(d.QualifiedName(schema, table), cols, pk, d.QuoteIdent)
}

func (d *MSSQLDialect) Limits() Limits { return Limits{MaxParams: 2000, MaxRows: 1000} }

func (d *MSSQLDialect) SuspendConstraints(ctx context.Context, q Queryer, schema string) error {
	return d.toggleConstraints(ctx, q, schema, "NOCHECK")
}

// RestoreConstraints re-enables without revalidating rows already loaded.
func (d *MSSQLDialect) RestoreConstraints(ctx context.Context, q Queryer, schema string) error {
	return d.toggleConstraints(ctx, q, schema, "CHECK")
}

func (d *MSSQLDialect) toggleConstraints(ctx context.Context, q Queryer, schema, action string) error {
	query, args := d.TablesQuery(schema)
	tables, err := queryStrings(ctx, q, query, args...)
	if err != nil {
		return fmt.Errorf("failed to list tables of %s: %w", schema, err)
	}
	for _, t := range tables {
		stmt := fmt.Sprintf("ALTER TABLE %s %s CONSTRAINT all", d.QualifiedName(schema, t), action)
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to %s constraints on %s: %w", strings.ToLower(action), t, err)
		}
	}
	return nil
}

func (d *MSSQLDialect) BeforeTable(ctx context.Context, q Queryer, schema, table string, hasIdentity bool) error {
	if !hasIdentity {
		return nil
	}
	_, err := q.ExecContext(ctx, fmt.Sprintf("SET IDENTITY_INSERT %s ON", d.QualifiedName(schema, table)))
	return err
}

func (d *MSSQLDialect) AfterTable(ctx context.Context, q Queryer, schema, table string, hasIdentity bool) error {
	if !hasIdentity {
		return nil
	}
	_, err := q.ExecContext(ctx, fmt.Sprintf("SET IDENTITY_INSERT %s OFF", d.QualifiedName(schema, table)))
	return err
}

func (d *MSSQLDialect) ResetSequence(ctx context.Context, q Queryer, schema, table, column, defaultExpr string) error {
	qualified := d.QualifiedName(schema, table)
	seed, err := scanInt64(ctx, q, fmt.Sprintf("SELECT CAST(COALESCE(MAX(%s), 1) AS BIGINT) FROM %s", d.QuoteIdent(column), qualified))
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, fmt.Sprintf("DBCC CHECKIDENT (%s, RESEED, %d)", quoteLiteral(qualified), seed))
	return err
}

// DecodeUUID renders a uniqueidentifier, which the driver returns in SQL
// Server's mixed-endian byte order.
func (d *MSSQLDialect) DecodeUUID(b []byte) (string, error) {
	var u mssql.UniqueIdentifier
	if err := u.Scan(b); err != nil {
		return "", err
	}
	return strings.ToLower(u.String()), nil
}

func (d *MSSQLDialect) NormalizeType(sqlType string) typemap.Tag {
	switch baseTypeName(sqlType) {
	case "bit":
		return typemap.Bool
	case "tinyint", "smallint":
		return typemap.SmallInt
	case "int":
		return typemap.Int
	case "bigint":
		return typemap.BigInt
	case "decimal", "numeric":
		return typemap.Decimal
	case "money":
		return typemap.Money
	case "smallmoney":
		return typemap.SmallMoney
	case "real":
		return typemap.Float
	case "float":
		return typemap.Double
	case "char", "nchar":
		return typemap.Char
	case "varchar", "nvarchar":
		return typemap.Varchar
	case "text", "ntext", "xml":
		return typemap.Text
	case "uniqueidentifier":
		return typemap.UUID
	case "date":
		return typemap.Date
	case "time":
		return typemap.Time
	case "datetime", "datetime2", "smalldatetime":
		return typemap.DateTime
	case "datetimeoffset":
		return typemap.DateTimeTZ
	case "image", "binary", "varbinary", "timestamp", "rowversion":
		return typemap.Binary
	default:
		return typemap.Unknown
	}
}
