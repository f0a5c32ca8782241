package dialect

import (
	"context"
	"fmt"
	"strings"

	"db-move/internal/typemap"
)

type OracleDialect struct{}

func (d *OracleDialect) Name() string       { return "oracle" }
func (d *OracleDialect) DriverName() string { return "oracle" }

// DefaultSchema is the connecting user's own schema.
func (d *OracleDialect) DefaultSchema(database, user string) string {
	return strings.ToUpper(user)
}

func (d *OracleDialect) TablesQuery(schema string) (string, []any) {
	return `SELECT TABLE_NAME FROM ALL_TABLES WHERE OWNER = :1 ORDER BY TABLE_NAME`, []any{schema}
}

func (d *OracleDialect) ColumnsQuery(schema, table string) (string, []any) {
	// DATA_DEFAULT is a LONG; identity is read from IDENTITY_COLUMN instead.
	return `
SELECT
    t.COLUMN_NAME,
    t.DATA_TYPE,
    CASE WHEN t.NULLABLE = 'Y' THEN 'YES' ELSE 'NO' END,
    CASE WHEN t.CHAR_LENGTH > 0 THEN t.CHAR_LENGTH END,
    t.DATA_PRECISION,
    t.DATA_SCALE,
    CAST(NULL AS VARCHAR2(1)),
    CASE WHEN t.IDENTITY_COLUMN = 'YES' THEN 'YES' ELSE 'NO' END
FROM ALL_TAB_COLUMNS t
WHERE t.OWNER = :1 AND t.TABLE_NAME = :2
ORDER BY t.COLUMN_ID`, []any{schema, table}
}

func (d *OracleDialect) PrimaryKeyQuery(schema, table string) (string, []any) {
	return `
SELECT cc.COLUMN_NAME
FROM ALL_CONSTRAINTS c
JOIN ALL_CONS_COLUMNS cc
    ON c.OWNER = cc.OWNER
    AND c.CONSTRAINT_NAME = cc.CONSTRAINT_NAME
WHERE c.CONSTRAINT_TYPE = 'P' AND c.OWNER = :1 AND c.TABLE_NAME = :2
ORDER BY cc.POSITION`, []any{schema, table}
}

func (d *OracleDialect) UniqueKeysQuery(schema, table string) (string, []any) {
	return `
SELECT ic.INDEX_NAME, ic.COLUMN_NAME
FROM ALL_INDEXES i
JOIN ALL_IND_COLUMNS ic
    ON ic.INDEX_OWNER = i.OWNER
    AND ic.INDEX_NAME = i.INDEX_NAME
WHERE i.TABLE_OWNER = :1 AND i.TABLE_NAME = :2
    AND i.UNIQUENESS = 'UNIQUE' AND i.INDEX_TYPE = 'NORMAL'
ORDER BY ic.INDEX_NAME, ic.COLUMN_POSITION`, []any{schema, table}
}

func (d *OracleDialect) ForeignKeysQuery(schema string) (string, []any) {
	return `
SELECT DISTINCT c.TABLE_NAME, r.TABLE_NAME AS REF_TABLE
FROM ALL_CONSTRAINTS c
JOIN ALL_CONSTRAINTS r
    ON c.R_OWNER = r.OWNER
    AND c.R_CONSTRAINT_NAME = r.CONSTRAINT_NAME
WHERE c.CONSTRAINT_TYPE = 'R' AND c.OWNER = :1`, []any{schema}
}

func (d *OracleDialect) RowIdentity() string { return "ROWID" }

func (d *OracleDialect) QuoteIdent(name string) string { return quoteWith(name, `"`, `"`) }

func (d *OracleDialect) QualifiedName(schema, table string) string {
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

func (d *OracleDialect) Placeholder(index int) string {
	// Oracle uses :1, :2, etc. (1-based index)
	return fmt.Sprintf(":%d", index+1)
}

func (d *OracleDialect) CountQuery(schema, table string) string {
	return countQuery(d.QualifiedName(schema, table))
}

func (d *OracleDialect) PageQuery(schema, table string, cols, orderBy []string, limit int, offset int64) string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY",
		quoteAll(cols, d.QuoteIdent), d.QualifiedName(schema, table), quoteOrder(orderBy, d), offset, limit)
}

// InsertQuery merges on every unique key so existing rows are left alone.
// The source set keeps only the first row of each key value, since MERGE
// would insert both copies. Without unique keys it falls back to INSERT ALL.
func (d *OracleDialect) InsertQuery(schema, table string, cols []string, keys [][]string, rows int) string {
	qualified := d.QualifiedName(schema, table)
	colList := quoteAll(cols, d.QuoteIdent)
	n := len(cols)

	if len(keys) == 0 {
		var b strings.Builder
		b.WriteString("INSERT ALL")
		for r := 0; r < rows; r++ {
			fmt.Fprintf(&b, " INTO %s (%s) VALUES (%s)", qualified, colList, GeneratePlaceholders(n, r*n, d.Placeholder))
		}
		b.WriteString(" SELECT 1 FROM DUAL")
		return b.String()
	}

	ord := d.QuoteIdent(strings.ToUpper(rowOrdinal))
	selects := make([]string, rows)
	for r := 0; r < rows; r++ {
		fields := make([]string, n)
		for i, c := range cols {
			fields[i] = d.Placeholder(r*n+i) + " " + d.QuoteIdent(c)
		}
		selects[r] = fmt.Sprintf("SELECT %d %s, %s FROM DUAL", r, ord, strings.Join(fields, ", "))
	}

	ranks := make([]string, len(keys))
	firsts := make([]string, len(keys))
	match := make([]string, len(keys))
	for i, k := range keys {
		rank := d.QuoteIdent(fmt.Sprintf("%s%d", strings.ToUpper(rowRank), i))
		ranks[i] = fmt.Sprintf("ROW_NUMBER() OVER (PARTITION BY %s ORDER BY u.%s) %s", prefixAll("u.", k, d.QuoteIdent), ord, rank)
		firsts[i] = rank + " = 1"
		match[i] = "(" + matchKey(k, "t.", "s.", d.QuoteIdent) + ")"
	}
	source := fmt.Sprintf("SELECT * FROM (SELECT u.*, %s FROM (%s) u) WHERE %s",
		strings.Join(ranks, ", "), strings.Join(selects, " UNION ALL "), strings.Join(firsts, " AND "))

	return fmt.Sprintf("MERGE INTO %s t USING (%s) s ON (%s) WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)",
		qualified, source, strings.Join(match, " OR "), colList, prefixAll("s.", cols, d.QuoteIdent))
}

// TruncateQuery needs the referencing constraints disabled first; Oracle
// TRUNCATE never cascades without the CASCADE keyword.
func (d *OracleDialect) TruncateQuery(schema string, tables []string) []string {
	return eachTable(tables, func(t string) string {
		return "TRUNCATE TABLE " + d.QualifiedName(schema, t)
	})
}

func (d *OracleDialect) CreateTableQuery(schema, table string, cols []ColumnDef, pk []string) string {
	return buildCreateTable(d.QualifiedName(schema, table), cols, pk, d.QuoteIdent)
}

func (d *OracleDialect) Limits() Limits { return Limits{MaxParams: 65535, MaxRows: 1000} }

type oracleConstraint struct {
	Table string
	Name  string
}

// SuspendConstraints disables the owner's enabled referential constraints.
// Note: In Oracle, DDL (ALTER) implicitly commits.
func (d *OracleDialect) SuspendConstraints(ctx context.Context, q Queryer, schema string) error {
	return d.toggleConstraints(ctx, q, schema, "ENABLED", "DISABLE")
}

func (d *OracleDialect) RestoreConstraints(ctx context.Context, q Queryer, schema string) error {
	return d.toggleConstraints(ctx, q, schema, "DISABLED", "ENABLE")
}

func (d *OracleDialect) toggleConstraints(ctx context.Context, q Queryer, schema, status, action string) error {
	rows, err := q.QueryContext(ctx,
		`SELECT TABLE_NAME, CONSTRAINT_NAME FROM ALL_CONSTRAINTS WHERE OWNER = :1 AND CONSTRAINT_TYPE = 'R' AND STATUS = :2`,
		schema, status)
	if err != nil {
		return err
	}
	defer rows.Close()

	var constraints []oracleConstraint
	for rows.Next() {
		var c oracleConstraint
		if err := rows.Scan(&c.Table, &c.Name); err != nil {
			return err
		}
		constraints = append(constraints, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for _, c := range constraints {
		query := fmt.Sprintf("ALTER TABLE %s %s CONSTRAINT %s", d.QualifiedName(schema, c.Table), action, d.QuoteIdent(c.Name))
		if _, err := q.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to %s constraint %s on %s: %w", strings.ToLower(action), c.Name, c.Table, err)
		}
	}
	return nil
}

func (d *OracleDialect) BeforeTable(ctx context.Context, q Queryer, schema, table string, hasIdentity bool) error {
	return nil
}

func (d *OracleDialect) AfterTable(ctx context.Context, q Queryer, schema, table string, hasIdentity bool) error {
	return nil
}

// ResetSequence restarts an identity column just past its current maximum.
func (d *OracleDialect) ResetSequence(ctx context.Context, q Queryer, schema, table, column, defaultExpr string) error {
	query := fmt.Sprintf("ALTER TABLE %s MODIFY (%s GENERATED BY DEFAULT AS IDENTITY (START WITH LIMIT VALUE))",
		d.QualifiedName(schema, table), d.QuoteIdent(column))
	_, err := q.ExecContext(ctx, query)
	return err
}

func (d *OracleDialect) NormalizeType(sqlType string) typemap.Tag {
	t := baseTypeName(sqlType)
	switch {
	case t == "number", t == "integer", t == "int", t == "decimal", t == "numeric":
		return typemap.Decimal
	case t == "smallint":
		return typemap.SmallInt
	case t == "binary_float":
		return typemap.Float
	case t == "float", t == "binary_double":
		return typemap.Double
	case t == "char", t == "nchar":
		return typemap.Char
	case t == "varchar2", t == "nvarchar2", t == "varchar":
		return typemap.Varchar
	case t == "clob", t == "nclob", t == "long", t == "xmltype":
		return typemap.Text
	case t == "date":
		return typemap.DateTime
	case strings.HasPrefix(t, "timestamp") && strings.Contains(t, "time zone"):
		return typemap.DateTimeTZ
	case strings.HasPrefix(t, "timestamp"):
		return typemap.DateTime
	case t == "raw", t == "blob", t == "long raw", t == "bfile":
		return typemap.Binary
	default:
		return typemap.Unknown
	}
}
