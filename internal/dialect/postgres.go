package dialect

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"db-move/internal/typemap"
)

// PostgresDialect serves both lib/pq ("postgres") and pgx's stdlib ("pgx").
type PostgresDialect struct {
	driver string
}

var nextvalRe = regexp.MustCompile(`(?i)nextval\('([^']+)'`)

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) DriverName() string {
	if d.driver == "" {
		return "postgres"
	}
	return d.driver
}

func (d *PostgresDialect) DefaultSchema(database, user string) string {
	return "public"
}

func (d *PostgresDialect) TablesQuery(schema string) (string, []any) {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_type = 'BASE TABLE' ORDER BY table_name`, []any{schema}
}

func (d *PostgresDialect) ColumnsQuery(schema, table string) (string, []any) {
	return `SELECT
    c.column_name,
    c.data_type,
    c.is_nullable,
    c.character_maximum_length,
    c.numeric_precision,
    c.numeric_scale,
    c.column_default,
    CASE WHEN c.is_identity = 'YES' OR c.column_default LIKE 'nextval(%' THEN 'YES' ELSE 'NO' END
FROM information_schema.columns c
WHERE c.table_schema = $1 AND c.table_name = $2
ORDER BY c.ordinal_position`, []any{schema, table}
}

func (d *PostgresDialect) PrimaryKeyQuery(schema, table string) (string, []any) {
	return `SELECT kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
    ON tc.constraint_name = kcu.constraint_name
    AND tc.table_schema = kcu.table_schema
    AND tc.table_name = kcu.table_name
WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = $1 AND tc.table_name = $2
ORDER BY kcu.ordinal_position`, []any{schema, table}
}

// UniqueKeysQuery skips expression and partial indexes.
func (d *PostgresDialect) UniqueKeysQuery(schema, table string) (string, []any) {
	return `SELECT i.relname, a.attname
FROM pg_index x
JOIN pg_class t ON t.oid = x.indrelid
JOIN pg_class i ON i.oid = x.indexrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
CROSS JOIN LATERAL unnest(x.indkey::int2[]) WITH ORDINALITY AS k(attnum, ord)
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
WHERE x.indisunique AND x.indpred IS NULL AND x.indexprs IS NULL
    AND n.nspname = $1 AND t.relname = $2
ORDER BY x.indisprimary DESC, i.relname, k.ord`, []any{schema, table}
}

func (d *PostgresDialect) ForeignKeysQuery(schema string) (string, []any) {
	return `SELECT DISTINCT tc.table_name, ccu.table_name
FROM information_schema.table_constraints tc
JOIN information_schema.constraint_column_usage ccu
    ON tc.constraint_name = ccu.constraint_name
    AND tc.constraint_schema = ccu.constraint_schema
WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = $1`, []any{schema}
}

func (d *PostgresDialect) RowIdentity() string { return "ctid" }

func (d *PostgresDialect) QuoteIdent(name string) string { return quoteWith(name, `"`, `"`) }

func (d *PostgresDialect) QualifiedName(schema, table string) string {
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index+1)
}

func (d *PostgresDialect) CountQuery(schema, table string) string {
	return countQuery(d.QualifiedName(schema, table))
}

func (d *PostgresDialect) PageQuery(schema, table string, cols, orderBy []string, limit int, offset int64) string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT %d OFFSET %d",
		quoteAll(cols, d.QuoteIdent), d.QualifiedName(schema, table), quoteOrder(orderBy, d), limit, offset)
}

// InsertQuery relies on ON CONFLICT DO NOTHING, which covers every unique
// index and rows repeated within the statement.
func (d *PostgresDialect) InsertQuery(schema, table string, cols []string, keys [][]string, rows int) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON CONFLICT DO NOTHING",
		d.QualifiedName(schema, table), quoteAll(cols, d.QuoteIdent), valueRows(rows, len(cols), d.Placeholder))
}

// TruncateQuery lists every table in one statement and never cascades.
// Postgres refuses it when a table outside the list references one inside.
func (d *PostgresDialect) TruncateQuery(schema string, tables []string) []string {
	if len(tables) == 0 {
		return nil
	}
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = d.QualifiedName(schema, t)
	}
	return []string{"TRUNCATE TABLE " + strings.Join(names, ", ")}
}

func (d *PostgresDialect) CreateTableQuery(schema, table string, cols []ColumnDef, pk []string) string {
	return buildCreateTable(d.QualifiedName(schema, table), cols, pk, d.QuoteIdent)
}

func (d *PostgresDialect) Limits() Limits { return Limits{MaxParams: 65535} }

// SuspendConstraints disables every trigger, FK triggers included, on every
// table of the schema.
func (d *PostgresDialect) SuspendConstraints(ctx context.Context, q Queryer, schema string) error {
	return d.toggleTriggers(ctx, q, schema, "DISABLE")
}

func (d *PostgresDialect) RestoreConstraints(ctx context.Context, q Queryer, schema string) error {
	return d.toggleTriggers(ctx, q, schema, "ENABLE")
}

func (d *PostgresDialect) toggleTriggers(ctx context.Context, q Queryer, schema, action string) error {
	tables, err := queryStrings(ctx, q, `SELECT tablename FROM pg_tables WHERE schemaname = $1 ORDER BY tablename`, schema)
	if err != nil {
		return fmt.Errorf("failed to list tables of %s: %w", schema, err)
	}
	for _, t := range tables {
		query := fmt.Sprintf("ALTER TABLE %s %s TRIGGER ALL", d.QualifiedName(schema, t), action)
		if _, err := q.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to %s triggers on %s: %w", strings.ToLower(action), t, err)
		}
	}
	return nil
}

func (d *PostgresDialect) BeforeTable(ctx context.Context, q Queryer, schema, table string, hasIdentity bool) error {
	return nil
}

func (d *PostgresDialect) AfterTable(ctx context.Context, q Queryer, schema, table string, hasIdentity bool) error {
	return nil
}

// ResetSequence sets the sequence named in a nextval() default, or the one
// owned by the column, to MAX(column) with a floor of 1.
func (d *PostgresDialect) ResetSequence(ctx context.Context, q Queryer, schema, table, column, defaultExpr string) error {
	maxExpr := fmt.Sprintf("COALESCE((SELECT MAX(%s) FROM %s), 1)", d.QuoteIdent(column), d.QualifiedName(schema, table))

	if seq := SequenceFromDefault(defaultExpr); seq != "" {
		_, err := q.ExecContext(ctx, fmt.Sprintf("SELECT setval($1::regclass, %s)", maxExpr), seq)
		return err
	}
	_, err := q.ExecContext(ctx,
		fmt.Sprintf("SELECT setval(pg_get_serial_sequence($1, $2), %s)", maxExpr),
		d.QualifiedName(schema, table), column)
	return err
}

// SequenceFromDefault extracts the sequence name from a nextval('...') default.
func SequenceFromDefault(defaultExpr string) string {
	m := nextvalRe.FindStringSubmatch(defaultExpr)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func (d *PostgresDialect) NormalizeType(sqlType string) typemap.Tag {
	switch baseTypeName(sqlType) {
	case "boolean", "bool":
		return typemap.Bool
	case "smallint", "int2":
		return typemap.SmallInt
	case "integer", "int", "int4", "serial":
		return typemap.Int
	case "bigint", "int8", "bigserial":
		return typemap.BigInt
	case "numeric", "decimal":
		return typemap.Decimal
	case "money":
		return typemap.Money
	case "real", "float4":
		return typemap.Float
	case "double precision", "float8":
		return typemap.Double
	case "character", "char", "bpchar":
		return typemap.Char
	case "character varying", "varchar":
		return typemap.Varchar
	case "text", "xml", "citext":
		return typemap.Text
	case "uuid":
		return typemap.UUID
	case "date":
		return typemap.Date
	case "time without time zone", "time with time zone", "time", "timetz":
		return typemap.Time
	case "timestamp without time zone", "timestamp":
		return typemap.DateTime
	case "timestamp with time zone", "timestamptz":
		return typemap.DateTimeTZ
	case "bytea":
		return typemap.Binary
	case "json", "jsonb":
		return typemap.JSON
	default:
		return typemap.Unknown
	}
}
