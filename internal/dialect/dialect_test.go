package dialect_test

import (
	"strings"
	"testing"

	"db-move/internal/dialect"
	"db-move/internal/typemap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDialect(t *testing.T, driver string) dialect.Dialect {
	t.Helper()
	d, err := dialect.GetDialect(driver)
	require.NoError(t, err)
	return d
}

func TestGetDialect(t *testing.T) {
	tests := []struct {
		driver     string
		name       string
		driverName string
	}{
		{"postgres", "postgres", "postgres"},
		{"pgx", "postgres", "pgx"},
		{"mssql", "sqlserver", "sqlserver"},
		{"sqlserver", "sqlserver", "sqlserver"},
		{"mysql", "mysql", "mysql"},
		{"oracle", "oracle", "oracle"},
		{"sqlite3", "sqlite", "sqlite"},
	}
	for _, tt := range tests {
		d := mustDialect(t, tt.driver)
		assert.Equal(t, tt.name, d.Name(), tt.driver)
		assert.Equal(t, tt.driverName, d.DriverName(), tt.driver)
	}

	_, err := dialect.GetDialect("db2")
	assert.Error(t, err)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1", mustDialect(t, "postgres").Placeholder(0))
	assert.Equal(t, "?", mustDialect(t, "mysql").Placeholder(3))
	assert.Equal(t, "@p4", mustDialect(t, "mssql").Placeholder(3))
	assert.Equal(t, ":2", mustDialect(t, "oracle").Placeholder(1))
	assert.Equal(t, "?", mustDialect(t, "sqlite").Placeholder(9))
}

func TestQuoteIdentEscapes(t *testing.T) {
	assert.Equal(t, `"we""ird"`, mustDialect(t, "postgres").QuoteIdent(`we"ird`))
	assert.Equal(t, "`we``ird`", mustDialect(t, "mysql").QuoteIdent("we`ird"))
	assert.Equal(t, "[we]]ird]", mustDialect(t, "mssql").QuoteIdent("we]ird"))
}

func TestPostgresInsertQuery(t *testing.T) {
	d := mustDialect(t, "postgres")
	got := d.InsertQuery("public", "orders", []string{"id", "total"}, [][]string{{"id"}}, 2)
	assert.Equal(t, `INSERT INTO "public"."orders" ("id", "total") VALUES ($1, $2), ($3, $4) ON CONFLICT DO NOTHING`, got)
}

func TestMysqlInsertQuery(t *testing.T) {
	d := mustDialect(t, "mysql")
	got := d.InsertQuery("shop", "orders", []string{"id", "total"}, [][]string{{"id"}}, 2)
	assert.Equal(t, "INSERT INTO `shop`.`orders` (`id`, `total`) VALUES (?, ?), (?, ?) ON DUPLICATE KEY UPDATE `id` = `id`", got)
}

func TestMSSQLInsertQuery(t *testing.T) {
	d := mustDialect(t, "mssql")

	got := d.InsertQuery("dbo", "orders", []string{"id", "total"}, [][]string{{"id"}}, 2)
	assert.Equal(t, "INSERT INTO [dbo].[orders] ([id], [total]) SELECT v.[id], v.[total] FROM ("+
		"SELECT s.*, ROW_NUMBER() OVER (PARTITION BY s.[id] ORDER BY s.[dbmove$ord]) AS [dbmove$rn0] "+
		"FROM (VALUES (0, @p1, @p2), (1, @p3, @p4)) AS s ([dbmove$ord], [id], [total])) AS v "+
		"WHERE v.[dbmove$rn0] = 1 AND NOT EXISTS (SELECT 1 FROM [dbo].[orders] t WHERE t.[id] = v.[id])", got)

	plain := d.InsertQuery("dbo", "log", []string{"msg"}, nil, 1)
	assert.Equal(t, "INSERT INTO [dbo].[log] ([msg]) VALUES (@p1)", plain)
}

func TestMSSQLInsertQuery_UniqueIndexWithoutPrimaryKey(t *testing.T) {
	d := mustDialect(t, "mssql")
	got := d.InsertQuery("dbo", "users", []string{"id", "email"}, [][]string{{"email"}, {"id"}}, 2)

	// every key is deduplicated within the statement and checked against the table
	assert.Contains(t, got, "ROW_NUMBER() OVER (PARTITION BY s.[email] ORDER BY s.[dbmove$ord]) AS [dbmove$rn0]")
	assert.Contains(t, got, "ROW_NUMBER() OVER (PARTITION BY s.[id] ORDER BY s.[dbmove$ord]) AS [dbmove$rn1]")
	assert.Contains(t, got, "v.[dbmove$rn0] = 1 AND v.[dbmove$rn1] = 1")
	assert.Contains(t, got, "NOT EXISTS (SELECT 1 FROM [dbo].[users] t WHERE t.[email] = v.[email])")
	assert.Contains(t, got, "NOT EXISTS (SELECT 1 FROM [dbo].[users] t WHERE t.[id] = v.[id])")
	assert.True(t, strings.HasPrefix(got, "INSERT INTO [dbo].[users] ([id], [email]) SELECT v.[id], v.[email] FROM "), got)
}

func TestOracleInsertQuery(t *testing.T) {
	d := mustDialect(t, "oracle")

	got := d.InsertQuery("APP", "ORDERS", []string{"ID", "TOTAL"}, [][]string{{"ID"}}, 2)
	assert.Equal(t, `MERGE INTO "APP"."ORDERS" t USING (SELECT * FROM (`+
		`SELECT u.*, ROW_NUMBER() OVER (PARTITION BY u."ID" ORDER BY u."DBMOVE$ORD") "DBMOVE$RN0" FROM (`+
		`SELECT 0 "DBMOVE$ORD", :1 "ID", :2 "TOTAL" FROM DUAL UNION ALL SELECT 1 "DBMOVE$ORD", :3 "ID", :4 "TOTAL" FROM DUAL) u) `+
		`WHERE "DBMOVE$RN0" = 1) s ON ((t."ID" = s."ID")) `+
		`WHEN NOT MATCHED THEN INSERT ("ID", "TOTAL") VALUES (s."ID", s."TOTAL")`, got)

	plain := d.InsertQuery("APP", "LOG", []string{"MSG"}, nil, 2)
	assert.Equal(t, `INSERT ALL INTO "APP"."LOG" ("MSG") VALUES (:1) INTO "APP"."LOG" ("MSG") VALUES (:2) SELECT 1 FROM DUAL`, plain)
}

func TestOracleInsertQuery_SeveralKeys(t *testing.T) {
	d := mustDialect(t, "oracle")
	got := d.InsertQuery("APP", "USERS", []string{"ID", "EMAIL", "ORG"}, [][]string{{"ID"}, {"EMAIL", "ORG"}}, 1)

	assert.Contains(t, got, `ON ((t."ID" = s."ID") OR (t."EMAIL" = s."EMAIL" AND t."ORG" = s."ORG"))`)
	assert.Contains(t, got, `PARTITION BY u."EMAIL", u."ORG" ORDER BY u."DBMOVE$ORD") "DBMOVE$RN1"`)
	assert.Contains(t, got, `WHERE "DBMOVE$RN0" = 1 AND "DBMOVE$RN1" = 1`)
}

func TestSQLiteInsertQuery(t *testing.T) {
	d := mustDialect(t, "sqlite")
	got := d.InsertQuery("main", "orders", []string{"id"}, nil, 3)
	assert.Equal(t, `INSERT INTO "main"."orders" ("id") VALUES (?), (?), (?) ON CONFLICT DO NOTHING`, got)
}

func TestTruncateQuery(t *testing.T) {
	tables := []string{"a_orders", "z_customers"}

	pg := mustDialect(t, "postgres").TruncateQuery("public", tables)
	assert.Equal(t, []string{`TRUNCATE TABLE "public"."a_orders", "public"."z_customers"`}, pg)
	assert.NotContains(t, pg[0], "CASCADE")
	assert.Empty(t, mustDialect(t, "postgres").TruncateQuery("public", nil))

	assert.Equal(t, []string{"DELETE FROM [dbo].[a_orders]", "DELETE FROM [dbo].[z_customers]"},
		mustDialect(t, "mssql").TruncateQuery("dbo", tables))
	assert.Equal(t, []string{"TRUNCATE TABLE `shop`.`a_orders`", "TRUNCATE TABLE `shop`.`z_customers`"},
		mustDialect(t, "mysql").TruncateQuery("shop", tables))
	assert.Equal(t, []string{`TRUNCATE TABLE "APP"."a_orders"`, `TRUNCATE TABLE "APP"."z_customers"`},
		mustDialect(t, "oracle").TruncateQuery("APP", tables))
	assert.Equal(t, []string{`DELETE FROM "main"."a_orders"`, `DELETE FROM "main"."z_customers"`},
		mustDialect(t, "sqlite").TruncateQuery("main", tables))
}

func TestPageQueries(t *testing.T) {
	cols := []string{"id", "name"}

	pg := mustDialect(t, "postgres").PageQuery("public", "users", cols, []string{"id"}, 1000, 2000)
	assert.Equal(t, `SELECT "id", "name" FROM "public"."users" ORDER BY "id" LIMIT 1000 OFFSET 2000`, pg)

	ms := mustDialect(t, "mssql").PageQuery("dbo", "users", cols, []string{"id"}, 1000, 2000)
	assert.Equal(t, "SELECT [id], [name] FROM [dbo].[users] ORDER BY [id] OFFSET 2000 ROWS FETCH NEXT 1000 ROWS ONLY", ms)

	heap := mustDialect(t, "mssql").PageQuery("dbo", "log", cols, []string{"%%physloc%%"}, 10, 0)
	assert.Equal(t, "SELECT [id], [name] FROM [dbo].[log] ORDER BY %%physloc%% OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY", heap)

	ora := mustDialect(t, "oracle").PageQuery("APP", "USERS", cols, []string{"ROWID"}, 10, 0)
	assert.Equal(t, `SELECT "id", "name" FROM "APP"."USERS" ORDER BY ROWID OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY`, ora)

	lite := mustDialect(t, "sqlite").PageQuery("main", "users", cols, []string{"rowid"}, 5, 5)
	assert.Equal(t, `SELECT "id", "name" FROM "main"."users" ORDER BY rowid LIMIT 5 OFFSET 5`, lite)

	for _, q := range []string{pg, ms, ora, lite} {
		assert.NotContains(t, q, "SELECT NULL")
	}
}

func TestCreateTableQuery(t *testing.T) {
	d := mustDialect(t, "postgres")
	got := d.CreateTableQuery("public", "orders", []dialect.ColumnDef{
		{Name: "id", Type: "INTEGER"},
		{Name: "total", Type: "NUMERIC(18,4)", Nullable: true},
	}, []string{"id"})

	want := `CREATE TABLE "public"."orders" (
    "id" INTEGER NOT NULL,
    "total" NUMERIC(18,4),
    PRIMARY KEY ("id")
)`
	assert.Equal(t, want, got)
}

func TestSequenceFromDefault(t *testing.T) {
	tests := map[string]string{
		"nextval('orders_id_seq'::regclass)":          "orders_id_seq",
		`nextval('public."Orders_Id_seq"'::regclass)`: `public."Orders_Id_seq"`,
		"NEXTVAL('s')":  "s",
		"0":             "",
		"":              "",
		"now()":         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, dialect.SequenceFromDefault(in), in)
	}
}

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		driver string
		in     string
		want   typemap.Tag
	}{
		{"mssql", "bit", typemap.Bool},
		{"mssql", "uniqueidentifier", typemap.UUID},
		{"mssql", "nvarchar", typemap.Varchar},
		{"mssql", "money", typemap.Money},
		{"mssql", "datetime2", typemap.DateTime},
		{"mssql", "geography", typemap.Unknown},
		{"postgres", "character varying", typemap.Varchar},
		{"postgres", "timestamp with time zone", typemap.DateTimeTZ},
		{"postgres", "USER-DEFINED", typemap.Unknown},
		{"mysql", "tinyint", typemap.SmallInt},
		{"mysql", "longtext", typemap.Text},
		{"oracle", "NUMBER", typemap.Decimal},
		{"oracle", "TIMESTAMP(6) WITH TIME ZONE", typemap.DateTimeTZ},
		{"oracle", "TIMESTAMP(6)", typemap.DateTime},
		{"sqlite", "INTEGER", typemap.BigInt},
		{"sqlite", "VARCHAR(20)", typemap.Varchar},
		{"sqlite", "DECIMAL(18,4)", typemap.Decimal},
		{"sqlite", "TEXT", typemap.Text},
		{"sqlite", "", typemap.Unknown},
	}
	for _, tt := range tests {
		got := mustDialect(t, tt.driver).NormalizeType(tt.in)
		assert.Equalf(t, tt.want, got, "%s NormalizeType(%q)", tt.driver, tt.in)
	}
}

func TestLimits(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql", "mssql", "oracle", "sqlite"} {
		l := mustDialect(t, driver).Limits()
		assert.Greater(t, l.MaxParams, 0, driver)
	}
	assert.Equal(t, 1000, mustDialect(t, "mssql").Limits().MaxRows)
}

func TestUUIDDecoder(t *testing.T) {
	d := mustDialect(t, "mssql")
	dec, ok := d.(dialect.UUIDDecoder)
	require.True(t, ok)

	// 6F9619FF-8B86-D011-B42D-00C04FC964FF as stored by SQL Server
	raw := []byte{0xFF, 0x19, 0x96, 0x6F, 0x86, 0x8B, 0x11, 0xD0, 0xB4, 0x2D, 0x00, 0xC0, 0x4F, 0xC9, 0x64, 0xFF}
	got, err := dec.DecodeUUID(raw)
	require.NoError(t, err)
	assert.Equal(t, "6f9619ff-8b86-d011-b42d-00c04fc964ff", got)
	assert.Equal(t, strings.ToLower(got), got)

	_, isDecoder := mustDialect(t, "postgres").(dialect.UUIDDecoder)
	assert.False(t, isDecoder)
}
