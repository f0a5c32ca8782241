package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"db-move/internal/dialect"
	"db-move/internal/migerr"
	"db-move/internal/typemap"
)

// Catalog reads live metadata of one schema. Nothing is cached: every call
// queries the database.
type Catalog struct {
	q      dialect.Queryer
	d      dialect.Dialect
	schema string
}

func NewCatalog(q dialect.Queryer, d dialect.Dialect, schemaName string) *Catalog {
	return &Catalog{q: q, d: d, schema: schemaName}
}

func (c *Catalog) Schema() string { return c.schema }

// ListTables returns the base tables of the schema ordered by name, minus
// the excluded ones.
func (c *Catalog) ListTables(ctx context.Context, excluded NameSet) ([]Table, error) {
	query, args := c.d.TablesQuery(c.schema)
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, catalogErr("", "list tables", err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, catalogErr("", "list tables", fmt.Errorf("failed to scan table name: %w", err))
		}
		if excluded.Has(name) {
			continue
		}
		tables = append(tables, Table{Schema: c.schema, Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, catalogErr("", "list tables", err)
	}
	return tables, nil
}

// DescribeColumns returns the columns of t in ordinal order. A table that
// does not exist yields no columns and no error.
func (c *Catalog) DescribeColumns(ctx context.Context, t Table) ([]Column, error) {
	query, args := c.d.ColumnsQuery(t.Schema, t.Name)
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, catalogErr(t.Name, "describe columns", err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			col                Column
			dataType, nullable sql.NullString
			identity           sql.NullString
		)
		if err := rows.Scan(&col.Name, &dataType, &nullable, &col.MaxLength, &col.Precision, &col.Scale, &col.Default, &identity); err != nil {
			return nil, catalogErr(t.Name, "describe columns", fmt.Errorf("failed to scan column: %w", err))
		}
		col.DataType = dataType.String
		col.Nullable = strings.EqualFold(nullable.String, "YES")
		col.AutoIncrement = strings.EqualFold(identity.String, "YES")
		col.Tag = c.d.NormalizeType(col.DataType)
		applyTypeModifiers(&col)
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, catalogErr(t.Name, "describe columns", err)
	}
	return cols, nil
}

// PrimaryKey returns the key columns of t in key order, or nil.
func (c *Catalog) PrimaryKey(ctx context.Context, t Table) ([]string, error) {
	query, args := c.d.PrimaryKeyQuery(t.Schema, t.Name)
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, catalogErr(t.Name, "primary key", err)
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, catalogErr(t.Name, "primary key", err)
		}
		pk = append(pk, name)
	}
	if err := rows.Err(); err != nil {
		return nil, catalogErr(t.Name, "primary key", err)
	}
	return pk, nil
}

// UniqueKeys returns the primary key, when there is one, followed by the
// column lists of every other unique index of t.
func (c *Catalog) UniqueKeys(ctx context.Context, t Table) ([][]string, error) {
	pk, err := c.PrimaryKey(ctx, t)
	if err != nil {
		return nil, err
	}

	query, args := c.d.UniqueKeysQuery(t.Schema, t.Name)
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, catalogErr(t.Name, "unique keys", err)
	}
	defer rows.Close()

	var (
		names   []string
		columns = make(map[string][]string)
	)
	for rows.Next() {
		var index, column string
		if err := rows.Scan(&index, &column); err != nil {
			return nil, catalogErr(t.Name, "unique keys", fmt.Errorf("failed to scan index column: %w", err))
		}
		if _, seen := columns[index]; !seen {
			names = append(names, index)
		}
		columns[index] = append(columns[index], column)
	}
	if err := rows.Err(); err != nil {
		return nil, catalogErr(t.Name, "unique keys", err)
	}

	var keys [][]string
	if len(pk) > 0 {
		keys = append(keys, pk)
	}
	for _, name := range names {
		if !sameKey(columns[name], keys) {
			keys = append(keys, columns[name])
		}
	}
	return keys, nil
}

func sameKey(key []string, keys [][]string) bool {
	for _, k := range keys {
		if len(k) != len(key) {
			continue
		}
		match := true
		for i := range k {
			if !strings.EqualFold(k[i], key[i]) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// CountRows returns the current number of rows in t.
func (c *Catalog) CountRows(ctx context.Context, t Table) (int64, error) {
	var n int64
	if err := c.q.QueryRowContext(ctx, c.d.CountQuery(t.Schema, t.Name)).Scan(&n); err != nil {
		return 0, catalogErr(t.Name, "count rows", err)
	}
	return n, nil
}

// ForeignKeys maps each table to the tables it references.
func (c *Catalog) ForeignKeys(ctx context.Context) (map[string][]string, error) {
	query, args := c.d.ForeignKeysQuery(c.schema)
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, catalogErr("", "foreign keys", err)
	}
	defer rows.Close()

	deps := make(map[string][]string)
	for rows.Next() {
		var table, ref sql.NullString
		if err := rows.Scan(&table, &ref); err != nil {
			return nil, catalogErr("", "foreign keys", fmt.Errorf("failed to scan foreign key: %w", err))
		}
		if table.Valid && ref.Valid && table.String != ref.String {
			deps[table.String] = append(deps[table.String], ref.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, catalogErr("", "foreign keys", err)
	}
	return deps, nil
}

func catalogErr(table, op string, err error) error {
	if dialect.IsPermissionDenied(err) {
		err = fmt.Errorf("insufficient privileges: %w", err)
	}
	return migerr.New(migerr.Catalog, table, op, err)
}

// applyTypeModifiers fills length, precision and scale from a declared type
// such as "VARCHAR(20)" or "DECIMAL(18,4)" when the catalog did not report
// them separately.
func applyTypeModifiers(col *Column) {
	open := strings.IndexByte(col.DataType, '(')
	end := strings.IndexByte(col.DataType, ')')
	if open < 0 || end < open {
		return
	}
	args := strings.Split(col.DataType[open+1:end], ",")
	first, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil {
		if strings.EqualFold(strings.TrimSpace(args[0]), "max") && !col.MaxLength.Valid {
			col.MaxLength = sql.NullInt64{Int64: typemap.Unbounded, Valid: true}
		}
		return
	}

	switch col.Tag {
	case typemap.Decimal, typemap.Money, typemap.SmallMoney:
		if col.Precision.Valid {
			return
		}
		col.Precision = sql.NullInt64{Int64: first, Valid: true}
		if len(args) > 1 {
			if scale, err := strconv.ParseInt(strings.TrimSpace(args[1]), 10, 64); err == nil {
				col.Scale = sql.NullInt64{Int64: scale, Valid: true}
			}
		}
	default:
		if !col.MaxLength.Valid {
			col.MaxLength = sql.NullInt64{Int64: first, Valid: true}
		}
	}
}
