package dialect

import (
	"context"
	"fmt"
	"strings"
)

// GeneratePlaceholders is a helper function to create a slice of placeholder strings.
// It takes the number of placeholders needed, the index of the first one and a
// function that returns the placeholder for a given index.
// It returns a comma-separated string of the generated placeholders.
func GeneratePlaceholders(count, start int, placeholderFunc func(int) string) string {
	placeholders := make([]string, count)
	for i := 0; i < count; i++ {
		placeholders[i] = placeholderFunc(start + i)
	}
	return strings.Join(placeholders, ", ")
}

// valueRows renders "(p, p), (p, p)" for rows tuples of width cols.
func valueRows(rows, cols int, placeholderFunc func(int) string) string {
	tuples := make([]string, rows)
	for r := 0; r < rows; r++ {
		tuples[r] = "(" + GeneratePlaceholders(cols, r*cols, placeholderFunc) + ")"
	}
	return strings.Join(tuples, ", ")
}

func quoteWith(name, open, close string) string {
	return open + strings.ReplaceAll(name, close, close+close) + close
}

func quoteAll(names []string, quote func(string) string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return strings.Join(quoted, ", ")
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func buildCreateTable(qualified string, cols []ColumnDef, pk []string, quote func(string) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", qualified)
	for i, c := range cols {
		fmt.Fprintf(&b, "    %s %s", quote(c.Name), c.Type)
		if !c.Nullable {
			b.WriteString(" NOT NULL")
		}
		if i < len(cols)-1 || len(pk) > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	if len(pk) > 0 {
		fmt.Fprintf(&b, "    PRIMARY KEY (%s)\n", quoteAll(pk, quote))
	}
	b.WriteString(")")
	return b.String()
}

// rowOrdinal and rowRank name the helper columns of deduplicating inserts.
const (
	rowOrdinal = "dbmove$ord"
	rowRank    = "dbmove$rn"
)

// matchKey renders "l.a = r.a AND l.b = r.b".
func matchKey(key []string, left, right string, quote func(string) string) string {
	parts := make([]string, len(key))
	for i, c := range key {
		q := quote(c)
		parts[i] = left + q + " = " + right + q
	}
	return strings.Join(parts, " AND ")
}

func prefixAll(prefix string, names []string, quote func(string) string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = prefix + quote(n)
	}
	return strings.Join(out, ", ")
}

func eachTable(tables []string, stmt func(string) string) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = stmt(t)
	}
	return out
}

func countQuery(qualified string) string {
	return "SELECT COUNT(*) FROM " + qualified
}

func queryStrings(ctx context.Context, q Queryer, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// scanInt64 runs a single-value query.
func scanInt64(ctx context.Context, q Queryer, query string, args ...any) (int64, error) {
	var n int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// baseTypeName lowercases a type name and drops any "(...)" modifier, so
// "TIMESTAMP(6) WITH TIME ZONE" becomes "timestamp with time zone".
func baseTypeName(sqlType string) string {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		rest := ""
		if j := strings.IndexByte(t[i:], ')'); j >= 0 {
			rest = t[i+j+1:]
		}
		t = t[:i] + rest
	}
	return strings.Join(strings.Fields(t), " ")
}

// quoteOrder quotes ordering columns, leaving a dialect's row identity bare.
func quoteOrder(orderBy []string, d Dialect) string {
	parts := make([]string, len(orderBy))
	for i, c := range orderBy {
		if id := d.RowIdentity(); id != "" && c == id {
			parts[i] = c
			continue
		}
		parts[i] = d.QuoteIdent(c)
	}
	return strings.Join(parts, ", ")
}
