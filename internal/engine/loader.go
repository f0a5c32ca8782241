package engine

import (
	"context"
	"errors"
	"fmt"

	"db-move/internal/dialect"
	"db-move/internal/migerr"
	"db-move/internal/schema"
)

// Loader writes one batch to a target table, skipping rows that collide on
// any of keys, and reports how many rows were inserted.
type Loader interface {
	Load(ctx context.Context, table schema.Table, cols []schema.Column, keys [][]string, batch RowBatch) (int64, error)
}

// SQLLoader issues one multi-row INSERT per batch, split only when the
// target's statement limits require it.
type SQLLoader struct {
	q       dialect.Queryer
	d       dialect.Dialect
	coercer *Coercer
}

func NewLoader(q dialect.Queryer, d dialect.Dialect, coercer *Coercer) *SQLLoader {
	return &SQLLoader{q: q, d: d, coercer: coercer}
}

func (l *SQLLoader) Load(ctx context.Context, table schema.Table, cols []schema.Column, keys [][]string, batch RowBatch) (int64, error) {
	if batch.Len() == 0 {
		return 0, nil
	}
	if len(cols) == 0 {
		return 0, migerr.New(migerr.Load, table.Name, "load", errors.New("no columns selected"))
	}

	for i, row := range batch.Rows {
		if len(row) != len(cols) {
			return 0, migerr.New(migerr.Load, table.Name, "load",
				fmt.Errorf("row %d has %d values for %d columns", batch.Offset+int64(i), len(row), len(cols)))
		}
		if err := l.coercer.Row(cols, row); err != nil {
			return 0, migerr.New(migerr.Load, table.Name, "load", fmt.Errorf("row %d: %w", batch.Offset+int64(i), err))
		}
	}

	names := schema.ColumnNames(cols)
	step := RowsPerStatement(l.d.Limits(), len(cols), batch.Len())

	var inserted int64
	for start := 0; start < batch.Len(); start += step {
		end := min(start+step, batch.Len())
		chunk := batch.Rows[start:end]

		args := make([]any, 0, len(chunk)*len(cols))
		for _, row := range chunk {
			args = append(args, row...)
		}

		res, err := l.q.ExecContext(ctx, l.d.InsertQuery(table.Schema, table.Name, names, keys, len(chunk)), args...)
		if err != nil {
			return inserted, migerr.New(migerr.Load, table.Name, "load",
				fmt.Errorf("insert at offset %d: %w", batch.Offset+int64(start), err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, migerr.New(migerr.Load, table.Name, "load", err)
		}
		inserted += n
	}
	return inserted, nil
}

// RowsPerStatement is how many rows of width cols fit in one statement.
func RowsPerStatement(limits dialect.Limits, cols, rows int) int {
	n := rows
	if limits.MaxParams > 0 && cols > 0 && n*cols > limits.MaxParams {
		n = limits.MaxParams / cols
	}
	if limits.MaxRows > 0 && n > limits.MaxRows {
		n = limits.MaxRows
	}
	return max(n, 1)
}
