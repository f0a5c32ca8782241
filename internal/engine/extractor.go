package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"db-move/internal/dialect"
	"db-move/internal/migerr"
	"db-move/internal/schema"
	"db-move/internal/typemap"

	"github.com/sirupsen/logrus"
)

// RowBatch is one page of source rows. Each row is aligned with the columns
// passed to Extract.
type RowBatch struct {
	Offset int64
	Rows   [][]any
}

func (b RowBatch) Len() int { return len(b.Rows) }

//go:generate mockgen -destination=mocks_test.go -package=engine . Extractor,Loader,Constraints

// Extractor reads one page of a source table per call. An empty batch means
// the table is exhausted.
type Extractor interface {
	Extract(ctx context.Context, table schema.Table, cols []schema.Column, batchSize int, offset int64) (RowBatch, error)
}

var errNoOrderingKey = errors.New("no primary key, unique key, row identity or orderable column to page by")

// SQLExtractor pages through a table with LIMIT/OFFSET style queries over a
// stable ordering key.
type SQLExtractor struct {
	q       dialect.Queryer
	d       dialect.Dialect
	catalog *schema.Catalog
	keys    map[string][]string
	log     *logrus.Entry
}

func NewExtractor(q dialect.Queryer, d dialect.Dialect, catalog *schema.Catalog) *SQLExtractor {
	return &SQLExtractor{
		q:       q,
		d:       d,
		catalog: catalog,
		keys:    make(map[string][]string),
		log:     logrus.WithField("component", "extractor"),
	}
}

func (e *SQLExtractor) Extract(ctx context.Context, table schema.Table, cols []schema.Column, batchSize int, offset int64) (RowBatch, error) {
	batch := RowBatch{Offset: offset}
	if len(cols) == 0 {
		return batch, migerr.New(migerr.Extract, table.Name, "extract", errors.New("no columns selected"))
	}

	orderBy, err := e.orderingKey(ctx, table, cols)
	if err != nil {
		return batch, migerr.New(migerr.Extract, table.Name, "extract", err)
	}

	query := e.d.PageQuery(table.Schema, table.Name, schema.ColumnNames(cols), orderBy, batchSize, offset)
	rows, err := e.q.QueryContext(ctx, query)
	if err != nil {
		return batch, migerr.New(migerr.Extract, table.Name, "extract", fmt.Errorf("page at offset %d: %w", offset, err))
	}
	defer rows.Close()

	for rows.Next() {
		row := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return batch, migerr.New(migerr.Extract, table.Name, "extract", fmt.Errorf("failed to scan row: %w", err))
		}
		batch.Rows = append(batch.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return batch, migerr.New(migerr.Extract, table.Name, "extract", err)
	}
	return batch, nil
}

// orderingKey resolves and caches the paging key of a table. A key that is
// not known to be unique is logged once, since rows tying on it may move
// between pages.
func (e *SQLExtractor) orderingKey(ctx context.Context, table schema.Table, cols []schema.Column) ([]string, error) {
	key := strings.ToLower(table.String())
	if k, ok := e.keys[key]; ok {
		return k, nil
	}

	pk, err := e.catalog.PrimaryKey(ctx, table)
	if err != nil {
		return nil, err
	}
	var keys [][]string
	if len(pk) == 0 {
		if keys, err = e.catalog.UniqueKeys(ctx, table); err != nil {
			return nil, err
		}
	}
	k, unique := OrderingKey(pk, keys, e.d.RowIdentity(), cols)
	if len(k) == 0 {
		return nil, errNoOrderingKey
	}
	if !unique {
		e.log.WithField("table", table.Name).Warnf("No unique key to page by, ordering by %s; rows equal on these columns may be skipped or repeated", strings.Join(k, ", "))
	}
	e.keys[key] = k
	return k, nil
}

// OrderingKey chooses the columns a table is paged by: the primary key, else
// a unique key over selected NOT NULL columns, else the dialect row
// identity, else every orderable column. unique is false only for the last.
func OrderingKey(pk []string, keys [][]string, rowIdentity string, cols []schema.Column) (k []string, unique bool) {
	if len(pk) > 0 {
		return pk, true
	}

	notNull := make(map[string]bool, len(cols))
	for _, c := range cols {
		notNull[strings.ToLower(c.Name)] = !c.Nullable
	}
	for _, uk := range keys {
		usable := len(uk) > 0
		for _, name := range uk {
			if !notNull[strings.ToLower(name)] {
				usable = false
				break
			}
		}
		if usable {
			return uk, true
		}
	}

	if rowIdentity != "" {
		return []string{rowIdentity}, true
	}
	for _, c := range cols {
		if typemap.Orderable(c.Tag) {
			k = append(k, c.Name)
		}
	}
	return k, false
}
