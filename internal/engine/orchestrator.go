package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"db-move/internal/dialect"
	"db-move/internal/migerr"
	"db-move/internal/schema"
	"db-move/internal/typemap"

	"github.com/sirupsen/logrus"
)

const tableHookTimeout = 30 * time.Second

// Orchestrator drives one migration run through its states.
type Orchestrator struct {
	job   Job
	sink  ProgressSink
	log   *logrus.Entry
	state State

	extractor   Extractor
	loader      Loader
	constraints Constraints
}

type Option func(*Orchestrator)

func WithSink(s ProgressSink) Option {
	return func(o *Orchestrator) { o.sink = s }
}

// WithExtractor replaces the SQL extractor built at connect time.
func WithExtractor(e Extractor) Option {
	return func(o *Orchestrator) { o.extractor = e }
}

func WithLoader(l Loader) Option {
	return func(o *Orchestrator) { o.loader = l }
}

func WithConstraints(c Constraints) Option {
	return func(o *Orchestrator) { o.constraints = c }
}

func New(job Job, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		job:  job,
		sink: NopSink{},
		log:  logrus.WithField("component", "orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run holds the per-run wiring between both sides.
type run struct {
	src, dst    *side
	srcCat      *schema.Catalog
	dstCat      *schema.Catalog
	extractor   Extractor
	loader      Loader
	constraints Constraints
	reconciler  *Reconciler
	targets     map[string]schema.Table
}

// Run executes the job. It never panics on database errors: every failure
// ends in the Failed state with Result.Err set.
func (o *Orchestrator) Run(ctx context.Context) (res Result) {
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		res.State = o.state
	}()

	if err := o.job.Validate(); err != nil {
		return o.fail(res, fmt.Errorf("invalid job: %w", err))
	}

	o.transition(Connecting, "")
	r, err := o.connect(ctx)
	if err != nil {
		return o.fail(res, err)
	}
	defer r.close()

	tables, err := o.listTables(ctx, r)
	if err != nil {
		return o.fail(res, err)
	}
	o.log.Infof("Found %d tables to migrate from %s.%s", len(tables), r.src.d.Name(), r.src.schema)

	if o.job.CreateSchema {
		if err := o.createMissingTables(ctx, r, tables); err != nil {
			return o.fail(res, err)
		}
	}
	if err := r.loadTargets(ctx); err != nil {
		return o.fail(res, err)
	}

	loadErr, restoreErr := withConstraintsSuspended(ctx, r.constraints, r.dst.schema, o.log, func(ctx context.Context) error {
		o.transition(ConstraintsSuspended, "")
		return o.migrateTables(ctx, r, tables, &res)
	})
	res.RestoreErr = restoreErr
	if restoreErr == nil {
		o.transition(ConstraintsRestored, "")
	}
	if loadErr != nil {
		return o.fail(res, loadErr)
	}

	if o.job.Verify {
		o.transition(Verifying, "")
		res.Verification = NewVerifier(r.src.poolCatalog(), r.dst.poolCatalog()).Verify(ctx, tables)
		for _, v := range res.Verification {
			if !v.Matched {
				res.Mismatches = append(res.Mismatches, v.Table)
				o.log.WithField("table", v.Table).Warn(v.String())
			}
		}
	}

	o.transition(Done, "")
	res.Success = len(res.FailedTables) == 0
	return res
}

func (o *Orchestrator) connect(ctx context.Context) (*run, error) {
	src, err := openSide(ctx, "source", o.job.Source)
	if err != nil {
		return nil, err
	}
	dst, err := openSide(ctx, "target", o.job.Target)
	if err != nil {
		src.close()
		return nil, err
	}
	o.log.Infof("Connected: %s -> %s", o.job.Source.Masked(), o.job.Target.Masked())

	r := &run{
		src:         src,
		dst:         dst,
		srcCat:      src.catalog(),
		dstCat:      dst.catalog(),
		extractor:   o.extractor,
		loader:      o.loader,
		constraints: o.constraints,
		reconciler:  NewReconciler(dst.conn, dst.d),
	}
	if r.extractor == nil {
		r.extractor = NewExtractor(src.conn, src.d, r.srcCat)
	}
	if r.loader == nil {
		r.loader = NewLoader(dst.conn, dst.d, NewCoercer(src.d, dst.d.Name()))
	}
	if r.constraints == nil {
		r.constraints = NewConstraints(dst.conn, dst.d)
	}
	return r, nil
}

func (r *run) close() {
	r.src.close()
	r.dst.close()
}

// loadTargets indexes the target's tables by lower-cased name.
func (r *run) loadTargets(ctx context.Context) error {
	list, err := r.dstCat.ListTables(ctx, nil)
	if err != nil {
		return err
	}
	r.targets = make(map[string]schema.Table, len(list))
	for _, t := range list {
		r.targets[strings.ToLower(t.Name)] = t
	}
	return nil
}

func (r *run) targetTable(name string) (schema.Table, bool) {
	t, ok := r.targets[strings.ToLower(name)]
	return t, ok
}

func (o *Orchestrator) listTables(ctx context.Context, r *run) ([]schema.Table, error) {
	tables, err := r.srcCat.ListTables(ctx, o.job.excluded())
	if err != nil {
		return nil, err
	}
	if o.job.TableOrder != OrderByDependency {
		return schema.SortTablesByName(tables), nil
	}
	deps, err := r.srcCat.ForeignKeys(ctx)
	if err != nil {
		return nil, err
	}
	return schema.SortTablesByFKCount(tables, deps), nil
}

// createMissingTables creates every source table absent from the target,
// with column types mapped to the target engine.
func (o *Orchestrator) createMissingTables(ctx context.Context, r *run, tables []schema.Table) error {
	if err := r.loadTargets(ctx); err != nil {
		return err
	}
	for _, t := range tables {
		if _, ok := r.targetTable(t.Name); ok {
			continue
		}
		cols, err := r.srcCat.DescribeColumns(ctx, t)
		if err != nil {
			return err
		}
		pk, err := r.srcCat.PrimaryKey(ctx, t)
		if err != nil {
			return err
		}

		defs := make([]dialect.ColumnDef, len(cols))
		for i, c := range cols {
			defs[i] = dialect.ColumnDef{Name: c.Name, Type: typemap.Map(r.dst.d.Name(), c.Spec()), Nullable: c.Nullable}
		}
		query := r.dst.d.CreateTableQuery(r.dst.schema, t.Name, defs, pk)
		if _, err := r.dst.conn.ExecContext(ctx, query); err != nil {
			return migerr.New(migerr.Load, t.Name, "create table", err)
		}
		o.log.WithField("table", t.Name).Info("Created table on target")
	}
	return nil
}

func (o *Orchestrator) migrateTables(ctx context.Context, r *run, tables []schema.Table, res *Result) error {
	if o.job.Truncate {
		if err := o.truncateTargets(ctx, r, tables); err != nil {
			return err
		}
	}

	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.transition(Migrating, t.Name)
		res.TablesAttempted++

		copied, skipped, err := o.migrateTable(ctx, r, t)
		res.RowsCopied += copied
		if err != nil {
			res.FailedTables = append(res.FailedTables, t.Name)
			o.sink.Progress(Event{Kind: EventTableFailed, Table: t.Name, State: o.state, Err: err})
			o.log.WithField("table", t.Name).WithError(err).Error("Table migration failed")
			if o.job.OnError == Abort || ctx.Err() != nil {
				return err
			}
			continue
		}
		if skipped {
			res.TablesSkipped++
		} else {
			res.TablesMigrated++
		}
	}
	return nil
}

// migrateTable copies one table and reports the rows inserted and whether
// the table was schema-only.
func (o *Orchestrator) migrateTable(ctx context.Context, r *run, t schema.Table) (int64, bool, error) {
	log := o.log.WithField("table", t.Name)

	dt, ok := r.targetTable(t.Name)
	if !ok {
		return 0, false, migerr.New(migerr.Catalog, t.Name, "resolve target", errors.New("table does not exist on target"))
	}
	srcCols, err := r.srcCat.DescribeColumns(ctx, t)
	if err != nil {
		return 0, false, err
	}
	dstCols, err := r.dstCat.DescribeColumns(ctx, dt)
	if err != nil {
		return 0, false, err
	}
	srcSel, dstSel := matchColumns(srcCols, dstCols, log)
	if len(srcSel) == 0 {
		return 0, false, migerr.New(migerr.Catalog, t.Name, "match columns", errors.New("no columns in common with target"))
	}

	total, err := r.srcCat.CountRows(ctx, t)
	if err != nil {
		return 0, false, err
	}

	if o.job.skipData().Has(t.Name) {
		log.Infof("Schema only: %d source rows left behind", total)
		o.sink.Progress(Event{Kind: EventTableSkipped, Table: t.Name, Total: total, Percent: 100, State: o.state})
		return 0, true, nil
	}

	o.sink.Progress(Event{Kind: EventTableStart, Table: t.Name, Total: total, State: o.state})
	if total == 0 {
		o.sink.Progress(Event{Kind: EventTableDone, Table: t.Name, Percent: 100, State: o.state})
		return 0, false, nil
	}

	keys, err := r.dstCat.UniqueKeys(ctx, dt)
	if err != nil {
		return 0, false, err
	}
	keys = keysWithin(keys, dstSel)

	copied, err := o.copyRows(ctx, r, t, dt, srcSel, dstSel, keys, total)
	if err != nil {
		return copied, false, err
	}

	if err := r.reconciler.Reconcile(ctx, dt, dstCols); err != nil {
		return copied, false, err
	}

	log.Infof("Copied %d of %d rows", copied, total)
	return copied, false, nil
}

// copyRows runs the extract/load loop between the table hooks.
func (o *Orchestrator) copyRows(ctx context.Context, r *run, t, dt schema.Table, srcSel, dstSel []schema.Column, keys [][]string, total int64) (copied int64, err error) {
	hasIdentity := false
	for _, c := range dstSel {
		if c.AutoIncrement {
			hasIdentity = true
			break
		}
	}

	if err := r.dst.d.BeforeTable(ctx, r.dst.conn, dt.Schema, dt.Name, hasIdentity); err != nil {
		return 0, migerr.New(migerr.Load, t.Name, "before table", err)
	}
	defer func() {
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tableHookTimeout)
		defer cancel()
		if herr := r.dst.d.AfterTable(hctx, r.dst.conn, dt.Schema, dt.Name, hasIdentity); herr != nil && err == nil {
			err = migerr.New(migerr.Load, t.Name, "after table", herr)
		}
	}()

	batchSize := o.job.BatchSize
	var processed int64
	for offset := int64(0); ; offset += int64(batchSize) {
		batch, err := r.extractor.Extract(ctx, t, srcSel, batchSize, offset)
		if err != nil {
			return copied, err
		}
		if batch.Len() == 0 {
			break
		}

		n, err := r.loader.Load(ctx, dt, dstSel, keys, batch)
		copied += n
		if err != nil {
			return copied, err
		}
		processed += int64(batch.Len())
		if n < int64(batch.Len()) {
			o.log.WithField("table", t.Name).Debugf("%d rows at offset %d already present", int64(batch.Len())-n, offset)
		}
		o.sink.Progress(Event{Kind: EventProgress, Table: t.Name, Processed: processed, Total: total, Percent: percent(processed, total), State: o.state})

		if batch.Len() < batchSize {
			break
		}
	}

	o.sink.Progress(Event{Kind: EventTableDone, Table: t.Name, Processed: processed, Total: total, Percent: percent(processed, total), State: o.state})
	return copied, nil
}

// matchColumns pairs source and target columns by name, case-insensitively,
// in source order. The target column carries the tag used for coercion,
// except that source UUIDs stay UUIDs so binary identifiers are decoded.
func matchColumns(src, dst []schema.Column, log *logrus.Entry) (srcSel, dstSel []schema.Column) {
	byName := make(map[string]schema.Column, len(dst))
	for _, c := range dst {
		byName[strings.ToLower(c.Name)] = c
	}
	for _, c := range src {
		tc, ok := byName[strings.ToLower(c.Name)]
		if !ok {
			log.Warnf("Column %s missing on target, dropped", c.Name)
			continue
		}
		if c.Tag == typemap.UUID {
			tc.Tag = typemap.UUID
		}
		srcSel = append(srcSel, c)
		dstSel = append(dstSel, tc)
	}
	return srcSel, dstSel
}

// keysWithin keeps the keys whose columns are all selected. A key with an
// unselected column takes its default on insert and cannot be matched.
func keysWithin(keys [][]string, cols []schema.Column) [][]string {
	selected := schema.NewNameSet(schema.ColumnNames(cols)...)
	var out [][]string
	for _, k := range keys {
		all := true
		for _, c := range k {
			if !selected.Has(c) {
				all = false
				break
			}
		}
		if all {
			out = append(out, k)
		}
	}
	return out
}

// truncateTargets empties every target table the run will load, all at
// once and before the first copy, so no loaded table is emptied later.
// Schema-only and missing tables are left alone.
func (o *Orchestrator) truncateTargets(ctx context.Context, r *run, tables []schema.Table) error {
	skip := o.job.skipData()
	var names []string
	for _, t := range tables {
		if skip.Has(t.Name) {
			continue
		}
		if dt, ok := r.targetTable(t.Name); ok {
			names = append(names, dt.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}

	deps, err := r.dstCat.ForeignKeys(ctx)
	if err != nil {
		return err
	}
	if err := truncateTables(ctx, r.dst.conn, r.dst.d, r.dst.schema, names, deps); err != nil {
		return err
	}
	o.log.Infof("Truncated %d target tables", len(names))
	return nil
}

// truncateTables refuses to run when a table outside names references one
// inside it: emptying the parent would orphan or, on some engines, cascade
// into rows the run must not touch.
func truncateTables(ctx context.Context, q dialect.Queryer, d dialect.Dialect, schemaName string, names []string, deps map[string][]string) error {
	set := schema.NewNameSet(names...)
	for child, parents := range deps {
		if set.Has(child) {
			continue
		}
		for _, p := range parents {
			if set.Has(p) {
				return migerr.New(migerr.Load, p, "truncate",
					fmt.Errorf("table %s references %s but is not part of this run; migrate it too or disable truncate", child, p))
			}
		}
	}

	for _, stmt := range d.TruncateQuery(schemaName, names) {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return migerr.New(migerr.Load, "", "truncate", err)
		}
	}
	return nil
}

func (o *Orchestrator) transition(s State, table string) {
	o.state = s
	entry := o.log.WithField("state", s.String())
	if table != "" {
		entry = entry.WithField("table", table)
	}
	entry.Debug("State transition")
	o.sink.Progress(Event{Kind: EventState, Table: table, State: s})
}

func (o *Orchestrator) fail(res Result, err error) Result {
	res.Err = err
	res.Success = false
	o.transition(Failed, migerr.TableOf(err))
	o.log.WithError(err).Error("Migration failed")
	return res
}
