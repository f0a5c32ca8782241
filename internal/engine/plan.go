package engine

import (
	"context"
	"fmt"

	"db-move/internal/dbconn"

	"github.com/sirupsen/logrus"
)

type Action string

const (
	ActionMigrate    Action = "migrate"
	ActionSchemaOnly Action = "schema-only"
	ActionCreate     Action = "create+migrate"
	ActionMissing    Action = "missing on target"
)

// PlanEntry is what a run would do with one table.
type PlanEntry struct {
	Table  string
	Rows   int64
	Action Action
}

// Plan connects to both sides and lists, without writing anything, the
// tables a run would visit in order.
func (o *Orchestrator) Plan(ctx context.Context) ([]PlanEntry, error) {
	if err := o.job.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job: %w", err)
	}
	r, err := o.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer r.close()

	tables, err := o.listTables(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := r.loadTargets(ctx); err != nil {
		return nil, err
	}

	skip := o.job.skipData()
	plan := make([]PlanEntry, 0, len(tables))
	for _, t := range tables {
		n, err := r.srcCat.CountRows(ctx, t)
		if err != nil {
			return nil, err
		}
		e := PlanEntry{Table: t.Name, Rows: n, Action: ActionMigrate}
		_, exists := r.targetTable(t.Name)
		switch {
		case !exists && o.job.CreateSchema:
			e.Action = ActionCreate
		case !exists:
			e.Action = ActionMissing
		}
		if skip.Has(t.Name) {
			e.Action = ActionSchemaOnly
		}
		plan = append(plan, e)
	}
	return plan, nil
}

// VerifyOnly compares row counts of every non-excluded source table with
// the target, without copying.
func (o *Orchestrator) VerifyOnly(ctx context.Context) ([]VerifyResult, error) {
	if err := o.job.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job: %w", err)
	}
	r, err := o.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer r.close()

	tables, err := o.listTables(ctx, r)
	if err != nil {
		return nil, err
	}
	o.transition(Verifying, "")
	return NewVerifier(r.src.poolCatalog(), r.dst.poolCatalog()).Verify(ctx, tables), nil
}

// RestoreConstraints re-enables the target's constraints, for recovery after
// a run was killed while they were suspended.
func RestoreConstraints(ctx context.Context, cfg dbconn.Config) error {
	s, err := openSide(ctx, "target", cfg)
	if err != nil {
		return err
	}
	defer s.close()

	if err := NewConstraints(s.conn, s.d).Restore(ctx, s.schema); err != nil {
		return err
	}
	log := logrus.WithField("component", "constraints")
	switch s.d.Name() {
	case "sqlite", "mysql":
		log.Infof("%s foreign key checks are per session; new sessions already enforce them", s.d.Name())
	default:
		log.Infof("Constraints restored on %s.%s", s.d.Name(), s.schema)
	}
	return nil
}
