package engine

import (
	"context"
	"fmt"

	"db-move/internal/dialect"
	"db-move/internal/migerr"
	"db-move/internal/schema"

	"github.com/sirupsen/logrus"
)

// Reconciler moves each auto-increment generator of a target table to the
// column's current maximum, so the next generated value does not collide
// with copied rows.
type Reconciler struct {
	q   dialect.Queryer
	d   dialect.Dialect
	log *logrus.Entry
}

func NewReconciler(q dialect.Queryer, d dialect.Dialect) *Reconciler {
	return &Reconciler{q: q, d: d, log: logrus.WithField("component", "reconciler")}
}

// Reconcile resets every AutoIncrement column of cols. It is idempotent.
func (r *Reconciler) Reconcile(ctx context.Context, table schema.Table, cols []schema.Column) error {
	for _, c := range cols {
		if !c.AutoIncrement {
			continue
		}
		if err := r.d.ResetSequence(ctx, r.q, table.Schema, table.Name, c.Name, c.Default.String); err != nil {
			return migerr.New(migerr.Reconcile, table.Name, "reconcile", fmt.Errorf("column %s: %w", c.Name, err))
		}
		r.log.WithField("table", table.Name).Debugf("Sequence for %s reset", c.Name)
	}
	return nil
}
