package engine

import (
	"context"
	"time"

	"db-move/internal/dialect"
	"db-move/internal/migerr"

	"github.com/sirupsen/logrus"
)

const restoreTimeout = 2 * time.Minute

// Constraints turns referential checks on the target off and back on.
type Constraints interface {
	Suspend(ctx context.Context, schema string) error
	Restore(ctx context.Context, schema string) error
}

type dialectConstraints struct {
	q dialect.Queryer
	d dialect.Dialect
}

// NewConstraints returns a Constraints that runs the dialect's toggles on q.
// q must be the pinned connection the load runs on.
func NewConstraints(q dialect.Queryer, d dialect.Dialect) Constraints {
	return &dialectConstraints{q: q, d: d}
}

func (c *dialectConstraints) Suspend(ctx context.Context, schema string) error {
	return migerr.New(migerr.ConstraintToggle, "", "suspend", c.d.SuspendConstraints(ctx, c.q, schema))
}

func (c *dialectConstraints) Restore(ctx context.Context, schema string) error {
	return migerr.New(migerr.ConstraintToggle, "", "restore", c.d.RestoreConstraints(ctx, c.q, schema))
}

// withConstraintsSuspended runs fn between Suspend and Restore. Restore always
// runs, on a context detached from ctx's cancellation, even when Suspend
// failed part way. fn's error (or Suspend's) is returned first; the restore
// error is returned separately.
func withConstraintsSuspended(ctx context.Context, c Constraints, schema string, log *logrus.Entry, fn func(context.Context) error) (err, restoreErr error) {
	defer func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
		defer cancel()
		if restoreErr = c.Restore(rctx, schema); restoreErr != nil {
			log.WithError(restoreErr).Error("Failed to restore constraints; run restore-constraints to recover")
		} else {
			log.Info("Constraints restored")
		}
	}()

	if err = c.Suspend(ctx, schema); err != nil {
		return err, nil
	}
	log.Info("Constraints suspended")
	return fn(ctx), nil
}
