package engine

import (
	"errors"
	"fmt"
	"slices"

	"db-move/internal/dbconn"
	"db-move/internal/dialect"
	"db-move/internal/schema"
	"db-move/internal/typemap"
)

type OnError string

const (
	Abort    OnError = "abort"
	Continue OnError = "continue"
)

type TableOrder string

const (
	OrderByName       TableOrder = "name"
	OrderByDependency TableOrder = "dependency"
)

const DefaultBatchSize = 1000

// Job is one migration run's configuration.
type Job struct {
	Source         dbconn.Config
	Target         dbconn.Config
	ExcludeTables  []string
	SkipDataTables []string
	BatchSize      int
	OnError        OnError
	CreateSchema   bool
	Truncate       bool
	Verify         bool
	TableOrder     TableOrder
}

// Validate checks the job and fills in the default policy and order.
func (j *Job) Validate() error {
	if j.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", j.BatchSize)
	}
	switch j.OnError {
	case "":
		j.OnError = Abort
	case Abort, Continue:
	default:
		return fmt.Errorf("unknown on-error policy %q (want abort or continue)", j.OnError)
	}
	switch j.TableOrder {
	case "":
		j.TableOrder = OrderByName
	case OrderByName, OrderByDependency:
	default:
		return fmt.Errorf("unknown table order %q (want name or dependency)", j.TableOrder)
	}

	var errs []error
	if err := j.Source.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("source: %w", err))
	}
	if err := j.Target.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("target: %w", err))
	} else if j.CreateSchema {
		if d, err := dialect.GetDialect(j.Target.Driver); err == nil && !slices.Contains(typemap.Targets(), d.Name()) {
			errs = append(errs, fmt.Errorf("target: no type mapping for %s, cannot create schema", d.Name()))
		}
	}
	return errors.Join(errs...)
}

func (j *Job) excluded() schema.NameSet { return schema.NewNameSet(j.ExcludeTables...) }

func (j *Job) skipData() schema.NameSet { return schema.NewNameSet(j.SkipDataTables...) }
