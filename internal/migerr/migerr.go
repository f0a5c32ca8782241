// Package migerr defines the error kinds surfaced by a migration run.
package migerr

import (
	"errors"
	"fmt"
)

// Kind classifies where in the pipeline an error happened.
type Kind int

const (
	Unknown Kind = iota
	Connection
	Catalog
	Extract
	Load
	ConstraintToggle
	Reconcile
	Verify
)

func (k Kind) String() string {
	switch k {
	case Connection:
		return "ConnectionError"
	case Catalog:
		return "CatalogError"
	case Extract:
		return "ExtractError"
	case Load:
		return "LoadError"
	case ConstraintToggle:
		return "ConstraintToggleError"
	case Reconcile:
		return "ReconcileError"
	case Verify:
		return "VerifyError"
	default:
		return "Error"
	}
}

// Error carries the kind, the table (if any) and the underlying cause.
type Error struct {
	Kind  Kind
	Table string
	Op    string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Table != "" && e.Op != "":
		return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.Table, e.Err)
	case e.Table != "":
		return fmt.Sprintf("%s: table %s: %v", e.Kind, e.Table, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a kind. A nil err yields nil. An err that already
// carries a kind keeps it.
func New(kind Kind, table, op string, err error) error {
	if err == nil {
		return nil
	}
	var me *Error
	if errors.As(err, &me) {
		return err
	}
	return &Error{Kind: kind, Table: table, Op: op, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return Unknown
}

// TableOf reports the table attached to err, if any.
func TableOf(err error) string {
	var me *Error
	if errors.As(err, &me) {
		return me.Table
	}
	return ""
}
