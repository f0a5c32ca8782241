package schema

import (
	"database/sql"
	"strings"

	"db-move/internal/typemap"
)

// Table identifies a table within a catalog.
type Table struct {
	Schema string
	Name   string
}

func (t Table) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Column is one column of a table, in ordinal order.
type Column struct {
	Name          string
	DataType      string      // source-native type name
	Tag           typemap.Tag // canonical type, from the dialect
	Nullable      bool
	MaxLength     sql.NullInt64
	Precision     sql.NullInt64
	Scale         sql.NullInt64
	Default       sql.NullString
	AutoIncrement bool
}

// Spec is the part of the column the type mapper reads.
func (c Column) Spec() typemap.Spec {
	return typemap.Spec{
		Tag:       c.Tag,
		Length:    c.MaxLength.Int64,
		Precision: c.Precision.Int64,
		Scale:     c.Scale.Int64,
	}
}

// ColumnNames returns the names of cols in order.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// NameSet is a case-insensitive set of table names.
type NameSet map[string]struct{}

func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			s[strings.ToLower(n)] = struct{}{}
		}
	}
	return s
}

func (s NameSet) Has(name string) bool {
	_, ok := s[strings.ToLower(name)]
	return ok
}
