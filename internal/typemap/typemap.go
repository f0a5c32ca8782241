// Package typemap translates canonical column type tags into target
// dialect DDL types.
//
// Source dialects normalize their native type names into a Tag; Map then
// looks the tag up in a closed per-target table. Anything the table does not
// know becomes the target's permissive text type.
package typemap

import (
	"fmt"
	"strings"
)

// Tag is a canonical, engine-neutral column type.
type Tag string

const (
	Bool       Tag = "bool"
	SmallInt   Tag = "smallint"
	Int        Tag = "int"
	BigInt     Tag = "bigint"
	Decimal    Tag = "decimal"
	Money      Tag = "money"
	SmallMoney Tag = "smallmoney"
	Float      Tag = "float"
	Double     Tag = "double"
	Char       Tag = "char"
	Varchar    Tag = "varchar"
	Text       Tag = "text"
	UUID       Tag = "uuid"
	Date       Tag = "date"
	Time       Tag = "time"
	DateTime   Tag = "datetime"
	DateTimeTZ Tag = "datetimetz"
	Binary     Tag = "binary"
	JSON       Tag = "json"
	Unknown    Tag = "unknown"
)

// Unbounded is the length sentinel engines use for MAX-sized columns.
const Unbounded = -1

// Spec is the part of a column descriptor the mapper needs. Zero means
// "not reported" for Length, Precision and Scale.
type Spec struct {
	Tag       Tag
	Length    int64
	Precision int64
	Scale     int64
}

type rule func(Spec) string

type target struct {
	rules    map[Tag]rule
	fallback string
}

func fixed(s string) rule { return func(Spec) string { return s } }

func sized(name, unbounded string, max int64) rule {
	return func(s Spec) string {
		if s.Length <= 0 || s.Length > max {
			return unbounded
		}
		return fmt.Sprintf("%s(%d)", name, s.Length)
	}
}

func charRule(name, unbounded string, max int64) rule {
	return func(s Spec) string {
		if s.Length == Unbounded || s.Length > max {
			return unbounded
		}
		if s.Length <= 0 {
			return name + "(1)"
		}
		return fmt.Sprintf("%s(%d)", name, s.Length)
	}
}

func decimalRule(name string) rule {
	return func(s Spec) string {
		if s.Precision <= 0 {
			return name
		}
		return fmt.Sprintf("%s(%d,%d)", name, s.Precision, s.Scale)
	}
}

var targets = map[string]target{
	"postgres": {
		fallback: "TEXT",
		rules: map[Tag]rule{
			Bool:       fixed("BOOLEAN"),
			SmallInt:   fixed("SMALLINT"),
			Int:        fixed("INTEGER"),
			BigInt:     fixed("BIGINT"),
			Decimal:    decimalRule("NUMERIC"),
			Money:      fixed("NUMERIC(19,4)"),
			SmallMoney: fixed("NUMERIC(10,4)"),
			Float:      fixed("REAL"),
			Double:     fixed("DOUBLE PRECISION"),
			Char:       charRule("CHAR", "TEXT", 10485760),
			Varchar:    sized("VARCHAR", "TEXT", 10485760),
			Text:       fixed("TEXT"),
			UUID:       fixed("UUID"),
			Date:       fixed("DATE"),
			Time:       fixed("TIME"),
			DateTime:   fixed("TIMESTAMP"),
			DateTimeTZ: fixed("TIMESTAMPTZ"),
			Binary:     fixed("BYTEA"),
			JSON:       fixed("JSONB"),
		},
	},
	"mysql": {
		fallback: "LONGTEXT",
		rules: map[Tag]rule{
			Bool:       fixed("TINYINT(1)"),
			SmallInt:   fixed("SMALLINT"),
			Int:        fixed("INT"),
			BigInt:     fixed("BIGINT"),
			Decimal:    decimalRule("DECIMAL"),
			Money:      fixed("DECIMAL(19,4)"),
			SmallMoney: fixed("DECIMAL(10,4)"),
			Float:      fixed("FLOAT"),
			Double:     fixed("DOUBLE"),
			Char:       charRule("CHAR", "LONGTEXT", 255),
			Varchar:    sized("VARCHAR", "LONGTEXT", 16383),
			Text:       fixed("LONGTEXT"),
			UUID:       fixed("CHAR(36)"),
			Date:       fixed("DATE"),
			Time:       fixed("TIME"),
			DateTime:   fixed("DATETIME(6)"),
			DateTimeTZ: fixed("DATETIME(6)"),
			Binary:     fixed("LONGBLOB"),
			JSON:       fixed("JSON"),
		},
	},
	"sqlserver": {
		fallback: "NVARCHAR(MAX)",
		rules: map[Tag]rule{
			Bool:       fixed("BIT"),
			SmallInt:   fixed("SMALLINT"),
			Int:        fixed("INT"),
			BigInt:     fixed("BIGINT"),
			Decimal:    decimalRule("DECIMAL"),
			Money:      fixed("MONEY"),
			SmallMoney: fixed("SMALLMONEY"),
			Float:      fixed("REAL"),
			Double:     fixed("FLOAT"),
			Char:       charRule("NCHAR", "NVARCHAR(MAX)", 4000),
			Varchar:    sized("NVARCHAR", "NVARCHAR(MAX)", 4000),
			Text:       fixed("NVARCHAR(MAX)"),
			UUID:       fixed("UNIQUEIDENTIFIER"),
			Date:       fixed("DATE"),
			Time:       fixed("TIME"),
			DateTime:   fixed("DATETIME2"),
			DateTimeTZ: fixed("DATETIMEOFFSET"),
			Binary:     fixed("VARBINARY(MAX)"),
			JSON:       fixed("NVARCHAR(MAX)"),
		},
	},
	"oracle": {
		fallback: "CLOB",
		rules: map[Tag]rule{
			Bool:       fixed("NUMBER(1)"),
			SmallInt:   fixed("NUMBER(5)"),
			Int:        fixed("NUMBER(10)"),
			BigInt:     fixed("NUMBER(19)"),
			Decimal:    decimalRule("NUMBER"),
			Money:      fixed("NUMBER(19,4)"),
			SmallMoney: fixed("NUMBER(10,4)"),
			Float:      fixed("BINARY_FLOAT"),
			Double:     fixed("BINARY_DOUBLE"),
			Char:       charRule("CHAR", "CLOB", 2000),
			Varchar:    sized("VARCHAR2", "CLOB", 4000),
			Text:       fixed("CLOB"),
			UUID:       fixed("VARCHAR2(36)"),
			Date:       fixed("DATE"),
			Time:       fixed("VARCHAR2(18)"),
			DateTime:   fixed("TIMESTAMP"),
			DateTimeTZ: fixed("TIMESTAMP WITH TIME ZONE"),
			Binary:     fixed("BLOB"),
			JSON:       fixed("CLOB"),
		},
	},
	"sqlite": {
		fallback: "TEXT",
		rules: map[Tag]rule{
			Bool:       fixed("BOOLEAN"),
			SmallInt:   fixed("INTEGER"),
			Int:        fixed("INTEGER"),
			BigInt:     fixed("INTEGER"),
			Decimal:    decimalRule("DECIMAL"),
			Money:      fixed("DECIMAL(19,4)"),
			SmallMoney: fixed("DECIMAL(10,4)"),
			Float:      fixed("REAL"),
			Double:     fixed("REAL"),
			Char:       charRule("CHAR", "TEXT", 1<<30),
			Varchar:    sized("VARCHAR", "TEXT", 1<<30),
			Text:       fixed("TEXT"),
			UUID:       fixed("TEXT"),
			Date:       fixed("DATE"),
			Time:       fixed("TEXT"),
			DateTime:   fixed("DATETIME"),
			DateTimeTZ: fixed("DATETIME"),
			Binary:     fixed("BLOB"),
			JSON:       fixed("TEXT"),
		},
	},
}

// Map returns the DDL type for s on the named target dialect. It never
// fails: unknown tags and unknown targets fall back to a text type.
func Map(targetName string, s Spec) string {
	t, ok := targets[strings.ToLower(targetName)]
	if !ok {
		return "TEXT"
	}
	r, ok := t.rules[s.Tag]
	if !ok {
		return t.fallback
	}
	return r(s)
}

// Targets lists the dialects Map knows about.
func Targets() []string {
	return []string{"mysql", "oracle", "postgres", "sqlite", "sqlserver"}
}

// Orderable reports whether values of the tag can take part in an ORDER BY
// on every supported engine.
func Orderable(tag Tag) bool {
	switch tag {
	case Text, Binary, JSON, Unknown:
		return false
	}
	return true
}

// IsTemporal reports whether the tag holds a date or a timestamp.
func IsTemporal(tag Tag) bool {
	return tag == Date || tag == DateTime || tag == DateTimeTZ
}

// IsTextual reports whether the tag is carried as character data.
func IsTextual(tag Tag) bool {
	switch tag {
	case Char, Varchar, Text, Decimal, Money, SmallMoney, JSON, Unknown:
		return true
	}
	return false
}
