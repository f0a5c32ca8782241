package typemap_test

import (
	"strings"
	"testing"

	"db-move/internal/typemap"

	"github.com/stretchr/testify/assert"
)

func TestMapPostgres(t *testing.T) {
	tests := []struct {
		name string
		spec typemap.Spec
		want string
	}{
		{"int", typemap.Spec{Tag: typemap.Int}, "INTEGER"},
		{"bit", typemap.Spec{Tag: typemap.Bool}, "BOOLEAN"},
		{"decimal", typemap.Spec{Tag: typemap.Decimal, Precision: 18, Scale: 4}, "NUMERIC(18,4)"},
		{"decimal no precision", typemap.Spec{Tag: typemap.Decimal}, "NUMERIC"},
		{"money", typemap.Spec{Tag: typemap.Money}, "NUMERIC(19,4)"},
		{"smallmoney", typemap.Spec{Tag: typemap.SmallMoney}, "NUMERIC(10,4)"},
		{"varchar", typemap.Spec{Tag: typemap.Varchar, Length: 50}, "VARCHAR(50)"},
		{"varchar max", typemap.Spec{Tag: typemap.Varchar, Length: typemap.Unbounded}, "TEXT"},
		{"varchar no length", typemap.Spec{Tag: typemap.Varchar}, "TEXT"},
		{"char", typemap.Spec{Tag: typemap.Char, Length: 3}, "CHAR(3)"},
		{"char no length", typemap.Spec{Tag: typemap.Char}, "CHAR(1)"},
		{"uniqueidentifier", typemap.Spec{Tag: typemap.UUID}, "UUID"},
		{"datetime2", typemap.Spec{Tag: typemap.DateTime}, "TIMESTAMP"},
		{"varbinary", typemap.Spec{Tag: typemap.Binary}, "BYTEA"},
		{"unknown", typemap.Spec{Tag: typemap.Unknown}, "TEXT"},
		{"unlisted tag", typemap.Spec{Tag: typemap.Tag("geography")}, "TEXT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, typemap.Map("postgres", tt.spec))
		})
	}
}

func TestMapDecimalKeepsPrecisionEverywhere(t *testing.T) {
	spec := typemap.Spec{Tag: typemap.Decimal, Precision: 18, Scale: 4}
	for _, target := range typemap.Targets() {
		got := typemap.Map(target, spec)
		assert.Truef(t, strings.Contains(got, "18") && strings.Contains(got, "4"),
			"Map(%s, %+v) = %q, want precision and scale", target, spec, got)
	}
}

func TestMapUnboundedIsText(t *testing.T) {
	want := map[string]string{
		"postgres":  "TEXT",
		"mysql":     "LONGTEXT",
		"sqlserver": "NVARCHAR(MAX)",
		"oracle":    "CLOB",
		"sqlite":    "TEXT",
	}
	for target, w := range want {
		spec := typemap.Spec{Tag: typemap.Varchar, Length: typemap.Unbounded}
		assert.Equal(t, w, typemap.Map(target, spec), target)
		assert.Equal(t, w, typemap.Map(target, typemap.Spec{Tag: typemap.Unknown}), target)
	}
}

func TestMapOversizedVarchar(t *testing.T) {
	spec := typemap.Spec{Tag: typemap.Varchar, Length: 4294967295}
	assert.Equal(t, "LONGTEXT", typemap.Map("mysql", spec))
	assert.Equal(t, "NVARCHAR(MAX)", typemap.Map("sqlserver", typemap.Spec{Tag: typemap.Varchar, Length: 8000}))
	assert.Equal(t, "NVARCHAR(4000)", typemap.Map("sqlserver", typemap.Spec{Tag: typemap.Varchar, Length: 4000}))
}

func TestMapEveryTagOnEveryTarget(t *testing.T) {
	tags := []typemap.Tag{
		typemap.Bool, typemap.SmallInt, typemap.Int, typemap.BigInt, typemap.Decimal,
		typemap.Money, typemap.SmallMoney, typemap.Float, typemap.Double, typemap.Char,
		typemap.Varchar, typemap.Text, typemap.UUID, typemap.Date, typemap.Time,
		typemap.DateTime, typemap.DateTimeTZ, typemap.Binary, typemap.JSON, typemap.Unknown,
	}
	for _, target := range typemap.Targets() {
		for _, tag := range tags {
			assert.NotEmptyf(t, typemap.Map(target, typemap.Spec{Tag: tag, Length: 10}), "%s/%s", target, tag)
		}
	}
	assert.Equal(t, "TEXT", typemap.Map("db2", typemap.Spec{Tag: typemap.Int}))
}

func TestTagClasses(t *testing.T) {
	assert.True(t, typemap.Orderable(typemap.Int))
	assert.False(t, typemap.Orderable(typemap.Text))
	assert.False(t, typemap.Orderable(typemap.Binary))
	assert.True(t, typemap.IsTemporal(typemap.DateTime))
	assert.False(t, typemap.IsTemporal(typemap.Time))
	assert.True(t, typemap.IsTextual(typemap.Varchar))
	assert.False(t, typemap.IsTextual(typemap.Bool))
}
