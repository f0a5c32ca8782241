package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"db-move/internal/dialect"
	"db-move/internal/schema"
	"db-move/internal/typemap"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

var errNotBool = errors.New("value is not a boolean")

// Coercer converts source driver values into values the target driver
// accepts for a column's canonical type.
type Coercer struct {
	source dialect.Dialect
	target string
}

func NewCoercer(source dialect.Dialect, target string) *Coercer {
	return &Coercer{source: source, target: target}
}

// Row coerces row in place. cols and row are aligned.
func (c *Coercer) Row(cols []schema.Column, row []any) error {
	for i, col := range cols {
		v, err := c.Coerce(col.Tag, row[i])
		if err != nil {
			return fmt.Errorf("column %s: %w", col.Name, err)
		}
		row[i] = v
	}
	return nil
}

// Coerce converts one value.
func (c *Coercer) Coerce(tag typemap.Tag, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch {
	case tag == typemap.Bool:
		return toBool(v)
	case tag == typemap.UUID:
		return c.toUUID(v)
	case typemap.IsTemporal(tag):
		return toTime(v)
	case typemap.IsTextual(tag):
		return c.toText(v), nil
	default:
		return v, nil
	}
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case []byte:
		if len(b) == 1 {
			switch b[0] {
			case 0, '0':
				return false, nil
			case 1, '1':
				return true, nil
			}
		}
		return parseBool(string(b))
	case string:
		return parseBool(b)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, err := cast.ToInt64E(b)
		if err != nil {
			return false, err
		}
		switch n {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return false, fmt.Errorf("%w: %d", errNotBool, n)
	default:
		return false, fmt.Errorf("%w: %T", errNotBool, v)
	}
}

func parseBool(s string) (bool, error) {
	b, err := cast.ToBoolE(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("%w: %q", errNotBool, s)
	}
	return b, nil
}

func (c *Coercer) toUUID(v any) (string, error) {
	switch u := v.(type) {
	case []byte:
		if len(u) == 16 {
			if dec, ok := c.source.(dialect.UUIDDecoder); ok {
				return dec.DecodeUUID(u)
			}
			id, err := uuid.FromBytes(u)
			if err != nil {
				return "", err
			}
			return id.String(), nil
		}
		return parseUUID(string(u))
	case string:
		return parseUUID(u)
	case [16]byte:
		return uuid.UUID(u).String(), nil
	case fmt.Stringer:
		return parseUUID(u.String())
	default:
		return "", fmt.Errorf("unsupported uuid value of type %T", v)
	}
}

func parseUUID(s string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid uuid %q: %w", s, err)
	}
	return id.String(), nil
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case []byte:
		v = string(t)
	}
	ts, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %v: %w", v, err)
	}
	return ts, nil
}

// toText turns driver byte slices into strings. Postgres rejects NUL in text.
func (c *Coercer) toText(v any) any {
	var s string
	switch t := v.(type) {
	case []byte:
		s = string(t)
	case string:
		s = t
	default:
		return v
	}
	if c.target == "postgres" {
		s = strings.ReplaceAll(s, "\x00", "")
	}
	return s
}
