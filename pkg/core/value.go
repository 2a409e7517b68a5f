// Package core defines the shared types of the PharosDB data-access layer:
// result values and rows, and the per-database connection configuration.
//
// Row values are modeled as a small tagged union rather than bare `any` so
// callers keep type information without depending on driver-specific types.
package core

import (
	"fmt"
	"strconv"
	"time"
)

// Kind identifies the dynamic type carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindTime
)

// String returns the kind name for logging and error messages.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Value is a single result cell. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	bs   []byte
	t    time.Time
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int wraps a 64-bit integer.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float wraps a 64-bit float.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// String wraps a string.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Bytes wraps a byte slice.
func Bytes(v []byte) Value { return Value{kind: KindBytes, bs: v} }

// Time wraps a timestamp.
func Time(v time.Time) Value { return Value{kind: KindTime, t: v} }

// FromDriver normalizes a value scanned from database/sql into a Value.
// Drivers hand back a small closed set of Go types; anything outside it is
// stringified so no row ever fails to materialize.
func FromDriver(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(x)
	case int64:
		return Int(x)
	case int:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case float64:
		return Float(x)
	case float32:
		return Float(float64(x))
	case string:
		return String(x)
	case []byte:
		// Copy: drivers may reuse the buffer between scans.
		b := make([]byte, len(x))
		copy(b, x)
		return Bytes(b)
	case time.Time:
		return Time(x)
	default:
		return String(fmt.Sprint(x))
	}
}

// Kind returns the dynamic type of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload; false for any other kind.
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload; 0 for any other kind.
func (v Value) Int() int64 { return v.i }

// Float returns the float payload, converting an integer payload if present.
func (v Value) Float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Time returns the timestamp payload; the zero time for any other kind.
func (v Value) Time() time.Time { return v.t }

// Bytes returns the raw bytes payload; nil for any other kind.
func (v Value) Bytes() []byte { return v.bs }

// Any returns the payload as a plain Go value (nil for null), suitable for
// JSON encoding or driver parameters.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBytes:
		return v.bs
	case KindTime:
		return v.t
	default:
		return nil
	}
}

// String renders the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindBytes:
		return string(v.bs)
	case KindTime:
		return v.t.Format(time.RFC3339)
	default:
		return ""
	}
}

// Row is an ordered mapping from column name to Value. Column order follows
// the result set; duplicate column names keep the last value but every name
// still appears in Columns().
type Row struct {
	columns []string
	values  map[string]Value
}

// NewRow builds a row from parallel column and value slices.
func NewRow(columns []string, values []Value) Row {
	m := make(map[string]Value, len(columns))
	for i, col := range columns {
		if i < len(values) {
			m[col] = values[i]
		}
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return Row{columns: cols, values: m}
}

// Columns returns the column names in result-set order.
func (r Row) Columns() []string { return r.columns }

// Len returns the number of columns.
func (r Row) Len() int { return len(r.columns) }

// Value returns the value for a column and whether the column exists.
func (r Row) Value(column string) (Value, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Get returns the value for a column, or null when the column is absent.
func (r Row) Get(column string) Value { return r.values[column] }

// Map flattens the row into plain Go values keyed by column name.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for _, col := range r.columns {
		m[col] = r.values[col].Any()
	}
	return m
}
