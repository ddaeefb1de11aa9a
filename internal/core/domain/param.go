// Package domain defines the core request/response contract models.
package domain

import (
	"fmt"
	"strconv"
	"time"
)

// ParamType is the declared type of a query parameter.
type ParamType int

// Supported parameter types.
const (
	TypeBoolean ParamType = iota + 1
	TypeInteger
	TypeDouble
	TypeDate
	TypeString
)

// DateLayout is the only accepted DATE format (yyyy-MM-dd).
const DateLayout = "2006-01-02"

// String returns the schema name of the type.
func (t ParamType) String() string {
	switch t {
	case TypeBoolean:
		return "BOOLEAN"
	case TypeInteger:
		return "INT"
	case TypeDouble:
		return "DOUBLE"
	case TypeDate:
		return "DATE"
	case TypeString:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether t is one of the supported types.
func (t ParamType) Valid() bool {
	return t >= TypeBoolean && t <= TypeString
}

// Value is an immutable parameter value holding exactly one of the supported
// types. The concrete types are BoolValue, IntValue, DoubleValue, DateValue
// and StringValue; extract with the As* helpers, which fail on a mismatch.
type Value interface {
	// Type reports which variant is populated.
	Type() ParamType
	// String renders the value in its query-string form.
	String() string
	// Any returns the value as a plain Go value (bool, int64, float64, string).
	// Dates are rendered in DateLayout.
	Any() any

	isValue()
}

// BoolValue is the BOOLEAN variant.
type BoolValue bool

// IntValue is the INT variant.
type IntValue int64

// DoubleValue is the DOUBLE variant.
type DoubleValue float64

// DateValue is the DATE variant: a calendar date at UTC midnight.
type DateValue struct {
	t time.Time
}

// StringValue is the STRING variant.
type StringValue string

func (BoolValue) Type() ParamType   { return TypeBoolean }
func (IntValue) Type() ParamType    { return TypeInteger }
func (DoubleValue) Type() ParamType { return TypeDouble }
func (DateValue) Type() ParamType   { return TypeDate }
func (StringValue) Type() ParamType { return TypeString }

func (v BoolValue) String() string   { return strconv.FormatBool(bool(v)) }
func (v IntValue) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v DoubleValue) String() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v DateValue) String() string   { return v.t.Format(DateLayout) }
func (v StringValue) String() string { return string(v) }

func (v BoolValue) Any() any   { return bool(v) }
func (v IntValue) Any() any    { return int64(v) }
func (v DoubleValue) Any() any { return float64(v) }
func (v DateValue) Any() any   { return v.String() }
func (v StringValue) Any() any { return string(v) }

func (BoolValue) isValue()   {}
func (IntValue) isValue()    {}
func (DoubleValue) isValue() {}
func (DateValue) isValue()   {}
func (StringValue) isValue() {}

// Time returns the date as a time.Time at UTC midnight.
func (v DateValue) Time() time.Time {
	return v.t
}

// NewBool creates a BOOLEAN value.
func NewBool(b bool) Value { return BoolValue(b) }

// NewInt creates an INT value.
func NewInt(i int64) Value { return IntValue(i) }

// NewDouble creates a DOUBLE value.
func NewDouble(f float64) Value { return DoubleValue(f) }

// NewString creates a STRING value.
func NewString(s string) Value { return StringValue(s) }

// NewDate creates a DATE value from its calendar components.
// Out-of-range components are normalized the way time.Date does.
func NewDate(year int, month time.Month, day int) Value {
	return DateValue{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf creates a DATE value from the calendar date of t in t's location.
func DateOf(t time.Time) Value {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a yyyy-MM-dd literal, rejecting impossible calendar dates.
func ParseDate(s string) (Value, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return DateValue{t: t}, nil
}

func mismatch(v Value, want ParamType) error {
	got := "nil"
	if v != nil {
		got = v.Type().String()
	}
	return ErrTypeMismatch.WithDetails(fmt.Sprintf("%s requested, %s stored", want, got))
}

// AsBool extracts a BOOLEAN value.
func AsBool(v Value) (bool, error) {
	if b, ok := v.(BoolValue); ok {
		return bool(b), nil
	}
	return false, mismatch(v, TypeBoolean)
}

// AsInt extracts an INT value.
func AsInt(v Value) (int64, error) {
	if i, ok := v.(IntValue); ok {
		return int64(i), nil
	}
	return 0, mismatch(v, TypeInteger)
}

// AsDouble extracts a DOUBLE value.
func AsDouble(v Value) (float64, error) {
	if f, ok := v.(DoubleValue); ok {
		return float64(f), nil
	}
	return 0, mismatch(v, TypeDouble)
}

// AsDate extracts a DATE value.
func AsDate(v Value) (time.Time, error) {
	if d, ok := v.(DateValue); ok {
		return d.t, nil
	}
	return time.Time{}, mismatch(v, TypeDate)
}

// AsString extracts a STRING value.
func AsString(v Value) (string, error) {
	if s, ok := v.(StringValue); ok {
		return string(s), nil
	}
	return "", mismatch(v, TypeString)
}
