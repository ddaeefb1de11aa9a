// Package domain defines the core request/response contract models.
package domain

import (
	"fmt"
	"time"
)

// Params holds validated query parameter values keyed by name.
type Params map[string]Value

// ParsedRequest is the outcome of validation. It is built once per request,
// owned by the handler invocation and never shared across requests.
type ParsedRequest struct {
	// Values are the decoded parameters, defaults included.
	Values Params

	// Method is the transport method.
	Method string

	// Body is the full request body when the endpoint expects one.
	Body []byte

	// ConnID identifies the transport connection the request arrived on.
	ConnID string

	// Preflight is set for OPTIONS requests; Values is empty in that case.
	Preflight bool
}

func (p Params) lookup(name string) (Value, error) {
	v, ok := p[name]
	if !ok {
		return nil, ErrTypeMismatch.WithDetails(fmt.Sprintf("parameter %s not declared", name))
	}
	return v, nil
}

// Bool returns the BOOLEAN parameter name.
func (p Params) Bool(name string) (bool, error) {
	v, err := p.lookup(name)
	if err != nil {
		return false, err
	}
	return AsBool(v)
}

// Int returns the INT parameter name.
func (p Params) Int(name string) (int64, error) {
	v, err := p.lookup(name)
	if err != nil {
		return 0, err
	}
	return AsInt(v)
}

// Double returns the DOUBLE parameter name.
func (p Params) Double(name string) (float64, error) {
	v, err := p.lookup(name)
	if err != nil {
		return 0, err
	}
	return AsDouble(v)
}

// Date returns the DATE parameter name.
func (p Params) Date(name string) (time.Time, error) {
	v, err := p.lookup(name)
	if err != nil {
		return time.Time{}, err
	}
	return AsDate(v)
}

// String returns the STRING parameter name.
func (p Params) String(name string) (string, error) {
	v, err := p.lookup(name)
	if err != nil {
		return "", err
	}
	return AsString(v)
}

// MustBool is Bool that panics on a type mismatch.
func (p Params) MustBool(name string) bool {
	b, err := p.Bool(name)
	if err != nil {
		panic(err)
	}
	return b
}

// MustInt is Int that panics on a type mismatch.
func (p Params) MustInt(name string) int64 {
	i, err := p.Int(name)
	if err != nil {
		panic(err)
	}
	return i
}

// MustDouble is Double that panics on a type mismatch.
func (p Params) MustDouble(name string) float64 {
	f, err := p.Double(name)
	if err != nil {
		panic(err)
	}
	return f
}

// MustDate is Date that panics on a type mismatch.
func (p Params) MustDate(name string) time.Time {
	d, err := p.Date(name)
	if err != nil {
		panic(err)
	}
	return d
}

// MustString is String that panics on a type mismatch.
func (p Params) MustString(name string) string {
	s, err := p.String(name)
	if err != nil {
		panic(err)
	}
	return s
}

// AsMap renders the values as plain Go values, e.g. for JSON encoding.
func (p Params) AsMap() map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v.Any()
	}
	return out
}
