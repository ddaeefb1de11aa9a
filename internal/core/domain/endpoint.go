// Package domain defines the core request/response contract models.
package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Param is one schema entry.
// Default is only consulted when Required is false.
type Param struct {
	Type     ParamType
	Required bool
	Default  Value
}

// Schema maps parameter names to their declaration, keeping declaration
// order so that missing-parameter checks are reported deterministically.
type Schema struct {
	names  []string
	params map[string]Param
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{params: make(map[string]Param)}
}

// Require declares a required parameter.
func (s *Schema) Require(name string, t ParamType) *Schema {
	s.set(name, Param{Type: t, Required: true})
	return s
}

// Optional declares an optional parameter with the value substituted when it
// is absent from the query string.
func (s *Schema) Optional(name string, t ParamType, def Value) *Schema {
	s.set(name, Param{Type: t, Default: def})
	return s
}

func (s *Schema) set(name string, p Param) {
	if _, exists := s.params[name]; !exists {
		s.names = append(s.names, name)
	}
	s.params[name] = p
}

// Lookup returns the declaration of name.
func (s *Schema) Lookup(name string) (Param, bool) {
	if s == nil {
		return Param{}, false
	}
	p, ok := s.params[name]
	return p, ok
}

// Names returns the declared names in declaration order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of declared parameters.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Validate checks that every entry has a known type and that every optional
// entry carries a default of its declared type.
func (s *Schema) Validate() error {
	if s == nil {
		return nil
	}
	for _, name := range s.names {
		p := s.params[name]
		if name == "" {
			return errors.New("schema: empty parameter name")
		}
		if !p.Type.Valid() {
			return fmt.Errorf("schema: parameter %q has unknown type", name)
		}
		if p.Required {
			continue
		}
		if p.Default == nil {
			return fmt.Errorf("schema: optional parameter %q has no default", name)
		}
		if p.Default.Type() != p.Type {
			return fmt.Errorf("schema: parameter %q declared %s, default is %s", name, p.Type, p.Default.Type())
		}
	}
	return nil
}

// ContentKind is the declared response content of an endpoint.
type ContentKind int

// Response content kinds. ContentUnset emits no Content-Type header.
const (
	ContentUnset ContentKind = iota
	ContentJSON
	ContentText
	ContentXML
	ContentZIP
	ContentJS
	ContentMixed
)

// MultipartBoundary is the fixed boundary token of MIXED responses.
const MultipartBoundary = "restkit-part-boundary"

// MediaType returns the Content-Type value for the kind.
func (k ContentKind) MediaType() string {
	switch k {
	case ContentJSON:
		return "application/json"
	case ContentText:
		return "text/plain"
	case ContentXML:
		return "application/xml"
	case ContentZIP:
		return "application/zip"
	case ContentJS:
		return "text/javascript"
	case ContentMixed:
		return "multipart/mixed; boundary=" + MultipartBoundary
	default:
		return ""
	}
}

// String returns the kind's declaration name.
func (k ContentKind) String() string {
	switch k {
	case ContentJSON:
		return "JSON"
	case ContentText:
		return "TEXT"
	case ContentXML:
		return "XML"
	case ContentZIP:
		return "ZIP"
	case ContentJS:
		return "JS"
	case ContentMixed:
		return "MIXED"
	default:
		return "UNSET"
	}
}

// EndpointSpec is the contract of one registered route. It is built once at
// registration and read-only afterwards, so it is shared by all requests
// without locking.
type EndpointSpec struct {
	// Method is the expected HTTP method.
	Method string

	// Params is the query parameter schema. Nil means no parameters.
	Params *Schema

	// RequiresToken rejects requests without an "Authorization: Token <t>" header.
	RequiresToken bool

	// Negotiate runs the negotiate handshake before validation.
	Negotiate bool

	// CORS enables Access-Control-Allow-Origin and Access-Control-Allow-Headers.
	CORS bool

	// AllowedMethods are announced after OPTIONS in Access-Control-Allow-Methods.
	AllowedMethods []string

	// ExtraHeaders extends the base Access-Control-Allow-Headers list.
	ExtraHeaders string

	// Content is the response content kind.
	Content ContentKind

	// BodyExpected requires a non-empty request body.
	BodyExpected bool
}

// Validate checks the spec before it is registered.
func (e *EndpointSpec) Validate() error {
	if e.Method == "" {
		return errors.New("endpoint: method is required")
	}
	if e.Method != strings.ToUpper(e.Method) {
		return fmt.Errorf("endpoint: method %q must be upper case", e.Method)
	}
	if e.Method == http.MethodOptions {
		return errors.New("endpoint: OPTIONS is answered implicitly and cannot be the expected method")
	}
	if err := e.Params.Validate(); err != nil {
		return err
	}
	return nil
}

// AllowMethods returns the Access-Control-Allow-Methods value.
func (e *EndpointSpec) AllowMethods() string {
	var b strings.Builder
	b.WriteString(http.MethodOptions)
	for _, m := range e.AllowedMethods {
		b.WriteString(", ")
		b.WriteString(m)
	}
	return b.String()
}
