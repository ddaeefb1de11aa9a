package service

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/restkit-go/internal/core/domain"
)

func personSpec() *domain.EndpointSpec {
	return &domain.EndpointSpec{
		Method: http.MethodGet,
		Params: domain.NewSchema().
			Require("name", domain.TypeString).
			Optional("age", domain.TypeInteger, domain.NewInt(-1)),
	}
}

func TestValidator_Validate_DefaultSubstituted(t *testing.T) {
	v := NewValidator(ValidatorConfig{})

	got, err := v.Validate(personSpec(), &ValidateInput{RawQuery: "name=Alice", Method: http.MethodGet, ConnID: "c1"})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if name := got.Values.MustString("name"); name != "Alice" {
		t.Errorf("name = %q, want %q", name, "Alice")
	}
	if age := got.Values.MustInt("age"); age != -1 {
		t.Errorf("age = %d, want -1", age)
	}
	if got.ConnID != "c1" {
		t.Errorf("ConnID = %q, want %q", got.ConnID, "c1")
	}
	if got.Preflight {
		t.Error("Preflight = true, want false")
	}
}

func TestValidator_Validate_Errors(t *testing.T) {
	v := NewValidator(ValidatorConfig{})

	tests := []struct {
		name    string
		method  string
		query   string
		wantErr *domain.DomainError
		wantMsg string
	}{
		{"invalid integer", http.MethodGet, "name=Alice&age=oops", domain.ErrInvalidInteger, "Parameter age?oops incorrect integer value"},
		{"unknown parameter", http.MethodGet, "flag=true", domain.ErrUnknownParameter, "Parameter flag not expected."},
		{"missing required", http.MethodGet, "age=3", domain.ErrMissingParameter, "Parameter name not found in url"},
		{"missing required empty query", http.MethodGet, "", domain.ErrMissingParameter, "Parameter name not found in url"},
		{"method mismatch", http.MethodPost, "name=Alice", domain.ErrMethodNotAllowed, "GET method expected, POST provided."},
		{"malformed escape", http.MethodGet, "name=%zz", domain.ErrMalformedQuery, ""},
		{"integer overflow", http.MethodGet, "name=a&age=9223372036854775808", domain.ErrInvalidInteger, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(personSpec(), &ValidateInput{RawQuery: tt.query, Method: tt.method})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg == "" {
				return
			}
			var de *domain.DomainError
			if !errors.As(err, &de) {
				t.Fatalf("error %T is not a DomainError", err)
			}
			if de.ClientMessage() != tt.wantMsg {
				t.Errorf("ClientMessage() = %q, want %q", de.ClientMessage(), tt.wantMsg)
			}
		})
	}
}

func TestValidator_Validate_FailFast(t *testing.T) {
	v := NewValidator(ValidatorConfig{})

	// The first violation wins even though a later pair is also bad.
	_, err := v.Validate(personSpec(), &ValidateInput{RawQuery: "age=x&bogus=1", Method: http.MethodGet})
	if !errors.Is(err, domain.ErrInvalidInteger) {
		t.Errorf("Validate() error = %v, want ErrInvalidInteger", err)
	}

	_, err = v.Validate(personSpec(), &ValidateInput{RawQuery: "bogus=1&age=x", Method: http.MethodGet})
	if !errors.Is(err, domain.ErrUnknownParameter) {
		t.Errorf("Validate() error = %v, want ErrUnknownParameter", err)
	}
}

func TestValidator_Validate_Preflight(t *testing.T) {
	v := NewValidator(ValidatorConfig{})

	// A malformed query never produces a validation error for OPTIONS.
	got, err := v.Validate(personSpec(), &ValidateInput{RawQuery: "%zz&bogus", Method: http.MethodOptions})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !got.Preflight {
		t.Error("Preflight = false, want true")
	}
	if len(got.Values) != 0 {
		t.Errorf("Values = %v, want empty", got.Values)
	}
}

func TestValidator_Validate_SplitOnFirstEquals(t *testing.T) {
	v := NewValidator(ValidatorConfig{})
	spec := &domain.EndpointSpec{
		Method: http.MethodGet,
		Params: domain.NewSchema().
			Require("expr", domain.TypeString).
			Optional("note", domain.TypeString, domain.NewString("none")),
	}

	tests := []struct {
		query    string
		wantExpr string
		wantNote string
	}{
		{"expr=a=b", "a=b", "none"},
		{"expr=a%3Db%3Dc", "a=b=c", "none"},
		{"expr", "", "none"},
		{"expr=&note=", "", ""},
		{"expr=x&&note=hi", "x", "hi"},
		{"expr=one&expr=two", "two", "none"},
		{"expr=hello+world", "hello world", "none"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := v.Validate(spec, &ValidateInput{RawQuery: tt.query, Method: http.MethodGet})
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if s := got.Values.MustString("expr"); s != tt.wantExpr {
				t.Errorf("expr = %q, want %q", s, tt.wantExpr)
			}
			if s := got.Values.MustString("note"); s != tt.wantNote {
				t.Errorf("note = %q, want %q", s, tt.wantNote)
			}
		})
	}
}

func TestDecodeValue(t *testing.T) {
	tests := []struct {
		name    string
		typ     domain.ParamType
		raw     string
		want    any
		wantErr error
	}{
		{"bool true", domain.TypeBoolean, "true", true, nil},
		{"bool false", domain.TypeBoolean, "false", false, nil},
		{"bool capitalized", domain.TypeBoolean, "True", nil, domain.ErrInvalidBoolean},
		{"bool one", domain.TypeBoolean, "1", nil, domain.ErrInvalidBoolean},
		{"bool empty", domain.TypeBoolean, "", nil, domain.ErrInvalidBoolean},
		{"int", domain.TypeInteger, "42", int64(42), nil},
		{"int negative", domain.TypeInteger, "-7", int64(-7), nil},
		{"int float", domain.TypeInteger, "4.2", nil, domain.ErrInvalidInteger},
		{"int hex", domain.TypeInteger, "0x10", nil, domain.ErrInvalidInteger},
		{"double", domain.TypeDouble, "3.5", 3.5, nil},
		{"double exponent", domain.TypeDouble, "1e3", 1000.0, nil},
		{"double junk", domain.TypeDouble, "abc", nil, domain.ErrInvalidDouble},
		{"double nan", domain.TypeDouble, "NaN", nil, domain.ErrInvalidDouble},
		{"double nan lower", domain.TypeDouble, "nan", nil, domain.ErrInvalidDouble},
		{"double inf", domain.TypeDouble, "inf", nil, domain.ErrInvalidDouble},
		{"double negative infinity", domain.TypeDouble, "-Infinity", nil, domain.ErrInvalidDouble},
		{"double overflow", domain.TypeDouble, "1e400", nil, domain.ErrInvalidDouble},
		{"date", domain.TypeDate, "2024-02-29", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), nil},
		{"date bad month", domain.TypeDate, "2024-13-01", nil, domain.ErrInvalidDate},
		{"date wrong layout", domain.TypeDate, "01/02/2024", nil, domain.ErrInvalidDate},
		{"string", domain.TypeString, "anything goes", "anything goes", nil},
		{"string empty", domain.TypeString, "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeValue("p", tt.typ, tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DecodeValue() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeValue() error = %v", err)
			}
			if got.Type() != tt.typ {
				t.Errorf("Type() = %v, want %v", got.Type(), tt.typ)
			}
			if d, ok := tt.want.(time.Time); ok {
				gotT, _ := domain.AsDate(got)
				if !gotT.Equal(d) {
					t.Errorf("date = %v, want %v", gotT, d)
				}
				return
			}
			if got.Any() != tt.want {
				t.Errorf("Any() = %v, want %v", got.Any(), tt.want)
			}
		})
	}
}

func TestDecodeValue_BooleanMessage(t *testing.T) {
	_, err := DecodeValue("flag", domain.TypeBoolean, "yes")
	var de *domain.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("error %T is not a DomainError", err)
	}
	want := "Parameter flag ? yes true or false expected"
	if de.ClientMessage() != want {
		t.Errorf("ClientMessage() = %q, want %q", de.ClientMessage(), want)
	}
}

func TestValidator_RoundTrip(t *testing.T) {
	v := NewValidator(ValidatorConfig{})
	spec := &domain.EndpointSpec{
		Method: http.MethodGet,
		Params: domain.NewSchema().
			Require("b", domain.TypeBoolean).
			Require("i", domain.TypeInteger).
			Require("f", domain.TypeDouble).
			Require("d", domain.TypeDate).
			Require("s", domain.TypeString),
	}
	in := domain.Params{
		"b": domain.NewBool(true),
		"i": domain.NewInt(-12345),
		"f": domain.NewDouble(0.25),
		"d": domain.NewDate(1999, time.December, 31),
		"s": domain.NewString("hello world=x"),
	}

	// Encode: the whole query is percent-decoded once, so each value is escaped once.
	var pairs []string
	for _, name := range spec.Params.Names() {
		pairs = append(pairs, name+"="+escapeForQuery(in[name].String()))
	}

	got, err := v.Validate(spec, &ValidateInput{RawQuery: strings.Join(pairs, "&"), Method: http.MethodGet})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	for name, want := range in {
		if got.Values[name].String() != want.String() {
			t.Errorf("%s = %q, want %q", name, got.Values[name].String(), want.String())
		}
	}
}

// escapeForQuery escapes only characters that change meaning after the
// query string is decoded as a whole.
func escapeForQuery(s string) string {
	return strings.NewReplacer("%", "%25", "+", "%2B", " ", "+").Replace(s)
}

func TestValidator_Body(t *testing.T) {
	spec := &domain.EndpointSpec{Method: http.MethodPost, BodyExpected: true}

	tests := []struct {
		name    string
		body    io.Reader
		max     int64
		want    string
		wantErr error
	}{
		{"present", strings.NewReader("payload"), 0, "payload", nil},
		{"nil", nil, 0, "", domain.ErrEmptyBodyExpected},
		{"no body", http.NoBody, 0, "", domain.ErrEmptyBodyExpected},
		{"zero length", strings.NewReader(""), 0, "", domain.ErrEmptyBodyExpected},
		{"at limit", strings.NewReader("12345"), 5, "12345", nil},
		{"over limit", strings.NewReader("123456"), 5, "", domain.ErrBodyTooLarge},
		{"read failure", iotestErrReader{}, 0, "", domain.ErrRequestAborted},
		{"max bytes reader", http.MaxBytesReader(httptest.NewRecorder(), io.NopCloser(strings.NewReader("123456")), 5), 100, "", domain.ErrBodyTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(ValidatorConfig{MaxBodyBytes: tt.max})
			got, err := v.Validate(spec, &ValidateInput{Method: http.MethodPost, Body: tt.body})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if string(got.Body) != tt.want {
				t.Errorf("Body = %q, want %q", got.Body, tt.want)
			}
		})
	}
}

func TestValidator_BodyIgnoredWhenNotExpected(t *testing.T) {
	v := NewValidator(ValidatorConfig{})
	spec := &domain.EndpointSpec{Method: http.MethodPost}

	got, err := v.Validate(spec, &ValidateInput{Method: http.MethodPost, Body: strings.NewReader("ignored")})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got.Body != nil {
		t.Errorf("Body = %q, want nil", got.Body)
	}
}

type iotestErrReader struct{}

func (iotestErrReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestValidator_MaxBodyBytes(t *testing.T) {
	if got := NewValidator(ValidatorConfig{}).MaxBodyBytes(); got != DefaultMaxBodyBytes {
		t.Errorf("MaxBodyBytes() = %d, want %d", got, DefaultMaxBodyBytes)
	}

	v := NewValidator(ValidatorConfig{MaxBodyBytes: 100})
	if got := v.MaxBodyBytes(); got != 100 {
		t.Errorf("MaxBodyBytes() = %d, want 100", got)
	}

	body := http.MaxBytesReader(httptest.NewRecorder(), io.NopCloser(strings.NewReader("123456")), 5)
	_, err := v.Validate(&domain.EndpointSpec{Method: http.MethodPost, BodyExpected: true},
		&ValidateInput{Method: http.MethodPost, Body: body})
	if !errors.Is(err, domain.ErrBodyTooLarge) {
		t.Fatalf("Validate() error = %v, want %v", err, domain.ErrBodyTooLarge)
	}
	if !strings.Contains(err.Error(), "exceeds 5 bytes") {
		t.Errorf("error = %q, want the reader's limit", err.Error())
	}
}
