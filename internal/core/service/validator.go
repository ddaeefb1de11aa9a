// Package service provides the request contract services.
package service

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yndnr/restkit-go/internal/core/domain"
)

// DefaultMaxBodyBytes bounds request bodies read by the validator (8 MiB).
const DefaultMaxBodyBytes = 8 << 20

// ValidatorConfig holds configuration for Validator.
type ValidatorConfig struct {
	// MaxBodyBytes bounds the request body. Zero or negative means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Validator turns an untyped query string into typed values under an
// endpoint's schema. It holds no per-request state and is safe for
// concurrent use.
type Validator struct {
	maxBodyBytes int64
}

// NewValidator creates a Validator.
func NewValidator(cfg ValidatorConfig) *Validator {
	limit := cfg.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	return &Validator{maxBodyBytes: limit}
}

// MaxBodyBytes returns the request body limit.
func (v *Validator) MaxBodyBytes() int64 {
	return v.maxBodyBytes
}

// ValidateInput is the raw request material handed over by the transport.
type ValidateInput struct {
	// RawQuery is the undecoded query string, without the leading '?'.
	RawQuery string

	// Method is the transport method.
	Method string

	// Body is the request body. It is only read when the endpoint expects one.
	Body io.Reader

	// ConnID identifies the transport connection.
	ConnID string
}

// Validate checks in against spec and assembles the ParsedRequest.
//
// Validation is fail-fast: the first violation is returned and nothing after
// it is examined. OPTIONS requests are never validated and come back with
// Preflight set.
func (v *Validator) Validate(spec *domain.EndpointSpec, in *ValidateInput) (*domain.ParsedRequest, error) {
	if in.Method == http.MethodOptions {
		return &domain.ParsedRequest{
			Values:    domain.Params{},
			Method:    in.Method,
			ConnID:    in.ConnID,
			Preflight: true,
		}, nil
	}

	if in.Method != spec.Method {
		return nil, domain.ErrMethodNotAllowed.WithDetailsf("%s method expected, %s provided.", spec.Method, in.Method)
	}

	values, err := v.decodeQuery(spec.Params, in.RawQuery)
	if err != nil {
		return nil, err
	}

	parsed := &domain.ParsedRequest{
		Values: values,
		Method: in.Method,
		ConnID: in.ConnID,
	}

	if spec.BodyExpected {
		body, err := v.readBody(in.Body)
		if err != nil {
			return nil, err
		}
		parsed.Body = body
	}

	return parsed, nil
}

// decodeQuery decodes the whole query string, then splits pairs on '&' and
// each pair on its first '='.
func (v *Validator) decodeQuery(schema *domain.Schema, rawQuery string) (domain.Params, error) {
	values := make(domain.Params, schema.Len())

	if rawQuery != "" {
		query, err := url.QueryUnescape(rawQuery)
		if err != nil {
			return nil, domain.ErrMalformedQuery.WithDetailsf("Query %s cannot be decoded", rawQuery).WithCause(err)
		}

		for _, pair := range strings.Split(query, "&") {
			if pair == "" {
				continue
			}
			name, raw, _ := strings.Cut(pair, "=")

			param, ok := schema.Lookup(name)
			if !ok {
				return nil, domain.ErrUnknownParameter.WithDetailsf("Parameter %s not expected.", name)
			}

			value, err := DecodeValue(name, param.Type, raw)
			if err != nil {
				return nil, err
			}
			values[name] = value
		}
	}

	for _, name := range schema.Names() {
		if _, ok := values[name]; ok {
			continue
		}
		param, _ := schema.Lookup(name)
		if param.Required {
			return nil, domain.ErrMissingParameter.WithDetailsf("Parameter %s not found in url", name)
		}
		values[name] = param.Default
	}

	return values, nil
}

// DecodeValue converts one raw query value into the declared type.
func DecodeValue(name string, t domain.ParamType, raw string) (domain.Value, error) {
	switch t {
	case domain.TypeBoolean:
		switch raw {
		case "true":
			return domain.NewBool(true), nil
		case "false":
			return domain.NewBool(false), nil
		}
		return nil, domain.ErrInvalidBoolean.WithDetailsf("Parameter %s ? %s true or false expected", name, raw)

	case domain.TypeInteger:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, domain.ErrInvalidInteger.WithDetailsf("Parameter %s?%s incorrect integer value", name, raw).WithCause(err)
		}
		return domain.NewInt(i), nil

	case domain.TypeDouble:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, domain.ErrInvalidDouble.WithDetailsf("Parameter %s?%s incorrect double value", name, raw).WithCause(err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, domain.ErrInvalidDouble.WithDetailsf("Parameter %s?%s incorrect double value", name, raw)
		}
		return domain.NewDouble(f), nil

	case domain.TypeDate:
		d, err := domain.ParseDate(raw)
		if err != nil {
			return nil, domain.ErrInvalidDate.WithDetailsf("Parameter %s?%s incorrect date value, %s expected", name, raw, "yyyy-MM-dd").WithCause(err)
		}
		return d, nil

	case domain.TypeString:
		return domain.NewString(raw), nil

	default:
		return nil, domain.ErrInternal.WithDetails(fmt.Sprintf("parameter %s declared with unknown type", name))
	}
}

// readBody reads the entire body, enforcing the size limit. A body already
// bounded by http.MaxBytesReader reports that reader's limit.
func (v *Validator) readBody(body io.Reader) ([]byte, error) {
	if body == nil || body == http.NoBody {
		return nil, domain.ErrEmptyBodyExpected.WithDetails("Request body expected.")
	}

	data, err := io.ReadAll(io.LimitReader(body, v.maxBodyBytes+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, domain.ErrBodyTooLarge.WithDetailsf("Request body exceeds %d bytes.", maxErr.Limit)
		}
		return nil, domain.ErrRequestAborted.WithCause(err)
	}
	if int64(len(data)) > v.maxBodyBytes {
		return nil, domain.ErrBodyTooLarge.WithDetailsf("Request body exceeds %d bytes.", v.maxBodyBytes)
	}
	if len(data) == 0 {
		return nil, domain.ErrEmptyBodyExpected.WithDetails("Request body expected.")
	}
	return data, nil
}
