// Package output provides output formatting for restkit-server commands.
package output

import (
	"fmt"
	"io"
)

// Format represents the output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formatter formats data for output.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) (Formatter, error) {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatYAML, "":
		return &YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("output: unknown format %q (want json or yaml)", format)
	}
}
