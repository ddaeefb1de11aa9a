package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format  Format
		want    string
		wantErr bool
	}{
		{FormatJSON, "json", false},
		{FormatYAML, "yaml", false},
		{"", "yaml", false},
		{"table", "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			f, err := NewFormatter(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Error("NewFormatter() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFormatter() error = %v", err)
			}
			switch tt.want {
			case "json":
				if _, ok := f.(*JSONFormatter); !ok {
					t.Errorf("NewFormatter(%q) = %T, want *JSONFormatter", tt.format, f)
				}
			case "yaml":
				if _, ok := f.(*YAMLFormatter); !ok {
					t.Errorf("NewFormatter(%q) = %T, want *YAMLFormatter", tt.format, f)
				}
			}
		})
	}
}

type sample struct {
	Server struct {
		Addr    string `json:"addr"`
		Workers int    `json:"workers"`
	} `json:"server"`
}

func newSample() sample {
	var s sample
	s.Server.Addr = "127.0.0.1:8080"
	s.Server.Workers = 64
	return s
}

func TestJSONFormatter_Format(t *testing.T) {
	f := &JSONFormatter{}

	t.Run("formats struct as JSON", func(t *testing.T) {
		var buf bytes.Buffer
		if err := f.Format(&buf, newSample()); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, `"addr": "127.0.0.1:8080"`) {
			t.Errorf("Format() = %q, missing addr field", output)
		}
		if !strings.Contains(output, `"workers": 64`) {
			t.Errorf("Format() = %q, missing workers field", output)
		}
	})

	t.Run("formats nil as JSON", func(t *testing.T) {
		var buf bytes.Buffer
		if err := f.Format(&buf, nil); err != nil {
			t.Fatalf("Format(nil) error = %v", err)
		}
		if output := strings.TrimSpace(buf.String()); output != "null" {
			t.Errorf("Format(nil) = %q, want 'null'", output)
		}
	})
}

func TestYAMLFormatter_Format(t *testing.T) {
	f := &YAMLFormatter{}

	t.Run("formats struct as YAML", func(t *testing.T) {
		var buf bytes.Buffer
		if err := f.Format(&buf, newSample()); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "server:") {
			t.Errorf("Format() = %q, missing server section", output)
		}
		if !strings.Contains(output, "addr:") || !strings.Contains(output, "127.0.0.1:8080") {
			t.Errorf("Format() = %q, missing addr", output)
		}
		if !strings.Contains(output, "workers: 64") {
			t.Errorf("Format() = %q, missing workers", output)
		}
	})

	t.Run("rejects non-object values", func(t *testing.T) {
		var buf bytes.Buffer
		if err := f.Format(&buf, []string{"a"}); err == nil {
			t.Error("Format() error = nil for a slice")
		}
	})
}
