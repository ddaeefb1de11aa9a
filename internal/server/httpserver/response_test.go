// Package httpserver provides the HTTP/HTTPS server for restkit.
package httpserver

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yndnr/restkit-go/internal/core/domain"
)

// failingWriter is an http.ResponseWriter whose body writes fail, as on a
// connection the client has closed.
type failingWriter struct {
	header http.Header
	status int
}

func (w *failingWriter) Header() http.Header {
	if w.header == nil {
		w.header = make(http.Header)
	}
	return w.header
}
func (w *failingWriter) WriteHeader(code int) { w.status = code }
func (w *failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

// failAfter yields data, then fails.
type failAfter struct {
	data []byte
	err  error
}

func (r *failAfter) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func jsonSpec() *domain.EndpointSpec {
	return &domain.EndpointSpec{
		Method:         http.MethodGet,
		AllowedMethods: []string{"GET"},
		Content:        domain.ContentJSON,
	}
}

func TestEmit_Bytes(t *testing.T) {
	rw := NewResponseWriter(ResponseConfig{})
	rec := httptest.NewRecorder()

	if err := rw.Emit(rec, jsonSpec(), Text(`{"a":1}`), http.StatusCreated, ""); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if got := rec.Body.String(); got != `{"a":1}` {
		t.Errorf("body = %q, want %q", got, `{"a":1}`)
	}
	if got := rec.Header().Get("Content-Length"); got != "7" {
		t.Errorf("Content-Length = %q, want %q", got, "7")
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want %q", got, "application/json")
	}
	if got := rec.Header().Get("charset"); got != "utf8" {
		t.Errorf("charset = %q, want %q", got, "utf8")
	}
}

func TestEmit_ZeroStatusMeans200(t *testing.T) {
	rw := NewResponseWriter(ResponseConfig{})
	rec := httptest.NewRecorder()

	if err := rw.Emit(rec, jsonSpec(), Text("x"), 0, ""); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestEmit_EmptyBodyDowngradesTo204(t *testing.T) {
	tests := []struct {
		name string
		body Body
	}{
		{"nil", nil},
		{"Empty", Empty{}},
		{"zero-length bytes", Bytes{}},
		{"empty text", Text("")},
		{"empty stream", Stream{R: strings.NewReader("")}},
		{"nil stream reader", Stream{}},
		{"no parts", Parts{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rw := NewResponseWriter(ResponseConfig{})
			rec := httptest.NewRecorder()

			if err := rw.Emit(rec, jsonSpec(), tt.body, http.StatusCreated, ""); err != nil {
				t.Fatalf("Emit() error = %v", err)
			}
			if rec.Code != http.StatusNoContent {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
			}
			if rec.Body.Len() != 0 {
				t.Errorf("body = %q, want empty", rec.Body.String())
			}
			if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "OPTIONS, GET" {
				t.Errorf("Access-Control-Allow-Methods = %q, want %q", got, "OPTIONS, GET")
			}
		})
	}
}

func TestEmit_Stream(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 10)
	rw := NewResponseWriter(ResponseConfig{ChunkSize: 16})
	rec := httptest.NewRecorder()
	src := &closeTracker{Reader: bytes.NewReader(payload)}

	if err := rw.Emit(rec, jsonSpec(), Stream{R: src}, http.StatusOK, ""); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), payload) {
		t.Errorf("body = %q, want %q", rec.Body.Bytes(), payload)
	}
	if rec.Header().Get("Content-Length") != "" {
		t.Error("stream must not announce a Content-Length")
	}
	if !rec.Flushed {
		t.Error("expected chunks to be flushed")
	}
	if !src.closed {
		t.Error("expected the stream source to be closed")
	}
}

func TestEmit_StreamExactChunkMultiple(t *testing.T) {
	payload := bytes.Repeat([]byte("a"), 32)
	rw := NewResponseWriter(ResponseConfig{ChunkSize: 16})
	rec := httptest.NewRecorder()

	if err := rw.Emit(rec, jsonSpec(), Stream{R: bytes.NewReader(payload)}, http.StatusOK, ""); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if rec.Body.Len() != 32 {
		t.Errorf("body length = %d, want 32", rec.Body.Len())
	}
}

func TestEmit_StreamSourceErrors(t *testing.T) {
	t.Run("before first byte", func(t *testing.T) {
		srcErr := errors.New("source down")
		rw := NewResponseWriter(ResponseConfig{})
		rec := httptest.NewRecorder()

		err := rw.Emit(rec, jsonSpec(), Stream{R: errReader{srcErr}}, http.StatusOK, "")
		if !errors.Is(err, srcErr) {
			t.Fatalf("Emit() error = %v, want %v", err, srcErr)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("expected nothing written, got %q", rec.Body.String())
		}
	})

	t.Run("after headers", func(t *testing.T) {
		rw := NewResponseWriter(ResponseConfig{ChunkSize: 4})
		rec := httptest.NewRecorder()
		src := &failAfter{data: []byte("abcdefgh"), err: errors.New("source down")}

		err := rw.Emit(rec, jsonSpec(), Stream{R: src}, http.StatusOK, "")
		if !errors.Is(err, domain.ErrRequestAborted) {
			t.Fatalf("Emit() error = %v, want ErrRequestAborted", err)
		}
		if got := rec.Body.String(); got != "abcdefgh" {
			t.Errorf("body = %q, want %q", got, "abcdefgh")
		}
	})
}

func TestEmit_WriteFailureIsAborted(t *testing.T) {
	rw := NewResponseWriter(ResponseConfig{})

	tests := []struct {
		name string
		body Body
	}{
		{"bytes", Text("hello")},
		{"stream", Stream{R: strings.NewReader("hello")}},
		{"parts", Parts{{Kind: domain.ContentText, Data: []byte("x")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rw.Emit(&failingWriter{}, jsonSpec(), tt.body, http.StatusOK, "")
			if !errors.Is(err, domain.ErrRequestAborted) {
				t.Errorf("Emit() error = %v, want ErrRequestAborted", err)
			}
		})
	}
}

func TestEmit_Observe(t *testing.T) {
	var kinds []string
	rw := NewResponseWriter(ResponseConfig{Observe: func(k string) { kinds = append(kinds, k) }})
	spec := jsonSpec()

	_ = rw.Emit(httptest.NewRecorder(), spec, Text("a"), http.StatusOK, "")
	_ = rw.Emit(httptest.NewRecorder(), spec, nil, http.StatusOK, "")
	_ = rw.Emit(httptest.NewRecorder(), spec, Stream{R: strings.NewReader("s")}, http.StatusOK, "")
	_ = rw.Emit(httptest.NewRecorder(), spec, Parts{{Data: []byte("p")}}, http.StatusOK, "")
	_ = rw.Emit(&failingWriter{}, spec, Text("lost"), http.StatusOK, "")

	want := []string{"bytes", "none", "stream", "multipart"}
	if strings.Join(kinds, ",") != strings.Join(want, ",") {
		t.Errorf("observed %v, want %v", kinds, want)
	}
}

func TestEmit_Multipart(t *testing.T) {
	rw := NewResponseWriter(ResponseConfig{})
	rec := httptest.NewRecorder()
	spec := &domain.EndpointSpec{Method: http.MethodGet, Content: domain.ContentMixed}
	binary := []byte{0x00, 0xff, 0x10, '\r', '\n'}

	parts := Parts{
		{Kind: domain.ContentJSON, Data: []byte(`{"status":"ok"}`)},
		{ContentType: "application/octet-stream", Data: binary},
	}
	if err := rw.Emit(rec, spec, parts, http.StatusOK, ""); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	const b = "--" + domain.MultipartBoundary
	want := b + "\r\nContent-Type:application/json\r\n{\"status\":\"ok\"}\r\n" +
		b + "\r\nContent-Type:application/octet-stream\r\n" + string(binary) + "\r\n" +
		b + "--"

	if got := rec.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if !strings.HasPrefix(rec.Body.String(), b+"\r\nContent-Type:application/json\r\n{\"status\":\"ok\"}") {
		t.Error("body does not begin with the first part")
	}
	if got := rec.Header().Get("Content-Type"); got != "multipart/mixed; boundary="+domain.MultipartBoundary {
		t.Errorf("Content-Type = %q", got)
	}
	if strings.Count(rec.Body.String(), b+"--") != 1 {
		t.Error("closing boundary must appear exactly once")
	}
}

func TestEncodeMultipart_SinglePart(t *testing.T) {
	got := string(EncodeMultipart(Parts{{Kind: domain.ContentText, Data: []byte("hi")}}))
	want := "--restkit-part-boundary\r\nContent-Type:text/plain\r\nhi\r\n--restkit-part-boundary--"
	if got != want {
		t.Errorf("EncodeMultipart() = %q, want %q", got, want)
	}
}

func TestSetContractHeaders(t *testing.T) {
	tests := []struct {
		name  string
		spec  *domain.EndpointSpec
		token string
		want  map[string]string
	}{
		{
			name: "no cors",
			spec: &domain.EndpointSpec{Method: "GET", AllowedMethods: []string{"GET", "POST"}, Content: domain.ContentXML},
			want: map[string]string{
				"Access-Control-Allow-Methods": "OPTIONS, GET, POST",
				"Access-Control-Allow-Origin":  "",
				"Access-Control-Allow-Headers": "",
				"Content-Type":                 "application/xml",
				"Charset":                      "utf8",
				"Authorization":                "",
			},
		},
		{
			name: "cors with extra headers",
			spec: &domain.EndpointSpec{Method: "GET", CORS: true, ExtraHeaders: "X-Custom", Content: domain.ContentJS},
			want: map[string]string{
				"Access-Control-Allow-Methods": "OPTIONS",
				"Access-Control-Allow-Origin":  "*",
				"Access-Control-Allow-Headers": BaseAllowHeaders + ",X-Custom",
				"Content-Type":                 "text/javascript",
			},
		},
		{
			name: "cors without extras",
			spec: &domain.EndpointSpec{Method: "GET", CORS: true},
			want: map[string]string{
				"Access-Control-Allow-Headers": BaseAllowHeaders,
				"Content-Type":                 "",
			},
		},
		{
			name:  "token",
			spec:  &domain.EndpointSpec{Method: "GET", Content: domain.ContentZIP},
			token: "abc",
			want: map[string]string{
				"Authorization": "Token abc",
				"Content-Type":  "application/zip",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := make(http.Header)
			SetContractHeaders(h, tt.spec, tt.token)
			for k, v := range tt.want {
				if got := h.Get(k); got != v {
					t.Errorf("%s = %q, want %q", k, got, v)
				}
			}
		})
	}
}
