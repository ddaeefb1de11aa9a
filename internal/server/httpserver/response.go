// Package httpserver provides the HTTP/HTTPS server for restkit.
package httpserver

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/yndnr/restkit-go/internal/core/domain"
	"github.com/yndnr/restkit-go/internal/core/service"
)

// DefaultChunkSize is the chunk size of streamed bodies (32 KiB).
const DefaultChunkSize = 32 << 10

// BaseAllowHeaders is the fixed Access-Control-Allow-Headers list. Endpoint
// extras are appended after a comma.
const BaseAllowHeaders = "Access-Control-Allow-Headers, Origin, X-Requested-With, Content-Type, Access-Control-Request-Method, Access-Control-Request-Headers"

const crlf = "\r\n"

// Body is the payload of a response: Empty, Bytes, Stream or Parts.
type Body interface {
	kind() string
}

// Empty is a response without content. It is always answered 204.
type Empty struct{}

// Bytes is a single fixed-length body.
type Bytes []byte

// Stream is a body of unknown length written with chunked transfer.
// The reader is closed after writing when it implements io.Closer.
type Stream struct {
	R io.Reader
}

// Part is one element of a multipart body. ContentType wins over Kind.
type Part struct {
	ContentType string
	Kind        domain.ContentKind
	Data        []byte
}

// Parts is a multipart body framed with domain.MultipartBoundary.
type Parts []Part

func (Empty) kind() string  { return "none" }
func (Bytes) kind() string  { return "bytes" }
func (Stream) kind() string { return "stream" }
func (Parts) kind() string  { return "multipart" }

// Text is a Bytes body holding s.
func Text(s string) Bytes { return Bytes(s) }

// ResponseWriter serializes response bodies with the endpoint's headers.
// It holds no per-request state.
type ResponseWriter struct {
	chunkSize int
	observe   func(body string)
}

// ResponseConfig holds configuration for ResponseWriter.
type ResponseConfig struct {
	// ChunkSize is the stream chunk size. Zero means DefaultChunkSize.
	ChunkSize int

	// Observe is called with the body kind of every emitted response.
	Observe func(body string)
}

// NewResponseWriter creates a ResponseWriter.
func NewResponseWriter(cfg ResponseConfig) *ResponseWriter {
	size := cfg.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &ResponseWriter{chunkSize: size, observe: cfg.Observe}
}

// Emit writes headers then body to w. An empty body forces 204 whatever
// status says. A status of zero means 200.
//
// Errors writing to w are returned as ErrRequestAborted; nothing more can be
// sent on such a response. A Stream whose source fails before the first byte
// is returned as the source error with nothing written.
func (rw *ResponseWriter) Emit(w http.ResponseWriter, spec *domain.EndpointSpec, body Body, status int, token string) error {
	if status == 0 {
		status = http.StatusOK
	}
	if body == nil {
		body = Empty{}
	}

	if err := rw.emit(w, spec, body, status, token); err != nil {
		return err
	}
	if rw.observe != nil {
		rw.observe(body.kind())
	}
	return nil
}

func (rw *ResponseWriter) emit(w http.ResponseWriter, spec *domain.EndpointSpec, body Body, status int, token string) error {
	switch b := body.(type) {
	case Empty:
		SetContractHeaders(w.Header(), spec, token)
		return writeNoContent(w)

	case Bytes:
		SetContractHeaders(w.Header(), spec, token)
		if len(b) == 0 {
			return writeNoContent(w)
		}
		return writeFixed(w, status, b)

	case Stream:
		return rw.writeStream(w, spec, b, status, token)

	case Parts:
		SetContractHeaders(w.Header(), spec, token)
		if len(b) == 0 {
			return writeNoContent(w)
		}
		w.Header().Set("Content-Type", domain.ContentMixed.MediaType())
		return writeFixed(w, status, EncodeMultipart(b))

	default:
		return domain.ErrInternal.WithDetails("unsupported response body")
	}
}

// SetContractHeaders sets the CORS, content, charset and token headers of
// spec on h.
func SetContractHeaders(h http.Header, spec *domain.EndpointSpec, token string) {
	h.Set("Access-Control-Allow-Methods", spec.AllowMethods())
	if spec.CORS {
		h.Set("Access-Control-Allow-Origin", "*")
		allow := BaseAllowHeaders
		if spec.ExtraHeaders != "" {
			allow += "," + spec.ExtraHeaders
		}
		h.Set("Access-Control-Allow-Headers", allow)
	}
	if ct := spec.Content.MediaType(); ct != "" {
		h.Set("Content-Type", ct)
	}
	h.Set("charset", "utf8")
	if token != "" {
		h.Set(service.HeaderAuthorization, service.TokenHeaderValue(token))
	}
}

func writeNoContent(w http.ResponseWriter) error {
	w.Header().Del("Content-Length")
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func writeFixed(w http.ResponseWriter, status int, data []byte) error {
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		return domain.ErrRequestAborted.WithCause(err)
	}
	return nil
}

// writeStream reads the first chunk before any header is written, so a
// stream that yields no bytes is still answered 204.
func (rw *ResponseWriter) writeStream(w http.ResponseWriter, spec *domain.EndpointSpec, s Stream, status int, token string) error {
	if c, ok := s.R.(io.Closer); ok {
		defer c.Close()
	}

	SetContractHeaders(w.Header(), spec, token)
	if s.R == nil {
		return writeNoContent(w)
	}

	buf := make([]byte, rw.chunkSize)
	n, err := readChunk(s.R, buf)
	if err != nil && n == 0 {
		return err
	}
	if n == 0 {
		return writeNoContent(w)
	}

	w.Header().Del("Content-Length")
	w.WriteHeader(status)
	flusher, _ := w.(http.Flusher)

	for n > 0 {
		if _, werr := w.Write(buf[:n]); werr != nil {
			return domain.ErrRequestAborted.WithCause(werr)
		}
		if flusher != nil {
			flusher.Flush()
		}
		if err != nil {
			// Headers are out; the source failure can only cut the stream.
			return domain.ErrRequestAborted.WithCause(err)
		}
		n, err = readChunk(s.R, buf)
	}
	if err != nil {
		return domain.ErrRequestAborted.WithCause(err)
	}
	return nil
}

// readChunk fills buf as far as r allows. io.EOF is not an error.
func readChunk(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return n, nil
	}
	return n, err
}

// EncodeMultipart frames parts byte-exactly: every part is preceded by a
// boundary line and a Content-Type line, and only the last part is followed
// by the closing boundary.
func EncodeMultipart(parts Parts) []byte {
	var b bytes.Buffer
	for _, p := range parts {
		ct := p.ContentType
		if ct == "" {
			ct = p.Kind.MediaType()
		}
		b.WriteString("--" + domain.MultipartBoundary + crlf)
		b.WriteString("Content-Type:" + ct + crlf)
		b.Write(p.Data)
		b.WriteString(crlf)
	}
	b.WriteString("--" + domain.MultipartBoundary + "--")
	return b.Bytes()
}
