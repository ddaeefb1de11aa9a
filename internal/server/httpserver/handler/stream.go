// Package handler provides the built-in restkit endpoints.
package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/yndnr/restkit-go/internal/core/domain"
	"github.com/yndnr/restkit-go/internal/server/httpserver"
)

const maxStreamLines = 1_000_000

func streamSchema() *domain.Schema {
	return domain.NewSchema().
		Optional("lines", domain.TypeInteger, domain.NewInt(10)).
		Optional("prefix", domain.TypeString, domain.NewString("line"))
}

// handleStream handles GET /stream. It produces the lines lazily, so the
// response length is unknown up front. Zero lines answer 204.
func (h *Handler) handleStream(x *httpserver.Exchange) error {
	lines := x.Params().MustInt("lines")
	if lines < 0 || lines > maxStreamLines {
		return domain.ErrInvalidInteger.WithDetailsf("Parameter lines?%d must be between 0 and %d", lines, maxStreamLines)
	}
	return x.Stream(httpserver.Stream{R: &lineReader{
		prefix: x.Params().MustString("prefix"),
		total:  lines,
	}}, http.StatusOK)
}

// lineReader yields "<prefix> <n>\n" for n in [1, total].
type lineReader struct {
	prefix string
	total  int64
	next   int64
	buf    []byte
}

func (r *lineReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.buf) == 0 {
			if r.next >= r.total {
				break
			}
			r.next++
			r.buf = append(r.buf[:0], r.prefix...)
			r.buf = append(r.buf, ' ')
			r.buf = strconv.AppendInt(r.buf, r.next, 10)
			r.buf = append(r.buf, '\n')
		}
		c := copy(p[n:], r.buf)
		r.buf = r.buf[c:]
		n += c
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}
