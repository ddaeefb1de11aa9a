// Package handler provides the built-in restkit endpoints.
package handler

import (
	"net/http"
	"strings"

	"github.com/yndnr/restkit-go/internal/core/domain"
	"github.com/yndnr/restkit-go/internal/server/httpserver"
)

const (
	maxEchoRepeat = 1000
	maxEchoBytes  = 64 << 10
)

func echoSchema() *domain.Schema {
	return domain.NewSchema().
		Require("message", domain.TypeString).
		Optional("repeat", domain.TypeInteger, domain.NewInt(1)).
		Optional("upper", domain.TypeBoolean, domain.NewBool(false)).
		Optional("scale", domain.TypeDouble, domain.NewDouble(1)).
		Optional("on", domain.TypeDate, domain.NewDate(1970, 1, 1))
}

// handleEcho handles GET /echo.
func (h *Handler) handleEcho(x *httpserver.Exchange) error {
	p := x.Params()

	repeat := p.MustInt("repeat")
	if repeat < 0 || repeat > maxEchoRepeat {
		return domain.ErrInvalidInteger.WithDetailsf("Parameter repeat?%d must be between 0 and %d", repeat, maxEchoRepeat)
	}

	msg := p.MustString("message")
	if int64(len(msg))*repeat > maxEchoBytes {
		return domain.ErrInvalidInteger.WithDetailsf("Parameter repeat?%d repeats the message past %d bytes", repeat, maxEchoBytes)
	}

	msg = strings.Repeat(msg, int(repeat))
	upper := p.MustBool("upper")
	if upper {
		msg = strings.ToUpper(msg)
	}

	return h.writeJSON(x, http.StatusOK, EchoResponse{
		Message: msg,
		Repeat:  repeat,
		Upper:   upper,
		Scale:   p.MustDouble("scale"),
		On:      p.MustDate("on").Format(domain.DateLayout),
	})
}
