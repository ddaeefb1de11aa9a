// Package kerberos provides the Kerberos security mechanism.
package kerberos

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jcmturner/gofork/encoding/asn1"
	"github.com/jcmturner/gokrb5/v8/gssapi"
	"github.com/jcmturner/gokrb5/v8/keytab"
	krbservice "github.com/jcmturner/gokrb5/v8/service"
	"github.com/jcmturner/gokrb5/v8/spnego"

	"github.com/yndnr/restkit-go/internal/core/service"
)

// ctxCredentials is the context key gokrb5 stores the verified identity under.
const ctxCredentials = "github.com/jcmturner/gokrb5/v8/ctxCredentials"

// DefaultMaxClockSkew is the accepted difference between client and server clocks.
const DefaultMaxClockSkew = 5 * time.Minute

// SPNEGO NegTokenResp bodies for accept-completed and accept-incomplete.
var (
	acceptCompleted  = []byte{0xa1, 0x14, 0x30, 0x12, 0xa0, 0x03, 0x0a, 0x01, 0x00, 0xa1, 0x0b, 0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x12, 0x01, 0x02, 0x02}
	acceptIncomplete = []byte{0xa1, 0x14, 0x30, 0x12, 0xa0, 0x03, 0x0a, 0x01, 0x01, 0xa1, 0x0b, 0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x12, 0x01, 0x02, 0x02}
)

var (
	// ErrPrincipalNotInKeytab is returned when the keytab has no key for the service principal.
	ErrPrincipalNotInKeytab = errors.New("kerberos: service principal not found in keytab")

	// ErrNoIdentity is returned when an accepted context carries no credentials.
	ErrNoIdentity = errors.New("kerberos: accepted context has no identity")
)

// Config configures the server credential.
type Config struct {
	Keytab           string
	ServicePrincipal string
	MaxClockSkew     time.Duration
	Logger           *slog.Logger
}

// Mechanism creates Kerberos acceptor contexts from a loaded keytab.
type Mechanism struct {
	kt     *keytab.Keytab
	spn    string
	skew   time.Duration
	logger *slog.Logger
}

var _ service.SecurityMechanism = (*Mechanism)(nil)

// AcquireServerCredential loads the keytab and checks that it holds a key
// for the service principal.
func AcquireServerCredential(cfg Config) (*Mechanism, error) {
	kt, err := keytab.Load(cfg.Keytab)
	if err != nil {
		return nil, fmt.Errorf("kerberos: load keytab %s: %w", cfg.Keytab, err)
	}
	return NewMechanism(kt, cfg)
}

// NewMechanism creates a Mechanism from an already loaded keytab.
func NewMechanism(kt *keytab.Keytab, cfg Config) (*Mechanism, error) {
	if cfg.ServicePrincipal == "" {
		return nil, errors.New("kerberos: service principal is required")
	}
	if !hasPrincipal(kt, cfg.ServicePrincipal) {
		return nil, fmt.Errorf("%w: %s", ErrPrincipalNotInKeytab, cfg.ServicePrincipal)
	}

	m := &Mechanism{
		kt:     kt,
		spn:    cfg.ServicePrincipal,
		skew:   cfg.MaxClockSkew,
		logger: cfg.Logger,
	}
	if m.skew <= 0 {
		m.skew = DefaultMaxClockSkew
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m, nil
}

// ServicePrincipal returns the principal the mechanism accepts tickets for.
func (m *Mechanism) ServicePrincipal() string {
	return m.spn
}

// NewContext returns a fresh acceptor context.
func (m *Mechanism) NewContext() (service.SecurityContext, error) {
	svc := spnego.SPNEGOService(m.kt,
		krbservice.KeytabPrincipal(principalName(m.spn)),
		krbservice.MaxClockSkew(m.skew),
		krbservice.Logger(slog.NewLogLogger(m.logger.Handler(), slog.LevelDebug)),
	)
	return &securityContext{svc: svc}, nil
}

type identity interface {
	UserName() string
	Domain() string
}

type securityContext struct {
	svc       *spnego.SPNEGO
	principal string
}

// AcceptSecurityToken validates a SPNEGO (or bare Kerberos) init token.
func (c *securityContext) AcceptSecurityToken(token []byte) ([]byte, bool, error) {
	st, err := parseToken(token)
	if err != nil {
		return nil, false, err
	}

	ok, ctx, status := c.svc.AcceptSecContext(st)
	switch {
	case status.Code == gssapi.StatusContinueNeeded:
		return acceptIncomplete, false, nil
	case !ok || status.Code != gssapi.StatusComplete:
		return nil, false, fmt.Errorf("kerberos: %s", status.Message)
	}

	if ctx == nil {
		return nil, false, ErrNoIdentity
	}
	id, found := ctx.Value(ctxCredentials).(identity)
	if !found {
		return nil, false, ErrNoIdentity
	}
	c.principal = id.UserName()
	if domain := id.Domain(); domain != "" {
		c.principal += "@" + domain
	}
	return acceptCompleted, true, nil
}

func (c *securityContext) Principal() string {
	return c.principal
}

// parseToken accepts a SPNEGO token or wraps a raw Kerberos token into one.
func parseToken(b []byte) (*spnego.SPNEGOToken, error) {
	var st spnego.SPNEGOToken
	if err := st.Unmarshal(b); err == nil {
		if !st.Init || len(st.NegTokenInit.MechTypes) == 0 {
			return nil, errors.New("kerberos: negotiate token is not an init token")
		}
		return &st, nil
	}

	var k5t spnego.KRB5Token
	if err := k5t.Unmarshal(b); err != nil {
		return nil, fmt.Errorf("kerberos: malformed negotiate token: %w", err)
	}
	st.Init = true
	st.NegTokenInit = spnego.NegTokenInit{
		MechTypes:      []asn1.ObjectIdentifier{k5t.OID},
		MechTokenBytes: b,
	}
	return &st, nil
}

// principalName strips the realm from a service principal.
func principalName(spn string) string {
	name, _, _ := strings.Cut(spn, "@")
	return name
}

// hasPrincipal reports whether kt holds a key for spn ("HTTP/host" or
// "HTTP/host@REALM").
func hasPrincipal(kt *keytab.Keytab, spn string) bool {
	name, realm, _ := strings.Cut(spn, "@")
	for _, e := range kt.Entries {
		if strings.Join(e.Principal.Components, "/") != name {
			continue
		}
		if realm == "" || e.Principal.Realm == realm {
			return true
		}
	}
	return false
}
