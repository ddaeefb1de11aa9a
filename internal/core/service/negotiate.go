// Package service provides the request contract services.
package service

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/restkit-go/internal/core/domain"
)

// NegotiateScheme is the authentication scheme of the negotiate handshake.
const NegotiateScheme = "Negotiate"

// Negotiate header names for direct and proxy mode.
const (
	HeaderWWWAuthenticate    = "WWW-Authenticate"
	HeaderProxyAuthenticate  = "Proxy-Authenticate"
	HeaderProxyAuthorization = "Proxy-Authorization"
)

// SecurityMechanism creates the per-handshake security contexts.
type SecurityMechanism interface {
	NewContext() (SecurityContext, error)
}

// SecurityContext is opaque handshake state advanced one token at a time.
type SecurityContext interface {
	// AcceptSecurityToken consumes a client token and returns the token to
	// send back (possibly empty) and whether the context is established.
	AcceptSecurityToken(token []byte) (out []byte, established bool, err error)

	// Principal returns the authenticated principal name once established.
	Principal() string
}

// Outcome is the instruction a negotiate round gives the transport.
type Outcome int

// Negotiate round outcomes.
const (
	OutcomeRetry Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeRetry:
		return "retry"
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// NegotiateResult is the result of one negotiate round.
type NegotiateResult struct {
	Outcome Outcome

	// State is the connection's handshake state after the round.
	State HandshakeState

	// Status is the response status for Retry and Failure outcomes.
	Status int

	// ChallengeHeader and Challenge are the header to set on the response.
	// Challenge is empty when nothing must be sent.
	ChallengeHeader string
	Challenge       string

	// Principal is the authenticated name on Success.
	Principal string

	// Rounds counts the credentials accepted on the connection so far,
	// this one included. Zero for a fresh challenge.
	Rounds int

	// Err is the cause of a Failure outcome.
	Err error
}

// NegotiateConfig holds configuration for NegotiateAuthenticator.
type NegotiateConfig struct {
	// Mechanism creates security contexts. Required.
	Mechanism SecurityMechanism

	// Proxy switches to Proxy-Authorization / Proxy-Authenticate and 407.
	Proxy bool

	// Sessions stores the per-connection contexts. Nil creates a new store.
	Sessions *SessionStore

	// OnRound is called after every round with the resulting state.
	OnRound func(HandshakeState)
}

// NegotiateAuthenticator runs the multi-round negotiate handshake. It keeps
// one security context per connection, not per request; the context is
// destroyed when the handshake completes, fails or the connection closes.
type NegotiateAuthenticator struct {
	mech     SecurityMechanism
	sessions *SessionStore
	onRound  func(HandshakeState)

	credentialHeader string
	challengeHeader  string
	retryStatus      int

	now func() time.Time
}

// NewNegotiateAuthenticator creates a NegotiateAuthenticator.
func NewNegotiateAuthenticator(cfg NegotiateConfig) (*NegotiateAuthenticator, error) {
	if cfg.Mechanism == nil {
		return nil, errors.New("negotiate: security mechanism is required")
	}

	a := &NegotiateAuthenticator{
		mech:             cfg.Mechanism,
		sessions:         cfg.Sessions,
		onRound:          cfg.OnRound,
		credentialHeader: HeaderAuthorization,
		challengeHeader:  HeaderWWWAuthenticate,
		retryStatus:      http.StatusUnauthorized,
		now:              time.Now,
	}
	if a.sessions == nil {
		a.sessions = NewSessionStore(defaultSessionShards)
	}
	if cfg.Proxy {
		a.credentialHeader = HeaderProxyAuthorization
		a.challengeHeader = HeaderProxyAuthenticate
		a.retryStatus = http.StatusProxyAuthRequired
	}
	return a, nil
}

// ChallengeHeader returns the header the challenge is sent in.
func (a *NegotiateAuthenticator) ChallengeHeader() string {
	return a.challengeHeader
}

// Sessions returns the session store.
func (a *NegotiateAuthenticator) Sessions() *SessionStore {
	return a.sessions
}

// Authenticate runs one round of the handshake for connID.
//
// A request without a negotiate credential starts a fresh handshake and is
// always answered with a challenge. A credential on a connection without a
// stored context is a protocol violation and fails; no context is created.
func (a *NegotiateAuthenticator) Authenticate(connID string, h http.Header) *NegotiateResult {
	cred, ok := negotiateCredential(h.Values(a.credentialHeader))
	var res *NegotiateResult
	if !ok {
		res = a.challenge(connID)
	} else {
		res = a.continueHandshake(connID, cred)
	}
	if a.onRound != nil {
		a.onRound(res.State)
	}
	return res
}

// Evict drops the context of a closed connection.
func (a *NegotiateAuthenticator) Evict(connID string) {
	a.sessions.Delete(connID)
}

func (a *NegotiateAuthenticator) challenge(connID string) *NegotiateResult {
	ctx, err := a.mech.NewContext()
	if err != nil {
		a.sessions.Delete(connID)
		return a.failure(domain.ErrAuthenticationFailed.WithDetails("cannot create security context").WithCause(err))
	}

	if !a.sessions.replace(connID, &negotiateSession{ctx: ctx, created: a.now()}) {
		return a.failure(domain.ErrConcurrentHandshake.WithDetails("negotiate round already in flight on this connection"))
	}

	return &NegotiateResult{
		Outcome:         OutcomeRetry,
		State:           StateChallenged,
		Status:          a.retryStatus,
		ChallengeHeader: a.challengeHeader,
		Challenge:       NegotiateScheme,
	}
}

func (a *NegotiateAuthenticator) continueHandshake(connID, cred string) *NegotiateResult {
	sess, ok := a.sessions.get(connID)
	if !ok {
		return a.failure(domain.ErrAuthenticationFailed.WithDetails("no negotiate context for connection"))
	}
	if !sess.busy.CompareAndSwap(false, true) {
		return a.failure(domain.ErrConcurrentHandshake.WithDetails("negotiate round already in flight on this connection"))
	}
	defer sess.busy.Store(false)
	rounds := int(sess.rounds.Add(1))

	token, err := decodeNegotiateToken(cred)
	if err != nil {
		a.sessions.remove(connID, sess)
		return a.failure(domain.ErrAuthenticationFailed.WithDetails("cannot decode negotiate token").WithCause(err))
	}

	out, established, err := sess.ctx.AcceptSecurityToken(token)
	if err != nil {
		a.sessions.remove(connID, sess)
		return a.failure(domain.ErrAuthenticationFailed.WithDetails("cannot authenticate ticket").WithCause(err))
	}

	challenge := ""
	if len(out) > 0 {
		challenge = NegotiateScheme + " " + base64.StdEncoding.EncodeToString(out)
	}

	if !established {
		if challenge == "" {
			challenge = NegotiateScheme
		}
		return &NegotiateResult{
			Outcome:         OutcomeRetry,
			State:           StateChallenged,
			Status:          a.retryStatus,
			ChallengeHeader: a.challengeHeader,
			Challenge:       challenge,
			Rounds:          rounds,
		}
	}

	a.sessions.remove(connID, sess)
	return &NegotiateResult{
		Outcome:         OutcomeSuccess,
		State:           StateEstablished,
		ChallengeHeader: a.challengeHeader,
		Challenge:       challenge,
		Principal:       sess.ctx.Principal(),
		Rounds:          rounds,
	}
}

func (a *NegotiateAuthenticator) failure(err error) *NegotiateResult {
	return &NegotiateResult{
		Outcome: OutcomeFailure,
		State:   StateFailed,
		Status:  domain.HTTPStatus(err),
		Err:     err,
	}
}

// SweepIdle removes handshakes started more than maxAge ago.
func (a *NegotiateAuthenticator) SweepIdle(maxAge time.Duration) int {
	return a.sessions.Sweep(a.now().Add(-maxAge))
}

// negotiateCredential returns the token text of the first header value using
// the negotiate scheme. The token may be wrapped across several fields.
func negotiateCredential(values []string) (string, bool) {
	for _, value := range values {
		fields := strings.Fields(value)
		if len(fields) > 1 && strings.EqualFold(fields[0], NegotiateScheme) {
			return strings.Join(fields[1:], ""), true
		}
	}
	return "", false
}

func decodeNegotiateToken(cred string) ([]byte, error) {
	token, err := base64.StdEncoding.DecodeString(cred)
	if err != nil {
		token, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(cred, "="))
	}
	if err != nil {
		return nil, err
	}
	if len(token) == 0 {
		return nil, errors.New("empty negotiate token")
	}
	return token, nil
}
