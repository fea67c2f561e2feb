package api

import (
	"context"
	"net/http"

	"github.com/barterdesk/barterdesk/internal/client/session"
	"github.com/google/uuid"
)

// Header names used on outbound requests.
const (
	AuthorizationHeader = "Authorization"
	RequestIDHeader     = "X-Request-Id"
)

// bootstrapPaths are the identity-bootstrap endpoints. They establish a fresh
// credential, so they must never be fed the stored one.
var bootstrapPaths = []string{
	"/api/login",
	"/api/register",
	"/api/create-user",
}

// TokenSource provides the current bearer token. Implementations must fail
// closed: a read problem is reported as the session sentinel, never as an
// error, so the gate can treat it as "no token".
type TokenSource interface {
	Current(ctx context.Context, key string) string
}

// Gate is an http.RoundTripper that attaches the stored bearer credential to
// every outgoing request except the identity-bootstrap endpoints.
//
// The exempt-path check runs before any store read. For all other requests
// the gate blocks on a synchronous store read; this adds a small latency to
// every authenticated call, which we accept in exchange for never caching a
// stale token in memory.
type Gate struct {
	base   http.RoundTripper
	tokens TokenSource
	exempt map[string]struct{}
}

func NewGate(base http.RoundTripper, tokens TokenSource) *Gate {
	if base == nil {
		base = http.DefaultTransport
	}
	exempt := make(map[string]struct{}, len(bootstrapPaths))
	for _, p := range bootstrapPaths {
		exempt[p] = struct{}{}
	}
	return &Gate{base: base, tokens: tokens, exempt: exempt}
}

func (g *Gate) RoundTrip(req *http.Request) (*http.Response, error) {
	if _, ok := g.exempt[req.URL.Path]; ok {
		return g.base.RoundTrip(req)
	}

	out := req.Clone(req.Context())
	out.Header.Set(RequestIDHeader, uuid.NewString())

	tok := g.tokens.Current(req.Context(), session.KeyToken)
	if tok != "" && tok != session.UnknownValue {
		out.Header.Set(AuthorizationHeader, "Bearer "+tok)
	}

	return g.base.RoundTrip(out)
}
