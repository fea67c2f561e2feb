package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/barterdesk/barterdesk/internal/client/session"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	token string
}

func (f *fakeTokens) Current(ctx context.Context, key string) string {
	return f.token
}

type capturedRequest struct {
	path      string
	auth      string
	requestID string
}

func captureServer(t *testing.T) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.auth = r.Header.Get(AuthorizationHeader)
		captured.requestID = r.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func gateClient(tokens TokenSource) *http.Client {
	return &http.Client{Transport: NewGate(http.DefaultTransport, tokens)}
}

func TestGate_BootstrapPathsAreExempt(t *testing.T) {
	srv, captured := captureServer(t)
	c := gateClient(&fakeTokens{token: "valid-token"})

	for _, path := range bootstrapPaths {
		resp, err := c.Post(srv.URL+path, "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()

		require.Empty(t, captured.auth, "no credential on %s even with a token in the store", path)
		require.Empty(t, captured.requestID, "bootstrap requests are forwarded unmodified")
	}
}

func TestGate_AttachesBearerOnAuthenticatedPaths(t *testing.T) {
	srv, captured := captureServer(t)
	c := gateClient(&fakeTokens{token: "valid-token"})

	resp, err := c.Get(srv.URL + "/api/items")
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, "Bearer valid-token", captured.auth)
	require.NotEmpty(t, captured.requestID)
}

func TestGate_SentinelTokenSendsNoCredential(t *testing.T) {
	srv, captured := captureServer(t)
	c := gateClient(&fakeTokens{token: session.UnknownValue})

	resp, err := c.Get(srv.URL + "/api/items")
	require.NoError(t, err)
	resp.Body.Close()

	require.Empty(t, captured.auth, "sentinel token must not be attached")
	require.NotEmpty(t, captured.requestID, "request still goes out, just without a credential")
}

func TestGate_EmptyTokenSendsNoCredential(t *testing.T) {
	srv, captured := captureServer(t)
	c := gateClient(&fakeTokens{token: ""})

	resp, err := c.Get(srv.URL + "/api/items")
	require.NoError(t, err)
	resp.Body.Close()

	require.Empty(t, captured.auth)
}

func TestGate_DoesNotMutateOriginalRequest(t *testing.T) {
	srv, _ := captureServer(t)
	gate := NewGate(http.DefaultTransport, &fakeTokens{token: "valid-token"})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/items", nil)
	require.NoError(t, err)

	resp, err := gate.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Empty(t, req.Header.Get(AuthorizationHeader), "caller's request must stay untouched")
}
