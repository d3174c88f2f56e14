package universalloader

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// TokenProvider supplies bearer tokens bound to the outbound request context.
type TokenProvider interface {
	TokenContext(ctx context.Context) (*oauth2.Token, error)
}

// invalidator is implemented by providers that cache tokens.
type invalidator interface {
	Invalidate()
}

// bearerTransport authorizes each request with a token fetched under the
// request's own context. A 401 drops the cached token so the next call
// re-authenticates.
type bearerTransport struct {
	tokens TokenProvider
	base   http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.tokens.TokenContext(req.Context())
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, err
	}

	authed := req.Clone(req.Context())
	tok.SetAuthHeader(authed)

	resp, err := t.base.RoundTrip(authed)
	if err == nil && resp.StatusCode == http.StatusUnauthorized {
		if inv, ok := t.tokens.(invalidator); ok {
			inv.Invalidate()
		}
	}
	return resp, err
}
