package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/beaconapp/authcore/internal/keystore"
)

const requestIDHeader = "X-Request-ID"

// sessionTransport is the client's interception point. Outbound it attaches
// the stored bearer token and a request identifier; inbound it drops the
// stored token when the service answers 401, before the response reaches the
// caller. No retry is attempted.
type sessionTransport struct {
	base   http.RoundTripper
	tokens keystore.Store
	logger *slog.Logger
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not mutate the caller's request.
	out := req.Clone(req.Context())
	out.Header.Set("Content-Type", "application/json")
	out.Header.Set("Accept", "application/json")
	out.Header.Set(requestIDHeader, uuid.NewString())

	tok, err := t.tokens.Get(req.Context())
	if err == nil && tok != "" {
		out.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if err := t.tokens.Remove(req.Context()); err != nil {
			t.logger.Warn("clear token after 401", "error", err)
		}
	}

	return resp, nil
}
