package api

import (
	"net/http"
	"net/http/httputil"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fakeyudi/storyapp/internal/session"
)

// TokenSource yields the latest known session without blocking on storage.
// *session.Observable satisfies it.
type TokenSource interface {
	Current() session.Session
}

// authTransport sets the bearer header on every request. A logged-out
// session still produces the header, with an empty token.
type authTransport struct {
	base   http.RoundTripper
	tokens TokenSource
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.tokens.Current().Token
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(r)
}

// debugTransport logs each exchange at debug level. Bodies are dumped except
// for multipart uploads.
type debugTransport struct {
	base http.RoundTripper
	log  *zap.Logger
}

func (t *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := uuid.NewString()
	withBody := !strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/")

	if dump, err := httputil.DumpRequestOut(req, withBody); err == nil {
		t.log.Debug("--> request", zap.String("request_id", id), zap.ByteString("dump", dump))
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.log.Debug("<-- failed", zap.String("request_id", id), zap.Duration("took", time.Since(start)), zap.Error(err))
		return nil, err
	}

	fields := []zap.Field{
		zap.String("request_id", id),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	}
	if dump, err := httputil.DumpResponse(resp, true); err == nil {
		fields = append(fields, zap.ByteString("dump", dump))
	}
	t.log.Debug("<-- response", fields...)
	return resp, nil
}

// newTransport stacks the diagnostic stage (debug builds only) in front of
// the authentication stage.
func newTransport(base http.RoundTripper, tokens TokenSource, log *zap.Logger, debug bool) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	var rt http.RoundTripper = &authTransport{base: base, tokens: tokens}
	if debug {
		rt = &debugTransport{base: rt, log: log}
	}
	return rt
}
