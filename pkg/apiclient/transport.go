package apiclient

import (
	"log/slog"
	"net/http"
	"strings"
)

const skipLoadingHeader = "X-Skip-Loading"

// Paths whose lookups run in the background and must not trip the global
// busy indicator.
var skipLoadingPaths = []string{"/photo", "/directory"}

// Public endpoints bypass the wait-for-session step and the 401 refresh
// handling; they get only the protocol-version header.
var publicPaths = []string{
	"/auth/login",
	"/auth/register",
	"/auth/azure",
	"/auth/refresh",
	"/auth/logout",
}

func isPublic(req *http.Request) bool {
	p := req.URL.Path
	for _, suffix := range publicPaths {
		if strings.HasSuffix(p, suffix) {
			return true
		}
	}
	return false
}

func skipsLoading(req *http.Request) bool {
	if req.Header.Get(skipLoadingHeader) != "" {
		return true
	}
	p := strings.ToLower(req.URL.Path)
	for _, s := range skipLoadingPaths {
		if strings.Contains(p, s) {
			return true
		}
	}
	return false
}

// NewTransport builds the fixed three-stage interceptor chain around base:
// attach auth headers, handle errors and refresh, drive the busy indicator.
func NewTransport(base http.RoundTripper, auth *Authenticator, notifier Notifier, indicator Indicator, logger *slog.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if indicator == nil {
		indicator = nopIndicator{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	var rt http.RoundTripper = base
	rt = &loadingStage{inner: rt, indicator: indicator}
	rt = &errorRefreshStage{inner: rt, auth: auth, notifier: notifier, logger: logger}
	rt = &authHeaderStage{inner: rt, auth: auth}
	return rt
}

// authHeaderStage always stamps the protocol version. For protected
// endpoints it first waits for the session state to settle, so a protected
// request is never dispatched against an unknown session, then attaches the
// bearer token and caller-identity header when cached.
type authHeaderStage struct {
	inner http.RoundTripper
	auth  *Authenticator
}

func (s *authHeaderStage) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set(apiVersionHeader, apiVersion)

	if isPublic(r) {
		return s.inner.RoundTrip(r)
	}

	if s.auth.IsAuthenticated(r.Context()) {
		sess := s.auth.Session()
		r.Header.Set("Authorization", "Bearer "+sess.AccessToken)
		if sess.UserID != "" {
			r.Header.Set(userIDHeader, sess.UserID)
		}
	}
	return s.inner.RoundTrip(r)
}

// errorRefreshStage classifies failures and owns the 401 path: at most one
// refresh-and-replay per request, logout on the second 401 or when no
// refresh token is cached. User-facing notifications carry no technical
// detail; that goes to the diagnostic sink only, and everything is
// suppressed during an active logout.
type errorRefreshStage struct {
	inner    http.RoundTripper
	auth     *Authenticator
	notifier Notifier
	logger   *slog.Logger
}

func (s *errorRefreshStage) notify(message string) {
	if s.auth.IsLoggingOut() {
		return
	}
	s.notifier.Error(message)
}

func (s *errorRefreshStage) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := s.inner.RoundTrip(req)
	if err != nil {
		s.logger.Error("request transport error", "url", req.URL.Path, "error", err)
		s.notify("Something went wrong. Please try again.")
		return resp, err
	}

	if isPublic(req) {
		return resp, nil
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return s.handleUnauthorized(req, resp)
	case resp.StatusCode == http.StatusForbidden:
		s.logger.Warn("request forbidden", "url", req.URL.Path)
		s.notify("You do not have permission to perform this action.")
	case resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError:
		// Validation and not-found failures surface through the envelope;
		// the calling component decides display.
	case resp.StatusCode >= http.StatusInternalServerError:
		s.logger.Error("request failed", "url", req.URL.Path, "status", resp.StatusCode)
		s.notify("Something went wrong. Please try again.")
	}
	return resp, nil
}

func (s *errorRefreshStage) handleUnauthorized(req *http.Request, resp *http.Response) (*http.Response, error) {
	ctx := req.Context()

	if !s.auth.refreshTokenCached() {
		s.logger.Warn("unauthorized with no refresh token, logging out", "url", req.URL.Path)
		s.auth.Logout(ctx)
		return resp, nil
	}

	newToken, ok := s.auth.AttemptTokenRefresh(ctx)
	if !ok {
		s.auth.Logout(ctx)
		s.notify("Your session has expired. Please sign in again.")
		return resp, nil
	}

	retry, err := cloneForRetry(req)
	if err != nil {
		s.logger.Error("could not replay request after refresh", "url", req.URL.Path, "error", err)
		return resp, nil
	}
	retry.Header.Set("Authorization", "Bearer "+newToken)
	if uid := s.auth.UserID(); uid != "" {
		retry.Header.Set(userIDHeader, uid)
	}

	resp.Body.Close()
	retryResp, err := s.inner.RoundTrip(retry)
	if err != nil {
		s.logger.Error("retry transport error", "url", req.URL.Path, "error", err)
		return retryResp, err
	}
	if retryResp.StatusCode == http.StatusUnauthorized {
		// Second 401: the session is beyond saving. No third attempt.
		s.logger.Warn("retry still unauthorized, logging out", "url", req.URL.Path)
		s.auth.Logout(ctx)
		s.notify("Your session has expired. Please sign in again.")
	}
	return retryResp, nil
}

// cloneForRetry rebuilds the request with a rewound body.
func cloneForRetry(req *http.Request) (*http.Request, error) {
	r := req.Clone(req.Context())
	if req.Body == nil || req.GetBody == nil {
		return r, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	r.Body = body
	return r, nil
}

// loadingStage drives the global busy indicator for the request's duration,
// unless the request is flagged to skip it.
type loadingStage struct {
	inner     http.RoundTripper
	indicator Indicator
}

func (s *loadingStage) RoundTrip(req *http.Request) (*http.Response, error) {
	if skipsLoading(req) {
		return s.inner.RoundTrip(req)
	}
	s.indicator.Show()
	defer s.indicator.Hide()
	return s.inner.RoundTrip(req)
}
