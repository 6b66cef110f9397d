package apiclient

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mailworks/mailadmin/pkg/apiresult"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingNotifier struct {
	mu    sync.Mutex
	errs  []string
	warns []string
}

func (n *recordingNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, message)
}

func (n *recordingNotifier) Warn(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warns = append(n.warns, message)
}

func (n *recordingNotifier) Errors() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.errs...)
}

func (n *recordingNotifier) Warns() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.warns...)
}

type recordingIndicator struct {
	shows atomic.Int32
	hides atomic.Int32
}

func (i *recordingIndicator) Show() { i.shows.Add(1) }
func (i *recordingIndicator) Hide() { i.hides.Add(1) }

type navRecorder struct {
	mu   sync.Mutex
	urls []string
}

func (n *navRecorder) record(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, url)
}

func (n *navRecorder) URLs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.urls...)
}

// fakeBackend speaks the envelope contract over httptest. The protected
// route accepts only validAccess when set; the refresh endpoint rotates to
// freshAccess/freshRefresh.
type fakeBackend struct {
	mu             sync.Mutex
	loginCalls     int
	refreshCalls   int
	revokeCalls    int
	protectedCalls int

	authHeaders []string
	apiVersions []string
	userIDs     []string

	validAccess        string
	alwaysUnauthorized bool
	refreshFails       bool
	refreshDelay       time.Duration

	freshAccess  string
	freshRefresh string
}

func writeEnvelope(w http.ResponseWriter, status int, resp apiresult.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func (b *fakeBackend) payload(access, refresh string) loginPayload {
	return loginPayload{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    time.Now().Add(15 * time.Minute),
		UserID:       "user-1",
		Username:     "alice",
		Role:         "Admin",
		Approved:     true,
		DisplayName:  "Alice A",
		Email:        "alice@example.com",
	}
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.loginCalls++
		b.mu.Unlock()

		var creds Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "secret" {
			writeEnvelope(w, http.StatusUnauthorized, apiresult.Fail(apiresult.CodeInvalidCredentials, "Invalid username or password."))
			return
		}
		writeEnvelope(w, http.StatusOK, apiresult.OK([]loginPayload{b.payload("tok1", "ref1")}))
	})

	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.refreshCalls++
		delay := b.refreshDelay
		fails := b.refreshFails
		b.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		if fails {
			writeEnvelope(w, http.StatusUnauthorized, apiresult.Fail(apiresult.CodeTokenExpired, "Refresh token expired."))
			return
		}
		writeEnvelope(w, http.StatusOK, apiresult.OK([]loginPayload{b.payload(b.freshAccess, b.freshRefresh)}))
	})

	mux.HandleFunc("POST /api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.revokeCalls++
		b.mu.Unlock()
		writeEnvelope(w, http.StatusOK, apiresult.OK(nil))
	})

	mux.HandleFunc("GET /api/v1/applications", func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")

		b.mu.Lock()
		b.protectedCalls++
		b.authHeaders = append(b.authHeaders, auth)
		b.apiVersions = append(b.apiVersions, r.Header.Get(apiVersionHeader))
		b.userIDs = append(b.userIDs, r.Header.Get(userIDHeader))
		unauthorized := b.alwaysUnauthorized || (b.validAccess != "" && auth != "Bearer "+b.validAccess)
		b.mu.Unlock()

		if unauthorized {
			writeEnvelope(w, http.StatusUnauthorized, apiresult.Fail(apiresult.CodeTokenExpired, "Access token expired."))
			return
		}
		apps := []Application{{ID: 1, Code: "crm", Name: "CRM", Active: true}}
		writeEnvelope(w, http.StatusOK, apiresult.OKList(apps, 1))
	})

	return mux
}

func (b *fakeBackend) counts() (login, refresh, revoke, protected int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loginCalls, b.refreshCalls, b.revokeCalls, b.protectedCalls
}

func (b *fakeBackend) recordedAuthHeaders() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.authHeaders...)
}

func (b *fakeBackend) recordedAPIVersions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.apiVersions...)
}

type testHarness struct {
	backend   *fakeBackend
	auth      *Authenticator
	client    *Client
	notifier  *recordingNotifier
	indicator *recordingIndicator
	nav       *navRecorder
	store     *MemoryStore
}

func newTestHarness(t *testing.T, baseURL string, backend *fakeBackend) *testHarness {
	t.Helper()

	h := &testHarness{
		backend:   backend,
		notifier:  &recordingNotifier{},
		indicator: &recordingIndicator{},
		nav:       &navRecorder{},
		store:     NewMemoryStore(),
	}
	h.auth = NewAuthenticator(AuthConfig{
		BaseURL:  baseURL,
		Store:    h.store,
		Notifier: h.notifier,
		Logger:   discardLogger(),
		Navigate: h.nav.record,
	})
	h.client = New(ClientConfig{
		BaseURL:   baseURL,
		Auth:      h.auth,
		Notifier:  h.notifier,
		Indicator: h.indicator,
		Logger:    discardLogger(),
	})
	return h
}

func (h *testHarness) seedSession(access, refresh string) {
	h.auth.cache.set(Session{
		AccessToken:  access,
		RefreshToken: refresh,
		UserID:       "user-1",
		Role:         "admin",
		Approved:     true,
		ExpiresAt:    time.Now().Add(10 * time.Minute),
	})
}
