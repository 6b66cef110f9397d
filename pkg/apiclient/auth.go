package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mailworks/mailadmin/pkg/apiresult"
	"github.com/mailworks/mailadmin/pkg/tokens"
)

const (
	apiVersionHeader = "api-version"
	apiVersion       = "1.0"
	userIDHeader     = "userId"
)

type AuthConfig struct {
	BaseURL string

	// HTTPClient is used for the auth endpoints themselves. It must NOT be
	// wrapped with the interceptor chain, otherwise a refresh would recurse.
	HTTPClient *http.Client

	Store    Store
	Notifier Notifier
	Logger   *slog.Logger

	// LoginPath is the entry point logout redirects to.
	LoginPath string
	// Navigate is invoked for redirects (logout, guard decisions are returned
	// instead). Optional.
	Navigate func(url string)
}

// Authenticator owns the session: login, federated login, refresh, logout
// and the synchronous cache reads. It is the single writer of the token
// cache.
type Authenticator struct {
	base      string
	http      *http.Client
	store     Store
	notifier  Notifier
	logger    *slog.Logger
	loginPath string
	navigate  func(string)

	cache    sessionCache
	initOnce sync.Once
	initDone chan struct{}

	// Concurrent 401s coalesce into one in-flight refresh shared by all
	// waiters.
	refreshGroup singleflight.Group

	loggingOut atomic.Bool
}

func NewAuthenticator(cfg AuthConfig) *Authenticator {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = "/Login"
	}

	a := &Authenticator{
		base:      cfg.BaseURL,
		http:      httpClient,
		store:     cfg.Store,
		notifier:  notifier,
		logger:    logger,
		loginPath: loginPath,
		navigate:  cfg.Navigate,
		initDone:  make(chan struct{}),
	}
	go a.restore()
	return a
}

// restore loads persisted display state. Tokens are never persisted, so a
// fresh Authenticator always starts unauthenticated; the channel still gates
// IsAuthenticated so no protected request races the restore.
func (a *Authenticator) restore() {
	a.initOnce.Do(func() {
		defer close(a.initDone)
		if _, ok := loadUserInfo(a.store); ok {
			a.logger.Debug("restored display state from store")
		}
	})
}

// IsAuthenticated waits for the in-flight initialization to settle, then
// answers from the cache.
func (a *Authenticator) IsAuthenticated(ctx context.Context) bool {
	select {
	case <-a.initDone:
	case <-ctx.Done():
		return false
	}
	return a.cache.get().Valid(time.Now())
}

// Role returns the cached role, RoleUnknown without a session.
func (a *Authenticator) Role() string { return a.cache.role() }

func (a *Authenticator) UserID() string { return a.cache.get().UserID }

func (a *Authenticator) Approved() bool { return a.cache.get().Approved }

// Session returns a copy of the cached session.
func (a *Authenticator) Session() Session { return a.cache.get() }

// IsLoggingOut reports whether a logout is in flight; error notifications
// are suppressed while it is.
func (a *Authenticator) IsLoggingOut() bool { return a.loggingOut.Load() }

func (a *Authenticator) refreshTokenCached() bool {
	return a.cache.get().RefreshToken != ""
}

// loginPayload mirrors the server's login result JSON.
type loginPayload struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	AccessExp    time.Time `json:"accessExp"`

	UserID            string `json:"userId"`
	Username          string `json:"username"`
	Role              string `json:"role"`
	Approved          bool   `json:"approved"`
	DisplayName       string `json:"displayName"`
	Email             string `json:"email"`
	UserPrincipalName string `json:"userPrincipalName"`
}

func (a *Authenticator) postEnvelope(ctx context.Context, path string, payload any) (*apiresult.Envelope, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiVersionHeader, apiVersion)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var env apiresult.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return &env, resp.StatusCode, nil
}

func (a *Authenticator) sessionFromPayload(p loginPayload) Session {
	return Session{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		UserID:       p.UserID,
		Role:         tokens.Normalize(p.Role),
		Approved:     p.Approved,
		ExpiresAt:    p.AccessExp,
	}
}

func (a *Authenticator) adoptLogin(env *apiresult.Envelope, status int) (*Session, error) {
	if !env.OK() {
		return nil, &APIError{Status: status, Code: env.ResultCode, Message: env.FirstMessage()}
	}
	var payloads []loginPayload
	if err := env.Decode(&payloads); err != nil || len(payloads) == 0 {
		return nil, fmt.Errorf("malformed login response")
	}
	p := payloads[0]

	s := a.sessionFromPayload(p)
	a.cache.set(s)
	saveUserInfo(a.store, UserInfo{
		DisplayName:       p.DisplayName,
		Email:             p.Email,
		UserPrincipalName: p.UserPrincipalName,
		Username:          p.Username,
	})
	return &s, nil
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *Authenticator) Login(ctx context.Context, creds Credentials) (*Session, error) {
	env, status, err := a.postEnvelope(ctx, "/api/v1/auth/login", creds)
	if err != nil {
		return nil, err
	}
	s, err := a.adoptLogin(env, status)
	if err != nil {
		a.logger.Warn("login failed", "code", env.ResultCode, "error", err)
		return nil, err
	}
	a.logger.Info("login successful", "user_id", s.UserID)
	return s, nil
}

// AzureLogin exchanges verified federated identity claims for a local
// session.
func (a *Authenticator) AzureLogin(ctx context.Context, email, upn, displayName, username string) (*Session, error) {
	payload := map[string]string{
		"email":             email,
		"userPrincipalName": upn,
		"displayName":       displayName,
		"username":          username,
	}
	env, status, err := a.postEnvelope(ctx, "/api/v1/auth/azure", payload)
	if err != nil {
		return nil, err
	}
	s, err := a.adoptLogin(env, status)
	if err != nil {
		a.logger.Warn("azure login failed", "code", env.ResultCode, "error", err)
		return nil, err
	}
	a.logger.Info("azure login successful", "user_id", s.UserID)
	return s, nil
}

// AttemptTokenRefresh presents the cached refresh token; on success the
// cached pair is swapped in place, on failure the session is cleared.
// Simultaneous callers share one in-flight refresh.
func (a *Authenticator) AttemptTokenRefresh(ctx context.Context) (string, bool) {
	refresh := a.cache.get().RefreshToken
	if refresh == "" {
		return "", false
	}

	v, err, _ := a.refreshGroup.Do("refresh", func() (any, error) {
		return a.doRefresh(ctx, refresh)
	})
	if err != nil {
		a.cache.clear()
		a.logger.Warn("token refresh failed", "error", err)
		return "", false
	}
	return v.(string), true
}

func (a *Authenticator) doRefresh(ctx context.Context, refresh string) (string, error) {
	env, status, err := a.postEnvelope(ctx, "/api/v1/auth/refresh", map[string]string{"refreshToken": refresh})
	if err != nil {
		return "", err
	}
	if !env.OK() {
		return "", &APIError{Status: status, Code: env.ResultCode, Message: env.FirstMessage()}
	}
	var payloads []loginPayload
	if decErr := env.Decode(&payloads); decErr != nil || len(payloads) == 0 {
		return "", fmt.Errorf("malformed refresh response")
	}
	p := payloads[0]
	a.cache.swapTokens(p.AccessToken, p.RefreshToken, p.AccessExp)
	a.logger.Info("token refreshed")
	return p.AccessToken, nil
}

// Logout revokes the refresh token server-side (best effort), clears the
// session and redirects to the login entry point. Safe to call repeatedly.
func (a *Authenticator) Logout(ctx context.Context) {
	a.loggingOut.Store(true)
	defer a.loggingOut.Store(false)

	if refresh := a.cache.get().RefreshToken; refresh != "" {
		if _, _, err := a.postEnvelope(ctx, "/api/v1/auth/logout", map[string]string{"refreshToken": refresh}); err != nil {
			// Best effort: the local session is torn down regardless.
			a.logger.Warn("logout revoke failed", "error", err)
		}
	}

	a.cache.clear()
	if a.store != nil {
		a.store.Delete(userInfoKey)
	}
	a.logger.Info("logged out")

	if a.navigate != nil {
		a.navigate(a.loginPath)
	}
}
