package apiclient

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/mailworks/mailadmin/pkg/tokens"
)

// Session is the client-side token cache. Only the Authenticator writes it;
// guards, interceptors and feature services read.
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Role         string
	Approved     bool
	ExpiresAt    time.Time
}

// Valid reports whether the cached access token is present and unexpired.
func (s Session) Valid(now time.Time) bool {
	return s.AccessToken != "" && now.Before(s.ExpiresAt)
}

type sessionCache struct {
	mu sync.RWMutex
	s  Session
}

func (c *sessionCache) get() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s
}

func (c *sessionCache) set(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s = s
}

// swapTokens replaces the token pair in place, leaving identity fields alone.
func (c *sessionCache) swapTokens(access, refresh string, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.AccessToken = access
	c.s.RefreshToken = refresh
	c.s.ExpiresAt = expiresAt
}

func (c *sessionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s = Session{}
}

func (c *sessionCache) role() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.s.AccessToken == "" {
		return tokens.RoleUnknown
	}
	return tokens.Normalize(c.s.Role)
}

// UserInfo is persisted client-side for UI display only. It is never an
// authority source for access decisions.
type UserInfo struct {
	DisplayName       string `json:"displayName"`
	Email             string `json:"email"`
	UserPrincipalName string `json:"userPrincipalName"`
	Username          string `json:"username"`
}

const userInfoKey = "userInfo"

// Store abstracts the session/local storage the client persists display
// state into.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

func saveUserInfo(store Store, info UserInfo) {
	if store == nil {
		return
	}
	data, err := json.Marshal(info)
	if err != nil {
		return
	}
	store.Set(userInfoKey, string(data))
}

func loadUserInfo(store Store) (UserInfo, bool) {
	if store == nil {
		return UserInfo{}, false
	}
	raw, ok := store.Get(userInfoKey)
	if !ok {
		return UserInfo{}, false
	}
	var info UserInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return UserInfo{}, false
	}
	return info, true
}
