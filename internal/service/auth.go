package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mailworks/mailadmin/internal/models"
	"github.com/mailworks/mailadmin/internal/repo"
	pkg_hash "github.com/mailworks/mailadmin/pkg/hash"
	"github.com/mailworks/mailadmin/pkg/logging"
	"github.com/mailworks/mailadmin/pkg/tokens"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrInvalidCredentials  = repo.ErrInvalidCredentials
	ErrUserNotApproved     = errors.New("user not approved")
	ErrAzureADRequired     = errors.New("azure ad login required")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

type AuthService struct {
	Repo *repo.GormRepo
}

type LoginResult struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	AccessExp    time.Time `json:"accessExp"`
	RefreshExp   time.Time `json:"refreshExp"`

	UserID            string `json:"userId"`
	Username          string `json:"username"`
	Role              string `json:"role"`
	Approved          bool   `json:"approved"`
	DisplayName       string `json:"displayName"`
	Email             string `json:"email"`
	UserPrincipalName string `json:"userPrincipalName"`
}

func (s *AuthService) issuePair(ctx context.Context, user *models.User) (*LoginResult, error) {
	accessExp := time.Now().Add(accessTTL)
	accessToken, err := tokens.SignAccessToken(user.ID.String(), user.Role, user.Approved, accessExp, s.Repo.JWTSecret)
	if err != nil {
		return nil, err
	}

	refreshExp := time.Now().Add(refreshTTL)
	refreshToken, _, err := tokens.SignRefreshToken(user.ID.String(), refreshExp, s.Repo.RefreshSecret)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.StoreRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:       accessToken,
		RefreshToken:      refreshToken,
		AccessExp:         accessExp,
		RefreshExp:        refreshExp,
		UserID:            user.ID.String(),
		Username:          user.Username,
		Role:              tokens.Normalize(user.Role),
		Approved:          user.Approved,
		DisplayName:       user.DisplayName,
		Email:             user.Email,
		UserPrincipalName: user.UserPrincipalName,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, username, password, email, displayName string) error {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if strings.TrimSpace(username) == "" || password == "" {
		return ErrValidation
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return err
	}
	user := models.User{
		Username:     username,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: pwHash,
		Role:         tokens.RoleUser,
	}

	if err := s.Repo.CreateUserIfNotExists(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_failed", "reason", "user already exist")
			return repo.ErrUserAlreadyExist
		}
		l.Error("register_error", "error", err)
		return err
	}
	return nil
}

// Login authenticates a local account. Federated-only accounts (no password
// hash) fail with ErrAzureADRequired so callers can point the user at the
// Azure AD flow; unapproved accounts are rejected outright.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrValidation
	}

	user, err := s.Repo.UserByCredentials(ctx, username, password)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrInvalidCredentials):
			l.Warn("login_failed", "reason", "invalid username or password")
			return nil, ErrInvalidCredentials
		case errors.Is(err, repo.ErrNoPassword):
			l.Warn("login_failed", "reason", "federated account, no password")
			return nil, ErrAzureADRequired
		default:
			l.Error("login_failed", "error", err)
			return nil, err
		}
	}

	if !user.Approved {
		l.Warn("login_failed", "reason", "user not approved")
		return nil, ErrUserNotApproved
	}

	res, err := s.issuePair(ctx, user)
	if err != nil {
		l.Error("login_failed", "error", err)
		return nil, err
	}
	l.Info("login_successful", "user_id", res.UserID)
	return res, nil
}

// AzureLogin exchanges verified federated identity claims for a local
// session, creating the local user on first sight. First-sight accounts get
// role user and stay unapproved until an admin flips the flag.
func (s *AuthService) AzureLogin(ctx context.Context, email, upn, displayName, username string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.azure_login", "upn", upn)

	if strings.TrimSpace(upn) == "" || strings.TrimSpace(email) == "" {
		return nil, ErrValidation
	}
	if username == "" {
		username = upn
	}

	user, err := s.Repo.UserByUPN(ctx, upn)
	if errors.Is(err, repo.ErrUserNotFound) {
		user = &models.User{
			Username:          username,
			Email:             email,
			DisplayName:       displayName,
			UserPrincipalName: upn,
			Role:              tokens.RoleUser,
		}
		if createErr := s.Repo.CreateUserIfNotExists(ctx, user); createErr != nil && !errors.Is(createErr, repo.ErrUserAlreadyExist) {
			l.Error("azure_login_failed", "error", createErr)
			return nil, createErr
		}
		l.Info("azure_first_sight", "user_id", user.ID.String())
	} else if err != nil {
		l.Error("azure_login_failed", "error", err)
		return nil, err
	}

	res, err := s.issuePair(ctx, user)
	if err != nil {
		l.Error("azure_login_failed", "error", err)
		return nil, err
	}
	l.Info("azure_login_successful", "user_id", res.UserID)
	return res, nil
}

// Refresh rotates a presented refresh token: the old record is revoked and a
// new pair issued in one transaction. Revoked or expired tokens fail and the
// caller is expected to drop its session.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh, callerIP string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(rawRefresh, s.Repo.RefreshSecret)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	stored, err := s.Repo.FindRefreshByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repo.ErrTokenNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if tokens.Sha256Hex(rawRefresh) != stored.TokenHash {
		return nil, ErrInvalidRefreshToken
	}
	if !stored.Usable(time.Now()) {
		l.Warn("refresh_failed", "reason", "token expired or revoked", "jti", claims.ID)
		return nil, repo.ErrTokenExpiredOrRevoked
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	accessExp := time.Now().Add(accessTTL)
	accessToken, err := tokens.SignAccessToken(user.ID.String(), user.Role, user.Approved, accessExp, s.Repo.JWTSecret)
	if err != nil {
		return nil, err
	}
	refreshExp := time.Now().Add(refreshTTL)
	newRefresh, jti, err := tokens.SignRefreshToken(user.ID.String(), refreshExp, s.Repo.RefreshSecret)
	if err != nil {
		return nil, err
	}

	newRec := models.RefreshToken{
		JTI:       jti,
		TokenHash: tokens.Sha256Hex(newRefresh),
		UserID:    user.ID,
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: refreshExp.Unix(),
	}
	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, callerIP, newRec); err != nil {
		l.Warn("refresh_failed", "error", err)
		if errors.Is(err, repo.ErrTokenExpiredOrRevoked) || errors.Is(err, repo.ErrTokenNotFound) {
			return nil, repo.ErrTokenExpiredOrRevoked
		}
		return nil, err
	}

	l.Info("refresh_successful", "user_id", user.ID.String())
	return &LoginResult{
		AccessToken:       accessToken,
		RefreshToken:      newRefresh,
		AccessExp:         accessExp,
		RefreshExp:        refreshExp,
		UserID:            user.ID.String(),
		Username:          user.Username,
		Role:              tokens.Normalize(user.Role),
		Approved:          user.Approved,
		DisplayName:       user.DisplayName,
		Email:             user.Email,
		UserPrincipalName: user.UserPrincipalName,
	}, nil
}

// LogOut revokes the presented refresh token server-side. Best effort and
// idempotent: unknown, malformed or already revoked tokens are not errors.
func (s *AuthService) LogOut(ctx context.Context, rawRefresh, callerIP string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")
	if rawRefresh == "" {
		return nil
	}
	if err := s.Repo.RevokeRefreshToken(ctx, rawRefresh, callerIP, "logout"); err != nil {
		l.Error("logout_revoke_failed", "error", err)
		return err
	}
	l.Info("logout_successful")
	return nil
}
