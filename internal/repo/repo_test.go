package repo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mailworks/mailadmin/internal/models"
	"github.com/mailworks/mailadmin/pkg/paging"
	"github.com/mailworks/mailadmin/pkg/tokens"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Application{},
		&models.EmailRecord{},
	))
	return &GormRepo{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func TestListUsers_Filters(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	seed := []models.User{
		{Username: "alice", Email: "alice@example.com", DisplayName: "Alice A", Role: tokens.RoleAdmin, Approved: true},
		{Username: "bob", Email: "bob@example.com", DisplayName: "Bob B", Role: tokens.RoleUser, Approved: true},
		{Username: "carol", Email: "carol@example.com", DisplayName: "Carol C", Role: tokens.RoleUser, Approved: false},
	}
	for i := range seed {
		require.NoError(t, r.DB.Create(&seed[i]).Error)
	}

	approved := true
	tests := []struct {
		name      string
		filter    UserFilter
		wantNames []string
		wantTotal int64
	}{
		{
			name:      "no filter returns all ordered by username",
			filter:    UserFilter{},
			wantNames: []string{"alice", "bob", "carol"},
			wantTotal: 3,
		},
		{
			name:      "search matches display name case-insensitively",
			filter:    UserFilter{Search: "BOB"},
			wantNames: []string{"bob"},
			wantTotal: 1,
		},
		{
			name:      "role filter",
			filter:    UserFilter{Role: "User"},
			wantNames: []string{"bob", "carol"},
			wantTotal: 2,
		},
		{
			name:      "approved filter",
			filter:    UserFilter{Approved: &approved},
			wantNames: []string{"alice", "bob"},
			wantTotal: 2,
		},
		{
			name:      "paging slices but total counts everything",
			filter:    UserFilter{Params: paging.Params{Page: 2, Size: 2}},
			wantNames: []string{"carol"},
			wantTotal: 3,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			users, total, err := r.ListUsers(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			names := make([]string, len(users))
			for i, u := range users {
				names[i] = u.Username
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestUserByCredentials_FederatedAccount(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.DB.Create(&models.User{
		Username: "federated",
		Role:     tokens.RoleUser,
		Approved: true,
	}).Error)

	_, err := r.UserByCredentials(ctx, "federated", "whatever")
	assert.ErrorIs(t, err, ErrNoPassword)
}

func TestListApplications_Filters(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	seed := []models.Application{
		{Code: "crm", Name: "CRM", Active: true},
		{Code: "erp", Name: "ERP", Active: false},
		{Code: "hr", Name: "HR Portal", Active: true},
	}
	for i := range seed {
		require.NoError(t, r.DB.Create(&seed[i]).Error)
	}

	active := true
	apps, total, err := r.ListApplications(ctx, ApplicationFilter{Active: &active})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, apps, 2)
	assert.Equal(t, "crm", apps[0].Code)
	assert.Equal(t, "hr", apps[1].Code)

	apps, total, err = r.ListApplications(ctx, ApplicationFilter{Search: "portal"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, apps, 1)
	assert.Equal(t, "hr", apps[0].Code)
}

func TestCreateApplication_DuplicateCode(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateApplication(ctx, &models.Application{Code: "crm", Name: "CRM", Active: true}))
	err := r.CreateApplication(ctx, &models.Application{Code: "crm", Name: "Other", Active: true})
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestListEmails_Filters(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	app := models.Application{Code: "crm", Name: "CRM", Active: true}
	require.NoError(t, r.DB.Create(&app).Error)

	for i, status := range []string{models.EmailQueued, models.EmailSent, models.EmailSent, models.EmailFailed} {
		rec := models.EmailRecord{
			ApplicationID: app.ID,
			Provider:      models.ProviderSMTP,
			FromAddress:   "noreply@example.com",
			ToAddresses:   fmt.Sprintf("rcpt%d@example.com", i),
			Status:        status,
		}
		require.NoError(t, r.DB.Create(&rec).Error)
	}

	_, total, err := r.ListEmails(ctx, EmailFilter{Status: models.EmailSent})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	_, total, err = r.ListEmails(ctx, EmailFilter{ApplicationID: app.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)

	_, total, err = r.ListEmails(ctx, EmailFilter{ApplicationID: app.ID + 1})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	future := time.Now().Add(time.Hour)
	_, total, err = r.ListEmails(ctx, EmailFilter{From: &future})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestUpdateEmailStatus_StampsSentAt(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	app := models.Application{Code: "crm", Name: "CRM", Active: true}
	require.NoError(t, r.DB.Create(&app).Error)
	rec := models.EmailRecord{
		ApplicationID: app.ID,
		Provider:      models.ProviderSMTP,
		FromAddress:   "noreply@example.com",
		ToAddresses:   "a@example.com",
		Status:        models.EmailQueued,
	}
	require.NoError(t, r.DB.Create(&rec).Error)

	updated, err := r.UpdateEmailStatus(ctx, rec.ID, models.EmailSent, "")
	require.NoError(t, err)
	assert.Equal(t, models.EmailSent, updated.Status)
	require.NotNil(t, updated.SentAt)

	failed, err := r.UpdateEmailStatus(ctx, rec.ID, models.EmailFailed, "mailbox full")
	require.NoError(t, err)
	assert.Equal(t, "mailbox full", failed.ErrorDetail)

	_, err = r.UpdateEmailStatus(ctx, 9999, models.EmailSent, "")
	assert.ErrorIs(t, err, ErrEmailNotFound)
}

func TestRotateRefreshToken_IsTransactional(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	userID := mustCreateUser(t, r)
	exp := time.Now().Add(time.Hour)

	raw1, jti1, err := tokens.SignRefreshToken(userID, exp, r.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, r.StoreRefreshToken(ctx, raw1))

	raw2, jti2, err := tokens.SignRefreshToken(userID, exp, r.RefreshSecret)
	require.NoError(t, err)

	newRec := refreshRecord(t, r, raw2, jti2, userID, exp)
	require.NoError(t, r.RotateRefreshToken(ctx, jti1, "10.0.0.1", newRec))

	old, err := r.FindRefreshByJTI(ctx, jti1)
	require.NoError(t, err)
	assert.True(t, old.Revoked)
	assert.Equal(t, "rotated", old.ReasonRevoked)

	// Rotating the same JTI again must fail and must not create a second
	// replacement record.
	raw3, jti3, err := tokens.SignRefreshToken(userID, exp, r.RefreshSecret)
	require.NoError(t, err)
	err = r.RotateRefreshToken(ctx, jti1, "10.0.0.1", refreshRecord(t, r, raw3, jti3, userID, exp))
	assert.ErrorIs(t, err, ErrTokenExpiredOrRevoked)

	_, err = r.FindRefreshByJTI(ctx, jti3)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRotateRefreshToken_ConcurrentPresentersMintOneReplacement(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	// A single connection keeps the shared in-memory database intact and
	// queues the transactions, so every interleaving still ends with exactly
	// one winner.
	sqlDB, err := r.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	userID := mustCreateUser(t, r)
	exp := time.Now().Add(time.Hour)

	raw1, jti1, err := tokens.SignRefreshToken(userID, exp, r.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, r.StoreRefreshToken(ctx, raw1))

	const presenters = 4
	recs := make([]models.RefreshToken, presenters)
	for i := range recs {
		raw, jti, err := tokens.SignRefreshToken(userID, exp, r.RefreshSecret)
		require.NoError(t, err)
		recs[i] = refreshRecord(t, r, raw, jti, userID, exp)
	}

	errs := make([]error, presenters)
	var wg sync.WaitGroup
	for i := range recs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.RotateRefreshToken(ctx, jti1, "10.0.0.1", recs[i])
		}(i)
	}
	wg.Wait()

	var winners int
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrTokenExpiredOrRevoked)
		}
	}
	assert.Equal(t, 1, winners)

	var replacements int64
	require.NoError(t, r.DB.Model(&models.RefreshToken{}).
		Where("jti <> ?", jti1).Count(&replacements).Error)
	assert.EqualValues(t, 1, replacements)
}

func TestRevoke_FirstRevocationIsTerminal(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	userID := mustCreateUser(t, r)
	raw, jti, err := tokens.SignRefreshToken(userID, time.Now().Add(time.Hour), r.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, r.StoreRefreshToken(ctx, raw))

	rows, err := r.revoke(r.DB, jti, "10.0.0.1", "logout")
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	// Already revoked: no rows change and the original metadata survives.
	rows, err = r.revoke(r.DB, jti, "10.0.0.2", "rotated")
	require.NoError(t, err)
	assert.EqualValues(t, 0, rows)

	rec, err := r.FindRefreshByJTI(ctx, jti)
	require.NoError(t, err)
	assert.Equal(t, "logout", rec.ReasonRevoked)
	assert.Equal(t, "10.0.0.1", rec.RevokedByIP)
}

func TestRevokeRefreshToken_UnknownTokenIsNoError(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	assert.NoError(t, r.RevokeRefreshToken(ctx, "not-a-jwt", "10.0.0.1", "logout"))

	userID := mustCreateUser(t, r)
	raw, _, err := tokens.SignRefreshToken(userID, time.Now().Add(time.Hour), r.RefreshSecret)
	require.NoError(t, err)
	// Signed but never stored: still not an error.
	assert.NoError(t, r.RevokeRefreshToken(ctx, raw, "10.0.0.1", "logout"))
}

func mustCreateUser(t *testing.T, r *GormRepo) string {
	t.Helper()
	u := models.User{Username: "alice", Role: tokens.RoleAdmin, Approved: true}
	require.NoError(t, r.DB.Create(&u).Error)
	return u.ID.String()
}

func refreshRecord(t *testing.T, r *GormRepo, raw, jti, userID string, exp time.Time) models.RefreshToken {
	t.Helper()
	uid, err := uuid.Parse(userID)
	require.NoError(t, err)
	return models.RefreshToken{
		JTI:       jti,
		TokenHash: tokens.Sha256Hex(raw),
		UserID:    uid,
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: exp.Unix(),
	}
}
