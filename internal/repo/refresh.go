package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mailworks/mailadmin/internal/models"
	"github.com/mailworks/mailadmin/pkg/tokens"
)

var ErrTokenExpiredOrRevoked = errors.New("token expired or revoked")
var ErrTokenNotFound = errors.New("refresh token not found")

// StoreRefreshToken persists the sha256 of a freshly signed refresh JWT,
// keyed by its JTI. The raw token is never stored.
func (r *GormRepo) StoreRefreshToken(ctx context.Context, rawToken string) error {
	claims, err := tokens.RefreshClaimsFromToken(rawToken, r.RefreshSecret)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return err
	}
	rec := models.RefreshToken{
		JTI:       claims.ID,
		TokenHash: tokens.Sha256Hex(rawToken),
		UserID:    userID,
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: claims.ExpiresAt.Time.Unix(),
	}
	return r.DB.WithContext(ctx).Create(&rec).Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

// revoke flips the record behind jti to revoked and reports how many rows
// actually changed. Zero rows means someone else revoked it first; the first
// revocation's metadata is never overwritten.
func (r *GormRepo) revoke(db *gorm.DB, jti, ip, reason string) (int64, error) {
	now := time.Now().UTC()
	res := db.Model(&models.RefreshToken{}).
		Where("jti = ? AND revoked = ?", jti, false).
		Updates(map[string]any{
			"revoked":        true,
			"revoked_at":     &now,
			"revoked_by_ip":  ip,
			"reason_revoked": reason,
		})
	return res.RowsAffected, res.Error
}

// RevokeRefreshToken marks the record behind a raw refresh token as revoked,
// recording when, from where and why. Unknown or already revoked tokens are
// not an error: logout must stay idempotent.
func (r *GormRepo) RevokeRefreshToken(ctx context.Context, rawToken, ip, reason string) error {
	claims, err := tokens.RefreshClaimsFromToken(rawToken, r.RefreshSecret)
	if err != nil {
		return nil
	}
	_, err = r.revoke(r.DB.WithContext(ctx), claims.ID, ip, reason)
	return err
}

// RotateRefreshToken revokes the old record and persists the replacement in a
// single transaction, so a token can never rotate twice. The usability check
// on the read is advisory only: under read committed two concurrent refreshes
// can both see the unrevoked row, so the revoke update's row count is the
// arbiter, and the loser mints nothing.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI, ip string, newRec models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.RefreshToken
		if err := tx.Where("jti = ?", oldJTI).First(&old).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTokenNotFound
			}
			return err
		}
		if !old.Usable(time.Now()) {
			return ErrTokenExpiredOrRevoked
		}
		rows, err := r.revoke(tx, oldJTI, ip, "rotated")
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrTokenExpiredOrRevoked
		}
		return tx.Create(&newRec).Error
	})
}
