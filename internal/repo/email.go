package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mailworks/mailadmin/internal/models"
	"github.com/mailworks/mailadmin/pkg/paging"
)

var ErrEmailNotFound = errors.New("email record not found")

type EmailFilter struct {
	Status        string
	ApplicationID uint
	From          *time.Time
	To            *time.Time
	paging.Params
}

func (r *GormRepo) CreateEmail(ctx context.Context, rec *models.EmailRecord) error {
	return r.DB.WithContext(ctx).Create(rec).Error
}

func (r *GormRepo) GetEmail(ctx context.Context, id uint) (*models.EmailRecord, error) {
	var rec models.EmailRecord
	if err := r.DB.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *GormRepo) ListEmails(ctx context.Context, f EmailFilter) ([]models.EmailRecord, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.EmailRecord{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ApplicationID != 0 {
		q = q.Where("application_id = ?", f.ApplicationID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := f.OffsetLimit()
	var recs []models.EmailRecord
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&recs).Error; err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

// UpdateEmailStatus records the provider outcome. SentAt is stamped only when
// the email actually went out.
func (r *GormRepo) UpdateEmailStatus(ctx context.Context, id uint, status, errorDetail string) (*models.EmailRecord, error) {
	updates := map[string]any{
		"status":       status,
		"error_detail": errorDetail,
	}
	if status == models.EmailSent {
		now := time.Now().UTC()
		updates["sent_at"] = &now
	}
	res := r.DB.WithContext(ctx).Model(&models.EmailRecord{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrEmailNotFound
	}
	return r.GetEmail(ctx, id)
}
