package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mailworks/mailadmin/internal/models"
	"github.com/mailworks/mailadmin/pkg/paging"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrDuplicateCode       = errors.New("application code already exists")
)

type ApplicationFilter struct {
	Search string
	Active *bool
	paging.Params
}

func (r *GormRepo) ListApplications(ctx context.Context, f ApplicationFilter) ([]models.Application, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Application{})
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("lower(code) LIKE ? OR lower(name) LIKE ?", like, like)
	}
	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := f.OffsetLimit()
	var apps []models.Application
	if err := q.Order("code").Offset(offset).Limit(limit).Find(&apps).Error; err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

func (r *GormRepo) GetApplication(ctx context.Context, id uint) (*models.Application, error) {
	var app models.Application
	if err := r.DB.WithContext(ctx).First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

func (r *GormRepo) CreateApplication(ctx context.Context, app *models.Application) error {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Application{}).
		Where("code = ?", app.Code).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateCode
	}
	return r.DB.WithContext(ctx).Create(app).Error
}

func (r *GormRepo) UpdateApplication(ctx context.Context, app *models.Application) error {
	res := r.DB.WithContext(ctx).Model(&models.Application{}).
		Where("id = ?", app.ID).
		Updates(map[string]any{
			"name":        app.Name,
			"description": app.Description,
			"active":      app.Active,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

func (r *GormRepo) DeleteApplication(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Application{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}
