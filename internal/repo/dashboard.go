package repo

import (
	"context"
	"time"

	"github.com/mailworks/mailadmin/internal/models"
)

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

func (r *GormRepo) CountEmailsByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.DB.WithContext(ctx).Model(&models.EmailRecord{}).
		Select("status, count(*) as count").
		Group("status").
		Order("status").
		Scan(&rows).Error
	return rows, err
}

// CountEmailsByDay aggregates the trailing window ending now, one bucket per
// calendar day.
func (r *GormRepo) CountEmailsByDay(ctx context.Context, days int) ([]DayCount, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	var rows []DayCount
	err := r.DB.WithContext(ctx).Model(&models.EmailRecord{}).
		Select("date(created_at) as day, count(*) as count").
		Where("created_at >= ?", since).
		Group("date(created_at)").
		Order("day").
		Scan(&rows).Error
	return rows, err
}

func (r *GormRepo) CountActiveApplications(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Application{}).
		Where("active = ?", true).
		Count(&count).Error
	return count, err
}
