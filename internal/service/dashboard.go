package service

import (
	"context"

	"github.com/mailworks/mailadmin/internal/repo"
)

type DashboardService struct {
	Repo *repo.GormRepo
}

type DashboardSummary struct {
	ByStatus           []repo.StatusCount `json:"byStatus"`
	ByDay              []repo.DayCount    `json:"byDay"`
	ActiveApplications int64              `json:"activeApplications"`
}

func (s *DashboardService) Summary(ctx context.Context, days int) (*DashboardSummary, error) {
	byStatus, err := s.Repo.CountEmailsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byDay, err := s.Repo.CountEmailsByDay(ctx, days)
	if err != nil {
		return nil, err
	}
	active, err := s.Repo.CountActiveApplications(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardSummary{
		ByStatus:           byStatus,
		ByDay:              byDay,
		ActiveApplications: active,
	}, nil
}
