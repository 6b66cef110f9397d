package service

import (
	"context"
	"strings"

	"github.com/mailworks/mailadmin/internal/models"
	"github.com/mailworks/mailadmin/internal/repo"
	"github.com/mailworks/mailadmin/pkg/logging"
)

type ApplicationService struct {
	Repo *repo.GormRepo
}

func (s *ApplicationService) List(ctx context.Context, f repo.ApplicationFilter) ([]models.Application, int64, error) {
	return s.Repo.ListApplications(ctx, f)
}

func (s *ApplicationService) Create(ctx context.Context, app *models.Application) error {
	l := logging.FromContext(ctx).With("svc", "applications.create", "code", app.Code)
	if strings.TrimSpace(app.Code) == "" || strings.TrimSpace(app.Name) == "" {
		return ErrValidation
	}
	if err := s.Repo.CreateApplication(ctx, app); err != nil {
		l.Warn("application_create_failed", "error", err)
		return err
	}
	l.Info("application_created", "id", app.ID)
	return nil
}

func (s *ApplicationService) Update(ctx context.Context, app *models.Application) error {
	l := logging.FromContext(ctx).With("svc", "applications.update", "id", app.ID)
	if strings.TrimSpace(app.Name) == "" {
		return ErrValidation
	}
	if err := s.Repo.UpdateApplication(ctx, app); err != nil {
		l.Warn("application_update_failed", "error", err)
		return err
	}
	return nil
}

func (s *ApplicationService) Delete(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "applications.delete", "id", id)
	if err := s.Repo.DeleteApplication(ctx, id); err != nil {
		l.Warn("application_delete_failed", "error", err)
		return err
	}
	l.Info("application_deleted")
	return nil
}
