package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mailworks/mailadmin/internal/models"
	"github.com/mailworks/mailadmin/internal/repo"
	"github.com/mailworks/mailadmin/pkg/logging"
	"github.com/mailworks/mailadmin/pkg/tokens"
)

var ErrUnknownRole = errors.New("unknown role")

type UserService struct {
	Repo *repo.GormRepo
}

func (s *UserService) List(ctx context.Context, f repo.UserFilter) ([]models.User, int64, error) {
	return s.Repo.ListUsers(ctx, f)
}

func (s *UserService) SetApproval(ctx context.Context, id uuid.UUID, approved bool) error {
	l := logging.FromContext(ctx).With("svc", "users.approval", "user_id", id.String())
	if err := s.Repo.SetUserApproval(ctx, id, approved); err != nil {
		l.Warn("approval_update_failed", "error", err)
		return err
	}
	l.Info("approval_updated", "approved", approved)
	return nil
}

func (s *UserService) SetRole(ctx context.Context, id uuid.UUID, role string) error {
	l := logging.FromContext(ctx).With("svc", "users.role", "user_id", id.String())
	if !tokens.Known(role) {
		return ErrUnknownRole
	}
	if err := s.Repo.SetUserRole(ctx, id, tokens.Normalize(role)); err != nil {
		l.Warn("role_update_failed", "error", err)
		return err
	}
	l.Info("role_updated", "role", tokens.Normalize(role))
	return nil
}
