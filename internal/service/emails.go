package service

import (
	"context"
	"errors"
	"strings"

	"github.com/mailworks/mailadmin/internal/events"
	"github.com/mailworks/mailadmin/internal/models"
	"github.com/mailworks/mailadmin/internal/repo"
	"github.com/mailworks/mailadmin/internal/search"
	"github.com/mailworks/mailadmin/pkg/logging"
	"github.com/mailworks/mailadmin/pkg/paging"
)

// EmailService records send requests and provider outcomes. The actual mail
// transfer happens in external providers; only status flows through here.
type EmailService struct {
	Repo     *repo.GormRepo
	Producer events.Publisher
	Indexer  search.EmailIndexer
}

type emailEvent struct {
	Type    string `json:"type"`
	EmailID uint   `json:"emailId"`
	AppID   uint   `json:"applicationId"`
	Status  string `json:"status"`
}

func (s *EmailService) publish(ctx context.Context, typ string, rec *models.EmailRecord) {
	l := logging.FromContext(ctx)
	if s.Producer == nil {
		return
	}
	ev := emailEvent{Type: typ, EmailID: rec.ID, AppID: rec.ApplicationID, Status: rec.Status}
	if err := s.Producer.PublishEvent(ctx, rec.Status, ev); err != nil {
		// Event delivery is advisory, the record of truth is the DB row.
		l.Error("email_event_publish_failed", "email_id", rec.ID, "error", err)
	}
}

func (s *EmailService) index(ctx context.Context, rec *models.EmailRecord) {
	l := logging.FromContext(ctx)
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.Index(ctx, rec); err != nil {
		l.Error("email_index_failed", "email_id", rec.ID, "error", err)
	}
}

// Record stores a new outbound email in status queued, publishes the queued
// event and indexes it for search.
func (s *EmailService) Record(ctx context.Context, rec *models.EmailRecord) error {
	l := logging.FromContext(ctx).With("svc", "emails.record")

	if rec.ApplicationID == 0 || strings.TrimSpace(rec.FromAddress) == "" || strings.TrimSpace(rec.ToAddresses) == "" {
		return ErrValidation
	}
	if !models.ValidProvider(rec.Provider) {
		return ErrValidation
	}
	if _, err := s.Repo.GetApplication(ctx, rec.ApplicationID); err != nil {
		if errors.Is(err, repo.ErrApplicationNotFound) {
			return repo.ErrApplicationNotFound
		}
		return err
	}

	rec.Provider = strings.ToLower(rec.Provider)
	rec.Status = models.EmailQueued
	if err := s.Repo.CreateEmail(ctx, rec); err != nil {
		l.Error("email_record_failed", "error", err)
		return err
	}

	s.publish(ctx, "email_queued", rec)
	s.index(ctx, rec)
	l.Info("email_recorded", "email_id", rec.ID, "application_id", rec.ApplicationID)
	return nil
}

// UpdateStatus is the provider callback path: marks sent or failed, publishes
// the matching event and re-indexes.
func (s *EmailService) UpdateStatus(ctx context.Context, id uint, status, errorDetail string) (*models.EmailRecord, error) {
	l := logging.FromContext(ctx).With("svc", "emails.status", "email_id", id)

	status = strings.ToLower(status)
	if !models.ValidEmailStatus(status) || status == models.EmailQueued {
		return nil, ErrValidation
	}

	rec, err := s.Repo.UpdateEmailStatus(ctx, id, status, errorDetail)
	if err != nil {
		l.Warn("email_status_update_failed", "error", err)
		return nil, err
	}

	s.publish(ctx, "email_"+status, rec)
	s.index(ctx, rec)
	l.Info("email_status_updated", "status", status)
	return rec, nil
}

func (s *EmailService) List(ctx context.Context, f repo.EmailFilter) ([]models.EmailRecord, int64, error) {
	return s.Repo.ListEmails(ctx, f)
}

// Search runs a full-text query over indexed emails.
func (s *EmailService) Search(ctx context.Context, query string, p paging.Params) ([]models.EmailRecord, int64, error) {
	if strings.TrimSpace(query) == "" {
		return nil, 0, ErrValidation
	}
	if s.Indexer == nil {
		return nil, 0, errors.New("search backend not configured")
	}
	from, size := p.OffsetLimit()
	total, recs, err := s.Indexer.Search(ctx, query, from, size)
	return recs, total, err
}
