package accesslog

import (
	"context"

	"github.com/google/uuid"

	"github.com/pawtrail/petcare-api/internal/model"
	"github.com/pawtrail/petcare-api/internal/repository"
	"github.com/pawtrail/petcare-api/pkg/errors"
	"github.com/pawtrail/petcare-api/pkg/metrics"
)

// Meta carries request metadata worth auditing.
type Meta struct {
	IPAddress string
	UserAgent string
}

// Service writes and reads the record access trail. Entries are
// append-only; a failed write propagates to the caller so no access
// completes unaudited.
type Service struct {
	repo    repository.AccessLogRepository
	metrics *metrics.Metrics
}

func NewService(repo repository.AccessLogRepository, m *metrics.Metrics) *Service {
	return &Service{repo: repo, metrics: m}
}

// Record validates and appends one entry. Exactly one of UserID and
// ShareID must be set.
func (s *Service) Record(ctx context.Context, entry *model.AccessLogEntry) error {
	if (entry.UserID == nil) == (entry.ShareID == nil) {
		return errors.BadRequest("access log entry requires exactly one of user_id and share_id", nil)
	}
	if entry.Action == "" {
		return errors.BadRequest("access log entry requires an action", nil)
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		if s.metrics != nil {
			s.metrics.AccessLogFailures.Inc()
		}
		return errors.Internal(err)
	}
	if s.metrics != nil {
		s.metrics.AccessLogWrites.Inc()
	}
	return nil
}

// LogUserAccess appends an entry for an authenticated user's access.
func (s *Service) LogUserAccess(ctx context.Context, recordID, userID uuid.UUID, action string, meta Meta) error {
	return s.Record(ctx, &model.AccessLogEntry{
		RecordID:  recordID,
		UserID:    &userID,
		Action:    action,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})
}

// LogShareAccess appends an entry for a share-link access. No user is
// attributed; the share is the credential.
func (s *Service) LogShareAccess(ctx context.Context, recordID, shareID uuid.UUID, action string, meta Meta) error {
	return s.Record(ctx, &model.AccessLogEntry{
		RecordID:  recordID,
		ShareID:   &shareID,
		Action:    action,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})
}

// QueryByRecord returns the chronological trail for a record. The trail
// is informational; it never feeds back into authorization decisions.
func (s *Service) QueryByRecord(ctx context.Context, recordID uuid.UUID) ([]*model.AccessLogEntry, error) {
	entries, err := s.repo.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return entries, nil
}
