package share

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pawtrail/petcare-api/internal/email"
	"github.com/pawtrail/petcare-api/internal/model"
	"github.com/pawtrail/petcare-api/internal/repository"
	"github.com/pawtrail/petcare-api/internal/service/accesslog"
	"github.com/pawtrail/petcare-api/internal/service/authz"
	"github.com/pawtrail/petcare-api/internal/service/event"
	"github.com/pawtrail/petcare-api/internal/service/medical"
	"github.com/pawtrail/petcare-api/pkg/errors"
	"github.com/pawtrail/petcare-api/pkg/logger"
	"github.com/pawtrail/petcare-api/pkg/metrics"
)

// Service is the sharing ledger: time-limited, revocable grants to a
// single medical record. Redemption is credential-by-possession; no
// account is required to redeem.
type Service struct {
	shares  repository.ShareRepository
	records repository.MedicalRecordRepository
	authz   *authz.Service
	audit   *accesslog.Service
	events  *event.Service
	mailer  email.Service
	logger  *logger.Logger
	metrics *metrics.Metrics
	baseURL string

	// now is injectable so expiry windows are testable.
	now func() time.Time
}

func NewService(shares repository.ShareRepository, records repository.MedicalRecordRepository, authzSvc *authz.Service, audit *accesslog.Service, events *event.Service, mailer email.Service, logger *logger.Logger, m *metrics.Metrics, baseURL string) *Service {
	return &Service{
		shares:  shares,
		records: records,
		authz:   authzSvc,
		audit:   audit,
		events:  events,
		mailer:  mailer,
		logger:  logger,
		metrics: m,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// CreateShare grants access to one record. The actor needs write access
// to the record's pet; anyone who can edit can share. Permissions
// default to READ_ONLY. A share with no expiry stays redeemable until
// revoked. Multiple simultaneous shares per record are allowed.
func (s *Service) CreateShare(ctx context.Context, actorID, recordID uuid.UUID, req *model.CreateShareRequest) (*model.RecordShare, error) {
	record, pet, err := s.authz.AuthorizeRecord(ctx, actorID, recordID, authz.ActionWrite)
	if err != nil {
		return nil, err
	}

	permissions := req.Permissions
	if permissions == "" {
		permissions = model.ShareReadOnly
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(s.now()) {
		return nil, errors.BadRequest("share expiry must be in the future", nil)
	}

	share := &model.RecordShare{
		RecordID:    record.ID,
		PetID:       record.PetID,
		SharedBy:    actorID,
		Recipient:   req.Recipient,
		ShareMethod: req.ShareMethod,
		Permissions: permissions,
		ExpiresAt:   req.ExpiresAt,
	}
	if err := s.shares.Create(ctx, share); err != nil {
		return nil, errors.Internal(err)
	}

	// The creation itself is a SHARE action by the actor.
	if err := s.audit.LogUserAccess(ctx, record.ID, actorID, model.AccessActionShare, accesslog.Meta{}); err != nil {
		return nil, err
	}

	s.emit(ctx, model.EventShareCreated, map[string]interface{}{
		"share_id":  share.ID,
		"record_id": record.ID,
		"pet_id":    record.PetID,
		"shared_by": actorID,
	})

	if req.ShareMethod == model.ShareMethodEmail {
		link := fmt.Sprintf("%s/shares/%s/redeem", s.baseURL, share.ID)
		if err := s.mailer.SendShareNotification(req.Recipient, pet.Name, link, share.ExpiresAt); err != nil {
			s.logger.Warn("share notification email failed", "share_id", share.ID)
		}
	}
	return share, nil
}

// RedeemShare exchanges a share ID for its record. Expiry is evaluated
// here, at redemption, never by a sweeper, and a past-expiry share is
// Expired no matter what is_active says. A successful redemption
// increments the access count, stamps last_accessed_at and logs a VIEW
// attributed to the share.
func (s *Service) RedeemShare(ctx context.Context, shareID uuid.UUID, meta accesslog.Meta) (*model.SharedRecord, error) {
	redeemed, err := s.redeemShare(ctx, shareID, meta)
	s.countRedemption(err)
	return redeemed, err
}

func (s *Service) redeemShare(ctx context.Context, shareID uuid.UUID, meta accesslog.Meta) (*model.SharedRecord, error) {
	share, err := s.validShare(ctx, shareID)
	if err != nil {
		return nil, err
	}

	record, err := s.records.Get(ctx, share.RecordID)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.NotFound("medical record", err)
		}
		return nil, errors.Internal(err)
	}

	if err := s.markAccessed(ctx, shareID); err != nil {
		return nil, err
	}
	if err := s.audit.LogShareAccess(ctx, record.ID, shareID, model.AccessActionView, meta); err != nil {
		return nil, err
	}

	return &model.SharedRecord{
		Record:      record,
		Permissions: share.Permissions,
		CanWrite:    share.Permissions == model.ShareFullAccess,
	}, nil
}

// UpdateViaShare lets a FULL_ACCESS bearer edit the record through the
// same allow-list as authenticated updates. READ_ONLY bearers are
// refused; the write counts as a redemption.
func (s *Service) UpdateViaShare(ctx context.Context, shareID uuid.UUID, req *model.UpdateRecordRequest, meta accesslog.Meta) (*model.MedicalRecord, error) {
	share, err := s.validShare(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if share.Permissions != model.ShareFullAccess {
		return nil, errors.Forbidden("share is read-only", nil)
	}

	record, err := s.records.Get(ctx, share.RecordID)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.NotFound("medical record", err)
		}
		return nil, errors.Internal(err)
	}

	medical.ApplyRecordUpdate(record, req)
	if err := s.records.Update(ctx, record); err != nil {
		return nil, errors.Internal(err)
	}

	if err := s.markAccessed(ctx, shareID); err != nil {
		return nil, err
	}
	if err := s.audit.LogShareAccess(ctx, record.ID, shareID, model.AccessActionUpdate, meta); err != nil {
		return nil, err
	}
	return record, nil
}

// RevokeShare permanently deactivates a share. Same write-level check
// as creation. Revoking an already-revoked share is a no-op; the end
// state is what the caller asked for.
func (s *Service) RevokeShare(ctx context.Context, actorID, shareID uuid.UUID) error {
	share, err := s.shares.Get(ctx, shareID)
	if err != nil {
		if isNoRows(err) {
			return errors.NotFound("share", err)
		}
		return errors.Internal(err)
	}

	if _, err := s.authz.AuthorizePet(ctx, actorID, share.PetID, authz.ActionWrite); err != nil {
		return err
	}

	if !share.IsActive {
		return nil
	}

	if err := s.shares.Revoke(ctx, shareID); err != nil && !isNoRows(err) {
		return errors.Internal(err)
	}

	s.emit(ctx, model.EventShareRevoked, map[string]interface{}{
		"share_id":   shareID,
		"record_id":  share.RecordID,
		"revoked_by": actorID,
	})
	return nil
}

// ListShares returns a record's active shares. Read access suffices.
func (s *Service) ListShares(ctx context.Context, actorID, recordID uuid.UUID) ([]*model.RecordShare, error) {
	if _, _, err := s.authz.AuthorizeRecord(ctx, actorID, recordID, authz.ActionRead); err != nil {
		return nil, err
	}
	shares, err := s.shares.ListActiveByRecord(ctx, recordID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return shares, nil
}

// validShare loads the share and applies the redemption gates in
// precedence order: missing, expired, revoked. A share past its expiry
// reports Expired even when it has also been revoked.
func (s *Service) validShare(ctx context.Context, shareID uuid.UUID) (*model.RecordShare, error) {
	share, err := s.shares.Get(ctx, shareID)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.NotFound("share", err)
		}
		return nil, errors.Internal(err)
	}
	if share.Expired(s.now()) {
		return nil, errors.Expired("", nil)
	}
	if !share.IsActive {
		return nil, errors.Revoked("", nil)
	}
	return share, nil
}

// markAccessed bumps the redemption counters. The guarded update losing
// the row means a concurrent revoke won; surface that as Revoked.
func (s *Service) markAccessed(ctx context.Context, shareID uuid.UUID) error {
	if err := s.shares.MarkAccessed(ctx, shareID, s.now()); err != nil {
		if isNoRows(err) {
			return errors.Revoked("", err)
		}
		return errors.Internal(err)
	}
	return nil
}

func (s *Service) countRedemption(err error) {
	if s.metrics == nil {
		return
	}
	result := "success"
	switch {
	case errors.IsCode(err, errors.ErrRevoked):
		result = "revoked"
	case errors.IsCode(err, errors.ErrExpired):
		result = "expired"
	case errors.IsCode(err, errors.ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	s.metrics.ShareRedemptions.WithLabelValues(result).Inc()
}

func (s *Service) emit(ctx context.Context, eventType string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, eventType, payload); err != nil {
		s.logger.Warn("event emission failed", "event_type", eventType)
	}
}

func isNoRows(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows)
}
