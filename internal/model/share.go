package model

import (
	"time"

	"github.com/google/uuid"
)

// SharePermission scopes what a redeemed share unlocks.
type SharePermission string

const (
	ShareReadOnly   SharePermission = "READ_ONLY"
	ShareFullAccess SharePermission = "FULL_ACCESS"
)

const (
	ShareMethodEmail         = "EMAIL"
	ShareMethodSMS           = "SMS"
	ShareMethodLink          = "LINK"
	ShareMethodAppInvitation = "APP_INVITATION"
)

// RecordShare is a capability grant for exactly one medical record,
// independent of the caregiver role system. Revocation is permanent;
// rows are never deleted so redemption history survives for audit.
type RecordShare struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	RecordID       uuid.UUID       `db:"record_id" json:"record_id"`
	PetID          uuid.UUID       `db:"pet_id" json:"pet_id"`
	SharedBy       uuid.UUID       `db:"shared_by" json:"shared_by"`
	Recipient      string          `db:"recipient" json:"recipient"`
	ShareMethod    string          `db:"share_method" json:"share_method"`
	Permissions    SharePermission `db:"permissions" json:"permissions"`
	ExpiresAt      *time.Time      `db:"expires_at" json:"expires_at,omitempty"`
	AccessCount    int             `db:"access_count" json:"access_count"`
	LastAccessedAt *time.Time      `db:"last_accessed_at" json:"last_accessed_at,omitempty"`
	IsActive       bool            `db:"is_active" json:"is_active"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// Expired reports whether the share's deadline has passed at the given
// instant. Expiry is evaluated at redemption time, never swept eagerly.
func (s *RecordShare) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Before(now)
}

type CreateShareRequest struct {
	Recipient   string          `json:"recipient" binding:"required"`
	ShareMethod string          `json:"share_method" binding:"required,share_method"`
	Permissions SharePermission `json:"permissions" binding:"omitempty,share_permission"`
	ExpiresAt   *time.Time      `json:"expires_at"`
}

// SharedRecord is what a bearer gets back on redemption: the record
// scoped to the share's permissions.
type SharedRecord struct {
	Record      *MedicalRecord  `json:"record"`
	Permissions SharePermission `json:"permissions"`
	CanWrite    bool            `json:"can_write"`
}
