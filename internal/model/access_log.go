package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	AccessActionView     = "VIEW"
	AccessActionDownload = "DOWNLOAD"
	AccessActionShare    = "SHARE"
	AccessActionUpdate   = "UPDATE"
	AccessActionDelete   = "DELETE"
)

// AccessLogEntry is append-only: never mutated or deleted once written.
// Exactly one of UserID and ShareID is set, distinguishing authenticated
// caregiver access from share-link access.
type AccessLogEntry struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	RecordID  uuid.UUID  `db:"record_id" json:"record_id"`
	UserID    *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	ShareID   *uuid.UUID `db:"share_id" json:"share_id,omitempty"`
	Action    string     `db:"action" json:"action"`
	IPAddress string     `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent string     `db:"user_agent" json:"user_agent,omitempty"`
	Timestamp time.Time  `db:"timestamp" json:"timestamp"`
}
