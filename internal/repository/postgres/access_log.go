package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pawtrail/petcare-api/internal/model"
	"github.com/pawtrail/petcare-api/internal/repository"
)

type accessLogRepository struct {
	BaseRepository
}

func NewAccessLogRepository(base BaseRepository) repository.AccessLogRepository {
	return &accessLogRepository{base}
}

// Create appends an entry. There is no update or delete on this table.
func (r *accessLogRepository) Create(ctx context.Context, entry *model.AccessLogEntry) error {
	query := `
		INSERT INTO record_access_logs (
			id, record_id, user_id, share_id, action,
			ip_address, user_agent, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.GetDB().ExecContext(ctx, query,
		entry.ID,
		entry.RecordID,
		entry.UserID,
		entry.ShareID,
		entry.Action,
		entry.IPAddress,
		entry.UserAgent,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create access log entry: %w", err)
	}
	return nil
}

func (r *accessLogRepository) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*model.AccessLogEntry, error) {
	query := `
		SELECT * FROM record_access_logs
		WHERE record_id = $1
		ORDER BY timestamp ASC
	`

	var entries []*model.AccessLogEntry
	if err := r.GetDB().SelectContext(ctx, &entries, query, recordID); err != nil {
		return nil, fmt.Errorf("failed to list access log entries: %w", err)
	}
	return entries, nil
}
