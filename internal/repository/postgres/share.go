package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pawtrail/petcare-api/internal/model"
	"github.com/pawtrail/petcare-api/internal/repository"
)

type shareRepository struct {
	BaseRepository
}

func NewShareRepository(base BaseRepository) repository.ShareRepository {
	return &shareRepository{base}
}

func (r *shareRepository) Create(ctx context.Context, share *model.RecordShare) error {
	query := `
		INSERT INTO record_shares (
			id, record_id, pet_id, shared_by, recipient, share_method,
			permissions, expires_at, access_count, is_active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	share.ID = uuid.New()
	share.AccessCount = 0
	share.IsActive = true
	share.CreatedAt = time.Now()
	share.UpdatedAt = time.Now()

	_, err := r.GetDB().ExecContext(ctx, query,
		share.ID,
		share.RecordID,
		share.PetID,
		share.SharedBy,
		share.Recipient,
		share.ShareMethod,
		share.Permissions,
		share.ExpiresAt,
		share.AccessCount,
		share.IsActive,
		share.CreatedAt,
		share.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create share: %w", err)
	}
	return nil
}

func (r *shareRepository) Get(ctx context.Context, id uuid.UUID) (*model.RecordShare, error) {
	query := `SELECT * FROM record_shares WHERE id = $1`

	var share model.RecordShare
	if err := r.GetDB().GetContext(ctx, &share, query, id); err != nil {
		return nil, fmt.Errorf("failed to get share: %w", err)
	}
	return &share, nil
}

func (r *shareRepository) ListActiveByRecord(ctx context.Context, recordID uuid.UUID) ([]*model.RecordShare, error) {
	query := `
		SELECT * FROM record_shares
		WHERE record_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC
	`
	var shares []*model.RecordShare
	if err := r.GetDB().SelectContext(ctx, &shares, query, recordID); err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	return shares, nil
}

func (r *shareRepository) MarkAccessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	// Guarded on is_active so a redemption racing a revocation cannot
	// record an access against a revoked share.
	query := `
		UPDATE record_shares
		SET access_count = access_count + 1,
			last_accessed_at = $1,
			updated_at = NOW()
		WHERE id = $2 AND is_active = TRUE
	`

	result, err := r.GetDB().ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark share accessed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *shareRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	// Permanent: there is no path that sets is_active back to true.
	query := `
		UPDATE record_shares
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE
	`

	result, err := r.GetDB().ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to revoke share: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
