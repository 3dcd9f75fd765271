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

type caregiverRepository struct {
	BaseRepository
}

func NewCaregiverRepository(base BaseRepository) repository.CaregiverRepository {
	return &caregiverRepository{base}
}

func (r *caregiverRepository) Create(ctx context.Context, assignment *model.CaregiverAssignment) error {
	query := `
		INSERT INTO pet_caregivers (
			id, pet_id, user_id, role, assigned_by, assigned_at,
			is_active, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	assignment.ID = uuid.New()
	assignment.AssignedAt = time.Now()
	assignment.IsActive = true
	assignment.UpdatedAt = time.Now()

	_, err := r.GetDB().ExecContext(ctx, query,
		assignment.ID,
		assignment.PetID,
		assignment.UserID,
		assignment.Role,
		assignment.AssignedBy,
		assignment.AssignedAt,
		assignment.IsActive,
		assignment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create caregiver assignment: %w", err)
	}
	return nil
}

func (r *caregiverRepository) Get(ctx context.Context, id uuid.UUID) (*model.CaregiverAssignment, error) {
	query := `SELECT * FROM pet_caregivers WHERE id = $1`

	var assignment model.CaregiverAssignment
	if err := r.GetDB().GetContext(ctx, &assignment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get caregiver assignment: %w", err)
	}
	return &assignment, nil
}

func (r *caregiverRepository) GetActive(ctx context.Context, petID, userID uuid.UUID) (*model.CaregiverAssignment, error) {
	query := `
		SELECT * FROM pet_caregivers
		WHERE pet_id = $1 AND user_id = $2 AND is_active = TRUE
	`

	var assignment model.CaregiverAssignment
	if err := r.GetDB().GetContext(ctx, &assignment, query, petID, userID); err != nil {
		return nil, fmt.Errorf("failed to get active assignment: %w", err)
	}
	return &assignment, nil
}

func (r *caregiverRepository) ListActive(ctx context.Context, petID uuid.UUID) ([]*model.CaregiverDetail, error) {
	// Joined with public profile fields only, never credentials.
	query := `
		SELECT c.*,
			u.id AS "user.id",
			u.email AS "user.email",
			u.first_name AS "user.first_name",
			u.last_name AS "user.last_name",
			u.profile_image AS "user.profile_image"
		FROM pet_caregivers c
		JOIN users u ON u.id = c.user_id
		WHERE c.pet_id = $1 AND c.is_active = TRUE
		ORDER BY c.assigned_at ASC
	`

	type caregiverRow struct {
		model.CaregiverAssignment
		User model.UserProfile `db:"user"`
	}

	var rows []caregiverRow
	if err := r.GetDB().SelectContext(ctx, &rows, query, petID); err != nil {
		return nil, fmt.Errorf("failed to list caregivers: %w", err)
	}

	caregivers := make([]*model.CaregiverDetail, 0, len(rows))
	for i := range rows {
		user := rows[i].User
		caregivers = append(caregivers, &model.CaregiverDetail{
			CaregiverAssignment: rows[i].CaregiverAssignment,
			User:                &user,
		})
	}
	return caregivers, nil
}

func (r *caregiverRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.CaregiverRole) error {
	query := `
		UPDATE pet_caregivers
		SET role = $1, updated_at = NOW()
		WHERE id = $2 AND is_active = TRUE
	`

	result, err := r.GetDB().ExecContext(ctx, query, role, id)
	if err != nil {
		return fmt.Errorf("failed to update caregiver role: %w", err)
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

func (r *caregiverRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	// Soft-revocation: the row stays for the audit trail.
	query := `
		UPDATE pet_caregivers
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE
	`

	result, err := r.GetDB().ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate caregiver: %w", err)
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
