package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pawtrail/petcare-api/internal/model"
	"github.com/pawtrail/petcare-api/internal/repository"
)

type petRepository struct {
	BaseRepository
}

func NewPetRepository(base BaseRepository) repository.PetRepository {
	return &petRepository{base}
}

func (r *petRepository) Create(ctx context.Context, pet *model.Pet) error {
	query := `
		INSERT INTO pets (
			id, name, type, breed, gender, date_of_birth, weight,
			weight_unit, color, microchip_id, profile_image,
			primary_owner_id, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	pet.ID = uuid.New()
	pet.IsActive = true
	pet.CreatedAt = time.Now()
	pet.UpdatedAt = time.Now()
	if pet.WeightUnit == "" {
		pet.WeightUnit = "lbs"
	}

	_, err := r.GetDB().ExecContext(ctx, query,
		pet.ID,
		pet.Name,
		pet.Type,
		pet.Breed,
		pet.Gender,
		pet.DateOfBirth,
		pet.Weight,
		pet.WeightUnit,
		pet.Color,
		pet.MicrochipID,
		pet.ProfileImage,
		pet.PrimaryOwnerID,
		pet.IsActive,
		pet.CreatedAt,
		pet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create pet: %w", err)
	}
	return nil
}

func (r *petRepository) Get(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	query := `SELECT * FROM pets WHERE id = $1 AND deleted_at IS NULL`

	var pet model.Pet
	if err := r.GetDB().GetContext(ctx, &pet, query, id); err != nil {
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}
	return &pet, nil
}

func (r *petRepository) Update(ctx context.Context, pet *model.Pet) error {
	pet.UpdatedAt = time.Now()

	// primary_owner_id and is_active are deliberately not part of the
	// update set; ownership never changes and deactivation has its own
	// path.
	query := `
		UPDATE pets SET
			name = $1,
			breed = $2,
			date_of_birth = $3,
			weight = $4,
			weight_unit = $5,
			color = $6,
			microchip_id = $7,
			profile_image = $8,
			updated_at = $9
		WHERE id = $10 AND deleted_at IS NULL
	`

	result, err := r.GetDB().ExecContext(ctx, query,
		pet.Name,
		pet.Breed,
		pet.DateOfBirth,
		pet.Weight,
		pet.WeightUnit,
		pet.Color,
		pet.MicrochipID,
		pet.ProfileImage,
		pet.UpdatedAt,
		pet.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update pet: %w", err)
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

func (r *petRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE pets
			SET is_active = FALSE, updated_at = NOW()
			WHERE id = $1 AND is_active = TRUE AND deleted_at IS NULL
		`

		result, err := tx.ExecContext(ctx, query, id)
		if err != nil {
			return fmt.Errorf("failed to deactivate pet: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

func (r *petRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.PetSummary, error) {
	query := `
		SELECT DISTINCT p.*,
			u.id AS "owner.id",
			u.email AS "owner.email",
			u.first_name AS "owner.first_name",
			u.last_name AS "owner.last_name",
			u.profile_image AS "owner.profile_image"
		FROM pets p
		JOIN users u ON u.id = p.primary_owner_id
		LEFT JOIN pet_caregivers c
			ON c.pet_id = p.id AND c.user_id = $1 AND c.is_active = TRUE
		WHERE p.is_active = TRUE
			AND p.deleted_at IS NULL
			AND (p.primary_owner_id = $1 OR c.id IS NOT NULL)
		ORDER BY p.created_at DESC
	`

	type petRow struct {
		model.Pet
		Owner model.UserProfile `db:"owner"`
	}

	var rows []petRow
	if err := r.GetDB().SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}

	pets := make([]*model.PetSummary, 0, len(rows))
	for i := range rows {
		owner := rows[i].Owner
		pets = append(pets, &model.PetSummary{Pet: rows[i].Pet, Owner: &owner})
	}
	return pets, nil
}
