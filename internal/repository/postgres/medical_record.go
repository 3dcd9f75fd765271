package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pawtrail/petcare-api/internal/model"
	"github.com/pawtrail/petcare-api/internal/repository"
)

type medicalRecordRepository struct {
	BaseRepository
}

func NewMedicalRecordRepository(base BaseRepository) repository.MedicalRecordRepository {
	return &medicalRecordRepository{base}
}

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO medical_records (
				id, pet_id, type, title, description, date,
				veterinarian_name, clinic_name, metadata, attachments,
				created_by, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`

		attachments, err := json.Marshal(record.Attachments)
		if err != nil {
			return fmt.Errorf("failed to marshal attachments: %w", err)
		}

		_, err = tx.ExecContext(ctx, query,
			record.ID,
			record.PetID,
			record.Type,
			record.Title,
			record.Description,
			record.Date,
			record.VeterinarianName,
			record.ClinicName,
			record.Metadata,
			attachments,
			record.CreatedBy,
			record.CreatedAt,
			record.UpdatedAt,
		)
		return err
	})
}

func (r *medicalRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	query := `
		SELECT * FROM medical_records
		WHERE id = $1 AND deleted_at IS NULL
	`
	var record model.MedicalRecord
	if err := r.GetDB().GetContext(ctx, &record, query, id); err != nil {
		return nil, fmt.Errorf("failed to get medical record: %w", err)
	}

	if err := r.unmarshalRecordFields(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *medicalRecordRepository) Update(ctx context.Context, record *model.MedicalRecord) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		record.UpdatedAt = time.Now()

		query := `
			UPDATE medical_records SET
				type = $1,
				title = $2,
				description = $3,
				date = $4,
				veterinarian_name = $5,
				clinic_name = $6,
				metadata = $7,
				attachments = $8,
				updated_at = $9
			WHERE id = $10 AND deleted_at IS NULL
		`

		attachments, err := json.Marshal(record.Attachments)
		if err != nil {
			return fmt.Errorf("failed to marshal attachments: %w", err)
		}

		result, err := tx.ExecContext(ctx, query,
			record.Type,
			record.Title,
			record.Description,
			record.Date,
			record.VeterinarianName,
			record.ClinicName,
			record.Metadata,
			attachments,
			record.UpdatedAt,
			record.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update medical record: %w", err)
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

func (r *medicalRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE medical_records
			SET deleted_at = NOW()
			WHERE id = $1 AND deleted_at IS NULL
		`

		result, err := tx.ExecContext(ctx, query, id)
		if err != nil {
			return fmt.Errorf("failed to delete medical record: %w", err)
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

func (r *medicalRecordRepository) List(ctx context.Context, petID uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	query := `
		SELECT * FROM medical_records
		WHERE pet_id = $1 AND deleted_at IS NULL
	`
	args := []interface{}{petID}

	if filters != nil {
		if filters.Type != "" {
			query += fmt.Sprintf(" AND type = $%d", len(args)+1)
			args = append(args, filters.Type)
		}
		if !filters.StartDate.IsZero() {
			query += fmt.Sprintf(" AND date >= $%d", len(args)+1)
			args = append(args, filters.StartDate)
		}
		if !filters.EndDate.IsZero() {
			query += fmt.Sprintf(" AND date <= $%d", len(args)+1)
			args = append(args, filters.EndDate)
		}
	}

	query += " ORDER BY date DESC"

	var records []*model.MedicalRecord
	if err := r.GetDB().SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}

	for _, record := range records {
		if err := r.unmarshalRecordFields(record); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (r *medicalRecordRepository) unmarshalRecordFields(record *model.MedicalRecord) error {
	if len(record.AttachmentsJSON) == 0 {
		record.Attachments = []model.Attachment{}
		return nil
	}

	var attachments []model.Attachment
	if err := json.Unmarshal(record.AttachmentsJSON, &attachments); err != nil {
		return fmt.Errorf("failed to unmarshal attachments: %w", err)
	}
	record.Attachments = attachments
	return nil
}

func (r *medicalRecordRepository) CreateVaccination(ctx context.Context, v *model.Vaccination) error {
	query := `
		INSERT INTO vaccinations (
			id, pet_id, name, administered_date, expiration_date,
			next_due_date, status, veterinarian_name, clinic_name,
			batch_number, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.GetDB().ExecContext(ctx, query,
		v.ID,
		v.PetID,
		v.Name,
		v.AdministeredDate,
		v.ExpirationDate,
		v.NextDueDate,
		v.Status,
		v.VeterinarianName,
		v.ClinicName,
		v.BatchNumber,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create vaccination: %w", err)
	}
	return nil
}

func (r *medicalRecordRepository) ListVaccinations(ctx context.Context, petID uuid.UUID) ([]*model.Vaccination, error) {
	query := `
		SELECT * FROM vaccinations
		WHERE pet_id = $1 AND deleted_at IS NULL
		ORDER BY administered_date DESC
	`
	var vaccinations []*model.Vaccination
	if err := r.GetDB().SelectContext(ctx, &vaccinations, query, petID); err != nil {
		return nil, fmt.Errorf("failed to list vaccinations: %w", err)
	}
	return vaccinations, nil
}

func (r *medicalRecordRepository) CreatePrescription(ctx context.Context, p *model.Prescription) error {
	query := `
		INSERT INTO prescriptions (
			id, pet_id, medication_name, dosage, frequency, instructions,
			prescribed_date, start_date, end_date, refills_remaining,
			veterinarian_name, clinic_name, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.GetDB().ExecContext(ctx, query,
		p.ID,
		p.PetID,
		p.MedicationName,
		p.Dosage,
		p.Frequency,
		p.Instructions,
		p.PrescribedDate,
		p.StartDate,
		p.EndDate,
		p.RefillsRemaining,
		p.VeterinarianName,
		p.ClinicName,
		p.IsActive,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create prescription: %w", err)
	}
	return nil
}

func (r *medicalRecordRepository) ListPrescriptions(ctx context.Context, petID uuid.UUID) ([]*model.Prescription, error) {
	query := `
		SELECT * FROM prescriptions
		WHERE pet_id = $1 AND is_active = TRUE AND deleted_at IS NULL
		ORDER BY prescribed_date DESC
	`
	var prescriptions []*model.Prescription
	if err := r.GetDB().SelectContext(ctx, &prescriptions, query, petID); err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return prescriptions, nil
}

func (r *medicalRecordRepository) CreateAllergy(ctx context.Context, a *model.Allergy) error {
	query := `
		INSERT INTO allergies (
			id, pet_id, allergen, severity, symptoms,
			diagnosed_date, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.GetDB().ExecContext(ctx, query,
		a.ID,
		a.PetID,
		a.Allergen,
		a.Severity,
		a.Symptoms,
		a.DiagnosedDate,
		a.Notes,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create allergy: %w", err)
	}
	return nil
}

func (r *medicalRecordRepository) ListAllergies(ctx context.Context, petID uuid.UUID) ([]*model.Allergy, error) {
	query := `
		SELECT * FROM allergies
		WHERE pet_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`
	var allergies []*model.Allergy
	if err := r.GetDB().SelectContext(ctx, &allergies, query, petID); err != nil {
		return nil, fmt.Errorf("failed to list allergies: %w", err)
	}
	return allergies, nil
}

func (r *medicalRecordRepository) CreateVitalSigns(ctx context.Context, v *model.VitalSigns) error {
	query := `
		INSERT INTO vital_signs (
			id, pet_id, record_date, temperature, temperature_unit,
			heart_rate, respiratory_rate, weight, weight_unit,
			blood_pressure_systolic, blood_pressure_diastolic, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.GetDB().ExecContext(ctx, query,
		v.ID,
		v.PetID,
		v.RecordDate,
		v.Temperature,
		v.TemperatureUnit,
		v.HeartRate,
		v.RespiratoryRate,
		v.Weight,
		v.WeightUnit,
		v.BloodPressureSystolic,
		v.BloodPressureDiastolic,
		v.Notes,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create vital signs: %w", err)
	}
	return nil
}

func (r *medicalRecordRepository) ListVitalSigns(ctx context.Context, petID uuid.UUID) ([]*model.VitalSigns, error) {
	query := `
		SELECT * FROM vital_signs
		WHERE pet_id = $1 AND deleted_at IS NULL
		ORDER BY record_date DESC
	`
	var vitals []*model.VitalSigns
	if err := r.GetDB().SelectContext(ctx, &vitals, query, petID); err != nil {
		return nil, fmt.Errorf("failed to list vital signs: %w", err)
	}
	return vitals, nil
}
