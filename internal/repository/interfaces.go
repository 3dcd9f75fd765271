package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/pawtrail/petcare-api/internal/model"
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
	}

	PetRepository interface {
		Create(ctx context.Context, pet *model.Pet) error
		Get(ctx context.Context, id uuid.UUID) (*model.Pet, error)
		Update(ctx context.Context, pet *model.Pet) error
		Deactivate(ctx context.Context, id uuid.UUID) error
		ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.PetSummary, error)
	}

	CaregiverRepository interface {
		Create(ctx context.Context, assignment *model.CaregiverAssignment) error
		Get(ctx context.Context, id uuid.UUID) (*model.CaregiverAssignment, error)
		GetActive(ctx context.Context, petID, userID uuid.UUID) (*model.CaregiverAssignment, error)
		ListActive(ctx context.Context, petID uuid.UUID) ([]*model.CaregiverDetail, error)
		UpdateRole(ctx context.Context, id uuid.UUID, role model.CaregiverRole) error
		Deactivate(ctx context.Context, id uuid.UUID) error
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
		Update(ctx context.Context, record *model.MedicalRecord) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, petID uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error)
		CreateVaccination(ctx context.Context, vaccination *model.Vaccination) error
		ListVaccinations(ctx context.Context, petID uuid.UUID) ([]*model.Vaccination, error)
		CreatePrescription(ctx context.Context, prescription *model.Prescription) error
		ListPrescriptions(ctx context.Context, petID uuid.UUID) ([]*model.Prescription, error)
		CreateAllergy(ctx context.Context, allergy *model.Allergy) error
		ListAllergies(ctx context.Context, petID uuid.UUID) ([]*model.Allergy, error)
		CreateVitalSigns(ctx context.Context, vitals *model.VitalSigns) error
		ListVitalSigns(ctx context.Context, petID uuid.UUID) ([]*model.VitalSigns, error)
	}

	ShareRepository interface {
		Create(ctx context.Context, share *model.RecordShare) error
		Get(ctx context.Context, id uuid.UUID) (*model.RecordShare, error)
		ListActiveByRecord(ctx context.Context, recordID uuid.UUID) ([]*model.RecordShare, error)
		// MarkAccessed atomically increments access_count and stamps
		// last_accessed_at, but only while the share is still active.
		MarkAccessed(ctx context.Context, id uuid.UUID, at time.Time) error
		Revoke(ctx context.Context, id uuid.UUID) error
	}

	AccessLogRepository interface {
		Create(ctx context.Context, entry *model.AccessLogEntry) error
		ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*model.AccessLogEntry, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		BeginTx(ctx context.Context) (*sql.Tx, error)
		UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status string, errorMessage *string, retryAt *time.Time) error
		MoveToDeadLetter(ctx context.Context, tx *sql.Tx, evt *model.OutboxEvent) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
