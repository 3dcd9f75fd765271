package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	RecordTypeVaccination  = "VACCINATION"
	RecordTypeLabResult    = "LAB_RESULT"
	RecordTypeVisitSummary = "VISIT_SUMMARY"
	RecordTypePrescription = "PRESCRIPTION"
	RecordTypeProcedure    = "PROCEDURE"
	RecordTypeDiagnosis    = "DIAGNOSIS"
	RecordTypeAllergy      = "ALLERGY"
	RecordTypeVitalSigns   = "VITAL_SIGNS"
	RecordTypeImage        = "IMAGE"
	RecordTypeDocument     = "DOCUMENT"
)

// MedicalRecord is owned transitively through its pet. It carries no ACL
// of its own beyond the pet's caregiver set, except via explicit shares.
type MedicalRecord struct {
	Base
	PetID            uuid.UUID       `db:"pet_id" json:"pet_id"`
	Type             string          `db:"type" json:"type"`
	Title            string          `db:"title" json:"title"`
	Description      string          `db:"description" json:"description,omitempty"`
	Date             time.Time       `db:"date" json:"date"`
	VeterinarianName string          `db:"veterinarian_name" json:"veterinarian_name,omitempty"`
	ClinicName       string          `db:"clinic_name" json:"clinic_name,omitempty"`
	Metadata         json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	AttachmentsJSON  json.RawMessage `db:"attachments" json:"-"`
	Attachments      []Attachment    `db:"-" json:"attachments"`
	CreatedBy        uuid.UUID       `db:"created_by" json:"created_by"`
}

type Attachment struct {
	ID         uuid.UUID `json:"id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	FileSize   int64     `json:"file_size"`
	FileURL    string    `json:"file_url"`
	UploadedBy uuid.UUID `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type CreateRecordRequest struct {
	Type             string          `json:"type" binding:"required,oneof=VACCINATION LAB_RESULT VISIT_SUMMARY PRESCRIPTION PROCEDURE DIAGNOSIS ALLERGY VITAL_SIGNS IMAGE DOCUMENT"`
	Title            string          `json:"title" binding:"required"`
	Description      string          `json:"description"`
	Date             time.Time       `json:"date" binding:"required"`
	VeterinarianName string          `json:"veterinarian_name"`
	ClinicName       string          `json:"clinic_name"`
	Metadata         json.RawMessage `json:"metadata"`
}

// UpdateRecordRequest is the explicit allow-list for record updates.
// pet_id and created_by never travel through it.
type UpdateRecordRequest struct {
	Type             *string         `json:"type"`
	Title            *string         `json:"title"`
	Description      *string         `json:"description"`
	Date             *time.Time      `json:"date"`
	VeterinarianName *string         `json:"veterinarian_name"`
	ClinicName       *string         `json:"clinic_name"`
	Metadata         json.RawMessage `json:"metadata"`
}

type RecordFilters struct {
	Type      string    `form:"type"`
	StartDate time.Time `form:"start_date"`
	EndDate   time.Time `form:"end_date"`
}

type Vaccination struct {
	Base
	PetID            uuid.UUID  `db:"pet_id" json:"pet_id"`
	Name             string     `db:"name" json:"name"`
	AdministeredDate time.Time  `db:"administered_date" json:"administered_date"`
	ExpirationDate   *time.Time `db:"expiration_date" json:"expiration_date,omitempty"`
	NextDueDate      *time.Time `db:"next_due_date" json:"next_due_date,omitempty"`
	Status           string     `db:"status" json:"status"`
	VeterinarianName string     `db:"veterinarian_name" json:"veterinarian_name,omitempty"`
	ClinicName       string     `db:"clinic_name" json:"clinic_name,omitempty"`
	BatchNumber      string     `db:"batch_number" json:"batch_number,omitempty"`
}

const (
	VaccinationUpToDate   = "UP_TO_DATE"
	VaccinationDueSoon    = "DUE_SOON"
	VaccinationOverdue    = "OVERDUE"
	VaccinationNotStarted = "NOT_STARTED"
)

type CreateVaccinationRequest struct {
	Name             string     `json:"name" binding:"required"`
	AdministeredDate time.Time  `json:"administered_date" binding:"required"`
	ExpirationDate   *time.Time `json:"expiration_date"`
	NextDueDate      *time.Time `json:"next_due_date"`
	Status           string     `json:"status" binding:"omitempty,oneof=UP_TO_DATE DUE_SOON OVERDUE NOT_STARTED"`
	VeterinarianName string     `json:"veterinarian_name"`
	ClinicName       string     `json:"clinic_name"`
	BatchNumber      string     `json:"batch_number"`
}

type Prescription struct {
	Base
	PetID            uuid.UUID  `db:"pet_id" json:"pet_id"`
	MedicationName   string     `db:"medication_name" json:"medication_name"`
	Dosage           string     `db:"dosage" json:"dosage"`
	Frequency        string     `db:"frequency" json:"frequency"`
	Instructions     string     `db:"instructions" json:"instructions,omitempty"`
	PrescribedDate   time.Time  `db:"prescribed_date" json:"prescribed_date"`
	StartDate        time.Time  `db:"start_date" json:"start_date"`
	EndDate          *time.Time `db:"end_date" json:"end_date,omitempty"`
	RefillsRemaining *int       `db:"refills_remaining" json:"refills_remaining,omitempty"`
	VeterinarianName string     `db:"veterinarian_name" json:"veterinarian_name"`
	ClinicName       string     `db:"clinic_name" json:"clinic_name,omitempty"`
	IsActive         bool       `db:"is_active" json:"is_active"`
}

type CreatePrescriptionRequest struct {
	MedicationName   string     `json:"medication_name" binding:"required"`
	Dosage           string     `json:"dosage" binding:"required"`
	Frequency        string     `json:"frequency" binding:"required"`
	Instructions     string     `json:"instructions"`
	PrescribedDate   time.Time  `json:"prescribed_date" binding:"required"`
	StartDate        time.Time  `json:"start_date" binding:"required"`
	EndDate          *time.Time `json:"end_date"`
	RefillsRemaining *int       `json:"refills_remaining"`
	VeterinarianName string     `json:"veterinarian_name" binding:"required"`
	ClinicName       string     `json:"clinic_name"`
}

const (
	AllergySeverityMild     = "MILD"
	AllergySeverityModerate = "MODERATE"
	AllergySeveritySevere   = "SEVERE"
)

type Allergy struct {
	Base
	PetID         uuid.UUID  `db:"pet_id" json:"pet_id"`
	Allergen      string     `db:"allergen" json:"allergen"`
	Severity      string     `db:"severity" json:"severity"`
	Symptoms      string     `db:"symptoms" json:"symptoms,omitempty"`
	DiagnosedDate *time.Time `db:"diagnosed_date" json:"diagnosed_date,omitempty"`
	Notes         string     `db:"notes" json:"notes,omitempty"`
}

type CreateAllergyRequest struct {
	Allergen      string     `json:"allergen" binding:"required"`
	Severity      string     `json:"severity" binding:"required,oneof=MILD MODERATE SEVERE"`
	Symptoms      string     `json:"symptoms"`
	DiagnosedDate *time.Time `json:"diagnosed_date"`
	Notes         string     `json:"notes"`
}

// VitalSigns is a point-in-time reading; rows are never updated.
type VitalSigns struct {
	Base
	PetID                  uuid.UUID `db:"pet_id" json:"pet_id"`
	RecordDate             time.Time `db:"record_date" json:"record_date"`
	Temperature            *float64  `db:"temperature" json:"temperature,omitempty"`
	TemperatureUnit        string    `db:"temperature_unit" json:"temperature_unit"`
	HeartRate              *int      `db:"heart_rate" json:"heart_rate,omitempty"`
	RespiratoryRate        *int      `db:"respiratory_rate" json:"respiratory_rate,omitempty"`
	Weight                 *float64  `db:"weight" json:"weight,omitempty"`
	WeightUnit             string    `db:"weight_unit" json:"weight_unit"`
	BloodPressureSystolic  *int      `db:"blood_pressure_systolic" json:"blood_pressure_systolic,omitempty"`
	BloodPressureDiastolic *int      `db:"blood_pressure_diastolic" json:"blood_pressure_diastolic,omitempty"`
	Notes                  string    `db:"notes" json:"notes,omitempty"`
}

type CreateVitalSignsRequest struct {
	RecordDate             time.Time `json:"record_date" binding:"required"`
	Temperature            *float64  `json:"temperature"`
	TemperatureUnit        string    `json:"temperature_unit" binding:"omitempty,oneof=F C"`
	HeartRate              *int      `json:"heart_rate"`
	RespiratoryRate        *int      `json:"respiratory_rate"`
	Weight                 *float64  `json:"weight"`
	WeightUnit             string    `json:"weight_unit" binding:"omitempty,oneof=lbs kg"`
	BloodPressureSystolic  *int      `json:"blood_pressure_systolic"`
	BloodPressureDiastolic *int      `json:"blood_pressure_diastolic"`
	Notes                  string    `json:"notes"`
}
