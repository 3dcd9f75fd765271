package medical

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/pawtrail/petcare-api/internal/model"
	"github.com/pawtrail/petcare-api/internal/repository"
	"github.com/pawtrail/petcare-api/internal/service/accesslog"
	"github.com/pawtrail/petcare-api/internal/service/authz"
	"github.com/pawtrail/petcare-api/pkg/errors"
)

// Service guards medical record CRUD behind the authorization engine
// and writes the access trail. Audit failures fail the operation; an
// unaudited read is treated as worse than no read.
type Service struct {
	records repository.MedicalRecordRepository
	authz   *authz.Service
	audit   *accesslog.Service
}

func NewService(records repository.MedicalRecordRepository, authzSvc *authz.Service, audit *accesslog.Service) *Service {
	return &Service{
		records: records,
		authz:   authzSvc,
		audit:   audit,
	}
}

// CreateRecord adds a record under a pet. Write access required.
// Creation is not an access action and is not logged to the trail.
func (s *Service) CreateRecord(ctx context.Context, userID, petID uuid.UUID, req *model.CreateRecordRequest) (*model.MedicalRecord, error) {
	if _, err := s.authz.AuthorizePet(ctx, userID, petID, authz.ActionWrite); err != nil {
		return nil, err
	}

	record := &model.MedicalRecord{
		PetID:            petID,
		Type:             req.Type,
		Title:            req.Title,
		Description:      req.Description,
		Date:             req.Date,
		VeterinarianName: req.VeterinarianName,
		ClinicName:       req.ClinicName,
		Metadata:         req.Metadata,
		CreatedBy:        userID,
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, errors.Internal(err)
	}
	return record, nil
}

// GetRecord returns the record and logs a VIEW.
func (s *Service) GetRecord(ctx context.Context, userID, recordID uuid.UUID, meta accesslog.Meta) (*model.MedicalRecord, error) {
	record, _, err := s.authz.AuthorizeRecord(ctx, userID, recordID, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	if err := s.audit.LogUserAccess(ctx, recordID, userID, model.AccessActionView, meta); err != nil {
		return nil, err
	}
	return record, nil
}

// DownloadRecord is GetRecord with a DOWNLOAD trail entry; callers use
// it when serving attachments.
func (s *Service) DownloadRecord(ctx context.Context, userID, recordID uuid.UUID, meta accesslog.Meta) (*model.MedicalRecord, error) {
	record, _, err := s.authz.AuthorizeRecord(ctx, userID, recordID, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	if err := s.audit.LogUserAccess(ctx, recordID, userID, model.AccessActionDownload, meta); err != nil {
		return nil, err
	}
	return record, nil
}

// ListRecords returns a pet's records. The list itself is not logged;
// VIEW entries are written when individual records are fetched.
func (s *Service) ListRecords(ctx context.Context, userID, petID uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	if _, err := s.authz.AuthorizePet(ctx, userID, petID, authz.ActionRead); err != nil {
		return nil, err
	}
	records, err := s.records.List(ctx, petID, filters)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return records, nil
}

// UpdateRecord applies the allow-listed fields and logs an UPDATE.
func (s *Service) UpdateRecord(ctx context.Context, userID, recordID uuid.UUID, req *model.UpdateRecordRequest, meta accesslog.Meta) (*model.MedicalRecord, error) {
	record, _, err := s.authz.AuthorizeRecord(ctx, userID, recordID, authz.ActionWrite)
	if err != nil {
		return nil, err
	}

	ApplyRecordUpdate(record, req)

	if err := s.records.Update(ctx, record); err != nil {
		return nil, errors.Internal(err)
	}
	if err := s.audit.LogUserAccess(ctx, recordID, userID, model.AccessActionUpdate, meta); err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteRecord soft-deletes the record and logs a DELETE. The trail and
// any shares referencing the record keep their rows.
func (s *Service) DeleteRecord(ctx context.Context, userID, recordID uuid.UUID, meta accesslog.Meta) error {
	if _, _, err := s.authz.AuthorizeRecord(ctx, userID, recordID, authz.ActionWrite); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, recordID); err != nil {
		return errors.Internal(err)
	}
	return s.audit.LogUserAccess(ctx, recordID, userID, model.AccessActionDelete, meta)
}

// AccessTrail returns the chronological access log for a record.
// Read access to the record is required.
func (s *Service) AccessTrail(ctx context.Context, userID, recordID uuid.UUID) ([]*model.AccessLogEntry, error) {
	if _, _, err := s.authz.AuthorizeRecord(ctx, userID, recordID, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.audit.QueryByRecord(ctx, recordID)
}

// CreateVaccination records a vaccination under a pet. Write access
// required; vaccinations are pet-level entries outside the record trail.
func (s *Service) CreateVaccination(ctx context.Context, userID, petID uuid.UUID, req *model.CreateVaccinationRequest) (*model.Vaccination, error) {
	if _, err := s.authz.AuthorizePet(ctx, userID, petID, authz.ActionWrite); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.VaccinationUpToDate
	}
	v := &model.Vaccination{
		PetID:            petID,
		Name:             req.Name,
		AdministeredDate: req.AdministeredDate,
		ExpirationDate:   req.ExpirationDate,
		NextDueDate:      req.NextDueDate,
		Status:           status,
		VeterinarianName: req.VeterinarianName,
		ClinicName:       req.ClinicName,
		BatchNumber:      req.BatchNumber,
	}
	if err := s.records.CreateVaccination(ctx, v); err != nil {
		return nil, errors.Internal(err)
	}
	return v, nil
}

func (s *Service) ListVaccinations(ctx context.Context, userID, petID uuid.UUID) ([]*model.Vaccination, error) {
	if _, err := s.authz.AuthorizePet(ctx, userID, petID, authz.ActionRead); err != nil {
		return nil, err
	}
	vs, err := s.records.ListVaccinations(ctx, petID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return vs, nil
}

func (s *Service) CreatePrescription(ctx context.Context, userID, petID uuid.UUID, req *model.CreatePrescriptionRequest) (*model.Prescription, error) {
	if _, err := s.authz.AuthorizePet(ctx, userID, petID, authz.ActionWrite); err != nil {
		return nil, err
	}

	p := &model.Prescription{
		PetID:            petID,
		MedicationName:   req.MedicationName,
		Dosage:           req.Dosage,
		Frequency:        req.Frequency,
		Instructions:     req.Instructions,
		PrescribedDate:   req.PrescribedDate,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		RefillsRemaining: req.RefillsRemaining,
		VeterinarianName: req.VeterinarianName,
		ClinicName:       req.ClinicName,
		IsActive:         true,
	}
	if err := s.records.CreatePrescription(ctx, p); err != nil {
		return nil, errors.Internal(err)
	}
	return p, nil
}

func (s *Service) ListPrescriptions(ctx context.Context, userID, petID uuid.UUID) ([]*model.Prescription, error) {
	if _, err := s.authz.AuthorizePet(ctx, userID, petID, authz.ActionRead); err != nil {
		return nil, err
	}
	ps, err := s.records.ListPrescriptions(ctx, petID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return ps, nil
}

func (s *Service) CreateAllergy(ctx context.Context, userID, petID uuid.UUID, req *model.CreateAllergyRequest) (*model.Allergy, error) {
	if _, err := s.authz.AuthorizePet(ctx, userID, petID, authz.ActionWrite); err != nil {
		return nil, err
	}

	a := &model.Allergy{
		PetID:         petID,
		Allergen:      req.Allergen,
		Severity:      req.Severity,
		Symptoms:      req.Symptoms,
		DiagnosedDate: req.DiagnosedDate,
		Notes:         req.Notes,
	}
	if err := s.records.CreateAllergy(ctx, a); err != nil {
		return nil, errors.Internal(err)
	}
	return a, nil
}

func (s *Service) ListAllergies(ctx context.Context, userID, petID uuid.UUID) ([]*model.Allergy, error) {
	if _, err := s.authz.AuthorizePet(ctx, userID, petID, authz.ActionRead); err != nil {
		return nil, err
	}
	as, err := s.records.ListAllergies(ctx, petID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return as, nil
}

// CreateVitalSigns records a reading. Units default to F and lbs, the
// mobile client's convention when it omits them.
func (s *Service) CreateVitalSigns(ctx context.Context, userID, petID uuid.UUID, req *model.CreateVitalSignsRequest) (*model.VitalSigns, error) {
	if _, err := s.authz.AuthorizePet(ctx, userID, petID, authz.ActionWrite); err != nil {
		return nil, err
	}

	tempUnit := req.TemperatureUnit
	if tempUnit == "" {
		tempUnit = "F"
	}
	weightUnit := req.WeightUnit
	if weightUnit == "" {
		weightUnit = "lbs"
	}
	v := &model.VitalSigns{
		PetID:                  petID,
		RecordDate:             req.RecordDate,
		Temperature:            req.Temperature,
		TemperatureUnit:        tempUnit,
		HeartRate:              req.HeartRate,
		RespiratoryRate:        req.RespiratoryRate,
		Weight:                 req.Weight,
		WeightUnit:             weightUnit,
		BloodPressureSystolic:  req.BloodPressureSystolic,
		BloodPressureDiastolic: req.BloodPressureDiastolic,
		Notes:                  req.Notes,
	}
	if err := s.records.CreateVitalSigns(ctx, v); err != nil {
		return nil, errors.Internal(err)
	}
	return v, nil
}

func (s *Service) ListVitalSigns(ctx context.Context, userID, petID uuid.UUID) ([]*model.VitalSigns, error) {
	if _, err := s.authz.AuthorizePet(ctx, userID, petID, authz.ActionRead); err != nil {
		return nil, err
	}
	vs, err := s.records.ListVitalSigns(ctx, petID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return vs, nil
}

// ApplyRecordUpdate copies the allow-listed request fields onto the
// record. pet_id and created_by are not reachable from here. Shared
// with the share service's FULL_ACCESS update path.
func ApplyRecordUpdate(record *model.MedicalRecord, req *model.UpdateRecordRequest) {
	if req.Type != nil {
		record.Type = *req.Type
	}
	if req.Title != nil {
		record.Title = *req.Title
	}
	if req.Description != nil {
		record.Description = *req.Description
	}
	if req.Date != nil {
		record.Date = *req.Date
	}
	if req.VeterinarianName != nil {
		record.VeterinarianName = *req.VeterinarianName
	}
	if req.ClinicName != nil {
		record.ClinicName = *req.ClinicName
	}
	if len(req.Metadata) > 0 {
		record.Metadata = json.RawMessage(req.Metadata)
	}
}
