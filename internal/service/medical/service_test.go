package medical

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawtrail/petcare-api/internal/model"
	"github.com/pawtrail/petcare-api/internal/service/accesslog"
	"github.com/pawtrail/petcare-api/internal/service/authz"
	"github.com/pawtrail/petcare-api/pkg/errors"
)

type fakePetRepo struct {
	pets map[uuid.UUID]*model.Pet
}

func (f *fakePetRepo) Create(_ context.Context, p *model.Pet) error {
	f.pets[p.ID] = p
	return nil
}

func (f *fakePetRepo) Get(_ context.Context, id uuid.UUID) (*model.Pet, error) {
	p, ok := f.pets[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakePetRepo) Update(_ context.Context, p *model.Pet) error {
	f.pets[p.ID] = p
	return nil
}

func (f *fakePetRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	p, ok := f.pets[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.IsActive = false
	return nil
}

func (f *fakePetRepo) ListForUser(context.Context, uuid.UUID) ([]*model.PetSummary, error) {
	return nil, nil
}

type fakeCaregiverRepo struct {
	assignments map[uuid.UUID]*model.CaregiverAssignment
}

func (f *fakeCaregiverRepo) Create(_ context.Context, a *model.CaregiverAssignment) error {
	f.assignments[a.ID] = a
	return nil
}

func (f *fakeCaregiverRepo) Get(_ context.Context, id uuid.UUID) (*model.CaregiverAssignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func (f *fakeCaregiverRepo) GetActive(_ context.Context, petID, userID uuid.UUID) (*model.CaregiverAssignment, error) {
	for _, a := range f.assignments {
		if a.PetID == petID && a.UserID == userID && a.IsActive {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCaregiverRepo) ListActive(context.Context, uuid.UUID) ([]*model.CaregiverDetail, error) {
	return nil, nil
}

func (f *fakeCaregiverRepo) UpdateRole(context.Context, uuid.UUID, model.CaregiverRole) error {
	return nil
}

func (f *fakeCaregiverRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	a, ok := f.assignments[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.IsActive = false
	return nil
}

type fakeRecordRepo struct {
	records       map[uuid.UUID]*model.MedicalRecord
	vaccinations  []*model.Vaccination
	prescriptions []*model.Prescription
	allergies     []*model.Allergy
	vitals        []*model.VitalSigns
}

func (f *fakeRecordRepo) Create(_ context.Context, r *model.MedicalRecord) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	f.records[r.ID] = r
	return nil
}

func (f *fakeRecordRepo) Get(_ context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return r, nil
}

func (f *fakeRecordRepo) Update(_ context.Context, r *model.MedicalRecord) error {
	f.records[r.ID] = r
	return nil
}

func (f *fakeRecordRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.records, id)
	return nil
}

func (f *fakeRecordRepo) List(_ context.Context, petID uuid.UUID, _ *model.RecordFilters) ([]*model.MedicalRecord, error) {
	var out []*model.MedicalRecord
	for _, r := range f.records {
		if r.PetID == petID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) CreateVaccination(_ context.Context, v *model.Vaccination) error {
	f.vaccinations = append(f.vaccinations, v)
	return nil
}

func (f *fakeRecordRepo) ListVaccinations(_ context.Context, petID uuid.UUID) ([]*model.Vaccination, error) {
	var out []*model.Vaccination
	for _, v := range f.vaccinations {
		if v.PetID == petID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) CreatePrescription(_ context.Context, p *model.Prescription) error {
	f.prescriptions = append(f.prescriptions, p)
	return nil
}

func (f *fakeRecordRepo) ListPrescriptions(_ context.Context, petID uuid.UUID) ([]*model.Prescription, error) {
	var out []*model.Prescription
	for _, p := range f.prescriptions {
		if p.PetID == petID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) CreateAllergy(_ context.Context, a *model.Allergy) error {
	f.allergies = append(f.allergies, a)
	return nil
}

func (f *fakeRecordRepo) ListAllergies(_ context.Context, petID uuid.UUID) ([]*model.Allergy, error) {
	var out []*model.Allergy
	for _, a := range f.allergies {
		if a.PetID == petID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) CreateVitalSigns(_ context.Context, v *model.VitalSigns) error {
	f.vitals = append(f.vitals, v)
	return nil
}

func (f *fakeRecordRepo) ListVitalSigns(_ context.Context, petID uuid.UUID) ([]*model.VitalSigns, error) {
	var out []*model.VitalSigns
	for _, v := range f.vitals {
		if v.PetID == petID {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeAccessLogRepo struct {
	entries []*model.AccessLogEntry
	failing bool
}

func (f *fakeAccessLogRepo) Create(_ context.Context, e *model.AccessLogEntry) error {
	if f.failing {
		return fmt.Errorf("connection refused")
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAccessLogRepo) ListByRecord(_ context.Context, recordID uuid.UUID) ([]*model.AccessLogEntry, error) {
	var out []*model.AccessLogEntry
	for _, e := range f.entries {
		if e.RecordID == recordID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fixture struct {
	svc        *Service
	records    *fakeRecordRepo
	trail      *fakeAccessLogRepo
	caregivers *fakeCaregiverRepo
	ownerID    uuid.UUID
	petID      uuid.UUID
	recordID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pets := &fakePetRepo{pets: make(map[uuid.UUID]*model.Pet)}
	caregivers := &fakeCaregiverRepo{assignments: make(map[uuid.UUID]*model.CaregiverAssignment)}
	records := &fakeRecordRepo{records: make(map[uuid.UUID]*model.MedicalRecord)}
	trail := &fakeAccessLogRepo{}

	authzSvc := authz.NewService(pets, caregivers, records, nil)
	svc := NewService(records, authzSvc, accesslog.NewService(trail, nil))

	f := &fixture{
		svc:        svc,
		records:    records,
		trail:      trail,
		caregivers: caregivers,
		ownerID:    uuid.New(),
		petID:      uuid.New(),
		recordID:   uuid.New(),
	}
	pets.pets[f.petID] = &model.Pet{
		Base:           model.Base{ID: f.petID},
		Name:           "Luna",
		PrimaryOwnerID: f.ownerID,
		IsActive:       true,
	}
	records.records[f.recordID] = &model.MedicalRecord{
		Base:  model.Base{ID: f.recordID},
		PetID: f.petID,
		Type:  model.RecordTypeVisitSummary,
		Title: "Dental cleaning",
	}
	return f
}

func (f *fixture) addCaregiver(role model.CaregiverRole) uuid.UUID {
	userID := uuid.New()
	id := uuid.New()
	f.caregivers.assignments[id] = &model.CaregiverAssignment{
		ID:       id,
		PetID:    f.petID,
		UserID:   userID,
		Role:     role,
		IsActive: true,
	}
	return userID
}

func TestGetRecordLogsView(t *testing.T) {
	f := newFixture(t)

	record, err := f.svc.GetRecord(context.Background(), f.ownerID, f.recordID, accesslog.Meta{IPAddress: "198.51.100.4"})
	require.NoError(t, err)
	assert.Equal(t, f.recordID, record.ID)

	require.Len(t, f.trail.entries, 1)
	entry := f.trail.entries[0]
	assert.Equal(t, model.AccessActionView, entry.Action)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, f.ownerID, *entry.UserID)
	assert.Equal(t, "198.51.100.4", entry.IPAddress)
}

func TestDeniedAccessIsNotLogged(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetRecord(context.Background(), uuid.New(), f.recordID, accesslog.Meta{})
	assert.True(t, errors.IsCode(err, errors.ErrForbidden))
	assert.Empty(t, f.trail.entries)
}

func TestAuditFailureFailsTheRead(t *testing.T) {
	f := newFixture(t)
	f.trail.failing = true

	_, err := f.svc.GetRecord(context.Background(), f.ownerID, f.recordID, accesslog.Meta{})
	assert.True(t, errors.IsCode(err, errors.ErrInternal))
}

func TestDownloadLogsDownload(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.DownloadRecord(context.Background(), f.ownerID, f.recordID, accesslog.Meta{})
	require.NoError(t, err)
	require.Len(t, f.trail.entries, 1)
	assert.Equal(t, model.AccessActionDownload, f.trail.entries[0].Action)
}

func TestUpdateRecordAllowList(t *testing.T) {
	f := newFixture(t)
	editorID := f.addCaregiver(model.RoleEditor)
	title := "Dental cleaning + extraction"

	updated, err := f.svc.UpdateRecord(context.Background(), editorID, f.recordID, &model.UpdateRecordRequest{Title: &title}, accesslog.Meta{})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, f.petID, updated.PetID, "pet_id must not change through updates")

	require.Len(t, f.trail.entries, 1)
	assert.Equal(t, model.AccessActionUpdate, f.trail.entries[0].Action)
}

func TestViewerCannotMutate(t *testing.T) {
	f := newFixture(t)
	viewerID := f.addCaregiver(model.RoleViewer)
	title := "nope"

	_, err := f.svc.UpdateRecord(context.Background(), viewerID, f.recordID, &model.UpdateRecordRequest{Title: &title}, accesslog.Meta{})
	assert.True(t, errors.IsCode(err, errors.ErrForbidden))

	err = f.svc.DeleteRecord(context.Background(), viewerID, f.recordID, accesslog.Meta{})
	assert.True(t, errors.IsCode(err, errors.ErrForbidden))

	_, err = f.svc.CreateRecord(context.Background(), viewerID, f.petID, &model.CreateRecordRequest{
		Type:  model.RecordTypeDiagnosis,
		Title: "x",
		Date:  time.Now(),
	})
	assert.True(t, errors.IsCode(err, errors.ErrForbidden))
}

func TestDeleteRecordLogsDelete(t *testing.T) {
	f := newFixture(t)
	// Record deletion is write-level, so editors can do it; only pet
	// deletion is owner-only.
	editorID := f.addCaregiver(model.RoleEditor)

	require.NoError(t, f.svc.DeleteRecord(context.Background(), editorID, f.recordID, accesslog.Meta{}))
	require.Len(t, f.trail.entries, 1)
	assert.Equal(t, model.AccessActionDelete, f.trail.entries[0].Action)

	_, err := f.svc.GetRecord(context.Background(), f.ownerID, f.recordID, accesslog.Meta{})
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))
}

func TestAccessTrailRequiresReadAccess(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetRecord(context.Background(), f.ownerID, f.recordID, accesslog.Meta{})
	require.NoError(t, err)

	entries, err := f.svc.AccessTrail(context.Background(), f.ownerID, f.recordID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = f.svc.AccessTrail(context.Background(), uuid.New(), f.recordID)
	assert.True(t, errors.IsCode(err, errors.ErrForbidden))
}

func TestVaccinationsAndPrescriptions(t *testing.T) {
	f := newFixture(t)
	editorID := f.addCaregiver(model.RoleEditor)

	v, err := f.svc.CreateVaccination(context.Background(), editorID, f.petID, &model.CreateVaccinationRequest{
		Name:             "Rabies",
		AdministeredDate: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.VaccinationUpToDate, v.Status)

	p, err := f.svc.CreatePrescription(context.Background(), editorID, f.petID, &model.CreatePrescriptionRequest{
		MedicationName:   "Carprofen",
		Dosage:           "25mg",
		Frequency:        "BID",
		PrescribedDate:   time.Now(),
		StartDate:        time.Now(),
		VeterinarianName: "Dr. Osei",
	})
	require.NoError(t, err)
	assert.True(t, p.IsActive)

	vs, err := f.svc.ListVaccinations(context.Background(), f.ownerID, f.petID)
	require.NoError(t, err)
	assert.Len(t, vs, 1)

	ps, err := f.svc.ListPrescriptions(context.Background(), f.ownerID, f.petID)
	require.NoError(t, err)
	assert.Len(t, ps, 1)
}

func TestAllergiesAndVitalSigns(t *testing.T) {
	f := newFixture(t)
	editorID := f.addCaregiver(model.RoleEditor)
	viewerID := f.addCaregiver(model.RoleViewer)

	a, err := f.svc.CreateAllergy(context.Background(), editorID, f.petID, &model.CreateAllergyRequest{
		Allergen: "Chicken",
		Severity: model.AllergySeverityModerate,
		Symptoms: "itching",
	})
	require.NoError(t, err)
	assert.Equal(t, f.petID, a.PetID)

	temp := 101.5
	v, err := f.svc.CreateVitalSigns(context.Background(), editorID, f.petID, &model.CreateVitalSignsRequest{
		RecordDate:  time.Now(),
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, "F", v.TemperatureUnit)
	assert.Equal(t, "lbs", v.WeightUnit)

	// Viewers can read both, but cannot add entries.
	as, err := f.svc.ListAllergies(context.Background(), viewerID, f.petID)
	require.NoError(t, err)
	assert.Len(t, as, 1)

	vs, err := f.svc.ListVitalSigns(context.Background(), viewerID, f.petID)
	require.NoError(t, err)
	assert.Len(t, vs, 1)

	_, err = f.svc.CreateAllergy(context.Background(), viewerID, f.petID, &model.CreateAllergyRequest{
		Allergen: "Beef",
		Severity: model.AllergySeverityMild,
	})
	assert.True(t, errors.IsCode(err, errors.ErrForbidden))

	_, err = f.svc.CreateVitalSigns(context.Background(), viewerID, f.petID, &model.CreateVitalSignsRequest{
		RecordDate: time.Now(),
	})
	assert.True(t, errors.IsCode(err, errors.ErrForbidden))
}
