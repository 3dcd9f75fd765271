package share

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawtrail/petcare-api/internal/email"
	"github.com/pawtrail/petcare-api/internal/model"
	"github.com/pawtrail/petcare-api/internal/service/accesslog"
	"github.com/pawtrail/petcare-api/internal/service/authz"
	"github.com/pawtrail/petcare-api/pkg/errors"
	"github.com/pawtrail/petcare-api/pkg/logger"
)

type fakeShareRepo struct {
	shares map[uuid.UUID]*model.RecordShare
}

func (f *fakeShareRepo) Create(_ context.Context, s *model.RecordShare) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.IsActive = true
	s.AccessCount = 0
	f.shares[s.ID] = s
	return nil
}

func (f *fakeShareRepo) Get(_ context.Context, id uuid.UUID) (*model.RecordShare, error) {
	s, ok := f.shares[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (f *fakeShareRepo) ListActiveByRecord(_ context.Context, recordID uuid.UUID) ([]*model.RecordShare, error) {
	var out []*model.RecordShare
	for _, s := range f.shares {
		if s.RecordID == recordID && s.IsActive {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeShareRepo) MarkAccessed(_ context.Context, id uuid.UUID, at time.Time) error {
	s, ok := f.shares[id]
	if !ok || !s.IsActive {
		return sql.ErrNoRows
	}
	s.AccessCount++
	s.LastAccessedAt = &at
	return nil
}

func (f *fakeShareRepo) Revoke(_ context.Context, id uuid.UUID) error {
	s, ok := f.shares[id]
	if !ok || !s.IsActive {
		return sql.ErrNoRows
	}
	s.IsActive = false
	return nil
}

type fakeRecordRepo struct {
	records map[uuid.UUID]*model.MedicalRecord
}

func (f *fakeRecordRepo) Create(_ context.Context, r *model.MedicalRecord) error {
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

func (f *fakeRecordRepo) List(context.Context, uuid.UUID, *model.RecordFilters) ([]*model.MedicalRecord, error) {
	return nil, nil
}

func (f *fakeRecordRepo) CreateVaccination(context.Context, *model.Vaccination) error { return nil }

func (f *fakeRecordRepo) ListVaccinations(context.Context, uuid.UUID) ([]*model.Vaccination, error) {
	return nil, nil
}

func (f *fakeRecordRepo) CreatePrescription(context.Context, *model.Prescription) error { return nil }

func (f *fakeRecordRepo) ListPrescriptions(context.Context, uuid.UUID) ([]*model.Prescription, error) {
	return nil, nil
}

func (f *fakeRecordRepo) CreateAllergy(context.Context, *model.Allergy) error { return nil }

func (f *fakeRecordRepo) ListAllergies(context.Context, uuid.UUID) ([]*model.Allergy, error) {
	return nil, nil
}

func (f *fakeRecordRepo) CreateVitalSigns(context.Context, *model.VitalSigns) error { return nil }

func (f *fakeRecordRepo) ListVitalSigns(context.Context, uuid.UUID) ([]*model.VitalSigns, error) {
	return nil, nil
}

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
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.IsActive = true
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

func (f *fakeCaregiverRepo) UpdateRole(_ context.Context, id uuid.UUID, role model.CaregiverRole) error {
	a, ok := f.assignments[id]
	if !ok || !a.IsActive {
		return sql.ErrNoRows
	}
	a.Role = role
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

type fakeAccessLogRepo struct {
	entries []*model.AccessLogEntry
}

func (f *fakeAccessLogRepo) Create(_ context.Context, e *model.AccessLogEntry) error {
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
	shares     *fakeShareRepo
	records    *fakeRecordRepo
	trail      *fakeAccessLogRepo
	caregivers *fakeCaregiverRepo
	ownerID    uuid.UUID
	petID      uuid.UUID
	recordID   uuid.UUID
	clock      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	shares := &fakeShareRepo{shares: make(map[uuid.UUID]*model.RecordShare)}
	records := &fakeRecordRepo{records: make(map[uuid.UUID]*model.MedicalRecord)}
	pets := &fakePetRepo{pets: make(map[uuid.UUID]*model.Pet)}
	caregivers := &fakeCaregiverRepo{assignments: make(map[uuid.UUID]*model.CaregiverAssignment)}
	trail := &fakeAccessLogRepo{}

	authzSvc := authz.NewService(pets, caregivers, records, nil)
	audit := accesslog.NewService(trail, nil)
	svc := NewService(shares, records, authzSvc, audit, nil, email.NoopService{}, logger.NewLogger(nil), nil, "https://app.pawtrail.test")

	f := &fixture{
		svc:        svc,
		shares:     shares,
		records:    records,
		trail:      trail,
		caregivers: caregivers,
		ownerID:    uuid.New(),
		petID:      uuid.New(),
		recordID:   uuid.New(),
		clock:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	svc.now = func() time.Time { return f.clock }

	pets.pets[f.petID] = &model.Pet{
		Base:           model.Base{ID: f.petID},
		Name:           "Rex",
		PrimaryOwnerID: f.ownerID,
		IsActive:       true,
	}
	records.records[f.recordID] = &model.MedicalRecord{
		Base:  model.Base{ID: f.recordID},
		PetID: f.petID,
		Type:  model.RecordTypeLabResult,
		Title: "Bloodwork",
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

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *fixture) createShare(t *testing.T, req *model.CreateShareRequest) *model.RecordShare {
	t.Helper()
	share, err := f.svc.CreateShare(context.Background(), f.ownerID, f.recordID, req)
	require.NoError(t, err)
	return share
}

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func TestCreateShareDefaultsReadOnly(t *testing.T) {
	f := newFixture(t)

	share := f.createShare(t, &model.CreateShareRequest{
		Recipient:   "vet@example.com",
		ShareMethod: model.ShareMethodLink,
	})
	assert.Equal(t, model.ShareReadOnly, share.Permissions)
	assert.Equal(t, 0, share.AccessCount)
	assert.True(t, share.IsActive)

	// Creation logs a SHARE action attributed to the actor.
	require.Len(t, f.trail.entries, 1)
	entry := f.trail.entries[0]
	assert.Equal(t, model.AccessActionShare, entry.Action)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, f.ownerID, *entry.UserID)
	assert.Nil(t, entry.ShareID)
}

func TestCreateShareRequiresWriteAccess(t *testing.T) {
	f := newFixture(t)
	viewerID := f.addCaregiver(model.RoleViewer)
	editorID := f.addCaregiver(model.RoleEditor)
	req := &model.CreateShareRequest{Recipient: "vet@example.com", ShareMethod: model.ShareMethodLink}

	_, err := f.svc.CreateShare(context.Background(), viewerID, f.recordID, req)
	assert.True(t, errors.IsCode(err, errors.ErrForbidden))

	_, err = f.svc.CreateShare(context.Background(), editorID, f.recordID, req)
	assert.NoError(t, err)
}

func TestCreateShareRejectsPastExpiry(t *testing.T) {
	f := newFixture(t)
	past := f.clock.Add(-time.Hour)

	_, err := f.svc.CreateShare(context.Background(), f.ownerID, f.recordID, &model.CreateShareRequest{
		Recipient:   "vet@example.com",
		ShareMethod: model.ShareMethodLink,
		ExpiresAt:   &past,
	})
	assert.True(t, errors.IsCode(err, errors.ErrBadRequest))
}

func TestSevenDayShareWindow(t *testing.T) {
	f := newFixture(t)
	expiry := f.clock.Add(days(7))
	share := f.createShare(t, &model.CreateShareRequest{
		Recipient:   "vet@example.com",
		ShareMethod: model.ShareMethodLink,
		ExpiresAt:   &expiry,
	})

	// Day 1: redemption succeeds and bumps the counters.
	f.advance(days(1))
	got, err := f.svc.RedeemShare(context.Background(), share.ID, accesslog.Meta{})
	require.NoError(t, err)
	assert.Equal(t, f.recordID, got.Record.ID)
	assert.Equal(t, model.ShareReadOnly, got.Permissions)
	assert.False(t, got.CanWrite)

	stored := f.shares.shares[share.ID]
	assert.Equal(t, 1, stored.AccessCount)
	require.NotNil(t, stored.LastAccessedAt)
	assert.Equal(t, f.clock, *stored.LastAccessedAt)

	// Redemption is logged as a VIEW attributed to the share, no user.
	last := f.trail.entries[len(f.trail.entries)-1]
	assert.Equal(t, model.AccessActionView, last.Action)
	assert.Nil(t, last.UserID)
	require.NotNil(t, last.ShareID)
	assert.Equal(t, share.ID, *last.ShareID)

	// Day 8: expired at redemption time, even though still active.
	f.advance(days(7))
	_, err = f.svc.RedeemShare(context.Background(), share.ID, accesslog.Meta{})
	assert.True(t, errors.IsCode(err, errors.ErrExpired))
	assert.True(t, f.shares.shares[share.ID].IsActive)
	assert.Equal(t, 1, f.shares.shares[share.ID].AccessCount, "failed redemption must not count")
}

func TestRevokeBeatsRemainingWindow(t *testing.T) {
	f := newFixture(t)
	expiry := f.clock.Add(days(7))
	share := f.createShare(t, &model.CreateShareRequest{
		Recipient:   "vet@example.com",
		ShareMethod: model.ShareMethodLink,
		ExpiresAt:   &expiry,
	})

	f.advance(days(3))
	require.NoError(t, f.svc.RevokeShare(context.Background(), f.ownerID, share.ID))

	// Day 5: inside the original window, still refused.
	f.advance(days(2))
	_, err := f.svc.RedeemShare(context.Background(), share.ID, accesslog.Meta{})
	assert.True(t, errors.IsCode(err, errors.ErrRevoked))
}

func TestExpiredWinsOverRevoked(t *testing.T) {
	f := newFixture(t)
	expiry := f.clock.Add(days(1))
	share := f.createShare(t, &model.CreateShareRequest{
		Recipient:   "vet@example.com",
		ShareMethod: model.ShareMethodLink,
		ExpiresAt:   &expiry,
	})

	// Revoked on day 0, expired on day 1, redeemed on day 2: a share
	// past its expiry reports Expired no matter what is_active says.
	require.NoError(t, f.svc.RevokeShare(context.Background(), f.ownerID, share.ID))
	f.advance(days(2))

	_, err := f.svc.RedeemShare(context.Background(), share.ID, accesslog.Meta{})
	assert.True(t, errors.IsCode(err, errors.ErrExpired))
	assert.Equal(t, 0, f.shares.shares[share.ID].AccessCount)
}

func TestRevokeShareAuthorization(t *testing.T) {
	f := newFixture(t)
	viewerID := f.addCaregiver(model.RoleViewer)
	editorID := f.addCaregiver(model.RoleEditor)

	share := f.createShare(t, &model.CreateShareRequest{
		Recipient:   "vet@example.com",
		ShareMethod: model.ShareMethodLink,
	})

	err := f.svc.RevokeShare(context.Background(), viewerID, share.ID)
	assert.True(t, errors.IsCode(err, errors.ErrForbidden))

	require.NoError(t, f.svc.RevokeShare(context.Background(), editorID, share.ID))

	// Revoking again is a no-op: the share is already in the requested state.
	require.NoError(t, f.svc.RevokeShare(context.Background(), editorID, share.ID))
	assert.False(t, f.shares.shares[share.ID].IsActive)
}

func TestRevokeUnknownShare(t *testing.T) {
	f := newFixture(t)

	err := f.svc.RevokeShare(context.Background(), f.ownerID, uuid.New())
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))
}

func TestRedeemUnknownShare(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RedeemShare(context.Background(), uuid.New(), accesslog.Meta{})
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))
}

func TestRedeemDeletedRecord(t *testing.T) {
	f := newFixture(t)
	share := f.createShare(t, &model.CreateShareRequest{
		Recipient:   "vet@example.com",
		ShareMethod: model.ShareMethodLink,
	})

	require.NoError(t, f.records.Delete(context.Background(), f.recordID))

	_, err := f.svc.RedeemShare(context.Background(), share.ID, accesslog.Meta{})
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))
}

func TestFullAccessShareCanWrite(t *testing.T) {
	f := newFixture(t)
	share := f.createShare(t, &model.CreateShareRequest{
		Recipient:   "vet@example.com",
		ShareMethod: model.ShareMethodLink,
		Permissions: model.ShareFullAccess,
	})

	got, err := f.svc.RedeemShare(context.Background(), share.ID, accesslog.Meta{})
	require.NoError(t, err)
	assert.True(t, got.CanWrite)

	title := "Bloodwork (amended)"
	updated, err := f.svc.UpdateViaShare(context.Background(), share.ID, &model.UpdateRecordRequest{Title: &title}, accesslog.Meta{})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	last := f.trail.entries[len(f.trail.entries)-1]
	assert.Equal(t, model.AccessActionUpdate, last.Action)
	require.NotNil(t, last.ShareID)
	assert.Equal(t, share.ID, *last.ShareID)
}

func TestReadOnlyShareCannotWrite(t *testing.T) {
	f := newFixture(t)
	share := f.createShare(t, &model.CreateShareRequest{
		Recipient:   "vet@example.com",
		ShareMethod: model.ShareMethodLink,
	})

	title := "tampered"
	_, err := f.svc.UpdateViaShare(context.Background(), share.ID, &model.UpdateRecordRequest{Title: &title}, accesslog.Meta{})
	assert.True(t, errors.IsCode(err, errors.ErrForbidden))
	assert.Equal(t, "Bloodwork", f.records.records[f.recordID].Title)
}

func TestMultipleSimultaneousShares(t *testing.T) {
	f := newFixture(t)
	a := f.createShare(t, &model.CreateShareRequest{Recipient: "a@example.com", ShareMethod: model.ShareMethodLink})
	b := f.createShare(t, &model.CreateShareRequest{Recipient: "b@example.com", ShareMethod: model.ShareMethodEmail})
	require.NotEqual(t, a.ID, b.ID)

	require.NoError(t, f.svc.RevokeShare(context.Background(), f.ownerID, a.ID))

	// Revoking one leaves the other redeemable.
	_, err := f.svc.RedeemShare(context.Background(), b.ID, accesslog.Meta{})
	assert.NoError(t, err)

	active, err := f.svc.ListShares(context.Background(), f.ownerID, f.recordID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].ID)
}
