package authz

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/pawtrail/petcare-api/internal/model"
	"github.com/pawtrail/petcare-api/internal/repository"
	"github.com/pawtrail/petcare-api/pkg/errors"
	"github.com/pawtrail/petcare-api/pkg/metrics"
)

// Action is something a principal wants to do to a pet or one of its
// medical records.
type Action string

const (
	// ActionRead covers viewing a pet, its caregiver list and its records.
	ActionRead Action = "read"
	// ActionWrite covers mutating pet fields and record contents,
	// including creating shares (anyone who can edit can share).
	ActionWrite Action = "write"
	// ActionManageCaregivers covers assigning, re-roling and removing
	// caregivers.
	ActionManageCaregivers Action = "manage_caregivers"
	// ActionDelete covers deactivating the pet itself. Owner only.
	ActionDelete Action = "delete"
)

// Service is the single decision point for "can principal P perform
// action A on resource R". It performs no mutation: every decision is a
// pure function of current store state, so it is safe to call
// redundantly before any protected operation.
type Service struct {
	pets       repository.PetRepository
	caregivers repository.CaregiverRepository
	records    repository.MedicalRecordRepository
	metrics    *metrics.Metrics
}

func NewService(pets repository.PetRepository, caregivers repository.CaregiverRepository, records repository.MedicalRecordRepository, m *metrics.Metrics) *Service {
	return &Service{
		pets:       pets,
		caregivers: caregivers,
		records:    records,
		metrics:    m,
	}
}

// AuthorizePet decides whether userID may perform action on the pet and
// returns the pet on grant. Ownership always wins over caregiver role:
// the primary owner holds every capability, including delete, and an
// inactive pet stays fully visible to its owner while being invisible
// to everyone else.
func (s *Service) AuthorizePet(ctx context.Context, userID, petID uuid.UUID, action Action) (*model.Pet, error) {
	pet, err := s.authorizePet(ctx, userID, petID, action)
	s.count("pet", err)
	return pet, err
}

func (s *Service) authorizePet(ctx context.Context, userID, petID uuid.UUID, action Action) (*model.Pet, error) {
	pet, err := s.pets.Get(ctx, petID)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.NotFound("pet", err)
		}
		return nil, errors.Internal(err)
	}

	if pet.PrimaryOwnerID == userID {
		return pet, nil
	}

	if !pet.IsActive {
		return nil, errors.NotFound("pet", nil)
	}

	assignment, err := s.caregivers.GetActive(ctx, petID, userID)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Forbidden("access denied", err)
		}
		return nil, errors.Internal(err)
	}

	if !roleAllows(assignment.Role, action) {
		return nil, errors.Forbidden("insufficient caregiver role", nil)
	}
	return pet, nil
}

// AuthorizeRecord decides record access by deferring to the owning pet:
// caregiver access to a pet implies the same access to its records.
// Share-based access never flows through here; the share-redemption
// path carries the share itself as the credential.
func (s *Service) AuthorizeRecord(ctx context.Context, userID, recordID uuid.UUID, action Action) (*model.MedicalRecord, *model.Pet, error) {
	record, pet, err := s.authorizeRecord(ctx, userID, recordID, action)
	s.count("record", err)
	return record, pet, err
}

func (s *Service) authorizeRecord(ctx context.Context, userID, recordID uuid.UUID, action Action) (*model.MedicalRecord, *model.Pet, error) {
	record, err := s.records.Get(ctx, recordID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil, errors.NotFound("medical record", err)
		}
		return nil, nil, errors.Internal(err)
	}

	pet, err := s.authorizePet(ctx, userID, record.PetID, action)
	if err != nil {
		return nil, nil, err
	}
	return record, pet, nil
}

func (s *Service) count(resource string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "granted"
	if err != nil {
		outcome = "denied"
	}
	s.metrics.AuthzDecisions.WithLabelValues(resource, outcome).Inc()
}

// roleAllows maps a caregiver role to its capability set:
// ADMIN {read, write, manage-caregivers}, EDITOR {read, write},
// VIEWER {read}. Delete is held by the owner alone and is never
// granted through a role.
func roleAllows(role model.CaregiverRole, action Action) bool {
	switch action {
	case ActionRead:
		return role.Level() >= model.RoleViewer.Level()
	case ActionWrite:
		return role.Level() >= model.RoleEditor.Level()
	case ActionManageCaregivers:
		return role == model.RoleAdmin
	case ActionDelete:
		return false
	default:
		return false
	}
}

func isNoRows(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows)
}
