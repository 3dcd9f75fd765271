package pet

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/pawtrail/petcare-api/internal/model"
	"github.com/pawtrail/petcare-api/internal/repository"
	"github.com/pawtrail/petcare-api/internal/service/authz"
	"github.com/pawtrail/petcare-api/internal/service/event"
	"github.com/pawtrail/petcare-api/pkg/errors"
	"github.com/pawtrail/petcare-api/pkg/logger"
)

// Service owns pet lifecycle and the caregiver graph. Caregiver
// mutations are restricted to the primary owner; ADMIN caregivers read
// and write the pet but do not manage its caregiver list.
type Service struct {
	pets       repository.PetRepository
	caregivers repository.CaregiverRepository
	users      repository.UserRepository
	authz      *authz.Service
	events     *event.Service
	logger     *logger.Logger
}

func NewService(pets repository.PetRepository, caregivers repository.CaregiverRepository, users repository.UserRepository, authzSvc *authz.Service, events *event.Service, logger *logger.Logger) *Service {
	return &Service{
		pets:       pets,
		caregivers: caregivers,
		users:      users,
		authz:      authzSvc,
		events:     events,
		logger:     logger,
	}
}

// CreatePet registers a pet with the caller as primary owner.
func (s *Service) CreatePet(ctx context.Context, ownerID uuid.UUID, req *model.CreatePetRequest) (*model.Pet, error) {
	pet := &model.Pet{
		Name:           req.Name,
		Type:           req.Type,
		Breed:          req.Breed,
		Gender:         req.Gender,
		DateOfBirth:    req.DateOfBirth,
		Weight:         req.Weight,
		WeightUnit:     req.WeightUnit,
		Color:          req.Color,
		MicrochipID:    req.MicrochipID,
		ProfileImage:   req.ProfileImage,
		PrimaryOwnerID: ownerID,
	}
	if err := s.pets.Create(ctx, pet); err != nil {
		return nil, errors.Internal(err)
	}

	s.emit(ctx, model.EventPetCreated, map[string]interface{}{
		"pet_id":   pet.ID,
		"owner_id": ownerID,
		"name":     pet.Name,
	})
	return pet, nil
}

// GetPet returns the pet if the caller holds read access.
func (s *Service) GetPet(ctx context.Context, userID, petID uuid.UUID) (*model.Pet, error) {
	return s.authz.AuthorizePet(ctx, userID, petID, authz.ActionRead)
}

// ListPets returns active pets the caller owns or actively caregives.
func (s *Service) ListPets(ctx context.Context, userID uuid.UUID) ([]*model.PetSummary, error) {
	pets, err := s.pets.ListForUser(ctx, userID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return pets, nil
}

// UpdatePet applies the allow-listed fields. Write access required;
// primary_owner_id and is_active are not reachable from here.
func (s *Service) UpdatePet(ctx context.Context, userID, petID uuid.UUID, req *model.UpdatePetRequest) (*model.Pet, error) {
	pet, err := s.authz.AuthorizePet(ctx, userID, petID, authz.ActionWrite)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		pet.Name = *req.Name
	}
	if req.Breed != nil {
		pet.Breed = *req.Breed
	}
	if req.DateOfBirth != nil {
		pet.DateOfBirth = req.DateOfBirth
	}
	if req.Weight != nil {
		pet.Weight = req.Weight
	}
	if req.WeightUnit != nil {
		pet.WeightUnit = *req.WeightUnit
	}
	if req.Color != nil {
		pet.Color = *req.Color
	}
	if req.MicrochipID != nil {
		pet.MicrochipID = *req.MicrochipID
	}
	if req.ProfileImage != nil {
		pet.ProfileImage = *req.ProfileImage
	}

	if err := s.pets.Update(ctx, pet); err != nil {
		return nil, errors.Internal(err)
	}
	return pet, nil
}

// DeletePet soft-deactivates the pet. Owner only; no caregiver role
// grants delete.
func (s *Service) DeletePet(ctx context.Context, userID, petID uuid.UUID) error {
	pet, err := s.authz.AuthorizePet(ctx, userID, petID, authz.ActionRead)
	if err != nil {
		return err
	}
	if pet.PrimaryOwnerID != userID {
		return errors.Forbidden("only the primary owner can delete a pet", nil)
	}

	if err := s.pets.Deactivate(ctx, petID); err != nil {
		return errors.Internal(err)
	}

	s.emit(ctx, model.EventPetDeactivated, map[string]interface{}{
		"pet_id":   petID,
		"owner_id": userID,
	})
	return nil
}

// AssignCaregiver grants role on the pet to the user identified by
// email. Only the primary owner may assign; a second active assignment
// for the same user is a conflict.
func (s *Service) AssignCaregiver(ctx context.Context, actorID, petID uuid.UUID, req *model.AssignCaregiverRequest) (*model.CaregiverAssignment, error) {
	pet, err := s.ownedPet(ctx, actorID, petID)
	if err != nil {
		return nil, err
	}

	if !req.Role.Valid() {
		return nil, errors.BadRequest("invalid caregiver role", nil)
	}

	target, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.NotFound("user", err)
		}
		return nil, errors.Internal(err)
	}
	if target.ID == pet.PrimaryOwnerID {
		return nil, errors.BadRequest("the primary owner cannot be assigned as a caregiver", nil)
	}

	if _, err := s.caregivers.GetActive(ctx, petID, target.ID); err == nil {
		return nil, errors.Conflict("user is already a caregiver for this pet", nil)
	} else if !isNoRows(err) {
		return nil, errors.Internal(err)
	}

	assignment := &model.CaregiverAssignment{
		PetID:      petID,
		UserID:     target.ID,
		Role:       req.Role,
		AssignedBy: actorID,
	}
	if err := s.caregivers.Create(ctx, assignment); err != nil {
		return nil, errors.Internal(err)
	}

	s.emit(ctx, model.EventCaregiverAssigned, map[string]interface{}{
		"pet_id":      petID,
		"user_id":     target.ID,
		"role":        assignment.Role,
		"assigned_by": actorID,
	})
	return assignment, nil
}

// UpdateCaregiverRole changes an active assignment's role. Updating to
// the role it already holds is a no-op, not an error.
func (s *Service) UpdateCaregiverRole(ctx context.Context, actorID, petID, assignmentID uuid.UUID, role model.CaregiverRole) (*model.CaregiverAssignment, error) {
	if _, err := s.ownedPet(ctx, actorID, petID); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, errors.BadRequest("invalid caregiver role", nil)
	}

	assignment, err := s.activeAssignment(ctx, petID, assignmentID)
	if err != nil {
		return nil, err
	}

	if assignment.Role == role {
		return assignment, nil
	}

	if err := s.caregivers.UpdateRole(ctx, assignmentID, role); err != nil {
		if isNoRows(err) {
			return nil, errors.NotFound("caregiver assignment", err)
		}
		return nil, errors.Internal(err)
	}
	assignment.Role = role
	return assignment, nil
}

// RemoveCaregiver deactivates the assignment. The row is kept; any
// authorization check after this commits sees the access as revoked.
func (s *Service) RemoveCaregiver(ctx context.Context, actorID, petID, assignmentID uuid.UUID) error {
	if _, err := s.ownedPet(ctx, actorID, petID); err != nil {
		return err
	}

	assignment, err := s.activeAssignment(ctx, petID, assignmentID)
	if err != nil {
		return err
	}

	// A no-rows result means a concurrent removal already won; the end
	// state is what the caller asked for.
	if err := s.caregivers.Deactivate(ctx, assignmentID); err != nil && !isNoRows(err) {
		return errors.Internal(err)
	}

	s.emit(ctx, model.EventCaregiverRemoved, map[string]interface{}{
		"pet_id":     petID,
		"user_id":    assignment.UserID,
		"removed_by": actorID,
	})
	return nil
}

// ListCaregivers returns active assignments with public profiles.
// Read access suffices.
func (s *Service) ListCaregivers(ctx context.Context, userID, petID uuid.UUID) ([]*model.CaregiverDetail, error) {
	if _, err := s.authz.AuthorizePet(ctx, userID, petID, authz.ActionRead); err != nil {
		return nil, err
	}
	details, err := s.caregivers.ListActive(ctx, petID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return details, nil
}

// ownedPet loads the pet and requires the actor to be its primary owner.
func (s *Service) ownedPet(ctx context.Context, actorID, petID uuid.UUID) (*model.Pet, error) {
	pet, err := s.pets.Get(ctx, petID)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.NotFound("pet", err)
		}
		return nil, errors.Internal(err)
	}
	if pet.PrimaryOwnerID != actorID {
		return nil, errors.Forbidden("only the primary owner can manage caregivers", nil)
	}
	return pet, nil
}

func (s *Service) activeAssignment(ctx context.Context, petID, assignmentID uuid.UUID) (*model.CaregiverAssignment, error) {
	assignment, err := s.caregivers.Get(ctx, assignmentID)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.NotFound("caregiver assignment", err)
		}
		return nil, errors.Internal(err)
	}
	if assignment.PetID != petID || !assignment.IsActive {
		return nil, errors.NotFound("caregiver assignment", nil)
	}
	return assignment, nil
}

// emit never fails the caller; lifecycle events are observability, not
// part of the mutation contract.
func (s *Service) emit(ctx context.Context, eventType string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, eventType, payload); err != nil {
		s.logger.Warn("event emission failed", "event_type", eventType)
	}
}

func isNoRows(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows)
}
