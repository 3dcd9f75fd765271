package model

import (
	"time"

	"github.com/google/uuid"
)

// CaregiverRole is ordered by privilege: ADMIN > EDITOR > VIEWER.
type CaregiverRole string

const (
	RoleAdmin  CaregiverRole = "ADMIN"
	RoleEditor CaregiverRole = "EDITOR"
	RoleViewer CaregiverRole = "VIEWER"
)

// Level returns the privilege rank of the role; higher is more privileged.
func (r CaregiverRole) Level() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleEditor:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}

func (r CaregiverRole) Valid() bool {
	return r.Level() > 0
}

// CaregiverAssignment is the (pet, user, role) relation. Removal flips
// IsActive to false; rows are never deleted so the audit trail survives.
// At most one active assignment exists per (pet, user) pair.
type CaregiverAssignment struct {
	ID         uuid.UUID     `db:"id" json:"id"`
	PetID      uuid.UUID     `db:"pet_id" json:"pet_id"`
	UserID     uuid.UUID     `db:"user_id" json:"user_id"`
	Role       CaregiverRole `db:"role" json:"role"`
	AssignedBy uuid.UUID     `db:"assigned_by" json:"assigned_by"`
	AssignedAt time.Time     `db:"assigned_at" json:"assigned_at"`
	IsActive   bool          `db:"is_active" json:"is_active"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// CaregiverDetail joins an assignment with the caregiver's public profile.
type CaregiverDetail struct {
	CaregiverAssignment
	User *UserProfile `json:"user"`
}

type AssignCaregiverRequest struct {
	Email string        `json:"email" binding:"required,email"`
	Role  CaregiverRole `json:"role" binding:"required,caregiver_role"`
}

type UpdateCaregiverRoleRequest struct {
	Role CaregiverRole `json:"role" binding:"required,caregiver_role"`
}
