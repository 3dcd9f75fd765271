package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	PetTypeDog     = "DOG"
	PetTypeCat     = "CAT"
	PetTypeBird    = "BIRD"
	PetTypeRabbit  = "RABBIT"
	PetTypeReptile = "REPTILE"
	PetTypeOther   = "OTHER"
)

const (
	PetGenderMale    = "MALE"
	PetGenderFemale  = "FEMALE"
	PetGenderUnknown = "UNKNOWN"
)

// Pet is an owned entity. PrimaryOwnerID is set at creation and never
// changed through any update path; IsActive=false is the soft-delete.
type Pet struct {
	Base
	Name           string     `db:"name" json:"name"`
	Type           string     `db:"type" json:"type"`
	Breed          string     `db:"breed" json:"breed,omitempty"`
	Gender         string     `db:"gender" json:"gender"`
	DateOfBirth    *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Weight         *float64   `db:"weight" json:"weight,omitempty"`
	WeightUnit     string     `db:"weight_unit" json:"weight_unit"`
	Color          string     `db:"color" json:"color,omitempty"`
	MicrochipID    string     `db:"microchip_id" json:"microchip_id,omitempty"`
	ProfileImage   string     `db:"profile_image" json:"profile_image,omitempty"`
	PrimaryOwnerID uuid.UUID  `db:"primary_owner_id" json:"primary_owner_id"`
	IsActive       bool       `db:"is_active" json:"is_active"`
}

type CreatePetRequest struct {
	Name         string     `json:"name" binding:"required"`
	Type         string     `json:"type" binding:"required,oneof=DOG CAT BIRD RABBIT REPTILE OTHER"`
	Breed        string     `json:"breed"`
	Gender       string     `json:"gender" binding:"required,oneof=MALE FEMALE UNKNOWN"`
	DateOfBirth  *time.Time `json:"date_of_birth"`
	Weight       *float64   `json:"weight"`
	WeightUnit   string     `json:"weight_unit"`
	Color        string     `json:"color"`
	MicrochipID  string     `json:"microchip_id"`
	ProfileImage string     `json:"profile_image"`
}

// UpdatePetRequest is the explicit allow-list for pet updates. Notably
// absent: primary_owner_id and is_active, which never travel through the
// generic update path.
type UpdatePetRequest struct {
	Name         *string    `json:"name"`
	Breed        *string    `json:"breed"`
	DateOfBirth  *time.Time `json:"date_of_birth"`
	Weight       *float64   `json:"weight"`
	WeightUnit   *string    `json:"weight_unit"`
	Color        *string    `json:"color"`
	MicrochipID  *string    `json:"microchip_id"`
	ProfileImage *string    `json:"profile_image"`
}

// PetSummary is a pet joined with its owner's public profile.
type PetSummary struct {
	Pet
	Owner *UserProfile `json:"primary_owner,omitempty"`
}
