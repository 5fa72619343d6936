package models

import (
	"time"

	"gorm.io/datatypes"
)

// Animal sex values.
const (
	SexMale    = "male"
	SexFemale  = "female"
	SexUnknown = "unknown"
)

// Animal is a registered head of livestock owned by a single user.
type Animal struct {
	ID              uint                        `gorm:"primaryKey" json:"id"`
	InternalID      string                      `gorm:"size:32;uniqueIndex;not null" json:"internal_id"`
	OwnerID         uint                        `gorm:"index;not null" json:"owner_id"`
	Name            string                      `gorm:"size:128" json:"name"`
	Category        string                      `gorm:"size:64;index;not null" json:"category"`
	Breed           string                      `gorm:"size:64" json:"breed"`
	Sex             string                      `gorm:"size:16;default:unknown" json:"sex"`
	DamID           *uint                       `gorm:"index" json:"dam_id"`
	SireID          *uint                       `gorm:"index" json:"sire_id"`
	BirthDate       *time.Time                  `json:"birth_date"`
	BirthWeight     *float64                    `json:"birth_weight"`
	BirthStatus     string                      `gorm:"size:32" json:"birth_status"`
	ColostrumIntake string                      `gorm:"size:32" json:"colostrum_intake"`
	HealthAtBirth   string                      `gorm:"size:64" json:"health_at_birth"`
	Weight          *float64                    `json:"weight"`
	Vaccinations    datatypes.JSONSlice[string] `gorm:"type:json" json:"vaccinations"`
	Notes           string                      `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// HasVaccinations reports whether any vaccination was recorded at registration.
func (a Animal) HasVaccinations() bool {
	return len(a.Vaccinations) > 0
}
