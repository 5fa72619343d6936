package models

import (
	"time"

	"gorm.io/datatypes"
)

// Activity types.
const (
	ActivityTypeRegistration = "registration"
	ActivityTypeBirth        = "birth"
	ActivityTypeWeightCheck  = "weight_check"
	ActivityTypeMedical      = "medical"
	ActivityTypeBreeding     = "breeding"
	ActivityTypeBirthday     = "birthday"
	ActivityTypeCustom       = "custom"
)

// Activity is a timestamped fact about an animal, either derived by the system or submitted by a user.
type Activity struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	AnimalID     uint              `gorm:"index;not null" json:"animal_id"`
	UserID       uint              `gorm:"index;not null" json:"user_id"`
	ActivityType string            `gorm:"size:32;index;not null" json:"activity_type"`
	Description  string            `gorm:"type:text" json:"description"`
	Details      datatypes.JSONMap `gorm:"type:json" json:"details"`
	ActivityDate time.Time         `gorm:"index;not null" json:"activity_date"`
	IsAutomatic  bool              `gorm:"not null;default:false" json:"is_automatic"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
