package dto

import (
	"time"

	"github.com/noah-isme/ternak-go-api/internal/models"
)

// AnimalCreateRequest registers a new animal. Category drives the internal id prefix.
type AnimalCreateRequest struct {
	Name            string   `json:"name" validate:"omitempty,max=128"`
	Category        string   `json:"category" validate:"max=64"`
	Breed           string   `json:"breed" validate:"omitempty,max=64"`
	Sex             string   `json:"sex" validate:"omitempty,oneof=male female unknown"`
	DamID           *uint    `json:"dam_id" validate:"omitempty,gt=0"`
	SireID          *uint    `json:"sire_id" validate:"omitempty,gt=0"`
	BirthDate       string   `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	BirthWeight     *float64 `json:"birth_weight" validate:"omitempty,gt=0"`
	BirthStatus     string   `json:"birth_status" validate:"omitempty,max=32"`
	ColostrumIntake string   `json:"colostrum_intake" validate:"omitempty,max=32"`
	HealthAtBirth   string   `json:"health_at_birth" validate:"omitempty,max=64"`
	Weight          *float64 `json:"weight" validate:"omitempty,gt=0"`
	Vaccinations    []string `json:"vaccinations" validate:"omitempty,dive,required,max=64"`
	Notes           string   `json:"notes" validate:"omitempty,max=4000"`
}

// AnimalUpdateRequest carries a partial update. Internal id and category cannot change.
type AnimalUpdateRequest struct {
	Name            *string  `json:"name" validate:"omitempty,max=128"`
	Breed           *string  `json:"breed" validate:"omitempty,max=64"`
	Sex             *string  `json:"sex" validate:"omitempty,oneof=male female unknown"`
	BirthDate       *string  `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	BirthWeight     *float64 `json:"birth_weight" validate:"omitempty,gt=0"`
	BirthStatus     *string  `json:"birth_status" validate:"omitempty,max=32"`
	ColostrumIntake *string  `json:"colostrum_intake" validate:"omitempty,max=32"`
	HealthAtBirth   *string  `json:"health_at_birth" validate:"omitempty,max=64"`
	Weight          *float64 `json:"weight" validate:"omitempty,gt=0"`
	Vaccinations    []string `json:"vaccinations" validate:"omitempty,dive,required,max=64"`
	Notes           *string  `json:"notes" validate:"omitempty,max=4000"`
}

// AnimalListRequest defines filters for listing animals.
type AnimalListRequest struct {
	Category string
	Search   string
	Page     int
	PageSize int
}

// AnimalResponse serializes an animal.
type AnimalResponse struct {
	ID              uint       `json:"id"`
	InternalID      string     `json:"internal_id"`
	OwnerID         uint       `json:"owner_id"`
	Name            string     `json:"name"`
	Category        string     `json:"category"`
	Breed           string     `json:"breed"`
	Sex             string     `json:"sex"`
	DamID           *uint      `json:"dam_id,omitempty"`
	SireID          *uint      `json:"sire_id,omitempty"`
	BirthDate       *time.Time `json:"birth_date,omitempty"`
	BirthWeight     *float64   `json:"birth_weight,omitempty"`
	BirthStatus     string     `json:"birth_status,omitempty"`
	ColostrumIntake string     `json:"colostrum_intake,omitempty"`
	HealthAtBirth   string     `json:"health_at_birth,omitempty"`
	Weight          *float64   `json:"weight,omitempty"`
	Vaccinations    []string   `json:"vaccinations"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AnimalCreateResponse returns the new animal together with the activities derived from it.
type AnimalCreateResponse struct {
	Animal     AnimalResponse     `json:"animal"`
	Activities []ActivityResponse `json:"activities"`
}

// AnimalListResponse wraps a page of animals.
type AnimalListResponse struct {
	Items      []AnimalResponse `json:"items"`
	Pagination PaginationMeta   `json:"pagination"`
	CacheHit   bool             `json:"cache_hit"`
}

// FamilyNode is one animal in an ancestry tree.
type FamilyNode struct {
	Animal AnimalResponse `json:"animal"`
	Dam    *FamilyNode    `json:"dam,omitempty"`
	Sire   *FamilyNode    `json:"sire,omitempty"`
}

// FamilyTreeResponse combines ancestry with direct offspring.
type FamilyTreeResponse struct {
	FamilyNode
	Offspring []AnimalResponse `json:"offspring"`
}

// NewAnimalResponse converts a model into a DTO.
func NewAnimalResponse(model models.Animal) AnimalResponse {
	vaccinations := []string{}
	if len(model.Vaccinations) > 0 {
		vaccinations = append(vaccinations, model.Vaccinations...)
	}
	return AnimalResponse{
		ID:              model.ID,
		InternalID:      model.InternalID,
		OwnerID:         model.OwnerID,
		Name:            model.Name,
		Category:        model.Category,
		Breed:           model.Breed,
		Sex:             model.Sex,
		DamID:           model.DamID,
		SireID:          model.SireID,
		BirthDate:       model.BirthDate,
		BirthWeight:     model.BirthWeight,
		BirthStatus:     model.BirthStatus,
		ColostrumIntake: model.ColostrumIntake,
		HealthAtBirth:   model.HealthAtBirth,
		Weight:          model.Weight,
		Vaccinations:    vaccinations,
		Notes:           model.Notes,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewAnimalResponseSlice converts a slice of models into DTOs.
func NewAnimalResponseSlice(items []models.Animal) []AnimalResponse {
	out := make([]AnimalResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewAnimalResponse(item))
	}
	return out
}
