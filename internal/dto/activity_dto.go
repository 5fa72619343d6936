package dto

import (
	"time"

	"github.com/noah-isme/ternak-go-api/internal/models"
)

// ActivityCreateRequest captures a user-submitted activity.
type ActivityCreateRequest struct {
	AnimalID     uint                   `json:"animal_id" validate:"required"`
	ActivityType string                 `json:"activity_type" validate:"required,oneof=weight_check medical breeding custom"`
	Description  string                 `json:"description" validate:"required,min=1,max=2000"`
	Details      map[string]interface{} `json:"details" validate:"omitempty"`
	ActivityDate string                 `json:"activity_date" validate:"omitempty,datetime=2006-01-02"`
}

// ActivityUpdateRequest edits a user-submitted activity.
type ActivityUpdateRequest struct {
	ActivityType *string                `json:"activity_type" validate:"omitempty,oneof=weight_check medical breeding custom"`
	Description  *string                `json:"description" validate:"omitempty,min=1,max=2000"`
	Details      map[string]interface{} `json:"details" validate:"omitempty"`
	ActivityDate *string                `json:"activity_date" validate:"omitempty,datetime=2006-01-02"`
}

// ActivityListRequest defines filters for retrieving activities.
type ActivityListRequest struct {
	AnimalID     uint
	ActivityType string
	Automatic    *bool
	Page         int
	PageSize     int
}

// ActivityResponse serializes an activity.
type ActivityResponse struct {
	ID           uint                   `json:"id"`
	AnimalID     uint                   `json:"animal_id"`
	UserID       uint                   `json:"user_id"`
	ActivityType string                 `json:"activity_type"`
	Description  string                 `json:"description"`
	Details      map[string]interface{} `json:"details"`
	ActivityDate time.Time              `json:"activity_date"`
	IsAutomatic  bool                   `json:"is_automatic"`
	CreatedAt    time.Time              `json:"created_at"`
}

// ActivityListResponse wraps paginated activities.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// BirthdayRunResponse reports the outcome of a birthday sweep.
type BirthdayRunResponse struct {
	Created int       `json:"created"`
	RanAt   time.Time `json:"ran_at"`
}

// NewActivityResponse converts a model into a DTO.
func NewActivityResponse(model models.Activity) ActivityResponse {
	details := map[string]interface{}{}
	for key, value := range model.Details {
		details[key] = value
	}
	return ActivityResponse{
		ID:           model.ID,
		AnimalID:     model.AnimalID,
		UserID:       model.UserID,
		ActivityType: model.ActivityType,
		Description:  model.Description,
		Details:      details,
		ActivityDate: model.ActivityDate,
		IsAutomatic:  model.IsAutomatic,
		CreatedAt:    model.CreatedAt,
	}
}

// NewActivityResponseSlice converts a slice of models into DTOs.
func NewActivityResponseSlice(items []models.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewActivityResponse(item))
	}
	return out
}
