package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/ternak-go-api/internal/dto"
	"github.com/noah-isme/ternak-go-api/internal/events"
	"github.com/noah-isme/ternak-go-api/internal/models"
	"github.com/noah-isme/ternak-go-api/internal/observability"
	"github.com/noah-isme/ternak-go-api/internal/repository"
)

// ActivityService exposes user-submitted activities. Automatic ones are listed but never edited here.
type ActivityService interface {
	Create(ctx context.Context, ownerID uint, req dto.ActivityCreateRequest) (dto.ActivityResponse, error)
	List(ctx context.Context, ownerID uint, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
	Update(ctx context.Context, ownerID, id uint, req dto.ActivityUpdateRequest) (dto.ActivityResponse, error)
	Delete(ctx context.Context, ownerID, id uint) error
}

type activityService struct {
	activities repository.ActivityRepository
	animals    repository.AnimalRepository
	publisher  events.Publisher
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	now        func() time.Time
}

// NewActivityService constructs the activity service.
func NewActivityService(activities repository.ActivityRepository, animals repository.AnimalRepository, publisher events.Publisher, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	if publisher == nil {
		publisher = events.Discard()
	}
	return &activityService{
		activities: activities,
		animals:    animals,
		publisher:  publisher,
		validator:  validate,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "activity_service").Logger(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *activityService) Create(ctx context.Context, ownerID uint, req dto.ActivityCreateRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityResponse{}, err
	}

	if _, err := s.animals.GetByID(ctx, ownerID, req.AnimalID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrAnimalNotFound
		}
		return dto.ActivityResponse{}, err
	}

	description, err := s.sanitize(req.Description)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	activityDate := s.now()
	if parsed, err := parseDate(req.ActivityDate); err != nil {
		return dto.ActivityResponse{}, err
	} else if parsed != nil {
		activityDate = *parsed
	}

	model := models.Activity{
		AnimalID:     req.AnimalID,
		UserID:       ownerID,
		ActivityType: req.ActivityType,
		Description:  description,
		Details:      toJSONMap(req.Details),
		ActivityDate: activityDate,
		IsAutomatic:  false,
	}

	if err := s.activities.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist activity")
		return dto.ActivityResponse{}, err
	}

	observability.ActivitiesRecorded().WithLabelValues(model.ActivityType, "manual").Inc()
	if err := s.publisher.PublishActivity(ctx, model); err != nil {
		s.logger.Warn().Err(err).Uint("activity_id", model.ID).Msg("failed to publish activity event")
	}

	return dto.NewActivityResponse(model), nil
}

func (s *activityService) List(ctx context.Context, ownerID uint, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	filter := repository.ActivityFilter{
		OwnerID:      ownerID,
		ActivityType: strings.TrimSpace(req.ActivityType),
		IsAutomatic:  req.Automatic,
		Page:         maxInt(req.Page, 1),
		PageSize:     clampPageSize(req.PageSize),
	}
	if req.AnimalID > 0 {
		animalID := req.AnimalID
		filter.AnimalID = &animalID
	}

	entries, total, err := s.activities.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	return dto.ActivityListResponse{
		Items:      dto.NewActivityResponseSlice(entries),
		Pagination: dto.NewPaginationMeta(filter.Page, filter.PageSize, total),
	}, nil
}

func (s *activityService) Update(ctx context.Context, ownerID, id uint, req dto.ActivityUpdateRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityResponse{}, err
	}

	model, err := s.editable(ctx, ownerID, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	if req.ActivityType != nil {
		model.ActivityType = *req.ActivityType
	}
	if req.Description != nil {
		description, err := s.sanitize(*req.Description)
		if err != nil {
			return dto.ActivityResponse{}, err
		}
		model.Description = description
	}
	if req.Details != nil {
		model.Details = toJSONMap(req.Details)
	}
	if req.ActivityDate != nil {
		parsed, err := parseDate(*req.ActivityDate)
		if err != nil {
			return dto.ActivityResponse{}, err
		}
		if parsed != nil {
			model.ActivityDate = *parsed
		}
	}

	if err := s.activities.Update(ctx, &model); err != nil {
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(model), nil
}

func (s *activityService) Delete(ctx context.Context, ownerID, id uint) error {
	if _, err := s.editable(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.activities.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActivityNotFound
		}
		return err
	}

	return nil
}

func (s *activityService) editable(ctx context.Context, ownerID, id uint) (models.Activity, error) {
	model, err := s.activities.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Activity{}, ErrActivityNotFound
		}
		return models.Activity{}, err
	}
	if model.IsAutomatic {
		return models.Activity{}, ErrAutomaticActivityReadOnly
	}
	return model, nil
}

func (s *activityService) sanitize(value string) (string, error) {
	cleaned := strings.TrimSpace(s.sanitizer.Sanitize(value))
	if cleaned == "" {
		return "", ErrEmptyDescription
	}
	return cleaned, nil
}

func toJSONMap(values map[string]interface{}) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for key, value := range values {
		out[key] = value
	}
	return out
}
