package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/ternak-go-api/internal/models"
)

// ActivityFilter narrows activity queries.
type ActivityFilter struct {
	OwnerID      uint
	AnimalID     *uint
	ActivityType string
	IsAutomatic  *bool
	Page         int
	PageSize     int
}

// ActivityRepository persists animal activities.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	GetByID(ctx context.Context, ownerID, id uint) (models.Activity, error)
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error)
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id uint) error
	ExistsInRange(ctx context.Context, animalID uint, activityType string, from, to time.Time) (bool, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs the activity repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// GetByID loads an activity whose animal belongs to the owner.
func (r *activityRepository) GetByID(ctx context.Context, ownerID, id uint) (models.Activity, error) {
	var activity models.Activity
	err := r.db.WithContext(ctx).
		Select("activities.*").
		Joins("JOIN animals ON animals.id = activities.animal_id").
		Where("activities.id = ? AND animals.owner_id = ?", id, ownerID).
		First(&activity).Error
	return activity, err
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{}).
		Joins("JOIN animals ON animals.id = activities.animal_id").
		Where("animals.owner_id = ?", filter.OwnerID)

	if filter.AnimalID != nil {
		query = query.Where("activities.animal_id = ?", *filter.AnimalID)
	}

	if filter.ActivityType != "" {
		query = query.Where("activities.activity_type = ?", filter.ActivityType)
	}

	if filter.IsAutomatic != nil {
		query = query.Where("activities.is_automatic = ?", *filter.IsAutomatic)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var entries []models.Activity
	if err := query.Select("activities.*").Order("activities.activity_date DESC, activities.id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *activityRepository) Update(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Save(activity).Error
}

func (r *activityRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Activity{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ExistsInRange reports whether the animal has an activity of the given type dated in [from, to).
func (r *activityRepository) ExistsInRange(ctx context.Context, animalID uint, activityType string, from, to time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Activity{}).
		Where("animal_id = ? AND activity_type = ? AND activity_date >= ? AND activity_date < ?", animalID, activityType, from, to).
		Count(&count).Error
	return count > 0, err
}
