package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/ternak-go-api/internal/models"
)

// AnimalFilter narrows animal list queries.
type AnimalFilter struct {
	Category string
	Search   string
	Page     int
	PageSize int
}

// IsZero reports whether the filter requests the default, unfiltered listing.
func (f AnimalFilter) IsZero() bool {
	return strings.TrimSpace(f.Category) == "" && strings.TrimSpace(f.Search) == "" && f.Page <= 1
}

// AnimalRepository defines persistence operations for animals.
type AnimalRepository interface {
	Create(ctx context.Context, animal *models.Animal) error
	GetByID(ctx context.Context, ownerID, id uint) (models.Animal, error)
	List(ctx context.Context, ownerID uint, filter AnimalFilter) ([]models.Animal, int64, error)
	Update(ctx context.Context, animal *models.Animal) error
	Delete(ctx context.Context, ownerID, id uint) error
	ListOffspring(ctx context.Context, ownerID, parentID uint) ([]models.Animal, error)
	ListInternalIDs(ctx context.Context, prefix, year string) ([]string, error)
	FindByBirthMonthDay(ctx context.Context, month time.Month, day int) ([]models.Animal, error)
}

type animalRepository struct {
	db *gorm.DB
}

// NewAnimalRepository instantiates a GORM-backed repository.
func NewAnimalRepository(db *gorm.DB) AnimalRepository {
	return &animalRepository{db: db}
}

func (r *animalRepository) Create(ctx context.Context, animal *models.Animal) error {
	return r.db.WithContext(ctx).Create(animal).Error
}

func (r *animalRepository) GetByID(ctx context.Context, ownerID, id uint) (models.Animal, error) {
	var animal models.Animal
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&animal).Error
	return animal, err
}

func (r *animalRepository) List(ctx context.Context, ownerID uint, filter AnimalFilter) ([]models.Animal, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Animal{}).Where("owner_id = ?", ownerID)

	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(category))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(internal_id) LIKE ?", pattern, pattern)
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

	var animals []models.Animal
	if err := query.Order("created_at DESC, id DESC").Find(&animals).Error; err != nil {
		return nil, 0, err
	}

	return animals, total, nil
}

func (r *animalRepository) Update(ctx context.Context, animal *models.Animal) error {
	return r.db.WithContext(ctx).Save(animal).Error
}

// Delete removes the animal together with its activities and detaches its offspring.
func (r *animalRepository) Delete(ctx context.Context, ownerID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Animal{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("animal_id = ?", id).Delete(&models.Activity{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Animal{}).Where("dam_id = ?", id).Update("dam_id", nil).Error; err != nil {
			return err
		}

		return tx.Model(&models.Animal{}).Where("sire_id = ?", id).Update("sire_id", nil).Error
	})
}

func (r *animalRepository) ListOffspring(ctx context.Context, ownerID, parentID uint) ([]models.Animal, error) {
	var offspring []models.Animal
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND (dam_id = ? OR sire_id = ?)", ownerID, parentID, parentID).
		Order("birth_date ASC, id ASC").
		Find(&offspring).Error
	return offspring, err
}

// ListInternalIDs returns every stored internal id that looks like it belongs to the prefix/year scope.
// The LIKE match is coarse; callers must validate each value.
func (r *animalRepository) ListInternalIDs(ctx context.Context, prefix, year string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Animal{}).
		Where("internal_id LIKE ?", prefix+"/"+year+"/%").
		Pluck("internal_id", &ids).Error
	return ids, err
}

func (r *animalRepository) FindByBirthMonthDay(ctx context.Context, month time.Month, day int) ([]models.Animal, error) {
	query := r.db.WithContext(ctx).Where("birth_date IS NOT NULL")

	switch r.db.Dialector.Name() {
	case "sqlite":
		query = query.Where("CAST(strftime('%m', birth_date) AS INTEGER) = ? AND CAST(strftime('%d', birth_date) AS INTEGER) = ?", int(month), day)
	default:
		query = query.Where("EXTRACT(MONTH FROM birth_date) = ? AND EXTRACT(DAY FROM birth_date) = ?", int(month), day)
	}

	var animals []models.Animal
	if err := query.Order("id ASC").Find(&animals).Error; err != nil {
		return nil, err
	}
	return animals, nil
}
