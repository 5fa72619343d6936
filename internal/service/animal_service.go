package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/ternak-go-api/internal/cache"
	"github.com/noah-isme/ternak-go-api/internal/dto"
	"github.com/noah-isme/ternak-go-api/internal/models"
	"github.com/noah-isme/ternak-go-api/internal/observability"
	"github.com/noah-isme/ternak-go-api/internal/repository"
)

const (
	defaultPageSize    = 20
	maxPageSize        = 100
	defaultFamilyDepth = 2
	maxFamilyDepth     = 5
	dateLayout         = "2006-01-02"
)

// AnimalService manages the animal lifecycle.
type AnimalService interface {
	Create(ctx context.Context, ownerID uint, req dto.AnimalCreateRequest) (dto.AnimalCreateResponse, error)
	Get(ctx context.Context, ownerID, id uint) (dto.AnimalResponse, error)
	List(ctx context.Context, ownerID uint, req dto.AnimalListRequest) (dto.AnimalListResponse, error)
	Update(ctx context.Context, ownerID, id uint, req dto.AnimalUpdateRequest) (dto.AnimalResponse, error)
	Delete(ctx context.Context, ownerID, id uint) error
	Family(ctx context.Context, ownerID, id uint, depth int) (dto.FamilyTreeResponse, error)
}

// AnimalServiceConfig tunes internal id conflict handling.
type AnimalServiceConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type animalService struct {
	repo      repository.AnimalRepository
	ids       InternalIDGenerator
	recorder  LifecycleRecorder
	cache     cache.Store
	validator *validator.Validate
	cfg       AnimalServiceConfig
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAnimalService wires the animal service.
func NewAnimalService(repo repository.AnimalRepository, ids InternalIDGenerator, recorder LifecycleRecorder, store cache.Store, validate *validator.Validate, cfg AnimalServiceConfig, logger zerolog.Logger) AnimalService {
	if store == nil {
		store = cache.Noop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 10 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 250 * time.Millisecond
	}
	return &animalService{
		repo:      repo,
		ids:       ids,
		recorder:  recorder,
		cache:     store,
		validator: validate,
		cfg:       cfg,
		logger:    logger.With().Str("component", "animal_service").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *animalService) Create(ctx context.Context, ownerID uint, req dto.AnimalCreateRequest) (dto.AnimalCreateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AnimalCreateResponse{}, err
	}

	birthDate, err := parseDate(req.BirthDate)
	if err != nil {
		return dto.AnimalCreateResponse{}, err
	}

	if err := s.checkParents(ctx, ownerID, req.DamID, req.SireID); err != nil {
		return dto.AnimalCreateResponse{}, err
	}

	animal := models.Animal{
		OwnerID:         ownerID,
		Name:            strings.TrimSpace(req.Name),
		Category:        strings.TrimSpace(req.Category),
		Breed:           strings.TrimSpace(req.Breed),
		Sex:             normalizeSex(req.Sex),
		DamID:           req.DamID,
		SireID:          req.SireID,
		BirthDate:       birthDate,
		BirthWeight:     req.BirthWeight,
		BirthStatus:     strings.TrimSpace(req.BirthStatus),
		ColostrumIntake: strings.TrimSpace(req.ColostrumIntake),
		HealthAtBirth:   strings.TrimSpace(req.HealthAtBirth),
		Weight:          req.Weight,
		Vaccinations:    datatypes.JSONSlice[string](req.Vaccinations),
		Notes:           strings.TrimSpace(req.Notes),
	}

	if err := s.insertWithInternalID(ctx, &animal); err != nil {
		return dto.AnimalCreateResponse{}, err
	}

	s.logger.Info().Uint("animal_id", animal.ID).Str("internal_id", animal.InternalID).Msg("animal registered")

	activities := s.recorder.OnAnimalCreated(ctx, animal)

	return dto.AnimalCreateResponse{
		Animal:     dto.NewAnimalResponse(animal),
		Activities: dto.NewActivityResponseSlice(activities),
	}, nil
}

// insertWithInternalID generates an id and inserts the animal, starting over when the unique
// index on internal_id reports that a concurrent registration took the same sequence.
func (s *animalService) insertWithInternalID(ctx context.Context, animal *models.Animal) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.cfg.InitialBackoff
	exp.MaxInterval = s.cfg.MaxBackoff
	exp.Multiplier = 2
	exp.Reset()

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(s.cfg.MaxAttempts-1)), ctx)

	attempts := 0
	operation := func() error {
		attempts++
		id, err := s.ids.Generate(ctx, animal.Category, s.now())
		if err != nil {
			return backoff.Permanent(err)
		}

		animal.ID = 0
		animal.InternalID = id
		err = s.repo.Create(ctx, animal)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, gorm.ErrDuplicatedKey):
			observability.InternalIDConflicts().Inc()
			s.logger.Warn().Str("internal_id", id).Int("attempt", attempts).Msg("internal id already taken, regenerating")
			return err
		default:
			return backoff.Permanent(fmt.Errorf("persist animal: %w", err))
		}
	}

	err := backoff.Retry(operation, policy)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w after %d attempts", ErrInternalIDConflict, attempts)
	}
	return err
}

func (s *animalService) Get(ctx context.Context, ownerID, id uint) (dto.AnimalResponse, error) {
	key := cache.AnimalKey(id, ownerID)

	var cached dto.AnimalResponse
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	animal, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnimalResponse{}, ErrAnimalNotFound
		}
		return dto.AnimalResponse{}, err
	}

	response := dto.NewAnimalResponse(animal)
	s.writeCache(ctx, key, response)

	return response, nil
}

func (s *animalService) List(ctx context.Context, ownerID uint, req dto.AnimalListRequest) (dto.AnimalListResponse, error) {
	filter := repository.AnimalFilter{
		Category: strings.TrimSpace(req.Category),
		Search:   strings.TrimSpace(req.Search),
		Page:     maxInt(req.Page, 1),
		PageSize: clampPageSize(req.PageSize),
	}

	// Only the default first page is cached; it is what the list invalidation key refers to.
	cacheable := filter.IsZero() && filter.PageSize == defaultPageSize
	key := cache.AnimalListKey(ownerID)

	if cacheable {
		var cached dto.AnimalListResponse
		if s.readCache(ctx, key, &cached) {
			cached.CacheHit = true
			return cached, nil
		}
	}

	animals, total, err := s.repo.List(ctx, ownerID, filter)
	if err != nil {
		return dto.AnimalListResponse{}, err
	}

	response := dto.AnimalListResponse{
		Items:      dto.NewAnimalResponseSlice(animals),
		Pagination: dto.NewPaginationMeta(filter.Page, filter.PageSize, total),
	}

	if cacheable {
		s.writeCache(ctx, key, response)
	}

	return response, nil
}

func (s *animalService) Update(ctx context.Context, ownerID, id uint, req dto.AnimalUpdateRequest) (dto.AnimalResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AnimalResponse{}, err
	}

	animal, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnimalResponse{}, ErrAnimalNotFound
		}
		return dto.AnimalResponse{}, err
	}

	if req.Name != nil {
		animal.Name = strings.TrimSpace(*req.Name)
	}
	if req.Breed != nil {
		animal.Breed = strings.TrimSpace(*req.Breed)
	}
	if req.Sex != nil {
		animal.Sex = normalizeSex(*req.Sex)
	}
	if req.BirthDate != nil {
		birthDate, err := parseDate(*req.BirthDate)
		if err != nil {
			return dto.AnimalResponse{}, err
		}
		animal.BirthDate = birthDate
	}
	if req.BirthWeight != nil {
		animal.BirthWeight = req.BirthWeight
	}
	if req.BirthStatus != nil {
		animal.BirthStatus = strings.TrimSpace(*req.BirthStatus)
	}
	if req.ColostrumIntake != nil {
		animal.ColostrumIntake = strings.TrimSpace(*req.ColostrumIntake)
	}
	if req.HealthAtBirth != nil {
		animal.HealthAtBirth = strings.TrimSpace(*req.HealthAtBirth)
	}
	if req.Weight != nil {
		animal.Weight = req.Weight
	}
	if req.Vaccinations != nil {
		animal.Vaccinations = datatypes.JSONSlice[string](req.Vaccinations)
	}
	if req.Notes != nil {
		animal.Notes = strings.TrimSpace(*req.Notes)
	}

	if err := s.repo.Update(ctx, &animal); err != nil {
		return dto.AnimalResponse{}, err
	}

	s.recorder.OnAnimalUpdated(ctx, animal)

	return dto.NewAnimalResponse(animal), nil
}

func (s *animalService) Delete(ctx context.Context, ownerID, id uint) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAnimalNotFound
		}
		return err
	}

	s.recorder.OnAnimalDeleted(ctx, models.Animal{ID: id, OwnerID: ownerID})
	s.logger.Info().Uint("animal_id", id).Msg("animal deleted")

	return nil
}

func (s *animalService) Family(ctx context.Context, ownerID, id uint, depth int) (dto.FamilyTreeResponse, error) {
	if depth <= 0 {
		depth = defaultFamilyDepth
	}
	if depth > maxFamilyDepth {
		depth = maxFamilyDepth
	}

	root, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FamilyTreeResponse{}, ErrAnimalNotFound
		}
		return dto.FamilyTreeResponse{}, err
	}

	node, err := s.ancestry(ctx, ownerID, root, depth, map[uint]struct{}{})
	if err != nil {
		return dto.FamilyTreeResponse{}, err
	}

	offspring, err := s.repo.ListOffspring(ctx, ownerID, root.ID)
	if err != nil {
		return dto.FamilyTreeResponse{}, err
	}

	return dto.FamilyTreeResponse{
		FamilyNode: *node,
		Offspring:  dto.NewAnimalResponseSlice(offspring),
	}, nil
}

func (s *animalService) ancestry(ctx context.Context, ownerID uint, animal models.Animal, depth int, seen map[uint]struct{}) (*dto.FamilyNode, error) {
	seen[animal.ID] = struct{}{}
	node := &dto.FamilyNode{Animal: dto.NewAnimalResponse(animal)}
	if depth == 0 {
		return node, nil
	}

	parent := func(parentID *uint) (*dto.FamilyNode, error) {
		if parentID == nil {
			return nil, nil
		}
		if _, visited := seen[*parentID]; visited {
			return nil, nil
		}
		record, err := s.repo.GetByID(ctx, ownerID, *parentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return s.ancestry(ctx, ownerID, record, depth-1, seen)
	}

	var err error
	if node.Dam, err = parent(animal.DamID); err != nil {
		return nil, err
	}
	if node.Sire, err = parent(animal.SireID); err != nil {
		return nil, err
	}

	return node, nil
}

func (s *animalService) checkParents(ctx context.Context, ownerID uint, damID, sireID *uint) error {
	if damID != nil && sireID != nil && *damID == *sireID {
		return fmt.Errorf("%w: dam and sire must differ", ErrInvalidParent)
	}

	check := func(parentID *uint, role, sex string) error {
		if parentID == nil {
			return nil
		}
		parent, err := s.repo.GetByID(ctx, ownerID, *parentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s %d not found", ErrInvalidParent, role, *parentID)
		}
		if err != nil {
			return err
		}
		if parent.Sex != sex {
			return fmt.Errorf("%w: %s must be %s", ErrInvalidParent, role, sex)
		}
		return nil
	}

	if err := check(damID, "dam", models.SexFemale); err != nil {
		return err
	}
	return check(sireID, "sire", models.SexMale)
}

func (s *animalService) readCache(ctx context.Context, key string, target interface{}) bool {
	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read animal cache")
		}
		return false
	}
	if err := json.Unmarshal(payload, target); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		return false
	}
	s.logger.Debug().Str("key", key).Msg("animal cache hit")
	return true
}

func (s *animalService) writeCache(ctx context.Context, key string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to store animal cache")
	}
}

func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidDate, value, err)
	}
	return &parsed, nil
}

func normalizeSex(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case models.SexMale:
		return models.SexMale
	case models.SexFemale:
		return models.SexFemale
	default:
		return models.SexUnknown
	}
}

func clampPageSize(size int) int {
	if size <= 0 {
		return defaultPageSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
