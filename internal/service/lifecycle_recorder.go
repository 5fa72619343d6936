package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/ternak-go-api/internal/cache"
	"github.com/noah-isme/ternak-go-api/internal/events"
	"github.com/noah-isme/ternak-go-api/internal/models"
	"github.com/noah-isme/ternak-go-api/internal/observability"
	"github.com/noah-isme/ternak-go-api/internal/repository"
)

const nextCheckupMonths = 3

// BirthdayGenerator appends birthday activities for animals born on today's month and day.
type BirthdayGenerator interface {
	GenerateBirthdayActivities(ctx context.Context) (int, error)
}

// LifecycleRecorder reacts to animal lifecycle events with derived activities and cache invalidation.
type LifecycleRecorder interface {
	BirthdayGenerator
	OnAnimalCreated(ctx context.Context, animal models.Animal) []models.Activity
	OnAnimalUpdated(ctx context.Context, animal models.Animal)
	OnAnimalDeleted(ctx context.Context, animal models.Animal)
}

type lifecycleRecorder struct {
	activities repository.ActivityRepository
	animals    repository.AnimalRepository
	cache      cache.Store
	publisher  events.Publisher
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewLifecycleRecorder constructs the recorder. Every activity it emits is appended on its own:
// one failed insert is logged and does not stop the emissions that follow.
func NewLifecycleRecorder(activities repository.ActivityRepository, animals repository.AnimalRepository, store cache.Store, publisher events.Publisher, logger zerolog.Logger) LifecycleRecorder {
	if store == nil {
		store = cache.Noop()
	}
	if publisher == nil {
		publisher = events.Discard()
	}
	return &lifecycleRecorder{
		activities: activities,
		animals:    animals,
		cache:      store,
		publisher:  publisher,
		logger:     logger.With().Str("component", "lifecycle_recorder").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/ternak-go-api/internal/service/lifecycle"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *lifecycleRecorder) OnAnimalCreated(ctx context.Context, animal models.Animal) []models.Activity {
	spanCtx, span := r.tracer.Start(ctx, "lifecycle.animal_created", trace.WithAttributes(
		attribute.Int64("animal.id", int64(animal.ID)),
		attribute.String("animal.internal_id", animal.InternalID),
	))
	defer span.End()

	now := r.now()
	drafts := []models.Activity{registrationActivity(animal, now)}
	if animal.BirthDate != nil {
		drafts = append(drafts, birthActivity(animal))
	}
	if animal.Weight != nil {
		drafts = append(drafts, weightActivity(animal, now))
	}
	if animal.HasVaccinations() || animal.HealthAtBirth != "" {
		drafts = append(drafts, medicalActivity(animal, now))
	}

	created := make([]models.Activity, 0, len(drafts))
	for _, draft := range drafts {
		if activity, ok := r.append(spanCtx, animal, draft); ok {
			created = append(created, activity)
		}
	}
	span.SetAttributes(attribute.Int("activities.created", len(created)))

	r.invalidate(spanCtx, cache.AnimalListKey(animal.OwnerID))

	return created
}

func (r *lifecycleRecorder) OnAnimalUpdated(ctx context.Context, animal models.Animal) {
	r.invalidate(ctx, cache.AnimalKey(animal.ID, animal.OwnerID))
}

func (r *lifecycleRecorder) OnAnimalDeleted(ctx context.Context, animal models.Animal) {
	r.invalidate(ctx, cache.AnimalKey(animal.ID, animal.OwnerID))
	r.invalidate(ctx, cache.AnimalListKey(animal.OwnerID))
}

func (r *lifecycleRecorder) GenerateBirthdayActivities(ctx context.Context) (int, error) {
	spanCtx, span := r.tracer.Start(ctx, "lifecycle.birthdays")
	defer span.End()

	today := r.now()
	candidates, err := r.animals.FindByBirthMonthDay(spanCtx, today.Month(), today.Day())
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("find birthday animals: %w", err)
	}

	// Leap-day animals celebrate on 28 February in common years.
	if today.Month() == time.February && today.Day() == 28 && !isLeapYear(today.Year()) {
		leapBorn, err := r.animals.FindByBirthMonthDay(spanCtx, time.February, 29)
		if err != nil {
			span.RecordError(err)
			return 0, fmt.Errorf("find leap-day animals: %w", err)
		}
		candidates = append(candidates, leapBorn...)
	}

	yearStart := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
	yearEnd := yearStart.AddDate(1, 0, 0)

	created := 0
	for _, animal := range candidates {
		if animal.BirthDate == nil {
			continue
		}
		age := today.Year() - animal.BirthDate.Year()
		if age <= 0 {
			continue
		}

		exists, err := r.activities.ExistsInRange(spanCtx, animal.ID, models.ActivityTypeBirthday, yearStart, yearEnd)
		if err != nil {
			r.logger.Warn().Err(err).Uint("animal_id", animal.ID).Msg("failed to check existing birthday activity")
			continue
		}
		if exists {
			continue
		}

		if _, ok := r.append(spanCtx, animal, birthdayActivity(animal, age, today)); ok {
			created++
		}
	}

	span.SetAttributes(attribute.Int("activities.created", created))
	r.logger.Info().Int("candidates", len(candidates)).Int("created", created).Msg("birthday activities generated")

	return created, nil
}

func (r *lifecycleRecorder) append(ctx context.Context, animal models.Animal, draft models.Activity) (models.Activity, bool) {
	draft.AnimalID = animal.ID
	draft.UserID = animal.OwnerID
	draft.IsAutomatic = true

	if err := r.activities.Create(ctx, &draft); err != nil {
		observability.ActivityFailures().WithLabelValues(draft.ActivityType).Inc()
		trace.SpanFromContext(ctx).RecordError(err)
		r.logger.Error().Err(err).
			Uint("animal_id", animal.ID).
			Str("activity_type", draft.ActivityType).
			Msg("failed to record automatic activity")
		return models.Activity{}, false
	}

	observability.ActivitiesRecorded().WithLabelValues(draft.ActivityType, "automatic").Inc()
	if err := r.publisher.PublishActivity(ctx, draft); err != nil {
		r.logger.Warn().Err(err).Uint("activity_id", draft.ID).Msg("failed to publish activity event")
	}

	return draft, true
}

func (r *lifecycleRecorder) invalidate(ctx context.Context, key string) {
	if err := r.cache.Invalidate(ctx, key); err != nil {
		observability.CacheInvalidationErrors().Inc()
		r.logger.Warn().Err(err).Str("key", key).Msg("failed to invalidate cache entry")
	}
}

func registrationActivity(animal models.Animal, now time.Time) models.Activity {
	return models.Activity{
		ActivityType: models.ActivityTypeRegistration,
		Description:  fmt.Sprintf("Registered with internal id %s", animal.InternalID),
		Details: datatypes.JSONMap{
			"internal_id": animal.InternalID,
			"category":    animal.Category,
			"breed":       animal.Breed,
		},
		ActivityDate: now,
	}
}

func birthActivity(animal models.Animal) models.Activity {
	details := datatypes.JSONMap{}
	if animal.BirthWeight != nil {
		details["birth_weight"] = *animal.BirthWeight
	}
	if animal.BirthStatus != "" {
		details["birth_status"] = animal.BirthStatus
	}
	if animal.ColostrumIntake != "" {
		details["colostrum_intake"] = animal.ColostrumIntake
	}
	if animal.HealthAtBirth != "" {
		details["health_at_birth"] = animal.HealthAtBirth
	}

	return models.Activity{
		ActivityType: models.ActivityTypeBirth,
		Description:  fmt.Sprintf("%s was born", displayName(animal)),
		Details:      details,
		ActivityDate: *animal.BirthDate,
	}
}

func weightActivity(animal models.Animal, now time.Time) models.Activity {
	return models.Activity{
		ActivityType: models.ActivityTypeWeightCheck,
		Description:  fmt.Sprintf("Initial weight recorded: %.2f kg", *animal.Weight),
		Details: datatypes.JSONMap{
			"weight": *animal.Weight,
			"unit":   "kg",
		},
		ActivityDate: now,
	}
}

func medicalActivity(animal models.Animal, now time.Time) models.Activity {
	vaccinations := []string{}
	if animal.HasVaccinations() {
		vaccinations = append(vaccinations, animal.Vaccinations...)
	}

	details := datatypes.JSONMap{
		"vaccinations":     vaccinations,
		"next_checkup_due": now.AddDate(0, nextCheckupMonths, 0).Format("2006-01-02"),
	}
	if animal.HealthAtBirth != "" {
		details["health_at_birth"] = animal.HealthAtBirth
	}

	return models.Activity{
		ActivityType: models.ActivityTypeMedical,
		Description:  "Initial health assessment",
		Details:      details,
		ActivityDate: now,
	}
}

func birthdayActivity(animal models.Animal, age int, today time.Time) models.Activity {
	return models.Activity{
		ActivityType: models.ActivityTypeBirthday,
		Description:  fmt.Sprintf("%s turned %d", displayName(animal), age),
		Details: datatypes.JSONMap{
			"age_years":   age,
			"internal_id": animal.InternalID,
		},
		ActivityDate: today,
	}
}

func displayName(animal models.Animal) string {
	if animal.Name != "" {
		return animal.Name
	}
	if animal.InternalID != "" {
		return animal.InternalID
	}
	return animal.Category
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
