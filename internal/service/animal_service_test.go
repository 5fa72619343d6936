package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ternak-go-api/internal/cache"
	"github.com/noah-isme/ternak-go-api/internal/dto"
	"github.com/noah-isme/ternak-go-api/internal/models"
	"github.com/noah-isme/ternak-go-api/internal/repository"
)

// scriptedIDs hands out fixed ids first and then defers to the real generator.
type scriptedIDs struct {
	script   []string
	fallback InternalIDGenerator
	calls    int
}

func (s *scriptedIDs) Generate(ctx context.Context, category string, now time.Time) (string, error) {
	s.calls++
	if len(s.script) > 0 {
		next := s.script[0]
		s.script = s.script[1:]
		return next, nil
	}
	if s.fallback == nil {
		return "COW/26/0001", nil
	}
	return s.fallback.Generate(ctx, category, now)
}

type animalFixture struct {
	service    *animalService
	animals    repository.AnimalRepository
	activities repository.ActivityRepository
	cache      *recordingCache
}

func newAnimalFixture(t *testing.T, store cache.Store) animalFixture {
	t.Helper()
	db := setupTestDB(t)
	animals := repository.NewAnimalRepository(db)
	activities := repository.NewActivityRepository(db)

	recording, _ := store.(*recordingCache)
	if store == nil {
		recording = newRecordingCache()
		store = recording
	}

	recorder := NewLifecycleRecorder(activities, animals, store, nil, testLogger()).(*lifecycleRecorder)
	recorder.now = func() time.Time { return recorderClock }

	svc := NewAnimalService(animals, NewInternalIDGenerator(animals, testLogger()), recorder, store, testValidator(), AnimalServiceConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}, testLogger()).(*animalService)
	svc.now = func() time.Time { return recorderClock }

	return animalFixture{service: svc, animals: animals, activities: activities, cache: recording}
}

func TestAnimalServiceCreateAssignsSequentialIDs(t *testing.T) {
	f := newAnimalFixture(t, nil)
	ctx := context.Background()

	first, err := f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "cow", BirthDate: "2026-10-01"})
	require.NoError(t, err)
	require.Equal(t, "COW/26/0001", first.Animal.InternalID)
	require.Len(t, first.Activities, 2)

	second, err := f.service.Create(ctx, 2, dto.AnimalCreateRequest{Category: "Cow", Weight: ptrFloat(120)})
	require.NoError(t, err)
	require.Equal(t, "COW/26/0002", second.Animal.InternalID)
	require.Len(t, second.Activities, 2)

	goat, err := f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "goat"})
	require.NoError(t, err)
	require.Equal(t, "GOA/26/0001", goat.Animal.InternalID)
	require.Len(t, goat.Activities, 1)
	require.Equal(t, models.ActivityTypeRegistration, goat.Activities[0].ActivityType)
}

func TestAnimalServiceCreateRejectsEmptyCategory(t *testing.T) {
	f := newAnimalFixture(t, nil)

	_, err := f.service.Create(context.Background(), 1, dto.AnimalCreateRequest{Category: "   "})
	require.ErrorIs(t, err, ErrInvalidCategory)

	_, total, err := f.animals.List(context.Background(), 1, repository.AnimalFilter{})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestAnimalServiceCreateRetriesOnDuplicateInternalID(t *testing.T) {
	f := newAnimalFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "cow"})
	require.NoError(t, err)

	// A concurrent registration generated the same id before this one inserted.
	ids := &scriptedIDs{script: []string{"COW/26/0001"}, fallback: f.service.ids}
	f.service.ids = ids

	created, err := f.service.Create(ctx, 2, dto.AnimalCreateRequest{Category: "cow"})
	require.NoError(t, err)
	require.Equal(t, "COW/26/0002", created.Animal.InternalID)
	require.Equal(t, 2, ids.calls)
}

func TestAnimalServiceCreateGivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newAnimalFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "cow"})
	require.NoError(t, err)

	ids := &scriptedIDs{}
	f.service.ids = ids

	_, err = f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "cow"})
	require.ErrorIs(t, err, ErrInternalIDConflict)
	require.Equal(t, 3, ids.calls)

	_, total, err := f.animals.List(ctx, 1, repository.AnimalFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}

func TestAnimalServiceConcurrentCreatesGetUniqueIDs(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps sqlite from reporting table locks; scans and inserts still interleave.
	sqlDB.SetMaxOpenConns(1)

	animals := repository.NewAnimalRepository(db)
	activities := repository.NewActivityRepository(db)
	store := newRecordingCache()
	recorder := NewLifecycleRecorder(activities, animals, store, nil, testLogger()).(*lifecycleRecorder)
	recorder.now = func() time.Time { return recorderClock }

	const workers = 8
	svc := NewAnimalService(animals, NewInternalIDGenerator(animals, testLogger()), recorder, store, testValidator(), AnimalServiceConfig{
		MaxAttempts:    workers + 2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}, testLogger()).(*animalService)
	svc.now = func() time.Time { return recorderClock }

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ids  []string
		errs []error
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(owner uint) {
			defer wg.Done()
			<-start
			resp, err := svc.Create(context.Background(), owner, dto.AnimalCreateRequest{Category: "cow"})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ids = append(ids, resp.Animal.InternalID)
		}(uint(i + 1))
	}
	close(start)
	wg.Wait()

	require.Empty(t, errs)
	expected := make([]string, 0, workers)
	for i := 1; i <= workers; i++ {
		expected = append(expected, fmt.Sprintf("COW/26/%04d", i))
	}
	require.ElementsMatch(t, expected, ids)

	var stored int64
	require.NoError(t, db.Model(&models.Animal{}).Count(&stored).Error)
	require.Equal(t, int64(workers), stored)
}

func TestAnimalServiceCreateValidatesParents(t *testing.T) {
	f := newAnimalFixture(t, nil)
	ctx := context.Background()

	dam, err := f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "cow", Sex: "female"})
	require.NoError(t, err)
	bull, err := f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "cow", Sex: "male"})
	require.NoError(t, err)

	damID := dam.Animal.ID
	bullID := bull.Animal.ID

	_, err = f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "cow", DamID: &bullID})
	require.ErrorIs(t, err, ErrInvalidParent)

	_, err = f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "cow", DamID: &damID, SireID: &damID})
	require.ErrorIs(t, err, ErrInvalidParent)

	_, err = f.service.Create(ctx, 2, dto.AnimalCreateRequest{Category: "cow", DamID: &damID})
	require.ErrorIs(t, err, ErrInvalidParent)

	calf, err := f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "cow", DamID: &damID, SireID: &bullID})
	require.NoError(t, err)
	require.Equal(t, &damID, calf.Animal.DamID)
}

func TestAnimalServiceGetUsesCache(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newAnimalFixture(t, cache.NewRedisStore(client, time.Minute))
	ctx := context.Background()

	created, err := f.service.Create(ctx, 5, dto.AnimalCreateRequest{Category: "cow", Name: "Melati"})
	require.NoError(t, err)
	id := created.Animal.ID

	first, err := f.service.Get(ctx, 5, id)
	require.NoError(t, err)
	require.Equal(t, "Melati", first.Name)
	require.True(t, server.Exists(cache.AnimalKey(id, 5)))

	// Bypass the service so only the cached copy carries the old name.
	stored, err := f.animals.GetByID(ctx, 5, id)
	require.NoError(t, err)
	stored.Name = "Kenanga"
	require.NoError(t, f.animals.Update(ctx, &stored))

	cached, err := f.service.Get(ctx, 5, id)
	require.NoError(t, err)
	require.Equal(t, "Melati", cached.Name)

	name := "Kenanga"
	_, err = f.service.Update(ctx, 5, id, dto.AnimalUpdateRequest{Name: &name})
	require.NoError(t, err)
	require.False(t, server.Exists(cache.AnimalKey(id, 5)))

	fresh, err := f.service.Get(ctx, 5, id)
	require.NoError(t, err)
	require.Equal(t, "Kenanga", fresh.Name)

	_, err = f.service.Get(ctx, 6, id)
	require.ErrorIs(t, err, ErrAnimalNotFound)
}

func TestAnimalServiceListCachesDefaultPage(t *testing.T) {
	f := newAnimalFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "cow"})
	require.NoError(t, err)

	first, err := f.service.List(ctx, 1, dto.AnimalListRequest{})
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Len(t, first.Items, 1)

	second, err := f.service.List(ctx, 1, dto.AnimalListRequest{})
	require.NoError(t, err)
	require.True(t, second.CacheHit)

	filtered, err := f.service.List(ctx, 1, dto.AnimalListRequest{Category: "cow"})
	require.NoError(t, err)
	require.False(t, filtered.CacheHit)

	_, err = f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "goat"})
	require.NoError(t, err)

	refreshed, err := f.service.List(ctx, 1, dto.AnimalListRequest{})
	require.NoError(t, err)
	require.False(t, refreshed.CacheHit)
	require.Len(t, refreshed.Items, 2)
}

func TestAnimalServiceDeleteCascadesAndInvalidates(t *testing.T) {
	f := newAnimalFixture(t, nil)
	ctx := context.Background()

	dam, err := f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "cow", Sex: "female", Weight: ptrFloat(300)})
	require.NoError(t, err)
	damID := dam.Animal.ID

	calf, err := f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "cow", DamID: &damID})
	require.NoError(t, err)

	require.ErrorIs(t, f.service.Delete(ctx, 2, damID), ErrAnimalNotFound)

	before := len(f.cache.invalidated)
	require.NoError(t, f.service.Delete(ctx, 1, damID))
	require.Equal(t, []string{
		cache.AnimalKey(damID, 1),
		cache.AnimalListKey(1),
	}, f.cache.invalidated[before:])

	animalID := damID
	_, total, err := f.activities.List(ctx, repository.ActivityFilter{OwnerID: 1, AnimalID: &animalID})
	require.NoError(t, err)
	require.Zero(t, total)

	orphan, err := f.service.Get(ctx, 1, calf.Animal.ID)
	require.NoError(t, err)
	require.Nil(t, orphan.DamID)

	require.ErrorIs(t, f.service.Delete(ctx, 1, damID), ErrAnimalNotFound)
}

func TestAnimalServiceFamily(t *testing.T) {
	f := newAnimalFixture(t, nil)
	ctx := context.Background()

	grandDam, err := f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "goat", Sex: "female", Name: "Nenek"})
	require.NoError(t, err)
	gdID := grandDam.Animal.ID

	dam, err := f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "goat", Sex: "female", Name: "Induk", DamID: &gdID})
	require.NoError(t, err)
	damID := dam.Animal.ID

	sire, err := f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "goat", Sex: "male", Name: "Pejantan"})
	require.NoError(t, err)
	sireID := sire.Animal.ID

	kid, err := f.service.Create(ctx, 1, dto.AnimalCreateRequest{Category: "goat", Name: "Cempe", DamID: &damID, SireID: &sireID})
	require.NoError(t, err)

	tree, err := f.service.Family(ctx, 1, kid.Animal.ID, 0)
	require.NoError(t, err)
	require.Equal(t, "Cempe", tree.Animal.Name)
	require.NotNil(t, tree.Dam)
	require.Equal(t, "Induk", tree.Dam.Animal.Name)
	require.NotNil(t, tree.Dam.Dam)
	require.Equal(t, "Nenek", tree.Dam.Dam.Animal.Name)
	require.NotNil(t, tree.Sire)
	require.Empty(t, tree.Offspring)

	shallow, err := f.service.Family(ctx, 1, kid.Animal.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, shallow.Dam)
	require.Nil(t, shallow.Dam.Dam)

	damTree, err := f.service.Family(ctx, 1, damID, 1)
	require.NoError(t, err)
	require.Len(t, damTree.Offspring, 1)
	require.Equal(t, kid.Animal.ID, damTree.Offspring[0].ID)

	_, err = f.service.Family(ctx, 2, kid.Animal.ID, 1)
	require.ErrorIs(t, err, ErrAnimalNotFound)
}
