package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/ternak-go-api/internal/models"
)

func TestActivityRepositoryScopesByOwner(t *testing.T) {
	db := setupLivestockTestDB(t)
	animals := NewAnimalRepository(db)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	mine := models.Animal{OwnerID: 1, Category: "cow", InternalID: "COW/26/0001"}
	theirs := models.Animal{OwnerID: 2, Category: "cow", InternalID: "COW/26/0002"}
	require.NoError(t, animals.Create(ctx, &mine))
	require.NoError(t, animals.Create(ctx, &theirs))

	entry := models.Activity{
		AnimalID:     mine.ID,
		UserID:       1,
		ActivityType: models.ActivityTypeWeightCheck,
		Details:      datatypes.JSONMap{"weight": 90.5},
		ActivityDate: time.Date(2026, time.October, 1, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(ctx, &entry))
	require.NoError(t, repo.Create(ctx, &models.Activity{AnimalID: theirs.ID, UserID: 2, ActivityType: models.ActivityTypeMedical, ActivityDate: time.Now().UTC()}))

	loaded, err := repo.GetByID(ctx, 1, entry.ID)
	require.NoError(t, err)
	require.Equal(t, entry.ID, loaded.ID)
	require.Equal(t, mine.ID, loaded.AnimalID)
	require.Equal(t, json.Number("90.5"), loaded.Details["weight"])

	_, err = repo.GetByID(ctx, 2, entry.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	items, total, err := repo.List(ctx, ActivityFilter{OwnerID: 1})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, entry.ID, items[0].ID)
}

func TestActivityRepositoryListOrdersNewestFirst(t *testing.T) {
	db := setupLivestockTestDB(t)
	animals := NewAnimalRepository(db)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	animal := models.Animal{OwnerID: 1, Category: "cow", InternalID: "COW/26/0001"}
	require.NoError(t, animals.Create(ctx, &animal))

	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Activity{
			AnimalID:     animal.ID,
			UserID:       1,
			ActivityType: models.ActivityTypeCustom,
			Description:  string(rune('a' + i)),
			ActivityDate: base.AddDate(0, i, 0),
			IsAutomatic:  i == 0,
		}))
	}

	items, total, err := repo.List(ctx, ActivityFilter{OwnerID: 1, Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	require.Equal(t, "c", items[0].Description)
	require.Equal(t, "b", items[1].Description)

	automatic := true
	auto, total, err := repo.List(ctx, ActivityFilter{OwnerID: 1, IsAutomatic: &automatic})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "a", auto[0].Description)
}

func TestActivityRepositoryExistsInRange(t *testing.T) {
	db := setupLivestockTestDB(t)
	animals := NewAnimalRepository(db)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	animal := models.Animal{OwnerID: 1, Category: "cow", InternalID: "COW/26/0001"}
	require.NoError(t, animals.Create(ctx, &animal))
	require.NoError(t, repo.Create(ctx, &models.Activity{
		AnimalID:     animal.ID,
		UserID:       1,
		ActivityType: models.ActivityTypeBirthday,
		ActivityDate: time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC),
		IsAutomatic:  true,
	}))

	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	exists, err := repo.ExistsInRange(ctx, animal.ID, models.ActivityTypeBirthday, start, end)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.ExistsInRange(ctx, animal.ID, models.ActivityTypeBirthday, end, end.AddDate(1, 0, 0))
	require.NoError(t, err)
	require.False(t, exists)

	exists, err = repo.ExistsInRange(ctx, animal.ID, models.ActivityTypeMedical, start, end)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestActivityRepositoryDeleteMissing(t *testing.T) {
	db := setupLivestockTestDB(t)
	repo := NewActivityRepository(db)

	require.ErrorIs(t, repo.Delete(context.Background(), 42), gorm.ErrRecordNotFound)
}
