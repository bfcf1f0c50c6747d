package repository_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hidroweb/backend/internal/db/models"
	"github.com/hidroweb/backend/internal/db/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = gormDB.AutoMigrate(
		&models.Grower{},
		&models.Crop{},
		&models.InboxReading{},
		&models.ArchivedReading{},
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	return gormDB
}

func TestReadingRepository_Inbox(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewReadingRepository(db)

	t.Run("Should round-trip an inbox reading", func(t *testing.T) {
		reading := &models.InboxReading{
			DocID:       "doc-1",
			SensorID:    "sensor123",
			GrowerUID:   "uid-1",
			CropID:      "crop-1",
			DateTime:    "2026-08-30 14:05:09",
			PH:          6.1,
			Temperature: 21.4,
			WaterLevel:  1,
		}
		require.NoError(t, repo.InsertInbox(reading))

		got, err := repo.GetInboxByDocID("doc-1")
		require.NoError(t, err)
		assert.Equal(t, "sensor123", got.SensorID)
		assert.Equal(t, "2026-08-30 14:05:09", got.DateTime)

		at, err := got.ParseDateTime()
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 30, 14, 5, 9, 0, time.Local), at)
	})

	t.Run("Should return not found for unknown documents", func(t *testing.T) {
		_, err := repo.GetInboxByDocID("doc-ghost")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Should delete idempotently", func(t *testing.T) {
		require.NoError(t, repo.DeleteInbox("doc-1"))
		require.NoError(t, repo.DeleteInbox("doc-1"))

		count, err := repo.CountInbox()
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestReadingRepository_Archive(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewReadingRepository(db)

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.InsertArchived(&models.ArchivedReading{
			Time:        base.Add(time.Duration(i) * time.Minute),
			GrowerUID:   "uid-1",
			CropID:      "crop-1",
			SensorID:    "sensor123",
			PH:          "6.00",
			Temperature: fmt.Sprintf("%d.00", 20+i),
			WaterLevel:  "1.00",
		}))
	}

	t.Run("Should return the newest reading as latest", func(t *testing.T) {
		latest, err := repo.GetLatestArchived("uid-1", "crop-1")
		require.NoError(t, err)
		assert.Equal(t, "24.00", latest.Temperature)
		assert.True(t, latest.Time.Equal(base.Add(4*time.Minute)))
	})

	t.Run("Should scope latest by crop and grower", func(t *testing.T) {
		_, err := repo.GetLatestArchived("uid-1", "crop-other")
		assert.ErrorIs(t, err, repository.ErrNotFound)

		_, err = repo.GetLatestArchived("uid-other", "crop-1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Should filter ranges and order newest first", func(t *testing.T) {
		readings, err := repo.GetArchivedRange("uid-1", "crop-1",
			base.Add(time.Minute), base.Add(3*time.Minute), 0)
		require.NoError(t, err)
		require.Len(t, readings, 3)
		assert.Equal(t, "23.00", readings[0].Temperature)
		assert.Equal(t, "21.00", readings[2].Temperature)
	})

	t.Run("Should report a duplicate insert as a conflict", func(t *testing.T) {
		err := repo.InsertArchived(&models.ArchivedReading{
			Time:        base,
			GrowerUID:   "uid-1",
			CropID:      "crop-1",
			SensorID:    "sensor123",
			PH:          "6.00",
			Temperature: "20.00",
			WaterLevel:  "1.00",
		})
		assert.ErrorIs(t, err, repository.ErrConflict)
	})

	t.Run("Should honor the limit", func(t *testing.T) {
		readings, err := repo.GetArchivedRange("uid-1", "crop-1", time.Time{}, time.Time{}, 2)
		require.NoError(t, err)
		assert.Len(t, readings, 2)
	})

	t.Run("Should count and delete per crop", func(t *testing.T) {
		count, err := repo.CountArchived("uid-1", "crop-1")
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)

		require.NoError(t, repo.DeleteArchivedByCrop("uid-1", "crop-1"))

		count, err = repo.CountArchived("uid-1", "crop-1")
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestCropRepository(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewCropRepository(db)

	crop := &models.Crop{
		CropID:    "crop-1",
		GrowerUID: "uid-1",
		Species:   "Lechuga",
		Variety:   "Batavia",
		Phase:     "Crecimiento",
		Requirements: models.Requirements{
			Temperature: &models.Range{Min: 19, Max: 21},
			PH:          &models.Range{Min: 5.8, Max: 6.0},
			WaterLevel:  "Mantener un flujo continuo",
		},
	}
	require.NoError(t, repo.Create(crop))

	t.Run("Should round-trip the requirements document", func(t *testing.T) {
		got, err := repo.GetByCropID("crop-1")
		require.NoError(t, err)
		require.NotNil(t, got.Requirements.Temperature)
		assert.Equal(t, 19.0, got.Requirements.Temperature.Min)
		assert.Equal(t, 21.0, got.Requirements.Temperature.Max)
		assert.Equal(t, "Mantener un flujo continuo", got.Requirements.WaterLevel)
	})

	t.Run("Should enforce ownership on GetOwned", func(t *testing.T) {
		_, err := repo.GetOwned("uid-other", "crop-1")
		assert.ErrorIs(t, err, repository.ErrNotFound)

		got, err := repo.GetOwned("uid-1", "crop-1")
		require.NoError(t, err)
		assert.Equal(t, "Batavia", got.Variety)
	})

	t.Run("Should list with pagination", func(t *testing.T) {
		for i := 2; i <= 4; i++ {
			require.NoError(t, repo.Create(&models.Crop{
				CropID:    fmt.Sprintf("crop-%d", i),
				GrowerUID: "uid-1",
				Species:   "Lechuga",
				Variety:   "Romaine",
				Phase:     "Germinación",
			}))
		}

		crops, total, err := repo.ListByGrower("uid-1", 0, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, crops, 2)
	})

	t.Run("Should soft delete", func(t *testing.T) {
		require.NoError(t, repo.Delete("crop-1"))

		_, err := repo.GetByCropID("crop-1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestGrowerRepository(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGrowerRepository(db)

	require.NoError(t, repo.Create(&models.Grower{
		UID:   "uid-1",
		Email: "ana@example.com",
		Name:  "Ana",
	}))

	t.Run("Should bind a Telegram chat", func(t *testing.T) {
		require.NoError(t, repo.SetTelegramChatID("uid-1", 42))

		grower, err := repo.GetByUID("uid-1")
		require.NoError(t, err)
		assert.Equal(t, int64(42), grower.TelegramChatID)
		assert.True(t, grower.HasTelegramChannel())
	})

	t.Run("Should report unknown growers on bind", func(t *testing.T) {
		err := repo.SetTelegramChatID("uid-ghost", 42)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
