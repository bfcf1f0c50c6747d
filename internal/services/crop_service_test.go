package services_test

import (
	"testing"
	"time"

	"github.com/hidroweb/backend/internal/db/models"
	"github.com/hidroweb/backend/internal/db/repository"
	"github.com/hidroweb/backend/internal/services"
	"github.com/hidroweb/backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAlertStates struct {
	registered []string
	removed    []string
}

func (f *fakeAlertStates) RegisterCrop(cropID, growerUID string) {
	f.registered = append(f.registered, cropID)
}

func (f *fakeAlertStates) RemoveCrop(cropID string) {
	f.removed = append(f.removed, cropID)
}

func TestCropService(t *testing.T) {
	t.Run("Should attach catalog requirements on create", func(t *testing.T) {
		db := newTestDB(t)
		service := services.NewCropService(
			repository.NewCropRepository(db),
			repository.NewReadingRepository(db),
			&fakeAlertStates{},
			&fakeNotifier{},
			newTestLogger(),
		)

		crop, err := service.Create("uid-1", services.CreateCropInput{
			Species:   "Lechuga",
			Variety:   "Iceberg",
			Phase:     "Germinación",
			PlantedAt: "2026-08-01",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, crop.CropID)
		require.NotNil(t, crop.Requirements.Temperature)
		assert.Equal(t, 21.0, crop.Requirements.Temperature.Min)
		assert.Equal(t, 24.0, crop.Requirements.Temperature.Max)
	})

	t.Run("Should reject varieties outside the catalog", func(t *testing.T) {
		db := newTestDB(t)
		service := services.NewCropService(
			repository.NewCropRepository(db),
			repository.NewReadingRepository(db),
			&fakeAlertStates{},
			&fakeNotifier{},
			newTestLogger(),
		)

		_, err := service.Create("uid-1", services.CreateCropInput{
			Species: "Lechuga",
			Variety: "Escarola",
			Phase:   "Germinación",
		})
		assert.ErrorIs(t, err, utils.ErrValidation)
	})

	t.Run("Should refresh requirements when the phase moves", func(t *testing.T) {
		db := newTestDB(t)
		service := services.NewCropService(
			repository.NewCropRepository(db),
			repository.NewReadingRepository(db),
			&fakeAlertStates{},
			&fakeNotifier{},
			newTestLogger(),
		)

		crop, err := service.Create("uid-1", services.CreateCropInput{
			Species: "Lechuga",
			Variety: "Iceberg",
			Phase:   "Germinación",
		})
		require.NoError(t, err)

		updated, err := service.Update("uid-1", crop.CropID, services.UpdateCropInput{Phase: "Cosecha"})
		require.NoError(t, err)
		assert.Equal(t, "Cosecha", updated.Phase)
		assert.Equal(t, 16.0, updated.Requirements.Temperature.Min)
	})

	t.Run("Should clean up readings and tracked state on delete", func(t *testing.T) {
		db := newTestDB(t)
		states := &fakeAlertStates{}
		readings := repository.NewReadingRepository(db)
		service := services.NewCropService(
			repository.NewCropRepository(db),
			readings,
			states,
			&fakeNotifier{},
			newTestLogger(),
		)

		crop, err := service.Create("uid-1", services.CreateCropInput{
			Species: "Lechuga",
			Variety: "Romaine",
			Phase:   "Crecimiento",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{crop.CropID}, states.registered)

		require.NoError(t, readings.InsertArchived(&models.ArchivedReading{
			Time:        time.Now(),
			GrowerUID:   "uid-1",
			CropID:      crop.CropID,
			PH:          "6.00",
			Temperature: "20.00",
			WaterLevel:  "1.00",
		}))

		require.NoError(t, service.Delete("uid-1", crop.CropID))

		assert.Equal(t, []string{crop.CropID}, states.removed)

		count, err := readings.CountArchived("uid-1", crop.CropID)
		require.NoError(t, err)
		assert.Zero(t, count)

		_, err = service.Get("uid-1", crop.CropID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Should not delete another grower's crop", func(t *testing.T) {
		db := newTestDB(t)
		service := services.NewCropService(
			repository.NewCropRepository(db),
			repository.NewReadingRepository(db),
			&fakeAlertStates{},
			&fakeNotifier{},
			newTestLogger(),
		)

		crop, err := service.Create("uid-1", services.CreateCropInput{
			Species: "Lechuga",
			Variety: "Batavia",
			Phase:   "Maduración",
		})
		require.NoError(t, err)

		err = service.Delete("uid-other", crop.CropID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
