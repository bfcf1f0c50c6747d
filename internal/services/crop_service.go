package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hidroweb/backend/internal/catalog"
	"github.com/hidroweb/backend/internal/db/models"
	"github.com/hidroweb/backend/internal/db/repository"
	"github.com/hidroweb/backend/internal/utils"
	"go.uber.org/zap"
)

// alertStateKeeper follows the crop lifecycle: state is seeded at
// creation so staleness is tracked from the start, and dropped on
// deletion
type alertStateKeeper interface {
	RegisterCrop(cropID, growerUID string)
	RemoveCrop(cropID string)
}

// CropService manages the crops owned by growers
type CropService struct {
	crops    repository.CropRepository
	readings repository.ReadingRepository
	alerts   alertStateKeeper
	notifier eventNotifier
	logger   *utils.Logger
}

// NewCropService creates a new crop service
func NewCropService(
	crops repository.CropRepository,
	readings repository.ReadingRepository,
	alerts alertStateKeeper,
	notifier eventNotifier,
	logger *utils.Logger,
) *CropService {
	return &CropService{
		crops:    crops,
		readings: readings,
		alerts:   alerts,
		notifier: notifier,
		logger:   logger.Named("crop_service"),
	}
}

// CreateCropInput holds the grower-entered fields for a new crop
type CreateCropInput struct {
	Species   string `json:"especie" binding:"required"`
	Variety   string `json:"variedad" binding:"required"`
	Phase     string `json:"fase" binding:"required"`
	PlantedAt string `json:"fechaSiembra"`
}

// Create registers a new crop and attaches the catalog requirements for
// its variety and phase
func (s *CropService) Create(growerUID string, input CreateCropInput) (*models.Crop, error) {
	req, ok := catalog.Lookup(input.Variety, input.Phase)
	if !ok {
		return nil, fmt.Errorf("%w: unknown variety %q or phase %q",
			utils.ErrValidation, input.Variety, input.Phase)
	}

	crop := &models.Crop{
		CropID:       uuid.New().String(),
		GrowerUID:    growerUID,
		Species:      input.Species,
		Variety:      input.Variety,
		Phase:        input.Phase,
		PlantedAt:    input.PlantedAt,
		Requirements: req,
	}

	if err := s.crops.Create(crop); err != nil {
		return nil, err
	}

	s.alerts.RegisterCrop(crop.CropID, growerUID)

	s.logger.Info("Crop created",
		zap.String("crop_id", crop.CropID),
		zap.String("grower_uid", growerUID),
		zap.String("variety", crop.Variety),
		zap.String("phase", crop.Phase))

	s.notifier.NotifyGrower(growerUID, EventTypeCropUpdate, crop.CropID, crop)
	return crop, nil
}

// Get returns a grower's crop by id
func (s *CropService) Get(growerUID, cropID string) (*models.Crop, error) {
	return s.crops.GetOwned(growerUID, cropID)
}

// List returns a page of a grower's crops and the total count
func (s *CropService) List(growerUID string, offset, limit int) ([]models.Crop, int64, error) {
	return s.crops.ListByGrower(growerUID, offset, limit)
}

// UpdateCropInput holds the fields a grower may change on a crop
type UpdateCropInput struct {
	Phase     string `json:"fase"`
	PlantedAt string `json:"fechaSiembra"`
}

// Update changes a crop's phase, refreshing its requirements from the
// catalog when the phase moves
func (s *CropService) Update(growerUID, cropID string, input UpdateCropInput) (*models.Crop, error) {
	crop, err := s.crops.GetOwned(growerUID, cropID)
	if err != nil {
		return nil, err
	}

	if input.Phase != "" && input.Phase != crop.Phase {
		req, ok := catalog.Lookup(crop.Variety, input.Phase)
		if !ok {
			return nil, fmt.Errorf("%w: unknown phase %q for variety %q",
				utils.ErrValidation, input.Phase, crop.Variety)
		}
		crop.Phase = input.Phase
		crop.Requirements = req
	}
	if input.PlantedAt != "" {
		crop.PlantedAt = input.PlantedAt
	}

	if err := s.crops.Update(crop); err != nil {
		return nil, err
	}

	s.notifier.NotifyGrower(growerUID, EventTypeCropUpdate, crop.CropID, crop)
	return crop, nil
}

// Delete removes a crop along with its reading log and tracked alert
// state
func (s *CropService) Delete(growerUID, cropID string) error {
	crop, err := s.crops.GetOwned(growerUID, cropID)
	if err != nil {
		return err
	}

	if err := s.crops.Delete(crop.CropID); err != nil {
		return err
	}

	if err := s.readings.DeleteArchivedByCrop(growerUID, crop.CropID); err != nil {
		s.logger.Error("Failed to delete crop readings",
			zap.String("crop_id", crop.CropID),
			zap.Error(err))
	}

	s.alerts.RemoveCrop(crop.CropID)

	s.logger.Info("Crop deleted",
		zap.String("crop_id", crop.CropID),
		zap.String("grower_uid", growerUID))

	s.notifier.NotifyGrower(growerUID, EventTypeCropUpdate, crop.CropID, nil)
	return nil
}
