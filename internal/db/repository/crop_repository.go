package repository

import (
	"github.com/hidroweb/backend/internal/db/models"
	"gorm.io/gorm"
)

// CropRepository defines operations for managing crops
type CropRepository interface {
	Repository
	Create(crop *models.Crop) error
	GetByCropID(cropID string) (*models.Crop, error)
	GetOwned(growerUID, cropID string) (*models.Crop, error)
	ListByGrower(growerUID string, offset, limit int) ([]models.Crop, int64, error)
	Update(crop *models.Crop) error
	Delete(cropID string) error
}

// cropRepository implements CropRepository
type cropRepository struct {
	BaseRepository
}

// NewCropRepository creates a new crop repository
func NewCropRepository(db *gorm.DB) CropRepository {
	return &cropRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create adds a new crop to the database
func (r *cropRepository) Create(crop *models.Crop) error {
	err := r.GetDB().Create(crop).Error
	return r.handleError(err)
}

// GetByCropID retrieves a crop by its external id
func (r *cropRepository) GetByCropID(cropID string) (*models.Crop, error) {
	var crop models.Crop
	err := r.GetDB().Where("crop_id = ?", cropID).First(&crop).Error
	if err != nil {
		return nil, r.handleError(err)
	}
	return &crop, nil
}

// GetOwned retrieves a crop by external id, scoped to its owner
func (r *cropRepository) GetOwned(growerUID, cropID string) (*models.Crop, error) {
	var crop models.Crop
	err := r.GetDB().Where("grower_uid = ? AND crop_id = ?", growerUID, cropID).First(&crop).Error
	if err != nil {
		return nil, r.handleError(err)
	}
	return &crop, nil
}

// ListByGrower retrieves a paginated list of a grower's crops
func (r *cropRepository) ListByGrower(growerUID string, offset, limit int) ([]models.Crop, int64, error) {
	var crops []models.Crop
	var total int64

	if err := r.GetDB().Model(&models.Crop{}).Where("grower_uid = ?", growerUID).Count(&total).Error; err != nil {
		return nil, 0, r.handleError(err)
	}

	err := r.GetDB().
		Where("grower_uid = ?", growerUID).
		Offset(offset).Limit(limit).
		Order("id asc").
		Find(&crops).Error
	if err != nil {
		return nil, 0, r.handleError(err)
	}

	return crops, total, nil
}

// Update updates a crop's information
func (r *cropRepository) Update(crop *models.Crop) error {
	err := r.GetDB().Save(crop).Error
	return r.handleError(err)
}

// Delete soft deletes a crop by its external id
func (r *cropRepository) Delete(cropID string) error {
	result := r.GetDB().Where("crop_id = ?", cropID).Delete(&models.Crop{})
	if result.Error != nil {
		return r.handleError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
