package repository

import (
	"github.com/hidroweb/backend/internal/db/models"
	"gorm.io/gorm"
)

// GrowerRepository defines operations for managing growers
type GrowerRepository interface {
	Repository
	Create(grower *models.Grower) error
	GetByUID(uid string) (*models.Grower, error)
	Update(grower *models.Grower) error
	SetTelegramChatID(uid string, chatID int64) error
}

// growerRepository implements GrowerRepository
type growerRepository struct {
	BaseRepository
}

// NewGrowerRepository creates a new grower repository
func NewGrowerRepository(db *gorm.DB) GrowerRepository {
	return &growerRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create adds a new grower to the database
func (r *growerRepository) Create(grower *models.Grower) error {
	err := r.GetDB().Create(grower).Error
	return r.handleError(err)
}

// GetByUID retrieves a grower by external UID
func (r *growerRepository) GetByUID(uid string) (*models.Grower, error) {
	var grower models.Grower
	err := r.GetDB().Where("uid = ?", uid).First(&grower).Error
	if err != nil {
		return nil, r.handleError(err)
	}
	return &grower, nil
}

// Update updates a grower's information
func (r *growerRepository) Update(grower *models.Grower) error {
	err := r.GetDB().Save(grower).Error
	return r.handleError(err)
}

// SetTelegramChatID binds a Telegram chat id to the grower with the given UID
func (r *growerRepository) SetTelegramChatID(uid string, chatID int64) error {
	result := r.GetDB().Model(&models.Grower{}).
		Where("uid = ?", uid).
		Update("telegram_chat_id", chatID)
	if result.Error != nil {
		return r.handleError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
