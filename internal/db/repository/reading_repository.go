package repository

import (
	"time"

	"github.com/hidroweb/backend/internal/db/models"
	"gorm.io/gorm"
)

// ReadingRepository defines operations for the sensor inbox and the
// per-crop archived reading log
type ReadingRepository interface {
	Repository
	// Inbox operations
	InsertInbox(reading *models.InboxReading) error
	GetInboxByDocID(docID string) (*models.InboxReading, error)
	DeleteInbox(docID string) error
	CountInbox() (int64, error)

	// Archive operations
	InsertArchived(reading *models.ArchivedReading) error
	GetLatestArchived(growerUID, cropID string) (*models.ArchivedReading, error)
	GetArchivedRange(growerUID, cropID string, start, end time.Time, limit int) ([]models.ArchivedReading, error)
	CountArchived(growerUID, cropID string) (int64, error)
	DeleteArchivedByCrop(growerUID, cropID string) error
}

// readingRepository implements ReadingRepository
type readingRepository struct {
	BaseRepository
}

// NewReadingRepository creates a new reading repository
func NewReadingRepository(db *gorm.DB) ReadingRepository {
	return &readingRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// InsertInbox adds a raw reading to the sensor inbox
func (r *readingRepository) InsertInbox(reading *models.InboxReading) error {
	err := r.GetDB().Create(reading).Error
	return r.handleError(err)
}

// GetInboxByDocID retrieves an inbox reading by document id
func (r *readingRepository) GetInboxByDocID(docID string) (*models.InboxReading, error) {
	var reading models.InboxReading
	err := r.GetDB().Where("doc_id = ?", docID).First(&reading).Error
	if err != nil {
		return nil, r.handleError(err)
	}
	return &reading, nil
}

// DeleteInbox removes an inbox reading by document id. Deleting an
// already-deleted row is not an error; the inbox is a transient queue
// and the delete must be safe under redelivery.
func (r *readingRepository) DeleteInbox(docID string) error {
	err := r.GetDB().Unscoped().Where("doc_id = ?", docID).Delete(&models.InboxReading{}).Error
	return r.handleError(err)
}

// CountInbox returns the number of rows currently waiting in the inbox
func (r *readingRepository) CountInbox() (int64, error) {
	var count int64
	err := r.GetDB().Model(&models.InboxReading{}).Count(&count).Error
	if err != nil {
		return 0, r.handleError(err)
	}
	return count, nil
}

// InsertArchived appends a reading to a crop's log
func (r *readingRepository) InsertArchived(reading *models.ArchivedReading) error {
	err := r.GetDB().Create(reading).Error
	return r.handleError(err)
}

// GetLatestArchived retrieves the most recent archived reading for a crop
func (r *readingRepository) GetLatestArchived(growerUID, cropID string) (*models.ArchivedReading, error) {
	var reading models.ArchivedReading
	err := r.GetDB().
		Where("grower_uid = ? AND crop_id = ?", growerUID, cropID).
		Order("time desc").
		Limit(1).
		First(&reading).Error
	if err != nil {
		return nil, r.handleError(err)
	}
	return &reading, nil
}

// GetArchivedRange retrieves archived readings for a crop within a time range,
// newest first
func (r *readingRepository) GetArchivedRange(growerUID, cropID string, start, end time.Time, limit int) ([]models.ArchivedReading, error) {
	var readings []models.ArchivedReading

	query := r.GetDB().Where("grower_uid = ? AND crop_id = ?", growerUID, cropID)
	if !start.IsZero() {
		query = query.Where("time >= ?", start)
	}
	if !end.IsZero() {
		query = query.Where("time <= ?", end)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Order("time desc").Find(&readings).Error
	if err != nil {
		return nil, r.handleError(err)
	}

	return readings, nil
}

// CountArchived returns the number of archived readings for a crop
func (r *readingRepository) CountArchived(growerUID, cropID string) (int64, error) {
	var count int64
	err := r.GetDB().Model(&models.ArchivedReading{}).
		Where("grower_uid = ? AND crop_id = ?", growerUID, cropID).
		Count(&count).Error
	if err != nil {
		return 0, r.handleError(err)
	}
	return count, nil
}

// DeleteArchivedByCrop removes a crop's entire reading log
func (r *readingRepository) DeleteArchivedByCrop(growerUID, cropID string) error {
	err := r.GetDB().Where("grower_uid = ? AND crop_id = ?", growerUID, cropID).
		Delete(&models.ArchivedReading{}).Error
	return r.handleError(err)
}
