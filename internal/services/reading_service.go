package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/hidroweb/backend/internal/db/models"
	"github.com/hidroweb/backend/internal/db/repository"
	"github.com/hidroweb/backend/internal/utils"
	"go.uber.org/zap"
)

// inboxPublisher announces inbox additions for the ingestion router
type inboxPublisher interface {
	PublishInboxEvent(docID string) error
}

// ReadingService accepts raw sensor readings into the inbox and serves
// the archived per-crop log
type ReadingService struct {
	readings  repository.ReadingRepository
	publisher inboxPublisher
	logger    *utils.Logger
}

// NewReadingService creates a new reading service
func NewReadingService(readings repository.ReadingRepository, publisher inboxPublisher, logger *utils.Logger) *ReadingService {
	return &ReadingService{
		readings:  readings,
		publisher: publisher,
		logger:    logger.Named("reading_service"),
	}
}

// SubmitReadingInput is a raw reading as posted by a sensor process
type SubmitReadingInput struct {
	SensorID    string  `json:"sensorId" binding:"required"`
	GrowerUID   string  `json:"userId" binding:"required"`
	CropID      string  `json:"cultivoId" binding:"required"`
	DateTime    string  `json:"dateTime" binding:"required"`
	PH          float64 `json:"pH"`
	Temperature float64 `json:"temperature"`
	WaterLevel  float64 `json:"waterLevel"`
}

// Submit deposits a raw reading in the inbox and announces it for
// routing. The timestamp is stored untouched; the router validates it.
func (s *ReadingService) Submit(input SubmitReadingInput) (*models.InboxReading, error) {
	reading := &models.InboxReading{
		DocID:       uuid.New().String(),
		SensorID:    input.SensorID,
		GrowerUID:   input.GrowerUID,
		CropID:      input.CropID,
		DateTime:    input.DateTime,
		PH:          input.PH,
		Temperature: input.Temperature,
		WaterLevel:  input.WaterLevel,
	}

	if err := s.readings.InsertInbox(reading); err != nil {
		return nil, err
	}

	if err := s.publisher.PublishInboxEvent(reading.DocID); err != nil {
		s.logger.Error("Failed to announce inbox reading",
			zap.String("doc_id", reading.DocID),
			zap.Error(err))
	}

	return reading, nil
}

// Latest returns the newest archived reading for a crop
func (s *ReadingService) Latest(growerUID, cropID string) (*models.ArchivedReading, error) {
	return s.readings.GetLatestArchived(growerUID, cropID)
}

// Range returns archived readings for a crop inside a time window,
// newest first
func (s *ReadingService) Range(growerUID, cropID string, start, end time.Time, limit int) ([]models.ArchivedReading, error) {
	return s.readings.GetArchivedRange(growerUID, cropID, start, end, limit)
}

// Count returns the number of archived readings for a crop
func (s *ReadingService) Count(growerUID, cropID string) (int64, error) {
	return s.readings.CountArchived(growerUID, cropID)
}
