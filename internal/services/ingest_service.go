package services

import (
	"errors"
	"time"

	"github.com/hidroweb/backend/internal/db/models"
	"github.com/hidroweb/backend/internal/db/repository"
	"github.com/hidroweb/backend/internal/kafka"
	"github.com/hidroweb/backend/internal/utils"
	"go.uber.org/zap"
)

// readingPublisher publishes archived readings for downstream evaluation
type readingPublisher interface {
	PublishCropReading(event kafka.CropReadingEvent) error
}

// IngestService relocates raw inbox readings into their crop's
// append-only log. The inbox is transient: every routed row is removed
// after its relocation attempt, and malformed rows are dropped rather
// than retried.
type IngestService struct {
	readings  repository.ReadingRepository
	publisher readingPublisher
	logger    *utils.Logger
}

// NewIngestService creates a new ingestion service
func NewIngestService(readings repository.ReadingRepository, publisher readingPublisher, logger *utils.Logger) *IngestService {
	return &IngestService{
		readings:  readings,
		publisher: publisher,
		logger:    logger.Named("ingest_service"),
	}
}

// Route processes one inbox document: validate the timestamp, append
// the reading to the crop's log with 2-decimal values, delete the inbox
// row, and publish the archived reading for evaluation. A missing
// document is not an error; the event was already handled.
func (s *IngestService) Route(docID string) error {
	reading, err := s.readings.GetInboxByDocID(docID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Inbox document already routed",
				zap.String("doc_id", docID))
			return nil
		}
		return err
	}

	at, err := reading.ParseDateTime()
	if err != nil {
		s.logger.Warn("Dropping inbox reading with malformed timestamp",
			zap.String("doc_id", docID),
			zap.String("date_time", reading.DateTime),
			zap.Error(err))
		s.deleteInbox(docID)
		return nil
	}

	archived := &models.ArchivedReading{
		Time:        at,
		GrowerUID:   reading.GrowerUID,
		CropID:      reading.CropID,
		SensorID:    reading.SensorID,
		PH:          models.FormatSensorValue(reading.PH),
		Temperature: models.FormatSensorValue(reading.Temperature),
		WaterLevel:  models.FormatSensorValue(reading.WaterLevel),
	}

	relocated := true
	if err := s.readings.InsertArchived(archived); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Redelivered event, the reading is already in the log
			s.logger.Debug("Reading already archived",
				zap.String("doc_id", docID),
				zap.String("crop_id", reading.CropID))
		} else {
			relocated = false
			s.logger.Error("Failed to archive inbox reading",
				zap.String("doc_id", docID),
				zap.String("crop_id", reading.CropID),
				zap.Error(err))
		}
	}

	// The inbox row goes away regardless of the relocation outcome
	s.deleteInbox(docID)

	if !relocated {
		return nil
	}

	event := kafka.CropReadingEvent{
		GrowerUID:   archived.GrowerUID,
		CropID:      archived.CropID,
		SensorID:    archived.SensorID,
		Time:        at.Format(time.RFC3339),
		PH:          archived.PH,
		Temperature: archived.Temperature,
		WaterLevel:  archived.WaterLevel,
	}
	if err := s.publisher.PublishCropReading(event); err != nil {
		s.logger.Error("Failed to publish archived reading",
			zap.String("doc_id", docID),
			zap.String("crop_id", archived.CropID),
			zap.Error(err))
	}

	return nil
}

func (s *IngestService) deleteInbox(docID string) {
	if err := s.readings.DeleteInbox(docID); err != nil {
		s.logger.Error("Failed to delete inbox reading",
			zap.String("doc_id", docID),
			zap.Error(err))
	}
}
