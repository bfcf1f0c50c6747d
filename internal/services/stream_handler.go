package services

import (
	"fmt"

	"github.com/hidroweb/backend/internal/kafka"
	"github.com/hidroweb/backend/internal/utils"
)

// StreamHandler wires the Kafka topics to the ingestion and alert
// pipelines
type StreamHandler struct {
	logger       *utils.Logger
	kafkaManager *kafka.Manager
	ingest       *IngestService
	alerts       *AlertService
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(
	logger *utils.Logger,
	kafkaManager *kafka.Manager,
	ingest *IngestService,
	alerts *AlertService,
) *StreamHandler {
	return &StreamHandler{
		logger:       logger.Named("stream_handler"),
		kafkaManager: kafkaManager,
		ingest:       ingest,
		alerts:       alerts,
	}
}

// Initialize registers the topic handlers. Must run before the Kafka
// manager starts.
func (h *StreamHandler) Initialize() error {
	if err := h.kafkaManager.RegisterInboxHandler("inbox-router", h.ingest.Route); err != nil {
		return fmt.Errorf("failed to register inbox handler: %w", err)
	}

	if err := h.kafkaManager.RegisterCropReadingHandler("alert-evaluator", h.alerts.HandleReading); err != nil {
		return fmt.Errorf("failed to register crop reading handler: %w", err)
	}

	return nil
}
