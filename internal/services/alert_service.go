package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/hidroweb/backend/internal/alert"
	"github.com/hidroweb/backend/internal/db/models"
	"github.com/hidroweb/backend/internal/db/repository"
	"github.com/hidroweb/backend/internal/kafka"
	"github.com/hidroweb/backend/internal/notify"
	"github.com/hidroweb/backend/internal/utils"
	"go.uber.org/zap"
)

// alertPublisher publishes alert lifecycle events to Kafka
type alertPublisher interface {
	PublishAlertEvent(event kafka.AlertEvent) error
}

// eventNotifier pushes realtime events to connected clients
type eventNotifier interface {
	NotifyGrower(growerUID string, eventType EventType, cropID string, payload interface{})
}

// AlertService evaluates archived readings against crop requirements,
// tracks per-crop alert state and dispatches notifications. At most one
// Telegram alert stays outstanding per crop; a recovery produces
// exactly one resolution notice, pushed to the UI but never to
// Telegram.
type AlertService struct {
	crops     repository.CropRepository
	growers   repository.GrowerRepository
	evaluator *alert.Evaluator
	tracker   *alert.Tracker
	sender    notify.Sender
	notifier  eventNotifier
	publisher alertPublisher
	window    time.Duration
	logger    *utils.Logger

	sweepCancel context.CancelFunc
	sweepWG     sync.WaitGroup
}

// NewAlertService creates a new alert service
func NewAlertService(
	crops repository.CropRepository,
	growers repository.GrowerRepository,
	sender notify.Sender,
	notifier eventNotifier,
	publisher alertPublisher,
	window time.Duration,
	logger *utils.Logger,
) *AlertService {
	return &AlertService{
		crops:     crops,
		growers:   growers,
		evaluator: alert.NewEvaluator(window),
		tracker:   alert.NewTracker(),
		sender:    sender,
		notifier:  notifier,
		publisher: publisher,
		window:    window,
		logger:    logger.Named("alert_service"),
	}
}

// HandleReading evaluates one archived reading. Readings for unknown
// crops are skipped; they usually belong to a crop deleted after the
// reading was produced.
func (s *AlertService) HandleReading(event kafka.CropReadingEvent) error {
	obs, err := parseObservation(event)
	if err != nil {
		s.logger.Warn("Skipping malformed reading event",
			zap.String("crop_id", event.CropID),
			zap.Error(err))
		return nil
	}

	crop, err := s.crops.GetByCropID(event.CropID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Skipping reading for unknown crop",
				zap.String("crop_id", event.CropID))
			return nil
		}
		return err
	}

	now := time.Now()
	result := s.evaluator.Evaluate(crop.Requirements, obs, now)
	transition := s.tracker.Observe(crop.CropID, crop.GrowerUID, result, now)

	if result.Stale {
		s.notifier.NotifyGrower(crop.GrowerUID, EventTypeStale, crop.CropID, readingPayload(event))
		return nil
	}

	switch transition {
	case alert.TransitionAlert:
		s.dispatchAlert(context.Background(), crop, result)
	case alert.TransitionResolve:
		s.announceResolution(crop)
	}
	return nil
}

// dispatchAlert sends the Telegram alert and mirrors it to the UI and
// the alert event stream. Delivery failures are logged and dropped: the
// crop stays in the sent state either way, so a flapping channel does
// not turn into a notification storm.
func (s *AlertService) dispatchAlert(ctx context.Context, crop *models.Crop, result alert.BreachResult) {
	message := notify.FormatAlertMessage(crop, result)

	s.notifier.NotifyGrower(crop.GrowerUID, EventTypeAlert, crop.CropID, map[string]interface{}{
		"message":             message,
		"temperatureBreached": result.TemperatureBreached,
		"phBreached":          result.PHBreached,
		"waterLevelBreached":  result.WaterLevelBreached,
	})

	if err := s.publisher.PublishAlertEvent(kafka.AlertEvent{
		Type:      "alert",
		GrowerUID: crop.GrowerUID,
		CropID:    crop.CropID,
		Message:   message,
	}); err != nil {
		s.logger.Error("Failed to publish alert event",
			zap.String("crop_id", crop.CropID),
			zap.Error(err))
	}

	if err := s.sendTelegram(ctx, crop.GrowerUID, message); err != nil {
		s.logger.Warn("Telegram alert not delivered",
			zap.String("crop_id", crop.CropID),
			zap.String("grower_uid", crop.GrowerUID),
			zap.Error(err))
	}
}

// announceResolution pushes the recovery notice to the UI and the alert
// event stream. Telegram is deliberately left out of the resolution
// path.
func (s *AlertService) announceResolution(crop *models.Crop) {
	message := notify.FormatResolutionMessage(crop)

	s.notifier.NotifyGrower(crop.GrowerUID, EventTypeResolution, crop.CropID, map[string]interface{}{
		"message": message,
	})

	if err := s.publisher.PublishAlertEvent(kafka.AlertEvent{
		Type:      "resolution",
		GrowerUID: crop.GrowerUID,
		CropID:    crop.CropID,
		Message:   message,
	}); err != nil {
		s.logger.Error("Failed to publish resolution event",
			zap.String("crop_id", crop.CropID),
			zap.Error(err))
	}
}

// sendTelegram resolves the grower's chat and delivers a message
func (s *AlertService) sendTelegram(ctx context.Context, growerUID, message string) error {
	grower, err := s.growers.GetByUID(growerUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notify.ErrChannelNotConfigured
		}
		return err
	}
	if !grower.HasTelegramChannel() {
		return notify.ErrChannelNotConfigured
	}
	return s.sender.SendMessage(ctx, grower.TelegramChatID, message)
}

// DispatchRequest is an explicit alert dispatch order, as posted by an
// external monitoring process.
type DispatchRequest struct {
	GrowerUID        string  `json:"uid" binding:"required"`
	CropID           string  `json:"cultivoId" binding:"required"`
	Species          string  `json:"especie"`
	Variety          string  `json:"variedad"`
	Phase            string  `json:"fase"`
	PlantedAt        string  `json:"fechaSiembra"`
	TempAlert        bool    `json:"tempAlert"`
	PHAlert          bool    `json:"phAlert"`
	WaterLevelAlert  bool    `json:"waterLevelAlert"`
	ActualTemp       float64 `json:"actualTemp"`
	ActualPH         float64 `json:"actualPh"`
	ActualWaterLevel float64 `json:"actualWaterLevel"`
}

// Dispatch formats and sends a Telegram alert for an externally
// detected breach. The caller maps the distinguished errors onto its
// own failure modes.
func (s *AlertService) Dispatch(ctx context.Context, req DispatchRequest) error {
	grower, err := s.growers.GetByUID(req.GrowerUID)
	if err != nil {
		return err
	}
	if !grower.HasTelegramChannel() {
		return notify.ErrChannelNotConfigured
	}

	crop, err := s.crops.GetOwned(req.GrowerUID, req.CropID)
	if err != nil {
		return err
	}

	result := alert.BreachResult{
		TemperatureBreached: req.TempAlert,
		PHBreached:          req.PHAlert,
		WaterLevelBreached:  req.WaterLevelAlert,
		Temperature:         req.ActualTemp,
		PH:                  req.ActualPH,
		WaterLevel:          req.ActualWaterLevel,
	}
	if !result.Breached() {
		return fmt.Errorf("%w: no alert flag set", utils.ErrBadRequest)
	}

	message := notify.FormatAlertMessage(crop, result)
	return s.sender.SendMessage(ctx, grower.TelegramChatID, message)
}

// Snapshot returns the tracked alert state of every crop
func (s *AlertService) Snapshot() []alert.State {
	return s.tracker.Snapshot()
}

// State returns the tracked alert state of one crop
func (s *AlertService) State(cropID string) (alert.State, bool) {
	return s.tracker.Get(cropID)
}

// RegisterCrop seeds tracked state for a new crop so the staleness
// sweep covers it before its first reading ever arrives
func (s *AlertService) RegisterCrop(cropID, growerUID string) {
	s.tracker.Seed(cropID, growerUID, time.Now())
}

// RemoveCrop drops the tracked state for a deleted crop
func (s *AlertService) RemoveCrop(cropID string) {
	s.tracker.Remove(cropID)
}

// StartStaleSweeper launches a loop that marks crops stale when no
// fresh reading has arrived inside the recency window. Staleness is a
// distinct condition: it never resolves an outstanding alert.
func (s *AlertService) StartStaleSweeper() {
	ctx, cancel := context.WithCancel(context.Background())
	s.sweepCancel = cancel

	s.sweepWG.Add(1)
	go func() {
		defer s.sweepWG.Done()

		ticker := time.NewTicker(s.window / 2)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepStale(time.Now())
			}
		}
	}()
}

// StopStaleSweeper stops the staleness loop
func (s *AlertService) StopStaleSweeper() {
	if s.sweepCancel != nil {
		s.sweepCancel()
	}
	s.sweepWG.Wait()
}

func (s *AlertService) sweepStale(now time.Time) {
	for _, state := range s.tracker.Snapshot() {
		if state.Stale {
			continue
		}
		if now.Sub(state.UpdatedAt) <= s.window {
			continue
		}
		if s.tracker.MarkStale(state.CropID, now) {
			payload := map[string]interface{}{}
			if state.HasReading {
				payload["lastReading"] = state.UpdatedAt
			}
			s.logger.Info("Crop readings went stale",
				zap.String("crop_id", state.CropID),
				zap.Bool("has_reading", state.HasReading),
				zap.Time("last_reading", state.UpdatedAt))
			s.notifier.NotifyGrower(state.GrowerUID, EventTypeStale, state.CropID, payload)
		}
	}
}

// parseObservation converts a reading event's 2-decimal strings back
// into numeric form
func parseObservation(event kafka.CropReadingEvent) (alert.Observation, error) {
	at, err := time.Parse(time.RFC3339, event.Time)
	if err != nil {
		return alert.Observation{}, fmt.Errorf("invalid reading time %q: %w", event.Time, err)
	}
	temp, err := strconv.ParseFloat(event.Temperature, 64)
	if err != nil {
		return alert.Observation{}, fmt.Errorf("invalid temperature %q: %w", event.Temperature, err)
	}
	ph, err := strconv.ParseFloat(event.PH, 64)
	if err != nil {
		return alert.Observation{}, fmt.Errorf("invalid pH %q: %w", event.PH, err)
	}
	water, err := strconv.ParseFloat(event.WaterLevel, 64)
	if err != nil {
		return alert.Observation{}, fmt.Errorf("invalid water level %q: %w", event.WaterLevel, err)
	}

	return alert.Observation{
		Temperature: temp,
		PH:          ph,
		WaterLevel:  water,
		At:          at,
	}, nil
}

func readingPayload(event kafka.CropReadingEvent) map[string]interface{} {
	return map[string]interface{}{
		"dateTime":    event.Time,
		"temperature": event.Temperature,
		"pH":          event.PH,
		"waterLevel":  event.WaterLevel,
	}
}
