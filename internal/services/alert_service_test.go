package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hidroweb/backend/internal/db/models"
	"github.com/hidroweb/backend/internal/db/repository"
	"github.com/hidroweb/backend/internal/kafka"
	"github.com/hidroweb/backend/internal/notify"
	"github.com/hidroweb/backend/internal/services"
	"github.com/hidroweb/backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentMessage struct {
	ChatID int64
	Text   string
}

// fakeSender records Telegram deliveries
type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	sendErr error
}

func (f *fakeSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeSender) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type alertFixture struct {
	service   *services.AlertService
	sender    *fakeSender
	notifier  *fakeNotifier
	publisher *fakePublisher
	db        *gorm.DB
}

func newAlertFixture(t *testing.T) *alertFixture {
	t.Helper()

	db := newTestDB(t)
	sender := &fakeSender{}
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}

	service := services.NewAlertService(
		repository.NewCropRepository(db),
		repository.NewGrowerRepository(db),
		sender,
		notifier,
		publisher,
		5*time.Minute,
		newTestLogger(),
	)

	require.NoError(t, db.Create(&models.Grower{
		UID:            "uid-1",
		Email:          "ana@example.com",
		Name:           "Ana",
		TelegramChatID: 42,
	}).Error)

	require.NoError(t, db.Create(&models.Crop{
		CropID:    "crop-1",
		GrowerUID: "uid-1",
		Species:   "Lechuga",
		Variety:   "Lollo Rossa",
		Phase:     "Crecimiento",
		Requirements: models.Requirements{
			Temperature: &models.Range{Min: 18, Max: 24},
			PH:          &models.Range{Min: 5.5, Max: 6.5},
			WaterLevel:  "Mantener un flujo continuo",
		},
	}).Error)

	return &alertFixture{
		service:   service,
		sender:    sender,
		notifier:  notifier,
		publisher: publisher,
		db:        db,
	}
}

func readingEvent(temp, ph, water string, at time.Time) kafka.CropReadingEvent {
	return kafka.CropReadingEvent{
		GrowerUID:   "uid-1",
		CropID:      "crop-1",
		SensorID:    "sensor123",
		Time:        at.Format(time.RFC3339),
		PH:          ph,
		Temperature: temp,
		WaterLevel:  water,
	}
}

func countByType(events []notifierEvent, eventType services.EventType) int {
	n := 0
	for _, e := range events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func TestAlertService_HandleReading(t *testing.T) {
	t.Run("Should dispatch one alert for a sustained breach", func(t *testing.T) {
		fx := newAlertFixture(t)
		now := time.Now()

		require.NoError(t, fx.service.HandleReading(readingEvent("27.00", "6.80", "1.00", now)))
		require.NoError(t, fx.service.HandleReading(readingEvent("27.10", "6.85", "1.00", now)))
		require.NoError(t, fx.service.HandleReading(readingEvent("27.20", "6.90", "1.00", now)))

		sent := fx.sender.Sent()
		require.Len(t, sent, 1, "repeat breaches must not re-notify")
		assert.Equal(t, int64(42), sent[0].ChatID)
		assert.Contains(t, sent[0].Text, "🚨")
		assert.Contains(t, sent[0].Text, "🔥")
		assert.Contains(t, sent[0].Text, "⚗️")

		assert.Equal(t, 1, countByType(fx.notifier.Events(), services.EventTypeAlert))
		require.Len(t, fx.publisher.AlertEvents(), 1)
		assert.Equal(t, "alert", fx.publisher.AlertEvents()[0].Type)
	})

	t.Run("Should emit exactly one resolution and no Telegram message", func(t *testing.T) {
		fx := newAlertFixture(t)
		now := time.Now()

		require.NoError(t, fx.service.HandleReading(readingEvent("27.00", "6.00", "1.00", now)))
		require.NoError(t, fx.service.HandleReading(readingEvent("20.00", "6.00", "1.00", now)))
		require.NoError(t, fx.service.HandleReading(readingEvent("20.00", "6.00", "1.00", now)))

		assert.Len(t, fx.sender.Sent(), 1, "resolutions never go to Telegram")
		assert.Equal(t, 1, countByType(fx.notifier.Events(), services.EventTypeResolution))

		events := fx.publisher.AlertEvents()
		require.Len(t, events, 2)
		assert.Equal(t, "resolution", events[1].Type)

		state, ok := fx.service.State("crop-1")
		require.True(t, ok)
		assert.False(t, state.Sent)
	})

	t.Run("Should alert again after a recovery", func(t *testing.T) {
		fx := newAlertFixture(t)
		now := time.Now()

		require.NoError(t, fx.service.HandleReading(readingEvent("27.00", "6.00", "1.00", now)))
		require.NoError(t, fx.service.HandleReading(readingEvent("20.00", "6.00", "1.00", now)))
		require.NoError(t, fx.service.HandleReading(readingEvent("27.00", "6.00", "1.00", now)))

		assert.Len(t, fx.sender.Sent(), 2)
	})

	t.Run("Should alert on an empty tank", func(t *testing.T) {
		fx := newAlertFixture(t)

		require.NoError(t, fx.service.HandleReading(readingEvent("20.00", "6.00", "0.00", time.Now())))

		sent := fx.sender.Sent()
		require.Len(t, sent, 1)
		assert.Contains(t, sent[0].Text, "💧")
		assert.NotContains(t, sent[0].Text, "🔥")
	})

	t.Run("Should keep the sent state when the channel is not configured", func(t *testing.T) {
		fx := newAlertFixture(t)
		require.NoError(t, fx.db.Model(&models.Grower{}).
			Where("uid = ?", "uid-1").
			Update("telegram_chat_id", 0).Error)

		require.NoError(t, fx.service.HandleReading(readingEvent("27.00", "6.00", "1.00", time.Now())))

		assert.Empty(t, fx.sender.Sent())

		// The crop still counts as notified, the breach is not retried
		state, ok := fx.service.State("crop-1")
		require.True(t, ok)
		assert.True(t, state.Sent)

		// UI and event stream still carry the alert
		assert.Equal(t, 1, countByType(fx.notifier.Events(), services.EventTypeAlert))
		assert.Len(t, fx.publisher.AlertEvents(), 1)
	})

	t.Run("Should treat old readings as stale without touching alerts", func(t *testing.T) {
		fx := newAlertFixture(t)
		now := time.Now()

		// Outstanding alert first
		require.NoError(t, fx.service.HandleReading(readingEvent("27.00", "6.00", "1.00", now)))

		// An old healthy reading arrives late
		require.NoError(t, fx.service.HandleReading(readingEvent("20.00", "6.00", "1.00", now.Add(-10*time.Minute))))

		assert.Len(t, fx.sender.Sent(), 1)
		assert.Equal(t, 0, countByType(fx.notifier.Events(), services.EventTypeResolution))
		assert.Equal(t, 1, countByType(fx.notifier.Events(), services.EventTypeStale))

		state, ok := fx.service.State("crop-1")
		require.True(t, ok)
		assert.True(t, state.Sent, "stale data must not resolve an alert")
		assert.True(t, state.Stale)
	})

	t.Run("Should skip readings for unknown crops", func(t *testing.T) {
		fx := newAlertFixture(t)

		event := readingEvent("27.00", "6.00", "1.00", time.Now())
		event.CropID = "crop-ghost"

		require.NoError(t, fx.service.HandleReading(event))
		assert.Empty(t, fx.sender.Sent())
	})

	t.Run("Should skip malformed reading events", func(t *testing.T) {
		fx := newAlertFixture(t)

		event := readingEvent("not-a-number", "6.00", "1.00", time.Now())
		require.NoError(t, fx.service.HandleReading(event))
		assert.Empty(t, fx.sender.Sent())
	})
}

func TestAlertService_Dispatch(t *testing.T) {
	t.Run("Should deliver an explicit alert", func(t *testing.T) {
		fx := newAlertFixture(t)

		err := fx.service.Dispatch(context.Background(), services.DispatchRequest{
			GrowerUID:  "uid-1",
			CropID:     "crop-1",
			TempAlert:  true,
			ActualTemp: 27,
		})
		require.NoError(t, err)

		sent := fx.sender.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, int64(42), sent[0].ChatID)
		assert.Contains(t, sent[0].Text, "🔥")
	})

	t.Run("Should fail for an unknown grower", func(t *testing.T) {
		fx := newAlertFixture(t)

		err := fx.service.Dispatch(context.Background(), services.DispatchRequest{
			GrowerUID: "uid-ghost",
			CropID:    "crop-1",
			TempAlert: true,
		})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Should fail for a crop the grower does not own", func(t *testing.T) {
		fx := newAlertFixture(t)

		err := fx.service.Dispatch(context.Background(), services.DispatchRequest{
			GrowerUID: "uid-1",
			CropID:    "crop-ghost",
			TempAlert: true,
		})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Should fail when the channel is not configured", func(t *testing.T) {
		fx := newAlertFixture(t)
		require.NoError(t, fx.db.Model(&models.Grower{}).
			Where("uid = ?", "uid-1").
			Update("telegram_chat_id", 0).Error)

		err := fx.service.Dispatch(context.Background(), services.DispatchRequest{
			GrowerUID: "uid-1",
			CropID:    "crop-1",
			TempAlert: true,
		})
		assert.ErrorIs(t, err, notify.ErrChannelNotConfigured)
	})

	t.Run("Should reject a request without any alert flag", func(t *testing.T) {
		fx := newAlertFixture(t)

		err := fx.service.Dispatch(context.Background(), services.DispatchRequest{
			GrowerUID: "uid-1",
			CropID:    "crop-1",
		})
		assert.ErrorIs(t, err, utils.ErrBadRequest)
	})

	t.Run("Should surface delivery failures", func(t *testing.T) {
		fx := newAlertFixture(t)
		fx.sender.sendErr = notify.ErrDeliveryFailed

		err := fx.service.Dispatch(context.Background(), services.DispatchRequest{
			GrowerUID: "uid-1",
			CropID:    "crop-1",
			TempAlert: true,
		})
		assert.ErrorIs(t, err, notify.ErrDeliveryFailed)
	})
}

func TestAlertService_Snapshot(t *testing.T) {
	fx := newAlertFixture(t)
	now := time.Now()

	require.NoError(t, fx.service.HandleReading(readingEvent("27.00", "6.00", "1.00", now)))

	states := fx.service.Snapshot()
	require.Len(t, states, 1)
	assert.Equal(t, "crop-1", states[0].CropID)
	assert.True(t, states[0].Sent)
	assert.True(t, states[0].Result.TemperatureBreached)

	fx.service.RemoveCrop("crop-1")
	assert.Empty(t, fx.service.Snapshot())
}

func TestAlertService_StaleSweeper(t *testing.T) {
	t.Run("Should flag a crop whose sensor never reports", func(t *testing.T) {
		db := newTestDB(t)
		notifier := &fakeNotifier{}
		service := services.NewAlertService(
			repository.NewCropRepository(db),
			repository.NewGrowerRepository(db),
			&fakeSender{},
			notifier,
			&fakePublisher{},
			40*time.Millisecond,
			newTestLogger(),
		)

		service.RegisterCrop("crop-1", "uid-1")
		service.StartStaleSweeper()
		defer service.StopStaleSweeper()

		assert.Eventually(t, func() bool {
			state, ok := service.State("crop-1")
			return ok && state.Stale
		}, 2*time.Second, 10*time.Millisecond, "seeded crop was never flagged stale")

		assert.Equal(t, 1, countByType(notifier.Events(), services.EventTypeStale))
	})
}
