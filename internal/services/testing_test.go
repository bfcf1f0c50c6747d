package services_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/hidroweb/backend/internal/db/models"
	"github.com/hidroweb/backend/internal/kafka"
	"github.com/hidroweb/backend/internal/services"
	"github.com/hidroweb/backend/internal/utils"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB creates an isolated in-memory SQLite database with the
// application schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "Failed to create in-memory database")

	err = gormDB.AutoMigrate(
		&models.Grower{},
		&models.Crop{},
		&models.InboxReading{},
		&models.ArchivedReading{},
	)
	require.NoError(t, err, "Failed to migrate test schema")

	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	return gormDB
}

func newTestLogger() *utils.Logger {
	return &utils.Logger{Logger: zap.NewNop()}
}

// fakePublisher records produced Kafka events
type fakePublisher struct {
	mu            sync.Mutex
	inboxEvents   []string
	cropReadings  []kafka.CropReadingEvent
	alertEvents   []kafka.AlertEvent
	publishErr    error
}

func (f *fakePublisher) PublishInboxEvent(docID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.inboxEvents = append(f.inboxEvents, docID)
	return nil
}

func (f *fakePublisher) PublishCropReading(event kafka.CropReadingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.cropReadings = append(f.cropReadings, event)
	return nil
}

func (f *fakePublisher) PublishAlertEvent(event kafka.AlertEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.alertEvents = append(f.alertEvents, event)
	return nil
}

func (f *fakePublisher) CropReadings() []kafka.CropReadingEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]kafka.CropReadingEvent(nil), f.cropReadings...)
}

func (f *fakePublisher) AlertEvents() []kafka.AlertEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]kafka.AlertEvent(nil), f.alertEvents...)
}

// fakeNotifier records hub events
type notifierEvent struct {
	GrowerUID string
	Type      services.EventType
	CropID    string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notifierEvent
}

func (f *fakeNotifier) NotifyGrower(growerUID string, eventType services.EventType, cropID string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, notifierEvent{GrowerUID: growerUID, Type: eventType, CropID: cropID})
}

func (f *fakeNotifier) Events() []notifierEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notifierEvent(nil), f.events...)
}
