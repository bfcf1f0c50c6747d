package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/hidroweb/backend/internal/config"
	"github.com/hidroweb/backend/internal/utils"
	"go.uber.org/zap"
)

// Topic constants for the application
const (
	// TopicSensorInbox carries one event per raw reading deposited in
	// the sensor inbox.
	TopicSensorInbox = "sensor-inbox"
	// TopicCropReadings carries one event per archived reading, keyed
	// by crop id so one crop's readings stay in arrival order.
	TopicCropReadings = "crop-readings"
	// TopicAlertEvents carries alert and resolution events for
	// surrounding infrastructure.
	TopicAlertEvents = "alert-events"
)

// InboxEvent signals that a raw reading has been added to the inbox
type InboxEvent struct {
	DocID     string `json:"docId"`
	Timestamp string `json:"timestamp"`
}

// CropReadingEvent is an archived reading flowing to the alert evaluator
type CropReadingEvent struct {
	GrowerUID   string `json:"userId"`
	CropID      string `json:"cultivoId"`
	SensorID    string `json:"sensorId"`
	Time        string `json:"dateTime"` // RFC3339
	PH          string `json:"pH"`
	Temperature string `json:"temperature"`
	WaterLevel  string `json:"waterLevel"`
}

// AlertEvent is an alert lifecycle event published for downstream consumers
type AlertEvent struct {
	Type      string `json:"type"` // "alert", "resolution"
	GrowerUID string `json:"userId"`
	CropID    string `json:"cultivoId"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Manager coordinates Kafka producers and consumers
type Manager struct {
	config         *config.KafkaConfig
	logger         *utils.Logger
	mainProducer   *Producer
	dlqProducer    *Producer
	consumers      map[string]*Consumer
	consumerCtx    context.Context
	consumerCancel context.CancelFunc
	mu             sync.Mutex
	isRunning      bool
}

// NewManager creates a new Kafka manager
func NewManager(cfg *config.KafkaConfig, logger *utils.Logger) (*Manager, error) {
	kafkaLogger := logger.Named("kafka_manager")

	// Create main producer
	mainProducer, err := NewProducer(cfg, kafkaLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create main producer: %w", err)
	}

	// Create DLQ producer
	dlqProducer, err := NewProducer(cfg, kafkaLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create DLQ producer: %w", err)
	}

	// Create context for consumers
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:         cfg,
		logger:         kafkaLogger,
		mainProducer:   mainProducer,
		dlqProducer:    dlqProducer,
		consumers:      make(map[string]*Consumer),
		consumerCtx:    ctx,
		consumerCancel: cancel,
		isRunning:      false,
	}, nil
}

// Start initializes and starts all registered consumers
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return fmt.Errorf("kafka manager is already running")
	}

	for name, consumer := range m.consumers {
		m.logger.Info("Starting consumer", zap.String("name", name))
		if err := consumer.Start(m.consumerCtx); err != nil {
			m.logger.Error("Failed to start consumer",
				zap.String("name", name),
				zap.Error(err))
			m.stopAllConsumers()
			return fmt.Errorf("failed to start consumer %s: %w", name, err)
		}
	}

	m.isRunning = true
	m.logger.Info("Kafka manager started")
	return nil
}

// AddConsumer creates and registers a consumer with specific handlers
func (m *Manager) AddConsumer(name string, handlers map[string][]MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return fmt.Errorf("cannot add consumer while manager is running")
	}

	if _, exists := m.consumers[name]; exists {
		return fmt.Errorf("consumer with name %s already exists", name)
	}

	consumer, err := NewConsumer(m.config, m.logger, m.dlqProducer)
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", name, err)
	}

	for topic, topicHandlers := range handlers {
		for _, handler := range topicHandlers {
			consumer.RegisterHandler(topic, handler)
		}
	}

	m.consumers[name] = consumer
	m.logger.Info("Added consumer", zap.String("name", name))

	return nil
}

// ProduceMessage sends a message to the specified topic
func (m *Manager) ProduceMessage(topic string, key string, value interface{}) error {
	message := &Message{
		Key:       key,
		Value:     value,
		Timestamp: time.Now(),
	}

	return m.mainProducer.Produce(topic, message)
}

// PublishInboxEvent publishes an inbox-addition event
func (m *Manager) PublishInboxEvent(docID string) error {
	event := InboxEvent{
		DocID:     docID,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	return m.ProduceMessage(TopicSensorInbox, docID, event)
}

// PublishCropReading publishes an archived-reading event keyed by crop id
func (m *Manager) PublishCropReading(event CropReadingEvent) error {
	return m.ProduceMessage(TopicCropReadings, event.CropID, event)
}

// PublishAlertEvent publishes an alert lifecycle event keyed by crop id
func (m *Manager) PublishAlertEvent(event AlertEvent) error {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().Format(time.RFC3339)
	}
	return m.ProduceMessage(TopicAlertEvents, event.CropID, event)
}

// RegisterInboxHandler registers a handler for inbox-addition events
func (m *Manager) RegisterInboxHandler(name string, handler func(docID string) error) error {
	msgHandler := func(msg *kafka.Message) error {
		var event InboxEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal inbox event: %w", err)
		}

		return handler(event.DocID)
	}

	return m.AddConsumer(
		fmt.Sprintf("%s-sensor-inbox", name),
		map[string][]MessageHandler{
			TopicSensorInbox: {msgHandler},
		},
	)
}

// RegisterCropReadingHandler registers a handler for archived-reading events
func (m *Manager) RegisterCropReadingHandler(name string, handler func(event CropReadingEvent) error) error {
	msgHandler := func(msg *kafka.Message) error {
		var event CropReadingEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal crop reading event: %w", err)
		}

		return handler(event)
	}

	return m.AddConsumer(
		fmt.Sprintf("%s-crop-readings", name),
		map[string][]MessageHandler{
			TopicCropReadings: {msgHandler},
		},
	)
}

// stopAllConsumers stops all consumers
func (m *Manager) stopAllConsumers() {
	for name, consumer := range m.consumers {
		m.logger.Info("Stopping consumer", zap.String("name", name))
		consumer.Stop()
	}
}

// Stop stops the Kafka manager and all consumers
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		return fmt.Errorf("kafka manager is not running")
	}

	// Cancel consumer context
	m.consumerCancel()

	// Stop all consumers
	m.stopAllConsumers()

	// Flush and close producers
	m.mainProducer.Flush(5000)
	m.mainProducer.Close()
	m.dlqProducer.Flush(5000)
	m.dlqProducer.Close()

	m.isRunning = false
	m.logger.Info("Kafka manager stopped")
	return nil
}

// IsRunning returns whether the Kafka manager is running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isRunning
}
