package services

import (
	"context"
	"fmt"

	"github.com/hidroweb/backend/internal/config"
	"github.com/hidroweb/backend/internal/db"
	"github.com/hidroweb/backend/internal/db/repository"
	"github.com/hidroweb/backend/internal/kafka"
	"github.com/hidroweb/backend/internal/notify"
	"github.com/hidroweb/backend/internal/utils"
	"go.uber.org/zap"
)

// ServiceProvider manages all services for the application
type ServiceProvider struct {
	logger         *utils.Logger
	config         *config.Config
	database       *db.Database
	kafkaManager   *kafka.Manager
	hub            *Hub
	sender         *notify.TelegramSender
	poller         *notify.RegistrationPoller
	ingestService  *IngestService
	alertService   *AlertService
	cropService    *CropService
	readingService *ReadingService
	streamHandler  *StreamHandler
}

// NewServiceProvider creates a new service provider
func NewServiceProvider(
	logger *utils.Logger,
	config *config.Config,
	database *db.Database,
) *ServiceProvider {
	return &ServiceProvider{
		logger:   logger.Named("services"),
		config:   config,
		database: database,
	}
}

// Initialize initializes all services
func (sp *ServiceProvider) Initialize(ctx context.Context) error {
	var err error

	// Initialize Kafka manager
	sp.kafkaManager, err = kafka.NewManager(&sp.config.Kafka, sp.logger)
	if err != nil {
		return fmt.Errorf("failed to create Kafka manager: %w", err)
	}

	// Create repository factory
	repoFactory := repository.NewRepositoryFactory(sp.database.DB)

	// Initialize websocket hub
	sp.hub = NewHub(sp.logger)
	sp.logger.Info("Websocket hub initialized")

	// Initialize Telegram sender
	sp.sender = notify.NewTelegramSender(&sp.config.Telegram, sp.logger)

	// Initialize core services
	sp.ingestService = NewIngestService(repoFactory.Reading(), sp.kafkaManager, sp.logger)
	sp.alertService = NewAlertService(
		repoFactory.Crop(),
		repoFactory.Grower(),
		sp.sender,
		sp.hub,
		sp.kafkaManager,
		sp.config.Alert.RecencyWindow,
		sp.logger,
	)
	sp.cropService = NewCropService(
		repoFactory.Crop(),
		repoFactory.Reading(),
		sp.alertService,
		sp.hub,
		sp.logger,
	)
	sp.readingService = NewReadingService(repoFactory.Reading(), sp.kafkaManager, sp.logger)

	// Wire Kafka topics to the pipelines
	sp.streamHandler = NewStreamHandler(sp.logger, sp.kafkaManager, sp.ingestService, sp.alertService)
	if err = sp.streamHandler.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize stream handler: %w", err)
	}

	// Start Kafka manager
	if err = sp.kafkaManager.Start(); err != nil {
		return fmt.Errorf("failed to start Kafka manager: %w", err)
	}
	sp.logger.Info("Kafka manager started")

	// Start staleness sweeper
	sp.alertService.StartStaleSweeper()

	// Start Telegram registration poller when enabled
	if sp.config.Telegram.PollEnabled {
		sp.poller = notify.NewRegistrationPoller(
			&sp.config.Telegram,
			repoFactory.Grower(),
			sp.sender,
			sp.logger,
		)
		sp.poller.Start()
	}

	sp.logger.Info("All services initialized successfully")
	return nil
}

// Shutdown performs a graceful shutdown of all services
func (sp *ServiceProvider) Shutdown() error {
	sp.logger.Info("Shutting down services")

	if sp.poller != nil {
		sp.poller.Stop()
	}

	if sp.alertService != nil {
		sp.alertService.StopStaleSweeper()
	}

	if sp.kafkaManager != nil && sp.kafkaManager.IsRunning() {
		sp.logger.Info("Stopping Kafka manager")
		if err := sp.kafkaManager.Stop(); err != nil {
			sp.logger.Error("Failed to stop Kafka manager", zap.Error(err))
		}
	}

	sp.logger.Info("Services shut down successfully")
	return nil
}

// GetKafkaManager returns the Kafka manager
func (sp *ServiceProvider) GetKafkaManager() *kafka.Manager {
	return sp.kafkaManager
}

// GetHub returns the websocket hub
func (sp *ServiceProvider) GetHub() *Hub {
	return sp.hub
}

// GetAlertService returns the alert service
func (sp *ServiceProvider) GetAlertService() *AlertService {
	return sp.alertService
}

// GetCropService returns the crop service
func (sp *ServiceProvider) GetCropService() *CropService {
	return sp.cropService
}

// GetReadingService returns the reading service
func (sp *ServiceProvider) GetReadingService() *ReadingService {
	return sp.readingService
}
