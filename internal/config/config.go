package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Alert    AlertConfig    `mapstructure:"alert"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
	Environment  string `mapstructure:"environment"`
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers        string `mapstructure:"brokers"`
	ConsumerGroup  string `mapstructure:"consumer_group"`
	SecurityEnable bool   `mapstructure:"security_enable"`
	SecurityUser   string `mapstructure:"security_user"`
	SecurityPass   string `mapstructure:"security_pass"`
}

// TelegramConfig holds the Telegram Bot API configuration
type TelegramConfig struct {
	BotToken     string `mapstructure:"bot_token"`
	APIBaseURL   string `mapstructure:"api_base_url"`
	Timeout      int    `mapstructure:"timeout"`
	PollInterval int    `mapstructure:"poll_interval"`
	PollEnabled  bool   `mapstructure:"poll_enabled"`
}

// AlertConfig holds the alert evaluation configuration
type AlertConfig struct {
	// RecencyWindow is how old a reading may be before it is treated as
	// stale instead of as a fresh breach or resolution.
	RecencyWindow time.Duration `mapstructure:"recency_window"`
}

// JWTConfig holds JWT authentication configuration
type JWTConfig struct {
	Secret          string `mapstructure:"secret"`
	ExpirationHours int    `mapstructure:"expiration_hours"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// LoadConfig loads the application configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	var config Config

	// Set default configuration file path if not provided
	if configPath == "" {
		configPath = "./config"
	}

	// Initialize Viper
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	// Set environment variable prefix for overrides
	v.SetEnvPrefix("HIDROWEB")

	// Set environment variable separator for nested structs
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read configuration from file
	if err := v.ReadInConfig(); err != nil {
		// If the configuration file is not found, that's fine, we'll use defaults and env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	// Set up environment variable binding
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Unmarshal configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 15)  // seconds
	v.SetDefault("server.write_timeout", 15) // seconds
	v.SetDefault("server.idle_timeout", 60)  // seconds
	v.SetDefault("server.environment", "development")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "hidroweb")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")

	// Kafka defaults
	v.SetDefault("kafka.brokers", "kafka:9092")
	v.SetDefault("kafka.consumer_group", "hidroweb")
	v.SetDefault("kafka.security_enable", false)

	// Telegram defaults
	v.SetDefault("telegram.api_base_url", "https://api.telegram.org")
	v.SetDefault("telegram.timeout", 10)      // seconds
	v.SetDefault("telegram.poll_interval", 2) // seconds
	v.SetDefault("telegram.poll_enabled", false)

	// Alert defaults
	v.SetDefault("alert.recency_window", 5*time.Minute)

	// JWT defaults
	v.SetDefault("jwt.expiration_hours", 24)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "stdout")
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.JWT.Secret == "" {
		// In development mode, set a default secret
		if config.Server.Environment == "development" {
			config.JWT.Secret = "development-jwt-secret-key-change-in-production"
		} else {
			return fmt.Errorf("JWT secret is required in non-development environments")
		}
	}

	if config.Telegram.PollEnabled && config.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is required when chat registration polling is enabled")
	}

	if config.Alert.RecencyWindow <= 0 {
		return fmt.Errorf("alert recency window must be positive")
	}

	// Validate database password is set
	if config.Database.Password == "" {
		// Check if it's available in environment variable
		dbPassword := os.Getenv("HIDROWEB_DATABASE_PASSWORD")
		if dbPassword == "" {
			if config.Server.Environment != "development" {
				return fmt.Errorf("database password is required in non-development environments")
			}
		} else {
			config.Database.Password = dbPassword
		}
	}

	return nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode, c.TimeZone)
}

// IsProduction returns true if the environment is production
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if the environment is development
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsTest returns true if the environment is test
func (c *ServerConfig) IsTest() bool {
	return c.Environment == "test"
}
