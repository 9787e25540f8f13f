package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Storage  StorageConfig  `json:"storage"`
	Auth     AuthConfig     `json:"auth"`
	Events   EventsConfig   `json:"events"`
	Workers  WorkersConfig  `json:"workers"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	AllowedOrigins  []string      `json:"allowed_origins"`
	MaxUploadMB     int64         `json:"max_upload_mb"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
	AutoMigrate    bool          `json:"auto_migrate"`
}

// StorageConfig points at the S3-compatible bucket holding record folders.
type StorageConfig struct {
	Bucket          string        `json:"bucket"`
	Region          string        `json:"region"`
	Endpoint        string        `json:"endpoint"`
	AccessKeyID     string        `json:"access_key_id"`
	SecretAccessKey string        `json:"secret_access_key"`
	UsePathStyle    bool          `json:"use_path_style"`
	RootPrefix      string        `json:"root_prefix"`
	LinkExpiry      time.Duration `json:"link_expiry"`
	BreakerTimeout  time.Duration `json:"breaker_timeout"`
	BreakerFailures uint32        `json:"breaker_failures"`
}

type AuthConfig struct {
	JWTSecret string        `json:"jwt_secret"`
	Issuer    string        `json:"issuer"`
	TokenTTL  time.Duration `json:"token_ttl"`
}

// EventsConfig enables status change publishing when TopicARN is set.
type EventsConfig struct {
	TopicARN string `json:"topic_arn"`
	Region   string `json:"region"`
}

type WorkersConfig struct {
	FolderRetrySchedule string        `json:"folder_retry_schedule"`
	BatchSize           int           `json:"batch_size"`
	MaxConcurrent       int           `json:"max_concurrent"`
	JobTimeout          time.Duration `json:"job_timeout"`
}

// LoggingConfig
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
			MaxUploadMB:     200,
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           os.Getenv("USER"),
			DBName:         "drone_ops",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
			MaxLifetime:    30 * time.Minute,
			AutoMigrate:    true,
		},
		Storage: StorageConfig{
			Bucket:          "drone-ops",
			Region:          "us-east-1",
			RootPrefix:      "projects",
			LinkExpiry:      15 * time.Minute,
			BreakerTimeout:  30 * time.Second,
			BreakerFailures: 5,
		},
		Auth: AuthConfig{
			Issuer:   "drone-ops-manager",
			TokenTTL: 12 * time.Hour,
		},
		Workers: WorkersConfig{
			FolderRetrySchedule: "0 */5 * * * *",
			BatchSize:           50,
			MaxConcurrent:       4,
			JobTimeout:          2 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	overrideWithEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports settings the services cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (JWT_SECRET) is required")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket (STORAGE_BUCKET) is required")
	}
	if c.Workers.MaxConcurrent <= 0 {
		return fmt.Errorf("workers.max_concurrent must be positive")
	}
	return nil
}

func overrideWithEnv(config *Config) {
	setString(&config.Server.Host, "SERVER_HOST")
	setInt(&config.Server.Port, "SERVER_PORT")
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	setString(&config.Database.Host, "DATABASE_HOST")
	setInt(&config.Database.Port, "DATABASE_PORT")
	setString(&config.Database.User, "DATABASE_USER")
	setString(&config.Database.Password, "DATABASE_PASSWORD")
	setString(&config.Database.DBName, "DATABASE_DBNAME")
	setString(&config.Database.SSLMode, "DATABASE_SSLMODE")
	setBool(&config.Database.AutoMigrate, "DATABASE_AUTO_MIGRATE")

	setString(&config.Storage.Bucket, "STORAGE_BUCKET")
	setString(&config.Storage.Region, "STORAGE_REGION")
	setString(&config.Storage.Endpoint, "STORAGE_ENDPOINT")
	setString(&config.Storage.AccessKeyID, "STORAGE_ACCESS_KEY_ID")
	setString(&config.Storage.SecretAccessKey, "STORAGE_SECRET_ACCESS_KEY")
	setBool(&config.Storage.UsePathStyle, "STORAGE_USE_PATH_STYLE")
	setString(&config.Storage.RootPrefix, "STORAGE_ROOT_PREFIX")
	setDuration(&config.Storage.LinkExpiry, "STORAGE_LINK_EXPIRY")

	setString(&config.Auth.JWTSecret, "JWT_SECRET")
	setString(&config.Auth.Issuer, "JWT_ISSUER")
	setDuration(&config.Auth.TokenTTL, "JWT_TTL")

	setString(&config.Events.TopicARN, "EVENTS_TOPIC_ARN")
	setString(&config.Events.Region, "EVENTS_REGION")

	setString(&config.Workers.FolderRetrySchedule, "FOLDER_RETRY_SCHEDULE")
	setInt(&config.Workers.BatchSize, "WORKER_BATCH_SIZE")
	setInt(&config.Workers.MaxConcurrent, "WORKER_MAX_CONCURRENT")

	setString(&config.Logging.Level, "LOG_LEVEL")
	setString(&config.Logging.Format, "LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
