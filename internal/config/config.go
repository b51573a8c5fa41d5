package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported backends.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverDynamoDB = "dynamodb"
	DriverSQLite   = "sqlite"

	StorageS3  = "s3"
	StorageGCS = "gcs"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	S3       S3Config       `mapstructure:"s3"`
	GCS      GCSConfig      `mapstructure:"gcs"`
	Expiry   ExpiryConfig   `mapstructure:"expiry"`
	QR       QRConfig       `mapstructure:"qr"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	// PublicURL is the origin used in share links. Derived from the request when empty.
	PublicURL string `mapstructure:"public_url"`
	Mode      string `mapstructure:"mode"` // gin mode: debug, release, test
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// DatabaseConfig selects and configures the metadata store.
// Not every field applies to every driver.
type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	URI        string `mapstructure:"uri"`        // mongo
	Name       string `mapstructure:"name"`       // mongo database name
	Collection string `mapstructure:"collection"` // mongo collection
	DSN        string `mapstructure:"dsn"`        // postgres / sqlite
	Table      string `mapstructure:"table"`      // dynamodb
	Region     string `mapstructure:"region"`     // dynamodb
	Endpoint   string `mapstructure:"endpoint"`   // dynamodb (localstack etc.)
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

type GCSConfig struct {
	BucketName string `mapstructure:"bucket_name"`
}

// ExpiryConfig defines the lifecycle of shared files.
type ExpiryConfig struct {
	TTL          time.Duration `mapstructure:"ttl"`
	SignedURLTTL time.Duration `mapstructure:"signed_url_ttl"`
	// SweepInterval enables the background sweeper when > 0.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	SweepBatch    int           `mapstructure:"sweep_batch"`
}

type QRConfig struct {
	Size      int `mapstructure:"size"`
	CacheSize int `mapstructure:"cache_size"`
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in the working directory, if any, is loaded into the environment first.
func LoadConfig(path string) (config Config, err error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, expiry.ttl -> EXPIRY_TTL
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return config, fmt.Errorf("read config: %w", err)
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("unmarshal config: %w", err)
	}

	if err = config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.public_url", "")
	v.SetDefault("server.mode", "release")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "anyshare")
	v.SetDefault("database.collection", "files")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.table", "files")
	v.SetDefault("database.region", "us-east-1")
	v.SetDefault("database.endpoint", "")

	v.SetDefault("storage.driver", StorageS3)

	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "file-share")
	v.SetDefault("s3.use_ssl", true)

	v.SetDefault("gcs.bucket_name", "file-share")

	v.SetDefault("expiry.ttl", "10m")
	v.SetDefault("expiry.signed_url_ttl", "60s")
	v.SetDefault("expiry.sweep_interval", "0s")
	v.SetDefault("expiry.sweep_batch", 100)

	v.SetDefault("qr.size", 256)
	v.SetDefault("qr.cache_size", 1024)
}

// Validate checks values that viper cannot check by itself.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverMongo, DriverDynamoDB:
	case DriverPostgres, DriverSQLite:
		// go-sqlite3 silently opens a temporary database for an empty DSN.
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required for the %s driver", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case StorageS3, StorageGCS:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Expiry.TTL <= 0 {
		return errors.New("expiry.ttl must be positive")
	}
	if c.Expiry.SignedURLTTL <= 0 {
		return errors.New("expiry.signed_url_ttl must be positive")
	}
	if c.Expiry.SweepInterval < 0 {
		return errors.New("expiry.sweep_interval must not be negative")
	}
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("unknown server mode %q", c.Server.Mode)
	}
	if c.QR.Size <= 0 {
		return errors.New("qr.size must be positive")
	}
	if _, err := parseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(cfg LogConfig) *slog.Logger {
	level, _ := parseLogLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q, allowed: debug, info, warn, error", level)
	}
}
