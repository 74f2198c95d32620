package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted in STORAGE_DRIVER
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Port          string
	GoEnv         string
	StorageDriver string
	DatabaseURL   string

	AdminPassword string
	JWTSecret     string
	TokenIssuer   string
	TokenAudience string
	TokenTTL      time.Duration

	CORSAllowedOrigins []string

	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	UploadDir          string

	AMQPURL      string
	AMQPExchange string

	RetentionDays     int
	HousekeepingHour  int
	PopularWindowDays int

	LogLevel  string
	LogFormat string
}

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// If environment-specific file doesn't exist, try .env
		if err := godotenv.Load(); err != nil {
			// In production environment variables are set directly
			// so it's okay if .env files don't exist
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	goEnv := getEnv("GO_ENV", "development")
	config := &Config{
		Port:          getEnv("PORT", "8080"),
		GoEnv:         goEnv,
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", DriverMemory)),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenIssuer:   getEnv("TOKEN_ISSUER", "restaurant-pos"),
		TokenAudience: getEnv("TOKEN_AUDIENCE", "restaurant-pos-admin"),
		TokenTTL:      getDuration("TOKEN_TTL", 12*time.Hour),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "pos.orders"),

		RetentionDays:     getInt("RETENTION_DAYS", 30),
		HousekeepingHour:  getInt("HOUSEKEEPING_HOUR", 3),
		PopularWindowDays: getInt("POPULAR_WINDOW_DAYS", 7),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Local development gets a usable admin login out of the box
	if !config.IsProduction() {
		if config.AdminPassword == "" {
			config.AdminPassword = "admin"
		}
		if config.JWTSecret == "" {
			config.JWTSecret = "dev-only-secret"
		}
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for STORAGE_DRIVER=%s", c.StorageDriver)
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of memory, sqlite, postgres (got %q)", c.StorageDriver)
	}
	if c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	// yesterday must still be whole when the nightly run summarizes it
	if c.RetentionDays < 2 {
		return fmt.Errorf("RETENTION_DAYS must be at least 2")
	}
	if c.HousekeepingHour < 0 || c.HousekeepingHour > 23 {
		return fmt.Errorf("HOUSEKEEPING_HOUR must be between 0 and 23")
	}
	if c.PopularWindowDays < 1 {
		return fmt.Errorf("POPULAR_WINDOW_DAYS must be at least 1")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// S3Enabled reports whether menu images go to S3 rather than local disk
func (c *Config) S3Enabled() bool {
	return c.AWSS3Bucket != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Ignoring invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Ignoring invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
