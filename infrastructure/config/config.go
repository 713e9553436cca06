package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StorageDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Storage
	StorageDriver string
	SQLitePath    string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	EventBusName  string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// Logging
	LogLevel string

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Entity locks
	LockWaitTimeout time.Duration
	LockTTL         time.Duration

	// Conversation engine; empty URL means the canned engine
	ChatEngineURL     string
	ChatEngineTimeout time.Duration

	// Economy overrides, YAML
	EconomyConfigFile string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	OTLPEndpoint  string
	EnableCORS    bool
	CORSOrigins   []string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		StorageDriver: getEnv("STORAGE_DRIVER", StorageMemory),
		SQLitePath:    getEnv("SQLITE_PATH", "catnook.db"),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "catnook")),
		EventBusName:  getEnv("EVENT_BUS_NAME", ""),

		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "catnook-backend"),

		LockWaitTimeout: getEnvDuration("LOCK_WAIT_TIMEOUT", 2*time.Second),
		LockTTL:         getEnvDuration("LOCK_TTL", 30*time.Second),

		ChatEngineURL:     getEnv("CHAT_ENGINE_URL", ""),
		ChatEngineTimeout: getEnvDuration("CHAT_ENGINE_TIMEOUT", 10*time.Second),

		EconomyConfigFile: getEnv("ECONOMY_CONFIG_FILE", ""),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		OTLPEndpoint:  getEnv("OTLP_ENDPOINT", ""),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		CORSOrigins:   getEnvList("CORS_ALLOWED_ORIGINS"),
	}

	// Lambda has no local disk worth keeping and no shared memory
	if cfg.LambdaFunctionName != "" {
		cfg.IsLambda = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory, StorageSQLite, StorageDynamoDB:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of memory, sqlite, dynamodb; got %q", c.StorageDriver)
	}
	if c.StorageDriver == StorageSQLite && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
	}
	if c.StorageDriver == StorageDynamoDB && c.DynamoDBTable == "" {
		return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb driver")
	}
	if c.LockWaitTimeout <= 0 || c.LockTTL <= 0 {
		return fmt.Errorf("LOCK_WAIT_TIMEOUT and LOCK_TTL must be positive")
	}
	if c.IsLambda && c.StorageDriver != StorageDynamoDB {
		return fmt.Errorf("lambda deployments need STORAGE_DRIVER=dynamodb")
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.StorageDriver == StorageMemory {
			return fmt.Errorf("memory storage is not allowed in production")
		}
	}
	return nil
}

// DevJWTSecret signs tokens outside production when JWT_SECRET is unset.
// cmd/seed prints tokens signed with it.
const DevJWTSecret = "catnook-dev-secret"

// SigningSecret is the HS256 key tokens are checked against
func (c *Config) SigningSecret() string {
	if c.JWTSecret != "" {
		return c.JWTSecret
	}
	return DevJWTSecret
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
// getEnvList splits a comma-separated variable, dropping empty entries
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("1500ms") or bare milliseconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms := getEnvInt(key, -1); ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
