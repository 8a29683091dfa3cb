// ============================================================================
// backend/internal/shared/config.go
// Shared configuration management and environment variable helpers
// ============================================================================

package shared

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ============================================================================
// Configuration Structs
// ============================================================================

// Record store drivers selectable through RECORD_STORE_DRIVER
const (
	DriverMongo     = "mongo"
	DriverFirestore = "firestore"
	DriverRedis     = "redis"
	DriverMemory    = "memory"
)

// ServiceConfig holds common configuration for all services
type ServiceConfig struct {
	ServiceName string
	ServicePort string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error

	// StoreDriver selects the record store backend (mongo, firestore, redis, memory)
	StoreDriver string
	// RosterFile seeds the in-memory roster directory used with the redis and memory drivers
	RosterFile string

	MongoDB   MongoConfig
	Firestore FirestoreConfig
	Redis     RedisConfig
	GRPC      GRPCConfig
	Session   SessionConfig
}

// FirestoreConfig holds Firebase/Firestore connection configuration
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
	CredentialsJSON string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// GRPCConfig holds gRPC-specific configuration
type GRPCConfig struct {
	MaxRecvMsgSize    int // Maximum receive message size in bytes
	MaxSendMsgSize    int // Maximum send message size in bytes
	ConnectionTimeout time.Duration
	RequestTimeout    time.Duration
}

// SessionConfig controls grading edit sessions
type SessionConfig struct {
	IdleTimeout time.Duration
}

// GatewayConfig holds gateway-specific configuration
type GatewayConfig struct {
	HTTPPort           string
	Environment        string
	RecordsServiceAddr string
	RequestTimeout     time.Duration

	CORS CORSConfig
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int // in seconds
}

// ============================================================================
// Configuration Loading Functions
// ============================================================================

// LoadEnv loads environment variables from .env file
func LoadEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}

	if err := godotenv.Load(envFile); err != nil {
		log.Printf("WARN: %s file not found, using system environment variables", envFile)
		return err
	}

	log.Printf("INFO: Loaded environment from %s", envFile)
	return nil
}

// LoadServiceConfig loads common service configuration from environment
func LoadServiceConfig(serviceName string) (*ServiceConfig, error) {
	config := &ServiceConfig{
		ServiceName: serviceName,
		ServicePort: GetEnv("SERVICE_PORT", GetServicePort(serviceName)),
		Environment: GetEnv("ENVIRONMENT", "development"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),
		StoreDriver: strings.ToLower(GetEnv("RECORD_STORE_DRIVER", DriverMongo)),
		RosterFile:  GetEnv("ROSTER_FILE", ""),
	}

	config.MongoDB = MongoConfig{
		URI:            GetEnv("MONGO_URI", ""),
		Database:       GetEnv("MONGO_DB_NAME", "ClassLedger"),
		ConnectTimeout: GetDurationEnv("MONGO_CONNECT_TIMEOUT", 20*time.Second),
		MaxPoolSize:    uint64(GetIntEnv("MONGO_MAX_POOL_SIZE", 50)),
		MinPoolSize:    uint64(GetIntEnv("MONGO_MIN_POOL_SIZE", 10)),
		MaxIdleTime:    GetDurationEnv("MONGO_MAX_IDLE_TIME", 30*time.Second),
	}

	config.Firestore = FirestoreConfig{
		ProjectID:       GetEnv("FIREBASE_PROJECT_ID", ""),
		CredentialsFile: GetEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		CredentialsJSON: GetEnv("FIREBASE_CONFIG", ""),
	}

	config.Redis = RedisConfig{
		Addr:      GetEnv("REDIS_ADDR", "localhost:6379"),
		Password:  GetEnv("REDIS_PASSWORD", ""),
		DB:        GetIntEnv("REDIS_DB", 0),
		KeyPrefix: GetEnv("REDIS_KEY_PREFIX", "classledger"),
	}

	config.GRPC = GRPCConfig{
		MaxRecvMsgSize:    GetIntEnv("GRPC_MAX_RECV_MSG_SIZE", 10*1024*1024), // 10MB
		MaxSendMsgSize:    GetIntEnv("GRPC_MAX_SEND_MSG_SIZE", 10*1024*1024), // 10MB
		ConnectionTimeout: GetDurationEnv("GRPC_CONNECTION_TIMEOUT", 10*time.Second),
		RequestTimeout:    GetDurationEnv("GRPC_REQUEST_TIMEOUT", 30*time.Second),
	}

	config.Session = SessionConfig{
		IdleTimeout: GetDurationEnv("SESSION_TIMEOUT", 30*time.Minute),
	}

	if config.StoreDriver == DriverMongo && config.MongoDB.URI == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable is required")
	}

	return config, nil
}

// LoadGatewayConfig loads gateway-specific configuration
func LoadGatewayConfig() (*GatewayConfig, error) {
	config := &GatewayConfig{
		HTTPPort:           GetEnv("HTTP_PORT", DefaultGatewayHTTPPort),
		Environment:        GetEnv("ENVIRONMENT", "development"),
		RecordsServiceAddr: GetEnv("RECORDS_SERVICE_ADDR", "localhost:"+DefaultRecordsServicePort),
		RequestTimeout:     GetDurationEnv("GATEWAY_REQUEST_TIMEOUT", 60*time.Second),
	}

	config.CORS = CORSConfig{
		AllowedOrigins:   GetStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:8081"}),
		AllowedMethods:   GetStringSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		AllowedHeaders:   GetStringSliceEnv("CORS_ALLOWED_HEADERS", []string{"Accept", "Content-Type", "X-Request-Id"}),
		AllowCredentials: GetBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           GetIntEnv("CORS_MAX_AGE", 300),
	}

	return config, nil
}

// ============================================================================
// Environment Variable Helper Functions
// ============================================================================

// GetEnv retrieves an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetIntEnv retrieves an integer environment variable or returns a default value
func GetIntEnv(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("WARN: Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// GetBoolEnv retrieves a boolean environment variable or returns a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("WARN: Invalid boolean value for %s: %s, using default: %t", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// GetDurationEnv retrieves a duration environment variable or returns a default value
// Supports format like "30s", "5m", "1h"
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("WARN: Invalid duration value for %s: %s, using default: %v", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// GetStringSliceEnv retrieves a comma-separated string list or returns a default value
func GetStringSliceEnv(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// ============================================================================
// Configuration Validation
// ============================================================================

// ValidateServiceConfig validates service configuration
func ValidateServiceConfig(config *ServiceConfig) error {
	if config.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}

	if config.ServicePort == "" {
		return fmt.Errorf("service port is required")
	}

	switch config.StoreDriver {
	case DriverMongo:
		if config.MongoDB.URI == "" {
			return fmt.Errorf("MongoDB URI is required")
		}
		if config.MongoDB.Database == "" {
			return fmt.Errorf("MongoDB database name is required")
		}
	case DriverFirestore:
		if config.Firestore.ProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for the firestore driver")
		}
	case DriverRedis:
		if config.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis driver")
		}
	case DriverMemory:
		if IsProduction(config) {
			return fmt.Errorf("the memory driver does not persist records and cannot run in production")
		}
	default:
		return fmt.Errorf("unknown record store driver %q", config.StoreDriver)
	}

	return nil
}

// ValidateGatewayConfig validates gateway configuration
func ValidateGatewayConfig(config *GatewayConfig) error {
	if config.HTTPPort == "" {
		return fmt.Errorf("HTTP port is required")
	}
	if config.RecordsServiceAddr == "" {
		return fmt.Errorf("records service address is required")
	}
	return nil
}

// ============================================================================
// Configuration Display (for debugging)
// ============================================================================

// PrintConfig prints configuration (sanitized) for debugging
func PrintConfig(config *ServiceConfig) {
	log.Println("=== Service Configuration ===")
	log.Printf("Service Name: %s", config.ServiceName)
	log.Printf("Service Port: %s", config.ServicePort)
	log.Printf("Environment: %s", config.Environment)
	log.Printf("Log Level: %s", config.LogLevel)
	log.Printf("Record Store Driver: %s", config.StoreDriver)
	switch config.StoreDriver {
	case DriverMongo:
		log.Println("=== MongoDB Configuration ===")
		log.Printf("Database: %s", config.MongoDB.Database)
		log.Printf("Max Pool Size: %d", config.MongoDB.MaxPoolSize)
		log.Printf("Min Pool Size: %d", config.MongoDB.MinPoolSize)
	case DriverFirestore:
		log.Println("=== Firestore Configuration ===")
		log.Printf("Project: %s", config.Firestore.ProjectID)
		log.Printf("Credentials File Set: %t", config.Firestore.CredentialsFile != "")
	case DriverRedis:
		log.Println("=== Redis Configuration ===")
		log.Printf("Addr: %s", config.Redis.Addr)
		log.Printf("DB: %d", config.Redis.DB)
		log.Printf("Key Prefix: %s", config.Redis.KeyPrefix)
	}
	if config.RosterFile != "" {
		log.Printf("Roster File: %s", config.RosterFile)
	}
	log.Println("=== gRPC Configuration ===")
	log.Printf("Max Recv Msg Size: %d bytes", config.GRPC.MaxRecvMsgSize)
	log.Printf("Max Send Msg Size: %d bytes", config.GRPC.MaxSendMsgSize)
	log.Printf("Request Timeout: %v", config.GRPC.RequestTimeout)
	log.Println("=== Session Configuration ===")
	log.Printf("Idle Timeout: %v", config.Session.IdleTimeout)
	log.Println("=============================")
}

// PrintGatewayConfig prints gateway configuration (sanitized)
func PrintGatewayConfig(config *GatewayConfig) {
	log.Println("=== Gateway Configuration ===")
	log.Printf("HTTP Port: %s", config.HTTPPort)
	log.Printf("Records Service: %s", config.RecordsServiceAddr)
	log.Printf("Allowed Origins: %v", config.CORS.AllowedOrigins)
	log.Printf("Allow Credentials: %t", config.CORS.AllowCredentials)
	log.Println("=============================")
}

// ============================================================================
// Default Port Mapping
// ============================================================================

const (
	DefaultGatewayHTTPPort    = "8080"
	DefaultRecordsServicePort = "50061"
)

// GetServicePort returns the default port for a service
func GetServicePort(serviceName string) string {
	ports := map[string]string{
		"gateway":         DefaultGatewayHTTPPort,
		"records-service": DefaultRecordsServicePort,
	}

	if port, exists := ports[serviceName]; exists {
		return port
	}
	return DefaultRecordsServicePort
}

// IsDevelopment checks if running in development environment
func IsDevelopment(config *ServiceConfig) bool {
	return config.Environment == "development"
}

// IsProduction checks if running in production environment
func IsProduction(config *ServiceConfig) bool {
	return config.Environment == "production"
}
