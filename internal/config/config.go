package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Issue tracker connection
	Tracker TrackerConfig

	// Dashboard session configuration
	Auth AuthConfig

	// Cross-origin configuration for the dashboard frontend
	CORS CORSConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// WebSocket configuration
	WebSocket WebSocketConfig

	// Triage workflow configuration
	Triage TriageConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// TrackerConfig holds the Jira connection
type TrackerConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// AuthConfig holds dashboard session token configuration
type AuthConfig struct {
	Enabled bool
	Secret  string
	TTL     time.Duration
}

// CORSConfig holds the origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	WriteRPS          float64 // Stricter limit for tracker writes
	WriteBurst        int
}

// WebSocketConfig holds WebSocket configuration
type WebSocketConfig struct {
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongWait        time.Duration
}

// TriageConfig holds the fixed lookups the triage workflow relies on
type TriageConfig struct {
	AssigneeDirectoryFile string
	EditableFields        []string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	frontendOrigins := getStringSliceOrDefault("FRONTEND_ORIGIN", []string{"http://localhost:3000"})

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", ":5000"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 45*time.Second),
			IdleTimeout:     getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Tracker: trackerFromEnv(),
		Auth: AuthConfig{
			Enabled: getBoolOrDefault("AUTH_ENABLED", true),
			Secret:  os.Getenv("JWT_SECRET"),
			TTL:     getDurationOrDefault("JWT_TTL", 8*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: frontendOrigins,
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolOrDefault("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getFloatOrDefault("RATE_LIMIT_RPS", 10),
			BurstSize:         getIntOrDefault("RATE_LIMIT_BURST", 20),
			WriteRPS:          getFloatOrDefault("RATE_LIMIT_WRITE_RPS", 2),
			WriteBurst:        getIntOrDefault("RATE_LIMIT_WRITE_BURST", 10),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins:  getStringSliceOrDefault("WS_ALLOWED_ORIGINS", frontendOrigins),
			ReadBufferSize:  getIntOrDefault("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getIntOrDefault("WS_WRITE_BUFFER_SIZE", 1024),
			PingInterval:    getDurationOrDefault("WS_PING_INTERVAL", 54*time.Second),
			PongWait:        getDurationOrDefault("WS_PONG_WAIT", 60*time.Second),
		},
		Triage:  triageFromEnv(),
		Logging: loggingFromEnv(),
		App:     appFromEnv(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadTracker loads the sections a command-line tool needs to query the
// tracker: Tracker, Triage, Logging and App. Only the tracker connection
// is validated; server, session and websocket settings are left zero.
func LoadTracker() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Tracker: trackerFromEnv(),
		Triage:  triageFromEnv(),
		Logging: loggingFromEnv(),
		App:     appFromEnv(),
	}

	if errs := cfg.Tracker.validate(); len(errs) > 0 {
		return nil, joinErrors(errs)
	}
	return cfg, nil
}

func trackerFromEnv() TrackerConfig {
	return TrackerConfig{
		BaseURL: strings.TrimRight(os.Getenv("JIRA_BASE_URL"), "/"),
		Token:   os.Getenv("JIRA_PAT"),
		Timeout: getDurationOrDefault("JIRA_TIMEOUT", 30*time.Second),
	}
}

func triageFromEnv() TriageConfig {
	return TriageConfig{
		AssigneeDirectoryFile: os.Getenv("ASSIGNEE_DIRECTORY_FILE"),
		EditableFields:        getStringSliceOrDefault("EDITABLE_FIELDS", []string{"customfield_16104"}),
	}
}

func loggingFromEnv() LoggingConfig {
	return LoggingConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "json"),
	}
}

func appFromEnv() AppConfig {
	return AppConfig{
		Name:        getEnvOrDefault("APP_NAME", "defect-triage"),
		Version:     getEnvOrDefault("APP_VERSION", "dev"),
		Environment: getEnvOrDefault("APP_ENV", "development"),
	}
}

// MinSecretLength is the shortest session signing secret accepted in
// production.
const MinSecretLength = 32

// Validate validates the configuration
func (c *Config) Validate() error {
	// Required fields
	errs := c.Tracker.validate()

	if c.Auth.Enabled && c.Auth.Secret == "" {
		errs = append(errs, "JWT_SECRET is required when AUTH_ENABLED is true")
	}

	// Security validations
	if c.App.Environment == "production" {
		if !c.Auth.Enabled {
			errs = append(errs, "AUTH_ENABLED cannot be false in production")
		}
		if len(c.Auth.Secret) < MinSecretLength {
			errs = append(errs, fmt.Sprintf("JWT_SECRET must be at least %d characters in production", MinSecretLength))
		}
	}

	// Logical validations
	if c.WebSocket.PingInterval >= c.WebSocket.PongWait {
		errs = append(errs, "WS_PING_INTERVAL must be shorter than WS_PONG_WAIT")
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func (t TrackerConfig) validate() []string {
	var errs []string
	if t.BaseURL == "" {
		errs = append(errs, "JIRA_BASE_URL is required")
	} else if !strings.HasPrefix(t.BaseURL, "https://") {
		errs = append(errs, "JIRA_BASE_URL must use https")
	}
	if t.Token == "" {
		errs = append(errs, "JIRA_PAT is required")
	}
	if t.Timeout <= 0 {
		errs = append(errs, "JIRA_TIMEOUT must be positive")
	}
	return errs
}

func joinErrors(errs []string) error {
	return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// String returns a redacted string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, Tracker: %s, PAT: %s, Auth: %v, RateLimit: %v, Environment: %s}",
		c.Server.Port,
		c.Tracker.BaseURL,
		redactSecret(c.Tracker.Token),
		c.Auth.Enabled,
		c.RateLimit.Enabled,
		c.App.Environment,
	)
}

// redactSecret hides a credential while showing whether one is set
func redactSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return "[REDACTED]"
}
