package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultChainID = "781078b5a05e20fb1cd13c06622ccc91f813d112f020816e799a9ec1ba4298dc"
	defaultAppID   = "e2fc7d4def7027d52bae9fa63990ddeee6791a5a40c9ec041a8d0beca13c6c5c"
)

// Notifier types
const (
	NotifierPoll      = "poll"
	NotifierWebSocket = "websocket"
	NotifierNATS      = "nats"
)

// Config holds all application configuration
type Config struct {
	// Chain service configuration
	ChainID        string
	AppID          string
	ServicePort    string
	ServiceURL     string // Full base URL, defaults to http://localhost:{ServicePort}
	PlayerAddress  string // Address of the local player, used to pick our duel out of activeDuels
	RequestTimeout time.Duration

	// Transport mode
	DemoMode            bool // Always use the simulated transport
	FallbackToSimulated bool // Use the simulated transport when the service is unreachable

	// Notification configuration
	NotifierType string // "poll", "websocket" or "nats"
	PollInterval time.Duration
	NATSServers  string
	NATSSubject  string

	// Local HTTP API configuration
	APIAddr     string
	CORSOrigins []string

	// Discord configuration (optional front end)
	DiscordToken     string
	DiscordGuildID   string
	DiscordChannelID string

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// GraphQLEndpoint returns the application endpoint on the configured chain
func (c *Config) GraphQLEndpoint() string {
	return fmt.Sprintf("%s/chains/%s/applications/%s", strings.TrimRight(c.ServiceURL, "/"), c.ChainID, c.AppID)
}

// DiscordEnabled reports whether the Discord front end should be started
func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != ""
}

// load loads configuration from the .env file and environment variables
func load() (*Config, error) {
	// A missing .env file is fine, the environment may carry everything
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	config := &Config{
		// Chain service
		ChainID:       getEnvWithDefault("CHAIN_ID", defaultChainID),
		AppID:         getEnvWithDefault("APP_ID", defaultAppID),
		ServicePort:   getEnvWithDefault("LINERA_SERVICE_PORT", "8081"),
		ServiceURL:    os.Getenv("LINERA_SERVICE_URL"),
		PlayerAddress: os.Getenv("PLAYER_ADDRESS"),

		RequestTimeout: 15 * time.Second,

		// Transport mode
		DemoMode:            os.Getenv("DEMO_MODE") == "true",
		FallbackToSimulated: os.Getenv("FALLBACK_TO_SIMULATED") != "false",

		// Notifications
		NotifierType: getEnvWithDefault("NOTIFIER", NotifierPoll),
		PollInterval: 3 * time.Second,
		NATSServers:  getEnvWithDefault("NATS_SERVERS", "nats://localhost:4222"),
		NATSSubject:  getEnvWithDefault("NATS_SUBJECT", "speedbet.notifications"),

		// Local API
		APIAddr:     getEnvWithDefault("API_ADDR", ":8090"),
		CORSOrigins: []string{"http://localhost:5173"},

		// Discord
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordGuildID:   os.Getenv("DISCORD_GUILD_ID"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		// OpenTelemetry
		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "speedbet"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelExportIntervalMillis: 30000,

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.ServiceURL == "" {
		config.ServiceURL = fmt.Sprintf("http://localhost:%s", config.ServicePort)
	}

	// Override defaults if environment variables are set
	if timeout := os.Getenv("REQUEST_TIMEOUT"); timeout != "" {
		if parsed, err := time.ParseDuration(timeout); err == nil {
			config.RequestTimeout = parsed
		}
	}
	if interval := os.Getenv("POLL_INTERVAL"); interval != "" {
		if parsed, err := time.ParseDuration(interval); err == nil && parsed > 0 {
			config.PollInterval = parsed
		}
	}
	if exportInterval := os.Getenv("OTEL_EXPORT_INTERVAL_MILLIS"); exportInterval != "" {
		if parsed, err := strconv.Atoi(exportInterval); err == nil && parsed > 0 {
			config.OTelExportIntervalMillis = parsed
		}
	}

	// Parse allowed CORS origins
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		config.CORSOrigins = nil
		for _, origin := range strings.Split(origins, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				config.CORSOrigins = append(config.CORSOrigins, origin)
			}
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if err := config.validate(); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.NotifierType {
	case NotifierPoll, NotifierWebSocket:
	case NotifierNATS:
		if c.NATSServers == "" {
			return fmt.Errorf("NATS_SERVERS is required when NOTIFIER=nats")
		}
	default:
		return fmt.Errorf("unknown NOTIFIER: %s", c.NotifierType)
	}
	if c.ChainID == "" || c.AppID == "" {
		return fmt.Errorf("CHAIN_ID and APP_ID are required")
	}
	if c.DiscordToken != "" && c.DiscordChannelID == "" {
		return fmt.Errorf("DISCORD_CHANNEL_ID is required when DISCORD_TOKEN is set")
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		ChainID:             defaultChainID,
		AppID:               defaultAppID,
		ServicePort:         "8081",
		ServiceURL:          "http://localhost:8081",
		RequestTimeout:      2 * time.Second,
		FallbackToSimulated: true,
		NotifierType:        NotifierPoll,
		PollInterval:        3 * time.Second,
		APIAddr:             ":0",
		OTelExporterType:    "none",
		LogLevel:            "debug",
		Environment:         "test",
	}
}
