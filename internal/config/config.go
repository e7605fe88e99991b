package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/liamashdown/polymonitor/internal/secrets"
)

// AuthMode represents the authentication mode for Data API
type AuthMode string

const (
	AuthModeNone   AuthMode = "none"
	AuthModeBearer AuthMode = "bearer"
	AuthModeAPIKey AuthMode = "api_key"
)

// Supported database drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	// Environment
	Environment string
	LogLevel    string
	HTTPPort    int

	// Database
	DatabaseDriver      string
	DatabaseDSN         string
	DatabaseMaxConns    int
	DatabaseMaxIdleTime time.Duration

	// Data API
	DataAPIBaseURL      string
	DataAPIAuthMode     AuthMode
	DataAPIBearerToken  string
	DataAPIAPIKey       string
	DataAPIExtraHeaders map[string]string

	// Gamma API
	GammaAPIBaseURL string

	// Rate limits (requests per second)
	DataAPITradesRPS   float64
	GammaAPIMarketsRPS float64

	// Sync jobs
	SyncPageSize        int
	SyncMaxPages        int
	SyncTradesInterval  time.Duration
	SyncMarketsInterval time.Duration
	SyncUsersInterval   time.Duration
	SyncOnStartup       bool

	// Analytics defaults
	SmartMoneyMinROI     float64
	SmartMoneyMinWinRate float64
	SmartMoneyMinTrades  int
	SmartMoneySinceDays  int
	WhaleMinNetInvested  float64
	WhaleSinceHours      int
	TopProfitSinceDays   int
	HotMarketsSinceHours int
	ResultLimit          int

	// Result cache
	RedisURL string
	CacheTTL time.Duration

	// Alerts
	AlertMode          string // comma-separated: log, discord
	DiscordWebhookURLs []string
	AlertCooldown      time.Duration
	WhaleAlertsEnabled bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment:          getEnv("ENVIRONMENT", "production"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		HTTPPort:             getEnvInt("HTTP_PORT", 8080),
		DatabaseDriver:       getEnv("DATABASE_DRIVER", DriverSQLite),
		DatabaseDSN:          secrets.GetOptionalSecret("DATABASE_DSN", "polymonitor.db"),
		DatabaseMaxConns:     getEnvInt("DATABASE_MAX_CONNS", 10),
		DatabaseMaxIdleTime:  time.Duration(getEnvInt("DATABASE_MAX_IDLE_TIME_MINS", 5)) * time.Minute,
		DataAPIBaseURL:       getEnv("DATA_API_BASE_URL", "https://data-api.polymarket.com"),
		DataAPIAuthMode:      AuthMode(getEnv("DATA_API_AUTH_MODE", "none")),
		DataAPIBearerToken:   secrets.GetOptionalSecret("DATA_API_BEARER_TOKEN", ""),
		DataAPIAPIKey:        secrets.GetOptionalSecret("DATA_API_API_KEY", ""),
		GammaAPIBaseURL:      getEnv("GAMMA_API_BASE_URL", "https://gamma-api.polymarket.com"),
		DataAPITradesRPS:     getEnvFloat("DATA_API_TRADES_RPS", 2.0),
		GammaAPIMarketsRPS:   getEnvFloat("GAMMA_API_MARKETS_RPS", 5.0),
		SyncPageSize:         getEnvInt("SYNC_PAGE_SIZE", 500),
		SyncMaxPages:         getEnvInt("SYNC_MAX_PAGES", 1),
		SyncTradesInterval:   time.Duration(getEnvInt("SYNC_TRADES_INTERVAL_MINS", 10)) * time.Minute,
		SyncMarketsInterval:  time.Duration(getEnvInt("SYNC_MARKETS_INTERVAL_MINS", 60)) * time.Minute,
		SyncUsersInterval:    time.Duration(getEnvInt("SYNC_USERS_INTERVAL_MINS", 360)) * time.Minute,
		SyncOnStartup:        getEnvBool("SYNC_ON_STARTUP", true),
		SmartMoneyMinROI:     getEnvFloat("SMART_MONEY_MIN_ROI", 0.2),
		SmartMoneyMinWinRate: getEnvFloat("SMART_MONEY_MIN_WIN_RATE", 0.6),
		SmartMoneyMinTrades:  getEnvInt("SMART_MONEY_MIN_TRADES", 5),
		SmartMoneySinceDays:  getEnvInt("SMART_MONEY_SINCE_DAYS", 30),
		WhaleMinNetInvested:  getEnvFloat("WHALE_MIN_NET_INVESTED", 10000.0),
		WhaleSinceHours:      getEnvInt("WHALE_SINCE_HOURS", 24),
		TopProfitSinceDays:   getEnvInt("TOP_PROFIT_SINCE_DAYS", 30),
		HotMarketsSinceHours: getEnvInt("HOT_MARKETS_SINCE_HOURS", 24),
		ResultLimit:          getEnvInt("RESULT_LIMIT", 20),
		RedisURL:             secrets.GetOptionalSecret("REDIS_URL", ""),
		CacheTTL:             time.Duration(getEnvInt("CACHE_TTL_SEC", 30)) * time.Second,
		AlertMode:            getEnv("ALERT_MODE", "log"),
		AlertCooldown:        time.Duration(getEnvInt("ALERT_COOLDOWN_MINS", 360)) * time.Minute,
		WhaleAlertsEnabled:   getEnvBool("WHALE_ALERTS_ENABLED", true),
	}

	if urls := secrets.GetOptionalSecret("DISCORD_WEBHOOK_URLS", ""); urls != "" {
		cfg.DiscordWebhookURLs = parseCSV(urls)
	}

	// Parse extra headers JSON
	extraHeadersJSON := getEnv("DATA_API_EXTRA_HEADERS", "{}")
	if err := json.Unmarshal([]byte(extraHeadersJSON), &cfg.DataAPIExtraHeaders); err != nil {
		return nil, fmt.Errorf("invalid DATA_API_EXTRA_HEADERS JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER: %s (must be mysql or sqlite)", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}

	switch c.DataAPIAuthMode {
	case AuthModeNone:
	case AuthModeBearer:
		if c.DataAPIBearerToken == "" {
			return fmt.Errorf("DATA_API_BEARER_TOKEN is required when AUTH_MODE is bearer")
		}
	case AuthModeAPIKey:
		if c.DataAPIAPIKey == "" {
			return fmt.Errorf("DATA_API_API_KEY is required when AUTH_MODE is api_key")
		}
	default:
		return fmt.Errorf("invalid DATA_API_AUTH_MODE: %s (must be none, bearer, or api_key)", c.DataAPIAuthMode)
	}

	if c.SyncPageSize <= 0 || c.SyncMaxPages <= 0 {
		return fmt.Errorf("SYNC_PAGE_SIZE and SYNC_MAX_PAGES must be positive")
	}
	if c.SyncTradesInterval <= 0 || c.SyncMarketsInterval <= 0 || c.SyncUsersInterval <= 0 {
		return fmt.Errorf("sync intervals must be positive")
	}
	if c.ResultLimit <= 0 {
		return fmt.Errorf("RESULT_LIMIT must be positive")
	}
	if c.SmartMoneySinceDays < 0 || c.WhaleSinceHours < 0 || c.TopProfitSinceDays < 0 || c.HotMarketsSinceHours < 0 {
		return fmt.Errorf("analytics windows must not be negative")
	}

	for _, mode := range c.AlertModes() {
		switch mode {
		case "log":
		case "discord":
			if len(c.DiscordWebhookURLs) == 0 {
				return fmt.Errorf("DISCORD_WEBHOOK_URLS is required when discord is in ALERT_MODE")
			}
		default:
			return fmt.Errorf("invalid ALERT_MODE value: %s (valid values: log, discord)", mode)
		}
	}

	return nil
}

// AlertModes returns the trimmed, non-empty entries of ALERT_MODE
func (c *Config) AlertModes() []string {
	return parseCSV(c.AlertMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseCSV(s string) []string {
	var result []string
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
