// Package config loads the signal bot configuration from config.json,
// overlays environment variables (a .env file is honored when present), and
// validates the result before any component starts.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"equity-signal-bot/internal/market"
)

type Config struct {
	ServerConfig       ServerConfig       `json:"server"`
	AuthConfig         AuthConfig         `json:"auth"`
	DatabaseConfig     DatabaseConfig     `json:"database"`
	RedisConfig        RedisConfig        `json:"redis"`
	VaultConfig        VaultConfig        `json:"vault"`
	LoggingConfig      LoggingConfig      `json:"logging"`
	ScannerConfig      ScannerConfig      `json:"scanner"`
	WatchlistConfig    WatchlistConfig    `json:"watchlist"`
	FeedsConfig        FeedsConfig        `json:"feeds"`
	GatesConfig        GatesConfig        `json:"gates"`
	AnalysisConfig     AnalysisConfig     `json:"analysis"`
	NotificationConfig NotificationConfig `json:"notification"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int    `json:"port"`
	Host            string `json:"host"`
	AllowedOrigins  string `json:"allowed_origins"` // CORS allowed origins
	ProductionMode  bool   `json:"production_mode"`
	ReadTimeout     int    `json:"read_timeout"`     // Seconds
	WriteTimeout    int    `json:"write_timeout"`    // Seconds
	ShutdownTimeout int    `json:"shutdown_timeout"` // Seconds
	RateLimit       int    `json:"rate_limit"`       // Requests per window per client
	RateWindow      int    `json:"rate_window"`      // Seconds
}

// AuthConfig holds single-operator authentication configuration
type AuthConfig struct {
	Enabled              bool          `json:"enabled"`
	JWTSecret            string        `json:"jwt_secret"`
	AccessTokenDuration  time.Duration `json:"access_token_duration"`
	RefreshTokenDuration time.Duration `json:"refresh_token_duration"`
	Username             string        `json:"username"`
	Password             string        `json:"-"` // Env only, hashed at startup
	PasswordHash         string        `json:"-"` // Env only, takes precedence
	MaxSessions          int           `json:"max_sessions"`
}

// DatabaseConfig holds PostgreSQL connection configuration. Persistence is on
// by default; disabling it keeps the bot running on the in-memory result cache
// alone.
type DatabaseConfig struct {
	Enabled       bool   `json:"enabled"`
	Host          string `json:"host"`
	Port          int    `json:"port"`
	User          string `json:"user"`
	Password      string `json:"-"` // Env only
	Database      string `json:"database"`
	SSLMode       string `json:"ssl_mode"`
	RetentionDays int    `json:"retention_days"` // 0 disables pruning
}

// RedisConfig holds Redis configuration for the shared series cache
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// VaultConfig holds HashiCorp Vault configuration
type VaultConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`  // KV secrets engine mount path
	SecretPath string `json:"secret_path"` // Path prefix for bot credentials
	TLSEnabled bool   `json:"tls_enabled"`
	CACert     string `json:"ca_cert"`
}

type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Output     string `json:"output"`      // stdout, stderr, or file path
	JSONFormat bool   `json:"json_format"` // JSON lines vs console format
	WithCaller bool   `json:"with_caller"` // Include file and line number
}

// ScannerConfig holds the periodic scan loop configuration
type ScannerConfig struct {
	Enabled                bool `json:"enabled"`
	ScanInterval           int  `json:"scan_interval"`            // Seconds between scans
	TickerTimeout          int  `json:"ticker_timeout"`           // Seconds per ticker evaluation
	WorkerCount            int  `json:"worker_count"`             // Concurrent evaluations
	AlertCooldown          int  `json:"alert_cooldown"`           // Seconds between repeat alerts per ticker
	MaxConsecutiveFailures int  `json:"max_consecutive_failures"` // Macro failures before warning
	LookbackDays           int  `json:"lookback_days"`            // Bar history requested per ticker
	AlertOnWatch           bool `json:"alert_on_watch"`           // Alert on watch in addition to strong_buy
	PersistRuns            bool `json:"persist_runs"`             // Save run summaries to the database
}

// WatchlistConfig holds the scanned tickers and their volatility groups.
// Group thresholds replace the default RSI cutoffs for member tickers.
type WatchlistConfig struct {
	Tickers []string          `json:"tickers"`
	Groups  []VolatilityGroup `json:"groups"`
}

// VolatilityGroup assigns RSI thresholds to a set of tickers. High-beta names
// need deeper oversold readings before a dip is worth flagging.
type VolatilityGroup struct {
	Name          string   `json:"name"`
	Tickers       []string `json:"tickers"`
	OversoldRSI   float64  `json:"oversold_rsi"`
	OverboughtRSI float64  `json:"overbought_rsi"`
}

// FeedsConfig holds the market-data adapter configuration
type FeedsConfig struct {
	Chart   ChartFeedConfig   `json:"chart"`
	News    NewsFeedConfig    `json:"news"`
	Options OptionsFeedConfig `json:"options"`
	// SeriesCacheTTL bounds how stale cached bars may get, in seconds.
	SeriesCacheTTL int `json:"series_cache_ttl"`
}

type ChartFeedConfig struct {
	BaseURL           string  `json:"base_url"`
	IndexSymbol       string  `json:"index_symbol"`
	RateSymbol        string  `json:"rate_symbol"`
	MacroLookbackDays int     `json:"macro_lookback_days"`
	MaxCallsPerMinute int     `json:"max_calls_per_minute"`
	RetryAttempts     int     `json:"retry_attempts"`
	RetryBackoffSec   float64 `json:"retry_backoff_seconds"`
}

type NewsFeedConfig struct {
	FeedURL           string  `json:"feed_url"`
	MaxCallsPerMinute int     `json:"max_calls_per_minute"`
	RetryAttempts     int     `json:"retry_attempts"`
	RetryBackoffSec   float64 `json:"retry_backoff_seconds"`
}

type OptionsFeedConfig struct {
	BaseURL            string  `json:"base_url"`
	MaxCallsPerMinute  int     `json:"max_calls_per_minute"`
	RetryAttempts      int     `json:"retry_attempts"`
	RetryBackoffSec    float64 `json:"retry_backoff_seconds"`
	IVRankWindow       int     `json:"iv_rank_window"`
	IVRankLookbackDays int     `json:"iv_rank_lookback_days"`
}

// GatesConfig holds the thresholds of the five filter gates
type GatesConfig struct {
	Macro   MacroGateConfig   `json:"macro"`
	News    NewsGateConfig    `json:"news"`
	Options OptionsGateConfig `json:"options"`
	Support SupportGateConfig `json:"support"`
}

type MacroGateConfig struct {
	IndexMAPeriod      int     `json:"index_ma_period"`
	RateSpikeThreshold float64 `json:"rate_spike_threshold"`
	CrashThreshold     float64 `json:"crash_threshold"`
}

type NewsGateConfig struct {
	TopK           int     `json:"top_k"`
	BlockThreshold float64 `json:"block_threshold"`
}

type OptionsGateConfig struct {
	MaxIVRank           float64 `json:"max_iv_rank"`
	BullishPutCallRatio float64 `json:"bullish_put_call_ratio"`
}

type SupportGateConfig struct {
	MaxSupportDistance  float64 `json:"max_support_distance"`
	ResistanceWindow    float64 `json:"resistance_window"`
	MinBlockingStrength string  `json:"min_blocking_strength"` // low, medium, high
}

// AnalysisConfig holds indicator, level-detection, and volume-profile tuning
type AnalysisConfig struct {
	RSIPeriod           int     `json:"rsi_period"`
	FastMAPeriod        int     `json:"fast_ma_period"`
	SlowMAPeriod        int     `json:"slow_ma_period"`
	ExtremaOrder        int     `json:"extrema_order"`
	LevelLookbackBars   int     `json:"level_lookback_bars"`
	UseProminence       bool    `json:"use_prominence"`
	ProminencePct       float64 `json:"prominence_pct"`
	MinPeakDistance     int     `json:"min_peak_distance"`
	ClusterTolerance    float64 `json:"cluster_tolerance"`
	HighMinTouches      int     `json:"high_min_touches"`
	MediumMinTouches    int     `json:"medium_min_touches"`
	ProfileBins         int     `json:"profile_bins"`
	ProfileLookbackBars int     `json:"profile_lookback_bars"`
}

type NotificationConfig struct {
	Enabled  bool           `json:"enabled"`
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
}

type TelegramConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
}

type DiscordConfig struct {
	Enabled    bool   `json:"enabled"`
	WebhookURL string `json:"webhook_url"`
}

func Load() (*Config, error) {
	// A .env file is a development convenience; deployed environments set
	// variables directly.
	_ = godotenv.Load()

	cfg := defaultConfig()

	// Overlay config.json when present. Unmarshaling into the defaulted
	// struct means absent keys keep their defaults while explicit zeros and
	// falses are honored.
	if data, err := os.ReadFile("config.json"); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	applyDefaults(cfg)

	// Apply environment variable overrides (these take precedence)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// defaultConfig returns the configuration used before any file or environment
// overlay. The scanner and persistence run by default; Redis, Vault, auth, and
// notifications are opt-in.
func defaultConfig() *Config {
	cfg := &Config{}
	cfg.ScannerConfig.Enabled = true
	cfg.DatabaseConfig.Enabled = true
	cfg.DatabaseConfig.RetentionDays = 90
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills zero values so a partial config.json (or none at all)
// still yields a runnable configuration.
func applyDefaults(cfg *Config) {
	if cfg.ServerConfig.Port == 0 {
		cfg.ServerConfig.Port = 8080
	}
	if cfg.ServerConfig.Host == "" {
		cfg.ServerConfig.Host = "0.0.0.0"
	}
	if cfg.ServerConfig.AllowedOrigins == "" {
		cfg.ServerConfig.AllowedOrigins = "*"
	}
	if cfg.ServerConfig.ReadTimeout <= 0 {
		cfg.ServerConfig.ReadTimeout = 15
	}
	if cfg.ServerConfig.WriteTimeout <= 0 {
		cfg.ServerConfig.WriteTimeout = 15
	}
	if cfg.ServerConfig.ShutdownTimeout <= 0 {
		cfg.ServerConfig.ShutdownTimeout = 30
	}
	if cfg.ServerConfig.RateLimit <= 0 {
		cfg.ServerConfig.RateLimit = 120
	}
	if cfg.ServerConfig.RateWindow <= 0 {
		cfg.ServerConfig.RateWindow = 60
	}

	if cfg.AuthConfig.AccessTokenDuration <= 0 {
		cfg.AuthConfig.AccessTokenDuration = 15 * time.Minute
	}
	if cfg.AuthConfig.RefreshTokenDuration <= 0 {
		cfg.AuthConfig.RefreshTokenDuration = 7 * 24 * time.Hour
	}
	if cfg.AuthConfig.MaxSessions <= 0 {
		cfg.AuthConfig.MaxSessions = 5
	}

	if cfg.DatabaseConfig.Host == "" {
		cfg.DatabaseConfig.Host = "localhost"
	}
	if cfg.DatabaseConfig.Port == 0 {
		cfg.DatabaseConfig.Port = 5432
	}
	if cfg.DatabaseConfig.User == "" {
		cfg.DatabaseConfig.User = "postgres"
	}
	if cfg.DatabaseConfig.Database == "" {
		cfg.DatabaseConfig.Database = "signalbot"
	}
	if cfg.DatabaseConfig.SSLMode == "" {
		cfg.DatabaseConfig.SSLMode = "disable"
	}
	if cfg.DatabaseConfig.RetentionDays < 0 {
		cfg.DatabaseConfig.RetentionDays = 0
	}

	if cfg.RedisConfig.Address == "" {
		cfg.RedisConfig.Address = "localhost:6379"
	}
	if cfg.RedisConfig.PoolSize <= 0 {
		cfg.RedisConfig.PoolSize = 10
	}

	if cfg.VaultConfig.Address == "" {
		cfg.VaultConfig.Address = "http://localhost:8200"
	}
	if cfg.VaultConfig.MountPath == "" {
		cfg.VaultConfig.MountPath = "secret"
	}
	if cfg.VaultConfig.SecretPath == "" {
		cfg.VaultConfig.SecretPath = "signal-bot/credentials"
	}

	if cfg.LoggingConfig.Level == "" {
		cfg.LoggingConfig.Level = "info"
	}
	if cfg.LoggingConfig.Output == "" {
		cfg.LoggingConfig.Output = "stdout"
	}

	if cfg.ScannerConfig.ScanInterval <= 0 {
		cfg.ScannerConfig.ScanInterval = 300
	}
	if cfg.ScannerConfig.TickerTimeout <= 0 {
		cfg.ScannerConfig.TickerTimeout = 60
	}
	if cfg.ScannerConfig.WorkerCount <= 0 {
		cfg.ScannerConfig.WorkerCount = 4
	}
	if cfg.ScannerConfig.AlertCooldown <= 0 {
		cfg.ScannerConfig.AlertCooldown = 3600
	}
	if cfg.ScannerConfig.MaxConsecutiveFailures <= 0 {
		cfg.ScannerConfig.MaxConsecutiveFailures = 5
	}
	if cfg.ScannerConfig.LookbackDays <= 0 {
		cfg.ScannerConfig.LookbackDays = 250
	}

	if len(cfg.WatchlistConfig.Tickers) == 0 {
		cfg.WatchlistConfig.Tickers = DefaultWatchlist()
	}
	if len(cfg.WatchlistConfig.Groups) == 0 {
		cfg.WatchlistConfig.Groups = DefaultVolatilityGroups()
	}

	if cfg.FeedsConfig.SeriesCacheTTL <= 0 {
		cfg.FeedsConfig.SeriesCacheTTL = 900
	}

	if cfg.GatesConfig.Macro.IndexMAPeriod <= 0 {
		cfg.GatesConfig.Macro.IndexMAPeriod = 120
	}
	if cfg.GatesConfig.Macro.RateSpikeThreshold <= 0 {
		cfg.GatesConfig.Macro.RateSpikeThreshold = 0.05
	}
	if cfg.GatesConfig.Macro.CrashThreshold == 0 {
		cfg.GatesConfig.Macro.CrashThreshold = -0.03
	}
	if cfg.GatesConfig.News.TopK <= 0 {
		cfg.GatesConfig.News.TopK = 3
	}
	if cfg.GatesConfig.News.BlockThreshold == 0 {
		cfg.GatesConfig.News.BlockThreshold = -0.5
	}
	if cfg.GatesConfig.Options.MaxIVRank <= 0 {
		cfg.GatesConfig.Options.MaxIVRank = 30
	}
	if cfg.GatesConfig.Options.BullishPutCallRatio <= 0 {
		cfg.GatesConfig.Options.BullishPutCallRatio = 0.7
	}
	if cfg.GatesConfig.Support.MaxSupportDistance <= 0 {
		cfg.GatesConfig.Support.MaxSupportDistance = 0.03
	}
	if cfg.GatesConfig.Support.ResistanceWindow <= 0 {
		cfg.GatesConfig.Support.ResistanceWindow = 0.05
	}
	if cfg.GatesConfig.Support.MinBlockingStrength == "" {
		cfg.GatesConfig.Support.MinBlockingStrength = string(market.StrengthMedium)
	}

	if cfg.AnalysisConfig.RSIPeriod <= 0 {
		cfg.AnalysisConfig.RSIPeriod = 14
	}
	if cfg.AnalysisConfig.FastMAPeriod <= 0 {
		cfg.AnalysisConfig.FastMAPeriod = 20
	}
	if cfg.AnalysisConfig.SlowMAPeriod <= 0 {
		cfg.AnalysisConfig.SlowMAPeriod = 60
	}
	if cfg.AnalysisConfig.ExtremaOrder <= 0 {
		cfg.AnalysisConfig.ExtremaOrder = 5
	}
	if cfg.AnalysisConfig.LevelLookbackBars <= 0 {
		cfg.AnalysisConfig.LevelLookbackBars = 120
	}
	if cfg.AnalysisConfig.ProminencePct <= 0 {
		cfg.AnalysisConfig.ProminencePct = 0.02
	}
	if cfg.AnalysisConfig.MinPeakDistance <= 0 {
		cfg.AnalysisConfig.MinPeakDistance = 5
	}
	if cfg.AnalysisConfig.ClusterTolerance <= 0 {
		cfg.AnalysisConfig.ClusterTolerance = 0.015
	}
	if cfg.AnalysisConfig.HighMinTouches <= 0 {
		cfg.AnalysisConfig.HighMinTouches = 5
	}
	if cfg.AnalysisConfig.MediumMinTouches <= 0 {
		cfg.AnalysisConfig.MediumMinTouches = 2
	}
	if cfg.AnalysisConfig.ProfileBins <= 0 {
		cfg.AnalysisConfig.ProfileBins = 50
	}
	if cfg.AnalysisConfig.ProfileLookbackBars <= 0 {
		cfg.AnalysisConfig.ProfileLookbackBars = 60
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
// Credentials (database password, JWT secret, notifier tokens) are expected
// from the environment or Vault, never from config.json.
func applyEnvOverrides(cfg *Config) {
	// Server config
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", cfg.ServerConfig.Port)
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", cfg.ServerConfig.Host)
	cfg.ServerConfig.AllowedOrigins = getEnvOrDefault("SERVER_ALLOWED_ORIGINS", cfg.ServerConfig.AllowedOrigins)
	cfg.ServerConfig.ProductionMode = getEnvBoolOrDefault("SERVER_PRODUCTION", cfg.ServerConfig.ProductionMode)

	// Auth config
	cfg.AuthConfig.Enabled = getEnvBoolOrDefault("AUTH_ENABLED", cfg.AuthConfig.Enabled)
	cfg.AuthConfig.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.AuthConfig.JWTSecret)
	cfg.AuthConfig.AccessTokenDuration = getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_DURATION", cfg.AuthConfig.AccessTokenDuration)
	cfg.AuthConfig.RefreshTokenDuration = getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_DURATION", cfg.AuthConfig.RefreshTokenDuration)
	cfg.AuthConfig.Username = getEnvOrDefault("AUTH_USERNAME", cfg.AuthConfig.Username)
	cfg.AuthConfig.Password = getEnvOrDefault("AUTH_PASSWORD", cfg.AuthConfig.Password)
	cfg.AuthConfig.PasswordHash = getEnvOrDefault("AUTH_PASSWORD_HASH", cfg.AuthConfig.PasswordHash)

	// Database config
	cfg.DatabaseConfig.Enabled = getEnvBoolOrDefault("DB_ENABLED", cfg.DatabaseConfig.Enabled)
	cfg.DatabaseConfig.RetentionDays = getEnvIntOrDefault("DB_RETENTION_DAYS", cfg.DatabaseConfig.RetentionDays)
	cfg.DatabaseConfig.Host = getEnvOrDefault("DB_HOST", cfg.DatabaseConfig.Host)
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DB_PORT", cfg.DatabaseConfig.Port)
	cfg.DatabaseConfig.User = getEnvOrDefault("DB_USER", cfg.DatabaseConfig.User)
	cfg.DatabaseConfig.Password = getEnvOrDefault("DB_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnvOrDefault("DB_NAME", cfg.DatabaseConfig.Database)
	cfg.DatabaseConfig.SSLMode = getEnvOrDefault("DB_SSLMODE", cfg.DatabaseConfig.SSLMode)

	// Redis config
	cfg.RedisConfig.Enabled = getEnvBoolOrDefault("REDIS_ENABLED", cfg.RedisConfig.Enabled)
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", cfg.RedisConfig.Address)
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)
	cfg.RedisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", cfg.RedisConfig.PoolSize)

	// Vault config
	cfg.VaultConfig.Enabled = getEnvBoolOrDefault("VAULT_ENABLED", cfg.VaultConfig.Enabled)
	cfg.VaultConfig.Address = getEnvOrDefault("VAULT_ADDR", cfg.VaultConfig.Address)
	cfg.VaultConfig.Token = getEnvOrDefault("VAULT_TOKEN", cfg.VaultConfig.Token)
	cfg.VaultConfig.MountPath = getEnvOrDefault("VAULT_MOUNT_PATH", cfg.VaultConfig.MountPath)
	cfg.VaultConfig.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", cfg.VaultConfig.SecretPath)
	cfg.VaultConfig.TLSEnabled = getEnvBoolOrDefault("VAULT_TLS_ENABLED", cfg.VaultConfig.TLSEnabled)
	cfg.VaultConfig.CACert = getEnvOrDefault("VAULT_CACERT", cfg.VaultConfig.CACert)

	// Logging config
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", cfg.LoggingConfig.Level)
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", cfg.LoggingConfig.Output)
	cfg.LoggingConfig.JSONFormat = getEnvBoolOrDefault("LOG_JSON", cfg.LoggingConfig.JSONFormat)
	cfg.LoggingConfig.WithCaller = getEnvBoolOrDefault("LOG_CALLER", cfg.LoggingConfig.WithCaller)

	// Scanner config
	cfg.ScannerConfig.Enabled = getEnvBoolOrDefault("SCANNER_ENABLED", cfg.ScannerConfig.Enabled)
	cfg.ScannerConfig.ScanInterval = getEnvIntOrDefault("SCAN_INTERVAL", cfg.ScannerConfig.ScanInterval)
	cfg.ScannerConfig.WorkerCount = getEnvIntOrDefault("SCANNER_WORKERS", cfg.ScannerConfig.WorkerCount)
	cfg.ScannerConfig.AlertCooldown = getEnvIntOrDefault("ALERT_COOLDOWN", cfg.ScannerConfig.AlertCooldown)
	cfg.ScannerConfig.AlertOnWatch = getEnvBoolOrDefault("ALERT_ON_WATCH", cfg.ScannerConfig.AlertOnWatch)
	cfg.ScannerConfig.PersistRuns = getEnvBoolOrDefault("SCANNER_PERSIST_RUNS", cfg.ScannerConfig.PersistRuns)

	// Watchlist from environment: comma-separated tickers
	if raw := os.Getenv("WATCHLIST"); raw != "" {
		tickers := make([]string, 0)
		for _, t := range strings.Split(raw, ",") {
			t = strings.ToUpper(strings.TrimSpace(t))
			if t != "" {
				tickers = append(tickers, t)
			}
		}
		if len(tickers) > 0 {
			cfg.WatchlistConfig.Tickers = tickers
		}
	}

	// Feeds config
	cfg.FeedsConfig.Chart.BaseURL = getEnvOrDefault("CHART_BASE_URL", cfg.FeedsConfig.Chart.BaseURL)
	cfg.FeedsConfig.Chart.IndexSymbol = getEnvOrDefault("MACRO_INDEX_SYMBOL", cfg.FeedsConfig.Chart.IndexSymbol)
	cfg.FeedsConfig.Chart.RateSymbol = getEnvOrDefault("MACRO_RATE_SYMBOL", cfg.FeedsConfig.Chart.RateSymbol)
	cfg.FeedsConfig.News.FeedURL = getEnvOrDefault("NEWS_FEED_URL", cfg.FeedsConfig.News.FeedURL)
	cfg.FeedsConfig.Options.BaseURL = getEnvOrDefault("OPTIONS_BASE_URL", cfg.FeedsConfig.Options.BaseURL)

	// Gate thresholds
	cfg.GatesConfig.News.BlockThreshold = getEnvFloatOrDefault("NEWS_BLOCK_THRESHOLD", cfg.GatesConfig.News.BlockThreshold)
	cfg.GatesConfig.Options.MaxIVRank = getEnvFloatOrDefault("OPTIONS_MAX_IV_RANK", cfg.GatesConfig.Options.MaxIVRank)
	cfg.GatesConfig.Support.MaxSupportDistance = getEnvFloatOrDefault("SUPPORT_MAX_DISTANCE", cfg.GatesConfig.Support.MaxSupportDistance)

	// Notification config
	cfg.NotificationConfig.Enabled = getEnvBoolOrDefault("NOTIFICATIONS_ENABLED", cfg.NotificationConfig.Enabled)
	cfg.NotificationConfig.Telegram.Enabled = getEnvBoolOrDefault("TELEGRAM_ENABLED", cfg.NotificationConfig.Telegram.Enabled)
	cfg.NotificationConfig.Telegram.BotToken = getEnvOrDefault("TELEGRAM_BOT_TOKEN", cfg.NotificationConfig.Telegram.BotToken)
	cfg.NotificationConfig.Telegram.ChatID = getEnvOrDefault("TELEGRAM_CHAT_ID", cfg.NotificationConfig.Telegram.ChatID)
	cfg.NotificationConfig.Discord.Enabled = getEnvBoolOrDefault("DISCORD_ENABLED", cfg.NotificationConfig.Discord.Enabled)
	cfg.NotificationConfig.Discord.WebhookURL = getEnvOrDefault("DISCORD_WEBHOOK_URL", cfg.NotificationConfig.Discord.WebhookURL)
}

// Validate rejects configurations that cannot produce a correct run. Every
// failure wraps market.ErrConfiguration and is fatal at startup.
func (c *Config) Validate() error {
	if c.ServerConfig.Port < 1 || c.ServerConfig.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", market.ErrConfiguration, c.ServerConfig.Port)
	}

	if c.AuthConfig.Enabled {
		if c.AuthConfig.JWTSecret == "" {
			return fmt.Errorf("%w: auth enabled but AUTH_JWT_SECRET is empty", market.ErrConfiguration)
		}
		if len(c.AuthConfig.JWTSecret) < 32 {
			return fmt.Errorf("%w: AUTH_JWT_SECRET must be at least 32 characters", market.ErrConfiguration)
		}
		if c.AuthConfig.Username == "" {
			return fmt.Errorf("%w: auth enabled but AUTH_USERNAME is empty", market.ErrConfiguration)
		}
		if c.AuthConfig.Password == "" && c.AuthConfig.PasswordHash == "" {
			return fmt.Errorf("%w: auth enabled but no operator password or hash set", market.ErrConfiguration)
		}
	}

	if len(c.WatchlistConfig.Tickers) == 0 {
		return fmt.Errorf("%w: watchlist is empty", market.ErrConfiguration)
	}
	seen := make(map[string]bool, len(c.WatchlistConfig.Tickers))
	for _, t := range c.WatchlistConfig.Tickers {
		if t == "" {
			return fmt.Errorf("%w: watchlist contains an empty ticker", market.ErrConfiguration)
		}
		if seen[t] {
			return fmt.Errorf("%w: watchlist ticker %s duplicated", market.ErrConfiguration, t)
		}
		seen[t] = true
	}

	for _, g := range c.WatchlistConfig.Groups {
		if g.OversoldRSI <= 0 || g.OverboughtRSI >= 100 || g.OversoldRSI >= g.OverboughtRSI {
			return fmt.Errorf("%w: volatility group %q has invalid RSI bounds %.1f/%.1f",
				market.ErrConfiguration, g.Name, g.OversoldRSI, g.OverboughtRSI)
		}
	}

	if c.AnalysisConfig.HighMinTouches < c.AnalysisConfig.MediumMinTouches {
		return fmt.Errorf("%w: high tier cutoff %d below medium tier cutoff %d",
			market.ErrConfiguration, c.AnalysisConfig.HighMinTouches, c.AnalysisConfig.MediumMinTouches)
	}
	if c.AnalysisConfig.MediumMinTouches < 1 {
		return fmt.Errorf("%w: medium tier cutoff must be at least 1", market.ErrConfiguration)
	}
	if c.AnalysisConfig.ClusterTolerance <= 0 || c.AnalysisConfig.ClusterTolerance >= 1 {
		return fmt.Errorf("%w: cluster tolerance %.4f outside (0, 1)", market.ErrConfiguration, c.AnalysisConfig.ClusterTolerance)
	}

	if c.GatesConfig.Macro.CrashThreshold >= 0 {
		return fmt.Errorf("%w: crash threshold %.3f must be negative", market.ErrConfiguration, c.GatesConfig.Macro.CrashThreshold)
	}
	switch market.StrengthTier(c.GatesConfig.Support.MinBlockingStrength) {
	case market.StrengthLow, market.StrengthMedium, market.StrengthHigh:
	default:
		return fmt.Errorf("%w: unknown blocking strength %q", market.ErrConfiguration, c.GatesConfig.Support.MinBlockingStrength)
	}

	if c.ScannerConfig.LookbackDays < market.MinHistoryBars {
		return fmt.Errorf("%w: lookback %d days cannot supply the %d bars the pipeline needs",
			market.ErrConfiguration, c.ScannerConfig.LookbackDays, market.MinHistoryBars)
	}

	return nil
}

// DefaultWatchlist returns the seven large-cap tickers scanned out of the box.
func DefaultWatchlist() []string {
	return []string{"AAPL", "MSFT", "NVDA", "TSLA", "META", "AMZN", "GOOGL"}
}

// DefaultVolatilityGroups returns the standard RSI threshold groups. High-beta
// names (group A) demand deeper oversold readings than the steadier group C.
func DefaultVolatilityGroups() []VolatilityGroup {
	return []VolatilityGroup{
		{Name: "A", Tickers: []string{"NVDA", "TSLA"}, OversoldRSI: 25, OverboughtRSI: 65},
		{Name: "B", Tickers: []string{"META", "AMZN", "GOOGL"}, OversoldRSI: 30, OverboughtRSI: 70},
		{Name: "C", Tickers: []string{"AAPL", "MSFT"}, OversoldRSI: 35, OverboughtRSI: 75},
	}
}

// OversoldByTicker flattens the volatility groups into a per-ticker oversold
// threshold map for the evaluator.
func (w WatchlistConfig) OversoldByTicker() map[string]float64 {
	out := make(map[string]float64)
	for _, g := range w.Groups {
		for _, t := range g.Tickers {
			out[t] = g.OversoldRSI
		}
	}
	return out
}

// OverboughtByTicker flattens the volatility groups into a per-ticker
// overbought threshold map.
func (w WatchlistConfig) OverboughtByTicker() map[string]float64 {
	out := make(map[string]float64)
	for _, g := range w.Groups {
		for _, t := range g.Tickers {
			out[t] = g.OverboughtRSI
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GenerateSampleConfig creates a sample configuration file
func GenerateSampleConfig(filename string) error {
	cfg := defaultConfig()
	cfg.NotificationConfig = NotificationConfig{
		Enabled: false,
		Telegram: TelegramConfig{
			Enabled:  false,
			BotToken: "",
			ChatID:   "",
		},
		Discord: DiscordConfig{
			Enabled:    false,
			WebhookURL: "",
		},
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}
