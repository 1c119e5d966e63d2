package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	TelegramBotToken    string `yaml:"telegram_bot_token"`
	TelegramAlertsGroup string `yaml:"telegram_alerts_group_id"`
	OpenAIAPIKey        string `yaml:"openai_api_key"`
	OpenAIModel         string `yaml:"openai_model"`
	TwitterConsumerKey  string `yaml:"twitter_consumer_key"`
	TwitterConsumerSec  string `yaml:"twitter_consumer_secret"`
	TwitterAccessToken  string `yaml:"twitter_access_token"`
	TwitterAccessSecret string `yaml:"twitter_access_token_secret"`

	JupiterBaseURL     string  `yaml:"jupiter_base_url"`
	JupiterTimeoutSecs int     `yaml:"jupiter_timeout_secs"`
	JupiterRatePerSec  float64 `yaml:"jupiter_rate_per_sec"`

	DiscoveryIntervalSecs int  `yaml:"discovery_interval_secs"`
	PostingIntervalSecs   int  `yaml:"posting_interval_secs"`
	DiscoveryFetchLimit   int  `yaml:"discovery_fetch_limit"`
	DiscoveryAutostart    bool `yaml:"discovery_autostart"`
	PostingAutostart      bool `yaml:"posting_autostart"`

	HistoryBackend string `yaml:"history_backend"`
	HistoryPath    string `yaml:"history_path"`
	SQLitePath     string `yaml:"sqlite_path"`
	DatabaseURL    string `yaml:"database_url"`
	RedisURL       string `yaml:"redis_url"`
	TokenCacheSecs int    `yaml:"token_cache_ttl_secs"`

	HTTPPort int    `yaml:"http_port"`
	APIKey   string `yaml:"api_key"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	TracingEnabled bool   `yaml:"tracing_enabled"`
	OTLPEndpoint   string `yaml:"otel_exporter_otlp_endpoint"`
}

var historyBackends = map[string]bool{"file": true, "sqlite": true, "redis": true, "postgres": true, "memory": true}

func defaults() *Config {
	return &Config{
		OpenAIModel:           "gpt-4o-mini",
		JupiterBaseURL:        "https://lite-api.jup.ag",
		JupiterTimeoutSecs:    10,
		JupiterRatePerSec:     2,
		DiscoveryIntervalSecs: 300,
		PostingIntervalSecs:   1800,
		DiscoveryFetchLimit:   50,
		DiscoveryAutostart:    true,
		PostingAutostart:      true,
		HistoryBackend:        "file",
		HistoryPath:           "data",
		SQLitePath:            "data/solhype.db",
		RedisURL:              "localhost:6379",
		TokenCacheSecs:        120,
		HTTPPort:              8080,
		LogLevel:              "info",
		LogFormat:             "console",
		TracingEnabled:        true,
		OTLPEndpoint:          "localhost:4317",
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// named by CONFIG_FILE, then environment variables.
func Load() *Config {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, cfg); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("ignoring config file")
		}
	}

	envString("TELEGRAM_BOT_TOKEN", &cfg.TelegramBotToken)
	envString("TELEGRAM_ALERTS_GROUP_ID", &cfg.TelegramAlertsGroup)
	envString("OPENAI_API_KEY", &cfg.OpenAIAPIKey)
	envString("OPENAI_MODEL", &cfg.OpenAIModel)
	envString("TWITTER_CONSUMER_KEY", &cfg.TwitterConsumerKey)
	envString("TWITTER_CONSUMER_SECRET", &cfg.TwitterConsumerSec)
	envString("TWITTER_ACCESS_TOKEN", &cfg.TwitterAccessToken)
	envString("TWITTER_ACCESS_TOKEN_SECRET", &cfg.TwitterAccessSecret)
	envString("JUPITER_BASE_URL", &cfg.JupiterBaseURL)
	envPositiveInt("JUPITER_TIMEOUT_SECS", &cfg.JupiterTimeoutSecs)
	envPositiveFloat("JUPITER_RATE_PER_SEC", &cfg.JupiterRatePerSec)
	envPositiveInt("DISCOVERY_INTERVAL_SECS", &cfg.DiscoveryIntervalSecs)
	envPositiveInt("POSTING_INTERVAL_SECS", &cfg.PostingIntervalSecs)
	envPositiveInt("DISCOVERY_FETCH_LIMIT", &cfg.DiscoveryFetchLimit)
	envBool("DISCOVERY_AUTOSTART", &cfg.DiscoveryAutostart)
	envBool("POSTING_AUTOSTART", &cfg.PostingAutostart)
	envString("HISTORY_BACKEND", &cfg.HistoryBackend)
	envString("HISTORY_PATH", &cfg.HistoryPath)
	envString("SQLITE_PATH", &cfg.SQLitePath)
	envString("DATABASE_URL", &cfg.DatabaseURL)
	envString("REDIS_URL", &cfg.RedisURL)
	envPositiveInt("TOKEN_CACHE_TTL_SECS", &cfg.TokenCacheSecs)
	envPositiveInt("HTTP_PORT", &cfg.HTTPPort)
	envString("API_KEY", &cfg.APIKey)
	envString("LOG_LEVEL", &cfg.LogLevel)
	envString("LOG_FORMAT", &cfg.LogFormat)
	envBool("TRACING_ENABLED", &cfg.TracingEnabled)
	envString("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.OTLPEndpoint)

	cfg.sanitize()
	cfg.HistoryBackend = strings.ToLower(cfg.HistoryBackend)
	if !historyBackends[cfg.HistoryBackend] {
		log.Warn().Str("backend", cfg.HistoryBackend).Msg("unsupported HISTORY_BACKEND, defaulting to file")
		cfg.HistoryBackend = "file"
	}
	if cfg.TelegramBotToken == "" {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set, chat commands disabled and alerts go to the log")
	}
	if cfg.TelegramAlertsGroup == "" {
		log.Warn().Msg("TELEGRAM_ALERTS_GROUP_ID not set, discovery alerts disabled")
	}
	if !cfg.TwitterConfigured() {
		log.Warn().Msg("Twitter credentials incomplete, posting loop disabled")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Info().Msg("OPENAI_API_KEY not set, tweets use the built-in template")
	}
	if cfg.HistoryBackend == "postgres" && cfg.DatabaseURL == "" {
		log.Warn().Msg("HISTORY_BACKEND=postgres but DATABASE_URL not set")
	}
	if cfg.APIKey == "" {
		log.Warn().Msg("API_KEY not set, loop control endpoints are unauthenticated")
	}

	return cfg
}

func (c *Config) TwitterConfigured() bool {
	return c.TwitterConsumerKey != "" && c.TwitterConsumerSec != "" &&
		c.TwitterAccessToken != "" && c.TwitterAccessSecret != ""
}

func (c *Config) DiscoveryInterval() time.Duration {
	return time.Duration(c.DiscoveryIntervalSecs) * time.Second
}

func (c *Config) PostingInterval() time.Duration {
	return time.Duration(c.PostingIntervalSecs) * time.Second
}

func (c *Config) JupiterTimeout() time.Duration {
	return time.Duration(c.JupiterTimeoutSecs) * time.Second
}

func (c *Config) TokenCacheTTL() time.Duration {
	return time.Duration(c.TokenCacheSecs) * time.Second
}

// sanitize resets non-positive numeric settings, which can only come from the
// config file, to their defaults.
func (c *Config) sanitize() {
	d := defaults()
	positiveInt("jupiter_timeout_secs", &c.JupiterTimeoutSecs, d.JupiterTimeoutSecs)
	positiveInt("discovery_interval_secs", &c.DiscoveryIntervalSecs, d.DiscoveryIntervalSecs)
	positiveInt("posting_interval_secs", &c.PostingIntervalSecs, d.PostingIntervalSecs)
	positiveInt("discovery_fetch_limit", &c.DiscoveryFetchLimit, d.DiscoveryFetchLimit)
	positiveInt("token_cache_ttl_secs", &c.TokenCacheSecs, d.TokenCacheSecs)
	positiveInt("http_port", &c.HTTPPort, d.HTTPPort)
	if !(c.JupiterRatePerSec > 0) {
		log.Warn().Str("key", "jupiter_rate_per_sec").Float64("value", c.JupiterRatePerSec).Float64("using", d.JupiterRatePerSec).Msg("invalid number setting")
		c.JupiterRatePerSec = d.JupiterRatePerSec
	}
}

func positiveInt(key string, dst *int, def int) {
	if *dst > 0 {
		return
	}
	log.Warn().Str("key", key).Int("value", *dst).Int("using", def).Msg("invalid integer setting")
	*dst = def
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func envString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envPositiveInt(key string, dst *int) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", v).Int("using", *dst).Msg("invalid integer setting")
		return
	}
	*dst = n
}

func envPositiveFloat(key string, dst *float64) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", v).Float64("using", *dst).Msg("invalid number setting")
		return
	}
	*dst = n
}

func envBool(key string, dst *bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Bool("using", *dst).Msg("invalid boolean setting")
		return
	}
	*dst = b
}
