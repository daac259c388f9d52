package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultUserAgent is the User-Agent string sent with every catalog and image request.
const DefaultUserAgent = "MasteraSet-ImageDownloader/1.2"

// APIKeyEnv is the environment variable holding the catalog API key.
const APIKeyEnv = "POKEMONTCG_API_KEY"

type Config struct {
	APIBaseURL            string   `mapstructure:"api_base_url"`
	APIKey                string   `mapstructure:"api_key"`
	UserAgent             string   `mapstructure:"user_agent"`
	ProxyConnectionString string   `mapstructure:"proxy_connection_string"`
	ClientTimeout         string   `mapstructure:"client_timeout"` // Go duration string like "30s", "2m", etc.
	OutputRoot            string   `mapstructure:"output_root"`
	SetIDs                []string `mapstructure:"set_ids"` // empty means every set in the catalog
	ImageSize             string   `mapstructure:"image_size"`
	Workers               int      `mapstructure:"workers"`
	PageSize              int      `mapstructure:"page_size"`
	PageDelay             string   `mapstructure:"page_delay"`
	MinFileSize           int64    `mapstructure:"min_file_size"` // existing files larger than this are skipped
	Retry                 struct {
		MaxAttempts int    `mapstructure:"max_attempts"`
		BaseDelay   string `mapstructure:"base_delay"`
		MaxDelay    string `mapstructure:"max_delay"`
		JitterStep  string `mapstructure:"jitter_step"`
	} `mapstructure:"retry"`
	Cache struct {
		Enabled       bool   `mapstructure:"enabled"`
		Provider      string `mapstructure:"provider"` // "memory" or "redis"
		Size          int    `mapstructure:"size"`
		TTL           string `mapstructure:"ttl"`
		RedisAddress  string `mapstructure:"redis_address"`
		RedisPassword string `mapstructure:"redis_password"`
		RedisDB       int    `mapstructure:"redis_db"`
	} `mapstructure:"cache"`
	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Address string `mapstructure:"address"`
		Port    int    `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Sentry struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"sentry"`
	LogLevel string `mapstructure:"log_level"`
}

var (
	globalConfig *Config
	logger       zerolog.Logger
)

func init() {
	// Initialize zerolog with console writer for human-readable output
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stdout,
		NoColor: false,
	}).With().Timestamp().Logger()

	config, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	level := zerolog.InfoLevel
	if config.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", config.LogLevel).Msg("Invalid log level, using default 'info'")
		}
	}

	zerolog.SetGlobalLevel(level)
	logger = logger.Level(level)

	logger.Debug().Str("level", level.String()).Msg("Logging configured")
	globalConfig = config
}

func setDefaults() {
	viper.SetDefault("api_base_url", "https://api.pokemontcg.io/v2")
	viper.SetDefault("api_key", "")
	viper.SetDefault("user_agent", DefaultUserAgent)
	viper.SetDefault("proxy_connection_string", "")
	viper.SetDefault("client_timeout", "120s")
	viper.SetDefault("output_root", "./images/pokemon")
	viper.SetDefault("set_ids", []string{"base1"})
	viper.SetDefault("image_size", "small")
	viper.SetDefault("workers", 8)
	viper.SetDefault("page_size", 100)
	viper.SetDefault("page_delay", "250ms")
	viper.SetDefault("min_file_size", 10_000)
	viper.SetDefault("retry.max_attempts", 6)
	viper.SetDefault("retry.base_delay", "1s")
	viper.SetDefault("retry.max_delay", "20s")
	viper.SetDefault("retry.jitter_step", "200ms")
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.provider", "memory")
	viper.SetDefault("cache.size", 500)
	viper.SetDefault("cache.ttl", "1h")
	viper.SetDefault("cache.redis_address", "localhost:6379")
	viper.SetDefault("cache.redis_password", "")
	viper.SetDefault("cache.redis_db", 0)
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.address", "localhost")
	viper.SetDefault("metrics.port", 9090)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("log_level", "info")
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variable support
	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = viper.BindEnv("log_level", "LOG_LEVEL")
	_ = viper.BindEnv("api_key", APIKeyEnv)

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.APIKey = strings.TrimSpace(config.APIKey)
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}

	return &config, nil
}

func GetConfig() *Config {
	return globalConfig
}

func GetUserAgent() string {
	if globalConfig != nil && globalConfig.UserAgent != "" {
		return globalConfig.UserAgent
	}

	return DefaultUserAgent
}

func GetLogger() zerolog.Logger {
	return logger
}

// ParseDuration parses a Go duration string, falling back to def when the value is
// empty or invalid. Invalid values are logged with the offending field name.
func ParseDuration(field, value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		logger.Warn().Err(err).Str("field", field).Str("value", value).Dur("default", def).Msg("Invalid duration, using default")
		return def
	}
	return d
}
