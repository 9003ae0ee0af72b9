package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	Dataset     DatasetConfig    `mapstructure:"dataset"`
	Matcher     MatcherConfig    `mapstructure:"matcher"`
	MatchCache  MatchCacheConfig `mapstructure:"match_cache"`
	Enrichment  EnrichmentConfig `mapstructure:"enrichment"`
	Notify      NotifyConfig     `mapstructure:"notify"`
	Redis       RedisConfig      `mapstructure:"redis"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatasetConfig 食品資料集設定
type DatasetConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"` // json 或 sqlite
}

// MatcherConfig 模糊匹配設定
type MatcherConfig struct {
	TopK                int     `mapstructure:"top_k"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	OverlapWeight       float64 `mapstructure:"overlap_weight"`
	EditWeight          float64 `mapstructure:"edit_weight"`
}

// MatchCacheConfig 匹配結果快取設定
type MatchCacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	MaxSize int           `mapstructure:"max_size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// EnrichmentConfig 補全協調器設定
type EnrichmentConfig struct {
	WorkerCap    int `mapstructure:"worker_cap"`
	QueueWorkers int `mapstructure:"queue_workers"`
	QueueSize    int `mapstructure:"queue_size"`
}

// NotifyConfig 補全完成通知設定
type NotifyConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// RedisConfig Redis 儲存設定，停用時改用記憶體儲存
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件，不存在時沿用環境變數
	_ = godotenv.Load()

	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	viper.BindEnv("dataset.path", "DATASET_PATH")
	viper.BindEnv("dataset.format", "DATASET_FORMAT")
	viper.BindEnv("matcher.confidence_threshold", "MATCH_CONFIDENCE_THRESHOLD")
	viper.BindEnv("match_cache.enabled", "MATCH_CACHE_ENABLED")
	viper.BindEnv("notify.webhook_url", "NOTIFY_WEBHOOK_URL")
	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.addr", "REDIS_ADDR")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "nutrition-insight")

	// 伺服器設定
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// 資料集設定
	viper.SetDefault("dataset.path", "data/foods.json")
	viper.SetDefault("dataset.format", "json")

	// 匹配設定
	viper.SetDefault("matcher.top_k", 5)
	viper.SetDefault("matcher.confidence_threshold", 0.50)
	viper.SetDefault("matcher.overlap_weight", 0.6)
	viper.SetDefault("matcher.edit_weight", 0.4)

	// 匹配快取設定
	viper.SetDefault("match_cache.enabled", true)
	viper.SetDefault("match_cache.max_size", 1000)
	viper.SetDefault("match_cache.ttl", "24h")

	// 補全設定
	viper.SetDefault("enrichment.worker_cap", 8)
	viper.SetDefault("enrichment.queue_workers", 2)
	viper.SetDefault("enrichment.queue_size", 100)

	// 通知設定
	viper.SetDefault("notify.webhook_url", "")
	viper.SetDefault("notify.timeout", "10s")

	// Redis 設定
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	// 限流設定
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	viper.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證資料集設定
	if config.Dataset.Path == "" {
		return fmt.Errorf("dataset path is required")
	}
	if config.Dataset.Format != "json" && config.Dataset.Format != "sqlite" {
		return fmt.Errorf("invalid dataset format: %s", config.Dataset.Format)
	}

	// 驗證匹配設定
	if config.Matcher.TopK <= 0 {
		return fmt.Errorf("invalid matcher top k")
	}
	if config.Matcher.ConfidenceThreshold < 0 || config.Matcher.ConfidenceThreshold > 1 {
		return fmt.Errorf("invalid matcher confidence threshold")
	}
	if config.Matcher.OverlapWeight < 0 || config.Matcher.EditWeight < 0 {
		return fmt.Errorf("invalid matcher weights")
	}

	// 驗證匹配快取設定
	if config.MatchCache.Enabled {
		if config.MatchCache.MaxSize <= 0 {
			return fmt.Errorf("invalid match cache max size")
		}
		if config.MatchCache.TTL <= 0 {
			return fmt.Errorf("invalid match cache ttl")
		}
	}

	// 驗證補全設定
	if config.Enrichment.WorkerCap <= 0 {
		return fmt.Errorf("invalid enrichment worker cap")
	}
	if config.Enrichment.QueueWorkers <= 0 {
		return fmt.Errorf("invalid enrichment queue workers")
	}
	if config.Enrichment.QueueSize <= 0 {
		return fmt.Errorf("invalid enrichment queue size")
	}

	// 驗證 Redis 設定
	if config.Redis.Enabled && config.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when redis is enabled")
	}

	return nil
}
