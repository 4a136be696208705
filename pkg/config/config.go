package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"1s"`
		BodyLimit       string        `yaml:"body_limit" default:"2M"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	Logging struct {
		Level     string `yaml:"level" default:"info"`
		Format    string `yaml:"format" default:"json"`
		Output    string `yaml:"output" default:"stdout"`
		Collector struct {
			Enabled       bool          `yaml:"enabled"`
			Topic         string        `yaml:"topic" default:"logs.errors"`
			FlushInterval time.Duration `yaml:"flush_interval" default:"10s"`
			MaxEntries    int           `yaml:"max_entries" default:"100"`
			MinLevel      string        `yaml:"min_level" default:"error"`
		} `yaml:"collector"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	// Backend selects where ingested observations go: "kafka" or "store".
	Backend struct {
		Type string `yaml:"type" default:"store"`
	} `yaml:"backend"`
	// Storage selects the observation store: "clickhouse" or "badger".
	Storage struct {
		Type string `yaml:"type" default:"badger"`
	} `yaml:"storage"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"observations"`
		EventsTopic  string   `yaml:"events_topic" default:"trend.events"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id" default:"trendpulse"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"observations.dlq"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"trendpulse"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Badger struct {
		Dir        string `yaml:"dir" default:"./data/observations"`
		InMemory   bool   `yaml:"in_memory"`
		SyncWrites bool   `yaml:"sync_writes"`
	} `yaml:"badger"`
	Redis struct {
		Enabled      bool          `yaml:"enabled"`
		Addr         string        `yaml:"addr" default:"localhost:6379"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db"`
		PoolSize     int           `yaml:"pool_size" default:"10"`
		MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
		PoolTimeout  time.Duration `yaml:"pool_timeout" default:"30s"`
	} `yaml:"redis"`
	Cache struct {
		TTL        time.Duration `yaml:"ttl" default:"5m"`
		MaxEntries int           `yaml:"max_entries" default:"1000"`
		Prefix     string        `yaml:"prefix" default:"trendpulse"`
		// LocalTTL caps entries in the in-process layer in front of Redis.
		LocalTTL        time.Duration `yaml:"local_ttl" default:"30s"`
		CleanupInterval time.Duration `yaml:"cleanup_interval" default:"1m"`
	} `yaml:"cache"`
	Queue struct {
		Enabled    bool          `yaml:"enabled"`
		Name       string        `yaml:"name" default:"recompute"`
		Workers    int           `yaml:"workers" default:"2"`
		MaxRetries int           `yaml:"max_retries" default:"3"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"10s"`
		JobTimeout time.Duration `yaml:"job_timeout" default:"30s"`
	} `yaml:"queue"`
	Feed struct {
		Enabled        bool          `yaml:"enabled"`
		URL            string        `yaml:"url"`
		Token          string        `yaml:"token"`
		Indicators     []string      `yaml:"indicators"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
		ThrottleWindow time.Duration `yaml:"throttle_window" default:"0s"`
		BufferSize     int           `yaml:"buffer_size" default:"1000"`
	} `yaml:"feed"`
	Estimator struct {
		Method           string        `yaml:"method" default:"sts"`
		Lookback         int           `yaml:"lookback" default:"120"`
		DashboardTimeout time.Duration `yaml:"dashboard_timeout" default:"5s"`
		RateLimit        struct {
			Capacity     float64 `yaml:"capacity" default:"20"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"5"`
		} `yaml:"rate_limit"`
	} `yaml:"estimator"`
	Narrator struct {
		URL      string        `yaml:"url"`
		Timeout  time.Duration `yaml:"timeout" default:"3s"`
		Attempts int           `yaml:"attempts" default:"2"`
	} `yaml:"narrator"`
}

// Default returns a configuration populated with default values only.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// An empty path starts from the defaults.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if path == "" {
		c, err = Default()
	} else {
		c, err = Load(path)
	}
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("TRENDPULSE_BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("TRENDPULSE_STORAGE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("FEED_URL"); v != "" {
		c.Feed.URL = v
	}
	if v := os.Getenv("FEED_INDICATORS"); v != "" {
		c.Feed.Indicators = strings.Split(v, ",")
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Storage.Type != "clickhouse" && c.Storage.Type != "badger" {
		return fmt.Errorf("storage.type must be 'clickhouse' or 'badger', got '%s'", c.Storage.Type)
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "store" {
		return fmt.Errorf("backend.type must be 'kafka' or 'store', got '%s'", c.Backend.Type)
	}
	if (c.Backend.Type == "kafka" || c.Kafka.Consumer.Enabled) && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty")
	}
	if c.Feed.Enabled {
		if c.Feed.URL == "" {
			return fmt.Errorf("feed.url is required when feed is enabled")
		}
		if len(c.Feed.Indicators) == 0 {
			return fmt.Errorf("feed.indicators cannot be empty")
		}
	}
	if c.Queue.Enabled && c.Queue.Workers <= 0 {
		return fmt.Errorf("queue.workers must be positive")
	}
	if c.Estimator.Method != "sts" && c.Estimator.Method != "simple" {
		return fmt.Errorf("estimator.method must be 'sts' or 'simple', got '%s'", c.Estimator.Method)
	}
	if c.Estimator.Lookback < 3 {
		return fmt.Errorf("estimator.lookback must be at least 3")
	}
	return nil
}
