package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type SourceConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Sources struct {
		Timeout         time.Duration `yaml:"timeout"`
		SpreadThreshold float64       `yaml:"spread_threshold"`
		Binance         SourceConfig  `yaml:"binance"`
		Coinbase        SourceConfig  `yaml:"coinbase"`
		Kraken          SourceConfig  `yaml:"kraken"`
		CoinGecko       SourceConfig  `yaml:"coingecko"`
		RateLimit       struct {
			Capacity     float64 `yaml:"capacity"`
			RefillPerSec float64 `yaml:"refill_per_sec"`
		} `yaml:"rate_limit"`
	} `yaml:"sources"`
	Market struct {
		SnapshotTTL        time.Duration `yaml:"snapshot_ttl"`
		ZoneTopK           int           `yaml:"zone_top_k"`
		CandleLookback     int           `yaml:"candle_lookback"`
		OrderBookDepth     int           `yaml:"orderbook_depth"`
		AllowStoreFallback bool          `yaml:"allow_store_fallback"`
	} `yaml:"market"`
	Stream struct {
		Enabled        bool          `yaml:"enabled"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		MaxQuoteAge    time.Duration `yaml:"max_quote_age"`
	} `yaml:"stream"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host"`
		Port        int           `yaml:"port"`
		Database    string        `yaml:"database"`
		User        string        `yaml:"user"`
		Password    string        `yaml:"password"`
		AsyncInsert bool          `yaml:"async_insert"`
		DialTimeout time.Duration `yaml:"dial_timeout"`
		ReadTimeout time.Duration `yaml:"read_timeout"`
	} `yaml:"clickhouse"`
	Cache struct {
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.Sources.CoinGecko.APIKey = v
	}
	if v := os.Getenv("STREAM_SYMBOLS"); v != "" {
		c.Stream.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535]")
	}
	if !c.Sources.Binance.Enabled && !c.Sources.Coinbase.Enabled &&
		!c.Sources.Kraken.Enabled && !c.Sources.CoinGecko.Enabled {
		return fmt.Errorf("at least one quote source must be enabled")
	}
	if c.Sources.SpreadThreshold < 0 || c.Sources.SpreadThreshold > 1 {
		return fmt.Errorf("sources.spread_threshold must be in [0, 1]")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic required when kafka is enabled")
		}
	}
	if c.ClickHouse.Enabled {
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host required when clickhouse is enabled")
		}
		if c.ClickHouse.Database == "" {
			return fmt.Errorf("clickhouse.database required when clickhouse is enabled")
		}
	}
	if c.Stream.Enabled && c.Stream.WebSocketURL == "" {
		return fmt.Errorf("stream.websocket_url required when stream is enabled")
	}
	return nil
}

// Apply defaults for optional knobs left unset.
func (c *Config) ApplyDefaults() {
	if c.Sources.Timeout <= 0 {
		c.Sources.Timeout = 6 * time.Second
	}
	if c.Sources.SpreadThreshold == 0 {
		c.Sources.SpreadThreshold = 0.025
	}
	if c.Market.SnapshotTTL <= 0 {
		c.Market.SnapshotTTL = 30 * time.Second
	}
	if c.Market.ZoneTopK <= 0 {
		c.Market.ZoneTopK = 4
	}
	if c.Market.CandleLookback <= 0 {
		c.Market.CandleLookback = 200
	}
	if c.Market.OrderBookDepth <= 0 {
		c.Market.OrderBookDepth = 100
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 30 * time.Second
	}
	if c.Sources.RateLimit.Capacity <= 0 {
		c.Sources.RateLimit.Capacity = 10
	}
	if c.Sources.RateLimit.RefillPerSec <= 0 {
		c.Sources.RateLimit.RefillPerSec = 5
	}
}
