package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks configuration problems. Callers treat it as fatal before any work starts.
var ErrInvalid = errors.New("invalid configuration")

// Source types served by the engine.
const (
	SourceHTTP       = "http"
	SourceDonchian   = "donchian"
	SourceSMATrend   = "sma_trend"
	SourceRSIMeanRev = "rsi_meanrev"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Server      ServerConfig     `yaml:"server"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Logger      LoggerConfig     `yaml:"logger"`
	Sources     []SourceConfig   `yaml:"sources" validate:"required,min=1,dive"`
	Decision    DecisionConfig   `yaml:"decision"`
	Risk        RiskConfig       `yaml:"risk"`
	Backtest    BacktestConfig   `yaml:"backtest"`
	Prices      PricesConfig     `yaml:"prices"`
	RateLimit   RateLimitConfig  `yaml:"rate_limit"`
	Redis       RedisConfig      `yaml:"redis"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"200s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	CORS            bool          `yaml:"cors" default:"true"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type LoggerConfig struct {
	Level         string        `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format        string        `yaml:"format" default:"console" validate:"oneof=json console"`
	Output        string        `yaml:"output" default:"stdout"`
	CollectErrors bool          `yaml:"collect_errors"`
	Topic         string        `yaml:"topic" default:"tradesuite.logs"`
	FlushInterval time.Duration `yaml:"flush_interval" default:"30s"`
	Threshold     int           `yaml:"threshold" default:"100"`
}

// SourceConfig describes one signal source. HTTP sources need a URL; the others run in-process.
type SourceConfig struct {
	ID      string        `yaml:"id" validate:"required"`
	Type    string        `yaml:"type" default:"http" validate:"oneof=http donchian sma_trend rsi_meanrev"`
	URL     string        `yaml:"url" validate:"omitempty,url"`
	Timeout time.Duration `yaml:"timeout" default:"180s" validate:"gt=0"`
	// Params tunes in-process strategies, e.g. entry/exit/fast/slow/period.
	Params map[string]float64 `yaml:"params"`
}

type DecisionConfig struct {
	MinConfidence  float64 `yaml:"min_confidence" default:"0.7" validate:"gte=0,lte=1"`
	QuorumFraction float64 `yaml:"quorum_fraction" default:"0.5" validate:"gte=0,lt=1"`
	MinHoldingDays int     `yaml:"min_holding_days" default:"7" validate:"gte=0"`
	// LookbackBars is how much history the live path loads before deciding.
	LookbackBars int `yaml:"lookback_bars" default:"300" validate:"gt=0"`
}

type RiskConfig struct {
	ATRPeriod          int     `yaml:"atr_period" default:"14" validate:"gt=0"`
	StopMultiplier     float64 `yaml:"stop_multiplier" default:"2" validate:"gt=0"`
	TakeProfitMultiple float64 `yaml:"take_profit_multiple" default:"1.5" validate:"gt=0"`
	FallbackStopPct    float64 `yaml:"fallback_stop_pct" default:"0.025" validate:"gt=0,lt=1"`
	RiskFraction       float64 `yaml:"risk_fraction" default:"0.02" validate:"gt=0,lte=1"`
	MaxExposure        float64 `yaml:"max_exposure" default:"0.95" validate:"gt=0,lte=1"`
}

type BacktestConfig struct {
	Symbols        []string `yaml:"symbols" validate:"dive,required"`
	Start          string   `yaml:"start" default:"2020-01-01" validate:"datetime=2006-01-02"`
	End            string   `yaml:"end" validate:"omitempty,datetime=2006-01-02"`
	WindowSize     int      `yaml:"window_size" default:"252" validate:"gt=0"`
	StepSize       int      `yaml:"step_size" default:"21" validate:"gt=0"`
	InitialCapital float64  `yaml:"initial_capital" default:"100000" validate:"gt=0"`
	CommissionRate float64  `yaml:"commission_rate" default:"0.001" validate:"gte=0,lt=1"`
	PeriodsPerYear float64  `yaml:"periods_per_year" default:"252" validate:"gt=0"`
	OutputDir      string   `yaml:"output_dir" default:"outputs"`
	Concurrency    int      `yaml:"concurrency" default:"4" validate:"gt=0"`
	Sinks          []string `yaml:"sinks" default:"[\"file\"]" validate:"dive,oneof=file clickhouse kafka"`
}

type PricesConfig struct {
	Provider string        `yaml:"provider" default:"http" validate:"oneof=http clickhouse"`
	BaseURL  string        `yaml:"base_url" default:"http://localhost:8000"`
	Timeout  time.Duration `yaml:"timeout" default:"30s"`
	Table    string        `yaml:"table" default:"tradesuite.daily_bars"`
	Cache    struct {
		Enabled bool          `yaml:"enabled" default:"true"`
		Backend string        `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
		TTL     time.Duration `yaml:"ttl" default:"1h"`
		MaxSize int           `yaml:"max_size" default:"256"`
		Cleanup time.Duration `yaml:"cleanup_interval" default:"1m"`
	} `yaml:"cache"`
}

type RateLimitConfig struct {
	Capacity     float64 `yaml:"capacity" default:"20"`
	RefillPerSec float64 `yaml:"refill_per_sec" default:"5"`
}

type RedisConfig struct {
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"tradesuite"`
	// Pool settings for the go-redis client.
	PoolSize     int           `yaml:"pool_size" default:"10"`
	MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
	PoolTimeout  time.Duration `yaml:"pool_timeout" default:"30s"`
}

type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	RequiredAcks int      `yaml:"required_acks" default:"-1"`
	Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
	Topics       struct {
		Decisions string `yaml:"decisions" default:"tradesuite.decisions"`
		Backtests string `yaml:"backtests" default:"tradesuite.backtests"`
	} `yaml:"topics"`
	Producer struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"50ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
}

type ClickHouseConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"tradesuite"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
}

var validate = validator.New()

// Default returns a configuration populated only from struct defaults.
func Default() *Config {
	c := &Config{}
	_ = defaults.Set(c)
	return c
}

// Load reads a YAML file, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrInvalid, err)
	}
	if err := c.applyDefaults(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadWithEnv loads .env (if present), the YAML file, then applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Backtest.Symbols = splitList(v)
	}
	if v := os.Getenv("PRICE_API_URL"); v != "" {
		c.Prices.BaseURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := os.Getenv("MIN_CONFIDENCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: MIN_CONFIDENCE: %v", ErrInvalid, err)
		}
		c.Decision.MinConfidence = f
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("%w: defaults: %v", ErrInvalid, err)
	}
	for i := range c.Sources {
		if err := defaults.Set(&c.Sources[i]); err != nil {
			return fmt.Errorf("%w: defaults: %v", ErrInvalid, err)
		}
	}
	return nil
}

// Validate runs tag validation plus the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if c.Backtest.StepSize > c.Backtest.WindowSize {
		return fmt.Errorf("%w: backtest.step_size (%d) must not exceed backtest.window_size (%d)",
			ErrInvalid, c.Backtest.StepSize, c.Backtest.WindowSize)
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for _, s := range c.Sources {
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: duplicate source id %q", ErrInvalid, s.ID)
		}
		seen[s.ID] = struct{}{}
		if s.Type == SourceHTTP && s.URL == "" {
			return fmt.Errorf("%w: source %q of type http requires url", ErrInvalid, s.ID)
		}
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: kafka.brokers required when kafka is enabled", ErrInvalid)
	}
	for _, sink := range c.Backtest.Sinks {
		if sink == "kafka" && !c.Kafka.Enabled {
			return fmt.Errorf("%w: backtest sink kafka requires kafka.enabled", ErrInvalid)
		}
		if sink == "clickhouse" && !c.ClickHouse.Enabled {
			return fmt.Errorf("%w: backtest sink clickhouse requires clickhouse.enabled", ErrInvalid)
		}
	}
	if c.Prices.Provider == "clickhouse" && !c.ClickHouse.Enabled {
		return fmt.Errorf("%w: prices.provider clickhouse requires clickhouse.enabled", ErrInvalid)
	}
	return nil
}

// BacktestRange parses the configured backtest dates. An empty end means now.
func (c *Config) BacktestRange() (time.Time, time.Time, error) {
	start, err := time.Parse(time.DateOnly, c.Backtest.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: backtest.start: %v", ErrInvalid, err)
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	if c.Backtest.End != "" {
		end, err = time.Parse(time.DateOnly, c.Backtest.End)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: backtest.end: %v", ErrInvalid, err)
		}
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: backtest.end must be after backtest.start", ErrInvalid)
	}
	return start, end, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
