package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// envPrefix namespaces the environment variables, e.g. ROLLBENCH_SERVER_PORT.
const envPrefix = "ROLLBENCH"

// Config is the complete harness configuration.
type Config struct {
	Benchmark BenchmarkConfig `yaml:"benchmark" envconfig:"BENCHMARK"`
	Data      DataConfig      `yaml:"data" envconfig:"DATA"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
}

// BenchmarkConfig controls the suite itself.
type BenchmarkConfig struct {
	// Window is the rolling window length in observations.
	Window int `yaml:"window" envconfig:"WINDOW" validate:"min=1"`
	// Workers is the pool size for the pooled strategies. Zero means
	// runtime.NumCPU().
	Workers int `yaml:"workers" envconfig:"WORKERS" validate:"min=0"`
	// Strategies to benchmark, in order.
	Strategies []string `yaml:"strategies" envconfig:"STRATEGIES" validate:"min=1,dive,oneof=sequential threading multiprocessing"`
	// Symbols for generated market data. Ignored when a market data file is
	// configured.
	Symbols []string `yaml:"symbols" envconfig:"SYMBOLS" validate:"min=1"`
	// SeriesLength is the number of observations per generated series.
	SeriesLength int `yaml:"series_length" envconfig:"SERIES_LENGTH" validate:"min=2"`
	// Seed drives generated series. Fixed by default so runs compare.
	Seed int64 `yaml:"seed" envconfig:"SEED"`
	// SampleInterval is the memory polling interval of the profiler.
	SampleInterval time.Duration `yaml:"sample_interval" envconfig:"SAMPLE_INTERVAL" validate:"min=1ms"`
}

// DataConfig points at optional input files. Empty paths select generated
// data and the built-in demo portfolio.
type DataConfig struct {
	MarketDataPath string `yaml:"market_data_path" envconfig:"MARKET_DATA_PATH"`
	PortfolioPath  string `yaml:"portfolio_path" envconfig:"PORTFOLIO_PATH"`
}

// ReportConfig controls output artifacts.
type ReportConfig struct {
	Dir     string   `yaml:"dir" envconfig:"DIR" validate:"required"`
	Formats []string `yaml:"formats" envconfig:"FORMATS" validate:"dive,oneof=markdown csv excel"`
}

// LoggingConfig controls the slog setup.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ServerConfig configures the HTTP server binary.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig is the request rate limit of the HTTP API.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"min=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"min=0"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Benchmark: BenchmarkConfig{
			Window:         20,
			Workers:        runtime.NumCPU(),
			Strategies:     []string{"sequential", "threading", "multiprocessing"},
			Symbols:        []string{"AAPL", "MSFT", "NVDA", "GOOG", "AMZN", "META", "TSLA", "AMD"},
			SeriesLength:   252,
			Seed:           42,
			SampleInterval: 50 * time.Millisecond,
		},
		Report: ReportConfig{
			Dir:     "reports",
			Formats: []string{"markdown", "csv"},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/rollbench.log",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   25,
			},
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path when
// one is given (or exists at the default location), then environment
// variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = "rollbench.yaml"
	}
	if raw, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("config validation failed: logging output %q needs a file path", c.Logging.Output)
	}
	return nil
}
