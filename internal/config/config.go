package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"optionrank/internal/liquidity"
	"optionrank/internal/risk"
	"optionrank/internal/scoring"
	"optionrank/internal/volatility"
	"optionrank/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Engine    EngineConfig    `yaml:"engine" envconfig:"ENGINE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	MaxRequestBytes int64         `yaml:"max_request_bytes" envconfig:"MAX_REQUEST_BYTES"`
}

// SecurityConfig contains request guarding configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"` // json or text
	Output   string `yaml:"output" envconfig:"OUTPUT"` // console, file or both
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ChainsDir  string `yaml:"chains_dir" envconfig:"CHAINS_DIR"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// EngineConfig holds the scoring knobs. Fractions throughout except the
// assignment ceiling, which is 0-100 like the probability it bounds.
type EngineConfig struct {
	RiskFreeRate       float64       `yaml:"risk_free_rate" envconfig:"RISK_FREE_RATE"`
	ContractMultiplier float64       `yaml:"contract_multiplier" envconfig:"CONTRACT_MULTIPLIER"`
	ScoreScale         float64       `yaml:"score_scale" envconfig:"SCORE_SCALE"`
	MaxConcurrency     int           `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY"`
	AssignmentCeiling  float64       `yaml:"assignment_ceiling" envconfig:"ASSIGNMENT_CEILING"`
	MinLiquidity       float64       `yaml:"min_liquidity" envconfig:"MIN_LIQUIDITY"`
	MinAnnualReturn    float64       `yaml:"min_annual_return" envconfig:"MIN_ANNUAL_RETURN"`
	MaxSpreadRatio     float64       `yaml:"max_spread_ratio" envconfig:"MAX_SPREAD_RATIO"`
	MinOpenInterest    int64         `yaml:"min_open_interest" envconfig:"MIN_OPEN_INTEREST"`
	VolatilityMethod   string        `yaml:"volatility_method" envconfig:"VOLATILITY_METHOD"`
	EWMALambda         float64       `yaml:"ewma_lambda" envconfig:"EWMA_LAMBDA"`
	TailMultiplier     float64       `yaml:"tail_multiplier" envconfig:"TAIL_MULTIPLIER"`
	Filters            FiltersConfig `yaml:"filters" envconfig:"FILTERS"`
}

// FiltersConfig holds the default range filters of a scoring request
type FiltersConfig struct {
	MinAnnualReturn float64 `yaml:"min_annual_return" envconfig:"MIN_ANNUAL_RETURN"`
	MaxAnnualReturn float64 `yaml:"max_annual_return" envconfig:"MAX_ANNUAL_RETURN"`
	MinPremium      float64 `yaml:"min_premium" envconfig:"MIN_PREMIUM"`
	MaxPremium      float64 `yaml:"max_premium" envconfig:"MAX_PREMIUM"`
	MaxSpread       float64 `yaml:"max_spread" envconfig:"MAX_SPREAD"`
	PremiumBasis    string  `yaml:"premium_basis" envconfig:"PREMIUM_BASIS"`
}

// Load builds the configuration from defaults, then the YAML file if one
// exists, then OPTIONRANK_* environment variables.
func Load() (*Config, error) {
	return LoadFile(configFilePath())
}

// LoadFile is Load with an explicit YAML path; an empty path skips the file
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML keys present in filePath onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// configFilePath returns the explicit config path, else the default one if
// it exists, else ""
func configFilePath() string {
	if p := os.Getenv(ConfigFileEnv); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// validate validates the configuration
func (c *Config) validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server read and write timeouts must be positive"))
	}
	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate limit rps and burst must be positive"))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unsupported log format: %q", c.Logging.Format))
	}
	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		errs = append(errs, fmt.Errorf("unsupported log output: %q", c.Logging.Output))
	}

	if _, err := volatility.ParseMethod(c.Engine.VolatilityMethod); err != nil {
		errs = append(errs, err)
	}
	if c.Engine.MaxConcurrency < 0 {
		errs = append(errs, fmt.Errorf("engine max concurrency must not be negative: %d", c.Engine.MaxConcurrency))
	}
	if err := c.Engine.ScoringParams().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("engine: %w", err))
	}
	switch c.Engine.Filters.PremiumBasis {
	case "contract", "share":
	default:
		errs = append(errs, fmt.Errorf("unsupported premium basis: %q", c.Engine.Filters.PremiumBasis))
	}

	return errors.Join(errs...)
}

// ScoringParams maps the engine section onto the scorer parameters
func (e EngineConfig) ScoringParams() scoring.Params {
	p := scoring.DefaultParams()
	p.ContractMultiplier = e.ContractMultiplier
	p.ScoreScale = e.ScoreScale
	p.Veto.AssignmentCeiling = e.AssignmentCeiling
	p.Veto.MinLiquidity = e.MinLiquidity
	p.Veto.MinAnnualReturn = e.MinAnnualReturn
	p.Veto.MaxSpreadRatio = e.MaxSpreadRatio
	p.Veto.MinOpenInterest = e.MinOpenInterest
	p.Liquidity.MinOpenInterest = e.MinOpenInterest
	if m, err := volatility.ParseMethod(e.VolatilityMethod); err == nil {
		p.Volatility.Method = m
	}
	p.Volatility.Lambda = e.EWMALambda
	p.Risk.TailMultiplier = e.TailMultiplier
	return p
}

// Default returns default configuration
func Default() *Config {
	scoringDefaults := scoring.DefaultParams()
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			RequestTimeout:  DefaultRequestTimeout,
			MaxRequestBytes: DefaultMaxRequestBytes,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     false,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimitRPS,
				Burst:   DefaultRateLimitBurst,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			ChainsDir:  DefaultChainsDir,
			ReportsDir: DefaultReportsDir,
			LogsDir:    DefaultLogsDir,
		},
		Engine: EngineConfig{
			RiskFreeRate:       domain.DefaultRiskFreeRate,
			ContractMultiplier: scoringDefaults.ContractMultiplier,
			ScoreScale:         scoringDefaults.ScoreScale,
			MaxConcurrency:     DefaultEngineMaxWorkers,
			AssignmentCeiling:  scoringDefaults.Veto.AssignmentCeiling,
			MinLiquidity:       scoringDefaults.Veto.MinLiquidity,
			MinAnnualReturn:    scoringDefaults.Veto.MinAnnualReturn,
			MaxSpreadRatio:     scoringDefaults.Veto.MaxSpreadRatio,
			MinOpenInterest:    liquidity.DefaultMinOpenInterest,
			VolatilityMethod:   string(volatility.MethodEWMA),
			EWMALambda:         volatility.DefaultLambda,
			TailMultiplier:     risk.DefaultTailMultiplier,
			Filters: FiltersConfig{
				MinAnnualReturn: 0,
				MaxAnnualReturn: 1.0,
				MinPremium:      0,
				MaxPremium:      10000,
				MaxSpread:       10,
				PremiumBasis:    "contract",
			},
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			EnableTracing:  false,
			EnableMetrics:  true,
			TraceExporter:  "stdout",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
