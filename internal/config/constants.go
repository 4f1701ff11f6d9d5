package config

import "time"

// Application constants
const (
	AppName   = "OptionRank"
	EnvPrefix = "OPTIONRANK"

	// ConfigFileEnv names the variable holding an explicit YAML config path
	ConfigFileEnv     = "OPTIONRANK_CONFIG"
	DefaultConfigFile = "config/optionrank.yaml"

	// File paths, relative to the executable
	DefaultDataDir      = "data"
	DefaultChainsDir    = "data/chains"
	DefaultReportsDir   = "data/reports"
	DefaultLogsDir      = "logs"
	DefaultLogFile      = "logs/optionrank.log"
	SnapshotFileSuffix  = ".json"
	MaxSnapshotFileSize = 32 << 20

	// Server
	DefaultPort             = 8080
	DefaultReadTimeout      = 15 * time.Second
	DefaultWriteTimeout     = 30 * time.Second
	DefaultIdleTimeout      = 60 * time.Second
	DefaultShutdownTimeout  = 30 * time.Second
	DefaultRequestTimeout   = 20 * time.Second
	DefaultMaxRequestBytes  = 8 << 20
	DefaultRateLimitRPS     = 20
	DefaultRateLimitBurst   = 40
	DefaultEngineMaxWorkers = 0 // GOMAXPROCS

	// API
	APIBasePath     = "/api/v1"
	HealthEndpoint  = "/api/health"
	VersionEndpoint = "/api/version"
	MetricsEndpoint = "/metrics"
)
