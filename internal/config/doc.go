// Package config provides configuration management for optionrank.
//
// # Configuration Sources
//
// Configuration is assembled in three layers, later layers winning:
//
//	1. Default values (Default)
//	2. A YAML file: $OPTIONRANK_CONFIG, else config/optionrank.yaml if present
//	3. Environment variables prefixed OPTIONRANK_
//
// # Environment Variables
//
// Variables follow the section layout of Config:
//
//	OPTIONRANK_SERVER_PORT=8080
//	OPTIONRANK_LOGGING_LEVEL=debug
//	OPTIONRANK_ENGINE_ASSIGNMENT_CEILING=80
//	OPTIONRANK_ENGINE_FILTERS_MAX_ANNUAL_RETURN=2.5
//	OPTIONRANK_TELEMETRY_ENABLE_TRACING=true
//
// The binaries load an optional .env file before Load runs.
//
// # Engine
//
// The engine section maps onto the pure parameter structs of the scoring
// packages through EngineConfig.ScoringParams. Values are fractions except
// the assignment ceiling, which is on the 0-100 probability scale.
//
// # Paths
//
// ResolvePaths turns the relative directories of PathsConfig into absolute
// locations next to the executable, or under an explicit base directory.
package config
