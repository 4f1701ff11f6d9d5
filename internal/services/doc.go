// Package services sits between the HTTP and CLI surfaces and the scoring
// engine. ChainStore loads snapshots from the chains directory,
// ScoringService applies the configured defaults and runs the pipeline,
// and HealthService answers the health and version endpoints.
package services
