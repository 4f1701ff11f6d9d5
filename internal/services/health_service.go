package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"optionrank/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	chainsDir string
	ready     func() error
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. ready reports whether the
// scoring engine is wired; nil means it always is.
func NewHealthService(chainsDir string, ready func() error, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		chainsDir: chainsDir,
		ready:     ready,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check",
		slog.Duration("uptime", time.Since(hs.startTime)))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
	}
}

// ReadinessCheck reports whether the engine and chain storage can serve
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Services: map[string]ServiceHealth{
			"engine": hs.checkEngine(),
			"chains": hs.checkChains(),
		},
	}

	for name, s := range status.Services {
		if s.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "service not ready",
				slog.String("service", name),
				slog.String("message", s.Message))
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":       info.Version,
		"stage":         info.Stage,
		"scoring_model": info.ScoringModel,
		"api_version":   info.APIVersion,
		"build_time":    info.BuildTime,
		"git_commit":    info.GitCommit,
		"go_version":    info.GoVersion,
		"os":            info.OS,
		"arch":          info.Architecture,
		"start_time":    hs.startTime.UTC().Format(time.RFC3339),
	}
}

func (hs *HealthService) checkEngine() ServiceHealth {
	if hs.ready != nil {
		if err := hs.ready(); err != nil {
			return ServiceHealth{Status: "not_ready", Message: err.Error()}
		}
	}
	return ServiceHealth{Status: "ready", Message: "scoring engine is healthy"}
}

// checkChains accepts a missing directory: inline snapshots still score
func (hs *HealthService) checkChains() ServiceHealth {
	info, err := os.Stat(hs.chainsDir)
	switch {
	case os.IsNotExist(err):
		return ServiceHealth{Status: "ready", Message: "chains directory not created yet"}
	case err != nil:
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("cannot stat chains directory: %v", err)}
	case !info.IsDir():
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("%s is not a directory", hs.chainsDir)}
	}

	f, err := os.Open(hs.chainsDir)
	if err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("cannot read chains directory: %v", err)}
	}
	f.Close()
	return ServiceHealth{Status: "ready", Message: "chain storage is readable"}
}
