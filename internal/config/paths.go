package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths holds the resolved file system locations the binaries use
type Paths struct {
	BaseDir    string
	DataDir    string
	ChainsDir  string
	ReportsDir string
	LogsDir    string
}

// ResolvePaths resolves the configured directories. Relative entries are
// joined to base; an empty base means the executable's directory.
func ResolvePaths(cfg PathsConfig, base string) (*Paths, error) {
	if base == "" {
		exeDir, err := ExecutableDir()
		if err != nil {
			return nil, err
		}
		base = exeDir
	}

	resolve := func(p, fallback string) string {
		if strings.TrimSpace(p) == "" {
			p = fallback
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	return &Paths{
		BaseDir:    base,
		DataDir:    resolve(cfg.DataDir, DefaultDataDir),
		ChainsDir:  resolve(cfg.ChainsDir, DefaultChainsDir),
		ReportsDir: resolve(cfg.ReportsDir, DefaultReportsDir),
		LogsDir:    resolve(cfg.LogsDir, DefaultLogsDir),
	}, nil
}

// ExecutableDir returns the directory of the running binary, symlinks resolved
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

// EnsureDirectories creates every directory if missing
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ChainsDir, p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ChainPath returns the snapshot file of symbol inside ChainsDir
func (p *Paths) ChainPath(symbol string) string {
	return filepath.Join(p.ChainsDir, strings.ToUpper(symbol)+SnapshotFileSuffix)
}

// ReportPath returns filename inside ReportsDir
func (p *Paths) ReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// LogValue implements slog.LogValuer
func (p *Paths) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("base_dir", p.BaseDir),
		slog.String("chains_dir", p.ChainsDir),
		slog.String("reports_dir", p.ReportsDir),
		slog.String("logs_dir", p.LogsDir),
	)
}
