package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optionrank/internal/volatility"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "optionrank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Security.RateLimit.Enabled)
	assert.Equal(t, 0.05, cfg.Engine.RiskFreeRate)
	assert.Equal(t, 75.0, cfg.Engine.AssignmentCeiling)
	assert.Equal(t, 1.0, cfg.Engine.Filters.MaxAnnualReturn)
	assert.Equal(t, 10000.0, cfg.Engine.Filters.MaxPremium)
	assert.Equal(t, "contract", cfg.Engine.Filters.PremiumBasis)
	assert.Equal(t, "prometheus", cfg.Telemetry.MetricExporter)
}

func TestLoadLayering(t *testing.T) {
	path := writeYAML(t, `
server:
  port: 9090
logging:
  level: debug
engine:
  assignment_ceiling: 80
  volatility_method: garch
  filters:
    max_premium: 500
`)
	t.Setenv("OPTIONRANK_SERVER_PORT", "9191")
	t.Setenv("OPTIONRANK_ENGINE_FILTERS_PREMIUM_BASIS", "share")
	t.Setenv("OPTIONRANK_SECURITY_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port, "env wins over file")
	assert.Equal(t, "debug", cfg.Logging.Level, "file wins over defaults")
	assert.Equal(t, 80.0, cfg.Engine.AssignmentCeiling)
	assert.Equal(t, 500.0, cfg.Engine.Filters.MaxPremium)
	assert.Equal(t, 10.0, cfg.Engine.Filters.MaxSpread, "keys absent from the file keep defaults")
	assert.Equal(t, "share", cfg.Engine.Filters.PremiumBasis)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.AllowedOrigins)

	p := cfg.Engine.ScoringParams()
	assert.Equal(t, 80.0, p.Veto.AssignmentCeiling)
	assert.Equal(t, volatility.MethodGARCH, p.Volatility.Method)
}

func TestLoadUsesConfigEnv(t *testing.T) {
	path := writeYAML(t, "server:\n  port: 7070\n")
	t.Setenv(ConfigFileEnv, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad port", env: map[string]string{"OPTIONRANK_SERVER_PORT": "70000"}},
		{name: "unparsable env", env: map[string]string{"OPTIONRANK_SERVER_PORT": "eighty"}},
		{name: "unknown yaml key", yaml: "server:\n  prot: 80\n"},
		{name: "bad log format", yaml: "logging:\n  format: xml\n"},
		{name: "bad ceiling", yaml: "engine:\n  assignment_ceiling: 120\n"},
		{name: "bad method", yaml: "engine:\n  volatility_method: heston\n"},
		{name: "bad premium basis", env: map[string]string{"OPTIONRANK_ENGINE_FILTERS_PREMIUM_BASIS": "lot"}},
		{name: "negative concurrency", env: map[string]string{"OPTIONRANK_ENGINE_MAX_CONCURRENCY": "-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeYAML(t, tt.yaml)
			}
			_, err := LoadFile(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestScoringParamsDefaultsValidate(t *testing.T) {
	assert.NoError(t, Default().Engine.ScoringParams().Validate())
}

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(t.TempDir(), "elsewhere")

	paths, err := ResolvePaths(PathsConfig{ChainsDir: "chains", ReportsDir: abs}, base)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, DefaultDataDir), paths.DataDir)
	assert.Equal(t, filepath.Join(base, "chains"), paths.ChainsDir)
	assert.Equal(t, abs, paths.ReportsDir)
	assert.Equal(t, filepath.Join(base, "chains", "XYZ.json"), paths.ChainPath("xyz"))
	assert.Equal(t, filepath.Join(abs, "out.csv"), paths.ReportPath("out.csv"))

	require.NoError(t, paths.EnsureDirectories())
	for _, dir := range []string{paths.DataDir, paths.ChainsDir, paths.ReportsDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
