package exporter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"optionrank/internal/config"
	"optionrank/internal/pipeline"
	"optionrank/internal/scoring"
	"optionrank/internal/shared/testutil"
	"optionrank/pkg/contracts/domain"
)

// sampleResults ranks the sample chain in every direction with open return
// filters, five contracts per direction
func sampleResults(t *testing.T) []*pipeline.Result {
	t.Helper()
	scorer, err := scoring.NewScorer(scoring.DefaultParams())
	require.NoError(t, err)
	logger, _ := testutil.NewTestLogger(t)
	p := pipeline.New(scorer, logger, pipeline.Options{})

	filters := pipeline.DefaultFilters()
	filters.MinAnnualReturn = -100
	filters.MaxAnnualReturn = 1e6

	var results []*pipeline.Result
	for _, d := range domain.AllDirections() {
		res, err := p.Run(context.Background(), testutil.SampleChain(), d, filters)
		require.NoError(t, err)
		results = append(results, res)
	}
	return results
}

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	dir := t.TempDir()
	return &config.Paths{
		BaseDir:    dir,
		DataDir:    filepath.Join(dir, "data"),
		ChainsDir:  filepath.Join(dir, "data", "chains"),
		ReportsDir: filepath.Join(dir, "data", "reports"),
		LogsDir:    filepath.Join(dir, "logs"),
	}
}
