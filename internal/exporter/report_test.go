package exporter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{" XLSX ", FormatXLSX, false},
		{"pdf", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFileName(t *testing.T) {
	results := sampleResults(t)
	assert.Equal(t, "XYZ_20240102_ranking.csv", FileName(results, FormatCSV))
	assert.Equal(t, "XYZ_20240102_ranking.xlsx", FileName(results, FormatXLSX))
}

func TestReportExporterExport(t *testing.T) {
	paths := testPaths(t)
	exp := NewReportExporter(paths, nil)
	results := sampleResults(t)

	files, err := exp.Export(context.Background(), results, FormatCSV, FormatXLSX)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, filepath.Join(paths.ReportsDir, "XYZ_20240102_ranking.csv"), files[0])
	info, err := os.Stat(files[0])
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	f, err := excelize.OpenFile(files[1])
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 5)
}

func TestReportExporterCancelled(t *testing.T) {
	exp := NewReportExporter(testPaths(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files, err := exp.Export(ctx, sampleResults(t), FormatCSV)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, files)
}
