package exporter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "optionrank/internal/errors"
)

func TestCSVWriter_WriteCSV(t *testing.T) {
	paths := testPaths(t)
	writer := NewCSVWriter(paths, nil)

	tests := []struct {
		name     string
		filePath string
		options  WriteOptions
		wantPath string
		wantBOM  bool
	}{
		{
			name:     "relative path lands in reports",
			filePath: "out.csv",
			options: WriteOptions{
				Headers:   []string{"a", "b"},
				Records:   [][]string{{"1", "2"}},
				BOMPrefix: true,
			},
			wantPath: filepath.Join(paths.ReportsDir, "out.csv"),
			wantBOM:  true,
		},
		{
			name:     "absolute path kept",
			filePath: filepath.Join(paths.BaseDir, "elsewhere", "abs.csv"),
			options: WriteOptions{
				Headers: []string{"a"},
				Records: [][]string{{"x"}, {"y"}},
			},
			wantPath: filepath.Join(paths.BaseDir, "elsewhere", "abs.csv"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := writer.WriteCSV(tt.filePath, tt.options)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, path)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(data, utf8BOM))

			rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))).ReadAll()
			require.NoError(t, err)
			assert.Equal(t, tt.options.Headers, rows[0])
			assert.Len(t, rows, len(tt.options.Records)+1)
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEncodeCSVError(t *testing.T) {
	err := EncodeCSV(failingWriter{}, WriteOptions{Headers: []string{"a"}, BOMPrefix: true})
	require.Error(t, err)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeExport))
}

func TestWriteRankingCSV(t *testing.T) {
	results := sampleResults(t)

	var buf bytes.Buffer
	require.NoError(t, WriteRankingCSV(&buf, results))
	require.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))

	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(buf.Bytes(), utf8BOM))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1+4*5)
	assert.Equal(t, RankingHeaders(), rows[0])

	col := func(name string) int {
		for i, h := range rows[0] {
			if h == name {
				return i
			}
		}
		t.Fatalf("no column %q", name)
		return -1
	}

	first := rows[1]
	assert.Equal(t, "1", first[col("Rank")])
	assert.Equal(t, "sell-put", first[col("Direction")])
	assert.Equal(t, "XYZ", first[col("Symbol")])
	assert.Equal(t, "PUT", first[col("Type")])
	assert.Equal(t, "2024-02-01", first[col("Expiry")])
	assert.Equal(t, "30.00", first[col("IV %")], "implied volatility is written as a percentage")

	directions := map[string]int{}
	for _, r := range rows[1:] {
		directions[r[col("Direction")]]++
		assert.False(t, strings.Contains(r[col("Premium Income")], "e"), "money is fixed point")
	}
	assert.Equal(t, map[string]int{"sell-put": 5, "sell-call": 5, "buy-call": 5, "buy-put": 5}, directions)
}

func TestRankingRecordsSkipsNil(t *testing.T) {
	assert.Empty(t, RankingRecords(nil))
	results := sampleResults(t)
	assert.Len(t, RankingRecords(append(results[:1:1], nil)), 5)
}
