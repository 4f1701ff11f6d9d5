package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"optionrank/internal/config"
	apierrors "optionrank/internal/errors"
	"optionrank/internal/pipeline"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		paths:  paths,
		logger: logger.With(slog.String("component", "csv_writer")),
	}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes a CSV file. Relative paths land in the reports directory.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) (string, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("writing CSV file",
		slog.String("file_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", apierrors.ExportError("csv", fmt.Errorf("create directory: %w", err))
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", apierrors.ExportError("csv", fmt.Errorf("create file: %w", err))
	}
	defer file.Close()

	if err := EncodeCSV(file, options); err != nil {
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", apierrors.ExportError("csv", err)
	}
	return fullPath, nil
}

// EncodeCSV writes headers and records to out
func EncodeCSV(out io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return apierrors.ExportError("csv", fmt.Errorf("write BOM: %w", err))
		}
	}

	writer := csv.NewWriter(out)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return apierrors.ExportError("csv", fmt.Errorf("write headers: %w", err))
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return apierrors.ExportError("csv", fmt.Errorf("write record %d: %w", i, err))
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return apierrors.ExportError("csv", err)
	}
	return nil
}

// WriteRankingCSV writes every ranked contract of results to out
func WriteRankingCSV(out io.Writer, results []*pipeline.Result) error {
	return EncodeCSV(out, WriteOptions{
		Headers:   rankingHeaders,
		Records:   RankingRecords(results),
		BOMPrefix: true,
	})
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return w.paths.ReportPath(filePath)
}
