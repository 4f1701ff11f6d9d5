package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"optionrank/internal/config"
	apierrors "optionrank/internal/errors"
	"optionrank/internal/pipeline"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat parses a format name, case-insensitively
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv or xlsx)", s)
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// ReportExporter writes ranking files into the reports directory
type ReportExporter struct {
	paths  *config.Paths
	csv    *CSVWriter
	logger *slog.Logger
}

// NewReportExporter creates a new report exporter
func NewReportExporter(paths *config.Paths, logger *slog.Logger) *ReportExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportExporter{
		paths:  paths,
		csv:    NewCSVWriter(paths, logger),
		logger: logger.With(slog.String("component", "report_exporter")),
	}
}

// FileName returns the report file name for results, e.g.
// XYZ_20240102_ranking.csv
func FileName(results []*pipeline.Result, format Format) string {
	symbol := "chain"
	asOf := time.Now().UTC()
	for _, res := range results {
		if res != nil {
			if res.Symbol != "" {
				symbol = res.Symbol
			}
			if !res.AsOf.IsZero() {
				asOf = res.AsOf.UTC()
			}
			break
		}
	}
	return fmt.Sprintf("%s_%s_ranking.%s", symbol, asOf.Format("20060102"), format)
}

// Export writes results once per format and returns the written paths
func (e *ReportExporter) Export(ctx context.Context, results []*pipeline.Result, formats ...Format) ([]string, error) {
	if len(formats) == 0 {
		formats = []Format{FormatCSV}
	}

	written := make([]string, 0, len(formats))
	for _, format := range formats {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		name := FileName(results, format)
		var (
			path string
			err  error
		)
		switch format {
		case FormatCSV:
			path, err = e.csv.WriteCSV(name, WriteOptions{
				Headers:   rankingHeaders,
				Records:   RankingRecords(results),
				BOMPrefix: true,
			})
		case FormatXLSX:
			path, err = e.writeXLSX(name, results)
		default:
			err = apierrors.ExportError(string(format), fmt.Errorf("unsupported format"))
		}
		if err != nil {
			return written, err
		}

		e.logger.InfoContext(ctx, "report written",
			slog.String("format", string(format)),
			slog.String("path", path))
		written = append(written, path)
	}
	return written, nil
}

func (e *ReportExporter) writeXLSX(name string, results []*pipeline.Result) (string, error) {
	path := e.paths.ReportPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", apierrors.ExportError("xlsx", fmt.Errorf("create directory: %w", err))
	}

	f, err := NewRankingWorkbook(results)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return "", apierrors.ExportError("xlsx", err)
	}
	return path, nil
}
