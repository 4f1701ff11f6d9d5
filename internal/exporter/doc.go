// Package exporter writes ranked option chains as CSV and XLSX.
//
// Both formats share one column layout (RankingHeaders). Volatilities,
// returns, probabilities and spreads are written as percentages; money
// columns are dollars per contract.
//
// CSVWriter resolves relative paths under the reports directory and prefixes
// files with a UTF-8 BOM so spreadsheet tools detect the encoding.
//
// Example usage:
//
//	results, _ := scoringService.ScoreAll(ctx, snap, nil)
//	rep := exporter.NewReportExporter(paths, logger)
//	files, err := rep.Export(ctx, results, exporter.FormatCSV, exporter.FormatXLSX)
package exporter
