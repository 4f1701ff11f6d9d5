package exporter

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	apierrors "optionrank/internal/errors"
	"optionrank/internal/pipeline"
	"optionrank/internal/scoring"
)

const summarySheet = "Summary"

type workbookStyles struct {
	header    int
	highlight int
	vetoed    int
}

// NewRankingWorkbook builds a workbook with a summary sheet and one sheet per
// result. Strongly recommended rows are filled green, vetoed rows are grey.
// The caller closes the returned file.
func NewRankingWorkbook(results []*pipeline.Result) (*excelize.File, error) {
	f := excelize.NewFile()

	styles, err := newWorkbookStyles(f)
	if err != nil {
		f.Close()
		return nil, apierrors.ExportError("xlsx", err)
	}

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		f.Close()
		return nil, apierrors.ExportError("xlsx", err)
	}
	if err := writeSummarySheet(f, styles, results); err != nil {
		f.Close()
		return nil, apierrors.ExportError("xlsx", err)
	}

	for _, res := range results {
		if res == nil {
			continue
		}
		if err := writeRankingSheet(f, styles, res); err != nil {
			f.Close()
			return nil, apierrors.ExportError("xlsx", fmt.Errorf("%s: %w", res.Direction, err))
		}
	}
	return f, nil
}

// WriteRankingXLSX writes the ranking workbook of results to out
func WriteRankingXLSX(out io.Writer, results []*pipeline.Result) error {
	f, err := NewRankingWorkbook(results)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(out); err != nil {
		return apierrors.ExportError("xlsx", err)
	}
	return nil
}

func newWorkbookStyles(f *excelize.File) (workbookStyles, error) {
	var s workbookStyles
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#305496"}},
	})
	if err != nil {
		return s, err
	}
	s.highlight, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#006100"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#C6EFCE"}},
	})
	if err != nil {
		return s, err
	}
	s.vetoed, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#808080"},
	})
	return s, err
}

func writeRankingSheet(f *excelize.File, styles workbookStyles, res *pipeline.Result) error {
	sheet := string(res.Direction)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	if err := writeHeader(f, styles, sheet, rankingHeaders); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(rankingHeaders))
	if err != nil {
		return err
	}

	for i, rc := range res.Ranked {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := xlsxValues(rankingValues(res, rc))
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}

		style := 0
		switch {
		case rc.Score.Vetoed():
			style = styles.vetoed
		case rc.Score.Highlight:
			style = styles.highlight
		}
		if style != 0 {
			if err := f.SetCellStyle(sheet, cell, fmt.Sprintf("%s%d", lastCol, row), style); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", lastCol, 14); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummarySheet(f *excelize.File, styles workbookStyles, results []*pipeline.Result) error {
	headers := []string{"Direction", "Symbol", "Total", "Ranked", "Vetoed", "Highlighted", "Skipped", "Filtered"}
	for _, t := range scoring.Tiers() {
		headers = append(headers, string(t))
	}
	headers = append(headers, "Average Liquidity", "Average Score", "Best Strike", "Best Score")

	if err := writeHeader(f, styles, summarySheet, headers); err != nil {
		return err
	}

	row := 2
	for _, res := range results {
		if res == nil {
			continue
		}
		s := res.Summary
		values := []interface{}{string(res.Direction), res.Symbol, s.Total, s.Ranked, s.Vetoed, s.Highlighted, s.Skipped, s.Filtered}
		for _, t := range scoring.Tiers() {
			values = append(values, s.TierCounts[t])
		}
		values = append(values, s.AverageLiquidity, s.AverageScore)
		if s.Best != nil {
			values = append(values, s.Best.Contract.Strike, s.Best.Score.RecommendationScore)
		}

		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return err
		}
		row++
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", lastCol, 16)
}

func writeHeader(f *excelize.File, styles workbookStyles, sheet string, headers []string) error {
	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &values); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", lastCol+"1", styles.header)
}

// xlsxValues converts ranking values into cell values excelize stores natively
func xlsxValues(values []interface{}) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case decimal.Decimal:
			out[i] = x.InexactFloat64()
		case time.Time:
			out[i] = x.Format("2006-01-02")
		default:
			out[i] = v
		}
	}
	return out
}
