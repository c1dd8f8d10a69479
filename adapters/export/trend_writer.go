// Package export writes trend series and their control summaries to
// spreadsheet formats for the charting and records collaborators.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"goqc/domain/core"
	"goqc/domain/trend"

	"github.com/xuri/excelize/v2"
)

// trendHeader is the column layout shared by both formats
var trendHeader = []string{"date", "value", "mean", "ucl_2sigma", "lcl_2sigma", "ucl_3sigma", "lcl_3sigma", "flag"}

// pointFlag labels a point's control-chart classification for the
// exported sheet.
func pointFlag(p trend.Point, summary trend.ControlSummary) string {
	for _, o := range summary.OutOfControl {
		if o == p {
			return "out_of_control"
		}
	}
	for _, w := range summary.Warning {
		if w == p {
			return "warning"
		}
	}
	return ""
}

// WriteWorkbook writes one sheet per series into an xlsx workbook. Each
// sheet carries the observations alongside the control limits so the
// chart collaborator can render limit annotations directly.
func WriteWorkbook(w io.Writer, series []trend.Series, summaries map[core.ParameterID]trend.ControlSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range series {
		sheet := s.Parameter.String()
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", sheet, err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
			}
		}

		summary := summaries[s.Parameter]
		if err := f.SetSheetRow(sheet, "A1", &trendHeader); err != nil {
			return err
		}
		for rowIdx, p := range s.Points {
			cell := fmt.Sprintf("A%d", rowIdx+2)
			row := []interface{}{
				p.Date.Format("2006-01-02"),
				p.Value,
				summary.Mean,
				summary.UCL2Sigma,
				summary.LCL2Sigma,
				summary.UCL3Sigma,
				summary.LCL3Sigma,
				pointFlag(p, summary),
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

// WriteCSV writes a single series with its control summary as CSV
func WriteCSV(w io.Writer, series trend.Series, summary trend.ControlSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trendHeader); err != nil {
		return err
	}
	for _, p := range series.Points {
		record := []string{
			p.Date.Format("2006-01-02"),
			strconv.FormatFloat(p.Value, 'f', -1, 64),
			strconv.FormatFloat(summary.Mean, 'f', -1, 64),
			strconv.FormatFloat(summary.UCL2Sigma, 'f', -1, 64),
			strconv.FormatFloat(summary.LCL2Sigma, 'f', -1, 64),
			strconv.FormatFloat(summary.UCL3Sigma, 'f', -1, 64),
			strconv.FormatFloat(summary.LCL3Sigma, 'f', -1, 64),
			pointFlag(p, summary),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
