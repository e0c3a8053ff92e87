package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"parkdur/internal/model"
)

const timeFormat = "2006-01-02 15:04:05"

// maxColWidth caps autosized columns so one long cell cannot blow up the
// sheet layout.
const maxColWidth = 60

// Write renders the three result tables into one workbook. The issues
// sheet is only created when anomalies exist, matching what reviewers
// expect: no sheet means a clean run.
func Write(path string, intervals []model.Interval, monthly []model.MonthlySummary, anomalies []model.Anomaly) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	monthlyRows := make([][]any, 0, len(monthly))
	for _, m := range monthly {
		monthlyRows = append(monthlyRows, []any{m.Plate, m.Month, m.Visits, m.TotalMinutes, m.TotalHours})
	}
	if err := writeSheet(f, "monthly_totals",
		[]string{"plate", "month", "visits", "total_minutes", "total_hours"}, monthlyRows); err != nil {
		return err
	}

	intervalRows := make([][]any, 0, len(intervals))
	for _, iv := range intervals {
		intervalRows = append(intervalRows, []any{
			iv.Plate,
			iv.EntryTime.Format(timeFormat),
			iv.ExitTime.Format(timeFormat),
			iv.DurationMinutes,
		})
	}
	if err := writeSheet(f, "intervals",
		[]string{"plate", "entry_time", "exit_time", "duration_minutes"}, intervalRows); err != nil {
		return err
	}

	if len(anomalies) > 0 {
		issueRows := make([][]any, 0, len(anomalies))
		for _, a := range anomalies {
			issueRows = append(issueRows, []any{a.Plate, a.Kind.Issue(), a.Timestamp.Format(time.RFC3339)})
		}
		if err := writeSheet(f, "issues",
			[]string{"plate", "issue", "timestamp"}, issueRows); err != nil {
			return err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	idx, err := f.GetSheetIndex("monthly_totals")
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, headers []string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	widths := make([]int, len(headers))
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, h); err != nil {
			return err
		}
		widths[col] = len(h)
	}
	for r, row := range rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(name, cell, v); err != nil {
				return err
			}
			if col < len(widths) {
				if l := len(fmt.Sprint(v)); l > widths[col] {
					widths[col] = l
				}
			}
		}
	}
	for col, w := range widths {
		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		width := w + 2
		if width > maxColWidth {
			width = maxColWidth
		}
		if err := f.SetColWidth(name, colName, colName, float64(width)); err != nil {
			return err
		}
	}
	return nil
}
