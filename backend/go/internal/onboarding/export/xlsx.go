package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// writeXLSX stores the export tables as sheets of one workbook.
func writeXLSX(path string, snap *snapshot) error {
	sheets := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"Users", userColumns, userRows(snap.dump.Users)},
		{"Feedback", feedbackColumns, feedbackRows(snap.feedback)},
		{"Actions", actionColumns, actionRows(snap.popular)},
		{"Statistics", statisticsColumns, statisticsRows(snap.stats)},
		{"DailyActivity", dailyColumns, dailyRows(snap.daily)},
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return err
		}
		if err := writeRow(f, sh.name, 1, sh.header); err != nil {
			return err
		}
		for r, row := range sh.rows {
			if err := writeRow(f, sh.name, r+2, row); err != nil {
				return err
			}
		}
	}
	f.SetActiveSheet(0)
	return f.SaveAs(path)
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("sheet %s row %d: %w", sheet, row, err)
	}
	return nil
}
