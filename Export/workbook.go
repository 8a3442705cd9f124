package Export

import (
	"bytes"
	"fmt"

	"ShiftAudit/Checklist"

	"github.com/xuri/excelize/v2"
)

const historySheet = "History"

// HistoryWorkbook writes one row per completed session.
func HistoryWorkbook(reports []Checklist.Report) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(historySheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Completed At", "Shift", "Area", "Production Line", "Operation", "Responsible",
		"Total", "OK", "OK %", "NOK", "NOK %", "N/A", "N/A %", "Session ID",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(historySheet, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
	})
	if err == nil {
		f.SetRowStyle(historySheet, 1, 1, headerStyle)
	}

	for i, r := range reports {
		completed := ""
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Format("2006-01-02 15:04:05")
		}
		values := []interface{}{
			completed,
			r.ShiftLabel,
			r.Context.Area,
			r.Context.ProductionLine,
			r.Context.Operation,
			r.Responsible,
			r.Stats.Total,
			r.Stats.OK,
			r.Stats.OKPercent,
			r.Stats.NOK,
			r.Stats.NOKPercent,
			r.Stats.NA,
			r.Stats.NAPercent,
			r.SessionID.String(),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(historySheet, cell, &values); err != nil {
			return nil, fmt.Errorf("error writing row %d: %w", i+2, err)
		}
	}

	last, _ := excelize.ColumnNumberToName(len(headers))
	f.SetColWidth(historySheet, "A", last, 18)

	if f.GetSheetName(0) != historySheet {
		f.DeleteSheet("Sheet1")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return &buf, nil
}
