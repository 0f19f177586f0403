package export

import (
	"fmt"
	"io"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/kpi"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SummarySheet    = "Summary"
	TimeseriesSheet = "Timeseries"
)

// KPIFilename is the attachment name for a KPI workbook.
func KPIFilename(resp kpi.Response) string {
	return fmt.Sprintf("kpi_%s_%s_%s.xlsx", resp.Scope, resp.Range.Start, resp.Range.End)
}

// WriteKPIWorkbook renders resp as a two-sheet workbook and writes it to w.
func WriteKPIWorkbook(w io.Writer, resp kpi.Response, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(TimeseriesSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	population := "Organization"
	switch resp.Scope {
	case kpi.ScopeDepartment:
		population = "Department " + resp.Department
	case kpi.ScopeUser:
		population = "User " + resp.UserID
	}

	summary := [][]interface{}{
		{"Metric", "Value"},
		{"Period", string(resp.Period)},
		{"Start", resp.Range.Start},
		{"End", resp.Range.End},
		{"Scope", population},
		{"Attendance Rate", resp.Metrics.AttendanceRate},
		{"On-Time Rate", resp.Metrics.OnTimeRate},
		{"Average Work Hours", resp.Metrics.AvgWorkHours},
		{"Total Overtime Hours", resp.Metrics.TotalOvertime},
		{"Late Count", resp.Metrics.LateCount},
		{"Absent Count", resp.Metrics.AbsentCount},
		{"Generated At", generatedAt.UTC().Format(time.RFC3339)},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 28); err != nil {
		return err
	}

	header := []interface{}{"Date", "Attendance Rate", "On-Time Rate"}
	if err := f.SetSheetRow(TimeseriesSheet, "A1", &header); err != nil {
		return err
	}
	for i, p := range resp.Timeseries {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{p.Date, p.AttendanceRate, p.OnTimeRate}
		if err := f.SetSheetRow(TimeseriesSheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(TimeseriesSheet, "A1", "C1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(TimeseriesSheet, "A", "C", 18); err != nil {
		return err
	}

	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
