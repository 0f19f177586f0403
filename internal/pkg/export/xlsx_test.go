package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/kpi"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/period"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteKPIWorkbook(t *testing.T) {
	resp := kpi.Response{
		Period:     period.Weekly,
		Range:      kpi.DateRange{Start: "2025-01-06", End: "2025-01-08"},
		Scope:      kpi.ScopeDepartment,
		Department: "sales",
		Metrics: kpi.Metrics{
			AttendanceRate: 0.6,
			OnTimeRate:     0.67,
			AvgWorkHours:   8.5,
			LateCount:      2,
		},
		Timeseries: []kpi.TimeseriesPoint{
			{Date: "2025-01-06", AttendanceRate: 1, OnTimeRate: 1},
			{Date: "2025-01-07", AttendanceRate: 0.5, OnTimeRate: 0},
			{Date: "2025-01-08"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteKPIWorkbook(&buf, resp, time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, TimeseriesSheet}, f.GetSheetList())

	scope, err := f.GetCellValue(SummarySheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "Department sales", scope)

	onTime, err := f.GetCellValue(SummarySheet, "B7")
	require.NoError(t, err)
	assert.Equal(t, "0.67", onTime)

	rows, err := f.GetRows(TimeseriesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Date", "Attendance Rate", "On-Time Rate"}, rows[0])
	assert.Equal(t, "2025-01-07", rows[2][0])
	assert.Equal(t, "0.5", rows[2][1])
}

func TestKPIFilename(t *testing.T) {
	name := KPIFilename(kpi.Response{Scope: kpi.ScopeOrg, Range: kpi.DateRange{Start: "2025-01-01", End: "2025-01-31"}})
	assert.Equal(t, "kpi_org_2025-01-01_2025-01-31.xlsx", name)
}
