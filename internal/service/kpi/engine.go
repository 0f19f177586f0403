package kpi

import (
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/kpi"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/period"
	"github.com/shopspring/decimal"
)

// ComputeKPI aggregates records over r. It never fails: an empty record set
// yields zero metrics and one zeroed timeseries point per day.
func ComputeKPI(r period.Range, records []attendance.Record, gracePeriodMinutes int) kpi.Result {
	users := make(map[string]struct{})
	var (
		attended, onTime       int
		lateCount, absentCount int
		totalOvertime          float64
		workHoursSum           float64
		workHoursCount         int
	)

	type bucket struct {
		users    map[string]struct{}
		attended int
		onTime   int
	}
	days := make(map[string]*bucket)

	for _, rec := range records {
		users[rec.UserID] = struct{}{}

		switch rec.Status {
		case attendance.StatusLate:
			lateCount++
		case attendance.StatusAbsent:
			absentCount++
		}

		totalOvertime += rec.OvertimeHours
		if rec.WorkHours != nil {
			workHoursSum += *rec.WorkHours
			workHoursCount++
		}

		key := rec.Date.Format(period.DateLayout)
		b, ok := days[key]
		if !ok {
			b = &bucket{users: make(map[string]struct{})}
			days[key] = b
		}
		b.users[rec.UserID] = struct{}{}

		if !rec.IsAttended() {
			continue
		}
		attended++
		b.attended++
		if rec.LateMinutes <= gracePeriodMinutes {
			onTime++
			b.onTime++
		}
	}

	denominator := max(1, period.CountBusinessDays(r)*max(1, len(users)))

	metrics := kpi.Metrics{
		AttendanceRate: round2(ratio(attended, denominator)),
		OnTimeRate:     round2(ratio(onTime, attended)),
		TotalOvertime:  round2(totalOvertime),
		LateCount:      lateCount,
		AbsentCount:    absentCount,
	}
	if workHoursCount > 0 {
		metrics.AvgWorkHours = round2(workHoursSum / float64(workHoursCount))
	}

	series := make([]kpi.TimeseriesPoint, 0)
	for _, day := range r.Days() {
		key := day.Format(period.DateLayout)
		point := kpi.TimeseriesPoint{Date: key}
		if b, ok := days[key]; ok {
			point.AttendanceRate = round2(ratio(b.attended, max(1, len(b.users))))
			point.OnTimeRate = round2(ratio(b.onTime, b.attended))
		}
		series = append(series, point)
	}

	return kpi.Result{Metrics: metrics, Timeseries: series}
}

// ratio is n/d, or 0 when d is not positive.
func ratio(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
