package kpi

import (
	"strings"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/period"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

type Scope string

const (
	ScopeOrg        Scope = "org"
	ScopeDepartment Scope = "department"
	ScopeUser       Scope = "user"
)

// ScopeDecision is the population a KPI query is allowed to see.
type ScopeDecision struct {
	Scope      Scope
	Department string
	UserID     string
}

// Query carries the optional KPI request parameters.
type Query struct {
	Period     string `json:"period"`
	Scope      string `json:"scope"`
	Department string `json:"department"`
	UserID     string `json:"userId"`
	StartDate  string `json:"start"`
	EndDate    string `json:"end"`
}

func (q *Query) Validate() error {
	var errs validator.ValidationErrors

	q.Period = strings.ToLower(strings.TrimSpace(q.Period))
	if _, err := period.ParseKind(q.Period); err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "period",
			Message: "period must be one of: weekly, monthly",
		})
	}

	q.Scope = strings.ToLower(strings.TrimSpace(q.Scope))
	if q.Scope != "" && !validator.IsInSlice(q.Scope, []string{string(ScopeOrg), string(ScopeDepartment), string(ScopeUser)}) {
		errs = append(errs, validator.ValidationError{
			Field:   "scope",
			Message: "scope must be one of: org, department, user",
		})
	}

	if q.StartDate != "" {
		if _, valid := validator.IsValidDate(q.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start",
				Message: "start must be in YYYY-MM-DD format",
			})
		}
	}
	if q.EndDate != "" {
		if _, valid := validator.IsValidDate(q.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end",
				Message: "end must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type Metrics struct {
	AttendanceRate float64 `json:"attendanceRate"`
	OnTimeRate     float64 `json:"onTimeRate"`
	AvgWorkHours   float64 `json:"avgWorkHours"`
	TotalOvertime  float64 `json:"totalOvertime"`
	LateCount      int     `json:"lateCount"`
	AbsentCount    int     `json:"absentCount"`
}

type TimeseriesPoint struct {
	Date           string  `json:"date"`
	AttendanceRate float64 `json:"attendanceRate"`
	OnTimeRate     float64 `json:"onTimeRate"`
}

// Result is the output of the aggregation engine.
type Result struct {
	Metrics    Metrics
	Timeseries []TimeseriesPoint
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Response struct {
	Period     period.Kind       `json:"period"`
	Range      DateRange         `json:"range"`
	Scope      Scope             `json:"scope"`
	Department string            `json:"department,omitempty"`
	UserID     string            `json:"userId,omitempty"`
	Metrics    Metrics           `json:"metrics"`
	Timeseries []TimeseriesPoint `json:"timeseries"`
}
