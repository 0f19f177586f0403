package kpi

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/kpi"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/period"
	settingsservice "github.com/cmlabs-hris/attendance-backend-go/internal/service/settings"
	"golang.org/x/sync/errgroup"
)

type KPIServiceImpl struct {
	attendance.RecordRepository
	settings     settings.Source
	defaultGrace int
	location     *time.Location
	maxRangeDays int
}

// DefaultMaxRangeDays bounds custom reporting ranges.
const DefaultMaxRangeDays = 366

func NewKPIService(repo attendance.RecordRepository, src settings.Source, defaultGrace int, location *time.Location, maxRangeDays int) kpi.KPIService {
	if location == nil {
		location = time.UTC
	}
	if maxRangeDays <= 0 {
		maxRangeDays = DefaultMaxRangeDays
	}
	return &KPIServiceImpl{
		RecordRepository: repo,
		settings:         src,
		defaultGrace:     defaultGrace,
		location:         location,
		maxRangeDays:     maxRangeDays,
	}
}

// GetKPI implements kpi.KPIService.
func (s *KPIServiceImpl) GetKPI(ctx context.Context, caller user.Caller, q kpi.Query, now time.Time) (kpi.Response, error) {
	if err := q.Validate(); err != nil {
		return kpi.Response{}, err
	}

	decision, err := ResolveScope(caller, q)
	if err != nil {
		return kpi.Response{}, err
	}

	kind, err := period.ParseKind(q.Period)
	if err != nil {
		return kpi.Response{}, err
	}
	start, err := parseOptionalDay(q.StartDate)
	if err != nil {
		return kpi.Response{}, err
	}
	end, err := parseOptionalDay(q.EndDate)
	if err != nil {
		return kpi.Response{}, err
	}

	r, err := period.Resolve(kind, period.Day(now.In(s.location)), start, end)
	if err != nil {
		return kpi.Response{}, err
	}
	if err := r.Limit(s.maxRangeDays); err != nil {
		return kpi.Response{}, err
	}

	filter := attendance.RecordFilter{Start: r.Start, End: r.End}
	switch decision.Scope {
	case kpi.ScopeDepartment:
		filter.Department = &decision.Department
	case kpi.ScopeUser:
		filter.UserID = &decision.UserID
	}

	var (
		records []attendance.Record
		grace   int
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		records, err = s.RecordRepository.FindMany(gctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list attendance records: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		grace = settingsservice.GracePeriodOrDefault(gctx, s.settings, s.defaultGrace)
		return nil
	})

	if err := g.Wait(); err != nil {
		return kpi.Response{}, err
	}

	result := ComputeKPI(r, records, grace)

	return kpi.Response{
		Period: kind,
		Range: kpi.DateRange{
			Start: r.Start.Format(period.DateLayout),
			End:   r.End.Format(period.DateLayout),
		},
		Scope:      decision.Scope,
		Department: decision.Department,
		UserID:     decision.UserID,
		Metrics:    result.Metrics,
		Timeseries: result.Timeseries,
	}, nil
}

func parseOptionalDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	day, err := period.ParseDay(s)
	if err != nil {
		return nil, err
	}
	return &day, nil
}
