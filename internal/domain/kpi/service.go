package kpi

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
)

var (
	ErrInvalidScope       = errors.New("invalid reporting scope")
	ErrDepartmentRequired = errors.New("department is required for department scope")
)

// KPIService computes attendance KPIs for the population the caller may see.
type KPIService interface {
	GetKPI(ctx context.Context, caller user.Caller, q Query, now time.Time) (Response, error)
}
