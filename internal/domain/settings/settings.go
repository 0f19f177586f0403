package settings

import (
	"context"
	"errors"
)

const (
	KeyGracePeriodMinutes     = "grace_period_minutes"
	DefaultGracePeriodMinutes = 15
)

var (
	ErrSettingNotFound  = errors.New("setting not found")
	ErrMalformedSetting = errors.New("setting value is malformed")
)

// Repository reads raw system settings by key.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
}

// Source exposes typed settings to the core.
type Source interface {
	GracePeriodMinutes(ctx context.Context) (int, error)
}
