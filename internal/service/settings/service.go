package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/settings"
)

type SettingsServiceImpl struct {
	settings.Repository
}

func NewSettingsService(repo settings.Repository) settings.Source {
	return &SettingsServiceImpl{Repository: repo}
}

// GracePeriodMinutes implements settings.Source.
func (s *SettingsServiceImpl) GracePeriodMinutes(ctx context.Context) (int, error) {
	raw, err := s.Repository.Get(ctx, settings.KeyGracePeriodMinutes)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", settings.KeyGracePeriodMinutes, err)
	}

	minutes, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("%w: %s=%q", settings.ErrMalformedSetting, settings.KeyGracePeriodMinutes, raw)
	}

	return minutes, nil
}

// GracePeriodOrDefault reads the grace period and falls back to fallback on any
// failure. The grace period is not safety-critical, so errors are only logged.
func GracePeriodOrDefault(ctx context.Context, src settings.Source, fallback int) int {
	if src == nil {
		return fallback
	}
	minutes, err := src.GracePeriodMinutes(ctx)
	if err != nil {
		slog.Warn("Using default grace period", "default_minutes", fallback, "error", err)
		return fallback
	}
	return minutes
}
