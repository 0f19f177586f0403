package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Redis      RedisConfig
	Attendance AttendanceConfig
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// RedisConfig is optional. An empty Address disables the settings cache.
type RedisConfig struct {
	Address          string
	Password         string
	DB               int
	SettingsCacheTTL time.Duration
}

// AttendanceConfig holds the check-in/check-out policy knobs.
type AttendanceConfig struct {
	MaxLocationAccuracyMeters       float64
	OvertimeStandardHours           float64
	PinAdjustMaxMeters              float64
	GeofenceEnforced                bool
	OfficeLatitude                  float64
	OfficeLongitude                 float64
	OfficeRadiusMeters              float64
	GeofenceAccuracyToleranceMeters float64
	ActivityLogStrict               bool
	DefaultGracePeriodMinutes       int
	MaxKPIRangeDays                 int
}

func Load() (*Config, error) {
	loadDotEnv()

	var p parser
	config := &Config{}

	config.Database = DatabaseConfig{
		Host:        getEnv("DB_HOST", "localhost"),
		Port:        p.int("DB_PORT", 5432),
		User:        getEnv("DB_USER", "postgres"),
		Password:    getEnv("DB_PASSWORD", ""),
		Name:        getEnv("DB_NAME", "attendance"),
		SSLMode:     getEnv("DB_SSL_MODE", "disable"),
		MaxConns:    p.int("DB_MAX_CONNS", 25),
		MinConns:    p.int("DB_MIN_CONNS", 5),
		AutoMigrate: p.bool("DB_AUTO_MIGRATE", false),
	}

	config.App = AppConfig{
		Port:           p.int("APP_PORT", 8080),
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("APP_TIMEZONE", "UTC"),
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RequestTimeout: p.duration("REQUEST_TIMEOUT", 30*time.Second),
	}

	config.JWT = readJWT()

	config.Redis = RedisConfig{
		Address:          getEnv("REDIS_ADDRESS", ""),
		Password:         getEnv("REDIS_PASSWORD", ""),
		DB:               p.int("REDIS_DB", 0),
		SettingsCacheTTL: p.duration("SETTINGS_CACHE_TTL", 5*time.Minute),
	}

	config.Attendance = AttendanceConfig{
		MaxLocationAccuracyMeters:       p.float("MAX_LOCATION_ACCURACY_METERS", 5000),
		OvertimeStandardHours:           p.float("OVERTIME_STANDARD_HOURS", 0),
		PinAdjustMaxMeters:              p.float("PIN_ADJUST_MAX_METERS", 100),
		GeofenceEnforced:                p.bool("GEOFENCE_ENFORCED", false),
		OfficeLatitude:                  p.float("OFFICE_LATITUDE", 0),
		OfficeLongitude:                 p.float("OFFICE_LONGITUDE", 0),
		OfficeRadiusMeters:              p.float("OFFICE_RADIUS_METERS", 100),
		GeofenceAccuracyToleranceMeters: p.float("GEOFENCE_ACCURACY_TOLERANCE_METERS", 100),
		ActivityLogStrict:               p.bool("ACTIVITY_LOG_STRICT", false),
		DefaultGracePeriodMinutes:       p.int("DEFAULT_GRACE_PERIOD_MINUTES", 15),
		MaxKPIRangeDays:                 p.int("MAX_KPI_RANGE_DAYS", 366),
	}

	if p.err != nil {
		return nil, p.err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if err := c.JWT.Validate(); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	a := c.Attendance
	if a.MaxLocationAccuracyMeters <= 0 {
		return fmt.Errorf("MAX_LOCATION_ACCURACY_METERS must be positive")
	}
	if a.PinAdjustMaxMeters <= 0 {
		return fmt.Errorf("PIN_ADJUST_MAX_METERS must be positive")
	}
	if a.OvertimeStandardHours < 0 {
		return fmt.Errorf("OVERTIME_STANDARD_HOURS must not be negative")
	}
	if a.MaxKPIRangeDays <= 0 {
		return fmt.Errorf("MAX_KPI_RANGE_DAYS must be positive")
	}
	if a.DefaultGracePeriodMinutes < 0 {
		return fmt.Errorf("DEFAULT_GRACE_PERIOD_MINUTES must not be negative")
	}
	if a.GeofenceEnforced {
		if a.OfficeRadiusMeters <= 0 || a.GeofenceAccuracyToleranceMeters <= 0 {
			return fmt.Errorf("OFFICE_RADIUS_METERS and GEOFENCE_ACCURACY_TOLERANCE_METERS must be positive when GEOFENCE_ENFORCED is set")
		}
		if a.OfficeLatitude < -90 || a.OfficeLatitude > 90 || a.OfficeLongitude < -180 || a.OfficeLongitude > 180 {
			return fmt.Errorf("OFFICE_LATITUDE/OFFICE_LONGITUDE out of range")
		}
	}
	return nil
}

// LoadJWT reads only the token settings, for tools that do not touch the database.
func LoadJWT() (JWTConfig, error) {
	loadDotEnv()

	cfg := readJWT()
	if err := cfg.Validate(); err != nil {
		return JWTConfig{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c JWTConfig) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	return nil
}

func readJWT() JWTConfig {
	return JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file loaded, using process environment")
	}
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// parser reads typed env vars and keeps the first error.
type parser struct {
	err error
}

func (p *parser) int(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return v
}

func (p *parser) float(key string, fallback float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return v
}

func (p *parser) bool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return v
}
