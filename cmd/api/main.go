package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/activity"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/settings"
	appHTTP "github.com/cmlabs-hris/attendance-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/geo"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/rediscache"
	activityService "github.com/cmlabs-hris/attendance-backend-go/internal/service/activity"
	attendanceService "github.com/cmlabs-hris/attendance-backend-go/internal/service/attendance"
	kpiService "github.com/cmlabs-hris/attendance-backend-go/internal/service/kpi"
	settingsService "github.com/cmlabs-hris/attendance-backend-go/internal/service/settings"
	"github.com/cmlabs-hris/attendance-backend-go/migrations"
	"github.com/go-chi/httplog/v3"
)

func main() {
	if err := run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-backend"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: int32(cfg.Database.MaxConns),
		MinConns: int32(cfg.Database.MinConns),
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgresql.Migrate(ctx, db, migrations.FS); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	location, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return fmt.Errorf("loading timezone: %w", err)
	}

	attendanceRepo := postgresql.NewAttendanceRepository(db)

	var activitySink activity.Sink = postgresql.NewActivityLogRepository(db)
	if !cfg.Attendance.ActivityLogStrict {
		activitySink = activityService.NewBestEffortSink(activitySink)
	}

	var settingsRepo settings.Repository = postgresql.NewSettingsRepository(db)
	if cfg.Redis.Address != "" {
		redisClient := rediscache.NewClient(rediscache.Options{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		settingsRepo = rediscache.NewCachedSettingsRepository(redisClient, settingsRepo, cfg.Redis.SettingsCacheTTL)
	}

	policy := attendanceService.Policy{
		MaxAccuracyMeters:  cfg.Attendance.MaxLocationAccuracyMeters,
		StandardWorkHours:  cfg.Attendance.OvertimeStandardHours,
		PinAdjustMaxMeters: cfg.Attendance.PinAdjustMaxMeters,
		Location:           location,
	}
	if cfg.Attendance.GeofenceEnforced {
		policy.Geofence = &geo.Fence{
			Center: geo.Point{
				Latitude:  cfg.Attendance.OfficeLatitude,
				Longitude: cfg.Attendance.OfficeLongitude,
			},
			RadiusMeters:            cfg.Attendance.OfficeRadiusMeters,
			AccuracyToleranceMeters: cfg.Attendance.GeofenceAccuracyToleranceMeters,
		}
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	settingsSvc := settingsService.NewSettingsService(settingsRepo)
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, activitySink, policy)
	kpiSvc := kpiService.NewKPIService(attendanceRepo, settingsSvc, cfg.Attendance.DefaultGracePeriodMinutes, location, cfg.Attendance.MaxKPIRangeDays)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:         logger,
			LogLevel:       cfg.SlogLevel(),
			AllowedOrigins: cfg.App.AllowedOrigins,
			RequestTimeout: cfg.App.RequestTimeout,
		},
		JWTService,
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewKPIHandler(kpiSvc),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
