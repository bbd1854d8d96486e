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

	"github.com/cybercafe-ops/cafe-backend-go/internal/config"
	httphandler "github.com/cybercafe-ops/cafe-backend-go/internal/handler/http"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/clock"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/cron"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/database"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/jwt"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/storage"
	"github.com/cybercafe-ops/cafe-backend-go/internal/repository/postgresql"
	allowancesvc "github.com/cybercafe-ops/cafe-backend-go/internal/service/allowance"
	attendancesvc "github.com/cybercafe-ops/cafe-backend-go/internal/service/attendance"
	authsvc "github.com/cybercafe-ops/cafe-backend-go/internal/service/auth"
	filesvc "github.com/cybercafe-ops/cafe-backend-go/internal/service/file"
	locationsvc "github.com/cybercafe-ops/cafe-backend-go/internal/service/location"
	reportsvc "github.com/cybercafe-ops/cafe-backend-go/internal/service/report"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	setupLogger(cfg.App.LogLevel)

	timezone, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone: %w", err)
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	fileStorage, err := newFileStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration)
	clk := clock.System()

	// Repositories
	userRepo := postgresql.NewUserRepository(db)
	locationRepo := postgresql.NewLocationRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	claimRepo := postgresql.NewClaimRepository(db)

	// Services
	queryTimeout := cfg.Database.QueryTimeout
	fileService := filesvc.NewFileService(fileStorage)
	authService := authsvc.NewAuthService(userRepo, jwtService, queryTimeout)
	locationService := locationsvc.NewLocationService(locationRepo, queryTimeout)
	attendanceService := attendancesvc.NewAttendanceService(attendanceRepo, locationRepo, fileService, clk, timezone, queryTimeout)
	txRunner := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return postgresql.WithTransaction(ctx, db, fn)
	}
	allowanceService := allowancesvc.NewAllowanceService(txRunner, claimRepo, attendanceRepo, cfg.Allowance.RatePerDay, clk, queryTimeout)
	reportService := reportsvc.NewReportService(attendanceRepo, claimRepo, queryTimeout)

	// Handlers
	authHandler := httphandler.NewAuthHandler(authService, jwtService)
	attendanceHandler := httphandler.NewAttendanceHandler(attendanceService)
	allowanceHandler := httphandler.NewAllowanceHandler(allowanceService)
	locationHandler := httphandler.NewLocationHandler(locationService)
	reportHandler := httphandler.NewReportHandler(reportService)

	router := httphandler.NewRouter(
		httphandler.RouterConfig{
			FrontendURL: cfg.App.FrontendURL,
			Env:         cfg.App.Env,
		},
		jwtService,
		authHandler,
		attendanceHandler,
		allowanceHandler,
		locationHandler,
		reportHandler,
	)

	scheduler := cron.NewScheduler()
	scheduler.Register(cron.NewMissingCheckOutJob(attendanceRepo, clk, timezone))
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

func newFileStorage(cfg *config.Config) (storage.FileStorage, error) {
	switch cfg.Storage.Type {
	case "s3":
		return storage.NewS3Storage(context.Background(), cfg.Storage.S3Bucket, cfg.Storage.S3Prefix, cfg.Storage.S3Region)
	default:
		return storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	}
}
