package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/config"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/settings"
	appHTTP "github.com/cmlabs-hris/hris-leave-engine/internal/handler/http"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-leave-engine/internal/repository/postgresql"
	"github.com/cmlabs-hris/hris-leave-engine/internal/repository/sqlite"
	employeeService "github.com/cmlabs-hris/hris-leave-engine/internal/service/employee"
	leaveService "github.com/cmlabs-hris/hris-leave-engine/internal/service/leave"
	settingsService "github.com/cmlabs-hris/hris-leave-engine/internal/service/settings"
	"github.com/cmlabs-hris/hris-leave-engine/internal/service/transfer"
	"golang.org/x/sync/errgroup"
)

// repositories is the storage backend selected by DB_DRIVER.
type repositories struct {
	tx        database.Transactor
	locker    leave.EmployeeLocker
	records   leave.LeaveRecordRepository
	years     leave.LeaveYearRepository
	archive   leave.ArchiveRepository
	employees employee.EmployeeRepository
	settings  settings.SettingsRepository
	close     func()
}

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	setupLogger(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer repos.close()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.AccessTokenTTL())
	hub := sse.NewHub()
	locks := lock.NewKeyedMutex()

	settingsSvc := settingsService.NewSettingsService(repos.settings, settings.Defaults{
		DefaultLeaveAllocation: cfg.Leave.DefaultAllocation,
		SickLeaveAllocation:    cfg.Leave.SickAllocation,
	})

	deps := leaveService.Dependencies{
		Transactor:     repos.tx,
		Locker:         repos.locker,
		Records:        repos.records,
		Years:          repos.years,
		Archive:        repos.archive,
		Employees:      repos.employees,
		Settings:       settingsSvc,
		Publisher:      hub,
		Locks:          locks,
		YearStartMonth: cfg.Leave.YearStartMonth,
	}
	leaveSvc := leaveService.NewLeaveService(deps)
	yearSvc := leaveService.NewYearService(deps)
	balanceSvc := leaveService.NewBalanceService(deps)
	employeeSvc := employeeService.NewEmployeeService(repos.tx, repos.locker, repos.employees, repos.records, settingsSvc, locks)
	transferSvc := transfer.NewService(leaveSvc, repos.employees)

	router := appHTTP.NewRouter(JWTService, appHTTP.Handlers{
		Leave:    appHTTP.NewLeaveHandler(leaveSvc),
		Employee: appHTTP.NewEmployeeHandler(employeeSvc, leaveSvc, hub),
		Admin:    appHTTP.NewAdminHandler(yearSvc, balanceSvc, transferSvc, hub),
		Settings: appHTTP.NewSettingsHandler(settingsSvc),
		Events:   appHTTP.NewEventHandler(hub, JWTService),
	}, appHTTP.RouterOptions{
		AppName:        cfg.App.Name,
		Env:            cfg.App.Env,
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server running", "addr", "http://localhost"+server.Addr, "driver", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Cron.Enabled {
		scheduler := cron.NewScheduler()
		cron.NewLeaveJobs(balanceSvc, cfg.Cron.ReconcileInterval).RegisterJobs(scheduler)
		scheduler.Start(gCtx)

		g.Go(func() error {
			<-gCtx.Done()
			scheduler.Stop()
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		store, err := sqlite.New(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &repositories{
			tx:        store,
			locker:    sqlite.NewEmployeeLocker(),
			records:   sqlite.NewLeaveRecordRepository(store),
			years:     sqlite.NewLeaveYearRepository(store),
			archive:   sqlite.NewArchiveRepository(store),
			employees: sqlite.NewEmployeeRepository(store),
			settings:  sqlite.NewSettingsRepository(store),
			close: func() {
				if err := store.Close(); err != nil {
					slog.Error("Failed to close SQLite database", "error", err)
				}
			},
		}, nil

	default:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, err
		}
		return &repositories{
			tx:        postgresql.NewTransactor(db),
			locker:    postgresql.NewEmployeeLocker(),
			records:   postgresql.NewLeaveRecordRepository(db),
			years:     postgresql.NewLeaveYearRepository(db),
			archive:   postgresql.NewArchiveRepository(db),
			employees: postgresql.NewEmployeeRepository(db),
			settings:  postgresql.NewSettingsRepository(db),
			close:     db.Close,
		}, nil
	}
}

func setupLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
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
