package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"moneytracker/internal/backend"
	"moneytracker/internal/cache"
	"moneytracker/internal/cli"
	"moneytracker/internal/config"
	"moneytracker/internal/core"
	apphttp "moneytracker/internal/http"
	"moneytracker/internal/log"
	"moneytracker/internal/render"
	"moneytracker/internal/scheduler"
	"moneytracker/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(true)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// run owns every resource it opens, so all cleanups happen before main exits.
func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	factory := backend.NewFactory(logger)
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid backend configuration: %w", err)
	}
	ledger, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("initialize %s ledger backend: %w", cfg.DataBackend, err)
	}
	defer cleanup(logger, "ledger", ledger.Cleanup)
	logger.Info("Ledger backend ready", "backend", cfg.DataBackend)

	if c, ok := ledger.Backend.(cache.Cleaner); ok {
		sweeper := cache.NewManager(logger)
		sweeper.Register(c)
		go sweeper.Run(ctx, time.Minute)
	}

	builder := services.NewReportBuilder(ledger.Backend)
	loc := cfg.Location()

	srv := apphttp.NewServer(":"+cfg.Port, builder, ledger.Backend, apphttp.Options{
		JWTSecret:     cfg.JWTSecret,
		ReportTimeout: cfg.ReportTimeout,
		Locale:        cfg.ReportLocale,
		Location:      loc,
		Logger:        logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	if cfg.SchedulerEnabled {
		// scheduled mail must not go to users deleted within the cache TTL
		scheduled := services.NewReportBuilder(backend.Uncached(ledger.Backend))
		sched, closeMail, err := newScheduler(gctx, cfg, factory, scheduled, logger)
		if err != nil {
			return fmt.Errorf("initialize report scheduler: %w", err)
		}
		defer cleanup(logger, "mail transport", closeMail)

		g.Go(func() error {
			if err := sched.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		logger.Info("Report scheduler disabled")
	}

	g.Go(func() error {
		logger.Info("Starting moneytracker server", "port", cfg.Port, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newScheduler(ctx context.Context, cfg *config.Config, factory backend.Factory, builder *services.ReportBuilder, logger *log.Logger) (*scheduler.Scheduler, backend.CleanupFunc, error) {
	loc := cfg.Location()
	weekly, err := scheduler.ParseSchedule(cfg.ScheduleWeekly, loc)
	if err != nil {
		return nil, nil, err
	}
	monthly, err := scheduler.ParseSchedule(cfg.ScheduleMonthly, loc)
	if err != nil {
		return nil, nil, err
	}

	mailCfg, err := backend.MailFromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	dispatcher, err := factory.CreateDispatcher(ctx, mailCfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Report scheduler enabled",
		"weekly", cfg.ScheduleWeekly,
		"monthly", cfg.ScheduleMonthly,
		"transport", cfg.MailTransport)

	sched := scheduler.New(builder, dispatcher.Dispatcher, scheduler.SystemClock{}, logger, scheduler.Options{
		Concurrency: cfg.SchedulerConcurrency,
		Email: render.EmailOptions{
			Locale:      cfg.ReportLocale,
			ProductName: cfg.ReportProductName,
		},
	},
		scheduler.Job{Name: "weekly-report", Period: core.Weekly, Schedule: weekly},
		scheduler.Job{Name: "monthly-report", Period: core.Monthly, Schedule: monthly},
	)
	return sched, dispatcher.Cleanup, nil
}

func cleanup(logger *log.Logger, name string, fn backend.CleanupFunc) {
	if fn == nil {
		return
	}
	if err := fn(); err != nil {
		logger.Warn("Cleanup failed", "resource", name, log.FieldError, err)
	}
}
