package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"moneytracker/internal/backend"
	"moneytracker/internal/cli"
	"moneytracker/internal/core"
	"moneytracker/internal/log"
	"moneytracker/internal/render"
	"moneytracker/internal/scheduler"
	"moneytracker/internal/services"
)

// send-report runs a single scheduler tick: the period report goes to every
// user now instead of at the next scheduled activation.
func main() {
	periodFlag := flag.String("period", "", "report period to send: weekly or monthly")
	atFlag := flag.String("at", "", "resolve the period as if today were this date (YYYY-MM-DD)")
	dryRun := flag.Bool("dry-run", false, "log emails instead of sending them")
	flag.Parse()

	cfg, logger := cli.Bootstrap(false)

	period, err := core.ParsePeriod(*periodFlag)
	if err != nil {
		logger.Error("Invalid -period flag", log.FieldError, err)
		os.Exit(2)
	}

	loc := cfg.Location()
	now := time.Now().In(loc)
	if *atFlag != "" {
		now, err = time.ParseInLocation(time.DateOnly, *atFlag, loc)
		if err != nil {
			logger.Error("Invalid -at flag", log.FieldError, err)
			os.Exit(2)
		}
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	factory := backend.NewFactory(logger)
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	ledger, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize ledger backend", log.FieldError, err)
		os.Exit(1)
	}
	if ledger.Cleanup != nil {
		defer ledger.Cleanup()
	}

	mailCfg, err := backend.MailFromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid mail configuration", log.FieldError, err)
		os.Exit(1)
	}
	if *dryRun {
		mailCfg.Transport = backend.LogTransport
	}
	dispatcher, err := factory.CreateDispatcher(ctx, mailCfg)
	if err != nil {
		logger.Error("Failed to initialize mail transport", log.FieldError, err)
		os.Exit(1)
	}
	if dispatcher.Cleanup != nil {
		defer dispatcher.Cleanup()
	}

	sched := scheduler.New(services.NewReportBuilder(ledger.Backend), dispatcher.Dispatcher, scheduler.SystemClock{}, logger, scheduler.Options{
		Concurrency: cfg.SchedulerConcurrency,
		Email: render.EmailOptions{
			Locale:      cfg.ReportLocale,
			ProductName: cfg.ReportProductName,
		},
	})

	res, err := sched.RunTick(ctx, period, now)
	if err != nil {
		logger.Error("Report run failed", log.FieldError, err)
		os.Exit(1)
	}

	fmt.Printf("%s reports: %d users, %d sent, %d skipped, %d failed\n",
		period, res.Users, res.Sent, res.Skipped, res.Failed)
	if res.Failed > 0 {
		os.Exit(1)
	}
}
