package main

import (
	"context"
	"errors"
	"os"

	"moneytracker/internal/amqp"
	"moneytracker/internal/backend"
	"moneytracker/internal/cli"
	"moneytracker/internal/log"
	"moneytracker/internal/worker"
)

// The worker drains the report email queue. AMQP_URL names the queue and
// MAIL_TRANSPORT the direct route (smtp, gmail or log) mail leaves through.
func main() {
	cfg, logger := cli.Bootstrap(false)
	logger = logger.WithComponent(log.ComponentMail)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the mail worker")
		os.Exit(1)
	}

	mailCfg, err := backend.MailFromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid mail configuration", log.FieldError, err)
		os.Exit(1)
	}
	if !mailCfg.Transport.Direct() {
		logger.Error("Mail worker needs a direct transport", "transport", mailCfg.Transport)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	dispatcher, err := backend.NewFactory(logger).CreateDispatcher(ctx, mailCfg)
	if err != nil {
		logger.Error("Failed to initialize mail transport", log.FieldError, err, "transport", mailCfg.Transport)
		os.Exit(1)
	}
	if dispatcher.Cleanup != nil {
		defer dispatcher.Cleanup()
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	logger.Info("Starting mail worker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"transport", mailCfg.Transport)

	w := worker.NewMailWorker(dispatcher.Dispatcher, logger)
	if err := client.ConsumeReportEmails(ctx, w.HandleReportEmail); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer error", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Mail worker stopped gracefully")
}
