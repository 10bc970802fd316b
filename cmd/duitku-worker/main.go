package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"duitku/internal/amqp"
	"duitku/internal/config"
	applog "duitku/internal/log"
	"duitku/internal/services"
	"duitku/internal/storage"
	"duitku/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: "duitku-worker"})
	applog.SetDefault(logger)

	logger.Info("Starting duitku-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The broker is optional: without it reminders are written straight
	// to the notifications table instead of being published.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, falling back to direct notification writes", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	reminders := services.NewReminderService(repo, amqpClient,
		cfg.GoalDeadlineWindow, cfg.DebtDueWindow, cfg.BudgetThreshold)
	notifications := services.NewNotificationService(repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reminderWorker := worker.NewReminderWorker(reminders, notifications, amqpClient, cfg.ReminderCron)
	if err := reminderWorker.Start(ctx); err != nil {
		logger.Error("Failed to start reminder worker", "error", err)
		os.Exit(1)
	}
	logger.Info("Reminder worker started", "cron", cfg.ReminderCron)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	cancel()
	reminderWorker.Stop()
	logger.Info("Worker stopped gracefully")
}
