package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/itsjessedev/workflowbot/internal/api"
	"github.com/itsjessedev/workflowbot/internal/config"
	"github.com/itsjessedev/workflowbot/internal/engine"
	"github.com/itsjessedev/workflowbot/internal/notification"
	"github.com/itsjessedev/workflowbot/internal/repository"
	"github.com/itsjessedev/workflowbot/internal/routing"
	"github.com/itsjessedev/workflowbot/internal/worker"
	"github.com/itsjessedev/workflowbot/internal/workflow"
	"github.com/itsjessedev/workflowbot/migrations"
	"github.com/itsjessedev/workflowbot/pkg/database"
	"github.com/itsjessedev/workflowbot/pkg/utils"
)

func main() {
	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting WorkflowBot",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("demo_mode", cfg.DemoMode()))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(migrations.FS); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	requestRepo := repository.NewRequestRepository(db.DB, logger)
	approvalRepo := repository.NewApprovalRepository(db.DB, logger)
	auditRepo := repository.NewAuditRepository(db.DB, logger)

	var notifier notification.Notifier
	if cfg.DemoMode() {
		logger.Info("No Lark credentials configured, notifications go to the log")
		notifier = notification.NewLogNotifier(logger)
	} else {
		notifier = notification.NewLarkNotifier(notification.LarkConfig{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
		}, logger)
	}

	registry := workflow.DefaultRegistry()
	directory := &routing.StaticDirectory{
		ManagerApprover: approverFromConfig(cfg.Approvers.Manager),
		HR:              approverFromConfig(cfg.Approvers.HR),
		Finance:         approverFromConfig(cfg.Approvers.Finance),
		IT:              approverFromConfig(cfg.Approvers.IT),
	}
	requestRouter := routing.NewRouter(directory, logger)

	eng := engine.NewEngine(db, requestRepo, approvalRepo, auditRepo, registry, notifier, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workers := worker.NewManager(logger)
	workers.Register(worker.NewReminderWorker(eng, worker.ReminderPolicy{
		Interval:     cfg.Workflow.ReminderInterval,
		MaxReminders: cfg.Workflow.MaxReminders,
		PollInterval: cfg.Workflow.ReminderPollInterval,
		BatchSize:    cfg.Workflow.ReminderBatchSize,
	}, logger))

	if err := workers.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start background workers", zap.Error(err))
	}
	defer workers.StopAll()

	server := api.NewServer(api.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, eng, registry, requestRouter, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

func approverFromConfig(a config.ApproverConfig) routing.Approver {
	return routing.Approver{ID: a.ID, Name: a.Name, Email: a.Email}
}
