package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/itsjessedev/workflowbot/internal/config"
	"github.com/itsjessedev/workflowbot/internal/notification"
	"github.com/itsjessedev/workflowbot/internal/routing"
	"github.com/itsjessedev/workflowbot/pkg/utils"
)

// Isolated smoke test for the notification channel. Sends one approval
// request message through the configured notifier without touching the
// database or the engine.

func main() {
	fmt.Println("=== Notification Test ===")
	fmt.Println("Sends a sample approval request through the configured notifier")
	fmt.Println()

	configPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      "debug",
		OutputPath: "stdout",
		Format:     "console",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	var notifier notification.Notifier
	if cfg.DemoMode() {
		fmt.Println("No Lark credentials configured, using the log notifier")
		notifier = notification.NewLogNotifier(logger)
	} else {
		fmt.Printf("App ID: %s...%s\n", cfg.Lark.AppID[:4], cfg.Lark.AppID[len(cfg.Lark.AppID)-4:])
		notifier = notification.NewLarkNotifier(notification.LarkConfig{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
		}, logger)
	}

	approver := routing.Approver{
		ID:    "MGR001",
		Name:  "Sarah Johnson",
		Email: "sarah.johnson@company.com",
	}
	if len(os.Args) > 1 {
		approver.Email = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Printf("\n[Step 1] Sending approval request to %s...\n", approver.Email)
	err = notifier.NotifyApprover(ctx, approver, notification.RequestSummary{
		RequestID:    1,
		Reference:    "REQ-TEST0001",
		WorkflowType: "pto",
		Title:        "Notification smoke test",
		Requester:    "Test Requester",
		Priority:     "normal",
		Summary:      "PTO Request: test message, please ignore",
	})
	if err != nil {
		fmt.Printf("✗ Failed to send approval request: %v\n", err)
	} else {
		fmt.Println("✓ Approval request sent")
	}

	fmt.Println("\n[Step 2] Sending outcome notification...")
	err = notifier.NotifyRequester(ctx, notification.Recipient{
		ID:    "U123",
		Name:  "Test Requester",
		Email: approver.Email,
	}, notification.Outcome{
		RequestID:    1,
		Reference:    "REQ-TEST0001",
		WorkflowType: "pto",
		Title:        "Notification smoke test",
		Status:       "approved",
		Comments:     "test message, please ignore",
	})
	if err != nil {
		fmt.Printf("✗ Failed to send outcome notification: %v\n", err)
	} else {
		fmt.Println("✓ Outcome notification sent")
	}

	fmt.Println("\n=== Test Complete ===")
}
