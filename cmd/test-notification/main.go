package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/garyjia/billing-workflow/internal/config"
	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/garyjia/billing-workflow/internal/lark"
	"github.com/garyjia/billing-workflow/internal/notification"
	"github.com/garyjia/billing-workflow/internal/repository"
	"github.com/garyjia/billing-workflow/pkg/database"
	"github.com/garyjia/billing-workflow/pkg/utils"
)

// Sends one notification through the same path the server uses: local
// history in sqlite, then the Lark finance chat.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	message := flag.String("message", "Test notification from the billing workflow", "text to send")
	flag.Parse()

	fmt.Println("=== Billing Notification Test ===")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.Lark.Enabled {
		log.Fatalf("lark.enabled is false; set it and LARK_APP_ID, LARK_APP_SECRET, LARK_CHAT_ID")
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{Level: "debug", OutputPath: "stdout", Format: "console"})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(database.Config{Path: cfg.Database.Path}, logger)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := database.NewMigrator(db, logger).Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	client := lark.NewClient(lark.Config{
		AppID:     cfg.Lark.AppID,
		AppSecret: cfg.Lark.AppSecret,
		ChatID:    cfg.Lark.ChatID,
		BaseURL:   cfg.Lark.BaseURL,
	}, logger)
	chat := lark.NewMessageAPI(client, logger)

	fmt.Printf("\n[Step 1] Sending directly to chat %s...\n", client.ChatID())
	if err := chat.Notify(ctx, *message); err != nil {
		log.Fatalf("Direct send failed: %v", err)
	}
	fmt.Println("✓ Chat message sent")

	fmt.Println("\n[Step 2] Publishing through the notification service...")
	svc := notification.NewService(repository.NewNotificationRepository(db.DB, logger), chat, logger)
	if err := svc.Publish(ctx, entity.Notification{
		Kind:    entity.NotificationBillSaved,
		Title:   "Notification test",
		Message: *message,
	}); err != nil {
		log.Fatalf("Publish failed: %v", err)
	}

	history, err := svc.List(ctx)
	if err != nil {
		log.Fatalf("Failed to read history: %v", err)
	}
	fmt.Printf("✓ Stored; history holds %d of at most %d entries\n", len(history), entity.NotificationHistoryLimit)
}
