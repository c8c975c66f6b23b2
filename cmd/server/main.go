package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/backend"
	"github.com/garyjia/billing-workflow/internal/billing"
	"github.com/garyjia/billing-workflow/internal/config"
	"github.com/garyjia/billing-workflow/internal/customer"
	"github.com/garyjia/billing-workflow/internal/document"
	"github.com/garyjia/billing-workflow/internal/email"
	httpapi "github.com/garyjia/billing-workflow/internal/interfaces/http"
	"github.com/garyjia/billing-workflow/internal/lark"
	"github.com/garyjia/billing-workflow/internal/notification"
	"github.com/garyjia/billing-workflow/internal/numbering"
	"github.com/garyjia/billing-workflow/internal/repository"
	"github.com/garyjia/billing-workflow/internal/storage"
	"github.com/garyjia/billing-workflow/pkg/database"
	"github.com/garyjia/billing-workflow/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
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

	logger.Info("Starting billing workflow service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port),
		zap.Int("companies", len(cfg.Companies)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize local state database
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

	if err := database.NewMigrator(db, logger).Migrate(ctx); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	preferences := repository.NewPreferenceRepository(db.DB, logger)
	notificationRepo := repository.NewNotificationRepository(db.DB, logger)

	// Initialize backend client; a token cached by an earlier run wins over config
	client := backend.NewClient(backend.Config{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.Backend.Timeout,
		UserAgent: cfg.Backend.UserAgent,
	}, logger)
	client.SetToken(initialToken(ctx, preferences, cfg.Backend.Token, logger))

	// Notifications
	var chat port.ChatNotifier
	if cfg.Lark.Enabled {
		larkClient := lark.NewClient(lark.Config{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
			ChatID:    cfg.Lark.ChatID,
			BaseURL:   cfg.Lark.BaseURL,
		}, logger)
		chat = lark.NewMessageAPI(larkClient, logger)
	}
	notifications := notification.NewService(notificationRepo, chat, logger)

	// Billing workflow
	allocator := numbering.NewAllocator(client, logger)
	resolver := customer.NewResolver(client, cfg.Customer.DefaultRegion, logger)
	gateway := billing.NewGateway(client, allocator, billing.RetryPolicy{
		MaxRetries: cfg.Retry.MaxRetries,
		Backoff:    cfg.Retry.Backoff,
	}, logger)
	registry := billing.NewRegistry(billing.NewCompanyCatalog(cfg.Companies), billing.SessionDeps{
		Resolver: resolver,
		Gateway:  gateway,
		Notifier: notifications,
		Logger:   logger,
	}, logger)

	// Documents
	fileStorage := storage.NewLocalFileStorage(cfg.Document.OutputDir, logger)
	composer := document.NewComposer(
		document.Config{
			Timeout:   cfg.Document.Timeout,
			Terms:     cfg.Document.Terms,
			Signatory: cfg.Document.Signatory,
			Creator:   cfg.Document.Creator,
		},
		document.NewLogoLoader(cfg.Document.LogoDir, logger),
		client,
		document.NewFitzRasterizer(cfg.Document.PreviewDPI, cfg.Document.PreviewMaxWidth),
		fileStorage,
		storage.NewFolderManager(cfg.Document.OutputDir, logger),
		logger,
	)
	mailer := email.NewDispatcher(client, notifications, cfg.Document.Timeout, logger)

	// HTTP API
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		Mode:            cfg.Server.Mode,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, httpapi.Dependencies{
		Registry:      registry,
		Documents:     composer,
		Mailer:        mailer,
		Notifications: notifications,
		Preferences:   preferences,
		Directory:     client,
		Search: customer.LiveSearchConfig{
			Debounce:      cfg.Customer.Debounce,
			MinQueryChars: cfg.Customer.MinChars,
			SearchTimeout: cfg.Customer.SearchTimeout,
		},
		Token: client,
	}, logger)

	if err := server.Start(ctx); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Server exited successfully")
}

// initialToken prefers the cached token and falls back to the configured one
func initialToken(ctx context.Context, prefs port.PreferenceRepository, configured string, logger *zap.Logger) string {
	cached, err := prefs.Get(ctx, port.PrefAuthToken)
	switch {
	case err == nil && cached != "":
		return cached
	case err != nil && !errors.Is(err, port.ErrNotFound):
		logger.Warn("Failed to read cached auth token", zap.Error(err))
	}
	return configured
}
