package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/quickdesk/helpdesk-service/internal/api/http"
	"github.com/quickdesk/helpdesk-service/internal/api/http/handlers"
	"github.com/quickdesk/helpdesk-service/internal/auth"
	"github.com/quickdesk/helpdesk-service/internal/blob"
	"github.com/quickdesk/helpdesk-service/internal/config"
	"github.com/quickdesk/helpdesk-service/internal/events"
	"github.com/quickdesk/helpdesk-service/internal/mail"
	"github.com/quickdesk/helpdesk-service/internal/observability"
	"github.com/quickdesk/helpdesk-service/internal/persistence"
	"github.com/quickdesk/helpdesk-service/internal/repository"
	"github.com/quickdesk/helpdesk-service/internal/service"
	"github.com/quickdesk/helpdesk-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	dispatcher := events.NewAsyncDispatcher(256, logger)

	fileStore, err := blob.NewStore(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init file store", zap.Error(err))
	}
	mailer := mail.NewMailer(cfg.SMTP, logger)

	authService := service.NewAuthService(cfg.Auth, userRepo)
	userService := service.NewUserService(userRepo, ticketRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		CategoryRepo: categoryRepo,
		UserRepo:     userRepo,
		Dispatcher:   dispatcher,
	})
	commentService := service.NewCommentService(commentRepo, ticketRepo, dispatcher)
	statsService := service.NewStatsService(statsRepo, redis, cfg.Stats.CacheTTL(), logger)
	notificationService := service.NewNotificationService(dispatcher, userRepo, mailer, logger)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Storage.MaxFileSizeByte) * cfg.Storage.MaxTicketFiles,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	app.Static("/uploads", cfg.Storage.UploadDir)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService, userService),
		Tickets:        handlers.NewTicketsHandler(ticketService, commentService, fileStore, cfg.Storage),
		Categories:     handlers.NewCategoriesHandler(categoryService),
		Stats:          handlers.NewStatsHandler(statsService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
