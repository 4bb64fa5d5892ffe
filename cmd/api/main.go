package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/re-allocator/internal/api/http"
	"github.com/spec-kit/re-allocator/internal/api/http/handlers"
	"github.com/spec-kit/re-allocator/internal/auth"
	"github.com/spec-kit/re-allocator/internal/config"
	"github.com/spec-kit/re-allocator/internal/events"
	"github.com/spec-kit/re-allocator/internal/observability"
	"github.com/spec-kit/re-allocator/internal/persistence"
	"github.com/spec-kit/re-allocator/internal/repository"
	"github.com/spec-kit/re-allocator/internal/service"
	"github.com/spec-kit/re-allocator/internal/worker"
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
	departmentRepo := repository.NewDepartmentRepository(pool)
	resourceRepo := repository.NewResourceRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	approvalRepo := repository.NewApprovalRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	availabilityCache := persistence.NewAvailabilityCache(redis.Client, cfg.Booking.CacheTTL())

	authService := service.NewAuthService(*cfg, userRepo)
	availabilityService := service.NewAvailabilityService(service.AvailabilityDependencies{
		ResourceRepo: resourceRepo,
		TicketRepo:   ticketRepo,
		Cache:        availabilityCache,
		Location:     cfg.Booking.Location(),
	})
	bookingService := service.NewBookingService(service.BookingDependencies{
		TicketRepo:     ticketRepo,
		ResourceRepo:   resourceRepo,
		DepartmentRepo: departmentRepo,
		ApprovalRepo:   approvalRepo,
		Availability:   availabilityService,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	resourceService := service.NewResourceService(resourceRepo, departmentRepo, availabilityService)
	departmentService := service.NewDepartmentService(departmentRepo, userRepo)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService, logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, cfg.Auth.CookieName)

	app := fiber.New()
	metrics := observability.NewMetrics()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService, cfg.Auth),
		Tickets:        handlers.NewTicketsHandler(bookingService, availabilityService),
		Approvals:      handlers.NewApprovalsHandler(bookingService),
		Resources:      handlers.NewResourcesHandler(resourceService),
		Departments:    handlers.NewDepartmentsHandler(departmentService),
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
