package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anjiri1684/mentor_marketplace/cache"
	config "github.com/anjiri1684/mentor_marketplace/configs"
	"github.com/anjiri1684/mentor_marketplace/database"
	"github.com/anjiri1684/mentor_marketplace/docstore"
	"github.com/anjiri1684/mentor_marketplace/handlers"
	"github.com/anjiri1684/mentor_marketplace/jobs"
	"github.com/anjiri1684/mentor_marketplace/payments"
	"github.com/anjiri1684/mentor_marketplace/repository"
	"github.com/anjiri1684/mentor_marketplace/routes"
	"github.com/anjiri1684/mentor_marketplace/services"
	"github.com/anjiri1684/mentor_marketplace/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("🔥 Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("🔥 %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("🔥 %v", err)
	}

	redisCache, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Fatalf("🔥 Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	firestoreStore, err := docstore.NewFirestoreStore(ctx, cfg.FirebaseCredentialsFile, cfg.FirebaseProjectID)
	if err != nil {
		log.Fatalf("🔥 Failed to connect to Firestore: %v", err)
	}
	defer firestoreStore.Close()

	gateway := payments.NewStripeGateway(cfg.StripeSecretKey, cfg.ConnectRefreshURL, cfg.ConnectReturnURL)
	parser := payments.NewStripeEventParser(cfg.StripeWebhookSecret)

	slotRepo := repository.NewSlotRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	reconciliationRepo := repository.NewReconciliationRepository(db)
	mentorAccounts := docstore.NewMentorAccounts(firestoreStore)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	slotAllocator := services.NewSlotAllocator(slotRepo, cache.NewSlotListCache(redisCache), cfg.Location)
	ledger := services.NewPaymentLedger(paymentRepo)
	booking := services.NewBookingOrchestrator(slotAllocator, gateway, sessionRepo, ledger, reconciliationRepo, hub, cfg.MeetingBaseURL)
	lifecycle := services.NewSessionLifecycleManager(
		sessionRepo,
		ledger,
		slotAllocator,
		gateway,
		mentorAccounts,
		cache.NewSessionLocker(redisCache),
		reconciliationRepo,
		hub,
		cfg.PlatformFeeBps,
	)
	payouts := services.NewPayoutManager(mentorAccounts, gateway)
	reconciler := services.NewWebhookReconciler(parser, cache.NewEventDeduper(redisCache), ledger, lifecycle, payouts, reconciliationRepo)

	c := cron.New()
	scheduled, err := jobs.Schedule(c, jobs.NewAuthorizationSweeper(lifecycle, cfg.AuthorizationTTL))
	if err != nil {
		log.Fatalf("🔥 Failed to schedule authorization sweeper: %v", err)
	}
	if scheduled {
		c.Start()
		defer c.Stop()
		log.Printf("✅ Authorization sweeper scheduled (ttl %s)", cfg.AuthorizationTTL)
	}

	app := fiber.New(fiber.Config{
		AppName:       "Mentor Marketplace",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Idempotency-Key, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.Register(app, routes.Handlers{
		Bookings: handlers.NewBookingHandler(booking),
		Sessions: handlers.NewSessionHandler(lifecycle),
		Slots:    handlers.NewSlotHandler(slotAllocator),
		Payouts:  handlers.NewPayoutHandler(payouts),
		Webhooks: handlers.NewWebhookHandler(reconciler),
		Hub:      hub,
	}, cfg.JWTSecret)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("🔥 Shutdown error: %v", err)
		}
	}()

	log.Printf("✅ Server is running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
