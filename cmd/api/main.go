package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/anjiri1684/vedic_numerology/cache"
	config "github.com/anjiri1684/vedic_numerology/configs"
	"github.com/anjiri1684/vedic_numerology/database"
	"github.com/anjiri1684/vedic_numerology/jobs"
	"github.com/anjiri1684/vedic_numerology/logging"
	"github.com/anjiri1684/vedic_numerology/notifications"
	"github.com/anjiri1684/vedic_numerology/payments"
	"github.com/anjiri1684/vedic_numerology/routes"
	"github.com/anjiri1684/vedic_numerology/services"
	"github.com/anjiri1684/vedic_numerology/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	log, err := logging.Init(config.Config("APP_ENV"))
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.ConnectDB(); err != nil {
		log.Fatal("🔥 Database connection failed", zap.Error(err))
	}
	if err := database.Migrate(database.DB); err != nil {
		log.Fatal("🔥 Database migration failed", zap.Error(err))
	}
	if err := database.SeedAdmin(database.DB, config.Config("ADMIN_EMAIL"), config.Config("ADMIN_PASSWORD"), config.Config("ADMIN_FULL_NAME")); err != nil {
		log.Fatal("🔥 Admin seed failed", zap.Error(err))
	}

	sf, err := config.LoadStorefront(config.ConfigDefault("STOREFRONT_CONFIG", "configs/storefront.yaml"))
	if err != nil {
		log.Fatal("🔥 Invalid storefront config", zap.Error(err))
	}
	config.SetStorefront(sf)
	log.Info("✅ Storefront loaded", zap.Float64("report_price", sf.ReportPrice), zap.String("currency", sf.Currency))

	if redisURL := config.Config("REDIS_URL"); redisURL != "" {
		rc, err := cache.Initialize(redisURL)
		if err != nil {
			log.Fatal("🔥 Redis connection failed", zap.Error(err))
		}
		cache.Default = rc
		defer rc.Close()
		log.Info("✅ Redis connected")
	} else {
		log.Warn("REDIS_URL not set: intake sessions, payment locks and token revocation are disabled")
	}

	if keyID, secret := config.Config("RAZORPAY_KEY_ID"), config.Config("RAZORPAY_KEY_SECRET"); keyID != "" && secret != "" {
		payments.Provider = payments.NewRazorpay(keyID, secret)
	} else {
		log.Warn("Razorpay keys not set: order relay is disabled")
	}

	notifications.InitEmailService()

	fulfiller := &services.ReportFulfiller{DB: database.DB}
	if cloudinaryURL := config.Config("CLOUDINARY_URL"); cloudinaryURL != "" {
		uploader, err := services.NewCloudinaryUploader(cloudinaryURL)
		if err != nil {
			log.Fatal("🔥 Invalid CLOUDINARY_URL", zap.Error(err))
		}
		fulfiller.Renderer = services.ChromeRenderer{}
		fulfiller.Uploader = uploader
	}
	jobs.Fulfiller = fulfiller

	c := cron.New()
	c.AddFunc("*/5 * * * *", jobs.ReconcilePayments)
	c.AddFunc("*/10 * * * *", jobs.DeliverPaidReports)
	c.Start()
	defer c.Stop()
	log.Info("✅ Cron jobs scheduled successfully.")

	go websocket.RunHub(ctx)

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "Vedic Numerology",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: config.Config("APP_ENV") == "development",
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Error("request failed", zap.Error(err), zap.String("path", c.Path()), zap.String("method", c.Method()))
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  config.ConfigDefault("CORS_ORIGINS", "*"),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Razorpay-Signature, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Disposition",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Kolkata",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to Vedic Numerology API",
		})
	})

	routes.Setup(app)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	go func() {
		<-ctx.Done()
		log.Info("Shutting down server...")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	port := config.ConfigDefault("PORT", "8080")
	log.Info("✅ Server is running", zap.String("port", port))
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("🔥 Server failed to start", zap.Error(err))
	}
}
