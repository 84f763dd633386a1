package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"

	"pollku_backend/internals/configs"
	database "pollku_backend/internals/databases"
	txRepository "pollku_backend/internals/features/payments/transactions/repository"
	"pollku_backend/internals/features/payments/transactions/scheduler"
	txService "pollku_backend/internals/features/payments/transactions/service"
	helper "pollku_backend/internals/helpers"
	"pollku_backend/internals/helpers/cache"
	"pollku_backend/internals/helpers/events"
	"pollku_backend/internals/middlewares"
	routes "pollku_backend/internals/route"
	routeDetails "pollku_backend/internals/route/details"
)

func runServe() error {
	configs.LoadEnv()
	payCfg := configs.LoadPaymentConfig()

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"}, // sesuaikan dengan CIDR load balancer
		ErrorHandler:            helper.ErrorHandler,
	})

	// ⚙️ middleware dasar + performa
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault})) // gzip
	app.Use(etag.New())                                                  // 304 caching
	middlewares.SetupMiddlewares(app, configs.GetEnvDuration("HTTP_REQUEST_TIMEOUT", 5*time.Second))

	// 🔌 DB connect + pool + warm-up
	database.ConnectDB()
	database.TunePool()
	database.WarmUpQueries()
	if configs.GetEnvBool("DB_AUTO_MIGRATE", false) {
		if err := database.AutoMigrate(database.DB); err != nil {
			log.Fatalf("❌ AutoMigrate gagal: %v", err)
		}
	}

	// 🧠 Redis (dedup webhook), opsional
	rootCtx := context.Background()
	var guard txService.DeliveryGuard = txService.NopDeliveryGuard{}
	rdb := cache.Connect(rootCtx, configs.GetEnv("REDIS_ADDR"), configs.GetEnv("REDIS_PASSWORD"), configs.GetEnvInt("REDIS_DB", 0))
	if rdb != nil {
		guard = cache.NewDeliveryStore(rdb)
	}

	// 📣 Kafka (event payment.settled / payment.refunded), opsional
	var publisher events.Publisher = events.NopPublisher{}
	var kafka *events.KafkaPublisher
	if brokers := configs.GetEnv("KAFKA_BROKER"); brokers != "" {
		kp, err := events.NewKafkaPublisher(brokers, configs.GetEnvInt("KAFKA_CONNECT_ATTEMPTS", 5), 2*time.Second)
		if err != nil {
			log.Printf("⚠️ Kafka tidak tersedia (%v), event payment tidak dipublish", err)
		} else {
			kafka = kp
			publisher = kp
		}
	}

	// ✅ MIDTRANS (handle di-inject, bukan global)
	var snapClient txService.SnapCreator
	if c := txService.NewSnapClient(payCfg.MidtransServerKey, payCfg.MidtransUseProd); c != nil {
		snapClient = c
	}

	// ⏱ reconciler setelah DB siap
	reconciler := &txService.Reconciler{Store: txRepository.NewTransactionRepository(database.DB)}
	cronJob, err := scheduler.StartReconcileScheduler(reconciler,
		configs.GetEnv("RECONCILE_CRON", scheduler.DefaultReconcileSchedule),
		configs.GetEnvDuration("RECONCILE_TIMEOUT", 2*time.Minute))
	if err != nil {
		log.Fatalf("[RECONCILE] add cron gagal: %v", err)
	}

	// ✅ Routes
	routes.SetupRoutes(app, routeDetails.Deps{
		DB:        database.DB,
		Payments:  payCfg,
		Snap:      snapClient,
		Guard:     guard,
		Publisher: publisher,
	})

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.GetEnv("PORT", "3000")

	// Start server non-blocking
	go func() {
		log.Printf("✅ Listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: http → cron → kafka/redis → DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	<-cronJob.Stop().Done()
	if kafka != nil {
		_ = kafka.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	database.Close()
	return nil
}

func runMigrate() error {
	configs.LoadEnv()
	database.ConnectDB()
	defer database.Close()

	if err := database.AutoMigrate(database.DB); err != nil {
		return err
	}
	log.Println("✅ Migrasi selesai")
	return nil
}

func runReconcile(ctx context.Context) error {
	configs.LoadEnv()
	database.ConnectDB()
	defer database.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, configs.GetEnvDuration("RECONCILE_TIMEOUT", 2*time.Minute))
	defer cancel()

	r := &txService.Reconciler{Store: txRepository.NewTransactionRepository(database.DB)}
	_, err := r.Run(ctx)
	return err
}
