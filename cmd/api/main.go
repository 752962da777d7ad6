package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ElFirdaous28/event-reservation-system/internal/api"
	"github.com/ElFirdaous28/event-reservation-system/internal/api/handler"
	custommw "github.com/ElFirdaous28/event-reservation-system/internal/api/middleware"
	"github.com/ElFirdaous28/event-reservation-system/internal/application"
	"github.com/ElFirdaous28/event-reservation-system/internal/config"
	"github.com/ElFirdaous28/event-reservation-system/internal/infrastructure/postgres"
	"github.com/ElFirdaous28/event-reservation-system/internal/infrastructure/rabbitmq"
	redisinfra "github.com/ElFirdaous28/event-reservation-system/internal/infrastructure/redis"
	"github.com/ElFirdaous28/event-reservation-system/internal/pkg/logger"
	"github.com/ElFirdaous28/event-reservation-system/internal/pkg/metrics"
	"github.com/ElFirdaous28/event-reservation-system/internal/worker"
)

func main() {
	// .env があれば読み込む（なければ環境変数のみ）
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Set(logger.NewLogger(os.Getenv("APP_ENV")))
	defer logger.Sync()

	// DB接続とマイグレーション
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗", zap.Error(err))
	}

	// Redis接続（ロックとキャッシュ）
	redisClient := redisinfra.NewClient(&cfg.Redis)
	defer redisClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisinfra.Ping(ctx, redisClient); err != nil {
		cancel()
		logger.Fatal("Redis接続に失敗", zap.Error(err))
	}
	cancel()

	lockManager := redisinfra.NewLockManager(redisClient)
	availCache := redisinfra.NewAvailabilityCache(redisClient)

	// RabbitMQ接続（未設定なら発行を無効化）
	var publisher application.ReservationEventPublisher
	if cfg.RabbitMQ.Enabled() {
		pub, err := rabbitmq.NewPublisher(&cfg.RabbitMQ)
		if err != nil {
			logger.Fatal("RabbitMQ接続に失敗", zap.Error(err))
		}
		defer pub.Close()
		publisher = pub
	} else {
		logger.Warn("RABBITMQ_URL が未設定のため予約イベントの発行は無効")
	}

	// メトリクス
	m := metrics.New()

	// リポジトリとサービス
	txManager := postgres.NewTxManager(db)
	eventRepo := postgres.NewEventRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)
	userRepo := postgres.NewUserRepository(db)

	authService := application.NewAuthService(userRepo, &cfg.Auth)
	eventService := application.NewEventService(eventRepo, availCache)
	reservationService := application.NewReservationService(
		txManager, reservationRepo, eventRepo, lockManager, availCache, publisher, m)

	// Echo セットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	custommw.SetupMiddleware(e)
	e.Use(custommw.PrometheusMiddleware(m))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommw.MetricsBasicAuth())

	handler.RegisterRoutes(e, handler.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Event:       handler.NewEventHandler(eventService),
		Reservation: handler.NewReservationHandler(reservationService),
		Health:      handler.NewHealthHandler(),
	}, cfg.Auth.JWTSecret)

	// 空席リコンサイラー起動
	workerCtx, workerCancel := context.WithCancel(context.Background())
	reconciler := worker.NewSeatReconciler(reservationService, cfg.Worker.ReconcileInterval)
	go reconciler.Start(workerCtx)

	// サーバー起動
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()
	logger.Info("サーバー起動", zap.String("port", cfg.Server.Port))

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	workerCancel()
	reconciler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
