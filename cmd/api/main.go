package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-transit-booking/internal/api"
	"github.com/sanosuguru/go-transit-booking/internal/api/handler"
	custommiddleware "github.com/sanosuguru/go-transit-booking/internal/api/middleware"
	"github.com/sanosuguru/go-transit-booking/internal/application"
	"github.com/sanosuguru/go-transit-booking/internal/config"
	"github.com/sanosuguru/go-transit-booking/internal/infrastructure/gateway"
	"github.com/sanosuguru/go-transit-booking/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-transit-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-transit-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-transit-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-transit-booking/internal/worker"
)

func main() {
	cfg := config.Load()

	// ロガー初期化
	logger.Set(logger.NewLogger(os.Getenv("APP_ENV")))
	log := logger.Get()
	defer logger.Sync() //nolint:errcheck

	// メトリクス初期化
	m := metrics.Init()

	// PostgreSQL接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション実行
	if path := os.Getenv("MIGRATIONS_PATH"); path != "" {
		if err := postgres.RunMigrations(db.DB, path); err != nil {
			log.Fatal("マイグレーションに失敗", zap.Error(err))
		}
	}

	// Redis接続
	redisClient := redisinfra.NewClient(&cfg.Redis)
	defer redisClient.Close()

	// Redisが使えない場合はロックとキャッシュなしで起動する。
	// 空席数の整合性はDBの条件付きUPDATEだけでも保たれる
	var lockManager redisinfra.LockManagerInterface
	var cache redisinfra.AvailabilityCacheInterface
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn("Redis接続に失敗（ロックとキャッシュは無効）", zap.Error(err))
	} else {
		lockManager = redisinfra.NewLockManager(redisClient)
		cache = redisinfra.NewAvailabilityCache(redisClient)
	}

	// リポジトリ
	journeyRepo := postgres.NewJourneyRepository(db)
	seatRepo := postgres.NewSeatRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	txManager := postgres.NewTxManager(db)

	// 支払いゲートウェイ
	paymentGateway := gateway.NewSyncGateway()

	// アプリケーションサービス
	journeyService := application.NewJourneyService(journeyRepo, cache, m)
	seatService := application.NewSeatService(seatRepo, journeyRepo)
	bookingService := application.NewBookingService(txManager, bookingRepo, seatRepo, journeyRepo, lockManager, cache, m)
	paymentService := application.NewPaymentService(paymentRepo, bookingRepo, paymentGateway, m)

	// ハンドラー
	journeyHandler := handler.NewJourneyHandler(journeyService)
	seatHandler := handler.NewSeatHandler(seatService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	healthHandler := handler.NewHealthHandler()

	// Echo設定
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	custommiddleware.SetupMiddleware(e)
	e.Use(custommiddleware.PrometheusMiddleware(m))

	// ルーティング
	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Check)

	v1.POST("/journeys", journeyHandler.Create)
	v1.GET("/journeys", journeyHandler.List)
	v1.GET("/journeys/:id", journeyHandler.GetByID)
	v1.PUT("/journeys/:id", journeyHandler.Update)
	v1.DELETE("/journeys/:id", journeyHandler.Delete)
	v1.GET("/journeys/:id/availability", journeyHandler.Availability)
	v1.POST("/journeys/:id/seats", seatHandler.CreateBulk)
	v1.GET("/journeys/:id/seats", seatHandler.ListByJourney)

	v1.POST("/bookings", bookingHandler.Create)
	v1.GET("/bookings", bookingHandler.ListMine)
	v1.GET("/bookings/:id", bookingHandler.GetByID)
	v1.DELETE("/bookings/:id", bookingHandler.Cancel)

	v1.POST("/payments", paymentHandler.Create)
	v1.GET("/payments", paymentHandler.ListMine)
	v1.GET("/payments/:id", paymentHandler.GetByID)
	v1.PATCH("/payments/:id/refund", paymentHandler.Refund)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommiddleware.MetricsBasicAuth())

	// 空席数監査ワーカー開始
	auditor := worker.NewAvailabilityAuditor(journeyService, cfg.Worker.AuditInterval)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	go auditor.Start(workerCtx)

	// サーバー起動
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	log.Info("サーバー起動", zap.String("port", cfg.Server.Port))

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("サーバーをシャットダウンしています...")

	workerCancel()
	auditor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	log.Info("サーバーが正常にシャットダウンしました")
}
