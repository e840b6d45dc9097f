package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Obsessive-Curiosity/commerce-core/internal/adapter/handler"
	"github.com/Obsessive-Curiosity/commerce-core/internal/adapter/storage"
	"github.com/Obsessive-Curiosity/commerce-core/internal/config"
	"github.com/Obsessive-Curiosity/commerce-core/internal/core/service"
	"github.com/Obsessive-Curiosity/commerce-core/migrations"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open mysql")
	}
	db.SetMaxOpenConns(cfg.MySQLMaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQLMaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQLConnLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping mysql")
	}
	log.Info().Msg("connected to mysql")

	if cfg.Migrate {
		if err := migrations.Apply(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("apply migrations")
		}
		log.Info().Msg("migrations applied")
	}

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: cfg.RedisPoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("ping redis")
	}
	log.Info().Msg("connected to redis")

	// Wiring
	stockRepo := storage.NewMySQLStockRepository(db)
	balanceRepo := storage.NewMySQLBalanceRepository(db)
	orderRepo := storage.NewMySQLOrderRepository(db)
	locker := storage.NewRedisLocker(rdb, cfg.LockTTL)
	cartRepo := storage.NewRedisCartRepository(rdb)

	stockSvc := service.NewStockService(stockRepo)
	balanceSvc := service.NewBalanceService(balanceRepo)
	inventorySvc := service.NewInventoryService(stockSvc, locker)
	paymentSvc := service.NewPaymentService(orderRepo, balanceSvc, inventorySvc, cartRepo)

	httpHandler := handler.NewHTTPHandler(inventorySvc, paymentSvc)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", httpHandler.HealthCheck)
	mux.HandleFunc("/api/inventory/deduct", httpHandler.DeductStock)
	mux.HandleFunc("/api/inventory/restore", httpHandler.RestoreStock)
	mux.HandleFunc("/api/payment/process", httpHandler.ProcessPayment)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info().Msg("http server stopped")

	rdb.Close()
	db.Close()
	log.Info().Msg("connections closed")
}
