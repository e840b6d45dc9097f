// Command loadtest hammers one product with concurrent single-unit
// deductions against live MySQL and Redis and verifies the oversell
// invariant end to end: successes equal the initial stock, final quantity is
// zero, and nothing goes negative.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Obsessive-Curiosity/commerce-core/internal/adapter/storage"
	"github.com/Obsessive-Curiosity/commerce-core/internal/config"
	"github.com/Obsessive-Curiosity/commerce-core/internal/core/service"
	"github.com/Obsessive-Curiosity/commerce-core/migrations"
)

const (
	productID     = "loadtest-product"
	initialStock  = 20
	totalRequests = 50
)

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open mysql")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping mysql")
	}
	if err := migrations.Apply(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, PoolSize: cfg.RedisPoolSize})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("ping redis")
	}

	// Reset the product to a known quantity.
	_, err = db.ExecContext(ctx, `
		INSERT INTO stocks (product_id, quantity, version, created_at, updated_at)
		VALUES (?, ?, 0, NOW(), NOW())
		ON DUPLICATE KEY UPDATE quantity = VALUES(quantity), version = 0`,
		productID, initialStock)
	if err != nil {
		log.Fatal().Err(err).Msg("seed stock")
	}

	stockRepo := storage.NewMySQLStockRepository(db)
	stockSvc := service.NewStockService(stockRepo)
	inventorySvc := service.NewInventoryService(stockSvc, storage.NewRedisLocker(rdb, cfg.LockTTL))

	var successes, soldOut, failures atomic.Int32

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < totalRequests; i++ {
		g.Go(func() error {
			result, err := inventorySvc.DeductStock(gctx, []service.ItemRequest{
				{ProductID: productID, Quantity: 1},
			})
			switch {
			case err != nil:
				failures.Add(1)
			case len(result.Failed) > 0:
				soldOut.Add(1)
			default:
				successes.Add(1)
			}
			// Individual outcomes are the point; never cancel siblings.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("loadtest run")
	}
	elapsed := time.Since(start)

	final, err := stockRepo.Get(ctx, productID)
	if err != nil {
		log.Fatal().Err(err).Msg("read final stock")
	}

	fmt.Printf("requests:   %d\n", totalRequests)
	fmt.Printf("successes:  %d (expected %d)\n", successes.Load(), initialStock)
	fmt.Printf("sold out:   %d\n", soldOut.Load())
	fmt.Printf("errors:     %d\n", failures.Load())
	fmt.Printf("remaining:  %d (expected 0)\n", final.Quantity)
	fmt.Printf("elapsed:    %s\n", elapsed)

	if successes.Load() != initialStock || final.Quantity != 0 {
		log.Fatal().Msg("oversell invariant violated")
	}
	fmt.Println("oversell invariant held")
}
