package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"storefront-cart/internal/config"
	"storefront-cart/internal/db"
	"storefront-cart/internal/logging"
	productrepo "storefront-cart/internal/repository/product"
	promotionrepo "storefront-cart/internal/repository/promotion"
	"storefront-cart/internal/seed"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if err := seed.Apply(ctx, productrepo.NewPostgres(pool, logger), promotionrepo.NewPostgres(pool), logger); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}
}
