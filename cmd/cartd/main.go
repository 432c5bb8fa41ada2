package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"storefront-cart/internal/config"
	"storefront-cart/internal/db"
	"storefront-cart/internal/httpserver"
	"storefront-cart/internal/logging"
	cartrepo "storefront-cart/internal/repository/cart"
	customerrepo "storefront-cart/internal/repository/customer"
	productrepo "storefront-cart/internal/repository/product"
	promotionrepo "storefront-cart/internal/repository/promotion"
	tokenrepo "storefront-cart/internal/repository/token"
	cartsvc "storefront-cart/internal/service/cart"
	customersvc "storefront-cart/internal/service/customer"
	productsvc "storefront-cart/internal/service/product"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("cartd")

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	promotionRepo := promotionrepo.NewPostgres(dbpool)
	cartService := cartsvc.New(cartrepo.NewPostgres(dbpool), productRepo, promotionRepo, logger)
	customerService := customersvc.New(customerrepo.NewPostgres(dbpool, logger), tokenrepo.NewPostgres(dbpool), cfg.TokenTTL, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CustomerSvc: customerService,
		CartSvc:     cartService,
		ProductSvc:  productsvc.New(productRepo),
	}, httpserver.Options{CORSOrigins: cfg.CORSOrigins})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
