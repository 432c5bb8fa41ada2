package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/redis/go-redis/v9"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
	"storefront-cart/internal/cartsync"
	"storefront-cart/internal/config"
	"storefront-cart/internal/gateway"
	"storefront-cart/internal/guestcart"
	"storefront-cart/internal/logging"
	"storefront-cart/internal/mirror"
)

// app holds everything one cartctl invocation needs.
type app struct {
	cfg     config.Client
	logger  *zap.Logger
	db      *bolt.DB
	redis   *redis.Client
	client  *gateway.Client
	engine  *cartsync.Engine
	session savedSession
}

func openApp(ctx context.Context, opts *rootOptions, errOut io.Writer) (*app, error) {
	cfg, err := config.LoadClient(opts.configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if opts.verbose {
		level = "debug"
	}
	logger, err := logging.NewConsole(level)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := guestcart.Open(cfg.CartDBPath())
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, db: db}

	if a.session, err = loadSession(db); err != nil {
		a.close()
		return nil, err
	}

	var store mirror.SessionStore = mirror.NewBoltStore(db)
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store = mirror.NewRedisStore(a.redis)
	}

	a.client, err = gateway.New(cfg.GatewayURL, gateway.Options{
		Timeout: cfg.RequestTimeoutDuration(),
		Logger:  logger,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	notifier := cartsync.NotifierFunc(func(n cartsync.Notification) {
		fmt.Fprintf(errOut, "[%s] %s\n", n.Level, n.Message)
	})
	a.engine = cartsync.New(
		a.client,
		guestcart.New(db, logger),
		mirror.New(store, a.session.ID, mirror.Options{TTL: cfg.SessionTTLDuration(), Logger: logger}),
		cartsync.Options{Logger: logger, Notifier: notifier},
	)
	if _, err := a.engine.Restore(ctx); err != nil {
		a.close()
		return nil, err
	}
	if err := a.resume(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// resume applies the saved login. A token the service no longer accepts
// is dropped and the guest cart is used instead.
func (a *app) resume(ctx context.Context) error {
	_, err := a.engine.SetSession(ctx, a.session.engineSession())
	if err == nil {
		return nil
	}
	if errors.Is(err, gateway.ErrUnauthorized) {
		a.logger.Warn("saved login expired, continuing as guest")
		if err := a.forget(); err != nil {
			return err
		}
		_, err = a.engine.SetSession(ctx, a.session.engineSession())
	}
	return err
}

func (a *app) remember(token gateway.Token, email string) error {
	a.session.Token = token.AccessToken
	a.session.CustomerID = token.CustomerID
	a.session.Email = email
	return saveSession(a.db, a.session)
}

func (a *app) forget() error {
	a.session = savedSession{ID: a.session.ID}
	return saveSession(a.db, a.session)
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	_ = a.logger.Sync()
}
