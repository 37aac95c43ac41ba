// connectly-check verifies that every backend dependency in the config is
// reachable: postgres (with migrations), redis, the minio bucket, and the
// AMQP broker when one is configured. Exit status 0 means all good.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"connectly/internal/config"
	"connectly/internal/util"
	"connectly/pkg/realtime"
	"connectly/pkg/storage"
	"connectly/pkg/store"
)

func main() {
	path := config.ConfigPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := util.InitLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if _, err := store.NewGormStore(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		logger.Info("postgres ok")
		return nil
	})

	g.Go(func() error {
		bus := realtime.NewRedisBus(cfg.RedisAddr, cfg.RedisPassword)
		defer bus.Close()
		if err := bus.Ping(gctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		logger.Info("redis ok")
		return nil
	})

	g.Go(func() error {
		if _, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL); err != nil {
			return fmt.Errorf("minio: %w", err)
		}
		logger.Info("minio ok", "bucket", cfg.MinioBucket)
		return nil
	})

	if cfg.AMQPURL != "" {
		g.Go(func() error {
			bus, err := realtime.NewAMQPBus(cfg.AMQPURL)
			if err != nil {
				return fmt.Errorf("amqp: %w", err)
			}
			defer bus.Close()
			logger.Info("amqp ok")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		util.Fatal("backend check failed", "err", err)
	}
	logger.Info("all backend dependencies reachable")
}
