// Command replica runs a single shard's storage node: it binds a TCP
// listener and answers InternodeRequest messages from handlers until
// signaled to stop.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/dreamware/shardkv/internal/replica"
	"github.com/dreamware/shardkv/internal/storage"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	configPath := getenv("REPLICA_CONFIG", "replica.yaml")
	cfg, err := replica.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", configPath), zap.Error(err))
	}

	if addr := os.Getenv("REPLICA_ADDR"); addr != "" {
		cfg.Listen = addr
	}

	backend := storage.NewMemoryBackend()
	rep := replica.New(cfg.Shard, cfg.ShardCount, backend)

	srv, err := replica.Listen(cfg.Listen, rep, logger)
	if err != nil {
		logger.Fatal("failed to bind listener", zap.String("addr", cfg.Listen), zap.Error(err))
	}

	logger.Info("replica listening",
		zap.String("addr", srv.Addr().String()),
		zap.Int("shard", cfg.Shard),
		zap.Int("shard_count", cfg.ShardCount))

	go func() {
		if err := srv.Serve(); err != nil {
			logger.Error("serve loop exited with error", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	srv.Close()
	logger.Info("replica shut down", zap.Int("keys_held", backend.Len()))
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
