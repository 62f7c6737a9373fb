// Command handler runs the stateless front end: it loads a static shard
// table from YAML, binds a client-facing TCP listener, and fans every
// Read/Write/Delete out to the configured replicas until signaled to stop.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dreamware/shardkv/internal/clock"
	"github.com/dreamware/shardkv/internal/clusterhealth"
	"github.com/dreamware/shardkv/internal/handler"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	configPath := getenv("HANDLER_CONFIG", "handler.yaml")
	cfg, err := handler.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", configPath), zap.Error(err))
	}

	if addr := os.Getenv("HANDLER_ADDR"); addr != "" {
		cfg.Listen = addr
	}

	table, err := handler.NewShardTable(cfg.Shards)
	if err != nil {
		logger.Fatal("invalid shard table", zap.Error(err))
	}

	h := handler.New(table, clock.System{}, logger, cfg.ReadTimeout)

	srv, err := handler.Listen(cfg.Listen, h, logger)
	if err != nil {
		logger.Fatal("failed to bind listener", zap.String("addr", cfg.Listen), zap.Error(err))
	}

	logger.Info("handler listening",
		zap.String("addr", srv.Addr().String()),
		zap.Int("shard_count", table.ShardCount()))

	monitorCtx, cancelMonitor := context.WithCancel(context.Background())
	monitor := startHealthMonitor(monitorCtx, logger, table)

	go func() {
		if err := srv.Serve(); err != nil {
			logger.Error("serve loop exited with error", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	srv.Close()
	cancelMonitor()
	monitor.Stop()
	logger.Info("handler shut down")
}

func startHealthMonitor(ctx context.Context, logger *zap.Logger, table *handler.ShardTable) *clusterhealth.Monitor {
	var all []string
	for i := 0; i < table.ShardCount(); i++ {
		replicas, err := table.ReplicasForShard(i)
		if err != nil {
			continue
		}
		all = append(all, replicas...)
	}

	monitor := clusterhealth.NewMonitor(all, 5*time.Second, 3)
	monitor.SetOnChange(func(s clusterhealth.Status) {
		if s.Healthy {
			logger.Info("replica recovered", zap.String("addr", s.Addr))
		} else {
			logger.Warn("replica unhealthy", zap.String("addr", s.Addr), zap.Int("consecutive_fails", s.ConsecutiveFails))
		}
	})
	monitor.Start(ctx)
	return monitor
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
