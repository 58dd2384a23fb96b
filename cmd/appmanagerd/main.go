package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rebbleos/appmanager/internal/arena"
	"github.com/rebbleos/appmanager/internal/bootstrap"
	"github.com/rebbleos/appmanager/internal/config"
	"github.com/rebbleos/appmanager/internal/controller"
	"github.com/rebbleos/appmanager/internal/flash"
	"github.com/rebbleos/appmanager/internal/heap"
	"github.com/rebbleos/appmanager/internal/loader"
	"github.com/rebbleos/appmanager/internal/logging"
	"github.com/rebbleos/appmanager/internal/manifest"
	"github.com/rebbleos/appmanager/internal/metrics"
	"github.com/rebbleos/appmanager/internal/task"
	"github.com/rebbleos/appmanager/internal/types"
)

func main() {
	cfg := config.LoadOrDefault()

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Development = cfg.Logging.Development
	logger, err := logging.New(logCfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("appmanagerd starting",
		zap.Uint32("arena_base", cfg.Arena.Base),
		zap.Int("arena_size", cfg.Arena.MaxAppMemorySize),
		zap.Int("slot_count", cfg.Manifest.SlotCount))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	a := arena.New(cfg.Arena.Base, cfg.Arena.MaxAppMemorySize)
	mf := manifest.New()
	bootstrap.Seed(mf, logger)

	driver := flash.NewMemDriver()
	scanner := flash.NewScanner(driver,
		flash.WithSlotCount(cfg.Manifest.SlotCount),
		flash.WithCRC(cfg.Manifest.VerifyCRC),
		flash.WithLogger(logger),
		flash.WithMetrics(m),
	)
	found := scanner.Scan(mf)
	logger.Info("flash scan complete", zap.Int("apps_found", found))

	entries := loader.NewEntryRegistry()
	ld := loader.New(driver, a, types.SymAddr(0), cfg.Arena.MaxAppStackWords, entries, heap.NewBump(), logger, m)

	sched := task.NewGoroutine()
	ctrl := controller.New(mf, ld, sched, a, cfg, logger, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bootstrap.Run(ctx, ctrl); err != nil {
		logger.Error("boot sequence failed to start System app", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	cancel()
}
