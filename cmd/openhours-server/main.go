package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"openhours/internal/api"
	"openhours/internal/config"
	"openhours/internal/facility"
	"openhours/internal/httpapi"
	"openhours/internal/store"
	"openhours/internal/util"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLoggerTo(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath, logger)
	if err != nil {
		log.Fatalf("opening rule store: %v", err)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := facility.Seed(ctx, cfg, db, logger); err != nil {
		log.Fatalf("seeding rules: %v", err)
	}
	orphans, err := facility.Unconfigured(ctx, cfg, db)
	if err != nil {
		log.Fatalf("checking stored facilities: %v", err)
	}
	for _, id := range orphans {
		logger.Warn("stored rules belong to no configured facility", "facility", id)
	}

	registry, err := facility.Build(cfg, db, logger)
	if err != nil {
		log.Fatalf("building facilities: %v", err)
	}

	httpSrv := httpapi.NewServer(registry, db, logger)
	httpSrv.LimitWrites(cfg.Server.WriteRatePerMinute, cfg.Server.WriteBurst)
	srv := api.NewServer(cfg, httpSrv.Handler(), api.NewHoursService(registry, logger), logger)

	logger.Info("openhours-server starting",
		"facilities", len(registry.List()),
		"port", cfg.Server.Port,
		"grpc_port", cfg.Server.GRPCPort,
	)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
