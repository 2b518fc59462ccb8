package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"aat-go/internal/analysis"
	"aat-go/internal/config"
	"aat-go/internal/database"
	"aat-go/internal/handlers"
	logger "aat-go/internal/logging"
	"aat-go/internal/router"
	"aat-go/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration first; the logger is built from it
	v, cfg, err := config.Load(".")
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	// Initialize Logger
	log, err := logger.Init(".", cfg.Logging)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	config.Init(v, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	instruments, err := analysis.NewInstruments(registry)
	if err != nil {
		log.Fatal("Failed to register instruments", zap.Error(err))
	}

	analyzer, err := analysis.New(log, cfg.Analysis, instruments)
	if err != nil {
		log.Fatal("Failed to build analyzer", zap.Error(err))
	}

	// Initialize Database when runs are stored
	if cfg.Database.Enabled {
		if err := database.Init(cfg.Database, log); err != nil {
			log.Fatal("Failed to initialize database", zap.Error(err))
		}
		services.NewRetention(log, cfg.Database.RetentionDays).Start(ctx)
	} else {
		log.Info("Database disabled; analysis runs will not be stored")
	}

	analyzeHandler := handlers.NewAnalyzeHandler(log, analyzer, cfg.Analysis.MaxUploadMB, cfg.Database.Enabled)

	// Analysis settings take effect on the next batch after a config edit.
	// Server and database settings need a restart.
	config.OnChange(func(next *config.Config) {
		if err := analyzer.Reconfigure(next.Analysis); err != nil {
			log.Error("Keeping previous analysis settings", zap.Error(err))
			return
		}
		analyzeHandler.SetMaxUploadMB(next.Analysis.MaxUploadMB)
	})

	// Setup router, passing the logger to it
	r := router.Setup(log, cfg, analyzeHandler, registry)

	// Start the Gin server
	port := ":" + cfg.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
