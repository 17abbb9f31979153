package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"kitchenboard/internal/alerts"
	"kitchenboard/internal/api"
	"kitchenboard/internal/config"
	"kitchenboard/internal/database"
	"kitchenboard/internal/fixtures"
	"kitchenboard/internal/kds"
	"kitchenboard/internal/monitoring"
	"kitchenboard/internal/orders"
	"kitchenboard/internal/realtime"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

const shutdownTimeout = 10 * time.Second

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort > 0 {
		cfg.Metrics.Port = *metricsPort
	}
	config.SetupLogging(cfg.LogLevel)

	if err := run(cfg); err != nil {
		log.Fatalf("Kitchen board stopped: %v", err)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	monitor := monitoring.NewMonitor()
	hub := realtime.NewHub()
	defer hub.Close()

	board := kds.NewBoard(orders.NewStore(), kds.Config{
		TickInterval:    cfg.Board.TickInterval,
		DefaultPrepTime: cfg.DefaultPrepTime(),
		Journal:         database.NewJournal(db),
		Metrics:         monitor,
	})
	board.SubscribeAlerts(alerts.LogSink(log.StandardLogger()))
	board.SubscribeAlerts(hub.AlertSink)
	board.SubscribeStageChanges(hub.ObserveTransition)

	if cfg.Board.SeedDemo {
		if err := fixtures.SeedDemo(board, board.Now()); err != nil {
			return err
		}
	}

	kitchen := api.NewKitchenAPI(board, hub, monitor)
	servers := []*http.Server{{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: kitchen.Router,
	}}
	if cfg.Metrics.Enabled {
		servers = append(servers, metricsServer(cfg.Metrics, monitor))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return board.Run(gctx)
	})
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			log.WithField("addr", srv.Addr).Info("Starting server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithField("addr", srv.Addr).Errorf("Server shutdown error: %v", err)
			}
		}
		return nil
	})

	return g.Wait()
}

func metricsServer(cfg config.MetricsConfig, monitor *monitoring.Monitor) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET(cfg.Path, gin.WrapH(monitor.Handler()))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}
}
