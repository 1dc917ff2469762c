/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave engine server: configuration,
  logging, store selection, router wiring, graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and the YAML config file
  2. Configure zerolog
  3. Build the calculator from the configured rest schedule
  4. Open the selected store backend (flat files or SQLite)
  5. Serve until SIGINT/SIGTERM, then drain for up to 30s

COMMAND-LINE FLAGS:
  -config  Config file path (default: configs/config.yaml; missing
           file means defaults)
  -port    Overrides server.port from the config

CONFIG (YAML, all optional):
  server:  port, rate_limit_per_sec, rate_limit_burst, allowed_origins
  store:   backend ("file" | "sqlite"), leave_path, employee_path, sqlite_path
  leave:   rest_periods ([{start, end} in HH:MM]), deduction_cap_minutes
  log:     level, pretty
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/config"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/metrics"
	storefile "github.com/warp/leave-engine/store/file"
	storesqlite "github.com/warp/leave-engine/store/sqlite"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file path")
	port := flag.Int("port", 0, "override server port")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	log := newLogger(cfg)

	rests, err := cfg.RestPeriods()
	if err != nil {
		log.Fatal().Err(err).Msg("bad rest-period configuration")
	}
	calc := leave.NewCalculator(rests, cfg.Leave.DeductionCapMinutes)

	var store leave.Store
	var employees leave.EmployeeStore
	switch cfg.Store.Backend {
	case "file":
		s, err := storefile.New(cfg.Store.LeavePath, cfg.Store.EmployeePath, calc)
		if err != nil {
			log.Fatal().Err(err).Msg("open flat-file store")
		}
		store, employees = s, s
	case "sqlite":
		s, err := storesqlite.New(cfg.Store.SQLitePath, calc)
		if err != nil {
			log.Fatal().Err(err).Msg("open sqlite store")
		}
		store, employees = s, s
	default:
		log.Fatal().Str("backend", cfg.Store.Backend).Msg("unknown store backend")
	}
	defer store.Close()

	metrics.Register()

	handler := api.NewHandler(store, employees, calc, log)
	router := api.NewRouter(handler, log, api.RouterOptions{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("backend", cfg.Store.Backend).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if cfg.Log.Pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}
