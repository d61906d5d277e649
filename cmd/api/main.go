// cmd/api serves the scanner's HTTP API: pattern listing, ad-hoc scans,
// and backtests. The recent-signals route activates when Redis is
// reachable.
//
// Usage:
//
//	API_ADDR=:8080 go run ./cmd/api --config=config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"odte-scanner/config"
	"odte-scanner/internal/api"
	"odte-scanner/internal/logger"
	redisstore "odte-scanner/internal/store/redis"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	addr := flag.String("addr", "", "listen address (overrides API_ADDR)")
	flag.Parse()

	lg := logger.InitFromEnv("api")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[api] config: %v", err)
	}

	listen := *addr
	if listen == "" {
		listen = os.Getenv("API_ADDR")
	}
	if listen == "" {
		listen = ":8080"
	}

	var signals *redisstore.Reader
	if r, err := redisstore.NewReader(redisstore.ReaderConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, lg); err != nil {
		lg.Warn("redis unavailable, recent-signals route disabled", "error", err)
	} else {
		signals = r
		defer r.Close()
	}

	server := api.NewServer(cfg, lg, signals)
	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(server.Router())

	srv := &http.Server{
		Addr:         listen,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		lg.Info("api listening", "addr", listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[api] listen: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}
