// cmd/monitor is the live service: it ingests 5-minute bars during market
// hours, rescans the rolling window after every bar, and pushes fresh
// signals out through alerts and Redis. Bars are cached in SQLite so a
// restart mid-session does not lose the morning.
//
// Data sources, in order of preference:
//
//	--sim            deterministic simulated feed (no credentials)
//	WS_URL env       JSON bar WebSocket
//
// Usage:
//
//	go run ./cmd/monitor --config=config.yaml
//	go run ./cmd/monitor --sim
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"odte-scanner/config"
	"odte-scanner/internal/logger"
	"odte-scanner/internal/marketdata"
	"odte-scanner/internal/marketdata/ws"
	"odte-scanner/internal/markethours"
	"odte-scanner/internal/metrics"
	"odte-scanner/internal/model"
	"odte-scanner/internal/notification"
	"odte-scanner/internal/pattern"
	"odte-scanner/internal/ringbuf"
	redisstore "odte-scanner/internal/store/redis"
	sqlitestore "odte-scanner/internal/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	simFeed := flag.Bool("sim", false, "generate a simulated bar feed instead of connecting to a WebSocket")
	flag.Parse()

	lg := logger.InitFromEnv("monitor")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[monitor] config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		lg.Info("shutdown requested")
		cancel()
	}()

	// Metrics and health.
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()
	defer metricsSrv.Stop(context.Background())

	// Bar cache.
	os.MkdirAll("data", 0o755)
	cache, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath}, lg)
	if err != nil {
		log.Fatalf("[monitor] sqlite init: %v", err)
	}
	defer cache.Close()
	health.SetSQLiteOK(true)

	// Redis is optional; the monitor runs fine without a signal bus.
	var publisher *redisstore.BufferedWriter
	rw, err := redisstore.New(redisstore.WriterConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, lg)
	if err != nil {
		lg.Warn("redis unavailable, continuing without signal bus", "error", err)
		health.SetRedisConnected(false)
		health.StartLivenessChecker(ctx, nil, cache.DB(), 10*time.Second)
	} else {
		defer rw.Close()
		health.SetRedisConnected(true)
		health.StartLivenessChecker(ctx, rw.Client(), cache.DB(), 10*time.Second)
		cb := redisstore.NewBreaker(5, 10*time.Second)
		cb.OnStateChange = func(from, to redisstore.State) {
			lg.Warn("redis breaker transition", "from", from.String(), "to", to.String())
		}
		publisher = redisstore.NewBufferedWriter(ctx, rw, cb, 10000, lg)
	}

	// Alert channels.
	notifiers := []notification.Notifier{notification.NewLogNotifier()}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.TelegramToken != "" && cfg.TelegramChat != "" {
		notifiers = append(notifiers, notification.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChat))
	}
	alerts := notification.NewManager(cfg.Ticker, notifiers,
		cfg.AlertCooldown(), cfg.AlertMinConfidence, lg)

	// Bar handoff between the feed goroutine and the scan loop.
	ring := ringbuf.New(1024)

	// Feed source.
	if *simFeed {
		go runSimFeed(ctx, cfg, ring, lg)
	} else {
		wsURL := os.Getenv("WS_URL")
		if wsURL == "" {
			log.Fatal("[monitor] WS_URL not set (or pass --sim)")
		}
		ingest, err := ws.NewIngest(ws.IngestConfig{URL: wsURL, Ticker: cfg.Ticker}, lg)
		if err != nil {
			log.Fatalf("[monitor] ws init: %v", err)
		}
		ingest.OnReconnect = func() { prom.WSReconnects.Inc() }

		barCh := make(chan model.Bar, 1024)
		go func() {
			runGated(ctx, lg, health, func(runCtx context.Context) {
				health.SetWSConnected(true)
				if err := ingest.Start(runCtx, barCh); err != nil {
					lg.Error("ws ingest stopped", "error", err)
				}
				health.SetWSConnected(false)
			})
		}()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-barCh:
					if !ring.Push(b) {
						prom.BarsStale.Inc()
					}
				}
			}
		}()
	}

	runScanLoop(ctx, cfg, ring, cache, publisher, alerts, prom, health, lg)
}

// runGated runs fn only while the market is open, sleeping until the
// next WS connect time otherwise.
func runGated(ctx context.Context, lg *slog.Logger, health *metrics.HealthStatus, fn func(context.Context)) {
	for {
		now := time.Now()
		if !markethours.IsMarketOpen(now) {
			connectAt := markethours.WSConnectTime(markethours.NextOpen(now))
			wait := connectAt.Sub(now)
			if wait > 0 {
				lg.Info("market closed, sleeping",
					"status", markethours.StatusString(now),
					"until", connectAt.In(markethours.NY).Format("Mon 15:04"))
				select {
				case <-ctx.Done():
					return
				case <-time.After(wait):
				}
			}
		}

		runCtx, cancel := context.WithDeadline(ctx, markethours.TodayClose(time.Now()))
		fn(runCtx)
		cancel()

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// runSimFeed replays today's deterministic simulated session in compressed
// time, one bar per second. Useful for exercising the full pipeline.
func runSimFeed(ctx context.Context, cfg *config.Config, ring *ringbuf.Ring, lg *slog.Logger) {
	bars := marketdata.SimulateDays(marketdata.DefaultSimConfig(), time.Now(), 1)
	lg.Info("simulated feed ready", "bars", len(bars))
	for _, b := range bars {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
		ring.Push(b)
	}
	lg.Info("simulated feed finished")
}

// runScanLoop drains the ring, maintains the rolling bar window, and
// rescans after each completed bar. Signals stamped on the newest bar are
// routed to alerts and Redis.
func runScanLoop(
	ctx context.Context,
	cfg *config.Config,
	ring *ringbuf.Ring,
	cache *sqlitestore.Writer,
	publisher *redisstore.BufferedWriter,
	alerts *notification.Manager,
	prom *metrics.Metrics,
	health *metrics.HealthStatus,
	lg *slog.Logger,
) {
	// Warm start: history gives the detectors their lookback context.
	window := marketdata.SimulateDays(marketdata.DefaultSimConfig(), time.Now(), cfg.HistoryDays)
	maxBars := (cfg.HistoryDays + 1) * marketdata.BarsPerDay

	eng := pattern.NewEngine(cfg.EnabledPatternTags(), nil)
	lg.Info("scan loop ready",
		"window_bars", len(window), "detectors", len(eng.Patterns()))

	lastScan := time.Now()
	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
		prom.LastScanAge.Set(time.Since(lastScan).Seconds())
		if markethours.IsMarketOpen(time.Now()) {
			prom.MarketState.Set(1)
		} else {
			prom.MarketState.Set(0)
		}

		bar, ok := ring.Pop()
		if !ok {
			continue
		}
		prom.BarsIngested.Inc()
		health.SetLastBarTime(bar.TS)

		// Drop out-of-order bars; the window must stay sorted.
		if n := len(window); n > 0 && !bar.TS.After(window[n-1].TS) {
			prom.BarsStale.Inc()
			continue
		}
		window = append(window, bar)
		if len(window) > maxBars {
			window = window[len(window)-maxBars:]
		}
		enriched := marketdata.AttachPrevDay(window)

		if err := cache.InsertBars(cfg.Ticker, []model.Bar{bar}); err != nil {
			lg.Warn("bar cache write failed", "error", err)
		}
		if publisher != nil {
			if err := publisher.PublishBar(cfg.Ticker, bar); err != nil {
				lg.Warn("bar publish failed", "error", err)
			}
		}

		start := time.Now()
		sigs := eng.Scan(enriched, cfg.Patterns)
		prom.ScansTotal.Inc()
		prom.ScanDuration.Observe(time.Since(start).Seconds())
		lastScan = time.Now()

		for i := range sigs {
			s := sigs[i]
			if !s.TS.Equal(bar.TS) {
				continue // historical signal, already seen
			}
			prom.SignalsTotal.WithLabelValues(string(s.Pattern), string(s.Direction)).Inc()
			if alerts.Notify(ctx, s) {
				prom.AlertsTotal.WithLabelValues("manager").Inc()
			} else {
				prom.AlertsSuppressed.Inc()
			}
			if publisher != nil {
				if err := publisher.PublishSignal(cfg.Ticker, s); err != nil {
					lg.Warn("signal publish failed", "error", err)
				}
			}
		}
	}
}
