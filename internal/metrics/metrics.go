// Package metrics exposes Prometheus instrumentation and a /healthz
// endpoint for the scanner processes.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the scanner.
type Metrics struct {
	ScansTotal       prometheus.Counter
	ScanDuration     prometheus.Histogram
	SignalsTotal     *prometheus.CounterVec // labels: pattern, direction
	AlertsTotal      *prometheus.CounterVec // labels: channel
	AlertsSuppressed prometheus.Counter

	BarsIngested prometheus.Counter
	BarsStale    prometheus.Counter
	WSReconnects prometheus.Counter

	TradesTotal    *prometheus.CounterVec // labels: exit_reason
	BacktestRunDur prometheus.Histogram

	RedisPublishDur prometheus.Histogram
	SQLiteCommitDur prometheus.Histogram

	MarketState prometheus.Gauge // 0=closed, 1=open
	LastScanAge prometheus.Gauge // seconds since the last completed scan
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanner_scans_total",
			Help: "Total pattern scans executed",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scanner_scan_duration_seconds",
			Help:    "Full-context pattern scan latency",
			Buckets: prometheus.DefBuckets,
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_signals_total",
			Help: "Signals emitted (by pattern and direction)",
		}, []string{"pattern", "direction"}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_alerts_total",
			Help: "Alerts delivered (by channel)",
		}, []string{"channel"}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanner_alerts_suppressed_total",
			Help: "Alerts dropped by cooldown or confidence filter",
		}),
		BarsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanner_bars_ingested_total",
			Help: "Intraday bars received from the feed",
		}),
		BarsStale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanner_bars_stale_total",
			Help: "Bars rejected as stale or out of order",
		}),
		WSReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanner_ws_reconnects_total",
			Help: "Bar stream reconnection attempts",
		}),
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_trades_total",
			Help: "Simulated trades settled (by exit reason)",
		}, []string{"exit_reason"}),
		BacktestRunDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scanner_backtest_run_duration_seconds",
			Help:    "Full backtest run latency",
			Buckets: prometheus.DefBuckets,
		}),
		RedisPublishDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scanner_redis_publish_duration_seconds",
			Help:    "Redis signal publish latency",
			Buckets: prometheus.DefBuckets,
		}),
		SQLiteCommitDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scanner_sqlite_commit_duration_seconds",
			Help:    "SQLite bar-cache batch commit latency",
			Buckets: prometheus.DefBuckets,
		}),
		MarketState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scanner_market_open",
			Help: "1 while the regular session is open",
		}),
		LastScanAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scanner_last_scan_age_seconds",
			Help: "Seconds since the last completed scan",
		}),
	}

	prometheus.MustRegister(
		m.ScansTotal, m.ScanDuration, m.SignalsTotal, m.AlertsTotal, m.AlertsSuppressed,
		m.BarsIngested, m.BarsStale, m.WSReconnects,
		m.TradesTotal, m.BacktestRunDur,
		m.RedisPublishDur, m.SQLiteCommitDur,
		m.MarketState, m.LastScanAge,
	)
	return m
}

// HealthStatus tracks liveness of the scanner's dependencies.
type HealthStatus struct {
	mu sync.RWMutex

	WSConnected    bool      `json:"ws_connected"`
	LastBarTime    time.Time `json:"last_bar_time"`
	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`

	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetWSConnected(v bool) {
	h.mu.Lock()
	h.WSConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastBarTime(t time.Time) {
	h.mu.Lock()
	h.LastBarTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite runs a trivial query and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks. Nil clients are
// skipped, so a backtest process can run without Redis.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.WSConnected || !h.RedisConnected || !h.SQLiteOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}
	if !h.RedisConnected && !h.SQLiteOK {
		overallStatus = "unhealthy"
	}

	barAge := ""
	if !h.LastBarTime.IsZero() {
		barAge = time.Since(h.LastBarTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		WSConnected     bool    `json:"ws_connected"`
		LastBarTime     string  `json:"last_bar_time"`
		BarAge          string  `json:"bar_age"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		WSConnected:     h.WSConnected,
		LastBarTime:     h.LastBarTime.Format(time.RFC3339),
		BarAge:          barAge,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
