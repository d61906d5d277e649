// Package api exposes the scanner over HTTP: pattern listing, on-demand
// scans, and backtests. Scans run against simulated or cached bars, so
// the API is usable without a broker session.
package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"odte-scanner/config"
	"odte-scanner/internal/store/redis"
)

// Server wires the HTTP handlers to their dependencies. Signals is
// optional; without it the recent-signals route answers 503.
type Server struct {
	Cfg     *config.Config
	Log     *slog.Logger
	Signals *redis.Reader

	start time.Time
}

// NewServer builds a Server around the given config.
func NewServer(cfg *config.Config, log *slog.Logger, signals *redis.Reader) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{Cfg: cfg, Log: log, Signals: signals, start: time.Now()}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", s.handleHealth)
		v1.GET("/patterns", s.handlePatterns)
		v1.POST("/scan", s.handleScan)
		v1.POST("/backtest", s.handleBacktest)
		v1.GET("/signals/recent", s.handleRecentSignals)
		v1.GET("/bars/latest", s.handleLatestBar)
	}
	return r
}

// requestLogger logs one line per request through slog instead of gin's
// default writer.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Log.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start).String(),
		)
	}
}
