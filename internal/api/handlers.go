package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"odte-scanner/internal/backtest"
	"odte-scanner/internal/marketdata"
	"odte-scanner/internal/model"
	"odte-scanner/internal/pattern"
)

const maxRequestDays = 250

// scanRequest selects the data window and detector subset for a scan.
// Zero Days falls back to the configured history window; an empty
// Patterns list enables every detector.
type scanRequest struct {
	Days     int      `json:"days"`
	Patterns []string `json:"patterns"`
}

type backtestRequest struct {
	Days     int      `json:"days"`
	Patterns []string `json:"patterns"`

	// Optional overrides; nil keeps the configured value.
	InitialCapital *float64 `json:"initial_capital"`
	MinConfidence  *float64 `json:"min_confidence"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"ticker":    s.Cfg.Ticker,
		"uptime_ms": time.Since(s.start).Milliseconds(),
	})
}

func (s *Server) handlePatterns(c *gin.Context) {
	type patternInfo struct {
		Tag   string `json:"tag"`
		Title string `json:"title"`
	}
	all := model.AllPatterns()
	out := make([]patternInfo, len(all))
	for i, p := range all {
		out[i] = patternInfo{Tag: string(p), Title: p.Title()}
	}
	c.JSON(http.StatusOK, gin.H{"patterns": out})
}

func (s *Server) handleScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	bars, tags, ok := s.prepare(c, req.Days, req.Patterns)
	if !ok {
		return
	}

	eng := pattern.NewEngine(tags, s.Log)
	sigs := eng.Scan(bars, s.Cfg.Patterns)

	c.JSON(http.StatusOK, gin.H{
		"ticker":       s.Cfg.Ticker,
		"bar_count":    len(bars),
		"signal_count": len(sigs),
		"signals":      sigs,
	})
}

func (s *Server) handleBacktest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	bars, tags, ok := s.prepare(c, req.Days, req.Patterns)
	if !ok {
		return
	}

	cfg := s.Cfg.Backtest
	if req.InitialCapital != nil {
		if *req.InitialCapital <= 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "initial_capital must be positive"})
			return
		}
		cfg.InitialCapital = *req.InitialCapital
	}
	if req.MinConfidence != nil {
		cfg.MinConfidence = *req.MinConfidence
	}

	eng := pattern.NewEngine(tags, s.Log)
	sigs := eng.Scan(bars, s.Cfg.Patterns)
	res := backtest.NewSimulator(cfg, s.Log).Run(bars, sigs)
	stats := res.Stats()

	byWeekday := make(map[string]backtest.Breakdown)
	for wd, b := range res.ByWeekday() {
		byWeekday[wd.String()] = b
	}

	c.JSON(http.StatusOK, gin.H{
		"ticker":          s.Cfg.Ticker,
		"bar_count":       len(bars),
		"signal_count":    len(sigs),
		"stats":           stats,
		"by_pattern":      res.ByPattern(),
		"by_weekday":      byWeekday,
		"initial_capital": res.InitialCapital,
		"final_capital":   res.FinalCapital,
		"trades":          res.Trades,
	})
}

func (s *Server) handleRecentSignals(c *gin.Context) {
	if s.Signals == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "signal store not configured"})
		return
	}
	sigs, err := s.Signals.RecentSignals(c.Request.Context(), s.Cfg.Ticker, 100)
	if err != nil {
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticker": s.Cfg.Ticker, "signals": sigs})
}

func (s *Server) handleLatestBar(c *gin.Context) {
	if s.Signals == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "signal store not configured"})
		return
	}
	bar, err := s.Signals.LatestBar(c.Request.Context(), s.Cfg.Ticker)
	if err != nil {
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	if bar == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "no bar published yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticker": s.Cfg.Ticker, "bar": bar})
}

// prepare validates the shared request fields and produces the bar window.
// On failure it writes the error response and returns ok=false.
func (s *Server) prepare(c *gin.Context, days int, patterns []string) ([]model.Bar, []model.Pattern, bool) {
	if days == 0 {
		days = s.Cfg.HistoryDays
	}
	if days < 1 || days > maxRequestDays {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "days out of range"})
		return nil, nil, false
	}

	var tags []model.Pattern
	for _, name := range patterns {
		p := model.Pattern(name)
		if !p.IsValid() {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown pattern: " + name})
			return nil, nil, false
		}
		tags = append(tags, p)
	}

	bars := marketdata.SimulateDays(marketdata.DefaultSimConfig(), time.Now(), days)
	return bars, tags, true
}
