// cmd/fetch backfills the SQLite bar cache from the broker's historical
// candle API. Run it before the open, or pointed at a date range to
// build a backtest dataset; --csv additionally exports the fetched bars.
//
// Usage:
//
//	go run ./cmd/fetch --days=30
//	go run ./cmd/fetch --days=60 --csv=data/spy_5m.csv
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"odte-scanner/config"
	"odte-scanner/internal/logger"
	"odte-scanner/internal/marketdata"
	"odte-scanner/internal/markethours"
	sqlitestore "odte-scanner/internal/store/sqlite"
	"odte-scanner/pkg/brokerfeed"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	days := flag.Int("days", 0, "trading days of history (0 = config default)")
	csvPath := flag.String("csv", "", "also export the fetched bars to CSV")
	flag.Parse()

	lg := logger.InitFromEnv("fetch")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[fetch] config: %v", err)
	}
	cfg.RequireBroker()
	if *days > 0 {
		cfg.HistoryDays = *days
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client := brokerfeed.NewClient(brokerfeed.Config{
		BaseURL:    cfg.BrokerBaseURL,
		APIKey:     cfg.BrokerAPIKey,
		ClientCode: cfg.BrokerClientCode,
		Password:   cfg.BrokerPassword,
		TOTPSecret: cfg.BrokerTOTPSecret,
	}, lg)
	if err := client.Login(ctx); err != nil {
		log.Fatalf("[fetch] login: %v", err)
	}
	defer client.Logout(ctx)

	to := time.Now().In(markethours.NY)
	from := to.AddDate(0, 0, -calendarSpan(cfg.HistoryDays))
	lg.Info("fetching history",
		"ticker", cfg.Ticker, "from", from.Format("2006-01-02"), "to", to.Format("2006-01-02"))

	// Minute candles resampled locally give cleaner 5m bars than the
	// broker's own aggregation, which drops partial buckets around halts.
	minuteBars, err := client.GetCandleData(ctx, cfg.Ticker, "ONE_MINUTE", from, to)
	if err != nil {
		log.Fatalf("[fetch] candle data: %v", err)
	}
	if len(minuteBars) == 0 {
		log.Fatal("[fetch] broker returned no bars")
	}
	bars := marketdata.Resample(minuteBars, marketdata.BarInterval)
	lg.Info("bars fetched", "minute_bars", len(minuteBars), "resampled", len(bars))

	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		log.Fatalf("[fetch] data dir: %v", err)
	}
	cache, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath}, lg)
	if err != nil {
		log.Fatalf("[fetch] sqlite init: %v", err)
	}
	defer cache.Close()

	if err := cache.InsertBars(cfg.Ticker, bars); err != nil {
		log.Fatalf("[fetch] cache write: %v", err)
	}
	lg.Info("cache updated", "path", cfg.SQLitePath)

	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			log.Fatalf("[fetch] create csv: %v", err)
		}
		defer f.Close()
		if err := marketdata.WriteCSV(f, bars); err != nil {
			log.Fatalf("[fetch] write csv: %v", err)
		}
		lg.Info("csv written", "path", *csvPath, "bars", len(bars))
	}
}

// calendarSpan widens a trading-day count to calendar days so the broker
// request covers weekends and holidays.
func calendarSpan(tradingDays int) int {
	return tradingDays*7/5 + 5
}
