// cmd/backtest runs the pattern scan and trade simulation over historical
// bars and prints a performance report.
//
// Usage:
//
//	go run ./cmd/backtest --days=30
//	go run ./cmd/backtest --csv=data/spy_5m.csv --patterns=opening_range_breakout,vwap_crossover_long
//	go run ./cmd/backtest --cache --days=60 --compare
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"odte-scanner/config"
	"odte-scanner/internal/backtest"
	"odte-scanner/internal/logger"
	"odte-scanner/internal/marketdata"
	"odte-scanner/internal/model"
	"odte-scanner/internal/pattern"
	sqlitestore "odte-scanner/internal/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	days := flag.Int("days", 0, "trading days of history (0 = config default)")
	csvPath := flag.String("csv", "", "load bars from CSV instead of the simulator")
	useCache := flag.Bool("cache", false, "load bars from the SQLite cache (see cmd/fetch)")
	patterns := flag.String("patterns", "", "comma-separated pattern subset (default: all)")
	capital := flag.Float64("capital", 0, "starting capital override")
	minConf := flag.Float64("min-conf", -1, "confidence floor override")
	compare := flag.Bool("compare", false, "run each pattern in isolation and rank them")
	jsonOut := flag.Bool("json", false, "emit results as JSON instead of the text report")
	outPath := flag.String("o", "", "write the report to a file as well as stdout")
	flag.Parse()

	lg := logger.InitFromEnv("backtest")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[backtest] config: %v", err)
	}
	if *days > 0 {
		cfg.HistoryDays = *days
	}
	if *capital > 0 {
		cfg.Backtest.InitialCapital = *capital
	}
	if *minConf >= 0 {
		cfg.Backtest.MinConfidence = *minConf
	}

	tags, err := parsePatterns(*patterns)
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}

	bars, err := loadBars(cfg, *csvPath, *useCache, lg)
	if err != nil {
		log.Fatalf("[backtest] load bars: %v", err)
	}
	lg.Info("bars loaded", "count", len(bars), "days", len(model.Days(bars)))

	if *compare {
		runCompare(cfg, tags, bars)
		return
	}

	eng := pattern.NewEngine(tags, lg)
	sigs := eng.Scan(bars, cfg.Patterns)
	res := backtest.NewSimulator(cfg.Backtest, lg).Run(bars, sigs)

	var out string
	if *jsonOut {
		data, err := json.MarshalIndent(map[string]any{
			"stats":         res.Stats(),
			"by_pattern":    res.ByPattern(),
			"final_capital": res.FinalCapital,
			"trades":        res.Trades,
		}, "", "  ")
		if err != nil {
			log.Fatalf("[backtest] marshal: %v", err)
		}
		out = string(data) + "\n"
	} else {
		out = backtest.FormatReport(res)
	}

	fmt.Print(out)
	if *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(out), 0o644); err != nil {
			log.Fatalf("[backtest] write report: %v", err)
		}
		lg.Info("report written", "path", *outPath)
	}
}

// runCompare backtests every requested pattern on its own and prints a
// table ranked by total P&L.
func runCompare(cfg *config.Config, tags []model.Pattern, bars []model.Bar) {
	if len(tags) == 0 {
		tags = model.AllPatterns()
	}

	type row struct {
		pattern model.Pattern
		stats   backtest.Stats
	}
	rows := make([]row, 0, len(tags))
	for _, p := range tags {
		eng := pattern.NewEngine([]model.Pattern{p}, nil)
		sigs := eng.Scan(bars, cfg.Patterns)
		res := backtest.NewSimulator(cfg.Backtest, nil).Run(bars, sigs)
		rows = append(rows, row{pattern: p, stats: res.Stats()})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].stats.TotalPnL > rows[j].stats.TotalPnL
	})

	fmt.Printf("%-34s %7s %8s %12s %8s\n", "PATTERN", "TRADES", "WIN%", "PNL", "SHARPE")
	fmt.Println(strings.Repeat("-", 74))
	for _, r := range rows {
		fmt.Printf("%-34s %7d %7.1f%% %12.2f %8.2f\n",
			r.pattern, r.stats.TotalTrades, r.stats.WinRate,
			r.stats.TotalPnL, r.stats.Sharpe)
	}
}

func parsePatterns(s string) ([]model.Pattern, error) {
	if s == "" {
		return nil, nil
	}
	var tags []model.Pattern
	for _, name := range strings.Split(s, ",") {
		p := model.Pattern(strings.TrimSpace(name))
		if !p.IsValid() {
			return nil, fmt.Errorf("unknown pattern %q", name)
		}
		tags = append(tags, p)
	}
	return tags, nil
}

func loadBars(cfg *config.Config, csvPath string, useCache bool, lg *slog.Logger) ([]model.Bar, error) {
	if csvPath != "" {
		return marketdata.ReadCSV(csvPath)
	}
	if useCache {
		r, err := sqlitestore.NewReader(cfg.SQLitePath, lg)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		until := time.Now().Unix()
		after := until - int64(cfg.HistoryDays)*2*86400
		bars, err := r.ReadBars(cfg.Ticker, after, until)
		if err != nil {
			return nil, err
		}
		if len(bars) == 0 {
			return nil, fmt.Errorf("cache %s has no bars for %s", cfg.SQLitePath, cfg.Ticker)
		}
		return marketdata.AttachPrevDay(bars), nil
	}
	return marketdata.SimulateDays(marketdata.DefaultSimConfig(), time.Now(), cfg.HistoryDays), nil
}
