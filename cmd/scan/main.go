// cmd/scan runs the pattern detectors over a bar window once and prints
// every signal found. Useful for eyeballing detector output before
// trusting a backtest.
//
// Usage:
//
//	go run ./cmd/scan --days=5
//	go run ./cmd/scan --csv=data/spy_5m.csv --min-conf=0.65
//	go run ./cmd/scan --follow
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"odte-scanner/config"
	"odte-scanner/internal/logger"
	"odte-scanner/internal/marketdata"
	"odte-scanner/internal/model"
	"odte-scanner/internal/pattern"
	redisstore "odte-scanner/internal/store/redis"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	days := flag.Int("days", 0, "trading days of history (0 = config default)")
	csvPath := flag.String("csv", "", "load bars from CSV instead of the simulator")
	patterns := flag.String("patterns", "", "comma-separated pattern subset (default: all)")
	minConf := flag.Float64("min-conf", 0, "only print signals at or above this confidence")
	follow := flag.Bool("follow", false, "tail live signals from Redis instead of scanning history")
	flag.Parse()

	lg := logger.InitFromEnv("scan")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[scan] config: %v", err)
	}
	if *days > 0 {
		cfg.HistoryDays = *days
	}

	if *follow {
		followSignals(cfg, *minConf, lg)
		return
	}

	var tags []model.Pattern
	for _, name := range strings.Split(*patterns, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p := model.Pattern(name)
		if !p.IsValid() {
			log.Fatalf("[scan] unknown pattern %q", name)
		}
		tags = append(tags, p)
	}

	var bars []model.Bar
	if *csvPath != "" {
		bars, err = marketdata.ReadCSV(*csvPath)
		if err != nil {
			log.Fatalf("[scan] load csv: %v", err)
		}
	} else {
		bars = marketdata.SimulateDays(marketdata.DefaultSimConfig(), time.Now(), cfg.HistoryDays)
	}
	lg.Info("bars loaded", "count", len(bars), "days", len(model.Days(bars)))

	eng := pattern.NewEngine(tags, lg)
	sigs := eng.Scan(bars, cfg.Patterns)

	printed := 0
	for i := range sigs {
		s := &sigs[i]
		if s.Confidence < *minConf {
			continue
		}
		printed++
		fmt.Printf("%s  %-34s %-5s conf=%.2f entry=%.2f stop=%.2f target=%.2f rr=%.2f\n",
			s.TS.Format("2006-01-02 15:04"), s.Pattern, s.Direction,
			s.Confidence, s.EntryPrice, s.StopPrice, s.TargetPrice, s.RiskReward())
	}
	fmt.Printf("\n%d signals (%d shown) across %d bars\n", len(sigs), printed, len(bars))
}

// followSignals subscribes to the live signal channel published by the
// monitor and prints signals until interrupted.
func followSignals(cfg *config.Config, minConf float64, lg *slog.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader, err := redisstore.NewReader(redisstore.ReaderConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, lg)
	if err != nil {
		log.Fatalf("[scan] redis: %v", err)
	}
	defer reader.Close()

	sub := reader.SubscribeSignals(ctx, cfg.Ticker)
	defer sub.Close()

	fmt.Printf("tailing signals for %s (ctrl-c to stop)\n", cfg.Ticker)
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var s model.Signal
			if err := json.Unmarshal([]byte(msg.Payload), &s); err != nil {
				lg.Warn("bad signal payload", "err", err)
				continue
			}
			if s.Confidence < minConf {
				continue
			}
			fmt.Printf("%s  %-34s %-5s conf=%.2f entry=%.2f stop=%.2f target=%.2f\n",
				s.TS.Format("15:04"), s.Pattern, s.Direction,
				s.Confidence, s.EntryPrice, s.StopPrice, s.TargetPrice)
		}
	}
}
