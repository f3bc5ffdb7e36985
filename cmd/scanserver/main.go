// Command scanserver runs the crossover scanner as a long-lived
// service: scheduled post-close scans, an HTTP API over the results,
// WebSocket progress, and Prometheus metrics.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signalscan/config"
	"signalscan/internal/api"
	"signalscan/internal/logger"
	"signalscan/internal/metrics"
	"signalscan/internal/notification"
	"signalscan/internal/provider"
	"signalscan/internal/scanner"
	"signalscan/internal/scheduler"
	"signalscan/internal/store/memory"
	redisstore "signalscan/internal/store/redis"
	sqlitestore "signalscan/internal/store/sqlite"
	"signalscan/internal/universe"
)

func main() {
	cfg := config.Load()
	logg := logger.Init("scanserver", slog.LevelInfo)
	logg.Info("starting scanserver")

	// ---- Universe ----
	symbols, err := resolveUniverse(cfg)
	if err != nil {
		log.Fatalf("[scanserver] universe: %v", err)
	}
	logg.Info("universe resolved", slog.Int("symbols", len(symbols)))

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Provider ----
	prov := buildProvider(cfg)

	// ---- Report cache: Redis when configured, else in-process ----
	var cache scanner.ResultCache
	if cfg.RedisAddr != "" {
		rc, err := redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Fatalf("[scanserver] redis: %v", err)
		}
		defer rc.Close()
		cache = rc
	} else {
		cache = memory.New()
		logg.Info("no REDIS_ADDR set, using in-process report cache")
	}

	// ---- Scan history ----
	store, err := sqlitestore.Open(sqlitestore.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[scanserver] sqlite: %v", err)
	}
	defer store.Close()

	// ---- Liveness probes ----
	if rc, ok := cache.(*redisstore.Cache); ok {
		health.StartLivenessChecker(ctx, rc.Client(), store.DB(), 30*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, store.DB(), 30*time.Second)
	}

	// ---- Progress hub + scanner ----
	hub := api.NewHub(prom)
	sc := scanner.New(prov, scanner.Config{
		Lookback:      cfg.Lookback(),
		RecencyWindow: cfg.RecencyWindow,
		Concurrency:   cfg.Concurrency,
		CacheMaxAge:   cfg.CacheMaxAge,
	}, hub, cache, prom)

	// ---- Notifications ----
	broadcaster := buildBroadcaster(cfg, prom)

	// ---- Scheduler ----
	sched := scheduler.New(sc, symbols, store, broadcaster, health)
	if err := sched.Register(ctx, cfg.ScanCron); err != nil {
		log.Fatalf("[scanserver] scheduler: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// ---- HTTP API ----
	apiSrv := api.NewServer(sched, prov, store, hub, health, cfg.Lookback())
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: apiSrv.Router()}
	go func() {
		logg.Info("http api listening", slog.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[scanserver] http: %v", err)
		}
	}()

	// ---- Wait for shutdown signal ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logg.Info("shutting down")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)
}

func resolveUniverse(cfg *config.Config) ([]string, error) {
	if cfg.Symbols != "" {
		return universe.Parse(cfg.Symbols), nil
	}
	if cfg.UniverseFile != "" {
		return universe.FromFile(cfg.UniverseFile)
	}
	return universe.Default(), nil
}

func buildProvider(cfg *config.Config) scanner.Provider {
	if cfg.Provider == "angel" {
		tokens, err := provider.LoadTokenMap(cfg.AngelTokensFile)
		if err != nil {
			log.Fatalf("[scanserver] %v", err)
		}
		return provider.NewAngel(provider.AngelConfig{
			APIKey:     cfg.AngelAPIKey,
			ClientCode: cfg.AngelClientCode,
			Password:   cfg.AngelPassword,
			TOTPSecret: cfg.AngelTOTPSecret,
			Tokens:     tokens,
		})
	}
	return provider.NewYahoo()
}

func buildBroadcaster(cfg *config.Config, prom *metrics.Metrics) *notification.Broadcaster {
	notifiers := []notification.Notifier{notification.NewLogNotifier()}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	return notification.NewBroadcaster(prom, notifiers...)
}
