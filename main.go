package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"equity-signal-bot/config"
	"equity-signal-bot/internal/analysis"
	"equity-signal-bot/internal/api"
	"equity-signal-bot/internal/auth"
	"equity-signal-bot/internal/cache"
	"equity-signal-bot/internal/database"
	"equity-signal-bot/internal/events"
	"equity-signal-bot/internal/feeds"
	"equity-signal-bot/internal/gates"
	"equity-signal-bot/internal/logging"
	"equity-signal-bot/internal/market"
	"equity-signal-bot/internal/metrics"
	"equity-signal-bot/internal/notification"
	"equity-signal-bot/internal/scanner"
	"equity-signal-bot/internal/sentiment"
	"equity-signal-bot/internal/vault"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize structured logging
	logger, err := logging.New(logging.Config{
		Level:      cfg.LoggingConfig.Level,
		Output:     cfg.LoggingConfig.Output,
		JSONFormat: cfg.LoggingConfig.JSONFormat,
		WithCaller: cfg.LoggingConfig.WithCaller,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	ctx := context.Background()

	// Initialize event bus
	eventBus := events.NewEventBus()

	// Resolve notifier credentials, preferring Vault over the environment
	// when it is enabled and reachable
	vaultClient, err := vault.NewClient(cfg.VaultConfig)
	if err != nil {
		log.Fatalf("Failed to create vault client: %v", err)
	}
	if vaultClient.IsEnabled() {
		if err := vaultClient.Health(ctx); err != nil {
			logger.Warn().Err(err).Msg("vault unavailable, using environment credentials")
		} else if secrets, err := vaultClient.GetNotifierSecrets(ctx); err != nil {
			logger.Warn().Err(err).Msg("could not read notifier secrets from vault")
		} else {
			applyNotifierSecrets(cfg, secrets)
			logger.Info().Msg("notifier credentials loaded from vault")
		}
	}

	// Initialize notification manager
	var notifyManager *notification.Manager
	if cfg.NotificationConfig.Enabled {
		notifyManager = notification.NewManager()

		// Add Telegram notifier
		if cfg.NotificationConfig.Telegram.Enabled {
			notifyManager.AddNotifier(notification.NewTelegramNotifier(notification.TelegramConfig{
				BotToken: cfg.NotificationConfig.Telegram.BotToken,
				ChatID:   cfg.NotificationConfig.Telegram.ChatID,
				Enabled:  true,
			}))
			logger.Info().Msg("Telegram notifications enabled")
		}

		// Add Discord notifier
		if cfg.NotificationConfig.Discord.Enabled {
			notifyManager.AddNotifier(notification.NewDiscordNotifier(notification.DiscordConfig{
				WebhookURL: cfg.NotificationConfig.Discord.WebhookURL,
				Enabled:    true,
			}))
			logger.Info().Msg("Discord notifications enabled")
		}

		// Surface bus-level errors (e.g. a dead macro feed) on the alert
		// channels so the operator hears about them without tailing logs
		eventBus.Subscribe(events.EventError, func(e events.Event) {
			source, _ := e.Data["source"].(string)
			message, _ := e.Data["message"].(string)
			if detail, ok := e.Data["error"].(string); ok {
				message += ": " + detail
			}
			if err := notifyManager.SendError(context.Background(), source, message); err != nil {
				logger.Warn().Err(err).Msg("failed to deliver error notification")
			}
		})
	}

	// Initialize database. Without it the bot still scans and alerts, serving
	// signals from the in-memory result cache.
	var repo *database.Repository
	if cfg.DatabaseConfig.Enabled {
		db, err := database.NewDB(database.Config{
			Host:     cfg.DatabaseConfig.Host,
			Port:     cfg.DatabaseConfig.Port,
			User:     cfg.DatabaseConfig.User,
			Password: cfg.DatabaseConfig.Password,
			Database: cfg.DatabaseConfig.Database,
			SSLMode:  cfg.DatabaseConfig.SSLMode,
		})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		repo = database.NewRepository(db)
		logger.Info().
			Str("host", cfg.DatabaseConfig.Host).
			Str("database", cfg.DatabaseConfig.Database).
			Msg("database connected")
	} else {
		logger.Warn().Msg("persistence disabled, signals held in memory only")
	}

	// Prune aged rows daily so the signals table does not grow unbounded
	if repo != nil && cfg.DatabaseConfig.RetentionDays > 0 {
		go runRetention(ctx, repo, cfg.DatabaseConfig.RetentionDays, logger)
	}

	// Chart feed serves both per-ticker price history and the macro series
	chartClient := feeds.NewChartClient(feeds.ChartConfig{
		BaseURL:           cfg.FeedsConfig.Chart.BaseURL,
		IndexSymbol:       cfg.FeedsConfig.Chart.IndexSymbol,
		RateSymbol:        cfg.FeedsConfig.Chart.RateSymbol,
		MacroLookbackDays: cfg.FeedsConfig.Chart.MacroLookbackDays,
		MaxCallsPerMinute: cfg.FeedsConfig.Chart.MaxCallsPerMinute,
		RetryAttempts:     cfg.FeedsConfig.Chart.RetryAttempts,
		RetryBackoff:      feeds.Seconds(cfg.FeedsConfig.Chart.RetryBackoffSec),
	})

	// Optional Redis series cache in front of the chart feed
	var priceFeed market.PriceFeed = chartClient
	if cfg.RedisConfig.Enabled {
		cacheService, err := cache.NewCacheService(cfg.RedisConfig, logger)
		if err != nil {
			log.Fatalf("Failed to create cache service: %v", err)
		}
		defer cacheService.Close()

		seriesTTL := time.Duration(cfg.FeedsConfig.SeriesCacheTTL) * time.Second
		store := cache.NewRedisSeriesStore(cacheService, seriesTTL)
		priceFeed = cache.NewCachedPriceFeed(chartClient, store, logger)
	}

	newsClient := feeds.NewNewsClient(feeds.NewsClientConfig{
		FeedURL:           cfg.FeedsConfig.News.FeedURL,
		MaxCallsPerMinute: cfg.FeedsConfig.News.MaxCallsPerMinute,
		RetryAttempts:     cfg.FeedsConfig.News.RetryAttempts,
		RetryBackoff:      feeds.Seconds(cfg.FeedsConfig.News.RetryBackoffSec),
	})

	optionsClient := feeds.NewOptionsClient(feeds.OptionsClientConfig{
		BaseURL:            cfg.FeedsConfig.Options.BaseURL,
		MaxCallsPerMinute:  cfg.FeedsConfig.Options.MaxCallsPerMinute,
		RetryAttempts:      cfg.FeedsConfig.Options.RetryAttempts,
		RetryBackoff:       feeds.Seconds(cfg.FeedsConfig.Options.RetryBackoffSec),
		IVRankWindow:       cfg.FeedsConfig.Options.IVRankWindow,
		IVRankLookbackDays: cfg.FeedsConfig.Options.IVRankLookbackDays,
	}, priceFeed)

	newsGate := gates.NewNewsGate(newsClient, sentiment.NewAnalyzer(), gates.NewsConfig{
		TopK:           cfg.GatesConfig.News.TopK,
		BlockThreshold: cfg.GatesConfig.News.BlockThreshold,
	})

	// Prometheus metrics, served by the API on /metrics
	rec := metrics.New()

	// Per-ticker evaluation pipeline
	evaluator := scanner.NewEvaluator(priceFeed, optionsClient, newsGate, scanner.EvaluatorConfig{
		LookbackDays:     cfg.ScannerConfig.LookbackDays,
		OversoldByTicker: cfg.WatchlistConfig.OversoldByTicker(),
		Analyzer: analysis.AnalyzerConfig{
			RSIPeriod:    cfg.AnalysisConfig.RSIPeriod,
			FastMAPeriod: cfg.AnalysisConfig.FastMAPeriod,
			SlowMAPeriod: cfg.AnalysisConfig.SlowMAPeriod,
		},
		Levels: analysis.LevelConfig{
			Order:           cfg.AnalysisConfig.ExtremaOrder,
			LookbackBars:    cfg.AnalysisConfig.LevelLookbackBars,
			UseProminence:   cfg.AnalysisConfig.UseProminence,
			ProminencePct:   cfg.AnalysisConfig.ProminencePct,
			MinPeakDistance: cfg.AnalysisConfig.MinPeakDistance,
			Cluster: analysis.ClusterConfig{
				Tolerance:        cfg.AnalysisConfig.ClusterTolerance,
				HighMinTouches:   cfg.AnalysisConfig.HighMinTouches,
				MediumMinTouches: cfg.AnalysisConfig.MediumMinTouches,
			},
		},
		Profile: analysis.ProfileConfig{
			Bins:         cfg.AnalysisConfig.ProfileBins,
			LookbackBars: cfg.AnalysisConfig.ProfileLookbackBars,
		},
		Options: gates.OptionsConfig{
			MaxIVRank:           cfg.GatesConfig.Options.MaxIVRank,
			BullishPutCallRatio: cfg.GatesConfig.Options.BullishPutCallRatio,
		},
		Support: gates.SupportConfig{
			MaxSupportDistance:  cfg.GatesConfig.Support.MaxSupportDistance,
			ResistanceWindow:    cfg.GatesConfig.Support.ResistanceWindow,
			MinBlockingStrength: market.StrengthTier(cfg.GatesConfig.Support.MinBlockingStrength),
		},
	}, rec, logger)

	var alerts []market.AlertSink
	if notifyManager != nil {
		alerts = append(alerts, notifyManager)
	}

	alertTiers := []market.Classification{market.StrongBuy}
	if cfg.ScannerConfig.AlertOnWatch {
		alertTiers = append(alertTiers, market.Watch)
	}

	// A nil *Repository must not become a non-nil SignalSink interface
	var sink market.SignalSink
	if repo != nil {
		sink = repo
	}

	sc := scanner.NewScanner(
		chartClient,
		gates.MacroConfig{
			IndexMAPeriod:      cfg.GatesConfig.Macro.IndexMAPeriod,
			RateSpikeThreshold: cfg.GatesConfig.Macro.RateSpikeThreshold,
			CrashThreshold:     cfg.GatesConfig.Macro.CrashThreshold,
		},
		evaluator,
		sink,
		alerts,
		eventBus,
		rec,
		scanner.Config{
			Enabled:                cfg.ScannerConfig.Enabled,
			ScanInterval:           time.Duration(cfg.ScannerConfig.ScanInterval) * time.Second,
			TickerTimeout:          time.Duration(cfg.ScannerConfig.TickerTimeout) * time.Second,
			Watchlist:              cfg.WatchlistConfig.Tickers,
			WorkerCount:            cfg.ScannerConfig.WorkerCount,
			Cooldown:               time.Duration(cfg.ScannerConfig.AlertCooldown) * time.Second,
			AlertTiers:             alertTiers,
			MaxConsecutiveFailures: cfg.ScannerConfig.MaxConsecutiveFailures,
		},
		logger,
	)

	if cfg.ScannerConfig.PersistRuns && repo != nil {
		sc.SetRunSink(&runRecorder{repo: repo})
	}

	// Initialize operator auth
	var authService *auth.Service
	if cfg.AuthConfig.Enabled {
		authService, err = auth.NewService(auth.Config{
			JWTSecret:            cfg.AuthConfig.JWTSecret,
			AccessTokenDuration:  cfg.AuthConfig.AccessTokenDuration,
			RefreshTokenDuration: cfg.AuthConfig.RefreshTokenDuration,
			Username:             cfg.AuthConfig.Username,
			Password:             cfg.AuthConfig.Password,
			PasswordHash:         cfg.AuthConfig.PasswordHash,
			MaxSessions:          cfg.AuthConfig.MaxSessions,
		})
		if err != nil {
			log.Fatalf("Failed to initialize auth: %v", err)
		}
		logger.Info().Str("operator", cfg.AuthConfig.Username).Msg("operator auth enabled")
	}

	// Initialize web server
	server := api.NewServer(api.ServerConfig{
		Port:           cfg.ServerConfig.Port,
		Host:           cfg.ServerConfig.Host,
		AllowedOrigins: splitOrigins(cfg.ServerConfig.AllowedOrigins),
		ProductionMode: cfg.ServerConfig.ProductionMode,
		RateLimit:      cfg.ServerConfig.RateLimit,
		RateWindow:     time.Duration(cfg.ServerConfig.RateWindow) * time.Second,
		ReadTimeout:    time.Duration(cfg.ServerConfig.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.ServerConfig.WriteTimeout) * time.Second,
	}, repo, sc, eventBus, authService, buildWatchlist(cfg.WatchlistConfig), logger)

	// Start web server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start web server: %v", err)
		}
	}()

	// Start the scan loop
	sc.Start()

	logger.Info().
		Str("api", fmt.Sprintf("http://%s:%d", cfg.ServerConfig.Host, cfg.ServerConfig.Port)).
		Int("watchlist", len(cfg.WatchlistConfig.Tickers)).
		Msg("equity signal bot started")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("web server shutdown failed")
	}

	sc.Stop()

	logger.Info().Msg("shutdown complete")
}

// runRecorder adapts the repository to the scanner's RunSink, flattening a
// run result into the scan_runs row shape.
type runRecorder struct {
	repo *database.Repository
}

func (r *runRecorder) SaveRun(ctx context.Context, run *scanner.RunResult) error {
	return r.repo.SaveRun(ctx, &database.ScanRun{
		ID:          run.RunID,
		StartedAt:   run.StartTime,
		FinishedAt:  run.EndTime,
		MacroPassed: run.MacroPassed,
		MacroReason: run.MacroReason,
		Evaluated:   run.Evaluated,
		StrongBuys:  run.StrongBuys,
		Watches:     run.Watches,
		NoSignals:   run.NoSignals,
		AlertsSent:  run.AlertsSent,
	})
}

// runRetention deletes signals and run summaries older than the retention
// window, once at startup and then every 24 hours.
func runRetention(ctx context.Context, repo *database.Repository, days int, logger zerolog.Logger) {
	log := logger.With().Str("component", "retention").Logger()
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		cutoff := time.Now().AddDate(0, 0, -days)
		signals, err := repo.PruneSignals(ctx, cutoff)
		if err != nil {
			log.Error().Err(err).Msg("failed to prune signals")
		}
		runs, err := repo.PruneRuns(ctx, cutoff)
		if err != nil {
			log.Error().Err(err).Msg("failed to prune runs")
		}
		if signals > 0 || runs > 0 {
			log.Info().
				Int64("signals", signals).
				Int64("runs", runs).
				Int("retention_days", days).
				Msg("pruned expired records")
		}
		<-ticker.C
	}
}

// applyNotifierSecrets overlays Vault-held credentials onto the notification
// config. Vault wins for every field it has a value for.
func applyNotifierSecrets(cfg *config.Config, secrets *vault.NotifierSecrets) {
	if secrets.TelegramBotToken != "" {
		cfg.NotificationConfig.Telegram.BotToken = secrets.TelegramBotToken
	}
	if secrets.TelegramChatID != "" {
		cfg.NotificationConfig.Telegram.ChatID = secrets.TelegramChatID
	}
	if secrets.DiscordWebhookURL != "" {
		cfg.NotificationConfig.Discord.WebhookURL = secrets.DiscordWebhookURL
	}
}

// buildWatchlist flattens the volatility groups into the API's watchlist view.
// Tickers outside every group carry the default thresholds.
func buildWatchlist(wc config.WatchlistConfig) []api.WatchlistEntry {
	groupOf := make(map[string]config.VolatilityGroup)
	for _, g := range wc.Groups {
		for _, t := range g.Tickers {
			groupOf[t] = g
		}
	}

	entries := make([]api.WatchlistEntry, 0, len(wc.Tickers))
	for _, t := range wc.Tickers {
		entry := api.WatchlistEntry{Ticker: t, OversoldRSI: 30, OverboughtRSI: 70}
		if g, ok := groupOf[t]; ok {
			entry.Group = g.Name
			entry.OversoldRSI = g.OversoldRSI
			entry.OverboughtRSI = g.OverboughtRSI
		}
		entries = append(entries, entry)
	}
	return entries
}

func splitOrigins(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
