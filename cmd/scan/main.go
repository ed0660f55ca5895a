// Command scan runs a single evaluation pass over the watchlist and prints a
// table report. It is the cron-friendly alternative to the resident scanner:
// schedule it after the market close and read the day's signals from stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"equity-signal-bot/config"
	"equity-signal-bot/internal/analysis"
	"equity-signal-bot/internal/database"
	"equity-signal-bot/internal/feeds"
	"equity-signal-bot/internal/gates"
	"equity-signal-bot/internal/logging"
	"equity-signal-bot/internal/market"
	"equity-signal-bot/internal/notification"
	"equity-signal-bot/internal/scanner"
	"equity-signal-bot/internal/sentiment"
	"equity-signal-bot/internal/vault"

	"github.com/rs/zerolog"
)

func main() {
	var (
		persist = flag.Bool("persist", false, "save signals and the run summary to the database")
		notify  = flag.Bool("notify", false, "send alerts through the configured channels")
		tickers = flag.String("tickers", "", "comma-separated watchlist override")
		jsonOut = flag.Bool("json", false, "print the full run result as JSON instead of a table")
		verbose = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *tickers != "" {
		cfg.WatchlistConfig.Tickers = splitTickers(*tickers)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so stdout carries only the report
	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{Level: level, Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	chartClient := feeds.NewChartClient(feeds.ChartConfig{
		BaseURL:           cfg.FeedsConfig.Chart.BaseURL,
		IndexSymbol:       cfg.FeedsConfig.Chart.IndexSymbol,
		RateSymbol:        cfg.FeedsConfig.Chart.RateSymbol,
		MacroLookbackDays: cfg.FeedsConfig.Chart.MacroLookbackDays,
		MaxCallsPerMinute: cfg.FeedsConfig.Chart.MaxCallsPerMinute,
		RetryAttempts:     cfg.FeedsConfig.Chart.RetryAttempts,
		RetryBackoff:      feeds.Seconds(cfg.FeedsConfig.Chart.RetryBackoffSec),
	})

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
	}, chartClient)

	newsGate := gates.NewNewsGate(newsClient, sentiment.NewAnalyzer(), gates.NewsConfig{
		TopK:           cfg.GatesConfig.News.TopK,
		BlockThreshold: cfg.GatesConfig.News.BlockThreshold,
	})

	evaluator := scanner.NewEvaluator(chartClient, optionsClient, newsGate, scanner.EvaluatorConfig{
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
	}, nil, logger)

	var sink market.SignalSink
	var runs scanner.RunSink
	if *persist {
		db, err := database.NewDB(database.Config{
			Host:     cfg.DatabaseConfig.Host,
			Port:     cfg.DatabaseConfig.Port,
			User:     cfg.DatabaseConfig.User,
			Password: cfg.DatabaseConfig.Password,
			Database: cfg.DatabaseConfig.Database,
			SSLMode:  cfg.DatabaseConfig.SSLMode,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
			os.Exit(1)
		}
		repo := database.NewRepository(db)
		sink = repo
		runs = &runRecorder{repo: repo}
	}

	var alerts []market.AlertSink
	if *notify {
		if manager := buildNotifiers(ctx, cfg, logger); manager != nil {
			alerts = append(alerts, manager)
		} else {
			fmt.Fprintln(os.Stderr, "warning: -notify set but no alert channel is configured")
		}
	}

	alertTiers := []market.Classification{market.StrongBuy}
	if cfg.ScannerConfig.AlertOnWatch {
		alertTiers = append(alertTiers, market.Watch)
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
		nil,
		nil,
		scanner.Config{
			Enabled:       true,
			TickerTimeout: time.Duration(cfg.ScannerConfig.TickerTimeout) * time.Second,
			Watchlist:     cfg.WatchlistConfig.Tickers,
			WorkerCount:   cfg.ScannerConfig.WorkerCount,
			AlertTiers:    alertTiers,
		},
		logger,
	)
	if runs != nil {
		sc.SetRunSink(runs)
	}

	run := sc.Scan(ctx)

	if *jsonOut {
		out, err := json.MarshalIndent(run, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode run: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	printReport(run, *persist, *notify)

	if run.SinkErrors > 0 {
		os.Exit(1)
	}
}

// runRecorder adapts the repository to the scanner's RunSink.
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

// buildNotifiers assembles the notification manager from config, overlaying
// Vault credentials when Vault is enabled. Returns nil when no channel is
// usable.
func buildNotifiers(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *notification.Manager {
	if cfg.VaultConfig.Enabled {
		vaultClient, err := vault.NewClient(cfg.VaultConfig)
		if err != nil {
			logger.Warn().Err(err).Msg("could not create vault client")
		} else if secrets, err := vaultClient.GetNotifierSecrets(ctx); err != nil {
			logger.Warn().Err(err).Msg("could not read notifier secrets from vault")
		} else {
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
	}

	manager := notification.NewManager()
	channels := 0

	if cfg.NotificationConfig.Telegram.Enabled && cfg.NotificationConfig.Telegram.BotToken != "" {
		manager.AddNotifier(notification.NewTelegramNotifier(notification.TelegramConfig{
			BotToken: cfg.NotificationConfig.Telegram.BotToken,
			ChatID:   cfg.NotificationConfig.Telegram.ChatID,
			Enabled:  true,
		}))
		channels++
	}
	if cfg.NotificationConfig.Discord.Enabled && cfg.NotificationConfig.Discord.WebhookURL != "" {
		manager.AddNotifier(notification.NewDiscordNotifier(notification.DiscordConfig{
			WebhookURL: cfg.NotificationConfig.Discord.WebhookURL,
			Enabled:    true,
		}))
		channels++
	}

	if channels == 0 {
		return nil
	}
	return manager
}

func splitTickers(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func printReport(run *scanner.RunResult, persisted, notified bool) {
	fmt.Println("================================================================================")
	fmt.Printf("📊 EQUITY SIGNAL SCAN  %s\n", run.StartTime.UTC().Format("2006-01-02 15:04 MST"))
	fmt.Println("================================================================================")

	if run.MacroPassed {
		fmt.Println("🟢 Market gate: passed")
	} else {
		fmt.Printf("🔴 Market gate: blocked (%s)\n", run.MacroReason)
	}

	fmt.Println("┌─────────┬────────────┬──────────┬───────┬──────────┬──────────┬──────────┐")
	fmt.Println("│ Ticker  │ Signal     │ Price    │ RSI   │ Support  │ Resist   │ POC      │")
	fmt.Println("├─────────┼────────────┼──────────┼───────┼──────────┼──────────┼──────────┤")

	for _, rec := range run.Records {
		fmt.Printf("│ %s %-5s │ %-10s │ %8s │ %5s │ %8s │ %8s │ %8s │\n",
			classEmoji(rec.Classification), rec.Ticker,
			rec.Classification,
			fmtPrice(rec.Price), fmtRSI(rec.RSI),
			fmtPrice(rec.NearestSupport), fmtPrice(rec.NearestResistance), fmtPrice(rec.PointOfControl))
	}

	fmt.Println("└─────────┴────────────┴──────────┴───────┴──────────┴──────────┴──────────┘")

	// One line per non-passing ticker explaining which gate stopped it
	for _, rec := range run.Records {
		if rec.Classification == market.StrongBuy {
			continue
		}
		if gate, reason := blockedBy(rec); gate != "" {
			fmt.Printf("   %s: blocked at %s gate (%s)\n", rec.Ticker, gate, reason)
		}
	}

	fmt.Printf("\nEvaluated: %d   Strong buys: %d   Watch: %d   No signal: %d\n",
		run.Evaluated, run.StrongBuys, run.Watches, run.NoSignals)
	fmt.Printf("Duration: %s   Run ID: %s\n", run.Duration.Round(time.Millisecond), run.RunID)

	if notified {
		fmt.Printf("Alerts sent: %d\n", run.AlertsSent)
	}
	if persisted {
		if run.SinkErrors > 0 {
			fmt.Printf("⚠️  Database errors: %d\n", run.SinkErrors)
		} else {
			fmt.Println("Saved to database")
		}
	}
}

// blockedBy returns the first failed gate and its reason, in pipeline order.
func blockedBy(rec *market.SignalRecord) (string, string) {
	for _, g := range rec.Gates {
		if !g.Passed {
			return g.Gate, g.Reason
		}
	}
	return "", ""
}

func classEmoji(c market.Classification) string {
	switch c {
	case market.StrongBuy:
		return "🚀"
	case market.Watch:
		return "👀"
	default:
		return "⬜"
	}
}

func fmtPrice(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func fmtRSI(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", v)
}
