// Package notification delivers signal alerts through Telegram and Discord.
// The Manager fans a notification out to every enabled provider and
// implements market.AlertSink for the scanner.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"equity-signal-bot/internal/market"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	NotifySignal  NotificationType = "signal"
	NotifySummary NotificationType = "summary"
	NotifyError   NotificationType = "error"
	NotifyInfo    NotificationType = "info"
)

// Notification represents a notification message
type Notification struct {
	Type           NotificationType
	Title          string
	Message        string
	Ticker         string
	Price          float64
	RSI            float64
	Classification string
	Timestamp      time.Time
}

// Notifier interface for different notification providers
type Notifier interface {
	Send(ctx context.Context, notification *Notification) error
	Name() string
	IsEnabled() bool
}

// Manager manages multiple notification providers
type Manager struct {
	notifiers []Notifier
	enabled   bool
}

// NewManager creates a new notification manager
func NewManager() *Manager {
	return &Manager{
		notifiers: make([]Notifier, 0),
		enabled:   true,
	}
}

// AddNotifier adds a notification provider
func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Send sends a notification to all enabled providers
func (m *Manager) Send(ctx context.Context, notification *Notification) error {
	if !m.enabled {
		return nil
	}

	var lastErr error
	for _, n := range m.notifiers {
		if n.IsEnabled() {
			if err := n.Send(ctx, notification); err != nil {
				lastErr = fmt.Errorf("%s: %w", n.Name(), err)
			}
		}
	}
	return lastErr
}

// Notify formats a signal record into an alert and fans it out. It implements
// market.AlertSink.
func (m *Manager) Notify(ctx context.Context, ticker string, rec *market.SignalRecord) error {
	return m.Send(ctx, SignalNotification(ticker, rec))
}

// SignalNotification builds the alert message for a signal record: price,
// RSI, the options positioning numbers, and the nearest levels.
func SignalNotification(ticker string, rec *market.SignalRecord) *Notification {
	var title string
	switch rec.Classification {
	case market.StrongBuy:
		title = fmt.Sprintf("🚀 Strong Buy: %s", ticker)
	case market.Watch:
		title = fmt.Sprintf("👀 Watch: %s", ticker)
	default:
		title = fmt.Sprintf("Signal: %s", ticker)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Price: $%.2f\n", rec.Price)
	fmt.Fprintf(&b, "RSI: %.1f\n", rec.RSI)

	if opt := rec.GateByName(market.GateOptions); opt != nil {
		if iv, ok := opt.Metrics["iv_rank"]; ok {
			fmt.Fprintf(&b, "IV Rank: %.1f%%\n", iv)
		}
		if pc, ok := opt.Metrics["put_call_ratio"]; ok {
			fmt.Fprintf(&b, "Put/Call: %.2f\n", pc)
		}
	}

	if rec.NearestSupport > 0 && rec.Price > 0 {
		distance := (rec.Price - rec.NearestSupport) / rec.NearestSupport * 100
		fmt.Fprintf(&b, "Support: $%.2f (%.1f%% away)\n", rec.NearestSupport, distance)
	}
	if rec.NearestResistance > 0 {
		fmt.Fprintf(&b, "Resistance: $%.2f\n", rec.NearestResistance)
	}
	if rec.PointOfControl > 0 {
		fmt.Fprintf(&b, "Volume POC: $%.2f\n", rec.PointOfControl)
	}

	if blocked := failedGates(rec); blocked != "" {
		fmt.Fprintf(&b, "Blocked: %s\n", blocked)
	}

	ts := rec.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	return &Notification{
		Type:           NotifySignal,
		Title:          title,
		Message:        strings.TrimRight(b.String(), "\n"),
		Ticker:         ticker,
		Price:          rec.Price,
		RSI:            rec.RSI,
		Classification: string(rec.Classification),
		Timestamp:      ts,
	}
}

func failedGates(rec *market.SignalRecord) string {
	var parts []string
	for i := range rec.Gates {
		g := &rec.Gates[i]
		if !g.Passed {
			parts = append(parts, fmt.Sprintf("%s (%s)", g.Gate, g.Reason))
		}
	}
	return strings.Join(parts, "; ")
}

// SendScanSummary sends a run digest listing the strong buy candidates
func (m *Manager) SendScanSummary(ctx context.Context, strongBuys []*market.SignalRecord, evaluated int, marketStatus string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluated: %d tickers\n", evaluated)
	fmt.Fprintf(&b, "Market: %s\n", marketStatus)

	if len(strongBuys) == 0 {
		b.WriteString("\nNo strong buy signals.")
	} else {
		b.WriteString("\n")
		for _, rec := range strongBuys {
			fmt.Fprintf(&b, "• %s $%.2f (RSI %.1f)\n", rec.Ticker, rec.Price, rec.RSI)
		}
	}

	return m.Send(ctx, &Notification{
		Type:      NotifySummary,
		Title:     fmt.Sprintf("📊 Scan Complete: %d strong buy signals", len(strongBuys)),
		Message:   strings.TrimRight(b.String(), "\n"),
		Timestamp: time.Now(),
	})
}

// SendError sends an error notification
func (m *Manager) SendError(ctx context.Context, title, message string) error {
	return m.Send(ctx, &Notification{
		Type:      NotifyError,
		Title:     fmt.Sprintf("⚠️ %s", title),
		Message:   message,
		Timestamp: time.Now(),
	})
}

// =============================================================================
// TELEGRAM NOTIFIER
// =============================================================================

// TelegramNotifier sends notifications via Telegram
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	enabled  bool
	client   *http.Client
}

// TelegramConfig holds Telegram configuration
type TelegramConfig struct {
	BotToken string
	ChatID   string
	BaseURL  string
	Enabled  bool
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(config TelegramConfig) *TelegramNotifier {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &TelegramNotifier{
		botToken: config.BotToken,
		chatID:   config.ChatID,
		baseURL:  baseURL,
		enabled:  config.Enabled && config.BotToken != "" && config.ChatID != "",
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Name() string {
	return "telegram"
}

func (t *TelegramNotifier) IsEnabled() bool {
	return t.enabled
}

func (t *TelegramNotifier) Send(ctx context.Context, notification *Notification) error {
	if !t.enabled {
		return nil
	}

	message := fmt.Sprintf("<b>%s</b>\n\n%s",
		html.EscapeString(notification.Title), html.EscapeString(notification.Message))

	payload := map[string]interface{}{
		"chat_id":    t.chatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

// =============================================================================
// DISCORD NOTIFIER
// =============================================================================

// DiscordNotifier sends notifications via Discord webhook
type DiscordNotifier struct {
	webhookURL string
	enabled    bool
	client     *http.Client
}

// DiscordConfig holds Discord configuration
type DiscordConfig struct {
	WebhookURL string
	Enabled    bool
}

// NewDiscordNotifier creates a new Discord notifier
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: config.WebhookURL,
		enabled:    config.Enabled && config.WebhookURL != "",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *DiscordNotifier) Name() string {
	return "discord"
}

func (d *DiscordNotifier) IsEnabled() bool {
	return d.enabled
}

func (d *DiscordNotifier) Send(ctx context.Context, notification *Notification) error {
	if !d.enabled {
		return nil
	}

	// Create Discord embed
	color := 0x00FF00 // Green
	switch {
	case notification.Type == NotifyError:
		color = 0xFF0000 // Red
	case notification.Classification == string(market.Watch):
		color = 0xFFA500 // Orange
	}

	embed := map[string]interface{}{
		"title":       notification.Title,
		"description": notification.Message,
		"color":       color,
		"timestamp":   notification.Timestamp.Format(time.RFC3339),
	}

	// Add fields if available
	if notification.Ticker != "" {
		fields := []map[string]interface{}{
			{"name": "Ticker", "value": notification.Ticker, "inline": true},
		}
		if notification.Price > 0 {
			fields = append(fields, map[string]interface{}{
				"name": "Price", "value": fmt.Sprintf("$%.2f", notification.Price), "inline": true,
			})
		}
		if notification.RSI > 0 {
			fields = append(fields, map[string]interface{}{
				"name": "RSI", "value": fmt.Sprintf("%.1f", notification.RSI), "inline": true,
			})
		}
		embed["fields"] = fields
	}

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{embed},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("discord API returned status %d", resp.StatusCode)
	}

	return nil
}
