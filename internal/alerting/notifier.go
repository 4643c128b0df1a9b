package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"creator-trends/internal/analytics"
)

// Notification describes a keyword whose trend label changed to rising.
type Notification struct {
	Keyword       string
	Category      string
	SearchVolume  int64
	Previous      analytics.Trend
	Current       analytics.Trend
	Related       []string
	ObservedAt    time.Time
	Channels      []string
	AdditionalMsg string
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier pushes messages through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify calls sendMessage with the rendered text.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram unexpected status: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().Str("keyword", note.Keyword).
		Str("trend", string(note.Current)).
		Str("channels", strings.Join(note.Channels, ",")).
		Msg("alert sent (telegram)")
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("[Creator Trends Alert]\n")
	builder.WriteString(fmt.Sprintf("Keyword: %s\n", note.Keyword))
	if note.Category != "" {
		builder.WriteString(fmt.Sprintf("Category: %s\n", note.Category))
	}
	previous := note.Previous
	if previous == "" {
		previous = "new"
	}
	builder.WriteString(fmt.Sprintf("Trend: %s -> %s\n", previous, note.Current))
	builder.WriteString(fmt.Sprintf("Search volume: %d\n", note.SearchVolume))
	if !note.ObservedAt.IsZero() {
		builder.WriteString(fmt.Sprintf("Observed: %s UTC\n", note.ObservedAt.UTC().Format(time.RFC3339)))
	}
	if len(note.Related) > 0 {
		builder.WriteString(fmt.Sprintf("Related: %s\n", strings.Join(note.Related, ", ")))
	}
	if len(note.Channels) > 0 {
		builder.WriteString(fmt.Sprintf("Channels: %s\n", strings.Join(note.Channels, ",")))
	}
	if note.AdditionalMsg != "" {
		builder.WriteString(note.AdditionalMsg)
	}
	return builder.String()
}

// Cooldown suppresses repeat notifications for the same keyword within a window.
type Cooldown struct {
	window time.Duration

	mu   sync.Mutex
	sent map[string]time.Time
}

// NewCooldown constructs a Cooldown. A non-positive window never suppresses.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{window: window, sent: make(map[string]time.Time)}
}

// Allow reports whether keyword may be notified at now and records the send when it may.
func (c *Cooldown) Allow(keyword string, now time.Time) bool {
	key := strings.ToLower(strings.TrimSpace(keyword))

	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.sent[key]; ok && c.window > 0 && now.Sub(last) < c.window {
		return false
	}
	c.sent[key] = now
	return true
}

var _ Notifier = (*TelegramNotifier)(nil)
