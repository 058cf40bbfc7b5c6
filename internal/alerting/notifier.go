package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"funding-rate-alerts/internal/metrics"
)

const defaultTelegramAPIBase = "https://api.telegram.org"

// Destination is one notification channel: a bot plus a chat. The chat id may
// carry a forum-topic qualifier in the form "<chat>_<topic>"; the topic is
// routed as message_thread_id.
type Destination struct {
	Name     string
	BotToken string
	ChatID   string
	APIBase  string
}

// Notifier delivers one message to one destination.
type Notifier interface {
	Send(ctx context.Context, dest Destination, text string) error
}

// DispatcherOptions tune delivery behaviour.
type DispatcherOptions struct {
	MaxRetries int
	// MessageDelay is observed between successive sends of one batch so the
	// destination side does not throttle us.
	MessageDelay time.Duration
	Timeout      time.Duration
}

// TelegramDispatcher pushes messages through the Telegram Bot API with
// bounded retries on throttling responses.
type TelegramDispatcher struct {
	opts   DispatcherOptions
	client *http.Client
	logger zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewTelegramDispatcher constructs the dispatcher.
func NewTelegramDispatcher(opts DispatcherOptions, logger zerolog.Logger) *TelegramDispatcher {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &TelegramDispatcher{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger.With().Str("component", "dispatcher").Logger(),
		sleep:  sleepCtx,
	}
}

// Send delivers one message, retrying up to MaxRetries on 429/400 with the
// server's Retry-After hint when present. Other non-2xx responses are terminal
// for the message. Missing credentials are not an error: the message is
// logged and dropped, the process continues.
func (d *TelegramDispatcher) Send(ctx context.Context, dest Destination, text string) error {
	if dest.BotToken == "" || dest.ChatID == "" {
		d.logger.Warn().Str("destination", dest.Name).Msg("bot token or chat id not configured, dropping message")
		metrics.AlertsDropped.WithLabelValues(dest.Name).Inc()
		return nil
	}

	chatID, topicID := parseChatID(dest.ChatID)
	payload := map[string]any{"chat_id": chatID, "text": text}
	if topicID != nil {
		payload["message_thread_id"] = *topicID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	base := strings.TrimRight(dest.APIBase, "/")
	if base == "" {
		base = defaultTelegramAPIBase
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", base, dest.BotToken)

	for attempt := 1; attempt <= d.opts.MaxRetries; attempt++ {
		status, respBody, err := d.post(ctx, url, body)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.logger.Warn().Err(err).Str("destination", dest.Name).Int("attempt", attempt).Msg("telegram request failed")
			if err := d.sleep(ctx, time.Duration(attempt)*time.Second); err != nil {
				return err
			}
			continue
		}

		switch {
		case status >= 200 && status < 300:
			metrics.AlertsSent.WithLabelValues(dest.Name).Inc()
			d.logger.Info().Str("destination", dest.Name).Int("attempt", attempt).Msg("message delivered")
			return nil
		case status == http.StatusTooManyRequests || status == http.StatusBadRequest:
			wait := retryAfter(respBody.header, attempt)
			d.logger.Warn().Str("destination", dest.Name).Int("status", status).
				Dur("wait", wait).Str("body", respBody.text).Msg("telegram throttled, backing off")
			if err := d.sleep(ctx, wait); err != nil {
				return err
			}
		default:
			metrics.AlertsDropped.WithLabelValues(dest.Name).Inc()
			d.logger.Error().Str("destination", dest.Name).Int("status", status).
				Str("body", respBody.text).Msg("telegram rejected message")
			return fmt.Errorf("telegram status %d", status)
		}
	}

	metrics.AlertsDropped.WithLabelValues(dest.Name).Inc()
	d.logger.Error().Str("destination", dest.Name).Int("attempts", d.opts.MaxRetries).Msg("retries exhausted, dropping message")
	return fmt.Errorf("telegram send: %d attempts exhausted", d.opts.MaxRetries)
}

// SendBatch delivers messages in order with the configured inter-message
// delay. Per-message failures are logged by Send and do not stop the batch.
func (d *TelegramDispatcher) SendBatch(ctx context.Context, dest Destination, messages []string) {
	for i, msg := range messages {
		if i > 0 && d.opts.MessageDelay > 0 {
			if err := d.sleep(ctx, d.opts.MessageDelay); err != nil {
				return
			}
		}
		if err := d.Send(ctx, dest, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
		}
	}
}

type response struct {
	header http.Header
	text   string
}

func (d *TelegramDispatcher) post(ctx context.Context, url string, body []byte) (int, response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, response{}, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, response{header: resp.Header, text: strings.TrimSpace(string(respBody))}, nil
}

// retryAfter honors the server hint, else backs off harder per attempt with a
// 10 second ceiling.
func retryAfter(header http.Header, attempt int) time.Duration {
	if v := header.Get("Retry-After"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	wait := time.Duration(3*attempt) * time.Second
	if wait > 10*time.Second {
		wait = 10 * time.Second
	}
	return wait
}

// parseChatID splits "<chat>_<topic>" into the base chat id and the numeric
// forum topic. Anything that does not look like that form is used verbatim.
func parseChatID(raw string) (string, *int64) {
	parts := strings.Split(raw, "_")
	if len(parts) == 2 {
		if topic, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
			return parts[0], &topic
		}
	}
	return raw, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ Notifier = (*TelegramDispatcher)(nil)
