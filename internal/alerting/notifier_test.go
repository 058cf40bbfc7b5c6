package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testDispatcher(t *testing.T) *TelegramDispatcher {
	t.Helper()
	d := NewTelegramDispatcher(DispatcherOptions{MaxRetries: 3, Timeout: time.Second}, zerolog.Nop())
	d.sleep = func(context.Context, time.Duration) error { return nil }
	return d
}

func TestSendSuccess(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/bottoken/sendMessage") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	d := testDispatcher(t)
	dest := Destination{Name: "tier1", BotToken: "token", ChatID: "-100123", APIBase: srv.URL}

	if err := d.Send(context.Background(), dest, "hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if received["chat_id"] != "-100123" {
		t.Fatalf("unexpected chat_id: %#v", received)
	}
	if received["text"] != "hello" {
		t.Fatalf("unexpected text: %#v", received)
	}
	if _, ok := received["message_thread_id"]; ok {
		t.Fatal("plain chat id must not carry a thread id")
	}
}

func TestSendTopicRouting(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	d := testDispatcher(t)
	dest := Destination{Name: "tier2", BotToken: "token", ChatID: "-100123_42", APIBase: srv.URL}

	if err := d.Send(context.Background(), dest, "hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if received["chat_id"] != "-100123" {
		t.Fatalf("topic suffix should be stripped from chat_id: %#v", received)
	}
	if received["message_thread_id"] != float64(42) {
		t.Fatalf("topic should route as message_thread_id: %#v", received)
	}
}

func TestSendRetriesOnThrottle(t *testing.T) {
	attempts := 0
	var waits []time.Duration
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	d := testDispatcher(t)
	d.sleep = func(_ context.Context, wait time.Duration) error {
		waits = append(waits, wait)
		return nil
	}
	dest := Destination{Name: "tier1", BotToken: "token", ChatID: "chat", APIBase: srv.URL}

	if err := d.Send(context.Background(), dest, "hello"); err != nil {
		t.Fatalf("Send should recover after throttle: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", attempts)
	}
	if len(waits) != 1 || waits[0] != 2*time.Second {
		t.Fatalf("Retry-After hint should be honoured, got %v", waits)
	}
}

func TestSendExhaustsRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := testDispatcher(t)
	dest := Destination{Name: "tier1", BotToken: "token", ChatID: "chat", APIBase: srv.URL}

	if err := d.Send(context.Background(), dest, "hello"); err == nil {
		t.Fatal("exhausted retries should be an error")
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestSendTerminalStatus(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d := testDispatcher(t)
	dest := Destination{Name: "tier1", BotToken: "token", ChatID: "chat", APIBase: srv.URL}

	if err := d.Send(context.Background(), dest, "hello"); err == nil {
		t.Fatal("HTTP 403 should be terminal")
	}
	if attempts != 1 {
		t.Fatalf("terminal statuses must not be retried, got %d attempts", attempts)
	}
}

func TestSendMissingCredentials(t *testing.T) {
	d := testDispatcher(t)
	if err := d.Send(context.Background(), Destination{Name: "tier1"}, "hello"); err != nil {
		t.Fatalf("missing credentials should drop the message, not fail: %v", err)
	}
}

func TestSendBatchDelay(t *testing.T) {
	sent := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent++
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	d := NewTelegramDispatcher(DispatcherOptions{MaxRetries: 1, MessageDelay: time.Second, Timeout: time.Second}, zerolog.Nop())
	var waits []time.Duration
	d.sleep = func(_ context.Context, wait time.Duration) error {
		waits = append(waits, wait)
		return nil
	}
	dest := Destination{Name: "tier1", BotToken: "token", ChatID: "chat", APIBase: srv.URL}

	d.SendBatch(context.Background(), dest, []string{"one", "two", "three"})

	if sent != 3 {
		t.Fatalf("expected 3 messages delivered, got %d", sent)
	}
	if len(waits) != 2 {
		t.Fatalf("delay should be observed between messages only, got %v", waits)
	}
}

func TestRetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "1.5")
	if got := retryAfter(h, 1); got != 1500*time.Millisecond {
		t.Fatalf("fractional Retry-After should parse, got %v", got)
	}

	if got := retryAfter(http.Header{}, 1); got != 3*time.Second {
		t.Fatalf("fallback should scale with attempt, got %v", got)
	}
	if got := retryAfter(http.Header{}, 5); got != 10*time.Second {
		t.Fatalf("fallback should cap at 10s, got %v", got)
	}
}

func TestParseChatID(t *testing.T) {
	chat, topic := parseChatID("-100123_42")
	if chat != "-100123" || topic == nil || *topic != 42 {
		t.Fatalf("got chat=%q topic=%v", chat, topic)
	}

	chat, topic = parseChatID("-100123")
	if chat != "-100123" || topic != nil {
		t.Fatalf("plain id should pass through, got chat=%q topic=%v", chat, topic)
	}

	chat, topic = parseChatID("general_chat")
	if chat != "general_chat" || topic != nil {
		t.Fatalf("non-numeric suffix is part of the id, got chat=%q topic=%v", chat, topic)
	}
}
