package alerting

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"funding-rate-alerts/internal/storage"
)

func testComposer(t *testing.T) *Composer {
	t.Helper()
	tm := NewTemplateManager(filepath.Join(t.TempDir(), "templates.json"), zerolog.Nop())
	return NewComposer(tm, ComposerOptions{
		Tier1Threshold: decimal.NewFromFloat(1.0),
		Tier2Threshold: decimal.NewFromFloat(2.0),
	}, zerolog.Nop())
}

func record(ticker string, rate float64) storage.FundingRecord {
	r := decimal.NewFromFloat(rate)
	settle := time.Now().Add(2 * time.Hour).UnixMilli()
	cycle := 8
	return storage.FundingRecord{
		Ticker: ticker,
		Quotes: map[string]storage.Quote{
			"binance": {Rate: &r, NextSettle: &settle, CycleHours: &cycle},
		},
		UpdatedAt: time.Now().UTC(),
	}
}

func TestBuildTierMessagesMembership(t *testing.T) {
	c := testComposer(t)

	tier1, tier2 := c.BuildTierMessages([]storage.FundingRecord{
		record("HOT", 2.5),
		record("WARM", 1.3),
		record("COLD", 0.5),
	})

	if len(tier1) != 2 {
		t.Fatalf("tier 1 should hold every ticker at or above 1%%, got %d", len(tier1))
	}
	if len(tier2) != 1 {
		t.Fatalf("tier 2 should hold only extreme tickers, got %d", len(tier2))
	}
	if !strings.Contains(tier2[0], "HOT") {
		t.Fatalf("tier 2 message should be about HOT: %q", tier2[0])
	}
	// The extreme ticker stays in tier 1 as well.
	found := false
	for _, msg := range tier1 {
		if strings.Contains(msg, "HOT") {
			found = true
		}
	}
	if !found {
		t.Fatal("tier 2 tickers must also appear in tier 1")
	}
}

func TestBuildTierMessagesNegativeRates(t *testing.T) {
	c := testComposer(t)

	tier1, _ := c.BuildTierMessages([]storage.FundingRecord{record("SHORT", -1.5)})
	if len(tier1) != 1 {
		t.Fatalf("negative rates count by magnitude, got %d messages", len(tier1))
	}
	if !strings.Contains(tier1[0], "-1.5000%") {
		t.Fatalf("negative rate should keep its sign: %q", tier1[0])
	}
}

func TestFormatTickerMessageSkipsMissingQuotes(t *testing.T) {
	c := testComposer(t)
	rec := record("SOLO", 1.2)

	msg := c.formatTickerMessage(rec, time.Now())
	if strings.Count(msg, "📈") != 1 {
		t.Fatalf("only exchanges with data should be listed: %q", msg)
	}
	if !strings.Contains(msg, "+1.2000%") {
		t.Fatalf("positive rates carry an explicit plus: %q", msg)
	}
}

func TestHumanizePayout(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		offset time.Duration
		want   string
	}{
		{name: "overdue", offset: -5 * time.Minute, want: "Payout overdue"},
		{name: "minutes only", offset: 45 * time.Minute, want: "Payout in 45min"},
		{name: "exact hours", offset: 2 * time.Hour, want: "Payout in 2h"},
		{name: "hours and minutes", offset: 90 * time.Minute, want: "Payout in 1h 30min"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HumanizePayout(now.Add(tt.offset).UnixMilli(), now)
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestChunkLines(t *testing.T) {
	lines := []string{"aaaa", "bbbb", "cccc"}

	chunks := ChunkLines(lines, 9)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %v", chunks)
	}
	if chunks[0] != "aaaa\nbbbb" || chunks[1] != "cccc" {
		t.Fatalf("greedy packing mismatch: %v", chunks)
	}
}

func TestChunkLinesOversizedLine(t *testing.T) {
	chunks := ChunkLines([]string{strings.Repeat("x", 50), "short"}, 10)
	if len(chunks) != 2 {
		t.Fatalf("oversized line should become its own chunk, got %v", chunks)
	}
	if len(chunks[0]) != 50 {
		t.Fatal("lines are never split")
	}
}

func TestChunkLinesEmpty(t *testing.T) {
	if got := ChunkLines(nil, 100); got != nil {
		t.Fatalf("expected nil for no lines, got %v", got)
	}
}
