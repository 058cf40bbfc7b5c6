package alerting

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"funding-rate-alerts/internal/storage"
)

// exchangeLabels maps storage keys to display names used in alert lines.
var exchangeLabels = map[string]string{
	"binance": "Binance",
	"bybit":   "Bybit",
	"okx":     "OKX",
	"mexc":    "MEXC",
	"bitget":  "Bitget",
}

// ComposerOptions parameterise tiering and message sizing.
type ComposerOptions struct {
	Tier1Threshold decimal.Decimal
	Tier2Threshold decimal.Decimal
}

// Composer turns stored funding records into tiered alert messages.
type Composer struct {
	templates *TemplateManager
	opts      ComposerOptions
	logger    zerolog.Logger
	now       func() time.Time
}

// NewComposer constructs a Composer over the shared template manager.
func NewComposer(templates *TemplateManager, opts ComposerOptions, logger zerolog.Logger) *Composer {
	return &Composer{
		templates: templates,
		opts:      opts,
		logger:    logger.With().Str("component", "composer").Logger(),
		now:       time.Now,
	}
}

// BuildTierMessages formats one message per qualifying ticker and assigns it
// to tiers. A ticker at or above the tier-2 threshold appears in BOTH lists:
// tier 1 is the complete view, tier 2 the high-severity subset routed to its
// own channel.
func (c *Composer) BuildTierMessages(records []storage.FundingRecord) (tier1, tier2 []string) {
	now := c.now()
	for _, rec := range records {
		maxRate := rec.MaxAbsRate()
		if maxRate.LessThan(c.opts.Tier1Threshold) {
			continue
		}

		msg := c.formatTickerMessage(rec, now)
		tier1 = append(tier1, msg)
		if maxRate.GreaterThanOrEqual(c.opts.Tier2Threshold) {
			tier2 = append(tier2, msg)
		}
	}

	c.logger.Info().
		Int("tier1", len(tier1)).
		Int("tier2", len(tier2)).
		Str("tier1_threshold", c.opts.Tier1Threshold.String()).
		Str("tier2_threshold", c.opts.Tier2Threshold.String()).
		Msg("tier messages composed")
	return tier1, tier2
}

func (c *Composer) formatTickerMessage(rec storage.FundingRecord, now time.Time) string {
	lines := []string{
		c.templates.Format(TplTickerBox, map[string]string{"ticker": rec.Ticker}),
	}

	for _, key := range storage.ExchangeKeys {
		q, ok := rec.Quotes[key]
		if !ok || q.Rate == nil {
			continue
		}

		sign := ""
		if q.Rate.Sign() >= 0 {
			sign = "+"
		}

		cycle := 8
		if q.CycleHours != nil {
			cycle = *q.CycleHours
		}

		payout := "Payout time unknown"
		if q.NextSettle != nil {
			payout = HumanizePayout(*q.NextSettle, now)
		}

		lines = append(lines, c.templates.Format(TplExchangeLine, map[string]string{
			"exchange": exchangeLabels[key],
			"ticker":   rec.Ticker,
			"sign":     sign,
			"rate":     q.Rate.StringFixed(4),
			"cycle":    fmt.Sprintf("%dh", cycle),
			"payout":   payout,
		}))
	}

	lines = append(lines, c.templates.Get(TplTickerFooter))
	return strings.Join(lines, "\n")
}

// TierHeaders renders the per-tier header messages.
func (c *Composer) TierHeaders() (string, string) {
	h1 := c.templates.Format(TplTier1Header, map[string]string{"threshold": c.opts.Tier1Threshold.String()})
	h2 := c.templates.Format(TplTier2Header, map[string]string{"threshold": c.opts.Tier2Threshold.String()})
	return h1, h2
}

// StartupMessage renders the message pushed to both tiers on start.
func (c *Composer) StartupMessage(interval string) string {
	return c.templates.Format(TplStartup, map[string]string{
		"tier1":    c.opts.Tier1Threshold.String(),
		"tier2":    c.opts.Tier2Threshold.String(),
		"interval": interval,
	})
}

// StatsMessage renders the collection statistics summary.
func (c *Composer) StatsMessage(total, count1, count2 int) string {
	return c.templates.Format(TplStats, map[string]string{
		"total":     fmt.Sprintf("%d", total),
		"threshold": c.opts.Tier1Threshold.String(),
		"tier1":     c.opts.Tier1Threshold.String(),
		"tier2":     c.opts.Tier2Threshold.String(),
		"count1":    fmt.Sprintf("%d", count1),
		"count2":    fmt.Sprintf("%d", count2),
	})
}

// NoDataMessage renders the quiet-hour message.
func (c *Composer) NoDataMessage() string {
	return c.templates.Get(TplNoData)
}

// HumanizePayout renders the time remaining until a settlement given in epoch
// milliseconds, relative to now.
func HumanizePayout(settleMillis int64, now time.Time) string {
	settle := time.UnixMilli(settleMillis)
	totalMinutes := int(settle.Sub(now).Minutes())

	switch {
	case totalMinutes < 0:
		return "Payout overdue"
	case totalMinutes < 60:
		return fmt.Sprintf("Payout in %dmin", totalMinutes)
	default:
		hours := totalMinutes / 60
		minutes := totalMinutes % 60
		if minutes == 0 {
			return fmt.Sprintf("Payout in %dh", hours)
		}
		return fmt.Sprintf("Payout in %dh %dmin", hours, minutes)
	}
}

// ChunkLines groups formatted lines greedily into chunks no longer than
// budget characters, never splitting a line. A single oversized line becomes
// its own chunk.
func ChunkLines(lines []string, budget int) []string {
	if len(lines) == 0 {
		return nil
	}
	if budget <= 0 {
		return []string{strings.Join(lines, "\n")}
	}

	chunks := make([]string, 0, 1)
	var current strings.Builder
	for _, line := range lines {
		extra := len(line)
		if current.Len() > 0 {
			extra++ // joining newline
		}
		if current.Len() > 0 && current.Len()+extra > budget {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
