package collector

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"funding-rate-alerts/internal/exchange"
	"funding-rate-alerts/internal/metrics"
)

// Options tune per-exchange request behaviour.
type Options struct {
	// Concurrency caps in-flight requests per exchange name.
	Concurrency map[string]int
	// DefaultConcurrency applies when an exchange has no explicit cap.
	DefaultConcurrency int
	// RequestDelay is slept before every request so a full batch does not
	// land on the API at the same instant.
	RequestDelay time.Duration
}

// Collector fans out funding-rate requests under a bounded per-exchange gate.
type Collector struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Collector.
func New(opts Options, logger zerolog.Logger) *Collector {
	if opts.DefaultConcurrency <= 0 {
		opts.DefaultConcurrency = 5
	}
	return &Collector{opts: opts, logger: logger.With().Str("component", "collector").Logger()}
}

// Collect fetches the current funding info for every symbol of one exchange.
// Symbols whose fetch fails, for any reason, are omitted from the result; one
// bad symbol never fails the batch.
func (c *Collector) Collect(ctx context.Context, ex exchange.Exchange, syms []string) map[string]exchange.FundingInfo {
	result := make(map[string]exchange.FundingInfo, len(syms))
	if len(syms) == 0 {
		c.logger.Warn().Str("exchange", ex.Name()).Msg("no symbols to collect")
		return result
	}

	var mu sync.Mutex
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(c.concurrencyFor(ex.Name()))

	for _, sym := range syms {
		group.Go(func() error {
			if c.opts.RequestDelay > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(c.opts.RequestDelay):
				}
			}

			info, err := ex.FetchFunding(ctx, sym)
			if err != nil {
				c.recordFailure(ex.Name(), sym, err)
				return nil
			}

			mu.Lock()
			result[sym] = info
			mu.Unlock()

			metrics.SymbolsCollected.WithLabelValues(ex.Name()).Inc()
			c.logger.Debug().Str("exchange", ex.Name()).Str("symbol", sym).
				Str("rate_pct", info.Rate.StringFixed(4)).Msg("funding collected")
			return nil
		})
	}

	// Workers always return nil; the join is what matters.
	_ = group.Wait()

	c.logger.Info().Str("exchange", ex.Name()).
		Int("symbols", len(syms)).Int("collected", len(result)).Msg("exchange collection finished")
	return result
}

func (c *Collector) concurrencyFor(name string) int {
	if n, ok := c.opts.Concurrency[name]; ok && n > 0 {
		return n
	}
	return c.opts.DefaultConcurrency
}

func (c *Collector) recordFailure(exchangeName, symbol string, err error) {
	kind := "transient"
	event := c.logger.Debug()
	if exchange.Classify(err) == exchange.FailPermanent {
		kind = "no_data"
		event = c.logger.Warn()
	}
	metrics.FetchFailures.WithLabelValues(exchangeName, kind).Inc()
	event.Err(err).Str("exchange", exchangeName).Str("symbol", symbol).Msg("symbol skipped")
}
