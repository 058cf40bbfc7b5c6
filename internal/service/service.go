package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"funding-rate-alerts/internal/alerting"
	"funding-rate-alerts/internal/collector"
	"funding-rate-alerts/internal/config"
	"funding-rate-alerts/internal/exchange"
	"funding-rate-alerts/internal/metrics"
	"funding-rate-alerts/internal/scheduler"
	"funding-rate-alerts/internal/storage"
	"funding-rate-alerts/internal/symbols"
)

// Dispatcher delivers alert messages to one destination.
type Dispatcher interface {
	Send(ctx context.Context, dest alerting.Destination, text string) error
	SendBatch(ctx context.Context, dest alerting.Destination, messages []string)
}

// Service wires symbol refresh, collection, persistence, composition, and
// dispatch behind the two scheduler triggers.
type Service struct {
	cfg        *config.Config
	sched      *scheduler.Scheduler
	registry   []exchange.Exchange
	cache      *symbols.Cache
	collector  *collector.Collector
	rates      storage.FundingStore
	symbolTab  storage.SymbolStore
	composer   *alerting.Composer
	dispatcher Dispatcher
	logger     zerolog.Logger

	tier1Dest alerting.Destination
	tier2Dest alerting.Destination
}

// New constructs the monitoring service. Stores may be nil, in which case the
// respective persistence step is skipped with a log line.
func New(
	cfg *config.Config,
	sched *scheduler.Scheduler,
	registry []exchange.Exchange,
	cache *symbols.Cache,
	col *collector.Collector,
	rates storage.FundingStore,
	symbolTab storage.SymbolStore,
	composer *alerting.Composer,
	dispatcher Dispatcher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		cfg:        cfg,
		sched:      sched,
		registry:   registry,
		cache:      cache,
		collector:  col,
		rates:      rates,
		symbolTab:  symbolTab,
		composer:   composer,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "service").Logger(),
		tier1Dest: alerting.Destination{
			Name:     "tier1",
			BotToken: cfg.Alerting.Tier1.BotToken,
			ChatID:   cfg.Alerting.Tier1.ChatID,
			APIBase:  cfg.Alerting.Tier1.APIBase,
		},
		tier2Dest: alerting.Destination{
			Name:     "tier2",
			BotToken: cfg.Alerting.Tier2.BotToken,
			ChatID:   cfg.Alerting.Tier2.ChatID,
			APIBase:  cfg.Alerting.Tier2.APIBase,
		},
	}
}

// Run announces startup on both tiers and enters the scheduling loop.
func (s *Service) Run(ctx context.Context) error {
	if s.sched == nil {
		return fmt.Errorf("scheduler not configured")
	}

	startup := s.composer.StartupMessage(fmt.Sprintf("minute %d of each hour", s.cfg.Scheduler.CollectMinute))
	_ = s.dispatcher.Send(ctx, s.tier1Dest, startup)
	_ = s.dispatcher.Send(ctx, s.tier2Dest, startup)

	return s.sched.Run(ctx, s.CollectPass, s.DispatchAlerts)
}

// CollectPass refreshes symbol lists, collects funding data from every
// exchange concurrently, and commits the snapshot. Failures in one exchange
// never block the others; persistence errors are logged and the pass carries
// on best-effort.
func (s *Service) CollectPass(ctx context.Context) error {
	started := time.Now()
	defer func() {
		metrics.PassDuration.Observe(time.Since(started).Seconds())
	}()

	s.logger.Info().Int("exchanges", len(s.registry)).Msg("collection pass started")

	lists := s.refreshSymbols(ctx)

	if s.symbolTab != nil {
		if err := s.symbolTab.UpsertSymbols(ctx, storage.BuildSymbolRows(lists)); err != nil {
			s.logger.Error().Err(err).Msg("failed to persist symbol table")
		}
	}

	pass := s.collectAll(ctx, lists)

	records := storage.BuildFundingRecords(pass, time.Now().UTC())
	if len(records) == 0 {
		s.logger.Warn().Msg("collection pass produced no records")
		return nil
	}

	if s.rates != nil {
		if err := s.rates.SaveRates(ctx, records); err != nil {
			s.logger.Error().Err(err).Msg("failed to save funding snapshot")
			return nil
		}

		cutoff := time.Now().UTC().Add(-s.cfg.Retention.Window)
		if deleted, err := s.rates.Prune(ctx, cutoff); err != nil {
			s.logger.Error().Err(err).Msg("retention pruning failed")
		} else if deleted > 0 {
			s.logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("stale records pruned")
		}

		if stats, err := s.rates.Stats(ctx); err == nil {
			s.logger.Info().
				Int64("records", stats.TotalRecords).
				Int64("tickers", stats.UniqueTickers).
				Int64("size_bytes", stats.SizeBytes).
				Dur("elapsed", time.Since(started)).
				Msg("collection pass finished")
		}
	}

	return nil
}

// refreshSymbols loads or refreshes every exchange's symbol list, all
// exchanges in parallel.
func (s *Service) refreshSymbols(ctx context.Context) map[string][]string {
	lists := make(map[string][]string, len(s.registry))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, ex := range s.registry {
		wg.Add(1)
		go func(ex exchange.Exchange) {
			defer wg.Done()
			list := s.cache.Refresh(ctx, ex)
			mu.Lock()
			lists[ex.Name()] = list
			mu.Unlock()
		}(ex)
	}
	wg.Wait()
	return lists
}

// collectAll runs every exchange collector concurrently and joins the results
// before returning, so the caller persists one complete pass.
func (s *Service) collectAll(ctx context.Context, lists map[string][]string) map[string]map[string]exchange.FundingInfo {
	pass := make(map[string]map[string]exchange.FundingInfo, len(s.registry))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, ex := range s.registry {
		wg.Add(1)
		go func(ex exchange.Exchange) {
			defer wg.Done()
			result := s.collector.Collect(ctx, ex, lists[ex.Name()])
			mu.Lock()
			pass[ex.Name()] = result
			mu.Unlock()
		}(ex)
	}
	wg.Wait()
	return pass
}

// DispatchAlerts reads the current snapshot, composes tier messages, and
// sends them to the tier channels. It always works from whatever the store
// currently holds; staleness is bounded by the collection cadence.
func (s *Service) DispatchAlerts(ctx context.Context) error {
	if s.rates == nil {
		s.logger.Warn().Msg("no funding store configured, skipping alert dispatch")
		return nil
	}

	threshold := decimal.NewFromFloat(s.cfg.Alerting.Tier1Threshold)
	records, err := s.rates.ListRatesAbove(ctx, threshold)
	if err != nil {
		return fmt.Errorf("load funding snapshot: %w", err)
	}

	tier1, tier2 := s.composer.BuildTierMessages(records)
	if len(tier1) == 0 && len(tier2) == 0 {
		s.logger.Info().Msg(s.composer.NoDataMessage())
		return nil
	}

	header1, header2 := s.composer.TierHeaders()
	budget := s.cfg.Alerting.MaxMessageChars

	if len(tier1) > 0 {
		batch := append([]string{header1}, alerting.ChunkLines(tier1, budget)...)
		batch = append(batch, s.composer.StatsMessage(len(records), len(tier1), len(tier2)))
		s.logger.Info().Int("messages", len(batch)).Msg("dispatching tier 1 alerts")
		s.dispatcher.SendBatch(ctx, s.tier1Dest, batch)
	}
	if len(tier2) > 0 {
		batch := append([]string{header2}, alerting.ChunkLines(tier2, budget)...)
		s.logger.Info().Int("messages", len(batch)).Msg("dispatching tier 2 alerts")
		s.dispatcher.SendBatch(ctx, s.tier2Dest, batch)
	}

	return nil
}
