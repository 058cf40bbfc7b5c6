package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"funding-rate-alerts/internal/alerting"
	"funding-rate-alerts/internal/collector"
	"funding-rate-alerts/internal/config"
	"funding-rate-alerts/internal/exchange"
	"funding-rate-alerts/internal/metrics"
	"funding-rate-alerts/internal/scheduler"
	"funding-rate-alerts/internal/service"
	"funding-rate-alerts/internal/storage"
	"funding-rate-alerts/internal/symbols"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// newRegistry returns the enabled exchange adapters in reporting order.
func (a *App) newRegistry() []exchange.Exchange {
	all := exchange.Registry()
	enabled := make([]exchange.Exchange, 0, len(all))
	for _, ex := range all {
		if a.Config.Exchanges.IsDisabled(ex.Name()) {
			a.Logger.Info().Str("exchange", ex.Name()).Msg("exchange disabled by configuration")
			continue
		}
		enabled = append(enabled, ex)
	}
	return enabled
}

func (a *App) newCollector() *collector.Collector {
	return collector.New(collector.Options{
		Concurrency:        a.Config.Exchanges.Concurrency,
		DefaultConcurrency: a.Config.Exchanges.DefaultConcurrency,
		RequestDelay:       a.Config.Exchanges.RequestDelay,
	}, a.Logger)
}

func (a *App) newCache() *symbols.Cache {
	return symbols.NewCache(a.Config.Exchanges.SymbolsDir, a.Logger)
}

func (a *App) newTemplates() *alerting.TemplateManager {
	return alerting.NewTemplateManager(a.Config.Alerting.TemplateFile, a.Logger)
}

func (a *App) newComposer(templates *alerting.TemplateManager) *alerting.Composer {
	return alerting.NewComposer(templates, alerting.ComposerOptions{
		Tier1Threshold: decimal.NewFromFloat(a.Config.Alerting.Tier1Threshold),
		Tier2Threshold: decimal.NewFromFloat(a.Config.Alerting.Tier2Threshold),
	}, a.Logger)
}

func (a *App) newDispatcher() *alerting.TelegramDispatcher {
	return alerting.NewTelegramDispatcher(alerting.DispatcherOptions{
		MaxRetries:   a.Config.Alerting.MaxRetries,
		MessageDelay: a.Config.Alerting.MessageDelay,
		Timeout:      a.Config.Alerting.RequestTimeout,
	}, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	store, err := storage.Open(ctx, storage.PoolConfig{
		DSN:             a.Config.Database.DSN,
		MaxOpenConns:    a.Config.Database.MaxOpenConns,
		MaxIdleConns:    a.Config.Database.MaxIdleConns,
		ConnMaxLifetime: a.Config.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}

	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// serveMetrics exposes the Prometheus endpoint when an address is configured.
// The listener lives for the duration of ctx.
func (a *App) serveMetrics(ctx context.Context) {
	addr := a.Config.Metrics.Addr
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		a.Logger.Info().Str("addr", addr).Msg("metrics listener started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error().Err(err).Msg("metrics listener failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

func (a *App) newService(store *storage.Store) *service.Service {
	sched := scheduler.New(scheduler.Options{
		CollectMinute: a.Config.Scheduler.CollectMinute,
		AlertMinutes:  a.Config.Scheduler.AlertMinutes,
	}, a.Logger)

	var rates storage.FundingStore
	var symbolTab storage.SymbolStore
	if store != nil {
		rates = store
		symbolTab = store
	}

	templates := a.newTemplates()
	return service.New(
		a.Config,
		sched,
		a.newRegistry(),
		a.newCache(),
		a.newCollector(),
		rates,
		symbolTab,
		a.newComposer(templates),
		a.newDispatcher(),
		a.Logger,
	)
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	a.serveMetrics(ctx)

	svc := a.newService(store)

	a.Logger.Info().Msg("starting funding rate monitor")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("funding rate monitor stopped")
	return nil
}

// Collect runs one collection pass immediately and exits.
func (a *App) Collect(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; collected rates will not be persisted")
	}
	if closeStore != nil {
		defer closeStore()
	}

	return a.newService(store).CollectPass(ctx)
}

// Alert composes and dispatches alerts from the stored snapshot immediately.
func (a *App) Alert(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot dispatch alerts")
	}
	if closeStore != nil {
		defer closeStore()
	}

	return a.newService(store).DispatchAlerts(ctx)
}

// PruneOptions configure the prune command.
type PruneOptions struct {
	OlderThan time.Duration
}

// Prune deletes funding records older than the given window and reports the
// count.
func (a *App) Prune(ctx context.Context, opts PruneOptions) (int64, error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return 0, err
	}
	if store == nil {
		return 0, errors.New("database not configured; nothing to prune")
	}
	if closeStore != nil {
		defer closeStore()
	}

	window := opts.OlderThan
	if window <= 0 {
		window = a.Config.Retention.Window
	}
	cutoff := time.Now().UTC().Add(-window)
	return store.Prune(ctx, cutoff)
}

// ShowOptions configure the show command.
type ShowOptions struct {
	MinRate float64
	Stats   bool
}
