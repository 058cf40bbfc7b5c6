package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	upsertSymbolSQL = `INSERT INTO symbols (
        ticker,
        exchange,
        original_symbol,
        normalized_symbol
    ) VALUES (
        $1,$2,$3,$4
    )
    ON CONFLICT (ticker, exchange) DO UPDATE
    SET
        original_symbol   = EXCLUDED.original_symbol,
        normalized_symbol = EXCLUDED.normalized_symbol;`

	upsertFundingSQL = `INSERT INTO funding_rates (
        ticker,
        binance_rate, bybit_rate, okx_rate, mexc_rate, bitget_rate,
        binance_next_settle, bybit_next_settle, okx_next_settle, mexc_next_settle, bitget_next_settle,
        binance_cycle, bybit_cycle, okx_cycle, mexc_cycle, bitget_cycle,
        updated_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17
    )
    ON CONFLICT (ticker) DO UPDATE
    SET
        binance_rate        = EXCLUDED.binance_rate,
        bybit_rate          = EXCLUDED.bybit_rate,
        okx_rate            = EXCLUDED.okx_rate,
        mexc_rate           = EXCLUDED.mexc_rate,
        bitget_rate         = EXCLUDED.bitget_rate,
        binance_next_settle = EXCLUDED.binance_next_settle,
        bybit_next_settle   = EXCLUDED.bybit_next_settle,
        okx_next_settle     = EXCLUDED.okx_next_settle,
        mexc_next_settle    = EXCLUDED.mexc_next_settle,
        bitget_next_settle  = EXCLUDED.bitget_next_settle,
        binance_cycle       = EXCLUDED.binance_cycle,
        bybit_cycle         = EXCLUDED.bybit_cycle,
        okx_cycle           = EXCLUDED.okx_cycle,
        mexc_cycle          = EXCLUDED.mexc_cycle,
        bitget_cycle        = EXCLUDED.bitget_cycle,
        updated_at          = EXCLUDED.updated_at;`

	listFundingSQL = `SELECT
        ticker,
        binance_rate, bybit_rate, okx_rate, mexc_rate, bitget_rate,
        binance_next_settle, bybit_next_settle, okx_next_settle, mexc_next_settle, bitget_next_settle,
        binance_cycle, bybit_cycle, okx_cycle, mexc_cycle, bitget_cycle,
        updated_at
    FROM funding_rates
    ORDER BY ticker;`

	pruneFundingSQL = `DELETE FROM funding_rates WHERE updated_at < $1;`

	countFundingSQL   = `SELECT COUNT(*) FROM funding_rates;`
	countTickersSQL   = `SELECT COUNT(DISTINCT ticker) FROM funding_rates;`
	latestUpdateSQL   = `SELECT MAX(updated_at) FROM funding_rates;`
	relationSizeSQL   = `SELECT pg_total_relation_size('funding_rates');`
	distinctTickerSQL = `SELECT DISTINCT ticker FROM symbols ORDER BY ticker;`
)

// FundingStore defines operations on the latest-snapshot funding table.
type FundingStore interface {
	SaveRates(ctx context.Context, records []FundingRecord) error
	ListRatesAbove(ctx context.Context, threshold decimal.Decimal) ([]FundingRecord, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
	Stats(ctx context.Context) (Stats, error)
}

// SymbolStore defines operations on the symbol mapping table.
type SymbolStore interface {
	UpsertSymbols(ctx context.Context, rows []SymbolRow) error
	ListTickers(ctx context.Context) ([]string, error)
}

// Store aggregates access to funding rates and symbol mappings.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertSymbols writes the (ticker, exchange) symbol mapping rows.
func (s *Store) UpsertSymbols(ctx context.Context, rows []SymbolRow) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(upsertSymbolSQL, row.Ticker, row.Exchange, row.OriginalSymbol, row.NormalizedSymbol)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()
	for range rows {
		if _, execErr := results.Exec(); execErr != nil {
			return fmt.Errorf("upsert symbols: %w", execErr)
		}
	}
	return nil
}

// ListTickers lists every distinct canonical ticker seen in the symbol table.
func (s *Store) ListTickers(ctx context.Context) ([]string, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, distinctTickerSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list tickers: %w", queryErr)
	}
	defer rows.Close()

	tickers := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

// SaveRates commits one collection pass: one upsert per ticker, all inside a
// single transaction so readers never observe a half-written pass.
func (s *Store) SaveRates(ctx context.Context, records []FundingRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save pass: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, rec := range records {
		args := make([]any, 0, 17)
		args = append(args, rec.Ticker)
		for _, key := range ExchangeKeys {
			args = append(args, rateArg(rec.Quotes[key]))
		}
		for _, key := range ExchangeKeys {
			args = append(args, settleArg(rec.Quotes[key]))
		}
		for _, key := range ExchangeKeys {
			args = append(args, cycleArg(rec.Quotes[key]))
		}
		args = append(args, rec.UpdatedAt)

		if _, execErr := tx.Exec(ctx, upsertFundingSQL, args...); execErr != nil {
			return fmt.Errorf("upsert funding record %s: %w", rec.Ticker, execErr)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save pass: %w", err)
	}
	return nil
}

// ListRatesAbove returns every ticker whose maximum absolute rate across
// exchanges is at or above the threshold, ordered by ticker.
func (s *Store) ListRatesAbove(ctx context.Context, threshold decimal.Decimal) ([]FundingRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listFundingSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list funding rates: %w", queryErr)
	}
	defer rows.Close()

	records := make([]FundingRecord, 0)
	for rows.Next() {
		rec, scanErr := scanFundingRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		if rec.MaxAbsRate().GreaterThanOrEqual(threshold) {
			records = append(records, rec)
		}
	}
	return records, rows.Err()
}

// Prune deletes records last updated strictly before the cutoff and reports
// how many were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	tag, execErr := pool.Exec(ctx, pruneFundingSQL, olderThan)
	if execErr != nil {
		return 0, fmt.Errorf("prune funding rates: %w", execErr)
	}
	return tag.RowsAffected(), nil
}

// Stats reports record and ticker counts, the most recent update, and the
// on-disk size of the funding table.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	pool, err := s.getPool()
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	if scanErr := pool.QueryRow(ctx, countFundingSQL).Scan(&stats.TotalRecords); scanErr != nil {
		return Stats{}, fmt.Errorf("count funding records: %w", scanErr)
	}
	if scanErr := pool.QueryRow(ctx, countTickersSQL).Scan(&stats.UniqueTickers); scanErr != nil {
		return Stats{}, fmt.Errorf("count tickers: %w", scanErr)
	}

	var latest sql.NullTime
	if scanErr := pool.QueryRow(ctx, latestUpdateSQL).Scan(&latest); scanErr != nil {
		return Stats{}, fmt.Errorf("latest update: %w", scanErr)
	}
	if latest.Valid {
		ts := latest.Time
		stats.LatestUpdate = &ts
	}

	if scanErr := pool.QueryRow(ctx, relationSizeSQL).Scan(&stats.SizeBytes); scanErr != nil {
		return Stats{}, fmt.Errorf("relation size: %w", scanErr)
	}
	return stats, nil
}

func rateArg(q Quote) any {
	if q.Rate == nil {
		return nil
	}
	return q.Rate.String()
}

func settleArg(q Quote) any {
	if q.NextSettle == nil {
		return nil
	}
	return *q.NextSettle
}

func cycleArg(q Quote) any {
	if q.CycleHours == nil {
		return nil
	}
	return *q.CycleHours
}

func scanFundingRecord(rows pgx.Rows) (FundingRecord, error) {
	var (
		ticker    string
		rates     = make([]sql.NullString, len(ExchangeKeys))
		settles   = make([]sql.NullInt64, len(ExchangeKeys))
		cycles    = make([]sql.NullInt32, len(ExchangeKeys))
		updatedAt time.Time
	)

	dest := make([]any, 0, 17)
	dest = append(dest, &ticker)
	for i := range rates {
		dest = append(dest, &rates[i])
	}
	for i := range settles {
		dest = append(dest, &settles[i])
	}
	for i := range cycles {
		dest = append(dest, &cycles[i])
	}
	dest = append(dest, &updatedAt)

	if err := rows.Scan(dest...); err != nil {
		return FundingRecord{}, err
	}

	rec := FundingRecord{
		Ticker:    ticker,
		Quotes:    make(map[string]Quote, len(ExchangeKeys)),
		UpdatedAt: updatedAt,
	}

	for i, key := range ExchangeKeys {
		var q Quote
		if rates[i].Valid {
			parsed, err := decimal.NewFromString(strings.TrimSpace(rates[i].String))
			if err != nil {
				return FundingRecord{}, fmt.Errorf("parse %s rate for %s: %w", key, ticker, err)
			}
			q.Rate = &parsed
		}
		if settles[i].Valid {
			v := settles[i].Int64
			q.NextSettle = &v
		}
		if cycles[i].Valid {
			v := int(cycles[i].Int32)
			q.CycleHours = &v
		}
		if q.Rate != nil || q.NextSettle != nil || q.CycleHours != nil {
			rec.Quotes[key] = q
		}
	}

	return rec, nil
}

var (
	_ FundingStore = (*Store)(nil)
	_ SymbolStore  = (*Store)(nil)
)
