package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema bootstrap runs on open. The deployment target is a single small
// database owned by this process, so DDL lives here instead of a migration
// tool.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS symbols (
        id                BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
        ticker            TEXT NOT NULL,
        exchange          TEXT NOT NULL,
        original_symbol   TEXT NOT NULL,
        normalized_symbol TEXT NOT NULL,
        created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
        UNIQUE (ticker, exchange)
    );`,
	`CREATE TABLE IF NOT EXISTS funding_rates (
        ticker             TEXT PRIMARY KEY,
        binance_rate       NUMERIC,
        bybit_rate         NUMERIC,
        okx_rate           NUMERIC,
        mexc_rate          NUMERIC,
        bitget_rate        NUMERIC,
        binance_next_settle BIGINT,
        bybit_next_settle   BIGINT,
        okx_next_settle     BIGINT,
        mexc_next_settle    BIGINT,
        bitget_next_settle  BIGINT,
        binance_cycle      INT,
        bybit_cycle        INT,
        okx_cycle          INT,
        mexc_cycle         INT,
        bitget_cycle       INT,
        updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
    );`,
	`CREATE INDEX IF NOT EXISTS idx_funding_rates_updated_at ON funding_rates (updated_at);`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_ticker ON symbols (ticker);`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_exchange ON symbols (exchange);`,
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
