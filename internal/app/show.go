package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"funding-rate-alerts/internal/storage"
)

// Show prints the current funding snapshot, one row per ticker with a column
// per exchange.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show rates")
	}
	if closeStore != nil {
		defer closeStore()
	}

	if opts.Stats {
		return a.showStats(ctx, store)
	}

	records, err := store.ListRatesAbove(ctx, decimal.NewFromFloat(opts.MinRate))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no funding rates stored")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Ticker\tBinance\tBybit\tOKX\tMEXC\tBitget\tMax%\tUpdated (UTC)")

	for _, rec := range records {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Ticker,
			formatQuote(rec.Quotes["binance"]),
			formatQuote(rec.Quotes["bybit"]),
			formatQuote(rec.Quotes["okx"]),
			formatQuote(rec.Quotes["mexc"]),
			formatQuote(rec.Quotes["bitget"]),
			rec.MaxAbsRate().StringFixed(4),
			rec.UpdatedAt.UTC().Format(time.RFC3339),
		)
	}

	writer.Flush()
	return nil
}

func (a *App) showStats(ctx context.Context, store *storage.Store) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Records\t%d\n", stats.TotalRecords)
	fmt.Fprintf(writer, "Tickers\t%d\n", stats.UniqueTickers)
	if stats.LatestUpdate != nil {
		fmt.Fprintf(writer, "Latest update\t%s\n", stats.LatestUpdate.UTC().Format(time.RFC3339))
	} else {
		fmt.Fprintf(writer, "Latest update\t-\n")
	}
	fmt.Fprintf(writer, "On-disk size\t%d bytes\n", stats.SizeBytes)
	writer.Flush()
	return nil
}

func formatQuote(q storage.Quote) string {
	if q.Rate == nil {
		return "-"
	}
	return q.Rate.StringFixed(4)
}
