package storage

import (
	"sort"
	"strings"
	"time"

	"funding-rate-alerts/internal/exchange"
	"funding-rate-alerts/internal/symbols"
)

// BuildSymbolRows flattens per-exchange symbol lists into rows keyed by
// (ticker, exchange), computing the canonical identity of each symbol.
func BuildSymbolRows(lists map[string][]string) []SymbolRow {
	rows := make([]SymbolRow, 0)
	for exchangeName, list := range lists {
		for _, sym := range list {
			normalized := symbols.Normalize(sym, exchangeName)
			rows = append(rows, SymbolRow{
				Ticker:           symbols.ExtractTicker(normalized),
				Exchange:         exchangeName,
				OriginalSymbol:   sym,
				NormalizedSymbol: normalized,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].Exchange < rows[j].Exchange
	})
	return rows
}

// BuildFundingRecords turns one collection pass into complete per-ticker
// records. Every ticker present in the input gets exactly one record with a
// quote slot per exchange; by construction each record carries at least one
// non-nil rate, so tickers no exchange reported on are never written.
func BuildFundingRecords(pass map[string]map[string]exchange.FundingInfo, now time.Time) []FundingRecord {
	byTicker := make(map[string]map[string]Quote)

	for exchangeName, perSymbol := range pass {
		key := strings.ToLower(exchangeName)
		for sym, info := range perSymbol {
			ticker := symbols.ExtractTicker(symbols.Normalize(sym, exchangeName))
			quotes, ok := byTicker[ticker]
			if !ok {
				quotes = make(map[string]Quote, len(ExchangeKeys))
				byTicker[ticker] = quotes
			}
			rate := info.Rate
			settle := info.NextSettle
			cycle := info.CycleHours
			quotes[key] = Quote{Rate: &rate, NextSettle: &settle, CycleHours: &cycle}
		}
	}

	records := make([]FundingRecord, 0, len(byTicker))
	for ticker, quotes := range byTicker {
		records = append(records, FundingRecord{Ticker: ticker, Quotes: quotes, UpdatedAt: now})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Ticker < records[j].Ticker })
	return records
}
