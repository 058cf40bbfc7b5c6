package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeKeys is the fixed column/reporting order of the supported venues.
// The funding_rates schema carries one rate/settle/cycle triple per entry.
var ExchangeKeys = []string{"binance", "bybit", "okx", "mexc", "bitget"}

// Quote holds one exchange's contribution to a ticker. All fields are nil when
// the exchange reported nothing for the ticker this pass.
type Quote struct {
	// Rate is the funding rate as a percentage.
	Rate *decimal.Decimal
	// NextSettle is the next settlement time in epoch milliseconds.
	NextSettle *int64
	// CycleHours is the funding interval length.
	CycleHours *int
}

// FundingRecord is the latest snapshot for one canonical ticker. There is at
// most one record per ticker; every save replaces the previous one.
type FundingRecord struct {
	Ticker    string
	Quotes    map[string]Quote
	UpdatedAt time.Time
}

// MaxAbsRate returns the largest absolute funding rate across exchanges, or
// zero when no exchange reported one.
func (r FundingRecord) MaxAbsRate() decimal.Decimal {
	max := decimal.Zero
	for _, q := range r.Quotes {
		if q.Rate == nil {
			continue
		}
		if abs := q.Rate.Abs(); abs.GreaterThan(max) {
			max = abs
		}
	}
	return max
}

// SymbolRow maps an exchange-native symbol onto its canonical identity.
type SymbolRow struct {
	Ticker           string
	Exchange         string
	OriginalSymbol   string
	NormalizedSymbol string
}

// Stats summarises the funding store.
type Stats struct {
	TotalRecords  int64
	UniqueTickers int64
	LatestUpdate  *time.Time
	SizeBytes     int64
}
