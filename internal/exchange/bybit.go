package exchange

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const bybitDefaultBaseURL = "https://api.bybit.com"

// Bybit talks to the v5 linear-contract API.
type Bybit struct {
	baseURL string
	client  *httpClient
}

// NewBybit builds the Bybit adapter.
func NewBybit(opts Options) *Bybit {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = bybitDefaultBaseURL
	}
	return &Bybit{baseURL: base, client: opts.client()}
}

// Name implements Exchange.
func (b *Bybit) Name() string { return "Bybit" }

// FetchSymbols lists linear instruments.
func (b *Bybit) FetchSymbols(ctx context.Context) ([]string, error) {
	query := url.Values{}
	query.Set("category", "linear")

	var payload struct {
		Result struct {
			List []struct {
				Symbol string `json:"symbol"`
			} `json:"list"`
		} `json:"result"`
	}
	if err := b.client.getJSON(ctx, b.Name(), b.baseURL+"/v5/market/instruments-info", query, &payload); err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(payload.Result.List))
	for _, item := range payload.Result.List {
		symbols = append(symbols, item.Symbol)
	}
	return symbols, nil
}

// FetchFunding reads the latest funding history entry; Bybit also reports only
// the last settlement timestamp.
func (b *Bybit) FetchFunding(ctx context.Context, symbol string) (FundingInfo, error) {
	query := url.Values{}
	query.Set("category", "linear")
	query.Set("symbol", symbol)
	query.Set("limit", "1")

	var payload struct {
		Result struct {
			List []struct {
				FundingRate          string `json:"fundingRate"`
				FundingRateTimestamp string `json:"fundingRateTimestamp"`
			} `json:"list"`
		} `json:"result"`
	}
	if err := b.client.getJSON(ctx, b.Name(), b.baseURL+"/v5/market/funding/history", query, &payload); err != nil {
		return FundingInfo{}, err
	}
	if len(payload.Result.List) == 0 {
		return FundingInfo{}, permanentErr(b.Name(), errors.New("empty funding history"))
	}

	item := payload.Result.List[0]
	rate, err := decimal.NewFromString(item.FundingRate)
	if err != nil {
		return FundingInfo{}, permanentErr(b.Name(), err)
	}
	lastSettle, err := strconv.ParseInt(item.FundingRateTimestamp, 10, 64)
	if err != nil {
		return FundingInfo{}, permanentErr(b.Name(), err)
	}

	return FundingInfo{
		Rate:       rate.Mul(decimal.NewFromInt(100)),
		NextSettle: lastSettle + defaultCycleMillis,
		CycleHours: defaultCycleHours,
	}, nil
}

var _ Exchange = (*Bybit)(nil)
