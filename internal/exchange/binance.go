package exchange

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const binanceDefaultBaseURL = "https://fapi.binance.com"

// Binance talks to the USD-M futures API.
type Binance struct {
	baseURL string
	client  *httpClient
}

// NewBinance builds the Binance adapter.
func NewBinance(opts Options) *Binance {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = binanceDefaultBaseURL
	}
	return &Binance{baseURL: base, client: opts.client()}
}

// Name implements Exchange.
func (b *Binance) Name() string { return "Binance" }

// FetchSymbols lists perpetual contracts from exchangeInfo.
func (b *Binance) FetchSymbols(ctx context.Context) ([]string, error) {
	var payload struct {
		Symbols []struct {
			Symbol       string `json:"symbol"`
			ContractType string `json:"contractType"`
		} `json:"symbols"`
	}
	if err := b.client.getJSON(ctx, b.Name(), b.baseURL+"/fapi/v1/exchangeInfo", nil, &payload); err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(payload.Symbols))
	for _, s := range payload.Symbols {
		if s.ContractType == "PERPETUAL" {
			symbols = append(symbols, s.Symbol)
		}
	}
	return symbols, nil
}

// FetchFunding reads the most recent funding event. Binance reports the time
// of the last settlement, so the next one is synthesized a cycle later.
func (b *Binance) FetchFunding(ctx context.Context, symbol string) (FundingInfo, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("limit", "1")

	var payload []struct {
		FundingRate string `json:"fundingRate"`
		FundingTime int64  `json:"fundingTime"`
	}
	if err := b.client.getJSON(ctx, b.Name(), b.baseURL+"/fapi/v1/fundingRate", query, &payload); err != nil {
		return FundingInfo{}, err
	}
	if len(payload) == 0 {
		return FundingInfo{}, permanentErr(b.Name(), errors.New("empty funding history"))
	}

	rate, err := decimal.NewFromString(payload[0].FundingRate)
	if err != nil {
		return FundingInfo{}, permanentErr(b.Name(), err)
	}

	return FundingInfo{
		Rate:       rate.Mul(decimal.NewFromInt(100)),
		NextSettle: payload[0].FundingTime + defaultCycleMillis,
		CycleHours: defaultCycleHours,
	}, nil
}

var _ Exchange = (*Binance)(nil)
