package exchange

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const mexcDefaultBaseURL = "https://contract.mexc.com"

// MEXC talks to the contract v1 API. Unlike the other venues the funding
// endpoint takes the symbol as a path segment, and the response is the only
// one that reports the collect cycle per contract.
type MEXC struct {
	baseURL string
	client  *httpClient
}

// NewMEXC builds the MEXC adapter.
func NewMEXC(opts Options) *MEXC {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = mexcDefaultBaseURL
	}
	return &MEXC{baseURL: base, client: opts.client()}
}

// Name implements Exchange.
func (m *MEXC) Name() string { return "MEXC" }

// FetchSymbols lists all contracts.
func (m *MEXC) FetchSymbols(ctx context.Context) ([]string, error) {
	var payload struct {
		Data []struct {
			Symbol string `json:"symbol"`
		} `json:"data"`
	}
	if err := m.client.getJSON(ctx, m.Name(), m.baseURL+"/api/v1/contract/detail", nil, &payload); err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(payload.Data))
	for _, item := range payload.Data {
		symbols = append(symbols, item.Symbol)
	}
	return symbols, nil
}

// FetchFunding reads the current funding rate, settlement time, and cycle.
func (m *MEXC) FetchFunding(ctx context.Context, symbol string) (FundingInfo, error) {
	var payload struct {
		Success bool `json:"success"`
		Data    struct {
			FundingRate    decimal.Decimal `json:"fundingRate"`
			NextSettleTime int64           `json:"nextSettleTime"`
			CollectCycle   int             `json:"collectCycle"`
		} `json:"data"`
	}
	if err := m.client.getJSON(ctx, m.Name(), m.baseURL+"/api/v1/contract/funding_rate/"+symbol, nil, &payload); err != nil {
		return FundingInfo{}, err
	}
	if !payload.Success {
		return FundingInfo{}, permanentErr(m.Name(), errors.New("response not successful"))
	}

	cycle := payload.Data.CollectCycle
	if cycle <= 0 {
		cycle = defaultCycleHours
	}

	return FundingInfo{
		Rate:       payload.Data.FundingRate.Mul(decimal.NewFromInt(100)),
		NextSettle: payload.Data.NextSettleTime,
		CycleHours: cycle,
	}, nil
}

var _ Exchange = (*MEXC)(nil)
