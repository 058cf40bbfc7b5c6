package exchange

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const okxDefaultBaseURL = "https://www.okx.com"

// OKX talks to the v5 public API.
type OKX struct {
	baseURL string
	client  *httpClient
}

// NewOKX builds the OKX adapter.
func NewOKX(opts Options) *OKX {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = okxDefaultBaseURL
	}
	return &OKX{baseURL: base, client: opts.client()}
}

// Name implements Exchange.
func (o *OKX) Name() string { return "OKX" }

// FetchSymbols lists SWAP instruments.
func (o *OKX) FetchSymbols(ctx context.Context) ([]string, error) {
	query := url.Values{}
	query.Set("instType", "SWAP")

	var payload struct {
		Data []struct {
			InstID string `json:"instId"`
		} `json:"data"`
	}
	if err := o.client.getJSON(ctx, o.Name(), o.baseURL+"/api/v5/public/instruments", query, &payload); err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(payload.Data))
	for _, item := range payload.Data {
		symbols = append(symbols, item.InstID)
	}
	return symbols, nil
}

// FetchFunding reads the current funding rate. OKX is the one venue that
// reports the next settlement time directly.
func (o *OKX) FetchFunding(ctx context.Context, symbol string) (FundingInfo, error) {
	query := url.Values{}
	query.Set("instId", symbol)

	var payload struct {
		Data []struct {
			FundingRate     string `json:"fundingRate"`
			NextFundingTime string `json:"nextFundingTime"`
		} `json:"data"`
	}
	if err := o.client.getJSON(ctx, o.Name(), o.baseURL+"/api/v5/public/funding-rate", query, &payload); err != nil {
		return FundingInfo{}, err
	}
	if len(payload.Data) == 0 {
		return FundingInfo{}, permanentErr(o.Name(), errors.New("empty funding response"))
	}

	item := payload.Data[0]
	rate, err := decimal.NewFromString(item.FundingRate)
	if err != nil {
		return FundingInfo{}, permanentErr(o.Name(), err)
	}
	nextSettle, err := strconv.ParseInt(item.NextFundingTime, 10, 64)
	if err != nil {
		return FundingInfo{}, permanentErr(o.Name(), err)
	}

	return FundingInfo{
		Rate:       rate.Mul(decimal.NewFromInt(100)),
		NextSettle: nextSettle,
		CycleHours: defaultCycleHours,
	}, nil
}

var _ Exchange = (*OKX)(nil)
