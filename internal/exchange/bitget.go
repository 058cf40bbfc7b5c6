package exchange

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	jsonlib "encoding/json"

	"github.com/shopspring/decimal"
)

const bitgetDefaultBaseURL = "https://api.bitget.com"

// Bitget talks to the mix (USDT-margined) v1 API.
type Bitget struct {
	baseURL string
	client  *httpClient
	now     func() time.Time
}

// NewBitget builds the Bitget adapter.
func NewBitget(opts Options) *Bitget {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = bitgetDefaultBaseURL
	}
	return &Bitget{baseURL: base, client: opts.client(), now: time.Now}
}

// Name implements Exchange.
func (b *Bitget) Name() string { return "Bitget" }

// FetchSymbols lists UMCBL contracts.
func (b *Bitget) FetchSymbols(ctx context.Context) ([]string, error) {
	query := url.Values{}
	query.Set("productType", "umcbl")

	var payload struct {
		Data []struct {
			Symbol string `json:"symbol"`
		} `json:"data"`
	}
	if err := b.client.getJSON(ctx, b.Name(), b.baseURL+"/api/mix/v1/market/contracts", query, &payload); err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(payload.Data))
	for _, item := range payload.Data {
		symbols = append(symbols, item.Symbol)
	}
	return symbols, nil
}

// FetchFunding reads the current funding rate. Bitget returns either an object
// or a single-element list under "data", and carries no timing information at
// all; the next settlement is estimated one cycle from now.
func (b *Bitget) FetchFunding(ctx context.Context, symbol string) (FundingInfo, error) {
	query := url.Values{}
	query.Set("symbol", symbol)

	var payload struct {
		Data jsonlib.RawMessage `json:"data"`
	}
	if err := b.client.getJSON(ctx, b.Name(), b.baseURL+"/api/mix/v1/market/funding-rate", query, &payload); err != nil {
		return FundingInfo{}, err
	}

	rateStr, ok := bitgetFundingRate(payload.Data)
	if !ok {
		return FundingInfo{}, permanentErr(b.Name(), errors.New("funding rate missing from response"))
	}

	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return FundingInfo{}, permanentErr(b.Name(), err)
	}

	return FundingInfo{
		Rate:       rate.Mul(decimal.NewFromInt(100)),
		NextSettle: b.now().UnixMilli() + defaultCycleMillis,
		CycleHours: defaultCycleHours,
	}, nil
}

func bitgetFundingRate(data jsonlib.RawMessage) (string, bool) {
	var obj struct {
		FundingRate string `json:"fundingRate"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.FundingRate != "" {
		return obj.FundingRate, true
	}

	var list []struct {
		FundingRate string `json:"fundingRate"`
	}
	if err := json.Unmarshal(data, &list); err == nil && len(list) > 0 && list[0].FundingRate != "" {
		return list[0].FundingRate, true
	}
	return "", false
}

var _ Exchange = (*Bitget)(nil)
