package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		symbol   string
		exchange string
		want     string
	}{
		{name: "binance usdt", symbol: "BTCUSDT", exchange: "Binance", want: "BTC/USDT"},
		{name: "binance usd", symbol: "BTCUSD", exchange: "Binance", want: "BTC/USD"},
		{name: "bybit usdt", symbol: "ETHUSDT", exchange: "Bybit", want: "ETH/USDT"},
		{name: "okx swap suffix", symbol: "GMX-USDT-SWAP", exchange: "OKX", want: "GMX/USDT"},
		{name: "bitget umcbl suffix", symbol: "BTCUSDT_UMCBL", exchange: "Bitget", want: "BTC/USDT"},
		{name: "mexc underscore", symbol: "BTC_USDT", exchange: "MEXC", want: "BTC/USDT"},
		{name: "numeric base", symbol: "1000PEPEUSDT", exchange: "Binance", want: "1000PEPE/USDT"},
		{name: "unknown quote untouched", symbol: "BTCEUR", exchange: "Binance", want: "BTCEUR"},
		{name: "quote only untouched", symbol: "USDT", exchange: "Binance", want: "USDT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.symbol, tt.exchange))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []struct {
		symbol   string
		exchange string
	}{
		{"BTCUSDT", "Binance"},
		{"GMX-USDT-SWAP", "OKX"},
		{"BTC_USDT", "MEXC"},
		{"BTCUSDT_UMCBL", "Bitget"},
	}

	for _, in := range inputs {
		once := Normalize(in.symbol, in.exchange)
		twice := Normalize(once, in.exchange)
		assert.Equal(t, once, twice, "Normalize must be a fixed point for %s on %s", in.symbol, in.exchange)
	}
}

func TestExtractTicker(t *testing.T) {
	assert.Equal(t, "GMX", ExtractTicker("GMX/USDT"))
	assert.Equal(t, "BTC", ExtractTicker("BTC/USD"))
	assert.Equal(t, "SOLO", ExtractTicker("SOLO"))
}
