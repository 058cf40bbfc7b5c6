package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBinanceFetchSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fapi/v1/exchangeInfo" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"symbols":[
			{"symbol":"BTCUSDT","contractType":"PERPETUAL"},
			{"symbol":"BTCUSDT_230929","contractType":"CURRENT_QUARTER"},
			{"symbol":"ETHUSDT","contractType":"PERPETUAL"}
		]}`))
	}))
	defer srv.Close()

	b := NewBinance(Options{BaseURL: srv.URL})
	symbols, err := b.FetchSymbols(context.Background())
	if err != nil {
		t.Fatalf("FetchSymbols failed: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "BTCUSDT" || symbols[1] != "ETHUSDT" {
		t.Fatalf("expected only perpetuals, got %v", symbols)
	}
}

func TestBinanceFetchFunding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Fatalf("unexpected symbol %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "1" {
			t.Fatalf("unexpected limit %q", got)
		}
		w.Write([]byte(`[{"fundingRate":"0.0123","fundingTime":1700000000000}]`))
	}))
	defer srv.Close()

	b := NewBinance(Options{BaseURL: srv.URL})
	info, err := b.FetchFunding(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("FetchFunding failed: %v", err)
	}

	if info.Rate.String() != "1.23" {
		t.Fatalf("rate should be reported in percent, got %s", info.Rate)
	}
	if want := int64(1700000000000) + defaultCycleMillis; info.NextSettle != want {
		t.Fatalf("next settle should be one cycle after last funding: got %d want %d", info.NextSettle, want)
	}
	if info.CycleHours != defaultCycleHours {
		t.Fatalf("unexpected cycle %d", info.CycleHours)
	}
}

func TestBinanceFetchFundingEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	b := NewBinance(Options{BaseURL: srv.URL})
	if _, err := b.FetchFunding(context.Background(), "NOPEUSDT"); err == nil {
		t.Fatal("empty history should be an error")
	} else if Classify(err) != FailPermanent {
		t.Fatalf("empty history should classify as permanent, got %v", Classify(err))
	}
}

func TestBinanceFetchFundingServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	b := NewBinance(Options{BaseURL: srv.URL})
	_, err := b.FetchFunding(context.Background(), "BTCUSDT")
	if err == nil {
		t.Fatal("HTTP 502 should be an error")
	}
	if Classify(err) != FailTransient {
		t.Fatalf("server errors should classify as transient, got %v", Classify(err))
	}
}
