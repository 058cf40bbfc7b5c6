package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMEXCFetchSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/contract/detail" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[{"symbol":"BTC_USDT"},{"symbol":"ETH_USDT"}]}`))
	}))
	defer srv.Close()

	m := NewMEXC(Options{BaseURL: srv.URL})
	symbols, err := m.FetchSymbols(context.Background())
	if err != nil {
		t.Fatalf("FetchSymbols failed: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("unexpected symbols %v", symbols)
	}
}

func TestMEXCFetchFunding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/contract/funding_rate/BTC_USDT" {
			t.Fatalf("symbol should be a path segment, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"data":{"fundingRate":0.0002,"nextSettleTime":1700000000000,"collectCycle":4}}`))
	}))
	defer srv.Close()

	m := NewMEXC(Options{BaseURL: srv.URL})
	info, err := m.FetchFunding(context.Background(), "BTC_USDT")
	if err != nil {
		t.Fatalf("FetchFunding failed: %v", err)
	}
	if info.Rate.String() != "0.02" {
		t.Fatalf("unexpected percent rate %s", info.Rate)
	}
	if info.NextSettle != 1700000000000 {
		t.Fatalf("unexpected settle time %d", info.NextSettle)
	}
	if info.CycleHours != 4 {
		t.Fatalf("collect cycle should be honoured, got %d", info.CycleHours)
	}
}

func TestMEXCFetchFundingDefaultsCycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"fundingRate":0.0001,"nextSettleTime":1700000000000,"collectCycle":0}}`))
	}))
	defer srv.Close()

	m := NewMEXC(Options{BaseURL: srv.URL})
	info, err := m.FetchFunding(context.Background(), "BTC_USDT")
	if err != nil {
		t.Fatalf("FetchFunding failed: %v", err)
	}
	if info.CycleHours != defaultCycleHours {
		t.Fatalf("zero cycle should fall back to default, got %d", info.CycleHours)
	}
}

func TestMEXCFetchFundingUnsuccessful(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	m := NewMEXC(Options{BaseURL: srv.URL})
	if _, err := m.FetchFunding(context.Background(), "BTC_USDT"); err == nil {
		t.Fatal("success=false should be an error")
	} else if Classify(err) != FailPermanent {
		t.Fatalf("unsuccessful response should classify as permanent, got %v", Classify(err))
	}
}
