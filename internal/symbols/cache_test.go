package symbols

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

type stubSource struct {
	name string
	list []string
	err  error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchSymbols(context.Context) ([]string, error) {
	return s.list, s.err
}

func TestCacheLoadMissingFile(t *testing.T) {
	cache := NewCache(t.TempDir(), zerolog.Nop())
	if got := cache.Load("Binance"); len(got) != 0 {
		t.Fatalf("expected empty list for missing cache, got %v", got)
	}
}

func TestCacheRefreshPersists(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, zerolog.Nop())
	src := &stubSource{name: "Binance", list: []string{"BTCUSDT", "ETHUSDT"}}

	got := cache.Refresh(context.Background(), src)
	if !reflect.DeepEqual(got, src.list) {
		t.Fatalf("expected %v, got %v", src.list, got)
	}

	if _, err := os.Stat(filepath.Join(dir, "binance.json")); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}

	if loaded := cache.Load("Binance"); !reflect.DeepEqual(loaded, src.list) {
		t.Fatalf("reload mismatch: %v", loaded)
	}
}

func TestCacheRefreshKeepsCachedOnFailure(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, zerolog.Nop())

	seed := &stubSource{name: "OKX", list: []string{"BTC-USDT-SWAP"}}
	cache.Refresh(context.Background(), seed)

	broken := &stubSource{name: "OKX", err: errors.New("api down")}
	got := cache.Refresh(context.Background(), broken)
	if !reflect.DeepEqual(got, seed.list) {
		t.Fatalf("expected cached list on fetch failure, got %v", got)
	}
}

func TestCacheRefreshDropsDelisted(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, zerolog.Nop())

	cache.Refresh(context.Background(), &stubSource{name: "Bybit", list: []string{"AUSDT", "BUSDT"}})
	got := cache.Refresh(context.Background(), &stubSource{name: "Bybit", list: []string{"BUSDT"}})

	if !reflect.DeepEqual(got, []string{"BUSDT"}) {
		t.Fatalf("expected delisted symbol to drop, got %v", got)
	}
	if loaded := cache.Load("Bybit"); !reflect.DeepEqual(loaded, []string{"BUSDT"}) {
		t.Fatalf("cache file should hold the fresh list, got %v", loaded)
	}
}
