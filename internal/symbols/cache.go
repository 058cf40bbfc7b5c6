package symbols

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Source lists the tradable symbols of one exchange.
type Source interface {
	Name() string
	FetchSymbols(ctx context.Context) ([]string, error)
}

// Cache keeps one JSON file per exchange under a configured directory and
// refreshes it from the exchange API. Readers always get a usable list: on any
// fetch or decode failure the previously cached symbols are returned.
type Cache struct {
	dir    string
	logger zerolog.Logger
}

// NewCache builds a symbol cache rooted at dir.
func NewCache(dir string, logger zerolog.Logger) *Cache {
	return &Cache{
		dir:    dir,
		logger: logger.With().Str("component", "symbol_cache").Logger(),
	}
}

// Load reads the cached symbol list for an exchange. Missing or corrupt files
// yield an empty list, never an error.
func (c *Cache) Load(exchange string) []string {
	path := c.filePath(exchange)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn().Err(err).Str("exchange", exchange).Str("path", path).Msg("failed to read symbol cache")
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		c.logger.Warn().Err(err).Str("exchange", exchange).Str("path", path).Msg("symbol cache has unexpected format")
		return nil
	}
	return list
}

// Refresh fetches the current symbol list, logs symbols not seen before, and
// rewrites the cache file in full so delisted contracts drop out. When the
// fetch fails the cached list is returned unchanged.
func (c *Cache) Refresh(ctx context.Context, src Source) []string {
	cached := c.Load(src.Name())

	fresh, err := src.FetchSymbols(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Str("exchange", src.Name()).Int("cached", len(cached)).Msg("symbol fetch failed, keeping cached list")
		return cached
	}

	known := make(map[string]struct{}, len(cached))
	for _, s := range cached {
		known[s] = struct{}{}
	}
	newCount := 0
	for _, s := range fresh {
		if _, ok := known[s]; !ok {
			newCount++
		}
	}
	if newCount > 0 {
		c.logger.Info().Str("exchange", src.Name()).Int("new_symbols", newCount).Msg("discovered new symbols")
	}

	if err := c.write(src.Name(), fresh); err != nil {
		c.logger.Warn().Err(err).Str("exchange", src.Name()).Msg("failed to persist symbol cache")
	}
	return fresh
}

func (c *Cache) write(exchange string, list []string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.filePath(exchange), data, 0o644)
}

func (c *Cache) filePath(exchange string) string {
	return filepath.Join(c.dir, strings.ToLower(exchange)+".json")
}
