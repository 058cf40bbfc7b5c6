package symbols

import "strings"

// suffixRules lists the contract-name decorations each exchange appends to its
// perpetual symbols. They must be stripped before quote-currency detection,
// otherwise the dash/suffix splits below produce malformed pairs.
var suffixRules = map[string][]string{
	"Bitget": {"_UMCBL"},
	"OKX":    {"-SWAP"},
	"MEXC":   {"_"},
}

// quoteCurrencies ordered longest-first so USDT wins over USD.
var quoteCurrencies = []string{"USDT", "USD"}

// Normalize maps an exchange-specific symbol to the canonical BASE/QUOTE pair.
// Unknown formats are returned unchanged. Already-canonical input is a fixed
// point: Normalize(Normalize(s, e), e) == Normalize(s, e).
func Normalize(symbol, exchange string) string {
	if strings.Contains(symbol, "/") {
		return symbol
	}

	for _, token := range suffixRules[exchange] {
		if token == "_" {
			symbol = strings.ReplaceAll(symbol, "_", "")
			continue
		}
		symbol = strings.TrimSuffix(symbol, token)
	}

	if strings.Contains(symbol, "-") {
		for _, quote := range quoteCurrencies {
			if !strings.Contains(symbol, quote) {
				continue
			}
			parts := strings.SplitN(symbol, "-", 2)
			if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
				return parts[0] + "/" + parts[1]
			}
		}
	}

	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(symbol, quote) && len(symbol) > len(quote) {
			return strings.TrimSuffix(symbol, quote) + "/" + quote
		}
	}

	return symbol
}

// ExtractTicker returns the base-asset identity of a canonical pair,
// e.g. "GMX/USDT" -> "GMX". Input without a separator is its own ticker.
func ExtractTicker(pair string) string {
	if idx := strings.IndexByte(pair, '/'); idx >= 0 {
		return pair[:idx]
	}
	return pair
}
