package exchange

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// httpClient is the shared GET-and-decode helper behind every adapter.
type httpClient struct {
	http *http.Client
}

// getJSON issues a GET request and decodes the body into out. Transport and
// HTTP-status problems come back as transient, a body that does not decode as
// permanent.
func (c *httpClient) getJSON(ctx context.Context, exchange, rawURL string, query url.Values, out any) error {
	if len(query) > 0 {
		rawURL = rawURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return permanentErr(exchange, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return transientErr(exchange, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transientErr(exchange, err)
	}

	if resp.StatusCode != http.StatusOK {
		return transientErr(exchange, fmt.Errorf("http %d: %s", resp.StatusCode, truncate(body, 200)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return permanentErr(exchange, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
