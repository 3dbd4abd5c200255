package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"example.com/storefront/internal/domain/catalog"
)

// CatalogClient fetches the full and the server-side filtered catalog.
// It keeps no cache; the caller owns whatever it stores.
type CatalogClient struct {
	base string
	hc   *http.Client
	log  *slog.Logger
}

// NewCatalogClient targets the API base URL, e.g. "http://host:8082/api/v1".
// A nil http client or logger falls back to sane defaults.
func NewCatalogClient(base string, hc *http.Client, log *slog.Logger) *CatalogClient {
	if hc == nil {
		hc = defaultHTTPClient()
	}
	if log == nil {
		log = nopLogger()
	}
	return &CatalogClient{base: base, hc: hc, log: log}
}

// FetchAll returns the full catalog in the order the server sent it.
func (c *CatalogClient) FetchAll(ctx context.Context) ([]catalog.Product, error) {
	return c.get(ctx, c.base+"/products", false)
}

// Search returns the catalog filtered by query. A 404 means no matches and
// yields an empty slice, not an error; only transport failures and 5xx
// responses are errors.
func (c *CatalogClient) Search(ctx context.Context, query string) ([]catalog.Product, error) {
	u := c.base + "/products/search?value=" + url.QueryEscape(query)
	return c.get(ctx, u, true)
}

func (c *CatalogClient) get(ctx context.Context, u string, emptyOn404 bool) ([]catalog.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalog.ErrUnavailable, err)
	}
	reqID := newRequestID()
	req.Header.Set("X-Request-Id", reqID)

	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Error("catalog request failed", slog.String("request_id", reqID), slog.String("url", u), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", catalog.ErrUnavailable, err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		var products []catalog.Product
		if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
			return nil, fmt.Errorf("%w: decode response: %v", catalog.ErrUnavailable, err)
		}
		return products, nil
	case resp.StatusCode == http.StatusNotFound && emptyOn404:
		return []catalog.Product{}, nil
	case resp.StatusCode >= http.StatusInternalServerError:
		msg := readMessage(resp.Body)
		c.log.Error("catalog server error", slog.String("request_id", reqID), slog.Int("status", resp.StatusCode), slog.String("message", msg))
		if msg == "" {
			return nil, fmt.Errorf("%w: status %d", catalog.ErrServer, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", catalog.ErrServer, msg)
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", catalog.ErrUnavailable, resp.StatusCode)
	}
}
