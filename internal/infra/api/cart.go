package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"example.com/storefront/internal/domain/cart"
)

// CartClient fetches and mutates the authenticated user's cart.
type CartClient struct {
	base string
	hc   *http.Client
	log  *slog.Logger
}

func NewCartClient(base string, hc *http.Client, log *slog.Logger) *CartClient {
	if hc == nil {
		hc = defaultHTTPClient()
	}
	if log == nil {
		log = nopLogger()
	}
	return &CartClient{base: base, hc: hc, log: log}
}

// FetchCart returns the raw cart. Without a token it returns (nil, nil):
// the cart is simply not available to anonymous visitors, which is not a
// failure. A server-side token rejection maps to cart.ErrUnauthorized and
// everything else to cart.ErrUnavailable.
func (c *CartClient) FetchCart(ctx context.Context, token string) ([]cart.RawEntry, error) {
	if token == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/cart", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cart.ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	reqID := newRequestID()
	req.Header.Set("X-Request-Id", reqID)

	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Error("cart fetch failed", slog.String("request_id", reqID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", cart.ErrUnavailable, err)
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		var raw []cart.RawEntry
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: decode response: %v", cart.ErrUnavailable, err)
		}
		return raw, nil
	case http.StatusUnauthorized:
		msg := readMessage(resp.Body)
		if msg == "" {
			return nil, cart.ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %s", cart.ErrUnauthorized, msg)
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", cart.ErrUnavailable, resp.StatusCode)
	}
}

type cartChangeRequest struct {
	ProductID string `json:"productId"`
	Qty       int64  `json:"qty"`
}

// PostCartChange posts one add-or-update and returns the server's full
// updated cart, the new source of truth for the client's snapshot. An
// unknown product id maps to cart.ErrProductNotFound with the server
// message; any other failure maps to cart.ErrUpdateFailed.
func (c *CartClient) PostCartChange(ctx context.Context, token, productID string, qty int64) ([]cart.RawEntry, error) {
	body, err := json.Marshal(cartChangeRequest{ProductID: productID, Qty: qty})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cart.ErrUpdateFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/cart", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cart.ErrUpdateFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	reqID := newRequestID()
	req.Header.Set("X-Request-Id", reqID)

	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Error("cart post failed", slog.String("request_id", reqID), slog.String("product_id", productID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", cart.ErrUpdateFailed, err)
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		var raw []cart.RawEntry
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: decode response: %v", cart.ErrUpdateFailed, err)
		}
		return raw, nil
	case http.StatusNotFound:
		msg := readMessage(resp.Body)
		if msg == "" {
			return nil, cart.ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: %s", cart.ErrProductNotFound, msg)
	default:
		msg := readMessage(resp.Body)
		if msg == "" {
			return nil, fmt.Errorf("%w: unexpected status %d", cart.ErrUpdateFailed, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", cart.ErrUpdateFailed, msg)
	}
}
