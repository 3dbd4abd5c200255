package cart

import "context"

// RawEntry is the server's authoritative (productId, qty) pair. The client
// only ever holds a cached copy; every server response replaces the whole
// cached cart, entries are never patched in place.
type RawEntry struct {
	ProductID string `json:"productId"`
	Qty       int64  `json:"qty"`
}

// ViewItem is a raw entry enriched with the matching product's display
// fields, ready for rendering. When the cart references a product the
// catalog does not know, Missing is set and the display fields stay zero.
type ViewItem struct {
	RawEntry
	Name     string
	Category string
	Cost     float64
	Rating   float64
	Image    string
	Missing  bool
}

// HasProduct reports whether items already contains an entry for productID.
func HasProduct(items []ViewItem, productID string) bool {
	for _, item := range items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// Client talks to the remote cart endpoints.
type Client interface {
	// FetchCart returns the raw cart for the authenticated user. A missing
	// token yields (nil, nil): the fetch is authentication-gated on the
	// client, not rejected by the server.
	FetchCart(ctx context.Context, token string) ([]RawEntry, error)
	// PostCartChange adds or updates a single product. The server decides
	// create-vs-update and responds with the full updated cart, which
	// becomes the new client snapshot.
	PostCartChange(ctx context.Context, token, productID string, qty int64) ([]RawEntry, error)
}
