package catalog

import "context"

// Product is a purchasable item as returned by the storefront backend.
// The backend identifies products by an opaque string under the "_id" field.
// Products are immutable once fetched; a new catalog fetch replaces them.
type Product struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Cost     float64 `json:"cost"`
	Rating   float64 `json:"rating"`
	Image    string  `json:"image"`
}

// Source provides the full and the server-side filtered catalog.
type Source interface {
	// FetchAll returns the full catalog in server order.
	FetchAll(ctx context.Context) ([]Product, error)
	// Search returns the catalog filtered by the given text. An empty
	// result is a valid outcome, not an error. The empty query is passed
	// through unmodified; its meaning is the caller's convention.
	Search(ctx context.Context, query string) ([]Product, error)
}
