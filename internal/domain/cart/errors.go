package cart

import "errors"

var (
	// ErrAuthRequired is returned before any network call when no token is held.
	ErrAuthRequired = errors.New("login required to modify the cart")
	// ErrDuplicateItem is returned before any network call when duplicate
	// prevention is on and the product is already in the cart.
	ErrDuplicateItem = errors.New("item already in cart")

	// ErrUnauthorized wraps a server-side token rejection.
	ErrUnauthorized = errors.New("cart access unauthorized")
	// ErrUnavailable wraps transport or server failures fetching the cart.
	ErrUnavailable = errors.New("cart unavailable")
	// ErrProductNotFound wraps the server's 404 for an unknown product id.
	ErrProductNotFound = errors.New("product not found")
	// ErrUpdateFailed wraps any other failure posting a cart change.
	ErrUpdateFailed = errors.New("cart update failed")

	// ErrStaleResponse marks a cart response that lost the race to a later
	// change and was discarded. The held cart already reflects the newer
	// state and must not be rolled back.
	ErrStaleResponse = errors.New("stale cart response discarded")

	// ErrProjectionInconsistency reports raw cart entries whose product id
	// has no catalog match. The projection still returns a full-length
	// item slice; affected items carry the Missing flag.
	ErrProjectionInconsistency = errors.New("cart references unknown products")
)
