// Package cartops enforces the add-to-cart business rules before any
// network call and turns successful cart posts into fresh view items.
package cartops

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"

	"example.com/storefront/internal/domain/cart"
	"example.com/storefront/internal/domain/catalog"
	"example.com/storefront/internal/usecase/projection"
)

// CartPoster is the slice of the cart client this service needs.
type CartPoster interface {
	PostCartChange(ctx context.Context, token, productID string, qty int64) ([]cart.RawEntry, error)
}

// Options mirrors the flags of the quick-add flow. PreventDuplicate is set
// by the product card's add button and unset by explicit quantity edits.
type Options struct {
	PreventDuplicate bool
}

type changeInput struct {
	ProductID string `validate:"required"`
	Qty       int64  `validate:"gte=0"`
}

type Service struct {
	client   CartPoster
	validate *validator.Validate
	log      *slog.Logger

	mu          sync.Mutex
	nextSeq     uint64
	lastApplied uint64
}

func NewService(client CartPoster, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		client:   client,
		validate: validator.New(),
		log:      log,
	}
}

// AddOrUpdate posts a cart change and returns the re-projected view items.
// Preconditions are checked in order and short-circuit without touching the
// network: missing token yields cart.ErrAuthRequired, a duplicate under
// Options.PreventDuplicate yields cart.ErrDuplicateItem.
//
// Each post carries a monotonically increasing sequence; a response that
// lost the race to a later post is discarded and cart.ErrStaleResponse is
// returned, so an out-of-order reply can never roll the cart back. Callers
// must keep their current cart on that error.
//
// A non-nil item slice may come back together with a
// cart.ErrProjectionInconsistency error when the server cart references
// products the supplied catalog does not know.
func (s *Service) AddOrUpdate(
	ctx context.Context,
	token string,
	items []cart.ViewItem,
	products []catalog.Product,
	productID string,
	qty int64,
	opts Options,
) ([]cart.ViewItem, error) {
	if token == "" {
		return nil, cart.ErrAuthRequired
	}
	if err := s.validate.Struct(changeInput{ProductID: productID, Qty: qty}); err != nil {
		return nil, err
	}
	if opts.PreventDuplicate && cart.HasProduct(items, productID) {
		return nil, cart.ErrDuplicateItem
	}

	s.mu.Lock()
	s.nextSeq++
	seq := s.nextSeq
	s.mu.Unlock()

	raw, err := s.client.PostCartChange(ctx, token, productID, qty)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	stale := seq <= s.lastApplied
	if !stale {
		s.lastApplied = seq
	}
	s.mu.Unlock()

	if stale {
		s.log.Debug("discarding stale cart response",
			slog.Uint64("seq", seq),
			slog.String("product_id", productID))
		return nil, cart.ErrStaleResponse
	}

	return projection.Project(raw, products)
}
