// Package storefront owns the rendered application state: the product
// list, the projected cart and the session, published as immutable
// snapshots that a rendering layer subscribes to.
package storefront

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"example.com/storefront/internal/domain/cart"
	"example.com/storefront/internal/domain/catalog"
	"example.com/storefront/internal/domain/session"
	"example.com/storefront/internal/usecase/cartops"
	"example.com/storefront/internal/usecase/projection"
	"example.com/storefront/internal/usecase/search"
)

// Level classifies a transient user notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a transient message for the user, the snackbar of the web UI.
// Notices belong to the transition that produced the snapshot; they are not
// carried over to the next one.
type Notice struct {
	Level   Level
	Message string
}

// Snapshot is one immutable view of the application state. Every state
// transition builds a new snapshot; renderers never see in-place mutation.
type Snapshot struct {
	// Products is the currently rendered (possibly filtered) product list.
	Products []catalog.Product
	// CartItems is the projected cart in server order.
	CartItems []cart.ViewItem
	// Session is the current auth state.
	Session session.Session
	// CatalogUnavailable is set when the initial catalog fetch failed and
	// Products is empty for that reason rather than an empty catalog.
	CatalogUnavailable bool
	Notices            []Notice
}

// Mutator is the slice of the cart mutation controller the state needs.
type Mutator interface {
	AddOrUpdate(ctx context.Context, token string, items []cart.ViewItem, products []catalog.Product, productID string, qty int64, opts cartops.Options) ([]cart.ViewItem, error)
}

// Config wires the state to its collaborators.
type Config struct {
	Catalog  catalog.Source
	Carts    cart.Client
	Mutator  Mutator
	Auth     session.Authenticator
	Sessions session.Store
	// DebounceDelay defaults to 500ms when zero.
	DebounceDelay time.Duration
	// Scheduler is optional; nil means real timers.
	Scheduler search.Scheduler
	Logger    *slog.Logger
}

// State is the single owner of the rendered snapshot. All transitions take
// its lock, so callers may invoke it from any goroutine even though the
// intended use is one UI loop.
type State struct {
	catalog  catalog.Source
	carts    cart.Client
	mutator  Mutator
	auth     session.Authenticator
	sessions session.Store
	deb      *search.Debouncer
	log      *slog.Logger

	mu   sync.Mutex
	full []catalog.Product // last unfiltered catalog, search fallback
	snap Snapshot
	subs []chan Snapshot
}

func New(cfg Config) *State {
	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &State{
		catalog:  cfg.Catalog,
		carts:    cfg.Carts,
		mutator:  cfg.Mutator,
		auth:     cfg.Auth,
		sessions: cfg.Sessions,
		log:      cfg.Logger,
	}
	s.deb = search.NewDebouncer(cfg.Catalog, cfg.DebounceDelay, cfg.Scheduler, s.applySearch)
	return s
}

// Load performs the page-load sequence: catalog and cart fetched
// concurrently, projection only once both have resolved. A failed catalog
// fetch leaves the product list empty with CatalogUnavailable set; it never
// keeps stale data.
func (s *State) Load(ctx context.Context) error {
	sess := s.sessions.Get()

	type catalogOut struct {
		products []catalog.Product
		err      error
	}
	type cartOut struct {
		raw []cart.RawEntry
		err error
	}

	catalogCh := make(chan catalogOut, 1)
	cartCh := make(chan cartOut, 1)
	go func() {
		products, err := s.catalog.FetchAll(ctx)
		catalogCh <- catalogOut{products: products, err: err}
	}()
	go func() {
		raw, err := s.carts.FetchCart(ctx, sess.Token)
		cartCh <- cartOut{raw: raw, err: err}
	}()
	cat := <-catalogCh
	crt := <-cartCh

	var notices []Notice
	next := Snapshot{Session: sess}

	if cat.err != nil {
		s.log.Error("catalog fetch failed", slog.String("error", cat.err.Error()))
		next.CatalogUnavailable = true
		notices = append(notices, Notice{LevelError, "Something went wrong. Check the backend console for more details"})
	} else {
		next.Products = cat.products
	}

	switch {
	case crt.err != nil:
		s.log.Error("cart fetch failed", slog.String("error", crt.err.Error()))
		notices = append(notices, Notice{LevelError, "Could not fetch cart details. Check that the backend is running, reachable and returns valid JSON."})
	case cat.err == nil:
		items, err := projection.Project(crt.raw, cat.products)
		if err != nil {
			s.log.Warn("cart projection inconsistent", slog.String("error", err.Error()))
			notices = append(notices, Notice{LevelWarning, err.Error()})
		}
		next.CartItems = items
	}
	next.Notices = notices

	s.mu.Lock()
	s.full = cat.products
	s.snap = next
	s.mu.Unlock()
	s.publish()

	if cat.err != nil {
		return cat.err
	}
	return crt.err
}

// QueryInput feeds one keystroke's worth of search text to the debouncer.
// Only the last query of a burst reaches the server.
func (s *State) QueryInput(ctx context.Context, text string) {
	s.deb.Schedule(ctx, text)
}

// Close tears down the state; the pending debounce timer, if any, is
// cancelled so no callback runs against a torn-down view.
func (s *State) Close() {
	s.deb.Close()
	s.mu.Lock()
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
	s.mu.Unlock()
}

// applySearch is the debouncer sink. A 404 already arrives as an empty
// product list with no error; a server error falls back to the last
// unfiltered catalog plus an error notice; a transport failure keeps the
// current list and only adds the notice.
func (s *State) applySearch(r search.Result) {
	s.mu.Lock()
	next := s.snap
	switch {
	case r.Err == nil:
		next.Products = r.Products
		next.Notices = nil
	case errors.Is(r.Err, catalog.ErrServer):
		next.Products = s.full
		next.Notices = []Notice{{LevelError, r.Err.Error()}}
	default:
		next.Notices = []Notice{{LevelError, "Could not fetch the products. Check that the backend is running, reachable and returns valid JSON."}}
	}
	s.snap = next
	s.mu.Unlock()
	s.publish()

	if r.Err != nil {
		s.log.Error("search failed", slog.String("query", r.Query), slog.String("error", r.Err.Error()))
	}
}

// Add runs the quick-add flow for one product. Validation failures and
// client errors surface as notices; the cart snapshot only changes on a
// successfully applied response.
func (s *State) Add(ctx context.Context, productID string, qty int64, opts cartops.Options) error {
	sess := s.sessions.Get()

	s.mu.Lock()
	items := s.snap.CartItems
	full := s.full
	s.mu.Unlock()

	updated, err := s.mutator.AddOrUpdate(ctx, sess.Token, items, full, productID, qty, opts)

	s.mu.Lock()
	next := s.snap
	switch {
	case errors.Is(err, cart.ErrAuthRequired):
		next.Notices = []Notice{{LevelWarning, "Login to add an item to the Cart"}}
	case errors.Is(err, cart.ErrDuplicateItem):
		next.Notices = []Notice{{LevelWarning, "Item already in cart. Use the cart sidebar to update quantity or remove item."}}
	case errors.Is(err, cart.ErrProjectionInconsistency):
		next.CartItems = updated
		next.Notices = []Notice{{LevelWarning, err.Error()}}
	case errors.Is(err, cart.ErrStaleResponse):
		// A later change already won; the snapshot holds the newer cart.
		next.Notices = nil
		err = nil
	case err != nil:
		next.Notices = []Notice{{LevelError, err.Error()}}
	default:
		next.CartItems = updated
		next.Notices = nil
	}
	s.snap = next
	s.mu.Unlock()
	s.publish()

	return err
}

// Register creates an account. The session is not touched; the web flow
// sends the user to the login page afterwards.
func (s *State) Register(ctx context.Context, in session.RegisterInput) error {
	err := s.auth.Register(ctx, in)

	s.mu.Lock()
	next := s.snap
	if err != nil {
		next.Notices = []Notice{{LevelError, err.Error()}}
	} else {
		next.Notices = []Notice{{LevelSuccess, "Registered successfully"}}
	}
	s.snap = next
	s.mu.Unlock()
	s.publish()

	return err
}

// Login authenticates, stores the session and loads the user's cart
// against the already fetched catalog.
func (s *State) Login(ctx context.Context, in session.LoginInput) error {
	res, err := s.auth.Login(ctx, in)
	if err != nil {
		s.mu.Lock()
		next := s.snap
		next.Notices = []Notice{{LevelError, err.Error()}}
		s.snap = next
		s.mu.Unlock()
		s.publish()
		return err
	}

	sess := session.Session{Token: res.Token, Username: res.Username}
	s.sessions.Set(sess)

	raw, err := s.carts.FetchCart(ctx, sess.Token)

	s.mu.Lock()
	next := s.snap
	next.Session = sess
	switch {
	case err != nil:
		next.Notices = []Notice{{LevelError, "Could not fetch cart details. Check that the backend is running, reachable and returns valid JSON."}}
	default:
		items, perr := projection.Project(raw, s.full)
		if perr != nil {
			next.Notices = []Notice{{LevelWarning, perr.Error()}}
		} else {
			next.Notices = []Notice{{LevelSuccess, "Logged in successfully"}}
		}
		next.CartItems = items
	}
	s.snap = next
	s.mu.Unlock()
	s.publish()

	return err
}

// Logout clears the session and the projected cart.
func (s *State) Logout() {
	s.sessions.Clear()

	s.mu.Lock()
	next := s.snap
	next.Session = session.Session{}
	next.CartItems = nil
	next.Notices = nil
	s.snap = next
	s.mu.Unlock()
	s.publish()
}

// Snapshot returns a copy of the current state. The slices are cloned so a
// renderer holding an old snapshot never sees it change underfoot.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSnapshot(s.snap)
}

// Subscribe returns a channel receiving a snapshot after every transition.
// Slow consumers miss intermediate snapshots rather than blocking the
// state; the latest one is always delivered. The channel closes on Close.
func (s *State) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// publish never blocks, so holding the lock across the sends is safe and
// keeps Close from closing a channel mid-send.
func (s *State) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := cloneSnapshot(s.snap)
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch: // drop the stale snapshot
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func cloneSnapshot(snap Snapshot) Snapshot {
	out := snap
	out.Products = append([]catalog.Product(nil), snap.Products...)
	out.CartItems = append([]cart.ViewItem(nil), snap.CartItems...)
	out.Notices = append([]Notice(nil), snap.Notices...)
	return out
}
