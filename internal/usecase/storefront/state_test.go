package storefront

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/storefront/internal/domain/cart"
	"example.com/storefront/internal/domain/catalog"
	"example.com/storefront/internal/domain/session"
	"example.com/storefront/internal/usecase/cartops"
	"example.com/storefront/internal/usecase/search"
)

type fakeScheduler struct {
	timers []*fakeTimer
}

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := t.stopped
	t.stopped = true
	return !was
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) search.Timer {
	t := &fakeTimer{f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) fireLast() {
	t := s.timers[len(s.timers)-1]
	if !t.stopped {
		t.f()
	}
}

type mockCatalog struct {
	all       []catalog.Product
	allErr    error
	searchRes map[string][]catalog.Product
	searchErr error
	searches  []string
}

func (m *mockCatalog) FetchAll(ctx context.Context) ([]catalog.Product, error) {
	if m.allErr != nil {
		return nil, m.allErr
	}
	return m.all, nil
}

func (m *mockCatalog) Search(ctx context.Context, query string) ([]catalog.Product, error) {
	m.searches = append(m.searches, query)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchRes[query], nil
}

type mockCarts struct {
	raw      []cart.RawEntry
	fetchErr error
	posted   []cart.RawEntry
	postErr  error
	postFn   func(ctx context.Context, token, productID string, qty int64) ([]cart.RawEntry, error)
}

func (m *mockCarts) FetchCart(ctx context.Context, token string) ([]cart.RawEntry, error) {
	if token == "" {
		return nil, nil
	}
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.raw, nil
}

func (m *mockCarts) PostCartChange(ctx context.Context, token, productID string, qty int64) ([]cart.RawEntry, error) {
	if m.postFn != nil {
		return m.postFn(ctx, token, productID, qty)
	}
	if m.postErr != nil {
		return nil, m.postErr
	}
	return m.posted, nil
}

type mockAuth struct {
	registerErr error
	loginRes    *session.LoginResult
	loginErr    error
}

func (m *mockAuth) Register(ctx context.Context, in session.RegisterInput) error {
	return m.registerErr
}

func (m *mockAuth) Login(ctx context.Context, in session.LoginInput) (*session.LoginResult, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.loginRes, nil
}

type memSessions struct {
	sess session.Session
}

func (m *memSessions) Get() session.Session  { return m.sess }
func (m *memSessions) Set(s session.Session) { m.sess = s }
func (m *memSessions) Clear()                { m.sess = session.Session{} }

var demoCatalog = []catalog.Product{
	{ID: "A", Name: "Phone", Category: "Phones", Cost: 100, Rating: 4, Image: "https://img/a.jpg"},
	{ID: "B", Name: "Basketball", Category: "Sports", Cost: 40, Rating: 5, Image: "https://img/b.jpg"},
}

func newTestState(cat *mockCatalog, carts *mockCarts, auth *mockAuth, sessions *memSessions, sched *fakeScheduler) *State {
	return New(Config{
		Catalog:   cat,
		Carts:     carts,
		Mutator:   cartops.NewService(carts, nil),
		Auth:      auth,
		Sessions:  sessions,
		Scheduler: sched,
	})
}

func TestLoadProjectsCartAfterBothFetches(t *testing.T) {
	cat := &mockCatalog{all: demoCatalog}
	carts := &mockCarts{raw: []cart.RawEntry{{ProductID: "A", Qty: 2}}}
	sessions := &memSessions{sess: session.Session{Token: "t", Username: "ada"}}
	s := newTestState(cat, carts, &mockAuth{}, sessions, &fakeScheduler{})

	require.NoError(t, s.Load(context.Background()))

	snap := s.Snapshot()
	require.Len(t, snap.Products, 2)
	require.Len(t, snap.CartItems, 1)
	require.Equal(t, "Phone", snap.CartItems[0].Name)
	require.Equal(t, int64(2), snap.CartItems[0].Qty)
	require.False(t, snap.CatalogUnavailable)
	require.Empty(t, snap.Notices)
}

func TestLoadWithoutTokenSkipsCart(t *testing.T) {
	cat := &mockCatalog{all: demoCatalog}
	carts := &mockCarts{fetchErr: cart.ErrUnauthorized}
	s := newTestState(cat, carts, &mockAuth{}, &memSessions{}, &fakeScheduler{})

	require.NoError(t, s.Load(context.Background()))

	snap := s.Snapshot()
	require.Len(t, snap.Products, 2)
	require.Empty(t, snap.CartItems)
	require.Empty(t, snap.Notices)
}

func TestLoadCatalogFailureLeavesEmptyListWithSignal(t *testing.T) {
	cat := &mockCatalog{allErr: catalog.ErrUnavailable}
	s := newTestState(cat, &mockCarts{}, &mockAuth{}, &memSessions{}, &fakeScheduler{})

	err := s.Load(context.Background())
	require.ErrorIs(t, err, catalog.ErrUnavailable)

	snap := s.Snapshot()
	require.Empty(t, snap.Products)
	require.True(t, snap.CatalogUnavailable)
	require.NotEmpty(t, snap.Notices)
	require.Equal(t, LevelError, snap.Notices[0].Level)
}

func TestSearchReplacesProductsButNotCart(t *testing.T) {
	cat := &mockCatalog{
		all:       demoCatalog,
		searchRes: map[string][]catalog.Product{"phone": demoCatalog[:1]},
	}
	carts := &mockCarts{raw: []cart.RawEntry{{ProductID: "B", Qty: 1}}}
	sessions := &memSessions{sess: session.Session{Token: "t"}}
	sched := &fakeScheduler{}
	s := newTestState(cat, carts, &mockAuth{}, sessions, sched)
	require.NoError(t, s.Load(context.Background()))

	s.QueryInput(context.Background(), "ph")
	s.QueryInput(context.Background(), "phone")
	sched.fireLast()

	require.Equal(t, []string{"phone"}, cat.searches)
	snap := s.Snapshot()
	require.Len(t, snap.Products, 1)
	require.Equal(t, "Phone", snap.Products[0].Name)
	require.Len(t, snap.CartItems, 1, "search must not touch the cart view")
}

func TestSearchNoMatchesYieldsEmptyListNoNotice(t *testing.T) {
	cat := &mockCatalog{all: demoCatalog, searchRes: map[string][]catalog.Product{}}
	sched := &fakeScheduler{}
	s := newTestState(cat, &mockCarts{}, &mockAuth{}, &memSessions{}, sched)
	require.NoError(t, s.Load(context.Background()))

	s.QueryInput(context.Background(), "zzz")
	sched.fireLast()

	snap := s.Snapshot()
	require.Empty(t, snap.Products)
	require.Empty(t, snap.Notices, "404 is not an error state")
}

func TestSearchServerErrorFallsBackToFullCatalog(t *testing.T) {
	cat := &mockCatalog{all: demoCatalog}
	sched := &fakeScheduler{}
	s := newTestState(cat, &mockCarts{}, &mockAuth{}, &memSessions{}, sched)
	require.NoError(t, s.Load(context.Background()))

	cat.searchErr = fmt.Errorf("%w: boom", catalog.ErrServer)
	s.QueryInput(context.Background(), "phone")
	sched.fireLast()

	snap := s.Snapshot()
	require.Len(t, snap.Products, 2, "falls back to last unfiltered catalog")
	require.NotEmpty(t, snap.Notices)
	require.Equal(t, LevelError, snap.Notices[0].Level)
}

func TestSearchTransportFailureKeepsCurrentList(t *testing.T) {
	cat := &mockCatalog{
		all:       demoCatalog,
		searchRes: map[string][]catalog.Product{"phone": demoCatalog[:1]},
	}
	sched := &fakeScheduler{}
	s := newTestState(cat, &mockCarts{}, &mockAuth{}, &memSessions{}, sched)
	require.NoError(t, s.Load(context.Background()))

	s.QueryInput(context.Background(), "phone")
	sched.fireLast()

	cat.searchErr = catalog.ErrUnavailable
	s.QueryInput(context.Background(), "basket")
	sched.fireLast()

	snap := s.Snapshot()
	require.Len(t, snap.Products, 1, "failed search keeps the rendered list")
	require.NotEmpty(t, snap.Notices)
}

func TestAddWithoutTokenSurfacesLoginNotice(t *testing.T) {
	cat := &mockCatalog{all: demoCatalog}
	s := newTestState(cat, &mockCarts{}, &mockAuth{}, &memSessions{}, &fakeScheduler{})
	require.NoError(t, s.Load(context.Background()))

	err := s.Add(context.Background(), "A", 1, cartops.Options{PreventDuplicate: true})
	require.ErrorIs(t, err, cart.ErrAuthRequired)

	snap := s.Snapshot()
	require.Empty(t, snap.CartItems)
	require.Equal(t, []Notice{{LevelWarning, "Login to add an item to the Cart"}}, snap.Notices)
}

func TestAddDuplicateSurfacesNotice(t *testing.T) {
	cat := &mockCatalog{all: demoCatalog}
	carts := &mockCarts{raw: []cart.RawEntry{{ProductID: "A", Qty: 1}}}
	sessions := &memSessions{sess: session.Session{Token: "t"}}
	s := newTestState(cat, carts, &mockAuth{}, sessions, &fakeScheduler{})
	require.NoError(t, s.Load(context.Background()))

	err := s.Add(context.Background(), "A", 1, cartops.Options{PreventDuplicate: true})
	require.ErrorIs(t, err, cart.ErrDuplicateItem)

	snap := s.Snapshot()
	require.Len(t, snap.CartItems, 1)
	require.Equal(t, int64(1), snap.CartItems[0].Qty, "cart unchanged")
	require.Equal(t, LevelWarning, snap.Notices[0].Level)
}

func TestAddSuccessReplacesCartItems(t *testing.T) {
	cat := &mockCatalog{all: demoCatalog}
	carts := &mockCarts{posted: []cart.RawEntry{{ProductID: "A", Qty: 1}}}
	sessions := &memSessions{sess: session.Session{Token: "t"}}
	s := newTestState(cat, carts, &mockAuth{}, sessions, &fakeScheduler{})
	require.NoError(t, s.Load(context.Background()))

	require.NoError(t, s.Add(context.Background(), "A", 1, cartops.Options{PreventDuplicate: true}))

	snap := s.Snapshot()
	require.Len(t, snap.CartItems, 1)
	require.Equal(t, "A", snap.CartItems[0].ProductID)
	require.Equal(t, int64(1), snap.CartItems[0].Qty)
	require.Equal(t, "Phone", snap.CartItems[0].Name)
}

func TestAddFailureLeavesCartIntact(t *testing.T) {
	cat := &mockCatalog{all: demoCatalog}
	carts := &mockCarts{
		raw:     []cart.RawEntry{{ProductID: "B", Qty: 2}},
		postErr: fmt.Errorf("%w: Product doesn't exist", cart.ErrProductNotFound),
	}
	sessions := &memSessions{sess: session.Session{Token: "t"}}
	s := newTestState(cat, carts, &mockAuth{}, sessions, &fakeScheduler{})
	require.NoError(t, s.Load(context.Background()))

	err := s.Add(context.Background(), "nope", 1, cartops.Options{})
	require.ErrorIs(t, err, cart.ErrProductNotFound)

	snap := s.Snapshot()
	require.Len(t, snap.CartItems, 1)
	require.Equal(t, "B", snap.CartItems[0].ProductID)
	require.Equal(t, LevelError, snap.Notices[0].Level)
}

func TestAddStaleResponseDoesNotRollBackCart(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})

	cat := &mockCatalog{all: demoCatalog}
	carts := &mockCarts{}
	var mu sync.Mutex
	call := 0
	carts.postFn = func(ctx context.Context, token, productID string, qty int64) ([]cart.RawEntry, error) {
		mu.Lock()
		call++
		n := call
		mu.Unlock()
		if n == 1 {
			close(firstStarted)
			<-releaseFirst
			return []cart.RawEntry{{ProductID: "A", Qty: 1}}, nil
		}
		return []cart.RawEntry{{ProductID: "A", Qty: 1}, {ProductID: "B", Qty: 1}}, nil
	}
	sessions := &memSessions{sess: session.Session{Token: "t"}}
	s := newTestState(cat, carts, &mockAuth{}, sessions, &fakeScheduler{})
	require.NoError(t, s.Load(context.Background()))

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		firstErr = s.Add(context.Background(), "A", 1, cartops.Options{PreventDuplicate: true})
	}()

	<-firstStarted

	require.NoError(t, s.Add(context.Background(), "B", 1, cartops.Options{PreventDuplicate: true}))
	require.Len(t, s.Snapshot().CartItems, 2)

	close(releaseFirst)
	wg.Wait()

	// The delayed one-item response lost the race; the two-item cart from
	// the later change must survive it.
	require.NoError(t, firstErr)
	snap := s.Snapshot()
	require.Len(t, snap.CartItems, 2)
	require.Empty(t, snap.Notices)
}

func TestLoginStoresSessionAndLoadsCart(t *testing.T) {
	cat := &mockCatalog{all: demoCatalog}
	carts := &mockCarts{raw: []cart.RawEntry{{ProductID: "A", Qty: 3}}}
	sessions := &memSessions{}
	auth := &mockAuth{loginRes: &session.LoginResult{Token: "tok", Username: "ada", Balance: 5000}}
	s := newTestState(cat, carts, auth, sessions, &fakeScheduler{})
	require.NoError(t, s.Load(context.Background()))

	require.NoError(t, s.Login(context.Background(), session.LoginInput{Username: "ada", Password: "secret"}))

	require.Equal(t, "tok", sessions.Get().Token)
	snap := s.Snapshot()
	require.True(t, snap.Session.LoggedIn())
	require.Equal(t, "ada", snap.Session.Username)
	require.Len(t, snap.CartItems, 1)
	require.Equal(t, int64(3), snap.CartItems[0].Qty)
}

func TestLogoutClearsSessionAndCart(t *testing.T) {
	cat := &mockCatalog{all: demoCatalog}
	carts := &mockCarts{raw: []cart.RawEntry{{ProductID: "A", Qty: 1}}}
	sessions := &memSessions{sess: session.Session{Token: "t", Username: "ada"}}
	s := newTestState(cat, carts, &mockAuth{}, sessions, &fakeScheduler{})
	require.NoError(t, s.Load(context.Background()))

	s.Logout()

	require.False(t, sessions.Get().LoggedIn())
	snap := s.Snapshot()
	require.False(t, snap.Session.LoggedIn())
	require.Empty(t, snap.CartItems)
}

func TestSubscribeDeliversLatestSnapshot(t *testing.T) {
	cat := &mockCatalog{all: demoCatalog}
	s := newTestState(cat, &mockCarts{}, &mockAuth{}, &memSessions{}, &fakeScheduler{})

	ch := s.Subscribe()
	require.NoError(t, s.Load(context.Background()))

	snap := <-ch
	require.Len(t, snap.Products, 2)

	s.Close()
	_, open := <-ch
	require.False(t, open)
}

func TestSnapshotIsACopy(t *testing.T) {
	cat := &mockCatalog{all: demoCatalog}
	s := newTestState(cat, &mockCarts{}, &mockAuth{}, &memSessions{}, &fakeScheduler{})
	require.NoError(t, s.Load(context.Background()))

	snap := s.Snapshot()
	snap.Products[0].Name = "mutated"

	require.Equal(t, "Phone", s.Snapshot().Products[0].Name)
}
