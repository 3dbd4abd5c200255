// Package stub is a self-contained storefront backend implementing the API
// the clients in internal/infra/api target. It exists for local development
// and integration tests; no external services are required.
package stub

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"example.com/storefront/internal/domain/cart"
	"example.com/storefront/internal/domain/catalog"
)

var (
	ErrUsernameTaken = errors.New("username is already taken")
	ErrUserNotFound  = errors.New("user not found")
)

// User is a registered stub account. Balance is the wallet amount new
// accounts start with.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Balance      int64
}

// Store is the stub's persistence port. MemoryStore keeps everything in
// process; SQLiteStore survives restarts.
type Store interface {
	SeedProducts(ctx context.Context, products []catalog.Product) error
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	ProductExists(ctx context.Context, id string) (bool, error)

	CreateUser(ctx context.Context, username, passwordHash string, balance int64) (User, error)
	UserByName(ctx context.Context, username string) (User, error)

	CartFor(ctx context.Context, userID string) ([]cart.RawEntry, error)
	// UpsertCartItem sets the quantity for one product: an existing entry
	// is updated in place (keeping its position), a new one is appended,
	// qty zero removes it. Returns the full updated cart.
	UpsertCartItem(ctx context.Context, userID, productID string, qty int64) ([]cart.RawEntry, error)
}

// FilterProducts is the stub's search: case-insensitive substring match on
// name or category, preserving catalog order.
func FilterProducts(products []catalog.Product, query string) []catalog.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return products
	}
	var out []catalog.Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Category), q) {
			out = append(out, p)
		}
	}
	return out
}

// MemoryStore is the default store for tests and throwaway runs.
type MemoryStore struct {
	mu       sync.RWMutex
	products []catalog.Product
	users    map[string]User            // by username
	carts    map[string][]cart.RawEntry // by user id, insertion order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]User),
		carts: make(map[string][]cart.RawEntry),
	}
}

func (m *MemoryStore) SeedProducts(ctx context.Context, products []catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append([]catalog.Product(nil), products...)
	return nil
}

func (m *MemoryStore) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]catalog.Product(nil), m.products...), nil
}

func (m *MemoryStore) ProductExists(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.products {
		if p.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, username, passwordHash string, balance int64) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[username]; exists {
		return User{}, ErrUsernameTaken
	}
	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		Balance:      balance,
	}
	m.users[username] = u
	return u, nil
}

func (m *MemoryStore) UserByName(ctx context.Context, username string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *MemoryStore) CartFor(ctx context.Context, userID string) ([]cart.RawEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]cart.RawEntry(nil), m.carts[userID]...), nil
}

func (m *MemoryStore) UpsertCartItem(ctx context.Context, userID, productID string, qty int64) ([]cart.RawEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.carts[userID]
	idx := -1
	for i, e := range entries {
		if e.ProductID == productID {
			idx = i
			break
		}
	}
	switch {
	case qty == 0 && idx >= 0:
		entries = append(entries[:idx], entries[idx+1:]...)
	case idx >= 0:
		entries[idx].Qty = qty
	case qty > 0:
		entries = append(entries, cart.RawEntry{ProductID: productID, Qty: qty})
	}
	m.carts[userID] = entries
	return append([]cart.RawEntry(nil), entries...), nil
}
