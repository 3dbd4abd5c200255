package stub

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"example.com/storefront/internal/domain/cart"
	"example.com/storefront/internal/domain/catalog"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	category TEXT NOT NULL,
	cost     REAL NOT NULL,
	rating   REAL NOT NULL,
	image    TEXT NOT NULL,
	pos      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	balance       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS cart_items (
	user_id    TEXT NOT NULL,
	product_id TEXT NOT NULL,
	qty        INTEGER NOT NULL,
	pos        INTEGER NOT NULL,
	PRIMARY KEY (user_id, product_id)
);
`

// SQLiteStore persists the stub's state in a single sqlite file so a dev
// backend keeps its users and carts across restarts.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SeedProducts(ctx context.Context, products []catalog.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}
	for i, p := range products {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO products (id, name, category, cost, rating, image, pos) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Category, p.Cost, p.Rating, p.Image, i)
		if err != nil {
			return fmt.Errorf("insert product %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category, cost, rating, image FROM products ORDER BY pos`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Cost, &p.Rating, &p.Image); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *SQLiteStore) ProductExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("product exists: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string, balance int64) (User, error) {
	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		Balance:      balance,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, balance) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.Balance)
	if err != nil {
		var taken bool
		err2 := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) > 0 FROM users WHERE username = ?`, username).Scan(&taken)
		if err2 == nil && taken {
			return User{}, ErrUsernameTaken
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) UserByName(ctx context.Context, username string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, balance FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("user by name: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) CartFor(ctx context.Context, userID string) ([]cart.RawEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, qty FROM cart_items WHERE user_id = ? ORDER BY pos`, userID)
	if err != nil {
		return nil, fmt.Errorf("cart for user: %w", err)
	}
	defer rows.Close()

	entries := []cart.RawEntry{}
	for rows.Next() {
		var e cart.RawEntry
		if err := rows.Scan(&e.ProductID, &e.Qty); err != nil {
			return nil, fmt.Errorf("scan cart entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) UpsertCartItem(ctx context.Context, userID, productID string, qty int64) ([]cart.RawEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if qty == 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE user_id = ? AND product_id = ?`, userID, productID)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO cart_items (user_id, product_id, qty, pos)
			 VALUES (?, ?, ?, COALESCE((SELECT MAX(pos) + 1 FROM cart_items WHERE user_id = ?), 0))
			 ON CONFLICT (user_id, product_id) DO UPDATE SET qty = excluded.qty`,
			userID, productID, qty, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("upsert cart item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}
	return s.CartFor(ctx, userID)
}
