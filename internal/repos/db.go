package repos

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"storefront/internal/domain"
)

//go:embed seed/catalog.json
var seedCatalog []byte

// Demo account seeded on every start. Passwords are only ever stored hashed.
const (
	DemoEmail    = "demo@storefront.test"
	DemoPassword = "Demo!2345"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: transactions stay serialized and ":memory:" is a
	// single shared database.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	if err := seedUsers(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Catalog
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  position INTEGER NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price TEXT NOT NULL,
  original_price TEXT,
  category TEXT NOT NULL DEFAULT '',
  sub_category TEXT NOT NULL DEFAULT '',
  tags_json TEXT NOT NULL DEFAULT '[]',
  brand TEXT NOT NULL DEFAULT '',
  sizes_json TEXT NOT NULL DEFAULT '[]',
  colors_json TEXT NOT NULL DEFAULT '[]',
  stock INTEGER,
  out_of_stock INTEGER NOT NULL DEFAULT 0,
  rating REAL NOT NULL DEFAULT 0,
  review_count INTEGER NOT NULL DEFAULT 0,
  image TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_products_position ON products(position);

-- Users
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

-- Session state (cart, wishlist, checkout, orders) as JSON documents
CREATE TABLE IF NOT EXISTS kv(
  key TEXT PRIMARY KEY,
  value BLOB NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_kv_updated_at ON kv(updated_at);
`
	_, err := db.Exec(schema)
	return err
}

// ParseCatalog decodes a JSON array of products, rejecting entries without
// an id or title and duplicate ids.
func ParseCatalog(b []byte) ([]domain.Product, error) {
	var ps []domain.Product
	if err := json.Unmarshal(b, &ps); err != nil {
		return nil, fmt.Errorf("catalog json: %w", err)
	}
	seen := make(map[string]bool, len(ps))
	for i, p := range ps {
		if p.ID == "" || p.Title == "" {
			return nil, fmt.Errorf("catalog entry %d: id and title are required", i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %q", i, p.ID)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("catalog entry %q: negative price", p.ID)
		}
		seen[p.ID] = true
	}
	return ps, nil
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	ps, err := ParseCatalog(seedCatalog)
	if err != nil {
		return err
	}
	log.Printf("[seed] inserting %d demo products", len(ps))
	return NewProductRepo(db).ReplaceAll(ps)
}

// seedUsers ensures the demo account exists (idempotent).
func seedUsers(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM users WHERE LOWER(email)=LOWER(?)`, DemoEmail); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO users(id,email,name,password_hash)
		VALUES(?,?,?,?)
		ON CONFLICT(email) DO NOTHING
	`, "u-demo", DemoEmail, "Demo Shopper", string(h))
	return err
}
