package repos

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

type productRow struct {
	ID            string         `db:"id"`
	Position      int            `db:"position"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	Price         string         `db:"price"`
	OriginalPrice sql.NullString `db:"original_price"`
	Category      string         `db:"category"`
	SubCategory   string         `db:"sub_category"`
	TagsJSON      string         `db:"tags_json"`
	Brand         string         `db:"brand"`
	SizesJSON     string         `db:"sizes_json"`
	ColorsJSON    string         `db:"colors_json"`
	Stock         sql.NullInt64  `db:"stock"`
	OutOfStock    bool           `db:"out_of_stock"`
	Rating        float64        `db:"rating"`
	ReviewCount   int            `db:"review_count"`
	Image         string         `db:"image"`
}

const productCols = `id, position, title, description, price, original_price, category, sub_category,
    tags_json, brand, sizes_json, colors_json, stock, out_of_stock, rating, review_count, image`

func (r productRow) product() (domain.Product, error) {
	p := domain.Product{
		ID: r.ID, Title: r.Title, Description: r.Description,
		Category: r.Category, SubCategory: r.SubCategory, Brand: r.Brand,
		OutOfStock: r.OutOfStock, Rating: r.Rating, ReviewCount: r.ReviewCount, Image: r.Image,
	}
	var err error
	if p.Price, err = decimal.NewFromString(r.Price); err != nil {
		return p, fmt.Errorf("product %s price: %w", r.ID, err)
	}
	if r.OriginalPrice.Valid {
		d, err := decimal.NewFromString(r.OriginalPrice.String)
		if err != nil {
			return p, fmt.Errorf("product %s original price: %w", r.ID, err)
		}
		p.OriginalPrice = decimal.NewNullDecimal(d)
	}
	if r.Stock.Valid {
		n := int(r.Stock.Int64)
		p.Stock = &n
	}
	for _, f := range []struct {
		raw string
		dst *[]string
	}{{r.TagsJSON, &p.Tags}, {r.SizesJSON, &p.Sizes}, {r.ColorsJSON, &p.Colors}} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return p, fmt.Errorf("product %s lists: %w", r.ID, err)
		}
	}
	return p, nil
}

// All returns the catalog in its stored order.
func (r *ProductRepo) All() ([]domain.Product, error) {
	var rows []productRow
	if err := r.db.Select(&rows, `SELECT `+productCols+` FROM products ORDER BY position`); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		p, err := row.product()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Get returns sql.ErrNoRows for unknown ids.
func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var row productRow
	if err := r.db.Get(&row, `SELECT `+productCols+` FROM products WHERE id = ?`, id); err != nil {
		return domain.Product{}, err
	}
	return row.product()
}

// ReplaceAll swaps the whole catalog in one transaction, keeping the slice
// order as the catalog order.
func (r *ProductRepo) ReplaceAll(ps []domain.Product) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM products`); err != nil {
		return err
	}
	for i, p := range ps {
		tags, _ := json.Marshal(orEmpty(p.Tags))
		sizes, _ := json.Marshal(orEmpty(p.Sizes))
		colors, _ := json.Marshal(orEmpty(p.Colors))
		var orig sql.NullString
		if p.OriginalPrice.Valid {
			orig = sql.NullString{String: p.OriginalPrice.Decimal.String(), Valid: true}
		}
		var stock sql.NullInt64
		if p.Stock != nil {
			stock = sql.NullInt64{Int64: int64(*p.Stock), Valid: true}
		}
		if _, err := tx.Exec(`
			INSERT INTO products(`+productCols+`)
			VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		`, p.ID, i, p.Title, p.Description, p.Price.String(), orig, p.Category, p.SubCategory,
			string(tags), p.Brand, string(sizes), string(colors), stock, p.OutOfStock, p.Rating, p.ReviewCount, p.Image); err != nil {
			return fmt.Errorf("insert %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
