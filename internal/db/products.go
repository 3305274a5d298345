package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Product represents a products row
type Product struct {
	ID     string
	Name   string
	SKU    string
	Kind   string
	Status string
	Price  float64
}

func (q *Queries) GetProductByID(ctx context.Context, id string) (Product, error) {
	var p Product
	err := q.db.QueryRow(ctx,
		`SELECT id, name, sku, kind, status, price FROM products WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.SKU, &p.Kind, &p.Status, &p.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrProductNotFound
	}
	return p, err
}

// SearchProducts matches published simple/variable products by name or SKU,
// ordered by name.
func (q *Queries) SearchProducts(ctx context.Context, term string, limit int) ([]Product, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, name, sku, kind, status, price FROM products
		WHERE status = 'publish'
		  AND kind IN ('simple', 'variable')
		  AND (name ILIKE '%' || $1 || '%' OR sku ILIKE '%' || $1 || '%')
		ORDER BY name ASC
		LIMIT $2`,
		term, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &p.Kind, &p.Status, &p.Price); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

type CreateProductParams struct {
	ID     string
	Name   string
	SKU    string
	Kind   string
	Status string
	Price  float64
}

func (q *Queries) CreateProduct(ctx context.Context, p CreateProductParams) (Product, error) {
	var out Product
	err := q.db.QueryRow(ctx,
		`INSERT INTO products (id, name, sku, kind, status, price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, sku, kind, status, price`,
		p.ID, p.Name, p.SKU, p.Kind, p.Status, p.Price,
	).Scan(&out.ID, &out.Name, &out.SKU, &out.Kind, &out.Status, &out.Price)
	return out, err
}
