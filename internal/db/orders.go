package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// Order represents an orders row
type Order struct {
	ID           string
	CustomerID   *string
	BillingName  string
	BillingEmail string
	Status       string
	Total        float64
	RequestID    *string
	Note         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OrderItem represents an order_items row
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Name      string
	Quantity  int
	UnitPrice float64
	Subtotal  float64
	Note      string
}

const orderColumns = `id, customer_id, billing_name, billing_email, status,
	total, request_id, note, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.BillingName, &o.BillingEmail, &o.Status,
		&o.Total, &o.RequestID, &o.Note, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// CreateOrder inserts a new, empty order in pending status.
func (q *Queries) CreateOrder(ctx context.Context, id string) (Order, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO orders (id, status) VALUES ($1, 'pending') RETURNING `+orderColumns,
		id,
	)
	return scanOrder(row)
}

func (q *Queries) GetOrderByID(ctx context.Context, id string) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return o, ErrOrderNotFound
	}
	return o, err
}

type AddOrderItemParams struct {
	ID        string
	OrderID   string
	ProductID string
	Name      string
	Quantity  int
	UnitPrice float64
	Note      string
}

func (q *Queries) AddOrderItem(ctx context.Context, p AddOrderItemParams) (OrderItem, error) {
	var item OrderItem
	err := q.db.QueryRow(ctx,
		`INSERT INTO order_items (id, order_id, product_id, name, quantity, unit_price, subtotal, note)
		VALUES ($1, $2, $3, $4, $5, $6, $5 * $6, $7)
		RETURNING id, order_id, product_id, name, quantity, unit_price, subtotal, note`,
		p.ID, p.OrderID, p.ProductID, p.Name, p.Quantity, p.UnitPrice, p.Note,
	).Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Quantity,
		&item.UnitPrice, &item.Subtotal, &item.Note)
	return item, err
}

func (q *Queries) ListOrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, order_id, product_id, name, quantity, unit_price, subtotal, note
		FROM order_items WHERE order_id = $1 ORDER BY id ASC`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name,
			&item.Quantity, &item.UnitPrice, &item.Subtotal, &item.Note); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SetOrderCustomer attributes the order to a registered customer or to
// billing details harvested from the request.
func (q *Queries) SetOrderCustomer(ctx context.Context, orderID string, customerID *string, billingName, billingEmail string) error {
	_, err := q.db.Exec(ctx,
		`UPDATE orders SET customer_id = $2, billing_name = $3, billing_email = $4, updated_at = NOW()
		WHERE id = $1`,
		orderID, customerID, billingName, billingEmail,
	)
	return err
}

// SetOrderNote records the human-readable order note.
func (q *Queries) SetOrderNote(ctx context.Context, orderID, note string) error {
	_, err := q.db.Exec(ctx,
		`UPDATE orders SET note = $2, updated_at = NOW() WHERE id = $1`,
		orderID, note,
	)
	return err
}

// SetOrderRequestRef writes the back-reference to the originating request.
func (q *Queries) SetOrderRequestRef(ctx context.Context, orderID, requestID string) error {
	_, err := q.db.Exec(ctx,
		`UPDATE orders SET request_id = $2, updated_at = NOW() WHERE id = $1`,
		orderID, requestID,
	)
	return err
}

// RecalculateOrderTotal recomputes the order total from its line items. Must
// run after all items are attached.
func (q *Queries) RecalculateOrderTotal(ctx context.Context, orderID string) (float64, error) {
	var total float64
	err := q.db.QueryRow(ctx,
		`UPDATE orders SET
			total = (SELECT COALESCE(SUM(subtotal), 0) FROM order_items WHERE order_id = $1),
			updated_at = NOW()
		WHERE id = $1
		RETURNING total`,
		orderID,
	).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrOrderNotFound
	}
	return total, err
}
