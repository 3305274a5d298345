package db

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
)

// RepairRequest represents a repair_requests row
type RepairRequest struct {
	ID                     string
	CreatedBy              *string
	Title                  string
	IssueDescription       string
	DeviceType             string
	DeviceModel            string
	SerialNumber           string
	PreferredContactMethod string
	ContactName            string
	ContactEmail           string
	ContactPhone           string
	Status                 string
	Priority               string
	OperatorNotes          string
	SelectedProducts       []byte
	Converted              bool
	LinkedOrderID          *string
	OrderStatusSnapshot    *string
	OrderTotalSnapshot     *float64
	CreatedAt              time.Time
	UpdatedAt              time.Time
	DeletedAt              *time.Time
}

const repairRequestColumns = `id, created_by, title, issue_description, device_type,
	device_model, serial_number, preferred_contact_method, contact_name,
	contact_email, contact_phone, status, priority, operator_notes,
	selected_products, converted, linked_order_id, order_status_snapshot,
	order_total_snapshot, created_at, updated_at, deleted_at`

func scanRepairRequest(row pgx.Row) (RepairRequest, error) {
	var r RepairRequest
	err := row.Scan(
		&r.ID, &r.CreatedBy, &r.Title, &r.IssueDescription, &r.DeviceType,
		&r.DeviceModel, &r.SerialNumber, &r.PreferredContactMethod, &r.ContactName,
		&r.ContactEmail, &r.ContactPhone, &r.Status, &r.Priority, &r.OperatorNotes,
		&r.SelectedProducts, &r.Converted, &r.LinkedOrderID, &r.OrderStatusSnapshot,
		&r.OrderTotalSnapshot, &r.CreatedAt, &r.UpdatedAt, &r.DeletedAt,
	)
	return r, err
}

type CreateRepairRequestParams struct {
	ID                     string
	CreatedBy              *string
	Title                  string
	IssueDescription       string
	DeviceType             string
	DeviceModel            string
	SerialNumber           string
	PreferredContactMethod string
	ContactName            string
	ContactEmail           string
	ContactPhone           string
	Status                 string
	Priority               string
}

func (q *Queries) CreateRepairRequest(ctx context.Context, p CreateRepairRequestParams) (RepairRequest, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO repair_requests (
			id, created_by, title, issue_description, device_type, device_model,
			serial_number, preferred_contact_method, contact_name, contact_email,
			contact_phone, status, priority
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+repairRequestColumns,
		p.ID, p.CreatedBy, p.Title, p.IssueDescription, p.DeviceType, p.DeviceModel,
		p.SerialNumber, p.PreferredContactMethod, p.ContactName, p.ContactEmail,
		p.ContactPhone, p.Status, p.Priority,
	)
	return scanRepairRequest(row)
}

func (q *Queries) GetRepairRequestByID(ctx context.Context, id string) (RepairRequest, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+repairRequestColumns+` FROM repair_requests WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	r, err := scanRepairRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, ErrRequestNotFound
	}
	return r, err
}

type ListRepairRequestsParams struct {
	CreatedBy         *string
	Status            *string
	Priority          *string
	PendingConversion bool
	Limit             int
	Offset            int
}

func (q *Queries) ListRepairRequests(ctx context.Context, p ListRepairRequestsParams) ([]RepairRequest, error) {
	sql := `SELECT ` + repairRequestColumns + ` FROM repair_requests WHERE deleted_at IS NULL`
	args := []any{}
	n := 0
	if p.CreatedBy != nil {
		n++
		sql += ` AND created_by = $` + itoa(n)
		args = append(args, *p.CreatedBy)
	}
	if p.Status != nil {
		n++
		sql += ` AND status = $` + itoa(n)
		args = append(args, *p.Status)
	}
	if p.Priority != nil {
		n++
		sql += ` AND priority = $` + itoa(n)
		args = append(args, *p.Priority)
	}
	if p.PendingConversion {
		sql += ` AND converted = FALSE AND selected_products IS NOT NULL AND selected_products <> '{}'::jsonb`
	}
	sql += ` ORDER BY created_at DESC`
	if p.Limit <= 0 {
		p.Limit = 50
	}
	n++
	sql += ` LIMIT $` + itoa(n)
	args = append(args, p.Limit)
	n++
	sql += ` OFFSET $` + itoa(n)
	args = append(args, p.Offset)

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []RepairRequest
	for rows.Next() {
		r, err := scanRepairRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// UpdateRepairRequestParams carries optional fields; nil fields keep the
// stored value (COALESCE in SQL).
type UpdateRepairRequestParams struct {
	ID               string
	Status           *string
	Priority         *string
	OperatorNotes    *string
	ContactPhone     *string
	SelectedProducts []byte
}

func (q *Queries) UpdateRepairRequest(ctx context.Context, p UpdateRepairRequestParams) (RepairRequest, error) {
	row := q.db.QueryRow(ctx,
		`UPDATE repair_requests SET
			status = COALESCE($2, status),
			priority = COALESCE($3, priority),
			operator_notes = COALESCE($4, operator_notes),
			contact_phone = COALESCE($5, contact_phone),
			selected_products = COALESCE($6, selected_products),
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+repairRequestColumns,
		p.ID, p.Status, p.Priority, p.OperatorNotes, p.ContactPhone, p.SelectedProducts,
	)
	r, err := scanRepairRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, ErrRequestNotFound
	}
	return r, err
}

func (q *Queries) SoftDeleteRepairRequest(ctx context.Context, id string) error {
	result, err := q.db.Exec(ctx,
		`UPDATE repair_requests SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// MarkRequestConverted is the exclusive check-and-set guarding conversion:
// only one caller can flip converted from false to true.
func (q *Queries) MarkRequestConverted(ctx context.Context, id string) error {
	result, err := q.db.Exec(ctx,
		`UPDATE repair_requests SET converted = TRUE, updated_at = NOW()
		WHERE id = $1 AND converted = FALSE AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyConverted
	}
	return nil
}

// SetRequestOrderSnapshot writes the forward-references after conversion.
func (q *Queries) SetRequestOrderSnapshot(ctx context.Context, id, orderID, statusLabel string, total float64) error {
	_, err := q.db.Exec(ctx,
		`UPDATE repair_requests SET
			linked_order_id = $2,
			order_status_snapshot = $3,
			order_total_snapshot = $4,
			status = 'converted',
			updated_at = NOW()
		WHERE id = $1`,
		id, orderID, statusLabel, total,
	)
	return err
}

func itoa(n int) string { return strconv.Itoa(n) }
