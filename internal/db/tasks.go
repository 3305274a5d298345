package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Task represents a tasks row
type Task struct {
	ID               string
	RequestID        *string
	Description      string
	Cost             float64
	AssigneeID       *string
	Status           string
	Priority         string
	DueDate          *time.Time
	LineKey          *string
	StorageApproved  bool
	OperatorApproved bool
	OwnerApproved    bool
	QualityApproved  bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const taskColumns = `id, request_id, description, cost, assignee_id, status,
	priority, due_date, line_key, storage_approved, operator_approved,
	owner_approved, quality_approved, created_at, updated_at`

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(
		&t.ID, &t.RequestID, &t.Description, &t.Cost, &t.AssigneeID, &t.Status,
		&t.Priority, &t.DueDate, &t.LineKey, &t.StorageApproved, &t.OperatorApproved,
		&t.OwnerApproved, &t.QualityApproved, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

type CreateTaskParams struct {
	ID          string
	RequestID   *string
	Description string
	Cost        float64
	AssigneeID  *string
	Status      string
	Priority    string
	DueDate     *time.Time
	LineKey     *string
}

func (q *Queries) CreateTask(ctx context.Context, p CreateTaskParams) (Task, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO tasks (
			id, request_id, description, cost, assignee_id, status, priority,
			due_date, line_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+taskColumns,
		p.ID, p.RequestID, p.Description, p.Cost, p.AssigneeID, p.Status,
		p.Priority, p.DueDate, p.LineKey,
	)
	return scanTask(row)
}

// CreateTaskIfNewLine inserts a derived task keyed by its line_key. A replay
// with the same key inserts nothing and returns inserted=false. The conflict
// target repeats the partial index predicate; Postgres only infers a partial
// unique index as arbiter when the clause carries it.
func (q *Queries) CreateTaskIfNewLine(ctx context.Context, p CreateTaskParams) (Task, bool, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO tasks (
			id, request_id, description, cost, assignee_id, status, priority, line_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (request_id, line_key) WHERE line_key IS NOT NULL DO NOTHING
		RETURNING `+taskColumns,
		p.ID, p.RequestID, p.Description, p.Cost, p.AssigneeID, p.Status,
		p.Priority, p.LineKey,
	)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, false, nil
	}
	if err != nil {
		return Task{}, false, err
	}
	return t, true, nil
}

func (q *Queries) GetTaskByID(ctx context.Context, id string) (Task, error) {
	row := q.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrTaskNotFound
	}
	return t, err
}

func (q *Queries) ListTasksByRequest(ctx context.Context, requestID string) ([]Task, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE request_id = $1 ORDER BY created_at ASC`,
		requestID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

type UpdateTaskParams struct {
	ID         string
	Status     *string
	Priority   *string
	Cost       *float64
	AssigneeID *string
	DueDate    *time.Time
}

func (q *Queries) UpdateTask(ctx context.Context, p UpdateTaskParams) (Task, error) {
	row := q.db.QueryRow(ctx,
		`UPDATE tasks SET
			status = COALESCE($2, status),
			priority = COALESCE($3, priority),
			cost = COALESCE($4, cost),
			assignee_id = COALESCE($5, assignee_id),
			due_date = COALESCE($6, due_date),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+taskColumns,
		p.ID, p.Status, p.Priority, p.Cost, p.AssigneeID, p.DueDate,
	)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrTaskNotFound
	}
	return t, err
}

// approvalColumn maps an approval type to its column. The switch keeps the
// column name out of caller-controlled input.
func approvalColumn(approvalType string) (string, error) {
	switch approvalType {
	case "storage":
		return "storage_approved", nil
	case "operator":
		return "operator_approved", nil
	case "owner":
		return "owner_approved", nil
	case "quality":
		return "quality_approved", nil
	}
	return "", fmt.Errorf("unknown approval type: %s", approvalType)
}

// SetTaskApproval persists a single approval flag, leaving the other three
// untouched.
func (q *Queries) SetTaskApproval(ctx context.Context, id, approvalType string, approved bool) (Task, error) {
	col, err := approvalColumn(approvalType)
	if err != nil {
		return Task{}, err
	}
	row := q.db.QueryRow(ctx,
		`UPDATE tasks SET `+col+` = $2, updated_at = NOW() WHERE id = $1 RETURNING `+taskColumns,
		id, approved,
	)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrTaskNotFound
	}
	return t, err
}

// SumTaskCostByRequest returns the total cost of all tasks linked to a request.
func (q *Queries) SumTaskCostByRequest(ctx context.Context, requestID string) (float64, error) {
	var total float64
	err := q.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(cost), 0) FROM tasks WHERE request_id = $1`,
		requestID,
	).Scan(&total)
	return total, err
}
