package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"repairdesk/internal/db"
	"repairdesk/internal/model"
	"repairdesk/internal/schema"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestPool connects to the database named by TEST_DATABASE_URL and
// applies the schema. Tests build their own fixtures with fresh ids, so
// runs never step on each other.
func setupTestPool(t *testing.T) *db.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping database test")
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping database test: TEST_DATABASE_URL not set")
	}

	pool, err := db.NewPool(dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schemaSQL, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_init.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(context.Background(), string(schemaSQL))
	require.NoError(t, err)

	return pool
}

func createTestUser(t *testing.T, pool *db.Pool, role string) db.User {
	t.Helper()
	id := ulid.Make().String()
	user, err := pool.Queries.CreateUser(context.Background(), id, id+"@example.com", "Test "+role, role)
	require.NoError(t, err)
	return user
}

func createTestProduct(t *testing.T, pool *db.Pool, name string, price float64) db.Product {
	t.Helper()
	product, err := pool.Queries.CreateProduct(context.Background(), db.CreateProductParams{
		ID:     ulid.Make().String(),
		Name:   name,
		SKU:    "SKU-" + ulid.Make().String()[:8],
		Kind:   string(model.ProductKindSimple),
		Status: "publish",
		Price:  price,
	})
	require.NoError(t, err)
	return product
}

func submitTestRequest(t *testing.T, pool *db.Pool, createdBy string) *model.RepairRequest {
	t.Helper()
	s := NewRequestService(pool.Queries, schema.NewValidator(), &MockEventBus{})
	req, err := s.SubmitRequest(context.Background(), SubmitRequestInput{
		Title:                  "Cracked screen",
		IssueDescription:       "Screen shattered after a drop",
		DeviceType:             "phone",
		DeviceModel:            "Pixel 8",
		PreferredContactMethod: "email",
		ContactName:            "Pat Walk-In",
		ContactEmail:           "pat@example.com",
		CreatedBy:              createdBy,
	})
	require.NoError(t, err)
	return req
}

func TestRequestService_SubmitRequest(t *testing.T) {
	pool := setupTestPool(t)

	req := submitTestRequest(t, pool, "")

	// Submitters never pick status or priority.
	assert.Equal(t, model.RequestStatusPendingReview, req.Status)
	assert.Equal(t, model.PriorityMedium, req.Priority)
	assert.False(t, req.Converted)
	assert.Nil(t, req.CreatedBy)

	s := NewRequestService(pool.Queries, schema.NewValidator(), &MockEventBus{})
	got, err := s.GetRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)
	assert.Equal(t, "Cracked screen", got.Title)
}

func TestTaskService_DeriveTasks(t *testing.T) {
	pool := setupTestPool(t)
	ctx := context.Background()

	tech := createTestUser(t, pool, "technician")
	req := submitTestRequest(t, pool, "")

	s := NewTaskService(pool.Queries, schema.NewValidator(), &MockEventBus{})
	lines := []TaskLine{
		{Description: "Replace screen", Cost: 120},
		{Description: "Run diagnostics", Cost: 30, AssigneeID: tech.ID},
	}

	result, err := s.DeriveTasks(ctx, req.ID, lines)
	require.NoError(t, err)
	require.Len(t, result.Created, 2)
	assert.Equal(t, 0, result.Skipped)

	assert.Equal(t, model.TaskStatusPending, result.Created[0].Status)
	assert.Equal(t, model.TaskStatusAssigned, result.Created[1].Status)
	for _, task := range result.Created {
		assert.False(t, task.StorageApproved)
		assert.False(t, task.OperatorApproved)
		assert.False(t, task.OwnerApproved)
		assert.False(t, task.QualityApproved)
	}

	// Replaying the same lines must create nothing more.
	replay, err := s.DeriveTasks(ctx, req.ID, lines)
	require.NoError(t, err)
	assert.Empty(t, replay.Created)
	assert.Equal(t, 2, replay.Skipped)

	tasks, err := s.ListTasksByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	total, err := s.TotalCostByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.InDelta(t, 150.0, total, 0.001)
}

func TestTaskService_DeriveTasks_NewLineAfterReplay(t *testing.T) {
	pool := setupTestPool(t)
	ctx := context.Background()

	req := submitTestRequest(t, pool, "")
	s := NewTaskService(pool.Queries, schema.NewValidator(), &MockEventBus{})

	_, err := s.DeriveTasks(ctx, req.ID, []TaskLine{{Description: "Replace screen", Cost: 120}})
	require.NoError(t, err)

	// An appended line is new; the untouched line is skipped.
	result, err := s.DeriveTasks(ctx, req.ID, []TaskLine{
		{Description: "Replace screen", Cost: 120},
		{Description: "Replace battery", Cost: 80},
	})
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	assert.Equal(t, "Replace battery", result.Created[0].Description)
	assert.Equal(t, 1, result.Skipped)
}

func TestTaskService_SetApproval(t *testing.T) {
	pool := setupTestPool(t)
	ctx := context.Background()

	req := submitTestRequest(t, pool, "")
	s := NewTaskService(pool.Queries, schema.NewValidator(), &MockEventBus{})

	derived, err := s.DeriveTasks(ctx, req.ID, []TaskLine{{Description: "Replace screen", Cost: 120}})
	require.NoError(t, err)
	taskID := derived.Created[0].ID

	// Each flag toggles independently; the other three never move.
	task, err := s.SetApproval(ctx, taskID, "quality", true)
	require.NoError(t, err)
	assert.True(t, task.QualityApproved)
	assert.False(t, task.StorageApproved)
	assert.False(t, task.OperatorApproved)
	assert.False(t, task.OwnerApproved)
	assert.Equal(t, model.TaskStatusPending, task.Status)

	task, err = s.SetApproval(ctx, taskID, "storage", true)
	require.NoError(t, err)
	assert.True(t, task.StorageApproved)
	assert.True(t, task.QualityApproved)

	task, err = s.SetApproval(ctx, taskID, "quality", false)
	require.NoError(t, err)
	assert.False(t, task.QualityApproved)
	assert.True(t, task.StorageApproved)
}

func TestOrderService_ConvertRequest(t *testing.T) {
	pool := setupTestPool(t)
	ctx := context.Background()

	screen := createTestProduct(t, pool, "Replacement screen", 99.50)
	battery := createTestProduct(t, pool, "Battery", 25.00)
	req := submitTestRequest(t, pool, "")

	selection := map[string]model.SelectedProduct{
		screen.ID:           {Quantity: 1},
		battery.ID:          {Quantity: 2, Note: "high capacity"},
		"gone-" + req.ID:    {Quantity: 1}, // vanished from the catalog
		"zeroqty-" + req.ID: {Quantity: 0},
	}

	s := NewOrderService(pool, &MockEventBus{})
	result, err := s.ConvertRequest(ctx, req.ID, selection)
	require.NoError(t, err)

	require.Len(t, result.Order.Items, 2)
	assert.InDelta(t, 149.50, result.Order.Total, 0.001)
	assert.ElementsMatch(t, []string{"gone-" + req.ID, "zeroqty-" + req.ID}, result.SkippedItems)
	require.NotNil(t, result.Order.RequestID)
	assert.Equal(t, req.ID, *result.Order.RequestID)

	// Guest submission: billing comes from the contact fields.
	assert.Nil(t, result.Order.CustomerID)
	assert.Equal(t, "Pat Walk-In", result.Order.BillingName)
	assert.Equal(t, "pat@example.com", result.Order.BillingEmail)

	// The request carries the forward references and matching snapshots.
	rs := NewRequestService(pool.Queries, schema.NewValidator(), &MockEventBus{})
	converted, err := rs.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, converted.Converted)
	assert.Equal(t, model.RequestStatusConverted, converted.Status)
	require.NotNil(t, converted.LinkedOrderID)
	assert.Equal(t, result.Order.ID, *converted.LinkedOrderID)
	require.NotNil(t, converted.OrderTotalSnapshot)
	assert.InDelta(t, result.Order.Total, *converted.OrderTotalSnapshot, 0.001)
	require.NotNil(t, converted.OrderStatusSnapshot)
	assert.Equal(t, model.OrderStatusLabel(model.OrderStatusPending), *converted.OrderStatusSnapshot)

	// Conversion is one-way: a second attempt conflicts, and exactly one
	// order exists for the request.
	_, err = s.ConvertRequest(ctx, req.ID, selection)
	assert.ErrorIs(t, err, db.ErrAlreadyConverted)
}

func TestOrderService_ConvertRequest_AuthorAttribution(t *testing.T) {
	pool := setupTestPool(t)
	ctx := context.Background()

	customer := createTestUser(t, pool, "customer")
	product := createTestProduct(t, pool, "Hinge kit", 40.00)
	req := submitTestRequest(t, pool, customer.ID)

	s := NewOrderService(pool, &MockEventBus{})
	result, err := s.ConvertRequest(ctx, req.ID, map[string]model.SelectedProduct{
		product.ID: {Quantity: 1},
	})
	require.NoError(t, err)

	require.NotNil(t, result.Order.CustomerID)
	assert.Equal(t, customer.ID, *result.Order.CustomerID)
	assert.Equal(t, customer.Email, result.Order.BillingEmail)
}

func TestOrderService_ConvertRequest_AllSkippedStaysConvertible(t *testing.T) {
	pool := setupTestPool(t)
	ctx := context.Background()

	req := submitTestRequest(t, pool, "")
	s := NewOrderService(pool, &MockEventBus{})

	// Every entry is missing from the catalog: no order, and the failed
	// attempt must not burn the converted flag.
	_, err := s.ConvertRequest(ctx, req.ID, map[string]model.SelectedProduct{
		fmt.Sprintf("gone-%s-a", req.ID): {Quantity: 1},
		fmt.Sprintf("gone-%s-b", req.ID): {Quantity: 3},
	})
	assert.ErrorIs(t, err, ErrNoSellableProducts)

	rs := NewRequestService(pool.Queries, schema.NewValidator(), &MockEventBus{})
	unconverted, err := rs.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, unconverted.Converted)
	assert.Nil(t, unconverted.LinkedOrderID)

	// Once the selection is fixed, conversion goes through.
	product := createTestProduct(t, pool, "Fan assembly", 35.00)
	result, err := s.ConvertRequest(ctx, req.ID, map[string]model.SelectedProduct{
		product.ID: {Quantity: 1},
	})
	require.NoError(t, err)
	assert.InDelta(t, 35.00, result.Order.Total, 0.001)
}
