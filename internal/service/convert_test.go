package service

import (
	"testing"
	"time"

	"repairdesk/internal/db"
	"repairdesk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBRequestToModel_SelectedProducts(t *testing.T) {
	now := time.Now()
	row := db.RepairRequest{
		ID:               "req-1",
		IssueDescription: "Cracked screen",
		Status:           "in_progress",
		Priority:         "high",
		SelectedProducts: []byte(`{"prod-1":{"quantity":2,"note":"OEM"},"prod-2":{"quantity":1}}`),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	req := dbRequestToModel(row)
	require.NotNil(t, req.SelectedProducts)
	assert.Equal(t, 2, req.SelectedProducts["prod-1"].Quantity)
	assert.Equal(t, "OEM", req.SelectedProducts["prod-1"].Note)
	assert.Equal(t, 1, req.SelectedProducts["prod-2"].Quantity)
	assert.Equal(t, model.RequestStatusInProgress, req.Status)
}

func TestDBRequestToModel_EmptyProducts(t *testing.T) {
	req := dbRequestToModel(db.RepairRequest{ID: "req-1"})
	assert.Nil(t, req.SelectedProducts)

	req = dbRequestToModel(db.RepairRequest{ID: "req-1", SelectedProducts: []byte(`not json`)})
	assert.Nil(t, req.SelectedProducts)
}

func TestDBOrderToModel(t *testing.T) {
	reqID := "req-1"
	order := dbOrderToModel(
		db.Order{ID: "ord-1", Status: "pending", Total: 150, RequestID: &reqID},
		[]db.OrderItem{
			{ID: "item-1", OrderID: "ord-1", ProductID: "prod-1", Name: "Screen (SCR-8)", Quantity: 2, UnitPrice: 50, Subtotal: 100},
			{ID: "item-2", OrderID: "ord-1", ProductID: "prod-2", Name: "Battery", Quantity: 1, UnitPrice: 50, Subtotal: 50},
		},
	)

	assert.Equal(t, model.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Screen (SCR-8)", order.Items[0].Name)
	assert.Equal(t, float64(100), order.Items[0].Subtotal)
	require.NotNil(t, order.RequestID)
	assert.Equal(t, "req-1", *order.RequestID)
}

func TestProductFormattedName(t *testing.T) {
	p := dbProductToModel(db.Product{ID: "prod-1", Name: "Screen", SKU: "SCR-8", Price: 50})
	assert.Equal(t, "Screen (SCR-8)", p.FormattedName())

	p = dbProductToModel(db.Product{ID: "prod-2", Name: "Labor"})
	assert.Equal(t, "Labor", p.FormattedName())
}
