package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"repairdesk/internal/db"
	"repairdesk/internal/model"

	"github.com/oklog/ulid/v2"
)

// ErrNoSellableProducts is returned when conversion finds nothing to put on
// the order: the selection is empty, or every entry is missing from the
// catalog or has a non-positive quantity.
var ErrNoSellableProducts = errors.New("request has no sellable selected products")

type OrderService struct {
	pool *db.Pool
	bus  EventBus
}

func NewOrderService(pool *db.Pool, bus EventBus) *OrderService {
	return &OrderService{pool: pool, bus: bus}
}

// ConversionResult is what a successful conversion reports back.
type ConversionResult struct {
	Order        *model.Order `json:"order"`
	SkippedItems []string     `json:"skippedItems,omitempty"`
}

// ConvertRequest turns a reviewed repair request into an order. The whole
// conversion runs in one transaction; flipping the converted flag is an
// exclusive check-and-set, so two concurrent conversions of the same
// request produce exactly one order.
//
// A non-empty override replaces the stored selected-products map for this
// conversion only; the stored map is not modified. Selected products that
// no longer exist in the catalog, or whose quantity is not positive, are
// skipped and reported, not fatal.
func (s *OrderService) ConvertRequest(ctx context.Context, requestID string, override map[string]model.SelectedProduct) (*ConversionResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.pool.Queries.WithTx(tx)

	req, err := qtx.GetRepairRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	selected := override
	if len(selected) == 0 && len(req.SelectedProducts) > 0 {
		if err := json.Unmarshal(req.SelectedProducts, &selected); err != nil {
			return nil, fmt.Errorf("failed to decode selected products: %w", err)
		}
	}
	if len(selected) == 0 {
		return nil, ErrNoSellableProducts
	}

	// Claim the request before writing anything else. A concurrent
	// conversion already past this point makes this a no-op update and
	// we bail out.
	if err := qtx.MarkRequestConverted(ctx, requestID); err != nil {
		return nil, err
	}

	order, err := qtx.CreateOrder(ctx, ulid.Make().String())
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	productIDs := make([]string, 0, len(selected))
	for id := range selected {
		productIDs = append(productIDs, id)
	}
	sort.Strings(productIDs)

	var skipped []string
	itemCount := 0
	for _, productID := range productIDs {
		sel := selected[productID]
		if sel.Quantity <= 0 {
			skipped = append(skipped, productID)
			continue
		}

		product, err := qtx.GetProductByID(ctx, productID)
		if err != nil {
			if errors.Is(err, db.ErrProductNotFound) {
				skipped = append(skipped, productID)
				continue
			}
			return nil, fmt.Errorf("failed to load product %s: %w", productID, err)
		}

		if _, err := qtx.AddOrderItem(ctx, db.AddOrderItemParams{
			ID:        ulid.Make().String(),
			OrderID:   order.ID,
			ProductID: product.ID,
			Name:      dbProductToModel(product).FormattedName(),
			Quantity:  sel.Quantity,
			UnitPrice: product.Price,
			Note:      sel.Note,
		}); err != nil {
			return nil, fmt.Errorf("failed to add order item: %w", err)
		}
		itemCount++
	}

	if itemCount == 0 {
		// Rolling back also undoes the converted flag, so the request
		// stays convertible once its selection is fixed.
		return nil, ErrNoSellableProducts
	}

	// Attribution: a logged-in author becomes the order customer; guest
	// submissions fall back to the contact fields as billing details.
	if req.CreatedBy != nil {
		user, err := qtx.GetUserByID(ctx, *req.CreatedBy)
		if err != nil && !errors.Is(err, db.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to load author: %w", err)
		}
		if err == nil {
			if err := qtx.SetOrderCustomer(ctx, order.ID, &user.ID, user.Name, user.Email); err != nil {
				return nil, fmt.Errorf("failed to set order customer: %w", err)
			}
		}
	} else {
		if err := qtx.SetOrderCustomer(ctx, order.ID, nil, req.ContactName, req.ContactEmail); err != nil {
			return nil, fmt.Errorf("failed to set order billing: %w", err)
		}
	}

	note := fmt.Sprintf("Created from repair request %s", requestID)
	if req.Title != "" {
		note = fmt.Sprintf("Created from repair request %s (%s)", requestID, req.Title)
	}
	if err := qtx.SetOrderNote(ctx, order.ID, note); err != nil {
		return nil, fmt.Errorf("failed to set order note: %w", err)
	}
	if err := qtx.SetOrderRequestRef(ctx, order.ID, requestID); err != nil {
		return nil, fmt.Errorf("failed to set order back-reference: %w", err)
	}

	total, err := qtx.RecalculateOrderTotal(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to recalculate order total: %w", err)
	}

	statusLabel := model.OrderStatusLabel(model.OrderStatusPending)
	if err := qtx.SetRequestOrderSnapshot(ctx, requestID, order.ID, statusLabel, total); err != nil {
		return nil, fmt.Errorf("failed to link order to request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit conversion: %w", err)
	}

	finalOrder, err := s.pool.Queries.GetOrderByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	items, err := s.pool.Queries.ListOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}

	_ = s.bus.PublishRequest(requestID, map[string]interface{}{
		"type":      "request.converted",
		"requestId": requestID,
		"orderId":   order.ID,
	})
	_ = s.bus.PublishAdmin(map[string]interface{}{
		"type":      "request.converted",
		"requestId": requestID,
		"orderId":   order.ID,
		"total":     total,
	})
	if req.CreatedBy != nil {
		_ = s.bus.PublishCustomer(*req.CreatedBy, map[string]interface{}{
			"type":      "request.converted",
			"requestId": requestID,
			"orderId":   order.ID,
		})
	}

	return &ConversionResult{
		Order:        dbOrderToModel(finalOrder, items),
		SkippedItems: skipped,
	}, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	order, err := s.pool.Queries.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.pool.Queries.ListOrderItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	return dbOrderToModel(order, items), nil
}
