package service

import (
	"encoding/json"
	"time"

	"repairdesk/internal/db"
	"repairdesk/internal/model"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

func dbRequestToModel(r db.RepairRequest) *model.RepairRequest {
	out := &model.RepairRequest{
		ID:                     r.ID,
		CreatedBy:              r.CreatedBy,
		Title:                  r.Title,
		IssueDescription:       r.IssueDescription,
		DeviceType:             r.DeviceType,
		DeviceModel:            r.DeviceModel,
		SerialNumber:           r.SerialNumber,
		PreferredContactMethod: r.PreferredContactMethod,
		ContactName:            r.ContactName,
		ContactEmail:           r.ContactEmail,
		ContactPhone:           r.ContactPhone,
		Status:                 model.RequestStatus(r.Status),
		Priority:               model.Priority(r.Priority),
		OperatorNotes:          r.OperatorNotes,
		Converted:              r.Converted,
		LinkedOrderID:          r.LinkedOrderID,
		OrderStatusSnapshot:    r.OrderStatusSnapshot,
		OrderTotalSnapshot:     r.OrderTotalSnapshot,
		CreatedAt:              r.CreatedAt.Format(timeFormat),
		UpdatedAt:              r.UpdatedAt.Format(timeFormat),
	}
	if len(r.SelectedProducts) > 0 {
		// Raw JSONB from the row; a decode failure leaves the map nil
		// rather than failing the whole read.
		_ = json.Unmarshal(r.SelectedProducts, &out.SelectedProducts)
	}
	return out
}

func dbTaskToModel(t db.Task) *model.Task {
	return &model.Task{
		ID:               t.ID,
		RequestID:        t.RequestID,
		Description:      t.Description,
		Cost:             t.Cost,
		AssigneeID:       t.AssigneeID,
		Status:           model.TaskStatus(t.Status),
		Priority:         model.Priority(t.Priority),
		DueDate:          timePtrToString(t.DueDate),
		StorageApproved:  t.StorageApproved,
		OperatorApproved: t.OperatorApproved,
		OwnerApproved:    t.OwnerApproved,
		QualityApproved:  t.QualityApproved,
		CreatedAt:        t.CreatedAt.Format(timeFormat),
		UpdatedAt:        t.UpdatedAt.Format(timeFormat),
	}
}

func dbProductToModel(p db.Product) model.Product {
	return model.Product{
		ID:    p.ID,
		Name:  p.Name,
		SKU:   p.SKU,
		Kind:  model.ProductKind(p.Kind),
		Price: p.Price,
	}
}

func dbOrderToModel(o db.Order, items []db.OrderItem) *model.Order {
	out := &model.Order{
		ID:           o.ID,
		CustomerID:   o.CustomerID,
		BillingName:  o.BillingName,
		BillingEmail: o.BillingEmail,
		Status:       model.OrderStatus(o.Status),
		Total:        o.Total,
		RequestID:    o.RequestID,
		Note:         o.Note,
		CreatedAt:    o.CreatedAt.Format(timeFormat),
	}
	for _, item := range items {
		out.Items = append(out.Items, model.OrderItem{
			ID:        item.ID,
			OrderID:   item.OrderID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
			Note:      item.Note,
		})
	}
	return out
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeFormat)
	return &s
}
