package service

import (
	"context"
	"encoding/json"
	"fmt"

	"repairdesk/internal/db"
	"repairdesk/internal/model"
	"repairdesk/internal/schema"

	"github.com/oklog/ulid/v2"
)

// EventBus is the slice of the pubsub bus the services publish through.
type EventBus interface {
	PublishRequest(requestID string, event map[string]interface{}) error
	PublishTask(taskID string, event map[string]interface{}) error
	PublishCustomer(userID string, event map[string]interface{}) error
	PublishAdmin(event map[string]interface{}) error
}

type RequestService struct {
	queries   *db.Queries
	validator *schema.Validator
	bus       EventBus
	jobClient JobClient
}

func NewRequestService(queries *db.Queries, validator *schema.Validator, bus EventBus) *RequestService {
	return &RequestService{
		queries:   queries,
		validator: validator,
		bus:       bus,
	}
}

// SetJobClient sets the job client for scheduling background notifications.
func (s *RequestService) SetJobClient(client JobClient) {
	s.jobClient = client
}

type SubmitRequestInput struct {
	Title                  string `json:"title"`
	IssueDescription       string `json:"issueDescription"`
	DeviceType             string `json:"deviceType"`
	DeviceModel            string `json:"deviceModel"`
	SerialNumber           string `json:"serialNumber"`
	PreferredContactMethod string `json:"preferredContactMethod"`
	ContactName            string `json:"contactName"`
	ContactEmail           string `json:"contactEmail"`
	ContactPhone           string `json:"contactPhone"`
	CreatedBy              string
}

// SubmitRequest creates a repair request from the customer-facing form.
// New requests always start in pending_review with medium priority; the
// submitter cannot choose either.
func (s *RequestService) SubmitRequest(ctx context.Context, input SubmitRequestInput) (*model.RepairRequest, error) {
	payload := map[string]interface{}{
		"title":                    input.Title,
		"issue_description":        input.IssueDescription,
		"device_type":              input.DeviceType,
		"device_model":             input.DeviceModel,
		"serial_number":            input.SerialNumber,
		"preferred_contact_method": input.PreferredContactMethod,
		"contact_name":             input.ContactName,
		"contact_email":            input.ContactEmail,
		"contact_phone":            input.ContactPhone,
	}
	if err := s.validator.ValidateSubmission(ctx, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	requestID := ulid.Make().String()

	var createdBy *string
	if input.CreatedBy != "" {
		createdBy = &input.CreatedBy
	}

	req, err := s.queries.CreateRepairRequest(ctx, db.CreateRepairRequestParams{
		ID:                     requestID,
		CreatedBy:              createdBy,
		Title:                  input.Title,
		IssueDescription:       input.IssueDescription,
		DeviceType:             input.DeviceType,
		DeviceModel:            input.DeviceModel,
		SerialNumber:           input.SerialNumber,
		PreferredContactMethod: input.PreferredContactMethod,
		ContactName:            input.ContactName,
		ContactEmail:           input.ContactEmail,
		ContactPhone:           input.ContactPhone,
		Status:                 string(model.RequestStatusPendingReview),
		Priority:               string(model.PriorityMedium),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	_ = s.bus.PublishAdmin(map[string]interface{}{
		"type":      "request.submitted",
		"requestId": requestID,
	})
	if createdBy != nil {
		_ = s.bus.PublishCustomer(*createdBy, map[string]interface{}{
			"type":      "request.submitted",
			"requestId": requestID,
		})
	}

	if s.jobClient != nil {
		_ = s.jobClient.ScheduleStaleReview(requestID)
	}

	return dbRequestToModel(req), nil
}

func (s *RequestService) GetRequest(ctx context.Context, id string) (*model.RepairRequest, error) {
	req, err := s.queries.GetRepairRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dbRequestToModel(req), nil
}

type ListRequestsInput struct {
	CreatedBy         string
	Status            string
	Priority          string
	PendingConversion bool
	Limit             int
	Offset            int
}

func (s *RequestService) ListRequests(ctx context.Context, input ListRequestsInput) ([]*model.RepairRequest, error) {
	params := db.ListRepairRequestsParams{
		PendingConversion: input.PendingConversion,
		Limit:             input.Limit,
		Offset:            input.Offset,
	}
	if input.CreatedBy != "" {
		params.CreatedBy = &input.CreatedBy
	}
	if input.Status != "" {
		if !model.ValidRequestStatus(input.Status) {
			return nil, fmt.Errorf("%w: unknown status filter %s", ErrInvalidInput, input.Status)
		}
		params.Status = &input.Status
	}
	if input.Priority != "" {
		if !model.ValidPriority(input.Priority) {
			return nil, fmt.Errorf("%w: unknown priority filter %s", ErrInvalidInput, input.Priority)
		}
		params.Priority = &input.Priority
	}

	rows, err := s.queries.ListRepairRequests(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	out := make([]*model.RepairRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, dbRequestToModel(row))
	}
	return out, nil
}

type AnnotateRequestInput struct {
	ID               string
	Status           *string                          `json:"status"`
	Priority         *string                          `json:"priority"`
	OperatorNotes    *string                          `json:"operatorNotes"`
	ContactPhone     *string                          `json:"contactPhone"`
	SelectedProducts map[string]model.SelectedProduct `json:"selectedProducts"`
}

// AnnotateRequest applies operator-side edits: triage status and priority,
// internal notes, and the selected-products map that drives conversion.
// Selected products referencing unknown catalog entries are rejected here
// rather than silently skipped later.
func (s *RequestService) AnnotateRequest(ctx context.Context, input AnnotateRequestInput) (*model.RepairRequest, error) {
	if input.Status != nil && !model.ValidRequestStatus(*input.Status) {
		return nil, fmt.Errorf("%w: unknown status %s", ErrInvalidInput, *input.Status)
	}
	if input.Priority != nil && !model.ValidPriority(*input.Priority) {
		return nil, fmt.Errorf("%w: unknown priority %s", ErrInvalidInput, *input.Priority)
	}

	var productsJSON []byte
	if input.SelectedProducts != nil {
		payload := make(map[string]interface{}, len(input.SelectedProducts))
		for id, sel := range input.SelectedProducts {
			payload[id] = map[string]interface{}{"quantity": sel.Quantity, "note": sel.Note}
		}
		if err := s.validator.ValidateSelectedProducts(ctx, payload); err != nil {
			return nil, fmt.Errorf("%w: selected products: %v", ErrInvalidInput, err)
		}
		for productID := range input.SelectedProducts {
			if _, err := s.queries.GetProductByID(ctx, productID); err != nil {
				return nil, fmt.Errorf("%w: selected product %s: %v", ErrInvalidInput, productID, err)
			}
		}
		var err error
		productsJSON, err = json.Marshal(input.SelectedProducts)
		if err != nil {
			return nil, fmt.Errorf("failed to encode selected products: %w", err)
		}
	}

	req, err := s.queries.UpdateRepairRequest(ctx, db.UpdateRepairRequestParams{
		ID:               input.ID,
		Status:           input.Status,
		Priority:         input.Priority,
		OperatorNotes:    input.OperatorNotes,
		ContactPhone:     input.ContactPhone,
		SelectedProducts: productsJSON,
	})
	if err != nil {
		return nil, err
	}

	_ = s.bus.PublishRequest(input.ID, map[string]interface{}{
		"type":      "request.updated",
		"requestId": input.ID,
	})
	if req.CreatedBy != nil && input.Status != nil {
		_ = s.bus.PublishCustomer(*req.CreatedBy, map[string]interface{}{
			"type":      "request.status_changed",
			"requestId": input.ID,
			"status":    *input.Status,
		})
	}

	return dbRequestToModel(req), nil
}

// DeleteRequest soft-deletes a request. Derived tasks survive; they carry
// the request id but no foreign key, so trashing never cascades.
func (s *RequestService) DeleteRequest(ctx context.Context, id string) error {
	if err := s.queries.SoftDeleteRepairRequest(ctx, id); err != nil {
		return err
	}

	_ = s.bus.PublishRequest(id, map[string]interface{}{
		"type":      "request.deleted",
		"requestId": id,
	})
	_ = s.bus.PublishAdmin(map[string]interface{}{
		"type":      "request.deleted",
		"requestId": id,
	})

	return nil
}
