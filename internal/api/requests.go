package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"repairdesk/internal/auth"
	"repairdesk/internal/db"
	"repairdesk/internal/model"
	"repairdesk/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type SubmitRequestBody struct {
	service.SubmitRequestInput
	Attachments []struct {
		Name       string `json:"name"`
		ObjectName string `json:"objectName"`
	} `json:"attachments"`
}

func (d Dependencies) submitRequest(w http.ResponseWriter, r *http.Request) {
	var body SubmitRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	// Guests may submit too; their contact fields carry the identity.
	body.CreatedBy = auth.GetUserID(r.Context())

	result, err := d.Requests.SubmitRequest(r.Context(), body.SubmitRequestInput)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	// Link attachments uploaded beforehand through the files API. Linkage
	// failures never fail the submission; they come back as warnings.
	var warnings []string
	for _, att := range body.Attachments {
		if att.Name == "" || att.ObjectName == "" {
			warnings = append(warnings, "attachment missing name or objectName")
			continue
		}
		if _, err := d.DB.Queries.CreateAttachment(r.Context(), db.CreateAttachmentParams{
			ID:         ulid.Make().String(),
			RequestID:  result.ID,
			FileName:   att.Name,
			ObjectName: att.ObjectName,
		}); err != nil {
			d.Log.Warn("Failed to link attachment",
				zap.String("requestId", result.ID),
				zap.String("objectName", att.ObjectName),
				zap.Error(err),
			)
			warnings = append(warnings, fmt.Sprintf("failed to link attachment %s", att.Name))
		}
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"request":  result,
		"warnings": warnings,
	})
}

func (d Dependencies) listRequests(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	role := auth.GetRole(r.Context())

	input := service.ListRequestsInput{
		Status:            r.URL.Query().Get("status"),
		Priority:          r.URL.Query().Get("priority"),
		PendingConversion: r.URL.Query().Get("pendingConversion") == "1",
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		input.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil {
		input.Offset = offset
	}

	// Non-managers only ever see their own submissions, whatever the
	// query says.
	if r.URL.Query().Get("mine") == "1" || !role.CanManageRequests() {
		if userID == "" {
			WriteError(w, http.StatusForbidden, "forbidden", "Authentication required", d.Log)
			return
		}
		input.CreatedBy = userID
		input.PendingConversion = false
	}

	result, err := d.Requests.ListRequests(r.Context(), input)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"requests": result})
}

func (d Dependencies) getRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, err := d.Requests.GetRequest(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	role := auth.GetRole(r.Context())
	userID := auth.GetUserID(r.Context())
	if !role.CanManageRequests() && role != model.RoleTechnician {
		if req.CreatedBy == nil || *req.CreatedBy != userID {
			WriteError(w, http.StatusForbidden, "forbidden", "Not your request", d.Log)
			return
		}
	}

	WriteJSON(w, http.StatusOK, req)
}

func (d Dependencies) annotateRequest(w http.ResponseWriter, r *http.Request) {
	if !auth.GetRole(r.Context()).CanManageRequests() {
		WriteError(w, http.StatusForbidden, "forbidden", "Operator role required", d.Log)
		return
	}

	var input service.AnnotateRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	input.ID = chi.URLParam(r, "id")

	result, err := d.Requests.AnnotateRequest(r.Context(), input)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

func (d Dependencies) deleteRequest(w http.ResponseWriter, r *http.Request) {
	if !auth.GetRole(r.Context()).CanManageRequests() {
		WriteError(w, http.StatusForbidden, "forbidden", "Operator role required", d.Log)
		return
	}

	id := chi.URLParam(r, "id")
	if err := d.Requests.DeleteRequest(r.Context(), id); err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type DeriveTasksRequest struct {
	Lines []service.TaskLine `json:"lines"`
}

func (d Dependencies) deriveTasks(w http.ResponseWriter, r *http.Request) {
	if !auth.GetRole(r.Context()).CanManageRequests() {
		WriteError(w, http.StatusForbidden, "forbidden", "Operator role required", d.Log)
		return
	}

	var req DeriveTasksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	if len(req.Lines) == 0 {
		WriteError(w, http.StatusBadRequest, "invalid_request", "At least one line is required", d.Log)
		return
	}

	result, err := d.Tasks.DeriveTasks(r.Context(), chi.URLParam(r, "id"), req.Lines)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": fmt.Sprintf("Created %d tasks, skipped %d already-derived lines", len(result.Created), result.Skipped),
		"created": result.Created,
		"skipped": result.Skipped,
	})
}

func (d Dependencies) listRequestTasks(w http.ResponseWriter, r *http.Request) {
	role := auth.GetRole(r.Context())
	if !role.CanManageRequests() && role != model.RoleTechnician {
		WriteError(w, http.StatusForbidden, "forbidden", "Staff role required", d.Log)
		return
	}

	requestID := chi.URLParam(r, "id")
	tasks, err := d.Tasks.ListTasksByRequest(r.Context(), requestID)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	totalCost, err := d.Tasks.TotalCostByRequest(r.Context(), requestID)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tasks":     tasks,
		"totalCost": totalCost,
	})
}

type ConvertRequestBody struct {
	Products []struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
		Note      string `json:"note"`
	} `json:"products"`
}

func (d Dependencies) convertRequest(w http.ResponseWriter, r *http.Request) {
	if !auth.GetRole(r.Context()).CanManageRequests() {
		WriteError(w, http.StatusForbidden, "forbidden", "Operator role required", d.Log)
		return
	}

	// The body is optional; without one the stored selected-products map
	// drives the conversion.
	var body ConvertRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	var override map[string]model.SelectedProduct
	if len(body.Products) > 0 {
		override = make(map[string]model.SelectedProduct, len(body.Products))
		for _, p := range body.Products {
			if p.ProductID == "" {
				WriteError(w, http.StatusBadRequest, "invalid_request", "productId is required for each product", d.Log)
				return
			}
			override[p.ProductID] = model.SelectedProduct{Quantity: p.Quantity, Note: p.Note}
		}
	}

	result, err := d.Orders.ConvertRequest(r.Context(), chi.URLParam(r, "id"), override)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"orderId":      result.Order.ID,
		"orderStatus":  model.OrderStatusLabel(result.Order.Status),
		"orderTotal":   result.Order.Total,
		"order":        result.Order,
		"skippedItems": result.SkippedItems,
	})
}
