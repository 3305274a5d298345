package api

import (
	"encoding/json"
	"net/http"

	"repairdesk/internal/auth"
	"repairdesk/internal/model"
	"repairdesk/internal/service"

	"github.com/go-chi/chi/v5"
)

func canWorkTasks(role model.Role) bool {
	return role == model.RoleTechnician || role.CanManageRequests()
}

func (d Dependencies) createTask(w http.ResponseWriter, r *http.Request) {
	if !canWorkTasks(auth.GetRole(r.Context())) {
		WriteError(w, http.StatusForbidden, "forbidden", "Staff role required", d.Log)
		return
	}

	var input service.CreateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	task, err := d.Tasks.CreateTask(r.Context(), input)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	WriteJSON(w, http.StatusCreated, task)
}

func (d Dependencies) getTask(w http.ResponseWriter, r *http.Request) {
	if !canWorkTasks(auth.GetRole(r.Context())) {
		WriteError(w, http.StatusForbidden, "forbidden", "Staff role required", d.Log)
		return
	}

	task, err := d.Tasks.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	WriteJSON(w, http.StatusOK, task)
}

func (d Dependencies) updateTask(w http.ResponseWriter, r *http.Request) {
	if !canWorkTasks(auth.GetRole(r.Context())) {
		WriteError(w, http.StatusForbidden, "forbidden", "Staff role required", d.Log)
		return
	}

	var input service.UpdateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	input.ID = chi.URLParam(r, "id")

	task, err := d.Tasks.UpdateTask(r.Context(), input)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	WriteJSON(w, http.StatusOK, task)
}

type SetApprovalRequest struct {
	ApprovalType string `json:"approvalType"`
	Approved     bool   `json:"approved"`
}

// setApproval toggles one approval flag. Admin-only: the four flags gate
// sign-off, not day-to-day progress.
func (d Dependencies) setApproval(w http.ResponseWriter, r *http.Request) {
	if !auth.GetRole(r.Context()).CanToggleApprovals() {
		WriteError(w, http.StatusForbidden, "forbidden", "Admin role required", d.Log)
		return
	}

	var req SetApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	task, err := d.Tasks.SetApproval(r.Context(), chi.URLParam(r, "id"), req.ApprovalType, req.Approved)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	WriteJSON(w, http.StatusOK, task)
}
