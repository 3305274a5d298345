package api

import (
	"net/http"
	"strconv"

	"repairdesk/internal/auth"

	"github.com/go-chi/chi/v5"
)

// searchProducts backs the product picker on the request annotation screen.
func (d Dependencies) searchProducts(w http.ResponseWriter, r *http.Request) {
	if !auth.GetRole(r.Context()).CanManageRequests() {
		WriteError(w, http.StatusForbidden, "forbidden", "Operator role required", d.Log)
		return
	}

	term := r.URL.Query().Get("term")
	limit := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		limit = v
	}

	hits, err := d.Products.Search(r.Context(), term, limit)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"products": hits})
}

func (d Dependencies) getOrder(w http.ResponseWriter, r *http.Request) {
	if !auth.GetRole(r.Context()).CanManageRequests() {
		WriteError(w, http.StatusForbidden, "forbidden", "Operator role required", d.Log)
		return
	}

	id := chi.URLParam(r, "id")
	order, err := d.Orders.GetOrder(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	WriteJSON(w, http.StatusOK, order)
}
