package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"repairdesk/internal/auth"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testRouter() http.Handler {
	r := chi.NewRouter()
	r.Mount("/v1", Routes(Dependencies{
		Log:  zap.NewNop(),
		Auth: auth.NewJWTConfig("test-secret"),
	}))
	return r
}

func doRequest(t *testing.T, method, path, body, userID, role string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
		req.Header.Set("X-User-Role", role)
	}
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)
	return rec
}

func TestRoleGating(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		userID string
		role   string
		want   int
	}{
		{"customer cannot annotate", http.MethodPatch, "/v1/requests/req-1", `{}`, "cust-1", "customer", http.StatusForbidden},
		{"technician cannot annotate", http.MethodPatch, "/v1/requests/req-1", `{}`, "tech-1", "technician", http.StatusForbidden},
		{"customer cannot delete", http.MethodDelete, "/v1/requests/req-1", "", "cust-1", "customer", http.StatusForbidden},
		{"customer cannot derive tasks", http.MethodPost, "/v1/requests/req-1/tasks/from-notes", `{"lines":[]}`, "cust-1", "customer", http.StatusForbidden},
		{"customer cannot convert", http.MethodPost, "/v1/requests/req-1/convert", "", "cust-1", "customer", http.StatusForbidden},
		{"operator cannot toggle approvals", http.MethodPost, "/v1/tasks/task-1/approval", `{"approvalType":"quality","approved":true}`, "op-1", "operator", http.StatusForbidden},
		{"technician cannot toggle approvals", http.MethodPost, "/v1/tasks/task-1/approval", `{"approvalType":"quality","approved":true}`, "tech-1", "technician", http.StatusForbidden},
		{"customer cannot work tasks", http.MethodPost, "/v1/tasks", `{"description":"x"}`, "cust-1", "customer", http.StatusForbidden},
		{"customer cannot search products", http.MethodGet, "/v1/products/search?term=screen", "", "cust-1", "customer", http.StatusForbidden},
		{"customer cannot view orders", http.MethodGet, "/v1/orders/ord-1", "", "cust-1", "customer", http.StatusForbidden},
		{"anonymous cannot list", http.MethodGet, "/v1/requests", "", "", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, tt.method, tt.path, tt.body, tt.userID, tt.role)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestBadBodies(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		role   string
	}{
		{"submit garbage", http.MethodPost, "/v1/requests", `{not json`, "customer"},
		{"annotate garbage", http.MethodPatch, "/v1/requests/req-1", `{not json`, "admin"},
		{"derive garbage", http.MethodPost, "/v1/requests/req-1/tasks/from-notes", `{not json`, "admin"},
		{"derive empty lines", http.MethodPost, "/v1/requests/req-1/tasks/from-notes", `{"lines":[]}`, "admin"},
		{"approval garbage", http.MethodPost, "/v1/tasks/task-1/approval", `{not json`, "admin"},
		{"task garbage", http.MethodPost, "/v1/tasks", `{not json`, "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, tt.method, tt.path, tt.body, "user-1", tt.role)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSignFile_MissingParams(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/v1/files/sign", "", "op-1", "operator")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorEnvelope(t *testing.T) {
	rec := doRequest(t, http.MethodPatch, "/v1/requests/req-1", `{}`, "cust-1", "customer")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"code":"forbidden"`)
}
