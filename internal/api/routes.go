package api

import (
	"net/http"

	"repairdesk/internal/auth"
	"repairdesk/internal/db"
	"repairdesk/internal/pubsub"
	"repairdesk/internal/service"
	"repairdesk/internal/storage"
	"repairdesk/internal/ws"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Dependencies carries everything the handlers need, wired once in main.
type Dependencies struct {
	DB       *db.Pool
	Bus      *pubsub.Bus
	Hub      *ws.Hub
	Log      *zap.Logger
	Auth     *auth.JWTConfig
	Storage  storage.Storage
	Policy   *storage.FilePolicy
	Requests *service.RequestService
	Tasks    *service.TaskService
	Orders   *service.OrderService
	Products *service.ProductService
}

func Routes(d Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(d.Log))
	r.Use(d.Auth.Middleware)

	// Repair request endpoints
	r.Post("/requests", d.submitRequest)
	r.Get("/requests", d.listRequests)
	r.Get("/requests/{id}", d.getRequest)
	r.Patch("/requests/{id}", d.annotateRequest)
	r.Delete("/requests/{id}", d.deleteRequest)
	r.Post("/requests/{id}/tasks/from-notes", d.deriveTasks)
	r.Get("/requests/{id}/tasks", d.listRequestTasks)
	r.Post("/requests/{id}/convert", d.convertRequest)
	r.Post("/requests/{id}/attachments", d.uploadAttachment)
	r.Get("/requests/{id}/attachments", d.listAttachments)

	// Task endpoints
	r.Post("/tasks", d.createTask)
	r.Get("/tasks/{id}", d.getTask)
	r.Patch("/tasks/{id}", d.updateTask)
	r.Post("/tasks/{id}/approval", d.setApproval)

	// Catalog and order endpoints
	r.Get("/products/search", d.searchProducts)
	r.Get("/orders/{id}", d.getOrder)

	// File signing and the local storage backend
	r.Post("/files/sign", d.signFile)
	r.Put("/files/*", d.putFile)
	r.Get("/files/*", d.getFile)

	// WebSocket endpoint
	r.Get("/ws", d.wsHandler)

	return r
}
