package api

import (
	"net/http"
	"strings"

	"repairdesk/internal/model"
	"repairdesk/internal/ws"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the storefront origin once it is fixed
		return true
	},
}

func (d Dependencies) wsHandler(w http.ResponseWriter, r *http.Request) {
	if d.Hub == nil {
		d.Log.Error("WebSocket hub not initialized")
		http.Error(w, "WebSocket hub not initialized", http.StatusInternalServerError)
		return
	}

	userID, role := d.identifyWSClient(r)
	if role == "" {
		role = model.RoleCustomer
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.Log.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	d.Log.Info("WebSocket connection established",
		zap.String("user_id", userID),
		zap.String("role", string(role)),
	)

	wsConn := ws.NewConn(conn, d.Hub, userID, role)
	d.Hub.Register(wsConn)

	go wsConn.WritePump()
	go wsConn.ReadPump()
}

// identifyWSClient resolves the connecting user. Browsers cannot set an
// Authorization header on the upgrade request, so the token also rides in
// the query string.
func (d Dependencies) identifyWSClient(r *http.Request) (string, model.Role) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		tokenString = r.Header.Get("Authorization")
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	}

	if tokenString != "" {
		if userID, role, err := d.Auth.ParseToken(tokenString); err == nil {
			return userID, role
		}
	}

	// Development fallback headers.
	if userID := r.Header.Get("X-User-ID"); userID != "" {
		return userID, model.Role(r.Header.Get("X-User-Role"))
	}

	return "", ""
}
