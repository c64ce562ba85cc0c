package realtime

import (
	"net/http"
	"strings"

	"github.com/diagnosis/inkbook/pkg/auth"
	"github.com/diagnosis/inkbook/pkg/logger"
	"github.com/gorilla/websocket"
)

type Handler struct {
	hub            *Hub
	jwtSecret      string
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

func NewHandler(hub *Hub, jwtSecret string, allowedOrigins []string) *Handler {
	h := &Handler{hub: hub, jwtSecret: jwtSecret, allowedOrigins: allowedOrigins}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.allowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// ServeHTTP authenticates with ?token= (browsers cannot set headers on upgrade) and attaches the connection to the hub.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		raw = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	claims, err := auth.Parse(raw, h.jwtSecret)
	if err != nil || claims.Role == auth.RoleRefresh {
		http.Error(w, "invalid authorization token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnContext(r.Context(), "WS upgrade error", "error", err)
		return
	}

	client := NewClient(h.hub, conn, claims.Sub)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
}
