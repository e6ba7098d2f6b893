package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/goalmates-app/goalmates-backend/internal/chat"
	"github.com/goalmates-app/goalmates-backend/internal/realtime"
	"github.com/goalmates-app/goalmates-backend/pkg/logger"
)

const (
	wsWriteWait = 10 * time.Second
	wsReadLimit = 64 * 1024

	// Clients without header access pass the token as a subprotocol,
	// "bearer.<token>".
	bearerSubprotocolPrefix = "bearer."
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Socket auth is token based; the browser origin carries no trust.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn adapts a gorilla connection to the gateway's Conn. Writes are
// serialized; gorilla allows only one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) Send(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(realtime.Envelope{Event: event, Payload: payload})
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// inboundHandler consumes messages the client sends over an accepted socket.
type inboundHandler func(ctx context.Context, userID uuid.UUID, data []byte)

// NotificationsSocket upgrades and attaches a client to the notifications
// gateway. The socket is push only; inbound frames are discarded.
func NotificationsSocket(gw *realtime.Gateway, logg *logger.Logger) http.HandlerFunc {
	return serveSocket(gw, logg, nil)
}

// ChatSocket upgrades and attaches a client to the chat gateway. Inbound
// chat:message frames are persisted and broadcast.
func ChatSocket(gw *realtime.Gateway, chatSvc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return serveSocket(gw, logg, func(ctx context.Context, userID uuid.UUID, data []byte) {
		var envelope struct {
			Event   string `json:"event"`
			Payload struct {
				Content string `json:"content"`
			} `json:"payload"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			logg.Warn(ctx, "dropping malformed chat frame")
			return
		}
		if envelope.Event != realtime.EventChatMessage {
			return
		}
		if _, err := chatSvc.Send(ctx, userID, envelope.Payload.Content); err != nil {
			logg.Error(ctx, "chat message rejected", err)
		}
	})
}

func serveSocket(gw *realtime.Gateway, logg *logger.Logger, onMessage inboundHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hs, responseHeader := buildHandshake(r)

		conn, err := upgrader.Upgrade(w, r, responseHeader)
		if err != nil {
			// Upgrade already replied with an HTTP error.
			logg.Warn(r.Context(), "websocket upgrade failed")
			return
		}
		conn.SetReadLimit(wsReadLimit)

		wrapped := &wsConn{conn: conn}
		userID, err := gw.HandleConnect(r.Context(), wrapped, hs)
		if err != nil {
			// Gateway closed the socket; nothing was registered.
			return
		}
		defer gw.HandleDisconnect(r.Context(), userID, wrapped)

		ctx := logg.WithUserID(r.Context(), userID.String())
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if onMessage != nil {
				onMessage(ctx, userID, data)
			}
		}
	}
}

// buildHandshake collects credentials from the places clients can put them:
// the Authorization header, a bearer subprotocol, or a token query param.
func buildHandshake(r *http.Request) (realtime.Handshake, http.Header) {
	hs := realtime.Handshake{
		Authorization: r.Header.Get("Authorization"),
		QueryToken:    r.URL.Query().Get("token"),
	}

	var responseHeader http.Header
	for _, proto := range websocket.Subprotocols(r) {
		if strings.HasPrefix(proto, bearerSubprotocolPrefix) {
			hs.AuthToken = strings.TrimPrefix(proto, bearerSubprotocolPrefix)
			// Echo the negotiated subprotocol back or browsers drop the
			// connection.
			responseHeader = http.Header{"Sec-WebSocket-Protocol": []string{proto}}
			break
		}
	}
	return hs, responseHeader
}
