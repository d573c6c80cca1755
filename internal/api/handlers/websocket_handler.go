// server/internal/api/handlers/websocket_handler.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"care-referral-api-server/internal/auth"
	"care-referral-api-server/internal/socket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// pongWait is the maximum silence tolerated before the connection is torn
// down.
const pongWait = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	Hub    *socket.Hub
	Signer *auth.Signer
	Log    zerolog.Logger
}

// subscribeFrame is a client control message. action is "subscribe" or
// "unsubscribe"; key names the filter so the client can replace or drop it.
type subscribeFrame struct {
	Action     string `json:"action"`
	Key        string `json:"key"`
	Entity     string `json:"entity"`
	EntityID   string `json:"entityID"`
	FacilityID string `json:"facilityID"`
}

// ServeWs upgrades the connection and runs the read loop. The client scopes
// what it sees with subscribe frames; everything is released when the
// connection drops, so a closed dashboard leaves nothing behind.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}

	claims, err := h.Signer.ParseToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := h.Hub.Register(claims.StaffID, conn)
	defer func() {
		h.Hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.Log.Warn().Str("staffID", claims.StaffID).Err(err).Msg("unexpected close error")
			}
			break
		}

		var frame subscribeFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			continue
		}
		switch frame.Action {
		case "subscribe":
			if frame.Key == "" || frame.Entity == "" {
				continue
			}
			client.AddFilter(frame.Key, socket.Filter{
				Entity:     frame.Entity,
				EntityID:   frame.EntityID,
				FacilityID: frame.FacilityID,
			})
		case "unsubscribe":
			client.RemoveFilter(frame.Key)
		}
	}
}
