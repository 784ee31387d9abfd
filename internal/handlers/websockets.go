package handlers

import (
	"net/http"
	"time"

	"observo/internal/broadcast"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Clients only send control frames; anything larger is a protocol abuse.
const maxMsgSize = 1 << 12 // 4 KB

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // dashboard is served from another origin
}

// @Summary      Realtime log stream
// @Description  Upgrades to a websocket. The first message is {"type":"connected"}, then every stored record arrives as {"type":"newLog","data":...}.
// @Tags         realtime
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "realtime stream unavailable"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws_upgrade_failed", "err", err)
		return
	}

	// The hub owns writes and closing; this goroutine only reads.
	sub := h.hub.Register(conn)
	defer h.hub.Unregister(sub)

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(broadcast.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(broadcast.PongWait))
	})

	h.readUntilClosed(conn, sub.ID)
}

// readUntilClosed drains incoming frames to handle control messages and
// detect disconnects.
func (h *Handler) readUntilClosed(conn *websocket.Conn, id string) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Infow("ws_read_closed", "id", id, "err", err)
			}
			return
		}
	}
}
