package handlers

import (
	"net/http"
	"strconv"

	"github.com/candemet/matchup/live"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub *live.Hub
}

func NewWebSocketHandler(hub *live.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// SubscribeLadder подписывает клиента на события лестницы
// (MATCH_SETTLED, STANDINGS_UPDATED).
func (h *WebSocketHandler) SubscribeLadder(w http.ResponseWriter, r *http.Request) {
	ladderID, err := getIDFromURL(r, "ladderID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам пишет ответ при ошибке.
		return
	}

	client := &live.Client{
		Hub:      h.hub,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		LadderID: strconv.Itoa(ladderID),
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
