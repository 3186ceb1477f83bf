package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/Dosada05/tournament-scoreboard/realtime"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Табло публичное, Origin не проверяем.
		return true
	},
}

type WebSocketHandler struct {
	hub         *realtime.Hub
	cache       Snapshotter
	defaultRoom string
	logger      *slog.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, cache Snapshotter, defaultRoom string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, cache: cache, defaultRoom: defaultRoom, logger: logger}
}

// ServeWs подключает зрителя к каналу табло. Первым сообщением приходит снимок,
// дальше match_change и viewers.
// Клиент подключается к /ws/scoreboard?channel=<room>
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("channel")
	if room == "" {
		room = h.defaultRoom
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту ошибкой.
		h.logger.Warn("failed to upgrade websocket", slog.String("room", room), slog.Any("error", err))
		return
	}

	client := realtime.NewClient(h.hub, conn, room)
	// Сначала членство в комнате, потом снимок: изменения после снимка не теряются,
	// а пришедшие раньше кэш отбросит по версии.
	if !h.hub.Register(r.Context(), client) {
		_ = conn.Close()
		return
	}
	go client.WritePump()

	matches := h.cache.Snapshot()
	if matches == nil {
		matches = []*models.Match{}
	}
	client.Send(models.ScoreboardMessage{Type: models.MessageSnapshot, Payload: matches, RoomID: room})

	h.logger.Debug("websocket client connected", slog.String("room", room))
	go client.ReadPump()
}
