package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-scoreboard/models"
)

// Snapshotter - серверный кэш табло (livecache.Cache).
type Snapshotter interface {
	Snapshot() []*models.Match
}

type ViewerCounter interface {
	ViewerCount(room string) int
}

type ScoreboardHandler struct {
	cache       Snapshotter
	viewers     ViewerCounter
	defaultRoom string
}

func NewScoreboardHandler(cache Snapshotter, viewers ViewerCounter, defaultRoom string) *ScoreboardHandler {
	return &ScoreboardHandler{cache: cache, viewers: viewers, defaultRoom: defaultRoom}
}

func (h *ScoreboardHandler) room(r *http.Request) string {
	if room := r.URL.Query().Get("channel"); room != "" {
		return room
	}
	return h.defaultRoom
}

// GetScoreboard godoc
// @Summary Снимок табло
// @Tags scoreboard
// @Description Подтверждённое состояние всех матчей из кэша, который держит лента изменений.
// @Produce json
// @Success 200 {object} map[string]interface{} "Матчи"
// @Router /scoreboard [get]
func (h *ScoreboardHandler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	matches := h.cache.Snapshot()
	if matches == nil {
		matches = []*models.Match{}
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetViewers godoc
// @Summary Число зрителей
// @Tags scoreboard
// @Produce json
// @Param channel query string false "Канал присутствия"
// @Success 200 {object} models.ViewerCount "Зрители в канале"
// @Router /scoreboard/viewers [get]
func (h *ScoreboardHandler) GetViewers(w http.ResponseWriter, r *http.Request) {
	count := models.ViewerCount{Count: h.viewers.ViewerCount(h.room(r))}
	if err := writeJSON(w, http.StatusOK, count, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
