package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-scoreboard/services"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
	viewers          ViewerCounter
	room             string
}

func NewDashboardHandler(s services.DashboardService, viewers ViewerCounter, room string) *DashboardHandler {
	return &DashboardHandler{dashboardService: s, viewers: viewers, room: room}
}

// Stats godoc
// @Summary Сводка для админ-панели
// @Tags dashboard
// @Produce json
// @Success 200 {object} models.DashboardStats "Игроки и матчи по статусам"
// @Failure 503 {object} map[string]string "Хранилище недоступно"
// @Security BearerAuth
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.GetStats(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if h.viewers != nil {
		stats.Viewers = h.viewers.ViewerCount(h.room)
	}
	if err := writeJSON(w, http.StatusOK, stats, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
