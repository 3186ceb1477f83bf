package handlers

import (
	"fmt"
	"net/http"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/Dosada05/tournament-scoreboard/repositories"
	"github.com/Dosada05/tournament-scoreboard/services"
)

type MatchHandler struct {
	scoringService services.ScoringService
}

func NewMatchHandler(ss services.ScoringService) *MatchHandler {
	return &MatchHandler{scoringService: ss}
}

// ListMatches godoc
// @Summary Список матчей
// @Tags matches
// @Description Матчи с подставленными игроками, сортировка по времени начала.
// @Produce json
// @Param status query string false "Фильтр по статусу (UPCOMING, LIVE, COMPLETED)"
// @Param category query string false "Фильтр по категории"
// @Success 200 {object} map[string]interface{} "Список матчей"
// @Failure 400 {object} map[string]string "Неверный фильтр"
// @Router /matches [get]
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	var filter repositories.MatchFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.MatchStatus(raw)
		if !status.IsValid() {
			badRequestResponse(w, r, fmt.Errorf("invalid status filter %q", raw))
			return
		}
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("category"); raw != "" {
		category := models.Category(raw)
		if !category.IsValid() {
			badRequestResponse(w, r, fmt.Errorf("invalid category filter %q", raw))
			return
		}
		filter.Category = &category
	}

	matches, err := h.scoringService.ListMatches(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMatch godoc
// @Summary Получить матч
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID (uuid)"
// @Success 200 {object} map[string]interface{} "Матч"
// @Failure 400 {object} map[string]string "Неверный ID"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Router /matches/{matchID} [get]
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.scoringService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateMatch godoc
// @Summary Создать матч
// @Tags matches
// @Description Игроки должны существовать и быть одобрены. Для парных категорий нужны оба партнёра.
// @Accept json
// @Produce json
// @Param body body services.CreateMatchInput true "Участники, категория, корт"
// @Success 201 {object} map[string]interface{} "Матч создан"
// @Failure 400 {object} map[string]string "Неверный JSON"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Security BearerAuth
// @Router /matches [post]
func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.scoringService.CreateMatch(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteMatch godoc
// @Summary Удалить матч
// @Tags matches
// @Param matchID path string true "Match ID (uuid)"
// @Success 204 "Матч удалён"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Security BearerAuth
// @Router /matches/{matchID} [delete]
func (h *MatchHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.scoringService.DeleteMatch(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
