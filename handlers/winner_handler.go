package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-scoreboard/services"
)

type WinnerHandler struct {
	winnerService services.WinnerService
}

func NewWinnerHandler(ws services.WinnerService) *WinnerHandler {
	return &WinnerHandler{winnerService: ws}
}

// ListWinners godoc
// @Summary Победители по категориям
// @Tags winners
// @Produce json
// @Success 200 {object} map[string]interface{} "Победители и призёры"
// @Router /winners [get]
func (h *WinnerHandler) ListWinners(w http.ResponseWriter, r *http.Request) {
	winners, err := h.winnerService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"winners": winners}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeclareWinner godoc
// @Summary Объявить победителя
// @Tags winners
// @Description Повторное объявление той же позиции в категории заменяет предыдущее.
// @Accept json
// @Produce json
// @Param body body services.DeclareWinnerInput true "Категория, позиция, игрок и партнёр"
// @Success 201 {object} map[string]interface{} "Победитель сохранён"
// @Failure 404 {object} map[string]string "Игрок не найден"
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Security BearerAuth
// @Router /winners [post]
func (h *WinnerHandler) DeclareWinner(w http.ResponseWriter, r *http.Request) {
	var input services.DeclareWinnerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	winner, err := h.winnerService.Declare(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"winner": winner}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RemoveWinner godoc
// @Summary Удалить запись о победителе
// @Tags winners
// @Param winnerID path string true "Winner ID (uuid)"
// @Success 204 "Удалено"
// @Failure 404 {object} map[string]string "Запись не найдена"
// @Security BearerAuth
// @Router /winners/{winnerID} [delete]
func (h *WinnerHandler) RemoveWinner(w http.ResponseWriter, r *http.Request) {
	winnerID, err := getIDFromURL(r, "winnerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.winnerService.Remove(r.Context(), winnerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
