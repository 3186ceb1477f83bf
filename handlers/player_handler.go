package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/Dosada05/tournament-scoreboard/services"
)

type PlayerHandler struct {
	playerService services.PlayerService
}

func NewPlayerHandler(ps services.PlayerService) *PlayerHandler {
	return &PlayerHandler{playerService: ps}
}

// RegisterPlayer godoc
// @Summary Регистрация игрока
// @Tags players
// @Description Публичная анкета. Игрок создаётся в статусе PENDING и ждёт одобрения.
// @Accept json
// @Produce json
// @Param body body services.PlayerInput true "Анкета игрока"
// @Success 201 {object} map[string]interface{} "Заявка создана"
// @Failure 400 {object} map[string]string "Неверный JSON"
// @Failure 409 {object} map[string]string "Табельный номер уже зарегистрирован"
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Router /players [post]
func (h *PlayerHandler) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var input services.PlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListPlayers godoc
// @Summary Список игроков
// @Tags players
// @Produce json
// @Param status query string false "Фильтр по статусу (PENDING, APPROVED, REJECTED)"
// @Success 200 {object} map[string]interface{} "Список игроков"
// @Failure 422 {object} map[string]string "Неверный статус"
// @Security BearerAuth
// @Router /players [get]
func (h *PlayerHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	var status *models.PlayerStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.PlayerStatus(raw)
		status = &s
	}

	players, err := h.playerService.List(r.Context(), status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetPlayer godoc
// @Summary Получить игрока
// @Tags players
// @Produce json
// @Param playerID path string true "Player ID (uuid)"
// @Success 200 {object} map[string]interface{} "Игрок"
// @Failure 404 {object} map[string]string "Игрок не найден"
// @Security BearerAuth
// @Router /players/{playerID} [get]
func (h *PlayerHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.Get(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ApprovePlayer godoc
// @Summary Одобрить заявку игрока
// @Tags players
// @Produce json
// @Param playerID path string true "Player ID (uuid)"
// @Success 200 {object} map[string]interface{} "Игрок одобрен"
// @Failure 404 {object} map[string]string "Игрок не найден"
// @Security BearerAuth
// @Router /players/{playerID}/approve [post]
func (h *PlayerHandler) ApprovePlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.Approve(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RejectPlayer godoc
// @Summary Отклонить заявку игрока
// @Tags players
// @Produce json
// @Param playerID path string true "Player ID (uuid)"
// @Success 200 {object} map[string]interface{} "Заявка отклонена"
// @Failure 404 {object} map[string]string "Игрок не найден"
// @Security BearerAuth
// @Router /players/{playerID}/reject [post]
func (h *PlayerHandler) RejectPlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.Reject(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdatePlayer godoc
// @Summary Редактировать игрока
// @Tags players
// @Description Недоступно после завершённого матча с участием игрока.
// @Accept json
// @Produce json
// @Param playerID path string true "Player ID (uuid)"
// @Param body body services.PlayerInput true "Анкета игрока"
// @Success 200 {object} map[string]interface{} "Игрок обновлён"
// @Failure 409 {object} map[string]string "Игрок заблокирован или номер занят"
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Security BearerAuth
// @Router /players/{playerID} [put]
func (h *PlayerHandler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.PlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.Update(r.Context(), playerID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeletePlayer godoc
// @Summary Удалить игрока
// @Tags players
// @Param playerID path string true "Player ID (uuid)"
// @Success 204 "Игрок удалён"
// @Failure 409 {object} map[string]string "Игрок участвует в матчах"
// @Security BearerAuth
// @Router /players/{playerID} [delete]
func (h *PlayerHandler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.playerService.Delete(r.Context(), playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
