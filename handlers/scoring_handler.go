package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/Dosada05/tournament-scoreboard/services"
	"github.com/google/uuid"
)

// ScoringHandler обслуживает команды судьи. Каждая команда отвечает матчем после
// изменения, включая новую версию.
type ScoringHandler struct {
	scoringService services.ScoringService
}

func NewScoringHandler(ss services.ScoringService) *ScoringHandler {
	return &ScoringHandler{scoringService: ss}
}

type sideInput struct {
	Side models.Side `json:"side"`
}

type completeInput struct {
	WinnerSide models.Side `json:"winner_side"`
}

type statusInput struct {
	Status models.MatchStatus `json:"status"`
}

// CommandIDHeader несёт id команды, сгенерированный клиентом. Хранилище записывает его
// в recent_commands, и клиент узнаёт свою команду в ленте изменений.
const CommandIDHeader = "X-Command-ID"

func commandContext(r *http.Request) (context.Context, error) {
	raw := r.Header.Get(CommandIDHeader)
	if raw == "" {
		return r.Context(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s header", CommandIDHeader)
	}
	return models.WithCommandID(r.Context(), id), nil
}

func (h *ScoringHandler) respond(w http.ResponseWriter, r *http.Request, match *models.Match, err error) {
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoringHandler) sideCommand(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, id uuid.UUID, side models.Side) (*models.Match, error),
) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	ctx, err := commandContext(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input sideInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := apply(ctx, matchID, input.Side)
	h.respond(w, r, match, err)
}

// StartMatch godoc
// @Summary Начать матч
// @Tags scoring
// @Description UPCOMING -> LIVE, открывается первый сет.
// @Produce json
// @Param matchID path string true "Match ID (uuid)"
// @Param X-Command-ID header string false "Id команды клиента (uuid)"
// @Success 200 {object} map[string]interface{} "Матч после изменения"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Failure 409 {object} map[string]string "Матч изменился параллельно"
// @Failure 422 {object} map[string]string "Недопустимый переход"
// @Failure 429 {object} map[string]string "Слишком много команд"
// @Security BearerAuth
// @Router /matches/{matchID}/start [post]
func (h *ScoringHandler) StartMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	ctx, err := commandContext(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.scoringService.StartMatch(ctx, matchID)
	h.respond(w, r, match, err)
}

// IncrementScore godoc
// @Summary Очко стороне
// @Tags scoring
// @Accept json
// @Produce json
// @Param matchID path string true "Match ID (uuid)"
// @Param X-Command-ID header string false "Id команды клиента (uuid)"
// @Param body body sideInput true "Сторона A или B"
// @Success 200 {object} map[string]interface{} "Матч после изменения"
// @Failure 409 {object} map[string]string "Матч изменился параллельно"
// @Failure 422 {object} map[string]string "Матч не LIVE или неверная сторона"
// @Security BearerAuth
// @Router /matches/{matchID}/score [post]
func (h *ScoringHandler) IncrementScore(w http.ResponseWriter, r *http.Request) {
	h.sideCommand(w, r, func(ctx context.Context, id uuid.UUID, side models.Side) (*models.Match, error) {
		return h.scoringService.IncrementScore(ctx, id, side)
	})
}

// DecrementScore godoc
// @Summary Отменить очко
// @Tags scoring
// @Accept json
// @Produce json
// @Param matchID path string true "Match ID (uuid)"
// @Param X-Command-ID header string false "Id команды клиента (uuid)"
// @Param body body sideInput true "Сторона A или B"
// @Success 200 {object} map[string]interface{} "Матч после изменения"
// @Failure 422 {object} map[string]string "Счёт уже 0"
// @Security BearerAuth
// @Router /matches/{matchID}/undo [post]
func (h *ScoringHandler) DecrementScore(w http.ResponseWriter, r *http.Request) {
	h.sideCommand(w, r, func(ctx context.Context, id uuid.UUID, side models.Side) (*models.Match, error) {
		return h.scoringService.DecrementScore(ctx, id, side)
	})
}

// EndSet godoc
// @Summary Завершить сет
// @Tags scoring
// @Accept json
// @Produce json
// @Param matchID path string true "Match ID (uuid)"
// @Param X-Command-ID header string false "Id команды клиента (uuid)"
// @Param body body sideInput true "Победитель сета"
// @Success 200 {object} map[string]interface{} "Матч после изменения"
// @Failure 422 {object} map[string]string "Все сеты сыграны"
// @Security BearerAuth
// @Router /matches/{matchID}/end-set [post]
func (h *ScoringHandler) EndSet(w http.ResponseWriter, r *http.Request) {
	h.sideCommand(w, r, func(ctx context.Context, id uuid.UUID, side models.Side) (*models.Match, error) {
		return h.scoringService.EndSet(ctx, id, side)
	})
}

// CompleteMatch godoc
// @Summary Завершить матч
// @Tags scoring
// @Accept json
// @Produce json
// @Param matchID path string true "Match ID (uuid)"
// @Param X-Command-ID header string false "Id команды клиента (uuid)"
// @Param body body completeInput true "Сторона-победитель"
// @Success 200 {object} map[string]interface{} "Матч после изменения"
// @Failure 422 {object} map[string]string "Матч уже завершён или победитель не указан"
// @Security BearerAuth
// @Router /matches/{matchID}/complete [post]
func (h *ScoringHandler) CompleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	ctx, err := commandContext(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input completeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.scoringService.CompleteMatch(ctx, matchID, input.WinnerSide)
	h.respond(w, r, match, err)
}

// SetStatus godoc
// @Summary Сменить статус матча
// @Tags scoring
// @Description Разрешён только переход UPCOMING -> LIVE, завершение идёт через /complete.
// @Accept json
// @Produce json
// @Param matchID path string true "Match ID (uuid)"
// @Param X-Command-ID header string false "Id команды клиента (uuid)"
// @Param body body statusInput true "Новый статус"
// @Success 200 {object} map[string]interface{} "Матч после изменения"
// @Failure 422 {object} map[string]string "Недопустимый переход"
// @Security BearerAuth
// @Router /matches/{matchID}/status [patch]
func (h *ScoringHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	ctx, err := commandContext(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input statusInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.scoringService.SetStatus(ctx, matchID, input.Status)
	h.respond(w, r, match, err)
}
