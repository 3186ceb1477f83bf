package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-scoreboard/services"
)

const maxImportBytes = 10 << 20 // 10MB

type ImportHandler struct {
	importService services.ImportService
}

func NewImportHandler(is services.ImportService) *ImportHandler {
	return &ImportHandler{importService: is}
}

// ImportPlayers godoc
// @Summary Массовый импорт игроков
// @Tags players
// @Description CSV или XLSX. Файл в multipart-поле "file" или телом запроса с ?format=csv|xlsx.
// @Description Вставка пачками по 50, упавшая пачка не останавливает остальные.
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "Файл со списком игроков"
// @Param format query string false "csv или xlsx, если файл передан телом"
// @Param auto_approve query bool false "Сразу одобрить импортированных"
// @Success 200 {object} map[string]interface{} "Итог импорта"
// @Failure 400 {object} map[string]string "Файл не передан"
// @Failure 422 {object} map[string]string "Неподдерживаемый формат или нет обязательных колонок"
// @Security BearerAuth
// @Router /players/import [post]
func (h *ImportHandler) ImportPlayers(w http.ResponseWriter, r *http.Request) {
	autoApprove := false
	if raw := r.URL.Query().Get("auto_approve"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequestResponse(w, r, errors.New("auto_approve must be a boolean"))
			return
		}
		autoApprove = v
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	content, format, err := readImportPayload(r)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.importService.Import(r.Context(), content, format, autoApprove)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func readImportPayload(r *http.Request) ([]byte, services.ImportFormat, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", errors.New("multipart field 'file' is required")
		}
		defer file.Close()

		format, err := services.FormatFromFilename(header.Filename)
		if err != nil {
			return nil, "", err
		}
		content, err := io.ReadAll(file)
		if err != nil {
			return nil, "", err
		}
		return content, format, nil
	}

	format := services.ImportFormat(strings.ToLower(r.URL.Query().Get("format")))
	if format == "" {
		return nil, "", errors.New("query parameter 'format' is required for a raw body upload")
	}
	content, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", errors.New("failed to read request body")
	}
	if len(content) == 0 {
		return nil, "", errors.New("body must not be empty")
	}
	return content, format, nil
}
