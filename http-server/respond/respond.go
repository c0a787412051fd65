package respond

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"shopfloor/internal/storage"
)

type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type kind struct {
	err    error
	status int
	code   string
}

var kinds = []kind{
	{storage.ErrValidation, http.StatusBadRequest, "validation"},
	{storage.ErrInvalidClockPoint, http.StatusBadRequest, "invalid_clock_point"},
	{storage.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{storage.ErrTaskNotFound, http.StatusNotFound, "task_not_found"},
	{storage.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{storage.ErrShiftNotFound, http.StatusNotFound, "shift_not_found"},
	{storage.ErrMachineNotFound, http.StatusNotFound, "machine_not_found"},
	{storage.ErrActiveSessionConflict, http.StatusConflict, "active_session_conflict"},
	{storage.ErrSessionAlreadyEnded, http.StatusConflict, "session_already_ended"},
	{storage.ErrMachineUnavailable, http.StatusConflict, "machine_unavailable"},
	{storage.ErrLunchAlreadyStarted, http.StatusConflict, "lunch_already_started"},
	{storage.ErrLunchNotStarted, http.StatusConflict, "lunch_not_started"},
	{storage.ErrLunchAlreadyEnded, http.StatusConflict, "lunch_already_ended"},
	{storage.ErrInsufficientStock, http.StatusConflict, "insufficient_stock"},
	{storage.ErrOrderNotIssuable, http.StatusConflict, "order_not_issuable"},
	{storage.ErrShiftNotDeletable, http.StatusForbidden, "shift_not_deletable"},
}

// Classify возвращает HTTP-статус, код и текст для клиента. Неизвестные ошибки — 500
// без подробностей.
func Classify(err error) (int, ErrorResponse) {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status, ErrorResponse{Code: k.code, Error: k.err.Error()}
		}
	}
	return http.StatusInternalServerError, ErrorResponse{Code: "internal", Error: "Внутренняя ошибка сервера"}
}

// Error логирует ошибку операции и пишет JSON-ответ со статусом по её виду.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, op string, err error) {
	status, body := Classify(err)

	l := log.With(slog.String("op", op), slog.String("error", err.Error()))
	if status >= http.StatusInternalServerError {
		l.Error("ошибка обработки запроса")
	} else {
		l.Warn("запрос отклонён", slog.Int("status", status))
	}

	render.Status(r, status)
	render.JSON(w, r, body)
}

// BadRequest для ошибок разбора запроса до вызова сервиса.
func BadRequest(w http.ResponseWriter, r *http.Request, log *slog.Logger, op, msg string) {
	log.Warn("некорректный запрос", slog.String("op", op), slog.String("reason", msg))

	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{Code: "bad_request", Error: msg})
}

// IDParam читает положительный int64 из параметра маршрута chi.
func IDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}
