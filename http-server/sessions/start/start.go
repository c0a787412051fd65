package start

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"shopfloor/http-server/respond"
	"shopfloor/internal/storage"
)

type Request struct {
	TaskID int64 `json:"task_id"`
	UserID int64 `json:"user_id"`
}

type SessionStarter interface {
	StartSession(ctx context.Context, taskID, userID int64) (*storage.WorkLog, error)
}

func StartSession(log *slog.Logger, starter SessionStarter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.start.StartSession"

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadRequest(w, r, log, op, "Некорректный JSON")
			return
		}

		if req.TaskID <= 0 || req.UserID <= 0 {
			respond.BadRequest(w, r, log, op, "task_id и user_id обязательны")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		wl, err := starter.StartSession(ctx, req.TaskID, req.UserID)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, wl)
	}
}
