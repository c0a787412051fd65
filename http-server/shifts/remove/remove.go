package remove

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"shopfloor/http-server/respond"
	"shopfloor/internal/middleware/auth"
	"shopfloor/internal/storage"
)

type ShiftDeleter interface {
	DeleteShift(ctx context.Context, shiftID int64, actor storage.Actor) error
}

// DeleteShift: оператор передаёт ?user_id=, под /api/admin запрос привилегированный.
func DeleteShift(log *slog.Logger, deleter ShiftDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.shifts.remove.DeleteShift"

		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.BadRequest(w, r, log, op, err.Error())
			return
		}

		actor := storage.Actor{Privileged: auth.IsPrivileged(r.Context())}
		if raw := r.URL.Query().Get("user_id"); raw != "" {
			actor.UserID, err = strconv.ParseInt(raw, 10, 64)
			if err != nil {
				respond.BadRequest(w, r, log, op, "invalid user_id")
				return
			}
		}
		if actor.UserID == 0 && !actor.Privileged {
			respond.BadRequest(w, r, log, op, "user_id обязателен")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := deleter.DeleteShift(ctx, id, actor); err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
