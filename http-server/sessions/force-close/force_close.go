package force_close

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"shopfloor/http-server/respond"
	"shopfloor/internal/storage"
)

const defaultReason = "closed by administrator"

type Request struct {
	Reason string `json:"reason"`
}

type SessionCloser interface {
	ForceCloseSession(ctx context.Context, sessionID int64, reason string) (*storage.WorkLog, error)
}

// ForceCloseSession — админский маршрут, тело запроса необязательно.
func ForceCloseSession(log *slog.Logger, closer SessionCloser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.force-close.ForceCloseSession"

		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.BadRequest(w, r, log, op, err.Error())
			return
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respond.BadRequest(w, r, log, op, "Некорректный JSON")
			return
		}
		if req.Reason == "" {
			req.Reason = defaultReason
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		wl, err := closer.ForceCloseSession(ctx, id, req.Reason)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, wl)
	}
}
