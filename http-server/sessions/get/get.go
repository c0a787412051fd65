package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"shopfloor/http-server/respond"
	"shopfloor/internal/storage"
)

type ActiveSessionProvider interface {
	GetActiveSession(ctx context.Context, userID int64) (*storage.WorkLog, error)
}

func GetActiveSession(log *slog.Logger, provider ActiveSessionProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.get.GetActiveSession"

		userID, err := respond.IDParam(r, "userID")
		if err != nil {
			respond.BadRequest(w, r, log, op, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		wl, err := provider.GetActiveSession(ctx, userID)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, wl)
	}
}
