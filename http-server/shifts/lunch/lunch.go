package lunch

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"shopfloor/http-server/respond"
	"shopfloor/internal/storage"
)

type LunchKeeper interface {
	StartLunch(ctx context.Context, userID int64) (*storage.Shift, error)
	EndLunch(ctx context.Context, userID int64) (*storage.Shift, error)
	MarkNoLunch(ctx context.Context, userID int64) (*storage.Shift, error)
}

func StartLunch(log *slog.Logger, keeper LunchKeeper) http.HandlerFunc {
	return handle(log, "handlers.shifts.lunch.StartLunch", keeper.StartLunch)
}

func EndLunch(log *slog.Logger, keeper LunchKeeper) http.HandlerFunc {
	return handle(log, "handlers.shifts.lunch.EndLunch", keeper.EndLunch)
}

func DeclineLunch(log *slog.Logger, keeper LunchKeeper) http.HandlerFunc {
	return handle(log, "handlers.shifts.lunch.DeclineLunch", keeper.MarkNoLunch)
}

func handle(log *slog.Logger, op string, fn func(ctx context.Context, userID int64) (*storage.Shift, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := respond.IDParam(r, "userID")
		if err != nil {
			respond.BadRequest(w, r, log, op, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		sh, err := fn(ctx, userID)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, sh)
	}
}
