package progress

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"shopfloor/http-server/respond"
	"shopfloor/internal/service/progress"
)

type ProgressProvider interface {
	OrderProgress(ctx context.Context, orderID int64) (*progress.OrderProgress, error)
}

func GetOrderProgress(log *slog.Logger, provider ProgressProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.progress.GetOrderProgress"

		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.BadRequest(w, r, log, op, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res, err := provider.OrderProgress(ctx, id)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, res)
	}
}
