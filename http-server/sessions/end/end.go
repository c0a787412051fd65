package end

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"shopfloor/http-server/respond"
	"shopfloor/internal/service/session"
)

type Request struct {
	QuantityProduced int `json:"quantity_produced"`
	DefectQuantity   int `json:"defect_quantity"`
}

type SessionEnder interface {
	EndSession(ctx context.Context, sessionID int64, qty, defects int) (*session.EndResult, error)
}

func EndSession(log *slog.Logger, ender SessionEnder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.end.EndSession"

		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.BadRequest(w, r, log, op, err.Error())
			return
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadRequest(w, r, log, op, "Некорректный JSON")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res, err := ender.EndSession(ctx, id, req.QuantityProduced, req.DefectQuantity)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		if res.MaterialWarning != "" {
			log.Warn("сессия завершена без списания материалов",
				slog.String("op", op),
				slog.Int64("session_id", id),
				slog.String("warning", res.MaterialWarning),
			)
		}

		render.JSON(w, r, res)
	}
}
