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

type ShiftProvider interface {
	Today(ctx context.Context, userID int64) (*storage.Shift, error)
	GetShift(ctx context.Context, userID int64, date time.Time) (*storage.Shift, error)
}

// GetShift — смена за сегодня, либо за ?date=YYYY-MM-DD.
func GetShift(log *slog.Logger, provider ShiftProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.shifts.get.GetShift"

		userID, err := respond.IDParam(r, "userID")
		if err != nil {
			respond.BadRequest(w, r, log, op, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var sh *storage.Shift
		if dateStr := r.URL.Query().Get("date"); dateStr != "" {
			date, perr := time.Parse(time.DateOnly, dateStr)
			if perr != nil {
				respond.BadRequest(w, r, log, op, "invalid date")
				return
			}
			// полдень, чтобы день не сдвинулся при переводе в пояс цеха
			sh, err = provider.GetShift(ctx, userID, date.Add(12*time.Hour))
		} else {
			sh, err = provider.Today(ctx, userID)
		}
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, sh)
	}
}
