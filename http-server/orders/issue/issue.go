package issue

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"shopfloor/http-server/respond"
	"shopfloor/internal/storage"
)

type OrderIssuer interface {
	IssueOrder(ctx context.Context, orderID int64) error
}

// IssueOrder: ручная выдача готового заказа клиенту (READY -> ISSUED).
func IssueOrder(log *slog.Logger, issuer OrderIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.issue.IssueOrder"

		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.BadRequest(w, r, log, op, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := issuer.IssueOrder(ctx, id); err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, map[string]interface{}{
			"order_id": id,
			"status":   storage.OrderIssued,
		})
	}
}
