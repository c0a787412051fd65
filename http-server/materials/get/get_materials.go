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

type MaterialProvider interface {
	ListLowStock(ctx context.Context) ([]storage.Material, error)
}

// GetLowStock отдаёт материалы, остаток которых дошёл до минимума.
func GetLowStock(log *slog.Logger, material MaterialProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.materials.GetLowStock"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		materials, err := material.ListLowStock(ctx)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		if materials == nil {
			materials = []storage.Material{}
		}

		render.JSON(w, r, materials)
	}
}
