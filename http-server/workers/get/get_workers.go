package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"shopfloor/internal/storage"
)

type Workers interface {
	EligibleWorkers(ctx context.Context) ([]storage.Worker, error)
}

// GetWorkers отдаёт активных сотрудников, допущенных к работе на станках.
func GetWorkers(log *slog.Logger, worker Workers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.workers.get.GetWorkers"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		workers, err := worker.EligibleWorkers(ctx)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при получении работяг")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		log.Debug("работники найдены", slog.String("op", op), slog.Int("count", len(workers)))

		render.JSON(w, r, workers)
	}
}
