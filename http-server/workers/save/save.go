package save

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"

	"shopfloor/http-server/respond"
	"shopfloor/internal/storage"
)

type WorkerCreator interface {
	CreateWorker(ctx context.Context, w storage.Worker) (int64, error)
}

type Request struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active"`
}

// SaveWorker добавляет сотрудника в справочник. Без is_active сотрудник считается активным.
func SaveWorker(log *slog.Logger, creator WorkerCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.workers.save.SaveWorker"

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadRequest(w, r, log, op, "Неверный JSON")
			return
		}

		worker := storage.Worker{
			Name:     strings.TrimSpace(req.Name),
			Role:     strings.ToUpper(strings.TrimSpace(req.Role)),
			IsActive: req.IsActive == nil || *req.IsActive,
		}
		if worker.Name == "" || worker.Role == "" {
			respond.BadRequest(w, r, log, op, "name и role обязательны")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		id, err := creator.CreateWorker(ctx, worker)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}
		worker.ID = id

		log.Info("сотрудник добавлен", slog.String("op", op), slog.Int64("worker_id", id), slog.String("role", worker.Role))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, worker)
	}
}
