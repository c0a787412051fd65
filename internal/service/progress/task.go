package progress

import (
	"context"
	"fmt"
	"log/slog"

	"shopfloor/internal/storage"
)

// TaskTransition: задача после изменения и её статус до изменения.
type TaskTransition struct {
	Task *storage.Task
	From storage.TaskStatus
}

func (t TaskTransition) Completed() bool {
	return t.From != storage.TaskCompleted && t.Task.Status == storage.TaskCompleted
}

// Engine ведёт выработку по задаче и выводит её статус.
type Engine struct {
	log *slog.Logger
}

func NewEngine(log *slog.Logger) *Engine {
	return &Engine{log: log}
}

// NextTaskStatus: выработка покрыла план — COMPLETED, иначе IN_PROGRESS.
// COMPLETED с выработкой ниже плана (данные исправили) откатывается в IN_PROGRESS,
// PENDING после первой сессии тоже уходит в IN_PROGRESS.
func NextTaskStatus(completed, total int) storage.TaskStatus {
	if completed >= total {
		return storage.TaskCompleted
	}
	return storage.TaskInProgress
}

// ApplyProduction прибавляет выработку и брак (только вверх) и пересчитывает статус.
func (e *Engine) ApplyProduction(ctx context.Context, repo storage.Repository, taskID int64, qty, defects int) (TaskTransition, error) {
	const op = "service.progress.ApplyProduction"

	if qty < 0 || defects < 0 {
		return TaskTransition{}, fmt.Errorf("%s: %w: quantities must be non-negative", op, storage.ErrValidation)
	}

	before, err := repo.GetTask(ctx, taskID)
	if err != nil {
		return TaskTransition{}, fmt.Errorf("%s: %w", op, err)
	}

	task, err := repo.IncrementTaskProgress(ctx, taskID, qty, defects)
	if err != nil {
		return TaskTransition{}, fmt.Errorf("%s: %w", op, err)
	}

	next := NextTaskStatus(task.CompletedQuantity, task.TotalQuantity)
	if next != task.Status {
		if err := repo.UpdateTaskStatus(ctx, taskID, next); err != nil {
			return TaskTransition{}, fmt.Errorf("%s: %w", op, err)
		}

		e.log.Debug("статус задачи изменён",
			slog.String("op", op),
			slog.Int64("task_id", taskID),
			slog.String("from", string(task.Status)),
			slog.String("to", string(next)),
		)
		task.Status = next
	}

	if task.CompletedQuantity > task.TotalQuantity {
		e.log.Info("выработка превысила план задачи",
			slog.Int64("task_id", taskID),
			slog.Int("completed", task.CompletedQuantity),
			slog.Int("total", task.TotalQuantity),
		)
	}

	return TaskTransition{Task: task, From: before.Status}, nil
}

// MarkStarted переводит PENDING в IN_PROGRESS, остальные статусы не трогает.
func (e *Engine) MarkStarted(ctx context.Context, repo storage.Repository, task *storage.Task) error {
	const op = "service.progress.MarkStarted"

	if task.Status != storage.TaskPending {
		return nil
	}

	started, err := repo.StartTask(ctx, task.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if started {
		task.Status = storage.TaskInProgress
	}

	return nil
}
