package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shopfloor/internal/metrics"
	"shopfloor/internal/notify"
	"shopfloor/internal/service/progress"
	"shopfloor/internal/storage"
)

const consumeSavepoint = "consume_materials"

type ShiftKeeper interface {
	ClockIn(ctx context.Context, repo storage.Repository, userID int64, now time.Time) (*storage.Shift, error)
	ClockOut(ctx context.Context, repo storage.Repository, userID int64, day, now time.Time) (*storage.Shift, error)
}

type ProgressEngine interface {
	ApplyProduction(ctx context.Context, repo storage.Repository, taskID int64, qty, defects int) (progress.TaskTransition, error)
	MarkStarted(ctx context.Context, repo storage.Repository, task *storage.Task) error
}

type OrderDeriver interface {
	Recompute(ctx context.Context, repo storage.Repository, orderID int64) (progress.OrderTransition, error)
	MarkStarted(ctx context.Context, repo storage.Repository, orderID int64) (progress.OrderTransition, error)
}

type MaterialLedger interface {
	Consume(ctx context.Context, repo storage.Repository, task *storage.Task, quantity int) ([]storage.LowStockWarning, error)
}

type Deps struct {
	Tx        storage.Transactor
	Shifts    ShiftKeeper
	Progress  ProgressEngine
	Orders    OrderDeriver
	Materials MaterialLedger
	Notifier  notify.Notifier
	Metrics   *metrics.Metrics
	Log       *slog.Logger
	Now       func() time.Time
}

// Tracker ведёт рабочие сессии: старт, завершение с выработкой, принудительное закрытие.
type Tracker struct {
	Deps
}

func NewTracker(deps Deps) *Tracker {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Tracker{Deps: deps}
}

type EndResult struct {
	Session         *storage.WorkLog          `json:"session"`
	Task            *storage.Task             `json:"task"`
	OrderStatus     storage.OrderStatus       `json:"order_status"`
	LowStock        []storage.LowStockWarning `json:"low_stock"`
	MaterialWarning string                    `json:"material_warning,omitempty"`

	taskCompleted bool
	materialErr   error
	order         progress.OrderTransition
}

func (t *Tracker) StartSession(ctx context.Context, taskID, userID int64) (*storage.WorkLog, error) {
	const op = "service.session.StartSession"

	log := t.Log.With(
		slog.String("op", op),
		slog.Int64("task_id", taskID),
		slog.Int64("user_id", userID),
	)

	now := t.Now().UTC()
	var (
		wl    *storage.WorkLog
		order progress.OrderTransition
	)

	err := t.Tx.RunInTx(ctx, func(repo storage.Repository) error {
		task, err := repo.GetTask(ctx, taskID)
		if err != nil {
			return err
		}

		machine, err := repo.GetMachine(ctx, task.MachineID)
		if err != nil {
			return err
		}
		if !machine.Available() {
			return fmt.Errorf("%w: %s is %s", storage.ErrMachineUnavailable, machine.Name, machine.Status)
		}

		if active, err := repo.GetActiveWorkLog(ctx, userID); err == nil {
			return fmt.Errorf("%w: session %d", storage.ErrActiveSessionConflict, active.ID)
		} else if !errors.Is(err, storage.ErrSessionNotFound) {
			return err
		}

		wl = &storage.WorkLog{TaskID: taskID, UserID: userID, StartTime: now}
		wl.ID, err = repo.CreateWorkLog(ctx, *wl)
		if err != nil {
			return err
		}

		if _, err := t.Shifts.ClockIn(ctx, repo, userID, now); err != nil {
			return err
		}

		if err := t.Progress.MarkStarted(ctx, repo, task); err != nil {
			return err
		}

		order, err = t.Orders.MarkStarted(ctx, repo, task.OrderID)
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrActiveSessionConflict) {
			t.Metrics.SessionConflicts.Inc()
		}
		log.Warn("не удалось начать сессию", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	t.Metrics.SessionsStarted.Inc()
	t.Notifier.Notify(ctx, notify.TopicSessionStarted, wl)
	t.notifyOrder(ctx, order)

	log.Info("сессия начата", slog.Int64("session_id", wl.ID))

	return wl, nil
}

// EndSession закрывает сессию и в той же транзакции обновляет смену, выработку,
// материалы и статус заказа. Ошибка списания материалов откатывается к точке
// сохранения и возвращается предупреждением.
func (t *Tracker) EndSession(ctx context.Context, sessionID int64, qty, defects int) (*EndResult, error) {
	const op = "service.session.EndSession"

	log := t.Log.With(slog.String("op", op), slog.Int64("session_id", sessionID))

	if qty < 0 || defects < 0 {
		return nil, fmt.Errorf("%s: %w: quantities must be non-negative", op, storage.ErrValidation)
	}

	now := t.Now().UTC()
	res := &EndResult{}

	err := t.Tx.RunInTx(ctx, func(repo storage.Repository) error {
		wl, err := repo.GetWorkLog(ctx, sessionID)
		if err != nil {
			return err
		}
		if !wl.IsOpen() {
			return storage.ErrSessionAlreadyEnded
		}

		wl.EndTime = &now
		wl.QuantityProduced = qty
		wl.DefectQuantity = defects
		if err := repo.CloseWorkLog(ctx, *wl); err != nil {
			return err
		}
		res.Session = wl

		if _, err := t.Shifts.ClockOut(ctx, repo, wl.UserID, wl.StartTime, now); err != nil {
			return err
		}

		tr, err := t.Progress.ApplyProduction(ctx, repo, wl.TaskID, qty, defects)
		if err != nil {
			return err
		}
		res.Task = tr.Task
		res.taskCompleted = tr.Completed()

		var consumeErr error
		err = repo.Savepoint(ctx, consumeSavepoint, func(sp storage.Repository) error {
			res.LowStock, consumeErr = t.Materials.Consume(ctx, sp, tr.Task, qty+defects)
			return consumeErr
		})
		switch {
		case err == nil:
		case consumeErr != nil && errors.Is(err, consumeErr):
			res.LowStock = nil
			res.materialErr = consumeErr
			res.MaterialWarning = consumeErr.Error()
		default:
			return err
		}

		res.order, err = t.Orders.Recompute(ctx, repo, tr.Task.OrderID)
		if err != nil {
			return err
		}
		res.OrderStatus = res.order.To

		return nil
	})
	if err != nil {
		log.Warn("не удалось завершить сессию", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	t.afterEnd(ctx, log, res)

	return res, nil
}

func (t *Tracker) afterEnd(ctx context.Context, log *slog.Logger, res *EndResult) {
	t.Metrics.SessionsEnded.Inc()
	t.Metrics.ProducedUnits.Add(float64(res.Session.QuantityProduced))
	t.Metrics.DefectUnits.Add(float64(res.Session.DefectQuantity))

	t.Notifier.Notify(ctx, notify.TopicSessionEnded, res.Session)

	if res.materialErr != nil {
		reason := "error"
		if errors.Is(res.materialErr, storage.ErrInsufficientStock) {
			reason = "insufficient_stock"
		}
		t.Metrics.MaterialFailures.WithLabelValues(reason).Inc()
		log.Warn("материалы не списаны", slog.Int64("task_id", res.Task.ID), slog.String("warning", res.MaterialWarning))
	}

	if res.taskCompleted {
		t.Metrics.TasksCompleted.Inc()
		t.Notifier.Notify(ctx, notify.TopicTaskCompleted, res.Task)
	}

	for _, w := range res.LowStock {
		t.Metrics.LowStockWarnings.WithLabelValues(w.MaterialName).Inc()
		t.Notifier.Notify(ctx, notify.TopicLowStock, w)
	}

	t.notifyOrder(ctx, res.order)

	log.Info("сессия завершена",
		slog.Int64("task_id", res.Task.ID),
		slog.Int("quantity", res.Session.QuantityProduced),
		slog.Int("defects", res.Session.DefectQuantity),
		slog.String("task_status", string(res.Task.Status)),
		slog.String("order_status", string(res.OrderStatus)),
	)
}

func (t *Tracker) notifyOrder(ctx context.Context, tr progress.OrderTransition) {
	if !tr.Changed() {
		return
	}
	t.Notifier.Notify(ctx, notify.TopicOrderStatus, map[string]any{
		"order_id": tr.OrderID,
		"from":     tr.From,
		"to":       tr.To,
	})
}

func (t *Tracker) GetActiveSession(ctx context.Context, userID int64) (*storage.WorkLog, error) {
	const op = "service.session.GetActiveSession"

	var wl *storage.WorkLog
	err := t.Tx.RunInTx(ctx, func(repo storage.Repository) error {
		var err error
		wl, err = repo.GetActiveWorkLog(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return wl, nil
}

// ForceCloseSession закрывает забытую сессию без выработки. Задача и заказ не меняются,
// уход в смене дня начала сессии обновляется как при обычном завершении.
func (t *Tracker) ForceCloseSession(ctx context.Context, sessionID int64, reason string) (*storage.WorkLog, error) {
	const op = "service.session.ForceCloseSession"

	now := t.Now().UTC()
	var wl *storage.WorkLog

	err := t.Tx.RunInTx(ctx, func(repo storage.Repository) error {
		var err error
		wl, err = repo.GetWorkLog(ctx, sessionID)
		if err != nil {
			return err
		}
		if !wl.IsOpen() {
			return storage.ErrSessionAlreadyEnded
		}

		wl.EndTime = &now
		wl.QuantityProduced = 0
		wl.DefectQuantity = 0
		wl.CloseReason = storage.CloseReasonForced
		if err := repo.CloseWorkLog(ctx, *wl); err != nil {
			return err
		}

		_, err = t.Shifts.ClockOut(ctx, repo, wl.UserID, wl.StartTime, now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	t.Metrics.SessionsForceClosed.Inc()
	t.Notifier.Notify(ctx, notify.TopicSessionForceClosed, map[string]any{
		"session": wl,
		"reason":  reason,
	})

	t.Log.Warn("сессия закрыта принудительно",
		slog.Int64("session_id", sessionID),
		slog.Int64("user_id", wl.UserID),
		slog.String("reason", reason),
	)

	return wl, nil
}
