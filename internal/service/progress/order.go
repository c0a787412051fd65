package progress

import (
	"context"
	"fmt"
	"log/slog"

	"shopfloor/internal/storage"
)

// rank задаёт направление жизненного цикла заказа: вывод статуса только вперёд.
func rank(s storage.OrderStatus) int {
	switch s {
	case storage.OrderNew, storage.OrderInQueue:
		return 0
	case storage.OrderInProgress:
		return 1
	case storage.OrderPartiallyReady:
		return 2
	case storage.OrderReady:
		return 3
	case storage.OrderIssued:
		return 4
	default:
		return 0
	}
}

func notStarted(s storage.OrderStatus) bool {
	return s == storage.OrderNew || s == storage.OrderInQueue
}

// DeriveOrderStatus применяет правила по порядку:
//  1. все задачи (хотя бы одна) COMPLETED — READY;
//  2. есть IN_PROGRESS или COMPLETED, а заказ ещё NEW/IN_QUEUE — IN_PROGRESS;
//  3. есть COMPLETED, но не все — PARTIALLY_READY;
//  4. иначе без изменений.
//
// ISSUED не выставляется и не меняется.
func DeriveOrderStatus(current storage.OrderStatus, tasks []storage.TaskStatus) storage.OrderStatus {
	if current == storage.OrderIssued {
		return current
	}

	var completed, started int
	for _, s := range tasks {
		switch s {
		case storage.TaskCompleted:
			completed++
			started++
		case storage.TaskInProgress:
			started++
		}
	}

	next := current
	switch {
	case len(tasks) > 0 && completed == len(tasks):
		next = storage.OrderReady
	case started > 0 && notStarted(current):
		next = storage.OrderInProgress
	case completed > 0:
		next = storage.OrderPartiallyReady
	}

	if rank(next) < rank(current) {
		return current
	}
	return next
}

type OrderTransition struct {
	OrderID int64
	From    storage.OrderStatus
	To      storage.OrderStatus
}

func (t OrderTransition) Changed() bool {
	return t.From != t.To
}

// Deriver сводит статусы задач в статус заказа.
type Deriver struct {
	log *slog.Logger
}

func NewDeriver(log *slog.Logger) *Deriver {
	return &Deriver{log: log}
}

func (d *Deriver) Recompute(ctx context.Context, repo storage.Repository, orderID int64) (OrderTransition, error) {
	const op = "service.progress.Recompute"

	order, err := repo.GetOrder(ctx, orderID)
	if err != nil {
		return OrderTransition{}, fmt.Errorf("%s: %w", op, err)
	}

	tasks, err := repo.ListOrderTasks(ctx, orderID)
	if err != nil {
		return OrderTransition{}, fmt.Errorf("%s: %w", op, err)
	}

	statuses := make([]storage.TaskStatus, 0, len(tasks))
	for _, t := range tasks {
		statuses = append(statuses, t.Status)
	}

	next := DeriveOrderStatus(order.Status, statuses)
	return d.apply(ctx, repo, order, next)
}

// MarkStarted: заказ NEW/IN_QUEUE уходит в работу при первой сессии.
func (d *Deriver) MarkStarted(ctx context.Context, repo storage.Repository, orderID int64) (OrderTransition, error) {
	const op = "service.progress.MarkOrderStarted"

	order, err := repo.GetOrder(ctx, orderID)
	if err != nil {
		return OrderTransition{}, fmt.Errorf("%s: %w", op, err)
	}

	next := order.Status
	if notStarted(order.Status) {
		next = storage.OrderInProgress
	}

	return d.apply(ctx, repo, order, next)
}

func (d *Deriver) apply(ctx context.Context, repo storage.Repository, order *storage.Order, next storage.OrderStatus) (OrderTransition, error) {
	const op = "service.progress.applyOrderStatus"

	tr := OrderTransition{OrderID: order.ID, From: order.Status, To: next}
	if !tr.Changed() {
		return tr, nil
	}

	if err := repo.UpdateOrderStatus(ctx, order.ID, next); err != nil {
		return OrderTransition{}, fmt.Errorf("%s: %w", op, err)
	}

	d.log.Info("статус заказа изменён",
		slog.Int64("order_id", order.ID),
		slog.String("from", string(tr.From)),
		slog.String("to", string(tr.To)),
	)

	return tr, nil
}
