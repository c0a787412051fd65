package progress

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"shopfloor/internal/storage"
)

type OrderProgress struct {
	OrderID    int64               `json:"order_id"`
	Status     storage.OrderStatus `json:"status"`
	Percent    float64             `json:"percent"`
	TasksTotal int                 `json:"tasks_total"`
	TasksDone  int                 `json:"tasks_done"`
}

// CompletionPercent — среднее по задачам min(1, выработка/план) * 100.
// Только для отображения, на статус заказа не влияет.
func CompletionPercent(tasks []storage.TaskProgress) float64 {
	if len(tasks) == 0 {
		return 0
	}

	var sum float64
	for _, t := range tasks {
		switch {
		case t.TotalQuantity <= 0:
			if t.Status == storage.TaskCompleted {
				sum++
			}
		default:
			sum += math.Min(1, float64(t.CompletedQuantity)/float64(t.TotalQuantity))
		}
	}

	return math.Round(sum/float64(len(tasks))*100*100) / 100
}

// OrderService: чтение прогресса заказа и ручная выдача готового заказа.
type OrderService struct {
	tx  storage.Transactor
	log *slog.Logger
}

func NewOrderService(tx storage.Transactor, log *slog.Logger) *OrderService {
	return &OrderService{tx: tx, log: log}
}

func (s *OrderService) OrderProgress(ctx context.Context, orderID int64) (*OrderProgress, error) {
	const op = "service.progress.OrderProgress"

	var res *OrderProgress
	err := s.tx.RunInTx(ctx, func(repo storage.Repository) error {
		order, err := repo.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}

		tasks, err := repo.ListOrderTasks(ctx, orderID)
		if err != nil {
			return err
		}

		done := 0
		for _, t := range tasks {
			if t.Status == storage.TaskCompleted {
				done++
			}
		}

		res = &OrderProgress{
			OrderID:    orderID,
			Status:     order.Status,
			Percent:    CompletionPercent(tasks),
			TasksTotal: len(tasks),
			TasksDone:  done,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

// IssueOrder — единственный ручной переход статуса: READY -> ISSUED.
func (s *OrderService) IssueOrder(ctx context.Context, orderID int64) error {
	const op = "service.progress.IssueOrder"

	err := s.tx.RunInTx(ctx, func(repo storage.Repository) error {
		order, err := repo.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}

		if order.Status != storage.OrderReady {
			return fmt.Errorf("%w: current status %s", storage.ErrOrderNotIssuable, order.Status)
		}

		return repo.UpdateOrderStatus(ctx, orderID, storage.OrderIssued)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("заказ выдан", slog.Int64("order_id", orderID))

	return nil
}
