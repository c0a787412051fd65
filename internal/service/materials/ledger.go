package materials

import (
	"context"
	"fmt"
	"log/slog"

	"shopfloor/internal/storage"
)

// Ledger списывает материалы задачи пропорционально выработке.
type Ledger struct {
	tx  storage.Transactor
	log *slog.Logger
}

func NewLedger(tx storage.Transactor, log *slog.Logger) *Ledger {
	return &Ledger{tx: tx, log: log}
}

// Consumption — расход материала на quantity единиц при норме ratio на весь объём задачи.
func Consumption(ratio float64, taskTotal, quantity int) float64 {
	if taskTotal <= 0 {
		return 0
	}
	return ratio / float64(taskTotal) * float64(quantity)
}

// Consume списывает материалы в единице работы вызывающего: либо все, либо ни одного.
// Возвращает предупреждения по материалам, остаток которых опустился до минимума.
func (l *Ledger) Consume(ctx context.Context, repo storage.Repository, task *storage.Task, quantity int) ([]storage.LowStockWarning, error) {
	const op = "service.materials.Consume"

	assigned, err := repo.ListTaskMaterials(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(assigned) == 0 || quantity == 0 {
		return nil, nil
	}

	changes := make([]storage.StockChange, 0, len(assigned))
	var warnings []storage.LowStockWarning

	for _, a := range assigned {
		newStock := a.Material.CurrentStock - Consumption(a.Quantity, task.TotalQuantity, quantity)
		if newStock < 0 {
			return nil, fmt.Errorf("%s: %w: %s (остаток %.3f %s, нужно %.3f)",
				op, storage.ErrInsufficientStock, a.Material.Name,
				a.Material.CurrentStock, a.Material.Unit, a.Material.CurrentStock-newStock)
		}

		changes = append(changes, storage.StockChange{MaterialID: a.Material.ID, NewStock: newStock})
		if newStock <= a.Material.MinStock {
			warnings = append(warnings, storage.LowStockWarning{
				MaterialName: a.Material.Name,
				CurrentStock: newStock,
				Unit:         a.Material.Unit,
			})
		}
	}

	if err := repo.ApplyStockChanges(ctx, changes); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	l.log.Debug("материалы списаны",
		slog.String("op", op),
		slog.Int64("task_id", task.ID),
		slog.Int("quantity", quantity),
		slog.Int("materials", len(changes)),
	)

	return warnings, nil
}

// ListLowStock возвращает материалы с остатком на минимуме или ниже.
func (l *Ledger) ListLowStock(ctx context.Context) ([]storage.Material, error) {
	const op = "service.materials.ListLowStock"

	var res []storage.Material
	err := l.tx.RunInTx(ctx, func(repo storage.Repository) error {
		var err error
		res, err = repo.ListLowStockMaterials(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}
