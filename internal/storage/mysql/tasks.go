package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopfloor/internal/storage"
)

func (s *Storage) GetTask(ctx context.Context, id int64) (*storage.Task, error) {
	const op = "storage.mysql.GetTask"

	stmt := `SELECT id, order_id, machine_id, operation, total_quantity, completed_quantity, defect_quantity,
                    status, priority, sequence
             FROM tasks WHERE id = ?`

	var t storage.Task
	err := s.q.QueryRowContext(ctx, stmt, id).Scan(&t.ID, &t.OrderID, &t.MachineID, &t.Operation, &t.TotalQuantity,
		&t.CompletedQuantity, &t.DefectQuantity, &t.Status, &t.Priority, &t.Sequence)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTaskNotFound
		}
		return nil, fmt.Errorf("%s: ошибка получения задачи id=%d: %w", op, id, err)
	}

	workers, err := s.taskWorkers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	t.AssignedWorkers = workers

	return &t, nil
}

func (s *Storage) taskWorkers(ctx context.Context, taskID int64) ([]int64, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT worker_id FROM task_workers WHERE task_id = ? ORDER BY worker_id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения исполнителей задачи id=%d: %w", taskID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan task worker: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (s *Storage) IncrementTaskProgress(ctx context.Context, id int64, qty, defects int) (*storage.Task, error) {
	const op = "storage.mysql.IncrementTaskProgress"

	stmt := `UPDATE tasks SET completed_quantity = completed_quantity + ?, defect_quantity = defect_quantity + ? WHERE id = ?`

	res, err := s.q.ExecContext(ctx, stmt, qty, defects, id)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка обновления выработки задачи id=%d: %w", op, id, err)
	}

	// affected = 0 и при отсутствии строки, и при qty = defects = 0, поэтому проверяем чтением
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetTask(ctx, id); err != nil {
			return nil, err
		}
	}

	return s.GetTask(ctx, id)
}

func (s *Storage) UpdateTaskStatus(ctx context.Context, id int64, status storage.TaskStatus) error {
	const op = "storage.mysql.UpdateTaskStatus"

	_, err := s.q.ExecContext(ctx, `UPDATE tasks SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления статуса задачи id=%d: %w", op, id, err)
	}

	return nil
}

// StartTask переводит в IN_PROGRESS только задачу в PENDING, false: статус уже другой.
func (s *Storage) StartTask(ctx context.Context, id int64) (bool, error) {
	const op = "storage.mysql.StartTask"

	res, err := s.q.ExecContext(ctx, `UPDATE tasks SET status = ? WHERE id = ? AND status = ?`,
		storage.TaskInProgress, id, storage.TaskPending)
	if err != nil {
		return false, fmt.Errorf("%s: ошибка запуска задачи id=%d: %w", op, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

func (s *Storage) GetOrder(ctx context.Context, id int64) (*storage.Order, error) {
	const op = "storage.mysql.GetOrder"

	var o storage.Order
	var deadline sql.NullTime

	// строка заказа блокируется до коммита: пересчёт статуса по задачам идёт строго по очереди
	stmt := s.forUpdate(`SELECT id, number, status, priority, deadline FROM orders WHERE id = ?`)

	err := s.q.QueryRowContext(ctx, stmt, id).
		Scan(&o.ID, &o.Number, &o.Status, &o.Priority, &deadline)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrOrderNotFound
		}
		return nil, fmt.Errorf("%s: ошибка получения заказа id=%d: %w", op, id, err)
	}
	o.Deadline = timePtr(deadline)

	return &o, nil
}

func (s *Storage) ListOrderTasks(ctx context.Context, orderID int64) ([]storage.TaskProgress, error) {
	const op = "storage.mysql.ListOrderTasks"

	stmt := `SELECT id, total_quantity, completed_quantity, status FROM tasks WHERE order_id = ? ORDER BY sequence, id`

	rows, err := s.q.QueryContext(ctx, stmt, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения задач заказа id=%d: %w", op, orderID, err)
	}
	defer rows.Close()

	var tasks []storage.TaskProgress
	for rows.Next() {
		var t storage.TaskProgress
		if err := rows.Scan(&t.TaskID, &t.TotalQuantity, &t.CompletedQuantity, &t.Status); err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строк задач: %w", op, err)
		}
		tasks = append(tasks, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка при итерации по строкам: %w", op, err)
	}

	return tasks, nil
}

func (s *Storage) UpdateOrderStatus(ctx context.Context, id int64, status storage.OrderStatus) error {
	const op = "storage.mysql.UpdateOrderStatus"

	_, err := s.q.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления статуса заказа id=%d: %w", op, id, err)
	}

	return nil
}

func (s *Storage) GetMachine(ctx context.Context, id int64) (*storage.Machine, error) {
	const op = "storage.mysql.GetMachine"

	var m storage.Machine
	err := s.q.QueryRowContext(ctx, `SELECT id, name, status, efficiency_norm, quantity FROM machines WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.Status, &m.EfficiencyNorm, &m.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrMachineNotFound
		}
		return nil, fmt.Errorf("%s: ошибка получения станка id=%d: %w", op, id, err)
	}

	return &m, nil
}
