package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"shopfloor/internal/storage"
)

func (s *Storage) ListOpenTasks(ctx context.Context) ([]storage.OpenTask, error) {
	const op = "storage.mysql.ListOpenTasks"

	stmt := `SELECT t.id, t.order_id, t.machine_id, t.operation, t.total_quantity, t.completed_quantity, t.defect_quantity,
                    t.status, t.priority, t.sequence,
                    o.number, o.deadline,
                    m.id, m.name, m.status, m.efficiency_norm, m.quantity
             FROM tasks t
             JOIN orders o ON o.id = t.order_id
             JOIN machines m ON m.id = t.machine_id
             WHERE t.status IN (?, ?)
             ORDER BY t.id`

	rows, err := s.q.QueryContext(ctx, stmt, storage.TaskPending, storage.TaskInProgress)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения незавершённых задач: %w", op, err)
	}
	defer rows.Close()

	var tasks []storage.OpenTask
	for rows.Next() {
		var ot storage.OpenTask
		var deadline sql.NullTime

		err := rows.Scan(&ot.Task.ID, &ot.Task.OrderID, &ot.Task.MachineID, &ot.Task.Operation, &ot.Task.TotalQuantity,
			&ot.Task.CompletedQuantity, &ot.Task.DefectQuantity, &ot.Task.Status, &ot.Task.Priority, &ot.Task.Sequence,
			&ot.OrderNumber, &deadline,
			&ot.Machine.ID, &ot.Machine.Name, &ot.Machine.Status, &ot.Machine.EfficiencyNorm, &ot.Machine.Quantity)
		if err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строк: %w", op, err)
		}
		ot.OrderDeadline = timePtr(deadline)

		tasks = append(tasks, ot)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка при итерации по строкам: %w", op, err)
	}

	return tasks, nil
}

// ListClosedWorkLogs — закрытые сессии, начатые в окне. userID = 0 — все пользователи.
// Принудительно закрытые сессии выработки не несут и в аналитику не попадают.
func (s *Storage) ListClosedWorkLogs(ctx context.Context, window storage.Window, userID int64) ([]storage.ClosedWorkLog, error) {
	const op = "storage.mysql.ListClosedWorkLogs"

	stmt := `SELECT w.id, w.task_id, w.user_id, w.start_time, w.end_time, w.quantity_produced, w.defect_quantity, w.close_reason,
                    m.id, m.name, m.status, m.efficiency_norm, m.quantity
             FROM work_logs w
             JOIN tasks t ON t.id = w.task_id
             JOIN machines m ON m.id = t.machine_id
             WHERE w.end_time IS NOT NULL AND w.close_reason <> ? AND w.start_time >= ? AND w.start_time < ?`
	args := []interface{}{storage.CloseReasonForced, window.From.UTC(), window.To.UTC()}

	if userID != 0 {
		stmt += ` AND w.user_id = ?`
		args = append(args, userID)
	}
	stmt += ` ORDER BY w.start_time`

	rows, err := s.q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения закрытых сессий: %w", op, err)
	}
	defer rows.Close()

	var logs []storage.ClosedWorkLog
	for rows.Next() {
		var cl storage.ClosedWorkLog
		var end sql.NullTime

		err := rows.Scan(&cl.WorkLog.ID, &cl.WorkLog.TaskID, &cl.WorkLog.UserID, &cl.WorkLog.StartTime, &end,
			&cl.WorkLog.QuantityProduced, &cl.WorkLog.DefectQuantity, &cl.WorkLog.CloseReason,
			&cl.Machine.ID, &cl.Machine.Name, &cl.Machine.Status, &cl.Machine.EfficiencyNorm, &cl.Machine.Quantity)
		if err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строк: %w", op, err)
		}
		cl.WorkLog.StartTime = cl.WorkLog.StartTime.UTC()
		cl.WorkLog.EndTime = timePtr(end)

		logs = append(logs, cl)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка при итерации по строкам: %w", op, err)
	}

	return logs, nil
}
