package mysql

import (
	"context"
	"fmt"

	"shopfloor/internal/storage"
)

func workersQuery(base string, roles []string) (string, []interface{}) {
	query := base + ` WHERE e.is_active = TRUE`
	if len(roles) == 0 {
		return query, nil
	}

	return query + ` AND e.role IN (` + placeholders(len(roles)) + `)`, toInterfaceSlice(roles)
}

func (s *Storage) ListWorkers(ctx context.Context, roles []string) ([]storage.Worker, error) {
	const op = "storage.mysql.ListWorkers"

	query, args := workersQuery(`SELECT e.id, e.name, e.role, e.is_active FROM workers e`, roles)
	query += ` ORDER BY e.name ASC`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения всех работников: %w", op, err)
	}
	defer rows.Close()

	var workers []storage.Worker
	for rows.Next() {
		var worker storage.Worker

		err := rows.Scan(&worker.ID, &worker.Name, &worker.Role, &worker.IsActive)
		if err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строк для всех сотрудников: %w", op, err)
		}

		workers = append(workers, worker)
	}

	return workers, rows.Err()
}

func (s *Storage) CountWorkers(ctx context.Context, roles []string) (int, error) {
	const op = "storage.mysql.CountWorkers"

	query, args := workersQuery(`SELECT COUNT(*) FROM workers e`, roles)

	var n int
	if err := s.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: ошибка подсчёта сотрудников: %w", op, err)
	}

	return n, nil
}

func (s *Storage) CreateWorker(ctx context.Context, w storage.Worker) (int64, error) {
	const op = "storage.mysql.CreateWorker"

	res, err := s.q.ExecContext(ctx, `INSERT INTO workers (name, role, is_active) VALUES (?, ?, ?)`, w.Name, w.Role, w.IsActive)
	if err != nil {
		return 0, fmt.Errorf("%s: ошибка добавления сотрудника %q: %w", op, w.Name, err)
	}

	return res.LastInsertId()
}
