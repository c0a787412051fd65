package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shopfloor/internal/storage"
)

const workLogColumns = `id, task_id, user_id, start_time, end_time, quantity_produced, defect_quantity, close_reason`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkLog(row rowScanner) (*storage.WorkLog, error) {
	var wl storage.WorkLog
	var end sql.NullTime

	err := row.Scan(&wl.ID, &wl.TaskID, &wl.UserID, &wl.StartTime, &end, &wl.QuantityProduced, &wl.DefectQuantity, &wl.CloseReason)
	if err != nil {
		return nil, err
	}
	wl.StartTime = wl.StartTime.UTC()
	wl.EndTime = timePtr(end)

	return &wl, nil
}

// CreateWorkLog опирается на уникальный ключ (user_id, open_marker): вторая открытая
// сессия пользователя отклоняется самой базой.
func (s *Storage) CreateWorkLog(ctx context.Context, wl storage.WorkLog) (int64, error) {
	const op = "storage.mysql.CreateWorkLog"

	stmt := `INSERT INTO work_logs (task_id, user_id, start_time) VALUES (?, ?, ?)`

	res, err := s.q.ExecContext(ctx, stmt, wl.TaskID, wl.UserID, wl.StartTime.UTC())
	if err != nil {
		if isDuplicate(err) {
			return 0, storage.ErrActiveSessionConflict
		}
		return 0, fmt.Errorf("%s: ошибка создания сессии для пользователя id=%d: %w", op, wl.UserID, err)
	}

	return res.LastInsertId()
}

func (s *Storage) GetWorkLog(ctx context.Context, id int64) (*storage.WorkLog, error) {
	const op = "storage.mysql.GetWorkLog"

	wl, err := scanWorkLog(s.q.QueryRowContext(ctx, s.forUpdate(`SELECT `+workLogColumns+` FROM work_logs WHERE id = ?`), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSessionNotFound
		}
		return nil, fmt.Errorf("%s: ошибка получения сессии id=%d: %w", op, id, err)
	}

	return wl, nil
}

func (s *Storage) GetActiveWorkLog(ctx context.Context, userID int64) (*storage.WorkLog, error) {
	const op = "storage.mysql.GetActiveWorkLog"

	stmt := `SELECT ` + workLogColumns + ` FROM work_logs WHERE user_id = ? AND end_time IS NULL`

	wl, err := scanWorkLog(s.q.QueryRowContext(ctx, stmt, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSessionNotFound
		}
		return nil, fmt.Errorf("%s: ошибка получения открытой сессии пользователя id=%d: %w", op, userID, err)
	}

	return wl, nil
}

func (s *Storage) CloseWorkLog(ctx context.Context, wl storage.WorkLog) error {
	const op = "storage.mysql.CloseWorkLog"

	stmt := `UPDATE work_logs SET end_time = ?, quantity_produced = ?, defect_quantity = ?, close_reason = ?
             WHERE id = ? AND end_time IS NULL`

	res, err := s.q.ExecContext(ctx, stmt, nullTime(wl.EndTime), wl.QuantityProduced, wl.DefectQuantity, wl.CloseReason, wl.ID)
	if err != nil {
		return fmt.Errorf("%s: ошибка закрытия сессии id=%d: %w", op, wl.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		if _, err := s.GetWorkLog(ctx, wl.ID); err != nil {
			return err
		}
		return storage.ErrSessionAlreadyEnded
	}

	return nil
}

func (s *Storage) ListOpenWorkLogsBefore(ctx context.Context, startedBefore time.Time) ([]storage.WorkLog, error) {
	const op = "storage.mysql.ListOpenWorkLogsBefore"

	stmt := `SELECT ` + workLogColumns + ` FROM work_logs WHERE end_time IS NULL AND start_time < ? ORDER BY id`

	rows, err := s.q.QueryContext(ctx, stmt, startedBefore.UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения зависших сессий: %w", op, err)
	}
	defer rows.Close()

	var logs []storage.WorkLog
	for rows.Next() {
		wl, err := scanWorkLog(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строк: %w", op, err)
		}
		logs = append(logs, *wl)
	}

	return logs, rows.Err()
}
