package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shopfloor/internal/storage"
)

const shiftColumns = `id, user_id, shift_date, time_in, time_out, lunch_status, lunch_start, lunch_end, lunch_overtime,
                      is_late, planned_start`

func scanShift(row rowScanner) (*storage.Shift, error) {
	var sh storage.Shift
	var timeIn, timeOut, lunchStart, lunchEnd sql.NullTime
	var overtime sql.NullInt64

	err := row.Scan(&sh.ID, &sh.UserID, &sh.Date, &timeIn, &timeOut, &sh.LunchStatus, &lunchStart, &lunchEnd,
		&overtime, &sh.IsLate, &sh.PlannedStart)
	if err != nil {
		return nil, err
	}

	sh.Date = sh.Date.UTC()
	sh.PlannedStart = sh.PlannedStart.UTC()
	sh.TimeIn = timePtr(timeIn)
	sh.TimeOut = timePtr(timeOut)
	sh.LunchStart = timePtr(lunchStart)
	sh.LunchEnd = timePtr(lunchEnd)
	if overtime.Valid {
		v := int(overtime.Int64)
		sh.LunchOvertime = &v
	}

	return &sh, nil
}

func (s *Storage) GetShift(ctx context.Context, userID int64, date time.Time) (*storage.Shift, error) {
	const op = "storage.mysql.GetShift"

	stmt := s.forUpdate(`SELECT ` + shiftColumns + ` FROM shifts WHERE user_id = ? AND shift_date = ?`)

	sh, err := scanShift(s.q.QueryRowContext(ctx, stmt, userID, date.Format(time.DateOnly)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrShiftNotFound
		}
		return nil, fmt.Errorf("%s: ошибка получения смены пользователя id=%d: %w", op, userID, err)
	}

	return sh, nil
}

func (s *Storage) GetShiftByID(ctx context.Context, id int64) (*storage.Shift, error) {
	const op = "storage.mysql.GetShiftByID"

	sh, err := scanShift(s.q.QueryRowContext(ctx, s.forUpdate(`SELECT `+shiftColumns+` FROM shifts WHERE id = ?`), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrShiftNotFound
		}
		return nil, fmt.Errorf("%s: ошибка получения смены id=%d: %w", op, id, err)
	}

	return sh, nil
}

// CreateShift вставляет смену; параллельная вставка того же ключа не ошибка,
// просто читаем уже созданную строку.
func (s *Storage) CreateShift(ctx context.Context, sh storage.Shift) (*storage.Shift, error) {
	const op = "storage.mysql.CreateShift"

	if sh.LunchStatus == "" {
		sh.LunchStatus = storage.LunchNotTaken
	}

	stmt := `INSERT INTO shifts (user_id, shift_date, time_in, time_out, lunch_status, is_late, planned_start)
             VALUES (?, ?, ?, ?, ?, ?, ?)
             ON DUPLICATE KEY UPDATE id = id`

	_, err := s.q.ExecContext(ctx, stmt, sh.UserID, sh.Date.Format(time.DateOnly), nullTime(sh.TimeIn), nullTime(sh.TimeOut),
		sh.LunchStatus, sh.IsLate, sh.PlannedStart.UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка создания смены пользователя id=%d: %w", op, sh.UserID, err)
	}

	return s.GetShift(ctx, sh.UserID, sh.Date)
}

func (s *Storage) UpdateShift(ctx context.Context, sh storage.Shift) error {
	const op = "storage.mysql.UpdateShift"

	stmt := `UPDATE shifts SET time_in = ?, time_out = ?, lunch_status = ?, lunch_start = ?, lunch_end = ?,
                    lunch_overtime = ?, is_late = ?
             WHERE id = ?`

	var overtime sql.NullInt64
	if sh.LunchOvertime != nil {
		overtime = sql.NullInt64{Int64: int64(*sh.LunchOvertime), Valid: true}
	}

	_, err := s.q.ExecContext(ctx, stmt, nullTime(sh.TimeIn), nullTime(sh.TimeOut), sh.LunchStatus, nullTime(sh.LunchStart),
		nullTime(sh.LunchEnd), overtime, sh.IsLate, sh.ID)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления смены id=%d: %w", op, sh.ID, err)
	}

	return nil
}

func (s *Storage) DeleteShift(ctx context.Context, id int64) error {
	const op = "storage.mysql.DeleteShift"

	// time_in IS NULL — повторная защита от удаления начатой смены
	res, err := s.q.ExecContext(ctx, `DELETE FROM shifts WHERE id = ? AND time_in IS NULL`, id)
	if err != nil {
		return fmt.Errorf("%s: ошибка удаления смены id=%d: %w", op, id, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrShiftNotDeletable
	}

	return nil
}
