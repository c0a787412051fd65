package timekeeping

import (
	"context"
	"fmt"
	"log/slog"

	"shopfloor/internal/storage"
)

// DeleteShift удаляет ошибочно созданную смену без прихода. Удалить может
// владелец смены или привилегированный пользователь.
func (k *Keeper) DeleteShift(ctx context.Context, shiftID int64, actor storage.Actor) error {
	const op = "service.timekeeping.DeleteShift"

	err := k.tx.RunInTx(ctx, func(repo storage.Repository) error {
		sh, err := repo.GetShiftByID(ctx, shiftID)
		if err != nil {
			return err
		}

		if sh.TimeIn != nil {
			return fmt.Errorf("%w: shift has clock-in", storage.ErrShiftNotDeletable)
		}
		if !actor.Privileged && actor.UserID != sh.UserID {
			return fmt.Errorf("%w: actor %d is not the owner", storage.ErrShiftNotDeletable, actor.UserID)
		}

		return repo.DeleteShift(ctx, shiftID)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	k.log.Info("смена удалена",
		slog.Int64("shift_id", shiftID),
		slog.Int64("actor", actor.UserID),
		slog.Bool("privileged", actor.Privileged),
	)

	return nil
}
