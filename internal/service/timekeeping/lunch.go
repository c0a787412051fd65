package timekeeping

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"shopfloor/internal/storage"
)

// StartLunch: обед можно начать только один раз за смену.
func (k *Keeper) StartLunch(ctx context.Context, userID int64) (*storage.Shift, error) {
	const op = "service.timekeeping.StartLunch"

	now := k.now()
	sh, err := k.updateToday(ctx, userID, func(sh *storage.Shift) error {
		if sh.LunchStatus != storage.LunchNotTaken {
			return fmt.Errorf("%w: lunch status %s", storage.ErrLunchAlreadyStarted, sh.LunchStatus)
		}
		sh.LunchStatus = storage.LunchInProgress
		sh.LunchStart = &now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sh, nil
}

// EndLunch закрывает обед и считает переработку сверх положенного времени в минутах.
func (k *Keeper) EndLunch(ctx context.Context, userID int64) (*storage.Shift, error) {
	const op = "service.timekeeping.EndLunch"

	now := k.now()
	sh, err := k.updateToday(ctx, userID, func(sh *storage.Shift) error {
		switch sh.LunchStatus {
		case storage.LunchTaken:
			return storage.ErrLunchAlreadyEnded
		case storage.LunchInProgress:
		default:
			return fmt.Errorf("%w: lunch status %s", storage.ErrLunchNotStarted, sh.LunchStatus)
		}

		sh.LunchStatus = storage.LunchTaken
		sh.LunchEnd = &now
		sh.LunchOvertime = k.overtime(*sh)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if sh.LunchOvertime != nil {
		k.log.Info("обед превысил норму",
			slog.Int64("user_id", userID),
			slog.Int("overtime_min", *sh.LunchOvertime),
		)
	}

	return sh, nil
}

// MarkNoLunch фиксирует отказ от обеда. Повторный вызов ничего не меняет.
func (k *Keeper) MarkNoLunch(ctx context.Context, userID int64) (*storage.Shift, error) {
	const op = "service.timekeeping.MarkNoLunch"

	sh, err := k.updateToday(ctx, userID, func(sh *storage.Shift) error {
		sh.LunchStatus = storage.LunchDeclined
		sh.LunchStart = nil
		sh.LunchEnd = nil
		sh.LunchOvertime = nil
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sh, nil
}

func (k *Keeper) overtime(sh storage.Shift) *int {
	if sh.LunchStart == nil || sh.LunchEnd == nil {
		return nil
	}

	minutes := int(math.Floor(sh.LunchEnd.Sub(*sh.LunchStart).Minutes()))
	over := minutes - int(k.settings.LunchDuration.Minutes())
	if over <= 0 {
		return nil
	}
	return &over
}

// updateToday применяет fn к сегодняшней смене (создаёт её при отсутствии) в одной транзакции.
func (k *Keeper) updateToday(ctx context.Context, userID int64, fn func(sh *storage.Shift) error) (*storage.Shift, error) {
	var res *storage.Shift
	err := k.tx.RunInTx(ctx, func(repo storage.Repository) error {
		sh, err := k.ensure(ctx, repo, userID, k.ShiftDate(k.now()))
		if err != nil {
			return err
		}

		if err := fn(sh); err != nil {
			return err
		}

		if err := repo.UpdateShift(ctx, *sh); err != nil {
			return err
		}
		res = sh
		return nil
	})
	return res, err
}
