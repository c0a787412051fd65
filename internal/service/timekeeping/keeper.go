package timekeeping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"shopfloor/internal/config"
	"shopfloor/internal/metrics"
	"shopfloor/internal/notify"
	"shopfloor/internal/storage"
)

// Исходы сканирования QR-точки.
const (
	EventClockIn  = "clock_in"
	EventClockOut = "clock_out"
	EventNoop     = "noop"
)

type Settings struct {
	Location      *time.Location
	PlannedStart  time.Duration
	LateGrace     time.Duration
	LunchDuration time.Duration
	ClockPoints   []string
}

func SettingsFromConfig(cfg config.Shift) Settings {
	return Settings{
		Location:      cfg.Location(),
		PlannedStart:  cfg.PlannedStartOffset(),
		LateGrace:     cfg.LateGrace,
		LunchDuration: cfg.LunchDuration,
		ClockPoints:   cfg.ClockPoints,
	}
}

// Keeper ведёт табель: приход/уход, обед, удаление ошибочных смен.
type Keeper struct {
	tx       storage.Transactor
	settings Settings
	notifier notify.Notifier
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time
}

func New(tx storage.Transactor, settings Settings, notifier notify.Notifier, m *metrics.Metrics, log *slog.Logger, now func() time.Time) *Keeper {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Keeper{
		tx:       tx,
		settings: settings,
		notifier: notifier,
		metrics:  m,
		log:      log,
		now:      now,
	}
}

// ShiftDate — календарный день цеха для момента t, полночь в UTC.
func (k *Keeper) ShiftDate(t time.Time) time.Time {
	local := t.In(k.settings.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// PlannedStart: плановое начало смены дня date по местному времени цеха.
func (k *Keeper) PlannedStart(date time.Time) time.Time {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, k.settings.Location)
	return start.Add(k.settings.PlannedStart).UTC()
}

// ensure возвращает смену пользователя на день, создавая её при необходимости.
func (k *Keeper) ensure(ctx context.Context, repo storage.Repository, userID int64, date time.Time) (*storage.Shift, error) {
	sh, err := repo.GetShift(ctx, userID, date)
	if err == nil {
		return sh, nil
	}
	if !errors.Is(err, storage.ErrShiftNotFound) {
		return nil, err
	}

	return repo.CreateShift(ctx, storage.Shift{
		UserID:       userID,
		Date:         date,
		LunchStatus:  storage.LunchNotTaken,
		PlannedStart: k.PlannedStart(date),
	})
}

// ClockIn фиксирует приход: timeIn = min(timeIn, now). Опоздание считается
// только при первой отметке дня.
func (k *Keeper) ClockIn(ctx context.Context, repo storage.Repository, userID int64, now time.Time) (*storage.Shift, error) {
	const op = "service.timekeeping.ClockIn"

	sh, err := k.ensure(ctx, repo, userID, k.ShiftDate(now))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case sh.TimeIn == nil:
		sh.TimeIn = &now
		sh.IsLate = now.After(sh.PlannedStart.Add(k.settings.LateGrace))
	case now.Before(*sh.TimeIn):
		sh.TimeIn = &now
	default:
		return sh, nil
	}

	if err := repo.UpdateShift(ctx, *sh); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sh, nil
}

// ClockOut фиксирует уход в смене дня day: timeOut = max(timeOut, now).
func (k *Keeper) ClockOut(ctx context.Context, repo storage.Repository, userID int64, day, now time.Time) (*storage.Shift, error) {
	const op = "service.timekeeping.ClockOut"

	sh, err := k.ensure(ctx, repo, userID, k.ShiftDate(day))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if sh.TimeOut != nil && !now.After(*sh.TimeOut) {
		return sh, nil
	}
	sh.TimeOut = &now

	if err := repo.UpdateShift(ctx, *sh); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sh, nil
}

type ScanResult struct {
	Event string         `json:"event"`
	Shift *storage.Shift `json:"shift"`
}

// ScanClock — отметка по QR-точке: первый скан приход, второй уход, дальше ничего.
func (k *Keeper) ScanClock(ctx context.Context, userID int64, pointHash string) (*ScanResult, error) {
	const op = "service.timekeeping.ScanClock"

	if len(k.settings.ClockPoints) > 0 && !slices.Contains(k.settings.ClockPoints, pointHash) {
		return nil, fmt.Errorf("%s: %w: %q", op, storage.ErrInvalidClockPoint, pointHash)
	}

	now := k.now()
	res := &ScanResult{}

	err := k.tx.RunInTx(ctx, func(repo storage.Repository) error {
		sh, err := k.ensure(ctx, repo, userID, k.ShiftDate(now))
		if err != nil {
			return err
		}

		switch {
		case sh.TimeIn == nil:
			res.Event = EventClockIn
			sh, err = k.ClockIn(ctx, repo, userID, now)
		case sh.TimeOut == nil:
			res.Event = EventClockOut
			sh, err = k.ClockOut(ctx, repo, userID, now, now)
		default:
			res.Event = EventNoop
		}
		res.Shift = sh
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	k.metrics.ShiftClockEvents.WithLabelValues(res.Event).Inc()
	if res.Event != EventNoop {
		k.notifier.Notify(ctx, notify.TopicShiftClock, map[string]any{
			"user_id": userID,
			"event":   res.Event,
			"at":      now,
		})
	}

	k.log.Info("скан точки учёта времени",
		slog.Int64("user_id", userID),
		slog.String("point", pointHash),
		slog.String("event", res.Event),
	)

	return res, nil
}

// GetShift — смена пользователя на день date (любой момент этого дня).
func (k *Keeper) GetShift(ctx context.Context, userID int64, date time.Time) (*storage.Shift, error) {
	const op = "service.timekeeping.GetShift"

	var sh *storage.Shift
	err := k.tx.RunInTx(ctx, func(repo storage.Repository) error {
		var err error
		sh, err = repo.GetShift(ctx, userID, k.ShiftDate(date))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sh, nil
}

// Today возвращает смену пользователя на текущий день цеха.
func (k *Keeper) Today(ctx context.Context, userID int64) (*storage.Shift, error) {
	return k.GetShift(ctx, userID, k.now())
}
