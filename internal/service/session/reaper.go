package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shopfloor/internal/storage"
)

const reapReason = "session exceeded max age"

// Reaper периодически закрывает сессии, открытые дольше maxAge.
type Reaper struct {
	tracker  *Tracker
	interval time.Duration
	maxAge   time.Duration
	log      *slog.Logger
}

func NewReaper(tracker *Tracker, interval, maxAge time.Duration, log *slog.Logger) *Reaper {
	return &Reaper{
		tracker:  tracker,
		interval: interval,
		maxAge:   maxAge,
		log:      log,
	}
}

// Run блокируется до отмены ctx.
func (r *Reaper) Run(ctx context.Context) error {
	if r.interval <= 0 {
		return fmt.Errorf("service.session.Reaper: interval must be positive, got %s", r.interval)
	}

	r.log.Info("запуск закрытия забытых сессий",
		slog.Duration("interval", r.interval),
		slog.Duration("max_age", r.maxAge),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.log.Error("ошибка закрытия забытых сессий", slog.Any("error", err))
			}
		case <-ctx.Done():
			r.log.Info("закрытие забытых сессий остановлено")
			return nil
		}
	}
}

// Sweep закрывает все сессии старше maxAge и возвращает их количество.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	const op = "service.session.Sweep"

	cutoff := r.tracker.Now().UTC().Add(-r.maxAge)

	var stale []storage.WorkLog
	err := r.tracker.Tx.RunInTx(ctx, func(repo storage.Repository) error {
		var err error
		stale, err = repo.ListOpenWorkLogsBefore(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	closed := 0
	for _, wl := range stale {
		_, err := r.tracker.ForceCloseSession(ctx, wl.ID, reapReason)
		switch {
		case err == nil:
			closed++
		case errors.Is(err, storage.ErrSessionAlreadyEnded):
			// оператор успел завершить сессию сам
		default:
			return closed, fmt.Errorf("%s: %w", op, err)
		}
	}

	if closed > 0 {
		r.log.Info("забытые сессии закрыты", slog.Int("count", closed))
	}

	return closed, nil
}
