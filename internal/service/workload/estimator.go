package workload

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"shopfloor/internal/storage"
)

type Reader interface {
	ListOpenTasks(ctx context.Context) ([]storage.OpenTask, error)
	ListClosedWorkLogs(ctx context.Context, window storage.Window, userID int64) ([]storage.ClosedWorkLog, error)
	CountWorkers(ctx context.Context, roles []string) (int, error)
	ListWorkers(ctx context.Context, roles []string) ([]storage.Worker, error)
}

// Estimator считает описательные оценки загрузки и эффективности. Только чтение.
type Estimator struct {
	reader Reader
	roles  []string
	loc    *time.Location
	log    *slog.Logger
	now    func() time.Time
}

func New(reader Reader, eligibleRoles []string, loc *time.Location, log *slog.Logger) *Estimator {
	if loc == nil {
		loc = time.UTC
	}
	return &Estimator{
		reader: reader,
		roles:  eligibleRoles,
		loc:    loc,
		log:    log,
		now:    time.Now,
	}
}

// EligibleWorkers возвращает активных сотрудников с ролями, допущенными к станкам.
func (e *Estimator) EligibleWorkers(ctx context.Context) ([]storage.Worker, error) {
	const op = "service.workload.EligibleWorkers"

	workers, err := e.reader.ListWorkers(ctx, e.roles)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return workers, nil
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// divisor: меньше единицы считается единицей.
func divisor(n int) float64 {
	if n < 1 {
		return 1
	}
	return float64(n)
}

// ParseWindow разбирает даты YYYY-MM-DD в местном поясе цеха. Дата to входит в окно.
// Без from — с начала текущего месяца, без to — по сегодня.
func ParseWindow(from, to string, loc *time.Location, now time.Time) (storage.Window, error) {
	now = now.In(loc)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	if from != "" {
		d, err := time.ParseInLocation(time.DateOnly, from, loc)
		if err != nil {
			return storage.Window{}, fmt.Errorf("%w: invalid from date %q", storage.ErrValidation, from)
		}
		start = d
	}
	if to != "" {
		d, err := time.ParseInLocation(time.DateOnly, to, loc)
		if err != nil {
			return storage.Window{}, fmt.Errorf("%w: invalid to date %q", storage.ErrValidation, to)
		}
		end = d
	}

	if end.Before(start) {
		return storage.Window{}, fmt.Errorf("%w: to is before from", storage.ErrValidation)
	}

	return storage.Window{From: start.UTC(), To: end.AddDate(0, 0, 1).UTC()}, nil
}

// Window строит окно по строкам запроса с часовым поясом и часами оценщика.
func (e *Estimator) Window(from, to string) (storage.Window, error) {
	return ParseWindow(from, to, e.loc, e.now())
}
