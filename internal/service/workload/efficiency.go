package workload

import (
	"context"
	"fmt"
	"time"

	"shopfloor/internal/storage"
)

type Efficiency struct {
	UserID     int64     `json:"user_id"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Actual     int       `json:"actual"`
	Expected   float64   `json:"expected"`
	Hours      float64   `json:"hours"`
	Sessions   int       `json:"sessions"`
	Efficiency float64   `json:"efficiency"`
}

// EmployeeEfficiency = 100 * Σфакт / Σ(норма станка * часы сессии) по закрытым сессиям окна.
func (e *Estimator) EmployeeEfficiency(ctx context.Context, userID int64, window storage.Window) (*Efficiency, error) {
	const op = "service.workload.EmployeeEfficiency"

	logs, err := e.reader.ListClosedWorkLogs(ctx, window, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := &Efficiency{UserID: userID, From: window.From, To: window.To}
	for _, l := range logs {
		hours := l.WorkLog.Duration().Hours()
		res.Actual += l.WorkLog.QuantityProduced
		res.Expected += l.Machine.EfficiencyNorm * hours
		res.Hours += hours
		res.Sessions++
	}

	res.Efficiency = round2(100 * ratio(float64(res.Actual), res.Expected))
	res.Expected = round2(res.Expected)
	res.Hours = round2(res.Hours)

	return res, nil
}
