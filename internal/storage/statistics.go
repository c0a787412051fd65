package storage

import "time"

// OpenTask — незавершённая задача вместе со станком и заказом, для оценки загрузки.
type OpenTask struct {
	Task          Task       `json:"task"`
	OrderNumber   string     `json:"order_number"`
	OrderDeadline *time.Time `json:"order_deadline"`
	Machine       Machine    `json:"machine"`
}

// ClosedWorkLog: закрытая сессия вместе со станком задачи.
type ClosedWorkLog struct {
	WorkLog WorkLog `json:"work_log"`
	Machine Machine `json:"machine"`
}

type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}
