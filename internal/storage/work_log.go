package storage

import "time"

const CloseReasonForced = "force_closed"

type WorkLog struct {
	ID               int64      `json:"id"`
	TaskID           int64      `json:"task_id"`
	UserID           int64      `json:"user_id"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	QuantityProduced int        `json:"quantity_produced"`
	DefectQuantity   int        `json:"defect_quantity"`
	CloseReason      string     `json:"close_reason,omitempty"`
}

func (w *WorkLog) IsOpen() bool {
	return w.EndTime == nil
}

// Duration закрытой сессии, для открытой — 0.
func (w *WorkLog) Duration() time.Duration {
	if w.EndTime == nil {
		return 0
	}
	d := w.EndTime.Sub(w.StartTime)
	if d < 0 {
		return 0
	}
	return d
}
