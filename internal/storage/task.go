package storage

import "time"

type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
)

type OrderStatus string

const (
	OrderNew            OrderStatus = "NEW"
	OrderInQueue        OrderStatus = "IN_QUEUE"
	OrderInProgress     OrderStatus = "IN_PROGRESS"
	OrderPartiallyReady OrderStatus = "PARTIALLY_READY"
	OrderReady          OrderStatus = "READY"
	OrderIssued         OrderStatus = "ISSUED"
)

type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Rank меньше — срочнее. Неизвестный приоритет уходит в конец.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

type Task struct {
	ID                int64      `json:"id"`
	OrderID           int64      `json:"order_id"`
	MachineID         int64      `json:"machine_id"`
	Operation         string     `json:"operation"`
	TotalQuantity     int        `json:"total_quantity"`
	CompletedQuantity int        `json:"completed_quantity"`
	DefectQuantity    int        `json:"defect_quantity"`
	Status            TaskStatus `json:"status"`
	Priority          Priority   `json:"priority"`
	Sequence          int        `json:"sequence"`
	AssignedWorkers   []int64    `json:"assigned_workers,omitempty"`
}

type Order struct {
	ID       int64       `json:"id"`
	Number   string      `json:"number"`
	Status   OrderStatus `json:"status"`
	Priority Priority    `json:"priority"`
	Deadline *time.Time  `json:"deadline"`
}

// TaskProgress: строка для расчёта процента готовности заказа.
type TaskProgress struct {
	TaskID            int64      `json:"task_id"`
	TotalQuantity     int        `json:"total_quantity"`
	CompletedQuantity int        `json:"completed_quantity"`
	Status            TaskStatus `json:"status"`
}
