package storage

import (
	"context"
	"time"
)

// Repository — операции записи ядра. Внутри транзакции все методы работают
// в одной единице работы.
type Repository interface {
	GetTask(ctx context.Context, id int64) (*Task, error)
	// IncrementTaskProgress атомарно прибавляет количество и возвращает задачу после изменения.
	IncrementTaskProgress(ctx context.Context, id int64, qty, defects int) (*Task, error)
	UpdateTaskStatus(ctx context.Context, id int64, status TaskStatus) error
	// StartTask меняет PENDING на IN_PROGRESS и ничего не делает для других статусов.
	StartTask(ctx context.Context, id int64) (bool, error)

	// GetOrder внутри транзакции блокирует строку заказа до коммита.
	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListOrderTasks(ctx context.Context, orderID int64) ([]TaskProgress, error)
	UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) error

	GetMachine(ctx context.Context, id int64) (*Machine, error)

	// CreateWorkLog возвращает ErrActiveSessionConflict, если у пользователя уже есть открытая сессия.
	CreateWorkLog(ctx context.Context, wl WorkLog) (int64, error)
	GetWorkLog(ctx context.Context, id int64) (*WorkLog, error)
	GetActiveWorkLog(ctx context.Context, userID int64) (*WorkLog, error)
	// CloseWorkLog закрывает только открытую сессию, иначе ErrSessionAlreadyEnded.
	CloseWorkLog(ctx context.Context, wl WorkLog) error
	ListOpenWorkLogsBefore(ctx context.Context, startedBefore time.Time) ([]WorkLog, error)

	// GetShift внутри транзакции блокирует строку до коммита.
	GetShift(ctx context.Context, userID int64, date time.Time) (*Shift, error)
	GetShiftByID(ctx context.Context, id int64) (*Shift, error)
	// CreateShift идемпотентен по (user_id, date): при гонке возвращает уже существующую смену.
	CreateShift(ctx context.Context, sh Shift) (*Shift, error)
	UpdateShift(ctx context.Context, sh Shift) error
	DeleteShift(ctx context.Context, id int64) error

	ListTaskMaterials(ctx context.Context, taskID int64) ([]TaskMaterial, error)
	ApplyStockChanges(ctx context.Context, changes []StockChange) error
	ListLowStockMaterials(ctx context.Context) ([]Material, error)

	ListWorkers(ctx context.Context, roles []string) ([]Worker, error)

	// Savepoint выполняет fn во вложенной точке сохранения: ошибка fn откатывает
	// только её изменения, внешняя транзакция продолжается.
	Savepoint(ctx context.Context, name string, fn func(repo Repository) error) error
}

// Transactor открывает единицу работы поверх Repository.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(repo Repository) error) error
}

// AnalyticsReader читает данные для аналитики без блокировок.
type AnalyticsReader interface {
	ListOpenTasks(ctx context.Context) ([]OpenTask, error)
	// ListClosedWorkLogs не возвращает сессии с CloseReasonForced.
	ListClosedWorkLogs(ctx context.Context, window Window, userID int64) ([]ClosedWorkLog, error)
	CountWorkers(ctx context.Context, roles []string) (int, error)
	ListWorkers(ctx context.Context, roles []string) ([]Worker, error)
}
