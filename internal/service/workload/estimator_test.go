package workload

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shopfloor/internal/storage"
	"shopfloor/internal/storage/memory"
)

var roles = []string{"OPERATOR", "MASTER"}

func at(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestEstimator_ProductionWorkload(t *testing.T) {
	store := memory.New()
	store.AddWorker(storage.Worker{Name: "Иванов", Role: "OPERATOR", IsActive: true})
	store.AddWorker(storage.Worker{Name: "Петров", Role: "OPERATOR", IsActive: true})
	store.AddWorker(storage.Worker{Name: "Сидоров", Role: "MASTER", IsActive: true})
	store.AddWorker(storage.Worker{Name: "Админ", Role: "ADMIN", IsActive: true})
	store.AddWorker(storage.Worker{Name: "Уволен", Role: "OPERATOR", IsActive: false})

	late := store.AddOrder(storage.Order{Number: "A-1", Deadline: ptr(at(10, 0))})
	soon := store.AddOrder(storage.Order{Number: "A-2", Deadline: ptr(at(5, 0))})
	open := store.AddOrder(storage.Order{Number: "A-3"})

	saw := store.AddMachine(storage.Machine{Name: "Пила", EfficiencyNorm: 10, Quantity: 2})
	broken := store.AddMachine(storage.Machine{Name: "Пресс", Status: storage.MachineRepair, EfficiencyNorm: 10, Quantity: 1})
	manual := store.AddMachine(storage.Machine{Name: "Сборка", EfficiencyNorm: 0, Quantity: 0})

	low := store.AddTask(storage.Task{OrderID: open, MachineID: saw, TotalQuantity: 100, CompletedQuantity: 40, Priority: storage.PriorityLow, Status: storage.TaskInProgress})
	critLate := store.AddTask(storage.Task{OrderID: late, MachineID: saw, TotalQuantity: 10, Priority: storage.PriorityCritical})
	critSoon := store.AddTask(storage.Task{OrderID: soon, MachineID: saw, TotalQuantity: 10, Priority: storage.PriorityCritical})
	high := store.AddTask(storage.Task{OrderID: open, MachineID: saw, TotalQuantity: 10, Priority: storage.PriorityHigh})
	store.AddTask(storage.Task{OrderID: open, MachineID: saw, TotalQuantity: 10, CompletedQuantity: 10, Status: storage.TaskCompleted})
	store.AddTask(storage.Task{OrderID: open, MachineID: broken, TotalQuantity: 10})
	over := store.AddTask(storage.Task{OrderID: open, MachineID: manual, TotalQuantity: 5, CompletedQuantity: 7, Status: storage.TaskInProgress})

	snap, err := New(store, roles, time.UTC, slog.Default()).ProductionWorkload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Workers)

	workers, err := New(store, roles, time.UTC, slog.Default()).EligibleWorkers(context.Background())
	require.NoError(t, err)
	require.Len(t, workers, 3)
	assert.Equal(t, "Иванов", workers[0].Name)
	require.Len(t, snap.Machines, 2)

	sawLoad := snap.Machines[0]
	assert.Equal(t, saw, sawLoad.MachineID)
	require.Len(t, sawLoad.Tasks, 4)

	var ids []int64
	for _, te := range sawLoad.Tasks {
		ids = append(ids, te.TaskID)
	}
	assert.Equal(t, []int64{critSoon, critLate, high, low}, ids)

	lowEst := sawLoad.Tasks[3]
	assert.Equal(t, 60, lowEst.Remaining)
	assert.Equal(t, 20.0, lowEst.TotalEfficiencyNorm)
	assert.Equal(t, 6.0, lowEst.BaseHours)
	assert.Equal(t, 2.0, lowEst.HoursPerWorkers)
	assert.Equal(t, 3.0, lowEst.HoursPerMachines)
	assert.Equal(t, 1.0, lowEst.HoursPerBoth)
	assert.Equal(t, 9.0, sawLoad.TotalBase)

	manualLoad := snap.Machines[1]
	require.Len(t, manualLoad.Tasks, 1)
	assert.Equal(t, over, manualLoad.Tasks[0].TaskID)
	assert.Equal(t, 0, manualLoad.Tasks[0].Remaining)
	assert.Equal(t, 0.0, manualLoad.Tasks[0].BaseHours)
}

func TestEstimator_ProductionWorkload_NoWorkers(t *testing.T) {
	store := memory.New()
	order := store.AddOrder(storage.Order{Number: "B-1"})
	machine := store.AddMachine(storage.Machine{Name: "Пила", EfficiencyNorm: 5, Quantity: 0})
	store.AddTask(storage.Task{OrderID: order, MachineID: machine, TotalQuantity: 10})

	snap, err := New(store, roles, time.UTC, slog.Default()).ProductionWorkload(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Machines, 1)

	est := snap.Machines[0].Tasks[0]
	assert.Equal(t, 2.0, est.BaseHours)
	assert.Equal(t, 2.0, est.HoursPerWorkers)
	assert.Equal(t, 2.0, est.HoursPerBoth)
}

type readerMock struct {
	mock.Mock
}

func (m *readerMock) ListOpenTasks(ctx context.Context) ([]storage.OpenTask, error) {
	args := m.Called(ctx)
	return args.Get(0).([]storage.OpenTask), args.Error(1)
}

func (m *readerMock) ListClosedWorkLogs(ctx context.Context, window storage.Window, userID int64) ([]storage.ClosedWorkLog, error) {
	args := m.Called(ctx, window, userID)
	return args.Get(0).([]storage.ClosedWorkLog), args.Error(1)
}

func (m *readerMock) CountWorkers(ctx context.Context, roles []string) (int, error) {
	args := m.Called(ctx, roles)
	return args.Int(0), args.Error(1)
}

func (m *readerMock) ListWorkers(ctx context.Context, roles []string) ([]storage.Worker, error) {
	args := m.Called(ctx, roles)
	return args.Get(0).([]storage.Worker), args.Error(1)
}

func TestEstimator_ProductionWorkload_ReadError(t *testing.T) {
	reader := new(readerMock)
	reader.On("ListOpenTasks", mock.Anything).Return([]storage.OpenTask{}, nil)
	reader.On("CountWorkers", mock.Anything, roles).Return(0, errors.New("connection refused"))

	_, err := New(reader, roles, time.UTC, slog.Default()).ProductionWorkload(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func closed(store *memory.Store, taskID, userID int64, start time.Time, d time.Duration, qty, defects int) {
	end := start.Add(d)
	store.AddWorkLog(storage.WorkLog{
		TaskID:           taskID,
		UserID:           userID,
		StartTime:        start,
		EndTime:          &end,
		QuantityProduced: qty,
		DefectQuantity:   defects,
	})
}

func TestEstimator_ProductionStatistics(t *testing.T) {
	store := memory.New()
	order := store.AddOrder(storage.Order{Number: "C-1"})
	saw := store.AddMachine(storage.Machine{Name: "Пила", EfficiencyNorm: 10, Quantity: 2})
	press := store.AddMachine(storage.Machine{Name: "Пресс", EfficiencyNorm: 5, Quantity: 1})
	sawTask := store.AddTask(storage.Task{OrderID: order, MachineID: saw, TotalQuantity: 100})
	pressTask := store.AddTask(storage.Task{OrderID: order, MachineID: press, TotalQuantity: 100})

	closed(store, sawTask, 7, at(2, 8), 2*time.Hour, 30, 10)
	closed(store, pressTask, 8, at(3, 9), time.Hour, 5, 0)
	closed(store, pressTask, 8, at(20, 9), time.Hour, 50, 0)
	store.AddWorkLog(storage.WorkLog{TaskID: sawTask, UserID: 9, StartTime: at(2, 9)})

	window := storage.Window{From: at(1, 0), To: at(10, 0)}
	stats, err := New(store, roles, time.UTC, slog.Default()).ProductionStatistics(context.Background(), window)
	require.NoError(t, err)

	assert.Equal(t, 35, stats.Overall.Actual)
	assert.Equal(t, 45.0, stats.Overall.Expected)
	assert.Equal(t, 10, stats.Overall.Defects)
	assert.Equal(t, 2, stats.Overall.Sessions)
	assert.Equal(t, 77.78, stats.Overall.Efficiency)
	assert.Equal(t, 22.22, stats.Overall.DefectRate)

	require.Len(t, stats.Days, 2)
	assert.Equal(t, "2026-03-02", stats.Days[0].Date)
	assert.Equal(t, 75.0, stats.Days[0].Efficiency)
	assert.Equal(t, 25.0, stats.Days[0].DefectRate)

	require.Len(t, stats.Machines, 2)
	assert.Equal(t, "Пресс", stats.Machines[1].MachineName)
	assert.Equal(t, 100.0, stats.Machines[1].Efficiency)
	assert.Equal(t, 0.0, stats.Machines[1].DefectRate)
}

func TestEstimator_ProductionStatistics_Empty(t *testing.T) {
	stats, err := New(memory.New(), roles, time.UTC, slog.Default()).
		ProductionStatistics(context.Background(), storage.Window{From: at(1, 0), To: at(2, 0)})
	require.NoError(t, err)
	assert.Equal(t, Bucket{}, stats.Overall)
	assert.Empty(t, stats.Days)
}

func TestEstimator_EmployeeEfficiency(t *testing.T) {
	store := memory.New()
	order := store.AddOrder(storage.Order{Number: "D-1"})
	saw := store.AddMachine(storage.Machine{Name: "Пила", EfficiencyNorm: 10, Quantity: 2})
	task := store.AddTask(storage.Task{OrderID: order, MachineID: saw, TotalQuantity: 100})

	closed(store, task, 7, at(2, 8), 2*time.Hour, 30, 0)
	closed(store, task, 8, at(2, 8), 2*time.Hour, 5, 0)

	est := New(store, roles, time.UTC, slog.Default())
	window := storage.Window{From: at(1, 0), To: at(10, 0)}

	eff, err := est.EmployeeEfficiency(context.Background(), 7, window)
	require.NoError(t, err)
	assert.Equal(t, 30, eff.Actual)
	assert.Equal(t, 20.0, eff.Expected)
	assert.Equal(t, 150.0, eff.Efficiency)
	assert.Equal(t, 1, eff.Sessions)

	none, err := est.EmployeeEfficiency(context.Background(), 99, window)
	require.NoError(t, err)
	assert.Equal(t, 0.0, none.Efficiency)
}

func TestEstimator_SkipsForceClosedSessions(t *testing.T) {
	store := memory.New()
	order := store.AddOrder(storage.Order{Number: "E-1"})
	saw := store.AddMachine(storage.Machine{Name: "Пила", EfficiencyNorm: 10, Quantity: 1})
	task := store.AddTask(storage.Task{OrderID: order, MachineID: saw, TotalQuantity: 100})

	closed(store, task, 7, at(2, 8), 2*time.Hour, 20, 0)

	// сессию закрыл уборщик через 16 часов, выработки нет
	forcedEnd := at(3, 2)
	store.AddWorkLog(storage.WorkLog{
		TaskID:      task,
		UserID:      7,
		StartTime:   at(2, 10),
		EndTime:     &forcedEnd,
		CloseReason: storage.CloseReasonForced,
	})

	est := New(store, roles, time.UTC, slog.Default())
	window := storage.Window{From: at(1, 0), To: at(10, 0)}

	eff, err := est.EmployeeEfficiency(context.Background(), 7, window)
	require.NoError(t, err)
	assert.Equal(t, 1, eff.Sessions)
	assert.Equal(t, 20.0, eff.Expected)
	assert.Equal(t, 100.0, eff.Efficiency)

	stats, err := est.ProductionStatistics(context.Background(), window)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Overall.Sessions)
	assert.Equal(t, 20.0, stats.Overall.Expected)
	assert.Equal(t, 100.0, stats.Overall.Efficiency)
	require.Len(t, stats.Machines, 1)
	assert.Equal(t, 100.0, stats.Machines[0].Efficiency)
}

func TestParseWindow(t *testing.T) {
	now := time.Date(2026, 3, 17, 15, 0, 0, 0, time.UTC)

	w, err := ParseWindow("", "", time.UTC, now)
	require.NoError(t, err)
	assert.Equal(t, at(1, 0), w.From)
	assert.Equal(t, at(18, 0), w.To)

	w, err = ParseWindow("2026-03-02", "2026-03-02", time.UTC, now)
	require.NoError(t, err)
	assert.Equal(t, at(2, 0), w.From)
	assert.Equal(t, at(3, 0), w.To)

	_, err = ParseWindow("02.03.2026", "", time.UTC, now)
	assert.ErrorIs(t, err, storage.ErrValidation)

	_, err = ParseWindow("2026-03-05", "2026-03-01", time.UTC, now)
	assert.ErrorIs(t, err, storage.ErrValidation)
}
