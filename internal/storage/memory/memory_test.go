package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfloor/internal/storage"
)

func TestRunInTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	taskID := s.AddTask(storage.Task{TotalQuantity: 10})
	errBoom := errors.New("boom")

	err := s.RunInTx(ctx, func(repo storage.Repository) error {
		if _, err := repo.IncrementTaskProgress(ctx, taskID, 5, 1); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	task := s.Task(taskID)
	assert.Equal(t, 0, task.CompletedQuantity)
	assert.Equal(t, 0, task.DefectQuantity)
}

func TestRunInTx_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New().RunInTx(ctx, func(repo storage.Repository) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSavepoint_KeepsOuterWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	taskID := s.AddTask(storage.Task{TotalQuantity: 10})
	matID := s.AddMaterial(storage.Material{Name: "Стекло", CurrentStock: 5})

	err := s.RunInTx(ctx, func(repo storage.Repository) error {
		if _, err := repo.IncrementTaskProgress(ctx, taskID, 3, 0); err != nil {
			return err
		}
		spErr := repo.Savepoint(ctx, "consume", func(inner storage.Repository) error {
			if err := inner.ApplyStockChanges(ctx, []storage.StockChange{{MaterialID: matID, NewStock: 1}}); err != nil {
				return err
			}
			return storage.ErrInsufficientStock
		})
		assert.ErrorIs(t, spErr, storage.ErrInsufficientStock)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 3, s.Task(taskID).CompletedQuantity)
	assert.Equal(t, 5.0, s.Material(matID).CurrentStock)
}

func TestCreateWorkLog_OneOpenPerUser(t *testing.T) {
	ctx := context.Background()
	s := New()
	taskID := s.AddTask(storage.Task{TotalQuantity: 10})

	var first int64
	err := s.RunInTx(ctx, func(repo storage.Repository) error {
		var err error
		first, err = repo.CreateWorkLog(ctx, storage.WorkLog{TaskID: taskID, UserID: 7, StartTime: time.Now()})
		return err
	})
	require.NoError(t, err)

	err = s.RunInTx(ctx, func(repo storage.Repository) error {
		_, err := repo.CreateWorkLog(ctx, storage.WorkLog{TaskID: taskID, UserID: 7, StartTime: time.Now()})
		return err
	})
	assert.ErrorIs(t, err, storage.ErrActiveSessionConflict)
	assert.Equal(t, 1, s.OpenWorkLogs(7))

	end := time.Now()
	err = s.RunInTx(ctx, func(repo storage.Repository) error {
		if err := repo.CloseWorkLog(ctx, storage.WorkLog{ID: first, EndTime: &end}); err != nil {
			return err
		}
		return repo.CloseWorkLog(ctx, storage.WorkLog{ID: first, EndTime: &end})
	})
	assert.ErrorIs(t, err, storage.ErrSessionAlreadyEnded)
	// вторая ошибка откатила и первое закрытие
	assert.Equal(t, 1, s.OpenWorkLogs(7))
}

func TestCreateShift_ReturnsExisting(t *testing.T) {
	ctx := context.Background()
	s := New()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	var a, b *storage.Shift
	err := s.RunInTx(ctx, func(repo storage.Repository) error {
		var err error
		if a, err = repo.CreateShift(ctx, storage.Shift{UserID: 1, Date: day}); err != nil {
			return err
		}
		b, err = repo.CreateShift(ctx, storage.Shift{UserID: 1, Date: day})
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, storage.LunchNotTaken, b.LunchStatus)
	assert.Len(t, s.Shifts(), 1)
}

func TestListWorkers_FiltersRolesAndInactive(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.AddWorker(storage.Worker{Name: "Б", Role: "OPERATOR", IsActive: true})
	s.AddWorker(storage.Worker{Name: "А", Role: "MASTER", IsActive: true})
	s.AddWorker(storage.Worker{Name: "В", Role: "OPERATOR", IsActive: false})
	s.AddWorker(storage.Worker{Name: "Г", Role: "ADMIN", IsActive: true})

	workers, err := s.ListWorkers(ctx, []string{"OPERATOR", "MASTER"})
	require.NoError(t, err)
	require.Len(t, workers, 2)
	assert.Equal(t, "А", workers[0].Name)

	n, err := s.CountWorkers(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
