package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"shopfloor/internal/storage"
)

// repo работает с состоянием без блокировок: вызывающий держит мьютекс Store.
type repo struct {
	st *state
}

func (r *repo) GetTask(_ context.Context, id int64) (*storage.Task, error) {
	t, ok := r.st.tasks[id]
	if !ok {
		return nil, storage.ErrTaskNotFound
	}
	return &t, nil
}

func (r *repo) IncrementTaskProgress(_ context.Context, id int64, qty, defects int) (*storage.Task, error) {
	t, ok := r.st.tasks[id]
	if !ok {
		return nil, storage.ErrTaskNotFound
	}
	t.CompletedQuantity += qty
	t.DefectQuantity += defects
	r.st.tasks[id] = t
	return &t, nil
}

func (r *repo) UpdateTaskStatus(_ context.Context, id int64, status storage.TaskStatus) error {
	t, ok := r.st.tasks[id]
	if !ok {
		return storage.ErrTaskNotFound
	}
	t.Status = status
	r.st.tasks[id] = t
	return nil
}

func (r *repo) StartTask(_ context.Context, id int64) (bool, error) {
	t, ok := r.st.tasks[id]
	if !ok {
		return false, storage.ErrTaskNotFound
	}
	if t.Status != storage.TaskPending {
		return false, nil
	}
	t.Status = storage.TaskInProgress
	r.st.tasks[id] = t
	return true, nil
}

func (r *repo) GetOrder(_ context.Context, id int64) (*storage.Order, error) {
	o, ok := r.st.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	return &o, nil
}

func (r *repo) ListOrderTasks(_ context.Context, orderID int64) ([]storage.TaskProgress, error) {
	var tasks []storage.Task
	for _, t := range r.st.tasks {
		if t.OrderID == orderID {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Sequence != tasks[j].Sequence {
			return tasks[i].Sequence < tasks[j].Sequence
		}
		return tasks[i].ID < tasks[j].ID
	})

	res := make([]storage.TaskProgress, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, storage.TaskProgress{
			TaskID:            t.ID,
			TotalQuantity:     t.TotalQuantity,
			CompletedQuantity: t.CompletedQuantity,
			Status:            t.Status,
		})
	}
	return res, nil
}

func (r *repo) UpdateOrderStatus(_ context.Context, id int64, status storage.OrderStatus) error {
	o, ok := r.st.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	o.Status = status
	r.st.orders[id] = o
	return nil
}

func (r *repo) GetMachine(_ context.Context, id int64) (*storage.Machine, error) {
	m, ok := r.st.machines[id]
	if !ok {
		return nil, storage.ErrMachineNotFound
	}
	return &m, nil
}

func (r *repo) CreateWorkLog(_ context.Context, wl storage.WorkLog) (int64, error) {
	for _, existing := range r.st.workLogs {
		if existing.UserID == wl.UserID && existing.EndTime == nil {
			return 0, storage.ErrActiveSessionConflict
		}
	}
	wl.ID = r.st.id()
	r.st.workLogs[wl.ID] = wl
	return wl.ID, nil
}

func (r *repo) GetWorkLog(_ context.Context, id int64) (*storage.WorkLog, error) {
	wl, ok := r.st.workLogs[id]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	return &wl, nil
}

func (r *repo) GetActiveWorkLog(_ context.Context, userID int64) (*storage.WorkLog, error) {
	for _, wl := range r.st.workLogs {
		if wl.UserID == userID && wl.EndTime == nil {
			return &wl, nil
		}
	}
	return nil, storage.ErrSessionNotFound
}

func (r *repo) CloseWorkLog(_ context.Context, wl storage.WorkLog) error {
	existing, ok := r.st.workLogs[wl.ID]
	if !ok {
		return storage.ErrSessionNotFound
	}
	if existing.EndTime != nil {
		return storage.ErrSessionAlreadyEnded
	}
	existing.EndTime = wl.EndTime
	existing.QuantityProduced = wl.QuantityProduced
	existing.DefectQuantity = wl.DefectQuantity
	existing.CloseReason = wl.CloseReason
	r.st.workLogs[wl.ID] = existing
	return nil
}

func (r *repo) ListOpenWorkLogsBefore(_ context.Context, startedBefore time.Time) ([]storage.WorkLog, error) {
	var res []storage.WorkLog
	for _, wl := range r.st.workLogs {
		if wl.EndTime == nil && wl.StartTime.Before(startedBefore) {
			res = append(res, wl)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *repo) GetShift(_ context.Context, userID int64, date time.Time) (*storage.Shift, error) {
	for _, sh := range r.st.shifts {
		if sh.UserID == userID && sh.Date.Equal(date) {
			return &sh, nil
		}
	}
	return nil, storage.ErrShiftNotFound
}

func (r *repo) GetShiftByID(_ context.Context, id int64) (*storage.Shift, error) {
	sh, ok := r.st.shifts[id]
	if !ok {
		return nil, storage.ErrShiftNotFound
	}
	return &sh, nil
}

func (r *repo) CreateShift(ctx context.Context, sh storage.Shift) (*storage.Shift, error) {
	if existing, err := r.GetShift(ctx, sh.UserID, sh.Date); err == nil {
		return existing, nil
	}
	sh.ID = r.st.id()
	if sh.LunchStatus == "" {
		sh.LunchStatus = storage.LunchNotTaken
	}
	r.st.shifts[sh.ID] = sh
	return &sh, nil
}

func (r *repo) UpdateShift(_ context.Context, sh storage.Shift) error {
	if _, ok := r.st.shifts[sh.ID]; !ok {
		return storage.ErrShiftNotFound
	}
	r.st.shifts[sh.ID] = sh
	return nil
}

func (r *repo) DeleteShift(_ context.Context, id int64) error {
	if _, ok := r.st.shifts[id]; !ok {
		return storage.ErrShiftNotFound
	}
	delete(r.st.shifts, id)
	return nil
}

func (r *repo) ListTaskMaterials(_ context.Context, taskID int64) ([]storage.TaskMaterial, error) {
	var res []storage.TaskMaterial
	for _, a := range r.st.assignments {
		if a.taskID != taskID {
			continue
		}
		m, ok := r.st.materials[a.materialID]
		if !ok {
			return nil, fmt.Errorf("material %d assigned to task %d is missing", a.materialID, taskID)
		}
		res = append(res, storage.TaskMaterial{TaskID: taskID, Quantity: a.quantity, Material: m})
	}
	return res, nil
}

func (r *repo) ApplyStockChanges(_ context.Context, changes []storage.StockChange) error {
	for _, c := range changes {
		if _, ok := r.st.materials[c.MaterialID]; !ok {
			return fmt.Errorf("material %d not found", c.MaterialID)
		}
	}
	for _, c := range changes {
		m := r.st.materials[c.MaterialID]
		m.CurrentStock = c.NewStock
		r.st.materials[c.MaterialID] = m
	}
	return nil
}

func (r *repo) ListLowStockMaterials(_ context.Context) ([]storage.Material, error) {
	var res []storage.Material
	for _, m := range r.st.materials {
		if m.CurrentStock <= m.MinStock {
			res = append(res, m)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (r *repo) ListWorkers(_ context.Context, roles []string) ([]storage.Worker, error) {
	var res []storage.Worker
	for _, w := range r.st.workers {
		if w.IsActive && hasRole(roles, w.Role) {
			res = append(res, w)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (r *repo) Savepoint(_ context.Context, _ string, fn func(repo storage.Repository) error) error {
	backup := r.st.clone()
	if err := fn(r); err != nil {
		*r.st = *backup
		return err
	}
	return nil
}

// hasRole: пустой список ролей — все роли.
func hasRole(roles []string, role string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
