package memory

import (
	"context"
	"sort"

	"shopfloor/internal/storage"
)

func (s *Store) ListOpenTasks(_ context.Context) ([]storage.OpenTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []storage.OpenTask
	for _, t := range s.st.tasks {
		if t.Status != storage.TaskPending && t.Status != storage.TaskInProgress {
			continue
		}
		o := s.st.orders[t.OrderID]
		res = append(res, storage.OpenTask{
			Task:          t,
			OrderNumber:   o.Number,
			OrderDeadline: o.Deadline,
			Machine:       s.st.machines[t.MachineID],
		})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Task.ID < res[j].Task.ID })
	return res, nil
}

func (s *Store) ListClosedWorkLogs(_ context.Context, window storage.Window, userID int64) ([]storage.ClosedWorkLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []storage.ClosedWorkLog
	for _, wl := range s.st.workLogs {
		if wl.EndTime == nil || wl.CloseReason == storage.CloseReasonForced || !window.Contains(wl.StartTime) {
			continue
		}
		if userID != 0 && wl.UserID != userID {
			continue
		}
		t := s.st.tasks[wl.TaskID]
		res = append(res, storage.ClosedWorkLog{WorkLog: wl, Machine: s.st.machines[t.MachineID]})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].WorkLog.StartTime.Before(res[j].WorkLog.StartTime) })
	return res, nil
}

func (s *Store) CountWorkers(_ context.Context, roles []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, w := range s.st.workers {
		if w.IsActive && hasRole(roles, w.Role) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListWorkers(ctx context.Context, roles []string) ([]storage.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return (&repo{st: s.st}).ListWorkers(ctx, roles)
}

func (s *Store) CreateWorker(_ context.Context, w storage.Worker) (int64, error) {
	return s.AddWorker(w), nil
}
