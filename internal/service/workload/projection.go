package workload

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"shopfloor/internal/storage"
)

type TaskEstimate struct {
	TaskID              int64            `json:"task_id"`
	OrderNumber         string           `json:"order_number"`
	Operation           string           `json:"operation"`
	Priority            storage.Priority `json:"priority"`
	Deadline            *time.Time       `json:"deadline"`
	Remaining           int              `json:"remaining"`
	TotalEfficiencyNorm float64          `json:"total_efficiency_norm"`
	BaseHours           float64          `json:"base_hours"`
	HoursPerWorkers     float64          `json:"hours_per_workers"`
	HoursPerMachines    float64          `json:"hours_per_machines"`
	HoursPerBoth        float64          `json:"hours_per_both"`
}

type MachineLoad struct {
	MachineID     int64          `json:"machine_id"`
	MachineName   string         `json:"machine_name"`
	Status        string         `json:"status"`
	Quantity      int            `json:"quantity"`
	Tasks         []TaskEstimate `json:"tasks"`
	TotalBase     float64        `json:"total_base_hours"`
	TotalWorkers  float64        `json:"total_hours_per_workers"`
	TotalMachines float64        `json:"total_hours_per_machines"`
	TotalBoth     float64        `json:"total_hours_per_both"`
}

type Snapshot struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Workers     int           `json:"workers"`
	Machines    []MachineLoad `json:"machines"`
}

// ProductionWorkload — наивная проекция оставшихся часов по станкам. Не расписание:
// работа не распределяется, часы просто делятся на людей и/или станки.
func (e *Estimator) ProductionWorkload(ctx context.Context) (*Snapshot, error) {
	const op = "service.workload.ProductionWorkload"

	var (
		tasks   []storage.OpenTask
		workers int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = e.reader.ListOpenTasks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		workers, err = e.reader.CountWorkers(gctx, e.roles)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	byMachine := make(map[int64]*MachineLoad)
	var order []int64

	for _, t := range tasks {
		if t.Machine.Status == storage.MachineRepair {
			continue
		}

		load, ok := byMachine[t.Machine.ID]
		if !ok {
			load = &MachineLoad{
				MachineID:   t.Machine.ID,
				MachineName: t.Machine.Name,
				Status:      string(t.Machine.Status),
				Quantity:    t.Machine.Quantity,
			}
			byMachine[t.Machine.ID] = load
			order = append(order, t.Machine.ID)
		}

		load.Tasks = append(load.Tasks, estimate(t, workers))
	}

	snap := &Snapshot{
		GeneratedAt: e.now().UTC(),
		Workers:     workers,
		Machines:    make([]MachineLoad, 0, len(order)),
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	for _, id := range order {
		load := byMachine[id]
		sortTasks(load.Tasks)
		for _, t := range load.Tasks {
			load.TotalBase += t.BaseHours
			load.TotalWorkers += t.HoursPerWorkers
			load.TotalMachines += t.HoursPerMachines
			load.TotalBoth += t.HoursPerBoth
		}
		load.TotalBase = round2(load.TotalBase)
		load.TotalWorkers = round2(load.TotalWorkers)
		load.TotalMachines = round2(load.TotalMachines)
		load.TotalBoth = round2(load.TotalBoth)
		snap.Machines = append(snap.Machines, *load)
	}

	e.log.Debug("загрузка рассчитана",
		slog.String("op", op),
		slog.Int("tasks", len(tasks)),
		slog.Int("machines", len(snap.Machines)),
		slog.Int("workers", workers),
	)

	return snap, nil
}

func estimate(t storage.OpenTask, workers int) TaskEstimate {
	remaining := t.Task.TotalQuantity - t.Task.CompletedQuantity
	if remaining < 0 {
		remaining = 0
	}

	norm := t.Machine.EfficiencyNorm
	base := ratio(float64(remaining), norm)
	people := divisor(workers)
	machines := divisor(t.Machine.Quantity)

	return TaskEstimate{
		TaskID:              t.Task.ID,
		OrderNumber:         t.OrderNumber,
		Operation:           t.Task.Operation,
		Priority:            t.Task.Priority,
		Deadline:            t.OrderDeadline,
		Remaining:           remaining,
		TotalEfficiencyNorm: norm * float64(t.Machine.Quantity),
		BaseHours:           round2(base),
		HoursPerWorkers:     round2(base / people),
		HoursPerMachines:    round2(base / machines),
		HoursPerBoth:        round2(base / (people * machines)),
	}
}

// sortTasks: приоритет, затем ближайший срок; без срока — в конец.
func sortTasks(tasks []TaskEstimate) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		switch {
		case a.Deadline == nil && b.Deadline == nil:
			return a.TaskID < b.TaskID
		case a.Deadline == nil:
			return false
		case b.Deadline == nil:
			return true
		case !a.Deadline.Equal(*b.Deadline):
			return a.Deadline.Before(*b.Deadline)
		}
		return a.TaskID < b.TaskID
	})
}
