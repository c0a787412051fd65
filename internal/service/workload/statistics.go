package workload

import (
	"context"
	"fmt"
	"sort"
	"time"

	"shopfloor/internal/storage"
)

type Bucket struct {
	Actual     int     `json:"actual"`
	Expected   float64 `json:"expected"`
	Defects    int     `json:"defects"`
	Hours      float64 `json:"hours"`
	Sessions   int     `json:"sessions"`
	Efficiency float64 `json:"efficiency"`
	DefectRate float64 `json:"defect_rate"`
}

func (b *Bucket) add(l storage.ClosedWorkLog) {
	hours := l.WorkLog.Duration().Hours()
	b.Actual += l.WorkLog.QuantityProduced
	b.Defects += l.WorkLog.DefectQuantity
	b.Expected += l.Machine.EfficiencyNorm * float64(l.Machine.Quantity) * hours
	b.Hours += hours
	b.Sessions++
}

func (b *Bucket) finish() {
	b.Efficiency = round2(100 * ratio(float64(b.Actual), b.Expected))
	b.DefectRate = round2(100 * ratio(float64(b.Defects), float64(b.Actual+b.Defects)))
	b.Expected = round2(b.Expected)
	b.Hours = round2(b.Hours)
}

type DayBucket struct {
	Date string `json:"date"`
	Bucket
}

type MachineBucket struct {
	MachineID   int64  `json:"machine_id"`
	MachineName string `json:"machine_name"`
	Bucket
}

type Statistics struct {
	From     time.Time       `json:"from"`
	To       time.Time       `json:"to"`
	Overall  Bucket          `json:"overall"`
	Days     []DayBucket     `json:"days"`
	Machines []MachineBucket `json:"machines"`
}

// ProductionStatistics сводит закрытые сессии окна в общий итог, по дням цеха и по станкам.
func (e *Estimator) ProductionStatistics(ctx context.Context, window storage.Window) (*Statistics, error) {
	const op = "service.workload.ProductionStatistics"

	logs, err := e.reader.ListClosedWorkLogs(ctx, window, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := &Statistics{From: window.From, To: window.To}
	days := make(map[string]*DayBucket)
	machines := make(map[int64]*MachineBucket)

	for _, l := range logs {
		res.Overall.add(l)

		date := l.WorkLog.StartTime.In(e.loc).Format(time.DateOnly)
		d, ok := days[date]
		if !ok {
			d = &DayBucket{Date: date}
			days[date] = d
		}
		d.add(l)

		m, ok := machines[l.Machine.ID]
		if !ok {
			m = &MachineBucket{MachineID: l.Machine.ID, MachineName: l.Machine.Name}
			machines[l.Machine.ID] = m
		}
		m.add(l)
	}

	res.Overall.finish()

	res.Days = make([]DayBucket, 0, len(days))
	for _, d := range days {
		d.finish()
		res.Days = append(res.Days, *d)
	}
	sort.Slice(res.Days, func(i, j int) bool { return res.Days[i].Date < res.Days[j].Date })

	res.Machines = make([]MachineBucket, 0, len(machines))
	for _, m := range machines {
		m.finish()
		res.Machines = append(res.Machines, *m)
	}
	sort.Slice(res.Machines, func(i, j int) bool { return res.Machines[i].MachineID < res.Machines[j].MachineID })

	return res, nil
}
