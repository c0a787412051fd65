package memory

import (
	"context"
	"sync"

	"shopfloor/internal/storage"
)

type assignment struct {
	taskID     int64
	materialID int64
	quantity   float64
}

type state struct {
	nextID      int64
	tasks       map[int64]storage.Task
	orders      map[int64]storage.Order
	machines    map[int64]storage.Machine
	workLogs    map[int64]storage.WorkLog
	shifts      map[int64]storage.Shift
	materials   map[int64]storage.Material
	workers     map[int64]storage.Worker
	assignments []assignment
}

func newState() *state {
	return &state{
		tasks:     make(map[int64]storage.Task),
		orders:    make(map[int64]storage.Order),
		machines:  make(map[int64]storage.Machine),
		workLogs:  make(map[int64]storage.WorkLog),
		shifts:    make(map[int64]storage.Shift),
		materials: make(map[int64]storage.Material),
		workers:   make(map[int64]storage.Worker),
	}
}

// clone копирует карты. Указатели на time.Time внутри структур не мутируются
// по месту, поэтому поверхностной копии значений достаточно.
func (s *state) clone() *state {
	c := newState()
	c.nextID = s.nextID
	for k, v := range s.tasks {
		v.AssignedWorkers = append([]int64(nil), v.AssignedWorkers...)
		c.tasks[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.machines {
		c.machines[k] = v
	}
	for k, v := range s.workLogs {
		c.workLogs[k] = v
	}
	for k, v := range s.shifts {
		c.shifts[k] = v
	}
	for k, v := range s.materials {
		c.materials[k] = v
	}
	for k, v := range s.workers {
		c.workers[k] = v
	}
	c.assignments = append([]assignment(nil), s.assignments...)
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store — хранилище в памяти. Все транзакции выполняются последовательно под одним
// мьютексом, что даёт ту же гарантию одной открытой сессии на пользователя, что и
// уникальный индекс в MySQL.
type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) RunInTx(ctx context.Context, fn func(repo storage.Repository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.st.clone()
	if err := fn(&repo{st: s.st}); err != nil {
		*s.st = *backup
		return err
	}

	return nil
}

func (s *Store) AddOrder(o storage.Order) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == 0 {
		o.ID = s.st.id()
	}
	if o.Status == "" {
		o.Status = storage.OrderNew
	}
	s.st.orders[o.ID] = o
	return o.ID
}

func (s *Store) AddMachine(m storage.Machine) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == 0 {
		m.ID = s.st.id()
	}
	if m.Status == "" {
		m.Status = storage.MachineWorking
	}
	s.st.machines[m.ID] = m
	return m.ID
}

func (s *Store) AddTask(t storage.Task) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == 0 {
		t.ID = s.st.id()
	}
	if t.Status == "" {
		t.Status = storage.TaskPending
	}
	s.st.tasks[t.ID] = t
	return t.ID
}

func (s *Store) AddMaterial(m storage.Material) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == 0 {
		m.ID = s.st.id()
	}
	s.st.materials[m.ID] = m
	return m.ID
}

func (s *Store) AssignMaterial(taskID, materialID int64, quantity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.st.assignments = append(s.st.assignments, assignment{taskID: taskID, materialID: materialID, quantity: quantity})
}

func (s *Store) AddWorker(w storage.Worker) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.ID == 0 {
		w.ID = s.st.id()
	}
	s.st.workers[w.ID] = w
	return w.ID
}

// AddWorkLog кладёт сессию как есть, без проверки открытых сессий. Для начальных данных.
func (s *Store) AddWorkLog(wl storage.WorkLog) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wl.ID == 0 {
		wl.ID = s.st.id()
	}
	s.st.workLogs[wl.ID] = wl
	return wl.ID
}

func (s *Store) Task(id int64) storage.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.tasks[id]
}

func (s *Store) Order(id int64) storage.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.orders[id]
}

func (s *Store) Material(id int64) storage.Material {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.materials[id]
}

func (s *Store) WorkLog(id int64) storage.WorkLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.workLogs[id]
}

func (s *Store) Shifts() []storage.Shift {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]storage.Shift, 0, len(s.st.shifts))
	for _, sh := range s.st.shifts {
		res = append(res, sh)
	}
	return res
}

// OpenWorkLogs возвращает количество открытых сессий пользователя.
func (s *Store) OpenWorkLogs(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, wl := range s.st.workLogs {
		if wl.UserID == userID && wl.EndTime == nil {
			n++
		}
	}
	return n
}

var (
	_ storage.Repository      = (*repo)(nil)
	_ storage.Transactor      = (*Store)(nil)
	_ storage.AnalyticsReader = (*Store)(nil)
)
