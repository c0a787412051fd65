package storage

type MachineStatus string

const (
	MachineWorking           MachineStatus = "WORKING"
	MachineIdle              MachineStatus = "IDLE"
	MachineRepair            MachineStatus = "REPAIR"
	MachineRequiresAttention MachineStatus = "REQUIRES_ATTENTION"
)

type Machine struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	Status         MachineStatus `json:"status"`
	EfficiencyNorm float64       `json:"efficiency_norm"`
	Quantity       int           `json:"quantity"`
}

func (m *Machine) Available() bool {
	return m.Status != MachineRepair && m.Status != MachineRequiresAttention
}

type Worker struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}
