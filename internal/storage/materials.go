package storage

type Material struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	CurrentStock float64 `json:"current_stock"`
	MinStock     float64 `json:"min_stock"`
	Unit         string  `json:"unit"`
}

// TaskMaterial — материал, привязанный к задаче, с нормой расхода на весь объём задачи.
type TaskMaterial struct {
	TaskID   int64    `json:"task_id"`
	Quantity float64  `json:"quantity"`
	Material Material `json:"material"`
}

type LowStockWarning struct {
	MaterialName string  `json:"material_name"`
	CurrentStock float64 `json:"current_stock"`
	Unit         string  `json:"unit"`
}

type StockChange struct {
	MaterialID int64
	NewStock   float64
}
