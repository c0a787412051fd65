package mysql

import (
	"context"
	"fmt"

	"shopfloor/internal/storage"
)

func (s *Storage) ListTaskMaterials(ctx context.Context, taskID int64) ([]storage.TaskMaterial, error) {
	const op = "storage.mysql.ListTaskMaterials"

	// FOR UPDATE блокирует остатки до конца списания
	stmt := s.forUpdate(`SELECT tm.task_id, tm.quantity, m.id, m.name, m.current_stock, m.min_stock, m.unit
             FROM task_materials tm
             JOIN materials m ON m.id = tm.material_id
             WHERE tm.task_id = ?
             ORDER BY m.id`)

	rows, err := s.q.QueryContext(ctx, stmt, taskID)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка выполнения запроса для получения материалов задачи id=%d: %w", op, taskID, err)
	}
	defer rows.Close()

	var materials []storage.TaskMaterial
	for rows.Next() {
		var tm storage.TaskMaterial

		err = rows.Scan(&tm.TaskID, &tm.Quantity, &tm.Material.ID, &tm.Material.Name, &tm.Material.CurrentStock,
			&tm.Material.MinStock, &tm.Material.Unit)
		if err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строк материалов: %w", op, err)
		}

		materials = append(materials, tm)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка сканирования строк для получения материалов: %w", op, err)
	}

	return materials, nil
}

func (s *Storage) ApplyStockChanges(ctx context.Context, changes []storage.StockChange) error {
	const op = "storage.mysql.ApplyStockChanges"

	if len(changes) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *Storage) error {
		for _, c := range changes {
			_, err := tx.q.ExecContext(ctx, `UPDATE materials SET current_stock = ? WHERE id = ?`, c.NewStock, c.MaterialID)
			if err != nil {
				return fmt.Errorf("%s: ошибка обновления остатка материала id=%d: %w", op, c.MaterialID, err)
			}
		}

		return nil
	})
}

func (s *Storage) ListLowStockMaterials(ctx context.Context) ([]storage.Material, error) {
	const op = "storage.mysql.ListLowStockMaterials"

	stmt := `SELECT id, name, current_stock, min_stock, unit FROM materials WHERE current_stock <= min_stock ORDER BY name`

	rows, err := s.q.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения материалов с низким остатком: %w", op, err)
	}
	defer rows.Close()

	var materials []storage.Material
	for rows.Next() {
		var m storage.Material
		if err := rows.Scan(&m.ID, &m.Name, &m.CurrentStock, &m.MinStock, &m.Unit); err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строк: %w", op, err)
		}
		materials = append(materials, m)
	}

	return materials, rows.Err()
}
