package mysql

import (
	"context"
	"database/sql"
	"strings"

	"hotel_pms/internal/domain"
)

func (r *Repo) CreateItem(ctx context.Context, it domain.InventoryItem) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertItemSQL,
		it.SKU, it.Name, it.Category, it.Unit, it.Quantity, it.ReorderLevel, it.UnitCost.StringFixed(2),
	)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return res.LastInsertId()
}

func scanItem(s rowScanner) (domain.InventoryItem, error) {
	var it domain.InventoryItem
	err := s.Scan(&it.ID, &it.SKU, &it.Name, &it.Category, &it.Unit, &it.Quantity, &it.ReorderLevel, &it.UnitCost, &it.UpdatedAt)
	return it, err
}

func getItem(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, id int64) (domain.InventoryItem, error) {
	it, err := scanItem(q.QueryRowContext(ctx, getItemSQL, id))
	return it, notFound(err)
}

func (r *Repo) GetItem(ctx context.Context, id int64) (domain.InventoryItem, error) {
	return getItem(ctx, r.db, id)
}

func (r *Repo) ListItems(ctx context.Context, f domain.ItemFilter) ([]domain.InventoryItem, error) {
	var sb strings.Builder
	sb.WriteString(listItemsSQL)
	var args []any
	if f.Category != "" {
		sb.WriteString(" AND category = ?")
		args = append(args, f.Category)
	}
	if f.LowStock {
		sb.WriteString(" AND quantity <= reorder_level")
	}
	sb.WriteString(" ORDER BY category, name")

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.InventoryItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateItem(ctx context.Context, id int64, p domain.ItemPatch) error {
	var name, category, unit any
	if p.Name != nil {
		name = *p.Name
	}
	if p.Category != nil {
		category = *p.Category
	}
	if p.Unit != nil {
		unit = *p.Unit
	}
	if _, err := r.db.ExecContext(ctx, updateItemSQL,
		name, category, unit, valInt(p.ReorderLevel), valDec(p.UnitCost), id,
	); err != nil {
		return mapWriteErr(err)
	}
	_, err := r.GetItem(ctx, id)
	return err
}

func (r *Repo) DeleteItem(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteItemSQL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AdjustStock applies the delta and journals it in one transaction.
func (r *Repo) AdjustStock(ctx context.Context, m domain.StockMovement) (domain.InventoryItem, error) {
	var it domain.InventoryItem
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, adjustStockSQL, m.Delta, m.ItemID, m.Delta)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			if _, err := getItem(ctx, tx, m.ItemID); err != nil {
				return err
			}
			return domain.ErrInsufficientStock
		}
		if _, err := tx.ExecContext(ctx, insertMovementSQL, m.ItemID, m.Delta, m.Reason, m.Actor); err != nil {
			return err
		}
		it, err = getItem(ctx, tx, m.ItemID)
		return err
	})
	return it, err
}

func (r *Repo) ListMovements(ctx context.Context, itemID int64, limit int) ([]domain.StockMovement, error) {
	rows, err := r.db.QueryContext(ctx, listMovementsSQL, itemID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.StockMovement
	for rows.Next() {
		var m domain.StockMovement
		if err := rows.Scan(&m.ID, &m.ItemID, &m.Delta, &m.Reason, &m.Actor, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
