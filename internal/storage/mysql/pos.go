package mysql

import (
	"context"
	"database/sql"
	"time"

	"hotel_pms/internal/domain"
)

func (r *Repo) CreateOutlet(ctx context.Context, o domain.Outlet) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertOutletSQL, o.PropertyID, o.Name, string(o.Kind))
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return res.LastInsertId()
}

func (r *Repo) ListOutlets(ctx context.Context, propertyID int64) ([]domain.Outlet, error) {
	rows, err := r.db.QueryContext(ctx, listOutletsSQL, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Outlet
	for rows.Next() {
		var o domain.Outlet
		var kind string
		if err := rows.Scan(&o.ID, &o.PropertyID, &o.Name, &kind); err != nil {
			return nil, err
		}
		o.Kind = domain.OutletKind(kind)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) CreateMenuItem(ctx context.Context, m domain.MenuItem) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertMenuItemSQL,
		m.OutletID, m.Name, m.Category, m.Price.StringFixed(2), m.TaxPercent.StringFixed(2), m.Available,
	)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return res.LastInsertId()
}

func scanMenuItem(s rowScanner) (domain.MenuItem, error) {
	var m domain.MenuItem
	err := s.Scan(&m.ID, &m.OutletID, &m.Name, &m.Category, &m.Price, &m.TaxPercent, &m.Available)
	return m, err
}

func (r *Repo) GetMenuItem(ctx context.Context, id int64) (domain.MenuItem, error) {
	m, err := scanMenuItem(r.db.QueryRowContext(ctx, getMenuItemSQL, id))
	return m, notFound(err)
}

func (r *Repo) ListMenuItems(ctx context.Context, outletID int64) ([]domain.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx, listMenuItemsSQL, outletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) CreateOrder(ctx context.Context, o domain.Order) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertOrderSQL,
		o.OutletID, valStr(o.Table), string(o.Status),
		o.Subtotal.StringFixed(2), o.Taxes.StringFixed(2), o.Total.StringFixed(2), o.OpenedAt,
	)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return res.LastInsertId()
}

func (r *Repo) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	var status, method string
	var booking sql.NullInt64
	var closed sql.NullTime
	err := r.db.QueryRowContext(ctx, getOrderSQL, id).Scan(
		&o.ID, &o.OutletID, &o.Table, &status, &o.Subtotal, &o.Taxes, &o.Total,
		&method, &booking, &o.OpenedAt, &closed,
	)
	if err != nil {
		return domain.Order{}, notFound(err)
	}
	o.Status, o.PaymentMethod = domain.OrderStatus(status), domain.PaymentMethod(method)
	o.BookingID, o.ClosedAt = ptrInt64(booking), ptrTime(closed)

	rows, err := r.db.QueryContext(ctx, listOrderLinesSQL, id)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()
	o.Lines = []domain.OrderLine{}
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.MenuItemID, &l.Name, &l.Quantity, &l.UnitPrice, &l.TaxPercent, &l.LineTotal); err != nil {
			return domain.Order{}, err
		}
		o.Lines = append(o.Lines, l)
	}
	return o, rows.Err()
}

// AddOrderLine inserts the line and stores the order totals; ErrConflict once the order left open.
func (r *Repo) AddOrderLine(ctx context.Context, o domain.Order, l domain.OrderLine) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, updateOrderTotalsSQL,
			o.Subtotal.StringFixed(2), o.Taxes.StringFixed(2), o.Total.StringFixed(2), o.ID)
		if err := expectOne(res, err); err != nil {
			return err
		}
		res, err = tx.ExecContext(ctx, insertOrderLineSQL,
			o.ID, l.MenuItemID, l.Name, l.Quantity,
			l.UnitPrice.StringFixed(2), l.TaxPercent.StringFixed(2), l.LineTotal.StringFixed(2),
		)
		if err != nil {
			return mapWriteErr(err)
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

func (r *Repo) CloseOrder(ctx context.Context, o domain.Order, charge *domain.Charge) error {
	closedAt := time.Now().UTC()
	if o.ClosedAt != nil {
		closedAt = *o.ClosedAt
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, closeOrderSQL, string(o.PaymentMethod), valInt64(o.BookingID), closedAt, o.ID)
		if err := expectOne(res, err); err != nil {
			return err
		}
		if charge != nil {
			if _, err := addCharge(ctx, tx, *charge); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repo) VoidOrder(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, voidOrderSQL, time.Now().UTC(), id)
	return expectOne(res, err)
}
