package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"hotel_pms/internal/domain"
)

func (r *Repo) CreateBooking(ctx context.Context, b *domain.Booking) error {
	nights := domain.Nights(b.CheckIn, b.CheckOut)
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, reserveNightsSQL, b.RoomTypeID, domain.Day(b.CheckIn), domain.Day(b.CheckOut))
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if int(n) != nights {
			return domain.ErrNoAvailability
		}

		if b.PromotionID != nil {
			res, err := tx.ExecContext(ctx, usePromotionSQL, *b.PromotionID)
			if err := expectOne(res, err); err != nil {
				return fmt.Errorf("promotion %s exhausted: %w", b.PromoCode, err)
			}
		}

		res, err = tx.ExecContext(ctx, insertBookingSQL,
			b.Reference, b.PropertyID, b.RoomTypeID,
			b.Guest.Name, b.Guest.Email, valStr(b.Guest.Phone),
			domain.Day(b.CheckIn), domain.Day(b.CheckOut), b.Adults, b.Children,
			string(b.Status), string(b.Source), valStr(b.PromoCode), valInt64(b.PromotionID),
			b.Price.Subtotal.StringFixed(2), b.Price.Discount.StringFixed(2),
			b.Price.Taxes.StringFixed(2), b.Price.Total.StringFixed(2), b.Price.Currency,
			valStr(b.SpecialRequests), valStr(b.IdempotencyKey),
			b.CreatedAt, b.UpdatedAt,
		)
		if err != nil {
			return mapWriteErr(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}

		if len(b.Price.Nights) > 0 {
			values := make([]string, 0, len(b.Price.Nights))
			args := make([]any, 0, len(b.Price.Nights)*3)
			for _, n := range b.Price.Nights {
				values = append(values, "(?,?,?)")
				args = append(args, id, domain.Day(n.Date), n.Price.StringFixed(2))
			}
			if _, err := tx.ExecContext(ctx, insertBookingNightsPrefix+strings.Join(values, ","), args...); err != nil {
				return err
			}
		}
		b.ID = id
		return nil
	})
}

func scanBooking(s rowScanner) (domain.Booking, error) {
	var b domain.Booking
	var roomID, promoID sql.NullInt64
	var status, source string
	var checkedIn, checkedOut, cancelled sql.NullTime
	err := s.Scan(
		&b.ID, &b.Reference, &b.PropertyID, &b.RoomTypeID, &roomID,
		&b.Guest.Name, &b.Guest.Email, &b.Guest.Phone,
		&b.CheckIn, &b.CheckOut, &b.Adults, &b.Children, &status, &source,
		&b.PromoCode, &promoID,
		&b.Price.Subtotal, &b.Price.Discount, &b.Price.Taxes, &b.Price.Total, &b.Price.Currency,
		&b.SpecialRequests, &b.IdempotencyKey,
		&b.CreatedAt, &b.UpdatedAt, &checkedIn, &checkedOut, &cancelled,
		&b.CancelReason,
	)
	if err != nil {
		return domain.Booking{}, err
	}
	b.RoomID = ptrInt64(roomID)
	b.PromotionID = ptrInt64(promoID)
	b.Status = domain.BookingStatus(status)
	b.Source = domain.BookingSource(source)
	b.CheckIn, b.CheckOut = domain.Day(b.CheckIn), domain.Day(b.CheckOut)
	b.CheckedInAt, b.CheckedOutAt, b.CancelledAt = ptrTime(checkedIn), ptrTime(checkedOut), ptrTime(cancelled)
	return b, nil
}

// getBooking loads one booking with its nightly rates.
func (r *Repo) getBooking(ctx context.Context, q string, arg any) (domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		return domain.Booking{}, notFound(err)
	}
	rows, err := r.db.QueryContext(ctx, listBookingNightsSQL, b.ID)
	if err != nil {
		return domain.Booking{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var n domain.NightRate
		if err := rows.Scan(&n.Date, &n.Price); err != nil {
			return domain.Booking{}, err
		}
		n.Date = domain.Day(n.Date)
		b.Price.Nights = append(b.Price.Nights, n)
	}
	return b, rows.Err()
}

func (r *Repo) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	return r.getBooking(ctx, getBookingSQL, id)
}

func (r *Repo) GetBookingByReference(ctx context.Context, ref string) (domain.Booking, error) {
	return r.getBooking(ctx, getBookingByReferenceSQL, ref)
}

func (r *Repo) GetBookingByIdempotencyKey(ctx context.Context, key string) (domain.Booking, error) {
	return r.getBooking(ctx, getBookingByIdempotencySQL, key)
}

func (r *Repo) queryBookings(ctx context.Context, q string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListBookings returns one page of bookings, newest check-in first, and the total match count.
func (r *Repo) ListBookings(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, int, error) {
	var where strings.Builder
	var args []any
	if f.PropertyID > 0 {
		where.WriteString(" AND b.property_id = ?")
		args = append(args, f.PropertyID)
	}
	if f.Status != "" {
		where.WriteString(" AND b.status = ?")
		args = append(args, string(f.Status))
	}
	if f.GuestEmail != "" {
		where.WriteString(" AND b.guest_email = ?")
		args = append(args, f.GuestEmail)
	}
	if f.From != nil {
		where.WriteString(" AND b.check_out > ?")
		args = append(args, domain.Day(*f.From))
	}
	if f.To != nil {
		where.WriteString(" AND b.check_in < ?")
		args = append(args, domain.Day(*f.To))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countBookingsSQL+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	page, limit := max(f.Page, 1), f.Limit
	if limit <= 0 {
		limit = 20
	}
	q := listBookingsSQL + where.String() + " ORDER BY b.check_in DESC, b.id DESC LIMIT ? OFFSET ?"
	items, err := r.queryBookings(ctx, q, append(args, limit, (page-1)*limit)...)
	return items, total, err
}

// TransitionBooking locks the booking row, checks the stored status and applies the
// change. With release the nights go back to the calendar and the room is freed.
func (r *Repo) TransitionBooking(ctx context.Context, id int64, from, to domain.BookingStatus, at time.Time, reason string, release bool) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var status string
		var roomTypeID int64
		var checkIn, checkOut time.Time
		var roomID sql.NullInt64
		err := tx.QueryRowContext(ctx, lockBookingSQL, id).Scan(&status, &roomTypeID, &checkIn, &checkOut, &roomID)
		if err != nil {
			return notFound(err)
		}
		if domain.BookingStatus(status) != from {
			return domain.ErrConflict
		}

		set := "status = ?, updated_at = ?"
		args := []any{string(to), at}
		switch to {
		case domain.BookingCheckedIn:
			set += ", checked_in_at = ?"
			args = append(args, at)
		case domain.BookingCheckedOut:
			set += ", checked_out_at = ?"
			args = append(args, at)
		case domain.BookingCancelled:
			set += ", cancelled_at = ?, cancel_reason = ?"
			args = append(args, at, valStr(reason))
		}
		if release {
			set += ", room_id = NULL"
		}
		args = append(args, id)
		if _, err := tx.ExecContext(ctx, "UPDATE bookings SET "+set+" WHERE id = ?", args...); err != nil {
			return err
		}

		if release {
			if _, err := tx.ExecContext(ctx, releaseNightsSQL, roomTypeID, domain.Day(checkIn), domain.Day(checkOut)); err != nil {
				return err
			}
		}
		return nil
	})
}

// AssignRoom locks the room, refuses it when another active stay overlaps, and sets it
// only if the booking has no room yet.
func (r *Repo) AssignRoom(ctx context.Context, bookingID, roomID int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var locked int64
		if err := tx.QueryRowContext(ctx, lockRoomSQL, roomID).Scan(&locked); err != nil {
			return notFound(err)
		}
		var status string
		var roomTypeID int64
		var checkIn, checkOut time.Time
		var current sql.NullInt64
		if err := tx.QueryRowContext(ctx, lockBookingSQL, bookingID).Scan(&status, &roomTypeID, &checkIn, &checkOut, &current); err != nil {
			return notFound(err)
		}
		if current.Valid {
			return domain.ErrConflict
		}
		var overlaps int
		err := tx.QueryRowContext(ctx, countRoomOverlapsSQL, roomID, bookingID, domain.Day(checkOut), domain.Day(checkIn)).Scan(&overlaps)
		if err != nil {
			return err
		}
		if overlaps > 0 {
			return domain.ErrConflict
		}
		res, err := tx.ExecContext(ctx, assignRoomSQL, roomID, time.Now().UTC(), bookingID)
		return expectOne(res, err)
	})
}

func (r *Repo) ListAllocationCandidates(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time) ([]domain.Room, error) {
	return r.queryRooms(ctx, allocationCandidatesSQL, roomTypeID, domain.Day(checkOut), domain.Day(checkIn))
}

func (r *Repo) CountGuestBookings(ctx context.Context, email string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countGuestBookingsSQL, email).Scan(&n)
	return n, err
}

func (r *Repo) ListOverdueConfirmed(ctx context.Context, before time.Time) ([]domain.Booking, error) {
	return r.queryBookings(ctx, listOverdueConfirmedSQL, domain.Day(before))
}

func (r *Repo) AddCharge(ctx context.Context, c domain.Charge) (int64, error) {
	return addCharge(ctx, r.db, c)
}

// execer is the write surface shared by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func addCharge(ctx context.Context, db execer, c domain.Charge) (int64, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	res, err := db.ExecContext(ctx, insertChargeSQL,
		c.BookingID, string(c.Source), valStr(c.Reference), c.Description, c.Amount.StringFixed(2), c.CreatedAt,
	)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return res.LastInsertId()
}

func (r *Repo) ListCharges(ctx context.Context, bookingID int64) ([]domain.Charge, error) {
	rows, err := r.db.QueryContext(ctx, listChargesSQL, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Charge
	for rows.Next() {
		var c domain.Charge
		var source string
		if err := rows.Scan(&c.ID, &c.BookingID, &source, &c.Reference, &c.Description, &c.Amount, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Source = domain.ChargeSource(source)
		out = append(out, c)
	}
	return out, rows.Err()
}
