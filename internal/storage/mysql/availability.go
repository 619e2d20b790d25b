package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"hotel_pms/internal/domain"
)

// calendarBatch bounds the rows of one multi-row upsert.
const calendarBatch = 200

func (r *Repo) UpsertCalendar(ctx context.Context, rows []domain.RoomAvailability) error {
	if len(rows) == 0 {
		return nil
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for start := 0; start < len(rows); start += calendarBatch {
			end := min(start+calendarBatch, len(rows))
			values := make([]string, 0, end-start)
			args := make([]any, 0, (end-start)*5)
			for _, a := range rows[start:end] {
				values = append(values, "(?,?,?,?,?)")
				args = append(args, a.RoomTypeID, domain.Day(a.Date), a.Total, a.Price.StringFixed(2), max(a.MinStay, 1))
			}
			q := upsertCalendarPrefix + strings.Join(values, ",") + upsertCalendarOnDup
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return mapWriteErr(err)
			}
		}
		return nil
	})
}

func scanAvailability(s rowScanner) (domain.RoomAvailability, error) {
	var a domain.RoomAvailability
	err := s.Scan(&a.RoomTypeID, &a.Date, &a.Total, &a.Booked, &a.Blocked, &a.Price,
		&a.MinStay, &a.MaxStay, &a.ClosedToArrival, &a.ClosedToDeparture, &a.StopSell)
	a.Date = domain.Day(a.Date)
	return a, err
}

// GetCalendar returns the stored rows of [from, to); missing dates are simply absent.
func (r *Repo) GetCalendar(ctx context.Context, roomTypeID int64, from, to time.Time) ([]domain.RoomAvailability, error) {
	rows, err := r.db.QueryContext(ctx, getCalendarSQL, roomTypeID, domain.Day(from), domain.Day(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.RoomAvailability
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateRestrictions patches the given dates. A blocked count that would push any
// date over its total is refused with ErrConflict and nothing is written.
func (r *Repo) UpdateRestrictions(ctx context.Context, roomTypeID int64, dates []time.Time, p domain.RestrictionPatch) error {
	if len(dates) == 0 {
		return nil
	}
	in := placeholders(len(dates))
	dateArgs := make([]any, 0, len(dates))
	for _, d := range dates {
		dateArgs = append(dateArgs, domain.Day(d))
	}

	return r.withTx(ctx, func(tx *sql.Tx) error {
		if p.Blocked != nil {
			rows, err := tx.QueryContext(ctx, lockCalendarDatesPrefix+in+lockCalendarDatesSuffix,
				append([]any{roomTypeID}, dateArgs...)...)
			if err != nil {
				return err
			}
			defer rows.Close()
			for rows.Next() {
				var booked, total int
				if err := rows.Scan(&booked, &total); err != nil {
					return err
				}
				if booked+*p.Blocked > total {
					return domain.ErrConflict
				}
			}
			if err := rows.Err(); err != nil {
				return err
			}
			rows.Close()
		}

		args := []any{
			valDec(p.Price), valInt(p.MinStay), valInt(p.MaxStay),
			valBool(p.ClosedToArrival), valBool(p.ClosedToDeparture), valBool(p.StopSell),
			valInt(p.Blocked), roomTypeID,
		}
		args = append(args, dateArgs...)
		_, err := tx.ExecContext(ctx, updateRestrictionsPrefix+in+")", args...)
		return err
	})
}
