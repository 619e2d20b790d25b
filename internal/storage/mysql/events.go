package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"hotel_pms/internal/domain"
)

func (r *Repo) CreateVenue(ctx context.Context, v domain.Venue) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertVenueSQL, v.PropertyID, v.Name, v.Capacity, v.HourlyRate.StringFixed(2))
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return res.LastInsertId()
}

func scanVenue(s rowScanner) (domain.Venue, error) {
	var v domain.Venue
	err := s.Scan(&v.ID, &v.PropertyID, &v.Name, &v.Capacity, &v.HourlyRate)
	return v, err
}

func (r *Repo) GetVenue(ctx context.Context, id int64) (domain.Venue, error) {
	v, err := scanVenue(r.db.QueryRowContext(ctx, getVenueSQL, id))
	return v, notFound(err)
}

func (r *Repo) ListVenues(ctx context.Context, propertyID int64) ([]domain.Venue, error) {
	rows, err := r.db.QueryContext(ctx, listVenuesSQL, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CreateEventBooking serialises bookings of one venue on its row lock before the clash check.
func (r *Repo) CreateEventBooking(ctx context.Context, e domain.EventBooking) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var locked int64
		if err := tx.QueryRowContext(ctx, lockVenueSQL, e.VenueID).Scan(&locked); err != nil {
			return notFound(err)
		}
		var clashes int
		err := tx.QueryRowContext(ctx, countEventClashesSQL, e.VenueID, domain.Day(e.Date), int(e.End), int(e.Start)).Scan(&clashes)
		if err != nil {
			return err
		}
		if clashes > 0 {
			return fmt.Errorf("%w: venue is booked between %s and %s", domain.ErrConflict, e.Start, e.End)
		}
		res, err := tx.ExecContext(ctx, insertEventSQL,
			e.VenueID, e.Title, e.Organizer.Name, e.Organizer.Email, domain.Day(e.Date),
			int(e.Start), int(e.End), e.Attendees, string(e.Status),
			e.PackagePerHead.StringFixed(2), e.Total.StringFixed(2), valStr(e.Notes), e.CreatedAt,
		)
		if err != nil {
			return mapWriteErr(err)
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

func scanEvent(s rowScanner) (domain.EventBooking, error) {
	var e domain.EventBooking
	var start, end int
	var status string
	err := s.Scan(&e.ID, &e.VenueID, &e.Title, &e.Organizer.Name, &e.Organizer.Email, &e.Date,
		&start, &end, &e.Attendees, &status, &e.PackagePerHead, &e.Total, &e.Notes, &e.CreatedAt)
	e.Start, e.End = domain.ClockTime(start), domain.ClockTime(end)
	e.Status = domain.EventStatus(status)
	e.Date = domain.Day(e.Date)
	return e, err
}

func (r *Repo) GetEventBooking(ctx context.Context, id int64) (domain.EventBooking, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, getEventSQL, id))
	return e, notFound(err)
}

func (r *Repo) ListEventBookings(ctx context.Context, f domain.EventFilter) ([]domain.EventBooking, error) {
	var sb strings.Builder
	sb.WriteString(listEventsSQL)
	var args []any
	if f.VenueID > 0 {
		sb.WriteString(" AND venue_id = ?")
		args = append(args, f.VenueID)
	}
	if f.From != nil {
		sb.WriteString(" AND event_date >= ?")
		args = append(args, domain.Day(*f.From))
	}
	if f.To != nil {
		sb.WriteString(" AND event_date < ?")
		args = append(args, domain.Day(*f.To))
	}
	if f.Status != "" {
		sb.WriteString(" AND status = ?")
		args = append(args, string(f.Status))
	}
	sb.WriteString(" ORDER BY event_date, start_min")

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.EventBooking
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateEventStatus(ctx context.Context, id int64, from, to domain.EventStatus) error {
	res, err := r.db.ExecContext(ctx, updateEventStatusSQL, string(to), id, string(from))
	return expectOne(res, err)
}
