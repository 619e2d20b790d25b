package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"hotel_pms/internal/domain"
)

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valBool(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}
func valDec(p *decimal.Decimal) any {
	if p == nil {
		return nil
	}
	return p.StringFixed(2)
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

func ptrInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
func ptrTime(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time
	return &v
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// notFound maps sql.ErrNoRows to domain.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

const (
	errDuplicateKey = 1062
	errNoReferenced = 1452
)

// mapWriteErr turns unique and foreign key violations into domain errors.
func mapWriteErr(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDuplicateKey:
			return fmt.Errorf("%w: %s", domain.ErrConflict, me.Message)
		case errNoReferenced:
			return fmt.Errorf("%w: referenced row", domain.ErrNotFound)
		}
	}
	return err
}

// placeholders returns "?,?,...,?" with n marks.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// Open connects to dsn and pings it before handing the pool back.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return db, nil
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Ping checks the connection; the health endpoint uses it.
func (r *Repo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

// withTx runs fn in a transaction and commits when it returns nil.
func (r *Repo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// expectOne reports ErrConflict when a conditional update matched no row.
func expectOne(res sql.Result, err error) error {
	if err != nil {
		return mapWriteErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrConflict
	}
	return nil
}

// -----------------------------------------------------------------------------
// PROPERTIES
// -----------------------------------------------------------------------------

func (r *Repo) CreateProperty(ctx context.Context, p domain.Property) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertPropertySQL, p.Name, p.Timezone, p.Currency, p.CheckInTime, p.CheckOutTime)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return res.LastInsertId()
}

func scanProperty(s rowScanner) (domain.Property, error) {
	var p domain.Property
	err := s.Scan(&p.ID, &p.Name, &p.Timezone, &p.Currency, &p.CheckInTime, &p.CheckOutTime)
	return p, err
}

func (r *Repo) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	p, err := scanProperty(r.db.QueryRowContext(ctx, getPropertySQL, id))
	return p, notFound(err)
}

func (r *Repo) ListProperties(ctx context.Context) ([]domain.Property, error) {
	rows, err := r.db.QueryContext(ctx, listPropertiesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) CreateRoomType(ctx context.Context, rt domain.RoomType) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertRoomTypeSQL,
		rt.PropertyID, rt.Code, rt.Name, valStr(rt.Description),
		rt.BaseRate.StringFixed(2), rt.MaxAdults, rt.MaxChildren,
	)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return res.LastInsertId()
}

func scanRoomType(s rowScanner) (domain.RoomType, error) {
	var rt domain.RoomType
	err := s.Scan(&rt.ID, &rt.PropertyID, &rt.Code, &rt.Name, &rt.Description, &rt.BaseRate, &rt.MaxAdults, &rt.MaxChildren)
	return rt, err
}

func (r *Repo) GetRoomType(ctx context.Context, id int64) (domain.RoomType, error) {
	rt, err := scanRoomType(r.db.QueryRowContext(ctx, getRoomTypeSQL, id))
	return rt, notFound(err)
}

func (r *Repo) ListRoomTypes(ctx context.Context, propertyID int64) ([]domain.RoomType, error) {
	rows, err := r.db.QueryContext(ctx, listRoomTypesSQL, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.RoomType
	for rows.Next() {
		rt, err := scanRoomType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *Repo) CreateRoom(ctx context.Context, rm domain.Room) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertRoomSQL,
		rm.PropertyID, rm.RoomTypeID, rm.Number, rm.Floor, string(rm.Status), valStr(rm.Notes),
	)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return res.LastInsertId()
}

func scanRoom(s rowScanner) (domain.Room, error) {
	var rm domain.Room
	var status string
	err := s.Scan(&rm.ID, &rm.PropertyID, &rm.RoomTypeID, &rm.Number, &rm.Floor, &status, &rm.Notes, &rm.UpdatedAt)
	rm.Status = domain.RoomStatus(status)
	return rm, err
}

func (r *Repo) queryRooms(ctx context.Context, q string, args ...any) ([]domain.Room, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

func (r *Repo) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx, getRoomSQL, id))
	return rm, notFound(err)
}

func (r *Repo) ListRooms(ctx context.Context, f domain.RoomFilter) ([]domain.Room, error) {
	var sb strings.Builder
	sb.WriteString(listRoomsSQL)
	var args []any
	if f.PropertyID > 0 {
		sb.WriteString(" AND r.property_id = ?")
		args = append(args, f.PropertyID)
	}
	if f.RoomTypeID > 0 {
		sb.WriteString(" AND r.room_type_id = ?")
		args = append(args, f.RoomTypeID)
	}
	if f.Status != "" {
		sb.WriteString(" AND r.status = ?")
		args = append(args, string(f.Status))
	}
	if f.Floor != nil {
		sb.WriteString(" AND r.floor = ?")
		args = append(args, *f.Floor)
	}
	sb.WriteString(" ORDER BY r.floor, r.number")
	return r.queryRooms(ctx, sb.String(), args...)
}

func (r *Repo) UpdateRoomStatus(ctx context.Context, id int64, s domain.RoomStatus) error {
	res, err := r.db.ExecContext(ctx, updateRoomStatusSQL, string(s), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged.
		if _, err := r.GetRoom(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) CountSellableRooms(ctx context.Context, roomTypeID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countSellableRoomsSQL, roomTypeID).Scan(&n)
	return n, err
}

var (
	_ domain.PropertyRepository     = (*Repo)(nil)
	_ domain.AvailabilityRepository = (*Repo)(nil)
	_ domain.BookingRepository      = (*Repo)(nil)
	_ domain.PromotionRepository    = (*Repo)(nil)
	_ domain.HousekeepingRepository = (*Repo)(nil)
	_ domain.POSRepository          = (*Repo)(nil)
	_ domain.EventRepository        = (*Repo)(nil)
	_ domain.InventoryRepository    = (*Repo)(nil)
	_ domain.UserRepository         = (*Repo)(nil)
	_ domain.AnalyticsRepository    = (*Repo)(nil)
)
