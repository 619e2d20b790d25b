package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"hotel_pms/internal/domain"
)

func valJSON(v any, empty bool) any {
	if empty {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(b)
}

func (r *Repo) CreatePromotion(ctx context.Context, p domain.Promotion) (int64, error) {
	days := make([]int, 0, len(p.ArrivalDays))
	for _, d := range p.ArrivalDays {
		days = append(days, int(d))
	}
	res, err := r.db.ExecContext(ctx, insertPromotionSQL,
		p.Code, p.Name, string(p.Type), p.Value.StringFixed(2), valDec(p.MaxDiscount),
		domain.Day(p.ValidFrom), domain.Day(p.ValidTo), valTime(p.StayFrom), valTime(p.StayTo),
		p.MinNights, p.MaxNights, p.MinAmount.StringFixed(2),
		valJSON(p.RoomTypeIDs, len(p.RoomTypeIDs) == 0), valJSON(days, len(days) == 0),
		p.UsageLimit, p.FirstBooking, p.Active,
	)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return res.LastInsertId()
}

func scanPromotion(s rowScanner) (domain.Promotion, error) {
	var p domain.Promotion
	var typ string
	var maxDiscount decimal.NullDecimal
	var stayFrom, stayTo sql.NullTime
	var roomTypes, arrival []byte
	err := s.Scan(
		&p.ID, &p.Code, &p.Name, &typ, &p.Value, &maxDiscount, &p.ValidFrom, &p.ValidTo,
		&stayFrom, &stayTo, &p.MinNights, &p.MaxNights, &p.MinAmount, &roomTypes, &arrival,
		&p.UsageLimit, &p.UsedCount, &p.FirstBooking, &p.Active, &p.CreatedAt,
	)
	if err != nil {
		return domain.Promotion{}, err
	}
	p.Type = domain.PromotionType(typ)
	if maxDiscount.Valid {
		p.MaxDiscount = &maxDiscount.Decimal
	}
	p.StayFrom, p.StayTo = ptrTime(stayFrom), ptrTime(stayTo)
	if len(roomTypes) > 0 {
		if err := json.Unmarshal(roomTypes, &p.RoomTypeIDs); err != nil {
			return domain.Promotion{}, err
		}
	}
	if len(arrival) > 0 {
		var days []int
		if err := json.Unmarshal(arrival, &days); err != nil {
			return domain.Promotion{}, err
		}
		for _, d := range days {
			p.ArrivalDays = append(p.ArrivalDays, time.Weekday(d))
		}
	}
	return p, nil
}

func (r *Repo) GetPromotion(ctx context.Context, id int64) (domain.Promotion, error) {
	p, err := scanPromotion(r.db.QueryRowContext(ctx, getPromotionSQL, id))
	return p, notFound(err)
}

func (r *Repo) GetPromotionByCode(ctx context.Context, code string) (domain.Promotion, error) {
	p, err := scanPromotion(r.db.QueryRowContext(ctx, getPromotionByCodeSQL, code))
	return p, notFound(err)
}

func (r *Repo) ListPromotions(ctx context.Context, activeOnly bool) ([]domain.Promotion, error) {
	rows, err := r.db.QueryContext(ctx, listPromotionsSQL, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) DeactivatePromotion(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, deactivatePromotionSQL, id); err != nil {
		return err
	}
	_, err := r.GetPromotion(ctx, id)
	return err
}
