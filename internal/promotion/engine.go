// Package promotion evaluates discount codes against a draft booking.
package promotion

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"hotel_pms/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// check is one independent eligibility rule; it returns "" when the request passes.
type check func(p domain.Promotion, r domain.PromotionRequest) string

var checks = []check{
	checkActive,
	checkBookingWindow,
	checkStayWindow,
	checkMinNights,
	checkMaxNights,
	checkMinAmount,
	checkRoomType,
	checkArrivalDay,
	checkUsageLimit,
	checkFirstBooking,
}

// Validate runs every rule and reports all failures, not only the first one.
func Validate(p domain.Promotion, r domain.PromotionRequest) domain.PromotionResult {
	res := domain.PromotionResult{Code: p.Code, Discount: decimal.Zero}
	for _, c := range checks {
		if msg := c(p, r); msg != "" {
			res.Errors = append(res.Errors, msg)
		}
	}
	res.Valid = len(res.Errors) == 0
	if res.Valid {
		res.Discount = Discount(p, r)
	}
	return res
}

// Discount computes the amount off the subtotal, capped by the promotion's
// max discount and by the subtotal itself.
func Discount(p domain.Promotion, r domain.PromotionRequest) decimal.Decimal {
	var d decimal.Decimal
	switch p.Type {
	case domain.PromoPercentage:
		d = r.Subtotal.Mul(p.Value).Div(hundred)
	case domain.PromoFixed:
		d = p.Value
	case domain.PromoFreeNight:
		for i, n := range r.Nights {
			if i == 0 || n.Price.LessThan(d) {
				d = n.Price
			}
		}
	}
	if p.MaxDiscount != nil && d.GreaterThan(*p.MaxDiscount) {
		d = *p.MaxDiscount
	}
	if d.GreaterThan(r.Subtotal) {
		d = r.Subtotal
	}
	if d.IsNegative() {
		d = decimal.Zero
	}
	return d.Round(2)
}

func nights(r domain.PromotionRequest) int { return domain.Nights(r.CheckIn, r.CheckOut) }

func checkActive(p domain.Promotion, _ domain.PromotionRequest) string {
	if !p.Active {
		return "promotion is not active"
	}
	return ""
}

func checkBookingWindow(p domain.Promotion, r domain.PromotionRequest) string {
	today := domain.Day(r.BookingDate)
	if today.Before(domain.Day(p.ValidFrom)) {
		return fmt.Sprintf("promotion starts on %s", p.ValidFrom.Format(domain.DateLayout))
	}
	if today.After(domain.Day(p.ValidTo)) {
		return fmt.Sprintf("promotion expired on %s", p.ValidTo.Format(domain.DateLayout))
	}
	return ""
}

func checkStayWindow(p domain.Promotion, r domain.PromotionRequest) string {
	if p.StayFrom != nil && domain.Day(r.CheckIn).Before(domain.Day(*p.StayFrom)) {
		return fmt.Sprintf("stay must start on or after %s", p.StayFrom.Format(domain.DateLayout))
	}
	// the last night, not the departure day, must fall inside the window
	if p.StayTo != nil && domain.Day(r.CheckOut).AddDate(0, 0, -1).After(domain.Day(*p.StayTo)) {
		return fmt.Sprintf("stay must end by %s", p.StayTo.Format(domain.DateLayout))
	}
	return ""
}

func checkMinNights(p domain.Promotion, r domain.PromotionRequest) string {
	if p.MinNights > 0 && nights(r) < p.MinNights {
		return fmt.Sprintf("minimum stay is %d nights", p.MinNights)
	}
	return ""
}

func checkMaxNights(p domain.Promotion, r domain.PromotionRequest) string {
	if p.MaxNights > 0 && nights(r) > p.MaxNights {
		return fmt.Sprintf("maximum stay is %d nights", p.MaxNights)
	}
	return ""
}

func checkMinAmount(p domain.Promotion, r domain.PromotionRequest) string {
	if p.MinAmount.IsPositive() && r.Subtotal.LessThan(p.MinAmount) {
		return fmt.Sprintf("minimum booking amount is %s", p.MinAmount.StringFixed(2))
	}
	return ""
}

func checkRoomType(p domain.Promotion, r domain.PromotionRequest) string {
	if len(p.RoomTypeIDs) == 0 {
		return ""
	}
	for _, id := range p.RoomTypeIDs {
		if id == r.RoomTypeID {
			return ""
		}
	}
	return "room type is not eligible"
}

func checkArrivalDay(p domain.Promotion, r domain.PromotionRequest) string {
	if len(p.ArrivalDays) == 0 {
		return ""
	}
	wd := r.CheckIn.Weekday()
	names := make([]string, 0, len(p.ArrivalDays))
	for _, d := range p.ArrivalDays {
		if d == wd {
			return ""
		}
		names = append(names, d.String())
	}
	return "arrival must be on " + strings.Join(names, ", ")
}

func checkUsageLimit(p domain.Promotion, _ domain.PromotionRequest) string {
	if p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit {
		return "promotion usage limit reached"
	}
	return ""
}

func checkFirstBooking(p domain.Promotion, r domain.PromotionRequest) string {
	if p.FirstBooking && r.PriorBookings > 0 {
		return "promotion is valid for first bookings only"
	}
	return ""
}

// NormalizeCode canonicalises a code for lookup.
func NormalizeCode(code string) string { return strings.ToUpper(strings.TrimSpace(code)) }
