package pricing

import (
	"github.com/shopspring/decimal"

	"hotel_pms/internal/domain"
)

var hundred = decimal.NewFromInt(100)

func Subtotal(nights []domain.NightRate) decimal.Decimal {
	sum := decimal.Zero
	for _, n := range nights {
		sum = sum.Add(n.Price)
	}
	return sum
}

// Quote builds the price breakdown of a stay. The discount is capped at the subtotal
// and taxes apply to the discounted amount.
func Quote(nights []domain.NightRate, taxPercent, discount decimal.Decimal, currency string) domain.PriceBreakdown {
	sub := Subtotal(nights)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(sub) {
		discount = sub
	}
	taxable := sub.Sub(discount)
	taxes := taxable.Mul(taxPercent).Div(hundred).Round(2)
	return domain.PriceBreakdown{
		Nights:   nights,
		Subtotal: sub,
		Discount: discount.Round(2),
		Taxes:    taxes,
		Total:    taxable.Add(taxes).Round(2),
		Currency: currency,
	}
}
