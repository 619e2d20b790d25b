package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hotel_pms/internal/domain"
)

const maxLineQuantity = 100

type POSService struct {
	repo     domain.POSRepository
	bookings domain.BookingRepository
	props    domain.PropertyRepository
	Now      func() time.Time
}

func NewPOSService(r domain.POSRepository, b domain.BookingRepository, p domain.PropertyRepository) *POSService {
	return &POSService{repo: r, bookings: b, props: p, Now: time.Now}
}

func (s *POSService) CreateOutlet(ctx context.Context, o domain.Outlet) (domain.Outlet, error) {
	ve := domain.NewValidationError()
	o.Name = strings.TrimSpace(o.Name)
	if o.Name == "" {
		ve.Add("name", "required")
	}
	if !o.Kind.Valid() {
		ve.Add("kind", "must be one of restaurant, bar, room_service")
	}
	if err := ve.OrNil(); err != nil {
		return domain.Outlet{}, err
	}
	if _, err := s.props.GetProperty(ctx, o.PropertyID); err != nil {
		return domain.Outlet{}, fmt.Errorf("property %d: %w", o.PropertyID, err)
	}
	id, err := s.repo.CreateOutlet(ctx, o)
	if err != nil {
		return domain.Outlet{}, err
	}
	o.ID = id
	return o, nil
}

func (s *POSService) ListOutlets(ctx context.Context, propertyID int64) ([]domain.Outlet, error) {
	return s.repo.ListOutlets(ctx, propertyID)
}

func (s *POSService) CreateMenuItem(ctx context.Context, m domain.MenuItem) (domain.MenuItem, error) {
	ve := domain.NewValidationError()
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		ve.Add("name", "required")
	}
	if !m.Price.IsPositive() {
		ve.Add("price", "must be positive")
	}
	if m.TaxPercent.IsNegative() || m.TaxPercent.GreaterThan(decimal.NewFromInt(100)) {
		ve.Add("taxPercent", "must be between 0 and 100")
	}
	if err := ve.OrNil(); err != nil {
		return domain.MenuItem{}, err
	}
	id, err := s.repo.CreateMenuItem(ctx, m)
	if err != nil {
		return domain.MenuItem{}, err
	}
	m.ID = id
	return m, nil
}

func (s *POSService) ListMenuItems(ctx context.Context, outletID int64) ([]domain.MenuItem, error) {
	return s.repo.ListMenuItems(ctx, outletID)
}

func (s *POSService) OpenOrder(ctx context.Context, outletID int64, table string) (domain.Order, error) {
	o := domain.Order{
		OutletID: outletID,
		Table:    strings.TrimSpace(table),
		Status:   domain.OrderOpen,
		Lines:    []domain.OrderLine{},
		OpenedAt: s.Now().UTC(),
	}
	o.Recalculate()
	id, err := s.repo.CreateOrder(ctx, o)
	if err != nil {
		return domain.Order{}, err
	}
	o.ID = id
	return o, nil
}

func (s *POSService) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *POSService) openOrder(ctx context.Context, id int64) (domain.Order, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if o.Status != domain.OrderOpen {
		return domain.Order{}, fmt.Errorf("%w: order %d is %s", domain.ErrConflict, id, o.Status)
	}
	return o, nil
}

func (s *POSService) AddLine(ctx context.Context, orderID, itemID int64, qty int) (domain.Order, error) {
	if qty < 1 || qty > maxLineQuantity {
		ve := domain.NewValidationError()
		ve.Add("quantity", fmt.Sprintf("must be between 1 and %d", maxLineQuantity))
		return domain.Order{}, ve
	}
	o, err := s.openOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	item, err := s.repo.GetMenuItem(ctx, itemID)
	if err != nil {
		return domain.Order{}, err
	}
	if item.OutletID != o.OutletID {
		ve := domain.NewValidationError()
		ve.Add("menuItemId", "item belongs to another outlet")
		return domain.Order{}, ve
	}
	if !item.Available {
		return domain.Order{}, fmt.Errorf("%w: %s is not available", domain.ErrConflict, item.Name)
	}
	l := domain.OrderLine{
		OrderID:    o.ID,
		MenuItemID: item.ID,
		Name:       item.Name,
		Quantity:   qty,
		UnitPrice:  item.Price,
		TaxPercent: item.TaxPercent,
		LineTotal:  item.Price.Mul(decimal.NewFromInt(int64(qty))).Round(2),
	}
	o.Lines = append(o.Lines, l)
	o.Recalculate()
	if _, err := s.repo.AddOrderLine(ctx, o, l); err != nil {
		return domain.Order{}, err
	}
	return s.repo.GetOrder(ctx, o.ID)
}

// CloseOrder settles an open order. A room charge posts the total to the folio of
// a checked-in booking.
func (s *POSService) CloseOrder(ctx context.Context, orderID int64, method domain.PaymentMethod, bookingID *int64) (domain.Order, error) {
	ve := domain.NewValidationError()
	if !method.Valid() {
		ve.Add("paymentMethod", "must be one of cash, card, room_charge")
	}
	if method == domain.PayRoomCharge && bookingID == nil {
		ve.Add("bookingId", "required for room charges")
	}
	if err := ve.OrNil(); err != nil {
		return domain.Order{}, err
	}
	o, err := s.openOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(o.Lines) == 0 {
		return domain.Order{}, fmt.Errorf("%w: order %d has no lines", domain.ErrConflict, orderID)
	}

	var charge *domain.Charge
	if method == domain.PayRoomCharge {
		b, err := s.bookings.GetBooking(ctx, *bookingID)
		if err != nil {
			return domain.Order{}, err
		}
		if b.Status != domain.BookingCheckedIn {
			return domain.Order{}, fmt.Errorf("%w: booking %s is %s, room charges need a checked-in guest", domain.ErrConflict, b.Reference, b.Status)
		}
		o.BookingID = &b.ID
		charge = &domain.Charge{
			BookingID:   b.ID,
			Source:      domain.ChargePOS,
			Reference:   fmt.Sprintf("POS-%d", o.ID),
			Description: fmt.Sprintf("F&B order #%d", o.ID),
			Amount:      o.Total,
			CreatedAt:   s.Now().UTC(),
		}
	}
	now := s.Now().UTC()
	o.Status = domain.OrderClosed
	o.PaymentMethod = method
	o.ClosedAt = &now
	if err := s.repo.CloseOrder(ctx, o, charge); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (s *POSService) VoidOrder(ctx context.Context, orderID int64) (domain.Order, error) {
	if _, err := s.openOrder(ctx, orderID); err != nil {
		return domain.Order{}, err
	}
	if err := s.repo.VoidOrder(ctx, orderID); err != nil {
		return domain.Order{}, err
	}
	return s.repo.GetOrder(ctx, orderID)
}
