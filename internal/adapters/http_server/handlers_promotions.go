package httpserver

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"hotel_pms/internal/domain"
)

type createPromotionRequest struct {
	Code         string           `json:"code" validate:"required,max=40"`
	Name         string           `json:"name" validate:"required,max=200"`
	Type         string           `json:"type" validate:"required,oneof=percentage fixed free_night"`
	Value        decimal.Decimal  `json:"value"`
	MaxDiscount  *decimal.Decimal `json:"maxDiscount"`
	ValidFrom    string           `json:"validFrom" validate:"required,date"`
	ValidTo      string           `json:"validTo" validate:"required,date"`
	StayFrom     string           `json:"stayFrom" validate:"omitempty,date"`
	StayTo       string           `json:"stayTo" validate:"omitempty,date"`
	MinNights    int              `json:"minNights" validate:"gte=0"`
	MaxNights    int              `json:"maxNights" validate:"gte=0"`
	MinAmount    decimal.Decimal  `json:"minAmount"`
	RoomTypeIDs  []int64          `json:"roomTypeIds" validate:"omitempty,dive,gt=0"`
	ArrivalDays  []int            `json:"arrivalDays" validate:"omitempty,max=7,dive,min=0,max=6"`
	UsageLimit   int              `json:"usageLimit" validate:"gte=0"`
	FirstBooking bool             `json:"firstBookingOnly"`
}

func optDate(field, s string, ve *domain.ValidationError) *time.Time {
	if s == "" {
		return nil
	}
	d := parseDate(field, s, ve)
	return &d
}

func (h *Handlers) createPromotion(w http.ResponseWriter, r *http.Request) {
	var req createPromotionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ve := domain.NewValidationError()
	p := domain.Promotion{
		Code:         req.Code,
		Name:         req.Name,
		Type:         domain.PromotionType(req.Type),
		Value:        req.Value,
		MaxDiscount:  req.MaxDiscount,
		ValidFrom:    parseDate("validFrom", req.ValidFrom, ve),
		ValidTo:      parseDate("validTo", req.ValidTo, ve),
		StayFrom:     optDate("stayFrom", req.StayFrom, ve),
		StayTo:       optDate("stayTo", req.StayTo, ve),
		MinNights:    req.MinNights,
		MaxNights:    req.MaxNights,
		MinAmount:    req.MinAmount,
		RoomTypeIDs:  req.RoomTypeIDs,
		UsageLimit:   req.UsageLimit,
		FirstBooking: req.FirstBooking,
	}
	for _, d := range req.ArrivalDays {
		p.ArrivalDays = append(p.ArrivalDays, time.Weekday(d))
	}
	if err := ve.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Promotions.CreatePromotion(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, out)
}

func (h *Handlers) listPromotions(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	activeOnly := q.bool("active")
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	ps, err := h.Promotions.ListPromotions(r.Context(), activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, ps)
}

func (h *Handlers) getPromotion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Promotions.GetPromotion(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, p)
}

func (h *Handlers) deactivatePromotion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Promotions.Deactivate(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Promotions.GetPromotion(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, p)
}
