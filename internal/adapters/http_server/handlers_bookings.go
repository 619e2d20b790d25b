package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hotel_pms/internal/app"
	"hotel_pms/internal/domain"
)

type guestRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,max=40"`
}

type createBookingRequest struct {
	PropertyID      int64        `json:"propertyId" validate:"required,gt=0"`
	RoomTypeID      int64        `json:"roomTypeId" validate:"required,gt=0"`
	Guest           guestRequest `json:"guest" validate:"required"`
	CheckIn         string       `json:"checkIn" validate:"required,date"`
	CheckOut        string       `json:"checkOut" validate:"required,date"`
	Adults          int          `json:"adults" validate:"required,min=1"`
	Children        int          `json:"children" validate:"gte=0"`
	Source          string       `json:"source" validate:"omitempty,oneof=direct walk_in phone ota"`
	PromoCode       string       `json:"promoCode" validate:"omitempty,max=40"`
	SpecialRequests string       `json:"specialRequests" validate:"omitempty,max=2000"`
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ve := domain.NewValidationError()
	in := domain.BookingInput{
		PropertyID:      req.PropertyID,
		RoomTypeID:      req.RoomTypeID,
		Guest:           domain.Guest{Name: req.Guest.Name, Email: req.Guest.Email, Phone: req.Guest.Phone},
		CheckIn:         parseDate("checkIn", req.CheckIn, ve),
		CheckOut:        parseDate("checkOut", req.CheckOut, ve),
		Adults:          req.Adults,
		Children:        req.Children,
		Source:          domain.BookingSource(req.Source),
		PromoCode:       req.PromoCode,
		SpecialRequests: req.SpecialRequests,
	}
	if err := ve.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}
	if in.Source == "" {
		in.Source = domain.SourceDirect
	}
	b, created, err := h.Bookings.CreateBooking(r.Context(), in, strings.TrimSpace(r.Header.Get("Idempotency-Key")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	writeOK(w, status, b)
}

func (h *Handlers) lookupBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.Bookings.GetByReference(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, b)
}

func (h *Handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := domain.BookingFilter{
		PropertyID: q.int64("propertyId", false),
		Status:     domain.BookingStatus(q.str("status")),
		From:       q.datePtr("from"),
		To:         q.datePtr("to"),
		GuestEmail: q.str("guestEmail"),
		Page:       q.int("page", 1),
		Limit:      q.int("limit", 20),
	}
	if f.Status != "" && !f.Status.Valid() {
		q.ve.Add("status", "unknown booking status")
	}
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.Bookings.ListBookings(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, page)
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, b)
}

type transitionRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed checked_in checked_out cancelled no_show"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

func (h *Handlers) transitionBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req transitionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Bookings.Transition(r.Context(), domain.Transition{
		BookingID: id,
		To:        domain.BookingStatus(req.Status),
		Reason:    req.Reason,
		Actor:     domain.Actor(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, b)
}

func (h *Handlers) bookingHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	hist, err := h.Bookings.History(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, hist)
}

func (h *Handlers) bookingFolio(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.Bookings.Folio(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, f)
}

func (h *Handlers) allocateBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Bookings.AssignRoom(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, b)
}

// ---- public search ----

func (h *Handlers) searchAvailability(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	sq := domain.SearchQuery{
		PropertyID: q.int64("propertyId", true),
		CheckIn:    q.date("checkIn", true),
		CheckOut:   q.date("checkOut", true),
		Adults:     q.int("adults", 1),
		Children:   q.int("children", 0),
	}
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	offers, err := h.Availability.SearchAvailability(r.Context(), sq, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, offers)
}

type validatePromotionRequest struct {
	Code       string `json:"code" validate:"required,max=40"`
	RoomTypeID int64  `json:"roomTypeId" validate:"required,gt=0"`
	CheckIn    string `json:"checkIn" validate:"required,date"`
	CheckOut   string `json:"checkOut" validate:"required,date"`
	GuestEmail string `json:"guestEmail" validate:"omitempty,email"`
}

// validatePromotion answers 200 with the evaluation even when the code is refused.
func (h *Handlers) validatePromotion(w http.ResponseWriter, r *http.Request) {
	var req validatePromotionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ve := domain.NewValidationError()
	d := app.PromotionDraft{
		Code:       req.Code,
		RoomTypeID: req.RoomTypeID,
		CheckIn:    parseDate("checkIn", req.CheckIn, ve),
		CheckOut:   parseDate("checkOut", req.CheckOut, ve),
		GuestEmail: req.GuestEmail,
	}
	if err := ve.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Promotions.ValidateDraft(r.Context(), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, res)
}
