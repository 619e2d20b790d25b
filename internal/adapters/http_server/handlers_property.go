package httpserver

import (
	"net/http"

	"github.com/shopspring/decimal"

	"hotel_pms/internal/domain"
)

type createPropertyRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Timezone     string `json:"timezone" validate:"omitempty,max=64"`
	Currency     string `json:"currency" validate:"required,len=3"`
	CheckInTime  string `json:"checkInTime" validate:"omitempty,clock"`
	CheckOutTime string `json:"checkOutTime" validate:"omitempty,clock"`
}

func (h *Handlers) createProperty(w http.ResponseWriter, r *http.Request) {
	var req createPropertyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Properties.CreateProperty(r.Context(), domain.Property{
		Name:         req.Name,
		Timezone:     req.Timezone,
		Currency:     req.Currency,
		CheckInTime:  req.CheckInTime,
		CheckOutTime: req.CheckOutTime,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, p)
}

func (h *Handlers) listProperties(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Properties.ListProperties(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, ps)
}

func (h *Handlers) getProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Properties.GetProperty(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, p)
}

type createRoomTypeRequest struct {
	PropertyID  int64           `json:"propertyId" validate:"required,gt=0"`
	Code        string          `json:"code" validate:"required,max=20"`
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"omitempty,max=2000"`
	BaseRate    decimal.Decimal `json:"baseRate"`
	MaxAdults   int             `json:"maxAdults" validate:"required,min=1"`
	MaxChildren int             `json:"maxChildren" validate:"gte=0"`
}

func (h *Handlers) createRoomType(w http.ResponseWriter, r *http.Request) {
	var req createRoomTypeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rt, err := h.Properties.CreateRoomType(r.Context(), domain.RoomType{
		PropertyID:  req.PropertyID,
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		BaseRate:    req.BaseRate,
		MaxAdults:   req.MaxAdults,
		MaxChildren: req.MaxChildren,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, rt)
}

func (h *Handlers) listRoomTypes(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	propertyID := q.int64("propertyId", true)
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	rts, err := h.Properties.ListRoomTypes(r.Context(), propertyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, rts)
}

type createRoomRequest struct {
	PropertyID int64  `json:"propertyId" validate:"required,gt=0"`
	RoomTypeID int64  `json:"roomTypeId" validate:"required,gt=0"`
	Number     string `json:"number" validate:"required,max=20"`
	Floor      int    `json:"floor"`
	Notes      string `json:"notes" validate:"omitempty,max=2000"`
}

func (h *Handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	room, err := h.Properties.CreateRoom(r.Context(), domain.Room{
		PropertyID: req.PropertyID,
		RoomTypeID: req.RoomTypeID,
		Number:     req.Number,
		Floor:      req.Floor,
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, room)
}

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := domain.RoomFilter{
		PropertyID: q.int64("propertyId", false),
		RoomTypeID: q.int64("roomTypeId", false),
		Status:     domain.RoomStatus(q.str("status")),
		Floor:      q.intPtr("floor"),
	}
	if f.Status != "" && !f.Status.Valid() {
		q.ve.Add("status", "unknown room status")
	}
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	rooms, err := h.Properties.ListRooms(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, rooms)
}

func (h *Handlers) getRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	room, err := h.Properties.GetRoom(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, room)
}

type roomStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available occupied dirty cleaning inspected maintenance out_of_order"`
}

func (h *Handlers) updateRoomStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req roomStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	room, err := h.Properties.UpdateRoomStatus(r.Context(), id, domain.RoomStatus(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, room)
}

// ---- calendar ----

type dateRangeRequest struct {
	RoomTypeID int64  `json:"roomTypeId" validate:"required,gt=0"`
	From       string `json:"from" validate:"required,date"`
	To         string `json:"to" validate:"required,date"`
}

func (h *Handlers) generateCalendar(w http.ResponseWriter, r *http.Request) {
	var req dateRangeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ve := domain.NewValidationError()
	from, to := parseDate("from", req.From, ve), parseDate("to", req.To, ve)
	if err := ve.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.Availability.GenerateCalendar(r.Context(), req.RoomTypeID, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, rows)
}

func (h *Handlers) getCalendar(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	rtID := q.int64("roomTypeId", true)
	from, to := q.date("from", true), q.date("to", true)
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.Availability.GetCalendar(r.Context(), rtID, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, rows)
}

type restrictionsRequest struct {
	RoomTypeID int64  `json:"roomTypeId" validate:"required,gt=0"`
	From       string `json:"from" validate:"required,date"`
	To         string `json:"to" validate:"required,date"`
	domain.RestrictionPatch
}

func (h *Handlers) updateRestrictions(w http.ResponseWriter, r *http.Request) {
	var req restrictionsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ve := domain.NewValidationError()
	from, to := parseDate("from", req.From, ve), parseDate("to", req.To, ve)
	if err := ve.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Availability.UpdateRestrictions(r.Context(), req.RoomTypeID, from, to, req.RestrictionPatch); err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.Availability.GetCalendar(r.Context(), req.RoomTypeID, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, rows)
}
