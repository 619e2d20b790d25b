package httpserver

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"hotel_pms/internal/domain"
)

// ---- housekeeping ----

type createTaskRequest struct {
	RoomID    int64      `json:"roomId" validate:"required,gt=0"`
	BookingID *int64     `json:"bookingId" validate:"omitempty,gt=0"`
	Type      string     `json:"type" validate:"required,oneof=checkout_clean stayover_clean turndown inspection maintenance"`
	Priority  string     `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Notes     string     `json:"notes" validate:"omitempty,max=2000"`
	DueAt     *time.Time `json:"dueAt"`
}

func (h *Handlers) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.Housekeeping.CreateTask(r.Context(), domain.HousekeepingTask{
		RoomID:    req.RoomID,
		BookingID: req.BookingID,
		Type:      domain.TaskType(req.Type),
		Priority:  domain.TaskPriority(req.Priority),
		Notes:     req.Notes,
		DueAt:     req.DueAt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, t)
}

func (h *Handlers) listTasks(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := domain.TaskFilter{
		Status:     domain.TaskStatus(q.str("status")),
		Type:       domain.TaskType(q.str("type")),
		RoomID:     q.int64("roomId", false),
		AssigneeID: q.int64("assigneeId", false),
		Limit:      q.int("limit", 100),
	}
	if f.Status != "" && !f.Status.Valid() {
		q.ve.Add("status", "unknown task status")
	}
	if f.Type != "" && !f.Type.Valid() {
		q.ve.Add("type", "unknown task type")
	}
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	ts, err := h.Housekeeping.ListTasks(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, ts)
}

func (h *Handlers) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.Housekeeping.GetTask(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, t)
}

type assignTaskRequest struct {
	UserID int64 `json:"userId" validate:"required,gt=0"`
}

func (h *Handlers) assignTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req assignTaskRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.Housekeeping.Assign(r.Context(), id, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, t)
}

type taskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed verified cancelled"`
}

func (h *Handlers) transitionTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req taskStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.Housekeeping.Transition(r.Context(), id, domain.TaskStatus(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, t)
}

type stayoverRequest struct {
	PropertyID int64  `json:"propertyId" validate:"required,gt=0"`
	Date       string `json:"date" validate:"omitempty,date"`
}

func (h *Handlers) generateStayovers(w http.ResponseWriter, r *http.Request) {
	var req stayoverRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	day := time.Now()
	if req.Date != "" {
		ve := domain.NewValidationError()
		day = parseDate("date", req.Date, ve)
		if err := ve.OrNil(); err != nil {
			writeError(w, r, err)
			return
		}
	}
	n, err := h.Housekeeping.GenerateStayoverTasks(r.Context(), req.PropertyID, day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]int{"created": n})
}

// ---- point of sale ----

type createOutletRequest struct {
	PropertyID int64  `json:"propertyId" validate:"required,gt=0"`
	Name       string `json:"name" validate:"required,max=200"`
	Kind       string `json:"kind" validate:"required,oneof=restaurant bar room_service"`
}

func (h *Handlers) createOutlet(w http.ResponseWriter, r *http.Request) {
	var req createOutletRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.POS.CreateOutlet(r.Context(), domain.Outlet{PropertyID: req.PropertyID, Name: req.Name, Kind: domain.OutletKind(req.Kind)})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, o)
}

func (h *Handlers) listOutlets(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	propertyID := q.int64("propertyId", true)
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	outlets, err := h.POS.ListOutlets(r.Context(), propertyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, outlets)
}

type createMenuItemRequest struct {
	OutletID   int64           `json:"outletId" validate:"required,gt=0"`
	Name       string          `json:"name" validate:"required,max=200"`
	Category   string          `json:"category" validate:"omitempty,max=100"`
	Price      decimal.Decimal `json:"price"`
	TaxPercent decimal.Decimal `json:"taxPercent"`
	Available  *bool           `json:"available"`
}

func (h *Handlers) createMenuItem(w http.ResponseWriter, r *http.Request) {
	var req createMenuItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	m := domain.MenuItem{
		OutletID:   req.OutletID,
		Name:       req.Name,
		Category:   req.Category,
		Price:      req.Price,
		TaxPercent: req.TaxPercent,
		Available:  req.Available == nil || *req.Available,
	}
	out, err := h.POS.CreateMenuItem(r.Context(), m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, out)
}

func (h *Handlers) listMenu(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	outletID := q.int64("outletId", true)
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.POS.ListMenuItems(r.Context(), outletID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, items)
}

type openOrderRequest struct {
	OutletID int64  `json:"outletId" validate:"required,gt=0"`
	Table    string `json:"table" validate:"omitempty,max=20"`
}

func (h *Handlers) openOrder(w http.ResponseWriter, r *http.Request) {
	var req openOrderRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.POS.OpenOrder(r.Context(), req.OutletID, req.Table)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, o)
}

func (h *Handlers) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.POS.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, o)
}

type orderLineRequest struct {
	MenuItemID int64 `json:"menuItemId" validate:"required,gt=0"`
	Quantity   int   `json:"quantity" validate:"required,min=1,max=100"`
}

func (h *Handlers) addOrderLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req orderLineRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.POS.AddLine(r.Context(), id, req.MenuItemID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, o)
}

type closeOrderRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=cash card room_charge"`
	BookingID     *int64 `json:"bookingId" validate:"omitempty,gt=0"`
}

func (h *Handlers) closeOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req closeOrderRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.POS.CloseOrder(r.Context(), id, domain.PaymentMethod(req.PaymentMethod), req.BookingID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, o)
}

func (h *Handlers) voidOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.POS.VoidOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, o)
}

// ---- events ----

type createVenueRequest struct {
	PropertyID int64           `json:"propertyId" validate:"required,gt=0"`
	Name       string          `json:"name" validate:"required,max=200"`
	Capacity   int             `json:"capacity" validate:"required,min=1"`
	HourlyRate decimal.Decimal `json:"hourlyRate"`
}

func (h *Handlers) createVenue(w http.ResponseWriter, r *http.Request) {
	var req createVenueRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := h.Events.CreateVenue(r.Context(), domain.Venue{
		PropertyID: req.PropertyID,
		Name:       req.Name,
		Capacity:   req.Capacity,
		HourlyRate: req.HourlyRate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, v)
}

func (h *Handlers) listVenues(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	propertyID := q.int64("propertyId", true)
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	vs, err := h.Events.ListVenues(r.Context(), propertyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, vs)
}

type organizerRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
}

type createEventRequest struct {
	VenueID        int64            `json:"venueId" validate:"required,gt=0"`
	Title          string           `json:"title" validate:"required,max=200"`
	Organizer      organizerRequest `json:"organizer" validate:"required"`
	Date           string           `json:"date" validate:"required,date"`
	Start          string           `json:"start" validate:"required,clock"`
	End            string           `json:"end" validate:"required,clock"`
	Attendees      int              `json:"attendees" validate:"required,min=1"`
	PackagePerHead decimal.Decimal  `json:"packagePerHead"`
	Notes          string           `json:"notes" validate:"omitempty,max=2000"`
}

func (h *Handlers) createEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ve := domain.NewValidationError()
	date := parseDate("date", req.Date, ve)
	start, _ := domain.ParseClock(req.Start)
	end, _ := domain.ParseClock(req.End)
	if err := ve.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.Events.CreateEvent(r.Context(), domain.EventBooking{
		VenueID:        req.VenueID,
		Title:          req.Title,
		Organizer:      domain.Organizer{Name: req.Organizer.Name, Email: req.Organizer.Email},
		Date:           date,
		Start:          start,
		End:            end,
		Attendees:      req.Attendees,
		PackagePerHead: req.PackagePerHead,
		Notes:          req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, e)
}

func (h *Handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := domain.EventFilter{
		VenueID: q.int64("venueId", false),
		From:    q.datePtr("from"),
		To:      q.datePtr("to"),
		Status:  domain.EventStatus(q.str("status")),
	}
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	es, err := h.Events.ListEvents(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, es)
}

func (h *Handlers) getEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.Events.GetEvent(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, e)
}

type eventStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=tentative confirmed cancelled"`
}

func (h *Handlers) updateEventStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req eventStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.Events.UpdateStatus(r.Context(), id, domain.EventStatus(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, e)
}
