package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_pms/internal/app"
	"hotel_pms/internal/domain"
)

type Handlers struct {
	Properties   *app.PropertyService
	Availability *app.AvailabilityService
	Bookings     *app.BookingService
	Promotions   *app.PromotionService
	Housekeeping *app.HousekeepingService
	POS          *app.POSService
	Events       *app.EventService
	Inventory    *app.InventoryService
	Analytics    *app.AnalyticsService
	Auth         *app.AuthService

	// Health is pinged by /healthz when set.
	Health func(ctx context.Context) error
	// Limiter throttles the public endpoints per client IP; nil disables it.
	Limiter *IPLimiter
}

type envelope struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", h.health)

	s.mux.Route("/api", func(r chi.Router) {
		// public
		r.Group(func(r chi.Router) {
			if h.Limiter != nil {
				r.Use(h.Limiter.Middleware)
			}
			r.Post("/auth/login", h.login)
			r.Get("/availability/search", h.searchAvailability)
			r.Post("/promotions/validate", h.validatePromotion)
			r.Post("/bookings", h.createBooking)
			r.Get("/bookings/lookup/{reference}", h.lookupBooking)
		})

		// staff
		r.Group(func(r chi.Router) {
			r.Use(Authenticate(h.Auth))

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleManager))
				r.Post("/properties", h.createProperty)
				r.Post("/room-types", h.createRoomType)
				r.Post("/rooms", h.createRoom)
				r.Post("/calendar/generate", h.generateCalendar)
				r.Patch("/calendar/restrictions", h.updateRestrictions)
				r.Get("/promotions", h.listPromotions)
				r.Post("/promotions", h.createPromotion)
				r.Get("/promotions/{id}", h.getPromotion)
				r.Delete("/promotions/{id}", h.deactivatePromotion)
				r.Post("/events/venues", h.createVenue)
				r.Get("/admin/dashboard", h.dashboard)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleAdmin))
				r.Post("/admin/users", h.createUser)
			})

			r.Get("/properties", h.listProperties)
			r.Get("/properties/{id}", h.getProperty)
			r.Get("/room-types", h.listRoomTypes)
			r.Get("/rooms", h.listRooms)
			r.Get("/rooms/{id}", h.getRoom)
			r.With(RequireRole(domain.RoleManager, domain.RoleFrontDesk, domain.RoleHousekeeping)).
				Patch("/rooms/{id}/status", h.updateRoomStatus)
			r.Get("/calendar", h.getCalendar)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleManager, domain.RoleFrontDesk))
				r.Get("/bookings", h.listBookings)
				r.Get("/bookings/{id}", h.getBooking)
				r.Post("/bookings/{id}/status", h.transitionBooking)
				r.Get("/bookings/{id}/history", h.bookingHistory)
				r.Get("/bookings/{id}/folio", h.bookingFolio)
				r.Post("/bookings/{id}/allocate", h.allocateBooking)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleManager, domain.RoleFrontDesk, domain.RoleHousekeeping))
				r.Get("/housekeeping/tasks", h.listTasks)
				r.Post("/housekeeping/tasks", h.createTask)
				r.Get("/housekeeping/tasks/{id}", h.getTask)
				r.Post("/housekeeping/tasks/{id}/assign", h.assignTask)
				r.Post("/housekeeping/tasks/{id}/status", h.transitionTask)
				r.Post("/housekeeping/stayovers", h.generateStayovers)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleManager, domain.RoleFnB))
				r.Get("/pos/outlets", h.listOutlets)
				r.Post("/pos/outlets", h.createOutlet)
				r.Get("/pos/menu", h.listMenu)
				r.Post("/pos/menu", h.createMenuItem)
				r.Post("/pos/orders", h.openOrder)
				r.Get("/pos/orders/{id}", h.getOrder)
				r.Post("/pos/orders/{id}/lines", h.addOrderLine)
				r.Post("/pos/orders/{id}/close", h.closeOrder)
				r.Post("/pos/orders/{id}/void", h.voidOrder)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleManager, domain.RoleFrontDesk))
				r.Get("/events/venues", h.listVenues)
				r.Get("/events/bookings", h.listEvents)
				r.Post("/events/bookings", h.createEvent)
				r.Get("/events/bookings/{id}", h.getEvent)
				r.Post("/events/bookings/{id}/status", h.updateEventStatus)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleManager, domain.RoleHousekeeping, domain.RoleFnB))
				r.Get("/os/inventory", h.listItems)
				r.Post("/os/inventory", h.createItem)
				r.Get("/os/inventory/{id}", h.getItem)
				r.Patch("/os/inventory/{id}", h.updateItem)
				r.Delete("/os/inventory/{id}", h.deleteItem)
				r.Post("/os/inventory/{id}/adjust", h.adjustStock)
				r.Get("/os/inventory/{id}/movements", h.listMovements)
			})
		})
	})
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health(r.Context()); err != nil {
			log.Warn().Err(err).Msg("health check failed")
			writeFail(w, http.StatusServiceUnavailable, "unavailable", nil)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ---- responses ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeOK(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeFail(w http.ResponseWriter, status int, msg string, fields map[string][]string) {
	writeJSON(w, status, envelope{Success: false, Message: msg, Errors: fields})
}

// writeError maps domain errors to status codes; anything unknown is logged and hidden.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := domain.AsValidation(err); ok {
		writeFail(w, http.StatusBadRequest, "validation failed", ve.Fields)
		return
	}
	var pe *domain.PromotionError
	if errors.As(err, &pe) {
		writeFail(w, http.StatusUnprocessableEntity, pe.Error(), map[string][]string{"promoCode": pe.Reasons})
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeFail(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, domain.ErrUnauthorized):
		writeFail(w, http.StatusUnauthorized, "unauthorized", nil)
	case errors.Is(err, domain.ErrForbidden):
		writeFail(w, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrNoAvailability),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInsufficientStock):
		writeFail(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, domain.ErrPromotionRejected):
		writeFail(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeFail(w, http.StatusServiceUnavailable, "request timed out", nil)
	default:
		log.Error().Err(err).Str("route", routePattern(r)).Str("request_id", domain.RequestIDFrom(r.Context())).Msg("request failed")
		writeFail(w, http.StatusInternalServerError, "internal error", nil)
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached answers with a weak ETag and 304 when the client already holds this version.
func writeCached(w http.ResponseWriter, r *http.Request, data any) {
	etag, body := calcETagAndBody(envelope{Success: true, Data: data})
	if body == nil {
		writeFail(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write cached body")
	}
}
