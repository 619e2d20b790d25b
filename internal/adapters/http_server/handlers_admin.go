package httpserver

import (
	"net/http"

	"github.com/shopspring/decimal"

	"hotel_pms/internal/domain"
)

// ---- inventory ----

type createItemRequest struct {
	SKU          string          `json:"sku" validate:"required,max=64"`
	Name         string          `json:"name" validate:"required,max=200"`
	Category     string          `json:"category" validate:"omitempty,max=100"`
	Unit         string          `json:"unit" validate:"omitempty,max=20"`
	Quantity     int             `json:"quantity" validate:"gte=0"`
	ReorderLevel int             `json:"reorderLevel" validate:"gte=0"`
	UnitCost     decimal.Decimal `json:"unitCost"`
}

func (h *Handlers) createItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	it, err := h.Inventory.CreateItem(r.Context(), domain.InventoryItem{
		SKU:          req.SKU,
		Name:         req.Name,
		Category:     req.Category,
		Unit:         req.Unit,
		Quantity:     req.Quantity,
		ReorderLevel: req.ReorderLevel,
		UnitCost:     req.UnitCost,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, it)
}

func (h *Handlers) listItems(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := domain.ItemFilter{Category: q.str("category"), LowStock: q.bool("lowStock")}
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.Inventory.ListItems(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, items)
}

func (h *Handlers) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	it, err := h.Inventory.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, it)
}

func (h *Handlers) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p domain.ItemPatch
	if err := decode(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	it, err := h.Inventory.UpdateItem(r.Context(), id, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, it)
}

func (h *Handlers) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Inventory.DeleteItem(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adjustStockRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required,max=200"`
}

func (h *Handlers) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req adjustStockRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	it, err := h.Inventory.AdjustStock(r.Context(), id, req.Delta, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, it)
}

func (h *Handlers) listMovements(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := newQuery(r)
	limit := q.int("limit", 50)
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	ms, err := h.Inventory.ListMovements(r.Context(), id, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, ms)
}

// ---- analytics ----

func (h *Handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	propertyID := q.int64("propertyId", true)
	from, to := q.date("from", true), q.date("to", true)
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.Analytics.Dashboard(r.Context(), propertyID, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, d)
}

// ---- staff auth ----

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	token, u, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, loginResponse{Token: token, User: u})
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=200"`
	Role     string `json:"role" validate:"required,oneof=admin manager front_desk housekeeping fnb"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (h *Handlers) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.Auth.CreateUser(r.Context(), req.Email, req.Name, domain.Role(req.Role), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, u)
}
