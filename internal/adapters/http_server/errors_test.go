package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"hotel_pms/internal/domain"
)

func TestWriteError_StatusMapping(t *testing.T) {
	ve := domain.NewValidationError()
	ve.Add("checkOut", "must be after checkIn")

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("create: %w", ve), http.StatusBadRequest},
		{"not found", fmt.Errorf("room 4: %w", domain.ErrNotFound), http.StatusNotFound},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"conflict", domain.ErrConflict, http.StatusConflict},
		{"sold out", domain.ErrNoAvailability, http.StatusConflict},
		{"transition", fmt.Errorf("%w: checked_out -> confirmed", domain.ErrInvalidTransition), http.StatusConflict},
		{"stock", domain.ErrInsufficientStock, http.StatusConflict},
		{"promotion", &domain.PromotionError{Code: "X", Reasons: []string{"expired"}}, http.StatusUnprocessableEntity},
		{"timeout", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, httptest.NewRequest("GET", "/x", nil), tc.err)
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
			var e envelope
			if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
				t.Fatal(err)
			}
			if e.Success {
				t.Fatalf("success must be false")
			}
		})
	}
}

func TestWriteError_DetailsInBody(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, httptest.NewRequest("POST", "/api/bookings", nil),
		&domain.PromotionError{Code: "SUMMER", Reasons: []string{"minimum stay is 3 nights", "code has expired"}})
	var e envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
		t.Fatal(err)
	}
	if got := e.Errors["promoCode"]; len(got) != 2 {
		t.Fatalf("expected both reasons, got %v", got)
	}

	rr = httptest.NewRecorder()
	writeError(rr, httptest.NewRequest("GET", "/x", nil), errors.New("dial tcp 10.0.0.5:3306: refused"))
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
		t.Fatal(err)
	}
	if e.Message != "internal error" {
		t.Fatalf("internal details leaked: %q", e.Message)
	}
}

func TestCalcETagAndBody_Stable(t *testing.T) {
	a, bodyA := calcETagAndBody(map[string]int{"a": 1, "b": 2})
	b, _ := calcETagAndBody(map[string]int{"b": 2, "a": 1})
	c, _ := calcETagAndBody(map[string]int{"a": 1, "b": 3})
	if a != b {
		t.Fatalf("same content, different etags: %s %s", a, b)
	}
	if a == c {
		t.Fatalf("different content, same etag")
	}
	if len(bodyA) == 0 {
		t.Fatalf("empty body")
	}
}
