package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"hotel_pms/internal/domain"
	"hotel_pms/internal/validation"
)

const maxBody = 1 << 20

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "len":
		return "must have length " + fe.Param()
	case "date":
		return "must be a date (YYYY-MM-DD)"
	case "clock":
		return "must be a time (HH:MM)"
	}
	return "failed " + fe.Tag()
}

// check runs struct validation and converts failures into a domain.ValidationError.
func check(v any) error {
	err := validation.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := domain.NewValidationError()
	for _, fe := range ves {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		out.Add(ns, message(fe))
	}
	return out
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		ve := domain.NewValidationError()
		var ute *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			ve.Add("body", "required")
		case errors.As(err, &ute):
			ve.Add(ute.Field, "has the wrong type")
		default:
			ve.Add("body", "invalid JSON: "+err.Error())
		}
		return ve
	}
	return check(dst)
}

// ---- path and query helpers ----

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		ve := domain.NewValidationError()
		ve.Add(name, "must be a positive integer")
		return 0, ve
	}
	return id, nil
}

// query collects typed query parameters and their errors.
type query struct {
	r  *http.Request
	ve *domain.ValidationError
}

func newQuery(r *http.Request) *query { return &query{r: r, ve: domain.NewValidationError()} }

func (q *query) str(k string) string { return strings.TrimSpace(q.r.URL.Query().Get(k)) }

func (q *query) int64(k string, required bool) int64 {
	s := q.str(k)
	if s == "" {
		if required {
			q.ve.Add(k, "required")
		}
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		q.ve.Add(k, "must be a non-negative integer")
	}
	return n
}

func (q *query) int(k string, def int) int {
	s := q.str(k)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		q.ve.Add(k, "must be an integer")
		return def
	}
	return n
}

func (q *query) intPtr(k string) *int {
	if q.str(k) == "" {
		return nil
	}
	n := q.int(k, 0)
	return &n
}

func (q *query) date(k string, required bool) time.Time {
	s := q.str(k)
	if s == "" {
		if required {
			q.ve.Add(k, "required")
		}
		return time.Time{}
	}
	d, err := domain.ParseDay(s)
	if err != nil {
		q.ve.Add(k, "must be a date (YYYY-MM-DD)")
	}
	return d
}

func (q *query) datePtr(k string) *time.Time {
	if q.str(k) == "" {
		return nil
	}
	d := q.date(k, false)
	return &d
}

func (q *query) bool(k string) bool {
	s := q.str(k)
	if s == "" {
		return false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		q.ve.Add(k, "must be true or false")
	}
	return b
}

func (q *query) err() error { return q.ve.OrNil() }

func parseDate(field, s string, ve *domain.ValidationError) time.Time {
	d, err := domain.ParseDay(s)
	if err != nil {
		ve.Add(field, fmt.Sprintf("must be a date (YYYY-MM-DD), got %q", s))
	}
	return d
}
