package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrNoAvailability    = errors.New("no availability for the requested dates")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPromotionRejected = errors.New("promotion rejected")
)

// ValidationError collects messages per input field.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

func (v *ValidationError) Add(field, msg string) {
	v.Fields[field] = append(v.Fields[field], msg)
}

func (v *ValidationError) Empty() bool { return len(v.Fields) == 0 }

// OrNil returns v as an error, or nil when nothing was collected.
func (v *ValidationError) OrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// PromotionError carries every reason a promotion code was refused.
type PromotionError struct {
	Code    string
	Reasons []string
}

func (e *PromotionError) Error() string {
	return fmt.Sprintf("promotion %q rejected: %s", e.Code, strings.Join(e.Reasons, "; "))
}

func (e *PromotionError) Unwrap() error { return ErrPromotionRejected }
