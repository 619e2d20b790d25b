package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Venue struct {
	ID         int64           `json:"id"`
	PropertyID int64           `json:"propertyId"`
	Name       string          `json:"name"`
	Capacity   int             `json:"capacity"`
	HourlyRate decimal.Decimal `json:"hourlyRate"`
}

type EventStatus string

const (
	EventTentative EventStatus = "tentative"
	EventConfirmed EventStatus = "confirmed"
	EventCancelled EventStatus = "cancelled"
)

var eventTransitions = map[EventStatus][]EventStatus{
	EventTentative: {EventConfirmed, EventCancelled},
	EventConfirmed: {EventCancelled},
	EventCancelled: {},
}

func (s EventStatus) CanTransition(to EventStatus) bool {
	for _, n := range eventTransitions[s] {
		if n == to {
			return true
		}
	}
	return false
}

// ClockTime is a wall-clock time of day in minutes since midnight.
type ClockTime int

func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60) }

func (c ClockTime) MarshalJSON() ([]byte, error) { return []byte(`"` + c.String() + `"`), nil }

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	v, err := ParseClock(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

type Organizer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type EventBooking struct {
	ID             int64           `json:"id"`
	VenueID        int64           `json:"venueId"`
	Title          string          `json:"title"`
	Organizer      Organizer       `json:"organizer"`
	Date           time.Time       `json:"date"`
	Start          ClockTime       `json:"start"`
	End            ClockTime       `json:"end"`
	Attendees      int             `json:"attendees"`
	Status         EventStatus     `json:"status"`
	PackagePerHead decimal.Decimal `json:"packagePerHead"`
	Total          decimal.Decimal `json:"total"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Hours is the booked duration in hours.
func (e EventBooking) Hours() decimal.Decimal {
	return decimal.NewFromInt(int64(e.End - e.Start)).Div(decimal.NewFromInt(60))
}

// Clashes reports whether two events on the same venue and date overlap in time.
func (e EventBooking) Clashes(o EventBooking) bool {
	return e.VenueID == o.VenueID && e.Date.Equal(o.Date) && e.Start < o.End && o.Start < e.End
}

type EventFilter struct {
	VenueID int64
	From    *time.Time
	To      *time.Time
	Status  EventStatus
}
