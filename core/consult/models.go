package consult

import (
	"time"

	"github.com/trezcool/blogclass/core"
)

// Slot statuses
const (
	StatusOpen      = "open"
	StatusBooked    = "booked"
	StatusCancelled = "cancelled"
)

// Slot is a consultation time slot offered by a coach.
type Slot struct {
	ID          string     `json:"id"`
	StartsAt    time.Time  `json:"starts_at"` // UTC
	DurationMin int        `json:"duration_min"`
	Coach       string     `json:"coach"`
	Status      string     `json:"status"`
	StudentID   string     `json:"student_id,omitempty"`
	Topic       string     `json:"topic,omitempty"`
	BookedAt    *time.Time `json:"booked_at,omitempty"` // UTC
	CreatedAt   time.Time  `json:"created_at"`          // UTC
}

// Bookable reports whether the slot can be booked at t.
func (s *Slot) Bookable(t time.Time) bool {
	return s.Status == StatusOpen && s.StudentID == "" && s.StartsAt.After(t)
}

// Upcoming reports whether the slot is booked and has not started at t.
func (s *Slot) Upcoming(t time.Time) bool {
	return s.Status == StatusBooked && s.StartsAt.After(t)
}

// NewSlots opens one slot per StartsAt.
type NewSlots struct {
	Coach       string      `json:"coach" validate:"required,notblank,max=100"`
	DurationMin int         `json:"duration_min" validate:"gte=10,lte=240"`
	StartsAt    []time.Time `json:"starts_at" validate:"required,min=1,max=50,dive,required"`
}

func (ns *NewSlots) Clean() {
	ns.Coach = core.CleanString(ns.Coach)
	for i, t := range ns.StartsAt {
		ns.StartsAt[i] = t.UTC()
	}
}

type BookInput struct {
	Topic string `json:"topic" validate:"required,notblank,max=500"`
}

func (in *BookInput) Clean() {
	in.Topic = core.CleanString(in.Topic)
}

type QueryFilter struct {
	Status    string    `query:"status"`
	StudentID string    `query:"student_id"`
	From      time.Time `query:"-"` // "from", parsed by the handler
	To        time.Time `query:"-"` // "to", parsed by the handler
}
