// Package model defines the core domain types for seminar events and the
// registrations booked against them.
package model

import (
	"errors"
	"time"
)

// ErrNegativeCount is returned when a seat counter on an event is below zero.
var ErrNegativeCount = errors.New("registration counts must not be negative")

// ErrInvalidSeats is returned when a registration books fewer than one seat.
var ErrInvalidSeats = errors.New("a registration must book at least one seat")

// Record carries the host-level fields every stored record has.
// Title is the internal title for events.
type Record struct {
	UID     int64
	Title   string
	Hidden  bool
	Created time.Time
	Changed time.Time
}

// User is the front-end user a registration was booked for.
type User struct {
	UID   int64
	Name  string
	Email string
}

// Ref points at an associated record (venue, speaker, organizer) by uid and
// carries its title for display.
type Ref struct {
	UID   int64
	Title string
}

// PaymentMethod is a payment option offered for an event.
type PaymentMethod struct {
	UID   int64
	Title string
}

// Category groups events for listing purposes.
type Category struct {
	UID   int64
	Title string
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}
