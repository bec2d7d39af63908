package models

import (
	"errors"
	"time"
)

// BookingStatus represents the explicit lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusRequested BookingStatus = "requested"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPlayed    BookingStatus = "played"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking represents a user's claim on tickets for a tour
type Booking struct {
	ID              string        `json:"id" db:"id"`
	TourID          string        `json:"tour_id" db:"tour_id"`
	UserID          string        `json:"user_id" db:"user_id"`
	NumberOfTickets int           `json:"number_of_tickets" db:"number_of_tickets"`
	IsPlayed        bool          `json:"is_played" db:"is_played"`
	PaymentMethod   *string       `json:"payment_method,omitempty" db:"payment_method"`
	Status          BookingStatus `json:"status" db:"status"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// CreateBookingRequest represents the book-tour request body
type CreateBookingRequest struct {
	TourID          string  `json:"tour_id" binding:"required"`
	UserID          string  `json:"user_id" binding:"required"`
	NumberOfTickets int     `json:"number_of_tickets" binding:"required"`
	PaymentMethod   *string `json:"payment_method,omitempty"`
}

// Validate validates the create booking request
func (r *CreateBookingRequest) Validate() error {
	if r.NumberOfTickets <= 0 {
		return errors.New("number_of_tickets must be at least 1")
	}

	return nil
}

// BookingDocument is the full booking payload accepted by replace. Fields the
// client omits are dropped: payment_method becomes null, is_played false.
type BookingDocument struct {
	TourID          string  `json:"tour_id" binding:"required"`
	UserID          string  `json:"user_id" binding:"required"`
	NumberOfTickets int     `json:"number_of_tickets"`
	IsPlayed        bool    `json:"is_played"`
	PaymentMethod   *string `json:"payment_method,omitempty"`
}

// Validate validates the booking document
func (d *BookingDocument) Validate() error {
	if d.NumberOfTickets <= 0 {
		return errors.New("number_of_tickets must be at least 1")
	}

	return nil
}

// BookingPatch carries a partial booking update. Only non-nil fields are
// written; everything else is preserved.
type BookingPatch struct {
	TourID          *string `json:"tour_id,omitempty"`
	UserID          *string `json:"user_id,omitempty"`
	NumberOfTickets *int    `json:"number_of_tickets,omitempty"`
	IsPlayed        *bool   `json:"is_played,omitempty"`
	PaymentMethod   *string `json:"payment_method,omitempty"`
}

// Validate checks the invariants of the fields the patch carries
func (p *BookingPatch) Validate() error {
	if p.NumberOfTickets != nil && *p.NumberOfTickets <= 0 {
		return errors.New("number_of_tickets must be at least 1")
	}

	return nil
}

// IsEmpty reports whether the patch carries no fields at all
func (p *BookingPatch) IsEmpty() bool {
	return p.TourID == nil && p.UserID == nil && p.NumberOfTickets == nil &&
		p.IsPlayed == nil && p.PaymentMethod == nil
}
