package models

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Tour represents a bookable travel product in the catalog
type Tour struct {
	ID               string         `json:"id" db:"id"`
	Destination      string         `json:"destination" db:"destination"`
	Title            string         `json:"title" db:"title"`
	Description      string         `json:"description" db:"description"`
	DurationDays     int            `json:"duration_days" db:"duration_days"`
	GroupSize        int            `json:"group_size" db:"group_size"`
	Price            float64        `json:"price" db:"price"`
	Discount         float64        `json:"discount" db:"discount"`
	TourType         string         `json:"tour_type" db:"tour_type"`
	Departure        string         `json:"departure" db:"departure"`
	Seats            int            `json:"seats" db:"seats"`
	ActiveMonthStart int            `json:"active_month_start" db:"active_month_start"`
	ActiveMonthEnd   int            `json:"active_month_end" db:"active_month_end"`
	DepartureDate    time.Time      `json:"departure_date" db:"departure_date"`
	ReturnDate       time.Time      `json:"return_date" db:"return_date"`
	BackdropImage    string         `json:"backdrop_image" db:"backdrop_image"`
	Gallery          pq.StringArray `json:"gallery" db:"gallery"`
	PriceInclusions  pq.StringArray `json:"price_inclusions" db:"price_inclusions"`
	PriceExclusions  pq.StringArray `json:"price_exclusions" db:"price_exclusions"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// TourDocument is the full tour payload accepted by create and replace.
// Fields omitted by the client are stored as their zero values: replace
// drops whatever the document does not carry.
type TourDocument struct {
	Destination      string    `json:"destination" binding:"required"`
	Title            string    `json:"title" binding:"required"`
	Description      string    `json:"description"`
	DurationDays     int       `json:"duration_days"`
	GroupSize        int       `json:"group_size"`
	Price            float64   `json:"price"`
	Discount         float64   `json:"discount"`
	TourType         string    `json:"tour_type"`
	Departure        string    `json:"departure"`
	Seats            int       `json:"seats"`
	ActiveMonthStart int       `json:"active_month_start"`
	ActiveMonthEnd   int       `json:"active_month_end"`
	DepartureDate    time.Time `json:"departure_date"`
	ReturnDate       time.Time `json:"return_date"`
	BackdropImage    string    `json:"backdrop_image"`
	Gallery          []string  `json:"gallery"`
	PriceInclusions  []string  `json:"price_inclusions"`
	PriceExclusions  []string  `json:"price_exclusions"`
}

// Validate checks the tour document invariants
func (d *TourDocument) Validate() error {
	if d.Seats < 0 {
		return errors.New("seats must not be negative")
	}

	if d.Price < 0 {
		return errors.New("price must not be negative")
	}

	if d.Discount < 0 {
		return errors.New("discount must not be negative")
	}

	if d.ActiveMonthStart != 0 && (d.ActiveMonthStart < 1 || d.ActiveMonthStart > 12) {
		return errors.New("active_month_start must be between 1 and 12")
	}

	if d.ActiveMonthEnd != 0 && (d.ActiveMonthEnd < 1 || d.ActiveMonthEnd > 12) {
		return errors.New("active_month_end must be between 1 and 12")
	}

	return nil
}

// ToTour converts the document into a Tour entity
func (d *TourDocument) ToTour() *Tour {
	return &Tour{
		Destination:      d.Destination,
		Title:            d.Title,
		Description:      d.Description,
		DurationDays:     d.DurationDays,
		GroupSize:        d.GroupSize,
		Price:            d.Price,
		Discount:         d.Discount,
		TourType:         d.TourType,
		Departure:        d.Departure,
		Seats:            d.Seats,
		ActiveMonthStart: d.ActiveMonthStart,
		ActiveMonthEnd:   d.ActiveMonthEnd,
		DepartureDate:    d.DepartureDate,
		ReturnDate:       d.ReturnDate,
		BackdropImage:    d.BackdropImage,
		Gallery:          pq.StringArray(d.Gallery),
		PriceInclusions:  pq.StringArray(d.PriceInclusions),
		PriceExclusions:  pq.StringArray(d.PriceExclusions),
	}
}

// TourPatch carries a partial tour update. Only non-nil fields are written;
// everything else is preserved.
type TourPatch struct {
	Destination      *string    `json:"destination,omitempty"`
	Title            *string    `json:"title,omitempty"`
	Description      *string    `json:"description,omitempty"`
	DurationDays     *int       `json:"duration_days,omitempty"`
	GroupSize        *int       `json:"group_size,omitempty"`
	Price            *float64   `json:"price,omitempty"`
	Discount         *float64   `json:"discount,omitempty"`
	TourType         *string    `json:"tour_type,omitempty"`
	Departure        *string    `json:"departure,omitempty"`
	Seats            *int       `json:"seats,omitempty"`
	ActiveMonthStart *int       `json:"active_month_start,omitempty"`
	ActiveMonthEnd   *int       `json:"active_month_end,omitempty"`
	DepartureDate    *time.Time `json:"departure_date,omitempty"`
	ReturnDate       *time.Time `json:"return_date,omitempty"`
	BackdropImage    *string    `json:"backdrop_image,omitempty"`
	Gallery          *[]string  `json:"gallery,omitempty"`
	PriceInclusions  *[]string  `json:"price_inclusions,omitempty"`
	PriceExclusions  *[]string  `json:"price_exclusions,omitempty"`
}

// Validate checks the invariants of the fields the patch carries
func (p *TourPatch) Validate() error {
	if p.Seats != nil && *p.Seats < 0 {
		return errors.New("seats must not be negative")
	}

	if p.Price != nil && *p.Price < 0 {
		return errors.New("price must not be negative")
	}

	if p.Discount != nil && *p.Discount < 0 {
		return errors.New("discount must not be negative")
	}

	return nil
}

// IsEmpty reports whether the patch carries no fields at all
func (p *TourPatch) IsEmpty() bool {
	return p.Destination == nil && p.Title == nil && p.Description == nil &&
		p.DurationDays == nil && p.GroupSize == nil && p.Price == nil &&
		p.Discount == nil && p.TourType == nil && p.Departure == nil &&
		p.Seats == nil && p.ActiveMonthStart == nil && p.ActiveMonthEnd == nil &&
		p.DepartureDate == nil && p.ReturnDate == nil && p.BackdropImage == nil &&
		p.Gallery == nil && p.PriceInclusions == nil && p.PriceExclusions == nil
}
