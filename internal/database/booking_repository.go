package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/holidaysplanners/tour-booking-backend/internal/models"
)

const bookingColumns = `id, tour_id, user_id, number_of_tickets, is_played,
		   payment_method, status, created_at, updated_at`

// BookingRepository handles database operations for the bookings table
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a new booking
func (r *BookingRepository) Create(booking *models.Booking) error {
	query := `
		INSERT INTO bookings (
			id, tour_id, user_id, number_of_tickets, is_played, payment_method, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		RETURNING created_at, updated_at
	`

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if booking.Status == "" {
		booking.Status = models.BookingStatusRequested
	}

	err := r.db.QueryRow(
		query,
		booking.ID, booking.TourID, booking.UserID, booking.NumberOfTickets,
		booking.IsPlayed, booking.PaymentMethod, booking.Status,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(bookingID string) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)

	booking, err := r.scanBooking(r.db.QueryRow(query, bookingID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("booking with ID %s: %w", bookingID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}

	return booking, nil
}

// ListPage retrieves a slice of bookings in creation order. Offset pagination
// is not isolated from concurrent writes: successive pages fetched while rows
// are inserted or deleted may skip or repeat entries.
func (r *BookingRepository) ListPage(limit, offset int) ([]models.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bookings
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`, bookingColumns)

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *booking)
	}

	return bookings, rows.Err()
}

// Count returns the total number of bookings
func (r *BookingRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM bookings`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// CountTicketsForTour returns the number of tickets already claimed on active
// bookings for a tour
func (r *BookingRepository) CountTicketsForTour(tourID string) (int, error) {
	query := `
		SELECT COALESCE(SUM(number_of_tickets), 0)
		FROM bookings
		WHERE tour_id = $1
		  AND status != 'cancelled'
	`

	var total int
	err := r.db.QueryRow(query, tourID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count booked tickets: %w", err)
	}
	return total, nil
}

// Replace overwrites the whole document with the given booking. Fields absent
// from the input land as their zero values: an omitted payment_method becomes
// null, an omitted is_played false.
func (r *BookingRepository) Replace(bookingID string, booking *models.Booking) (*models.Booking, error) {
	query := fmt.Sprintf(`
		UPDATE bookings
		SET tour_id = $2, user_id = $3, number_of_tickets = $4, is_played = $5,
			payment_method = $6, status = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, bookingColumns)

	status := booking.Status
	if status == "" {
		status = models.BookingStatusConfirmed
	}
	if booking.IsPlayed {
		status = models.BookingStatusPlayed
	}

	updated, err := r.scanBooking(r.db.QueryRow(
		query,
		bookingID, booking.TourID, booking.UserID, booking.NumberOfTickets,
		booking.IsPlayed, booking.PaymentMethod, status,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("booking with ID %s: %w", bookingID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to replace booking: %w", err)
	}

	return updated, nil
}

// Patch overwrites only the fields present in the patch. Setting is_played
// true also advances the status to played.
func (r *BookingRepository) Patch(bookingID string, patch *models.BookingPatch) error {
	set := []string{}
	args := []interface{}{bookingID}

	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.TourID != nil {
		add("tour_id", *patch.TourID)
	}
	if patch.UserID != nil {
		add("user_id", *patch.UserID)
	}
	if patch.NumberOfTickets != nil {
		add("number_of_tickets", *patch.NumberOfTickets)
	}
	if patch.IsPlayed != nil {
		add("is_played", *patch.IsPlayed)
		if *patch.IsPlayed {
			add("status", models.BookingStatusPlayed)
		}
	}
	if patch.PaymentMethod != nil {
		add("payment_method", *patch.PaymentMethod)
	}

	if len(set) == 0 {
		return nil
	}

	set = append(set, "updated_at = NOW()")
	query := fmt.Sprintf(`UPDATE bookings SET %s WHERE id = $1`, strings.Join(set, ", "))

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to patch booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to patch booking: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("booking with ID %s: %w", bookingID, ErrNotFound)
	}

	return nil
}

// Delete removes a booking and returns the deleted row as confirmation
func (r *BookingRepository) Delete(bookingID string) (*models.Booking, error) {
	query := fmt.Sprintf(`DELETE FROM bookings WHERE id = $1 RETURNING %s`, bookingColumns)

	booking, err := r.scanBooking(r.db.QueryRow(query, bookingID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("booking with ID %s: %w", bookingID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete booking: %w", err)
	}

	return booking, nil
}

// MarkPlayedForDepartedTours marks confirmed bookings whose tour has already
// departed as played. Returns the number of bookings updated.
func (r *BookingRepository) MarkPlayedForDepartedTours(now time.Time) (int64, error) {
	query := `
		UPDATE bookings b
		SET is_played = TRUE, status = 'played', updated_at = NOW()
		FROM tours t
		WHERE b.tour_id = t.id
		  AND b.status = 'confirmed'
		  AND t.departure_date < $1
	`

	result, err := r.db.Exec(query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark departed bookings played: %w", err)
	}

	return result.RowsAffected()
}

// scanBooking scans a single booking row
func (r *BookingRepository) scanBooking(row scanner) (*models.Booking, error) {
	booking := &models.Booking{}
	var paymentMethod sql.NullString

	err := row.Scan(
		&booking.ID, &booking.TourID, &booking.UserID, &booking.NumberOfTickets,
		&booking.IsPlayed, &paymentMethod, &booking.Status,
		&booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if paymentMethod.Valid {
		booking.PaymentMethod = &paymentMethod.String
	}

	return booking, nil
}
