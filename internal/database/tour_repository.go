package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/holidaysplanners/tour-booking-backend/internal/models"
	"github.com/lib/pq"
)

// scanner abstracts *sql.Row and *sql.Rows for single-entity scans
type scanner interface {
	Scan(dest ...interface{}) error
}

const tourColumns = `id, destination, title, description, duration_days, group_size,
		   price, discount, tour_type, departure, seats,
		   active_month_start, active_month_end, departure_date, return_date,
		   backdrop_image, gallery, price_inclusions, price_exclusions,
		   created_at, updated_at`

// TourRepository handles database operations for the tours table
type TourRepository struct {
	db DB
}

// NewTourRepository creates a new TourRepository
func NewTourRepository(db DB) *TourRepository {
	return &TourRepository{db: db}
}

// Create inserts a new tour
func (r *TourRepository) Create(tour *models.Tour) error {
	query := `
		INSERT INTO tours (
			id, destination, title, description, duration_days, group_size,
			price, discount, tour_type, departure, seats,
			active_month_start, active_month_end, departure_date, return_date,
			backdrop_image, gallery, price_inclusions, price_exclusions
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
		)
		RETURNING created_at, updated_at
	`

	if tour.ID == "" {
		tour.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		tour.ID, tour.Destination, tour.Title, tour.Description, tour.DurationDays, tour.GroupSize,
		tour.Price, tour.Discount, tour.TourType, tour.Departure, tour.Seats,
		tour.ActiveMonthStart, tour.ActiveMonthEnd, tour.DepartureDate, tour.ReturnDate,
		tour.BackdropImage, tour.Gallery, tour.PriceInclusions, tour.PriceExclusions,
	).Scan(&tour.CreatedAt, &tour.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create tour: %w", err)
	}

	return nil
}

// GetByID retrieves a tour by ID
func (r *TourRepository) GetByID(tourID string) (*models.Tour, error) {
	query := fmt.Sprintf(`SELECT %s FROM tours WHERE id = $1`, tourColumns)

	tour, err := r.scanTour(r.db.QueryRow(query, tourID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("tour with ID %s: %w", tourID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch tour: %w", err)
	}

	return tour, nil
}

// ListPage retrieves a slice of tours in creation order. Offset pagination is
// not isolated from concurrent writes: successive pages fetched while rows
// are inserted or deleted may skip or repeat entries.
func (r *TourRepository) ListPage(limit, offset int) ([]models.Tour, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tours
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`, tourColumns)

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}
	defer rows.Close()

	tours := []models.Tour{}
	for rows.Next() {
		tour, err := r.scanTour(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tour: %w", err)
		}
		tours = append(tours, *tour)
	}

	return tours, rows.Err()
}

// Count returns the total number of tours
func (r *TourRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM tours`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tours: %w", err)
	}
	return count, nil
}

// Replace overwrites the whole document with the given tour. Fields absent
// from the input land as their zero values.
func (r *TourRepository) Replace(tourID string, tour *models.Tour) (*models.Tour, error) {
	query := fmt.Sprintf(`
		UPDATE tours
		SET destination = $2, title = $3, description = $4, duration_days = $5,
			group_size = $6, price = $7, discount = $8, tour_type = $9,
			departure = $10, seats = $11, active_month_start = $12,
			active_month_end = $13, departure_date = $14, return_date = $15,
			backdrop_image = $16, gallery = $17, price_inclusions = $18,
			price_exclusions = $19, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, tourColumns)

	updated, err := r.scanTour(r.db.QueryRow(
		query,
		tourID, tour.Destination, tour.Title, tour.Description, tour.DurationDays,
		tour.GroupSize, tour.Price, tour.Discount, tour.TourType,
		tour.Departure, tour.Seats, tour.ActiveMonthStart,
		tour.ActiveMonthEnd, tour.DepartureDate, tour.ReturnDate,
		tour.BackdropImage, tour.Gallery, tour.PriceInclusions, tour.PriceExclusions,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("tour with ID %s: %w", tourID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to replace tour: %w", err)
	}

	return updated, nil
}

// Patch overwrites only the fields present in the patch
func (r *TourRepository) Patch(tourID string, patch *models.TourPatch) error {
	set := []string{}
	args := []interface{}{tourID}

	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Destination != nil {
		add("destination", *patch.Destination)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.DurationDays != nil {
		add("duration_days", *patch.DurationDays)
	}
	if patch.GroupSize != nil {
		add("group_size", *patch.GroupSize)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Discount != nil {
		add("discount", *patch.Discount)
	}
	if patch.TourType != nil {
		add("tour_type", *patch.TourType)
	}
	if patch.Departure != nil {
		add("departure", *patch.Departure)
	}
	if patch.Seats != nil {
		add("seats", *patch.Seats)
	}
	if patch.ActiveMonthStart != nil {
		add("active_month_start", *patch.ActiveMonthStart)
	}
	if patch.ActiveMonthEnd != nil {
		add("active_month_end", *patch.ActiveMonthEnd)
	}
	if patch.DepartureDate != nil {
		add("departure_date", *patch.DepartureDate)
	}
	if patch.ReturnDate != nil {
		add("return_date", *patch.ReturnDate)
	}
	if patch.BackdropImage != nil {
		add("backdrop_image", *patch.BackdropImage)
	}
	if patch.Gallery != nil {
		add("gallery", pq.StringArray(*patch.Gallery))
	}
	if patch.PriceInclusions != nil {
		add("price_inclusions", pq.StringArray(*patch.PriceInclusions))
	}
	if patch.PriceExclusions != nil {
		add("price_exclusions", pq.StringArray(*patch.PriceExclusions))
	}

	if len(set) == 0 {
		return nil
	}

	set = append(set, "updated_at = NOW()")
	query := fmt.Sprintf(`UPDATE tours SET %s WHERE id = $1`, strings.Join(set, ", "))

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to patch tour: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to patch tour: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("tour with ID %s: %w", tourID, ErrNotFound)
	}

	return nil
}

// Delete removes a tour and returns the deleted row as confirmation
func (r *TourRepository) Delete(tourID string) (*models.Tour, error) {
	query := fmt.Sprintf(`DELETE FROM tours WHERE id = $1 RETURNING %s`, tourColumns)

	tour, err := r.scanTour(r.db.QueryRow(query, tourID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("tour with ID %s: %w", tourID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete tour: %w", err)
	}

	return tour, nil
}

// scanTour scans a single tour row
func (r *TourRepository) scanTour(row scanner) (*models.Tour, error) {
	tour := &models.Tour{}

	err := row.Scan(
		&tour.ID, &tour.Destination, &tour.Title, &tour.Description, &tour.DurationDays,
		&tour.GroupSize, &tour.Price, &tour.Discount, &tour.TourType,
		&tour.Departure, &tour.Seats, &tour.ActiveMonthStart, &tour.ActiveMonthEnd,
		&tour.DepartureDate, &tour.ReturnDate, &tour.BackdropImage,
		&tour.Gallery, &tour.PriceInclusions, &tour.PriceExclusions,
		&tour.CreatedAt, &tour.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return tour, nil
}
