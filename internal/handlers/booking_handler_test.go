package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holidaysplanners/tour-booking-backend/internal/database"
	"github.com/holidaysplanners/tour-booking-backend/internal/models"
	"github.com/holidaysplanners/tour-booking-backend/pkg/payment"
)

// testDB adapts *sql.DB to the database.DB interface for handler tests
type testDB struct {
	db *sql.DB
}

func (m *testDB) Get(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Get not implemented in test double")
}

func (m *testDB) Select(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Select not implemented in test double")
}

func (m *testDB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *testDB) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *testDB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *testDB) Close() error { return m.db.Close() }
func (m *testDB) Ping() error  { return m.db.Ping() }

// setupTestDB creates a mock database for testing
func setupTestDB(t *testing.T) (database.DB, sqlmock.Sqlmock, func()) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	return &testDB{db: mockDB}, mock, func() { mockDB.Close() }
}

// recordingMailer captures notification sends so tests can wait for the
// detached goroutine
type recordingMailer struct {
	sent       chan string
	resetSent  chan string
	resetToken string
	err        error
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{
		sent:      make(chan string, 1),
		resetSent: make(chan string, 1),
	}
}

func (m *recordingMailer) SendBookingReceived(email, displayName string) error {
	m.sent <- email
	return m.err
}

func (m *recordingMailer) SendPasswordReset(email, displayName, resetToken string) error {
	m.resetToken = resetToken
	m.resetSent <- email
	return m.err
}

// fakePaymentProvider returns a canned session without touching any gateway
type fakePaymentProvider struct {
	session *payment.CheckoutSession
	err     error

	gotBookingID string
	gotTourID    string
}

func (p *fakePaymentProvider) CreateCheckoutSession(booking *models.Booking, tour *models.Tour) (*payment.CheckoutSession, error) {
	p.gotBookingID = booking.ID
	p.gotTourID = tour.ID
	if p.err != nil {
		return nil, p.err
	}
	return p.session, nil
}

var testTourColumns = []string{
	"id", "destination", "title", "description", "duration_days", "group_size",
	"price", "discount", "tour_type", "departure", "seats",
	"active_month_start", "active_month_end", "departure_date", "return_date",
	"backdrop_image", "gallery", "price_inclusions", "price_exclusions",
	"created_at", "updated_at",
}

func testTourRows(tourID string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(testTourColumns).AddRow(
		tourID, "Kigali", "Gorilla Trek", "A wildlife adventure", 5, 12,
		100.0, 10.0, "adventure", "Downtown office", 10,
		6, 9, now.Add(72*time.Hour), now.Add(144*time.Hour),
		"backdrop.jpg", []byte(`{img1.jpg}`), []byte(`{meals}`), []byte(`{flights}`),
		now, now,
	)
}

var testUserColumns = []string{
	"id", "email", "password_hash", "first_name", "last_name", "role", "created_at", "updated_at",
}

func testUserRows(userID string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(testUserColumns).
		AddRow(userID, "traveler@example.com", "$2a$10$hash", "Alex", "Traveler", "user", now, now)
}

var testBookingColumns = []string{
	"id", "tour_id", "user_id", "number_of_tickets", "is_played",
	"payment_method", "status", "created_at", "updated_at",
}

func testBookingRows(bookingID, tourID, userID string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(testBookingColumns).
		AddRow(bookingID, tourID, userID, 2, false, "card", "confirmed", now, now)
}

func newBookingTestHandler(db database.DB, bookingMailer *recordingMailer, payments payment.Provider) *BookingHandler {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	return NewBookingHandler(
		database.NewBookingRepository(db),
		database.NewTourRepository(db),
		database.NewUserRepository(db),
		bookingMailer,
		payments,
		logger,
		false,
	)
}

func jsonContext(t *testing.T, method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	c.Request = httptest.NewRequest(method, target, &buf)
	c.Request.Header.Set("Content-Type", "application/json")

	return c, w
}

func TestBookTour(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock, closeDB := setupTestDB(t)
		defer closeDB()

		bookingMailer := newRecordingMailer()
		handler := newBookingTestHandler(db, bookingMailer, nil)

		tourID := uuid.New().String()
		userID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`FROM tours WHERE id = \$1`).
			WithArgs(tourID).
			WillReturnRows(testTourRows(tourID))
		mock.ExpectQuery(`FROM users WHERE id = \$1`).
			WithArgs(userID).
			WillReturnRows(testUserRows(userID))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		c, w := jsonContext(t, http.MethodPost, "/api/v1/bookings", gin.H{
			"tour_id":           tourID,
			"user_id":           userID,
			"number_of_tickets": 2,
		})

		handler.BookTour(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response struct {
			Message string         `json:"message"`
			Booking models.Booking `json:"booking"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "A tour booked successfully", response.Message)
		assert.Equal(t, tourID, response.Booking.TourID)
		assert.Equal(t, models.BookingStatusConfirmed, response.Booking.Status)
		assert.NotEmpty(t, response.Booking.ID)

		// The notification goroutine runs after the response is written
		select {
		case email := <-bookingMailer.sent:
			assert.Equal(t, "traveler@example.com", email)
		case <-time.After(2 * time.Second):
			t.Fatal("expected a booking notification to be attempted")
		}

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Mail Failure Does Not Affect Response", func(t *testing.T) {
		db, mock, closeDB := setupTestDB(t)
		defer closeDB()

		bookingMailer := newRecordingMailer()
		bookingMailer.err = fmt.Errorf("smtp unreachable")
		handler := newBookingTestHandler(db, bookingMailer, nil)

		tourID := uuid.New().String()
		userID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`FROM tours WHERE id = \$1`).
			WithArgs(tourID).
			WillReturnRows(testTourRows(tourID))
		mock.ExpectQuery(`FROM users WHERE id = \$1`).
			WithArgs(userID).
			WillReturnRows(testUserRows(userID))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		c, w := jsonContext(t, http.MethodPost, "/api/v1/bookings", gin.H{
			"tour_id":           tourID,
			"user_id":           userID,
			"number_of_tickets": 1,
		})

		handler.BookTour(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		select {
		case <-bookingMailer.sent:
		case <-time.After(2 * time.Second):
			t.Fatal("expected a booking notification to be attempted")
		}

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Tour Not Found", func(t *testing.T) {
		db, mock, closeDB := setupTestDB(t)
		defer closeDB()

		bookingMailer := newRecordingMailer()
		handler := newBookingTestHandler(db, bookingMailer, nil)

		tourID := uuid.New().String()

		mock.ExpectQuery(`FROM tours WHERE id = \$1`).
			WithArgs(tourID).
			WillReturnError(sql.ErrNoRows)

		c, w := jsonContext(t, http.MethodPost, "/api/v1/bookings", gin.H{
			"tour_id":           tourID,
			"user_id":           uuid.New().String(),
			"number_of_tickets": 2,
		})

		handler.BookTour(c)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Contains(t, body["message"], "not found")
		assert.Equal(t, float64(http.StatusNotFound), body["statusCode"])

		select {
		case <-bookingMailer.sent:
			t.Fatal("no notification should be attempted for a rejected booking")
		case <-time.After(50 * time.Millisecond):
		}

		// No INSERT was expected: a missing tour must not create a booking
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Invalid Ticket Count", func(t *testing.T) {
		db, _, closeDB := setupTestDB(t)
		defer closeDB()

		handler := newBookingTestHandler(db, newRecordingMailer(), nil)

		c, w := jsonContext(t, http.MethodPost, "/api/v1/bookings", gin.H{
			"tour_id":           uuid.New().String(),
			"user_id":           uuid.New().String(),
			"number_of_tickets": -1,
		})

		handler.BookTour(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Missing Required Fields", func(t *testing.T) {
		db, _, closeDB := setupTestDB(t)
		defer closeDB()

		handler := newBookingTestHandler(db, newRecordingMailer(), nil)

		c, w := jsonContext(t, http.MethodPost, "/api/v1/bookings", gin.H{
			"number_of_tickets": 2,
		})

		handler.BookTour(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBookTourSeatCapacity(t *testing.T) {
	db, mock, closeDB := setupTestDB(t)
	defer closeDB()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	handler := NewBookingHandler(
		database.NewBookingRepository(db),
		database.NewTourRepository(db),
		database.NewUserRepository(db),
		newRecordingMailer(),
		nil,
		logger,
		true,
	)

	tourID := uuid.New().String()
	userID := uuid.New().String()

	mock.ExpectQuery(`FROM tours WHERE id = \$1`).
		WithArgs(tourID).
		WillReturnRows(testTourRows(tourID))
	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(userID).
		WillReturnRows(testUserRows(userID))
	// 8 of 10 seats already claimed
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(number_of_tickets\), 0\)`).
		WithArgs(tourID).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(8))

	c, w := jsonContext(t, http.MethodPost, "/api/v1/bookings", gin.H{
		"tour_id":           tourID,
		"user_id":           userID,
		"number_of_tickets": 5,
	})

	handler.BookTour(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["message"], "2 seats remaining")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatchBooking(t *testing.T) {
	t.Run("Played Flag With Re-Fetch", func(t *testing.T) {
		db, mock, closeDB := setupTestDB(t)
		defer closeDB()

		handler := newBookingTestHandler(db, newRecordingMailer(), nil)

		bookingID := uuid.New().String()
		tourID := uuid.New().String()
		userID := uuid.New().String()
		now := time.Now()

		mock.ExpectExec(`UPDATE bookings SET is_played`).
			WithArgs(bookingID, true, "played").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`FROM bookings WHERE id = \$1`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows(testBookingColumns).
				AddRow(bookingID, tourID, userID, 2, true, "card", "played", now, now))

		c, w := jsonContext(t, http.MethodPatch, "/api/v1/bookings/"+bookingID, gin.H{
			"is_played": true,
		})
		c.Params = gin.Params{{Key: "id", Value: bookingID}}

		handler.PatchBooking(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Message string         `json:"message"`
			Booking models.Booking `json:"booking"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Contains(t, response.Message, "modified successfully")
		assert.True(t, response.Booking.IsPlayed)
		assert.Equal(t, models.BookingStatusPlayed, response.Booking.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		db, mock, closeDB := setupTestDB(t)
		defer closeDB()

		handler := newBookingTestHandler(db, newRecordingMailer(), nil)

		bookingID := uuid.New().String()

		mock.ExpectExec(`UPDATE bookings SET number_of_tickets`).
			WithArgs(bookingID, 3).
			WillReturnResult(sqlmock.NewResult(0, 0))

		c, w := jsonContext(t, http.MethodPatch, "/api/v1/bookings/"+bookingID, gin.H{
			"number_of_tickets": 3,
		})
		c.Params = gin.Params{{Key: "id", Value: bookingID}}

		handler.PatchBooking(c)

		assert.Equal(t, http.StatusNotFound, w.Code)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty Body Rejected", func(t *testing.T) {
		db, _, closeDB := setupTestDB(t)
		defer closeDB()

		handler := newBookingTestHandler(db, newRecordingMailer(), nil)

		c, w := jsonContext(t, http.MethodPatch, "/api/v1/bookings/"+uuid.New().String(), gin.H{})
		c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}

		handler.PatchBooking(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReplaceBooking(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock, closeDB := setupTestDB(t)
		defer closeDB()

		handler := newBookingTestHandler(db, newRecordingMailer(), nil)

		bookingID := uuid.New().String()
		tourID := uuid.New().String()
		userID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`UPDATE bookings`).
			WillReturnRows(sqlmock.NewRows(testBookingColumns).
				AddRow(bookingID, tourID, userID, 3, false, nil, "confirmed", now, now))

		c, w := jsonContext(t, http.MethodPut, "/api/v1/bookings/"+bookingID, gin.H{
			"tour_id":           tourID,
			"user_id":           userID,
			"number_of_tickets": 3,
		})
		c.Params = gin.Params{{Key: "id", Value: bookingID}}

		handler.ReplaceBooking(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Message string         `json:"message"`
			Booking models.Booking `json:"booking"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		// Omitted payment_method is dropped, not preserved
		assert.Nil(t, response.Booking.PaymentMethod)
		assert.Equal(t, 3, response.Booking.NumberOfTickets)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		db, mock, closeDB := setupTestDB(t)
		defer closeDB()

		handler := newBookingTestHandler(db, newRecordingMailer(), nil)

		bookingID := uuid.New().String()

		mock.ExpectQuery(`UPDATE bookings`).
			WillReturnError(sql.ErrNoRows)

		c, w := jsonContext(t, http.MethodPut, "/api/v1/bookings/"+bookingID, gin.H{
			"tour_id":           uuid.New().String(),
			"user_id":           uuid.New().String(),
			"number_of_tickets": 1,
		})
		c.Params = gin.Params{{Key: "id", Value: bookingID}}

		handler.ReplaceBooking(c)

		assert.Equal(t, http.StatusNotFound, w.Code)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetBookings(t *testing.T) {
	db, mock, closeDB := setupTestDB(t)
	defer closeDB()

	handler := newBookingTestHandler(db, newRecordingMailer(), nil)

	rows := sqlmock.NewRows(testBookingColumns)
	now := time.Now()
	for i := 0; i < 2; i++ {
		rows.AddRow(uuid.New().String(), uuid.New().String(), uuid.New().String(),
			1, false, nil, "confirmed", now.Add(time.Duration(i)*time.Minute), now)
	}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`ORDER BY created_at, id`).
		WithArgs(2, 2).
		WillReturnRows(rows)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/bookings?page=2&pageSize=2", nil)

	handler.GetBookings(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Items        []models.Booking `json:"items"`
		CurrentPage  int              `json:"currentPage"`
		TotalPages   int              `json:"totalPages"`
		NextPage     *struct {
			Page     int `json:"page"`
			PageSize int `json:"pageSize"`
		} `json:"nextPage"`
		PreviousPage *struct {
			Page     int `json:"page"`
			PageSize int `json:"pageSize"`
		} `json:"previousPage"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Items, 2)
	assert.Equal(t, 2, response.CurrentPage)
	assert.Equal(t, 3, response.TotalPages)
	require.NotNil(t, response.NextPage)
	assert.Equal(t, 3, response.NextPage.Page)
	require.NotNil(t, response.PreviousPage)
	assert.Equal(t, 1, response.PreviousPage.Page)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBooking(t *testing.T) {
	db, mock, closeDB := setupTestDB(t)
	defer closeDB()

	handler := newBookingTestHandler(db, newRecordingMailer(), nil)

	bookingID := uuid.New().String()

	mock.ExpectQuery(`DELETE FROM bookings WHERE id = \$1 RETURNING`).
		WithArgs(bookingID).
		WillReturnRows(testBookingRows(bookingID, uuid.New().String(), uuid.New().String()))

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/v1/bookings/"+bookingID, nil)
	c.Params = gin.Params{{Key: "id", Value: bookingID}}

	handler.DeleteBooking(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Message string         `json:"message"`
		Booking models.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response.Message, "deleted successfully")
	assert.Equal(t, bookingID, response.Booking.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCheckoutSession(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock, closeDB := setupTestDB(t)
		defer closeDB()

		provider := &fakePaymentProvider{
			session: &payment.CheckoutSession{
				SessionID: "cs_test_123",
				URL:       "https://checkout.stripe.com/c/pay/cs_test_123",
			},
		}
		handler := newBookingTestHandler(db, newRecordingMailer(), provider)

		bookingID := uuid.New().String()
		tourID := uuid.New().String()

		mock.ExpectQuery(`FROM bookings WHERE id = \$1`).
			WithArgs(bookingID).
			WillReturnRows(testBookingRows(bookingID, tourID, uuid.New().String()))
		mock.ExpectQuery(`FROM tours WHERE id = \$1`).
			WithArgs(tourID).
			WillReturnRows(testTourRows(tourID))

		gin.SetMode(gin.TestMode)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/bookings/"+bookingID+"/checkout-session", nil)
		c.Params = gin.Params{{Key: "id", Value: bookingID}}

		handler.GetCheckoutSession(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, bookingID, provider.gotBookingID)
		assert.Equal(t, tourID, provider.gotTourID)

		var response struct {
			Message string                  `json:"message"`
			Session payment.CheckoutSession `json:"session"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "cs_test_123", response.Session.SessionID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Provider Not Configured", func(t *testing.T) {
		db, _, closeDB := setupTestDB(t)
		defer closeDB()

		handler := newBookingTestHandler(db, newRecordingMailer(), nil)

		gin.SetMode(gin.TestMode)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/bookings/abc/checkout-session", nil)
		c.Params = gin.Params{{Key: "id", Value: "abc"}}

		handler.GetCheckoutSession(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("Booking Not Found", func(t *testing.T) {
		db, mock, closeDB := setupTestDB(t)
		defer closeDB()

		provider := &fakePaymentProvider{}
		handler := newBookingTestHandler(db, newRecordingMailer(), provider)

		bookingID := uuid.New().String()

		mock.ExpectQuery(`FROM bookings WHERE id = \$1`).
			WithArgs(bookingID).
			WillReturnError(sql.ErrNoRows)

		gin.SetMode(gin.TestMode)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/bookings/"+bookingID+"/checkout-session", nil)
		c.Params = gin.Params{{Key: "id", Value: bookingID}}

		handler.GetCheckoutSession(c)

		assert.Equal(t, http.StatusNotFound, w.Code)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
