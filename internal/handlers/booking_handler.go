package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/holidaysplanners/tour-booking-backend/internal/database"
	"github.com/holidaysplanners/tour-booking-backend/internal/models"
	"github.com/holidaysplanners/tour-booking-backend/internal/pagination"
	"github.com/holidaysplanners/tour-booking-backend/pkg/mailer"
	"github.com/holidaysplanners/tour-booking-backend/pkg/payment"
	"github.com/sirupsen/logrus"
)

// BookingHandler owns the booking lifecycle: creation, full replace, partial
// patch, deletion and the checkout-session handoff.
type BookingHandler struct {
	bookingRepo *database.BookingRepository
	tourRepo    *database.TourRepository
	userRepo    *database.UserRepository
	mailer      mailer.Mailer
	payments    payment.Provider
	logger      *logrus.Logger

	// enforceSeatCapacity rejects bookings exceeding the tour's remaining
	// seats; an explicit policy switch, off by default.
	enforceSeatCapacity bool
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(
	bookingRepo *database.BookingRepository,
	tourRepo *database.TourRepository,
	userRepo *database.UserRepository,
	bookingMailer mailer.Mailer,
	payments payment.Provider,
	logger *logrus.Logger,
	enforceSeatCapacity bool,
) *BookingHandler {
	return &BookingHandler{
		bookingRepo:         bookingRepo,
		tourRepo:            tourRepo,
		userRepo:            userRepo,
		mailer:              bookingMailer,
		payments:            payments,
		logger:              logger,
		enforceSeatCapacity: enforceSeatCapacity,
	}
}

// BookTour creates a booking for an existing tour and user, then notifies
// the user by mail on a detached goroutine. A failed send is logged and never
// surfaces to the caller; the booking stands regardless.
func (h *BookingHandler) BookTour(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	tour, err := h.tourRepo.GetByID(req.TourID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, fmt.Sprintf("A tour with ID: %s, not found", req.TourID))
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch tour")
		return
	}

	user, err := h.userRepo.GetByID(req.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, fmt.Sprintf("A user with ID: %s, not found", req.UserID))
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	if h.enforceSeatCapacity {
		booked, err := h.bookingRepo.CountTicketsForTour(tour.ID)
		if err != nil {
			errorResponse(c, http.StatusInternalServerError, "Failed to check seat availability")
			return
		}
		if req.NumberOfTickets > tour.Seats-booked {
			errorResponse(c, http.StatusBadRequest,
				fmt.Sprintf("Only %d seats remaining on this tour", tour.Seats-booked))
			return
		}
	}

	booking := &models.Booking{
		TourID:          tour.ID,
		UserID:          user.ID,
		NumberOfTickets: req.NumberOfTickets,
		PaymentMethod:   req.PaymentMethod,
		Status:          models.BookingStatusConfirmed,
	}

	if err := h.bookingRepo.Create(booking); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to create booking")
		return
	}

	// Fire-and-forget: the response does not wait for the mail
	go func(email, name string) {
		if err := h.mailer.SendBookingReceived(email, name); err != nil {
			h.logger.WithError(err).WithField("email", email).
				Warn("Failed to send booking confirmation mail")
		}
	}(user.Email, user.DisplayName())

	c.JSON(http.StatusCreated, gin.H{
		"message": "A tour booked successfully",
		"booking": booking,
	})
}

// GetBooking returns a single booking by ID
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id := c.Param("id")

	booking, err := h.bookingRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, fmt.Sprintf("A booking with ID: %s, not found", id))
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch booking")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "A booking found successfully",
		"booking": booking,
	})
}

// GetBookings returns one page of bookings in creation order
func (h *BookingHandler) GetBookings(c *gin.Context) {
	params := pagination.Parse(c.Query("page"), c.Query("pageSize"))

	total, err := h.bookingRepo.Count()
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to count bookings")
		return
	}

	bookings, err := h.bookingRepo.ListPage(params.PageSize, params.Offset())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to list bookings")
		return
	}

	c.JSON(http.StatusOK, pagination.BuildResult(bookings, params, total))
}

// ReplaceBooking overwrites the whole booking document. Fields the input
// omits are dropped.
func (h *BookingHandler) ReplaceBooking(c *gin.Context) {
	id := c.Param("id")

	var doc models.BookingDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := doc.Validate(); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	booking := &models.Booking{
		TourID:          doc.TourID,
		UserID:          doc.UserID,
		NumberOfTickets: doc.NumberOfTickets,
		IsPlayed:        doc.IsPlayed,
		PaymentMethod:   doc.PaymentMethod,
	}

	updated, err := h.bookingRepo.Replace(id, booking)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, fmt.Sprintf("A booking with ID: %s, not found", id))
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to replace booking")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("A booking with ID: %s, updated successfully", id),
		"booking": updated,
	})
}

// PatchBooking overwrites only the fields present in the request, then
// re-fetches the row so the response reflects the stored document rather
// than whatever the driver handed back.
func (h *BookingHandler) PatchBooking(c *gin.Context) {
	id := c.Param("id")

	var patch models.BookingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := patch.Validate(); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if patch.IsEmpty() {
		errorResponse(c, http.StatusBadRequest, "Request body carries no fields to modify")
		return
	}

	if err := h.bookingRepo.Patch(id, &patch); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, fmt.Sprintf("A booking with ID: %s, not found", id))
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to modify booking")
		return
	}

	modified, err := h.bookingRepo.GetByID(id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch modified booking")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("A booking with ID: %s, modified successfully", id),
		"booking": modified,
	})
}

// DeleteBooking removes a booking and returns the deleted entity
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	id := c.Param("id")

	booking, err := h.bookingRepo.Delete(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, fmt.Sprintf("A booking with ID: %s, not found", id))
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to delete booking")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("A booking with ID: %s, deleted successfully", id),
		"booking": booking,
	})
}

// GetCheckoutSession creates a payment session for an existing booking and
// returns its locator
func (h *BookingHandler) GetCheckoutSession(c *gin.Context) {
	id := c.Param("id")

	if h.payments == nil {
		errorResponse(c, http.StatusInternalServerError, "Payment provider not configured")
		return
	}

	booking, err := h.bookingRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, fmt.Sprintf("A booking with ID: %s, not found", id))
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch booking")
		return
	}

	tour, err := h.tourRepo.GetByID(booking.TourID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, fmt.Sprintf("A tour with ID: %s, not found", booking.TourID))
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch tour")
		return
	}

	session, err := h.payments.CreateCheckoutSession(booking, tour)
	if err != nil {
		h.logger.WithError(err).WithField("booking_id", id).Error("Checkout session creation failed")
		errorResponse(c, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout session created successfully",
		"session": session,
	})
}
