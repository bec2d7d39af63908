package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/holidaysplanners/tour-booking-backend/internal/database"
	"github.com/holidaysplanners/tour-booking-backend/internal/models"
	"github.com/holidaysplanners/tour-booking-backend/internal/pagination"
)

// TourHandler owns the tour catalog: admin-gated mutation, public reads
type TourHandler struct {
	tourRepo *database.TourRepository
}

// NewTourHandler creates a new TourHandler
func NewTourHandler(tourRepo *database.TourRepository) *TourHandler {
	return &TourHandler{tourRepo: tourRepo}
}

// CreateTour adds a new tour to the catalog. Image references arrive as
// plain strings; upload handling lives outside this service.
func (h *TourHandler) CreateTour(c *gin.Context) {
	var doc models.TourDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := doc.Validate(); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	tour := doc.ToTour()
	if err := h.tourRepo.Create(tour); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to create tour")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "A new tour added successfully",
		"tour":    tour,
	})
}

// GetTours returns one page of tours in creation order
func (h *TourHandler) GetTours(c *gin.Context) {
	params := pagination.Parse(c.Query("page"), c.Query("pageSize"))

	total, err := h.tourRepo.Count()
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to count tours")
		return
	}

	tours, err := h.tourRepo.ListPage(params.PageSize, params.Offset())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to list tours")
		return
	}

	c.JSON(http.StatusOK, pagination.BuildResult(tours, params, total))
}

// GetTour returns a single tour by ID
func (h *TourHandler) GetTour(c *gin.Context) {
	id := c.Param("id")

	tour, err := h.tourRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, fmt.Sprintf("A tour with ID: %s, not found", id))
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch tour")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "A tour found successfully",
		"tour":    tour,
	})
}

// ReplaceTour overwrites the whole tour document. Fields the input omits
// are dropped.
func (h *TourHandler) ReplaceTour(c *gin.Context) {
	id := c.Param("id")

	var doc models.TourDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := doc.Validate(); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.tourRepo.Replace(id, doc.ToTour())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, fmt.Sprintf("A tour with ID: %s, not found", id))
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to replace tour")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("A tour with ID: %s, updated successfully", id),
		"tour":    updated,
	})
}

// PatchTour overwrites only the fields present in the request, then
// re-fetches the stored row for the response
func (h *TourHandler) PatchTour(c *gin.Context) {
	id := c.Param("id")

	var patch models.TourPatch
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

	if err := h.tourRepo.Patch(id, &patch); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, fmt.Sprintf("A tour with ID: %s, not found", id))
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to modify tour")
		return
	}

	modified, err := h.tourRepo.GetByID(id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch modified tour")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("A tour with ID: %s, modified successfully", id),
		"tour":    modified,
	})
}

// DeleteTour removes a tour and returns the deleted entity
func (h *TourHandler) DeleteTour(c *gin.Context) {
	id := c.Param("id")

	tour, err := h.tourRepo.Delete(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, fmt.Sprintf("A tour with ID: %s, not found", id))
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to delete tour")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("A tour with ID: %s, deleted successfully", id),
		"tour":    tour,
	})
}
