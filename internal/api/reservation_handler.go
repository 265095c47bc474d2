package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nahuelmieres/rf-online-backend/internal/domain"
	"github.com/nahuelmieres/rf-online-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateReservationRequest books one hour slot at a branch. Slot must be an
// exact hour in RFC 3339 format.
type CreateReservationRequest struct {
	Slot   time.Time              `json:"slot" binding:"required"`
	Type   domain.ReservationType `json:"type" binding:"required"`
	Branch domain.Branch          `json:"branch" binding:"required"`
}

// ReservationHandler holds the reservation service dependency.
type ReservationHandler struct {
	reservationService service.ReservationService
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(reservationService service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

// --- Handler Methods ---

// GetAvailability returns the open slots of a day with the remaining
// capacity per reservation type. Query: date=2026-09-01&branch=malvin.
func (h *ReservationHandler) GetAvailability(c *gin.Context) {
	dateStr := c.Query("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Query parameter 'date' must be YYYY-MM-DD.")
		return
	}

	branch := domain.Branch(c.Query("branch"))
	if !domain.IsValidBranch(branch) {
		abortWithError(c, http.StatusBadRequest, "Unknown branch.")
		return
	}

	slots, err := h.reservationService.GetAvailability(c.Request.Context(), date, branch)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute availability.")
		return
	}

	c.JSON(http.StatusOK, slots)
}

// CreateReservation books a slot for the caller.
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	userID, err := getCallerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	reservation, err := h.reservationService.CreateReservation(c.Request.Context(), userID, req.Slot, req.Type, req.Branch)
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			abortWithError(c, http.StatusBadRequest, vErr.Error())
		case errors.Is(err, service.ErrInvalidSlot), errors.Is(err, service.ErrSlotTooFarAhead):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAlreadyBooked):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrSlotFull):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to create reservation.")
		}
		return
	}

	c.JSON(http.StatusCreated, reservation)
}

// CancelReservation cancels one of the caller's active reservations.
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	reservationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid reservation ID format.")
		return
	}

	userID, err := getCallerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	if err := h.reservationService.CancelReservation(c.Request.Context(), reservationID, userID); err != nil {
		if errors.Is(err, service.ErrReservationNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to cancel reservation.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reservation cancelled"})
}

// ListMyReservations returns the caller's reservations, newest first.
func (h *ReservationHandler) ListMyReservations(c *gin.Context) {
	userID, err := getCallerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	reservations, err := h.reservationService.ListUserReservations(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve reservations.")
		return
	}

	c.JSON(http.StatusOK, reservations)
}
