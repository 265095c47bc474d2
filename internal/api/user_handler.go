package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nahuelmieres/rf-online-backend/internal/domain"
	"github.com/nahuelmieres/rf-online-backend/internal/repository"
	"github.com/nahuelmieres/rf-online-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserHandler holds the user service dependency.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// --- DTOs ---

type AssignPlanRequest struct {
	PlanID string `json:"planId" binding:"required"`
}

// ProfileResponse pairs the user with their personal plan, if any.
type ProfileResponse struct {
	User UserResponse  `json:"user"`
	Plan *PlanResponse `json:"plan,omitempty"`
}

// --- Handler Methods ---

// GetMe returns the caller's profile with their personal plan resolved.
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, err := getCallerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve profile.")
		}
		return
	}

	resp := ProfileResponse{User: MapUserToResponse(profile.User)}
	if profile.Plan != nil {
		planResp := MapPlanToResponse(profile.Plan)
		resp.Plan = &planResp
	}
	c.JSON(http.StatusOK, resp)
}

// ListUsers returns users filtered by optional query parameters:
// role, paymentActive (true/false), and search (name or email).
func (h *UserHandler) ListUsers(c *gin.Context) {
	var filter repository.UserFilter

	if role := c.Query("role"); role != "" {
		r := domain.Role(role)
		if !domain.IsValidRole(r) {
			abortWithError(c, http.StatusBadRequest, "Unknown role.")
			return
		}
		filter.Role = &r
	}
	if paymentActive := c.Query("paymentActive"); paymentActive != "" {
		active := paymentActive == "true"
		filter.PaymentActive = &active
	}
	if search := c.Query("search"); search != "" {
		filter.Search = search
	}

	users, err := h.userService.ListUsers(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve users.")
		return
	}

	c.JSON(http.StatusOK, MapUsersToResponse(users))
}

// AssignPersonalPlan links a personalized plan to a user. Both sides of the
// link are updated.
func (h *UserHandler) AssignPersonalPlan(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format.")
		return
	}

	var req AssignPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	if err := h.userService.AssignPersonalPlan(c.Request.Context(), userID, planID); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrPlanNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrPlanNotPersonalized):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to assign plan.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plan assigned"})
}
