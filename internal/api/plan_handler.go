package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nahuelmieres/rf-online-backend/internal/domain"
	"github.com/nahuelmieres/rf-online-backend/internal/repository"
	"github.com/nahuelmieres/rf-online-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler holds the plan service dependency. The user service is needed
// to snapshot the creator's identity onto new plans.
type PlanHandler struct {
	planService service.PlanService
	userService service.UserService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService, userService service.UserService) *PlanHandler {
	return &PlanHandler{planService: planService, userService: userService}
}

// --- DTOs ---

type CreatePlanRequest struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Type        domain.TrainingType `json:"type" binding:"required"`
	Category    domain.PlanCategory `json:"category" binding:"omitempty,oneof=basica personalizada"`
	WeekCount   int                 `json:"weekCount" binding:"omitempty,min=1"`
}

type UpdatePlanRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Type        *domain.TrainingType `json:"type"`
	Category    *domain.PlanCategory `json:"category"`
	Weeks       *[]domain.Week       `json:"weeks"`
}

type AssignBlockRequest struct {
	WeekNumber int    `json:"weekNumber" binding:"required,min=1"`
	DayName    string `json:"dayName" binding:"required"`
	BlockID    string `json:"blockId" binding:"required"`
}

type RemoveBlockRequest struct {
	WeekNumber int    `json:"weekNumber" binding:"required,min=1"`
	BlockID    string `json:"blockId" binding:"required"`
}

// PlanResponse is the DTO for returning plan details. Weeks carry raw block
// references; the projection endpoint resolves them to documents.
type PlanResponse struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description,omitempty"`
	Type           domain.TrainingType    `json:"type"`
	Category       domain.PlanCategory    `json:"category"`
	AssignedUserID *string                `json:"assignedUserId,omitempty"`
	Weeks          []domain.Week          `json:"weeks"`
	CreatedBy      string                 `json:"createdBy"`
	Creator        domain.CreatorSnapshot `json:"creator"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// MapPlanToResponse converts a domain.Plan to PlanResponse DTO.
func MapPlanToResponse(p *domain.Plan) PlanResponse {
	if p == nil {
		return PlanResponse{}
	}
	resp := PlanResponse{
		ID:          p.ID.Hex(),
		Title:       p.Title,
		Description: p.Description,
		Type:        p.Type,
		Category:    p.Category,
		Weeks:       p.Weeks,
		CreatedBy:   p.CreatedBy.Hex(),
		Creator:     p.Creator,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.AssignedUserID != nil && !p.AssignedUserID.IsZero() {
		userIDHex := p.AssignedUserID.Hex()
		resp.AssignedUserID = &userIDHex
	}
	return resp
}

// MapPlansToResponse converts a slice of plans.
func MapPlansToResponse(plans []domain.Plan) []PlanResponse {
	responses := make([]PlanResponse, len(plans))
	for i := range plans {
		responses[i] = MapPlanToResponse(&plans[i])
	}
	return responses
}

// --- Handler Methods ---

// CreatePlan creates a planning document owned by the caller.
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	callerID, err := getCallerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	// The plan embeds a snapshot of the creator's identity, so resolve the
	// full profile rather than trusting token claims alone.
	profile, err := h.userService.GetProfile(c.Request.Context(), callerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve caller profile.")
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), profile.User, service.CreatePlanInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Category:    req.Category,
		WeekCount:   req.WeekCount,
	})
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			abortWithError(c, http.StatusBadRequest, vErr.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create plan.")
		}
		return
	}

	c.JSON(http.StatusCreated, MapPlanToResponse(plan))
}

// GetPlan returns one plan with raw block references.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	plan, err := h.planService.GetPlan(c.Request.Context(), planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plan.")
		}
		return
	}

	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// GetPlanProjection returns the plan tree with every block reference
// resolved to its document, plus aggregate counts.
func (h *PlanHandler) GetPlanProjection(c *gin.Context) {
	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	projection, err := h.planService.GetPlanProjection(c.Request.Context(), planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to build plan view.")
		}
		return
	}

	c.JSON(http.StatusOK, projection)
}

// ListPlans returns plans filtered by optional query parameters:
// createdBy (hex id), type, and category.
func (h *PlanHandler) ListPlans(c *gin.Context) {
	var filter repository.PlanFilter

	if createdBy := c.Query("createdBy"); createdBy != "" {
		id, err := primitive.ObjectIDFromHex(createdBy)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid createdBy ID format.")
			return
		}
		filter.CreatedBy = &id
	}
	if typ := c.Query("type"); typ != "" {
		t := domain.TrainingType(typ)
		if !domain.IsValidTrainingType(t) {
			abortWithError(c, http.StatusBadRequest, "Unknown training type.")
			return
		}
		filter.Type = &t
	}
	if category := c.Query("category"); category != "" {
		cat := domain.PlanCategory(category)
		if !domain.IsValidPlanCategory(cat) {
			abortWithError(c, http.StatusBadRequest, "Unknown plan category.")
			return
		}
		filter.Category = &cat
	}

	plans, err := h.planService.ListPlans(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plans.")
		return
	}

	c.JSON(http.StatusOK, MapPlansToResponse(plans))
}

// UpdatePlan applies a partial metadata update, or replaces the whole week
// structure when "weeks" is present.
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.EditMetadata(c.Request.Context(), planID, service.PlanPatch{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Category:    req.Category,
		Weeks:       req.Weeks,
	})
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			abortWithError(c, http.StatusBadRequest, vErr.Error())
		case errors.Is(err, service.ErrEmptyPatch):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPlanNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update plan.")
		}
		return
	}

	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// AssignBlock places a block on one day of one week. Repeating the same
// assignment is rejected as a conflict.
func (h *PlanHandler) AssignBlock(c *gin.Context) {
	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	var req AssignBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	blockID, err := primitive.ObjectIDFromHex(req.BlockID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid block ID format.")
		return
	}

	plan, err := h.planService.AssignBlock(c.Request.Context(), planID, req.WeekNumber, req.DayName, blockID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidDayName), errors.Is(err, domain.ErrInvalidWeekNumber), errors.Is(err, domain.ErrInvalidBlockRef):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrBlockNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, domain.ErrBlockAlreadyAssigned):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to assign block.")
		}
		return
	}

	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// RemoveBlock drops every reference to a block from one week.
func (h *PlanHandler) RemoveBlock(c *gin.Context) {
	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	var req RemoveBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	blockID, err := primitive.ObjectIDFromHex(req.BlockID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid block ID format.")
		return
	}

	plan, err := h.planService.RemoveBlock(c.Request.Context(), planID, req.WeekNumber, blockID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidWeekNumber):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, domain.ErrWeekNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to remove block.")
		}
		return
	}

	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// DeletePlan removes a plan entirely. Admin only, enforced by the route.
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	if err := h.planService.DeletePlan(c.Request.Context(), planID); err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete plan.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plan deleted"})
}
