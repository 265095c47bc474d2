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

// BlockHandler holds the block service dependency.
type BlockHandler struct {
	blockService service.BlockService
}

// NewBlockHandler creates a new BlockHandler.
func NewBlockHandler(blockService service.BlockService) *BlockHandler {
	return &BlockHandler{blockService: blockService}
}

// --- DTOs ---

type ExerciseRequest struct {
	Name     string   `json:"name" binding:"required"`
	Sets     int      `json:"sets"`
	Reps     string   `json:"reps"`
	Scale    string   `json:"scale" binding:"omitempty,oneof=RPE RIR"`
	Effort   *float64 `json:"effort"`
	VideoURL string   `json:"videoUrl"`
}

type CreateBlockRequest struct {
	Title       string            `json:"title" binding:"required"`
	Kind        domain.BlockKind  `json:"kind" binding:"required"`
	TextContent string            `json:"textContent"`
	Exercises   []ExerciseRequest `json:"exercises"`
	Tags        []string          `json:"tags"`
}

// BlockResponse is the DTO for returning block details.
type BlockResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Kind        domain.BlockKind  `json:"kind"`
	TextContent string            `json:"textContent,omitempty"`
	Exercises   []domain.Exercise `json:"exercises,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	CreatedBy   string            `json:"createdBy"`
	OwnerName   string            `json:"ownerName,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// MapBlockToResponse converts a domain.Block to BlockResponse DTO.
func MapBlockToResponse(b *domain.Block) BlockResponse {
	if b == nil {
		return BlockResponse{}
	}
	return BlockResponse{
		ID:          b.ID.Hex(),
		Title:       b.Title,
		Kind:        b.Kind,
		TextContent: b.TextContent,
		Exercises:   b.Exercises,
		Tags:        b.Tags,
		CreatedBy:   b.CreatedBy.Hex(),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// --- Handler Methods ---

// CreateBlock creates a reusable content block owned by the caller.
func (h *BlockHandler) CreateBlock(c *gin.Context) {
	var req CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	creatorID, err := getCallerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	input := service.CreateBlockInput{
		Title:       req.Title,
		Kind:        req.Kind,
		TextContent: req.TextContent,
		Tags:        req.Tags,
	}
	for _, ex := range req.Exercises {
		input.Exercises = append(input.Exercises, service.ExerciseInput{
			Name:     ex.Name,
			Sets:     ex.Sets,
			Reps:     ex.Reps,
			Scale:    ex.Scale,
			Effort:   ex.Effort,
			VideoURL: ex.VideoURL,
		})
	}

	block, err := h.blockService.CreateBlock(c.Request.Context(), creatorID, input)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			abortWithError(c, http.StatusBadRequest, vErr.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create block.")
		}
		return
	}

	c.JSON(http.StatusCreated, MapBlockToResponse(block))
}

// GetBlock returns one block by id.
func (h *BlockHandler) GetBlock(c *gin.Context) {
	blockID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid block ID format.")
		return
	}

	block, err := h.blockService.GetBlock(c.Request.Context(), blockID)
	if err != nil {
		if errors.Is(err, service.ErrBlockNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve block.")
		}
		return
	}

	c.JSON(http.StatusOK, MapBlockToResponse(block))
}

// ListBlocks returns blocks filtered by optional query parameters:
// createdBy (hex id), kind, and withOwner=true to embed creator names.
func (h *BlockHandler) ListBlocks(c *gin.Context) {
	var filter repository.BlockFilter

	if createdBy := c.Query("createdBy"); createdBy != "" {
		id, err := primitive.ObjectIDFromHex(createdBy)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid createdBy ID format.")
			return
		}
		filter.CreatedBy = &id
	}
	if kind := c.Query("kind"); kind != "" {
		k := domain.BlockKind(kind)
		if !domain.IsValidBlockKind(k) {
			abortWithError(c, http.StatusBadRequest, "Unknown block kind.")
			return
		}
		filter.Kind = &k
	}
	withOwner := c.Query("withOwner") == "true"

	items, err := h.blockService.ListBlocks(c.Request.Context(), filter, withOwner)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve blocks.")
		return
	}

	responses := make([]BlockResponse, 0, len(items))
	for i := range items {
		resp := MapBlockToResponse(&items[i].Block)
		if items[i].Owner != nil {
			resp.OwnerName = items[i].Owner.Name
		}
		responses = append(responses, resp)
	}
	c.JSON(http.StatusOK, responses)
}

// DeleteBlock removes a block and purges its references from every plan.
func (h *BlockHandler) DeleteBlock(c *gin.Context) {
	blockID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid block ID format.")
		return
	}

	if err := h.blockService.DeleteBlock(c.Request.Context(), blockID); err != nil {
		if errors.Is(err, service.ErrBlockNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete block.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Block deleted"})
}
