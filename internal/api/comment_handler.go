package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nahuelmieres/rf-online-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommentHandler holds the comment service dependency.
type CommentHandler struct {
	commentService service.CommentService
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// --- DTOs ---

type AddCommentRequest struct {
	Text       string `json:"text" binding:"required"`
	WeekNumber *int   `json:"weekNumber" binding:"omitempty,min=1"`
	BlockID    string `json:"blockId"`
}

type ReplyRequest struct {
	Text string `json:"text" binding:"required"`
}

// --- Handler Methods ---

// AddComment attaches a comment to a plan, optionally pinned to a week
// and a block within it.
func (h *CommentHandler) AddComment(c *gin.Context) {
	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	var blockID *primitive.ObjectID
	if req.BlockID != "" {
		id, err := primitive.ObjectIDFromHex(req.BlockID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid block ID format.")
			return
		}
		blockID = &id
	}

	authorID, err := getCallerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	comment, err := h.commentService.AddComment(c.Request.Context(), authorID, planID, req.Text, req.WeekNumber, blockID)
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			abortWithError(c, http.StatusBadRequest, vErr.Error())
		case errors.Is(err, service.ErrPlanNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to add comment.")
		}
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// ReplyToComment sets the single reply on a comment. A second reply is
// rejected as a conflict.
func (h *CommentHandler) ReplyToComment(c *gin.Context) {
	commentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid comment ID format.")
		return
	}

	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	authorID, err := getCallerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	comment, err := h.commentService.ReplyToComment(c.Request.Context(), authorID, commentID, req.Text)
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			abortWithError(c, http.StatusBadRequest, vErr.Error())
		case errors.Is(err, service.ErrCommentNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyReplied):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to reply to comment.")
		}
		return
	}

	c.JSON(http.StatusOK, comment)
}

// ListByPlan returns a plan's comments, oldest first.
func (h *CommentHandler) ListByPlan(c *gin.Context) {
	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	comments, err := h.commentService.ListByPlan(c.Request.Context(), planID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve comments.")
		return
	}

	c.JSON(http.StatusOK, comments)
}

// DeleteComment removes a comment. Only its author or an admin may do so.
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid comment ID format.")
		return
	}

	caller, err := getCaller(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	if err := h.commentService.DeleteComment(c.Request.Context(), caller, commentID); err != nil {
		switch {
		case errors.Is(err, service.ErrCommentNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrCommentAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to delete comment.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}
