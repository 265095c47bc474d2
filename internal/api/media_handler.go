package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nahuelmieres/rf-online-backend/internal/service"
	"github.com/nahuelmieres/rf-online-backend/internal/storage"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MediaHandler holds the media service dependency.
type MediaHandler struct {
	mediaService service.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaService service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// --- DTOs ---

type RequestUploadRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	Size        int64  `json:"size" binding:"required,min=1"`
	BlockID     string `json:"blockId"`
}

// UploadTicketResponse carries the metadata record plus the presigned PUT
// URL the client uploads the file to directly.
type UploadTicketResponse struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	UploadURL string    `json:"uploadUrl"`
	ExpiresIn string    `json:"expiresIn"`
	CreatedAt time.Time `json:"createdAt"`
}

// --- Handler Methods ---

// RequestUpload reserves a media slot and returns a presigned upload URL.
func (h *MediaHandler) RequestUpload(c *gin.Context) {
	var req RequestUploadRequest
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

	ownerID, err := getCallerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	ticket, err := h.mediaService.RequestUpload(c.Request.Context(), ownerID, blockID, req.FileName, req.ContentType, req.Size)
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			abortWithError(c, http.StatusBadRequest, vErr.Error())
		case errors.Is(err, service.ErrBlockNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to prepare upload.")
		}
		return
	}

	c.JSON(http.StatusCreated, UploadTicketResponse{
		ID:        ticket.Upload.ID.Hex(),
		FileName:  ticket.Upload.FileName,
		UploadURL: ticket.UploadURL,
		ExpiresIn: storage.DefaultPresignedURLExpiry.String(),
		CreatedAt: ticket.Upload.UploadedAt,
	})
}

// GetDownloadURL returns a short-lived presigned GET URL for a media file.
func (h *MediaHandler) GetDownloadURL(c *gin.Context) {
	mediaID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid media ID format.")
		return
	}

	url, err := h.mediaService.GetDownloadURL(c.Request.Context(), mediaID)
	if err != nil {
		if errors.Is(err, service.ErrMediaNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to generate download URL.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

// DeleteMedia removes a media file and its metadata. Only the owner or an
// admin may do so.
func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	mediaID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid media ID format.")
		return
	}

	caller, err := getCaller(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	if err := h.mediaService.DeleteMedia(c.Request.Context(), caller, mediaID); err != nil {
		switch {
		case errors.Is(err, service.ErrMediaNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrMediaAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to delete media.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Media deleted"})
}
