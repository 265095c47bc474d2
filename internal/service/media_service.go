package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/nahuelmieres/rf-online-backend/internal/domain"
	"github.com/nahuelmieres/rf-online-backend/internal/repository"
	"github.com/nahuelmieres/rf-online-backend/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrMediaNotFound     = errors.New("media upload not found")
	ErrMediaAccessDenied = errors.New("access denied to delete this media upload")
)

// UploadTicket is a presigned PUT URL plus the metadata record created for
// the pending upload. The client PUTs the file directly to storage.
type UploadTicket struct {
	Upload    *domain.MediaUpload
	UploadURL string
}

// --- Service Interface ---
type MediaService interface {
	RequestUpload(ctx context.Context, ownerID primitive.ObjectID, blockID *primitive.ObjectID, fileName, contentType string, size int64) (*UploadTicket, error)
	GetDownloadURL(ctx context.Context, id primitive.ObjectID) (string, error)
	DeleteMedia(ctx context.Context, caller *domain.User, id primitive.ObjectID) error
}

// --- Service Implementation ---

// mediaService implements the MediaService interface.
type mediaService struct {
	mediaRepo   repository.MediaRepository
	blockRepo   repository.BlockRepository
	fileStorage storage.FileStorage
}

// NewMediaService creates a new instance of mediaService.
func NewMediaService(mediaRepo repository.MediaRepository, blockRepo repository.BlockRepository, fileStorage storage.FileStorage) MediaService {
	return &mediaService{
		mediaRepo:   mediaRepo,
		blockRepo:   blockRepo,
		fileStorage: fileStorage,
	}
}

// RequestUpload validates the request, records upload metadata and issues a
// presigned PUT URL for the client to upload the file directly.
func (s *mediaService) RequestUpload(ctx context.Context, ownerID primitive.ObjectID, blockID *primitive.ObjectID, fileName, contentType string, size int64) (*UploadTicket, error) {
	v := &ValidationError{}
	if fileName == "" {
		v.add("fileName", "file name is required")
	}
	if !strings.HasPrefix(contentType, "video/") {
		v.add("contentType", "only video uploads are accepted")
	}
	if size <= 0 {
		v.add("size", "file size must be positive")
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}

	if blockID != nil {
		if _, err := s.blockRepo.GetByID(ctx, *blockID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrBlockNotFound
			}
			return nil, err
		}
	}

	objectKey := fmt.Sprintf("media/%s/%s-%s", ownerID.Hex(), uuid.NewString(), fileName)
	upload := &domain.MediaUpload{
		OwnerID:     ownerID,
		BlockID:     blockID,
		S3ObjectKey: objectKey,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
	}
	uploadID, err := s.mediaRepo.Create(ctx, upload)
	if err != nil {
		return nil, err
	}
	upload.ID = uploadID

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		// Metadata without a usable URL is just noise; try to undo it.
		if delErr := s.mediaRepo.Delete(ctx, uploadID); delErr != nil {
			log.Printf("WARN: failed to clean up media record %s after presign error: %v", uploadID.Hex(), delErr)
		}
		return nil, err
	}

	return &UploadTicket{Upload: upload, UploadURL: uploadURL}, nil
}

// GetDownloadURL issues a presigned GET URL for a stored upload.
func (s *mediaService) GetDownloadURL(ctx context.Context, id primitive.ObjectID) (string, error) {
	upload, err := s.mediaRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrMediaNotFound
		}
		return "", err
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, upload.S3ObjectKey, storage.DefaultPresignedURLExpiry)
}

// DeleteMedia removes the stored object and its metadata. Only the owner or
// an admin may delete.
func (s *mediaService) DeleteMedia(ctx context.Context, caller *domain.User, id primitive.ObjectID) error {
	upload, err := s.mediaRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMediaNotFound
		}
		return err
	}
	if upload.OwnerID != caller.ID && !caller.IsAdmin() {
		return ErrMediaAccessDenied
	}

	if err := s.fileStorage.DeleteObject(ctx, upload.S3ObjectKey); err != nil {
		return err
	}
	return s.mediaRepo.Delete(ctx, id)
}
