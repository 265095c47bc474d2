package service

import (
	"context"
	"errors"
	"time"

	"github.com/nahuelmieres/rf-online-backend/internal/domain"
	"github.com/nahuelmieres/rf-online-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrCommentNotFound     = errors.New("comment not found")
	ErrCommentAccessDenied = errors.New("access denied to delete this comment")
	ErrAlreadyReplied      = errors.New("comment already has a reply")
)

// --- Service Interface ---
type CommentService interface {
	AddComment(ctx context.Context, authorID, planID primitive.ObjectID, text string, weekNumber *int, blockID *primitive.ObjectID) (*domain.Comment, error)
	ReplyToComment(ctx context.Context, authorID, commentID primitive.ObjectID, text string) (*domain.Comment, error)
	ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.Comment, error)
	DeleteComment(ctx context.Context, caller *domain.User, commentID primitive.ObjectID) error
}

// --- Service Implementation ---

// commentService implements the CommentService interface.
type commentService struct {
	commentRepo repository.CommentRepository
	planRepo    repository.PlanRepository
}

// NewCommentService creates a new instance of commentService.
func NewCommentService(commentRepo repository.CommentRepository, planRepo repository.PlanRepository) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		planRepo:    planRepo,
	}
}

// AddComment attaches a comment to a plan, optionally pinned to a week and
// a block. The plan must exist; block and week references are not resolved
// here, they are foreign keys the reader dereferences.
func (s *commentService) AddComment(ctx context.Context, authorID, planID primitive.ObjectID, text string, weekNumber *int, blockID *primitive.ObjectID) (*domain.Comment, error) {
	v := &ValidationError{}
	if text == "" {
		v.add("text", "comment text is required")
	}
	if weekNumber != nil && *weekNumber < 1 {
		v.add("weekNumber", "week number must be at least 1")
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}

	if _, err := s.planRepo.GetByID(ctx, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	comment := &domain.Comment{
		PlanID:     planID,
		AuthorID:   authorID,
		Text:       text,
		WeekNumber: weekNumber,
		BlockID:    blockID,
	}
	commentID, err := s.commentRepo.Create(ctx, comment)
	if err != nil {
		return nil, err
	}
	comment.ID = commentID
	return comment, nil
}

// ReplyToComment attaches the single threaded reply. A second reply is a
// conflict; the repository enforces the rule atomically.
func (s *commentService) ReplyToComment(ctx context.Context, authorID, commentID primitive.ObjectID, text string) (*domain.Comment, error) {
	if text == "" {
		v := &ValidationError{}
		v.add("text", "reply text is required")
		return nil, v
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	if comment.Reply != nil {
		return nil, ErrAlreadyReplied
	}

	reply := &domain.CommentReply{
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.commentRepo.SetReply(ctx, commentID, reply); err != nil {
		if errors.Is(err, repository.ErrUpdateFailed) {
			return nil, ErrAlreadyReplied
		}
		return nil, err
	}
	comment.Reply = reply
	return comment, nil
}

// ListByPlan retrieves all comments for a plan.
func (s *commentService) ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.Comment, error) {
	return s.commentRepo.ListByPlan(ctx, planID)
}

// DeleteComment removes a comment. Only its author or an admin may do so.
func (s *commentService) DeleteComment(ctx context.Context, caller *domain.User, commentID primitive.ObjectID) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	if comment.AuthorID != caller.ID && !caller.IsAdmin() {
		return ErrCommentAccessDenied
	}
	return s.commentRepo.Delete(ctx, commentID)
}
