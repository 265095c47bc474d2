package repository

import (
	"context"
	"time"

	"github.com/nahuelmieres/rf-online-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound       = RepositoryError("not found")
	ErrDuplicateEmail = RepositoryError("email already registered")
	ErrUpdateFailed   = RepositoryError("update failed")
	ErrDeleteFailed   = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserFilter narrows user listings.
type UserFilter struct {
	Role          *domain.Role
	PaymentActive *bool
	Search        string // matches name or email, case-insensitive
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	SetPersonalPlan(ctx context.Context, userID, planID primitive.ObjectID) error
}

// BlockFilter narrows block listings.
type BlockFilter struct {
	CreatedBy *primitive.ObjectID
	Kind      *domain.BlockKind
}

// BlockRepository defines the interface for interacting with block documents.
type BlockRepository interface {
	Create(ctx context.Context, block *domain.Block) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Block, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Block, error)
	List(ctx context.Context, filter BlockFilter) ([]domain.Block, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PlanRepository defines the persistence boundary for plan aggregates.
// UpdateWithinTransaction is the only mutation path for the week/day tree:
// it loads the latest plan state, applies mutate and persists the rebuilt
// aggregate atomically with respect to concurrent transactions on the same
// plan id.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	List(ctx context.Context, filter PlanFilter) ([]domain.Plan, error)
	UpdateWithinTransaction(ctx context.Context, id primitive.ObjectID, mutate func(*domain.Plan) error) (*domain.Plan, error)
	UpdateMetadata(ctx context.Context, id primitive.ObjectID, set map[string]interface{}) error
	SetAssignedUser(ctx context.Context, planID, userID primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// PullBlockRefs removes blockID from every day of every plan. It is the
	// cascade-purge primitive run after a block deletion.
	PullBlockRefs(ctx context.Context, blockID primitive.ObjectID) error
}

// PlanFilter narrows plan listings.
type PlanFilter struct {
	CreatedBy *primitive.ObjectID
	Type      *domain.TrainingType
	Category  *domain.PlanCategory
}

// CommentRepository defines the interface for plan comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Comment, error)
	ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.Comment, error)
	SetReply(ctx context.Context, id primitive.ObjectID, reply *domain.CommentReply) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ReservationRepository defines the interface for gym slot bookings.
type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Reservation, error)
	GetActiveByUserAndSlot(ctx context.Context, userID primitive.ObjectID, slot time.Time) (*domain.Reservation, error)
	CountActiveInSlot(ctx context.Context, slot time.Time, typ domain.ReservationType, branch domain.Branch) (int64, error)
	ListActiveInRange(ctx context.Context, from, to time.Time, branch domain.Branch) ([]domain.Reservation, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Reservation, error)
	Cancel(ctx context.Context, id, userID primitive.ObjectID) error
}

// MediaRepository defines the interface for upload metadata.
type MediaRepository interface {
	Create(ctx context.Context, upload *domain.MediaUpload) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MediaUpload, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}
