package service

import (
	"context"
	"errors"

	"github.com/nahuelmieres/rf-online-backend/internal/domain"
	"github.com/nahuelmieres/rf-online-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrPlanNotPersonalized = errors.New("only a personalized plan can be assigned to a user")
)

// UserProfile is the profile read model: the user plus a summary of their
// assigned personalized plan, if any.
type UserProfile struct {
	User *domain.User
	Plan *domain.Plan // nil when no personalized plan assigned
}

// --- Service Interface ---
type UserService interface {
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*UserProfile, error)
	ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, error)
	AssignPersonalPlan(ctx context.Context, userID, planID primitive.ObjectID) error
}

// --- Service Implementation ---

// userService implements the UserService interface.
type userService struct {
	userRepo repository.UserRepository
	planRepo repository.PlanRepository
}

// NewUserService creates a new instance of userService.
func NewUserService(userRepo repository.UserRepository, planRepo repository.PlanRepository) UserService {
	return &userService{
		userRepo: userRepo,
		planRepo: planRepo,
	}
}

// GetProfile fetches a user plus their assigned personalized plan.
func (s *userService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""

	profile := &UserProfile{User: user}
	if user.PersonalPlanID != nil {
		plan, err := s.planRepo.GetByID(ctx, *user.PersonalPlanID)
		if err == nil {
			profile.Plan = plan
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		// A dangling plan reference just leaves Plan nil.
	}
	return profile, nil
}

// ListUsers retrieves users matching the filter, hashes stripped.
func (s *userService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// AssignPersonalPlan links a personalized plan to a user, updating both
// sides of the reference. Only plans of category personalizada qualify.
func (s *userService) AssignPersonalPlan(ctx context.Context, userID, planID primitive.ObjectID) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	if plan.Category != domain.CategoryPersonalized {
		return ErrPlanNotPersonalized
	}

	if err := s.planRepo.SetAssignedUser(ctx, planID, userID); err != nil {
		return err
	}
	return s.userRepo.SetPersonalPlan(ctx, userID, planID)
}
