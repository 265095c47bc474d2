package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/nahuelmieres/rf-online-backend/internal/domain"
	"github.com/nahuelmieres/rf-online-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound = errors.New("plan not found")
	ErrEmptyPatch   = errors.New("at least one field must be provided")
)

// CreatePlanInput is the validated payload for creating a plan.
type CreatePlanInput struct {
	Title       string
	Description string
	Type        domain.TrainingType
	Category    domain.PlanCategory // defaults to basica when empty
	WeekCount   int                 // materializes this many weeks x seven days upfront
}

// PlanPatch applies a partial metadata update. Nil fields are left alone;
// a non-nil Weeks replaces the whole week/day structure.
type PlanPatch struct {
	Title       *string
	Description *string
	Type        *domain.TrainingType
	Category    *domain.PlanCategory
	Weeks       *[]domain.Week
}

// ProjectedDay is a day with its block references resolved to documents.
type ProjectedDay struct {
	Name   string         `json:"name"`
	Rest   bool           `json:"rest"`
	Blocks []domain.Block `json:"blocks"`
}

// ProjectedWeek groups resolved days.
type ProjectedWeek struct {
	Number int            `json:"number"`
	Days   []ProjectedDay `json:"days"`
}

// PlanProjection is the read model for a plan: the full tree with blocks
// resolved, plus aggregate counts. Building it never mutates stored state.
type PlanProjection struct {
	Plan          *domain.Plan    `json:"plan"`
	Weeks         []ProjectedWeek `json:"weeks"`
	TotalBlocks   int             `json:"totalBlocks"`
	TotalDays     int             `json:"totalDays"`
	TotalRestDays int             `json:"totalRestDays"`
}

// --- Service Interface ---
type PlanService interface {
	CreatePlan(ctx context.Context, creator *domain.User, input CreatePlanInput) (*domain.Plan, error)
	GetPlan(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	GetPlanProjection(ctx context.Context, id primitive.ObjectID) (*PlanProjection, error)
	ListPlans(ctx context.Context, filter repository.PlanFilter) ([]domain.Plan, error)
	AssignBlock(ctx context.Context, planID primitive.ObjectID, weekNumber int, dayName string, blockID primitive.ObjectID) (*domain.Plan, error)
	RemoveBlock(ctx context.Context, planID primitive.ObjectID, weekNumber int, blockID primitive.ObjectID) (*domain.Plan, error)
	EditMetadata(ctx context.Context, planID primitive.ObjectID, patch PlanPatch) (*domain.Plan, error)
	DeletePlan(ctx context.Context, id primitive.ObjectID) error
	SweepDanglingRefs(ctx context.Context) (int, error)
}

// --- Service Implementation ---

// planService implements the PlanService interface.
type planService struct {
	planRepo  repository.PlanRepository
	blockRepo repository.BlockRepository
}

// NewPlanService creates a new instance of planService.
func NewPlanService(planRepo repository.PlanRepository, blockRepo repository.BlockRepository) PlanService {
	return &planService{
		planRepo:  planRepo,
		blockRepo: blockRepo,
	}
}

const (
	maxPlanTitleLength       = 100
	maxPlanDescriptionLength = 500
)

// CreatePlan validates the payload, snapshots the creator's identity and
// stores the new plan. A positive WeekCount materializes that many weeks
// upfront, each with all seven days flagged as rest.
func (s *planService) CreatePlan(ctx context.Context, creator *domain.User, input CreatePlanInput) (*domain.Plan, error) {
	if creator == nil || creator.ID == primitive.NilObjectID {
		return nil, errors.New("creator is required to create a plan")
	}

	v := &ValidationError{}
	if input.Title == "" {
		v.add("title", "title is required")
	} else if len(input.Title) > maxPlanTitleLength {
		v.add("title", fmt.Sprintf("title cannot exceed %d characters", maxPlanTitleLength))
	}
	if len(input.Description) > maxPlanDescriptionLength {
		v.add("description", fmt.Sprintf("description cannot exceed %d characters", maxPlanDescriptionLength))
	}
	if !domain.IsValidTrainingType(input.Type) {
		v.add("type", "invalid training type")
	}
	category := input.Category
	if category == "" {
		category = domain.CategoryBasic
	}
	if !domain.IsValidPlanCategory(category) {
		v.add("category", "invalid category")
	}
	if input.WeekCount < 0 {
		v.add("weekCount", "week count cannot be negative")
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}

	weeks := make([]domain.Week, 0, input.WeekCount)
	for n := 1; n <= input.WeekCount; n++ {
		weeks = append(weeks, domain.NewWeek(n))
	}

	plan := &domain.Plan{
		Title:       input.Title,
		Description: input.Description,
		Type:        input.Type,
		Category:    category,
		Weeks:       weeks,
		CreatedBy:   creator.ID,
		Creator: domain.CreatorSnapshot{
			Name:  creator.Name,
			Email: creator.Email,
			Role:  creator.Role,
		},
	}

	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	return s.planRepo.GetByID(ctx, planID)
}

// GetPlan retrieves the raw plan aggregate.
func (s *planService) GetPlan(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// ListPlans retrieves plans matching the filter.
func (s *planService) ListPlans(ctx context.Context, filter repository.PlanFilter) ([]domain.Plan, error) {
	return s.planRepo.List(ctx, filter)
}

// AssignBlock inserts a block reference into a day of the plan. The block
// must exist at assignment time; the structural mutation itself runs inside
// a single transaction so the stored plan is never half-updated. A deleted
// block can in principle slip in between the existence check and the
// commit; the integrity sweep repairs that window.
func (s *planService) AssignBlock(ctx context.Context, planID primitive.ObjectID, weekNumber int, dayName string, blockID primitive.ObjectID) (*domain.Plan, error) {
	if !domain.IsWeekday(dayName) {
		return nil, domain.ErrInvalidDayName
	}
	if weekNumber < 1 {
		return nil, domain.ErrInvalidWeekNumber
	}

	if _, err := s.blockRepo.GetByID(ctx, blockID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBlockNotFound
		}
		return nil, err
	}

	plan, err := s.planRepo.UpdateWithinTransaction(ctx, planID, func(p *domain.Plan) error {
		return p.AssignBlock(weekNumber, dayName, blockID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// RemoveBlock filters a block out of every day of the given week and
// re-derives rest flags, atomically.
func (s *planService) RemoveBlock(ctx context.Context, planID primitive.ObjectID, weekNumber int, blockID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.planRepo.UpdateWithinTransaction(ctx, planID, func(p *domain.Plan) error {
		return p.RemoveBlock(weekNumber, blockID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// EditMetadata applies the provided subset of plan fields. At least one
// field must be present. Scalar fields go through a plain $set; a weeks
// replacement rebuilds the tree and runs inside a transaction.
func (s *planService) EditMetadata(ctx context.Context, planID primitive.ObjectID, patch PlanPatch) (*domain.Plan, error) {
	if patch.Title == nil && patch.Description == nil && patch.Type == nil && patch.Category == nil && patch.Weeks == nil {
		return nil, ErrEmptyPatch
	}

	v := &ValidationError{}
	set := map[string]interface{}{}
	if patch.Title != nil {
		if *patch.Title == "" {
			v.add("title", "title cannot be empty")
		} else if len(*patch.Title) > maxPlanTitleLength {
			v.add("title", fmt.Sprintf("title cannot exceed %d characters", maxPlanTitleLength))
		}
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		if len(*patch.Description) > maxPlanDescriptionLength {
			v.add("description", fmt.Sprintf("description cannot exceed %d characters", maxPlanDescriptionLength))
		}
		set["description"] = *patch.Description
	}
	if patch.Type != nil {
		if !domain.IsValidTrainingType(*patch.Type) {
			v.add("type", "invalid training type")
		}
		set["type"] = *patch.Type
	}
	if patch.Category != nil {
		if !domain.IsValidPlanCategory(*patch.Category) {
			v.add("category", "invalid category")
		}
		set["category"] = *patch.Category
	}

	var weeks []domain.Week
	if patch.Weeks != nil {
		normalized, err := domain.NormalizeWeeks(*patch.Weeks)
		if err != nil {
			v.add("weeks", err.Error())
		}
		weeks = normalized
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}

	if patch.Weeks == nil {
		if err := s.planRepo.UpdateMetadata(ctx, planID, set); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrPlanNotFound
			}
			return nil, err
		}
		return s.GetPlan(ctx, planID)
	}

	plan, err := s.planRepo.UpdateWithinTransaction(ctx, planID, func(p *domain.Plan) error {
		if patch.Title != nil {
			p.Title = *patch.Title
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.Type != nil {
			p.Type = *patch.Type
		}
		if patch.Category != nil {
			p.Category = *patch.Category
		}
		p.Weeks = weeks
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// GetPlanProjection resolves every block reference to its document and
// computes aggregate counts. Dangling references (blocks deleted since
// assignment) are skipped in the projection but the stored plan is left
// untouched; the integrity sweep prunes them for real.
func (s *planService) GetPlanProjection(ctx context.Context, id primitive.ObjectID) (*PlanProjection, error) {
	plan, err := s.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	refs := plan.BlockRefs()
	blocks, err := s.blockRepo.GetByIDs(ctx, refs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]domain.Block, len(blocks))
	for _, b := range blocks {
		byID[b.ID] = b
	}

	projection := &PlanProjection{
		Plan:      plan,
		Weeks:     make([]ProjectedWeek, 0, len(plan.Weeks)),
		TotalDays: plan.TotalDays(),
	}
	for _, w := range plan.Weeks {
		pw := ProjectedWeek{Number: w.Number, Days: make([]ProjectedDay, 0, len(w.Days))}
		for _, d := range w.Days {
			pd := ProjectedDay{Name: d.Name, Blocks: []domain.Block{}}
			for _, ref := range d.Blocks {
				if b, ok := byID[ref]; ok {
					pd.Blocks = append(pd.Blocks, b)
					projection.TotalBlocks++
				}
			}
			// Rest is derived from what actually resolved, so a reference
			// whose block is gone never presents an empty training day.
			pd.Rest = len(pd.Blocks) == 0
			if pd.Rest {
				projection.TotalRestDays++
			}
			pw.Days = append(pw.Days, pd)
		}
		projection.Weeks = append(projection.Weeks, pw)
	}
	return projection, nil
}

// DeletePlan removes the plan document. Blocks are independently owned and
// survive; only the plan's references to them disappear with it.
func (s *planService) DeletePlan(ctx context.Context, id primitive.ObjectID) error {
	if err := s.planRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	return nil
}

// SweepDanglingRefs walks every plan, verifies each referenced block still
// exists and prunes the references that do not, settling rest flags as it
// goes. Idempotent and safe to re-run; scheduled from main.
func (s *planService) SweepDanglingRefs(ctx context.Context) (int, error) {
	plans, err := s.planRepo.List(ctx, repository.PlanFilter{})
	if err != nil {
		return 0, err
	}

	totalPruned := 0
	for i := range plans {
		plan := &plans[i]
		refs := plan.BlockRefs()

		valid := make(map[primitive.ObjectID]bool, len(refs))
		if len(refs) > 0 {
			blocks, err := s.blockRepo.GetByIDs(ctx, refs)
			if err != nil {
				return totalPruned, err
			}
			for _, b := range blocks {
				valid[b.ID] = true
			}
		}

		// Check without writing first; most plans are clean. A plan is dirty
		// when a reference no longer resolves or a rest flag is stale (a
		// cascade purge empties days without re-deriving rest).
		dirty := false
		for _, ref := range refs {
			if !valid[ref] {
				dirty = true
				break
			}
		}
		for _, w := range plan.Weeks {
			for _, d := range w.Days {
				if d.Rest != (len(d.Blocks) == 0) {
					dirty = true
				}
			}
		}
		if !dirty {
			continue
		}

		_, err := s.planRepo.UpdateWithinTransaction(ctx, plan.ID, func(p *domain.Plan) error {
			totalPruned += p.PruneRefs(func(id primitive.ObjectID) bool { return valid[id] })
			return nil
		})
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue // plan deleted mid-sweep, nothing to repair
			}
			log.Printf("WARN: integrity sweep failed for plan %s: %v", plan.ID.Hex(), err)
		}
	}
	return totalPruned, nil
}
