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
	ErrBlockNotFound = errors.New("block not found")
)

// CreateBlockInput is the validated payload for creating a block.
type CreateBlockInput struct {
	Title       string
	Kind        domain.BlockKind
	TextContent string
	Exercises   []ExerciseInput
	Tags        []string
}

// ExerciseInput is one exercise entry inside a create request.
type ExerciseInput struct {
	Name     string
	Sets     int
	Reps     string
	Scale    string
	Effort   *float64
	VideoURL string
}

// BlockListItem pairs a block with its (optionally enriched) owner.
type BlockListItem struct {
	Block domain.Block
	Owner *domain.User
}

// --- Service Interface ---
type BlockService interface {
	CreateBlock(ctx context.Context, creatorID primitive.ObjectID, input CreateBlockInput) (*domain.Block, error)
	GetBlock(ctx context.Context, id primitive.ObjectID) (*domain.Block, error)
	ListBlocks(ctx context.Context, filter repository.BlockFilter, enrichOwner bool) ([]BlockListItem, error)
	DeleteBlock(ctx context.Context, id primitive.ObjectID) error
}

// --- Service Implementation ---

// blockService implements the BlockService interface.
type blockService struct {
	blockRepo repository.BlockRepository
	planRepo  repository.PlanRepository
	userRepo  repository.UserRepository
}

// NewBlockService creates a new instance of blockService. The plan
// repository is needed for the cascading reference purge on delete.
func NewBlockService(blockRepo repository.BlockRepository, planRepo repository.PlanRepository, userRepo repository.UserRepository) BlockService {
	return &blockService{
		blockRepo: blockRepo,
		planRepo:  planRepo,
		userRepo:  userRepo,
	}
}

const (
	maxBlockTitleLength = 100
)

// CreateBlock validates the payload eagerly (all field errors collected in
// one pass, nothing persisted on failure) and stores the new block. Content
// fields not matching the kind are cleared rather than stored.
func (s *blockService) CreateBlock(ctx context.Context, creatorID primitive.ObjectID, input CreateBlockInput) (*domain.Block, error) {
	if creatorID == primitive.NilObjectID {
		return nil, errors.New("creator ID is required to create a block")
	}

	v := &ValidationError{}

	if input.Title == "" {
		v.add("title", "title is required")
	} else if len(input.Title) > maxBlockTitleLength {
		v.add("title", fmt.Sprintf("title cannot exceed %d characters", maxBlockTitleLength))
	}

	if !domain.IsValidBlockKind(input.Kind) {
		v.add("kind", `kind must be "texto" or "ejercicios"`)
		return nil, v // nothing else can be checked without a kind
	}

	var exercises []domain.Exercise
	switch input.Kind {
	case domain.BlockKindText:
		if input.TextContent == "" {
			v.add("textContent", "text content is required for text blocks")
		}
	case domain.BlockKindExercises:
		if len(input.Exercises) == 0 {
			v.add("exercises", "at least one exercise is required")
		}
		exercises = make([]domain.Exercise, 0, len(input.Exercises))
		for i, in := range input.Exercises {
			ex, ok := validateExercise(v, i, in)
			if ok {
				exercises = append(exercises, ex)
			}
		}
	}

	if err := v.orNil(); err != nil {
		return nil, err
	}

	block := &domain.Block{
		Title:     input.Title,
		Kind:      input.Kind,
		Tags:      domain.NormalizeTags(input.Tags),
		CreatedBy: creatorID,
	}
	// Kind determines which content field is populated; the other stays empty.
	if input.Kind == domain.BlockKindText {
		block.TextContent = input.TextContent
	} else {
		block.Exercises = exercises
	}

	blockID, err := s.blockRepo.Create(ctx, block)
	if err != nil {
		return nil, err
	}
	return s.blockRepo.GetByID(ctx, blockID)
}

// validateExercise checks one exercise entry, collecting field errors under
// an indexed prefix, and returns the normalized value when clean.
func validateExercise(v *ValidationError, idx int, in ExerciseInput) (domain.Exercise, bool) {
	prefix := fmt.Sprintf("exercises[%d]", idx)
	before := len(v.Fields)

	if in.Name == "" {
		v.add(prefix+".name", "exercise name is required")
	}
	if in.Sets < 1 {
		v.add(prefix+".sets", "there must be at least 1 set")
	}
	if in.Reps == "" {
		v.add(prefix+".reps", "repetitions are required")
	}

	scale := domain.EffortScale(in.Scale)
	hasScale := in.Scale != ""
	hasEffort := in.Effort != nil
	var effort *float64
	switch {
	case hasScale != hasEffort:
		v.add(prefix+".scale", "effort scale and effort value must both be present or both absent")
	case hasScale:
		if scale != domain.ScaleRPE && scale != domain.ScaleRIR {
			v.add(prefix+".scale", `scale must be "RPE" or "RIR"`)
		} else {
			rounded := domain.RoundEffort(*in.Effort)
			if !domain.EffortInRange(scale, rounded) {
				v.add(prefix+".effort", "effort value out of range for the scale")
			} else {
				effort = &rounded
			}
		}
	}

	if in.VideoURL != "" && !domain.IsAllowedVideoURL(in.VideoURL) {
		v.add(prefix+".videoUrl", "video link must point to a known video host")
	}

	if len(v.Fields) > before {
		return domain.Exercise{}, false
	}
	ex := domain.Exercise{
		Name:     in.Name,
		Sets:     in.Sets,
		Reps:     in.Reps,
		VideoURL: in.VideoURL,
	}
	if effort != nil {
		ex.Scale = scale
		ex.Effort = effort
	}
	return ex, true
}

// GetBlock retrieves a single block.
func (s *blockService) GetBlock(ctx context.Context, id primitive.ObjectID) (*domain.Block, error) {
	block, err := s.blockRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBlockNotFound
		}
		return nil, err
	}
	return block, nil
}

// ListBlocks retrieves blocks matching the filter. With enrichOwner set, the
// owner record is attached to each item; blocks whose owner no longer exists
// are excluded from the enriched listing.
func (s *blockService) ListBlocks(ctx context.Context, filter repository.BlockFilter, enrichOwner bool) ([]BlockListItem, error) {
	blocks, err := s.blockRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]BlockListItem, 0, len(blocks))
	if !enrichOwner {
		for _, b := range blocks {
			items = append(items, BlockListItem{Block: b})
		}
		return items, nil
	}

	owners := make(map[primitive.ObjectID]*domain.User)
	for _, b := range blocks {
		owner, cached := owners[b.CreatedBy]
		if !cached {
			owner, err = s.userRepo.GetByID(ctx, b.CreatedBy)
			if err != nil {
				if !errors.Is(err, repository.ErrNotFound) {
					return nil, err
				}
				owner = nil // owner record is gone; drop the block below
			}
			owners[b.CreatedBy] = owner
		}
		if owner == nil {
			continue
		}
		items = append(items, BlockListItem{Block: b, Owner: owner})
	}
	return items, nil
}

// DeleteBlock removes the block and then purges its id from every plan's
// day lists, flipping the days the purge empties back to rest. The purge is
// best-effort: the deletion is the source of truth, so a purge failure is
// logged and the scheduled integrity sweep (and any later tree mutation)
// repairs leftovers.
func (s *blockService) DeleteBlock(ctx context.Context, id primitive.ObjectID) error {
	if err := s.blockRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBlockNotFound
		}
		return err
	}

	if err := s.planRepo.PullBlockRefs(ctx, id); err != nil {
		log.Printf("WARN: failed to purge references to deleted block %s: %v", id.Hex(), err)
	}
	return nil
}
