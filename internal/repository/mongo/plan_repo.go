package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/nahuelmieres/rf-online-backend/internal/domain"
	"github.com/nahuelmieres/rf-online-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const planCollectionName = "plans"

// mongoPlanRepository implements repository.PlanRepository
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new Plan repository backed by MongoDB.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new plan aggregate.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	if plan.Title == "" || plan.CreatedBy == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("plan title and creator ID are required")
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if plan.Weeks == nil {
		plan.Weeks = []domain.Week{}
	}

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single plan by its ID.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	var plan domain.Plan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// List retrieves plans matching the filter, newest first.
func (r *mongoPlanRepository) List(ctx context.Context, filter repository.PlanFilter) ([]domain.Plan, error) {
	query := bson.M{}
	if filter.CreatedBy != nil {
		query["createdBy"] = *filter.CreatedBy
	}
	if filter.Type != nil {
		query["type"] = *filter.Type
	}
	if filter.Category != nil {
		query["category"] = *filter.Category
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var plans []domain.Plan
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

// UpdateWithinTransaction runs a load-mutate-save cycle on one plan inside a
// Mongo session transaction. WithTransaction retries on transient write
// conflicts, which serializes concurrent mutations on the same plan id. If
// mutate returns an error the transaction aborts with no partial write and
// the error is surfaced unchanged.
func (r *mongoPlanRepository) UpdateWithinTransaction(ctx context.Context, id primitive.ObjectID, mutate func(*domain.Plan) error) (*domain.Plan, error) {
	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var plan domain.Plan
		if err := r.collection.FindOne(sc, bson.M{"_id": id}).Decode(&plan); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, repository.ErrNotFound
			}
			return nil, err
		}

		if err := mutate(&plan); err != nil {
			return nil, err
		}

		plan.UpdatedAt = time.Now().UTC()
		// The whole aggregate is replaced: the mutated week/day tree was
		// rebuilt in memory, so there is no per-path update to express.
		if _, err := r.collection.ReplaceOne(sc, bson.M{"_id": id}, &plan); err != nil {
			return nil, err
		}
		return &plan, nil
	})
	if err != nil {
		return nil, err
	}

	plan, ok := result.(*domain.Plan)
	if !ok {
		return nil, errors.New("unexpected transaction result type")
	}
	return plan, nil
}

// UpdateMetadata applies a partial $set on plan metadata fields. The caller
// builds the set map from the patch; week/day structure is never touched
// through this path.
func (r *mongoPlanRepository) UpdateMetadata(ctx context.Context, id primitive.ObjectID, set map[string]interface{}) error {
	if len(set) == 0 {
		return errors.New("no fields to update")
	}
	update := bson.M{}
	for k, v := range set {
		update[k] = v
	}
	update["updatedAt"] = time.Now().UTC()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetAssignedUser records which client a personalized plan belongs to.
func (r *mongoPlanRepository) SetAssignedUser(ctx context.Context, planID, userID primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": planID},
		bson.M{"$set": bson.M{"assignedUserId": userID, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a plan. Blocks are independently owned and are not touched.
func (r *mongoPlanRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// PullBlockRefs removes blockID from every day of every plan in one
// UpdateMany, then flips rest back on for every day left without blocks so
// readers never see an empty day marked as a training day. Safe to re-run;
// plans without the reference are untouched by the pull and already-resting
// empty days are idempotent under the second update.
func (r *mongoPlanRepository) PullBlockRefs(ctx context.Context, blockID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{},
		bson.M{"$pull": bson.M{"weeks.$[].days.$[].blocks": blockID}},
	)
	if err != nil {
		return err
	}
	_, err = r.collection.UpdateMany(ctx,
		bson.M{},
		bson.M{"$set": bson.M{"weeks.$[].days.$[emptied].rest": true}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"emptied.blocks": bson.M{"$size": 0}}},
		}),
	)
	return err
}

// EnsurePlanIndexes creates necessary indexes for the plans collection.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdBy", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "type", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "weeks.days.blocks", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
