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

const blockCollectionName = "blocks"

// mongoBlockRepository implements repository.BlockRepository
type mongoBlockRepository struct {
	collection *mongo.Collection
}

// NewMongoBlockRepository creates a new Block repository backed by MongoDB.
func NewMongoBlockRepository(db *mongo.Database) repository.BlockRepository {
	return &mongoBlockRepository{
		collection: db.Collection(blockCollectionName),
	}
}

// Create inserts a new block into the database.
func (r *mongoBlockRepository) Create(ctx context.Context, block *domain.Block) (primitive.ObjectID, error) {
	if block.Title == "" || block.CreatedBy == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("block title and creator ID are required")
	}

	block.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	block.CreatedAt = now
	block.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, block)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a block by its ID.
func (r *mongoBlockRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Block, error) {
	var block domain.Block
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&block)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &block, nil
}

// GetByIDs retrieves all blocks whose id is in ids. Missing ids are simply
// absent from the result; the caller decides whether that matters.
func (r *mongoBlockRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Block, error) {
	if len(ids) == 0 {
		return []domain.Block{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var blocks []domain.Block
	if err = cursor.All(ctx, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// List retrieves blocks matching the filter, newest first.
func (r *mongoBlockRepository) List(ctx context.Context, filter repository.BlockFilter) ([]domain.Block, error) {
	query := bson.M{}
	if filter.CreatedBy != nil {
		query["createdBy"] = *filter.CreatedBy
	}
	if filter.Kind != nil {
		query["kind"] = *filter.Kind
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var blocks []domain.Block
	if err = cursor.All(ctx, &blocks); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// Delete removes a block. The cascading reference purge across plans is the
// service layer's responsibility; this only deletes the document itself.
func (r *mongoBlockRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureBlockIndexes creates necessary indexes for the blocks collection.
func EnsureBlockIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "tags", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
