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

const reservationCollectionName = "reservations"

// mongoReservationRepository implements repository.ReservationRepository
type mongoReservationRepository struct {
	collection *mongo.Collection
}

// NewMongoReservationRepository creates a new Reservation repository.
func NewMongoReservationRepository(db *mongo.Database) repository.ReservationRepository {
	return &mongoReservationRepository{
		collection: db.Collection(reservationCollectionName),
	}
}

// Create inserts a new reservation.
func (r *mongoReservationRepository) Create(ctx context.Context, res *domain.Reservation) (primitive.ObjectID, error) {
	if res.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("reservation user ID is required")
	}

	res.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now
	if res.Status == "" {
		res.Status = domain.ReservationActive
	}

	result, err := r.collection.InsertOne(ctx, res)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a reservation by its ID.
func (r *mongoReservationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&res)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

// GetActiveByUserAndSlot finds the user's active reservation at the exact
// slot start time, if any.
func (r *mongoReservationRepository) GetActiveByUserAndSlot(ctx context.Context, userID primitive.ObjectID, slot time.Time) (*domain.Reservation, error) {
	var res domain.Reservation
	filter := bson.M{
		"userId": userID,
		"date":   slot,
		"status": domain.ReservationActive,
	}
	err := r.collection.FindOne(ctx, filter).Decode(&res)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

// CountActiveInSlot counts active reservations of a type/branch whose start
// falls inside [slot, slot+1h).
func (r *mongoReservationRepository) CountActiveInSlot(ctx context.Context, slot time.Time, typ domain.ReservationType, branch domain.Branch) (int64, error) {
	filter := bson.M{
		"date":   bson.M{"$gte": slot, "$lt": slot.Add(domain.SlotDuration)},
		"type":   typ,
		"branch": branch,
		"status": domain.ReservationActive,
	}
	return r.collection.CountDocuments(ctx, filter)
}

// ListActiveInRange retrieves active reservations for a branch between from
// and to, inclusive.
func (r *mongoReservationRepository) ListActiveInRange(ctx context.Context, from, to time.Time, branch domain.Branch) ([]domain.Reservation, error) {
	filter := bson.M{
		"date":   bson.M{"$gte": from, "$lte": to},
		"branch": branch,
		"status": domain.ReservationActive,
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reservations []domain.Reservation
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

// ListByUser retrieves a user's reservations, most recent slot first.
func (r *mongoReservationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Reservation, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reservations []domain.Reservation
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

// Cancel marks a reservation as cancelled. The userID filter ensures a user
// can only cancel their own booking.
func (r *mongoReservationRepository) Cancel(ctx context.Context, id, userID primitive.ObjectID) error {
	filter := bson.M{
		"_id":    id,
		"userId": userID,
		"status": domain.ReservationActive,
	}
	update := bson.M{"$set": bson.M{"status": domain.ReservationCancelled, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureReservationIndexes creates necessary indexes for reservations.
func EnsureReservationIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "date", Value: 1}, {Key: "branch", Value: 1}, {Key: "type", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
