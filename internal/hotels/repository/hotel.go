package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	hotelserrors "staybook/internal/hotels/errors"
	"staybook/pkg/config"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Hotels"
)

type HotelRepository interface {
	FindAll(ctx context.Context, q model.HotelQuery) ([]*model.Hotel, error)
	Count(ctx context.Context, q model.HotelQuery) (int64, error)
	FindFeatured(ctx context.Context, limit int) ([]*model.Hotel, error)
	FindByID(ctx context.Context, id string) (*model.Hotel, error)
}

type mongoHotelRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoHotelRepository(cfg *config.Config) HotelRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoHotelRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoHotelRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

// BuildFilter translates the server-side hotel query into a Mongo filter.
// Location matches name or location, case-insensitive.
func BuildFilter(q model.HotelQuery) bson.M {
	filter := bson.M{}

	if q.Location != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Location), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"location": pattern},
		}
	}

	price := bson.M{}
	if q.MinPrice != nil {
		price["$gte"] = *q.MinPrice
	}
	if q.MaxPrice != nil {
		price["$lte"] = *q.MaxPrice
	}
	if len(price) > 0 {
		filter["price_per_night"] = price
	}

	if q.MinRating > 0 {
		filter["rating"] = bson.M{"$gte": q.MinRating}
	}

	return filter
}

func (r *mongoHotelRepository) FindAll(ctx context.Context, q model.HotelQuery) ([]*model.Hotel, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "featured", Value: -1}, {Key: "rating", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(q.Limit)).
		SetSkip(q.Offset)

	cursor, err := r.collection.Find(ctx, BuildFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find hotels: %w", err)
	}
	defer cursor.Close(ctx)

	var hotels []*model.Hotel
	if err = cursor.All(ctx, &hotels); err != nil {
		return nil, fmt.Errorf("failed to decode hotels: %w", err)
	}

	return hotels, nil
}

func (r *mongoHotelRepository) Count(ctx context.Context, q model.HotelQuery) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, BuildFilter(q))
	if err != nil {
		return 0, fmt.Errorf("failed to count hotels: %w", err)
	}
	return count, nil
}

func (r *mongoHotelRepository) FindFeatured(ctx context.Context, limit int) ([]*model.Hotel, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"featured": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find featured hotels: %w", err)
	}
	defer cursor.Close(ctx)

	var hotels []*model.Hotel
	if err = cursor.All(ctx, &hotels); err != nil {
		return nil, fmt.Errorf("failed to decode featured hotels: %w", err)
	}

	return hotels, nil
}

func (r *mongoHotelRepository) FindByID(ctx context.Context, id string) (*model.Hotel, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", hotelserrors.ErrInvalidID, id)
	}

	var hotel model.Hotel
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&hotel)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, hotelserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find hotel: %w", err)
	}

	return &hotel, nil
}
