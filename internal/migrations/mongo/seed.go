package mongo

import (
	"context"
	"fmt"
	"time"

	"staybook/pkg/logger"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func room(t model.RoomType, price float64, maxGuests, quantity int) model.Room {
	return model.Room{
		ID:            primitive.NewObjectID().Hex(),
		Type:          t,
		PricePerNight: price,
		MaxGuests:     maxGuests,
		Quantity:      quantity,
	}
}

// SampleHotels is the demo catalogue inserted into an empty database.
func SampleHotels(now time.Time) []model.Hotel {
	return []model.Hotel{
		{
			Name:          "Hôtel du Lac",
			Location:      "Annecy, France",
			Description:   "Lakeside rooms facing the Alps.",
			PricePerNight: 140,
			Rating:        4.6,
			Amenities:     []string{"wifi", "spa", "parking", "restaurant"},
			Images:        []string{"https://images.staybook.dev/lac/1.jpg"},
			Featured:      true,
			Rooms: []model.Room{
				room(model.RoomSingle, 95, 1, 4),
				room(model.RoomDouble, 140, 2, 6),
				room(model.RoomSuite, 320, 4, 1),
			},
			CreatedAt: now,
		},
		{
			Name:          "Le Petit Montmartre",
			Location:      "Paris, France",
			Description:   "Boutique hotel two streets from Sacré-Cœur.",
			PricePerNight: 189,
			Rating:        4.3,
			Amenities:     []string{"wifi", "bar", "air conditioning"},
			Images:        []string{"https://images.staybook.dev/montmartre/1.jpg"},
			Featured:      true,
			Rooms: []model.Room{
				room(model.RoomDouble, 189, 2, 8),
				room(model.RoomDeluxe, 260, 2, 2),
			},
			CreatedAt: now,
		},
		{
			Name:          "Calanques Resort",
			Location:      "Marseille, France",
			Description:   "Pool terraces above the Calanques.",
			PricePerNight: 230,
			Rating:        4.8,
			Amenities:     []string{"wifi", "pool", "spa", "gym", "parking"},
			Images:        []string{"https://images.staybook.dev/calanques/1.jpg"},
			Featured:      true,
			Rooms: []model.Room{
				room(model.RoomDouble, 230, 2, 10),
				room(model.RoomFamily, 340, 5, 3),
				room(model.RoomPresidential, 990, 6, 1),
			},
			CreatedAt: now,
		},
		{
			Name:          "Auberge des Vignes",
			Location:      "Bordeaux, France",
			Description:   "Family-run inn among the vineyards.",
			PricePerNight: 85,
			Rating:        4.1,
			Amenities:     []string{"wifi", "restaurant", "parking"},
			Images:        []string{"https://images.staybook.dev/vignes/1.jpg"},
			Rooms: []model.Room{
				room(model.RoomSingle, 65, 1, 3),
				room(model.RoomDouble, 85, 2, 5),
				room(model.RoomTriple, 110, 3, 2),
			},
			CreatedAt: now,
		},
		{
			Name:          "Presqu'île Lodge",
			Location:      "Lyon, France",
			Description:   "Business hotel on the Presqu'île.",
			PricePerNight: 120,
			Rating:        3.9,
			Amenities:     []string{"wifi", "gym", "air conditioning"},
			Images:        []string{"https://images.staybook.dev/presquile/1.jpg"},
			Rooms: []model.Room{
				room(model.RoomSingle, 99, 1, 12),
				room(model.RoomDouble, 120, 2, 12),
			},
			CreatedAt: now,
		},
		{
			Name:          "Promenade Palace",
			Location:      "Nice, France",
			Description:   "Belle Époque palace on the Promenade des Anglais.",
			PricePerNight: 410,
			Rating:        4.9,
			Amenities:     []string{"wifi", "pool", "spa", "beach", "restaurant", "bar"},
			Images:        []string{"https://images.staybook.dev/promenade/1.jpg"},
			Featured:      true,
			Rooms: []model.Room{
				room(model.RoomDeluxe, 410, 2, 6),
				room(model.RoomSuite, 780, 4, 2),
				room(model.RoomPresidential, 2400, 6, 1),
			},
			CreatedAt: now,
		},
	}
}

// SeedHotels inserts SampleHotels when the hotels collection is empty.
func SeedHotels(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	coll := client.Database(dbName).Collection(HotelsCollection)

	count, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count hotels: %w", err)
	}
	if count > 0 {
		log.Info("Hotels already present, skipping seed", "count", count)
		return nil
	}

	hotels := SampleHotels(time.Now().UTC().Truncate(time.Millisecond))
	docs := make([]any, 0, len(hotels))
	for _, h := range hotels {
		docs = append(docs, h)
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to seed hotels: %w", err)
	}

	log.Info("Seeded hotels", "count", len(docs))
	return nil
}
