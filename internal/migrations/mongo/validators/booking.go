package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"hotel_id",
			"room_id",
			"check_in",
			"check_out",
			"guests",
			"nights",
			"total",
			"status",
			"payment_status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"hotel_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"room_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"check_in": bson.M{
				"bsonType": "date",
			},

			"check_out": bson.M{
				"bsonType": "date",
			},

			"guests": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  20,
			},

			"nights": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"subtotal": bson.M{"bsonType": "number", "minimum": 0},
			"taxes":    bson.M{"bsonType": "number", "minimum": 0},
			"total":    bson.M{"bsonType": "number", "minimum": 0},

			"status": bson.M{
				"enum": []string{"pending", "confirmed", "completed", "cancelled"},
			},

			"payment_status": bson.M{
				"enum": []string{"pending", "paid", "failed", "refunded"},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
