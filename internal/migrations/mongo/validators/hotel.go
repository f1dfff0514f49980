package validators

import "go.mongodb.org/mongo-driver/bson"

var HotelValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"location",
			"price_per_night",
			"rating",
			"rooms",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 120,
			},

			"location": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 120,
			},

			"price_per_night": bson.M{
				"bsonType": "number",
				"minimum":  0,
			},

			"rating": bson.M{
				"bsonType": "number",
				"minimum":  1,
				"maximum":  5,
			},

			"amenities": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},

			"featured": bson.M{
				"bsonType": "bool",
			},

			"rooms": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"_id", "type", "price_per_night", "max_guests", "quantity"},
					"properties": bson.M{
						"_id": bson.M{
							"bsonType":  "string",
							"minLength": 24,
							"maxLength": 24,
						},
						"type": bson.M{
							"enum": []string{"single", "double", "triple", "suite", "family", "deluxe", "presidential"},
						},
						"price_per_night": bson.M{
							"bsonType":         "number",
							"minimum":          0,
							"exclusiveMinimum": true,
						},
						"max_guests": bson.M{
							"bsonType": []string{"int", "long"},
							"minimum":  1,
							"maximum":  20,
						},
						"quantity": bson.M{
							"bsonType": []string{"int", "long"},
							"minimum":  1,
						},
					},
				},
			},
		},
	},
}
