package model

import "time"

type RoomType string

const (
	RoomSingle       RoomType = "single"
	RoomDouble       RoomType = "double"
	RoomTriple       RoomType = "triple"
	RoomSuite        RoomType = "suite"
	RoomFamily       RoomType = "family"
	RoomDeluxe       RoomType = "deluxe"
	RoomPresidential RoomType = "presidential"
)

var RoomTypes = []RoomType{
	RoomSingle, RoomDouble, RoomTriple, RoomSuite, RoomFamily, RoomDeluxe, RoomPresidential,
}

func (t RoomType) Valid() bool {
	for _, rt := range RoomTypes {
		if rt == t {
			return true
		}
	}
	return false
}

type Hotel struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name          string    `json:"name" bson:"name" validate:"required,min=2,max=120"`
	Location      string    `json:"location" bson:"location" validate:"required,min=2,max=120"`
	Description   string    `json:"description" bson:"description" validate:"omitempty,max=2000"`
	PricePerNight float64   `json:"pricePerNight" bson:"price_per_night" validate:"gte=0"`
	Rating        float64   `json:"rating" bson:"rating" validate:"gte=1,lte=5"`
	Amenities     []string  `json:"amenities" bson:"amenities" validate:"omitempty,dive,min=1,max=50"`
	Images        []string  `json:"images" bson:"images" validate:"omitempty,dive,url"`
	Rooms         []Room    `json:"rooms,omitempty" bson:"rooms" validate:"omitempty,dive"`
	Featured      bool      `json:"featured" bson:"featured"`
	Distance      *float64  `json:"distance,omitempty" bson:"distance,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
}

// Room is stored embedded in its hotel. IsAvailable is computed per
// availability query and never persisted.
type Room struct {
	ID            string   `json:"id,omitempty" bson:"_id,omitempty"`
	Type          RoomType `json:"type" bson:"type" validate:"required,oneof=single double triple suite family deluxe presidential"`
	Description   string   `json:"description" bson:"description" validate:"omitempty,max=1000"`
	PricePerNight float64  `json:"pricePerNight" bson:"price_per_night" validate:"gt=0"`
	MaxGuests     int      `json:"maxGuests" bson:"max_guests" validate:"required,min=1,max=20"`
	Quantity      int      `json:"quantity" bson:"quantity" validate:"required,min=1"`
	IsAvailable   bool     `json:"isAvailable" bson:"-"`
}

// RoomAvailability is one entry of an availability response, keyed by room type.
type RoomAvailability struct {
	RoomID         string   `json:"roomId"`
	Type           RoomType `json:"type"`
	IsAvailable    bool     `json:"isAvailable"`
	AvailableCount int      `json:"availableCount"`
	PricePerNight  float64  `json:"pricePerNight"`
}

type AvailabilityQuery struct {
	CheckIn  time.Time `validate:"required"`
	CheckOut time.Time `validate:"required,gtfield=CheckIn"`
	Guests   int       `validate:"min=1,max=20"`
}

// HotelQuery carries the server-side filters accepted by GET /api/hotels.
type HotelQuery struct {
	Location  string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating float64
	Limit     int
	Offset    int64
}
