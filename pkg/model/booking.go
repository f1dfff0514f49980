package model

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
	BookingCompleted: {},
	BookingCancelled: {},
}

func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo reports whether an admin or user action may move a booking
// from s to next. Staying in the same status is always allowed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s == next {
		return s.Valid()
	}
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type HotelSummary struct {
	ID       string `json:"id" bson:"id"`
	Name     string `json:"name" bson:"name"`
	Location string `json:"location" bson:"location"`
	Image    string `json:"image,omitempty" bson:"image,omitempty"`
}

// Booking keeps status and paymentStatus as the backend reports them. Values
// outside the known enums are tolerated on decode.
type Booking struct {
	ID            string        `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        string        `json:"userId" bson:"user_id"`
	HotelID       string        `json:"hotelId" bson:"hotel_id"`
	RoomID        string        `json:"roomId" bson:"room_id"`
	RoomType      RoomType      `json:"roomType,omitempty" bson:"room_type,omitempty"`
	Hotel         *HotelSummary `json:"hotel,omitempty" bson:"hotel,omitempty"`
	CheckIn       time.Time     `json:"checkIn" bson:"check_in"`
	CheckOut      time.Time     `json:"checkOut" bson:"check_out"`
	Guests        int           `json:"guests" bson:"guests"`
	Nights        int           `json:"nights" bson:"nights"`
	PricePerNight float64       `json:"pricePerNight" bson:"price_per_night"`
	Subtotal      float64       `json:"subtotal" bson:"subtotal"`
	Taxes         float64       `json:"taxes" bson:"taxes"`
	Total         float64       `json:"total" bson:"total"`
	Status        BookingStatus `json:"status" bson:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus" bson:"payment_status"`
	CreatedAt     time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time     `json:"updatedAt" bson:"updated_at"`
}

type BookingCreate struct {
	UserID        string        `json:"userId" validate:"required,min=1,max=64"`
	HotelID       string        `json:"hotelId" validate:"required,mongodb"`
	RoomID        string        `json:"roomId" validate:"required,mongodb"`
	CheckIn       time.Time     `json:"checkIn" validate:"required"`
	CheckOut      time.Time     `json:"checkOut" validate:"required,gtfield=CheckIn"`
	Guests        int           `json:"guests" validate:"required,min=1,max=20"`
	PaymentStatus PaymentStatus `json:"paymentStatus,omitempty" validate:"omitempty,oneof=pending paid failed refunded"`
}

type BookingStatusUpdate struct {
	Status        BookingStatus `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed completed cancelled"`
	PaymentStatus PaymentStatus `json:"paymentStatus,omitempty" validate:"omitempty,oneof=pending paid failed refunded"`
}

type Receipt struct {
	BookingID     string        `json:"bookingId"`
	ReceiptNumber string        `json:"receiptNumber"`
	HotelName     string        `json:"hotelName"`
	HotelLocation string        `json:"hotelLocation"`
	RoomType      RoomType      `json:"roomType"`
	CheckIn       time.Time     `json:"checkIn"`
	CheckOut      time.Time     `json:"checkOut"`
	Nights        int           `json:"nights"`
	Guests        int           `json:"guests"`
	PricePerNight float64       `json:"pricePerNight"`
	Subtotal      float64       `json:"subtotal"`
	Taxes         float64       `json:"taxes"`
	Total         float64       `json:"total"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	IssuedAt      time.Time     `json:"issuedAt"`
}

// RoomLock is a short-lived advisory lock serialising booking creation for
// one room. Expired locks are reaped by a TTL index.
type RoomLock struct {
	ID        string    `bson:"_id"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}
