package session

import (
	"errors"
	"sync"
	"time"

	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
)

var (
	ErrInvalidDates  = errors.New("check-out must be at least one night after check-in")
	ErrInvalidGuests = errors.New("guest count does not fit the room")
)

// Draft is the stay a client has committed to before paying.
type Draft struct {
	HotelID       string             `json:"hotelId"`
	Hotel         model.HotelSummary `json:"hotel"`
	RoomID        string             `json:"roomId"`
	RoomType      model.RoomType     `json:"roomType"`
	CheckIn       time.Time          `json:"checkIn"`
	CheckOut      time.Time          `json:"checkOut"`
	Guests        int                `json:"guests"`
	Nights        int                `json:"nights"`
	PricePerNight float64            `json:"pricePerNight"`
	Subtotal      float64            `json:"subtotal"`
	Taxes         float64            `json:"taxes"`
	Total         float64            `json:"total"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// NewDraft prices a stay: subtotal is nights times the room rate, taxes are
// subtotal times taxRate, both rounded to cents.
func NewDraft(hotel *model.Hotel, room model.Room, checkIn, checkOut time.Time, guests int, taxRate float64) (*Draft, error) {
	nights := Nights(checkIn, checkOut)
	if nights < 1 {
		return nil, ErrInvalidDates
	}
	if guests < 1 || (room.MaxGuests > 0 && guests > room.MaxGuests) {
		return nil, ErrInvalidGuests
	}

	subtotal := sanitizer.RoundCents(float64(nights) * room.PricePerNight)
	taxes := sanitizer.RoundCents(subtotal * taxRate)

	summary := model.HotelSummary{ID: hotel.ID, Name: hotel.Name, Location: hotel.Location}
	if len(hotel.Images) > 0 {
		summary.Image = hotel.Images[0]
	}

	return &Draft{
		HotelID:       hotel.ID,
		Hotel:         summary,
		RoomID:        room.ID,
		RoomType:      room.Type,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Guests:        guests,
		Nights:        nights,
		PricePerNight: room.PricePerNight,
		Subtotal:      subtotal,
		Taxes:         taxes,
		Total:         sanitizer.RoundCents(subtotal + taxes),
		CreatedAt:     time.Now(),
	}, nil
}

// Nights counts calendar nights between two dates, ignoring time of day.
func Nights(checkIn, checkOut time.Time) int {
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)
	return int(out.Sub(in).Hours() / 24)
}

// Holder is a single slot for the current draft. Set overwrites without
// condition and nothing expires it.
type Holder struct {
	mu    sync.RWMutex
	draft *Draft
}

func (h *Holder) Set(d *Draft) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d == nil {
		h.draft = nil
		return
	}
	c := *d
	h.draft = &c
}

// Get returns a copy of the current draft, or nil.
func (h *Holder) Get() *Draft {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.draft == nil {
		return nil
	}
	c := *h.draft
	return &c
}

func (h *Holder) Clear() {
	h.Set(nil)
}
