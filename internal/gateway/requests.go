package gateway

import (
	"time"

	"staybook/internal/search"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
)

type createSessionRequest struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type createSessionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// filtersRequest mirrors search.FilterUpdate with dates as YYYY-MM-DD
// strings. An empty date string clears that date only.
type filtersRequest struct {
	Location   *string            `json:"location"`
	CheckIn    *string            `json:"checkIn"`
	CheckOut   *string            `json:"checkOut"`
	Guests     *int               `json:"guests"`
	PriceRange *search.PriceRange `json:"priceRange"`
	Amenities  *[]string          `json:"amenities"`
	Rating     *int               `json:"rating"`
}

func (r filtersRequest) toUpdate() (search.FilterUpdate, error) {
	u := search.FilterUpdate{
		Location:   r.Location,
		Guests:     r.Guests,
		PriceRange: r.PriceRange,
		Amenities:  r.Amenities,
		Rating:     r.Rating,
	}

	u.ClearCheckIn = r.CheckIn != nil && *r.CheckIn == ""
	u.ClearCheckOut = r.CheckOut != nil && *r.CheckOut == ""

	var err error
	if u.CheckIn, err = parseOptionalDate("checkIn", r.CheckIn); err != nil {
		return u, err
	}
	if u.CheckOut, err = parseOptionalDate("checkOut", r.CheckOut); err != nil {
		return u, err
	}
	return u, nil
}

type resetRequest struct {
	Profile string `json:"profile"`
}

type sortRequest struct {
	Sort string `json:"sort"`
}

type hotelRequest struct {
	HotelID string `json:"hotelId"`
}

type availabilityRequest struct {
	CheckIn  *string `json:"checkIn"`
	CheckOut *string `json:"checkOut"`
	Guests   *int    `json:"guests"`
	RoomType *string `json:"roomType"`
}

type refreshRequest struct {
	Reason string `json:"reason"`
}

type viewRequest struct {
	View string `json:"view"`
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := httputil.ParseDate(*value)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid " + field + ": " + *value)
	}
	return &t, nil
}
