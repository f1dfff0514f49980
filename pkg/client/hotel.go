package client

import (
	"context"
	"net/url"
	"strconv"

	"staybook/pkg/model"
)

const DateLayout = "2006-01-02"

// listPageSize matches the backend's maximum page size.
const listPageSize = 100

type HotelClient struct {
	httpClient *HttpClient
}

func NewHotelClient(httpClient *HttpClient) *HotelClient {
	return &HotelClient{httpClient: httpClient}
}

// List returns every hotel matching q. Without an explicit Limit it walks the
// backend pages until total_count is reached, since the backend caps a page.
func (c *HotelClient) List(ctx context.Context, q model.HotelQuery) ([]model.Hotel, error) {
	if q.Limit > 0 {
		hotels, _, err := c.listPage(ctx, q)
		return hotels, err
	}

	q.Limit = listPageSize
	var all []model.Hotel
	for {
		page, total, err := c.listPage(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		q.Offset += int64(len(page))
		if len(page) < listPageSize || (total > 0 && int64(len(all)) >= total) {
			return all, nil
		}
	}
}

func (c *HotelClient) listPage(ctx context.Context, q model.HotelQuery) ([]model.Hotel, int64, error) {
	params := url.Values{}
	if q.Location != "" {
		params.Set("location", q.Location)
	}
	if q.MinPrice != nil {
		params.Set("minPrice", strconv.FormatFloat(*q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice != nil {
		params.Set("maxPrice", strconv.FormatFloat(*q.MaxPrice, 'f', -1, 64))
	}
	if q.MinRating > 0 {
		params.Set("rating", strconv.FormatFloat(q.MinRating, 'f', -1, 64))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.FormatInt(q.Offset, 10))
	}

	resp, err := c.httpClient.GET(ctx, "/api/hotels?"+params.Encode())
	if err != nil {
		return nil, 0, err
	}
	var hotels []model.Hotel
	total, err := decodePaginated(resp, &hotels)
	if err != nil {
		return nil, 0, err
	}
	return hotels, total, nil
}

func (c *HotelClient) Featured(ctx context.Context) ([]model.Hotel, error) {
	resp, err := c.httpClient.GET(ctx, "/api/hotels/featured")
	if err != nil {
		return nil, err
	}
	var hotels []model.Hotel
	if err := decodeData(resp, &hotels); err != nil {
		return nil, err
	}
	return hotels, nil
}

func (c *HotelClient) GetByID(ctx context.Context, id string) (*model.Hotel, error) {
	resp, err := c.httpClient.GET(ctx, "/api/hotels/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var hotel model.Hotel
	if err := decodeData(resp, &hotel); err != nil {
		return nil, err
	}
	return &hotel, nil
}

func (c *HotelClient) Rooms(ctx context.Context, hotelID string) ([]model.Room, error) {
	resp, err := c.httpClient.GET(ctx, "/api/hotels/"+url.PathEscape(hotelID)+"/rooms")
	if err != nil {
		return nil, err
	}
	var rooms []model.Room
	if err := decodeData(resp, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *HotelClient) Availability(ctx context.Context, hotelID string, q model.AvailabilityQuery) ([]model.RoomAvailability, error) {
	params := url.Values{}
	params.Set("checkIn", q.CheckIn.Format(DateLayout))
	params.Set("checkOut", q.CheckOut.Format(DateLayout))
	params.Set("guests", strconv.Itoa(q.Guests))

	path := "/api/hotels/" + url.PathEscape(hotelID) + "/availability?" + params.Encode()
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, err
	}
	var results []model.RoomAvailability
	if err := decodeData(resp, &results); err != nil {
		return nil, err
	}
	return results, nil
}
