package client

import (
	"context"
	"net/url"

	"staybook/pkg/model"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(httpClient *HttpClient) *BookingClient {
	return &BookingClient{httpClient: httpClient}
}

func (c *BookingClient) Create(ctx context.Context, body model.BookingCreate) (*model.Booking, error) {
	resp, err := c.httpClient.POST(ctx, "/api/bookings", body)
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp)
}

func (c *BookingClient) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	resp, err := c.httpClient.GET(ctx, "/api/bookings/user/"+url.PathEscape(userID))
	if err != nil {
		return nil, err
	}
	var bookings []model.Booking
	if err := decodeData(resp, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	resp, err := c.httpClient.GET(ctx, "/api/bookings/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp)
}

func (c *BookingClient) Receipt(ctx context.Context, id string) (*model.Receipt, error) {
	resp, err := c.httpClient.GET(ctx, "/api/bookings/"+url.PathEscape(id)+"/receipt")
	if err != nil {
		return nil, err
	}
	var receipt model.Receipt
	if err := decodeData(resp, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (c *BookingClient) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	resp, err := c.httpClient.PUT(ctx, "/api/bookings/"+url.PathEscape(id)+"/cancel", nil)
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp)
}

func decodeBooking(resp *Response) (*model.Booking, error) {
	var booking model.Booking
	if err := decodeData(resp, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}
