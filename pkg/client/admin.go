package client

import (
	"context"
	"net/url"

	"staybook/pkg/model"
)

type AdminClient struct {
	httpClient *HttpClient
}

func NewAdminClient(httpClient *HttpClient) *AdminClient {
	return &AdminClient{httpClient: httpClient}
}

func (c *AdminClient) UpdateBookingStatus(ctx context.Context, id string, update model.BookingStatusUpdate) (*model.Booking, error) {
	resp, err := c.httpClient.PATCH(ctx, "/api/admin/bookings/"+url.PathEscape(id)+"/status", update)
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp)
}
