package client

// API groups the typed backend clients that share one HttpClient.
type API struct {
	Hotels   *HotelClient
	Bookings *BookingClient
	Admin    *AdminClient

	httpClient *HttpClient
}

func NewAPI(httpClient *HttpClient) *API {
	return &API{
		Hotels:     NewHotelClient(httpClient),
		Bookings:   NewBookingClient(httpClient),
		Admin:      NewAdminClient(httpClient),
		httpClient: httpClient,
	}
}

// WithToken returns an API whose requests carry the given bearer token.
func (a *API) WithToken(token string) *API {
	return NewAPI(a.httpClient.WithToken(token))
}

func (a *API) HTTP() *HttpClient {
	return a.httpClient
}
