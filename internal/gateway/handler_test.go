package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"staybook/internal/history"
	"staybook/internal/payment"
	"staybook/internal/search"
	"staybook/internal/session"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"staybook/pkg/signal"

	"github.com/julienschmidt/httprouter"
)

type mockHotels struct {
	hotels []model.Hotel
}

func (m *mockHotels) List(context.Context, model.HotelQuery) ([]model.Hotel, error) {
	return m.hotels, nil
}

func (m *mockHotels) GetByID(_ context.Context, id string) (*model.Hotel, error) {
	for _, h := range m.hotels {
		if h.ID == id {
			return &h, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockHotels) Availability(context.Context, string, model.AvailabilityQuery) ([]model.RoomAvailability, error) {
	return []model.RoomAvailability{{Type: model.RoomDouble, IsAvailable: true}}, nil
}

type mockBookings struct {
	mu       sync.Mutex
	bookings []model.Booking
}

func (m *mockBookings) ListByUser(context.Context, string) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.bookings), nil
}

func (m *mockBookings) Cancel(_ context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.bookings {
		if m.bookings[i].ID == id {
			m.bookings[i].Status = model.BookingCancelled
			b := m.bookings[i]
			return &b, nil
		}
	}
	return nil, errors.New("not found")
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
}

type testServer struct {
	t        *testing.T
	router   *httprouter.Router
	bookings *mockBookings
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	hotels := &mockHotels{hotels: []model.Hotel{
		{ID: "h1", Name: "Le Marais Inn", Location: "Paris", PricePerNight: 180, Rating: 4.2, Amenities: []string{"wifi"},
			Rooms: []model.Room{{ID: "r1", Type: model.RoomDouble, PricePerNight: 180, MaxGuests: 2, Quantity: 2, IsAvailable: true}}},
		{ID: "h2", Name: "Riviera Palace", Location: "Nice", PricePerNight: 420, Rating: 4.8, Amenities: []string{"pool"}},
	}}
	bookings := &mockBookings{bookings: []model.Booking{
		{ID: "b1", Hotel: &model.HotelSummary{Name: "Le Marais Inn", Location: "Paris"}, CheckIn: time.Now().AddDate(0, 0, 7), Total: 400, Status: model.BookingConfirmed},
		{ID: "b2", Hotel: &model.HotelSummary{Name: "Riviera Palace", Location: "Nice"}, CheckIn: time.Now().AddDate(0, 0, -7), Total: 800, Status: model.BookingCompleted},
	}}

	settings := session.Settings{
		Ceilings:             search.Ceilings{Search: 1000, Listing: 10000},
		Listing:              search.ListingConfig{Debounce: time.Hour, PageSize: 1},
		AvailabilityDebounce: time.Hour,
		RequestTimeout:       time.Second,
		Intervals:            history.Intervals{MyBookings: time.Hour, BookingStatus: time.Hour},
		Payment:              payment.Config{Delay: time.Millisecond, RedirectDelay: 2 * time.Second},
		TaxRate:              0.10,
		InboxCapacity:        10,
	}
	registry := session.NewRegistry(func(string) session.Backend {
		return session.Backend{Hotels: hotels, Bookings: bookings}
	}, signal.NewMemorySignal(), settings, time.Hour, logger.Discard())
	t.Cleanup(registry.Close)

	router := httprouter.New()
	NewGatewayHandler(registry, logger.Discard()).RegisterRoutes(router)
	return &testServer{t: t, router: router, bookings: bookings}
}

func (s *testServer) do(method, path string, body any) (int, envelope) {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			s.t.Fatalf("%s %s: invalid JSON %q", method, path, rec.Body.String())
		}
	}
	return rec.Code, env
}

func (s *testServer) createSession() string {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/v1/sessions", map[string]string{"userId": "u1", "token": "tok"})
	if code != http.StatusCreated {
		s.t.Fatalf("create session status = %d (%s)", code, env.Error)
	}
	var resp createSessionResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil || resp.ID == "" {
		s.t.Fatalf("create session response = %s", env.Data)
	}
	return resp.ID
}

func TestGateway_UnknownSession(t *testing.T) {
	srv := newTestServer(t)

	code, env := srv.do(http.MethodGet, "/api/v1/sessions/nope/filters", nil)
	if code != http.StatusNotFound || env.Code != "NOT_FOUND" {
		t.Errorf("status = %d, code = %s", code, env.Code)
	}
}

func TestGateway_CreateSessionRequiresUser(t *testing.T) {
	srv := newTestServer(t)

	code, _ := srv.do(http.MethodPost, "/api/v1/sessions", map[string]string{"token": "tok"})
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestGateway_FiltersSearchAndPaging(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createSession()
	base := "/api/v1/sessions/" + id

	code, env := srv.do(http.MethodPatch, base+"/filters", map[string]any{"location": "Paris", "checkIn": "2026-11-01"})
	if code != http.StatusAccepted {
		t.Fatalf("patch filters status = %d (%s)", code, env.Error)
	}
	var filters search.SearchFilters
	_ = json.Unmarshal(env.Data, &filters)
	if filters.Location != "Paris" || filters.CheckIn == nil {
		t.Errorf("filters = %+v", filters)
	}

	code, _ = srv.do(http.MethodPatch, base+"/filters", map[string]any{"checkIn": "01/11/2026"})
	if code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", code)
	}

	code, _ = srv.do(http.MethodPost, base+"/filters/reset", map[string]string{"profile": "listing"})
	if code != http.StatusOK {
		t.Fatalf("reset status = %d", code)
	}

	code, env = srv.do(http.MethodPost, base+"/search", nil)
	if code != http.StatusOK {
		t.Fatalf("search status = %d (%s)", code, env.Error)
	}
	var page search.Page[model.Hotel]
	_ = json.Unmarshal(env.Data, &page)
	if page.Total != 2 || page.TotalPages != 2 || len(page.Items) != 1 {
		t.Errorf("page = %+v", page)
	}

	code, env = srv.do(http.MethodPut, base+"/sort", map[string]string{"sort": "price_high"})
	if code != http.StatusOK {
		t.Fatalf("sort status = %d", code)
	}
	_ = json.Unmarshal(env.Data, &page)
	if page.Items[0].ID != "h2" {
		t.Errorf("first hotel after price_high = %s", page.Items[0].ID)
	}

	_, env = srv.do(http.MethodGet, base+"/hotels?page=2", nil)
	_ = json.Unmarshal(env.Data, &page)
	if page.Page != 2 || page.Items[0].ID != "h1" {
		t.Errorf("page 2 = %+v", page)
	}

	code, _ = srv.do(http.MethodPut, base+"/sort", map[string]string{"sort": "cheapest"})
	if code != http.StatusBadRequest {
		t.Errorf("unknown sort status = %d", code)
	}
}

func TestGateway_AvailabilityDraftAndPayment(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createSession()
	base := "/api/v1/sessions/" + id

	if code, _ := srv.do(http.MethodPut, base+"/draft", nil); code != http.StatusBadRequest {
		t.Errorf("draft before selection status = %d", code)
	}
	if code, _ := srv.do(http.MethodGet, base+"/draft", nil); code != http.StatusNotFound {
		t.Errorf("get empty draft status = %d", code)
	}

	if code, env := srv.do(http.MethodPost, base+"/hotel", map[string]string{"hotelId": "h1"}); code != http.StatusOK {
		t.Fatalf("load hotel status = %d (%s)", code, env.Error)
	}

	code, _ := srv.do(http.MethodPatch, base+"/availability", map[string]any{
		"checkIn": "2026-11-01", "checkOut": "2026-11-03", "guests": 2, "roomType": "double",
	})
	if code != http.StatusAccepted {
		t.Fatalf("availability status = %d", code)
	}
	if code, _ := srv.do(http.MethodPatch, base+"/availability", map[string]any{"roomType": "castle"}); code != http.StatusBadRequest {
		t.Errorf("bad room type status = %d", code)
	}

	code, env := srv.do(http.MethodPut, base+"/draft", nil)
	if code != http.StatusOK {
		t.Fatalf("commit draft status = %d (%s)", code, env.Error)
	}
	var draft session.Draft
	_ = json.Unmarshal(env.Data, &draft)
	if draft.Nights != 2 || draft.Total != 396 {
		t.Errorf("draft = %+v", draft)
	}

	form := map[string]string{
		"cardNumber":     "0000 1111 2222 3333",
		"expiry":         "12/28",
		"cvc":            "123",
		"cardholderName": "Jean Dupont",
		"email":          "jean@example.com",
		"phone":          "06 12 34 56 78",
	}
	code, env = srv.do(http.MethodPost, base+"/payment", form)
	if code != http.StatusPaymentRequired || env.Error != "Carte refusée par la banque" {
		t.Errorf("declined payment = %d %q", code, env.Error)
	}

	form["cardNumber"] = "4242 4242 4242 4242"
	code, env = srv.do(http.MethodPost, base+"/payment", form)
	if code != http.StatusOK {
		t.Fatalf("payment status = %d (%s)", code, env.Error)
	}
	var result payment.Result
	_ = json.Unmarshal(env.Data, &result)
	if result.State != payment.StateSucceeded || result.RedirectTo != "/my-bookings" {
		t.Errorf("result = %+v", result)
	}

	if code, _ := srv.do(http.MethodPost, base+"/payment", form); code != http.StatusConflict {
		t.Errorf("payment after success status = %d", code)
	}

	form["expiry"] = "13/28"
	code, env = srv.do(http.MethodPost, base+"/payment", form)
	if code != http.StatusUnprocessableEntity {
		t.Errorf("invalid form status = %d (%s)", code, env.Code)
	}
}

func TestGateway_BookingsAndNotifications(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createSession()
	base := "/api/v1/sessions/" + id

	if code, _ := srv.do(http.MethodPost, base+"/refresh", map[string]string{"reason": "focus"}); code != http.StatusAccepted {
		t.Errorf("refresh status = %d", code)
	}
	if code, _ := srv.do(http.MethodPost, base+"/refresh", map[string]string{"reason": "poll"}); code != http.StatusBadRequest {
		t.Errorf("refresh with poll reason status = %d", code)
	}
	if code, _ := srv.do(http.MethodPut, base+"/bookings/view", map[string]string{"view": "booking_status"}); code != http.StatusOK {
		t.Errorf("set view status = %d", code)
	}

	var entries []history.Entry
	deadline := time.Now().Add(2 * time.Second)
	for len(entries) == 0 && time.Now().Before(deadline) {
		_, env := srv.do(http.MethodGet, base+"/bookings", nil)
		_ = json.Unmarshal(env.Data, &entries)
		time.Sleep(10 * time.Millisecond)
	}
	if len(entries) != 2 {
		t.Fatalf("bookings = %d, want 2", len(entries))
	}

	_, env := srv.do(http.MethodGet, base+"/bookings?tab=upcoming&q=paris", nil)
	_ = json.Unmarshal(env.Data, &entries)
	if len(entries) != 1 || entries[0].ID != "b1" || !entries[0].CanCancel {
		t.Errorf("upcoming entries = %+v", entries)
	}

	if code, _ := srv.do(http.MethodGet, base+"/bookings?from=yesterday", nil); code != http.StatusBadRequest {
		t.Errorf("bad from status = %d", code)
	}

	if code, _ := srv.do(http.MethodPost, base+"/bookings/b2/cancel", nil); code != http.StatusConflict {
		t.Errorf("cancel past booking status = %d", code)
	}
	code, env := srv.do(http.MethodPost, base+"/bookings/b1/cancel", nil)
	if code != http.StatusOK {
		t.Fatalf("cancel status = %d (%s)", code, env.Error)
	}

	_, env = srv.do(http.MethodGet, base+"/notifications", nil)
	var notes []map[string]any
	_ = json.Unmarshal(env.Data, &notes)
	if len(notes) == 0 {
		t.Errorf("expected a cancellation notification")
	}

	if code, _ := srv.do(http.MethodDelete, base, nil); code != http.StatusNoContent {
		t.Errorf("delete session status = %d", code)
	}
}

func TestFiltersRequest_ClearsOnlySentDate(t *testing.T) {
	empty, day := "", "2030-05-02"

	tests := []struct {
		name         string
		req          filtersRequest
		wantClearIn  bool
		wantClearOut bool
		wantCheckOut bool
		wantCheckIn  bool
	}{
		{"clear check-in, set check-out", filtersRequest{CheckIn: &empty, CheckOut: &day}, true, false, true, false},
		{"clear check-out only", filtersRequest{CheckOut: &empty}, false, true, false, false},
		{"set check-in only", filtersRequest{CheckIn: &day}, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := tt.req.toUpdate()
			if err != nil {
				t.Fatalf("toUpdate() error = %v", err)
			}
			if u.ClearCheckIn != tt.wantClearIn || u.ClearCheckOut != tt.wantClearOut {
				t.Errorf("clear = %v/%v", u.ClearCheckIn, u.ClearCheckOut)
			}
			if (u.CheckOut != nil) != tt.wantCheckOut || (u.CheckIn != nil) != tt.wantCheckIn {
				t.Errorf("dates = %v/%v", u.CheckIn, u.CheckOut)
			}
		})
	}
}
