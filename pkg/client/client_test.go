package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) *API {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAPI(NewHttpClient(srv.URL, 2*time.Second, logger.Discard()))
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func TestHotelClient_List_EncodesQuery(t *testing.T) {
	var gotQuery string
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/hotels" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		writeData(w, http.StatusOK, []model.Hotel{{ID: "h1", Name: "Ritz", Location: "Paris"}})
	})

	maxPrice := 300.0
	hotels, err := api.Hotels.List(context.Background(), model.HotelQuery{Location: "Paris", MaxPrice: &maxPrice, MinRating: 4})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(hotels) != 1 || hotels[0].Name != "Ritz" {
		t.Errorf("List() = %+v", hotels)
	}
	if gotQuery != "limit=100&location=Paris&maxPrice=300&rating=4" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestHotelClient_List_FollowsTotalCount(t *testing.T) {
	const total = 250
	catalogue := make([]model.Hotel, total)
	for i := range catalogue {
		catalogue[i] = model.Hotel{ID: strconv.Itoa(i), Name: "Hotel " + strconv.Itoa(i)}
	}

	calls := 0
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if limit <= 0 || limit > 100 {
			limit = 100
		}
		end := min(offset+limit, total)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":        catalogue[offset:end],
			"total_count": total,
			"limit":       limit,
			"offset":      offset,
		})
	})

	hotels, err := api.Hotels.List(context.Background(), model.HotelQuery{Location: "paris"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(hotels) != total {
		t.Fatalf("got %d hotels, want %d", len(hotels), total)
	}
	if hotels[total-1].ID != strconv.Itoa(total-1) {
		t.Errorf("last hotel = %s", hotels[total-1].ID)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestHotelClient_List_ExplicitLimitSinglePage(t *testing.T) {
	calls := 0
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeData(w, http.StatusOK, []model.Hotel{{ID: "h1"}, {ID: "h2"}})
	})

	hotels, err := api.Hotels.List(context.Background(), model.HotelQuery{Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(hotels) != 2 || calls != 1 {
		t.Errorf("hotels = %d, calls = %d", len(hotels), calls)
	}
}

func TestHotelClient_Availability(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("checkIn") != "2026-03-01" || q.Get("checkOut") != "2026-03-04" || q.Get("guests") != "2" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		writeData(w, http.StatusOK, []model.RoomAvailability{{Type: model.RoomDouble, IsAvailable: true}})
	})

	in := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	out := in.AddDate(0, 0, 3)
	got, err := api.Hotels.Availability(context.Background(), "h1", model.AvailabilityQuery{CheckIn: in, CheckOut: out, Guests: 2})
	if err != nil {
		t.Fatalf("Availability() error = %v", err)
	}
	if len(got) != 1 || !got[0].IsAvailable {
		t.Errorf("Availability() = %+v", got)
	}
}

func TestBookingClient_SendsBearerToken(t *testing.T) {
	var auth string
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeData(w, http.StatusOK, []model.Booking{})
	})

	if _, err := api.WithToken("tok-123").Bookings.ListByUser(context.Background(), "u1"); err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if auth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestBookingClient_Cancel_MapsErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
	}{
		{"not found", http.StatusNotFound, `{"error":"Booking not found"}`, apperrors.CodeNotFound},
		{"conflict", http.StatusConflict, `{"error":"booking cannot be cancelled"}`, apperrors.CodeConflict},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, apperrors.CodeUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPut || r.URL.Path != "/api/bookings/b1/cancel" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := api.Bookings.Cancel(context.Background(), "b1")
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("Cancel() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestHttpClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for i := 0; i < 5; i++ {
		if _, err := api.Hotels.Featured(context.Background()); !apperrors.HasCode(err, apperrors.CodeUpstream) {
			t.Fatalf("call %d: error = %v", i, err)
		}
	}

	_, err := api.Hotels.Featured(context.Background())
	if !apperrors.HasCode(err, apperrors.CodeUnavailable) {
		t.Errorf("expected open breaker, got %v", err)
	}
	if calls != 5 {
		t.Errorf("backend called %d times, want 5", calls)
	}
}

func TestDecodeData_NullData(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null}`))
	})

	hotels, err := api.Hotels.Featured(context.Background())
	if err != nil {
		t.Fatalf("Featured() error = %v", err)
	}
	if len(hotels) != 0 {
		t.Errorf("expected empty result, got %d", len(hotels))
	}
}
