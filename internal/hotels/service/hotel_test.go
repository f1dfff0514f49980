package service

import (
	"context"
	"errors"
	"testing"
	"time"

	hotelserrors "staybook/internal/hotels/errors"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

type mockHotelRepository struct {
	findAllFunc  func(ctx context.Context, q model.HotelQuery) ([]*model.Hotel, error)
	countFunc    func(ctx context.Context, q model.HotelQuery) (int64, error)
	findByIDFunc func(ctx context.Context, id string) (*model.Hotel, error)
}

func (m *mockHotelRepository) FindAll(ctx context.Context, q model.HotelQuery) ([]*model.Hotel, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, q)
	}
	return []*model.Hotel{}, nil
}

func (m *mockHotelRepository) Count(ctx context.Context, q model.HotelQuery) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, q)
	}
	return 0, nil
}

func (m *mockHotelRepository) FindFeatured(ctx context.Context, limit int) ([]*model.Hotel, error) {
	return []*model.Hotel{}, nil
}

func (m *mockHotelRepository) FindByID(ctx context.Context, id string) (*model.Hotel, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, hotelserrors.ErrNotFound
}

type mockOccupancy struct {
	booked map[string]int64
	err    error
}

func (m *mockOccupancy) CountOverlapping(ctx context.Context, hotelID, roomID string, checkIn, checkOut time.Time) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.booked[roomID], nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log:         logger.Discard(),
		ReadTimeout: 5 * time.Second,
	}
}

func testHotel() *model.Hotel {
	return &model.Hotel{
		ID:       "64b000000000000000000001",
		Name:     "  Hotel   du Lac ",
		Location: "Annecy",
		Rooms: []model.Room{
			{ID: "r-single", Type: model.RoomSingle, PricePerNight: 90, MaxGuests: 1, Quantity: 2},
			{ID: "r-double", Type: model.RoomDouble, PricePerNight: 140, MaxGuests: 2, Quantity: 1},
			{ID: "r-suite", Type: model.RoomSuite, PricePerNight: 320, MaxGuests: 4, Quantity: 3},
		},
	}
}

func TestAvailability_EvaluatesEveryRoom(t *testing.T) {
	repo := &mockHotelRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Hotel, error) {
			return testHotel(), nil
		},
	}
	occupancy := &mockOccupancy{booked: map[string]int64{"r-single": 1, "r-double": 1}}
	svc := NewHotelService(repo, occupancy, testConfig())

	checkIn := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		guests int
		want   map[model.RoomType]int
	}{
		{"one guest", 1, map[model.RoomType]int{model.RoomSingle: 1, model.RoomDouble: 0, model.RoomSuite: 3}},
		{"two guests", 2, map[model.RoomType]int{model.RoomSingle: 0, model.RoomDouble: 0, model.RoomSuite: 3}},
		{"too many guests", 5, map[model.RoomType]int{model.RoomSingle: 0, model.RoomDouble: 0, model.RoomSuite: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms, err := svc.Availability(context.Background(), "64b000000000000000000001", model.AvailabilityQuery{
				CheckIn:  checkIn,
				CheckOut: checkIn.AddDate(0, 0, 2),
				Guests:   tt.guests,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(rooms) != 3 {
				t.Fatalf("expected 3 rooms, got %d", len(rooms))
			}
			for _, room := range rooms {
				want := tt.want[room.Type]
				if room.AvailableCount != want {
					t.Errorf("%s: availableCount = %d, want %d", room.Type, room.AvailableCount, want)
				}
				if room.IsAvailable != (want > 0) {
					t.Errorf("%s: isAvailable = %v, want %v", room.Type, room.IsAvailable, want > 0)
				}
			}
		})
	}
}

func TestAvailability_InvalidDates(t *testing.T) {
	svc := NewHotelService(&mockHotelRepository{}, &mockOccupancy{}, testConfig())
	checkIn := time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)

	_, err := svc.Availability(context.Background(), "64b000000000000000000001", model.AvailabilityQuery{
		CheckIn:  checkIn,
		CheckOut: checkIn.AddDate(0, 0, -1),
		Guests:   1,
	})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAvailability_CounterFailure(t *testing.T) {
	repo := &mockHotelRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Hotel, error) {
			return testHotel(), nil
		},
	}
	svc := NewHotelService(repo, &mockOccupancy{err: errors.New("mongo down")}, testConfig())
	checkIn := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Availability(context.Background(), "64b000000000000000000001", model.AvailabilityQuery{
		CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, 1), Guests: 1,
	})
	if !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestGetByID_MapsRepositoryErrors(t *testing.T) {
	tests := []struct {
		name     string
		repoErr  error
		wantCode string
	}{
		{"not found", hotelserrors.ErrNotFound, apperrors.CodeNotFound},
		{"invalid id", hotelserrors.ErrInvalidID, apperrors.CodeInvalidInput},
		{"driver error", errors.New("socket closed"), apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockHotelRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.Hotel, error) {
					return nil, tt.repoErr
				},
			}
			svc := NewHotelService(repo, &mockOccupancy{}, testConfig())
			_, err := svc.GetByID(context.Background(), "abc")
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestGetByID_Normalizes(t *testing.T) {
	repo := &mockHotelRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Hotel, error) {
			h := testHotel()
			h.Amenities = []string{" WiFi", "wifi", "Pool "}
			return h, nil
		},
	}
	svc := NewHotelService(repo, &mockOccupancy{}, testConfig())

	hotel, err := svc.GetByID(context.Background(), "64b000000000000000000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hotel.Name != "Hotel du Lac" {
		t.Errorf("name = %q", hotel.Name)
	}
	if len(hotel.Amenities) != 2 || hotel.Amenities[0] != "wifi" || hotel.Amenities[1] != "pool" {
		t.Errorf("amenities = %v", hotel.Amenities)
	}
	for _, room := range hotel.Rooms {
		if !room.IsAvailable {
			t.Errorf("room %s should be flagged available", room.ID)
		}
	}
}

func TestList_ConcurrentCountAndFind(t *testing.T) {
	var seen model.HotelQuery
	repo := &mockHotelRepository{
		countFunc: func(ctx context.Context, q model.HotelQuery) (int64, error) {
			time.Sleep(5 * time.Millisecond)
			return 42, nil
		},
		findAllFunc: func(ctx context.Context, q model.HotelQuery) ([]*model.Hotel, error) {
			seen = q
			return []*model.Hotel{testHotel()}, nil
		},
	}
	svc := NewHotelService(repo, &mockOccupancy{}, testConfig())

	hotels, total, err := svc.List(context.Background(), model.HotelQuery{Location: "  Annecy  ", Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 42 || len(hotels) != 1 {
		t.Errorf("got %d hotels, total %d", len(hotels), total)
	}
	if seen.Location != "Annecy" {
		t.Errorf("location should be normalized before querying, got %q", seen.Location)
	}
}

func TestList_RejectsInvertedPriceRange(t *testing.T) {
	svc := NewHotelService(&mockHotelRepository{}, &mockOccupancy{}, testConfig())
	lo, hi := 500.0, 100.0

	_, _, err := svc.List(context.Background(), model.HotelQuery{MinPrice: &lo, MaxPrice: &hi})
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
