package service

import (
	"context"
	"errors"
	"sync"
	"time"

	hotelserrors "staybook/internal/hotels/errors"
	"staybook/internal/hotels/repository"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

const FeaturedLimit = 6

// OccupancyCounter reports how many non-cancelled bookings of a room overlap
// the half-open stay [checkIn, checkOut).
type OccupancyCounter interface {
	CountOverlapping(ctx context.Context, hotelID, roomID string, checkIn, checkOut time.Time) (int64, error)
}

type HotelService interface {
	List(ctx context.Context, q model.HotelQuery) ([]*model.Hotel, int64, error)
	Featured(ctx context.Context) ([]*model.Hotel, error)
	GetByID(ctx context.Context, id string) (*model.Hotel, error)
	Rooms(ctx context.Context, id string) ([]model.Room, error)
	Availability(ctx context.Context, id string, q model.AvailabilityQuery) ([]model.RoomAvailability, error)
}

type hotelService struct {
	repo      repository.HotelRepository
	occupancy OccupancyCounter
	validate  *validator.Validate
	cfg       *config.Config
}

func NewHotelService(repo repository.HotelRepository, occupancy OccupancyCounter, cfg *config.Config) HotelService {
	return &hotelService{
		repo:      repo,
		occupancy: occupancy,
		validate:  validator.New(),
		cfg:       cfg,
	}
}

func (s *hotelService) List(ctx context.Context, q model.HotelQuery) ([]*model.Hotel, int64, error) {
	q.Location = sanitizer.NormalizeLocation(q.Location)
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return nil, 0, apperrors.InvalidInput("minPrice cannot exceed maxPrice")
	}

	var count int64
	var hotels []*model.Hotel
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, q)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count hotels", "error", errCount)
			errCount = apperrors.Internal("Failed to count hotels", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		hotels, errFind = s.repo.FindAll(ctx, q)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list hotels", "location", q.Location, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve hotels", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	for _, h := range hotels {
		s.normalize(h)
	}
	return hotels, count, nil
}

func (s *hotelService) Featured(ctx context.Context) ([]*model.Hotel, error) {
	hotels, err := s.repo.FindFeatured(ctx, FeaturedLimit)
	if err != nil {
		s.cfg.Log.Error("Failed to list featured hotels", "error", err)
		return nil, apperrors.Internal("Failed to retrieve featured hotels", err)
	}
	for _, h := range hotels {
		s.normalize(h)
	}
	return hotels, nil
}

func (s *hotelService) GetByID(ctx context.Context, id string) (*model.Hotel, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Hotel ID cannot be empty")
	}

	hotel, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, hotelserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Hotel", id)
		}
		if errors.Is(err, hotelserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid hotel ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve hotel", err)
	}

	s.normalize(hotel)
	return hotel, nil
}

func (s *hotelService) Rooms(ctx context.Context, id string) ([]model.Room, error) {
	hotel, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if hotel.Rooms == nil {
		return []model.Room{}, nil
	}
	return hotel.Rooms, nil
}

// Availability evaluates every room of the hotel for the stay. A room is
// available when it fits the guests and has fewer overlapping bookings than
// its quantity. Nothing is reserved.
func (s *hotelService) Availability(ctx context.Context, id string, q model.AvailabilityQuery) ([]model.RoomAvailability, error) {
	if q.Guests == 0 {
		q.Guests = 1
	}
	if err := s.validate.Struct(q); err != nil {
		return nil, apperrors.Validation("Invalid availability query", map[string]any{"error": err.Error()})
	}

	hotel, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	results := make([]model.RoomAvailability, 0, len(hotel.Rooms))
	for _, room := range hotel.Rooms {
		booked, err := s.occupancy.CountOverlapping(ctx, hotel.ID, room.ID, q.CheckIn, q.CheckOut)
		if err != nil {
			s.cfg.Log.Error("Failed to count overlapping bookings",
				"hotel_id", hotel.ID,
				"room_id", room.ID,
				"error", err,
			)
			return nil, apperrors.Internal("Failed to check availability", err)
		}
		results = append(results, EvaluateRoom(room, booked, q.Guests))
	}

	s.cfg.Log.Debug("Availability computed",
		"hotel_id", hotel.ID,
		"check_in", q.CheckIn,
		"check_out", q.CheckOut,
		"guests", q.Guests,
		"rooms", len(results),
	)
	return results, nil
}

func EvaluateRoom(room model.Room, booked int64, guests int) model.RoomAvailability {
	free := max(int64(room.Quantity)-booked, 0)
	fits := room.MaxGuests >= guests
	if !fits {
		free = 0
	}
	return model.RoomAvailability{
		RoomID:         room.ID,
		Type:           room.Type,
		IsAvailable:    fits && free > 0,
		AvailableCount: int(free),
		PricePerNight:  room.PricePerNight,
	}
}

func (s *hotelService) normalize(h *model.Hotel) {
	h.Name = sanitizer.NormalizeName(h.Name)
	h.Location = sanitizer.NormalizeLocation(h.Location)
	h.Amenities = sanitizer.NormalizeAmenities(h.Amenities)
	h.Images = sanitizer.NormalizeImageURLs(h.Images)
	for i := range h.Rooms {
		h.Rooms[i].IsAvailable = h.Rooms[i].Quantity > 0
	}
}
