package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/validator"
	hotelserrors "staybook/internal/hotels/errors"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

const lockTTL = 10 * time.Second

type HotelFinder interface {
	FindByID(ctx context.Context, id string) (*model.Hotel, error)
}

// EventPublisher is satisfied by kafka.BookingEventPublisher.
type EventPublisher interface {
	PublishStatusChange(ctx context.Context, booking *model.Booking, reason string) error
}

type BookingService interface {
	Create(ctx context.Context, body *model.BookingCreate) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Booking, error)
	Receipt(ctx context.Context, id string) (*model.Receipt, error)
	Cancel(ctx context.Context, id string) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.RoomLockRepository
	hotels    HotelFinder
	validator *validator.BookingValidator
	events    EventPublisher
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.RoomLockRepository,
	hotels HotelFinder,
	validator *validator.BookingValidator,
	events EventPublisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		hotels:    hotels,
		validator: validator,
		events:    events,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, body *model.BookingCreate) (*model.Booking, error) {
	body.UserID = sanitizer.TrimAndNormalize(body.UserID)
	if err := s.validator.Validate(body, s.now()); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	hotel, err := s.findHotel(ctx, body.HotelID)
	if err != nil {
		return nil, err
	}
	room, err := findRoom(hotel, body.RoomID)
	if err != nil {
		return nil, apperrors.NotFoundWithID("Room", body.RoomID)
	}
	if body.Guests > room.MaxGuests {
		return nil, apperrors.Validation("Booking validation failed", map[string]any{
			"error": fmt.Sprintf("%s: %d guests for a room of %d", bookingserrors.ErrTooManyGuests, body.Guests, room.MaxGuests),
		})
	}

	booking := s.price(body, hotel, room)

	lockID, err := s.acquireRoomLock(ctx, body.HotelID, body.RoomID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseRoomLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release room lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		booked, err := s.repo.CountOverlapping(sessCtx, booking.HotelID, booking.RoomID, booking.CheckIn, booking.CheckOut)
		if err != nil {
			return apperrors.Internal("Failed to check availability", err)
		}
		if booked >= int64(room.Quantity) {
			return apperrors.Wrap(bookingserrors.ErrRoomUnavailable, apperrors.CodeConflict,
				"Room is not available for the selected dates", http.StatusConflict)
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "hotel_id", body.HotelID, "room_id", body.RoomID, "error", err)
		return nil, err
	}

	s.publish(ctx, booking, model.ReasonBookingCreated)
	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"hotel_id", booking.HotelID,
		"room_id", booking.RoomID,
		"check_in", booking.CheckIn,
		"nights", booking.Nights,
	)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, id, "Failed to retrieve booking")
	}

	return booking, nil
}

func (s *bookingService) ListByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	userID = sanitizer.TrimAndNormalize(userID)
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	bookings, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "user_id", userID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	s.cfg.Log.Debug("Bookings listed", "user_id", userID, "count", len(bookings))
	return bookings, nil
}

func (s *bookingService) Receipt(ctx context.Context, id string) (*model.Receipt, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return BuildReceipt(booking, s.now().UTC()), nil
}

// Cancel refunds paid bookings. Completed, cancelled and already started
// stays cannot be cancelled.
func (s *bookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	var cancelled *model.Booking
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			return mapRepositoryError(err, id, "Failed to retrieve booking")
		}
		if !Cancellable(existing, s.now()) {
			return apperrors.Wrap(bookingserrors.ErrNotCancellable, apperrors.CodeConflict,
				fmt.Sprintf("Booking in status %q cannot be cancelled", existing.Status), http.StatusConflict)
		}

		paymentStatus := existing.PaymentStatus
		if paymentStatus == model.PaymentPaid {
			paymentStatus = model.PaymentRefunded
		}
		cancelled, err = s.repo.UpdateStatus(sessCtx, id, model.BookingCancelled, paymentStatus)
		if err != nil {
			return mapRepositoryError(err, id, "Failed to cancel booking")
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Booking cancellation failed", "id", id, "error", err)
		return nil, err
	}

	s.publish(ctx, cancelled, model.ReasonCancelledByUser)
	s.cfg.Log.Info("Booking cancelled", "id", id, "payment_status", cancelled.PaymentStatus)
	return cancelled, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err := s.validator.ValidateStatusUpdate(update); err != nil {
		s.cfg.Log.Warn("Booking status update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid status update", map[string]any{"error": err.Error()})
	}

	var booking *model.Booking
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			return mapRepositoryError(err, id, "Failed to retrieve booking")
		}
		if update.Status != "" && !existing.Status.CanTransitionTo(update.Status) {
			return apperrors.Wrap(bookingserrors.ErrInvalidTransition, apperrors.CodeConflict,
				fmt.Sprintf("Booking cannot move from %q to %q", existing.Status, update.Status), http.StatusConflict)
		}

		booking, err = s.repo.UpdateStatus(sessCtx, id, update.Status, update.PaymentStatus)
		if err != nil {
			return mapRepositoryError(err, id, "Failed to update booking status")
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Booking status update failed", "id", id, "error", err)
		return nil, err
	}

	s.publish(ctx, booking, model.ReasonAdminStatusChange)
	s.cfg.Log.Info("Booking status updated",
		"id", id,
		"status", booking.Status,
		"payment_status", booking.PaymentStatus,
	)
	return booking, nil
}

// --- Helpers ---

func Cancellable(b *model.Booking, now time.Time) bool {
	if b.Status == model.BookingCancelled || !b.Status.CanTransitionTo(model.BookingCancelled) {
		return false
	}
	return b.CheckIn.After(now)
}

func BuildReceipt(b *model.Booking, issuedAt time.Time) *model.Receipt {
	r := &model.Receipt{
		BookingID:     b.ID,
		ReceiptNumber: receiptNumber(b),
		RoomType:      b.RoomType,
		CheckIn:       b.CheckIn,
		CheckOut:      b.CheckOut,
		Nights:        b.Nights,
		Guests:        b.Guests,
		PricePerNight: b.PricePerNight,
		Subtotal:      b.Subtotal,
		Taxes:         b.Taxes,
		Total:         b.Total,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		IssuedAt:      issuedAt,
	}
	if b.Hotel != nil {
		r.HotelName = b.Hotel.Name
		r.HotelLocation = b.Hotel.Location
	}
	return r
}

func receiptNumber(b *model.Booking) string {
	suffix := b.ID
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	return fmt.Sprintf("SB-%s-%s", b.CreatedAt.UTC().Format("20060102"), strings.ToUpper(suffix))
}

func (s *bookingService) price(body *model.BookingCreate, hotel *model.Hotel, room *model.Room) *model.Booking {
	nights := max(int(body.CheckOut.Sub(body.CheckIn).Hours()/24), 1)
	subtotal := sanitizer.RoundCents(room.PricePerNight * float64(nights))
	taxes := sanitizer.RoundCents(subtotal * s.cfg.TaxRate)

	paymentStatus := body.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = model.PaymentPending
	}
	status := model.BookingPending
	if paymentStatus == model.PaymentPaid {
		status = model.BookingConfirmed
	}

	var image string
	if len(hotel.Images) > 0 {
		image = hotel.Images[0]
	}

	return &model.Booking{
		UserID:   body.UserID,
		HotelID:  body.HotelID,
		RoomID:   body.RoomID,
		RoomType: room.Type,
		Hotel: &model.HotelSummary{
			ID:       hotel.ID,
			Name:     hotel.Name,
			Location: hotel.Location,
			Image:    image,
		},
		CheckIn:       body.CheckIn.UTC(),
		CheckOut:      body.CheckOut.UTC(),
		Guests:        body.Guests,
		Nights:        nights,
		PricePerNight: room.PricePerNight,
		Subtotal:      subtotal,
		Taxes:         taxes,
		Total:         sanitizer.RoundCents(subtotal + taxes),
		Status:        status,
		PaymentStatus: paymentStatus,
	}
}

func (s *bookingService) findHotel(ctx context.Context, id string) (*model.Hotel, error) {
	hotel, err := s.hotels.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, hotelserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Hotel", id)
		}
		if errors.Is(err, hotelserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid hotel ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve hotel", err)
	}
	return hotel, nil
}

func findRoom(hotel *model.Hotel, roomID string) (*model.Room, error) {
	for i := range hotel.Rooms {
		if hotel.Rooms[i].ID == roomID {
			return &hotel.Rooms[i], nil
		}
	}
	return nil, bookingserrors.ErrRoomNotFound
}

func mapRepositoryError(err error, id, message string) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	return apperrors.Internal(message, err)
}

// publish never fails the request: the gateway's poll picks the change up
// when the event is lost.
func (s *bookingService) publish(ctx context.Context, booking *model.Booking, reason string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishStatusChange(ctx, booking, reason); err != nil {
		s.cfg.Log.Warn("Failed to publish booking status event",
			"id", booking.ID,
			"reason", reason,
			"error", err,
		)
	}
}

// acquireRoomLock serialises booking creation for one room. Returns a
// conflict while another request holds the lock.
func (s *bookingService) acquireRoomLock(ctx context.Context, hotelID, roomID string) (string, error) {
	lockID := fmt.Sprintf("room_lock_%s_%s", hotelID, roomID)

	lock := &model.RoomLock{
		ID:        lockID,
		ExpiresAt: s.now().Add(lockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This room is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire room lock", err)
	}

	return lockID, nil
}

func (s *bookingService) releaseRoomLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}
