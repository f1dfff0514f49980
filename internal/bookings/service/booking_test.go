package service

import (
	"context"
	"errors"
	"testing"
	"time"

	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/validator"
	hotelserrors "staybook/internal/hotels/errors"
	"staybook/pkg/config"
	mongotx "staybook/pkg/db/mongo"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	hotelID = "64b000000000000000000001"
	roomID  = "64b0000000000000000000a1"
)

type mockBookingRepository struct {
	booked       int64
	existing     *model.Booking
	created      *model.Booking
	updateStatus func(id string, status model.BookingStatus, payment model.PaymentStatus) (*model.Booking, error)
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	booking.ID = "64b0000000000000000000ff"
	booking.CreatedAt = time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	m.created = booking
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.existing == nil {
		return nil, bookingserrors.ErrNotFound
	}
	b := *m.existing
	return &b, nil
}

func (m *mockBookingRepository) FindByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id string, status model.BookingStatus, payment model.PaymentStatus) (*model.Booking, error) {
	if m.updateStatus != nil {
		return m.updateStatus(id, status, payment)
	}
	b := *m.existing
	if status != "" {
		b.Status = status
	}
	if payment != "" {
		b.PaymentStatus = payment
	}
	return &b, nil
}

func (m *mockBookingRepository) CountOverlapping(ctx context.Context, hotelID, roomID string, checkIn, checkOut time.Time) (int64, error) {
	return m.booked, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockLockRepository struct {
	err      error
	released []string
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.RoomLock) (*model.RoomLock, error) {
	if m.err != nil {
		return nil, m.err
	}
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	m.released = append(m.released, lockID)
	return nil
}

type mockHotels struct {
	err error
}

func (m *mockHotels) FindByID(ctx context.Context, id string) (*model.Hotel, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &model.Hotel{
		ID:       hotelID,
		Name:     "Hotel du Lac",
		Location: "Annecy",
		Images:   []string{"https://img.example.com/lac.jpg"},
		Rooms: []model.Room{
			{ID: roomID, Type: model.RoomDouble, PricePerNight: 199.99, MaxGuests: 2, Quantity: 1},
		},
	}, nil
}

type mockEvents struct {
	reasons []string
	err     error
}

func (m *mockEvents) PublishStatusChange(ctx context.Context, booking *model.Booking, reason string) error {
	m.reasons = append(m.reasons, reason)
	return m.err
}

type fixture struct {
	svc    *bookingService
	repo   *mockBookingRepository
	locks  *mockLockRepository
	hotels *mockHotels
	events *mockEvents
}

func newFixture() *fixture {
	log := logger.Discard()
	cfg := &config.Config{Log: log, TaxRate: 0.10, ReadTimeout: time.Second, WriteTimeout: time.Second}
	f := &fixture{
		repo:   &mockBookingRepository{},
		locks:  &mockLockRepository{},
		hotels: &mockHotels{},
		events: &mockEvents{},
	}
	f.svc = NewBookingService(f.repo, f.locks, f.hotels, validator.NewBookingValidator(log), f.events, cfg).(*bookingService)
	f.svc.now = func() time.Time { return time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func validCreate() *model.BookingCreate {
	return &model.BookingCreate{
		UserID:   " user-1 ",
		HotelID:  hotelID,
		RoomID:   roomID,
		CheckIn:  time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2030, 3, 13, 0, 0, 0, 0, time.UTC),
		Guests:   2,
	}
}

func TestCreate_PricesStay(t *testing.T) {
	f := newFixture()

	booking, err := f.svc.Create(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.UserID != "user-1" {
		t.Errorf("userId should be trimmed, got %q", booking.UserID)
	}
	if booking.Nights != 3 {
		t.Errorf("nights = %d, want 3", booking.Nights)
	}
	if booking.Subtotal != 599.97 || booking.Taxes != 60 || booking.Total != 659.97 {
		t.Errorf("pricing = %v/%v/%v", booking.Subtotal, booking.Taxes, booking.Total)
	}
	if booking.Status != model.BookingPending || booking.PaymentStatus != model.PaymentPending {
		t.Errorf("status = %s/%s", booking.Status, booking.PaymentStatus)
	}
	if booking.Hotel == nil || booking.Hotel.Name != "Hotel du Lac" || booking.Hotel.Image == "" {
		t.Errorf("hotel summary not embedded: %+v", booking.Hotel)
	}
	if len(f.locks.released) != 1 {
		t.Errorf("room lock should be released once, got %v", f.locks.released)
	}
	if len(f.events.reasons) != 1 || f.events.reasons[0] != model.ReasonBookingCreated {
		t.Errorf("events = %v", f.events.reasons)
	}
}

func TestCreate_PaidBookingIsConfirmed(t *testing.T) {
	f := newFixture()
	body := validCreate()
	body.PaymentStatus = model.PaymentPaid

	booking, err := f.svc.Create(context.Background(), body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != model.BookingConfirmed {
		t.Errorf("status = %s, want confirmed", booking.Status)
	}
}

func TestCreate_Failures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f *fixture, body *model.BookingCreate)
		wantCode string
		wantErr  error
	}{
		{
			name:     "check-out before check-in",
			setup:    func(f *fixture, b *model.BookingCreate) { b.CheckOut = b.CheckIn.AddDate(0, 0, -1) },
			wantCode: apperrors.CodeValidation,
		},
		{
			name:     "check-in in the past",
			setup:    func(f *fixture, b *model.BookingCreate) { b.CheckIn = time.Date(2029, 12, 1, 0, 0, 0, 0, time.UTC) },
			wantCode: apperrors.CodeValidation,
		},
		{
			name:     "too many guests",
			setup:    func(f *fixture, b *model.BookingCreate) { b.Guests = 3 },
			wantCode: apperrors.CodeValidation,
		},
		{
			name:     "unknown hotel",
			setup:    func(f *fixture, b *model.BookingCreate) { f.hotels.err = hotelserrors.ErrNotFound },
			wantCode: apperrors.CodeNotFound,
		},
		{
			name:     "unknown room",
			setup:    func(f *fixture, b *model.BookingCreate) { b.RoomID = "64b0000000000000000000b2" },
			wantCode: apperrors.CodeNotFound,
		},
		{
			name:     "room fully booked",
			setup:    func(f *fixture, b *model.BookingCreate) { f.repo.booked = 1 },
			wantCode: apperrors.CodeConflict,
			wantErr:  bookingserrors.ErrRoomUnavailable,
		},
		{
			name: "room lock held",
			setup: func(f *fixture, b *model.BookingCreate) {
				f.locks.err = mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "duplicate key"}}}
			},
			wantCode: apperrors.CodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			body := validCreate()
			tt.setup(f, body)

			_, err := f.svc.Create(context.Background(), body)
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Fatalf("expected %s, got %v", tt.wantCode, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected errors.Is(%v)", tt.wantErr)
			}
			if f.repo.created != nil {
				t.Errorf("no booking should be stored")
			}
		})
	}
}

func TestCancel(t *testing.T) {
	future := time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC)
	past := time.Date(2029, 12, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		existing    *model.Booking
		wantCode    string
		wantPayment model.PaymentStatus
	}{
		{
			name:        "paid booking is refunded",
			existing:    &model.Booking{ID: "b1", Status: model.BookingConfirmed, PaymentStatus: model.PaymentPaid, CheckIn: future},
			wantPayment: model.PaymentRefunded,
		},
		{
			name:        "pending booking keeps payment status",
			existing:    &model.Booking{ID: "b1", Status: model.BookingPending, PaymentStatus: model.PaymentPending, CheckIn: future},
			wantPayment: model.PaymentPending,
		},
		{
			name:     "completed booking",
			existing: &model.Booking{ID: "b1", Status: model.BookingCompleted, CheckIn: future},
			wantCode: apperrors.CodeConflict,
		},
		{
			name:     "already cancelled",
			existing: &model.Booking{ID: "b1", Status: model.BookingCancelled, CheckIn: future},
			wantCode: apperrors.CodeConflict,
		},
		{
			name:     "stay already started",
			existing: &model.Booking{ID: "b1", Status: model.BookingConfirmed, CheckIn: past},
			wantCode: apperrors.CodeConflict,
		},
		{
			name:     "missing booking",
			wantCode: apperrors.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.repo.existing = tt.existing

			booking, err := f.svc.Cancel(context.Background(), "b1")
			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				if tt.wantCode == apperrors.CodeConflict && !errors.Is(err, bookingserrors.ErrNotCancellable) {
					t.Errorf("conflict should wrap ErrNotCancellable")
				}
				if len(f.events.reasons) != 0 {
					t.Errorf("no event expected, got %v", f.events.reasons)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if booking.Status != model.BookingCancelled || booking.PaymentStatus != tt.wantPayment {
				t.Errorf("got %s/%s", booking.Status, booking.PaymentStatus)
			}
			if len(f.events.reasons) != 1 || f.events.reasons[0] != model.ReasonCancelledByUser {
				t.Errorf("events = %v", f.events.reasons)
			}
		})
	}
}

func TestCancel_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture()
	f.repo.existing = &model.Booking{ID: "b1", Status: model.BookingPending, CheckIn: time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC)}
	f.events.err = errors.New("broker unavailable")

	if _, err := f.svc.Cancel(context.Background(), "b1"); err != nil {
		t.Fatalf("publish failure should be logged only, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture()
	f.repo.existing = &model.Booking{ID: "b1", Status: model.BookingPending, PaymentStatus: model.PaymentPending}

	if _, err := f.svc.UpdateStatus(context.Background(), "b1", &model.BookingStatusUpdate{}); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("empty update should fail validation, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), "b1", &model.BookingStatusUpdate{Status: "archived"}); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("unknown status should fail validation, got %v", err)
	}

	booking, err := f.svc.UpdateStatus(context.Background(), "b1", &model.BookingStatusUpdate{PaymentStatus: model.PaymentPaid})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.PaymentStatus != model.PaymentPaid || booking.Status != model.BookingPending {
		t.Errorf("got %s/%s", booking.Status, booking.PaymentStatus)
	}
	if len(f.events.reasons) != 1 || f.events.reasons[0] != model.ReasonAdminStatusChange {
		t.Errorf("events = %v", f.events.reasons)
	}
}

func TestUpdateStatus_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    model.BookingStatus
		to      model.BookingStatus
		wantErr bool
	}{
		{"pending to confirmed", model.BookingPending, model.BookingConfirmed, false},
		{"confirmed to completed", model.BookingConfirmed, model.BookingCompleted, false},
		{"same status", model.BookingConfirmed, model.BookingConfirmed, false},
		{"pending to completed", model.BookingPending, model.BookingCompleted, true},
		{"cancelled is terminal", model.BookingCancelled, model.BookingConfirmed, true},
		{"completed is terminal", model.BookingCompleted, model.BookingCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.repo.existing = &model.Booking{ID: "b1", Status: tt.from}

			_, err := f.svc.UpdateStatus(context.Background(), "b1", &model.BookingStatusUpdate{Status: tt.to})
			if tt.wantErr {
				if !errors.Is(err, bookingserrors.ErrInvalidTransition) || !apperrors.HasCode(err, apperrors.CodeConflict) {
					t.Fatalf("expected invalid transition conflict, got %v", err)
				}
				if len(f.events.reasons) != 0 {
					t.Errorf("rejected transition must not publish")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestBuildReceipt(t *testing.T) {
	b := &model.Booking{
		ID:        "64b0000000000000deadbeef",
		Hotel:     &model.HotelSummary{Name: "Hotel du Lac", Location: "Annecy"},
		Total:     659.97,
		CreatedAt: time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC),
	}

	r := BuildReceipt(b, time.Date(2030, 1, 3, 0, 0, 0, 0, time.UTC))
	if r.ReceiptNumber != "SB-20300102-DEADBEEF" {
		t.Errorf("receipt number = %s", r.ReceiptNumber)
	}
	if r.HotelName != "Hotel du Lac" || r.Total != 659.97 {
		t.Errorf("unexpected receipt: %+v", r)
	}
}
