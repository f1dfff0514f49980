package validator

import (
	"errors"
	"testing"
	"time"

	"staybook/pkg/logger"
	"staybook/pkg/model"
)

func TestValidate(t *testing.T) {
	v := NewBookingValidator(logger.Discard())
	now := time.Date(2030, 1, 1, 15, 0, 0, 0, time.UTC)
	checkIn := time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC)

	valid := func() *model.BookingCreate {
		return &model.BookingCreate{
			UserID:   "u1",
			HotelID:  "64b000000000000000000001",
			RoomID:   "64b0000000000000000000a1",
			CheckIn:  checkIn,
			CheckOut: checkIn.AddDate(0, 0, 2),
			Guests:   2,
		}
	}

	tests := []struct {
		name      string
		mutate    func(b *model.BookingCreate)
		wantField string
	}{
		{"valid", func(b *model.BookingCreate) {}, ""},
		{"check-in today", func(b *model.BookingCreate) {
			b.CheckIn = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
			b.CheckOut = b.CheckIn.AddDate(0, 0, 1)
		}, ""},
		{"missing user", func(b *model.BookingCreate) { b.UserID = "" }, "userId"},
		{"bad hotel id", func(b *model.BookingCreate) { b.HotelID = "hotel-1" }, "hotelId"},
		{"check-out not after check-in", func(b *model.BookingCreate) { b.CheckOut = b.CheckIn }, "checkOut"},
		{"zero guests", func(b *model.BookingCreate) { b.Guests = 0 }, "guests"},
		{"unknown payment status", func(b *model.BookingCreate) { b.PaymentStatus = "comped" }, "paymentStatus"},
		{"check-in yesterday", func(b *model.BookingCreate) {
			b.CheckIn = time.Date(2029, 12, 31, 0, 0, 0, 0, time.UTC)
			b.CheckOut = b.CheckIn.AddDate(0, 0, 3)
		}, "checkIn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid()
			tt.mutate(b)
			err := v.Validate(b, now)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) || len(verrs) == 0 {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("field = %s, want %s", verrs[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidateStatusUpdate(t *testing.T) {
	v := NewBookingValidator(logger.Discard())

	tests := []struct {
		name    string
		update  model.BookingStatusUpdate
		wantErr bool
	}{
		{"status only", model.BookingStatusUpdate{Status: model.BookingCompleted}, false},
		{"payment only", model.BookingStatusUpdate{PaymentStatus: model.PaymentRefunded}, false},
		{"empty", model.BookingStatusUpdate{}, true},
		{"unknown status", model.BookingStatusUpdate{Status: "archived"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStatusUpdate(&tt.update)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
