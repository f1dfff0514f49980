package model

import "time"

const (
	ReasonCancelledByUser   = "cancelled_by_user"
	ReasonAdminStatusChange = "admin_status_change"
	ReasonBookingCreated    = "booking_created"
)

// BookingStatusEvent is published whenever a booking's status or payment
// status changes on the backend.
type BookingStatusEvent struct {
	EventID       string        `json:"eventId"`
	BookingID     string        `json:"bookingId"`
	UserID        string        `json:"userId"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Reason        string        `json:"reason"`
	OccurredAt    time.Time     `json:"occurredAt"`
}
