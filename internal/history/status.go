package history

import (
	"fmt"
	"strings"
	"time"

	"staybook/pkg/model"
)

// DisplayStatus is the single status shown for a booking, collapsed from the
// backend's status and paymentStatus fields.
type DisplayStatus string

const (
	DisplayCompleted DisplayStatus = "Completed"
	DisplayCancelled DisplayStatus = "Cancelled"
	DisplayPending   DisplayStatus = "Pending"
	DisplayUnknown   DisplayStatus = "Unknown"
)

// NormalizeStatus applies, in order: cancelled or refunded wins, then paid,
// confirmed or completed, then pending. Anything else passes the raw status
// through, or Unknown when it is empty.
func NormalizeStatus(b model.Booking) DisplayStatus {
	switch {
	case b.Status == model.BookingCancelled || b.PaymentStatus == model.PaymentRefunded:
		return DisplayCancelled
	case b.PaymentStatus == model.PaymentPaid ||
		b.Status == model.BookingConfirmed ||
		b.Status == model.BookingCompleted:
		return DisplayCompleted
	case b.Status == model.BookingPending:
		return DisplayPending
	case b.Status != "":
		return DisplayStatus(b.Status)
	default:
		return DisplayUnknown
	}
}

// CanCancel reports whether the cancel action is offered: the booking is
// pending or confirmed, not refunded, and its check-in is still ahead.
func CanCancel(b model.Booking, now time.Time) bool {
	if b.Status != model.BookingPending && b.Status != model.BookingConfirmed {
		return false
	}
	if b.PaymentStatus == model.PaymentRefunded {
		return false
	}
	return b.CheckIn.After(now)
}

type Tab string

const (
	TabAll       Tab = "all"
	TabUpcoming  Tab = "upcoming"
	TabCompleted Tab = "completed"
	TabCancelled Tab = "cancelled"
)

func ParseTab(s string) (Tab, error) {
	switch t := Tab(strings.ToLower(s)); t {
	case TabAll, TabUpcoming, TabCompleted, TabCancelled:
		return t, nil
	case "":
		return TabAll, nil
	default:
		return "", fmt.Errorf("unknown tab %q", s)
	}
}

// Criteria combines the tab, free text and advanced filters of the bookings
// view. Every set criterion must match.
type Criteria struct {
	Tab      Tab
	Query    string
	Status   string
	From     *time.Time
	To       *time.Time
	MinPrice *float64
	MaxPrice *float64
}

// Entry is a booking annotated for display.
type Entry struct {
	model.Booking
	DisplayStatus DisplayStatus `json:"displayStatus"`
	CanCancel     bool          `json:"canCancel"`
}

func FilterBookings(bookings []model.Booking, c Criteria, now time.Time) []Entry {
	query := strings.ToLower(strings.TrimSpace(c.Query))
	status := strings.ToLower(strings.TrimSpace(c.Status))

	out := make([]Entry, 0, len(bookings))
	for _, b := range bookings {
		display := NormalizeStatus(b)

		if !matchesTab(b, display, c.Tab, now) {
			continue
		}
		if query != "" && !matchesText(b, query) {
			continue
		}
		if status != "" && status != "all" &&
			status != strings.ToLower(string(display)) && status != strings.ToLower(string(b.Status)) {
			continue
		}
		if c.From != nil && b.CheckIn.Before(*c.From) {
			continue
		}
		if c.To != nil && !b.CheckIn.Before(endOfDay(*c.To)) {
			continue
		}
		if c.MinPrice != nil && b.Total < *c.MinPrice {
			continue
		}
		if c.MaxPrice != nil && b.Total > *c.MaxPrice {
			continue
		}

		out = append(out, Entry{Booking: b, DisplayStatus: display, CanCancel: CanCancel(b, now)})
	}
	return out
}

func matchesTab(b model.Booking, display DisplayStatus, tab Tab, now time.Time) bool {
	switch tab {
	case TabUpcoming:
		return b.CheckIn.After(now) && b.Status != model.BookingCancelled
	case TabCompleted:
		return display == DisplayCompleted
	case TabCancelled:
		return display == DisplayCancelled
	default:
		return true
	}
}

func matchesText(b model.Booking, query string) bool {
	if b.Hotel == nil {
		return false
	}
	return strings.Contains(strings.ToLower(b.Hotel.Name), query) ||
		strings.Contains(strings.ToLower(b.Hotel.Location), query)
}

// endOfDay returns the start of the day after t, so a "to" date includes
// the whole day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}
