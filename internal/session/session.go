package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"staybook/internal/availability"
	"staybook/internal/history"
	"staybook/internal/payment"
	"staybook/internal/search"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"staybook/pkg/notify"
	"staybook/pkg/signal"
)

var (
	ErrNothingSelected      = errors.New("select a hotel, dates and a room first")
	ErrSelectionUnavailable = errors.New("the selected room is no longer available")
)

type HotelBackend interface {
	List(ctx context.Context, q model.HotelQuery) ([]model.Hotel, error)
	GetByID(ctx context.Context, id string) (*model.Hotel, error)
	Availability(ctx context.Context, hotelID string, q model.AvailabilityQuery) ([]model.RoomAvailability, error)
}

// Backend is the booking backend as seen by one client, carrying its token.
type Backend struct {
	Hotels   HotelBackend
	Bookings history.BookingSource
}

type Settings struct {
	Ceilings             search.Ceilings
	Listing              search.ListingConfig
	AvailabilityDebounce time.Duration
	RequestTimeout       time.Duration
	Intervals            history.Intervals
	Payment              payment.Config
	TaxRate              float64
	InboxCapacity        int
}

// Session aggregates one instance of every coordination component for a
// single client.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	Notifications *notify.Inbox
	Filters       *search.Store
	Listing       *search.ListingFetcher
	Probe         *availability.Probe
	Draft         *Holder
	History       *history.Fetcher
	Checkout      *payment.Checkout

	taxRate  float64
	lastSeen atomic.Int64
	log      *logger.Logger
}

func newSession(id, userID string, backend Backend, validator *payment.FormValidator, publish, watch signal.Signal, settings Settings, log *logger.Logger) (*Session, error) {
	log = log.WithAttrs("session_id", id)
	inbox := notify.NewInbox(settings.InboxCapacity, log)

	filters, err := search.NewStore(settings.Ceilings, search.ProfileSearch, log)
	if err != nil {
		return nil, err
	}

	listingCfg := settings.Listing
	listingCfg.RequestTimeout = settings.RequestTimeout

	s := &Session{
		ID:            id,
		UserID:        userID,
		CreatedAt:     time.Now(),
		Notifications: inbox,
		Filters:       filters,
		Listing:       search.NewListingFetcher(backend.Hotels, filters, inbox, log, listingCfg),
		Probe:         availability.NewProbe(backend.Hotels, inbox, log, settings.AvailabilityDebounce, settings.RequestTimeout),
		Draft:         &Holder{},
		History: history.NewFetcher(backend.Bookings, inbox, log, history.Config{
			UserID:    userID,
			View:      history.ViewMyBookings,
			Intervals: settings.Intervals,
			Timeout:   settings.RequestTimeout,
			Publish:   publish,
			Watch:     watch,
		}),
		Checkout: payment.NewCheckout(validator, inbox, log, settings.Payment),
		taxRate:  settings.TaxRate,
		log:      log,
	}
	s.lastSeen.Store(s.CreatedAt.UnixNano())
	return s, nil
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// CommitDraft turns the probe's current selection into the booking draft and
// starts a fresh checkout for it.
func (s *Session) CommitDraft() (*Draft, error) {
	state := s.Probe.State()
	if state.Hotel == nil || state.CheckIn == nil || state.CheckOut == nil || state.SelectedRoomType == "" {
		return nil, ErrNothingSelected
	}
	if state.SelectionStale {
		return nil, ErrSelectionUnavailable
	}

	var room *model.Room
	for i := range state.Rooms {
		if state.Rooms[i].Type == state.SelectedRoomType {
			room = &state.Rooms[i]
			break
		}
	}
	if room == nil {
		return nil, ErrNothingSelected
	}

	draft, err := NewDraft(state.Hotel, *room, *state.CheckIn, *state.CheckOut, state.Guests, s.taxRate)
	if err != nil {
		return nil, err
	}

	s.Draft.Set(draft)
	s.Checkout.Reset()
	s.log.Info("booking draft committed",
		"hotel_id", draft.HotelID,
		"room_type", draft.RoomType,
		"nights", draft.Nights,
		"total", draft.Total,
	)
	return draft, nil
}

func (s *Session) close() {
	s.Listing.Close()
	s.Probe.Close()
	s.History.Stop()
}
