package availability

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"staybook/pkg/debounce"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"staybook/pkg/notify"
)

var (
	ErrBusy       = errors.New("availability probe already in progress")
	ErrNoHotel    = errors.New("no hotel loaded")
	ErrIncomplete = errors.New("check-in, check-out and a selected room are required")
)

type HotelSource interface {
	GetByID(ctx context.Context, id string) (*model.Hotel, error)
	Availability(ctx context.Context, hotelID string, q model.AvailabilityQuery) ([]model.RoomAvailability, error)
}

// State is a snapshot of the probe as shown on the hotel details view.
type State struct {
	HotelID          string         `json:"hotelId"`
	Hotel            *model.Hotel   `json:"hotel,omitempty"`
	Rooms            []model.Room   `json:"rooms"`
	CheckIn          *time.Time     `json:"checkIn,omitempty"`
	CheckOut         *time.Time     `json:"checkOut,omitempty"`
	Guests           int            `json:"guests"`
	SelectedRoomType model.RoomType `json:"selectedRoomType,omitempty"`
	SelectionStale   bool           `json:"selectionStale"`
	CheckedAt        *time.Time     `json:"checkedAt,omitempty"`
}

// MergeAvailability returns a copy of rooms with IsAvailable taken from the
// result sharing the room's type. Rooms without a matching result keep their
// previous flag.
func MergeAvailability(rooms []model.Room, results []model.RoomAvailability) []model.Room {
	byType := make(map[model.RoomType]bool, len(results))
	for _, r := range results {
		byType[r.Type] = r.IsAvailable
	}

	out := slices.Clone(rooms)
	for i := range out {
		if avail, ok := byType[out[i].Type]; ok {
			out[i].IsAvailable = avail
		}
	}
	return out
}

// Probe checks room availability of one hotel for the dates and guest count
// a client is considering.
type Probe struct {
	source    HotelSource
	notifier  notify.Notifier
	log       *logger.Logger
	timeout   time.Duration
	debouncer *debounce.Debouncer
	busy      atomic.Bool

	mu    sync.RWMutex
	state State
}

func NewProbe(source HotelSource, notifier notify.Notifier, log *logger.Logger, delay, timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := &Probe{
		source:   source,
		notifier: notifier,
		log:      log.Component("availability_probe"),
		timeout:  timeout,
		state:    State{Guests: 1, Rooms: []model.Room{}},
	}
	p.debouncer = debounce.New(delay, p.debouncedCheck)
	return p
}

// Load fetches a hotel and makes it the probe target. Dates, guests and the
// selection carry over from the previous hotel.
func (p *Probe) Load(ctx context.Context, hotelID string) (*model.Hotel, error) {
	hotel, err := p.source.GetByID(ctx, hotelID)
	if err != nil {
		p.log.Error("failed to load hotel", "hotel_id", hotelID, "error", err)
		p.notifier.Notify(notify.LevelError, "availability", "Unable to load hotel details")
		return nil, err
	}

	p.mu.Lock()
	p.state.HotelID = hotel.ID
	p.state.Hotel = hotel
	p.state.Rooms = slices.Clone(hotel.Rooms)
	if p.state.Rooms == nil {
		p.state.Rooms = []model.Room{}
	}
	p.state.SelectionStale = false
	p.state.CheckedAt = nil
	p.mu.Unlock()

	return hotel, nil
}

// SetDates schedules a debounced probe.
func (p *Probe) SetDates(checkIn, checkOut *time.Time) {
	p.mu.Lock()
	p.state.CheckIn = copyTime(checkIn)
	p.state.CheckOut = copyTime(checkOut)
	p.mu.Unlock()

	p.debouncer.Trigger()
}

// SetGuests schedules a debounced probe.
func (p *Probe) SetGuests(guests int) {
	p.mu.Lock()
	p.state.Guests = max(guests, 1)
	p.mu.Unlock()

	p.debouncer.Trigger()
}

func (p *Probe) SelectRoom(roomType model.RoomType) {
	p.mu.Lock()
	p.state.SelectedRoomType = roomType
	p.state.SelectionStale = false
	p.mu.Unlock()
}

func (p *Probe) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := p.state
	s.Rooms = slices.Clone(p.state.Rooms)
	s.CheckIn = copyTime(p.state.CheckIn)
	s.CheckOut = copyTime(p.state.CheckOut)
	s.CheckedAt = copyTime(p.state.CheckedAt)
	return s
}

// SelectionStale reports that the last probe marked the selected room type
// unavailable while it stayed selected.
func (p *Probe) SelectionStale() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.SelectionStale
}

// Flush runs a pending debounced probe now.
func (p *Probe) Flush() {
	p.debouncer.Flush()
}

func (p *Probe) Pending() bool {
	return p.debouncer.Pending()
}

func (p *Probe) Close() {
	p.debouncer.Stop()
}

func (p *Probe) debouncedCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.Check(ctx); err != nil && !errors.Is(err, ErrIncomplete) {
		p.log.Debug("probe not applied", "error", err)
	}
}

// Check queries the backend now. It is a no-op returning ErrIncomplete
// unless both dates and a selected room are set.
func (p *Probe) Check(ctx context.Context) error {
	p.mu.RLock()
	hotelID := p.state.HotelID
	checkIn, checkOut := copyTime(p.state.CheckIn), copyTime(p.state.CheckOut)
	guests := p.state.Guests
	selected := p.state.SelectedRoomType
	p.mu.RUnlock()

	if hotelID == "" {
		return ErrNoHotel
	}
	if checkIn == nil || checkOut == nil || selected == "" {
		return ErrIncomplete
	}

	if !p.busy.CompareAndSwap(false, true) {
		p.log.Debug("probe skipped, another one is in flight")
		return ErrBusy
	}
	defer p.busy.Store(false)

	results, err := p.source.Availability(ctx, hotelID, model.AvailabilityQuery{
		CheckIn:  *checkIn,
		CheckOut: *checkOut,
		Guests:   guests,
	})
	if err != nil {
		p.log.Error("availability check failed", "hotel_id", hotelID, "error", err)
		p.notifier.Notify(notify.LevelError, "availability", "Unable to check room availability")
		return nil
	}

	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.HotelID != hotelID {
		return nil
	}
	p.state.Rooms = MergeAvailability(p.state.Rooms, results)
	p.state.CheckedAt = &now

	stale := true
	for _, r := range p.state.Rooms {
		if r.Type == p.state.SelectedRoomType && r.IsAvailable {
			stale = false
			break
		}
	}
	p.state.SelectionStale = p.state.SelectedRoomType != "" && stale
	if p.state.SelectionStale {
		p.log.Info("selected room no longer available", "hotel_id", hotelID, "room_type", p.state.SelectedRoomType)
	}
	return nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
